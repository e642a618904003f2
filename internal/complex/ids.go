// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package complex

import (
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/xmlwire"
)

// ItemId is the server-assigned identity of an item.  The change key
// identifies one revision of the item.
type ItemId struct {
	Id        string
	ChangeKey string
}

func (id *ItemId) ReadAttributesFromXML(r *xmlwire.Reader) error {
	id.Id = r.ReadAttributeValue(xmlwire.AttrId)
	id.ChangeKey = r.ReadAttributeValue(xmlwire.AttrChangeKey)
	if id.Id == "" {
		return ewserr.Protocol("item id without %s attribute", xmlwire.AttrId)
	}
	return nil
}

func (id *ItemId) TryReadElementFromXML(r *xmlwire.Reader) (bool, error) {
	return false, nil
}

func (id *ItemId) WriteAttributesToXML(w *xmlwire.Writer) {
	w.WriteAttributeValue(xmlwire.AttrId, id.Id)
	if id.ChangeKey != "" {
		w.WriteAttributeValue(xmlwire.AttrChangeKey, id.ChangeKey)
	}
}

func (id *ItemId) WriteElementsToXML(w *xmlwire.Writer) {}

// Validate requires a non-empty Id.
func (id *ItemId) Validate() error {
	if id == nil {
		return ewserr.ArgumentNull("itemId")
	}
	if id.Id == "" {
		return ewserr.ArgumentMissing("itemId")
	}
	return nil
}

func (id *ItemId) String() string {
	return id.Id
}

// Well-known folder names.
const (
	Inbox         = "inbox"
	SentItems     = "sentitems"
	Drafts        = "drafts"
	DeletedItems  = "deleteditems"
	JunkEmail     = "junkemail"
	Outbox        = "outbox"
	MsgFolderRoot = "msgfolderroot"
	Root          = "root"
)

// FolderId refers to a folder either by its server-assigned Id or by
// one of the well-known names, optionally in another user's mailbox.
type FolderId struct {
	Id        string
	ChangeKey string

	// Distinguished is a well-known folder name such as Inbox.
	Distinguished string

	// Mailbox is the SMTP address owning a distinguished folder.
	Mailbox string
}

// DistinguishedFolderId returns the id of a well-known folder.
func DistinguishedFolderId(name, mailbox string) *FolderId {
	return &FolderId{Distinguished: name, Mailbox: mailbox}
}

func (id *FolderId) Validate() error {
	if id == nil {
		return ewserr.ArgumentNull("folderId")
	}
	if id.Id == "" && id.Distinguished == "" {
		return ewserr.ArgumentMissing("folderId")
	}
	if id.Id != "" && id.Distinguished != "" {
		return ewserr.Validation("folder id %q cannot also name the distinguished folder %q", id.Id, id.Distinguished)
	}
	if id.Mailbox != "" && id.Distinguished == "" {
		return ewserr.Validation("a mailbox can only be given for a distinguished folder")
	}
	return nil
}

func (id *FolderId) ReadAttributesFromXML(r *xmlwire.Reader) error {
	id.Id = r.ReadAttributeValue(xmlwire.AttrId)
	id.ChangeKey = r.ReadAttributeValue(xmlwire.AttrChangeKey)
	return nil
}

func (id *FolderId) TryReadElementFromXML(r *xmlwire.Reader) (bool, error) {
	return false, nil
}

// WriteToXML writes <t:FolderId> or <t:DistinguishedFolderId>.
func (id *FolderId) WriteToXML(w *xmlwire.Writer) {
	if id.Distinguished == "" {
		w.WriteStartElement(xmlwire.Types, xmlwire.FolderId)
		w.WriteAttributeValue(xmlwire.AttrId, id.Id)
		if id.ChangeKey != "" {
			w.WriteAttributeValue(xmlwire.AttrChangeKey, id.ChangeKey)
		}
		w.WriteEndElement()
		return
	}
	w.WriteStartElement(xmlwire.Types, xmlwire.DistinguishedFolderId)
	w.WriteAttributeValue(xmlwire.AttrId, id.Distinguished)
	if id.Mailbox != "" {
		w.WriteStartElement(xmlwire.Types, xmlwire.Mailbox)
		w.WriteElementValue(xmlwire.Types, xmlwire.EmailAddress, id.Mailbox)
		w.WriteEndElement()
	}
	w.WriteEndElement()
}

func (id *FolderId) String() string {
	if id.Distinguished != "" {
		if id.Mailbox != "" {
			return id.Distinguished + " (" + id.Mailbox + ")"
		}
		return id.Distinguished
	}
	return id.Id
}
