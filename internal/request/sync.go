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

package request

import (
	"context"
	"fmt"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/item"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// MaxSyncChanges is the largest MaxChangesReturned the server accepts.
const MaxSyncChanges = 512

// SyncScope selects whether associated items are synchronized.
type SyncScope int

const (
	NormalItems SyncScope = iota
	NormalAndAssociatedItems
)

func (s SyncScope) String() string {
	if s == NormalAndAssociatedItems {
		return "NormalAndAssociatedItems"
	}
	return "NormalItems"
}

// ChangeType is the kind of one synchronization change.
type ChangeType int

const (
	ChangeCreate ChangeType = iota
	ChangeUpdate
	ChangeDelete
	ChangeReadFlag
)

func (t ChangeType) String() string {
	switch t {
	case ChangeCreate:
		return "Create"
	case ChangeUpdate:
		return "Update"
	case ChangeDelete:
		return "Delete"
	case ChangeReadFlag:
		return "ReadFlagChange"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

var changeTypes = map[string]ChangeType{
	xmlwire.Create:         ChangeCreate,
	xmlwire.Update:         ChangeUpdate,
	xmlwire.Delete:         ChangeDelete,
	xmlwire.ReadFlagChange: ChangeReadFlag,
}

// ItemChange is one change to the items of a folder.
type ItemChange struct {
	Type ChangeType

	// Item is set for creations and updates.
	Item *item.Item

	// ItemID is set for every change.
	ItemID *complex.ItemId

	// IsRead is the new read flag of a ReadFlagChange.
	IsRead bool
}

// SyncFolderItemsResponse carries one batch of changes.
type SyncFolderItemsResponse struct {
	ServiceResponse

	// SyncState is passed to the next request to continue after this
	// batch.
	SyncState string

	// MoreChangesAvailable is true until the batch includes the last
	// change.
	MoreChangesAvailable bool

	Changes []*ItemChange
}

func (r *SyncFolderItemsResponse) TryReadElementFromXML(rd *xmlwire.Reader) (bool, error) {
	switch {
	case rd.IsStartElement(xmlwire.Messages, xmlwire.SyncState):
		s, err := rd.ReadElementValue()
		r.SyncState = s
		return true, err
	case rd.IsStartElement(xmlwire.Messages, xmlwire.IncludesLastItemInRange):
		s, err := rd.ReadElementValue()
		if err != nil {
			return false, err
		}
		last, err := xmlwire.ParseBool(s)
		r.MoreChangesAvailable = !last
		return true, err
	case rd.IsStartElement(xmlwire.Messages, xmlwire.Changes):
		return true, complex.LoadFromXML(rd, xmlwire.Messages, xmlwire.Changes, bindFunc(r.tryReadChange))
	}
	return false, nil
}

func (r *SyncFolderItemsResponse) tryReadChange(rd *xmlwire.Reader) (bool, error) {
	local := rd.LocalName()
	t, ok := changeTypes[local]
	if !ok || rd.Namespace() != xmlwire.Types {
		return false, nil
	}
	c := &ItemChange{Type: t}
	err := complex.LoadFromXML(rd, xmlwire.Types, local, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		switch {
		case rd.IsStartElement(xmlwire.Types, xmlwire.ItemId):
			id := &complex.ItemId{}
			c.ItemID = id
			return true, complex.LoadFromXML(rd, xmlwire.Types, xmlwire.ItemId, id)
		case rd.IsStartElement(xmlwire.Types, xmlwire.IsRead):
			s, err := rd.ReadElementValue()
			if err != nil {
				return false, err
			}
			c.IsRead, err = xmlwire.ParseBool(s)
			return true, err
		case rd.Namespace() == xmlwire.Types:
			it, err := item.LoadFromXML(rd)
			if err != nil {
				return false, err
			}
			c.Item = it
			c.ItemID = it.ID()
			return true, nil
		}
		return false, nil
	}))
	if err != nil {
		return false, err
	}
	if c.ItemID == nil {
		return false, ewserr.Protocol("%s change without an item id", local)
	}
	r.Changes = append(r.Changes, c)
	return true, nil
}

// SyncFolderItems fetches the changes to the items of a folder since a
// previous synchronization.
type SyncFolderItems struct {
	Request

	SyncFolderID *complex.FolderId

	// PropertySet selects the properties of created and updated items.
	// Nil loads the item ids only.
	PropertySet *propdef.PropertySet

	// SyncState is empty for the first synchronization.
	SyncState string

	IgnoredItemIDs []*complex.ItemId

	// MaxChangesReturned must be between 1 and MaxSyncChanges.
	MaxChangesReturned int

	// SyncScope requires Exchange2010.  Nil leaves it out.
	SyncScope *SyncScope
}

func (s *SyncFolderItems) XMLElementName() string { return xmlwire.SyncFolderItems }
func (s *SyncFolderItems) ResponseXMLElementName() string {
	return responseName(xmlwire.SyncFolderItems)
}
func (s *SyncFolderItems) ResponseMessageXMLElementName() string {
	return responseMessageName(xmlwire.SyncFolderItems)
}
func (s *SyncFolderItems) MinimumRequiredServerVersion() version.Version {
	return version.Exchange2007SP1
}

// ExpectedResponseMessageCount is always 1.
func (s *SyncFolderItems) ExpectedResponseMessageCount() int { return 1 }

func (s *SyncFolderItems) CreateServiceResponse(int) *SyncFolderItemsResponse {
	return &SyncFolderItemsResponse{}
}

func (s *SyncFolderItems) Validate(v version.Version) error {
	if s.SyncFolderID == nil {
		return ewserr.ArgumentNull("syncFolderId")
	}
	if err := s.SyncFolderID.Validate(); err != nil {
		return err
	}
	if s.MaxChangesReturned < 1 || s.MaxChangesReturned > MaxSyncChanges {
		return ewserr.OutOfRange("maxChangesReturned",
			fmt.Sprintf("must be between 1 and %d, got %d", MaxSyncChanges, s.MaxChangesReturned))
	}
	for _, id := range s.IgnoredItemIDs {
		if err := id.Validate(); err != nil {
			return err
		}
	}
	if s.SyncScope != nil {
		if err := version.Require(xmlwire.SyncScope, version.Exchange2010, v); err != nil {
			return err
		}
	}
	if s.PropertySet != nil {
		return s.PropertySet.Validate(v)
	}
	return nil
}

func (s *SyncFolderItems) WriteAttributesToXML(w *xmlwire.Writer) {}

func (s *SyncFolderItems) WriteElementsToXML(w *xmlwire.Writer) {
	ps := s.PropertySet
	if ps == nil {
		ps = propdef.NewPropertySet(propdef.IdOnly)
	}
	ps.WriteToXML(w, xmlwire.ItemShape)
	w.WriteStartElement(xmlwire.Messages, xmlwire.SyncFolderId)
	s.SyncFolderID.WriteToXML(w)
	w.WriteEndElement()
	if s.SyncState != "" {
		w.WriteElementValue(xmlwire.Messages, xmlwire.SyncState, s.SyncState)
	}
	if len(s.IgnoredItemIDs) > 0 {
		w.WriteStartElement(xmlwire.Messages, xmlwire.Ignore)
		for _, id := range s.IgnoredItemIDs {
			complex.WriteToXML(w, xmlwire.Types, xmlwire.ItemId, id)
		}
		w.WriteEndElement()
	}
	w.WriteElementValue(xmlwire.Messages, xmlwire.MaxChangesReturned, s.MaxChangesReturned)
	if s.SyncScope != nil {
		w.WriteElementValue(xmlwire.Messages, xmlwire.SyncScope, *s.SyncScope)
	}
}

func (s *SyncFolderItems) Execute(ctx context.Context) (*SyncFolderItemsResponse, error) {
	responses, err := Execute[*SyncFolderItemsResponse](ctx, &s.Request, s)
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}
