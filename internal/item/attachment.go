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

package item

import (
	"context"
	"time"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// AttachmentKind selects the attachment variant.
type AttachmentKind int

const (
	FileAttachment AttachmentKind = iota
	ItemAttachment
)

func (k AttachmentKind) element() string {
	if k == ItemAttachment {
		return xmlwire.ItemAttachment
	}
	return xmlwire.FileAttachment
}

const attachmentSaved = "This attachment can't be updated because it's already been saved."

// Attachment is a file or an item attached to an item.
//
// Once the server has assigned the attachment an Id it is saved and
// every setter fails.
type Attachment struct {
	kind    AttachmentKind
	id      string
	tracker *complex.Tracker

	name             complex.Field[string]
	contentType      complex.Field[string]
	contentID        complex.Field[string]
	contentLocation  complex.Field[string]
	size             complex.Field[int]
	lastModifiedTime complex.Field[time.Time]
	isInline         complex.Field[bool]

	// File attachments.
	isContactPhoto complex.Field[bool]
	content        complex.Field[[]byte]

	// Item attachments.
	item *Item
}

func newAttachment(kind AttachmentKind) *Attachment {
	a := &Attachment{
		kind:             kind,
		name:             complex.NewField[string](xmlwire.Name),
		contentType:      complex.NewField[string](xmlwire.ContentType),
		contentID:        complex.NewField[string](xmlwire.ContentId),
		contentLocation:  complex.NewField[string](xmlwire.ContentLocation),
		size:             complex.NewField[int](xmlwire.Size),
		lastModifiedTime: complex.NewField[time.Time](xmlwire.LastModifiedTime),
		isInline:         complex.NewField[bool](xmlwire.IsInline),
		isContactPhoto:   complex.NewField[bool](xmlwire.IsContactPhoto),
		content:          complex.NewField[[]byte](xmlwire.Content),
	}
	a.tracker = complex.NewTracker(func(string) error {
		if a.id != "" {
			return ewserr.ObjectUpdate(attachmentSaved)
		}
		return nil
	})
	return a
}

// NewFileAttachment returns an unsaved file attachment.
func NewFileAttachment(name string, content []byte) *Attachment {
	a := newAttachment(FileAttachment)
	a.name.Load(name)
	a.content.Load(content)
	return a
}

// NewItemAttachment returns an unsaved attachment holding it.
func NewItemAttachment(name string, it *Item) *Attachment {
	a := newAttachment(ItemAttachment)
	a.name.Load(name)
	a.item = it
	return a
}

func (a *Attachment) Kind() AttachmentKind { return a.kind }

// ID returns the server-assigned id, or "" for an unsaved attachment.
func (a *Attachment) ID() string { return a.id }

// IsNew reports whether the attachment has not been saved.
func (a *Attachment) IsNew() bool { return a.id == "" }

func (a *Attachment) Name() string            { return a.name.Value() }
func (a *Attachment) ContentType() string     { return a.contentType.Value() }
func (a *Attachment) ContentID() string       { return a.contentID.Value() }
func (a *Attachment) ContentLocation() string { return a.contentLocation.Value() }
func (a *Attachment) Size() int               { return a.size.Value() }
func (a *Attachment) IsInline() bool          { return a.isInline.Value() }
func (a *Attachment) IsContactPhoto() bool    { return a.isContactPhoto.Value() }

// Content returns the content of a file attachment.  It is nil until
// the content has been loaded.
func (a *Attachment) Content() []byte { return a.content.Value() }

// Item returns the item held by an item attachment.
func (a *Attachment) Item() *Item { return a.item }

func (a *Attachment) LastModifiedTime() (time.Time, bool) {
	return a.lastModifiedTime.Get()
}

func (a *Attachment) SetName(v string) error            { return a.name.Set(a.tracker, v) }
func (a *Attachment) SetContentType(v string) error     { return a.contentType.Set(a.tracker, v) }
func (a *Attachment) SetContentID(v string) error       { return a.contentID.Set(a.tracker, v) }
func (a *Attachment) SetContentLocation(v string) error { return a.contentLocation.Set(a.tracker, v) }
func (a *Attachment) SetIsInline(v bool) error          { return a.isInline.Set(a.tracker, v) }

func (a *Attachment) SetIsContactPhoto(v bool) error {
	if a.kind != FileAttachment {
		return ewserr.Validation("only file attachments can be contact photos")
	}
	return a.isContactPhoto.Set(a.tracker, v)
}

func (a *Attachment) SetContent(v []byte) error {
	if a.kind != FileAttachment {
		return ewserr.Validation("only file attachments have content")
	}
	return a.content.Set(a.tracker, v)
}

// Validate checks the attachment before it is sent for creation.
func (a *Attachment) Validate(v version.Version) error {
	if a.name.Value() == "" {
		return ewserr.ArgumentMissing("attachment name")
	}
	if a.isInline.IsSet() {
		if err := version.Require("IsInline", version.Exchange2010, v); err != nil {
			return err
		}
	}
	if a.isContactPhoto.IsSet() {
		if err := version.Require("IsContactPhoto", version.Exchange2010, v); err != nil {
			return err
		}
	}
	if a.kind == ItemAttachment {
		if a.item == nil {
			return ewserr.ArgumentNull("attachment item")
		}
		return a.item.validateForCreate(v)
	}
	return nil
}

func (a *Attachment) TryReadElementFromXML(r *xmlwire.Reader) (bool, error) {
	switch r.LocalName() {
	case xmlwire.AttachmentId:
		a.id = r.ReadAttributeValue(xmlwire.AttrId)
		return true, r.SkipCurrentElement()
	case xmlwire.Name:
		return true, loadString(r, &a.name)
	case xmlwire.ContentType:
		return true, loadString(r, &a.contentType)
	case xmlwire.ContentId:
		return true, loadString(r, &a.contentID)
	case xmlwire.ContentLocation:
		return true, loadString(r, &a.contentLocation)
	case xmlwire.Size:
		return true, loadParsed(r, &a.size, xmlwire.ParseInt)
	case xmlwire.LastModifiedTime:
		return true, loadParsed(r, &a.lastModifiedTime, xmlwire.ParseTime)
	case xmlwire.IsInline:
		return true, loadParsed(r, &a.isInline, xmlwire.ParseBool)
	case xmlwire.IsContactPhoto:
		return true, loadParsed(r, &a.isContactPhoto, xmlwire.ParseBool)
	case xmlwire.Content:
		return true, loadParsed(r, &a.content, xmlwire.ParseBase64)
	}
	if a.kind == ItemAttachment && r.Namespace() == xmlwire.Types {
		it, err := LoadFromXML(r)
		if err != nil {
			return false, err
		}
		a.item = it
		return true, nil
	}
	return false, nil
}

// LoadAttachmentFromXML reads a <t:FileAttachment> or
// <t:ItemAttachment> element.
func LoadAttachmentFromXML(r *xmlwire.Reader) (*Attachment, error) {
	var a *Attachment
	switch {
	case r.IsStartElement(xmlwire.Types, xmlwire.FileAttachment):
		a = newAttachment(FileAttachment)
	case r.IsStartElement(xmlwire.Types, xmlwire.ItemAttachment):
		a = newAttachment(ItemAttachment)
	default:
		return nil, ewserr.Protocol("unexpected attachment element %s", r.LocalName())
	}
	if err := complex.LoadFromXML(r, xmlwire.Types, a.kind.element(), a); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload updates a saved attachment from an element returned for it,
// such as the response to a request for its content.
func (a *Attachment) Reload(r *xmlwire.Reader) error {
	if !r.IsStartElement(xmlwire.Types, a.kind.element()) {
		return ewserr.Protocol("expected %s, found %s", a.kind.element(), r.LocalName())
	}
	return complex.LoadFromXML(r, xmlwire.Types, a.kind.element(), a)
}

// WriteElementsToXML writes the settable properties in protocol order.
func (a *Attachment) WriteElementsToXML(w *xmlwire.Writer) {
	writeValue(w, &a.name)
	writeValue(w, &a.contentType)
	writeValue(w, &a.contentID)
	writeValue(w, &a.contentLocation)
	writeValue(w, &a.isInline)
	switch a.kind {
	case FileAttachment:
		writeValue(w, &a.isContactPhoto)
		writeValue(w, &a.content)
	case ItemAttachment:
		if a.item != nil {
			a.item.WriteToXML(w)
		}
	}
}

// WriteToXML writes the attachment element.
func (a *Attachment) WriteToXML(w *xmlwire.Writer) {
	complex.WriteToXML(w, xmlwire.Types, a.kind.element(), a)
}

// AttachmentLoader fetches the content of saved attachments.
type AttachmentLoader interface {
	LoadAttachments(ctx context.Context, attachments ...*Attachment) error
}

// Load fetches the attachment's content with l.
func (a *Attachment) Load(ctx context.Context, l AttachmentLoader) error {
	if a.IsNew() {
		return ewserr.Validation("an unsaved attachment cannot be loaded")
	}
	return l.LoadAttachments(ctx, a)
}

func loadString(r *xmlwire.Reader, f *complex.Field[string]) error {
	s, err := r.ReadElementValue()
	if err != nil {
		return err
	}
	f.Load(s)
	return nil
}

func loadParsed[T any](r *xmlwire.Reader, f *complex.Field[T], parse func(string) (T, error)) error {
	s, err := r.ReadElementValue()
	if err != nil {
		return err
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	f.Load(v)
	return nil
}

func writeValue[T any](w *xmlwire.Writer, f *complex.Field[T]) {
	if v, ok := f.Get(); ok {
		w.WriteElementValue(xmlwire.Types, f.Name, v)
	}
}
