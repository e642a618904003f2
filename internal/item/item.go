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

// Package item contains the mailbox objects requests operate on:
// items, their attachments, and folders.
//
// Items track which properties were changed since they were loaded so
// that an update sends only those.  Properties that can only be given
// when an item is created are frozen once the server has assigned the
// item its id.
package item

import (
	"fmt"
	"time"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/schema"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// Kind selects the element an item is written as.
type Kind int

const (
	KindItem Kind = iota
	KindMessage
)

func (k Kind) element() string {
	if k == KindMessage {
		return xmlwire.Message
	}
	return xmlwire.Item
}

// Importance values.
const (
	ImportanceLow    = "Low"
	ImportanceNormal = "Normal"
	ImportanceHigh   = "High"
)

// Item is a mailbox item.  The zero Item is not usable; use New or
// LoadFromXML.
type Item struct {
	kind    Kind
	element string
	id      *complex.ItemId
	parent  *complex.FolderId
	tracker *complex.Tracker
	changed []*propdef.PropertyDefinition

	mimeContent       complex.Field[[]byte]
	itemClass         complex.Field[string]
	subject           complex.Field[string]
	body              complex.Field[*complex.MessageBody]
	attachments       []*Attachment
	dateTimeReceived  complex.Field[time.Time]
	size              complex.Field[int]
	categories        complex.Field[[]string]
	importance        complex.Field[string]
	hasAttachments    complex.Field[bool]
	extended          *complex.ExtendedProperties
	conversationID    complex.Field[complex.ItemId]
	preview           complex.Field[string]
	internetMessageID complex.Field[string]
	isRead            complex.Field[bool]
}

// New returns an unsaved item of the given kind.
func New(kind Kind) *Item {
	it := &Item{
		kind:              kind,
		element:           kind.element(),
		mimeContent:       complex.NewField[[]byte](xmlwire.MimeContent),
		itemClass:         complex.NewField[string](xmlwire.ItemClass),
		subject:           complex.NewField[string](xmlwire.Subject),
		body:              complex.NewField[*complex.MessageBody](xmlwire.Body),
		dateTimeReceived:  complex.NewField[time.Time](xmlwire.DateTimeReceived),
		size:              complex.NewField[int](xmlwire.Size),
		categories:        complex.NewField[[]string](xmlwire.Categories),
		importance:        complex.NewField[string](xmlwire.Importance),
		hasAttachments:    complex.NewField[bool](xmlwire.HasAttachments),
		conversationID:    complex.NewField[complex.ItemId](xmlwire.ConversationId),
		preview:           complex.NewField[string](xmlwire.Preview),
		internetMessageID: complex.NewField[string](xmlwire.InternetMessageId),
		isRead:            complex.NewField[bool](xmlwire.IsRead),
	}
	it.tracker = complex.NewTracker(it.guard)
	it.tracker.OnChange(it.recordChange)
	it.extended = complex.NewExtendedProperties(it.tracker)
	return it
}

// NewMessage returns an unsaved message.
func NewMessage() *Item {
	return New(KindMessage)
}

// guard freezes creation-only properties once the item is saved.
func (it *Item) guard(field string) error {
	if it.IsNew() || field == xmlwire.ExtendedProperty {
		return nil
	}
	d, ok := schema.ItemPropertyByElement(field)
	if !ok || !d.HasFlag(propdef.CanUpdate) {
		return ewserr.ObjectUpdate(fmt.Sprintf("%s can only be set when the item is created", field))
	}
	return nil
}

func (it *Item) recordChange(field string) {
	d, ok := schema.ItemPropertyByElement(field)
	if !ok {
		return
	}
	for _, c := range it.changed {
		if c == d {
			return
		}
	}
	it.changed = append(it.changed, d)
}

func (it *Item) Kind() Kind { return it.kind }

// ID returns the server-assigned id, or nil for an unsaved item.
func (it *Item) ID() *complex.ItemId { return it.id }

// IsNew reports whether the item has not been saved.
func (it *Item) IsNew() bool { return it.id == nil }

func (it *Item) ParentFolderID() *complex.FolderId { return it.parent }

func (it *Item) MimeContent() []byte        { return it.mimeContent.Value() }
func (it *Item) ItemClass() string          { return it.itemClass.Value() }
func (it *Item) Subject() string            { return it.subject.Value() }
func (it *Item) Body() *complex.MessageBody { return it.body.Value() }
func (it *Item) Size() int                  { return it.size.Value() }
func (it *Item) Categories() []string       { return it.categories.Value() }
func (it *Item) Importance() string         { return it.importance.Value() }
func (it *Item) HasAttachments() bool       { return it.hasAttachments.Value() }
func (it *Item) Preview() string            { return it.preview.Value() }
func (it *Item) InternetMessageID() string  { return it.internetMessageID.Value() }

func (it *Item) DateTimeReceived() (time.Time, bool) { return it.dateTimeReceived.Get() }
func (it *Item) IsRead() (bool, bool)                { return it.isRead.Get() }

func (it *Item) ConversationID() (complex.ItemId, bool) { return it.conversationID.Get() }

// Attachments returns the attachments in the order they were added or
// loaded.
func (it *Item) Attachments() []*Attachment {
	return append([]*Attachment(nil), it.attachments...)
}

// ExtendedProperties returns the item's extended properties.  Changes
// made through it are sent by the next update.
func (it *Item) ExtendedProperties() *complex.ExtendedProperties {
	return it.extended
}

func (it *Item) SetMimeContent(v []byte) error  { return it.mimeContent.Set(it.tracker, v) }
func (it *Item) SetItemClass(v string) error    { return it.itemClass.Set(it.tracker, v) }
func (it *Item) SetSubject(v string) error      { return it.subject.Set(it.tracker, v) }
func (it *Item) SetCategories(v []string) error { return it.categories.Set(it.tracker, v) }
func (it *Item) ClearSubject() error            { return it.subject.Clear(it.tracker) }
func (it *Item) ClearBody() error               { return it.body.Clear(it.tracker) }
func (it *Item) ClearCategories() error         { return it.categories.Clear(it.tracker) }

func (it *Item) SetBody(b *complex.MessageBody) error {
	if b == nil {
		return ewserr.ArgumentNull("body")
	}
	return it.body.Set(it.tracker, b)
}

func (it *Item) SetImportance(v string) error {
	switch v {
	case ImportanceLow, ImportanceNormal, ImportanceHigh:
	default:
		return ewserr.OutOfRange("importance", fmt.Sprintf("unknown importance %q", v))
	}
	return it.importance.Set(it.tracker, v)
}

// SetIsRead sets the read flag, which only messages have.
func (it *Item) SetIsRead(v bool) error {
	if it.kind != KindMessage {
		return ewserr.Validation("only messages have a read flag")
	}
	return it.isRead.Set(it.tracker, v)
}

// AddAttachment attaches a to an unsaved item.
func (it *Item) AddAttachment(a *Attachment) error {
	if a == nil {
		return ewserr.ArgumentNull("attachment")
	}
	if err := it.tracker.Check(xmlwire.Attachments); err != nil {
		return err
	}
	if !a.IsNew() {
		return ewserr.Validation("attachment %s is already saved", a.ID())
	}
	it.attachments = append(it.attachments, a)
	it.tracker.Changed(xmlwire.Attachments)
	return nil
}

// ChangedProperties returns the properties changed since the item was
// loaded or last saved, in the order they were first changed.
func (it *Item) ChangedProperties() []*propdef.PropertyDefinition {
	return append([]*propdef.PropertyDefinition(nil), it.changed...)
}

// HasChanges reports whether an update would send anything.
func (it *Item) HasChanges() bool {
	return len(it.changed) > 0 || len(it.extended.Modified()) > 0 || len(it.extended.Removed()) > 0
}

// ClearChanges forgets the recorded changes, normally after they have
// been saved.
func (it *Item) ClearChanges() {
	it.changed = nil
	it.extended.ClearChanges()
}

// Saved records the identity the server assigned when it created the
// item.  Attachments returned with created are matched to the item's
// attachments by position.
func (it *Item) Saved(created *Item) error {
	if created == nil || created.id == nil {
		return ewserr.Protocol("created item returned without an id")
	}
	id := *created.id
	it.id = &id
	for i, a := range created.attachments {
		if i < len(it.attachments) && a.id != "" {
			it.attachments[i].id = a.id
		}
	}
	it.ClearChanges()
	return nil
}

// UpdateID replaces the change key after an update.
func (it *Item) UpdateID(id *complex.ItemId) {
	if id != nil {
		v := *id
		it.id = &v
	}
}

func (it *Item) validateForCreate(v version.Version) error {
	for _, d := range it.changed {
		if err := version.Require(d.Name(), d.Version(), v); err != nil {
			return err
		}
	}
	for _, a := range it.attachments {
		if err := a.Validate(v); err != nil {
			return err
		}
	}
	return nil
}

// ValidateForCreate checks an item about to be created.
func (it *Item) ValidateForCreate(v version.Version) error {
	if !it.IsNew() {
		return ewserr.Validation("item %s is already saved", it.id)
	}
	return it.validateForCreate(v)
}

// ValidateForUpdate checks an item about to be updated.
func (it *Item) ValidateForUpdate(v version.Version) error {
	if it.IsNew() {
		return ewserr.Validation("a new item cannot be updated; create it first")
	}
	for _, d := range it.changed {
		if err := version.Require(d.Name(), d.Version(), v); err != nil {
			return err
		}
	}
	return nil
}

func (it *Item) TryReadElementFromXML(r *xmlwire.Reader) (bool, error) {
	if r.Namespace() != xmlwire.Types {
		return false, nil
	}
	switch r.LocalName() {
	case xmlwire.MimeContent:
		return true, loadParsed(r, &it.mimeContent, xmlwire.ParseBase64)
	case xmlwire.ItemId:
		id := &complex.ItemId{}
		if err := complex.LoadFromXML(r, xmlwire.Types, xmlwire.ItemId, id); err != nil {
			return false, err
		}
		it.id = id
		return true, nil
	case xmlwire.ParentFolderId:
		id := &complex.FolderId{}
		if err := complex.LoadFromXML(r, xmlwire.Types, xmlwire.ParentFolderId, id); err != nil {
			return false, err
		}
		it.parent = id
		return true, nil
	case xmlwire.ItemClass:
		return true, loadString(r, &it.itemClass)
	case xmlwire.Subject:
		return true, loadString(r, &it.subject)
	case xmlwire.Body:
		b, err := complex.LoadBodyFromXML(r)
		if err != nil {
			return false, err
		}
		it.body.Load(b)
		return true, nil
	case xmlwire.Attachments:
		return true, it.loadAttachments(r)
	case xmlwire.DateTimeReceived:
		return true, loadParsed(r, &it.dateTimeReceived, xmlwire.ParseTime)
	case xmlwire.Size:
		return true, loadParsed(r, &it.size, xmlwire.ParseInt)
	case xmlwire.Categories:
		return true, it.loadCategories(r)
	case xmlwire.Importance:
		return true, loadString(r, &it.importance)
	case xmlwire.HasAttachments:
		return true, loadParsed(r, &it.hasAttachments, xmlwire.ParseBool)
	case xmlwire.ExtendedProperty:
		p, err := complex.LoadExtendedPropertyFromXML(r)
		if err != nil {
			return false, err
		}
		it.extended.Load(p)
		return true, nil
	case xmlwire.ConversationId:
		var id complex.ItemId
		if err := complex.LoadFromXML(r, xmlwire.Types, xmlwire.ConversationId, &id); err != nil {
			return false, err
		}
		it.conversationID.Load(id)
		return true, nil
	case xmlwire.Preview:
		return true, loadString(r, &it.preview)
	case xmlwire.InternetMessageId:
		return true, loadString(r, &it.internetMessageID)
	case xmlwire.IsRead:
		return true, loadParsed(r, &it.isRead, xmlwire.ParseBool)
	}
	return false, nil
}

func (it *Item) loadAttachments(r *xmlwire.Reader) error {
	return complex.LoadFromXML(r, xmlwire.Types, xmlwire.Attachments, bindFunc(func(r *xmlwire.Reader) (bool, error) {
		if !r.IsStartElement(xmlwire.Types, xmlwire.FileAttachment) && !r.IsStartElement(xmlwire.Types, xmlwire.ItemAttachment) {
			return false, nil
		}
		a, err := LoadAttachmentFromXML(r)
		if err != nil {
			return false, err
		}
		it.attachments = append(it.attachments, a)
		return true, nil
	}))
}

func (it *Item) loadCategories(r *xmlwire.Reader) error {
	var cats []string
	err := complex.LoadFromXML(r, xmlwire.Types, xmlwire.Categories, bindFunc(func(r *xmlwire.Reader) (bool, error) {
		if !r.IsStartElement(xmlwire.Types, xmlwire.String) {
			return false, nil
		}
		s, err := r.ReadElementValue()
		if err != nil {
			return false, err
		}
		cats = append(cats, s)
		return true, nil
	}))
	if err != nil {
		return err
	}
	it.categories.Load(cats)
	return nil
}

// bindFunc adapts a function to complex.Bindable, for collection
// elements whose children are read one by one.
type bindFunc func(r *xmlwire.Reader) (bool, error)

func (f bindFunc) TryReadElementFromXML(r *xmlwire.Reader) (bool, error) {
	return f(r)
}

// LoadFromXML reads the item element the reader is positioned on.  Any
// item element in the types namespace is accepted; elements other than
// <t:Message> load as KindItem and keep their element name.
func LoadFromXML(r *xmlwire.Reader) (*Item, error) {
	if !r.IsStart() || r.Namespace() != xmlwire.Types {
		return nil, ewserr.Protocol("expected an item element, found %s", r.LocalName())
	}
	kind := KindItem
	if r.LocalName() == xmlwire.Message {
		kind = KindMessage
	}
	it := New(kind)
	it.element = r.LocalName()
	if err := complex.LoadFromXML(r, xmlwire.Types, it.element, it); err != nil {
		return nil, err
	}
	return it, nil
}

// WriteElementsToXML writes the settable properties that are set, in
// protocol order.
func (it *Item) WriteElementsToXML(w *xmlwire.Writer) {
	writeValue(w, &it.mimeContent)
	writeValue(w, &it.itemClass)
	writeValue(w, &it.subject)
	if b, ok := it.body.Get(); ok {
		b.WriteToXML(w, xmlwire.Types, xmlwire.Body)
	}
	if len(it.attachments) > 0 {
		w.WriteStartElement(xmlwire.Types, xmlwire.Attachments)
		for _, a := range it.attachments {
			a.WriteToXML(w)
		}
		w.WriteEndElement()
	}
	it.writeCategories(w)
	writeValue(w, &it.importance)
	it.extended.WriteToXML(w)
	if it.kind == KindMessage {
		writeValue(w, &it.isRead)
	}
}

func (it *Item) writeCategories(w *xmlwire.Writer) {
	cats, ok := it.categories.Get()
	if !ok {
		return
	}
	w.WriteStartElement(xmlwire.Types, xmlwire.Categories)
	for _, c := range cats {
		w.WriteElementValue(xmlwire.Types, xmlwire.String, c)
	}
	w.WriteEndElement()
}

// WriteToXML writes the item for creation.
func (it *Item) WriteToXML(w *xmlwire.Writer) {
	complex.WriteToXML(w, xmlwire.Types, it.kind.element(), it)
}

// writeProperty writes the element holding d, if it is set.
func (it *Item) writeProperty(w *xmlwire.Writer, d *propdef.PropertyDefinition) {
	switch d {
	case schema.MimeContent:
		writeValue(w, &it.mimeContent)
	case schema.ItemClass:
		writeValue(w, &it.itemClass)
	case schema.Subject:
		writeValue(w, &it.subject)
	case schema.Body:
		if b, ok := it.body.Get(); ok {
			b.WriteToXML(w, xmlwire.Types, xmlwire.Body)
		}
	case schema.Categories:
		it.writeCategories(w)
	case schema.Importance:
		writeValue(w, &it.importance)
	case schema.IsRead:
		writeValue(w, &it.isRead)
	default:
		w.Fail(ewserr.Validation("property %s cannot be written in an update", d.Name()))
	}
}

func (it *Item) isSet(d *propdef.PropertyDefinition) bool {
	switch d {
	case schema.MimeContent:
		return it.mimeContent.IsSet()
	case schema.ItemClass:
		return it.itemClass.IsSet()
	case schema.Subject:
		return it.subject.IsSet()
	case schema.Body:
		return it.body.IsSet()
	case schema.Categories:
		return it.categories.IsSet()
	case schema.Importance:
		return it.importance.IsSet()
	case schema.IsRead:
		return it.isRead.IsSet()
	}
	return false
}

// WriteUpdatesToXML writes the <t:Updates> of an item change: one
// SetItemField per property that is set and one DeleteItemField per
// property that was cleared, followed by the extended properties.
func (it *Item) WriteUpdatesToXML(w *xmlwire.Writer) {
	w.WriteStartElement(xmlwire.Types, xmlwire.Updates)
	for _, d := range it.changed {
		if !it.isSet(d) {
			w.WriteStartElement(xmlwire.Types, xmlwire.DeleteItemField)
			d.WriteToXML(w)
			w.WriteEndElement()
			continue
		}
		w.WriteStartElement(xmlwire.Types, xmlwire.SetItemField)
		d.WriteToXML(w)
		w.WriteStartElement(xmlwire.Types, it.kind.element())
		it.writeProperty(w, d)
		w.WriteEndElement()
		w.WriteEndElement()
	}
	for _, p := range it.extended.Modified() {
		w.WriteStartElement(xmlwire.Types, xmlwire.SetItemField)
		p.Definition.WriteToXML(w)
		w.WriteStartElement(xmlwire.Types, it.kind.element())
		complex.WriteToXML(w, xmlwire.Types, xmlwire.ExtendedProperty, p)
		w.WriteEndElement()
		w.WriteEndElement()
	}
	for _, p := range it.extended.Removed() {
		w.WriteStartElement(xmlwire.Types, xmlwire.DeleteItemField)
		p.Definition.WriteToXML(w)
		w.WriteEndElement()
	}
	w.WriteEndElement()
}
