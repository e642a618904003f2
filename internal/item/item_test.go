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
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/schema"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const typesNS = `xmlns:t="http://schemas.microsoft.com/exchange/services/2006/types"`

const savedMessage = `<t:Message ` + typesNS + `>` +
	`<t:ItemId Id="AAMk1" ChangeKey="CQAA1"/>` +
	`<t:ParentFolderId Id="AQMkI"/>` +
	`<t:ItemClass>IPM.Note</t:ItemClass>` +
	`<t:Subject>Quarterly numbers</t:Subject>` +
	`<t:Body BodyType="Text">See attached.</t:Body>` +
	`<t:Attachments>` +
	`<t:FileAttachment><t:AttachmentId Id="AAMkA1"/><t:Name>q3.csv</t:Name><t:ContentType>text/csv</t:ContentType>` +
	`<t:Size>120</t:Size><t:IsInline>false</t:IsInline></t:FileAttachment>` +
	`</t:Attachments>` +
	`<t:DateTimeReceived>2019-07-01T09:30:00Z</t:DateTimeReceived>` +
	`<t:Size>4096</t:Size>` +
	`<t:Categories><t:String>Finance</t:String><t:String>Q3</t:String></t:Categories>` +
	`<t:Importance>High</t:Importance>` +
	`<t:HasAttachments>true</t:HasAttachments>` +
	`<t:ExtendedProperty><t:ExtendedFieldURI PropertyTag="0x1081" PropertyType="Integer"/><t:Value>102</t:Value></t:ExtendedProperty>` +
	`<t:Culture>en-US</t:Culture>` +
	`<t:ConversationId Id="AAQk"/>` +
	`<t:InternetMessageId>&lt;abc@example.com&gt;</t:InternetMessageId>` +
	`<t:IsRead>false</t:IsRead>` +
	`</t:Message>`

func load(t *testing.T, doc string) *Item {
	t.Helper()
	r := xmlwire.NewReader(strings.NewReader(doc))
	require.NoError(t, r.Read())
	it, err := LoadFromXML(r)
	require.NoError(t, err)
	return it
}

func TestLoadMessage(t *testing.T) {
	it := load(t, savedMessage)
	assert.Equal(t, KindMessage, it.Kind())
	assert.False(t, it.IsNew())
	assert.Equal(t, &complex.ItemId{Id: "AAMk1", ChangeKey: "CQAA1"}, it.ID())
	assert.Equal(t, "AQMkI", it.ParentFolderID().Id)
	assert.Equal(t, "Quarterly numbers", it.Subject())
	assert.Equal(t, &complex.MessageBody{Type: propdef.BodyTypeText, Text: "See attached."}, it.Body())
	assert.Equal(t, []string{"Finance", "Q3"}, it.Categories())
	assert.Equal(t, ImportanceHigh, it.Importance())
	assert.Equal(t, 4096, it.Size())
	assert.True(t, it.HasAttachments())
	assert.Equal(t, "<abc@example.com>", it.InternetMessageID())
	received, ok := it.DateTimeReceived()
	assert.True(t, ok)
	assert.True(t, received.Equal(time.Date(2019, 7, 1, 9, 30, 0, 0, time.UTC)))
	read, ok := it.IsRead()
	assert.True(t, ok)
	assert.False(t, read)
	conv, ok := it.ConversationID()
	assert.True(t, ok)
	assert.Equal(t, "AAQk", conv.Id)

	require.Len(t, it.Attachments(), 1)
	a := it.Attachments()[0]
	assert.Equal(t, "AAMkA1", a.ID())
	assert.Equal(t, "q3.csv", a.Name())
	assert.Equal(t, 120, a.Size())

	tag, err := propdef.NewTagged(0x1081, propdef.Integer)
	require.NoError(t, err)
	v, ok := it.ExtendedProperties().Get(tag)
	assert.True(t, ok)
	assert.Equal(t, int32(102), v)

	assert.False(t, it.HasChanges(), "loading is not a change")
}

func TestSavedAttachmentIsFrozen(t *testing.T) {
	a := load(t, savedMessage).Attachments()[0]
	setters := map[string]func() error{
		"Name":            func() error { return a.SetName("other.csv") },
		"ContentType":     func() error { return a.SetContentType("text/plain") },
		"ContentID":       func() error { return a.SetContentID("cid") },
		"ContentLocation": func() error { return a.SetContentLocation("http://example.com") },
		"IsInline":        func() error { return a.SetIsInline(true) },
		"IsContactPhoto":  func() error { return a.SetIsContactPhoto(true) },
		"Content":         func() error { return a.SetContent([]byte("x")) },
	}
	for name, set := range setters {
		err := set()
		e, ok := ewserr.As(err)
		if !ok || e.Kind != ewserr.KindObjectUpdate {
			t.Errorf("Set%s on saved attachment = %v, want object update error", name, err)
			continue
		}
		assert.Equal(t, "This attachment can't be updated because it's already been saved.", e.Message)
	}
	assert.Equal(t, "q3.csv", a.Name())
}

func TestNewAttachmentSetters(t *testing.T) {
	a := NewFileAttachment("notes.txt", []byte("hello"))
	require.NoError(t, a.SetName("notes2.txt"))
	require.NoError(t, a.SetContentType("text/plain"))
	require.NoError(t, a.SetContentID("n1"))
	require.NoError(t, a.SetContentLocation("http://example.com/n"))
	require.NoError(t, a.SetIsInline(true))
	require.NoError(t, a.SetIsContactPhoto(false))
	require.NoError(t, a.SetContent([]byte("hi")))
	assert.Equal(t, "notes2.txt", a.Name())

	err := a.Validate(version.Exchange2007SP1)
	assert.True(t, ewserr.Is(err, ewserr.KindVersionIncompatible), "IsInline on 2007 = %v", err)
	assert.NoError(t, a.Validate(version.Exchange2010))

	ia := NewItemAttachment("fwd", NewMessage())
	err = ia.SetContent([]byte("x"))
	assert.True(t, ewserr.Is(err, ewserr.KindValidation))

	err = NewFileAttachment("x", nil).Load(context.Background(), nil)
	assert.True(t, ewserr.Is(err, ewserr.KindValidation), "loading unsaved attachment = %v", err)
}

func TestSavedItemFreezesCreationOnlyProperties(t *testing.T) {
	it := load(t, savedMessage)
	err := it.AddAttachment(NewFileAttachment("late.txt", nil))
	assert.True(t, ewserr.Is(err, ewserr.KindObjectUpdate), "AddAttachment on saved item = %v", err)

	require.NoError(t, it.SetSubject("Quarterly numbers (final)"))
	require.NoError(t, it.SetIsRead(true))
	require.NoError(t, it.ClearCategories())
	color, err := propdef.NewNamed(propdef.PublicStrings, "Color", propdef.String)
	require.NoError(t, err)
	require.NoError(t, it.ExtendedProperties().Set(color, "green"))

	assert.Equal(t, []*propdef.PropertyDefinition{schema.Subject, schema.IsRead, schema.Categories}, it.ChangedProperties())
	assert.NoError(t, it.ValidateForUpdate(version.Exchange2010))

	var buf bytes.Buffer
	w := xmlwire.NewWriter(&buf, version.Exchange2010)
	it.WriteUpdatesToXML(w)
	require.NoError(t, w.Flush())
	want := `<t:Updates>` +
		`<t:SetItemField><t:FieldURI FieldURI="item:Subject"></t:FieldURI><t:Message><t:Subject>Quarterly numbers (final)</t:Subject></t:Message></t:SetItemField>` +
		`<t:SetItemField><t:FieldURI FieldURI="message:IsRead"></t:FieldURI><t:Message><t:IsRead>true</t:IsRead></t:Message></t:SetItemField>` +
		`<t:DeleteItemField><t:FieldURI FieldURI="item:Categories"></t:FieldURI></t:DeleteItemField>` +
		`<t:SetItemField><t:ExtendedFieldURI DistinguishedPropertySetId="PublicStrings" PropertyName="Color" PropertyType="String"></t:ExtendedFieldURI>` +
		`<t:Message><t:ExtendedProperty><t:ExtendedFieldURI DistinguishedPropertySetId="PublicStrings" PropertyName="Color" PropertyType="String"></t:ExtendedFieldURI>` +
		`<t:Value>green</t:Value></t:ExtendedProperty></t:Message></t:SetItemField>` +
		`</t:Updates>`
	assert.Equal(t, want, buf.String())

	it.ClearChanges()
	assert.False(t, it.HasChanges())
}

func TestCreateWriteOrder(t *testing.T) {
	it := NewMessage()
	require.NoError(t, it.SetIsRead(false))
	require.NoError(t, it.SetImportance(ImportanceLow))
	require.NoError(t, it.SetCategories([]string{"A"}))
	require.NoError(t, it.AddAttachment(NewFileAttachment("a.txt", []byte("hi"))))
	require.NoError(t, it.SetBody(&complex.MessageBody{Type: propdef.BodyTypeHTML, Text: "<b>x</b>"}))
	require.NoError(t, it.SetSubject("Hello"))
	assert.True(t, ewserr.Is(it.SetImportance("Urgent"), ewserr.KindArgumentOutOfRange))
	require.NoError(t, it.ValidateForCreate(version.Exchange2007SP1))

	var buf bytes.Buffer
	w := xmlwire.NewWriter(&buf, version.Exchange2007SP1)
	it.WriteToXML(w)
	require.NoError(t, w.Flush())
	want := `<t:Message><t:Subject>Hello</t:Subject>` +
		`<t:Body BodyType="HTML">&lt;b&gt;x&lt;/b&gt;</t:Body>` +
		`<t:Attachments><t:FileAttachment><t:Name>a.txt</t:Name><t:Content>aGk=</t:Content></t:FileAttachment></t:Attachments>` +
		`<t:Categories><t:String>A</t:String></t:Categories>` +
		`<t:Importance>Low</t:Importance>` +
		`<t:IsRead>false</t:IsRead></t:Message>`
	assert.Equal(t, want, buf.String())
}

func TestSavedAssignsIdentity(t *testing.T) {
	it := NewMessage()
	a := NewFileAttachment("a.txt", []byte("hi"))
	require.NoError(t, it.AddAttachment(a))
	require.NoError(t, it.SetSubject("Hello"))

	created := load(t, `<t:Message `+typesNS+`><t:ItemId Id="NEW1" ChangeKey="CK1"/>`+
		`<t:Attachments><t:FileAttachment><t:AttachmentId Id="ATT1"/></t:FileAttachment></t:Attachments></t:Message>`)
	require.NoError(t, it.Saved(created))
	assert.Equal(t, "NEW1", it.ID().Id)
	assert.Equal(t, "ATT1", a.ID())
	assert.False(t, it.HasChanges())
	assert.True(t, ewserr.Is(a.SetName("b.txt"), ewserr.KindObjectUpdate))

	err := NewMessage().Saved(NewMessage())
	assert.True(t, ewserr.Is(err, ewserr.KindProtocol))
}

func TestValidateNewItemForUpdate(t *testing.T) {
	err := NewMessage().ValidateForUpdate(version.Latest)
	assert.True(t, ewserr.Is(err, ewserr.KindValidation), "update of new item = %v", err)
	err = load(t, savedMessage).ValidateForCreate(version.Latest)
	assert.True(t, ewserr.Is(err, ewserr.KindValidation), "create of saved item = %v", err)
}

func TestLoadFolder(t *testing.T) {
	doc := `<t:CalendarFolder ` + typesNS + `><t:FolderId Id="F1" ChangeKey="C1"/><t:ParentFolderId Id="P1"/>` +
		`<t:FolderClass>IPF.Appointment</t:FolderClass><t:DisplayName>Calendar</t:DisplayName>` +
		`<t:TotalCount>12</t:TotalCount><t:ChildFolderCount>0</t:ChildFolderCount><t:UnreadCount>3</t:UnreadCount>` +
		`</t:CalendarFolder>`
	r := xmlwire.NewReader(strings.NewReader(doc))
	require.NoError(t, r.Read())
	f, err := LoadFolderFromXML(r)
	require.NoError(t, err)
	assert.Equal(t, "CalendarFolder", f.Element())
	assert.Equal(t, "F1", f.ID().Id)
	assert.Equal(t, "P1", f.ParentFolderID().Id)
	assert.Equal(t, "Calendar", f.DisplayName())
	assert.Equal(t, 12, f.TotalCount())
	assert.Equal(t, 3, f.UnreadCount())
}
