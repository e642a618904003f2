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

package view

import (
	"bytes"
	"testing"

	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/schema"
	"github.com/matta/gotews/internal/search"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, fn func(w *xmlwire.Writer)) string {
	t.Helper()
	var buf bytes.Buffer
	w := xmlwire.NewWriter(&buf, version.Latest)
	fn(w)
	require.NoError(t, w.Flush())
	return buf.String()
}

func TestPageSizeIsCheckedImmediately(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewItemView(n)
		assert.True(t, ewserr.Is(err, ewserr.KindArgumentOutOfRange), "NewItemView(%d) = %v", n, err)
		_, err = NewFolderView(n)
		assert.True(t, ewserr.Is(err, ewserr.KindArgumentOutOfRange), "NewFolderView(%d) = %v", n, err)
	}

	iv, err := NewItemView(10)
	require.NoError(t, err)
	assert.True(t, ewserr.Is(iv.SetPageSize(0), ewserr.KindArgumentOutOfRange))
	assert.Equal(t, 10, iv.PageSize())
	assert.True(t, ewserr.Is(iv.SetOffset(-1), ewserr.KindArgumentOutOfRange))
	assert.Equal(t, 0, iv.Offset())
}

func TestSeekViewConstruction(t *testing.T) {
	cond := &search.Exists{Property: schema.Subject}

	_, err := NewSeekToConditionItemView(cond, 0)
	assert.True(t, ewserr.Is(err, ewserr.KindArgumentOutOfRange), "pageSize 0: %v", err)

	_, err = NewSeekToConditionItemView(nil, 0)
	assert.True(t, ewserr.Is(err, ewserr.KindArgumentOutOfRange), "page size is checked first: %v", err)

	_, err = NewSeekToConditionItemView(nil, 10)
	assert.True(t, ewserr.Is(err, ewserr.KindArgumentNull), "nil condition: %v", err)

	sv, err := NewSeekToConditionItemView(cond, 10)
	require.NoError(t, err)
	assert.True(t, ewserr.Is(sv.SetCondition(nil), ewserr.KindArgumentNull))
	assert.Equal(t, search.Filter(cond), sv.Condition())

	assert.True(t, ewserr.Is(sv.Validate(version.Exchange2010SP2), ewserr.KindVersionIncompatible))
	assert.NoError(t, sv.Validate(version.Exchange2013))
}

func TestItemViewWrite(t *testing.T) {
	iv, err := NewItemView(10)
	require.NoError(t, err)
	require.NoError(t, iv.SetOffset(20))
	iv.SetBasePoint(End)
	iv.Traversal = ItemAssociated
	require.NoError(t, iv.OrderBy().Add(schema.DateTimeReceived, Descending))
	group := &Grouping{GroupOn: schema.Subject, AggregateOn: schema.DateTimeReceived, Aggregate: Maximum}

	got := write(t, func(w *xmlwire.Writer) {
		w.WriteStartElement(xmlwire.Messages, "FindItem")
		iv.WriteAttributesToXML(w)
		iv.WriteToXML(w, group)
		w.WriteEndElement()
	})
	want := `<m:FindItem Traversal="Associated">` +
		`<m:ItemShape><t:BaseShape>Default</t:BaseShape></m:ItemShape>` +
		`<m:IndexedPageItemView MaxEntriesReturned="10" Offset="20" BasePoint="End"></m:IndexedPageItemView>` +
		`<m:SortOrder><t:FieldOrder Order="Descending"><t:FieldURI FieldURI="item:DateTimeReceived"></t:FieldURI></t:FieldOrder></m:SortOrder>` +
		`<m:GroupBy Order="Ascending"><t:FieldURI FieldURI="item:Subject"></t:FieldURI>` +
		`<t:AggregateOn Aggregate="Maximum"><t:FieldURI FieldURI="item:DateTimeReceived"></t:FieldURI></t:AggregateOn></m:GroupBy>` +
		`</m:FindItem>`
	assert.Equal(t, want, got)
}

func TestFolderViewWrite(t *testing.T) {
	fv, err := NewFolderView(5)
	require.NoError(t, err)
	fv.Traversal = FolderDeep

	got := write(t, func(w *xmlwire.Writer) {
		w.WriteStartElement(xmlwire.Messages, "FindFolder")
		fv.WriteAttributesToXML(w)
		fv.WriteToXML(w, &Grouping{GroupOn: schema.Subject, AggregateOn: schema.Subject})
		w.WriteEndElement()
	})
	want := `<m:FindFolder Traversal="Deep">` +
		`<m:IndexedPageFolderView MaxEntriesReturned="5" Offset="0" BasePoint="Beginning"></m:IndexedPageFolderView>` +
		`</m:FindFolder>`
	assert.Equal(t, want, got)
}

func TestSeekViewWrite(t *testing.T) {
	sv, err := NewSeekToConditionItemView(search.Compare(search.IsEqualTo, schema.IsRead, false), 25)
	require.NoError(t, err)
	sv.PropertySet = propdef.NewPropertySet(propdef.IdOnly)

	got := write(t, func(w *xmlwire.Writer) { sv.WriteToXML(w, nil) })
	want := `<m:ItemShape><t:BaseShape>IdOnly</t:BaseShape></m:ItemShape>` +
		`<m:SeekToConditionPageItemView MaxEntriesReturned="25" BasePoint="Beginning"><t:Condition>` +
		`<t:IsEqualTo><t:FieldURI FieldURI="message:IsRead"></t:FieldURI><t:FieldURIOrConstant><t:Constant Value="false"></t:Constant></t:FieldURIOrConstant></t:IsEqualTo>` +
		`</t:Condition></m:SeekToConditionPageItemView>`
	assert.Equal(t, want, got)
}

func TestOrderBy(t *testing.T) {
	var o OrderBy
	require.NoError(t, o.Add(schema.Subject, Ascending))
	require.NoError(t, o.Add(schema.Size, Descending))
	assert.True(t, ewserr.Is(o.Add(schema.Subject, Descending), ewserr.KindValidation))
	assert.True(t, ewserr.Is(o.Add(nil, Ascending), ewserr.KindArgumentNull))

	dir, ok := o.Direction(schema.Size)
	assert.True(t, ok)
	assert.Equal(t, Descending, dir)

	assert.True(t, o.Remove(schema.Subject))
	assert.False(t, o.Remove(schema.Subject))
	assert.Equal(t, []SortEntry{{Property: schema.Size, Direction: Descending}}, o.Entries())

	require.NoError(t, o.Add(schema.Preview, Ascending))
	assert.True(t, ewserr.Is(o.Validate(version.Exchange2010), ewserr.KindVersionIncompatible))

	o.Clear()
	assert.Equal(t, "", write(t, o.WriteToXML))
}

func TestGroupingValidate(t *testing.T) {
	assert.True(t, ewserr.Is((&Grouping{AggregateOn: schema.Size}).Validate(version.Latest), ewserr.KindArgumentNull))
	assert.True(t, ewserr.Is((&Grouping{GroupOn: schema.Size}).Validate(version.Latest), ewserr.KindArgumentNull))
	assert.NoError(t, (&Grouping{GroupOn: schema.Subject, AggregateOn: schema.Size}).Validate(version.Latest))
}
