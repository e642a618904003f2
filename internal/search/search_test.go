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

package search

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/schema"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

const typesNS = `xmlns:t="http://schemas.microsoft.com/exchange/services/2006/types"`

func write(t *testing.T, f Filter) string {
	t.Helper()
	var buf bytes.Buffer
	w := xmlwire.NewWriter(&buf, version.Latest)
	f.WriteToXML(w)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
	return buf.String()
}

func read(t *testing.T, doc string) Filter {
	t.Helper()
	r := xmlwire.NewReader(strings.NewReader(doc))
	if err := r.Read(); err != nil {
		t.Fatal(err)
	}
	f, err := Read(r)
	if err != nil {
		t.Fatalf("Read(%s) = %v", doc, err)
	}
	return f
}

func TestWrite(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{
			name:   "comparison",
			filter: Compare(IsGreaterThan, schema.Size, 1024),
			want: `<t:IsGreaterThan><t:FieldURI FieldURI="item:Size"></t:FieldURI>` +
				`<t:FieldURIOrConstant><t:Constant Value="1024"></t:Constant></t:FieldURIOrConstant></t:IsGreaterThan>`,
		},
		{
			name:   "comparison with property",
			filter: &Comparison{Op: IsEqualTo, Property: schema.Subject, Other: schema.ItemClass},
			want: `<t:IsEqualTo><t:FieldURI FieldURI="item:Subject"></t:FieldURI>` +
				`<t:FieldURIOrConstant><t:FieldURI FieldURI="item:ItemClass"></t:FieldURI></t:FieldURIOrConstant></t:IsEqualTo>`,
		},
		{
			name:   "contains",
			filter: Contains(schema.Subject, "invoice"),
			want: `<t:Contains ContainmentMode="Substring" ContainmentComparison="IgnoreCase">` +
				`<t:FieldURI FieldURI="item:Subject"></t:FieldURI><t:Constant Value="invoice"></t:Constant></t:Contains>`,
		},
		{
			name:   "contains with server defaults",
			filter: &ContainsSubstring{Property: schema.Subject, Value: "x"},
			want:   `<t:Contains><t:FieldURI FieldURI="item:Subject"></t:FieldURI><t:Constant Value="x"></t:Constant></t:Contains>`,
		},
		{
			name:   "excludes writes decimal",
			filter: Excludes(schema.Size, 0x10),
			want: `<t:Excludes><t:FieldURI FieldURI="item:Size"></t:FieldURI>` +
				`<t:Bitmask Value="16"></t:Bitmask></t:Excludes>`,
		},
		{
			name:   "not exists",
			filter: &Not{Filter: &Exists{Property: schema.Categories}},
			want:   `<t:Not><t:Exists><t:FieldURI FieldURI="item:Categories"></t:FieldURI></t:Exists></t:Not>`,
		},
		{
			name: "collection",
			filter: AnyOf(
				Compare(IsEqualTo, schema.IsRead, false),
				Compare(IsEqualTo, schema.Importance, "High"),
			),
			want: `<t:Or>` +
				`<t:IsEqualTo><t:FieldURI FieldURI="message:IsRead"></t:FieldURI><t:FieldURIOrConstant><t:Constant Value="false"></t:Constant></t:FieldURIOrConstant></t:IsEqualTo>` +
				`<t:IsEqualTo><t:FieldURI FieldURI="item:Importance"></t:FieldURI><t:FieldURIOrConstant><t:Constant Value="High"></t:Constant></t:FieldURIOrConstant></t:IsEqualTo>` +
				`</t:Or>`,
		},
		{
			name:   "single filter collection",
			filter: AllOf(&Exists{Property: schema.Subject}),
			want:   `<t:Exists><t:FieldURI FieldURI="item:Subject"></t:FieldURI></t:Exists>`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := write(t, tc.filter); got != tc.want {
				t.Errorf("written = %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		v      version.Version
		want   ewserr.Kind
	}{
		{"nil property", &Exists{}, version.Latest, ewserr.KindArgumentNull},
		{"nil constant", Compare(IsEqualTo, schema.Subject, nil), version.Latest, ewserr.KindArgumentNull},
		{"empty substring", Contains(schema.Subject, ""), version.Latest, ewserr.KindArgumentMissing},
		{"nil negated filter", &Not{}, version.Latest, ewserr.KindArgumentNull},
		{"empty collection", AllOf(), version.Latest, ewserr.KindValidation},
		{"nil collection member", AllOf(&Exists{Property: schema.Subject}, nil), version.Latest, ewserr.KindArgumentNull},
		{"property too new", &Exists{Property: schema.Preview}, version.Exchange2010, ewserr.KindVersionIncompatible},
		{"nested property too new", &Not{Filter: Excludes(schema.ConversationId, 1)}, version.Exchange2007SP1, ewserr.KindVersionIncompatible},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.filter.Validate(tc.v)
			if !ewserr.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}

	ok := AllOf(Contains(schema.Subject, "a"), &Exists{Property: schema.Preview})
	if err := ok.Validate(version.Exchange2013); err != nil {
		t.Errorf("Validate(2013) = %v", err)
	}
}

func TestExcludesReadsHex(t *testing.T) {
	for _, value := range []string{"0x10", "0X10", "10", " 10 "} {
		doc := `<t:Excludes ` + typesNS + `><t:FieldURI FieldURI="item:Size"/><t:Bitmask Value="` + value + `"/></t:Excludes>`
		f, ok := read(t, doc).(*ExcludesBitmask)
		if !ok {
			t.Fatalf("Read(%q) is not a bitmask filter", value)
		}
		if got := f.Bitmask(); got != 16 {
			t.Errorf("Bitmask() for %q = %d, want 16", value, got)
		}
		if f.Property != propdef.Definition(schema.Size) {
			t.Errorf("Property = %v, want Size", f.Property)
		}
	}

	r := xmlwire.NewReader(strings.NewReader(`<t:Excludes ` + typesNS + `><t:Bitmask Value="zz"/></t:Excludes>`))
	if err := r.Read(); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(r); !ewserr.Is(err, ewserr.KindProtocol) {
		t.Errorf("Read(bad bitmask) = %v, want protocol error", err)
	}
}

func TestExcludesChangeTracking(t *testing.T) {
	f := Excludes(schema.Size, 1)
	var changed []string
	f.OnChange(func(field string) { changed = append(changed, field) })
	if err := f.SetBitmask(1); err != nil {
		t.Fatal(err)
	}
	if err := f.SetBitmask(4); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{xmlwire.Bitmask}, changed); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
	if got := f.Bitmask(); got != 4 {
		t.Errorf("Bitmask() = %d, want 4", got)
	}
}

func TestReadTree(t *testing.T) {
	doc := `<t:And ` + typesNS + `>` +
		`<t:Contains ContainmentMode="Prefixed" ContainmentComparison="Exact"><t:FieldURI FieldURI="item:Subject"/><t:Constant Value="Re:"/></t:Contains>` +
		`<t:Not><t:IsLessThan><t:FieldURI FieldURI="folder:UnreadCount"/><t:FieldURIOrConstant><t:Constant Value="3"/></t:FieldURIOrConstant></t:IsLessThan></t:Not>` +
		`<t:Exists><t:ExtendedFieldURI PropertyTag="0x1081" PropertyType="Integer"/></t:Exists>` +
		`</t:And>`
	c, ok := read(t, doc).(*Collection)
	if !ok {
		t.Fatal("Read() is not a collection")
	}
	if c.Operator != And || len(c.Filters) != 3 {
		t.Fatalf("collection = %v with %d filters", c.Operator, len(c.Filters))
	}

	contains := c.Filters[0].(*ContainsSubstring)
	if contains.Mode != Prefixed || contains.Comparison != Exact || contains.Value != "Re:" {
		t.Errorf("contains = %+v", contains)
	}

	cmpf := c.Filters[1].(*Not).Filter.(*Comparison)
	if cmpf.Op != IsLessThan || cmpf.Value != "3" || cmpf.Property != propdef.Definition(schema.UnreadCount) {
		t.Errorf("comparison = %+v", cmpf)
	}

	exists := c.Filters[2].(*Exists)
	tag, err := propdef.NewTagged(0x1081, propdef.Integer)
	if err != nil {
		t.Fatal(err)
	}
	if !propdef.Equal(exists.Property, tag) {
		t.Errorf("exists property = %v, want %v", exists.Property.PrintableName(), tag.PrintableName())
	}
}

func TestReadUnknown(t *testing.T) {
	tests := []string{
		`<t:Near ` + typesNS + `/>`,
		`<t:Exists ` + typesNS + `><t:FieldURI FieldURI="item:Nope"/></t:Exists>`,
		`<t:IsEqualTo ` + typesNS + `><t:FieldURIOrConstant><t:Constant Value="1"/></t:FieldURIOrConstant></t:IsEqualTo>`,
		`<t:Contains ` + typesNS + `><t:Constant Value="x"/></t:Contains>`,
		`<t:Excludes ` + typesNS + `><t:Bitmask Value="10"/></t:Excludes>`,
		`<t:Exists ` + typesNS + `/>`,
		`<t:Not ` + typesNS + `/>`,
		`<t:Not ` + typesNS + `><t:Exists/></t:Not>`,
	}
	for _, doc := range tests {
		r := xmlwire.NewReader(strings.NewReader(doc))
		if err := r.Read(); err != nil {
			t.Fatal(err)
		}
		if _, err := Read(r); !ewserr.Is(err, ewserr.KindProtocol) {
			t.Errorf("Read(%s) = %v, want protocol error", doc, err)
		}
	}
}
