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

package schema

import (
	"testing"

	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/version"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		uri  string
		want *propdef.PropertyDefinition
	}{
		{"item:Subject", Subject},
		{"message:IsRead", IsRead},
		{"folder:DisplayName", DisplayName},
		{"folder:ParentFolderId", FolderParentId},
		{"item:ParentFolderId", ParentFolderId},
	}
	for _, tc := range cases {
		if got, ok := Lookup(tc.uri); !ok || got != tc.want {
			t.Errorf("Lookup(%q) = %v, %v; want %v", tc.uri, got, ok, tc.want)
		}
	}
	if _, ok := Lookup("item:Nope"); ok {
		t.Error("Lookup(item:Nope) found a definition")
	}
}

func TestItemPropertiesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range ItemProperties {
		if seen[d.XMLElementName()] {
			t.Errorf("element %s listed twice", d.XMLElementName())
		}
		seen[d.XMLElementName()] = true
		if got, ok := ItemPropertyByElement(d.XMLElementName()); !ok || got != d {
			t.Errorf("ItemPropertyByElement(%s) = %v, %v", d.XMLElementName(), got, ok)
		}
	}
}

func TestFlagsAndVersions(t *testing.T) {
	if ItemId.HasFlag(propdef.CanUpdate) {
		t.Error("ItemId is updatable")
	}
	if !Subject.HasFlag(propdef.CanSet | propdef.CanUpdate) {
		t.Error("Subject is not updatable")
	}
	if Attachments.HasFlag(propdef.CanUpdate) {
		t.Error("Attachments can be updated after creation")
	}
	if Preview.Version() != version.Exchange2013 {
		t.Errorf("Preview.Version() = %v", Preview.Version())
	}
}
