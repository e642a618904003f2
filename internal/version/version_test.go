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

package version

import (
	"testing"

	"github.com/matta/gotews/internal/ewserr"
)

func TestParse(t *testing.T) {
	cases := []struct {
		s    string
		want Version
	}{
		{"Exchange2007_SP1", Exchange2007SP1},
		{"Exchange2010_SP2", Exchange2010SP2},
		{"Exchange2013_SP1", Exchange2013SP1},
	}
	for _, tc := range cases {
		got, err := Parse(tc.s)
		if err != nil {
			t.Fatalf("Parse(%q) = %v", tc.s, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.s, got, tc.want)
		}
		if got.String() != tc.s {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), tc.s)
		}
	}
	if _, err := Parse("Exchange2003"); !ewserr.Is(err, ewserr.KindArgumentOutOfRange) {
		t.Errorf("Parse(Exchange2003) = %v, want out of range error", err)
	}
}

func TestRequire(t *testing.T) {
	if err := Require("SuppressReadReceipts", Exchange2013SP1, Exchange2013SP1); err != nil {
		t.Errorf("Require(same version) = %v, want nil", err)
	}
	err := Require("SuppressReadReceipts", Exchange2013SP1, Exchange2010SP2)
	if !ewserr.Is(err, ewserr.KindVersionIncompatible) {
		t.Errorf("Require(older version) = %v, want version error", err)
	}
}

func TestServerInfoString(t *testing.T) {
	s := &ServerInfo{MajorVersion: 15, MinorVersion: 1, MajorBuildNumber: 2507, MinorBuildNumber: 6}
	if got, want := s.String(), "15.01.2507.006"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
