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

// Package version describes the protocol versions a request can be
// sent with and the server build that answered it.
package version

import (
	"fmt"

	"github.com/matta/gotews/internal/ewserr"
)

// Version is a protocol schema version.  Versions are ordered: a
// feature introduced in version v is available on every server whose
// version is >= v.
type Version int

const (
	Exchange2007SP1 Version = iota
	Exchange2010
	Exchange2010SP1
	Exchange2010SP2
	Exchange2013
	Exchange2013SP1
)

// Latest is the newest version this package knows about.
const Latest = Exchange2013SP1

var names = [...]string{
	Exchange2007SP1: "Exchange2007_SP1",
	Exchange2010:    "Exchange2010",
	Exchange2010SP1: "Exchange2010_SP1",
	Exchange2010SP2: "Exchange2010_SP2",
	Exchange2013:    "Exchange2013",
	Exchange2013SP1: "Exchange2013_SP1",
}

// String returns the wire name of the version, as used in the
// RequestServerVersion header.
func (v Version) String() string {
	if v < 0 || int(v) >= len(names) {
		return fmt.Sprintf("Version(%d)", int(v))
	}
	return names[v]
}

// Parse returns the version with the given wire name.
func Parse(s string) (Version, error) {
	for v, name := range names {
		if name == s {
			return Version(v), nil
		}
	}
	return 0, ewserr.OutOfRange("version", fmt.Sprintf("unknown server version %q", s))
}

// Require fails with a version incompatibility error when feature,
// introduced in min, is used against a server speaking actual.
func Require(feature string, min, actual Version) error {
	if actual >= min {
		return nil
	}
	return ewserr.VersionIncompatible(feature, min.String(), actual.String())
}

// ServerInfo describes the server build that produced a response.  It
// is parsed once from the response header and never modified.
type ServerInfo struct {
	MajorVersion     int
	MinorVersion     int
	MajorBuildNumber int
	MinorBuildNumber int

	// The raw schema version string reported by the server, for
	// example "V2018_01_08".  May be empty for older servers.
	VersionString string
}

// String formats the build like the server's own diagnostics do.
func (s *ServerInfo) String() string {
	return fmt.Sprintf("%d.%02d.%04d.%03d", s.MajorVersion, s.MinorVersion,
		s.MajorBuildNumber, s.MinorBuildNumber)
}
