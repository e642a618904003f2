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

package propdef

import (
	"fmt"

	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// BaseShape selects the properties returned before any additional
// properties are added.
type BaseShape int

const (
	IdOnly BaseShape = iota
	FirstClassProperties
	AllProperties
)

func (s BaseShape) String() string {
	switch s {
	case IdOnly:
		return "IdOnly"
	case FirstClassProperties:
		return "Default"
	case AllProperties:
		return "AllProperties"
	}
	return fmt.Sprintf("BaseShape(%d)", int(s))
}

// BodyType is the format of a message body.
type BodyType int

const (
	BodyTypeBest BodyType = iota
	BodyTypeHTML
	BodyTypeText
)

func (t BodyType) String() string {
	switch t {
	case BodyTypeBest:
		return "Best"
	case BodyTypeHTML:
		return "HTML"
	case BodyTypeText:
		return "Text"
	}
	return fmt.Sprintf("BodyType(%d)", int(t))
}

// ParseBodyType parses the BodyType attribute of a body element.
func ParseBodyType(s string) (BodyType, error) {
	switch s {
	case "Best":
		return BodyTypeBest, nil
	case "HTML":
		return BodyTypeHTML, nil
	case "Text":
		return BodyTypeText, nil
	}
	return 0, ewserr.Protocol("unknown body type %q", s)
}

// PropertySet is the set of properties a request asks the server to
// return.
type PropertySet struct {
	BaseShape  BaseShape
	Additional []Definition

	// RequestedBodyType is nil when the server default is wanted.
	RequestedBodyType *BodyType
}

// NewPropertySet returns a property set.
func NewPropertySet(base BaseShape, additional ...Definition) *PropertySet {
	return &PropertySet{BaseShape: base, Additional: additional}
}

// Validate checks that every additional property is present and
// supported by v.
func (ps *PropertySet) Validate(v version.Version) error {
	for _, d := range ps.Additional {
		if d == nil {
			return ewserr.ArgumentNull("additionalProperties")
		}
		if err := version.Require(d.PrintableName(), d.Version(), v); err != nil {
			return err
		}
	}
	return nil
}

// WriteToXML writes the shape element, for example <m:ItemShape>.  The
// body type is only meaningful for item and attachment shapes and is
// omitted from folder shapes.
func (ps *PropertySet) WriteToXML(w *xmlwire.Writer, shape string) {
	w.WriteStartElement(xmlwire.Messages, shape)
	w.WriteElementValue(xmlwire.Types, xmlwire.BaseShape, ps.BaseShape)
	if ps.RequestedBodyType != nil && shape != xmlwire.FolderShape {
		w.WriteElementValue(xmlwire.Types, xmlwire.BodyType, *ps.RequestedBodyType)
	}
	if len(ps.Additional) > 0 {
		w.WriteStartElement(xmlwire.Types, xmlwire.AdditionalProperties)
		for _, d := range ps.Additional {
			d.WriteToXML(w)
		}
		w.WriteEndElement()
	}
	w.WriteEndElement()
}
