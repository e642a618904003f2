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
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
	"github.com/pkg/errors"
)

// DefaultPropertySet is one of the property sets the server knows by
// name.
type DefaultPropertySet int

const (
	Meeting DefaultPropertySet = iota
	Appointment
	Common
	PublicStrings
	Address
	InternetHeaders
	CalendarAssistant
	UnifiedMessaging
	Task
	Sharing
)

var propertySetNames = [...]string{
	Meeting:           "Meeting",
	Appointment:       "Appointment",
	Common:            "Common",
	PublicStrings:     "PublicStrings",
	Address:           "Address",
	InternetHeaders:   "InternetHeaders",
	CalendarAssistant: "CalendarAssistant",
	UnifiedMessaging:  "UnifiedMessaging",
	Task:              "Task",
	Sharing:           "Sharing",
}

func (s DefaultPropertySet) String() string {
	if s < 0 || int(s) >= len(propertySetNames) {
		return fmt.Sprintf("DefaultPropertySet(%d)", int(s))
	}
	return propertySetNames[s]
}

func parsePropertySet(s string) (DefaultPropertySet, error) {
	for i, name := range propertySetNames {
		if name == s {
			return DefaultPropertySet(i), nil
		}
	}
	return 0, ewserr.Protocol("unknown distinguished property set %q", s)
}

const maxTag = 0xFFFF

// ExtendedPropertyDefinition identifies a MAPI property that has no
// first-class FieldURI.  Exactly one identity shape is populated:
//
//	{Tag}
//	{PropertySet, Name}
//	{PropertySet, Id}
//	{PropertySetId, Name}
//	{PropertySetId, Id}
//
// Optional parts are pointers; nil means absent.
type ExtendedPropertyDefinition struct {
	propertySet   *DefaultPropertySet
	propertySetID *uuid.UUID
	tag           *int
	name          string
	id            *int
	mapiType      MapiType
}

// NewTagged returns a definition identified by a property tag.
func NewTagged(tag int, t MapiType) (*ExtendedPropertyDefinition, error) {
	if tag < 0 || tag > maxTag {
		return nil, ewserr.OutOfRange("tag", fmt.Sprintf("tag %d is outside the range 0 to %d", tag, maxTag))
	}
	return &ExtendedPropertyDefinition{tag: &tag, mapiType: t}, nil
}

// NewNamed returns a definition identified by name within a default
// property set.
func NewNamed(set DefaultPropertySet, name string, t MapiType) (*ExtendedPropertyDefinition, error) {
	if name == "" {
		return nil, ewserr.ArgumentMissing("name")
	}
	return &ExtendedPropertyDefinition{propertySet: &set, name: name, mapiType: t}, nil
}

// NewWithID returns a definition identified by id within a default
// property set.
func NewWithID(set DefaultPropertySet, id int, t MapiType) *ExtendedPropertyDefinition {
	return &ExtendedPropertyDefinition{propertySet: &set, id: &id, mapiType: t}
}

// NewGUIDNamed returns a definition identified by name within the
// property set with the given GUID.
func NewGUIDNamed(setID uuid.UUID, name string, t MapiType) (*ExtendedPropertyDefinition, error) {
	if name == "" {
		return nil, ewserr.ArgumentMissing("name")
	}
	return &ExtendedPropertyDefinition{propertySetID: &setID, name: name, mapiType: t}, nil
}

// NewGUIDWithID returns a definition identified by id within the
// property set with the given GUID.
func NewGUIDWithID(setID uuid.UUID, id int, t MapiType) *ExtendedPropertyDefinition {
	return &ExtendedPropertyDefinition{propertySetID: &setID, id: &id, mapiType: t}
}

func (d *ExtendedPropertyDefinition) PropertySet() (DefaultPropertySet, bool) {
	if d.propertySet == nil {
		return 0, false
	}
	return *d.propertySet, true
}

func (d *ExtendedPropertyDefinition) PropertySetID() (uuid.UUID, bool) {
	if d.propertySetID == nil {
		return uuid.Nil, false
	}
	return *d.propertySetID, true
}

func (d *ExtendedPropertyDefinition) Tag() (int, bool) {
	if d.tag == nil {
		return 0, false
	}
	return *d.tag, true
}

func (d *ExtendedPropertyDefinition) ID() (int, bool) {
	if d.id == nil {
		return 0, false
	}
	return *d.id, true
}

func (d *ExtendedPropertyDefinition) Name() string       { return d.name }
func (d *ExtendedPropertyDefinition) MapiType() MapiType { return d.mapiType }

// Version is the same for every extended property.
func (d *ExtendedPropertyDefinition) Version() version.Version {
	return version.Exchange2007SP1
}

// Type returns the Go type of values of the property.  It panics for
// MAPI types that have no Go mapping.
func (d *ExtendedPropertyDefinition) Type() reflect.Type {
	return d.mapiType.RuntimeType()
}

// Key is the comparable identity of an extended property definition.
// Two definitions are equal iff their keys are equal, so a Key can be
// used as a map key.
type Key struct {
	HasPropertySet   bool
	PropertySet      DefaultPropertySet
	HasPropertySetID bool
	PropertySetID    uuid.UUID
	HasTag           bool
	Tag              int
	Name             string
	HasID            bool
	ID               int
	MapiType         MapiType
}

func (d *ExtendedPropertyDefinition) Key() Key {
	var k Key
	if d.propertySet != nil {
		k.HasPropertySet, k.PropertySet = true, *d.propertySet
	}
	if d.propertySetID != nil {
		k.HasPropertySetID, k.PropertySetID = true, *d.propertySetID
	}
	if d.tag != nil {
		k.HasTag, k.Tag = true, *d.tag
	}
	if d.id != nil {
		k.HasID, k.ID = true, *d.id
	}
	k.Name = d.name
	k.MapiType = d.mapiType
	return k
}

// Equal reports whether d and o identify the same property with the
// same MAPI type.
func (d *ExtendedPropertyDefinition) Equal(o *ExtendedPropertyDefinition) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil {
		return false
	}
	return d.Key() == o.Key()
}

// PrintableName renders the populated fields, for example
// "{Name: Color MapiType: String PropertySet: PublicStrings}".
func (d *ExtendedPropertyDefinition) PrintableName() string {
	var fields []string
	field := func(name string, v interface{}) {
		fields = append(fields, fmt.Sprintf("%s: %v", name, v))
	}
	if d.name != "" {
		field("Name", d.name)
	}
	field("MapiType", d.mapiType)
	if d.id != nil {
		field("Id", *d.id)
	}
	if d.propertySet != nil {
		field("PropertySet", *d.propertySet)
	}
	if d.propertySetID != nil {
		field("PropertySetId", *d.propertySetID)
	}
	if d.tag != nil {
		field("Tag", *d.tag)
	}
	return "{" + strings.Join(fields, " ") + "}"
}

func (d *ExtendedPropertyDefinition) String() string {
	return d.PrintableName()
}

// WriteToXML writes <t:ExtendedFieldURI .../>.
func (d *ExtendedPropertyDefinition) WriteToXML(w *xmlwire.Writer) {
	w.WriteStartElement(xmlwire.Types, xmlwire.ExtendedFieldURI)
	d.WriteAttributesToXML(w)
	w.WriteEndElement()
}

// WriteAttributesToXML writes the identity attributes.  The order is
// fixed and matches the order LoadFromXML examines them in.
func (d *ExtendedPropertyDefinition) WriteAttributesToXML(w *xmlwire.Writer) {
	if d.propertySet != nil {
		w.WriteAttributeValue(xmlwire.AttrDistinguishedPropertySetId, *d.propertySet)
	}
	if d.propertySetID != nil {
		w.WriteAttributeValue(xmlwire.AttrPropertySetId, d.propertySetID.String())
	}
	if d.tag != nil {
		w.WriteAttributeString(xmlwire.AttrPropertyTag, fmt.Sprintf("0x%04x", *d.tag))
	}
	if d.name != "" {
		w.WriteAttributeValue(xmlwire.AttrPropertyName, d.name)
	}
	if d.id != nil {
		w.WriteAttributeValue(xmlwire.AttrPropertyId, *d.id)
	}
	w.WriteAttributeValue(xmlwire.AttrPropertyType, d.mapiType)
}

// LoadFromXML builds a definition from the attributes of the element
// the reader is positioned on and leaves the reader on that element's
// end.
//
// The property set is taken from DistinguishedPropertySetId when present
// and from PropertySetId otherwise; a tag is used only when neither is
// present.  Within a property set a name takes precedence over an id.
func LoadFromXML(r *xmlwire.Reader) (*ExtendedPropertyDefinition, error) {
	d := &ExtendedPropertyDefinition{}

	if s, ok := r.LookupAttribute(xmlwire.AttrDistinguishedPropertySetId); ok {
		set, err := parsePropertySet(s)
		if err != nil {
			return nil, err
		}
		d.propertySet = &set
	} else if s, ok := r.LookupAttribute(xmlwire.AttrPropertySetId); ok {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing property set id %q", s)
		}
		d.propertySetID = &id
	} else if s, ok := r.LookupAttribute(xmlwire.AttrPropertyTag); ok {
		tag, err := strconv.ParseInt(strings.TrimSpace(s), 0, 32)
		if err != nil || tag < 0 || tag > maxTag {
			return nil, ewserr.Protocol("invalid property tag %q", s)
		}
		t := int(tag)
		d.tag = &t
	}

	if d.tag == nil {
		if s, ok := r.LookupAttribute(xmlwire.AttrPropertyName); ok && s != "" {
			d.name = s
		} else if s, ok := r.LookupAttribute(xmlwire.AttrPropertyId); ok {
			id, err := xmlwire.ParseInt(s)
			if err != nil {
				return nil, err
			}
			d.id = &id
		}
	}

	s, ok := r.LookupAttribute(xmlwire.AttrPropertyType)
	if !ok {
		return nil, ewserr.Protocol("extended property definition without %s", xmlwire.AttrPropertyType)
	}
	t, err := ParseMapiType(s)
	if err != nil {
		return nil, err
	}
	d.mapiType = t

	if d.tag == nil && d.name == "" && d.id == nil {
		return nil, ewserr.Protocol("extended property definition without identity")
	}
	if err := r.SkipCurrentElement(); err != nil {
		return nil, err
	}
	return d, nil
}
