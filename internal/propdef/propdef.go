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

// Package propdef describes server-side fields: which wire element
// holds them, which version introduced them, and how requests refer to
// them.
//
// Definitions are immutable once built.  The schema package holds the
// well-known ones as package-level values shared by every goroutine.
package propdef

import (
	"reflect"

	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// Definition is implemented by every kind of property definition.
type Definition interface {
	// PrintableName is a short diagnostic rendering of the
	// definition.
	PrintableName() string

	// Version is the first protocol version that supports the
	// property.
	Version() version.Version

	// Type is the Go type of the property's value.
	Type() reflect.Type

	// WriteToXML writes the path element referring to the property,
	// as used in shapes, restrictions and updates.
	WriteToXML(w *xmlwire.Writer)
}

// Flags describe what requests may do with a property.
type Flags int

const (
	CanSet Flags = 1 << iota
	CanUpdate
	CanDelete
	CanFind
	MustBeExplicitlyLoaded
	AutoInstantiateOnRead
)

// PropertyDefinition is a first-class property addressed by its
// FieldURI, such as "item:Subject".
type PropertyDefinition struct {
	name    string
	uri     string
	element string
	version version.Version
	flags   Flags
	typ     reflect.Type
}

// New returns a definition.  element is the local name of the element
// holding the value inside its parent object.
func New(name, uri, element string, v version.Version, flags Flags, typ reflect.Type) *PropertyDefinition {
	return &PropertyDefinition{
		name:    name,
		uri:     uri,
		element: element,
		version: v,
		flags:   flags,
		typ:     typ,
	}
}

func (d *PropertyDefinition) Name() string             { return d.name }
func (d *PropertyDefinition) FieldURI() string         { return d.uri }
func (d *PropertyDefinition) XMLElementName() string   { return d.element }
func (d *PropertyDefinition) Version() version.Version { return d.version }
func (d *PropertyDefinition) Type() reflect.Type       { return d.typ }
func (d *PropertyDefinition) PrintableName() string    { return d.name }

// HasFlag reports whether every flag in f is set on the definition.
func (d *PropertyDefinition) HasFlag(f Flags) bool {
	return d.flags&f == f
}

// WriteToXML writes <t:FieldURI FieldURI="..."/>.
func (d *PropertyDefinition) WriteToXML(w *xmlwire.Writer) {
	w.WriteStartElement(xmlwire.Types, xmlwire.FieldURI)
	w.WriteAttributeValue(xmlwire.AttrFieldURI, d.uri)
	w.WriteEndElement()
}

func (d *PropertyDefinition) String() string {
	return d.uri
}

// Equal reports whether two definitions refer to the same property.
// Definitions are compared by identity where possible and structurally
// otherwise.
func Equal(a, b Definition) bool {
	if a == b {
		return true
	}
	switch a := a.(type) {
	case *PropertyDefinition:
		b, ok := b.(*PropertyDefinition)
		return ok && a != nil && b != nil && a.uri == b.uri
	case *ExtendedPropertyDefinition:
		b, ok := b.(*ExtendedPropertyDefinition)
		return ok && a.Equal(b)
	}
	return false
}
