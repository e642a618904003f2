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

package complex

import (
	"reflect"

	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/xmlwire"
)

// ExtendedProperty is the value of one extended property.
type ExtendedProperty struct {
	Definition *propdef.ExtendedPropertyDefinition
	Value      interface{}

	raw []string
}

func (p *ExtendedProperty) TryReadElementFromXML(r *xmlwire.Reader) (bool, error) {
	switch {
	case r.IsStartElement(xmlwire.Types, xmlwire.ExtendedFieldURI):
		d, err := propdef.LoadFromXML(r)
		if err != nil {
			return false, err
		}
		p.Definition = d
		return true, nil
	case r.IsStartElement(xmlwire.Types, xmlwire.Value):
		s, err := r.ReadElementValue()
		if err != nil {
			return false, err
		}
		p.raw = append(p.raw, s)
		return true, nil
	case r.IsStartElement(xmlwire.Types, xmlwire.Values):
		return true, LoadFromXML(r, xmlwire.Types, xmlwire.Values, p)
	}
	return false, nil
}

// LoadExtendedPropertyFromXML reads an <t:ExtendedProperty> element and
// converts its value to the Go type of its MAPI type.
func LoadExtendedPropertyFromXML(r *xmlwire.Reader) (*ExtendedProperty, error) {
	p := &ExtendedProperty{}
	if err := LoadFromXML(r, xmlwire.Types, xmlwire.ExtendedProperty, p); err != nil {
		return nil, err
	}
	if p.Definition == nil {
		return nil, ewserr.Protocol("extended property without %s", xmlwire.ExtendedFieldURI)
	}
	v, err := propdef.ParseValue(p.Definition.MapiType(), p.raw)
	if err != nil {
		return nil, err
	}
	p.Value = v
	p.raw = nil
	return p, nil
}

func (p *ExtendedProperty) WriteElementsToXML(w *xmlwire.Writer) {
	p.Definition.WriteToXML(w)
	values, err := propdef.FormatValue(p.Definition.MapiType(), p.Value)
	if err != nil {
		w.Fail(err)
		return
	}
	if !p.Definition.MapiType().IsArray() {
		w.WriteElementValue(xmlwire.Types, xmlwire.Value, values[0])
		return
	}
	w.WriteStartElement(xmlwire.Types, xmlwire.Values)
	for _, s := range values {
		w.WriteElementValue(xmlwire.Types, xmlwire.Value, s)
	}
	w.WriteEndElement()
}

// ExtendedProperties is the ordered set of extended properties of an
// object.  It records which properties were set or removed since the
// last call to ClearChanges.
type ExtendedProperties struct {
	props    []*ExtendedProperty
	modified map[propdef.Key]bool
	removed  []*ExtendedProperty
	tracker  *Tracker
}

// NewExtendedProperties returns an empty collection whose changes are
// checked by t.
func NewExtendedProperties(t *Tracker) *ExtendedProperties {
	return &ExtendedProperties{tracker: t, modified: make(map[propdef.Key]bool)}
}

func (c *ExtendedProperties) find(d *propdef.ExtendedPropertyDefinition) int {
	for i, p := range c.props {
		if p.Definition.Equal(d) {
			return i
		}
	}
	return -1
}

// Get returns the value of the property defined by d.
func (c *ExtendedProperties) Get(d *propdef.ExtendedPropertyDefinition) (interface{}, bool) {
	if i := c.find(d); i >= 0 {
		return c.props[i].Value, true
	}
	return nil, false
}

// Set assigns the value of the property defined by d.  The value must
// have the Go type of d's MAPI type.
func (c *ExtendedProperties) Set(d *propdef.ExtendedPropertyDefinition, v interface{}) error {
	if d == nil {
		return ewserr.ArgumentNull("definition")
	}
	if _, err := propdef.FormatValue(d.MapiType(), v); err != nil {
		return err
	}
	if err := c.tracker.Check(xmlwire.ExtendedProperty); err != nil {
		return err
	}
	if i := c.find(d); i >= 0 {
		if reflect.DeepEqual(c.props[i].Value, v) {
			return nil
		}
		c.props[i].Value = v
	} else {
		c.props = append(c.props, &ExtendedProperty{Definition: d, Value: v})
	}
	c.modified[d.Key()] = true
	c.dropRemoved(d)
	c.tracker.Changed(xmlwire.ExtendedProperty)
	return nil
}

// Remove deletes the property defined by d and reports whether it was
// present.
func (c *ExtendedProperties) Remove(d *propdef.ExtendedPropertyDefinition) (bool, error) {
	if d == nil {
		return false, ewserr.ArgumentNull("definition")
	}
	i := c.find(d)
	if i < 0 {
		return false, nil
	}
	if err := c.tracker.Check(xmlwire.ExtendedProperty); err != nil {
		return false, err
	}
	p := c.props[i]
	c.props = append(c.props[:i], c.props[i+1:]...)
	delete(c.modified, d.Key())
	c.removed = append(c.removed, p)
	c.tracker.Changed(xmlwire.ExtendedProperty)
	return true, nil
}

func (c *ExtendedProperties) dropRemoved(d *propdef.ExtendedPropertyDefinition) {
	for i, p := range c.removed {
		if p.Definition.Equal(d) {
			c.removed = append(c.removed[:i], c.removed[i+1:]...)
			return
		}
	}
}

// Load adds a property read from the server without recording a
// change.
func (c *ExtendedProperties) Load(p *ExtendedProperty) {
	if i := c.find(p.Definition); i >= 0 {
		c.props[i] = p
		return
	}
	c.props = append(c.props, p)
}

func (c *ExtendedProperties) Len() int {
	return len(c.props)
}

// All returns the properties in the order they were added.
func (c *ExtendedProperties) All() []*ExtendedProperty {
	return append([]*ExtendedProperty(nil), c.props...)
}

// Modified returns the properties set since the last ClearChanges, in
// collection order.
func (c *ExtendedProperties) Modified() []*ExtendedProperty {
	var out []*ExtendedProperty
	for _, p := range c.props {
		if c.modified[p.Definition.Key()] {
			out = append(out, p)
		}
	}
	return out
}

// Removed returns the properties removed since the last ClearChanges.
func (c *ExtendedProperties) Removed() []*ExtendedProperty {
	return append([]*ExtendedProperty(nil), c.removed...)
}

func (c *ExtendedProperties) ClearChanges() {
	c.modified = make(map[propdef.Key]bool)
	c.removed = nil
}

// WriteToXML writes one <t:ExtendedProperty> element per property.
func (c *ExtendedProperties) WriteToXML(w *xmlwire.Writer) {
	for _, p := range c.props {
		WriteToXML(w, xmlwire.Types, xmlwire.ExtendedProperty, p)
	}
}
