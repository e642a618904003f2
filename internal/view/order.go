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
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// SortDirection is the direction of a sort.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

func (d SortDirection) String() string {
	if d == Descending {
		return "Descending"
	}
	return "Ascending"
}

// SortEntry is one property of a sort order.
type SortEntry struct {
	Property  propdef.Definition
	Direction SortDirection
}

// OrderBy is an ordered list of properties to sort by.  A property
// appears at most once.  The zero value is empty and ready to use.
type OrderBy struct {
	entries []SortEntry
}

func (o *OrderBy) index(d propdef.Definition) int {
	for i, e := range o.entries {
		if propdef.Equal(e.Property, d) {
			return i
		}
	}
	return -1
}

// Add appends d to the sort order.
func (o *OrderBy) Add(d propdef.Definition, dir SortDirection) error {
	if d == nil {
		return ewserr.ArgumentNull("propertyDefinition")
	}
	if o.index(d) >= 0 {
		return ewserr.Validation("property %s is already in the sort order", d.PrintableName())
	}
	o.entries = append(o.entries, SortEntry{Property: d, Direction: dir})
	return nil
}

// Remove deletes d from the sort order and reports whether it was
// there.
func (o *OrderBy) Remove(d propdef.Definition) bool {
	i := o.index(d)
	if i < 0 {
		return false
	}
	o.entries = append(o.entries[:i], o.entries[i+1:]...)
	return true
}

// Direction returns the direction d is sorted in.
func (o *OrderBy) Direction(d propdef.Definition) (SortDirection, bool) {
	i := o.index(d)
	if i < 0 {
		return Ascending, false
	}
	return o.entries[i].Direction, true
}

func (o *OrderBy) Clear()   { o.entries = nil }
func (o *OrderBy) Len() int { return len(o.entries) }

// Entries returns a copy of the sort order.
func (o *OrderBy) Entries() []SortEntry {
	return append([]SortEntry(nil), o.entries...)
}

func (o *OrderBy) Validate(v version.Version) error {
	for _, e := range o.entries {
		if err := version.Require(e.Property.PrintableName(), e.Property.Version(), v); err != nil {
			return err
		}
	}
	return nil
}

// WriteToXML writes <m:SortOrder>, or nothing when the order is empty.
func (o *OrderBy) WriteToXML(w *xmlwire.Writer) {
	if len(o.entries) == 0 {
		return
	}
	w.WriteStartElement(xmlwire.Messages, xmlwire.SortOrder)
	for _, e := range o.entries {
		w.WriteStartElement(xmlwire.Types, xmlwire.FieldOrder)
		w.WriteAttributeString(xmlwire.AttrOrder, e.Direction.String())
		e.Property.WriteToXML(w)
		w.WriteEndElement()
	}
	w.WriteEndElement()
}

// AggregateType selects which item of a group represents it when
// groups are sorted.
type AggregateType int

const (
	Minimum AggregateType = iota
	Maximum
)

func (a AggregateType) String() string {
	if a == Maximum {
		return "Maximum"
	}
	return "Minimum"
}

// Grouping groups the results of a find request.
type Grouping struct {
	GroupOn     propdef.Definition
	AggregateOn propdef.Definition
	Aggregate   AggregateType
	Direction   SortDirection
}

// Validate checks that both properties are present.
func (g *Grouping) Validate(v version.Version) error {
	if g.GroupOn == nil {
		return ewserr.ArgumentNull("GroupOn")
	}
	if g.AggregateOn == nil {
		return ewserr.ArgumentNull("AggregateOn")
	}
	if err := version.Require(g.GroupOn.PrintableName(), g.GroupOn.Version(), v); err != nil {
		return err
	}
	return version.Require(g.AggregateOn.PrintableName(), g.AggregateOn.Version(), v)
}

// WriteToXML writes <m:GroupBy>.  A nil Grouping writes nothing.
func (g *Grouping) WriteToXML(w *xmlwire.Writer) {
	if g == nil {
		return
	}
	w.WriteStartElement(xmlwire.Messages, xmlwire.GroupBy)
	w.WriteAttributeString(xmlwire.AttrOrder, g.Direction.String())
	g.GroupOn.WriteToXML(w)
	w.WriteStartElement(xmlwire.Types, xmlwire.AggregateOn)
	w.WriteAttributeString(xmlwire.AttrAggregate, g.Aggregate.String())
	g.AggregateOn.WriteToXML(w)
	w.WriteEndElement()
	w.WriteEndElement()
}
