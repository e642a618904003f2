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

// Package search builds the restrictions that select items and folders
// in find requests.
//
// A restriction is a tree of Filters.  The set of filter types is
// closed: comparisons, substring matches, bitmask tests, existence
// tests, negation and collections.
package search

import (
	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// Filter is a node of a restriction.
type Filter interface {
	// Validate checks the filter against the protocol version the
	// request will be sent with.
	Validate(v version.Version) error

	// WriteToXML writes the filter's element.
	WriteToXML(w *xmlwire.Writer)

	filter()
}

func validateProperty(d propdef.Definition, v version.Version) error {
	if d == nil {
		return ewserr.ArgumentNull("propertyDefinition")
	}
	return version.Require(d.PrintableName(), d.Version(), v)
}

// Operator is a comparison operator.
type Operator int

const (
	IsEqualTo Operator = iota
	IsNotEqualTo
	IsGreaterThan
	IsGreaterThanOrEqualTo
	IsLessThan
	IsLessThanOrEqualTo
)

var operatorElements = [...]string{
	IsEqualTo:              xmlwire.IsEqualTo,
	IsNotEqualTo:           xmlwire.IsNotEqualTo,
	IsGreaterThan:          xmlwire.IsGreaterThan,
	IsGreaterThanOrEqualTo: xmlwire.IsGreaterThanOrEqualTo,
	IsLessThan:             xmlwire.IsLessThan,
	IsLessThanOrEqualTo:    xmlwire.IsLessThanOrEqualTo,
}

func (op Operator) String() string {
	return operatorElements[op]
}

// Comparison compares a property with a constant, or with another
// property when Other is set.
type Comparison struct {
	Op       Operator
	Property propdef.Definition
	Value    interface{}
	Other    propdef.Definition
}

// Compare returns a comparison of p with the constant value.
func Compare(op Operator, p propdef.Definition, value interface{}) *Comparison {
	return &Comparison{Op: op, Property: p, Value: value}
}

func (c *Comparison) filter() {}

func (c *Comparison) Validate(v version.Version) error {
	if err := validateProperty(c.Property, v); err != nil {
		return err
	}
	if c.Other != nil {
		return validateProperty(c.Other, v)
	}
	if c.Value == nil {
		return ewserr.ArgumentNull("value")
	}
	if _, err := xmlwire.FormatValue(c.Value); err != nil {
		return ewserr.Validation("comparison value: %v", err)
	}
	return nil
}

func (c *Comparison) WriteToXML(w *xmlwire.Writer) {
	w.WriteStartElement(xmlwire.Types, c.Op.String())
	c.Property.WriteToXML(w)
	w.WriteStartElement(xmlwire.Types, xmlwire.FieldURIOrConstant)
	if c.Other != nil {
		c.Other.WriteToXML(w)
	} else {
		w.WriteStartElement(xmlwire.Types, xmlwire.Constant)
		w.WriteAttributeValue(xmlwire.AttrValue, c.Value)
		w.WriteEndElement()
	}
	w.WriteEndElement()
	w.WriteEndElement()
}

// ContainmentMode selects which part of a string value must match.
type ContainmentMode string

const (
	FullString    ContainmentMode = "FullString"
	Prefixed      ContainmentMode = "Prefixed"
	Substring     ContainmentMode = "Substring"
	PrefixOnWords ContainmentMode = "PrefixOnWords"
	ExactPhrase   ContainmentMode = "ExactPhrase"
)

// ContainmentComparison selects how characters are compared.
type ContainmentComparison string

const (
	Exact                      ContainmentComparison = "Exact"
	IgnoreCase                 ContainmentComparison = "IgnoreCase"
	IgnoreNonSpacingCharacters ContainmentComparison = "IgnoreNonSpacingCharacters"
	Loose                      ContainmentComparison = "Loose"
	IgnoreCaseAndNonSpacing    ContainmentComparison = "IgnoreCaseAndNonSpacingCharacters"
)

// ContainsSubstring matches string properties containing Value.  The
// zero Mode and Comparison leave the server defaults in effect.
type ContainsSubstring struct {
	Property   propdef.Definition
	Value      string
	Mode       ContainmentMode
	Comparison ContainmentComparison
}

// Contains returns a case-insensitive substring match.
func Contains(p propdef.Definition, value string) *ContainsSubstring {
	return &ContainsSubstring{Property: p, Value: value, Mode: Substring, Comparison: IgnoreCase}
}

func (c *ContainsSubstring) filter() {}

func (c *ContainsSubstring) Validate(v version.Version) error {
	if err := validateProperty(c.Property, v); err != nil {
		return err
	}
	if c.Value == "" {
		return ewserr.ArgumentMissing("value")
	}
	return nil
}

func (c *ContainsSubstring) WriteToXML(w *xmlwire.Writer) {
	w.WriteStartElement(xmlwire.Types, xmlwire.Contains)
	if c.Mode != "" {
		w.WriteAttributeString(xmlwire.AttrContainmentMode, string(c.Mode))
	}
	if c.Comparison != "" {
		w.WriteAttributeString(xmlwire.AttrContainmentComparison, string(c.Comparison))
	}
	c.Property.WriteToXML(w)
	w.WriteStartElement(xmlwire.Types, xmlwire.Constant)
	w.WriteAttributeValue(xmlwire.AttrValue, c.Value)
	w.WriteEndElement()
	w.WriteEndElement()
}

// ExcludesBitmask matches integer properties that have none of the
// bits of the bitmask set.
//
// The bitmask is written in decimal but the server's own restrictions
// carry it in hexadecimal, so Read parses it as hexadecimal.
type ExcludesBitmask struct {
	Property propdef.Definition

	bitmask complex.Field[int]
	tracker *complex.Tracker
}

// Excludes returns a bitmask filter.
func Excludes(p propdef.Definition, bitmask int) *ExcludesBitmask {
	f := &ExcludesBitmask{
		Property: p,
		bitmask:  complex.NewField[int](xmlwire.Bitmask),
		tracker:  complex.NewTracker(nil),
	}
	f.bitmask.Load(bitmask)
	return f
}

func (f *ExcludesBitmask) filter() {}

func (f *ExcludesBitmask) Bitmask() int {
	return f.bitmask.Value()
}

// SetBitmask changes the bitmask and notifies the OnChange listeners.
func (f *ExcludesBitmask) SetBitmask(v int) error {
	return f.bitmask.Set(f.tracker, v)
}

// OnChange registers fn to be called when the bitmask changes.
func (f *ExcludesBitmask) OnChange(fn func(field string)) {
	f.tracker.OnChange(fn)
}

func (f *ExcludesBitmask) Validate(v version.Version) error {
	return validateProperty(f.Property, v)
}

func (f *ExcludesBitmask) WriteToXML(w *xmlwire.Writer) {
	w.WriteStartElement(xmlwire.Types, xmlwire.Excludes)
	f.Property.WriteToXML(w)
	w.WriteStartElement(xmlwire.Types, xmlwire.Bitmask)
	w.WriteAttributeValue(xmlwire.AttrValue, f.Bitmask())
	w.WriteEndElement()
	w.WriteEndElement()
}

// Exists matches objects on which a property is set.
type Exists struct {
	Property propdef.Definition
}

func (e *Exists) filter() {}

func (e *Exists) Validate(v version.Version) error {
	return validateProperty(e.Property, v)
}

func (e *Exists) WriteToXML(w *xmlwire.Writer) {
	w.WriteStartElement(xmlwire.Types, xmlwire.Exists)
	e.Property.WriteToXML(w)
	w.WriteEndElement()
}

// Not negates a filter.
type Not struct {
	Filter Filter
}

func (n *Not) filter() {}

func (n *Not) Validate(v version.Version) error {
	if n.Filter == nil {
		return ewserr.ArgumentNull("searchFilter")
	}
	return n.Filter.Validate(v)
}

func (n *Not) WriteToXML(w *xmlwire.Writer) {
	w.WriteStartElement(xmlwire.Types, xmlwire.Not)
	n.Filter.WriteToXML(w)
	w.WriteEndElement()
}

// LogicalOperator combines the filters of a collection.
type LogicalOperator int

const (
	And LogicalOperator = iota
	Or
)

func (op LogicalOperator) String() string {
	if op == Or {
		return xmlwire.Or
	}
	return xmlwire.And
}

// Collection combines filters with a logical operator.  Filters are
// written in order.
type Collection struct {
	Operator LogicalOperator
	Filters  []Filter
}

// AllOf returns a collection matching objects matched by every filter.
func AllOf(filters ...Filter) *Collection {
	return &Collection{Operator: And, Filters: filters}
}

// AnyOf returns a collection matching objects matched by any filter.
func AnyOf(filters ...Filter) *Collection {
	return &Collection{Operator: Or, Filters: filters}
}

func (c *Collection) filter() {}

func (c *Collection) Validate(v version.Version) error {
	if len(c.Filters) == 0 {
		return ewserr.Validation("a search filter collection needs at least one filter")
	}
	for _, f := range c.Filters {
		if f == nil {
			return ewserr.ArgumentNull("searchFilter")
		}
		if err := f.Validate(v); err != nil {
			return err
		}
	}
	return nil
}

// WriteToXML writes the collection.  The server rejects collections of
// fewer than two filters, so a collection holding a single filter is
// written as that filter alone.
func (c *Collection) WriteToXML(w *xmlwire.Writer) {
	if len(c.Filters) == 1 {
		c.Filters[0].WriteToXML(w)
		return
	}
	w.WriteStartElement(xmlwire.Types, c.Operator.String())
	for _, f := range c.Filters {
		f.WriteToXML(w)
	}
	w.WriteEndElement()
}

// WriteRestriction writes <m:Restriction> holding f.
func WriteRestriction(w *xmlwire.Writer, f Filter) {
	w.WriteStartElement(xmlwire.Messages, xmlwire.Restriction)
	f.WriteToXML(w)
	w.WriteEndElement()
}
