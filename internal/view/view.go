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

// Package view describes how find requests page through their results.
//
// Setters validate their arguments immediately, so a view that exists
// always has a positive page size and, for seek views, a condition.
package view

import (
	"fmt"

	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/search"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// OffsetBasePoint selects the end of the result set an offset counts
// from.
type OffsetBasePoint int

const (
	Beginning OffsetBasePoint = iota
	End
)

func (p OffsetBasePoint) String() string {
	if p == End {
		return "End"
	}
	return "Beginning"
}

// ItemTraversal selects which items of a folder are searched.
type ItemTraversal int

const (
	ItemShallow ItemTraversal = iota
	ItemSoftDeleted
	ItemAssociated
)

func (t ItemTraversal) String() string {
	switch t {
	case ItemSoftDeleted:
		return "SoftDeleted"
	case ItemAssociated:
		return "Associated"
	}
	return "Shallow"
}

// FolderTraversal selects which folders below a parent are searched.
type FolderTraversal int

const (
	FolderShallow FolderTraversal = iota
	FolderDeep
	FolderSoftDeleted
)

func (t FolderTraversal) String() string {
	switch t {
	case FolderDeep:
		return "Deep"
	case FolderSoftDeleted:
		return "SoftDeleted"
	}
	return "Shallow"
}

// View is implemented by every paging descriptor.
type View interface {
	// Validate checks the view against the request's protocol version.
	Validate(v version.Version) error

	// WriteAttributesToXML writes the traversal attribute on the
	// request element.
	WriteAttributesToXML(w *xmlwire.Writer)

	// WriteToXML writes, in order, the requested property set, the view
	// element, the sort order and groupBy when it is not nil.
	WriteToXML(w *xmlwire.Writer, groupBy *Grouping)
}

// paging holds what every paged view shares.
type paging struct {
	pageSize  int
	basePoint OffsetBasePoint
	orderBy   OrderBy
}

func newPaging(pageSize int) (paging, error) {
	var p paging
	if err := p.SetPageSize(pageSize); err != nil {
		return paging{}, err
	}
	return p, nil
}

// PageSize returns the maximum number of results per page.
func (p *paging) PageSize() int { return p.pageSize }

// SetPageSize sets the page size, which must be positive.
func (p *paging) SetPageSize(n int) error {
	if n <= 0 {
		return ewserr.OutOfRange("pageSize", fmt.Sprintf("the page size must be greater than 0, got %d", n))
	}
	p.pageSize = n
	return nil
}

func (p *paging) BasePoint() OffsetBasePoint { return p.basePoint }

func (p *paging) SetBasePoint(b OffsetBasePoint) { p.basePoint = b }

// OrderBy returns the view's sort order, which callers may modify.
func (p *paging) OrderBy() *OrderBy { return &p.orderBy }

func (p *paging) writePagingAttributes(w *xmlwire.Writer) {
	w.WriteAttributeValue(xmlwire.AttrMaxEntriesReturned, p.pageSize)
}

// indexed adds a numeric offset to paging.
type indexed struct {
	paging
	offset int
}

func (x *indexed) Offset() int { return x.offset }

// SetOffset sets the offset from the base point, which must not be
// negative.
func (x *indexed) SetOffset(n int) error {
	if n < 0 {
		return ewserr.OutOfRange("offset", fmt.Sprintf("the offset must be at least 0, got %d", n))
	}
	x.offset = n
	return nil
}

func (x *indexed) writeIndexedElement(w *xmlwire.Writer, local string) {
	w.WriteStartElement(xmlwire.Messages, local)
	x.writePagingAttributes(w)
	w.WriteAttributeValue(xmlwire.AttrOffset, x.offset)
	w.WriteAttributeString(xmlwire.AttrBasePoint, x.basePoint.String())
	w.WriteEndElement()
}

// ItemView pages through items by offset.
type ItemView struct {
	indexed

	// PropertySet selects the properties returned for each item.  A
	// nil PropertySet requests the first class properties.
	PropertySet *propdef.PropertySet
	Traversal   ItemTraversal
}

// NewItemView returns a view of pageSize items starting at the
// beginning of the result set.
func NewItemView(pageSize int) (*ItemView, error) {
	p, err := newPaging(pageSize)
	if err != nil {
		return nil, err
	}
	return &ItemView{indexed: indexed{paging: p}}, nil
}

func (iv *ItemView) Validate(v version.Version) error {
	if err := validatePropertySet(iv.PropertySet, v); err != nil {
		return err
	}
	return iv.orderBy.Validate(v)
}

func (iv *ItemView) WriteAttributesToXML(w *xmlwire.Writer) {
	w.WriteAttributeString(xmlwire.AttrTraversal, iv.Traversal.String())
}

func (iv *ItemView) WriteToXML(w *xmlwire.Writer, groupBy *Grouping) {
	propertySetOrDefault(iv.PropertySet).WriteToXML(w, xmlwire.ItemShape)
	iv.writeIndexedElement(w, xmlwire.IndexedPageItemView)
	iv.orderBy.WriteToXML(w)
	groupBy.WriteToXML(w)
}

// FolderView pages through folders by offset.  Its property set is
// written by the request.
type FolderView struct {
	indexed

	Traversal FolderTraversal
}

// NewFolderView returns a view of pageSize folders.
func NewFolderView(pageSize int) (*FolderView, error) {
	p, err := newPaging(pageSize)
	if err != nil {
		return nil, err
	}
	return &FolderView{indexed: indexed{paging: p}}, nil
}

func (fv *FolderView) Validate(v version.Version) error {
	return fv.orderBy.Validate(v)
}

func (fv *FolderView) WriteAttributesToXML(w *xmlwire.Writer) {
	w.WriteAttributeString(xmlwire.AttrTraversal, fv.Traversal.String())
}

// WriteToXML writes the view element and the sort order.  Folders
// cannot be grouped, so groupBy is ignored.
func (fv *FolderView) WriteToXML(w *xmlwire.Writer, groupBy *Grouping) {
	fv.writeIndexedElement(w, xmlwire.IndexedPageFolderView)
	fv.orderBy.WriteToXML(w)
}

// SeekToConditionItemView pages through items starting at the first
// item matching a condition.
type SeekToConditionItemView struct {
	paging

	PropertySet *propdef.PropertySet
	Traversal   ItemTraversal

	condition search.Filter
}

// NewSeekToConditionItemView returns a seek view.  The page size is
// checked before the condition.
func NewSeekToConditionItemView(condition search.Filter, pageSize int) (*SeekToConditionItemView, error) {
	p, err := newPaging(pageSize)
	if err != nil {
		return nil, err
	}
	sv := &SeekToConditionItemView{paging: p}
	if err := sv.SetCondition(condition); err != nil {
		return nil, err
	}
	return sv, nil
}

func (sv *SeekToConditionItemView) Condition() search.Filter { return sv.condition }

// SetCondition replaces the condition, which must not be nil.
func (sv *SeekToConditionItemView) SetCondition(f search.Filter) error {
	if f == nil {
		return ewserr.ArgumentNull("condition")
	}
	sv.condition = f
	return nil
}

func (sv *SeekToConditionItemView) Validate(v version.Version) error {
	if err := version.Require(xmlwire.SeekToConditionPageItemView, version.Exchange2013, v); err != nil {
		return err
	}
	if err := sv.condition.Validate(v); err != nil {
		return err
	}
	if err := validatePropertySet(sv.PropertySet, v); err != nil {
		return err
	}
	return sv.orderBy.Validate(v)
}

func (sv *SeekToConditionItemView) WriteAttributesToXML(w *xmlwire.Writer) {
	w.WriteAttributeString(xmlwire.AttrTraversal, sv.Traversal.String())
}

func (sv *SeekToConditionItemView) WriteToXML(w *xmlwire.Writer, groupBy *Grouping) {
	propertySetOrDefault(sv.PropertySet).WriteToXML(w, xmlwire.ItemShape)
	w.WriteStartElement(xmlwire.Messages, xmlwire.SeekToConditionPageItemView)
	sv.writePagingAttributes(w)
	w.WriteAttributeString(xmlwire.AttrBasePoint, sv.basePoint.String())
	w.WriteStartElement(xmlwire.Types, xmlwire.Condition)
	sv.condition.WriteToXML(w)
	w.WriteEndElement()
	w.WriteEndElement()
	sv.orderBy.WriteToXML(w)
	groupBy.WriteToXML(w)
}

func propertySetOrDefault(ps *propdef.PropertySet) *propdef.PropertySet {
	if ps == nil {
		return propdef.NewPropertySet(propdef.FirstClassProperties)
	}
	return ps
}

func validatePropertySet(ps *propdef.PropertySet, v version.Version) error {
	if ps == nil {
		return nil
	}
	return ps.Validate(v)
}
