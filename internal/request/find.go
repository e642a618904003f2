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

package request

import (
	"context"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/item"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/search"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/view"
	"github.com/matta/gotews/internal/xmlwire"
)

func validateFolderIDs(ids []*complex.FolderId) error {
	if len(ids) == 0 {
		return ewserr.ArgumentMissing("parentFolderIds")
	}
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func writeParentFolderIDs(w *xmlwire.Writer, ids []*complex.FolderId) {
	w.WriteStartElement(xmlwire.Messages, xmlwire.ParentFolderIds)
	for _, id := range ids {
		id.WriteToXML(w)
	}
	w.WriteEndElement()
}

// Paging describes where a page of find results sits in the full
// result set.
type Paging struct {
	// NextOffset is the offset of the first result after this page.
	NextOffset int

	TotalItemsInView int

	// MoreAvailable is false once the page includes the last result.
	MoreAvailable bool
}

func (p *Paging) readRootAttributes(r *xmlwire.Reader) error {
	for _, a := range []struct {
		name string
		dst  *int
	}{
		{xmlwire.AttrIndexedPagingOffset, &p.NextOffset},
		{xmlwire.AttrTotalItemsInView, &p.TotalItemsInView},
	} {
		if s, ok := r.LookupAttribute(a.name); ok {
			n, err := xmlwire.ParseInt(s)
			if err != nil {
				return err
			}
			*a.dst = n
		}
	}
	if s, ok := r.LookupAttribute(xmlwire.AttrIncludesLastItemInRange); ok {
		last, err := xmlwire.ParseBool(s)
		if err != nil {
			return err
		}
		p.MoreAvailable = !last
	}
	return nil
}

// Group is one group of grouped find results.
type Group struct {
	Index string
	Items []*item.Item
}

// FindItemResponse is the result of searching one folder.
type FindItemResponse struct {
	ServiceResponse
	Paging

	// Items holds the results of an ungrouped search.
	Items []*item.Item

	// Groups holds the results of a grouped search.
	Groups []*Group
}

func (r *FindItemResponse) TryReadElementFromXML(rd *xmlwire.Reader) (bool, error) {
	if !rd.IsStartElement(xmlwire.Messages, xmlwire.RootFolder) {
		return false, nil
	}
	if err := r.readRootAttributes(rd); err != nil {
		return false, err
	}
	return true, complex.LoadFromXML(rd, xmlwire.Messages, xmlwire.RootFolder, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		switch {
		case rd.IsStartElement(xmlwire.Types, xmlwire.Items):
			items, err := readItems(rd, xmlwire.Types)
			r.Items = items
			return true, err
		case rd.IsStartElement(xmlwire.Types, xmlwire.Groups):
			return true, complex.LoadFromXML(rd, xmlwire.Types, xmlwire.Groups, bindFunc(r.tryReadGroup))
		}
		return false, nil
	}))
}

func (r *FindItemResponse) tryReadGroup(rd *xmlwire.Reader) (bool, error) {
	if !rd.IsStartElement(xmlwire.Types, xmlwire.GroupedItems) {
		return false, nil
	}
	g := &Group{}
	err := complex.LoadFromXML(rd, xmlwire.Types, xmlwire.GroupedItems, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		switch {
		case rd.IsStartElement(xmlwire.Types, xmlwire.GroupIndex):
			s, err := rd.ReadElementValue()
			g.Index = s
			return true, err
		case rd.IsStartElement(xmlwire.Types, xmlwire.Items):
			items, err := readItems(rd, xmlwire.Types)
			g.Items = items
			return true, err
		}
		return false, nil
	}))
	if err != nil {
		return false, err
	}
	r.Groups = append(r.Groups, g)
	return true, nil
}

// FindItem searches folders for items.  One response is returned per
// parent folder.
type FindItem struct {
	Request

	ParentFolderIDs []*complex.FolderId

	// View is an *view.ItemView or a *view.SeekToConditionItemView.
	View view.View

	// Filter and QueryString are mutually exclusive.
	Filter      search.Filter
	QueryString string

	GroupBy *view.Grouping
}

func (f *FindItem) XMLElementName() string         { return xmlwire.FindItem }
func (f *FindItem) ResponseXMLElementName() string { return responseName(xmlwire.FindItem) }
func (f *FindItem) ResponseMessageXMLElementName() string {
	return responseMessageName(xmlwire.FindItem)
}
func (f *FindItem) MinimumRequiredServerVersion() version.Version { return version.Exchange2007SP1 }
func (f *FindItem) ExpectedResponseMessageCount() int             { return len(f.ParentFolderIDs) }
func (f *FindItem) CreateServiceResponse(int) *FindItemResponse   { return &FindItemResponse{} }

func (f *FindItem) Validate(v version.Version) error {
	if err := validateFolderIDs(f.ParentFolderIDs); err != nil {
		return err
	}
	switch f.View.(type) {
	case nil:
		return ewserr.ArgumentNull("view")
	case *view.FolderView:
		return ewserr.Validation("%s needs an item view", xmlwire.FindItem)
	}
	if err := f.View.Validate(v); err != nil {
		return err
	}
	if f.QueryString != "" {
		if f.Filter != nil {
			return ewserr.Validation("a search filter and a query string cannot be used together")
		}
		if err := version.Require(xmlwire.QueryString, version.Exchange2010, v); err != nil {
			return err
		}
	}
	if f.Filter != nil {
		if err := f.Filter.Validate(v); err != nil {
			return err
		}
	}
	if f.GroupBy != nil {
		return f.GroupBy.Validate(v)
	}
	return nil
}

func (f *FindItem) WriteAttributesToXML(w *xmlwire.Writer) {
	f.View.WriteAttributesToXML(w)
}

// WriteElementsToXML writes the view (shape, paging, SortOrder, GroupBy)
// before the Restriction.  The FindItem schema orders GroupBy, then
// Restriction, then SortOrder; servers validating strictly may reject a
// request that combines a restriction with ordering or grouping.
func (f *FindItem) WriteElementsToXML(w *xmlwire.Writer) {
	f.View.WriteToXML(w, f.GroupBy)
	if f.Filter != nil {
		search.WriteRestriction(w, f.Filter)
	}
	writeParentFolderIDs(w, f.ParentFolderIDs)
	if f.QueryString != "" {
		w.WriteElementValue(xmlwire.Messages, xmlwire.QueryString, f.QueryString)
	}
}

func (f *FindItem) Execute(ctx context.Context) ([]*FindItemResponse, error) {
	return Execute[*FindItemResponse](ctx, &f.Request, f)
}

// FindFolderResponse is the result of searching below one folder.
type FindFolderResponse struct {
	ServiceResponse
	Paging

	Folders []*item.Folder
}

func (r *FindFolderResponse) TryReadElementFromXML(rd *xmlwire.Reader) (bool, error) {
	if !rd.IsStartElement(xmlwire.Messages, xmlwire.RootFolder) {
		return false, nil
	}
	if err := r.readRootAttributes(rd); err != nil {
		return false, err
	}
	return true, complex.LoadFromXML(rd, xmlwire.Messages, xmlwire.RootFolder, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		if !rd.IsStartElement(xmlwire.Types, xmlwire.Folders) {
			return false, nil
		}
		return true, complex.LoadFromXML(rd, xmlwire.Types, xmlwire.Folders, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
			folder, err := item.LoadFolderFromXML(rd)
			if err != nil {
				return false, err
			}
			r.Folders = append(r.Folders, folder)
			return true, nil
		}))
	}))
}

// FindFolder searches below folders for folders.
type FindFolder struct {
	Request

	ParentFolderIDs []*complex.FolderId
	View            *view.FolderView

	// PropertySet selects the folder properties loaded.  Nil loads the
	// first class properties.
	PropertySet *propdef.PropertySet

	Filter search.Filter
}

func (f *FindFolder) XMLElementName() string         { return xmlwire.FindFolder }
func (f *FindFolder) ResponseXMLElementName() string { return responseName(xmlwire.FindFolder) }
func (f *FindFolder) ResponseMessageXMLElementName() string {
	return responseMessageName(xmlwire.FindFolder)
}
func (f *FindFolder) MinimumRequiredServerVersion() version.Version { return version.Exchange2007SP1 }
func (f *FindFolder) ExpectedResponseMessageCount() int             { return len(f.ParentFolderIDs) }
func (f *FindFolder) CreateServiceResponse(int) *FindFolderResponse {
	return &FindFolderResponse{}
}

func (f *FindFolder) Validate(v version.Version) error {
	if err := validateFolderIDs(f.ParentFolderIDs); err != nil {
		return err
	}
	if f.View == nil {
		return ewserr.ArgumentNull("view")
	}
	if err := f.View.Validate(v); err != nil {
		return err
	}
	if f.PropertySet != nil {
		if err := f.PropertySet.Validate(v); err != nil {
			return err
		}
	}
	if f.Filter != nil {
		return f.Filter.Validate(v)
	}
	return nil
}

func (f *FindFolder) WriteAttributesToXML(w *xmlwire.Writer) {
	f.View.WriteAttributesToXML(w)
}

func (f *FindFolder) WriteElementsToXML(w *xmlwire.Writer) {
	ps := f.PropertySet
	if ps == nil {
		ps = propdef.NewPropertySet(propdef.FirstClassProperties)
	}
	ps.WriteToXML(w, xmlwire.FolderShape)
	f.View.WriteToXML(w, nil)
	if f.Filter != nil {
		search.WriteRestriction(w, f.Filter)
	}
	writeParentFolderIDs(w, f.ParentFolderIDs)
}

func (f *FindFolder) Execute(ctx context.Context) ([]*FindFolderResponse, error) {
	return Execute[*FindFolderResponse](ctx, &f.Request, f)
}
