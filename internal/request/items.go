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
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// MessageDisposition selects whether created or updated messages are
// saved, sent, or both.  The zero value leaves the attribute out.
type MessageDisposition string

const (
	SaveOnly        MessageDisposition = "SaveOnly"
	SendOnly        MessageDisposition = "SendOnly"
	SendAndSaveCopy MessageDisposition = "SendAndSaveCopy"
)

// ConflictResolution selects how an update resolves a stale change
// key.  The zero value leaves the attribute out.
type ConflictResolution string

const (
	NeverOverwrite  ConflictResolution = "NeverOverwrite"
	AutoResolve     ConflictResolution = "AutoResolve"
	AlwaysOverwrite ConflictResolution = "AlwaysOverwrite"
)

// DeleteMode selects how items are deleted.
type DeleteMode int

const (
	MoveToDeletedItems DeleteMode = iota
	SoftDelete
	HardDelete
)

func (m DeleteMode) String() string {
	switch m {
	case SoftDelete:
		return "SoftDelete"
	case HardDelete:
		return "HardDelete"
	}
	return "MoveToDeletedItems"
}

func responseName(op string) string        { return op + "Response" }
func responseMessageName(op string) string { return op + "ResponseMessage" }

func validateItemIDs(ids []*complex.ItemId) error {
	if len(ids) == 0 {
		return ewserr.ArgumentMissing("itemIds")
	}
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func writeItemIDs(w *xmlwire.Writer, ids []*complex.ItemId) {
	w.WriteStartElement(xmlwire.Messages, xmlwire.ItemIds)
	for _, id := range ids {
		complex.WriteToXML(w, xmlwire.Types, xmlwire.ItemId, id)
	}
	w.WriteEndElement()
}

func writeSavedItemFolderID(w *xmlwire.Writer, id *complex.FolderId) {
	if id == nil {
		return
	}
	w.WriteStartElement(xmlwire.Messages, xmlwire.SavedItemFolderId)
	id.WriteToXML(w)
	w.WriteEndElement()
}

func requireSuppressReadReceipts(set *bool, v version.Version) error {
	if set == nil {
		return nil
	}
	return version.Require(xmlwire.AttrSuppressReadReceipts, version.Exchange2013SP1, v)
}

// readItems reads the items of an <m:Items> element.
func readItems(r *xmlwire.Reader, ns xmlwire.Namespace) ([]*item.Item, error) {
	var items []*item.Item
	err := complex.LoadFromXML(r, ns, xmlwire.Items, bindFunc(func(r *xmlwire.Reader) (bool, error) {
		it, err := item.LoadFromXML(r)
		if err != nil {
			return false, err
		}
		items = append(items, it)
		return true, nil
	}))
	return items, err
}

// ItemResponse is the response to an operation returning one item per
// message.
type ItemResponse struct {
	ServiceResponse

	// Item is nil when the server returned no item.
	Item *item.Item
}

func (r *ItemResponse) TryReadElementFromXML(rd *xmlwire.Reader) (bool, error) {
	if !rd.IsStartElement(xmlwire.Messages, xmlwire.Items) {
		return false, nil
	}
	items, err := readItems(rd, xmlwire.Messages)
	if err != nil {
		return false, err
	}
	if len(items) > 0 {
		r.Item = items[0]
	}
	return true, nil
}

// GetItem loads items by id.
type GetItem struct {
	Request

	ItemIDs []*complex.ItemId

	// PropertySet selects the properties loaded.  A nil PropertySet
	// loads the first class properties.
	PropertySet *propdef.PropertySet
}

func (g *GetItem) XMLElementName() string         { return xmlwire.GetItem }
func (g *GetItem) ResponseXMLElementName() string { return responseName(xmlwire.GetItem) }
func (g *GetItem) ResponseMessageXMLElementName() string {
	return responseMessageName(xmlwire.GetItem)
}
func (g *GetItem) MinimumRequiredServerVersion() version.Version { return version.Exchange2007SP1 }
func (g *GetItem) ExpectedResponseMessageCount() int             { return len(g.ItemIDs) }
func (g *GetItem) CreateServiceResponse(int) *ItemResponse       { return &ItemResponse{} }

func (g *GetItem) Validate(v version.Version) error {
	if err := validateItemIDs(g.ItemIDs); err != nil {
		return err
	}
	if g.PropertySet != nil {
		return g.PropertySet.Validate(v)
	}
	return nil
}

func (g *GetItem) WriteAttributesToXML(w *xmlwire.Writer) {}

func (g *GetItem) WriteElementsToXML(w *xmlwire.Writer) {
	ps := g.PropertySet
	if ps == nil {
		ps = propdef.NewPropertySet(propdef.FirstClassProperties)
	}
	ps.WriteToXML(w, xmlwire.ItemShape)
	writeItemIDs(w, g.ItemIDs)
}

// Execute loads the items.  Each response's Item is the item with the
// id at the same position.
func (g *GetItem) Execute(ctx context.Context) ([]*ItemResponse, error) {
	return Execute[*ItemResponse](ctx, &g.Request, g)
}

// CreateItem creates new items.  On success the items are marked
// saved with the identity the server assigned.
type CreateItem struct {
	Request

	Items []*item.Item

	// SavedItemFolderID is the folder the items are created in.  Nil
	// selects the server default for the item class.
	SavedItemFolderID *complex.FolderId

	MessageDisposition MessageDisposition
}

func (c *CreateItem) XMLElementName() string         { return xmlwire.CreateItem }
func (c *CreateItem) ResponseXMLElementName() string { return responseName(xmlwire.CreateItem) }
func (c *CreateItem) ResponseMessageXMLElementName() string {
	return responseMessageName(xmlwire.CreateItem)
}
func (c *CreateItem) MinimumRequiredServerVersion() version.Version { return version.Exchange2007SP1 }
func (c *CreateItem) ExpectedResponseMessageCount() int             { return len(c.Items) }
func (c *CreateItem) CreateServiceResponse(int) *ItemResponse       { return &ItemResponse{} }

func (c *CreateItem) Validate(v version.Version) error {
	if len(c.Items) == 0 {
		return ewserr.ArgumentMissing("items")
	}
	for _, it := range c.Items {
		if it == nil {
			return ewserr.ArgumentNull("items")
		}
		if err := it.ValidateForCreate(v); err != nil {
			return err
		}
	}
	if c.SavedItemFolderID != nil {
		return c.SavedItemFolderID.Validate()
	}
	return nil
}

func (c *CreateItem) WriteAttributesToXML(w *xmlwire.Writer) {
	if c.MessageDisposition != "" {
		w.WriteAttributeString(xmlwire.AttrMessageDisposition, string(c.MessageDisposition))
	}
}

func (c *CreateItem) WriteElementsToXML(w *xmlwire.Writer) {
	writeSavedItemFolderID(w, c.SavedItemFolderID)
	w.WriteStartElement(xmlwire.Messages, xmlwire.Items)
	for _, it := range c.Items {
		it.WriteToXML(w)
	}
	w.WriteEndElement()
}

// Execute creates the items.  Messages that are only sent are not
// returned by the server and stay new.
func (c *CreateItem) Execute(ctx context.Context) ([]*ItemResponse, error) {
	responses, err := Execute[*ItemResponse](ctx, &c.Request, c)
	if err != nil {
		return nil, err
	}
	for i, resp := range responses {
		if resp.Class == Error || resp.Item == nil {
			continue
		}
		if err := c.Items[i].Saved(resp.Item); err != nil {
			return nil, err
		}
	}
	return responses, nil
}

// UpdateItemResponse is the response to one item of an UpdateItem.
type UpdateItemResponse struct {
	ItemResponse

	// ConflictCount is the number of conflicts the server resolved.
	ConflictCount int
}

func (r *UpdateItemResponse) TryReadElementFromXML(rd *xmlwire.Reader) (bool, error) {
	if !rd.IsStartElement(xmlwire.Messages, xmlwire.ConflictResults) {
		return r.ItemResponse.TryReadElementFromXML(rd)
	}
	return true, complex.LoadFromXML(rd, xmlwire.Messages, xmlwire.ConflictResults, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		if !rd.IsStartElement(xmlwire.Types, xmlwire.Count) {
			return false, nil
		}
		s, err := rd.ReadElementValue()
		if err != nil {
			return false, err
		}
		n, err := xmlwire.ParseInt(s)
		r.ConflictCount = n
		return true, err
	}))
}

// UpdateItem sends the tracked changes of saved items.
type UpdateItem struct {
	Request

	Items             []*item.Item
	SavedItemFolderID *complex.FolderId

	ConflictResolution ConflictResolution
	MessageDisposition MessageDisposition

	// SuppressReadReceipts is nil unless the caller sets it.  It
	// requires Exchange2013_SP1.
	SuppressReadReceipts *bool
}

func (u *UpdateItem) XMLElementName() string         { return xmlwire.UpdateItem }
func (u *UpdateItem) ResponseXMLElementName() string { return responseName(xmlwire.UpdateItem) }
func (u *UpdateItem) ResponseMessageXMLElementName() string {
	return responseMessageName(xmlwire.UpdateItem)
}
func (u *UpdateItem) MinimumRequiredServerVersion() version.Version { return version.Exchange2007SP1 }
func (u *UpdateItem) ExpectedResponseMessageCount() int             { return len(u.Items) }
func (u *UpdateItem) CreateServiceResponse(int) *UpdateItemResponse {
	return &UpdateItemResponse{}
}

func (u *UpdateItem) Validate(v version.Version) error {
	if len(u.Items) == 0 {
		return ewserr.ArgumentMissing("items")
	}
	for _, it := range u.Items {
		if it == nil {
			return ewserr.ArgumentNull("items")
		}
		if err := it.ValidateForUpdate(v); err != nil {
			return err
		}
	}
	if u.SavedItemFolderID != nil {
		if err := u.SavedItemFolderID.Validate(); err != nil {
			return err
		}
	}
	return requireSuppressReadReceipts(u.SuppressReadReceipts, v)
}

func (u *UpdateItem) WriteAttributesToXML(w *xmlwire.Writer) {
	if u.ConflictResolution != "" {
		w.WriteAttributeString(xmlwire.AttrConflictResolution, string(u.ConflictResolution))
	}
	if u.MessageDisposition != "" {
		w.WriteAttributeString(xmlwire.AttrMessageDisposition, string(u.MessageDisposition))
	}
	if u.SuppressReadReceipts != nil {
		w.WriteAttributeValue(xmlwire.AttrSuppressReadReceipts, *u.SuppressReadReceipts)
	}
}

func (u *UpdateItem) WriteElementsToXML(w *xmlwire.Writer) {
	writeSavedItemFolderID(w, u.SavedItemFolderID)
	w.WriteStartElement(xmlwire.Messages, xmlwire.ItemChanges)
	for _, it := range u.Items {
		w.WriteStartElement(xmlwire.Types, xmlwire.ItemChange)
		complex.WriteToXML(w, xmlwire.Types, xmlwire.ItemId, it.ID())
		it.WriteUpdatesToXML(w)
		w.WriteEndElement()
	}
	w.WriteEndElement()
}

// Execute sends the changes.  Items updated successfully take the new
// change key and forget their changes.
func (u *UpdateItem) Execute(ctx context.Context) ([]*UpdateItemResponse, error) {
	responses, err := Execute[*UpdateItemResponse](ctx, &u.Request, u)
	if err != nil {
		return nil, err
	}
	for i, resp := range responses {
		if resp.Class == Error {
			continue
		}
		if resp.Item != nil {
			u.Items[i].UpdateID(resp.Item.ID())
		}
		u.Items[i].ClearChanges()
	}
	return responses, nil
}

// DeleteItem deletes items by id.
type DeleteItem struct {
	Request

	ItemIDs    []*complex.ItemId
	DeleteType DeleteMode

	// SuppressReadReceipts requires Exchange2013_SP1.
	SuppressReadReceipts *bool
}

func (d *DeleteItem) XMLElementName() string         { return xmlwire.DeleteItem }
func (d *DeleteItem) ResponseXMLElementName() string { return responseName(xmlwire.DeleteItem) }
func (d *DeleteItem) ResponseMessageXMLElementName() string {
	return responseMessageName(xmlwire.DeleteItem)
}
func (d *DeleteItem) MinimumRequiredServerVersion() version.Version { return version.Exchange2007SP1 }
func (d *DeleteItem) ExpectedResponseMessageCount() int             { return len(d.ItemIDs) }
func (d *DeleteItem) CreateServiceResponse(int) *ItemResponse       { return &ItemResponse{} }

func (d *DeleteItem) Validate(v version.Version) error {
	if err := validateItemIDs(d.ItemIDs); err != nil {
		return err
	}
	return requireSuppressReadReceipts(d.SuppressReadReceipts, v)
}

func (d *DeleteItem) WriteAttributesToXML(w *xmlwire.Writer) {
	w.WriteAttributeValue(xmlwire.AttrDeleteType, d.DeleteType)
	if d.SuppressReadReceipts != nil {
		w.WriteAttributeValue(xmlwire.AttrSuppressReadReceipts, *d.SuppressReadReceipts)
	}
}

func (d *DeleteItem) WriteElementsToXML(w *xmlwire.Writer) {
	writeItemIDs(w, d.ItemIDs)
}

func (d *DeleteItem) Execute(ctx context.Context) ([]*ItemResponse, error) {
	return Execute[*ItemResponse](ctx, &d.Request, d)
}
