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

package ews

import (
	"context"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/item"
	"github.com/matta/gotews/internal/message"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/request"
	"github.com/matta/gotews/internal/schema"
	"github.com/matta/gotews/internal/search"
	"github.com/matta/gotews/internal/sync"
	"github.com/matta/gotews/internal/view"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	_ item.AttachmentLoader = (*Session)(nil)
	_ sync.MessageStorage   = (*Session)(nil)
)

var distinguished = map[string]bool{
	complex.Inbox:         true,
	complex.SentItems:     true,
	complex.Drafts:        true,
	complex.DeletedItems:  true,
	complex.JunkEmail:     true,
	complex.Outbox:        true,
	complex.MsgFolderRoot: true,
	complex.Root:          true,
}

// FolderID returns the id of a well-known folder of the session's
// mailbox, or treats name as a folder id.
func (s *Session) FolderID(name string) *complex.FolderId {
	if distinguished[name] {
		return complex.DistinguishedFolderId(name, s.mailbox)
	}
	return &complex.FolderId{Id: name}
}

func (s *Session) newRequest(h request.ErrorHandling) request.Request {
	return request.Request{Service: s, ErrorHandling: h}
}

// GetItems loads the items with ids.  A nil ps loads the first class
// properties.
func (s *Session) GetItems(ctx context.Context, ids []*complex.ItemId, ps *propdef.PropertySet) ([]*item.Item, error) {
	req := &request.GetItem{Request: s.newRequest(request.ThrowOnError), ItemIDs: ids, PropertySet: ps}
	var responses []*request.ItemResponse
	err := s.do(ctx, req.XMLElementName(), func() (err error) {
		responses, err = req.Execute(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]*item.Item, len(responses))
	for i, r := range responses {
		items[i] = r.Item
	}
	return items, nil
}

// CreateItems saves new items in folder, or the server default folder
// when folder is nil.
func (s *Session) CreateItems(ctx context.Context, folder *complex.FolderId, d request.MessageDisposition, items ...*item.Item) error {
	req := &request.CreateItem{
		Request:            s.newRequest(request.ThrowOnError),
		Items:              items,
		SavedItemFolderID:  folder,
		MessageDisposition: d,
	}
	return s.do(ctx, req.XMLElementName(), func() error {
		_, err := req.Execute(ctx)
		return err
	})
}

// UpdateItems sends the recorded changes of items.
func (s *Session) UpdateItems(ctx context.Context, c request.ConflictResolution, items ...*item.Item) error {
	req := &request.UpdateItem{
		Request:            s.newRequest(request.ThrowOnError),
		Items:              items,
		ConflictResolution: c,
	}
	return s.do(ctx, req.XMLElementName(), func() error {
		_, err := req.Execute(ctx)
		return err
	})
}

// DeleteItems deletes the items with ids.
func (s *Session) DeleteItems(ctx context.Context, mode request.DeleteMode, ids ...*complex.ItemId) error {
	req := &request.DeleteItem{Request: s.newRequest(request.ThrowOnError), ItemIDs: ids, DeleteType: mode}
	return s.do(ctx, req.XMLElementName(), func() error {
		_, err := req.Execute(ctx)
		return err
	})
}

// FindItems searches folder.  filter may be nil.
func (s *Session) FindItems(ctx context.Context, folder *complex.FolderId, v view.View, filter search.Filter) (*request.FindItemResponse, error) {
	req := &request.FindItem{
		Request:         s.newRequest(request.ThrowOnError),
		ParentFolderIDs: []*complex.FolderId{folder},
		View:            v,
		Filter:          filter,
	}
	var responses []*request.FindItemResponse
	err := s.do(ctx, req.XMLElementName(), func() (err error) {
		responses, err = req.Execute(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

// FindFolders lists the folders below parent.
func (s *Session) FindFolders(ctx context.Context, parent *complex.FolderId, v *view.FolderView) (*request.FindFolderResponse, error) {
	req := &request.FindFolder{
		Request:         s.newRequest(request.ThrowOnError),
		ParentFolderIDs: []*complex.FolderId{parent},
		View:            v,
	}
	var responses []*request.FindFolderResponse
	err := s.do(ctx, req.XMLElementName(), func() (err error) {
		responses, err = req.Execute(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

// SyncFolderItems returns the batch of changes to folder following
// state.
func (s *Session) SyncFolderItems(ctx context.Context, folder *complex.FolderId, state string, max int) (*request.SyncFolderItemsResponse, error) {
	req := &request.SyncFolderItems{
		Request:            s.newRequest(request.ThrowOnError),
		SyncFolderID:       folder,
		SyncState:          state,
		MaxChangesReturned: max,
	}
	var resp *request.SyncFolderItemsResponse
	err := s.do(ctx, req.XMLElementName(), func() (err error) {
		resp, err = req.Execute(ctx)
		return err
	})
	return resp, err
}

// LoadAttachments loads the content of saved attachments.
func (s *Session) LoadAttachments(ctx context.Context, attachments ...*item.Attachment) error {
	req := &request.GetAttachment{Request: s.newRequest(request.ThrowOnError), Attachments: attachments}
	return s.do(ctx, req.XMLElementName(), func() error {
		_, err := req.Execute(ctx)
		return err
	})
}

// ListChanges lists one batch of changes to folder.
func (s *Session) ListChanges(ctx context.Context, folder, state string, handler func(*message.Change) error) (string, bool, error) {
	resp, err := s.SyncFolderItems(ctx, s.FolderID(folder), state, request.MaxSyncChanges)
	if err != nil {
		return "", false, err
	}
	for _, c := range resp.Changes {
		id := c.ItemID
		if id == nil && c.Item != nil {
			id = c.Item.ID()
		}
		if id == nil {
			return "", false, ewserr.Protocol("%v change without an item id", c.Type)
		}
		mc := &message.Change{ID: message.ID{PermID: id.Id, ChangeKey: id.ChangeKey}}
		switch c.Type {
		case request.ChangeDelete:
			mc.Deleted = true
		case request.ChangeReadFlag:
			mc.ReadFlagOnly = true
		}
		if err := handler(mc); err != nil {
			return "", false, err
		}
	}
	return resp.SyncState, resp.MoreChangesAvailable, nil
}

// GetMessages loads the MIME content of the items with ids.
func (s *Session) GetMessages(ctx context.Context, ids []string) ([]*message.Body, error) {
	itemIDs := make([]*complex.ItemId, len(ids))
	for i, id := range ids {
		itemIDs[i] = &complex.ItemId{Id: id}
	}
	req := &request.GetItem{
		Request:     s.newRequest(request.ReturnErrors),
		ItemIDs:     itemIDs,
		PropertySet: propdef.NewPropertySet(propdef.IdOnly, schema.MimeContent, schema.Size, schema.InternetMessageId),
	}
	var responses []*request.ItemResponse
	err := s.do(ctx, req.XMLElementName(), func() (err error) {
		responses, err = req.Execute(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var bodies []*message.Body
	for i, r := range responses {
		if r.Err != nil {
			if r.Code == ewserr.ErrorItemNotFound {
				log.WithField("id", ids[i]).Warn("message not found")
				continue
			}
			return nil, errors.Wrapf(r.Err, "getting message %v", ids[i])
		}
		if r.Item == nil || r.Item.ID() == nil {
			continue
		}
		id := r.Item.ID()
		bodies = append(bodies, &message.Body{
			Header: message.Header{
				ID:                message.ID{PermID: id.Id, ChangeKey: id.ChangeKey},
				SizeEstimate:      int64(r.Item.Size()),
				InternetMessageID: r.Item.InternetMessageID(),
			},
			Raw: string(r.Item.MimeContent()),
		})
	}
	return bodies, nil
}

// GetProfile describes the mailbox.  The server build is learned from
// a folder listing when no response reported it yet.
func (s *Session) GetProfile(ctx context.Context) (*message.Profile, error) {
	if s.ServerInfo() == nil {
		v, err := view.NewFolderView(1)
		if err != nil {
			return nil, err
		}
		if _, err := s.FindFolders(ctx, s.FolderID(complex.MsgFolderRoot), v); err != nil {
			return nil, errors.Wrap(err, "getting the server version")
		}
	}
	p := &message.Profile{EmailAddress: s.mailbox}
	if info := s.ServerInfo(); info != nil {
		p.ServerVersion = info.String()
	}
	return p, nil
}
