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

package sync

// This file provides the interfaces the mirror needs from a mailbox.

import (
	"context"

	"github.com/matta/gotews/internal/message"
)

// ChangeLister lists the changes to a folder since a synchronization
// state.  An empty state lists every item as created.
type ChangeLister interface {
	// ListChanges calls handler for each change in one batch and
	// returns the state following the batch, and whether more
	// batches remain.
	ListChanges(ctx context.Context, folder, state string, handler func(*message.Change) error) (next string, more bool, err error)
}

// MessageGetter gets the full content of messages.
type MessageGetter interface {
	// GetMessages returns the messages with the given ids.  Ids of
	// items that no longer exist are left out of the result.
	GetMessages(ctx context.Context, ids []string) ([]*message.Body, error)
}

// MessageProfiler gets per account metadata from a mailbox.
type MessageProfiler interface {
	GetProfile(ctx context.Context) (*message.Profile, error)
}

// MessageStorage provides all possible actions available to deal with
// message storage.
type MessageStorage interface {
	ChangeLister
	MessageGetter
	MessageProfiler
}
