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

import (
	"context"
	"path/filepath"
	"sort"
	gosync "sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/message"
	"github.com/matta/gotews/internal/persist"
)

type batchResult struct {
	changes []*message.Change
	next    string
	more    bool
	err     error
}

type fakeMailbox struct {
	mu       gosync.Mutex
	batches  map[string]batchResult
	contents map[string]string // id -> change key
	fetched  [][]string
}

func (f *fakeMailbox) ListChanges(ctx context.Context, folder, state string, handler func(*message.Change) error) (string, bool, error) {
	b, ok := f.batches[state]
	if !ok {
		return "", false, &ewserr.Error{Kind: ewserr.KindServiceResponse, Code: ewserr.ErrorInvalidSyncStateData, Index: 0}
	}
	if b.err != nil {
		return "", false, b.err
	}
	for _, c := range b.changes {
		if err := handler(c); err != nil {
			return "", false, err
		}
	}
	return b.next, b.more, nil
}

func (f *fakeMailbox) GetMessages(ctx context.Context, ids []string) ([]*message.Body, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, append([]string(nil), ids...))
	var out []*message.Body
	for _, id := range ids {
		ck, ok := f.contents[id]
		if !ok {
			continue
		}
		out = append(out, &message.Body{
			Header: message.Header{ID: message.ID{PermID: id, ChangeKey: ck}, SizeEstimate: 10},
			Raw:    "From: a@example.com\r\n\r\n" + id + ck + "\r\n",
		})
	}
	return out, nil
}

func (f *fakeMailbox) GetProfile(ctx context.Context) (*message.Profile, error) {
	return &message.Profile{EmailAddress: "user@example.com", ServerVersion: "15.01.2044.004"}, nil
}

type fakeSink struct {
	mu       gosync.Mutex
	stored   map[string]string
	inserted []string
	removed  []string
}

func (s *fakeSink) Insert(ctx context.Context, msg *message.Body) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		s.stored = make(map[string]string)
	}
	s.stored[msg.PermID] = msg.Raw
	s.inserted = append(s.inserted, msg.PermID+"@"+msg.ChangeKey)
	return nil
}

func (s *fakeSink) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stored, id)
	s.removed = append(s.removed, id)
	return nil
}

func (s *fakeSink) takeInserted() []string {
	got := s.inserted
	s.inserted = nil
	sort.Strings(got)
	return got
}

func change(id, ck string) *message.Change {
	return &message.Change{ID: message.ID{PermID: id, ChangeKey: ck}}
}

func openDB(t *testing.T) *persist.DB {
	t.Helper()
	db, err := persist.Open(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("persist.Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSyncIncremental(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	mb := &fakeMailbox{
		batches: map[string]batchResult{
			"":   {changes: []*message.Change{change("A", "a1"), change("B", "b1")}, next: "s1", more: true},
			"s1": {changes: []*message.Change{change("C", "c1")}, next: "s2"},
		},
		contents: map[string]string{"A": "a1", "B": "b1", "C": "c1"},
	}
	sink := &fakeSink{}
	opts := &Options{Folder: "inbox", BatchSize: 2, Concurrency: 2}

	if err := Sync(ctx, mb, db, sink, opts); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"A@a1", "B@b1", "C@c1"}, sink.takeInserted()); diff != "" {
		t.Errorf("first Sync() inserted mismatch (-want +got):\n%s", diff)
	}
	for _, b := range mb.fetched {
		if len(b) > opts.BatchSize {
			t.Errorf("GetMessages(%v) exceeds batch size %d", b, opts.BatchSize)
		}
	}

	// A changes, B is deleted, C only has its read flag changed.
	mb.batches["s2"] = batchResult{
		changes: []*message.Change{
			change("A", "a2"),
			{ID: message.ID{PermID: "B"}, Deleted: true},
			{ID: message.ID{PermID: "C", ChangeKey: "c2"}, ReadFlagOnly: true},
		},
		next: "s3",
	}
	mb.contents["A"] = "a2"
	mb.batches["s3"] = batchResult{next: "s3"}

	if err := Sync(ctx, mb, db, sink, opts); err != nil {
		t.Fatalf("second Sync() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"A@a2"}, sink.takeInserted()); diff != "" {
		t.Errorf("second Sync() inserted mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B"}, sink.removed); diff != "" {
		t.Errorf("second Sync() removed mismatch (-want +got):\n%s", diff)
	}

	// Nothing changed.
	if err := Sync(ctx, mb, db, sink, opts); err != nil {
		t.Fatalf("third Sync() failed: %v", err)
	}
	if got := sink.takeInserted(); len(got) != 0 {
		t.Errorf("third Sync() inserted %v, want nothing", got)
	}
}

func TestSyncRecoversFromInvalidState(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	tx, err := db.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.WriteSyncState(ctx, "inbox", "expired"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	mb := &fakeMailbox{
		batches:  map[string]batchResult{"": {changes: []*message.Change{change("A", "a1")}, next: "s1"}},
		contents: map[string]string{"A": "a1"},
	}
	sink := &fakeSink{}
	if err := Sync(ctx, mb, db, sink, &Options{Folder: "inbox", BatchSize: 10, Concurrency: 1}); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"A@a1"}, sink.takeInserted()); diff != "" {
		t.Errorf("Sync() inserted mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncOptions(t *testing.T) {
	db := openDB(t)
	err := Sync(context.Background(), &fakeMailbox{}, db, &fakeSink{}, &Options{Folder: "inbox"})
	if err == nil {
		t.Error("Sync() with zero batch size = nil, want error")
	}
}

func TestBatch(t *testing.T) {
	ids := make(chan string)
	out := make(chan []string)
	go func() {
		for _, id := range []string{"1", "2", "3", "4", "5"} {
			ids <- id
		}
		close(ids)
	}()
	errc := make(chan error, 1)
	go func() { errc <- batch(context.Background(), ids, 2, out) }()
	var got [][]string
	for b := range out {
		got = append(got, b)
	}
	if err := <-errc; err != nil {
		t.Fatalf("batch() = %v", err)
	}
	want := [][]string{{"1", "2"}, {"3", "4"}, {"5"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("batch() mismatch (-want +got):\n%s", diff)
	}
}
