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

package persist

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matta/gotews/internal/message"
)

func TestDSNFromPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/var/db/x.db", "file:///var/db/x.db?_busy_timeout=10"},
		{"file:/var/db/x.db?mode=ro", "file:/var/db/x.db?_busy_timeout=10&mode=ro"},
	}
	for _, tc := range cases {
		got, err := dsnFromPath(tc.path, url.Values{"_busy_timeout": {"10"}})
		if err != nil {
			t.Errorf("dsnFromPath(%q) failed: %v", tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("dsnFromPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func open(t *testing.T) (*DB, *Tx) {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "gotews.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	tx, err := db.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	t.Cleanup(func() { tx.Rollback() })
	return db, tx
}

func collect(t *testing.T, list func(context.Context, string, func(message.ID) error) error, folder string) []message.ID {
	t.Helper()
	var ids []message.ID
	if err := list(context.Background(), folder, func(id message.ID) error {
		ids = append(ids, id)
		return nil
	}); err != nil {
		t.Fatalf("listing %s failed: %v", folder, err)
	}
	return ids
}

func TestSyncState(t *testing.T) {
	ctx := context.Background()
	_, tx := open(t)

	if got, err := tx.SyncState(ctx, "inbox"); err != nil || got != "" {
		t.Errorf("SyncState() = %q, %v, want empty", got, err)
	}
	for _, s := range []string{"s1", "s2"} {
		if err := tx.WriteSyncState(ctx, "inbox", s); err != nil {
			t.Fatalf("WriteSyncState(%q) failed: %v", s, err)
		}
	}
	if got, err := tx.SyncState(ctx, "inbox"); err != nil || got != "s2" {
		t.Errorf("SyncState() = %q, %v, want s2", got, err)
	}
	if err := tx.WriteSyncState(ctx, "inbox", ""); err == nil {
		t.Error("WriteSyncState(\"\") = nil, want error")
	}
	if err := tx.ResetFolder(ctx, "inbox"); err != nil {
		t.Fatal(err)
	}
	if got, _ := tx.SyncState(ctx, "inbox"); got != "" {
		t.Errorf("SyncState() after reset = %q, want empty", got)
	}
}

func TestChangeLifecycle(t *testing.T) {
	ctx := context.Background()
	_, tx := open(t)

	changes := []*message.Change{
		{ID: message.ID{PermID: "A", ChangeKey: "a1"}},
		{ID: message.ID{PermID: "B", ChangeKey: "b1"}},
		{ID: message.ID{PermID: "C", ChangeKey: "c1"}},
	}
	for _, c := range changes {
		if err := tx.ApplyChange(ctx, "inbox", c); err != nil {
			t.Fatalf("ApplyChange(%v) failed: %v", c, err)
		}
	}
	want := []message.ID{{PermID: "A", ChangeKey: "a1"}, {PermID: "B", ChangeKey: "b1"}, {PermID: "C", ChangeKey: "c1"}}
	if diff := cmp.Diff(want, collect(t, tx.ListOutdated, "inbox")); diff != "" {
		t.Errorf("ListOutdated() mismatch (-want +got):\n%s", diff)
	}

	for _, id := range want[:2] {
		if err := tx.MarkFetched(ctx, &message.Header{ID: id, SizeEstimate: 100}); err != nil {
			t.Fatal(err)
		}
	}
	// A new version of A, a read flag change of B, and a deletion of C.
	for _, c := range []*message.Change{
		{ID: message.ID{PermID: "A", ChangeKey: "a2"}},
		{ID: message.ID{PermID: "B", ChangeKey: "b2"}, ReadFlagOnly: true},
		{ID: message.ID{PermID: "C"}, Deleted: true},
	} {
		if err := tx.ApplyChange(ctx, "inbox", c); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]message.ID{{PermID: "A", ChangeKey: "a2"}}, collect(t, tx.ListOutdated, "inbox")); diff != "" {
		t.Errorf("ListOutdated() after changes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]message.ID{{PermID: "C", ChangeKey: "c1"}}, collect(t, tx.ListDeleted, "inbox")); diff != "" {
		t.Errorf("ListDeleted() mismatch (-want +got):\n%s", diff)
	}
	if got := collect(t, tx.ListOutdated, "sentitems"); len(got) != 0 {
		t.Errorf("ListOutdated(sentitems) = %v, want none", got)
	}

	if err := tx.Forget(ctx, "C"); err != nil {
		t.Fatal(err)
	}
	if got := collect(t, tx.ListDeleted, "inbox"); len(got) != 0 {
		t.Errorf("ListDeleted() after Forget = %v, want none", got)
	}
}
