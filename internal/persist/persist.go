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
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matta/gotews/internal/message"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
)

var (
	createTableSql = []string{
		// The ews_messages table holds state for each item seen in a
		// mirrored folder.
		//
		// Field: message_id
		//
		//   EWS: ItemId "Id" attribute, returned by SyncFolderItems
		//   and GetItem.
		//
		// Field: folder
		//
		//   The folder the item was listed in, as configured
		//   (distinguished name or folder id).
		//
		// Field: change_key
		//
		//   EWS: ItemId "ChangeKey" attribute of the newest version
		//   reported by SyncFolderItems.
		//
		// Field: fetched_change_key
		//
		//   The change key of the version whose content was last
		//   stored.  NULL until the content has been fetched.  The
		//   item is outdated while it differs from change_key.
		//
		// Field: size_estimate
		//
		//   EWS: item:Size of the fetched version.
		//
		// Field: deleted
		//
		//   Set when SyncFolderItems reports the item deleted.  The
		//   row is removed once the stored content is gone.
		`
CREATE TABLE IF NOT EXISTS ews_messages (
message_id TEXT NOT NULL PRIMARY KEY,
folder TEXT NOT NULL,
change_key TEXT NOT NULL,
fetched_change_key TEXT,
size_estimate INTEGER,
deleted INTEGER NOT NULL DEFAULT 0
);`,
		// The ews_sync_state table holds the SyncFolderItems state
		// after the last batch committed for each folder.
		//
		// Notes:
		//
		// The state is opaque and only meaningful to the server
		// that issued it.  It is written in the same transaction as
		// the changes of its batch.
		`
CREATE TABLE IF NOT EXISTS ews_sync_state (
folder TEXT NOT NULL PRIMARY KEY,
sync_state TEXT NOT NULL,
updated INTEGER NOT NULL
);`,
	}
)

type DB struct {
	db *sql.DB
}

type Tx struct {
	tx *sql.Tx
}

func dsnFromPath(path string, addValues url.Values) (string, error) {
	var u *url.URL
	if !strings.HasPrefix(path, "file:") {
		u = &url.URL{Scheme: "file", Path: path}
	} else {
		var err error
		u, err = url.Parse(path)
		if err != nil {
			return "", err
		}
	}
	values := u.Query()
	for k, v := range addValues {
		for _, item := range v {
			values.Add(k, item)
		}
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func Open(ctx context.Context, path string) (*DB, error) {
	// The _busy_timeout is a SQLite extension that controls how
	// long SQLite will poll before giving up.  The default of 5
	// seconds is too short in practice, especially in slower
	// debug builds; go with 5 minutes.
	var busyTimeout = int(5*time.Minute) / int(time.Millisecond)

	dsn, err := dsnFromPath(path, url.Values{
		"_busy_timeout": {fmt.Sprintf("%d", busyTimeout)}})
	if err != nil {
		return nil, errors.Wrapf(err,
			"Open(%q) failed: could not form a DB DSN from "+
				"the given path",
			path)
	}
	log.WithField("dsn", dsn).Debug("opening database")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err,
			"Open(%q) failed: could not open database at %q",
			path, dsn)
	}

	if err = initSchema(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrapf(err,
			"Open(%q) failed: could not initialize the "+
				"database schema", path)
	}

	return &DB{db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction failed")
	}
	return &Tx{tx}, nil
}

func (tx *Tx) Commit() error {
	return tx.tx.Commit()
}

func (tx *Tx) Rollback() error {
	return tx.tx.Rollback()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	for _, sql := range createTableSql {
		log.WithField("sql", sql).Debug("SQL Exec")
		if _, err := db.ExecContext(ctx, sql); err != nil {
			return errors.Wrapf(err, "while executing %q", sql)
		}
	}

	return nil
}

// SyncState returns the state stored for folder, or "" before the
// first synchronization.
func (tx *Tx) SyncState(ctx context.Context, folder string) (string, error) {
	const q = `SELECT sync_state FROM ews_sync_state WHERE folder = $1`
	var state string
	if err := tx.tx.QueryRowContext(ctx, q, folder).Scan(&state); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", errors.Wrap(err, "db query failed in SyncState")
	}
	return state, nil
}

// WriteSyncState records the state following the changes written in
// this transaction.
func (tx *Tx) WriteSyncState(ctx context.Context, folder, state string) error {
	if state == "" {
		return errors.New("attempt to store an empty sync state")
	}
	const q = `INSERT INTO ews_sync_state (folder, sync_state, updated) VALUES ($1, $2, $3)
		ON CONFLICT (folder) DO UPDATE SET sync_state = excluded.sync_state, updated = excluded.updated`
	if _, err := tx.tx.ExecContext(ctx, q, folder, state, time.Now().Unix()); err != nil {
		return errors.Wrap(err, "db upsert failed in WriteSyncState")
	}
	return nil
}

// ResetFolder forgets the sync state of folder, so the next
// synchronization starts over.  Stored content is kept; items whose
// change key is unchanged are not fetched again.
func (tx *Tx) ResetFolder(ctx context.Context, folder string) error {
	if _, err := tx.tx.ExecContext(ctx, `DELETE FROM ews_sync_state WHERE folder = $1`, folder); err != nil {
		return errors.Wrap(err, "db delete failed in ResetFolder")
	}
	return nil
}

// ApplyChange records one change reported for folder.
func (tx *Tx) ApplyChange(ctx context.Context, folder string, c *message.Change) error {
	switch {
	case c.Deleted:
		const q = `UPDATE ews_messages SET deleted = 1 WHERE message_id = $1`
		if _, err := tx.tx.ExecContext(ctx, q, c.PermID); err != nil {
			return errors.Wrap(err, "db update failed in ApplyChange")
		}
	case c.ReadFlagOnly:
		// The stored content does not carry the read flag.
	default:
		const q = `INSERT INTO ews_messages (message_id, folder, change_key) VALUES ($1, $2, $3)
			ON CONFLICT (message_id) DO UPDATE SET folder = excluded.folder,
			change_key = excluded.change_key, deleted = 0`
		if _, err := tx.tx.ExecContext(ctx, q, c.PermID, folder, c.ChangeKey); err != nil {
			return errors.Wrap(err, "db upsert failed in ApplyChange")
		}
	}
	return nil
}

// ListOutdated calls handler for each live item of folder whose newest
// version has not been fetched.
func (tx *Tx) ListOutdated(ctx context.Context, folder string, handler func(message.ID) error) error {
	const q = `
SELECT message_id, change_key
FROM ews_messages
WHERE folder = $1 AND deleted = 0
AND (fetched_change_key IS NULL OR fetched_change_key != change_key)
ORDER BY message_id
`
	return tx.list(ctx, "ListOutdated", q, folder, handler)
}

// ListDeleted calls handler for each item of folder reported deleted.
func (tx *Tx) ListDeleted(ctx context.Context, folder string, handler func(message.ID) error) error {
	const q = `
SELECT message_id, change_key
FROM ews_messages
WHERE folder = $1 AND deleted = 1
ORDER BY message_id
`
	return tx.list(ctx, "ListDeleted", q, folder, handler)
}

func (tx *Tx) list(ctx context.Context, name, q, folder string, handler func(message.ID) error) error {
	rows, err := tx.tx.QueryContext(ctx, q, folder)
	if err != nil {
		return errors.Wrapf(err, "db query failed in %s", name)
	}
	// Collect first so handler may write through the same
	// transaction.
	var ids []message.ID
	for rows.Next() {
		var id message.ID
		if err := rows.Scan(&id.PermID, &id.ChangeKey); err != nil {
			rows.Close()
			return errors.Wrapf(err, "db scan failed in %s", name)
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return errors.Wrapf(err, "db iteration failed in %s", name)
	}
	for _, id := range ids {
		if err := handler(id); err != nil {
			return err
		}
	}
	return nil
}

// MarkFetched records that the content of hdr's version is stored.
func (tx *Tx) MarkFetched(ctx context.Context, hdr *message.Header) error {
	const q = `UPDATE ews_messages SET fetched_change_key = $1, size_estimate = $2 WHERE message_id = $3`
	if _, err := tx.tx.ExecContext(ctx, q, hdr.ChangeKey, hdr.SizeEstimate, hdr.PermID); err != nil {
		return errors.Wrap(err, "db update failed in MarkFetched")
	}
	return nil
}

// Forget removes the row of an item whose content has been removed.
func (tx *Tx) Forget(ctx context.Context, id string) error {
	if _, err := tx.tx.ExecContext(ctx, `DELETE FROM ews_messages WHERE message_id = $1`, id); err != nil {
		return errors.Wrap(err, "db delete failed in Forget")
	}
	return nil
}
