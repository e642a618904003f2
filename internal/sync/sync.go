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

	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/message"
	"github.com/matta/gotews/internal/persist"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MessageSink stores message content, such as a notmuch maildir.
type MessageSink interface {
	Insert(ctx context.Context, msg *message.Body) error
	Remove(id string) error
}

// Options configures one synchronization.
type Options struct {
	// Folder is the distinguished name or id of the mirrored folder.
	Folder string

	// BatchSize is the number of messages fetched per request.
	BatchSize int

	// Concurrency is the number of fetch requests in flight.
	Concurrency int
}

func isInvalidSyncState(err error) bool {
	e, ok := ewserr.As(err)
	return ok && e.Code == ewserr.ErrorInvalidSyncStateData
}

// pullBatch records one batch of changes and the state following it.
// It returns whether more batches remain, and whether the stored state
// was rejected and dropped instead.
func pullBatch(ctx context.Context, g ChangeLister, db *persist.DB, folder string) (more, reset bool, err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return false, false, err
	}
	defer tx.Rollback()

	state, err := tx.SyncState(ctx, folder)
	if err != nil {
		return false, false, err
	}
	count := 0
	next, more, err := g.ListChanges(ctx, folder, state, func(c *message.Change) error {
		count++
		return tx.ApplyChange(ctx, folder, c)
	})
	if err != nil {
		if state == "" || !isInvalidSyncState(err) {
			return false, false, errors.Wrap(err, "unable to list changes")
		}
		log.WithField("folder", folder).Warn("sync state rejected by the server; starting over")
		// Changes applied before the failure are rolled back.
		tx.Rollback()
		tx, err = db.Begin(ctx)
		if err != nil {
			return false, false, err
		}
		defer tx.Rollback()
		if err := tx.ResetFolder(ctx, folder); err != nil {
			return false, false, err
		}
		return true, true, tx.Commit()
	}
	if err := tx.WriteSyncState(ctx, folder, next); err != nil {
		return false, false, err
	}
	log.WithFields(log.Fields{"folder": folder, "changes": count, "more": more}).Info("listed changes")
	return more, false, tx.Commit()
}

func pullList(ctx context.Context, g ChangeLister, db *persist.DB, folder string) error {
	wasReset := false
	for {
		more, reset, err := pullBatch(ctx, g, db, folder)
		if err != nil {
			return err
		}
		if reset {
			if wasReset {
				return errors.New("sync state rejected twice")
			}
			wasReset = true
		}
		if !more {
			return nil
		}
	}
}

// batch groups ids into slices of at most size.
func batch(ctx context.Context, ids <-chan string, size int, out chan<- []string) error {
	defer close(out)
	var b []string
	send := func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- b:
			b = nil
			return nil
		}
	}
	for id := range ids {
		b = append(b, id)
		if len(b) == size {
			if err := send(); err != nil {
				return err
			}
		}
	}
	if len(b) > 0 {
		return send()
	}
	return nil
}

func pullDownload(ctx context.Context, g MessageGetter, db *persist.DB, sink MessageSink, opts *Options) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	grp, ctx := errgroup.WithContext(ctx)
	ids := make(chan string)
	batches := make(chan []string)
	bodies := make(chan *message.Body)

	grp.Go(func() error {
		defer close(ids)
		return tx.ListOutdated(ctx, opts.Folder, func(id message.ID) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ids <- id.PermID:
				return nil
			}
		})
	})
	grp.Go(func() error {
		return batch(ctx, ids, opts.BatchSize, batches)
	})

	fetchers, fctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.Concurrency; i++ {
		fetchers.Go(func() error {
			for b := range batches {
				msgs, err := g.GetMessages(fctx, b)
				if err != nil {
					return errors.Wrap(err, "unable to fetch messages")
				}
				for _, m := range msgs {
					select {
					case <-fctx.Done():
						return fctx.Err()
					case bodies <- m:
					}
				}
			}
			return nil
		})
	}
	grp.Go(func() error {
		defer close(bodies)
		return fetchers.Wait()
	})

	// Only this goroutine writes to the transaction.
	stored := 0
	grp.Go(func() error {
		for m := range bodies {
			if err := sink.Insert(ctx, m); err != nil {
				return errors.Wrapf(err, "failed storing message %v", m.PermID)
			}
			if err := tx.MarkFetched(ctx, &m.Header); err != nil {
				return err
			}
			stored++
		}
		return nil
	})

	if err := grp.Wait(); err != nil {
		return errors.Wrap(err, "unable to pull outdated messages")
	}
	log.WithFields(log.Fields{"folder": opts.Folder, "stored": stored}).Info("stored messages")
	return tx.Commit()
}

func pullDeletions(ctx context.Context, db *persist.DB, sink MessageSink, folder string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	removed := 0
	err = tx.ListDeleted(ctx, folder, func(id message.ID) error {
		if err := sink.Remove(id.PermID); err != nil {
			return err
		}
		removed++
		return tx.Forget(ctx, id.PermID)
	})
	if err != nil {
		return errors.Wrap(err, "unable to remove deleted messages")
	}
	log.WithFields(log.Fields{"folder": folder, "removed": removed}).Info("removed messages")
	return tx.Commit()
}

// Sync mirrors the messages of opts.Folder into sink.
func Sync(ctx context.Context, g MessageStorage, db *persist.DB, sink MessageSink, opts *Options) error {
	if opts.BatchSize <= 0 || opts.Concurrency <= 0 {
		return errors.Errorf("invalid sync options %+v", *opts)
	}
	profile, err := g.GetProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to sync")
	}
	log.WithFields(log.Fields{
		"mailbox": profile.EmailAddress,
		"server":  profile.ServerVersion,
		"folder":  opts.Folder,
	}).Info("pulling list of changes")
	if err := pullList(ctx, g, db, opts.Folder); err != nil {
		return errors.Wrap(err, "failed to sync")
	}
	log.Info("pulling messages")
	if err := pullDownload(ctx, g, db, sink, opts); err != nil {
		return errors.Wrap(err, "failed to sync")
	}
	if err := pullDeletions(ctx, db, sink, opts.Folder); err != nil {
		return errors.Wrap(err, "failed to sync")
	}
	return nil
}
