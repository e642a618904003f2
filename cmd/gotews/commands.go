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

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/notmuch"
	"github.com/matta/gotews/internal/persist"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/schema"
	"github.com/matta/gotews/internal/search"
	"github.com/matta/gotews/internal/sync"
	"github.com/matta/gotews/internal/view"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// defaultScope names the notmuch subdirectory when no mailbox is
// configured.
const defaultScope = "me"

func syncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror the folder into the notmuch database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root, err := notmuch.DatabasePath(ctx)
			if err != nil {
				return errors.Wrap(err, "unable to find the notmuch database")
			}
			scope := a.conf.Mailbox
			if scope == "" {
				scope = defaultScope
			}
			nm, err := notmuch.New(root, scope)
			if err != nil {
				return errors.Wrap(err, "unable to initialize notmuch")
			}

			db, err := persist.Open(ctx, a.conf.Database)
			if err != nil {
				return errors.Wrap(err, "unable to initialize database")
			}
			defer db.Close()

			s, err := a.session(ctx)
			if err != nil {
				return err
			}
			err = sync.Sync(ctx, s, db, nm, &sync.Options{
				Folder:      a.conf.Folder,
				BatchSize:   a.conf.BatchSize,
				Concurrency: a.conf.Concurrency,
			})
			if err != nil {
				return errors.Wrap(err, "unable to synchronize")
			}
			log.Info("sync complete")
			return nil
		},
	}
}

func findCmd(a *app) *cobra.Command {
	var (
		subject  string
		pageSize int
		offset   int
	)
	cmd := &cobra.Command{
		Use:   "find",
		Short: "List the newest items of the folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.session(ctx)
			if err != nil {
				return err
			}
			v, err := view.NewItemView(pageSize)
			if err != nil {
				return err
			}
			if err := v.SetOffset(offset); err != nil {
				return err
			}
			v.PropertySet = propdef.NewPropertySet(propdef.IdOnly, schema.Subject, schema.DateTimeReceived)
			if err := v.OrderBy().Add(schema.DateTimeReceived, view.Descending); err != nil {
				return err
			}
			var filter search.Filter
			if subject != "" {
				filter = search.Contains(schema.Subject, subject)
			}

			resp, err := s.FindItems(ctx, s.FolderID(a.conf.Folder), v, filter)
			if err != nil {
				return errors.Wrap(err, "unable to find items")
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			for _, it := range resp.Items {
				received := ""
				if t, ok := it.DateTimeReceived(); ok {
					received = t.Local().Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", received, it.Subject(), it.ID())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if resp.MoreAvailable {
				fmt.Fprintf(cmd.ErrOrStderr(), "more items follow; next offset %d of %d\n", resp.NextOffset, resp.TotalItemsInView)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "only items whose subject contains this text")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "number of items listed")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of items skipped")
	return cmd
}

func foldersCmd(a *app) *cobra.Command {
	var deep bool
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List the mail folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.session(ctx)
			if err != nil {
				return err
			}
			v, err := view.NewFolderView(1000)
			if err != nil {
				return err
			}
			if deep {
				v.Traversal = view.FolderDeep
			}
			resp, err := s.FindFolders(ctx, s.FolderID(complex.MsgFolderRoot), v)
			if err != nil {
				return errors.Wrap(err, "unable to list folders")
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(tw, "NAME\tTOTAL\tUNREAD\tID\n")
			for _, f := range resp.Folders {
				id := ""
				if f.ID() != nil {
					id = f.ID().Id
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", f.DisplayName(), f.TotalCount(), f.UnreadCount(), id)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&deep, "deep", false, "include folders at every depth")
	return cmd
}

func serverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Report the mailbox and the server build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.session(ctx)
			if err != nil {
				return err
			}
			p, err := s.GetProfile(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mailbox:   %s\n", p.EmailAddress)
			fmt.Fprintf(out, "requested: %s\n", s.RequestedServerVersion())
			fmt.Fprintf(out, "server:    %s\n", p.ServerVersion)
			if info := s.ServerInfo(); info != nil && info.VersionString != "" {
				fmt.Fprintf(out, "schema:    %s\n", info.VersionString)
			}
			return nil
		},
	}
}
