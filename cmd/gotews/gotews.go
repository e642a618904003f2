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
	"context"
	"net/http"

	"github.com/matta/gotews/internal/config"
	"github.com/matta/gotews/internal/ews"
	"github.com/matta/gotews/internal/ewshttp"
	"github.com/matta/gotews/internal/logging"
	"github.com/matta/gotews/internal/tracehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	conf    *config.Config
}

func (a *app) load() error {
	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return err
	}
	c, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logging.Initialize(&logging.Conf{Level: c.Log.Level, Format: c.Log.Format})
	a.conf = c
	return nil
}

func (a *app) session(ctx context.Context) (*ews.Session, error) {
	v, err := a.conf.ServerVersion()
	if err != nil {
		return nil, err
	}
	var base http.RoundTripper = http.DefaultTransport
	if a.conf.Trace {
		base = tracehttp.Wrap(base, log.StandardLogger())
	}
	client, err := ewshttp.New(ctx, &a.conf.Auth, base)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize EWS HTTP client")
	}
	s, err := ews.New(client, &ews.Config{
		Endpoint:  a.conf.Endpoint,
		Version:   v,
		Mailbox:   a.conf.Mailbox,
		RateLimit: a.conf.RateLimit,
		Burst:     a.conf.Burst,
		Retries:   a.conf.Retries,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize EWS session")
	}
	return s, nil
}

func bind(v *viper.Viper, key string, cmd *cobra.Command, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func rootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gotews",
		Short: "Work with an Exchange mailbox over Exchange Web Services",
		Long: `
gotews talks to an Exchange Web Services endpoint.  Its main job is
mirroring a folder into a notmuch database.

Settings are read from ~/.gotews.yaml and GOTEWS_* environment
variables.  The flags below take precedence over both.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.cfgFile, "config", "c", "", "configuration file (default "+config.DefaultFile()+")")
	f.BoolP("trace", "T", false, "request debug tracing")
	f.String("log-level", "", "log level: debug, info, warning or error")
	f.String("endpoint", "", "EWS endpoint URL")
	f.String("mailbox", "", "SMTP address of the mailbox")
	f.String("folder", "", "distinguished name or id of the folder")
	bind(a.v, "trace", root, "trace")
	bind(a.v, "log.level", root, "log-level")
	bind(a.v, "endpoint", root, "endpoint")
	bind(a.v, "mailbox", root, "mailbox")
	bind(a.v, "folder", root, "folder")

	root.AddCommand(syncCmd(a), findCmd(a), foldersCmd(a), serverCmd(a))
	return root
}

func main() {
	a := &app{v: config.New()}
	if err := rootCmd(a).ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Failed: %v", err)
	}
}
