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

// Package config loads the gotews configuration from a file, the
// environment, and command line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/version"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read, so the endpoint
// is read from GOTEWS_ENDPOINT and the token from GOTEWS_AUTH_TOKEN.
const EnvPrefix = "GOTEWS"

// Auth selects how requests are authenticated.  Exactly one source is
// used, in the order Token, TokenCommand, client credentials.
type Auth struct {
	Token        string   `mapstructure:"token"`
	TokenCommand string   `mapstructure:"token_command"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	TokenURL     string   `mapstructure:"token_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// Log configures logging.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	// Endpoint is the EWS URL, such as
	// https://outlook.office365.com/EWS/Exchange.asmx.
	Endpoint string `mapstructure:"endpoint"`

	// Version is the requested server version, such as
	// "Exchange2013_SP1".
	Version string `mapstructure:"version"`

	// Mailbox is the SMTP address of the mailbox to use.  Empty uses
	// the authenticated user's own.
	Mailbox string `mapstructure:"mailbox"`

	// Folder is the distinguished name or id of the folder to mirror.
	Folder string `mapstructure:"folder"`

	// Database is the path of the SQLite mirror state.
	Database string `mapstructure:"database"`

	Auth Auth `mapstructure:"auth"`

	// RateLimit is the number of requests per second; Burst is the
	// number that may be sent at once.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`

	// Retries is how often a request rejected by a busy server is
	// retried.
	Retries int `mapstructure:"retries"`

	// BatchSize is the number of items fetched per request, and
	// Concurrency the number of fetch requests in flight.
	BatchSize   int `mapstructure:"batch_size"`
	Concurrency int `mapstructure:"concurrency"`

	Log Log `mapstructure:"log"`

	// Trace dumps every HTTP exchange at debug level.
	Trace bool `mapstructure:"trace"`
}

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}

// DefaultFile is the configuration file read when none is named.
func DefaultFile() string {
	return filepath.Join(homeDir(), ".gotews.yaml")
}

// SetDefaults registers the default of every key in v.
//
// Keys without a useful default are registered empty so that
// Unmarshal sees their environment variables.
func SetDefaults(v *viper.Viper) {
	for _, k := range []string{
		"endpoint", "mailbox",
		"auth.token", "auth.token_command", "auth.client_id", "auth.client_secret", "auth.token_url",
	} {
		v.SetDefault(k, "")
	}
	v.SetDefault("version", version.Latest.String())
	v.SetDefault("folder", complex.Inbox)
	v.SetDefault("database", filepath.Join(homeDir(), ".gotews.db"))
	v.SetDefault("auth.scopes", []string{"https://outlook.office365.com/.default"})
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("burst", 10)
	v.SetDefault("retries", 3)
	v.SetDefault("batch_size", 50)
	v.SetDefault("concurrency", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("trace", false)
}

// New returns a viper instance with defaults set and the environment
// bound.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile reads path into v.  A missing file is not an error when
// path is the default file.
func ReadFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile()
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !explicit && os.IsNotExist(errors.Cause(err)) {
			return nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && !explicit {
			return nil
		}
		return errors.Wrapf(err, "reading configuration %s", path)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ServerVersion returns the parsed Version.
func (c *Config) ServerVersion() (version.Version, error) {
	return version.Parse(c.Version)
}

// Validate rejects configurations no command can run with.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("config: endpoint is required")
	}
	if _, err := c.ServerVersion(); err != nil {
		return errors.Wrap(err, "config: version")
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("config: batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Concurrency <= 0 {
		return errors.Errorf("config: concurrency must be positive, got %d", c.Concurrency)
	}
	if c.RateLimit <= 0 {
		return errors.Errorf("config: rate_limit must be positive, got %v", c.RateLimit)
	}
	if c.Retries < 0 {
		return errors.Errorf("config: retries must not be negative, got %d", c.Retries)
	}
	a := c.Auth
	if a.Token == "" && a.TokenCommand == "" && (a.ClientID == "" || a.ClientSecret == "" || a.TokenURL == "") {
		return errors.New("config: auth needs a token, a token_command, or client_id, client_secret and token_url")
	}
	return nil
}
