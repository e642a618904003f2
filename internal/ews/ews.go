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

// Package ews posts request envelopes to an Exchange Web Services
// endpoint.  A Session is the request.Service every request runs on.
package ews

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/request"
	"github.com/matta/gotews/internal/version"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	soapActionPrefix = "http://schemas.microsoft.com/exchange/services/2006/messages/"

	// DefaultBackOff is the wait before retrying a busy server that
	// did not suggest one.
	DefaultBackOff = 5 * time.Second
)

// Config configures a Session.
type Config struct {
	Endpoint string
	Version  version.Version

	// Mailbox is the SMTP address of the mailbox worked on.  It
	// anchors requests and qualifies distinguished folders.
	Mailbox string

	// RateLimit is the number of requests per second.  Burst requests
	// may be sent at once.
	RateLimit float64
	Burst     int

	// Retries is how often a request rejected with a server busy
	// error is sent again.
	Retries int
}

// Session is a connection to one EWS endpoint.  It is safe for
// concurrent use.
type Session struct {
	client   *http.Client
	endpoint string
	version  version.Version
	mailbox  string
	limiter  *rate.Limiter
	retries  int

	// sleep waits out a back-off.  Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	mu   sync.Mutex
	info *version.ServerInfo
}

var _ request.Service = (*Session)(nil)

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// New returns a session posting to c.Endpoint with client, which is
// expected to authenticate the requests.
func New(client *http.Client, c *Config) (*Session, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid endpoint %q", c.Endpoint)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, errors.Errorf("invalid endpoint %q: want an http or https URL", c.Endpoint)
	}
	if c.RateLimit <= 0 || c.Burst <= 0 {
		return nil, errors.Errorf("invalid rate limit %v with burst %d", c.RateLimit, c.Burst)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Session{
		client:   client,
		endpoint: u.String(),
		version:  c.Version,
		mailbox:  c.Mailbox,
		limiter:  rate.NewLimiter(rate.Limit(c.RateLimit), c.Burst),
		retries:  c.Retries,
		sleep:    sleep,
	}, nil
}

func (s *Session) RequestedServerVersion() version.Version { return s.version }

// Mailbox returns the configured mailbox address.
func (s *Session) Mailbox() string { return s.mailbox }

func (s *Session) SetServerInfo(info *version.ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
}

// ServerInfo returns the server build reported by the last response,
// or nil before any response carried one.
func (s *Session) ServerInfo() *version.ServerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(h http.Header) int {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return secs * 1000
}

// Execute posts envelope and returns the response envelope.  Faults are
// delivered with status 500, so its body is returned like a success.
func (s *Session) Execute(ctx context.Context, action string, envelope []byte) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("Accept", "text/xml")
	req.Header.Set("SOAPAction", soapActionPrefix+action)
	if s.mailbox != "" {
		req.Header.Set("X-AnchorMailbox", s.mailbox)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "posting %s", action)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s response", action)
	}
	log.WithFields(log.Fields{
		"action": action,
		"status": resp.StatusCode,
		"bytes":  len(body),
	}).Debug("posted request")

	switch resp.StatusCode {
	case http.StatusOK, http.StatusInternalServerError:
		return body, nil
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return nil, errors.WithStack(&ewserr.Error{
			Kind:                ewserr.KindServerBusy,
			Message:             http.StatusText(resp.StatusCode),
			BackOffMilliseconds: retryAfter(resp.Header),
			Index:               -1,
		})
	}
	return nil, errors.Errorf("%s: unexpected HTTP status %d", action, resp.StatusCode)
}

// do runs fn, running it again while it fails with a server busy
// error and retries remain.
func (s *Session) do(ctx context.Context, name string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		e, ok := ewserr.As(err)
		if !ok || e.Kind != ewserr.KindServerBusy || attempt > s.retries {
			return err
		}
		d := e.BackOff()
		if d <= 0 {
			d = DefaultBackOff
		}
		log.WithFields(log.Fields{
			"request": name,
			"attempt": attempt,
			"backoff": d,
		}).Warn("server busy; retrying")
		if err := s.sleep(ctx, d); err != nil {
			return err
		}
	}
}
