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

package tracehttp

import (
	"net/http"
	"net/http/httputil"

	log "github.com/sirupsen/logrus"
)

const redacted = "REDACTED"

// traceTransport is an http.RoundTripper that logs the request and
// response at debug level while delegating the real work to another
// http.RoundTripper.
type traceTransport struct {
	delegate http.RoundTripper
	logger   log.FieldLogger
}

func dumpRequest(req *http.Request) ([]byte, error) {
	if req.Header.Get("Authorization") == "" {
		return httputil.DumpRequestOut(req, true)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", redacted)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	return httputil.DumpRequestOut(r, req.GetBody != nil)
}

// RoundTrip logs a dump of the request and response while delegating
// the round trip to the delegate.
func (t *traceTransport) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	if dump, dumpErr := dumpRequest(req); dumpErr == nil {
		t.logger.WithField("url", req.URL.String()).Debug(string(dump))
	}
	resp, err = t.delegate.RoundTrip(req)
	if err != nil {
		t.logger.WithError(err).Debug("round trip failed")
		return resp, err
	}
	if dump, dumpErr := httputil.DumpResponse(resp, true); dumpErr == nil {
		t.logger.WithField("status", resp.StatusCode).Debug(string(dump))
	}
	return resp, err
}

// Wrap returns a RoundTripper logging through logger around d.
func Wrap(d http.RoundTripper, logger log.FieldLogger) http.RoundTripper {
	if d == nil {
		d = http.DefaultTransport
	}
	return &traceTransport{delegate: d, logger: logger}
}

// WrapClient makes c log every exchange through the standard logger.
func WrapClient(c *http.Client) {
	c.Transport = Wrap(c.Transport, log.StandardLogger())
}
