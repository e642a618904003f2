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
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRoundTripRedactsAuthorization(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var sentAuth, sentBody string
	rt := Wrap(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		sentAuth = r.Header.Get("Authorization")
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		sentBody = string(b)
		return &http.Response{
			StatusCode: 200,
			Status:     "200 OK",
			ProtoMajor: 1,
			ProtoMinor: 1,
			Header:     http.Header{"Content-Type": {"text/xml"}},
			Body:       io.NopCloser(strings.NewReader("<reply/>")),
			Request:    r,
		}, nil
	}), logger)

	req, err := http.NewRequest("POST", "https://mail.example.com/EWS/Exchange.asmx", bytes.NewReader([]byte("<envelope/>")))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "<reply/>", string(body))
	assert.Equal(t, "Bearer secret", sentAuth)
	assert.Equal(t, "<envelope/>", sentBody)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "Authorization: "+redacted)
	assert.NotContains(t, entries[0].Message, "secret")
	assert.Contains(t, entries[0].Message, "<envelope/>")
	assert.Contains(t, entries[1].Message, "<reply/>")
	assert.Equal(t, 200, entries[1].Data["status"])
}
