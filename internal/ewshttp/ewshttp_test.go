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

package ewshttp

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/matta/gotews/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gopkg.in/h2non/gock.v1"
)

func TestCommandTokenSource(t *testing.T) {
	now := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &commandTokenSource{args: []string{"echo", "  abc123  "}, now: func() time.Time { return now }}
	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok.AccessToken)
	assert.Equal(t, now.Add(commandTokenLifetime), tok.Expiry)

	_, err = (&commandTokenSource{args: []string{"true"}, now: time.Now}).Token()
	assert.Error(t, err)
	_, err = (&commandTokenSource{now: time.Now}).Token()
	assert.Error(t, err)
}

func TestTokenSourceSelection(t *testing.T) {
	ctx := context.Background()
	src, err := TokenSource(ctx, &config.Auth{Token: "fixed", TokenCommand: "ignored"})
	require.NoError(t, err)
	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "fixed", tok.AccessToken)

	_, err = TokenSource(ctx, &config.Auth{ClientID: "id"})
	assert.Error(t, err)
}

func TestClientCredentials(t *testing.T) {
	defer gock.Off()
	gock.New("https://login.example.com").
		Post("/token").
		Reply(200).
		JSON(map[string]interface{}{"access_token": "cc-token", "token_type": "Bearer", "expires_in": 3600})
	gock.New("https://mail.example.com").
		Post("/EWS/Exchange.asmx").
		MatchHeader("Authorization", "^Bearer cc-token$").
		Reply(200).
		BodyString("ok")

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: gock.DefaultTransport})
	c, err := New(ctx, &config.Auth{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     "https://login.example.com/token",
		Scopes:       []string{"https://outlook.office365.com/.default"},
	}, gock.DefaultTransport)
	require.NoError(t, err)

	resp, err := c.Post("https://mail.example.com/EWS/Exchange.asmx", "text/xml", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, gock.IsDone())
}
