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

/*
Package ewshttp builds the authenticated HTTP client used to reach an
Exchange Web Services endpoint.

Three OAuth 2.0 credential sources are supported:

 1. a fixed bearer token, for short lived use and tests.
 2. an external program printing a bearer token on standard output,
    such as a desktop SSO helper.  The program is run again whenever
    the previous token is considered expired.
 3. the client credentials grant, for daemon applications registered
    with the identity provider.

BUGS:

The external program does not report the token's lifetime, so tokens
from it are assumed to expire after five minutes.  Servers may reject
a token earlier; callers see that as an HTTP 401 and should retry.
*/
package ewshttp

import (
	"bytes"
	"context"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/matta/gotews/internal/config"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// commandTokenLifetime is how long a token printed by a token command
// is reused.
const commandTokenLifetime = 5 * time.Minute

// commandTokenSource runs an external program to retrieve an OAuth 2.0
// bearer token.
type commandTokenSource struct {
	// The command line, split on white space.
	args []string

	now func() time.Time
}

// Token returns a new token by executing the command.  Satisfies
// oauth2.TokenSource.
func (s *commandTokenSource) Token() (*oauth2.Token, error) {
	if len(s.args) == 0 {
		return nil, errors.New("empty token command")
	}
	cmd := exec.Command(s.args[0], s.args[1:]...)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "running token command %q: %s", s.args[0], strings.TrimSpace(stderr.String()))
	}

	accessToken := strings.TrimSpace(out.String())
	if accessToken == "" {
		return nil, errors.Errorf("token command %q printed no token", s.args[0])
	}
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      s.now().Add(commandTokenLifetime),
	}, nil
}

// TokenSource returns the token source selected by a.
func TokenSource(ctx context.Context, a *config.Auth) (oauth2.TokenSource, error) {
	switch {
	case a.Token != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: a.Token, TokenType: "Bearer"}), nil
	case a.TokenCommand != "":
		src := &commandTokenSource{args: strings.Fields(a.TokenCommand), now: time.Now}
		return oauth2.ReuseTokenSource(nil, src), nil
	case a.ClientID != "" && a.ClientSecret != "" && a.TokenURL != "":
		cc := &clientcredentials.Config{
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			TokenURL:     a.TokenURL,
			Scopes:       a.Scopes,
		}
		return cc.TokenSource(ctx), nil
	}
	return nil, errors.New("no credential source configured")
}

// New returns an HTTP client that authenticates every request with
// the credential selected by a.  base carries the requests and may be
// nil.
func New(ctx context.Context, a *config.Auth, base http.RoundTripper) (*http.Client, error) {
	src, err := TokenSource(ctx, a)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: base},
	}, nil
}
