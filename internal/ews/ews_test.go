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

package ews

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/message"
	"github.com/matta/gotews/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

const (
	host = "https://mail.example.com"
	path = "/EWS/Exchange.asmx"

	messagesNS = `xmlns:m="http://schemas.microsoft.com/exchange/services/2006/messages"`
	typesNS    = `xmlns:t="http://schemas.microsoft.com/exchange/services/2006/types"`
)

func envelope(body string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` +
		`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">` +
		`<s:Header><h:ServerVersionInfo MajorVersion="15" MinorVersion="1" MajorBuildNumber="2044" MinorBuildNumber="4" Version="V2017_07_11" ` +
		`xmlns:h="http://schemas.microsoft.com/exchange/services/2006/types"/></s:Header>` +
		`<s:Body>` + body + `</s:Body></s:Envelope>`
}

func responses(op string, messages ...string) string {
	return envelope(`<m:` + op + `Response ` + messagesNS + ` ` + typesNS + `><m:ResponseMessages>` +
		strings.Join(messages, "") + `</m:ResponseMessages></m:` + op + `Response>`)
}

func success(op, content string) string {
	return `<m:` + op + `ResponseMessage ResponseClass="Success"><m:ResponseCode>NoError</m:ResponseCode>` +
		content + `</m:` + op + `ResponseMessage>`
}

func failure(op string, code ewserr.Code) string {
	return `<m:` + op + `ResponseMessage ResponseClass="Error"><m:MessageText>failed</m:MessageText>` +
		`<m:ResponseCode>` + string(code) + `</m:ResponseCode><m:DescriptiveLinkKey>0</m:DescriptiveLinkKey>` +
		`</m:` + op + `ResponseMessage>`
}

var busyFault = envelope(`<s:Fault><faultcode xmlns:a="http://schemas.microsoft.com/exchange/services/2006/types">a:ErrorServerBusy</faultcode>` +
	`<faultstring xml:lang="en-US">The server cannot service this request right now. Try again later.</faultstring>` +
	`<detail><e:ResponseCode xmlns:e="http://schemas.microsoft.com/exchange/services/2006/errors">ErrorServerBusy</e:ResponseCode>` +
	`<e:Message xmlns:e="http://schemas.microsoft.com/exchange/services/2006/errors">The server cannot service this request right now. Try again later.</e:Message>` +
	`<t:MessageXml ` + typesNS + `><t:Value Name="BackOffMilliseconds">10</t:Value></t:MessageXml>` +
	`</detail></s:Fault>`)

// newSession returns a session whose requests are answered by gock,
// and the request bodies it sent.
func newSession(t *testing.T, retries int) (*Session, *[]string, *[]time.Duration) {
	t.Helper()
	t.Cleanup(func() {
		gock.Observe(nil)
		gock.Off()
	})

	var bodies []string
	gock.Observe(func(req *http.Request, mock gock.Mock) {
		if req.Body == nil {
			return
		}
		b, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		req.Body = io.NopCloser(bytes.NewReader(b))
		bodies = append(bodies, string(b))
	})

	client := &http.Client{}
	gock.InterceptClient(client)
	s, err := New(client, &Config{
		Endpoint:  host + path,
		Version:   version.Exchange2010SP2,
		Mailbox:   "user@example.com",
		RateLimit: 1000,
		Burst:     10,
		Retries:   retries,
	})
	require.NoError(t, err)

	var slept []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return s, &bodies, &slept
}

func TestNewValidatesConfig(t *testing.T) {
	for _, c := range []*Config{
		{Endpoint: "mail.example.com/EWS", RateLimit: 1, Burst: 1},
		{Endpoint: host + path, RateLimit: 0, Burst: 1},
		{Endpoint: host + path, RateLimit: 1, Burst: 0},
	} {
		_, err := New(nil, c)
		assert.Error(t, err, "New(%+v)", c)
	}
}

func TestExecuteHeaders(t *testing.T) {
	s, bodies, _ := newSession(t, 0)
	gock.New(host).Post(path).
		MatchHeader("Content-Type", "^text/xml; charset=utf-8$").
		MatchHeader("SOAPAction", "^http://schemas.microsoft.com/exchange/services/2006/messages/GetItem$").
		MatchHeader("X-AnchorMailbox", "^user@example.com$").
		Reply(200).
		BodyString("<ok/>")

	got, err := s.Execute(context.Background(), "GetItem", []byte("<request/>"))
	require.NoError(t, err)
	assert.Equal(t, "<ok/>", string(got))
	assert.Equal(t, []string{"<request/>"}, *bodies)
	assert.True(t, gock.IsDone())
}

func TestExecuteStatus(t *testing.T) {
	s, _, _ := newSession(t, 0)
	ctx := context.Background()

	gock.New(host).Post(path).Reply(500).BodyString("fault")
	got, err := s.Execute(ctx, "GetItem", nil)
	require.NoError(t, err)
	assert.Equal(t, "fault", string(got))

	gock.New(host).Post(path).Reply(503).SetHeader("Retry-After", "2")
	_, err = s.Execute(ctx, "GetItem", nil)
	e, ok := ewserr.As(err)
	require.True(t, ok, "Execute() = %v, want *ewserr.Error", err)
	assert.Equal(t, ewserr.KindServerBusy, e.Kind)
	assert.Equal(t, 2*time.Second, e.BackOff())

	gock.New(host).Post(path).Reply(401)
	_, err = s.Execute(ctx, "GetItem", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	_, ok = ewserr.As(err)
	assert.False(t, ok)
}

func TestRetryServerBusy(t *testing.T) {
	s, bodies, slept := newSession(t, 2)
	gock.New(host).Post(path).Reply(500).BodyString(busyFault)
	gock.New(host).Post(path).Reply(200).BodyString(responses("GetItem", success("GetItem",
		`<m:Items><t:Message><t:ItemId Id="A1" ChangeKey="C1"/><t:Subject>hi</t:Subject></t:Message></m:Items>`)))

	items, err := s.GetItems(context.Background(), []*complex.ItemId{{Id: "A1"}}, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "hi", items[0].Subject())
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, *slept)
	assert.Len(t, *bodies, 2)
	require.NotNil(t, s.ServerInfo())
	assert.Equal(t, "15.01.2044.004", s.ServerInfo().String())
}

func TestRetryExhausted(t *testing.T) {
	s, _, slept := newSession(t, 1)
	gock.New(host).Post(path).Times(2).Reply(500).BodyString(busyFault)

	_, err := s.GetItems(context.Background(), []*complex.ItemId{{Id: "A1"}}, nil)
	assert.True(t, ewserr.Is(err, ewserr.KindServerBusy), "GetItems() = %v, want server busy", err)
	assert.Len(t, *slept, 1)
	assert.True(t, gock.IsDone())
}

func TestFolderID(t *testing.T) {
	s, _, _ := newSession(t, 0)
	assert.Equal(t, &complex.FolderId{Distinguished: "inbox", Mailbox: "user@example.com"}, s.FolderID("inbox"))
	assert.Equal(t, &complex.FolderId{Id: "AAMkAD"}, s.FolderID("AAMkAD"))
}

func TestListChanges(t *testing.T) {
	s, bodies, _ := newSession(t, 0)
	gock.New(host).Post(path).
		MatchHeader("SOAPAction", "SyncFolderItems$").
		Reply(200).
		BodyString(responses("SyncFolderItems", success("SyncFolderItems",
			`<m:SyncState>s2</m:SyncState><m:IncludesLastItemInRange>false</m:IncludesLastItemInRange><m:Changes>`+
				`<t:Create><t:Message><t:ItemId Id="A1" ChangeKey="C1"/></t:Message></t:Create>`+
				`<t:Update><t:Message><t:ItemId Id="A2" ChangeKey="C2"/></t:Message></t:Update>`+
				`<t:Delete><t:ItemId Id="A0"/></t:Delete>`+
				`<t:ReadFlagChange><t:ItemId Id="A3" ChangeKey="C3"/><t:IsRead>true</t:IsRead></t:ReadFlagChange>`+
				`</m:Changes>`)))

	var got []*message.Change
	next, more, err := s.ListChanges(context.Background(), "inbox", "s1", func(c *message.Change) error {
		got = append(got, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "s2", next)
	assert.True(t, more)
	assert.Equal(t, []*message.Change{
		{ID: message.ID{PermID: "A1", ChangeKey: "C1"}},
		{ID: message.ID{PermID: "A2", ChangeKey: "C2"}},
		{ID: message.ID{PermID: "A0"}, Deleted: true},
		{ID: message.ID{PermID: "A3", ChangeKey: "C3"}, ReadFlagOnly: true},
	}, got)

	require.Len(t, *bodies, 1)
	sent := (*bodies)[0]
	assert.Contains(t, sent, `<m:SyncState>s1</m:SyncState>`)
	assert.Contains(t, sent, `<m:MaxChangesReturned>512</m:MaxChangesReturned>`)
	assert.Contains(t, sent, `<t:EmailAddress>user@example.com</t:EmailAddress>`)
}

func TestListChangesInvalidState(t *testing.T) {
	s, _, _ := newSession(t, 0)
	gock.New(host).Post(path).Reply(200).
		BodyString(responses("SyncFolderItems", failure("SyncFolderItems", ewserr.ErrorInvalidSyncStateData)))

	_, _, err := s.ListChanges(context.Background(), "inbox", "bogus", func(*message.Change) error { return nil })
	e, ok := ewserr.As(err)
	require.True(t, ok, "ListChanges() = %v, want *ewserr.Error", err)
	assert.Equal(t, ewserr.ErrorInvalidSyncStateData, e.Code)
}

func TestGetMessages(t *testing.T) {
	s, bodies, _ := newSession(t, 0)
	gock.New(host).Post(path).Reply(200).BodyString(responses("GetItem",
		success("GetItem", `<m:Items><t:Message>`+
			`<t:MimeContent CharacterSet="UTF-8">RnJvbTogYUBleGFtcGxl`+"\n"+`LmNvbQ0KU3ViamVjdDogaGkNCg0KYm9keQ0K</t:MimeContent>`+
			`<t:ItemId Id="A1" ChangeKey="C1"/><t:Size>1234</t:Size>`+
			`<t:InternetMessageId>&lt;1@example.com&gt;</t:InternetMessageId>`+
			`</t:Message></m:Items>`),
		failure("GetItem", ewserr.ErrorItemNotFound)))

	got, err := s.GetMessages(context.Background(), []string{"A1", "A2"})
	require.NoError(t, err)
	assert.Equal(t, []*message.Body{{
		Header: message.Header{
			ID:                message.ID{PermID: "A1", ChangeKey: "C1"},
			SizeEstimate:      1234,
			InternetMessageID: "<1@example.com>",
		},
		Raw: "From: a@example.com\r\nSubject: hi\r\n\r\nbody\r\n",
	}}, got)

	require.Len(t, *bodies, 1)
	sent := (*bodies)[0]
	assert.Contains(t, sent, `<t:BaseShape>IdOnly</t:BaseShape>`)
	assert.Contains(t, sent, `<t:FieldURI FieldURI="item:MimeContent"></t:FieldURI>`)
	assert.Contains(t, sent, `<t:ItemId Id="A2"></t:ItemId>`)
}

func TestGetMessagesFailure(t *testing.T) {
	s, _, _ := newSession(t, 0)
	gock.New(host).Post(path).Reply(200).BodyString(responses("GetItem",
		failure("GetItem", ewserr.ErrorAccessDenied)))

	_, err := s.GetMessages(context.Background(), []string{"A1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A1")
}

func TestGetProfile(t *testing.T) {
	s, _, _ := newSession(t, 0)
	gock.New(host).Post(path).
		MatchHeader("SOAPAction", "FindFolder$").
		Reply(200).
		BodyString(responses("FindFolder", success("FindFolder",
			`<m:RootFolder TotalItemsInView="0" IncludesLastItemInRange="true"><t:Folders></t:Folders></m:RootFolder>`)))

	p, err := s.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &message.Profile{EmailAddress: "user@example.com", ServerVersion: "15.01.2044.004"}, p)

	// The build is known now; no further request is made.
	p, err = s.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "15.01.2044.004", p.ServerVersion)
	assert.True(t, gock.IsDone())
}
