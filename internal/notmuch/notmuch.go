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

package notmuch

import (
	"bufio"
	"context"
	"hash/fnv"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
	"github.com/matta/gotews/internal/message"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	dirFileMode     = 0700
	messageFileMode = 0600

	pathFarm16 = "abcdefghijklmnop"

	// subdir is the directory below the notmuch database path that
	// holds the mirrored messages.
	subdir = "gotews"
)

type Service struct {
	// Path to the directory we're writing files to within the
	// notmuch database.  Equivalent to; `notmuch config get
	// database.path` and appending the subdir.
	path string

	// The scope under which message ids are unique, normally the
	// mailbox address.
	scope string
}

type path struct {
	root string
	dirs []string
	base string
}

func (p path) Join() string {
	parts := make([]string, 1, len(p.dirs)+2)
	parts[0] = p.root
	parts = append(parts, p.dirs...)
	parts = append(parts, p.base)
	return filepath.Join(parts...)
}

// DatabasePath asks the notmuch binary for its database path.
func DatabasePath(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "notmuch", "config", "get", "database.path").Output()
	if err != nil {
		return "", errors.Wrap(err, "notmuch config get database.path")
	}
	return strings.TrimSpace(string(out)), nil
}

// New returns a Service writing below root, which is normally the
// notmuch database path.  Messages are named within scope.
func New(root, scope string) (*Service, error) {
	if scope == "" {
		return nil, errors.New("notmuch: empty scope")
	}
	s := &Service{path: filepath.Join(root, subdir), scope: scope}
	if err := mkdirfarm(s.path, 2); err != nil {
		return nil, errors.Wrapf(err, "creating %s", s.path)
	}
	return s, nil
}

func (s *Service) HaveMessage(id string) bool {
	_, err := os.Stat(s.makePath(id).Join())
	return err == nil
}

// checkHeader parses the header of raw and returns its Message-Id.
// Content without a parsable header, or with neither From nor Date, is
// not a mail message.
func checkHeader(raw string) (string, error) {
	h, err := textproto.ReadHeader(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		return "", errors.Wrap(err, "parsing message header")
	}
	if !h.Has("From") && !h.Has("Date") {
		return "", errors.New("message header has neither From nor Date")
	}
	mh := mail.Header{Header: gomessage.Header{Header: h}}
	id, err := mh.MessageID()
	if err != nil {
		// A malformed Message-Id does not stop notmuch from
		// indexing the message.
		return "", nil
	}
	return id, nil
}

// Insert writes msg, replacing the previously written version.
func (s *Service) Insert(ctx context.Context, msg *message.Body) error {
	if msg.PermID == "" {
		return errors.New("message has no ID")
	}
	if msg.Raw == "" {
		return errors.New("message has no content")
	}
	// Replace all \r\n with \n.  EWS delivers MIME content in
	// this form because it is mandated by RFC 822 and successors.
	raw := strings.ReplaceAll(msg.Raw, "\r\n", "\n")
	mid, err := checkHeader(raw)
	if err != nil {
		return errors.Wrapf(err, "message %s", msg.PermID)
	}
	p := s.makePath(msg.PermID).Join()
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(raw), messageFileMode); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "renaming %s", tmp)
	}
	log.WithFields(log.Fields{"id": msg.PermID, "message_id": mid, "path": p}).Debug("inserted message")
	return nil
}

// Remove deletes the stored message.  Removing a message that is not
// stored is not an error.
func (s *Service) Remove(id string) error {
	if err := os.Remove(s.makePath(id).Join()); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing message %s", id)
	}
	return nil
}

// basename holds the fields encoded into the basename portion of the
// file name of messages delivered to notuch.
type basename struct {
	// A unique string designating the scope under which the
	// permID is both unique and permanent.  The mailbox address is
	// used.
	scope string

	// A unique string identifying the message: the EWS item id,
	// which within this program is also stored in
	// message.ID.PermID.
	permID string
}

// Return the specified string with characters that should not appear
// in a notmuch Maildir filename escaped.
func escape(s string) string {
	hexCount := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			hexCount++
		}
	}

	if hexCount == 0 {
		return s
	}

	t := make([]byte, len(s)+2*hexCount)
	j := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case shouldEscape(c):
			t[j] = '='
			t[j+1] = "0123456789ABCDEF"[c>>4]
			t[j+2] = "0123456789ABCDEF"[c&15]
			j += 3
		default:
			t[j] = s[i]
			j++
		}
	}
	return string(t)
}

// Return true if the specified character should be escaped when
// appearing in a notmuch Maildir filename.
//
// The encoding uses the underscore to designate the next two
// characters as a hex encoded byte.
//
// Based on the following IEEE specification, with the revision that
// the all punctuation is removed, leaving only alphanumeric
// characters.  See:
//
// The Open Group Base Specifications Issue 7, 2018 edition, IEEE Std
// 1003.1-2017 (Revision of IEEE Std 1003.1-2008).
// 3.282 Portable Filename Character Set
func shouldEscape(c byte) bool {
	if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' {
		return false
	}

	// Everything else must be escaped.
	return true
}

// Encode returns the basename encoded in a filename (and Maildir)
// safe form.
//
// Each field is escaped and the fields are joined with '-', prefixed
// with "gotews-1-" as a distinguisher followed by an encoding version.
func (b basename) encode() string {
	var sb strings.Builder
	const prefix = "gotews-1-"
	sb.Grow(len(prefix) + len(b.scope) + len(b.permID) + 1)
	sb.WriteString(prefix)
	sb.WriteString(escape(b.scope))
	sb.WriteRune('-')
	sb.WriteString(escape(b.permID))
	return sb.String()
}

func mkdir(dir string) error {
	if err := os.Mkdir(dir, dirFileMode); err != nil && !os.IsExist(err) {
		return err
	}
	return nil
}

func mkdirfarm(path string, depth int) error {
	if err := mkdir(path); err != nil {
		return err
	}
	if depth == 0 {
		return nil
	}

	for i := 0; i < len(pathFarm16); i++ {
		path := filepath.Join(path, pathFarm16[i:i+1])
		if err := mkdirfarm(path, depth-1); err != nil {
			return err
		}
	}
	return nil
}

func fingerprint(b []byte) uint32 {
	hash := fnv.New32a()
	hash.Write(b)
	return hash.Sum32()
}

func pathParts(id string) []string {
	fp := fingerprint([]byte(id))
	nibble1 := fp & 0xf
	nibble2 := (fp >> 4) & 0xf
	return []string{pathFarm16[nibble1 : nibble1+1], pathFarm16[nibble2 : nibble2+1]}
}

func (s *Service) makePath(id string) path {
	return path{
		root: s.path,
		dirs: pathParts(id),
		base: basename{scope: s.scope, permID: id}.encode(),
	}
}
