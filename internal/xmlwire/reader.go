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

package xmlwire

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/matta/gotews/internal/ewserr"
	"github.com/pkg/errors"
)

// Reader is a pull parser over a response document.  It is always
// positioned on a single token: a start element, an end element, or
// non-blank character data.
//
// An empty element such as <t:IsRead/> is reported as a start element
// followed by its end element.
type Reader struct {
	dec *xml.Decoder
	tok xml.Token
}

// NewReader returns a Reader for the document in r.  The Reader is not
// positioned on any token until the first call to Read.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// Read advances to the next start element, end element, or non-blank
// character data.  It returns io.EOF at the end of the document.
func (r *Reader) Read() error {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			r.tok = nil
			return io.EOF
		}
		if err != nil {
			r.tok = nil
			return errors.Wrap(err, "reading xml")
		}
		switch t := tok.(type) {
		case xml.StartElement, xml.EndElement:
			r.tok = xml.CopyToken(t)
			return nil
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) == 0 {
				continue
			}
			r.tok = t.Copy()
			return nil
		}
	}
}

// IsStartElement reports whether the reader is on the start of the
// named element.
func (r *Reader) IsStartElement(ns Namespace, local string) bool {
	t, ok := r.tok.(xml.StartElement)
	return ok && t.Name.Local == local && namespaceOf(t.Name.Space) == ns
}

// IsEndElement reports whether the reader is on the end of the named
// element.
func (r *Reader) IsEndElement(ns Namespace, local string) bool {
	t, ok := r.tok.(xml.EndElement)
	return ok && t.Name.Local == local && namespaceOf(t.Name.Space) == ns
}

// IsStart reports whether the reader is on any start element.
func (r *Reader) IsStart() bool {
	_, ok := r.tok.(xml.StartElement)
	return ok
}

// LocalName returns the local name of the current element, or "" when
// the reader is on character data.
func (r *Reader) LocalName() string {
	switch t := r.tok.(type) {
	case xml.StartElement:
		return t.Name.Local
	case xml.EndElement:
		return t.Name.Local
	}
	return ""
}

// Namespace returns the namespace of the current element.
func (r *Reader) Namespace() Namespace {
	switch t := r.tok.(type) {
	case xml.StartElement:
		return namespaceOf(t.Name.Space)
	case xml.EndElement:
		return namespaceOf(t.Name.Space)
	}
	return NotSpecified
}

func (r *Reader) describe() string {
	switch t := r.tok.(type) {
	case xml.StartElement:
		return "start of " + qualify(namespaceOf(t.Name.Space), t.Name.Local)
	case xml.EndElement:
		return "end of " + qualify(namespaceOf(t.Name.Space), t.Name.Local)
	case xml.CharData:
		return "character data"
	}
	return "end of document"
}

// ReadStartElement advances and requires the start of the named
// element.
func (r *Reader) ReadStartElement(ns Namespace, local string) error {
	if err := r.Read(); err != nil && err != io.EOF {
		return err
	}
	return r.EnsureStartElement(ns, local)
}

// EnsureStartElement requires the reader to be on the start of the
// named element without advancing.
func (r *Reader) EnsureStartElement(ns Namespace, local string) error {
	if !r.IsStartElement(ns, local) {
		return ewserr.Protocol("expected start of %s, found %s", qualify(ns, local), r.describe())
	}
	return nil
}

// ReadEndElement advances and requires the end of the named element.
func (r *Reader) ReadEndElement(ns Namespace, local string) error {
	if err := r.Read(); err != nil && err != io.EOF {
		return err
	}
	if !r.IsEndElement(ns, local) {
		return ewserr.Protocol("expected end of %s, found %s", qualify(ns, local), r.describe())
	}
	return nil
}

// ReadEndElementIfNecessary advances to the end of the named element
// unless the reader is already there.
func (r *Reader) ReadEndElementIfNecessary(ns Namespace, local string) error {
	if r.IsEndElement(ns, local) {
		return nil
	}
	return r.ReadEndElement(ns, local)
}

// LookupAttribute returns the value of an unqualified attribute of the
// current start element.
func (r *Reader) LookupAttribute(name string) (string, bool) {
	t, ok := r.tok.(xml.StartElement)
	if !ok {
		return "", false
	}
	for _, a := range t.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

// ReadAttributeValue returns the value of an attribute of the current
// start element, or "" when it is absent.
func (r *Reader) ReadAttributeValue(name string) string {
	v, _ := r.LookupAttribute(name)
	return v
}

// HasAttributes reports whether the current start element carries any
// attribute other than namespace declarations.
func (r *Reader) HasAttributes() bool {
	t, ok := r.tok.(xml.StartElement)
	if !ok {
		return false
	}
	for _, a := range t.Attr {
		if a.Name.Space != "xmlns" && a.Name.Local != "xmlns" {
			return true
		}
	}
	return false
}

// Text returns the current character data.
func (r *Reader) Text() string {
	if t, ok := r.tok.(xml.CharData); ok {
		return string(t)
	}
	return ""
}

// ReadElementValue reads the text content of the current start element
// and leaves the reader on its end element.  Whitespace is preserved.
func (r *Reader) ReadElementValue() (string, error) {
	start, ok := r.tok.(xml.StartElement)
	if !ok {
		return "", ewserr.Protocol("expected start element, found %s", r.describe())
	}
	var sb strings.Builder
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return "", errors.Wrapf(err, "reading value of %s", start.Name.Local)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			return "", ewserr.Protocol("unexpected element %s inside value of %s", t.Name.Local, start.Name.Local)
		case xml.EndElement:
			r.tok = xml.CopyToken(t)
			return sb.String(), nil
		}
	}
}

// ReadElementValueNS reads the next sibling, requiring it to be the
// named element, and returns its text content.
func (r *Reader) ReadElementValueNS(ns Namespace, local string) (string, error) {
	if err := r.ReadStartElement(ns, local); err != nil {
		return "", err
	}
	return r.ReadElementValue()
}

// SkipCurrentElement consumes the current start element and all of its
// content, leaving the reader on its end element.
func (r *Reader) SkipCurrentElement() error {
	if !r.IsStart() {
		return nil
	}
	depth := 1
	for depth > 0 {
		if err := r.Read(); err != nil {
			return errors.Wrap(err, "skipping element")
		}
		switch r.tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// ReadToDescendant advances to the start of the named element within
// the current element.  It returns false, positioned on the end of the
// current element, when there is no such descendant.
func (r *Reader) ReadToDescendant(ns Namespace, local string) (bool, error) {
	if !r.IsStart() {
		return false, nil
	}
	depth := 1
	for {
		if err := r.Read(); err != nil {
			return false, errors.Wrapf(err, "looking for %s", qualify(ns, local))
		}
		switch r.tok.(type) {
		case xml.StartElement:
			if r.IsStartElement(ns, local) {
				return true, nil
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				return false, nil
			}
		}
	}
}
