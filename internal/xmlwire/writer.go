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

	"github.com/matta/gotews/internal/version"
	"github.com/pkg/errors"
)

// Writer emits a document element by element.
//
// The first error is sticky: once a write fails every later call is a
// no-op and Err and Flush report that error.
type Writer struct {
	enc     *xml.Encoder
	pending *xml.StartElement
	open    []xml.Name
	err     error

	// Version is the protocol version the document is written for.
	// Writers of optional, versioned elements consult it.
	Version version.Version
}

// NewWriter returns a Writer emitting a document for protocol version v
// to w.
func NewWriter(w io.Writer, v version.Version) *Writer {
	return &Writer{enc: xml.NewEncoder(w), Version: v}
}

// WriteDeclaration writes the XML declaration.  It must be the first
// call on the Writer.
func (w *Writer) WriteDeclaration() {
	w.encode(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="utf-8"`)})
}

// WriteStartElement opens an element.  Attributes may be added until
// the next content is written.
func (w *Writer) WriteStartElement(ns Namespace, local string) {
	w.flushPending()
	w.pending = &xml.StartElement{Name: xml.Name{Local: qualify(ns, local)}}
}

// WriteNamespaceDeclaration declares the prefix of ns on the open
// element.
func (w *Writer) WriteNamespaceDeclaration(ns Namespace) {
	w.WriteAttributeString("xmlns:"+ns.Prefix(), ns.URI())
}

// WriteAttributeValue adds an attribute to the open element, formatting
// value with FormatValue.
func (w *Writer) WriteAttributeValue(name string, value interface{}) {
	s, err := FormatValue(value)
	if err != nil {
		w.setErr(errors.Wrapf(err, "attribute %s", name))
		return
	}
	w.WriteAttributeString(name, s)
}

// WriteAttributeString adds an attribute with a preformatted value.
func (w *Writer) WriteAttributeString(name, value string) {
	if w.err != nil {
		return
	}
	if w.pending == nil {
		w.setErr(errors.Errorf("attribute %s written outside of a start element", name))
		return
	}
	w.pending.Attr = append(w.pending.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// WriteValue writes character content formatted with FormatValue.
func (w *Writer) WriteValue(value interface{}) {
	s, err := FormatValue(value)
	if err != nil {
		w.setErr(err)
		return
	}
	w.flushPending()
	w.encode(xml.CharData(s))
}

// WriteElementValue writes a complete element with character content.
func (w *Writer) WriteElementValue(ns Namespace, local string, value interface{}) {
	w.WriteStartElement(ns, local)
	w.WriteValue(value)
	w.WriteEndElement()
}

// WriteEndElement closes the innermost open element.
func (w *Writer) WriteEndElement() {
	w.flushPending()
	if w.err != nil {
		return
	}
	if len(w.open) == 0 {
		w.setErr(errors.New("end element written with no open element"))
		return
	}
	name := w.open[len(w.open)-1]
	w.open = w.open[:len(w.open)-1]
	w.encode(xml.EndElement{Name: name})
}

// Fail records an error found by a caller while producing content.  It
// becomes the Writer's sticky error unless one is already recorded.
func (w *Writer) Fail(err error) {
	w.setErr(err)
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

// Flush writes buffered output and reports the first error.
func (w *Writer) Flush() error {
	w.flushPending()
	if w.err != nil {
		return w.err
	}
	if len(w.open) != 0 {
		return errors.Errorf("document has %d unclosed elements", len(w.open))
	}
	if err := w.enc.Flush(); err != nil {
		return errors.Wrap(err, "flushing xml")
	}
	return nil
}

func (w *Writer) flushPending() {
	if w.pending == nil {
		return
	}
	start := *w.pending
	w.pending = nil
	w.encode(start)
	if w.err == nil {
		w.open = append(w.open, start.Name)
	}
}

func (w *Writer) encode(tok xml.Token) {
	if w.err != nil {
		return
	}
	if err := w.enc.EncodeToken(tok); err != nil {
		w.setErr(errors.Wrap(err, "encoding xml"))
	}
}

func (w *Writer) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}
