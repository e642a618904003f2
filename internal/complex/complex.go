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

// Package complex binds structured values to their XML elements.
//
// A structured value reads itself one child element at a time: the
// load loop positions the reader on each child's start element and
// offers it to TryReadElementFromXML, which either consumes the whole
// child or declines it.  Declined children are skipped, so values
// tolerate elements added by newer servers.
package complex

import (
	"github.com/matta/gotews/internal/xmlwire"
)

// Bindable is implemented by every value that loads itself from XML.
type Bindable interface {
	// TryReadElementFromXML is called with the reader on the start of
	// a child element.  If it recognizes the element it consumes it,
	// leaving the reader on the element's end, and returns true.
	TryReadElementFromXML(r *xmlwire.Reader) (bool, error)
}

// AttributeReader is implemented by values carried partly in the
// attributes of their own element.
type AttributeReader interface {
	ReadAttributesFromXML(r *xmlwire.Reader) error
}

// ElementWriter is implemented by values that write their children in
// the protocol order.
type ElementWriter interface {
	WriteElementsToXML(w *xmlwire.Writer)
}

// AttributeWriter is implemented by values that write attributes on
// their own element.
type AttributeWriter interface {
	WriteAttributesToXML(w *xmlwire.Writer)
}

// LoadFromXML loads b from the element the reader is positioned on,
// which must be ns:local.  It returns with the reader on that element's
// end.
func LoadFromXML(r *xmlwire.Reader, ns xmlwire.Namespace, local string, b Bindable) error {
	if err := r.EnsureStartElement(ns, local); err != nil {
		return err
	}
	if ar, ok := b.(AttributeReader); ok {
		if err := ar.ReadAttributesFromXML(r); err != nil {
			return err
		}
	}
	for {
		if err := r.Read(); err != nil {
			return err
		}
		if r.IsEndElement(ns, local) {
			return nil
		}
		if !r.IsStart() {
			continue
		}
		ok, err := b.TryReadElementFromXML(r)
		if err != nil {
			return err
		}
		if !ok {
			if err := r.SkipCurrentElement(); err != nil {
				return err
			}
		}
	}
}

// WriteToXML writes v as the element ns:local.
func WriteToXML(w *xmlwire.Writer, ns xmlwire.Namespace, local string, v ElementWriter) {
	w.WriteStartElement(ns, local)
	if aw, ok := v.(AttributeWriter); ok {
		aw.WriteAttributesToXML(w)
	}
	v.WriteElementsToXML(w)
	w.WriteEndElement()
}
