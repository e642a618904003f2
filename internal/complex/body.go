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

package complex

import (
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/xmlwire"
)

// MessageBody is the body of an item: text in one of the body formats.
type MessageBody struct {
	Type propdef.BodyType
	Text string
}

// LoadBodyFromXML reads a body element, which carries its format as an
// attribute and its text as content.
func LoadBodyFromXML(r *xmlwire.Reader) (*MessageBody, error) {
	b := &MessageBody{Type: propdef.BodyTypeText}
	if s, ok := r.LookupAttribute(xmlwire.AttrBodyType); ok {
		t, err := propdef.ParseBodyType(s)
		if err != nil {
			return nil, err
		}
		b.Type = t
	}
	text, err := r.ReadElementValue()
	if err != nil {
		return nil, err
	}
	b.Text = text
	return b, nil
}

// WriteToXML writes the body as the element ns:local.
func (b *MessageBody) WriteToXML(w *xmlwire.Writer, ns xmlwire.Namespace, local string) {
	w.WriteStartElement(ns, local)
	w.WriteAttributeValue(xmlwire.AttrBodyType, b.Type)
	w.WriteValue(b.Text)
	w.WriteEndElement()
}
