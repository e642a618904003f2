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

// Package xmlwire reads and writes the XML documents exchanged with the
// server.
//
// Documents are small and fully buffered; the Reader is a pull parser
// positioned on one token at a time, and the Writer emits elements in
// exactly the order they are requested, since the server is sensitive
// to sibling order.
package xmlwire

// Namespace is one of the fixed namespaces of the protocol.
type Namespace int

const (
	NotSpecified Namespace = iota
	Soap
	Types
	Messages
	Errors
)

var namespaces = [...]struct {
	prefix, uri string
}{
	NotSpecified: {"", ""},
	Soap:         {"soap", "http://schemas.xmlsoap.org/soap/envelope/"},
	Types:        {"t", "http://schemas.microsoft.com/exchange/services/2006/types"},
	Messages:     {"m", "http://schemas.microsoft.com/exchange/services/2006/messages"},
	Errors:       {"e", "http://schemas.microsoft.com/exchange/services/2006/errors"},
}

// Prefix returns the prefix used when writing elements of ns.
func (ns Namespace) Prefix() string {
	return namespaces[ns].prefix
}

// URI returns the namespace URI.
func (ns Namespace) URI() string {
	return namespaces[ns].uri
}

func (ns Namespace) String() string {
	if ns == NotSpecified {
		return "(none)"
	}
	return ns.Prefix()
}

// namespaceOf maps a namespace URI from a parsed document back to the
// Namespace.  Unknown URIs map to NotSpecified.
func namespaceOf(uri string) Namespace {
	for ns, n := range namespaces {
		if n.uri == uri {
			return Namespace(ns)
		}
	}
	return NotSpecified
}

func qualify(ns Namespace, local string) string {
	if ns == NotSpecified {
		return local
	}
	return ns.Prefix() + ":" + local
}
