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

package request

import (
	"bytes"
	"io"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

func writeEnvelope[R Response](v version.Version, op Operation[R]) ([]byte, error) {
	var buf bytes.Buffer
	w := xmlwire.NewWriter(&buf, v)
	w.WriteDeclaration()
	w.WriteStartElement(xmlwire.Soap, xmlwire.Envelope)
	w.WriteNamespaceDeclaration(xmlwire.Soap)
	w.WriteNamespaceDeclaration(xmlwire.Types)
	w.WriteNamespaceDeclaration(xmlwire.Messages)

	w.WriteStartElement(xmlwire.Soap, xmlwire.Header)
	w.WriteStartElement(xmlwire.Types, xmlwire.RequestServerVersion)
	w.WriteAttributeValue(xmlwire.AttrVersion, v)
	w.WriteEndElement()
	w.WriteEndElement()

	w.WriteStartElement(xmlwire.Soap, xmlwire.Body)
	w.WriteStartElement(xmlwire.Messages, op.XMLElementName())
	op.WriteAttributesToXML(w)
	op.WriteElementsToXML(w)
	w.WriteEndElement()
	w.WriteEndElement()

	w.WriteEndElement()
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readEnvelope parses a response envelope.  A SOAP fault is returned as
// an error.
func readEnvelope[R Response](in io.Reader, s Service, op Operation[R]) ([]R, error) {
	rd := xmlwire.NewReader(in)
	if err := rd.ReadStartElement(xmlwire.Soap, xmlwire.Envelope); err != nil {
		return nil, err
	}
	if err := rd.Read(); err != nil {
		return nil, err
	}
	if rd.IsStartElement(xmlwire.Soap, xmlwire.Header) {
		if err := readHeader(rd, s); err != nil {
			return nil, err
		}
		if err := rd.Read(); err != nil {
			return nil, err
		}
	}
	if err := rd.EnsureStartElement(xmlwire.Soap, xmlwire.Body); err != nil {
		return nil, err
	}
	if err := rd.Read(); err != nil {
		return nil, err
	}
	if rd.IsStartElement(xmlwire.Soap, xmlwire.Fault) {
		f, err := readFault(rd)
		if err != nil {
			return nil, err
		}
		return nil, ewserr.FromFault(f)
	}
	return readResponses(rd, op)
}

func readHeader(rd *xmlwire.Reader, s Service) error {
	return complex.LoadFromXML(rd, xmlwire.Soap, xmlwire.Header, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		if !rd.IsStartElement(xmlwire.Types, xmlwire.ServerVersionInfo) {
			return false, nil
		}
		info, err := readServerInfo(rd)
		if err != nil {
			return false, err
		}
		s.SetServerInfo(info)
		return true, rd.SkipCurrentElement()
	}))
}

func readServerInfo(rd *xmlwire.Reader) (*version.ServerInfo, error) {
	info := &version.ServerInfo{VersionString: rd.ReadAttributeValue(xmlwire.AttrVersion)}
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{xmlwire.AttrMajorVersion, &info.MajorVersion},
		{xmlwire.AttrMinorVersion, &info.MinorVersion},
		{xmlwire.AttrMajorBuildNumber, &info.MajorBuildNumber},
		{xmlwire.AttrMinorBuildNumber, &info.MinorBuildNumber},
	} {
		s, ok := rd.LookupAttribute(f.name)
		if !ok {
			continue
		}
		n, err := xmlwire.ParseInt(s)
		if err != nil {
			return nil, ewserr.Protocol("invalid %s %q in %s", f.name, s, xmlwire.ServerVersionInfo)
		}
		*f.dst = n
	}
	return info, nil
}

func readResponses[R Response](rd *xmlwire.Reader, op Operation[R]) ([]R, error) {
	if err := rd.EnsureStartElement(xmlwire.Messages, op.ResponseXMLElementName()); err != nil {
		return nil, err
	}
	var responses []R
	err := complex.LoadFromXML(rd, xmlwire.Messages, op.ResponseXMLElementName(), bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		if !rd.IsStartElement(xmlwire.Messages, xmlwire.ResponseMessages) {
			return false, nil
		}
		return true, complex.LoadFromXML(rd, xmlwire.Messages, xmlwire.ResponseMessages, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
			local := op.ResponseMessageXMLElementName()
			if !rd.IsStartElement(xmlwire.Messages, local) {
				return false, ewserr.Protocol("unexpected %s in %s", rd.LocalName(), xmlwire.ResponseMessages)
			}
			if n := op.ExpectedResponseMessageCount(); len(responses) == n {
				return false, ewserr.Protocol("more than %d %s", n, local)
			}
			resp := op.CreateServiceResponse(len(responses))
			if err := readResponseMessage(rd, local, resp); err != nil {
				return false, err
			}
			responses = append(responses, resp)
			return true, nil
		}))
	}))
	if err != nil {
		return nil, err
	}
	return responses, nil
}
