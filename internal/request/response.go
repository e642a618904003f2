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
	"strings"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/xmlwire"
)

// ResponseClass is the overall status of one response message.
type ResponseClass int

const (
	Success ResponseClass = iota
	Warning
	Error
)

func (c ResponseClass) String() string {
	switch c {
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	}
	return "Success"
}

func parseResponseClass(s string) (ResponseClass, error) {
	switch s {
	case "Success":
		return Success, nil
	case "Warning":
		return Warning, nil
	case "Error":
		return Error, nil
	}
	return Success, ewserr.Protocol("unknown response class %q", s)
}

// ServiceResponse is the status part of a response message.  Concrete
// responses embed it.
type ServiceResponse struct {
	Class   ResponseClass
	Code    ewserr.Code
	Message string

	// Details holds the name/value pairs of the MessageXml element,
	// such as BackOffMilliseconds.  It is nil when the server sent
	// none.
	Details map[string]string

	// Err is the error built from the response when it failed and the
	// request returns errors instead of failing.
	Err error
}

var _ ewserr.Detail = (*ServiceResponse)(nil)

func (r *ServiceResponse) ResponseCode() ewserr.Code          { return r.Code }
func (r *ServiceResponse) ResponseMessage() string            { return r.Message }
func (r *ServiceResponse) ResponseDetails() map[string]string { return r.Details }

func (r *ServiceResponse) status() *ServiceResponse { return r }

// tryReadStatus reads the status elements common to every response
// message and to the detail of SOAP faults, where the text is carried
// in <e:Message>.
func (r *ServiceResponse) tryReadStatus(rd *xmlwire.Reader) (bool, error) {
	local := rd.LocalName()
	if local == xmlwire.Message && rd.Namespace() != xmlwire.Errors {
		return false, nil
	}
	switch local {
	case xmlwire.MessageText, xmlwire.Message:
		s, err := rd.ReadElementValue()
		r.Message = s
		return true, err
	case xmlwire.ResponseCode:
		s, err := rd.ReadElementValue()
		r.Code = ewserr.Code(s)
		return true, err
	case xmlwire.DescriptiveLinkKey:
		return true, rd.SkipCurrentElement()
	case xmlwire.MessageXml:
		return true, r.readMessageXML(rd)
	}
	return false, nil
}

// messageXMLLeaves are the elements of MessageXml other than
// <t:Value Name="..."> that carry diagnostic text.
var messageXMLLeaves = map[string]bool{
	"ExceptionType":    true,
	"ExceptionCode":    true,
	"ExceptionMessage": true,
	"LineNumber":       true,
	"LinePosition":     true,
	"Violation":        true,
}

func (r *ServiceResponse) readMessageXML(rd *xmlwire.Reader) error {
	ns := rd.Namespace()
	return complex.LoadFromXML(rd, ns, xmlwire.MessageXml, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		key := rd.LocalName()
		if key == xmlwire.Value {
			key = rd.ReadAttributeValue(xmlwire.AttrName)
		} else if !messageXMLLeaves[key] {
			return false, nil
		}
		s, err := rd.ReadElementValue()
		if err != nil {
			return false, err
		}
		if r.Details == nil {
			r.Details = make(map[string]string)
		}
		r.Details[key] = s
		return true, nil
	}))
}

// Response is implemented by every concrete response message.
type Response interface {
	complex.Bindable
	status() *ServiceResponse
}

type bindFunc func(r *xmlwire.Reader) (bool, error)

func (f bindFunc) TryReadElementFromXML(r *xmlwire.Reader) (bool, error) { return f(r) }

// readResponseMessage loads one response message into resp.
func readResponseMessage(rd *xmlwire.Reader, local string, resp Response) error {
	if err := rd.EnsureStartElement(xmlwire.Messages, local); err != nil {
		return err
	}
	st := resp.status()
	class, err := parseResponseClass(rd.ReadAttributeValue(xmlwire.AttrResponseClass))
	if err != nil {
		return err
	}
	st.Class = class
	return complex.LoadFromXML(rd, xmlwire.Messages, local, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		if ok, err := st.tryReadStatus(rd); ok || err != nil {
			return ok, err
		}
		return resp.TryReadElementFromXML(rd)
	}))
}

// fault is a SOAP fault returned instead of a response body.
type fault struct {
	ServiceResponse
	faultCode string
}

func readFault(rd *xmlwire.Reader) (*fault, error) {
	f := &fault{}
	err := complex.LoadFromXML(rd, xmlwire.Soap, xmlwire.Fault, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		switch rd.LocalName() {
		case "faultcode":
			s, err := rd.ReadElementValue()
			f.faultCode = s
			return true, err
		case "faultstring":
			s, err := rd.ReadElementValue()
			if f.Message == "" {
				f.Message = s
			}
			return true, err
		case "detail":
			return true, complex.LoadFromXML(rd, rd.Namespace(), "detail", bindFunc(f.tryReadStatus))
		}
		return false, nil
	}))
	if err != nil {
		return nil, err
	}
	if f.Code == "" {
		f.Code = ewserr.Code(localPart(f.faultCode))
	}
	f.Class = Error
	return f, nil
}

func localPart(qname string) string {
	return qname[strings.LastIndex(qname, ":")+1:]
}
