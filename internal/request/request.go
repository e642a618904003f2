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

// Package request implements the operations of the mail web service
// and the pipeline they share.
//
// Every request is validated against the session's protocol version,
// written into a SOAP envelope, executed by the Service, and parsed
// into one response per submitted object.  The responses are returned
// in submission order.
package request

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Service is the session requests are executed on.
type Service interface {
	// RequestedServerVersion is the protocol version requests are
	// written for.
	RequestedServerVersion() version.Version

	// Execute posts a request envelope and returns the response
	// envelope.  action is the name of the operation.
	Execute(ctx context.Context, action string, envelope []byte) ([]byte, error)

	// SetServerInfo records the server build reported by a response.
	SetServerInfo(info *version.ServerInfo)
}

// State is the position of a request in its lifecycle.
type State int

const (
	Constructed State = iota
	Validated
	Serialized
	Dispatched
	Succeeded
	PartialFailure
	Faulted
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Validated:
		return "validated"
	case Serialized:
		return "serialized"
	case Dispatched:
		return "dispatched"
	case Succeeded:
		return "succeeded"
	case PartialFailure:
		return "partial failure"
	case Faulted:
		return "faulted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrorHandling decides what a failed response message does to the
// request.
type ErrorHandling int

const (
	// ThrowOnError fails the request with the first failed response.
	ThrowOnError ErrorHandling = iota

	// ReturnErrors returns every response, with failed responses
	// carrying their error in ServiceResponse.Err.
	ReturnErrors
)

// Request holds what every request shares.  Concrete requests embed
// it.
type Request struct {
	Service       Service
	ErrorHandling ErrorHandling

	state State
}

// State returns the lifecycle state of the last execution.
func (r *Request) State() State { return r.state }

func (r *Request) setState(name string, s State) {
	log.WithFields(log.Fields{
		"request": name,
		"state":   s,
	}).Debug("request state")
	r.state = s
}

// Operation is the part of a request that differs between operations.
type Operation[R Response] interface {
	// XMLElementName is the request element, such as "GetItem".
	XMLElementName() string

	// ResponseXMLElementName is the element wrapping the response
	// messages, such as "GetItemResponse".
	ResponseXMLElementName() string

	// ResponseMessageXMLElementName is the element of one response
	// message, such as "GetItemResponseMessage".
	ResponseMessageXMLElementName() string

	// MinimumRequiredServerVersion is the first version supporting the
	// operation.
	MinimumRequiredServerVersion() version.Version

	// Validate checks the request before anything is written.
	Validate(v version.Version) error

	// ExpectedResponseMessageCount is the number of response messages a
	// well formed response carries.
	ExpectedResponseMessageCount() int

	WriteAttributesToXML(w *xmlwire.Writer)
	WriteElementsToXML(w *xmlwire.Writer)

	// CreateServiceResponse returns the empty response for the
	// message at index.
	CreateServiceResponse(index int) R
}

// Execute runs op on req's Service and returns one response per
// expected response message, in order.
func Execute[R Response](ctx context.Context, req *Request, op Operation[R]) ([]R, error) {
	name := op.XMLElementName()
	if req.Service == nil {
		return nil, ewserr.ArgumentNull("service")
	}
	req.setState(name, Constructed)

	v := req.Service.RequestedServerVersion()
	if err := version.Require(name, op.MinimumRequiredServerVersion(), v); err != nil {
		return nil, err
	}
	if err := op.Validate(v); err != nil {
		return nil, err
	}
	req.setState(name, Validated)

	expected := op.ExpectedResponseMessageCount()
	envelope, err := writeEnvelope(v, op)
	if err != nil {
		return nil, errors.Wrapf(err, "writing %s", name)
	}
	req.setState(name, Serialized)

	raw, err := req.Service.Execute(ctx, name, envelope)
	if err != nil {
		req.setState(name, Faulted)
		return nil, errors.Wrapf(err, "executing %s", name)
	}
	req.setState(name, Dispatched)

	responses, err := readEnvelope(bytes.NewReader(raw), req.Service, op)
	if err != nil {
		req.setState(name, Faulted)
		return nil, err
	}
	log.WithFields(log.Fields{
		"request":  name,
		"expected": expected,
		"received": len(responses),
	}).Debug("response messages")
	if len(responses) != expected {
		req.setState(name, Faulted)
		return nil, ewserr.Protocol("%s: expected %d response messages, received %d", name, expected, len(responses))
	}

	state := Succeeded
	for i, resp := range responses {
		st := resp.status()
		if st.Class != Error {
			continue
		}
		st.Err = ewserr.FromResponse(st, i)
		if req.ErrorHandling == ThrowOnError {
			req.setState(name, Faulted)
			return nil, st.Err
		}
		state = PartialFailure
	}
	req.setState(name, state)
	return responses, nil
}
