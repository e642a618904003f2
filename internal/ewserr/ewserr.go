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

// Package ewserr defines the single error shape returned by the SDK.
//
// Every failure, whether detected on the client before any I/O or
// reported by the server for one item of a batch, is an *Error
// discriminated by its Kind.  Callers branch on the Kind (and, for
// server errors, the Code) instead of on message text:
//
//	if e, ok := ewserr.As(err); ok && e.Kind == ewserr.KindServerBusy {
//		time.Sleep(e.BackOff())
//	}
package ewserr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota

	// Client validation errors, raised before any network activity.
	KindValidation
	KindArgumentOutOfRange
	KindArgumentNull
	KindArgumentMissing
	KindVersionIncompatible
	KindObjectUpdate

	// The response envelope does not have the expected shape.
	KindProtocol

	// Server reported errors.
	KindServiceResponse
	KindServerBusy
	KindRemote
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindValidation:          "validation",
	KindArgumentOutOfRange:  "argument out of range",
	KindArgumentNull:        "argument null",
	KindArgumentMissing:     "argument missing",
	KindVersionIncompatible: "version incompatible",
	KindObjectUpdate:        "object cannot be updated",
	KindProtocol:            "protocol violation",
	KindServiceResponse:     "service response",
	KindServerBusy:          "server busy",
	KindRemote:              "remote",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// BackOffMillisecondsKey is the error detail key carrying the server's
// suggested back-off.
const BackOffMillisecondsKey = "BackOffMilliseconds"

// Error is the error type returned by every package of the SDK.
type Error struct {
	Kind Kind

	// The server response code.  Empty for errors detected on the
	// client.
	Code Code

	Message string

	// The offending argument or field, for argument errors.
	Param string

	// Structured diagnostic fields returned by the server.  May be
	// nil.
	Details map[string]string

	// The server's suggested back-off.  Zero means no suggestion.
	BackOffMilliseconds int

	// The position of the failing response message within its
	// batch, or -1.
	Index int
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("ews: ")
	sb.WriteString(e.Kind.String())
	if e.Code != "" {
		fmt.Fprintf(&sb, " [%v]", e.Code)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&sb, " item %d", e.Index)
	}
	if e.Param != "" {
		fmt.Fprintf(&sb, " (%s)", e.Param)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.BackOffMilliseconds > 0 {
		fmt.Fprintf(&sb, " (back off %dms)", e.BackOffMilliseconds)
	}
	return sb.String()
}

// BackOff returns the suggested back-off as a duration.
func (e *Error) BackOff() time.Duration {
	return time.Duration(e.BackOffMilliseconds) * time.Millisecond
}

func newError(kind Kind, param, msg string) error {
	return errors.WithStack(&Error{Kind: kind, Param: param, Message: msg, Index: -1})
}

// Validation reports a malformed request.
func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, "", fmt.Sprintf(format, args...))
}

// OutOfRange reports an argument outside its permitted range.
func OutOfRange(param, msg string) error {
	return newError(KindArgumentOutOfRange, param, msg)
}

// ArgumentNull reports a required argument that was nil.
func ArgumentNull(param string) error {
	return newError(KindArgumentNull, param, "value cannot be nil")
}

// ArgumentMissing reports a required argument that was empty.
func ArgumentMissing(param string) error {
	return newError(KindArgumentMissing, param, "value cannot be empty")
}

// VersionIncompatible reports a feature used against a server older
// than the version that introduced it.
func VersionIncompatible(feature, min, actual string) error {
	return newError(KindVersionIncompatible, feature,
		fmt.Sprintf("%s is only valid for %s or later, the requested version is %s", feature, min, actual))
}

// ObjectUpdate reports a setter called on an object that no longer
// accepts changes.
func ObjectUpdate(msg string) error {
	return newError(KindObjectUpdate, "", msg)
}

// Protocol reports a response that does not match the request.
func Protocol(format string, args ...interface{}) error {
	return newError(KindProtocol, "", fmt.Sprintf(format, args...))
}

// Detail is implemented by server responses that carry an error.
type Detail interface {
	ResponseCode() Code
	ResponseMessage() string
	ResponseDetails() map[string]string
}

// FromResponse builds the error for a failed response message at
// position index of its batch.  Optional detail that is absent or
// malformed is left at its zero value.
func FromResponse(d Detail, index int) error {
	e := fromDetail(d, KindServiceResponse)
	e.Index = index
	return errors.WithStack(e)
}

// FromFault builds the error for a SOAP fault.
func FromFault(d Detail) error {
	e := fromDetail(d, KindRemote)
	return errors.WithStack(e)
}

func fromDetail(d Detail, kind Kind) *Error {
	e := &Error{
		Kind:    kind,
		Code:    d.ResponseCode(),
		Message: d.ResponseMessage(),
		Details: d.ResponseDetails(),
		Index:   -1,
	}
	if e.Code == ErrorServerBusy {
		e.Kind = KindServerBusy
		e.BackOffMilliseconds = backOff(e.Details)
	}
	return e
}

func backOff(details map[string]string) int {
	s, ok := details[BackOffMillisecondsKey]
	if !ok {
		return 0
	}
	ms, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || ms < 0 {
		return 0
	}
	return ms
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
