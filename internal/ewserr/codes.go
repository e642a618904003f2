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

package ewserr

// Code is a server response code.  The set of codes the server may
// return is open; the constants below are the ones the SDK itself
// interprets or that callers commonly branch on.
type Code string

const (
	NoError Code = "NoError"

	ErrorAccessDenied            Code = "ErrorAccessDenied"
	ErrorExceededConnectionCount Code = "ErrorExceededConnectionCount"
	ErrorInternalServerError     Code = "ErrorInternalServerError"
	ErrorInvalidChangeKey        Code = "ErrorInvalidChangeKey"
	ErrorInvalidIdMalformed      Code = "ErrorInvalidIdMalformed"
	ErrorInvalidRequest          Code = "ErrorInvalidRequest"
	ErrorInvalidServerVersion    Code = "ErrorInvalidServerVersion"
	ErrorInvalidSyncStateData    Code = "ErrorInvalidSyncStateData"
	ErrorIrresolvableConflict    Code = "ErrorIrresolvableConflict"
	ErrorItemNotFound            Code = "ErrorItemNotFound"
	ErrorMailboxMoveInProgress   Code = "ErrorMailboxMoveInProgress"
	ErrorSchemaValidation        Code = "ErrorSchemaValidation"
	ErrorServerBusy              Code = "ErrorServerBusy"
	ErrorTimeoutExpired          Code = "ErrorTimeoutExpired"

	ErrorAttachmentSizeLimitExceeded Code = "ErrorAttachmentSizeLimitExceeded"
)

func (c Code) String() string {
	return string(c)
}
