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

package message

// This file provides the common data objects used by the mirror.

// ID defines the properties that identify one version of a message.
type ID struct {
	// The server-assigned item id.  Permanent for the life of the
	// item within its mailbox.
	PermID string

	// The change key of the version described.  Changes whenever
	// the item is modified.
	ChangeKey string
}

// Change is one entry of a folder's change log.
type Change struct {
	ID

	// Deleted is set when the item left the folder.
	Deleted bool

	// ReadFlagOnly is set when only the read flag changed, which
	// does not alter the stored content.
	ReadFlagOnly bool
}

// Header defines the metadata associated with a message.
type Header struct {
	ID

	// The server's estimate of the item size (bytes).
	SizeEstimate int64

	// The Message-ID header, when the item has one.
	InternetMessageID string
}

// Body defines a complete message, including the message body.
type Body struct {
	Header

	// The entire email message in an RFC 5322 formatted string.
	Raw string
}

// Profile defines per-account information of a mailbox.
type Profile struct {
	EmailAddress string

	// ServerVersion describes the server build, such as
	// "15.01.2044.004".  Empty until the server has answered.
	ServerVersion string
}
