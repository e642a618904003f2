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

// Element names.
const (
	// Envelope.
	Envelope             = "Envelope"
	Header               = "Header"
	Body                 = "Body"
	Fault                = "Fault"
	RequestServerVersion = "RequestServerVersion"
	ServerVersionInfo    = "ServerVersionInfo"

	// Operations.  The response of each is named with the suffix
	// "Response" and its messages with "ResponseMessage".
	GetItem         = "GetItem"
	CreateItem      = "CreateItem"
	UpdateItem      = "UpdateItem"
	DeleteItem      = "DeleteItem"
	FindItem        = "FindItem"
	FindFolder      = "FindFolder"
	GetAttachment   = "GetAttachment"
	SyncFolderItems = "SyncFolderItems"

	// Response messages.
	ResponseMessages   = "ResponseMessages"
	MessageText        = "MessageText"
	ResponseCode       = "ResponseCode"
	DescriptiveLinkKey = "DescriptiveLinkKey"
	MessageXml         = "MessageXml"
	Message            = "Message"
	Value              = "Value"
	Values             = "Values"

	// Identifiers.
	ItemId                = "ItemId"
	ItemIds               = "ItemIds"
	FolderId              = "FolderId"
	ParentFolderId        = "ParentFolderId"
	ParentFolderIds       = "ParentFolderIds"
	DistinguishedFolderId = "DistinguishedFolderId"
	SavedItemFolderId     = "SavedItemFolderId"
	Mailbox               = "Mailbox"
	EmailAddress          = "EmailAddress"
	AttachmentId          = "AttachmentId"
	AttachmentIds         = "AttachmentIds"

	// Items and attachments.
	Items             = "Items"
	Item              = "Item"
	MimeContent       = "MimeContent"
	ItemClass         = "ItemClass"
	Subject           = "Subject"
	Attachments       = "Attachments"
	FileAttachment    = "FileAttachment"
	ItemAttachment    = "ItemAttachment"
	Name              = "Name"
	ContentType       = "ContentType"
	ContentId         = "ContentId"
	ContentLocation   = "ContentLocation"
	Size              = "Size"
	LastModifiedTime  = "LastModifiedTime"
	IsInline          = "IsInline"
	IsContactPhoto    = "IsContactPhoto"
	Content           = "Content"
	DateTimeReceived  = "DateTimeReceived"
	Categories        = "Categories"
	String            = "String"
	Importance        = "Importance"
	HasAttachments    = "HasAttachments"
	ExtendedProperty  = "ExtendedProperty"
	IsRead            = "IsRead"
	ConversationId    = "ConversationId"
	Preview           = "Preview"
	InternetMessageId = "InternetMessageId"

	// Folders.
	Folders          = "Folders"
	Folder           = "Folder"
	DisplayName      = "DisplayName"
	TotalCount       = "TotalCount"
	ChildFolderCount = "ChildFolderCount"
	UnreadCount      = "UnreadCount"
	FolderClass      = "FolderClass"

	// Property paths and shapes.
	FieldURI             = "FieldURI"
	ExtendedFieldURI     = "ExtendedFieldURI"
	ItemShape            = "ItemShape"
	FolderShape          = "FolderShape"
	AttachmentShape      = "AttachmentShape"
	BaseShape            = "BaseShape"
	BodyType             = "BodyType"
	AdditionalProperties = "AdditionalProperties"

	// Restrictions.
	Restriction            = "Restriction"
	And                    = "And"
	Or                     = "Or"
	Not                    = "Not"
	Contains               = "Contains"
	Excludes               = "Excludes"
	Bitmask                = "Bitmask"
	Exists                 = "Exists"
	Constant               = "Constant"
	FieldURIOrConstant     = "FieldURIOrConstant"
	IsEqualTo              = "IsEqualTo"
	IsNotEqualTo           = "IsNotEqualTo"
	IsGreaterThan          = "IsGreaterThan"
	IsGreaterThanOrEqualTo = "IsGreaterThanOrEqualTo"
	IsLessThan             = "IsLessThan"
	IsLessThanOrEqualTo    = "IsLessThanOrEqualTo"

	// Views.
	IndexedPageItemView         = "IndexedPageItemView"
	IndexedPageFolderView       = "IndexedPageFolderView"
	SeekToConditionPageItemView = "SeekToConditionPageItemView"
	Condition                   = "Condition"
	SortOrder                   = "SortOrder"
	FieldOrder                  = "FieldOrder"
	GroupBy                     = "GroupBy"
	AggregateOn                 = "AggregateOn"
	QueryString                 = "QueryString"
	RootFolder                  = "RootFolder"
	Groups                      = "Groups"
	GroupedItems                = "GroupedItems"
	GroupIndex                  = "GroupIndex"

	// Updates.
	ItemChanges     = "ItemChanges"
	ItemChange      = "ItemChange"
	Updates         = "Updates"
	SetItemField    = "SetItemField"
	DeleteItemField = "DeleteItemField"
	ConflictResults = "ConflictResults"
	Count           = "Count"

	// Synchronization.
	SyncFolderId            = "SyncFolderId"
	SyncState               = "SyncState"
	Ignore                  = "Ignore"
	MaxChangesReturned      = "MaxChangesReturned"
	SyncScope               = "SyncScope"
	IncludesLastItemInRange = "IncludesLastItemInRange"
	Changes                 = "Changes"
	Create                  = "Create"
	Update                  = "Update"
	Delete                  = "Delete"
	ReadFlagChange          = "ReadFlagChange"
)

// Attribute names.
const (
	AttrId                         = "Id"
	AttrChangeKey                  = "ChangeKey"
	AttrVersion                    = "Version"
	AttrResponseClass              = "ResponseClass"
	AttrFieldURI                   = "FieldURI"
	AttrValue                      = "Value"
	AttrName                       = "Name"
	AttrBodyType                   = "BodyType"
	AttrCharacterSet               = "CharacterSet"
	AttrTraversal                  = "Traversal"
	AttrMaxEntriesReturned         = "MaxEntriesReturned"
	AttrOffset                     = "Offset"
	AttrBasePoint                  = "BasePoint"
	AttrOrder                      = "Order"
	AttrAggregate                  = "Aggregate"
	AttrContainmentMode            = "ContainmentMode"
	AttrContainmentComparison      = "ContainmentComparison"
	AttrConflictResolution         = "ConflictResolution"
	AttrMessageDisposition         = "MessageDisposition"
	AttrSendMeetingInvitations     = "SendMeetingInvitations"
	AttrSendInvitationsOrCancel    = "SendMeetingInvitationsOrCancellations"
	AttrSendMeetingCancellations   = "SendMeetingCancellations"
	AttrSuppressReadReceipts       = "SuppressReadReceipts"
	AttrDeleteType                 = "DeleteType"
	AttrIndexedPagingOffset        = "IndexedPagingOffset"
	AttrTotalItemsInView           = "TotalItemsInView"
	AttrIncludesLastItemInRange    = "IncludesLastItemInRange"
	AttrMajorVersion               = "MajorVersion"
	AttrMinorVersion               = "MinorVersion"
	AttrMajorBuildNumber           = "MajorBuildNumber"
	AttrMinorBuildNumber           = "MinorBuildNumber"
	AttrDistinguishedPropertySetId = "DistinguishedPropertySetId"
	AttrPropertySetId              = "PropertySetId"
	AttrPropertyTag                = "PropertyTag"
	AttrPropertyName               = "PropertyName"
	AttrPropertyId                 = "PropertyId"
	AttrPropertyType               = "PropertyType"
)
