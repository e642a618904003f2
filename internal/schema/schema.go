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

// Package schema holds the definitions of the first-class properties
// the SDK reads and writes.
package schema

import (
	"reflect"
	"time"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

const (
	settable  = propdef.CanSet | propdef.CanUpdate | propdef.CanDelete | propdef.CanFind
	readOnly  = propdef.CanFind
	createdAt = propdef.CanSet
)

var (
	stringType = reflect.TypeOf("")
	intType    = reflect.TypeOf(0)
	boolType   = reflect.TypeOf(false)
	timeType   = reflect.TypeOf(time.Time{})
)

func def(uri, element string, v version.Version, flags propdef.Flags, typ reflect.Type) *propdef.PropertyDefinition {
	return propdef.New(element, uri, element, v, flags, typ)
}

// Item properties, in the order the protocol requires them inside an
// item element.
var (
	MimeContent       = def("item:MimeContent", xmlwire.MimeContent, version.Exchange2007SP1, propdef.CanSet|propdef.CanUpdate|propdef.MustBeExplicitlyLoaded, reflect.TypeOf([]byte(nil)))
	ItemId            = def("item:ItemId", xmlwire.ItemId, version.Exchange2007SP1, readOnly, reflect.TypeOf(complex.ItemId{}))
	ParentFolderId    = def("item:ParentFolderId", xmlwire.ParentFolderId, version.Exchange2007SP1, readOnly, reflect.TypeOf(complex.FolderId{}))
	ItemClass         = def("item:ItemClass", xmlwire.ItemClass, version.Exchange2007SP1, propdef.CanSet|propdef.CanUpdate|propdef.CanFind, stringType)
	Subject           = def("item:Subject", xmlwire.Subject, version.Exchange2007SP1, settable, stringType)
	Body              = def("item:Body", xmlwire.Body, version.Exchange2007SP1, propdef.CanSet|propdef.CanUpdate|propdef.CanDelete|propdef.MustBeExplicitlyLoaded, reflect.TypeOf(complex.MessageBody{}))
	Attachments       = def("item:Attachments", xmlwire.Attachments, version.Exchange2007SP1, createdAt, nil)
	DateTimeReceived  = def("item:DateTimeReceived", xmlwire.DateTimeReceived, version.Exchange2007SP1, readOnly, timeType)
	Size              = def("item:Size", xmlwire.Size, version.Exchange2007SP1, readOnly, intType)
	Categories        = def("item:Categories", xmlwire.Categories, version.Exchange2007SP1, settable, reflect.TypeOf([]string(nil)))
	Importance        = def("item:Importance", xmlwire.Importance, version.Exchange2007SP1, propdef.CanSet|propdef.CanUpdate|propdef.CanFind, stringType)
	HasAttachments    = def("item:HasAttachments", xmlwire.HasAttachments, version.Exchange2007SP1, readOnly, boolType)
	ConversationId    = def("item:ConversationId", xmlwire.ConversationId, version.Exchange2010, readOnly, reflect.TypeOf(complex.ItemId{}))
	Preview           = def("item:Preview", xmlwire.Preview, version.Exchange2013, readOnly, stringType)
	InternetMessageId = def("message:InternetMessageId", xmlwire.InternetMessageId, version.Exchange2007SP1, readOnly, stringType)
	IsRead            = def("message:IsRead", xmlwire.IsRead, version.Exchange2007SP1, propdef.CanSet|propdef.CanUpdate|propdef.CanFind, boolType)
)

// Folder properties, in wire order.
var (
	FolderId         = def("folder:FolderId", xmlwire.FolderId, version.Exchange2007SP1, readOnly, reflect.TypeOf(complex.FolderId{}))
	FolderParentId   = def("folder:ParentFolderId", xmlwire.ParentFolderId, version.Exchange2007SP1, readOnly, reflect.TypeOf(complex.FolderId{}))
	FolderClass      = def("folder:FolderClass", xmlwire.FolderClass, version.Exchange2007SP1, propdef.CanSet|propdef.CanUpdate|propdef.CanFind, stringType)
	DisplayName      = def("folder:DisplayName", xmlwire.DisplayName, version.Exchange2007SP1, settable, stringType)
	TotalCount       = def("folder:TotalCount", xmlwire.TotalCount, version.Exchange2007SP1, readOnly, intType)
	ChildFolderCount = def("folder:ChildFolderCount", xmlwire.ChildFolderCount, version.Exchange2007SP1, readOnly, intType)
	UnreadCount      = def("folder:UnreadCount", xmlwire.UnreadCount, version.Exchange2007SP1, readOnly, intType)
)

// ItemProperties lists the item properties in wire order.
var ItemProperties = []*propdef.PropertyDefinition{
	MimeContent,
	ItemId,
	ParentFolderId,
	ItemClass,
	Subject,
	Body,
	Attachments,
	DateTimeReceived,
	Size,
	Categories,
	Importance,
	HasAttachments,
	ConversationId,
	Preview,
	InternetMessageId,
	IsRead,
}

// FolderProperties lists the folder properties in wire order.
var FolderProperties = []*propdef.PropertyDefinition{
	FolderId,
	FolderParentId,
	FolderClass,
	DisplayName,
	TotalCount,
	ChildFolderCount,
	UnreadCount,
}

var byURI = func() map[string]*propdef.PropertyDefinition {
	m := make(map[string]*propdef.PropertyDefinition)
	for _, d := range ItemProperties {
		m[d.FieldURI()] = d
	}
	for _, d := range FolderProperties {
		m[d.FieldURI()] = d
	}
	return m
}()

// Lookup returns the definition with the given FieldURI.
func Lookup(uri string) (*propdef.PropertyDefinition, bool) {
	d, ok := byURI[uri]
	return d, ok
}

var itemByElement = func() map[string]*propdef.PropertyDefinition {
	m := make(map[string]*propdef.PropertyDefinition)
	for _, d := range ItemProperties {
		m[d.XMLElementName()] = d
	}
	return m
}()

// ItemPropertyByElement returns the item property stored in the named
// child element of an item.
func ItemPropertyByElement(local string) (*propdef.PropertyDefinition, bool) {
	d, ok := itemByElement[local]
	return d, ok
}
