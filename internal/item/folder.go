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

package item

import (
	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/xmlwire"
)

// Folder is a mailbox folder as returned by the server.
type Folder struct {
	element string
	id      *complex.FolderId
	parent  *complex.FolderId

	folderClass      complex.Field[string]
	displayName      complex.Field[string]
	totalCount       complex.Field[int]
	childFolderCount complex.Field[int]
	unreadCount      complex.Field[int]
}

func (f *Folder) ID() *complex.FolderId             { return f.id }
func (f *Folder) ParentFolderID() *complex.FolderId { return f.parent }
func (f *Folder) FolderClass() string               { return f.folderClass.Value() }
func (f *Folder) DisplayName() string               { return f.displayName.Value() }
func (f *Folder) TotalCount() int                   { return f.totalCount.Value() }
func (f *Folder) ChildFolderCount() int             { return f.childFolderCount.Value() }
func (f *Folder) UnreadCount() int                  { return f.unreadCount.Value() }

// Element returns the element the folder was read from, such as
// "Folder" or "CalendarFolder".
func (f *Folder) Element() string { return f.element }

func (f *Folder) TryReadElementFromXML(r *xmlwire.Reader) (bool, error) {
	if r.Namespace() != xmlwire.Types {
		return false, nil
	}
	switch r.LocalName() {
	case xmlwire.FolderId, xmlwire.ParentFolderId:
		id := &complex.FolderId{}
		local := r.LocalName()
		if err := complex.LoadFromXML(r, xmlwire.Types, local, id); err != nil {
			return false, err
		}
		if local == xmlwire.FolderId {
			f.id = id
		} else {
			f.parent = id
		}
		return true, nil
	case xmlwire.FolderClass:
		return true, loadString(r, &f.folderClass)
	case xmlwire.DisplayName:
		return true, loadString(r, &f.displayName)
	case xmlwire.TotalCount:
		return true, loadParsed(r, &f.totalCount, xmlwire.ParseInt)
	case xmlwire.ChildFolderCount:
		return true, loadParsed(r, &f.childFolderCount, xmlwire.ParseInt)
	case xmlwire.UnreadCount:
		return true, loadParsed(r, &f.unreadCount, xmlwire.ParseInt)
	}
	return false, nil
}

// LoadFolderFromXML reads the folder element the reader is positioned
// on.  Every folder class is read the same way.
func LoadFolderFromXML(r *xmlwire.Reader) (*Folder, error) {
	if !r.IsStart() || r.Namespace() != xmlwire.Types {
		return nil, ewserr.Protocol("expected a folder element, found %s", r.LocalName())
	}
	f := &Folder{element: r.LocalName()}
	if err := complex.LoadFromXML(r, xmlwire.Types, f.element, f); err != nil {
		return nil, err
	}
	if f.id == nil {
		return nil, ewserr.Protocol("folder returned without %s", xmlwire.FolderId)
	}
	return f, nil
}
