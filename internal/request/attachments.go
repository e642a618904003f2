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
	"context"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/item"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/version"
	"github.com/matta/gotews/internal/xmlwire"
)

// AttachmentResponse is the response for one attachment of a
// GetAttachment.  The content is loaded into the attachment that was
// requested at the same position.
type AttachmentResponse struct {
	ServiceResponse

	Attachment *item.Attachment
}

func (r *AttachmentResponse) TryReadElementFromXML(rd *xmlwire.Reader) (bool, error) {
	if !rd.IsStartElement(xmlwire.Messages, xmlwire.Attachments) {
		return false, nil
	}
	return true, complex.LoadFromXML(rd, xmlwire.Messages, xmlwire.Attachments, bindFunc(func(rd *xmlwire.Reader) (bool, error) {
		return true, r.Attachment.Reload(rd)
	}))
}

// GetAttachment loads the content of saved attachments.
type GetAttachment struct {
	Request

	Attachments []*item.Attachment

	// BodyType and AdditionalProperties shape item attachments.  Both
	// are optional.
	BodyType             *propdef.BodyType
	AdditionalProperties []propdef.Definition
}

func (g *GetAttachment) XMLElementName() string         { return xmlwire.GetAttachment }
func (g *GetAttachment) ResponseXMLElementName() string { return responseName(xmlwire.GetAttachment) }
func (g *GetAttachment) ResponseMessageXMLElementName() string {
	return responseMessageName(xmlwire.GetAttachment)
}
func (g *GetAttachment) MinimumRequiredServerVersion() version.Version {
	return version.Exchange2007SP1
}
func (g *GetAttachment) ExpectedResponseMessageCount() int { return len(g.Attachments) }

func (g *GetAttachment) CreateServiceResponse(index int) *AttachmentResponse {
	return &AttachmentResponse{Attachment: g.Attachments[index]}
}

func (g *GetAttachment) Validate(v version.Version) error {
	if len(g.Attachments) == 0 {
		return ewserr.ArgumentMissing("attachments")
	}
	for _, a := range g.Attachments {
		if a == nil {
			return ewserr.ArgumentNull("attachments")
		}
		if a.IsNew() {
			return ewserr.Validation("attachment %q has not been saved", a.Name())
		}
	}
	for _, d := range g.AdditionalProperties {
		if d == nil {
			return ewserr.ArgumentNull("additionalProperties")
		}
		if err := version.Require(d.PrintableName(), d.Version(), v); err != nil {
			return err
		}
	}
	return nil
}

func (g *GetAttachment) WriteAttributesToXML(w *xmlwire.Writer) {}

func (g *GetAttachment) WriteElementsToXML(w *xmlwire.Writer) {
	if g.BodyType != nil || len(g.AdditionalProperties) > 0 {
		w.WriteStartElement(xmlwire.Messages, xmlwire.AttachmentShape)
		if g.BodyType != nil {
			w.WriteElementValue(xmlwire.Types, xmlwire.BodyType, *g.BodyType)
		}
		if len(g.AdditionalProperties) > 0 {
			w.WriteStartElement(xmlwire.Types, xmlwire.AdditionalProperties)
			for _, d := range g.AdditionalProperties {
				d.WriteToXML(w)
			}
			w.WriteEndElement()
		}
		w.WriteEndElement()
	}
	w.WriteStartElement(xmlwire.Messages, xmlwire.AttachmentIds)
	for _, a := range g.Attachments {
		w.WriteStartElement(xmlwire.Types, xmlwire.AttachmentId)
		w.WriteAttributeValue(xmlwire.AttrId, a.ID())
		w.WriteEndElement()
	}
	w.WriteEndElement()
}

func (g *GetAttachment) Execute(ctx context.Context) ([]*AttachmentResponse, error) {
	return Execute[*AttachmentResponse](ctx, &g.Request, g)
}
