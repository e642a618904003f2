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

package search

import (
	"strconv"
	"strings"

	"github.com/matta/gotews/internal/complex"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/propdef"
	"github.com/matta/gotews/internal/schema"
	"github.com/matta/gotews/internal/xmlwire"
)

type bindFunc func(r *xmlwire.Reader) (bool, error)

func (f bindFunc) TryReadElementFromXML(r *xmlwire.Reader) (bool, error) { return f(r) }

var operatorByElement = func() map[string]Operator {
	m := make(map[string]Operator)
	for op, name := range operatorElements {
		m[name] = Operator(op)
	}
	return m
}()

// Read reads the filter element the reader is positioned on and leaves
// the reader on its end.
func Read(r *xmlwire.Reader) (Filter, error) {
	if !r.IsStart() || r.Namespace() != xmlwire.Types {
		return nil, ewserr.Protocol("expected a search filter, found %s", r.LocalName())
	}
	local := r.LocalName()
	if op, ok := operatorByElement[local]; ok {
		return readComparison(r, op)
	}
	switch local {
	case xmlwire.Contains:
		return readContains(r)
	case xmlwire.Excludes:
		return readExcludes(r)
	case xmlwire.Exists:
		e := &Exists{}
		err := complex.LoadFromXML(r, xmlwire.Types, local, bindFunc(func(r *xmlwire.Reader) (bool, error) {
			return readPath(r, &e.Property)
		}))
		if err != nil {
			return nil, err
		}
		if e.Property == nil {
			return nil, ewserr.Protocol("%s without a property path", local)
		}
		return e, nil
	case xmlwire.Not:
		n := &Not{}
		err := complex.LoadFromXML(r, xmlwire.Types, local, bindFunc(func(r *xmlwire.Reader) (bool, error) {
			f, err := Read(r)
			n.Filter = f
			return err == nil, err
		}))
		if err != nil {
			return nil, err
		}
		if n.Filter == nil {
			return nil, ewserr.Protocol("%s without a filter", local)
		}
		return n, nil
	case xmlwire.And, xmlwire.Or:
		c := &Collection{Operator: And}
		if local == xmlwire.Or {
			c.Operator = Or
		}
		err := complex.LoadFromXML(r, xmlwire.Types, local, bindFunc(func(r *xmlwire.Reader) (bool, error) {
			f, err := Read(r)
			if err != nil {
				return false, err
			}
			c.Filters = append(c.Filters, f)
			return true, nil
		}))
		return c, err
	}
	return nil, ewserr.Protocol("unknown search filter %s", local)
}

// readPath reads a property path into *d if the reader is on one.
func readPath(r *xmlwire.Reader, d *propdef.Definition) (bool, error) {
	switch {
	case r.IsStartElement(xmlwire.Types, xmlwire.FieldURI):
		uri := r.ReadAttributeValue(xmlwire.AttrFieldURI)
		p, ok := schema.Lookup(uri)
		if !ok {
			return false, ewserr.Protocol("unknown property path %q", uri)
		}
		*d = p
		return true, r.SkipCurrentElement()
	case r.IsStartElement(xmlwire.Types, xmlwire.ExtendedFieldURI):
		p, err := propdef.LoadFromXML(r)
		if err != nil {
			return false, err
		}
		*d = p
		return true, nil
	}
	return false, nil
}

func readComparison(r *xmlwire.Reader, op Operator) (*Comparison, error) {
	c := &Comparison{Op: op}
	err := complex.LoadFromXML(r, xmlwire.Types, op.String(), bindFunc(func(r *xmlwire.Reader) (bool, error) {
		if !r.IsStartElement(xmlwire.Types, xmlwire.FieldURIOrConstant) {
			return readPath(r, &c.Property)
		}
		return true, complex.LoadFromXML(r, xmlwire.Types, xmlwire.FieldURIOrConstant, bindFunc(func(r *xmlwire.Reader) (bool, error) {
			if r.IsStartElement(xmlwire.Types, xmlwire.Constant) {
				c.Value = r.ReadAttributeValue(xmlwire.AttrValue)
				return true, r.SkipCurrentElement()
			}
			return readPath(r, &c.Other)
		}))
	}))
	if err != nil {
		return nil, err
	}
	if c.Property == nil {
		return nil, ewserr.Protocol("%s without a property path", op)
	}
	return c, nil
}

func readContains(r *xmlwire.Reader) (*ContainsSubstring, error) {
	c := &ContainsSubstring{
		Mode:       ContainmentMode(r.ReadAttributeValue(xmlwire.AttrContainmentMode)),
		Comparison: ContainmentComparison(r.ReadAttributeValue(xmlwire.AttrContainmentComparison)),
	}
	err := complex.LoadFromXML(r, xmlwire.Types, xmlwire.Contains, bindFunc(func(r *xmlwire.Reader) (bool, error) {
		if r.IsStartElement(xmlwire.Types, xmlwire.Constant) {
			c.Value = r.ReadAttributeValue(xmlwire.AttrValue)
			return true, r.SkipCurrentElement()
		}
		return readPath(r, &c.Property)
	}))
	if err != nil {
		return nil, err
	}
	if c.Property == nil {
		return nil, ewserr.Protocol("%s without a property path", xmlwire.Contains)
	}
	return c, nil
}

func readExcludes(r *xmlwire.Reader) (*ExcludesBitmask, error) {
	f := Excludes(nil, 0)
	err := complex.LoadFromXML(r, xmlwire.Types, xmlwire.Excludes, bindFunc(func(r *xmlwire.Reader) (bool, error) {
		if r.IsStartElement(xmlwire.Types, xmlwire.Bitmask) {
			v, err := parseBitmask(r.ReadAttributeValue(xmlwire.AttrValue))
			if err != nil {
				return false, err
			}
			f.bitmask.Load(v)
			return true, r.SkipCurrentElement()
		}
		return readPath(r, &f.Property)
	}))
	if err != nil {
		return nil, err
	}
	if f.Property == nil {
		return nil, ewserr.Protocol("%s without a property path", xmlwire.Excludes)
	}
	return f, nil
}

// parseBitmask parses a hexadecimal bitmask with an optional 0x prefix.
func parseBitmask(s string) (int, error) {
	h := strings.TrimSpace(s)
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	v, err := strconv.ParseInt(h, 16, 64)
	if err != nil {
		return 0, ewserr.Protocol("invalid bitmask %q", s)
	}
	return int(v), nil
}
