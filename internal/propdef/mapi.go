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

package propdef

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matta/gotews/internal/ewserr"
	"github.com/matta/gotews/internal/xmlwire"
	"github.com/pkg/errors"
)

// MapiType is the server's type tag for an extended property.
type MapiType int

const (
	ApplicationTime MapiType = iota
	ApplicationTimeArray
	Binary
	BinaryArray
	Boolean
	CLSID
	CLSIDArray
	Currency
	CurrencyArray
	Double
	DoubleArray
	Error
	Float
	Integer
	IntegerArray
	Long
	LongArray
	Null
	Object
	ObjectArray
	Short
	ShortArray
	SystemTime
	SystemTimeArray
	String
	StringArray
)

var mapiTypeNames = [...]string{
	ApplicationTime:      "ApplicationTime",
	ApplicationTimeArray: "ApplicationTimeArray",
	Binary:               "Binary",
	BinaryArray:          "BinaryArray",
	Boolean:              "Boolean",
	CLSID:                "CLSID",
	CLSIDArray:           "CLSIDArray",
	Currency:             "Currency",
	CurrencyArray:        "CurrencyArray",
	Double:               "Double",
	DoubleArray:          "DoubleArray",
	Error:                "Error",
	Float:                "Float",
	Integer:              "Integer",
	IntegerArray:         "IntegerArray",
	Long:                 "Long",
	LongArray:            "LongArray",
	Null:                 "Null",
	Object:               "Object",
	ObjectArray:          "ObjectArray",
	Short:                "Short",
	ShortArray:           "ShortArray",
	SystemTime:           "SystemTime",
	SystemTimeArray:      "SystemTimeArray",
	String:               "String",
	StringArray:          "StringArray",
}

func (t MapiType) String() string {
	if t < 0 || int(t) >= len(mapiTypeNames) {
		return fmt.Sprintf("MapiType(%d)", int(t))
	}
	return mapiTypeNames[t]
}

// ParseMapiType returns the MAPI type with the given wire name.
func ParseMapiType(s string) (MapiType, error) {
	for i, name := range mapiTypeNames {
		if name == s {
			return MapiType(i), nil
		}
	}
	return 0, ewserr.Protocol("unknown MAPI type %q", s)
}

// runtimeTypes maps MAPI types to Go types.  Null, Object and
// ObjectArray are defined by the wire format but have no mapping.
var runtimeTypes = map[MapiType]reflect.Type{
	ApplicationTime:      reflect.TypeOf(float64(0)),
	ApplicationTimeArray: reflect.TypeOf([]float64(nil)),
	Binary:               reflect.TypeOf([]byte(nil)),
	BinaryArray:          reflect.TypeOf([][]byte(nil)),
	Boolean:              reflect.TypeOf(false),
	CLSID:                reflect.TypeOf(uuid.UUID{}),
	CLSIDArray:           reflect.TypeOf([]uuid.UUID(nil)),
	Currency:             reflect.TypeOf(int64(0)),
	CurrencyArray:        reflect.TypeOf([]int64(nil)),
	Double:               reflect.TypeOf(float64(0)),
	DoubleArray:          reflect.TypeOf([]float64(nil)),
	Error:                reflect.TypeOf(int32(0)),
	Float:                reflect.TypeOf(float32(0)),
	Integer:              reflect.TypeOf(int32(0)),
	IntegerArray:         reflect.TypeOf([]int32(nil)),
	Long:                 reflect.TypeOf(int64(0)),
	LongArray:            reflect.TypeOf([]int64(nil)),
	Short:                reflect.TypeOf(int16(0)),
	ShortArray:           reflect.TypeOf([]int16(nil)),
	SystemTime:           reflect.TypeOf(time.Time{}),
	SystemTimeArray:      reflect.TypeOf([]time.Time(nil)),
	String:               reflect.TypeOf(""),
	StringArray:          reflect.TypeOf([]string(nil)),
}

// RuntimeType returns the Go type of values of t.  A MAPI type with no
// mapping is a programming error and RuntimeType panics.  Values read
// from or written to the wire go through ParseValue and FormatValue,
// which report it as an error instead.
func (t MapiType) RuntimeType() reflect.Type {
	rt, ok := runtimeTypes[t]
	if !ok {
		panic(fmt.Sprintf("propdef: MAPI type %v has no Go type", t))
	}
	return rt
}

// IsArray reports whether values of t are multi-valued.
func (t MapiType) IsArray() bool {
	return strings.HasSuffix(t.String(), "Array")
}

// elem returns the scalar type of an array type.
func (t MapiType) elem() MapiType {
	if !t.IsArray() {
		return t
	}
	e, err := ParseMapiType(strings.TrimSuffix(t.String(), "Array"))
	if err != nil {
		panic(err)
	}
	return e
}

// ParseValue converts wire strings to a value of t's Go type.  Scalar
// types take exactly one string.
func ParseValue(t MapiType, values []string) (interface{}, error) {
	rt, ok := runtimeTypes[t]
	if !ok {
		return nil, ewserr.Protocol("MAPI type %v has no Go mapping", t)
	}
	if !t.IsArray() {
		if len(values) != 1 {
			return nil, ewserr.Protocol("MAPI type %v expects one value, got %d", t, len(values))
		}
		return parseScalar(t, values[0])
	}
	out := reflect.MakeSlice(rt, 0, len(values))
	for _, s := range values {
		v, err := parseScalar(t.elem(), s)
		if err != nil {
			return nil, err
		}
		out = reflect.Append(out, reflect.ValueOf(v))
	}
	return out.Interface(), nil
}

func parseScalar(t MapiType, s string) (interface{}, error) {
	var v interface{}
	var err error
	switch t {
	case ApplicationTime, Double:
		v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	case Float:
		var f float64
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 32)
		v = float32(f)
	case Binary:
		v, err = xmlwire.ParseBase64(s)
	case Boolean:
		v, err = xmlwire.ParseBool(s)
	case CLSID:
		v, err = uuid.Parse(strings.TrimSpace(s))
	case Currency, Long:
		v, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case Error, Integer:
		var n int64
		n, err = strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		v = int32(n)
	case Short:
		var n int64
		n, err = strconv.ParseInt(strings.TrimSpace(s), 10, 16)
		v = int16(n)
	case SystemTime:
		v, err = xmlwire.ParseTime(s)
	case String:
		v = s
	default:
		return nil, errors.Errorf("no conversion for MAPI type %v", t)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %v value %q", t, s)
	}
	return v, nil
}

// FormatValue converts a value of t's Go type to wire strings.
func FormatValue(t MapiType, v interface{}) ([]string, error) {
	rt, ok := runtimeTypes[t]
	if !ok {
		return nil, ewserr.Validation("MAPI type %v has no Go mapping", t)
	}
	if v == nil {
		return nil, ewserr.ArgumentNull("value")
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != rt {
		return nil, ewserr.Validation("value of type %T does not match MAPI type %v", v, t)
	}
	if !t.IsArray() {
		s, err := xmlwire.FormatValue(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s, err := xmlwire.FormatValue(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
