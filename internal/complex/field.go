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

package complex

import (
	"reflect"
)

// Guard decides whether the named field of its object may still be
// changed.  It returns a non-nil error, normally an ewserr.ObjectUpdate
// error, once the field is frozen.
type Guard func(field string) error

// Tracker is shared by the fields of one object.  It applies the
// object's Guard before every change and tells listeners about the
// changes that were made.
//
// A nil *Tracker accepts every change and notifies nobody.
type Tracker struct {
	guard     Guard
	listeners []func(field string)
}

// NewTracker returns a Tracker applying guard, which may be nil.
func NewTracker(guard Guard) *Tracker {
	return &Tracker{guard: guard}
}

// OnChange registers fn to be called after each change.
func (t *Tracker) OnChange(fn func(field string)) {
	t.listeners = append(t.listeners, fn)
}

// Check returns the guard's verdict for field.
func (t *Tracker) Check(field string) error {
	if t == nil || t.guard == nil {
		return nil
	}
	return t.guard(field)
}

// Changed notifies the listeners that field changed.
func (t *Tracker) Changed(field string) {
	if t == nil {
		return
	}
	for _, fn := range t.listeners {
		fn(field)
	}
}

// Field is an optional value of an object.  An unset Field is absent
// from both the read and the write path, which is distinct from a set
// field holding the zero value.
//
// Every change goes through Set or Clear, which consult the owner's
// Tracker.  Load stores a value read from the server and bypasses the
// Tracker.
type Field[T any] struct {
	Name    string
	value   T
	present bool
}

// NewField returns an unset field.
func NewField[T any](name string) Field[T] {
	return Field[T]{Name: name}
}

// Get returns the value and whether it is set.
func (f *Field[T]) Get() (T, bool) {
	return f.value, f.present
}

// Value returns the value, or the zero value when unset.
func (f *Field[T]) Value() T {
	return f.value
}

func (f *Field[T]) IsSet() bool {
	return f.present
}

// Set assigns v.  Assigning the current value is not a change and
// notifies nobody, but the guard is still consulted so that a frozen
// field rejects every assignment.
func (f *Field[T]) Set(t *Tracker, v T) error {
	if err := t.Check(f.Name); err != nil {
		return err
	}
	if f.present && reflect.DeepEqual(f.value, v) {
		return nil
	}
	f.value = v
	f.present = true
	t.Changed(f.Name)
	return nil
}

// Clear unsets the field.
func (f *Field[T]) Clear(t *Tracker) error {
	if err := t.Check(f.Name); err != nil {
		return err
	}
	if !f.present {
		return nil
	}
	var zero T
	f.value = zero
	f.present = false
	t.Changed(f.Name)
	return nil
}

// Load stores a value read from the server.
func (f *Field[T]) Load(v T) {
	f.value = v
	f.present = true
}
