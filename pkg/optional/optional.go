// Package optional models a JSON field that can be absent, explicitly null, or
// carry a value. Update payloads use it so "leave unchanged" and "clear" are
// distinct.
package optional

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// State of a Field after decoding.
type State uint8

const (
	Absent State = iota
	Null
	Present
)

// Field is a tri-state JSON value.
type Field[T any] struct {
	state State
	value T
}

// Of returns a Field holding v.
func Of[T any](v T) Field[T] {
	return Field[T]{state: Present, value: v}
}

// NullOf returns an explicitly null Field.
func NullOf[T any]() Field[T] {
	return Field[T]{state: Null}
}

func (f Field[T]) State() State   { return f.state }
func (f Field[T]) IsAbsent() bool { return f.state == Absent }
func (f Field[T]) IsNull() bool   { return f.state == Null }
func (f Field[T]) IsSet() bool    { return f.state == Present }

// Value returns the held value and whether it is present.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.state == Present
}

// UnmarshalJSON is only invoked when the key is present in the payload, so an
// untouched Field stays Absent.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.state, f.value = Null, zero
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.state, f.value = Present, v
	return nil
}

// MarshalJSON writes null for Absent and Null fields.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != Present {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// Apply updates a nullable destination: Absent leaves it, Null clears it,
// Present sets it.
func Apply[T any](dst **T, f Field[T]) {
	switch f.state {
	case Null:
		*dst = nil
	case Present:
		v := f.value
		*dst = &v
	}
}

// NullError is returned when a non-nullable field is explicitly set to null.
type NullError struct {
	Field string
}

func (e *NullError) Error() string {
	return fmt.Sprintf("%s cannot be null", e.Field)
}

// ApplyRequired updates a non-nullable destination. Null is rejected.
func ApplyRequired[T any](dst *T, f Field[T], name string) error {
	switch f.state {
	case Null:
		return &NullError{Field: name}
	case Present:
		*dst = f.value
	}
	return nil
}

// Presence is satisfied by every Field regardless of its type parameter.
type Presence interface {
	IsAbsent() bool
}

// Touched returns the sorted names of the fields a payload mentioned, whether
// set or null.
func Touched(fields map[string]Presence) []string {
	out := make([]string, 0, len(fields))
	for name, f := range fields {
		if !f.IsAbsent() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
