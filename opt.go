package stratum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Opt is a single configuration slot that is either absent or holds a value.
// The zero value is absent, so a freshly declared partial has every leaf
// absent without further initialisation.
type Opt[T any] struct {
	value T
	set   bool
}

// Absent returns an empty container.
func Absent[T any]() Opt[T] {
	return Opt[T]{}
}

// Present returns a container holding v.
func Present[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// IsPresent reports whether the container holds a value.
func (o Opt[T]) IsPresent() bool {
	return o.set
}

// Value returns the held value or ErrEmpty when the container is absent.
func (o Opt[T]) Value() (T, error) {
	if !o.set {
		var zero T
		return zero, ErrEmpty
	}
	return o.value, nil
}

// Get returns the held value and whether it was present.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// Or returns o when present, otherwise fallback.
func (o Opt[T]) Or(fallback Opt[T]) Opt[T] {
	if o.set {
		return o
	}
	return fallback
}

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (o Opt[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// Equal reports whether both containers are absent or both hold deeply equal
// values.
func (o Opt[T]) Equal(other Opt[T]) bool {
	if o.set != other.set {
		return false
	}
	return !o.set || reflect.DeepEqual(o.value, other.value)
}

func (o Opt[T]) String() string {
	if !o.set {
		return "<absent>"
	}
	return fmt.Sprint(o.value)
}

// MarshalJSON encodes an absent container as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON fills the container. A JSON null leaves it absent, as does a
// key missing from the document (UnmarshalJSON is never called then).
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		// Documents carry durations and similar values as strings.
		var raw string
		if json.Unmarshal(data, &raw) != nil {
			return err
		}
		parsed, perr := ParseString[T](raw)
		if perr != nil {
			return err
		}
		v = parsed
	}
	*o = Present(v)
	return nil
}

// optional is the reflection-facing view of Opt used by the schema walker.
type optional interface {
	isPresent() bool
	elemType() reflect.Type
	anyValue() any
}

type optionalSetter interface {
	setAny(v any)
}

func (o Opt[T]) isPresent() bool { return o.set }

func (o Opt[T]) elemType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (o Opt[T]) anyValue() any { return o.value }

func (o *Opt[T]) setAny(v any) {
	*o = Present(v.(T))
}

var optionalType = reflect.TypeOf((*optional)(nil)).Elem()
