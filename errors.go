package stratum

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmpty is returned when an absent container is read. Seeing it from a
	// schema operation indicates an engine bug rather than a user error.
	ErrEmpty = errors.New("stratum: value is absent")

	// ErrMissingField marks a required leaf that stayed absent after merging.
	ErrMissingField = errors.New("missing field")
)

// Kind classifies a field-level failure.
type Kind string

const (
	KindMissingField Kind = "missing_field"
	KindEnvParse     Kind = "env_parse"
	KindEnvLookup    Kind = "env_lookup"
	KindInvalid      Kind = "invalid"
)

// FieldError describes one failure located at a dotted field path.
type FieldError struct {
	Path     string
	Kind     Kind
	Variable string
	Raw      string
	Err      error
}

// Error implements the error interface.
func (f FieldError) Error() string {
	var b strings.Builder
	b.WriteString(f.Path)
	b.WriteString(": ")
	switch f.Kind {
	case KindEnvParse:
		_, _ = fmt.Fprintf(&b, "env %s=%q: %v", f.Variable, f.Raw, f.Err)
	case KindEnvLookup:
		_, _ = fmt.Fprintf(&b, "env %s: %v", f.Variable, f.Err)
	default:
		if f.Err != nil {
			b.WriteString(f.Err.Error())
		} else {
			b.WriteString(string(f.Kind))
		}
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (f FieldError) Unwrap() error {
	return f.Err
}

// BatchError groups every field failure found by one operation. A non-nil
// *BatchError returned from this package always holds at least one field.
type BatchError struct {
	fields []FieldError
}

// Error implements the error interface.
func (b *BatchError) Error() string {
	if b == nil || len(b.fields) == 0 {
		return ""
	}
	parts := make([]string, len(b.fields))
	for i, fieldErr := range b.fields {
		parts[i] = fieldErr.Error()
	}
	return "stratum: configuration errors: " + strings.Join(parts, "; ")
}

// Fields returns a copy of the underlying FieldError slice for inspection.
func (b *BatchError) Fields() []FieldError {
	if b == nil {
		return nil
	}
	out := make([]FieldError, len(b.fields))
	copy(out, b.fields)
	return out
}

// Len returns the number of field failures.
func (b *BatchError) Len() int {
	if b == nil {
		return 0
	}
	return len(b.fields)
}

// Paths returns the path of every failure in order.
func (b *BatchError) Paths() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.fields))
	for i, f := range b.fields {
		out[i] = f.Path
	}
	return out
}

// Unwrap exposes the individual field errors to errors.Is and errors.As.
func (b *BatchError) Unwrap() []error {
	if b == nil {
		return nil
	}
	out := make([]error, len(b.fields))
	for i, f := range b.fields {
		out[i] = f
	}
	return out
}

// Batch accumulates field errors across a recursive walk. The zero value is
// ready to use.
type Batch struct {
	fields []FieldError
}

// Add records a failure.
func (b *Batch) Add(field FieldError) {
	b.fields = append(b.fields, field)
}

// Missing records a missing required field at path.
func (b *Batch) Missing(path string) {
	b.Add(FieldError{Path: path, Kind: KindMissingField, Err: ErrMissingField})
}

// Nest folds err, produced while handling the field at prefix, into the
// batch. A *BatchError has its paths prefixed; ErrEmpty and ErrMissingField
// become a single missing-field entry at prefix; any other error is recorded
// as invalid at prefix.
func (b *Batch) Nest(prefix string, err error) {
	if err == nil {
		return
	}
	var inner *BatchError
	switch {
	case errors.As(err, &inner):
		for _, f := range inner.fields {
			f.Path = joinPath(prefix, f.Path)
			b.fields = append(b.fields, f)
		}
	case errors.Is(err, ErrEmpty), errors.Is(err, ErrMissingField):
		b.Missing(prefix)
	default:
		b.Add(FieldError{Path: prefix, Kind: KindInvalid, Err: err})
	}
}

// Len returns the number of recorded failures.
func (b *Batch) Len() int {
	return len(b.fields)
}

// Err returns nil when nothing was recorded, otherwise a *BatchError holding a
// copy of the failures.
func (b *Batch) Err() error {
	if len(b.fields) == 0 {
		return nil
	}
	out := make([]FieldError, len(b.fields))
	copy(out, b.fields)
	return &BatchError{fields: out}
}

func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	default:
		return prefix + "." + path
	}
}
