package stratum

import (
	"context"
	"reflect"
)

// Engine is the partial contract: build an empty or defaulted partial, load
// one from an EnvProvider, merge two of them, and resolve the result. A
// *Schema is an Engine; Manual adapts hand-written partials to the same
// contract so either can drive a Loader.
type Engine[P, T any] interface {
	New() P
	Default() P
	Merge(base, over P) P
	FromEnv(ctx context.Context, env EnvProvider) (P, error)
	Resolve(p P) (T, error)
}

// Layer is implemented by hand-written partials. Merge must be total and
// associative. Resolve reports failures as a *BatchError, ErrMissingField or
// ErrEmpty so enclosing partials can fold them into their own batch.
//
// A Layer may also implement Defaulter and EnvLoader. Used as a field of a
// schema-built partial, a Layer must declare its methods on the value
// receiver; the schema then delegates to it instead of walking it.
type Layer[P, T any] interface {
	Merge(other P) P
	Resolve() (T, error)
}

// Defaulter supplies the default layer of a hand-written partial.
type Defaulter[P any] interface {
	Defaults() P
}

// EnvLoader populates a hand-written partial from an EnvProvider.
type EnvLoader[P any] interface {
	FromEnv(ctx context.Context, env EnvProvider) (P, error)
}

// HasPartial links a resolved type to its partial so callers can name the
// pair once, e.g. SchemaFor[Config, ConfigPartial].
type HasPartial[P any] interface {
	Partial() P
}

// SchemaFor compiles the schema of T's linked partial.
func SchemaFor[T HasPartial[P], P any](opts ...SchemaOption) (*Schema[P, T], error) {
	return NewSchema[P, T](opts...)
}

// MergeAll folds layers left to right, so later layers win.
func MergeAll[P, T any](e Engine[P, T], layers ...P) P {
	out := e.New()
	for _, layer := range layers {
		out = e.Merge(out, layer)
	}
	return out
}

type manual[P Layer[P, T], T any] struct{}

// Manual returns an Engine for a hand-written partial type.
func Manual[P Layer[P, T], T any]() Engine[P, T] {
	return manual[P, T]{}
}

func (manual[P, T]) New() P {
	var p P
	return p
}

func (manual[P, T]) Default() P {
	var p P
	if d, ok := any(p).(Defaulter[P]); ok {
		return d.Defaults()
	}
	return p
}

func (manual[P, T]) Merge(base, over P) P {
	return base.Merge(over)
}

func (manual[P, T]) FromEnv(ctx context.Context, env EnvProvider) (P, error) {
	var p P
	if l, ok := any(p).(EnvLoader[P]); ok {
		if env == nil {
			env = MapEnv(nil)
		}
		return l.FromEnv(ctx, env)
	}
	return p, nil
}

func (manual[P, T]) Resolve(p P) (T, error) {
	return p.Resolve()
}

// Require resolves a required leaf of a hand-written partial, recording a
// missing-field error at path when it is absent.
func Require[T any](b *Batch, path string, o Opt[T]) T {
	v, ok := o.Get()
	if !ok {
		b.Missing(path)
	}
	return v
}

// LoadEnv looks up names in order and parses the first value found into T,
// recording lookup or parse failures at path. Hand-written partials use it to
// follow the same rules as schema-built ones.
func LoadEnv[T any](ctx context.Context, b *Batch, env EnvProvider, path string, names ...string) Opt[T] {
	var out Opt[T]
	elem := reflect.TypeOf((*T)(nil)).Elem()
	if value, ok := lookupCandidates(ctx, b, env, path, names, decodeCanonical, elem); ok {
		out = Present(value.Interface().(T))
	}
	return out
}

func isLayer(t reflect.Type) bool {
	merge, ok := t.MethodByName("Merge")
	if !ok || merge.Type.NumIn() != 2 || merge.Type.In(1) != t ||
		merge.Type.NumOut() != 1 || merge.Type.Out(0) != t {
		return false
	}
	resolve, ok := t.MethodByName("Resolve")
	if !ok || resolve.Type.NumIn() != 1 || resolve.Type.NumOut() != 2 || resolve.Type.Out(1) != errorType {
		return false
	}
	return true
}

func hasDefaultsMethod(t reflect.Type) bool {
	m, ok := t.MethodByName("Defaults")
	return ok && m.Type.NumIn() == 1 && m.Type.NumOut() == 1 && m.Type.Out(0) == t
}

func hasFromEnvMethod(t reflect.Type) bool {
	m, ok := t.MethodByName("FromEnv")
	return ok && m.Type.NumIn() == 3 &&
		m.Type.In(1) == contextType && m.Type.In(2) == envProviderType &&
		m.Type.NumOut() == 2 && m.Type.Out(0) == t && m.Type.Out(1) == errorType
}
