package stratum

import (
	"context"
	"reflect"
)

// lookupCandidates queries names in declared order and decodes the first
// value the provider reports. It stops at the first hit even when decoding
// fails, and at the first lookup error, recording either at path.
func lookupCandidates(ctx context.Context, b *Batch, env EnvProvider, path string, names []string, decode DecodeFunc, elem reflect.Type) (reflect.Value, bool) {
	if env == nil {
		return reflect.Value{}, false
	}
	for _, name := range names {
		raw, ok, err := env.Lookup(ctx, name)
		if err != nil {
			b.Add(FieldError{Path: path, Kind: KindEnvLookup, Variable: name, Err: err})
			return reflect.Value{}, false
		}
		if !ok {
			continue
		}
		value, err := decodeWith(decode, raw, elem)
		if err != nil {
			b.Add(FieldError{Path: path, Kind: KindEnvParse, Variable: name, Raw: raw, Err: err})
			return reflect.Value{}, false
		}
		return value, true
	}
	return reflect.Value{}, false
}

// FromEnv builds a partial from env. Every leaf with candidate names is
// attempted; leaves without names stay absent. When any leaf fails the
// returned error is a *BatchError and the returned partial still carries the
// leaves that loaded.
func (s *Schema[P, T]) FromEnv(ctx context.Context, env EnvProvider) (P, error) {
	var p P
	var batch Batch
	loadEnvStruct(ctx, s.root, reflect.ValueOf(&p).Elem(), env, "", &batch)
	return p, batch.Err()
}

func loadEnvStruct(ctx context.Context, node *structNode, v reflect.Value, env EnvProvider, prefix string, b *Batch) {
	for _, f := range node.fields {
		fv := v.Field(f.pIndex)
		path := joinPath(prefix, f.name)
		switch f.kind {
		case leafNode:
			if len(f.envNames) == 0 {
				continue
			}
			if value, ok := lookupCandidates(ctx, b, env, path, f.envNames, f.decode, f.elem); ok {
				setLeaf(fv, value)
			}
		case nestedNode:
			loadEnvStruct(ctx, f.nested, fv, env, path, b)
		case layerNode:
			if !f.layerFromEnv {
				continue
			}
			if env == nil {
				env = MapEnv(nil)
			}
			out := fv.MethodByName("FromEnv").Call([]reflect.Value{
				reflect.ValueOf(&ctx).Elem(),
				reflect.ValueOf(&env).Elem(),
			})
			fv.Set(out[0])
			if errValue := out[1]; !errValue.IsNil() {
				b.Nest(path, errValue.Interface().(error))
			}
		}
	}
}
