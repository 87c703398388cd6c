package stratum

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Schema is the compiled declaration metadata for a partial type P and the
// resolved type T it mirrors. It is immutable once built and safe for
// concurrent use.
//
// P must be a struct whose exported fields are either Opt[X] leaves, nested
// partial structs, or hand-written layer types (see Layer). T must have an
// exported field of the same name for each of them: X for a required leaf,
// *X or Opt[X] for a leaf that may stay absent, the nested resolved struct,
// or the type returned by the layer's Resolve method.
type Schema[P, T any] struct {
	root  *structNode
	paths map[string]string
}

type nodeKind int

const (
	leafNode nodeKind = iota
	nestedNode
	layerNode
)

type targetMode int

const (
	targetRequired targetMode = iota
	targetPointer
	targetOpt
)

type structNode struct {
	partialType  reflect.Type
	resolvedType reflect.Type
	fields       []*fieldNode
}

type fieldNode struct {
	kind   nodeKind
	name   string
	pIndex int
	tIndex int

	elem         reflect.Type
	target       targetMode
	envNames     []string
	decode       DecodeFunc
	defaultRaw   string
	hasDefault   bool

	nested *structNode

	layerDefaults bool
	layerFromEnv  bool
}

// FieldInfo describes one leaf of a schema.
type FieldInfo struct {
	Path       string
	EnvNames   []string
	Default    string
	HasDefault bool
	Optional   bool
}

var (
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
	contextType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	envProviderType = reflect.TypeOf((*EnvProvider)(nil)).Elem()
)

// NewSchema compiles the declaration metadata of P against T. Errors describe
// declarations that cannot work: malformed tags, a shape mismatch between P
// and T, or a default literal that does not parse.
func NewSchema[P, T any](opts ...SchemaOption) (*Schema[P, T], error) {
	cfg := newSchemaConfig(opts)
	pt := reflect.TypeOf((*P)(nil)).Elem()
	tt := reflect.TypeOf((*T)(nil)).Elem()
	paths := make(map[string]string)
	root, err := compileStruct(pt, tt, cfg, "", "", paths)
	if err != nil {
		return nil, err
	}
	return &Schema[P, T]{root: root, paths: paths}, nil
}

// MustSchema is like NewSchema but panics on a declaration error. It is meant
// for package-level variables.
func MustSchema[P, T any](opts ...SchemaOption) *Schema[P, T] {
	s, err := NewSchema[P, T](opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func compileStruct(pt, tt reflect.Type, cfg *schemaConfig, prefix, goPrefix string, paths map[string]string) (*structNode, error) {
	if pt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("stratum: partial type %s must be a struct", pt)
	}
	if tt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("stratum: resolved type %s must be a struct", tt)
	}
	node := &structNode{partialType: pt, resolvedType: tt}

	targets := make(map[string]reflect.StructField, tt.NumField())
	for i := 0; i < tt.NumField(); i++ {
		field := tt.Field(i)
		if field.IsExported() {
			targets[field.Name] = field
		}
	}

	for i := 0; i < pt.NumField(); i++ {
		field := pt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, err := parseFieldTag(field.Tag.Get("stratum"))
		if err != nil {
			return nil, fmt.Errorf("stratum: %s.%s: %w", pt, field.Name, err)
		}
		if tag.Skip {
			delete(targets, field.Name)
			continue
		}
		target, ok := targets[field.Name]
		if !ok {
			return nil, fmt.Errorf("stratum: partial field %s.%s has no counterpart in %s", pt, field.Name, tt)
		}
		delete(targets, field.Name)

		fn := &fieldNode{
			name:   segmentName(field, tag),
			pIndex: i,
			tIndex: target.Index[0],
		}
		path := joinPath(prefix, fn.name)
		goPath := joinPath(goPrefix, field.Name)
		paths[goPath] = path

		switch {
		case field.Type.Kind() == reflect.Struct && field.Type.Implements(optionalType):
			if err := compileLeaf(fn, field, target, tag, cfg, path); err != nil {
				return nil, err
			}
		case isLayer(field.Type):
			if err := noLeafKeys(tag, path); err != nil {
				return nil, err
			}
			resolve, _ := field.Type.MethodByName("Resolve")
			if out := resolve.Type.Out(0); out != target.Type {
				return nil, fmt.Errorf("stratum: %s: layer %s resolves to %s, resolved field is %s", path, field.Type, out, target.Type)
			}
			fn.kind = layerNode
			fn.layerDefaults = hasDefaultsMethod(field.Type)
			fn.layerFromEnv = hasFromEnvMethod(field.Type)
		case field.Type.Kind() == reflect.Struct:
			if err := noLeafKeys(tag, path); err != nil {
				return nil, err
			}
			nested, err := compileStruct(field.Type, target.Type, cfg, path, goPath, paths)
			if err != nil {
				return nil, err
			}
			fn.kind = nestedNode
			fn.nested = nested
		default:
			return nil, fmt.Errorf("stratum: %s: field %s.%s must be an Opt, a nested partial struct, or a layer", path, pt, field.Name)
		}
		node.fields = append(node.fields, fn)
	}

	if len(targets) > 0 {
		names := make([]string, 0, len(targets))
		for name := range targets {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("stratum: resolved fields %s of %s have no counterpart in %s", strings.Join(names, ", "), tt, pt)
	}
	return node, nil
}

func compileLeaf(fn *fieldNode, field, target reflect.StructField, tag fieldTag, cfg *schemaConfig, path string) error {
	fn.kind = leafNode
	fn.elem = reflect.Zero(field.Type).Interface().(optional).elemType()
	switch target.Type {
	case fn.elem:
		fn.target = targetRequired
	case reflect.PointerTo(fn.elem):
		fn.target = targetPointer
	case field.Type:
		fn.target = targetOpt
	default:
		return fmt.Errorf("stratum: %s: resolved type %s does not match %s (want %s, *%s or the same Opt)",
			path, target.Type, field.Type, fn.elem, fn.elem)
	}
	fn.envNames = tag.EnvKeys

	format := tag.Format
	if format == "" && cfg.defaultFormat != "" && needsStructuredFormat(fn.elem) {
		format = cfg.defaultFormat
	}
	if format == "" {
		fn.decode = decodeCanonical
	} else {
		decoder, ok := cfg.decoders[format]
		if !ok {
			return fmt.Errorf("stratum: %s: unknown format %q", path, format)
		}
		fn.decode = decoder
	}

	if tag.HasDefault {
		if _, err := decodeWith(fn.decode, tag.DefaultValue, fn.elem); err != nil {
			return fmt.Errorf("stratum: %s: default %q: %w", path, tag.DefaultValue, err)
		}
		fn.hasDefault = true
		fn.defaultRaw = tag.DefaultValue
	}
	return nil
}

func noLeafKeys(tag fieldTag, path string) error {
	if len(tag.EnvKeys) > 0 || tag.HasDefault || tag.Format != "" {
		return fmt.Errorf("stratum: %s: env, default and format apply to Opt leaves only", path)
	}
	return nil
}

// segmentName picks the path segment for a field: the `name` tag key, then
// the json name, then the Go field name.
func segmentName(field reflect.StructField, tag fieldTag) string {
	if tag.Name != "" {
		return tag.Name
	}
	if jsonTag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(jsonTag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

// New returns a partial with every leaf absent.
func (s *Schema[P, T]) New() P {
	var p P
	return p
}

// Default returns a partial with every leaf that declares a default set to
// it. Leaves without a default stay absent, so the result need not resolve.
func (s *Schema[P, T]) Default() P {
	var p P
	applyDefaults(s.root, reflect.ValueOf(&p).Elem())
	return p
}

func applyDefaults(node *structNode, v reflect.Value) {
	for _, f := range node.fields {
		fv := v.Field(f.pIndex)
		switch f.kind {
		case leafNode:
			if f.hasDefault {
				// Decoded per call so pointers, maps and slices are never
				// shared between partials. The literal was checked at compile.
				value, err := decodeWith(f.decode, f.defaultRaw, f.elem)
				if err == nil {
					setLeaf(fv, value)
				}
			}
		case nestedNode:
			applyDefaults(f.nested, fv)
		case layerNode:
			if f.layerDefaults {
				fv.Set(fv.MethodByName("Defaults").Call(nil)[0])
			}
		}
	}
}

// Fields lists every leaf of the schema in declaration order, descending
// into nested partials.
func (s *Schema[P, T]) Fields() []FieldInfo {
	var out []FieldInfo
	collectFields(s.root, "", &out)
	return out
}

func collectFields(node *structNode, prefix string, out *[]FieldInfo) {
	for _, f := range node.fields {
		path := joinPath(prefix, f.name)
		switch f.kind {
		case leafNode:
			*out = append(*out, FieldInfo{
				Path:       path,
				EnvNames:   append([]string(nil), f.envNames...),
				Default:    f.defaultRaw,
				HasDefault: f.hasDefault,
				Optional:   f.target != targetRequired,
			})
		case nestedNode:
			collectFields(f.nested, path, out)
		}
	}
}

// fieldPath maps a Go field path of T ("Nested.Foo") to the schema's dotted
// path ("nested.foo").
func (s *Schema[P, T]) fieldPath(goPath string) (string, bool) {
	path, ok := s.paths[goPath]
	return path, ok
}

func setLeaf(fv reflect.Value, value reflect.Value) {
	fv.Addr().Interface().(optionalSetter).setAny(value.Interface())
}

func needsStructuredFormat(t reflect.Type) bool {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return false
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Interface:
		return true
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}
