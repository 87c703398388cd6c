package stratum

import "reflect"

// Resolve converts a merged partial into T. Every field is visited before
// deciding: absent required leaves, including those inside nested partials,
// are all reported in one *BatchError with dotted paths. Absent leaves whose
// resolved field is a pointer or an Opt resolve to nil or absent.
func (s *Schema[P, T]) Resolve(p P) (T, error) {
	var out T
	var batch Batch
	resolveStruct(s.root, reflect.ValueOf(p), reflect.ValueOf(&out).Elem(), "", &batch)
	if err := batch.Err(); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func resolveStruct(node *structNode, p, t reflect.Value, prefix string, b *Batch) {
	for _, f := range node.fields {
		pv := p.Field(f.pIndex)
		tv := t.Field(f.tIndex)
		path := joinPath(prefix, f.name)
		switch f.kind {
		case leafNode:
			resolveLeaf(f, pv, tv, path, b)
		case nestedNode:
			resolveStruct(f.nested, pv, tv, path, b)
		case layerNode:
			out := pv.MethodByName("Resolve").Call(nil)
			if errValue := out[1]; !errValue.IsNil() {
				b.Nest(path, errValue.Interface().(error))
				continue
			}
			tv.Set(out[0])
		}
	}
}

func resolveLeaf(f *fieldNode, pv, tv reflect.Value, path string, b *Batch) {
	o := pv.Interface().(optional)
	if !o.isPresent() {
		if f.target == targetRequired {
			b.Missing(path)
		}
		return
	}
	switch f.target {
	case targetRequired:
		tv.Set(leafValue(o, f.elem))
	case targetPointer:
		ptr := reflect.New(f.elem)
		ptr.Elem().Set(leafValue(o, f.elem))
		tv.Set(ptr)
	case targetOpt:
		tv.Set(pv)
	}
}

func leafValue(o optional, elem reflect.Type) reflect.Value {
	v := o.anyValue()
	if v == nil {
		return reflect.Zero(elem)
	}
	return reflect.ValueOf(v)
}
