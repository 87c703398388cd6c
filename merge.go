package stratum

import "reflect"

// Merge combines two partials of the same shape. For each leaf the result
// holds over's value when present and base's otherwise; nested partials merge
// recursively and hand-written layers use their own Merge. Neither argument is
// modified.
func (s *Schema[P, T]) Merge(base, over P) P {
	out := base
	mergeStruct(s.root, reflect.ValueOf(&out).Elem(), reflect.ValueOf(over))
	return out
}

func mergeStruct(node *structNode, dst, over reflect.Value) {
	for _, f := range node.fields {
		dv := dst.Field(f.pIndex)
		ov := over.Field(f.pIndex)
		switch f.kind {
		case leafNode:
			if ov.Interface().(optional).isPresent() {
				dv.Set(ov)
			}
		case nestedNode:
			mergeStruct(f.nested, dv, ov)
		case layerNode:
			dv.Set(dv.MethodByName("Merge").Call([]reflect.Value{ov})[0])
		}
	}
}
