package stratum

import (
	"encoding"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// DecodeFunc turns a raw string (an environment value or a default literal)
// into a value assignable to targetType.
type DecodeFunc func(raw string, targetType reflect.Type) (any, error)

var builtinDecoders = map[string]DecodeFunc{
	"json": decodeJSON,
	"xml":  decodeXML,
	"text": decodeTextFormat,
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
var jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
var timeDurationType = reflect.TypeOf(time.Duration(0))

// ParseString parses raw into T using the same rules the engine applies to
// environment values: encoding.TextUnmarshaler first, then the kind's strconv
// parser, with JSON for composite types.
func ParseString[T any](raw string) (T, error) {
	var zero T
	got, err := decodeString(raw, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return got.Interface().(T), nil
}

// decodeString applies the canonical string-parsing contract and returns a
// value already converted to targetType.
func decodeString(raw string, targetType reflect.Type) (reflect.Value, error) {
	return decodeWith(decodeCanonical, raw, targetType)
}

func decodeWith(fn DecodeFunc, raw string, targetType reflect.Type) (reflect.Value, error) {
	result, err := fn(raw, targetType)
	if err != nil {
		return reflect.Value{}, err
	}
	value := reflect.ValueOf(result)
	if !value.IsValid() {
		return reflect.Value{}, fmt.Errorf("decoder produced invalid value for %s", targetType)
	}
	if value.Type().AssignableTo(targetType) {
		return value, nil
	}
	// Only named types over the same kind convert; int to string or float
	// to int would silently change the value.
	if value.Kind() == targetType.Kind() && value.Type().ConvertibleTo(targetType) {
		return value.Convert(targetType), nil
	}
	return reflect.Value{}, fmt.Errorf("decoder produced %s, cannot assign to %s", value.Type(), targetType)
}

func decodeCanonical(raw string, targetType reflect.Type) (any, error) {
	if targetType != timeDurationType && reflect.PointerTo(targetType).Implements(textUnmarshalerType) {
		return decodeTextFormat(raw, targetType)
	}
	if targetType.Kind() == reflect.Pointer {
		inner, err := decodeCanonical(raw, targetType.Elem())
		if err != nil {
			return nil, err
		}
		holder := reflect.New(targetType.Elem())
		holder.Elem().Set(reflect.ValueOf(inner).Convert(targetType.Elem()))
		return holder.Interface(), nil
	}
	return decodePrimitive(raw, targetType)
}

func decodeJSON(raw string, targetType reflect.Type) (any, error) {
	holder := reflect.New(targetType)
	if err := json.Unmarshal([]byte(raw), holder.Interface()); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return holder.Elem().Interface(), nil
}

func decodeXML(raw string, targetType reflect.Type) (any, error) {
	holder := reflect.New(targetType)
	if err := xml.Unmarshal([]byte(raw), holder.Interface()); err != nil {
		return nil, fmt.Errorf("xml decode: %w", err)
	}
	return holder.Elem().Interface(), nil
}

func decodeTextFormat(raw string, targetType reflect.Type) (any, error) {
	ptrType := reflect.PointerTo(targetType)
	if ptrType.Implements(textUnmarshalerType) {
		dest := reflect.New(targetType)
		if err := dest.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("text decode: %w", err)
		}
		return dest.Elem().Interface(), nil
	}
	return decodePrimitive(raw, targetType)
}

func decodePrimitive(raw string, targetType reflect.Type) (any, error) {
	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(raw).Convert(targetType).Interface(), nil
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parse bool: %w", err)
		}
		return reflect.ValueOf(v).Convert(targetType).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if targetType == timeDurationType {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("parse duration: %w", err)
			}
			return d, nil
		}
		v, err := strconv.ParseInt(raw, 10, targetType.Bits())
		if err != nil {
			return nil, fmt.Errorf("parse int: %w", err)
		}
		return reflect.ValueOf(v).Convert(targetType).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v, err := strconv.ParseUint(raw, 10, targetType.Bits())
		if err != nil {
			return nil, fmt.Errorf("parse uint: %w", err)
		}
		return reflect.ValueOf(v).Convert(targetType).Interface(), nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, targetType.Bits())
		if err != nil {
			return nil, fmt.Errorf("parse float: %w", err)
		}
		return reflect.ValueOf(v).Convert(targetType).Interface(), nil
	case reflect.Slice:
		if targetType.Elem().Kind() == reflect.Uint8 {
			return reflect.ValueOf([]byte(raw)).Convert(targetType).Interface(), nil
		}
		fallthrough
	case reflect.Struct, reflect.Array, reflect.Map, reflect.Interface:
		return decodeJSON(raw, targetType)
	default:
		ptrType := reflect.PointerTo(targetType)
		switch {
		case ptrType.Implements(textUnmarshalerType):
			return decodeTextFormat(raw, targetType)
		case ptrType.Implements(jsonUnmarshalerType):
			holder := reflect.New(targetType)
			if err := holder.Interface().(json.Unmarshaler).UnmarshalJSON([]byte(raw)); err != nil {
				return nil, fmt.Errorf("json decode: %w", err)
			}
			return holder.Elem().Interface(), nil
		default:
			return nil, fmt.Errorf("unsupported target type %s", targetType)
		}
	}
}
