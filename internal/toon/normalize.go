package toon

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/go-json-experiment/json"
)

// normalize converts v into the closed set of shapes the writer understands:
// nil, bool, string, int64, uint64, float64, map[string]any and []any.
func (e *Encoder) normalize(v any, depth int) (any, error) {
	if depth > e.maxDepth {
		return nil, ErrMaxDepth
	}

	switch val := v.(type) {
	case nil, bool, string, int64, uint64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return uint64(val), nil
	case float32:
		return float64(val), nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			n, err := e.normalize(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			n, err := e.normalize(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case json.Marshaler, encoding.TextMarshaler:
		return e.roundTrip(val, depth)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return e.normalize(rv.Elem().Interface(), depth+1)
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// byte slices follow JSON and become base64 strings
			return e.roundTrip(v, depth)
		}
		out := make([]any, rv.Len())
		for i := range out {
			n, err := e.normalize(rv.Index(i).Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return e.roundTrip(v, depth)
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			n, err := e.normalize(iter.Value().Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = n
		}
		return out, nil
	case reflect.Struct:
		return e.roundTrip(v, depth)
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// roundTrip reduces arbitrary values to their JSON data model.
func (e *Encoder) roundTrip(v any, depth int) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrUnsupportedValue, v, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrUnsupportedValue, v, err)
	}
	return e.normalize(out, depth+1)
}
