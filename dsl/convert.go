package dsl

import (
	"fmt"
	"reflect"
)

// convertTo turns a validated value into a reflect.Value assignable to t.
// Validators built without a target type return loose values ([]any,
// map[any]any, int64); this narrows them to the declared field type.
func convertTo(t reflect.Type, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		if t.Kind() == reflect.Interface {
			out := reflect.New(t).Elem()
			out.Set(rv)
			return out, nil
		}
		return rv, nil
	}
	if rv.Kind() == reflect.Pointer && t.Kind() != reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(t), nil
		}
		rv = rv.Elem()
	}
	switch t.Kind() {
	case reflect.Pointer:
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Zero(t), nil
			}
			rv = rv.Elem()
		}
		ev, err := convertTo(t.Elem(), rv.Interface())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(ev)
		return p, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out := reflect.New(t).Elem()
		switch {
		case isInt(rv.Kind()):
			if out.OverflowInt(rv.Int()) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", rv.Int(), t)
			}
			out.SetInt(rv.Int())
			return out, nil
		case isUint(rv.Kind()):
			u := rv.Uint()
			if u > 1<<63-1 || out.OverflowInt(int64(u)) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", u, t)
			}
			out.SetInt(int64(u))
			return out, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		out := reflect.New(t).Elem()
		switch {
		case isInt(rv.Kind()):
			n := rv.Int()
			if n < 0 || out.OverflowUint(uint64(n)) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", n, t)
			}
			out.SetUint(uint64(n))
			return out, nil
		case isUint(rv.Kind()):
			if out.OverflowUint(rv.Uint()) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", rv.Uint(), t)
			}
			out.SetUint(rv.Uint())
			return out, nil
		}
	case reflect.Float32, reflect.Float64:
		if isInt(rv.Kind()) || isUint(rv.Kind()) || rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
			return rv.Convert(t), nil
		}
	case reflect.String:
		if rv.Kind() == reflect.String {
			return rv.Convert(t), nil
		}
	case reflect.Bool:
		if rv.Kind() == reflect.Bool {
			return rv.Convert(t), nil
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && (rv.Kind() == reflect.String || isByteSlice(rv.Type())) {
			return rv.Convert(t), nil
		}
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			out := reflect.MakeSlice(t, rv.Len(), rv.Len())
			for i := 0; i < rv.Len(); i++ {
				ev, err := convertTo(t.Elem(), rv.Index(i).Interface())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("%d: %w", i, err)
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	case reflect.Array:
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() == t.Len() {
			out := reflect.New(t).Elem()
			for i := 0; i < rv.Len(); i++ {
				ev, err := convertTo(t.Elem(), rv.Index(i).Interface())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("%d: %w", i, err)
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	case reflect.Map:
		if isSetType(t) && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
			out := reflect.MakeMapWithSize(t, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				kv, err := convertTo(t.Key(), rv.Index(i).Interface())
				if err != nil {
					return reflect.Value{}, err
				}
				out.SetMapIndex(kv, reflect.Zero(t.Elem()))
			}
			return out, nil
		}
		if rv.Kind() == reflect.Map {
			out := reflect.MakeMapWithSize(t, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				kv, err := convertTo(t.Key(), iter.Key().Interface())
				if err != nil {
					return reflect.Value{}, err
				}
				vv, err := convertTo(t.Elem(), iter.Value().Interface())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("%v: %w", iter.Key().Interface(), err)
				}
				out.SetMapIndex(kv, vv)
			}
			return out, nil
		}
	case reflect.Struct:
		if rv.Kind() == reflect.Struct && rv.Type().ConvertibleTo(t) {
			return rv.Convert(t), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot assign %T to %s", v, t)
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isByteSlice(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

var emptyStructType = reflect.TypeOf(struct{}{})

func isSetType(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem() == emptyStructType
}
