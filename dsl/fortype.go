package dsl

import (
	"context"
	"fmt"
	"reflect"
	"regexp"

	"github.com/shopspring/decimal"

	fastser "github.com/reoring/fastser"
)

// ForType derives the validator for a Go type and the constraints of its
// field tag. Pointers become Optional, slices List, map[K]struct{} Set, other
// maps Map, arrays Tuple and structs nested models.
func ForType(t reflect.Type, tag fastser.FieldTag) (fastser.Validator, error) {
	compileMu.Lock()
	defer compileMu.Unlock()
	return forType(t, tag, &modelConfig{})
}

// forType runs with compileMu held.
func forType(t reflect.Type, tag fastser.FieldTag, cfg *modelConfig) (fastser.Validator, error) {
	if t.Kind() == reflect.Pointer {
		inner, err := forType(t.Elem(), tag, cfg)
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}
	v, err := baseFor(t, tag, cfg)
	if err != nil {
		return nil, err
	}
	if len(tag.OneOf) > 0 {
		vals := make([]any, len(tag.OneOf))
		for i, s := range tag.OneOf {
			vals[i] = s
		}
		v = Literal(v, vals...)
	}
	if tag.Rule != "" {
		if err := compileRule(tag.Rule); err != nil {
			return nil, err
		}
		v = Rule(v, tag.Rule)
	}
	if tag.Check != "" {
		if v, err = Expr(v, tag.Check); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func baseFor(t reflect.Type, tag fastser.FieldTag, cfg *modelConfig) (fastser.Validator, error) {
	switch t {
	case timeType:
		tv, layout := Time(), cfg.datetimeLayout
		switch tag.Format {
		case "date":
			tv, layout = Date(), cfg.dateLayout
		case "time":
			tv, layout = Clock(), ""
		case "", "datetime":
		default:
			return nil, fmt.Errorf("format=%s does not apply to %s", tag.Format, t)
		}
		if layout != "" {
			tv = tv.Layout(layout)
		}
		return tv, nil
	case durationType:
		if tag.Format != "" && tag.Format != "duration" {
			return nil, fmt.Errorf("format=%s does not apply to %s", tag.Format, t)
		}
		return Duration(), nil
	case decimalType:
		dv := Decimal()
		if tag.Min != nil {
			dv = dv.Min(decimal.NewFromFloat(*tag.Min))
		}
		if tag.Max != nil {
			dv = dv.Max(decimal.NewFromFloat(*tag.Max))
		}
		return dv, nil
	case uuidType:
		return UUID(0), nil
	}
	if tag.Format != "" {
		return nil, fmt.Errorf("format=%s needs a time.Time or time.Duration field, not %s", tag.Format, t)
	}
	if !isByteSlice(t) && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return Text(t), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		iv := Int()
		if t.Kind() >= reflect.Uint {
			iv = Uint()
		}
		if lo, hi, ok := intRange(t.Kind()); ok {
			iv = iv.Range(lo, hi)
		}
		if tag.Min != nil {
			iv = iv.Min(*tag.Min)
		}
		if tag.Max != nil {
			iv = iv.Max(*tag.Max)
		}
		return iv, nil
	case reflect.Float32, reflect.Float64:
		fv := Float()
		if tag.Min != nil {
			fv = fv.Min(*tag.Min)
		}
		if tag.Max != nil {
			fv = fv.Max(*tag.Max)
		}
		return fv, nil
	case reflect.String:
		sv := String()
		if tag.MinLen != nil {
			sv = sv.MinLen(*tag.MinLen)
		}
		if tag.MaxLen != nil {
			sv = sv.MaxLen(*tag.MaxLen)
		}
		if tag.Pattern != "" {
			re, err := regexp.Compile(tag.Pattern)
			if err != nil {
				return nil, fmt.Errorf("pattern: %w", err)
			}
			sv = sv.Pattern(re)
		}
		return sv, nil
	case reflect.Slice:
		if isByteSlice(t) {
			bv := Bytes()
			if tag.MinLen != nil {
				bv = bv.MinLen(*tag.MinLen)
			}
			if tag.MaxLen != nil {
				bv = bv.MaxLen(*tag.MaxLen)
			}
			return bv, nil
		}
		elem, err := forType(t.Elem(), fastser.FieldTag{}, cfg)
		if err != nil {
			return nil, err
		}
		lv := List(elem)
		if tag.MinLen != nil {
			lv = lv.MinItems(*tag.MinLen)
		}
		if tag.MaxLen != nil {
			lv = lv.MaxItems(*tag.MaxLen)
		}
		return lv, nil
	case reflect.Array:
		elem, err := forType(t.Elem(), fastser.FieldTag{}, cfg)
		if err != nil {
			return nil, err
		}
		elems := make([]fastser.Validator, t.Len())
		for i := range elems {
			elems[i] = elem
		}
		return Tuple(elems...), nil
	case reflect.Map:
		key, err := forType(t.Key(), fastser.FieldTag{}, cfg)
		if err != nil {
			return nil, err
		}
		if isSetType(t) {
			sv := Set(key)
			if tag.MinLen != nil {
				sv = sv.MinItems(*tag.MinLen)
			}
			if tag.MaxLen != nil {
				sv = sv.MaxItems(*tag.MaxLen)
			}
			return sv, nil
		}
		val, err := forType(t.Elem(), fastser.FieldTag{}, cfg)
		if err != nil {
			return nil, err
		}
		mv := Map(key, val)
		if tag.MinLen != nil {
			mv = mv.MinItems(*tag.MinLen)
		}
		if tag.MaxLen != nil {
			mv = mv.MaxItems(*tag.MaxLen)
		}
		return mv, nil
	case reflect.Struct:
		if _, err := compileCached(t); err != nil {
			return nil, err
		}
		return modelValidator{t: t}, nil
	case reflect.Interface:
		return Any(), nil
	}
	return nil, fmt.Errorf("unsupported field type %s", t)
}

// parseDefault runs a tag default through the field's validator.
func parseDefault(f *Field) (reflect.Value, error) {
	if f.Tag.Default == "null" {
		return reflect.Zero(f.Type), nil
	}
	v, err := f.Validator.Validate(context.Background(), f.Tag.Default)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("default %q: %w", f.Tag.Default, err)
	}
	return convertTo(f.Type, v)
}

