package dsl

import (
	"context"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/codec"
)

var (
	timeType          = reflect.TypeOf(time.Time{})
	durationType      = reflect.TypeOf(time.Duration(0))
	decimalType       = reflect.TypeOf(decimal.Decimal{})
	uuidType          = reflect.TypeOf(uuid.UUID{})
	jsonNumberType    = reflect.TypeOf(json.Number(""))
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// ValueSerializer converts stored values into python-mode values (Go values
// kept as is, containers as []any / map[string]any) or JSON-mode values
// (strings, numbers, bools, nil, []any, map[string]any).
type ValueSerializer struct {
	DatetimeLayout string // JSON form of time.Time; RFC 3339 when empty
	DateLayout     string // JSON form of date fields; 2006-01-02 when empty
	Date           bool   // the value is a date
	Clock          bool   // the value is a time of day
}

func (s ValueSerializer) Serialize(ctx context.Context, v any, opt fastser.SerializeOpt) (any, error) {
	return s.convert(ctx, reflect.ValueOf(v), opt)
}

func (s ValueSerializer) timeLayout() string {
	switch {
	case s.Clock:
		return codec.ClockLayout
	case s.Date && s.DateLayout != "":
		return s.DateLayout
	case s.Date:
		return codec.DateLayout
	case s.DatetimeLayout != "":
		return s.DatetimeLayout
	}
	return codec.DatetimeLayout
}

func (s ValueSerializer) convert(ctx context.Context, rv reflect.Value, opt fastser.SerializeOpt) (any, error) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, nil
	}
	jsonMode := opt.Mode == fastser.ModeJSON
	t := rv.Type()
	switch t {
	case timeType:
		if jsonMode {
			return rv.Interface().(time.Time).Format(s.timeLayout()), nil
		}
		return rv.Interface(), nil
	case durationType:
		if jsonMode {
			return codec.DurationISO8601().Format(time.Duration(rv.Int())), nil
		}
		return rv.Interface(), nil
	case decimalType:
		if jsonMode {
			return rv.Interface().(decimal.Decimal).String(), nil
		}
		return rv.Interface(), nil
	case uuidType:
		if jsonMode {
			return rv.Interface().(uuid.UUID).String(), nil
		}
		return rv.Interface(), nil
	case jsonNumberType:
		if jsonMode {
			lit := rv.String()
			if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
				return n, nil
			}
			return strconv.ParseFloat(lit, 64)
		}
		return rv.Interface(), nil
	}
	if isByteSlice(t) {
		b := rv.Bytes()
		if !jsonMode {
			return append([]byte(nil), b...), nil
		}
		if !utf8.Valid(b) {
			return nil, fmt.Errorf("expected `bytes` to be valid UTF-8 in JSON mode")
		}
		return string(b), nil
	}
	if tm, ok := textMarshaler(rv); ok {
		if !jsonMode {
			return rv.Interface(), nil
		}
		b, err := tm.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		if jsonMode {
			return rv.Bool(), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if jsonMode {
			return rv.Int(), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if jsonMode {
			return rv.Uint(), nil
		}
	case reflect.Float32, reflect.Float64:
		if jsonMode {
			f := rv.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("expected finite `float` in JSON mode, got %v", f)
			}
			return f, nil
		}
	case reflect.String:
		if jsonMode {
			return rv.String(), nil
		}
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			ev, err := s.convert(scopeIndex(ctx, i), rv.Index(i), opt)
			if err != nil {
				return nil, fmt.Errorf("%d: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	case reflect.Map:
		return s.convertMap(ctx, rv, opt)
	case reflect.Struct:
		m, err := modelForType(t)
		if err != nil {
			return nil, err
		}
		return m.dump(ctx, rv, opt, scopeFrom(ctx))
	default:
		if opt.Fallback != nil {
			return opt.Fallback(rv.Interface())
		}
		return nil, fmt.Errorf("unable to serialize unknown type: %s", t)
	}
	return rv.Interface(), nil
}

func (s ValueSerializer) convertMap(ctx context.Context, rv reflect.Value, opt fastser.SerializeOpt) (any, error) {
	t := rv.Type()
	keys := rv.MapKeys()
	if isSetType(t) {
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			kv, err := s.convert(ctx, k, opt)
			if err != nil {
				return nil, err
			}
			out = append(out, kv)
		}
		sort.Slice(out, func(i, j int) bool { return fmt.Sprint(out[i]) < fmt.Sprint(out[j]) })
		return out, nil
	}
	if opt.Mode != fastser.ModeJSON && t.Key().Kind() != reflect.String {
		out := make(map[any]any, len(keys))
		for _, k := range keys {
			ev, err := s.convert(ctx, rv.MapIndex(k), opt)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", k.Interface(), err)
			}
			out[k.Interface()] = ev
		}
		return out, nil
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		ks, err := mapKeyString(k)
		if err != nil {
			return nil, err
		}
		ev, err := s.convert(scopeAt(ctx, fastser.Root().Field(ks)), rv.MapIndex(k), opt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ks, err)
		}
		out[ks] = ev
	}
	return out, nil
}

func mapKeyString(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface {
		k = k.Elem()
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		b, err := tm.MarshalText()
		return string(b), err
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(k.Float(), 'g', -1, 64), nil
	}
	return "", fmt.Errorf("unsupported map key type %s", k.Type())
}

// ---- nested dump scope ----

// dumpScope carries presence and field selection into nested models.
type dumpScope struct {
	prefix  string
	pm      fastser.PresenceMap
	include selection
	exclude selection
}

type scopeKey struct{}

func withScope(ctx context.Context, s dumpScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func scopeFrom(ctx context.Context) dumpScope {
	s, _ := ctx.Value(scopeKey{}).(dumpScope)
	return s
}

func scopeIndex(ctx context.Context, i int) context.Context {
	return scopeAt(ctx, fastser.Root().Index(i))
}

// scopeAt extends the dump prefix by one path segment.
func scopeAt(ctx context.Context, at fastser.PathRef) context.Context {
	s, ok := ctx.Value(scopeKey{}).(dumpScope)
	if !ok {
		return ctx
	}
	s.prefix += at.Prefix()
	return withScope(ctx, s)
}

// selection is a parsed Include/Exclude list: a nil child means the whole
// field is selected.
type selection map[string]selection

func parseSelection(paths []string) selection {
	if paths == nil {
		return nil
	}
	root := selection{}
	for _, p := range paths {
		cur := root
		parts := strings.Split(p, ".")
		for i, part := range parts {
			child, ok := cur[part]
			if i == len(parts)-1 {
				cur[part] = nil
				break
			}
			if ok && child == nil {
				break
			}
			if !ok {
				child = selection{}
				cur[part] = child
			}
			cur = child
		}
	}
	return root
}

// lookup finds the entry for a field by Go name or key.
func (s selection) lookup(names ...string) (selection, bool) {
	for _, n := range names {
		if sub, ok := s[n]; ok {
			return sub, true
		}
	}
	return nil, false
}

// textMarshaler returns rv as a TextMarshaler, going through a copy when only
// the pointer type has the method.
func textMarshaler(rv reflect.Value) (encoding.TextMarshaler, bool) {
	t := rv.Type()
	if t.Implements(textMarshalerType) {
		return rv.Interface().(encoding.TextMarshaler), true
	}
	if !reflect.PointerTo(t).Implements(textMarshalerType) {
		return nil, false
	}
	if rv.CanAddr() {
		return rv.Addr().Interface().(encoding.TextMarshaler), true
	}
	p := reflect.New(t)
	p.Elem().Set(rv)
	return p.Interface().(encoding.TextMarshaler), true
}
