package dsl

import (
	"context"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/coerce"
	js "github.com/reoring/fastser/jsonschema"
)

// schemaer is implemented by the validators of this package.
type schemaer interface {
	schema() *js.Schema
}

var schemaMu sync.Mutex

// SchemaOf projects a validator into JSON Schema; foreign validators yield {}.
func SchemaOf(v fastser.Validator) *js.Schema {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	return schemaOf(v)
}

// schemaOf is SchemaOf for callers already holding schemaMu.
func schemaOf(v fastser.Validator) *js.Schema {
	if s, ok := v.(schemaer); ok {
		return s.schema()
	}
	return &js.Schema{}
}

func bound(code, expected string, v any, key string, limit any) error {
	return &coerce.Error{Code: code, Expected: expected, Value: v, Params: map[string]string{key: fmt.Sprint(limit)}}
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// ---- int ----

// IntValidator coerces with coerce.Int and enforces bounds. Unsigned
// validators use coerce.Uint and produce uint64.
type IntValidator struct {
	min, max *float64
	lo, hi   int64
	ranged   bool
	unsigned bool
}

// Int returns an int64 validator.
func Int() IntValidator { return IntValidator{} }

// Uint returns a uint64 validator.
func Uint() IntValidator { return IntValidator{unsigned: true} }

func (v IntValidator) Min(n float64) IntValidator { v.min = &n; return v }
func (v IntValidator) Max(n float64) IntValidator { v.max = &n; return v }

// Range restricts values to [lo, hi], reported as int_overflow.
func (v IntValidator) Range(lo, hi int64) IntValidator {
	v.lo, v.hi, v.ranged = lo, hi, true
	return v
}

func (IntValidator) Name() string { return "int" }

func (v IntValidator) Validate(_ context.Context, x any) (any, error) {
	if v.unsigned {
		return v.validateUint(x)
	}
	n, err := coerce.Int(x)
	if err != nil {
		return nil, err
	}
	if v.ranged && (n < v.lo || n > v.hi) {
		return nil, &coerce.Error{Code: coerce.CodeIntOverflow, Expected: "int", Value: x}
	}
	if err := v.bounds(x, float64(n)); err != nil {
		return nil, err
	}
	return n, nil
}

func (v IntValidator) validateUint(x any) (any, error) {
	u, err := coerce.Uint(x)
	if err != nil {
		return nil, err
	}
	if v.ranged && (v.hi < 0 || u > uint64(v.hi) || (v.lo > 0 && u < uint64(v.lo))) {
		return nil, &coerce.Error{Code: coerce.CodeIntOverflow, Expected: "int", Value: x}
	}
	if err := v.bounds(x, float64(u)); err != nil {
		return nil, err
	}
	return u, nil
}

func (v IntValidator) bounds(x any, f float64) error {
	if v.min != nil && f < *v.min {
		return bound(fastser.CodeTooSmall, "int", x, "min", fmtFloat(*v.min))
	}
	if v.max != nil && f > *v.max {
		return bound(fastser.CodeTooBig, "int", x, "max", fmtFloat(*v.max))
	}
	return nil
}

func (v IntValidator) schema() *js.Schema {
	s := &js.Schema{Type: "integer", Minimum: v.min, Maximum: v.max}
	if v.unsigned && s.Minimum == nil {
		zero := 0.0
		s.Minimum = &zero
	}
	return s
}

// intRange bounds the narrow integer kinds; uint, uint64 and uintptr need
// no range on top of coerce.Uint.
func intRange(k reflect.Kind) (int64, int64, bool) {
	switch k {
	case reflect.Int8:
		return math.MinInt8, math.MaxInt8, true
	case reflect.Int16:
		return math.MinInt16, math.MaxInt16, true
	case reflect.Int32:
		return math.MinInt32, math.MaxInt32, true
	case reflect.Uint8:
		return 0, math.MaxUint8, true
	case reflect.Uint16:
		return 0, math.MaxUint16, true
	case reflect.Uint32:
		return 0, math.MaxUint32, true
	}
	return 0, 0, false
}

// ---- float ----

// FloatValidator coerces with coerce.Float and enforces bounds.
type FloatValidator struct {
	min, max *float64
}

// Float returns a float64 validator.
func Float() FloatValidator { return FloatValidator{} }

func (v FloatValidator) Min(n float64) FloatValidator { v.min = &n; return v }
func (v FloatValidator) Max(n float64) FloatValidator { v.max = &n; return v }

func (FloatValidator) Name() string { return "float" }

func (v FloatValidator) Validate(_ context.Context, x any) (any, error) {
	f, err := coerce.Float(x)
	if err != nil {
		return nil, err
	}
	if v.min != nil && f < *v.min {
		return nil, bound(fastser.CodeTooSmall, "float", x, "min", fmtFloat(*v.min))
	}
	if v.max != nil && f > *v.max {
		return nil, bound(fastser.CodeTooBig, "float", x, "max", fmtFloat(*v.max))
	}
	return f, nil
}

func (v FloatValidator) schema() *js.Schema {
	return &js.Schema{Type: "number", Minimum: v.min, Maximum: v.max}
}

// ---- string ----

// StringValidator coerces with coerce.String and checks length (in runes)
// and pattern.
type StringValidator struct {
	strict         bool
	minLen, maxLen *int
	pattern        *regexp.Regexp
}

// String returns a string validator. Numbers and bools are accepted and
// formatted unless Strict is set.
func String() StringValidator { return StringValidator{} }

func (v StringValidator) Strict() StringValidator        { v.strict = true; return v }
func (v StringValidator) MinLen(n int) StringValidator   { v.minLen = &n; return v }
func (v StringValidator) MaxLen(n int) StringValidator   { v.maxLen = &n; return v }
func (v StringValidator) Pattern(re *regexp.Regexp) StringValidator {
	v.pattern = re
	return v
}

func (StringValidator) Name() string { return "str" }

func (v StringValidator) Validate(_ context.Context, x any) (any, error) {
	s, err := coerce.String(x, !v.strict)
	if err != nil {
		return nil, err
	}
	n := utf8.RuneCountInString(s)
	if v.minLen != nil && n < *v.minLen {
		return nil, bound(fastser.CodeTooShort, "str", x, "min", *v.minLen)
	}
	if v.maxLen != nil && n > *v.maxLen {
		return nil, bound(fastser.CodeTooLong, "str", x, "max", *v.maxLen)
	}
	if v.pattern != nil && !v.pattern.MatchString(s) {
		return nil, bound(fastser.CodePattern, "str", x, "pattern", v.pattern.String())
	}
	return s, nil
}

func (v StringValidator) schema() *js.Schema {
	s := &js.Schema{Type: "string", MinLength: v.minLen, MaxLength: v.maxLen}
	if v.pattern != nil {
		s.Pattern = v.pattern.String()
	}
	return s
}

// ---- bool ----

type boolValidator struct{}

// Bool returns a validator using coerce.Bool.
func Bool() fastser.Validator { return boolValidator{} }

func (boolValidator) Name() string { return "bool" }

func (boolValidator) Validate(_ context.Context, x any) (any, error) { return coerce.Bool(x) }

func (boolValidator) schema() *js.Schema { return &js.Schema{Type: "boolean"} }

// ---- bytes ----

// BytesValidator coerces with coerce.Bytes and checks length.
type BytesValidator struct {
	minLen, maxLen *int
}

// Bytes returns a []byte validator.
func Bytes() BytesValidator { return BytesValidator{} }

func (v BytesValidator) MinLen(n int) BytesValidator { v.minLen = &n; return v }
func (v BytesValidator) MaxLen(n int) BytesValidator { v.maxLen = &n; return v }

func (BytesValidator) Name() string { return "bytes" }

func (v BytesValidator) Validate(_ context.Context, x any) (any, error) {
	b, err := coerce.Bytes(x)
	if err != nil {
		return nil, err
	}
	if v.minLen != nil && len(b) < *v.minLen {
		return nil, bound(fastser.CodeTooShort, "bytes", x, "min", *v.minLen)
	}
	if v.maxLen != nil && len(b) > *v.maxLen {
		return nil, bound(fastser.CodeTooLong, "bytes", x, "max", *v.maxLen)
	}
	return b, nil
}

func (v BytesValidator) schema() *js.Schema {
	return &js.Schema{Type: "string", Format: "binary", MinLength: v.minLen, MaxLength: v.maxLen}
}

// ---- decimal ----

// DecimalValidator coerces with coerce.Decimal and enforces bounds.
type DecimalValidator struct {
	min, max *decimal.Decimal
}

// Decimal returns a decimal.Decimal validator.
func Decimal() DecimalValidator { return DecimalValidator{} }

func (v DecimalValidator) Min(d decimal.Decimal) DecimalValidator { v.min = &d; return v }
func (v DecimalValidator) Max(d decimal.Decimal) DecimalValidator { v.max = &d; return v }

func (DecimalValidator) Name() string { return "decimal" }

func (v DecimalValidator) Validate(_ context.Context, x any) (any, error) {
	d, err := coerce.Decimal(x)
	if err != nil {
		return nil, err
	}
	if v.min != nil && d.LessThan(*v.min) {
		return nil, bound(fastser.CodeTooSmall, "decimal", x, "min", v.min.String())
	}
	if v.max != nil && d.GreaterThan(*v.max) {
		return nil, bound(fastser.CodeTooBig, "decimal", x, "max", v.max.String())
	}
	return d, nil
}

func (v DecimalValidator) schema() *js.Schema {
	s := &js.Schema{Type: "string", Format: "decimal"}
	if v.min != nil {
		f := v.min.InexactFloat64()
		s.Minimum = &f
	}
	if v.max != nil {
		f := v.max.InexactFloat64()
		s.Maximum = &f
	}
	return s
}

// ---- time ----

// TimeValidator coerces datetimes, dates or clock times. A custom layout is
// tried before the formats coerce understands.
type TimeValidator struct {
	layout string
	date   bool
	clock  bool
}

// Time returns a time.Time validator (UTC).
func Time() TimeValidator { return TimeValidator{} }

// Date returns a validator producing midnight UTC dates.
func Date() TimeValidator { return TimeValidator{date: true} }

// Clock returns a time-of-day validator; see coerce.TimeOfDay.
func Clock() TimeValidator { return TimeValidator{clock: true} }

func (v TimeValidator) Layout(layout string) TimeValidator { v.layout = layout; return v }

func (v TimeValidator) Name() string {
	switch {
	case v.date:
		return "date"
	case v.clock:
		return "time"
	}
	return "datetime"
}

func (v TimeValidator) Validate(_ context.Context, x any) (any, error) {
	if v.layout != "" {
		if s, ok := x.(string); ok {
			if t, err := time.ParseInLocation(v.layout, strings.TrimSpace(s), time.UTC); err == nil {
				x = t.UTC()
			}
		}
	}
	switch {
	case v.date:
		return coerce.Date(x)
	case v.clock:
		return coerce.TimeOfDay(x)
	}
	return coerce.Time(x)
}

func (v TimeValidator) schema() *js.Schema {
	switch {
	case v.date:
		return &js.Schema{Type: "string", Format: "date"}
	case v.clock:
		return &js.Schema{Type: "string", Format: "time"}
	}
	return &js.Schema{Type: "string", Format: "date-time"}
}

type durationValidator struct{}

// Duration returns a time.Duration validator (numbers are seconds).
func Duration() fastser.Validator { return durationValidator{} }

func (durationValidator) Name() string { return "timedelta" }

func (durationValidator) Validate(_ context.Context, x any) (any, error) { return coerce.Duration(x) }

func (durationValidator) schema() *js.Schema { return &js.Schema{Type: "string", Format: "duration"} }

// ---- uuid ----

type uuidValidator struct{ version int }

// UUID returns a uuid.UUID validator; version 0 accepts any version.
func UUID(version int) fastser.Validator { return uuidValidator{version: version} }

func (uuidValidator) Name() string { return "uuid" }

func (v uuidValidator) Validate(_ context.Context, x any) (any, error) { return coerce.UUID(x, v.version) }

func (uuidValidator) schema() *js.Schema { return &js.Schema{Type: "string", Format: "uuid"} }

// ---- any ----

type anyValidator struct{}

// Any accepts every value unchanged.
func Any() fastser.Validator { return anyValidator{} }

func (anyValidator) Name() string { return "any" }

func (anyValidator) Validate(_ context.Context, x any) (any, error) { return x, nil }

func (anyValidator) schema() *js.Schema { return &js.Schema{} }

// ---- encoding.TextUnmarshaler ----

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

type textValidator struct{ t reflect.Type }

// Text validates values of t through its UnmarshalText method. *t must
// implement encoding.TextUnmarshaler.
func Text(t reflect.Type) fastser.Validator { return textValidator{t: t} }

func (v textValidator) Name() string { return v.t.String() }

func (v textValidator) Validate(_ context.Context, x any) (any, error) {
	if rv := reflect.ValueOf(x); rv.IsValid() && rv.Type() == v.t {
		return x, nil
	}
	s, err := coerce.String(x, true)
	if err != nil {
		return nil, &coerce.Error{Code: fastser.CodeTextUnmarshal, Expected: v.Name(), Value: x, Err: err}
	}
	p := reflect.New(v.t)
	if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return nil, &coerce.Error{Code: fastser.CodeTextUnmarshal, Expected: v.Name(), Value: x, Err: err}
	}
	return p.Elem().Interface(), nil
}

func (textValidator) schema() *js.Schema { return &js.Schema{Type: "string"} }
