package coerce

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const expectInt = "int"

// Int coerces v to an integer:
//  1. integers are returned unchanged;
//  2. non-empty strings (and UTF-8 byte slices) are parsed as base-10
//     integers, failing with int_parsing;
//  3. floats, json.Number and decimal.Decimal are truncated toward zero;
//  4. anything else fails with int_type.
//
// The empty string is not a parse and falls through to step 4. bool is not an
// integer.
func Int(v any) (int64, error) {
	if n, ok, err := exactInt(v); ok || err != nil {
		return n, err
	}
	if s, ok, err := nonEmptyString(v); ok || err != nil {
		if err != nil {
			return 0, fail(CodeIntParsing, expectInt, v, err)
		}
		n, perr := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if perr != nil {
			return 0, fail(CodeIntParsing, expectInt, v, perr)
		}
		return n, nil
	}
	if n, ok, err := truncated(v); ok || err != nil {
		return n, err
	}
	return 0, fail(CodeIntType, expectInt, v, nil)
}

// exactInt handles Go integer kinds (step 1).
func exactInt(v any) (int64, bool, error) {
	switch x := v.(type) {
	case int:
		return int64(x), true, nil
	case int64:
		return x, true, nil
	case int32:
		return int64(x), true, nil
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return 0, false, nil
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false, fail(CodeIntOverflow, expectInt, v, strconv.ErrRange)
		}
		return int64(u), true, nil
	}
	return 0, false, nil
}

// nonEmptyString returns the text of string-like values. json.Number is a
// number, not text. Byte slices must be valid UTF-8.
func nonEmptyString(v any) (string, bool, error) {
	if _, isNum := v.(json.Number); isNum {
		return "", false, nil
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return "", false, nil
	}
	if rv.Type() == reflect.TypeOf(json.Number("")) {
		return "", false, nil
	}
	var s string
	switch {
	case rv.Kind() == reflect.String:
		s = rv.String()
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		b := rv.Bytes()
		if !utf8.Valid(b) {
			return "", true, errInvalidUTF8
		}
		s = string(b)
	default:
		return "", false, nil
	}
	if s == "" {
		return "", false, nil
	}
	return s, true, nil
}

// truncated handles floats, json.Number and decimals (step 3).
func truncated(v any) (int64, bool, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return n, true, nil
		}
		d, err := decimal.NewFromString(string(x))
		if err != nil {
			return 0, true, fail(CodeIntParsing, expectInt, v, err)
		}
		return truncDecimal(d, v)
	case decimal.Decimal:
		return truncDecimal(x, v)
	case *decimal.Decimal:
		if x == nil {
			return 0, false, nil
		}
		return truncDecimal(*x, v)
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return 0, false, nil
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		n, err := truncFloat(rv.Float())
		if err != nil {
			return 0, true, fail(CodeIntFromFloat, expectInt, v, err)
		}
		return n, true, nil
	}
	return 0, false, nil
}

func truncFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	t := math.Trunc(f)
	// 2^63 is exactly representable; anything at or past it overflows
	if t >= 9.223372036854775808e18 || t < -9.223372036854775808e18 {
		return 0, strconv.ErrRange
	}
	return int64(t), nil
}

func truncDecimal(d decimal.Decimal, orig any) (int64, bool, error) {
	bi := d.Truncate(0).BigInt()
	if !bi.IsInt64() {
		return 0, true, fail(CodeIntFromFloat, expectInt, orig, strconv.ErrRange)
	}
	return bi.Int64(), true, nil
}

// Uint coerces v to an unsigned integer with the steps of Int. Negative
// values fail with int_overflow.
func Uint(v any) (uint64, error) {
	if rv, ok := indirect(reflect.ValueOf(v)); ok && isUintKind(rv.Kind()) {
		return rv.Uint(), nil
	}
	if s, ok, err := nonEmptyString(v); ok || err != nil {
		if err != nil {
			return 0, fail(CodeIntParsing, expectInt, v, err)
		}
		s = strings.TrimSpace(s)
		u, perr := strconv.ParseUint(s, 10, 64)
		if perr == nil {
			return u, nil
		}
		if errors.Is(perr, strconv.ErrRange) {
			return 0, fail(CodeIntOverflow, expectInt, v, perr)
		}
		if _, ierr := strconv.ParseInt(s, 10, 64); ierr == nil {
			return 0, fail(CodeIntOverflow, expectInt, v, strconv.ErrRange)
		}
		return 0, fail(CodeIntParsing, expectInt, v, perr)
	}
	var d decimal.Decimal
	switch x := v.(type) {
	case json.Number:
		var err error
		if d, err = decimal.NewFromString(string(x)); err != nil {
			return 0, fail(CodeIntParsing, expectInt, v, err)
		}
	case decimal.Decimal:
		d = x
	case *decimal.Decimal:
		if x == nil {
			return 0, fail(CodeIntType, expectInt, v, nil)
		}
		d = *x
	default:
		if rv, ok := indirect(reflect.ValueOf(v)); ok && (rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64) {
			f := rv.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return 0, fail(CodeIntFromFloat, expectInt, v, strconv.ErrSyntax)
			}
			d = decimal.NewFromFloat(f)
			break
		}
		n, err := Int(v)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, fail(CodeIntOverflow, expectInt, v, strconv.ErrRange)
		}
		return uint64(n), nil
	}
	bi := d.Truncate(0).BigInt()
	switch {
	case bi.Sign() < 0:
		return 0, fail(CodeIntOverflow, expectInt, v, strconv.ErrRange)
	case !bi.IsUint64():
		return 0, fail(CodeIntFromFloat, expectInt, v, strconv.ErrRange)
	}
	return bi.Uint64(), nil
}

func isUintKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}
