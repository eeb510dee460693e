package coerce

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// Float coerces numbers, decimals and numeric strings to float64.
func Float(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, fail(CodeFloatParsing, "float", v, err)
		}
		return f, nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if ok {
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return float64(rv.Uint()), nil
		}
	}
	if s, ok, err := nonEmptyString(v); ok || err != nil {
		if err != nil {
			return 0, fail(CodeFloatParsing, "float", v, err)
		}
		f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if perr != nil {
			return 0, fail(CodeFloatParsing, "float", v, perr)
		}
		return f, nil
	}
	return 0, fail(CodeFloatType, "float", v, nil)
}

var (
	falseWords = map[string]struct{}{
		"0": {}, "false": {}, "f": {}, "n": {}, "no": {}, "off": {},
		"不": {}, "否": {}, "错误": {}, "异常": {}, "错": {},
	}
	trueWords = map[string]struct{}{
		"1": {}, "true": {}, "t": {}, "y": {}, "yes": {}, "on": {},
		"是": {}, "好": {}, "好的": {}, "正确": {}, "对": {}, "对的": {},
	}
)

// Bool coerces bools, the integers 0 and 1, and the usual words
// ("yes", "off", "是", ...) to bool.
func Bool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if ok && rv.Kind() == reflect.Bool {
		return rv.Bool(), nil
	}
	if s, ok, err := nonEmptyString(v); ok || err != nil {
		if err == nil {
			w := strings.ToLower(strings.TrimSpace(s))
			if _, f := falseWords[w]; f {
				return false, nil
			}
			if _, t := trueWords[w]; t {
				return true, nil
			}
		}
		return false, fail(CodeBoolParsing, "bool", v, err)
	}
	if Classify(v) == ShapeScalar {
		if f, err := Float(v); err == nil {
			switch f {
			case 0:
				return false, nil
			case 1:
				return true, nil
			}
			return false, fail(CodeBoolParsing, "bool", v, nil)
		}
	}
	return false, fail(CodeBoolType, "bool", v, nil)
}

// String coerces strings and UTF-8 byte slices to string. When allowNumber is
// set numbers, decimals and bools are formatted.
func String(v any, allowNumber bool) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return "", fail(CodeStringType, "str", v, nil)
	}
	switch {
	case rv.Kind() == reflect.String && rv.Type() != reflect.TypeOf(json.Number("")):
		return rv.String(), nil
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		b := rv.Bytes()
		if !utf8.Valid(b) {
			return "", fail(CodeStringUnicode, "str", v, errInvalidUTF8)
		}
		return string(b), nil
	}
	if !allowNumber {
		return "", fail(CodeStringType, "str", v, nil)
	}
	switch x := rv.Interface().(type) {
	case json.Number:
		return string(x), nil
	case decimal.Decimal:
		return x.String(), nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	}
	return "", fail(CodeStringType, "str", v, nil)
}

// Bytes coerces byte slices and strings to []byte.
func Bytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if ok {
		switch {
		case rv.Kind() == reflect.String:
			return []byte(rv.String()), nil
		case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
			return rv.Bytes(), nil
		}
	}
	return nil, fail(CodeBytesType, "bytes", v, nil)
}

// Decimal coerces numbers and numeric strings to decimal.Decimal. Floats go
// through their shortest text form so 0.1 stays 0.1.
func Decimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case json.Number:
		return parseDecimal(string(x), v)
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if ok {
		if d, isDec := rv.Interface().(decimal.Decimal); isDec {
			return d, nil
		}
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return decimal.NewFromInt(rv.Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), nil
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return decimal.Decimal{}, fail(CodeDecimalParsing, "decimal", v, strconv.ErrSyntax)
			}
			bits := 64
			if rv.Kind() == reflect.Float32 {
				bits = 32
			}
			return parseDecimal(strconv.FormatFloat(f, 'f', -1, bits), v)
		}
	}
	if s, ok, err := nonEmptyString(v); ok || err != nil {
		if err != nil {
			return decimal.Decimal{}, fail(CodeDecimalParsing, "decimal", v, err)
		}
		return parseDecimal(strings.TrimSpace(s), v)
	}
	return decimal.Decimal{}, fail(CodeDecimalParsing, "decimal", v, nil)
}

func parseDecimal(s string, orig any) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fail(CodeDecimalParsing, "decimal", orig, err)
	}
	return d, nil
}
