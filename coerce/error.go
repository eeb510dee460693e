package coerce

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/fastser/i18n"
)

// Error codes produced by this package.
const (
	CodeIntType          = "int_type"
	CodeIntParsing       = "int_parsing"
	CodeIntFromFloat     = "int_from_float"
	CodeIntOverflow      = "int_overflow"
	CodeFloatType        = "float_type"
	CodeFloatParsing     = "float_parsing"
	CodeBoolType         = "bool_type"
	CodeBoolParsing      = "bool_parsing"
	CodeStringType       = "string_type"
	CodeStringUnicode    = "string_unicode"
	CodeBytesType        = "bytes_type"
	CodeDecimalParsing   = "decimal_parsing"
	CodeDatetimeParsing  = "datetime_parsing"
	CodeDateParsing      = "date_parsing"
	CodeTimeDeltaParsing = "time_delta_parsing"
	CodeTimeParsing      = "time_parsing"
	CodeUUIDParsing      = "uuid_parsing"
	CodeUUIDVersion      = "uuid_version"
	CodeListType         = "list_type"
	CodeIterableType     = "iterable_type"
	CodeDictType         = "dict_type"
)

// Error is a coercion failure: the offending value could not be converted to
// the expected type.
type Error struct {
	Code     string
	Expected string // type description, e.g. "int", "list"
	Value    any    // the attempted value
	// Loc locates the failing element inside Value, outermost first (list
	// indexes as int, map keys as string).
	Loc []any
	// Params fills message placeholders.
	Params map[string]string
	Err    error // underlying parse error, if any
}

// Message returns the localized message without location.
func (e *Error) Message() string {
	data := map[string]string{"expected": e.Expected}
	for k, v := range e.Params {
		data[k] = v
	}
	return i18n.T(e.Code, data)
}

func (e *Error) Error() string {
	if len(e.Loc) == 0 {
		return e.Message()
	}
	return fmt.Sprintf("%s: %s", FormatLoc(e.Loc), e.Message())
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Code, so callers can test
// errors.Is(err, &coerce.Error{Code: coerce.CodeIntParsing}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code != "" && t.Code == e.Code
}

// FormatLoc renders a location the way messages show it, e.g. "2.name".
func FormatLoc(loc []any) string {
	parts := make([]string, len(loc))
	for i, p := range loc {
		switch x := p.(type) {
		case int:
			parts[i] = strconv.Itoa(x)
		default:
			parts[i] = fmt.Sprint(x)
		}
	}
	return strings.Join(parts, ".")
}

// At returns err located under loc. *Error values get loc prepended to their
// Loc; other errors are wrapped.
func At(err error, loc ...any) error {
	if err == nil || len(loc) == 0 {
		return err
	}
	var ce *Error
	if errors.As(err, &ce) {
		cp := *ce
		cp.Loc = append(append([]any{}, loc...), ce.Loc...)
		return &cp
	}
	return &Error{Code: "value_error", Expected: "value", Loc: append([]any{}, loc...), Err: err, Params: map[string]string{"detail": err.Error()}}
}

func fail(code, expected string, v any, cause error) *Error {
	return &Error{Code: code, Expected: expected, Value: v, Err: cause}
}
