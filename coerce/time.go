package coerce

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/reoring/fastser/codec"
)

// Length markers of the accepted datetime text forms.
const (
	yearLen      = 4
	dateLen      = 8  // 20240204
	timestampLen = 10 // seconds since epoch, also 2024-02-04
	maxYear      = 9999
)

// Time coerces v to a timestamp, reading zone-less text in UTC. See TimeIn.
func Time(v any) (time.Time, error) { return TimeIn(v, time.UTC) }

// TimeIn coerces v to a timestamp. Accepted inputs:
//   - time.Time;
//   - integers, floats and numeric text: a 4-digit year ("2024"), a compact
//     date ("20240204"), a unix timestamp in seconds (10 digits) or
//     milliseconds (13+ digits, fractions allowed);
//   - "2024-02-04", "2024/02/04", "2024.02.04", optionally followed by
//     " 15:04" or " 15:04:05";
//   - RFC 3339 / ISO 8601 timestamps.
//
// Text without a zone is read in loc.
func TimeIn(v any, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	if t, ok := v.(*time.Time); ok && t != nil {
		return *t, nil
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if ok {
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			n, err := Int(v)
			if err != nil {
				return time.Time{}, fail(CodeDatetimeParsing, "datetime", v, err)
			}
			return parseTimeText(strconv.FormatInt(n, 10), v, loc)
		}
	}
	if n, isNum := v.(json.Number); isNum {
		return parseTimeText(string(n), v, loc)
	}
	if s, ok, err := nonEmptyString(v); ok && err == nil {
		return parseTimeText(strings.TrimSpace(s), v, loc)
	}
	return time.Time{}, fail(CodeDatetimeParsing, "datetime", v, nil)
}

func parseTimeText(s string, orig any, loc *time.Location) (time.Time, error) {
	bad := func(err error) (time.Time, error) {
		return time.Time{}, fail(CodeDatetimeParsing, "datetime", orig, err)
	}
	n := len(s)
	if n < yearLen {
		return bad(nil)
	}
	num, isNum := numericText(s)
	switch {
	case isNum && num >= 1 && num < maxYear:
		return time.Date(int(num), time.January, 1, 0, 0, 0, 0, loc), nil
	case isNum && n == dateLen:
		t, err := time.ParseInLocation("20060102", s, loc)
		if err != nil {
			return bad(err)
		}
		return t, nil
	case isNum && n == timestampLen:
		return time.Unix(num, 0).UTC(), nil
	case isNum && n >= 13 && n <= 18:
		return fromTimestamp(s, orig)
	case !isNum && n == timestampLen:
		return parseDelimited(s, "", orig, loc)
	case !isNum && n == timestampLen+6:
		return parseDelimited(s, " 15:04", orig, loc)
	case !isNum && n == timestampLen+9 && !strings.ContainsAny(s, "Tt"):
		return parseDelimited(s, " 15:04:05", orig, loc)
	case !isNum && n >= timestampLen+9:
		return parseISO(s, orig, loc)
	}
	return bad(nil)
}

// numericText reports whether s is a number and returns its integer part.
// "2024.0" counts as 2024.
func numericText(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || strings.ContainsAny(s, "eE") {
		return 0, false
	}
	n, err := truncFloat(f)
	return n, err == nil
}

// fromTimestamp reads long numeric text as a timestamp; integer parts longer
// than ten digits are milliseconds.
func fromTimestamp(s string, orig any) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fail(CodeDatetimeParsing, "datetime", orig, err)
	}
	intPart := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
	}
	if len(strings.TrimLeft(intPart, "-")) > timestampLen {
		f /= 1000
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
}

func parseDelimited(s, clock string, orig any, loc *time.Location) (time.Time, error) {
	d := "-"
	switch {
	case strings.Contains(s[:timestampLen], "/"):
		d = "/"
	case strings.Contains(s[:timestampLen], "."):
		d = "."
	}
	layout := "2006" + d + "01" + d + "02" + clock
	t, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		code := CodeDatetimeParsing
		if clock == "" {
			code = CodeDateParsing
		}
		return time.Time{}, &Error{Code: code, Expected: "datetime", Value: orig, Err: err, Params: map[string]string{"layout": layout}}
	}
	return t, nil
}

var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
}

func parseISO(s string, orig any, loc *time.Location) (time.Time, error) {
	if t, err := codec.TimeRFC3339().Parse(s); err == nil {
		return t, nil
	}
	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fail(CodeDatetimeParsing, "datetime", orig, lastErr)
}

// Date coerces v to a calendar date: midnight UTC of the day v names. It
// accepts the inputs of Time; timestamps keep the day of their own zone.
func Date(v any) (time.Time, error) {
	t, err := Time(v)
	if err != nil {
		return time.Time{}, fail(CodeDateParsing, "date", v, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// Duration coerces durations, numbers (as seconds) and clock or ISO 8601
// text to time.Duration.
func Duration(v any) (time.Duration, error) {
	if d, ok := v.(time.Duration); ok {
		return d, nil
	}
	if _, isBool := v.(bool); !isBool && Classify(v) == ShapeScalar {
		f, err := Float(v)
		if err != nil {
			return 0, fail(CodeTimeDeltaParsing, "timedelta", v, err)
		}
		ns := f * float64(time.Second)
		if math.IsNaN(ns) || ns >= math.MaxInt64 || ns <= math.MinInt64 {
			return 0, fail(CodeTimeDeltaParsing, "timedelta", v, strconv.ErrRange)
		}
		return time.Duration(math.Round(ns)), nil
	}
	if s, ok, err := nonEmptyString(v); ok && err == nil {
		d, perr := codec.DurationISO8601().Parse(s)
		if perr != nil {
			return 0, fail(CodeTimeDeltaParsing, "timedelta", v, perr)
		}
		return d, nil
	}
	return 0, fail(CodeTimeDeltaParsing, "timedelta", v, nil)
}

const secondsPerDay = 24 * 60 * 60

// TimeOfDay coerces v to a clock time on January 1 of year 0, UTC.
// Timestamps keep their UTC clock, numbers count seconds since midnight and
// text is read by codec.Clock ("15:04", "15:04:05.000001", "15:04:05+02:00").
func TimeOfDay(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return clockOnly(t), nil
	case *time.Time:
		if t != nil {
			return clockOnly(*t), nil
		}
	}
	if _, isBool := v.(bool); !isBool && Classify(v) == ShapeScalar {
		f, err := Float(v)
		if err != nil || f < 0 || f >= secondsPerDay {
			return time.Time{}, fail(CodeTimeParsing, "time", v, err)
		}
		return time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(math.Round(f * float64(time.Second)))), nil
	}
	if s, ok, err := nonEmptyString(v); ok && err == nil {
		s = strings.TrimSpace(s)
		t, perr := codec.Clock().Parse(s)
		if perr != nil {
			return time.Time{}, fail(CodeTimeParsing, "time", v, perr)
		}
		return clockOnly(t), nil
	}
	return time.Time{}, fail(CodeTimeParsing, "time", v, nil)
}

func clockOnly(t time.Time) time.Time {
	t = t.UTC()
	h, m, s := t.Clock()
	return time.Date(0, time.January, 1, h, m, s, t.Nanosecond(), time.UTC)
}
