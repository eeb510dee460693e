// Package codec holds the canonical text forms used when values cross the
// JSON boundary: timestamps, calendar dates and durations.
package codec

import (
	"time"
)

// Text converts between a Go value and its canonical text form.
type Text[T any] interface {
	Format(v T) string
	Parse(s string) (T, error)
}

// Default layouts for the JSON output of time values.
const (
	DateLayout     = "2006-01-02"
	DatetimeLayout = time.RFC3339Nano
	ClockLayout    = "15:04:05.999999999"
)

// TimeRFC3339 returns the canonical timestamp codec: RFC 3339 with
// nanoseconds trimmed, offsets preserved.
func TimeRFC3339() Text[time.Time] { return rfc3339Codec{} }

type rfc3339Codec struct{}

func (rfc3339Codec) Format(t time.Time) string { return t.Format(time.RFC3339Nano) }

func (rfc3339Codec) Parse(s string) (time.Time, error) {
	// RFC3339Nano accepts trailing fractional seconds of any length
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

// TimeLayout returns a codec for a fixed Go layout. Parsing happens in loc
// (time.Local when nil) for layouts without a zone.
func TimeLayout(layout string, loc *time.Location) Text[time.Time] {
	if loc == nil {
		loc = time.Local
	}
	return layoutCodec{layout: layout, loc: loc}
}

// Date returns the calendar-date codec ("2006-01-02"). Parsed values are
// midnight UTC.
func Date() Text[time.Time] { return layoutCodec{layout: DateLayout, loc: time.UTC} }

type layoutCodec struct {
	layout string
	loc    *time.Location
}

func (c layoutCodec) Format(t time.Time) string { return t.Format(c.layout) }

func (c layoutCodec) Parse(s string) (time.Time, error) {
	return time.ParseInLocation(c.layout, s, c.loc)
}

// Clock returns the time-of-day codec. Parse accepts "15:04", "15:04:05" and
// fractional seconds, each with an optional zone offset; values land on
// January 1 of year 0 in the zone of the text (UTC without one).
func Clock() Text[time.Time] { return clockCodec{} }

var clockLayouts = []string{"15:04:05.999999999", "15:04:05.999999999Z07:00", "15:04", "15:04Z07:00"}

type clockCodec struct{}

func (clockCodec) Format(t time.Time) string { return t.Format(ClockLayout) }

func (clockCodec) Parse(s string) (time.Time, error) {
	var err error
	for _, layout := range clockLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
