package codec

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrDuration reports text that is neither a clock duration nor an ISO 8601
// duration.
var ErrDuration = errors.New("codec: invalid duration")

// DurationISO8601 returns the canonical duration codec. Format emits ISO 8601
// ("P1DT2H3M4.5S", "-PT30S", "PT0S"); Parse also accepts the clock form
// "[-][Nd,]HH:MM:SS[.ffffff]".
func DurationISO8601() Text[time.Duration] { return isoDuration{} }

type isoDuration struct{}

const day = 24 * time.Hour

func (isoDuration) Format(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	var b strings.Builder
	u := uint64(d)
	if d < 0 {
		b.WriteByte('-')
		u = uint64(-(d + 1)) + 1
	}
	b.WriteByte('P')
	if days := u / uint64(day); days > 0 {
		b.WriteString(strconv.FormatUint(days, 10))
		b.WriteByte('D')
		u -= days * uint64(day)
	}
	if u == 0 {
		return b.String()
	}
	b.WriteByte('T')
	if h := u / uint64(time.Hour); h > 0 {
		b.WriteString(strconv.FormatUint(h, 10))
		b.WriteByte('H')
		u -= h * uint64(time.Hour)
	}
	if m := u / uint64(time.Minute); m > 0 {
		b.WriteString(strconv.FormatUint(m, 10))
		b.WriteByte('M')
		u -= m * uint64(time.Minute)
	}
	if u > 0 {
		secs := u / uint64(time.Second)
		frac := u % uint64(time.Second)
		b.WriteString(strconv.FormatUint(secs, 10))
		if frac > 0 {
			f := strconv.FormatUint(frac+uint64(time.Second), 10)[1:]
			b.WriteByte('.')
			b.WriteString(strings.TrimRight(f, "0"))
		}
		b.WriteByte('S')
	}
	return b.String()
}

var (
	clockPattern = regexp.MustCompile(`(?i)^(-)?(?:(\d+)d,\s*)?(?:(\d+)d)?(\d+):(\d+):(\d+)(?:\.(\d+))?$`)
	isoPattern   = regexp.MustCompile(`(?i)^([+-])?P?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.(\d+))?S)?)?$`)
)

func (isoDuration) Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if m := clockPattern.FindStringSubmatch(s); m != nil {
		days := m[2]
		if days == "" {
			days = m[3]
		}
		return assemble(m[1] == "-", days, m[4], m[5], m[6], m[7])
	}
	if m := isoPattern.FindStringSubmatch(s); m != nil {
		if m[2] == "" && m[3] == "" && m[4] == "" && m[5] == "" {
			return 0, ErrDuration
		}
		return assemble(m[1] == "-", m[2], m[3], m[4], m[5], m[6])
	}
	return 0, ErrDuration
}

func assemble(neg bool, days, hours, minutes, seconds, frac string) (time.Duration, error) {
	var total int64
	parts := []struct {
		digits string
		unit   time.Duration
	}{{days, day}, {hours, time.Hour}, {minutes, time.Minute}, {seconds, time.Second}}
	for _, p := range parts {
		if p.digits == "" {
			continue
		}
		n, err := strconv.ParseInt(p.digits, 10, 64)
		if err != nil {
			return 0, ErrDuration
		}
		if n > math.MaxInt64/int64(p.unit) {
			return 0, ErrDuration
		}
		add := n * int64(p.unit)
		if total > math.MaxInt64-add {
			return 0, ErrDuration
		}
		total += add
	}
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		ns, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || total > math.MaxInt64-ns {
			return 0, ErrDuration
		}
		total += ns
	}
	if neg {
		total = -total
	}
	return time.Duration(total), nil
}
