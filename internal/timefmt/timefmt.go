// Package timefmt holds the timestamp formats shared by linets and
// sleepto: the compact calendar form YYYYMMDDhhmmss, Unix seconds, and
// elapsed/delta stopwatch formats, each with optional fractional digits.
package timefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Style selects what linets prepends to each line.
type Style int

const (
	// Calendar is the compact local-time form YYYYMMDDhhmmss.
	Calendar Style = iota
	// Unix is seconds since the epoch.
	Unix
	// Elapsed is time since process start.
	Elapsed
	// Delta is time since the previous line.
	Delta
)

const calendarLayout = "20060102150405"

// Stamp renders t (or, for the stopwatch styles, the duration d) with
// the given number of fractional digits (0, 3, 6 or 9).
func Stamp(style Style, t time.Time, d time.Duration, frac int) string {
	switch style {
	case Unix:
		if frac == 0 {
			return strconv.FormatInt(t.Unix(), 10)
		}
		return fixedPoint(t.Unix(), int64(t.Nanosecond()), frac)
	case Elapsed, Delta:
		sec := int64(d / time.Second)
		ns := int64(d % time.Second)
		if frac == 0 {
			return strconv.FormatInt(sec, 10)
		}
		return fixedPoint(sec, ns, frac)
	default:
		s := t.Format(calendarLayout)
		if frac > 0 {
			s += "." + fracDigits(int64(t.Nanosecond()), frac)
		}
		return s
	}
}

func fixedPoint(sec, ns int64, frac int) string {
	return strconv.FormatInt(sec, 10) + "." + fracDigits(ns, frac)
}

func fracDigits(ns int64, frac int) string {
	if frac > 9 {
		frac = 9
	}
	s := fmt.Sprintf("%09d", ns)
	return s[:frac]
}

// ParseAbsolute understands the wake-up time forms sleepto accepts:
// @unixtime (fractional allowed), the compact calendar form, and a
// calendar form with separators (ISO8601-like, seconds optional).
// Calendar forms without a zone are taken in local time.
func ParseAbsolute(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	if s[0] == '@' {
		f, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad unix time %q", s)
		}
		sec := int64(f)
		ns := int64((f - float64(sec)) * 1e9)
		return time.Unix(sec, ns), nil
	}

	for _, layout := range []string{
		calendarLayout,
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
