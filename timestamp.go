// Timestamp pattern parsing.
//
// A timestamp pattern is a half-open interval [start, end). The CLI
// accepts either an explicit "start,end" pair or a single partial
// timestamp whose precision determines the interval: "2026" covers the
// year, "2026-08-06T11:22" covers the minute, and fractional seconds
// narrow down to their last digit. Times without a zone are UTC.
package grist

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// prefixLayouts are tried in order; the unit function derives the
// interval end from the parsed start.
var prefixLayouts = []struct {
	layout string
	next   func(time.Time) time.Time
}{
	{"2006-01-02T15:04:05", func(t time.Time) time.Time { return t.Add(time.Second) }},
	{"2006-01-02T15:04", func(t time.Time) time.Time { return t.Add(time.Minute) }},
	{"2006-01-02T15", func(t time.Time) time.Time { return t.Add(time.Hour) }},
	{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
	{"2006-01", func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
	{"2006", func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
}

// ParseTimeRange parses a timestamp pattern.
func ParseTimeRange(s string) (TimeRange, error) {
	if start, end, ok := strings.Cut(s, ","); ok {
		ts, err := parseInstant(start)
		if err != nil {
			return TimeRange{}, err
		}
		te, err := parseInstant(end)
		if err != nil {
			return TimeRange{}, err
		}
		if !ts.Before(te) {
			return TimeRange{}, fmt.Errorf("%w: start %s not before end %s", ErrBadTimeRange, start, end)
		}
		return TimeRange{Start: ts, End: te}, nil
	}
	return parsePrefix(s)
}

// parseInstant parses one endpoint: a full RFC3339 timestamp, or any of
// the prefix forms (whose start instant is used).
func parseInstant(s string) (time.Time, error) {
	s = normalizeSep(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	r, err := parsePrefix(s)
	if err != nil {
		return time.Time{}, err
	}
	return r.Start, nil
}

// parsePrefix derives an interval from a partial timestamp.
func parsePrefix(s string) (TimeRange, error) {
	s = normalizeSep(s)

	// Fractional seconds: the interval is one unit of the last digit.
	if i := strings.Index(s, "."); i >= 0 {
		frac := s[i+1:]
		if zi := strings.IndexAny(frac, "Z+-"); zi >= 0 {
			frac = frac[:zi]
		}
		digits := len(frac)
		if digits == 0 || digits > 9 {
			return TimeRange{}, fmt.Errorf("%w: %q", ErrBadTimeRange, s)
		}
		layout := "2006-01-02T15:04:05." + strings.Repeat("0", digits)
		t, err := parseMaybeZoned(layout, s)
		if err != nil {
			return TimeRange{}, fmt.Errorf("%w: %q", ErrBadTimeRange, s)
		}
		step := time.Second
		for range digits {
			step /= 10
		}
		return TimeRange{Start: t, End: t.Add(step)}, nil
	}

	for _, pl := range prefixLayouts {
		t, err := parseMaybeZoned(pl.layout, s)
		if err != nil {
			continue
		}
		return TimeRange{Start: t, End: pl.next(t)}, nil
	}
	return TimeRange{}, fmt.Errorf("%w: %q", ErrBadTimeRange, s)
}

// parseMaybeZoned parses s with layout, with or without a trailing zone.
func parseMaybeZoned(layout, s string) (time.Time, error) {
	if t, err := time.Parse(layout+"Z07:00", s); err == nil {
		return t, nil
	}
	return time.Parse(layout, s)
}

// normalizeSep accepts a space between date and time.
func normalizeSep(s string) string {
	return strings.Replace(s, " ", "T", 1)
}

// parseRFC3339 reports whether s is a full RFC3339 timestamp, parsing it
// if so. The shape check keeps ordinary strings off the parse path.
func parseRFC3339(s string) (time.Time, bool) {
	if len(s) < 20 || s[4] != '-' || s[7] != '-' || (s[10] != 'T' && s[10] != 't') {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
