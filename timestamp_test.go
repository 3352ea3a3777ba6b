package grist

import (
	"errors"
	"testing"
	"time"
)

func utc(y int, mo time.Month, d, h, mi, s, ns int) time.Time {
	return time.Date(y, mo, d, h, mi, s, ns, time.UTC)
}

func TestParseTimeRangePrefixes(t *testing.T) {
	tests := []struct {
		in    string
		start time.Time
		end   time.Time
	}{
		{"2026", utc(2026, 1, 1, 0, 0, 0, 0), utc(2027, 1, 1, 0, 0, 0, 0)},
		{"2026-08", utc(2026, 8, 1, 0, 0, 0, 0), utc(2026, 9, 1, 0, 0, 0, 0)},
		{"2026-08-06", utc(2026, 8, 6, 0, 0, 0, 0), utc(2026, 8, 7, 0, 0, 0, 0)},
		{"2026-08-06T11", utc(2026, 8, 6, 11, 0, 0, 0), utc(2026, 8, 6, 12, 0, 0, 0)},
		{"2026-08-06T11:22", utc(2026, 8, 6, 11, 22, 0, 0), utc(2026, 8, 6, 11, 23, 0, 0)},
		{"2026-08-06 11:22", utc(2026, 8, 6, 11, 22, 0, 0), utc(2026, 8, 6, 11, 23, 0, 0)},
		{"2026-08-06T11:22:33", utc(2026, 8, 6, 11, 22, 33, 0), utc(2026, 8, 6, 11, 22, 34, 0)},
		{"2026-08-06T11:22:33.5", utc(2026, 8, 6, 11, 22, 33, 500000000), utc(2026, 8, 6, 11, 22, 33, 600000000)},
		{"2026-08-06T11:22:33.125", utc(2026, 8, 6, 11, 22, 33, 125000000), utc(2026, 8, 6, 11, 22, 33, 126000000)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseTimeRange(tt.in)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !r.Start.Equal(tt.start) || !r.End.Equal(tt.end) {
				t.Errorf("range = [%v, %v), want [%v, %v)", r.Start, r.End, tt.start, tt.end)
			}
		})
	}
}

func TestParseTimeRangePair(t *testing.T) {
	r, err := ParseTimeRange("2026-08-06T11:00:00Z,2026-08-06T12:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if !r.Start.Equal(utc(2026, 8, 6, 11, 0, 0, 0)) || !r.End.Equal(utc(2026, 8, 6, 12, 0, 0, 0)) {
		t.Errorf("range = [%v, %v)", r.Start, r.End)
	}

	if _, err := ParseTimeRange("2026-08-06T12:00:00Z,2026-08-06T11:00:00Z"); !errors.Is(err, ErrBadTimeRange) {
		t.Errorf("inverted pair err = %v, want ErrBadTimeRange", err)
	}
}

func TestParseTimeRangeInvalid(t *testing.T) {
	for _, in := range []string{"", "not a time", "2026-13", "11:22:33"} {
		if _, err := ParseTimeRange(in); !errors.Is(err, ErrBadTimeRange) {
			t.Errorf("%q err = %v, want ErrBadTimeRange", in, err)
		}
	}
}

func TestParseRFC3339Detection(t *testing.T) {
	if _, ok := parseRFC3339("2026-08-06T12:00:00Z"); !ok {
		t.Error("full timestamp should be detected")
	}
	if _, ok := parseRFC3339("2026-08-06T12:00:00.123456+02:00"); !ok {
		t.Error("fractional zoned timestamp should be detected")
	}
	for _, s := range []string{"hello", "2026-08-06", "2026-08-06 12:00:00Z", "20260806T120000Z"} {
		if _, ok := parseRFC3339(s); ok {
			t.Errorf("%q wrongly detected as a timestamp", s)
		}
	}
}
