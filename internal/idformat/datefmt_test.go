package idformat

import (
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 120000000, time.UTC)
	for _, tc := range []struct {
		pattern string
		want    string
	}{
		{"yyyyMMdd", "20240309"},
		{"yy-M-d", "24-3-9"},
		{"HH:mm:ss", "14:05:07"},
		{"h tt", "2 PM"},
		{"hh t", "02 P"},
		{"MMM MMMM", "Mar March"},
		{"ddd dddd", "Sat Saturday"},
		{"fff", "120"},
		{"FFF", "12"},
		{"K", "Z"},
		{"zzz", "+00:00"},
		{"'yyyy'yyyy", "yyyy2024"},
		{`\y\e\a\r-yyyy`, "year-2024"},
		{"INV_yyyy#", "INV_2024#"},
		{"", ""},
	} {
		if got := FormatDate(ts, tc.pattern); got != tc.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tc.pattern, got, tc.want)
		}
	}
}

func TestFormatDate_Midnight(t *testing.T) {
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(ts, "hh:mm tt"); got != "12:00 AM" {
		t.Errorf("FormatDate() = %q, want %q", got, "12:00 AM")
	}
	if got := FormatDate(ts, "FFF"); got != "" {
		t.Errorf("FormatDate(FFF) = %q, want empty", got)
	}
}
