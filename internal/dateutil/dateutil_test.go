package dateutil

import (
	"testing"
	"time"
)

func TestParseFlexible(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "european format",
			input: "15/06/2026",
			want:  time.Date(2026, time.June, 15, 0, 0, 0, 0, time.Local),
			ok:    true,
		},
		{
			name:  "european single digit day and month",
			input: "5/6/2026",
			want:  time.Date(2026, time.June, 5, 0, 0, 0, 0, time.Local),
			ok:    true,
		},
		{
			name:  "slash dates are never month first",
			input: "03/04/2026",
			want:  time.Date(2026, time.April, 3, 0, 0, 0, 0, time.Local),
			ok:    true,
		},
		{
			name:  "iso format",
			input: "2026-06-15",
			want:  time.Date(2026, time.June, 15, 0, 0, 0, 0, time.Local),
			ok:    true,
		},
		{
			name:  "surrounding whitespace",
			input: "  15/06/2026  ",
			want:  time.Date(2026, time.June, 15, 0, 0, 0, 0, time.Local),
			ok:    true,
		},
		{
			name:  "invalid calendar date rolls forward",
			input: "31/02/2025",
			want:  time.Date(2025, time.March, 3, 0, 0, 0, 0, time.Local),
			ok:    true,
		},
		{
			name:  "empty string",
			input: "",
			ok:    false,
		},
		{
			name:  "american style with dashes",
			input: "06-15-2026",
			ok:    false,
		},
		{
			name:  "free text",
			input: "pendiente",
			ok:    false,
		},
		{
			name:  "month out of range",
			input: "15/13/2026",
			ok:    false,
		},
		{
			name:  "two digit year",
			input: "15/06/26",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFlexible(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseFlexible(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseFlexible(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDaysUntil(t *testing.T) {
	today := time.Date(2026, time.January, 10, 14, 30, 0, 0, time.Local)

	tests := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{name: "due today", input: "10/01/2026", want: 0, ok: true},
		{name: "due today iso", input: "2026-01-10", want: 0, ok: true},
		{name: "tomorrow", input: "11/01/2026", want: 1, ok: true},
		{name: "next week", input: "17/01/2026", want: 7, ok: true},
		{name: "yesterday", input: "09/01/2026", want: -1, ok: true},
		{name: "across month boundary", input: "09/02/2026", want: 30, ok: true},
		{name: "past year", input: "10/01/2025", want: -365, ok: true},
		{name: "unparseable", input: "soon", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DaysUntil(tt.input, today)
			if ok != tt.ok {
				t.Fatalf("DaysUntil(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("DaysUntil(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestDaysUntilZeroOnlyOnSameDay(t *testing.T) {
	today := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.Local)
	for offset := -3; offset <= 3; offset++ {
		date := today.AddDate(0, 0, offset)
		s := date.Format("02/01/2006")
		got, ok := DaysUntil(s, today)
		if !ok {
			t.Fatalf("DaysUntil(%q) unexpectedly failed to parse", s)
		}
		if (got == 0) != (offset == 0) {
			t.Errorf("DaysUntil(%q) = %d, offset %d", s, got, offset)
		}
	}
}

func TestFormatDisplay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "european date", input: "02/01/2026", want: "02 ene 26"},
		{name: "iso date", input: "2026-12-31", want: "31 dic 26"},
		{name: "unparseable returned verbatim", input: "sin fecha", want: "sin fecha"},
		{name: "empty returned verbatim", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDisplay(tt.input); got != tt.want {
				t.Errorf("FormatDisplay(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToSpanishFormat(t *testing.T) {
	got := ToSpanishFormat(time.Date(2026, time.June, 5, 0, 0, 0, 0, time.Local))
	if got != "5/6/2026" {
		t.Errorf("ToSpanishFormat = %q, want %q", got, "5/6/2026")
	}
}

func TestSameDay(t *testing.T) {
	day := time.Date(2026, time.July, 8, 16, 45, 0, 0, time.Local)
	if !SameDay("08/07/2026", day) {
		t.Error("expected 08/07/2026 to match")
	}
	if !SameDay("2026-07-08", day) {
		t.Error("expected 2026-07-08 to match")
	}
	if SameDay("09/07/2026", day) {
		t.Error("did not expect 09/07/2026 to match")
	}
	if SameDay("garbage", day) {
		t.Error("did not expect garbage to match")
	}
}
