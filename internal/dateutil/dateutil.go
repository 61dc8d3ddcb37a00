package dateutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Two formats reach us: the legacy fleet sheet writes DD/MM/YYYY, newer
// writers use ISO YYYY-MM-DD. A slash-separated date is always read day-first;
// falling back to a generic parser would silently flip day and month for
// American-style input, which is exactly the bug this package exists to avoid.
var (
	europeanPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoPattern      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

var spanishMonths = [...]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sep", "oct", "nov", "dic",
}

// ParseFlexible parses DD/MM/YYYY or YYYY-MM-DD into a midnight local time.
// Any other shape reports ok=false. Calendar-invalid matches (31/02/2025)
// are not rejected: time.Date normalizes them forward, same as the sheet
// formulas that produced them.
func ParseFlexible(s string) (time.Time, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return time.Time{}, false
	}

	if m := europeanPattern.FindStringSubmatch(clean); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
	}

	if m := isoPattern.FindStringSubmatch(clean); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
	}

	return time.Time{}, false
}

// DaysUntil returns the signed day count from today to the stored date, both
// normalized to midnight. Zero means due today. ok=false when the string does
// not parse. The arithmetic runs on UTC midnights so a DST transition between
// the two dates cannot shift the count.
func DaysUntil(s string, today time.Time) (int, bool) {
	target, ok := ParseFlexible(s)
	if !ok {
		return 0, false
	}
	ty, tm, td := target.Date()
	ny, nm, nd := today.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24), true
}

// SameDay reports whether the stored date falls on the same calendar day as t.
func SameDay(s string, t time.Time) bool {
	parsed, ok := ParseFlexible(s)
	if !ok {
		return false
	}
	y1, m1, d1 := parsed.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Midnight truncates t to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDisplay renders a parseable date as a short Spanish form ("02 ene 26").
// Unparseable input is returned verbatim so dashboards never lose data.
func FormatDisplay(s string) string {
	t, ok := ParseFlexible(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%02d %s %02d", t.Day(), spanishMonths[t.Month()-1], t.Year()%100)
}

// ToSpanishFormat serializes a date as D/M/YYYY, the shape the legacy fleet
// sheet expects back.
func ToSpanishFormat(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}
