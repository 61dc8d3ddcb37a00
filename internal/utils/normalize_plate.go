package utils

import (
	"strings"
	"unicode"
)

// NormalizePlate canonicalizes a Spanish registration plate: strip everything
// that is not a letter or digit and uppercase the rest, so "1234 abc",
// "1234-ABC" and "1234.ABC" all key the same vehicle.
func NormalizePlate(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
