package utils

import (
	"testing"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "with spaces",
			input:    "1234 ABC",
			expected: "1234ABC",
		},
		{
			name:     "lowercase",
			input:    "1234abc",
			expected: "1234ABC",
		},
		{
			name:     "with dashes",
			input:    "1234-ABC",
			expected: "1234ABC",
		},
		{
			name:     "with dots",
			input:    "1234.ABC",
			expected: "1234ABC",
		},
		{
			name:     "old provincial format",
			input:    "B 1234 XY",
			expected: "B1234XY",
		},
		{
			name:     "already normalized",
			input:    "1234ABC",
			expected: "1234ABC",
		},
		{
			name:     "leading and trailing spaces",
			input:    "  1234 ABC  ",
			expected: "1234ABC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePlate(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizePlate(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
