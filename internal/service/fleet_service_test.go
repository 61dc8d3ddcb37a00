package service

import (
	"testing"
)

func TestLegalDateColumn(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "itv renewal", text: "Renovación ITV favorable", want: "next_itv_date"},
		{name: "lowercase itv", text: "paso itv estación", want: "next_itv_date"},
		{name: "tachograph with accent", text: "Calibración tacógrafo", want: "next_tacho_date"},
		{name: "tachograph without accent", text: "revision tacografo", want: "next_tacho_date"},
		{name: "tacho shorthand", text: "tacho renewal", want: "next_tacho_date"},
		{name: "atp certificate", text: "Certificado ATP renovado", want: "next_atp_date"},
		{name: "frigo keyword", text: "revisión equipo frigo", want: "next_atp_date"},
		{name: "itv wins over tacho", text: "ITV y tacógrafo", want: "next_itv_date"},
		{name: "no known document", text: "cambio de bombilla", want: ""},
		{name: "empty", text: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := legalDateColumn(tt.text); got != tt.want {
				t.Errorf("legalDateColumn(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsOilRelated(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "plain aceite", text: "Cambio de aceite y filtros", want: true},
		{name: "uppercase", text: "CAMBIO ACEITE", want: true},
		{name: "partial aceit", text: "aceit motor", want: true},
		{name: "english oil", text: "oil change", want: true},
		{name: "accented vowels", text: "cambió de acéite", want: true},
		{name: "unrelated work", text: "cambio de pastillas de freno", want: false},
		{name: "empty", text: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isOilRelated(tt.text); got != tt.want {
				t.Errorf("isOilRelated(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDisplayDate(t *testing.T) {
	d := "15/06/2026"
	if got := displayDate(&d); got != "15 jun 26" {
		t.Errorf("displayDate = %q, want %q", got, "15 jun 26")
	}
	if got := displayDate(nil); got != "" {
		t.Errorf("displayDate(nil) = %q, want empty", got)
	}
	bad := "pendiente"
	if got := displayDate(&bad); got != "pendiente" {
		t.Errorf("displayDate passes unparseable input through, got %q", got)
	}
}
