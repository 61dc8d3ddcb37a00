package status

import (
	"testing"
	"time"

	"taller-service/internal/domain/fleet"
)

func TestDateColor(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	tests := []struct {
		name  string
		days  int
		known bool
		want  Color
	}{
		{name: "unknown is caution", days: 0, known: false, want: Yellow},
		{name: "past due", days: -1, known: true, want: Red},
		{name: "long past due", days: -400, known: true, want: Red},
		{name: "due today", days: 0, known: true, want: Yellow},
		{name: "inside warning window", days: 15, known: true, want: Yellow},
		{name: "warning boundary inclusive", days: 30, known: true, want: Yellow},
		{name: "just past warning window", days: 31, known: true, want: Green},
		{name: "far future", days: 365, known: true, want: Green},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.DateColor(tt.days, tt.known); got != tt.want {
				t.Errorf("DateColor(%d, %v) = %s, want %s", tt.days, tt.known, got, tt.want)
			}
		})
	}
}

func TestDateColorMonotonic(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	rank := map[Color]int{Green: 0, Yellow: 1, Red: 2}

	prev := c.DateColor(400, true)
	for days := 399; days >= -400; days-- {
		got := c.DateColor(days, true)
		if rank[got] < rank[prev] {
			t.Fatalf("color improved from %s to %s as days fell to %d", prev, got, days)
		}
		prev = got
	}
}

func TestOilColor(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	threshold := 120000

	tests := []struct {
		name      string
		currentKm int
		want      Color
	}{
		{name: "overdue", currentKm: 121000, want: Red},
		{name: "exactly at threshold", currentKm: 120000, want: Red},
		{name: "5000 remaining is yellow", currentKm: 115000, want: Yellow},
		{name: "1 km remaining", currentKm: 119999, want: Yellow},
		{name: "5001 remaining is green", currentKm: 114999, want: Green},
		{name: "plenty of margin", currentKm: 80000, want: Green},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.OilColor(&threshold, tt.currentKm); got != tt.want {
				t.Errorf("OilColor(%d, %d) = %s, want %s", threshold, tt.currentKm, got, tt.want)
			}
		})
	}

	t.Run("missing threshold is caution", func(t *testing.T) {
		if got := c.OilColor(nil, 50000); got != Yellow {
			t.Errorf("OilColor(nil) = %s, want %s", got, Yellow)
		}
	})
}

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	today := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.Local)

	itv := "15/05/2026"   // 14 days out
	tacho := "2027-05-01" // a year out
	oil := 95000

	legal := &fleet.LegalStatus{
		Plate:           "1234ABC",
		NextITVDate:     &itv,
		NextTachoDate:   &tacho,
		NextOilChangeKm: &oil,
	}

	got := c.Classify(legal, 91000, today)
	want := TrafficLight{ITV: Yellow, Tacho: Green, ATP: Yellow, Oil: Yellow}
	if got != want {
		t.Errorf("Classify = %+v, want %+v", got, want)
	}
}

func TestClassifyNoRecord(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	got := c.Classify(nil, 0, time.Now())
	want := TrafficLight{ITV: Yellow, Tacho: Yellow, ATP: Yellow, Oil: Yellow}
	if got != want {
		t.Errorf("Classify(nil) = %+v, want %+v", got, want)
	}
}

func TestHealthScore(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	today := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.Local)

	ptr := func(s string) *string { return &s }

	tests := []struct {
		name      string
		legal     *fleet.LegalStatus
		currentKm int
		want      float64
	}{
		{
			name:  "no record defaults to full health",
			legal: nil,
			want:  100,
		},
		{
			name:  "record with no data defaults to full health",
			legal: &fleet.LegalStatus{Plate: "1234ABC"},
			want:  100,
		},
		{
			name: "all items healthy",
			legal: &fleet.LegalStatus{
				NextITVDate:   ptr("01/05/2027"),
				NextTachoDate: ptr("2027-05-01"),
			},
			want: 100,
		},
		{
			name: "one healthy one in warning",
			legal: &fleet.LegalStatus{
				NextITVDate:   ptr("01/05/2027"),
				NextTachoDate: ptr("10/05/2026"),
			},
			want: 75,
		},
		{
			name: "expired item scores zero",
			legal: &fleet.LegalStatus{
				NextITVDate:   ptr("01/01/2026"),
				NextTachoDate: ptr("01/05/2027"),
			},
			want: 50,
		},
		{
			name: "unparseable date is skipped not penalized",
			legal: &fleet.LegalStatus{
				NextITVDate:   ptr("pendiente"),
				NextTachoDate: ptr("01/05/2027"),
			},
			want: 100,
		},
		{
			name: "oil item joins the average",
			legal: &fleet.LegalStatus{
				NextITVDate:     ptr("01/05/2027"),
				NextOilChangeKm: intPtr(92000),
			},
			currentKm: 90000,
			want:      75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.HealthScore(tt.legal, tt.currentKm, today)
			if got != tt.want {
				t.Errorf("HealthScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func intPtr(i int) *int { return &i }
