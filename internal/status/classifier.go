// Package status derives traffic-light health from legal and mileage records.
package status

import (
	"time"

	"taller-service/internal/dateutil"
	"taller-service/internal/domain/fleet"
)

type Color string

const (
	Green  Color = "green"
	Yellow Color = "yellow"
	Red    Color = "red"
)

// Thresholds carry the classification boundaries. They are configuration, not
// constants, so deployments and tests can move them without a rebuild.
type Thresholds struct {
	// DateWarningDays is the window before a document expiry that turns a
	// date item yellow.
	DateWarningDays int
	// OilWarningKm is the remaining-distance window that turns the oil item
	// yellow.
	OilWarningKm int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DateWarningDays: 30,
		OilWarningKm:    5000,
	}
}

type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(thresholds Thresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// DateColor classifies a date-based item (ITV, tachograph, ATP). Missing or
// unparseable data is yellow, not green: an unknown expiry is a caution, never
// a pass.
func (c *Classifier) DateColor(days int, known bool) Color {
	switch {
	case !known:
		return Yellow
	case days < 0:
		return Red
	case days <= c.thresholds.DateWarningDays:
		return Yellow
	default:
		return Green
	}
}

// OilColor classifies the oil-change item from the stored threshold and the
// current odometer. The yellow boundary is inclusive: exactly OilWarningKm
// remaining is still a warning.
func (c *Classifier) OilColor(nextChangeKm *int, currentKm int) Color {
	if nextChangeKm == nil {
		return Yellow
	}
	remaining := *nextChangeKm - currentKm
	switch {
	case remaining <= 0:
		return Red
	case remaining <= c.thresholds.OilWarningKm:
		return Yellow
	default:
		return Green
	}
}

// TrafficLight holds the per-item colors shown on the dashboard.
type TrafficLight struct {
	ITV   Color `json:"itv"`
	Tacho Color `json:"tacho"`
	ATP   Color `json:"atp"`
	Oil   Color `json:"oil"`
}

// Classify derives the four-item traffic light for a vehicle. A nil legal
// record means no data at all, which yields all-yellow.
func (c *Classifier) Classify(legal *fleet.LegalStatus, currentKm int, today time.Time) TrafficLight {
	if legal == nil {
		return TrafficLight{ITV: Yellow, Tacho: Yellow, ATP: Yellow, Oil: Yellow}
	}
	return TrafficLight{
		ITV:   c.DateColor(daysFor(legal.NextITVDate, today)),
		Tacho: c.DateColor(daysFor(legal.NextTachoDate, today)),
		ATP:   c.DateColor(daysFor(legal.NextATPDate, today)),
		Oil:   c.OilColor(legal.NextOilChangeKm, currentKm),
	}
}

// HealthScore aggregates the tracked items into a 0-100 percentage: full
// credit beyond the warning window, half inside it, zero at or past due,
// averaged over items that actually have data. With no data at all the score
// defaults to 100. That optimism is deliberate and intentionally asymmetric
// with the per-item missing-is-yellow rule.
func (c *Classifier) HealthScore(legal *fleet.LegalStatus, currentKm int, today time.Time) float64 {
	if legal == nil {
		return 100
	}

	total := 0.0
	items := 0

	for _, d := range []*string{legal.NextITVDate, legal.NextTachoDate, legal.NextATPDate} {
		days, known := daysFor(d, today)
		if !known {
			continue
		}
		items++
		switch {
		case days > c.thresholds.DateWarningDays:
			total += 1
		case days > 0:
			total += 0.5
		}
	}

	if legal.NextOilChangeKm != nil {
		items++
		remaining := *legal.NextOilChangeKm - currentKm
		switch {
		case remaining > c.thresholds.OilWarningKm:
			total += 1
		case remaining > 0:
			total += 0.5
		}
	}

	if items == 0 {
		return 100
	}
	return total / float64(items) * 100
}

func daysFor(s *string, today time.Time) (int, bool) {
	if s == nil {
		return 0, false
	}
	return dateutil.DaysUntil(*s, today)
}
