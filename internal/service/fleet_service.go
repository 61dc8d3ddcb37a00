package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"taller-service/internal/dateutil"
	"taller-service/internal/domain/fleet"
	"taller-service/internal/repository"
	"taller-service/internal/status"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type FleetService struct {
	repo                *repository.FleetRepository
	classifier          *status.Classifier
	log                 zerolog.Logger
	oilChangeIntervalKm int
	now                 func() time.Time
}

func NewFleetService(repo *repository.FleetRepository, classifier *status.Classifier, log zerolog.Logger, oilChangeIntervalKm int) *FleetService {
	return &FleetService{
		repo:                repo,
		classifier:          classifier,
		log:                 log,
		oilChangeIntervalKm: oilChangeIntervalKm,
		now:                 time.Now,
	}
}

// WithClock overrides the wall clock. For tests.
func (s *FleetService) WithClock(now func() time.Time) *FleetService {
	s.now = now
	return s
}

func (s *FleetService) ListVehicles(ctx context.Context) ([]fleet.PlateOption, error) {
	return s.repo.ListVehicles(ctx)
}

// StatusView is the dashboard payload for one vehicle: raw records plus the
// derived traffic light, health percentage and display-formatted dates.
type StatusView struct {
	fleet.VehicleStatus
	Lights      status.TrafficLight `json:"lights"`
	HealthScore float64             `json:"health_score"`
	Display     DisplayDates        `json:"display"`
}

type DisplayDates struct {
	ITV   string `json:"itv,omitempty"`
	Tacho string `json:"tacho,omitempty"`
	ATP   string `json:"atp,omitempty"`
}

// GetVehicleStatus joins the odometer record with the legal record. The two
// reads run in parallel; a vehicle without a legal record is still served,
// classified all-caution.
func (s *FleetService) GetVehicleStatus(ctx context.Context, plate string) (*StatusView, error) {
	if strings.TrimSpace(plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}

	var (
		km    *fleet.VehicleKm
		legal *fleet.LegalStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		km, err = s.repo.GetVehicleKm(gctx, plate)
		return err
	})
	g.Go(func() error {
		var err error
		legal, err = s.repo.GetLegalStatus(gctx, plate)
		if errors.Is(err, repository.ErrNotFound) {
			legal = nil
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, plate)
		}
		return nil, fmt.Errorf("get vehicle status: %w", err)
	}

	today := s.now()
	view := &StatusView{
		VehicleStatus: fleet.VehicleStatus{
			Plate:        km.Plate,
			CurrentKm:    km.CurrentKm,
			LastKmUpdate: km.LastUpdate,
			Legal:        legal,
		},
		Lights:      s.classifier.Classify(legal, km.CurrentKm, today),
		HealthScore: s.classifier.HealthScore(legal, km.CurrentKm, today),
	}
	if legal != nil {
		view.Display = DisplayDates{
			ITV:   displayDate(legal.NextITVDate),
			Tacho: displayDate(legal.NextTachoDate),
			ATP:   displayDate(legal.NextATPDate),
		}
	}
	return view, nil
}

// SubmitLogInput carries one workshop entry. A non-nil ID switches to edit
// mode; entries are never deleted.
type SubmitLogInput struct {
	ID                   *uuid.UUID
	Plate                string
	UserID               string
	KmAtService          int
	Category             fleet.Category
	Description          string
	InterventionTypeName string
	TirePositions        []fleet.TirePosition
	AttachmentURL        string
	NewExpiryDate        string
}

func (s *FleetService) SubmitMaintenanceLog(ctx context.Context, input SubmitLogInput) (*fleet.MaintenanceLog, error) {
	if strings.TrimSpace(input.Plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}
	if input.KmAtService < 0 {
		return nil, fmt.Errorf("%w: km_at_service must not be negative", ErrInvalidInput)
	}
	if !input.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, input.Category)
	}

	var typeID *int
	if name := strings.TrimSpace(input.InterventionTypeName); name != "" {
		id, err := s.repo.GetOrCreateInterventionType(ctx, input.Category, name)
		if err != nil {
			s.log.Error().Err(err).Str("name", name).Msg("failed to resolve intervention type")
			return nil, fmt.Errorf("resolve intervention type: %w", err)
		}
		typeID = &id
	}

	entry := &fleet.MaintenanceLog{
		Plate:              input.Plate,
		UserID:             input.UserID,
		KmAtService:        input.KmAtService,
		Category:           input.Category,
		InterventionTypeID: typeID,
		Description:        input.Description,
		TirePositions:      input.TirePositions,
	}
	if input.AttachmentURL != "" {
		entry.AttachmentURL = &input.AttachmentURL
	}

	if input.ID != nil {
		entry.ID = *input.ID
		if err := s.repo.UpdateMaintenanceLog(ctx, entry); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: maintenance log %s", ErrNotFound, input.ID)
			}
			return nil, fmt.Errorf("update maintenance log: %w", err)
		}
	} else {
		if err := s.repo.CreateMaintenanceLog(ctx, entry); err != nil {
			return nil, fmt.Errorf("create maintenance log: %w", err)
		}
	}

	s.log.Info().
		Str("log_id", entry.ID.String()).
		Str("plate", entry.Plate).
		Str("category", string(entry.Category)).
		Int("km", entry.KmAtService).
		Msg("maintenance log saved")

	if err := s.applyLegalUpdate(ctx, input); err != nil {
		return nil, err
	}
	if err := s.applyOilUpdate(ctx, input); err != nil {
		return nil, err
	}

	return entry, nil
}

// applyLegalUpdate routes a renewal's new expiry date to the matching legal
// column. LEGAL and FRIGO entries only; the field is picked by keyword from
// the description and intervention type, same rules the workshop staff follow
// when naming the work.
func (s *FleetService) applyLegalUpdate(ctx context.Context, input SubmitLogInput) error {
	if input.NewExpiryDate == "" {
		return nil
	}
	if input.Category != fleet.CategoryLegal && input.Category != fleet.CategoryFrigo {
		return nil
	}

	column := legalDateColumn(input.Description + " " + input.InterventionTypeName)
	if column == "" {
		return nil
	}

	if err := s.repo.UpsertLegalDate(ctx, input.Plate, column, input.NewExpiryDate); err != nil {
		s.log.Error().Err(err).Str("plate", input.Plate).Str("column", column).Msg("failed to update legal status")
		return fmt.Errorf("update legal status: %w", err)
	}

	s.log.Info().
		Str("plate", input.Plate).
		Str("column", column).
		Str("date", input.NewExpiryDate).
		Msg("legal expiry date updated")
	return nil
}

// applyOilUpdate advances the next oil-change mileage when a mechanical entry
// mentions oil work.
func (s *FleetService) applyOilUpdate(ctx context.Context, input SubmitLogInput) error {
	if input.Category != fleet.CategoryMechanical {
		return nil
	}
	if !isOilRelated(input.Description + " " + input.InterventionTypeName) {
		return nil
	}

	nextKm := input.KmAtService + s.oilChangeIntervalKm
	if err := s.repo.UpsertNextOilChangeKm(ctx, input.Plate, nextKm); err != nil {
		s.log.Error().Err(err).Str("plate", input.Plate).Msg("failed to update oil change threshold")
		return fmt.Errorf("update oil change threshold: %w", err)
	}

	s.log.Info().
		Str("plate", input.Plate).
		Int("next_oil_change_km", nextKm).
		Msg("oil change threshold advanced")
	return nil
}

func (s *FleetService) ListMaintenanceLogs(ctx context.Context, plate string, limit int) ([]fleet.MaintenanceLog, error) {
	if strings.TrimSpace(plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}
	return s.repo.ListMaintenanceLogs(ctx, plate, limit)
}

func (s *FleetService) ListInterventionTypes(ctx context.Context, category fleet.Category) ([]fleet.InterventionType, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	return s.repo.ListInterventionTypes(ctx, category)
}

func (s *FleetService) RegisterDevice(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	return s.repo.RegisterDeviceToken(ctx, token)
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
)

// legalDateColumn picks the legal column a renewal applies to, or "" when the
// text names no known document.
func legalDateColumn(text string) string {
	t := accentReplacer.Replace(strings.ToLower(text))
	switch {
	case strings.Contains(t, "itv"):
		return "next_itv_date"
	case strings.Contains(t, "tacografo") || strings.Contains(t, "tacho"):
		return "next_tacho_date"
	case strings.Contains(t, "atp") || strings.Contains(t, "frigo"):
		return "next_atp_date"
	default:
		return ""
	}
}

func isOilRelated(text string) bool {
	t := accentReplacer.Replace(strings.ToLower(text))
	return strings.Contains(t, "aceit") || strings.Contains(t, "oil")
}

func displayDate(s *string) string {
	if s == nil {
		return ""
	}
	return dateutil.FormatDisplay(*s)
}
