package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"taller-service/internal/dateutil"
	"taller-service/internal/domain/fleet"
	"taller-service/internal/notify"
)

// AlertRepository is the slice of storage the scanner needs.
type AlertRepository interface {
	ListLegalStatuses(ctx context.Context) ([]fleet.LegalStatus, error)
	FindNotificationLogs(ctx context.Context, expiryDates []string) ([]fleet.AlertCandidate, error)
	CreateNotificationLog(ctx context.Context, candidate fleet.AlertCandidate) error
	ListDeviceTokens(ctx context.Context) ([]string, error)
}

type PushSender interface {
	Send(ctx context.Context, deviceToken string, msg notify.Message) error
}

// ScanSummary is the JSON result of one scan invocation.
type ScanSummary struct {
	Candidates int                    `json:"candidates"`
	Duplicates int                    `json:"duplicates"`
	Devices    int                    `json:"devices"`
	Sent       []fleet.AlertCandidate `json:"sent"`
	Message    string                 `json:"message,omitempty"`
}

// AlertService scans legal-status records for documents expiring in exactly
// PreNotificationDays days and pushes one notification per distinct
// (plate, type, expiry date) event.
type AlertService struct {
	repo                AlertRepository
	sender              PushSender
	log                 zerolog.Logger
	preNotificationDays int
	now                 func() time.Time
}

func NewAlertService(repo AlertRepository, sender PushSender, log zerolog.Logger, preNotificationDays int) *AlertService {
	return &AlertService{
		repo:                repo,
		sender:              sender,
		log:                 log,
		preNotificationDays: preNotificationDays,
		now:                 time.Now,
	}
}

// WithClock overrides the wall clock. For tests.
func (s *AlertService) WithClock(now func() time.Time) *AlertService {
	s.now = now
	return s
}

// Run executes one scan. Storage read failures abort the run; individual send
// failures are logged and do not block the dedup write for their candidate.
func (s *AlertService) Run(ctx context.Context) (*ScanSummary, error) {
	today := s.now()
	target := dateutil.Midnight(today).AddDate(0, 0, s.preNotificationDays)

	statuses, err := s.repo.ListLegalStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list legal statuses: %w", err)
	}

	candidates := collectCandidates(statuses, target)
	summary := &ScanSummary{Candidates: len(candidates), Sent: []fleet.AlertCandidate{}}
	if len(candidates) == 0 {
		summary.Message = "no expirations in the notification window"
		s.log.Info().Time("target", target).Msg("alert scan found nothing to do")
		return summary, nil
	}

	pending, duplicates, err := s.filterAlreadySent(ctx, candidates)
	if err != nil {
		return nil, err
	}
	summary.Duplicates = duplicates
	if len(pending) == 0 {
		summary.Message = "all matching alerts were already sent"
		s.log.Info().Int("candidates", len(candidates)).Msg("alert scan fully deduplicated")
		return summary, nil
	}

	tokens, err := s.repo.ListDeviceTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	summary.Devices = len(tokens)
	if len(tokens) == 0 {
		summary.Message = "no devices registered"
		s.log.Warn().Int("pending", len(pending)).Msg("alerts pending but no devices registered")
		return summary, nil
	}

	// Candidates run one after another so their dedup writes never race
	// inside a run; only the device fan-out of a single candidate is
	// concurrent.
	for _, candidate := range pending {
		s.dispatch(ctx, candidate, tokens)

		if err := s.repo.CreateNotificationLog(ctx, candidate); err != nil {
			return nil, fmt.Errorf("log notification for %s/%s: %w", candidate.Plate, candidate.Type, err)
		}
		summary.Sent = append(summary.Sent, candidate)

		s.log.Info().
			Str("plate", candidate.Plate).
			Str("type", string(candidate.Type)).
			Str("expiry_date", candidate.ExpiryDate).
			Int("devices", len(tokens)).
			Msg("alert dispatched")
	}

	return summary, nil
}

func collectCandidates(statuses []fleet.LegalStatus, target time.Time) []fleet.AlertCandidate {
	var candidates []fleet.AlertCandidate
	for _, status := range statuses {
		fields := []struct {
			date *string
			typ  fleet.AlertType
		}{
			{status.NextITVDate, fleet.AlertITV},
			{status.NextTachoDate, fleet.AlertTacho},
			{status.NextATPDate, fleet.AlertATP},
		}
		for _, f := range fields {
			if f.date == nil {
				continue
			}
			if dateutil.SameDay(*f.date, target) {
				candidates = append(candidates, fleet.AlertCandidate{
					Plate:      status.Plate,
					Type:       f.typ,
					ExpiryDate: *f.date,
				})
			}
		}
	}
	return candidates
}

// filterAlreadySent drops candidates whose exact (plate, type, expiry date)
// tuple is already in the dedup log. One batched query per run.
func (s *AlertService) filterAlreadySent(ctx context.Context, candidates []fleet.AlertCandidate) ([]fleet.AlertCandidate, int, error) {
	dates := make([]string, 0, len(candidates))
	seen := make(map[string]bool)
	for _, c := range candidates {
		if !seen[c.ExpiryDate] {
			seen[c.ExpiryDate] = true
			dates = append(dates, c.ExpiryDate)
		}
	}

	existing, err := s.repo.FindNotificationLogs(ctx, dates)
	if err != nil {
		return nil, 0, fmt.Errorf("load notification logs: %w", err)
	}

	sent := make(map[fleet.AlertCandidate]bool, len(existing))
	for _, e := range existing {
		sent[e] = true
	}

	pending := make([]fleet.AlertCandidate, 0, len(candidates))
	duplicates := 0
	for _, c := range candidates {
		if sent[c] {
			duplicates++
			continue
		}
		pending = append(pending, c)
	}
	return pending, duplicates, nil
}

// dispatch fans one alert out to every device concurrently and waits for all
// sends. Failures are logged, not retried; the dedup entry is written either
// way, so a failed device send is still counted as notified.
func (s *AlertService) dispatch(ctx context.Context, candidate fleet.AlertCandidate, tokens []string) {
	msg := notify.Message{
		Title: fmt.Sprintf("⚠️ Mantenimiento Próximo: %s", candidate.Plate),
		Body: fmt.Sprintf("El vencimiento de %s es el %s (en %d días).",
			candidate.Type, candidate.ExpiryDate, s.preNotificationDays),
		Data: map[string]string{
			"plate": candidate.Plate,
			"type":  string(candidate.Type),
		},
	}

	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			if err := s.sender.Send(ctx, token, msg); err != nil {
				s.log.Error().
					Err(err).
					Str("plate", candidate.Plate).
					Str("type", string(candidate.Type)).
					Msg("failed to send push notification")
			}
		}(token)
	}
	wg.Wait()
}
