package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"taller-service/internal/service"
)

// Scheduler runs the expiry alert scan on a cron cadence. Overlapping runs
// are not mutually excluded; the unique index on the notification log bounds
// what a concurrent second deployment can double-send.
type Scheduler struct {
	cron     *cron.Cron
	alerts   *service.AlertService
	cronSpec string
	log      zerolog.Logger
}

func New(alerts *service.AlertService, cronSpec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		alerts:   alerts,
		cronSpec: cronSpec,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cronSpec, s.runScan); err != nil {
		return fmt.Errorf("add alert scan job: %w", err)
	}
	s.cron.Start()
	s.log.Info().Str("spec", s.cronSpec).Msg("alert scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("alert scheduler stopped")
}

func (s *Scheduler) runScan() {
	summary, err := s.alerts.Run(context.Background())
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled alert scan failed")
		return
	}
	s.log.Info().
		Int("candidates", summary.Candidates).
		Int("duplicates", summary.Duplicates).
		Int("sent", len(summary.Sent)).
		Msg("scheduled alert scan finished")
}
