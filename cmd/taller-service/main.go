package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taller-service/internal/auth"
	"taller-service/internal/config"
	"taller-service/internal/db"
	internalhttp "taller-service/internal/http"
	"taller-service/internal/http/middleware"
	"taller-service/internal/logger"
	"taller-service/internal/notify"
	"taller-service/internal/repository"
	"taller-service/internal/scheduler"
	"taller-service/internal/service"
	"taller-service/internal/status"
	"taller-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)
	log.Info().Str("environment", cfg.Environment).Msg("starting taller-service")

	database, err := db.New(cfg.DB.DSN, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.ConnMaxLifetime, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	repo := repository.NewFleetRepository(database)
	classifier := status.NewClassifier(status.Thresholds{
		DateWarningDays: cfg.Status.DateWarningDays,
		OilWarningKm:    cfg.Status.OilWarningKm,
	})
	fleetService := service.NewFleetService(repo, classifier, log, cfg.Status.OilChangeIntervalKm)

	var alertService *service.AlertService
	pushClient, err := notify.NewClient(cfg.FCM.ServiceAccount)
	switch {
	case err == nil:
		alertService = service.NewAlertService(repo, pushClient, log, cfg.Alert.PreNotificationDays)
	case errors.Is(err, notify.ErrNotConfigured):
		log.Warn().Msg("FCM_SERVICE_ACCOUNT not set, push alerts disabled")
	default:
		log.Fatal().Err(err).Msg("failed to initialize push client")
	}

	attachments, err := storage.NewClient(cfg.Storage)
	if err != nil {
		if !errors.Is(err, storage.ErrNotConfigured) {
			log.Fatal().Err(err).Msg("failed to initialize attachment storage")
		}
		log.Warn().Msg("S3 credentials not set, attachment uploads disabled")
		attachments = nil
	}

	var alertScheduler *scheduler.Scheduler
	if alertService != nil {
		alertScheduler = scheduler.New(alertService, cfg.Alert.CronSpec, log)
		if err := alertScheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start alert scheduler")
		}
	}

	parser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := internalhttp.NewHandler(fleetService, alertService, attachments, log)
	router := internalhttp.NewRouter(handler, middleware.Auth(parser), cfg.Environment, database, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	if alertScheduler != nil {
		alertScheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("stopped")
}
