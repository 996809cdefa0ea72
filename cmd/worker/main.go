package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/khairulanwar/clinic-api/internal/config"
	"github.com/khairulanwar/clinic-api/internal/repository/postgres"
	"github.com/khairulanwar/clinic-api/internal/worker"
	"github.com/khairulanwar/clinic-api/pkg/logger"
)

// Standalone retention sweeper for deployments that keep the API
// instances stateless. Runs the same sweep the API embeds, plus a
// metrics endpoint for scrape targets.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	attemptRepo := postgres.NewLoginAttemptRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retention := worker.NewRetentionWorker(attemptRepo, auditRepo,
		cfg.Retention.AuditDays, cfg.Retention.CleanupInterval, log.Logger)
	go retention.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port+1),
		Handler: mux,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	log.Info().Msg("retention worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	metricsSrv.Close()
	log.Info().Msg("retention worker stopped")
}
