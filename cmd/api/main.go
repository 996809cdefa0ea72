package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/khairulanwar/clinic-api/internal/config"
	"github.com/khairulanwar/clinic-api/internal/handler"
	appointmentHandler "github.com/khairulanwar/clinic-api/internal/handler/appointment"
	auditHandler "github.com/khairulanwar/clinic-api/internal/handler/audit"
	authHandler "github.com/khairulanwar/clinic-api/internal/handler/auth"
	doctorHandler "github.com/khairulanwar/clinic-api/internal/handler/doctor"
	patientHandler "github.com/khairulanwar/clinic-api/internal/handler/patient"
	"github.com/khairulanwar/clinic-api/internal/middleware"
	"github.com/khairulanwar/clinic-api/internal/repository/postgres"
	"github.com/khairulanwar/clinic-api/internal/router"
	auditService "github.com/khairulanwar/clinic-api/internal/service/audit"
	authService "github.com/khairulanwar/clinic-api/internal/service/auth"
	doctorService "github.com/khairulanwar/clinic-api/internal/service/doctor"
	ledgerService "github.com/khairulanwar/clinic-api/internal/service/ledger"
	"github.com/khairulanwar/clinic-api/internal/service/notification"
	patientService "github.com/khairulanwar/clinic-api/internal/service/patient"
	schedulingService "github.com/khairulanwar/clinic-api/internal/service/scheduling"
	"github.com/khairulanwar/clinic-api/internal/session"
	"github.com/khairulanwar/clinic-api/internal/worker"
	"github.com/khairulanwar/clinic-api/pkg/logger"
	"github.com/khairulanwar/clinic-api/pkg/metrics"
	"github.com/khairulanwar/clinic-api/pkg/security"
)

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

	ciphers, err := security.NewFieldCiphers([]byte(cfg.Cipher.RecordKey), []byte(cfg.Cipher.ICKey))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize field ciphers")
	}

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db, ciphers.Record)
	patientRepo := postgres.NewPatientRepository(db, ciphers)
	doctorRepo := postgres.NewDoctorRepository(db)
	userRepo := postgres.NewUserRepository(db)
	attemptRepo := postgres.NewLoginAttemptRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Session store: Redis when configured, in-process otherwise.
	var sessionStore session.Store
	if cfg.Redis.URL != "" {
		sessionStore, err = session.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
	} else {
		log.Warn().Msg("redis not configured, using in-memory session store")
		sessionStore = session.NewMemoryStore()
	}
	sessions := session.NewManager(sessionStore, session.NewSigner(cfg.Session.SigningSecret))

	var notifier notification.Service = notification.NoopService{}
	if cfg.SMTP.Host != "" {
		notifier = notification.NewMailService(cfg.SMTP)
	}

	m := metrics.NewMetrics("clinic")

	// Services
	auditSvc := auditService.NewService(auditRepo, log.Logger)
	ledgerSvc := ledgerService.NewService(attemptRepo, m)
	authSvc := authService.NewService(userRepo, ledgerSvc, sessions,
		security.NewBcryptHasher(12), auditSvc, m)
	schedulingSvc := schedulingService.NewService(appointmentRepo, patientRepo,
		doctorRepo, auditSvc, notifier, m, log.Logger)
	patientSvc := patientService.NewService(patientRepo, auditSvc)
	doctorSvc := doctorService.NewService(doctorRepo, auditSvc)

	// HTTP wiring
	sessionMw := middleware.NewSessionMiddleware(sessions, auditSvc, m)
	r := router.NewRouter(sessionMw, m)
	r.Setup(
		authHandler.NewHandler(authSvc),
		appointmentHandler.NewHandler(schedulingSvc),
		patientHandler.NewHandler(patientSvc),
		doctorHandler.NewHandler(doctorSvc),
		auditHandler.NewHandler(auditSvc),
		handler.NewHealthHandler(db),
	)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retention := worker.NewRetentionWorker(attemptRepo, auditRepo,
		cfg.Retention.AuditDays, cfg.Retention.CleanupInterval, log.Logger)
	go retention.Start(ctx)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
