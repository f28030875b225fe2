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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/carebase/carebase/internal/config"
	v1 "github.com/carebase/carebase/internal/handler/v1"
	"github.com/carebase/carebase/internal/repository"
	"github.com/carebase/carebase/internal/service"
	"github.com/carebase/carebase/pkg/database"
	"github.com/carebase/carebase/pkg/logger"
	"github.com/carebase/carebase/pkg/metrics"
	"github.com/carebase/carebase/pkg/tracer"
)

func main() {
	// A .env file is a development convenience; deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector("carebase", prometheus.DefaultRegisterer)

	patientRepo := repository.NewPatientRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditSvc := service.NewAuditService(auditRepo, collector, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, collector, log)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, patientRepo, auditSvc, collector, log)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, patientRepo, auditSvc, collector, log)

	router := v1.NewRouter(cfg, log, collector, v1.Handlers{
		Patients:      v1.NewPatientHandler(patientSvc),
		Appointments:  v1.NewAppointmentHandler(appointmentSvc),
		Prescriptions: v1.NewPrescriptionHandler(prescriptionSvc),
		Health:        v1.NewHealthHandler(cfg.App.Name, cfg.App.Version),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	// Sample the pool for the open-connections gauge.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	// Drain buffered audit entries before the process goes away.
	auditSvc.Shutdown()

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("closing database failed", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
