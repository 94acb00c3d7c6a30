// Package main is the entry point for the crivo credit analysis service.
// It scores companies from their registration data, financial statements,
// and behavioral signals, keeps a bounded history of every calculation,
// and re-scores automatically when inputs change.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmaragno/crivo/internal/config"
	"github.com/rmaragno/crivo/internal/di"
	"github.com/rmaragno/crivo/internal/scheduler"
	"github.com/rmaragno/crivo/internal/server"
	"github.com/rmaragno/crivo/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Load configuration from environment variables
// 2. Initialize logging
// 3. Wire all dependencies via the DI container
// 4. Register and start the background jobs
// 5. Start the HTTP server
// 6. Wait for a shutdown signal and stop everything gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting crivo")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	sched := scheduler.New(log)
	if err := di.RegisterJobs(sched, container, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register background jobs")
	}
	sched.Start()
	defer sched.Stop()
	log.Info().Str("recalc_cron", cfg.RecalcCron).Msg("Background jobs started")

	srv := server.New(server.Config{
		Log:          log,
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
		DataDir:      cfg.DataDir,
		HistoryDB:    container.HistoryDB,
		Orchestrator: container.Orchestrator,
		Bus:          container.Bus,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
