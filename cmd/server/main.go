// Package main is the entry point for the quantnote structured-note
// valuation service. It wires the pricing engine, its stores and the
// HTTP API, then runs until interrupted.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantnote/internal/config"
	"github.com/aristath/quantnote/internal/database"
	"github.com/aristath/quantnote/internal/modules/historical"
	historicalhandlers "github.com/aristath/quantnote/internal/modules/historical/handlers"
	"github.com/aristath/quantnote/internal/modules/lifecycle"
	"github.com/aristath/quantnote/internal/modules/snapshots"
	"github.com/aristath/quantnote/internal/modules/valuation"
	valuationhandlers "github.com/aristath/quantnote/internal/modules/valuation/handlers"
	"github.com/aristath/quantnote/internal/server"
	"github.com/aristath/quantnote/pkg/logger"
)

func main() {
	// Bare stderr logger for failures before the real one exists
	fallbackLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	if err != nil {
		fallbackLog.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().Msg("Starting quantnote")

	// History database holds daily closes used for lifecycle reconciliation
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	// Snapshot database is an ephemeral record of completed valuations
	snapshotDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "snapshots.db"),
		Profile: database.ProfileCache,
		Name:    "snapshots",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open snapshot database")
	}
	defer snapshotDB.Close()

	for _, db := range []*database.DB{historyDB, snapshotDB} {
		log.Info().
			Str("db", db.Name()).
			Str("path", db.Path()).
			Str("profile", string(db.Profile())).
			Msg("Database ready")
	}

	historyStore := historical.NewStore(historyDB, log)
	if err := historyStore.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate history database")
	}

	snapshotRepo := snapshots.NewRepository(snapshotDB, log)
	if err := snapshotRepo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate snapshot database")
	}

	classifier := lifecycle.NewClassifier(log)
	valuationSvc := valuation.NewService(classifier, cfg.DefaultPaths, cfg.WorkerCount(), log)
	valuationHandlers := valuationhandlers.NewHandler(valuationSvc, historyStore, snapshotRepo, log)
	historyHandlers := historicalhandlers.NewHandler(historyStore, log)

	srv := server.New(server.Config{
		Port:              cfg.Port,
		Log:               log,
		Config:            cfg,
		DevMode:           cfg.DevMode,
		HistoryDB:         historyDB,
		SnapshotDB:        snapshotDB,
		ValuationHandlers: valuationHandlers,
		HistoryHandlers:   historyHandlers,
	})

	// Start server in goroutine so the main thread can wait on signals
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Int("workers", cfg.WorkerCount()).
		Int("default_paths", cfg.DefaultPaths).
		Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown, bounded so a hung request cannot block exit
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
