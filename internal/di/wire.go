package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/config"
	"github.com/rmaragno/crivo/internal/database"
	"github.com/rmaragno/crivo/internal/events"
	"github.com/rmaragno/crivo/internal/modules/debt"
	"github.com/rmaragno/crivo/internal/modules/history"
	"github.com/rmaragno/crivo/internal/modules/indices"
	"github.com/rmaragno/crivo/internal/modules/scoring"
	"github.com/rmaragno/crivo/internal/orchestrator"
	"github.com/rmaragno/crivo/internal/policy"
	"github.com/rmaragno/crivo/internal/reliability"
	"github.com/rmaragno/crivo/internal/validation"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Open and migrate the history database
// 2. Load the scoring policy and validation schemas
// 3. Build the orchestrator and register the calculators in dependency order
// 4. Build the backup service when backups are enabled
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Bus: events.NewBus()}

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileLedger,
		Name:    "history",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := historyDB.Migrate(); err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	c.HistoryDB = historyDB
	c.History = history.NewRepository(historyDB.Conn())

	c.Policy, err = loadPolicy(cfg, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Validation, err = buildValidation(cfg, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Orchestrator = orchestrator.New(c.Policy, c.Validation, c.History, c.Bus, log)
	for _, calc := range []orchestrator.Calculator{
		indices.New(c.Policy, log),
		debt.New(c.Policy, log),
		scoring.New(c.Policy, log),
	} {
		if err := c.Orchestrator.RegisterCalculator(calc); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to register calculator %s: %w", calc.Key(), err)
		}
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		store, err := reliability.NewS3Client(ctx, cfg.Backup)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to build backup store: %w", err)
		}
		c.Backup = reliability.NewBackupService(
			[]*database.DB{c.HistoryDB}, store, cfg.DataDir, log)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")
	return c, nil
}

// loadPolicy reads the external policy file when configured, falling back
// to the built-in defaults otherwise.
func loadPolicy(cfg *config.Config, log zerolog.Logger) (*policy.Config, error) {
	if cfg.PolicyPath == "" {
		log.Info().Msg("Using built-in scoring policy")
		return policy.Default(), nil
	}

	p, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring policy from %s: %w", cfg.PolicyPath, err)
	}
	log.Info().Str("path", cfg.PolicyPath).Msg("Loaded external scoring policy")
	return p, nil
}

// buildValidation registers the embedded schemas, then any extra schema
// files from the configured directory.
func buildValidation(cfg *config.Config, log zerolog.Logger) (*validation.Engine, error) {
	engine := validation.NewEngine(log)

	schemas, err := validation.DefaultSchemas()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded validation schemas: %w", err)
	}
	if err := engine.RegisterAll(schemas); err != nil {
		return nil, fmt.Errorf("failed to register embedded validation schemas: %w", err)
	}

	if cfg.SchemaDir != "" {
		extra, err := validation.LoadDir(cfg.SchemaDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load validation schemas from %s: %w", cfg.SchemaDir, err)
		}
		if err := engine.RegisterAll(extra); err != nil {
			return nil, fmt.Errorf("failed to register validation schemas from %s: %w", cfg.SchemaDir, err)
		}
		log.Info().Int("count", len(extra)).Str("dir", cfg.SchemaDir).Msg("Registered external validation schemas")
	}

	return engine, nil
}
