// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/rmaragno/crivo/internal/database"
	"github.com/rmaragno/crivo/internal/events"
	"github.com/rmaragno/crivo/internal/modules/history"
	"github.com/rmaragno/crivo/internal/orchestrator"
	"github.com/rmaragno/crivo/internal/policy"
	"github.com/rmaragno/crivo/internal/reliability"
	"github.com/rmaragno/crivo/internal/validation"
)

// Container holds all application dependencies. It is created by Wire()
// and is the single source of truth for service instances.
type Container struct {
	// Databases
	HistoryDB *database.DB

	// Core services
	Bus          *events.Bus
	Policy       *policy.Config
	Validation   *validation.Engine
	History      *history.Repository
	Orchestrator *orchestrator.Orchestrator

	// Optional: nil unless backups are enabled
	Backup *reliability.BackupService
}

// Close releases everything the container owns.
func (c *Container) Close() error {
	if c.HistoryDB != nil {
		return c.HistoryDB.Close()
	}
	return nil
}
