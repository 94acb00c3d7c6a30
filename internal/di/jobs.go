package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/config"
	"github.com/rmaragno/crivo/internal/scheduler"
)

// Cron specs for the fixed maintenance windows. The recalculation sweep
// interval comes from configuration instead.
const (
	maintenanceCron = "0 3 * * *"
	backupCron      = "30 3 * * *"
)

// RegisterJobs attaches the background jobs to the scheduler: the dirty
// recalculation sweep, nightly database maintenance, and the backup upload
// when backups are enabled.
func RegisterJobs(sched *scheduler.Scheduler, c *Container, cfg *config.Config, log zerolog.Logger) error {
	if err := sched.Add(cfg.RecalcCron, scheduler.NewRecalcJob(c.Orchestrator, log)); err != nil {
		return fmt.Errorf("failed to schedule recalculation sweep: %w", err)
	}
	if err := sched.Add(maintenanceCron, scheduler.NewMaintenanceJob(c.HistoryDB, log)); err != nil {
		return fmt.Errorf("failed to schedule database maintenance: %w", err)
	}

	if c.Backup != nil {
		if err := sched.Add(backupCron, scheduler.NewBackupJob(c.Backup, log)); err != nil {
			return fmt.Errorf("failed to schedule history backup: %w", err)
		}
	}

	return nil
}
