package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/database"
)

// MaintenanceJob keeps the history database healthy: forces a WAL
// checkpoint to bound the journal and runs a quick connectivity check.
type MaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewMaintenanceJob creates the database maintenance job.
func NewMaintenanceJob(db *database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Name implements Job.
func (j *MaintenanceJob) Name() string { return "db_maintenance" }

// Run implements Job.
func (j *MaintenanceJob) Run(ctx context.Context) error {
	if err := j.db.QuickCheck(ctx); err != nil {
		return err
	}
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}

	stats, err := j.db.GetStats()
	if err != nil {
		return err
	}
	j.log.Debug().
		Str("database", j.db.Name()).
		Int64("size_bytes", stats.SizeBytes).
		Int64("wal_bytes", stats.WALSizeBytes).
		Msg("maintenance pass complete")
	return nil
}
