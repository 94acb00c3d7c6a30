package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/reliability"
)

// BackupJob ships a fresh history backup off-host and prunes old archives.
type BackupJob struct {
	svc *reliability.BackupService
	log zerolog.Logger
}

// NewBackupJob creates the periodic backup job.
func NewBackupJob(svc *reliability.BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		svc: svc,
		log: log.With().Str("job", "history_backup").Logger(),
	}
}

// Name implements Job.
func (j *BackupJob) Name() string { return "history_backup" }

// Run implements Job.
func (j *BackupJob) Run(ctx context.Context) error {
	if err := j.svc.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	return j.svc.PruneOldBackups(ctx)
}
