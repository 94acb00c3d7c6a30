package scheduler

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/orchestrator"
)

// Recalculator is the slice of the orchestrator the sweep needs.
type Recalculator interface {
	DirtyCompanies() []string
	Recalculate(ctx context.Context, companyID string) (*orchestrator.Run, error)
}

// RecalcJob sweeps the dirty companies and triggers a recalculation for
// each. A company already mid-calculation is skipped, never queued; the
// next sweep picks it up if it is still dirty.
type RecalcJob struct {
	recalc Recalculator
	log    zerolog.Logger
}

// NewRecalcJob creates the automatic recalculation sweep.
func NewRecalcJob(recalc Recalculator, log zerolog.Logger) *RecalcJob {
	return &RecalcJob{
		recalc: recalc,
		log:    log.With().Str("job", "recalc_sweep").Logger(),
	}
}

// Name implements Job.
func (j *RecalcJob) Name() string { return "recalc_sweep" }

// Run implements Job.
func (j *RecalcJob) Run(ctx context.Context) error {
	dirty := j.recalc.DirtyCompanies()
	if len(dirty) == 0 {
		return nil
	}
	j.log.Info().Int("companies", len(dirty)).Msg("recalculation sweep starting")

	var lastErr error
	for _, companyID := range dirty {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := j.recalc.Recalculate(ctx, companyID); err != nil {
			var concErr *domain.ConcurrencyError
			if errors.As(err, &concErr) {
				j.log.Debug().Str("company_id", companyID).Msg("calculation in flight, skipping")
				continue
			}
			j.log.Error().Str("company_id", companyID).Err(err).Msg("sweep recalculation failed")
			lastErr = err
		}
	}
	return lastErr
}
