package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/orchestrator"
)

type fakeRecalculator struct {
	dirty  []string
	errs   map[string]error
	called []string
}

func (f *fakeRecalculator) DirtyCompanies() []string {
	return f.dirty
}

func (f *fakeRecalculator) Recalculate(_ context.Context, companyID string) (*orchestrator.Run, error) {
	f.called = append(f.called, companyID)
	if err := f.errs[companyID]; err != nil {
		return nil, err
	}
	return &orchestrator.Run{CompanyID: companyID}, nil
}

func TestRecalcJobSweepsAllDirtyCompanies(t *testing.T) {
	fake := &fakeRecalculator{dirty: []string{"BR-1", "BR-2", "BR-3"}}
	job := NewRecalcJob(fake, zerolog.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"BR-1", "BR-2", "BR-3"}, fake.called)
}

func TestRecalcJobNoopWhenNothingDirty(t *testing.T) {
	fake := &fakeRecalculator{}
	job := NewRecalcJob(fake, zerolog.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, fake.called)
}

func TestRecalcJobSkipsInFlightCompanies(t *testing.T) {
	fake := &fakeRecalculator{
		dirty: []string{"BR-1", "BR-2"},
		errs:  map[string]error{"BR-1": &domain.ConcurrencyError{}},
	}
	job := NewRecalcJob(fake, zerolog.Nop())

	// an in-flight company is skipped, not an error, and the sweep continues
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"BR-1", "BR-2"}, fake.called)
}

func TestRecalcJobReportsRealFailures(t *testing.T) {
	boom := errors.New("collection failed")
	fake := &fakeRecalculator{
		dirty: []string{"BR-1", "BR-2"},
		errs:  map[string]error{"BR-1": boom},
	}
	job := NewRecalcJob(fake, zerolog.Nop())

	err := job.Run(context.Background())
	require.ErrorIs(t, err, boom)
	// the failure did not stop the rest of the sweep
	assert.Equal(t, []string{"BR-1", "BR-2"}, fake.called)
}

func TestRecalcJobHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeRecalculator{dirty: []string{"BR-1"}}
	job := NewRecalcJob(fake, zerolog.Nop())

	require.ErrorIs(t, job.Run(ctx), context.Canceled)
	assert.Empty(t, fake.called)
}
