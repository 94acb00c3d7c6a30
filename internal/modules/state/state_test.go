package state

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/events"
)

func newTestState(bus *events.Bus) *CalculationState {
	return New("acme", bus, zerolog.Nop())
}

func TestInitialStateIsIdle(t *testing.T) {
	s := newTestState(events.NewBus())

	snap := s.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.False(t, snap.Dirty)
	assert.False(t, snap.Calculating)
	assert.Nil(t, snap.LastCalculatedAt)
}

func TestMarkDirtyIsIdempotent(t *testing.T) {
	bus := events.NewBus()
	fired := 0
	bus.Subscribe(events.StateChanged, func(data events.EventData) { fired++ })

	s := newTestState(bus)
	s.MarkDirty()
	s.MarkDirty()
	s.MarkDirty()

	snap := s.Snapshot()
	assert.Equal(t, PhaseDirty, snap.Phase)
	assert.True(t, snap.Dirty)
	// Only the first call is a transition; re-marking fires no second event.
	assert.Equal(t, 1, fired)
}

func TestMarkDirtyClearsError(t *testing.T) {
	s := newTestState(events.NewBus())
	require.NoError(t, s.SetCalculating())
	s.SetError(errors.New("boom"))
	require.Error(t, s.Snapshot().Err)

	s.MarkDirty()
	assert.Nil(t, s.Snapshot().Err)
}

func TestSetCalculatingRejectsSecondClaim(t *testing.T) {
	s := newTestState(events.NewBus())
	s.MarkDirty()

	require.NoError(t, s.SetCalculating())

	err := s.SetCalculating()
	require.Error(t, err)
	var concErr *domain.ConcurrencyError
	assert.ErrorAs(t, err, &concErr)
}

func TestMarkCalculatedClearsDirtyAndStampsTime(t *testing.T) {
	s := newTestState(events.NewBus())
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.MarkDirty()
	require.NoError(t, s.SetCalculating())
	s.MarkCalculated()

	snap := s.Snapshot()
	assert.Equal(t, PhaseCalculated, snap.Phase)
	assert.False(t, snap.Dirty)
	assert.False(t, snap.Calculating)
	require.NotNil(t, snap.LastCalculatedAt)
	assert.Equal(t, fixed, *snap.LastCalculatedAt)
}

func TestSetErrorKeepsDirty(t *testing.T) {
	s := newTestState(events.NewBus())
	s.MarkDirty()
	require.NoError(t, s.SetCalculating())

	s.SetError(errors.New("calculator blew up"))

	snap := s.Snapshot()
	assert.Equal(t, PhaseError, snap.Phase)
	assert.True(t, snap.Dirty, "data is still stale after a failed run")
	assert.False(t, snap.Calculating, "in-flight slot must be released")
	assert.Error(t, snap.Err)
}

func TestRecalculationAllowedAfterError(t *testing.T) {
	s := newTestState(events.NewBus())
	s.MarkDirty()
	require.NoError(t, s.SetCalculating())
	s.SetError(errors.New("boom"))

	// The failed run released the slot; a retry must be accepted.
	assert.NoError(t, s.SetCalculating())
}

func TestTransitionsPublishFullSnapshots(t *testing.T) {
	bus := events.NewBus()
	var snaps []*events.StateChangedData
	bus.Subscribe(events.StateChanged, func(data events.EventData) {
		snaps = append(snaps, data.(*events.StateChangedData))
	})

	s := newTestState(bus)
	s.MarkDirty()
	require.NoError(t, s.SetCalculating())
	s.MarkCalculated()

	require.Len(t, snaps, 3)
	assert.True(t, snaps[0].Dirty)
	assert.True(t, snaps[1].Calculating)
	assert.False(t, snaps[2].Dirty)
	assert.False(t, snaps[2].Calculating)
	assert.NotNil(t, snaps[2].LastCalculatedAt)
}

func TestHandlerMayReadStateBack(t *testing.T) {
	bus := events.NewBus()
	s := newTestState(bus)

	// A synchronous subscriber reading the snapshot must not deadlock.
	done := false
	bus.Subscribe(events.StateChanged, func(data events.EventData) {
		_ = s.Snapshot()
		done = true
	})

	s.MarkDirty()
	assert.True(t, done)
}
