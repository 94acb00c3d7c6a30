// Package state holds the observable calculation state machine.
//
// States: IDLE -> DIRTY -> CALCULATING -> CALCULATED, with
// CALCULATING -> ERROR on failure and any state -> DIRTY on an external
// edit. The Calculating flag is the pipeline's sole concurrency guard.
package state

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/events"
)

// Phase is the machine's current state.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseDirty       Phase = "dirty"
	PhaseCalculating Phase = "calculating"
	PhaseCalculated  Phase = "calculated"
	PhaseError       Phase = "error"
)

// Snapshot is an immutable view of the state at one point in time.
type Snapshot struct {
	CompanyID        string     `json:"company_id"`
	Phase            Phase      `json:"phase"`
	Dirty            bool       `json:"dirty"`
	Calculating      bool       `json:"calculating"`
	LastCalculatedAt *time.Time `json:"last_calculated_at,omitempty"`
	Err              error      `json:"-"`
}

// CalculationState is a mutation-guarded state holder observed through the
// event bus. It is mutated only through its four named methods; external
// writers are not part of the contract.
type CalculationState struct {
	mu               sync.Mutex
	companyID        string
	phase            Phase
	dirty            bool
	calculating      bool
	lastCalculatedAt *time.Time
	err              error

	bus *events.Bus
	log zerolog.Logger
	now func() time.Time
}

// New creates an IDLE state for one company.
func New(companyID string, bus *events.Bus, log zerolog.Logger) *CalculationState {
	return &CalculationState{
		companyID: companyID,
		phase:     PhaseIdle,
		bus:       bus,
		log:       log.With().Str("component", "calculation_state").Str("company", companyID).Logger(),
		now:       time.Now,
	}
}

// MarkDirty records that input data changed since the last calculation.
// Idempotent: re-marking an already dirty state is a no-op and fires no
// second event. Any existing error is cleared.
func (s *CalculationState) MarkDirty() {
	s.mu.Lock()
	if s.dirty && s.phase == PhaseDirty && s.err == nil {
		s.mu.Unlock()
		return
	}
	s.dirty = true
	s.err = nil
	s.phase = PhaseDirty
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug().Msg("state marked dirty")
	s.publish(snap)
}

// SetCalculating claims the single in-flight slot. It returns a
// ConcurrencyError when a run is already in flight; callers must not queue
// behind it and are expected to re-trigger after completion.
func (s *CalculationState) SetCalculating() error {
	s.mu.Lock()
	if s.calculating {
		s.mu.Unlock()
		return &domain.ConcurrencyError{}
	}
	s.calculating = true
	s.phase = PhaseCalculating
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return nil
}

// MarkCalculated records a successful run: clears dirty, stamps
// lastCalculatedAt, releases the in-flight slot.
func (s *CalculationState) MarkCalculated() {
	s.mu.Lock()
	now := s.now()
	s.calculating = false
	s.dirty = false
	s.err = nil
	s.lastCalculatedAt = &now
	s.phase = PhaseCalculated
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug().Time("at", now).Msg("state marked calculated")
	s.publish(snap)
}

// SetError records a failed run. Dirty is deliberately not cleared: the
// input data is still considered stale and a later retrigger must recompute.
func (s *CalculationState) SetError(err error) {
	s.mu.Lock()
	s.calculating = false
	s.err = err
	s.phase = PhaseError
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug().Err(err).Msg("state marked errored")
	s.publish(snap)
}

// Snapshot returns the current state.
func (s *CalculationState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked builds a snapshot; callers hold the mutex.
func (s *CalculationState) snapshotLocked() Snapshot {
	return Snapshot{
		CompanyID:        s.companyID,
		Phase:            s.phase,
		Dirty:            s.dirty,
		Calculating:      s.calculating,
		LastCalculatedAt: s.lastCalculatedAt,
		Err:              s.err,
	}
}

// publish emits the state.changed event outside the mutex so synchronous
// handlers may read the state back without deadlocking.
func (s *CalculationState) publish(snap Snapshot) {
	if s.bus == nil {
		return
	}
	data := &events.StateChangedData{
		CompanyID:        snap.CompanyID,
		Dirty:            snap.Dirty,
		Calculating:      snap.Calculating,
		LastCalculatedAt: snap.LastCalculatedAt,
	}
	if snap.Err != nil {
		data.Error = snap.Err.Error()
	}
	s.bus.Publish(data)
}
