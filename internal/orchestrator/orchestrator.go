// Package orchestrator runs the full calculation pipeline: claim the
// in-flight slot, validate the bundle, run every registered calculator in
// dependency order, persist the bounded history and score trail, classify
// the score movement, and release the slot. A run is all-or-nothing; a
// failing stage publishes the failure and leaves the state dirty.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/events"
	"github.com/rmaragno/crivo/internal/modules/history"
	"github.com/rmaragno/crivo/internal/modules/indices"
	"github.com/rmaragno/crivo/internal/modules/scoring"
	"github.com/rmaragno/crivo/internal/modules/state"
	"github.com/rmaragno/crivo/internal/policy"
	"github.com/rmaragno/crivo/internal/validation"
)

// BundleSchema is the validation schema every run is checked against.
const BundleSchema = "full"

// Calculator is one pipeline stage. Stages are registered in dependency
// order; each receives the results of the stages it declared.
type Calculator interface {
	Key() string
	Dependencies() []string
	Calculate(ctx context.Context, bundle domain.AnalysisBundle, prior map[string]any) (any, error)
}

// DataSource supplies the analysis bundle for a company. Recalculation
// triggers pull a fresh bundle through this collaborator.
type DataSource interface {
	Collect(ctx context.Context, companyID string) (domain.AnalysisBundle, error)
}

// Run is the outcome of one completed pipeline execution.
type Run struct {
	ID                string              `json:"id"`
	CompanyID         string              `json:"company_id"`
	InputHash         string              `json:"input_hash"`
	Results           map[string]any      `json:"results"`
	Score             float64             `json:"score"`
	Classification    string              `json:"classification"`
	Delta             *scoring.ScoreDelta `json:"delta,omitempty"`
	Degraded          bool                `json:"degraded"`
	ValidationSummary string              `json:"validation_summary"`
	Warnings          []domain.FieldError `json:"warnings,omitempty"`
	StartedAt         time.Time           `json:"started_at"`
	FinishedAt        time.Time           `json:"finished_at"`
}

// Orchestrator coordinates the calculation pipeline for all companies.
type Orchestrator struct {
	policy    *policy.Config
	validator *validation.Engine
	history   *history.Repository
	bus       *events.Bus
	source    DataSource
	log       zerolog.Logger

	mu          sync.Mutex
	calculators []Calculator
	keys        map[string]bool
	states      map[string]*state.CalculationState
}

// New creates an orchestrator with no calculators registered.
func New(cfg *policy.Config, validator *validation.Engine, hist *history.Repository, bus *events.Bus, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		policy:    cfg,
		validator: validator,
		history:   hist,
		bus:       bus,
		log:       log.With().Str("component", "orchestrator").Logger(),
		keys:      make(map[string]bool),
		states:    make(map[string]*state.CalculationState),
	}
}

// SetDataSource wires the bundle supplier used by Recalculate.
func (o *Orchestrator) SetDataSource(source DataSource) {
	o.source = source
}

// RegisterCalculator adds a pipeline stage. Stages must be registered in
// dependency order: every declared dependency has to be registered already.
func (o *Orchestrator) RegisterCalculator(calc Calculator) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := calc.Key()
	if o.keys[key] {
		return fmt.Errorf("calculator %q already registered", key)
	}
	for _, dep := range calc.Dependencies() {
		if !o.keys[dep] {
			return fmt.Errorf("calculator %q depends on unregistered %q", key, dep)
		}
	}

	o.calculators = append(o.calculators, calc)
	o.keys[key] = true
	o.log.Debug().Str("calculator", key).Msg("calculator registered")
	return nil
}

// State returns the calculation state for a company, creating an idle one
// on first use.
func (o *Orchestrator) State(companyID string) *state.CalculationState {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[companyID]
	if !ok {
		st = state.New(companyID, o.bus, o.log)
		o.states[companyID] = st
	}
	return st
}

// MarkDirty flags a company's data as changed since its last calculation.
func (o *Orchestrator) MarkDirty(companyID string) {
	o.State(companyID).MarkDirty()
}

// DirtyCompanies lists the companies whose data changed since their last
// calculation and that are not currently being recalculated.
func (o *Orchestrator) DirtyCompanies() []string {
	o.mu.Lock()
	states := make(map[string]*state.CalculationState, len(o.states))
	for id, st := range o.states {
		states[id] = st
	}
	o.mu.Unlock()

	var dirty []string
	for id, st := range states {
		snap := st.Snapshot()
		if snap.Dirty && !snap.Calculating {
			dirty = append(dirty, id)
		}
	}
	sort.Strings(dirty)
	return dirty
}

// Recalculate pulls a fresh bundle from the data source and runs the
// pipeline over it.
func (o *Orchestrator) Recalculate(ctx context.Context, companyID string) (*Run, error) {
	if o.source == nil {
		return nil, fmt.Errorf("no data source configured")
	}
	bundle, err := o.source.Collect(ctx, companyID)
	if err != nil {
		o.publishFailure(companyID, "collection", err)
		return nil, fmt.Errorf("failed to collect bundle for %s: %w", companyID, err)
	}
	return o.PerformAllCalculations(ctx, bundle)
}

// PerformAllCalculations runs the full pipeline over one bundle.
//
// A second call while a run is in flight for the same company returns
// ConcurrencyError immediately and leaves the in-flight run untouched.
func (o *Orchestrator) PerformAllCalculations(ctx context.Context, bundle domain.AnalysisBundle) (*Run, error) {
	st := o.State(bundle.CompanyID)
	if err := st.SetCalculating(); err != nil {
		return nil, err
	}

	run, err := o.execute(ctx, bundle)
	if err != nil {
		st.SetError(err)
		return nil, err
	}

	st.MarkCalculated()
	return run, nil
}

func (o *Orchestrator) execute(ctx context.Context, bundle domain.AnalysisBundle) (*Run, error) {
	started := time.Now()

	report, err := o.validator.Validate(bundle, BundleSchema)
	if err != nil {
		o.publishFailure(bundle.CompanyID, "validation", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !report.IsValid {
		valErr := &domain.ValidationError{
			Schema:   report.Schema,
			Fields:   report.Errors,
			Warnings: report.Warnings,
		}
		o.publishFailure(bundle.CompanyID, "validation", valErr)
		return nil, valErr
	}

	hash, err := InputHash(bundle)
	if err != nil {
		return nil, err
	}

	results := make(map[string]any, len(o.calculators))
	o.mu.Lock()
	calculators := make([]Calculator, len(o.calculators))
	copy(calculators, o.calculators)
	o.mu.Unlock()

	for _, calc := range calculators {
		result, err := calc.Calculate(ctx, bundle, results)
		if err != nil {
			o.publishFailure(bundle.CompanyID, calc.Key(), err)
			return nil, fmt.Errorf("calculator %s failed: %w", calc.Key(), err)
		}
		results[calc.Key()] = result
	}

	run := &Run{
		ID:                uuid.NewString(),
		CompanyID:         bundle.CompanyID,
		InputHash:         hash,
		Results:           results,
		ValidationSummary: report.Summary(),
		Warnings:          report.Warnings,
		StartedAt:         started,
	}

	if score, ok := results[scoring.Key].(*scoring.Result); ok {
		run.Score = score.Total
		run.Classification = score.Classification.Rating
	}
	if idx, ok := results[indices.Key].(*indices.Result); ok {
		run.Degraded = idx.DegradedEBIT
	}

	if err := o.persist(run); err != nil {
		o.publishFailure(bundle.CompanyID, "history", err)
		return nil, err
	}

	run.FinishedAt = time.Now()
	o.bus.Publish(&events.CalculatedData{
		CompanyID:  run.CompanyID,
		RunID:      run.ID,
		TotalScore: run.Score,
		Rating:     run.Classification,
		Duration:   run.FinishedAt.Sub(run.StartedAt).Seconds(),
		Timestamp:  run.FinishedAt,
	})

	o.log.Info().
		Str("company_id", run.CompanyID).
		Str("run_id", run.ID).
		Float64("score", run.Score).
		Str("classification", run.Classification).
		Dur("took", run.FinishedAt.Sub(run.StartedAt)).
		Msg("calculation run complete")

	return run, nil
}

// persist classifies the score movement against the previous run, appends
// the history entry and the score record, and raises a score alert for
// significant swings.
func (o *Orchestrator) persist(run *Run) error {
	if o.history == nil {
		return nil
	}

	previous, err := o.history.LatestScore(run.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to load previous score: %w", err)
	}

	record := history.ScoreRecord{
		CompanyID:      run.CompanyID,
		Score:          run.Score,
		Classification: run.Classification,
		Severity:       scoring.DeltaNormal,
		Direction:      scoring.DirectionStable,
	}
	if previous != nil {
		delta := scoring.ClassifyDelta(o.policy.Delta, previous.Score, run.Score)
		run.Delta = &delta
		record.Delta = delta.Delta
		record.Severity = delta.Severity
		record.Direction = delta.Direction
	}

	entry := history.Entry{
		ID:                run.ID,
		CompanyID:         run.CompanyID,
		InputHash:         run.InputHash,
		Results:           run.Results,
		Score:             run.Score,
		Classification:    run.Classification,
		Degraded:          run.Degraded,
		ValidationSummary: run.ValidationSummary,
	}
	if err := o.history.AppendEntry(entry); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	if err := o.history.AppendScore(record); err != nil {
		return fmt.Errorf("failed to append score record: %w", err)
	}

	o.bus.Publish(&events.HistoryAppendedData{
		CompanyID: run.CompanyID,
		EntryID:   run.ID,
		InputHash: run.InputHash,
		Timestamp: time.Now(),
	})

	if run.Delta != nil && run.Delta.Severity != scoring.DeltaNormal {
		o.bus.Publish(&events.ScoreAlertData{
			CompanyID:     run.CompanyID,
			PreviousScore: run.Delta.Previous,
			NewScore:      run.Delta.Current,
			Delta:         run.Delta.Delta,
			Tier:          alertTier(run.Delta.Severity),
			Message: fmt.Sprintf("score %s by %.1f points (%.1f -> %.1f)",
				run.Delta.Direction, abs(run.Delta.Delta), run.Delta.Previous, run.Delta.Current),
		})
	}

	return nil
}

// History returns the retained runs for a company, newest first.
func (o *Orchestrator) History(companyID string) ([]history.Entry, error) {
	if o.history == nil {
		return nil, nil
	}
	return o.history.Entries(companyID)
}

// Scores returns the retained score trail for a company, newest first.
func (o *Orchestrator) Scores(companyID string) ([]history.ScoreRecord, error) {
	if o.history == nil {
		return nil, nil
	}
	return o.history.Scores(companyID)
}

// LatestRun returns the newest retained run, or nil when none exist.
func (o *Orchestrator) LatestRun(companyID string) (*history.Entry, error) {
	if o.history == nil {
		return nil, nil
	}
	return o.history.LatestEntry(companyID)
}

func (o *Orchestrator) publishFailure(companyID, stage string, err error) {
	o.log.Error().Str("company_id", companyID).Str("stage", stage).Err(err).Msg("calculation stage failed")
	o.bus.Publish(&events.CalculationFailedData{
		CompanyID: companyID,
		Stage:     stage,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// InputHash is the sha256 of the bundle's canonical JSON encoding. Two runs
// over identical data carry identical hashes, which is how unchanged-data
// reruns are spotted in the history.
func InputHash(bundle domain.AnalysisBundle) (string, error) {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("failed to encode bundle for hashing: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func alertTier(severity string) string {
	switch severity {
	case scoring.DeltaCritical:
		return "critical"
	case scoring.DeltaHigh:
		return "attention"
	default:
		return "informational"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
