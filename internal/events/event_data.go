package events

import "time"

// EventData is the interface all event payload types implement.
// This keeps payloads type-safe while letting the bus stay generic.
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// StateChangedData carries the full calculation-state snapshot after a
// transition. Exactly one of Dirty / freshly-calculated holds once a
// transition settles.
type StateChangedData struct {
	CompanyID        string     `json:"company_id"`
	Dirty            bool       `json:"dirty"`
	Calculating      bool       `json:"calculating"`
	LastCalculatedAt *time.Time `json:"last_calculated_at,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// EventType returns the event type for StateChangedData
func (d *StateChangedData) EventType() EventType {
	return StateChanged
}

// CalculatedData carries summary figures of a completed run.
type CalculatedData struct {
	CompanyID  string    `json:"company_id"`
	RunID      string    `json:"run_id"`
	TotalScore float64   `json:"total_score"`
	Rating     string    `json:"rating"`
	Duration   float64   `json:"duration_seconds"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventType returns the event type for CalculatedData
func (d *CalculatedData) EventType() EventType {
	return Calculated
}

// CalculationFailedData carries the structured failure of a run.
type CalculationFailedData struct {
	CompanyID string    `json:"company_id"`
	Stage     string    `json:"stage"` // "validation", "collection", or the calculator key
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType returns the event type for CalculationFailedData
func (d *CalculationFailedData) EventType() EventType {
	return CalculationFailed
}

// ScoreAlertData carries a dynamic-rescoring delta classification.
type ScoreAlertData struct {
	CompanyID     string  `json:"company_id"`
	PreviousScore float64 `json:"previous_score"`
	NewScore      float64 `json:"new_score"`
	Delta         float64 `json:"delta"`
	Tier          string  `json:"tier"` // "critical", "attention", "informational"
	Message       string  `json:"message"`
}

// EventType returns the event type for ScoreAlertData
func (d *ScoreAlertData) EventType() EventType {
	return ScoreAlert
}

// HistoryAppendedData carries the identity of a persisted history entry.
type HistoryAppendedData struct {
	CompanyID string    `json:"company_id"`
	EntryID   string    `json:"entry_id"`
	InputHash string    `json:"input_hash"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType returns the event type for HistoryAppendedData
func (d *HistoryAppendedData) EventType() EventType {
	return HistoryAppended
}
