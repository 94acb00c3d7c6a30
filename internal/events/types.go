// Package events provides the in-process publish/subscribe bus used across
// the calculation pipeline. Delivery is synchronous and in subscription
// order: every transition fires its event exactly once, with no queuing or
// batching, so observers always see transitions in the order they happened.
package events

// EventType identifies an event on the bus
type EventType string

const (
	// StateChanged fires on every CalculationState transition
	StateChanged EventType = "state.changed"
	// Calculated fires after a successful pipeline run
	Calculated EventType = "state.calculated"
	// CalculationFailed fires when a pipeline run ends in error
	CalculationFailed EventType = "state.error"
	// ScoreAlert fires when dynamic rescoring classifies a significant delta
	ScoreAlert EventType = "score.alert"
	// HistoryAppended fires after the orchestrator persists a history entry
	HistoryAppended EventType = "history.appended"
)

// Handler consumes one event payload. Handlers run synchronously on the
// publisher's goroutine; a slow handler delays later subscribers.
type Handler func(data EventData)
