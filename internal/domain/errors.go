package domain

import (
	"fmt"
	"strings"
)

// FieldError is one structured validation failure.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports that required data is missing or a hard business
// rule was violated. It aborts the pipeline before any calculator runs and
// is always surfaced to the caller with its full field list.
type ValidationError struct {
	Schema   string       `json:"schema"`
	Fields   []FieldError `json:"fields"`
	Warnings []FieldError `json:"warnings,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed for schema %q", e.Schema)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Path, f.Message))
	}
	return fmt.Sprintf("validation failed for schema %q: %s", e.Schema, strings.Join(parts, "; "))
}

// ComputationError reports that a calculator hit a structurally required but
// absent or invalid field. The run is all-or-nothing: no partial results are
// published after one of these.
type ComputationError struct {
	Calculator string `json:"calculator"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Calculator, e.Message, e.Field)
}

// ConcurrencyError reports that a calculation was requested while another
// run was in flight. The request is rejected synchronously and never queued;
// the in-flight run is unaffected.
type ConcurrencyError struct{}

func (e *ConcurrencyError) Error() string {
	return "calculation already in flight"
}
