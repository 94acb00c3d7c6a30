// Package validation validates analysis bundles against externally supplied
// schemas before any calculator runs. Required paths are fail-fast; business
// rules accumulate as warnings unless marked severity "error".
package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Rule is one declarative business rule from a schema document.
// The op vocabulary is fixed; the operands and severity are data.
type Rule struct {
	Rule     string   `json:"rule"`   // sum_gt, nonzero, non_negative, balanced
	Fields   []string `json:"fields"` // dotted paths; "*" segments fan out over arrays
	Value    float64  `json:"value"`
	Severity string   `json:"severity"` // "error" or "warning"
	Message  string   `json:"message"`
}

// Schema declares required field paths and business rules for one bundle
// shape. Schemas are loaded from JSON documents, never hardcoded, so the
// policy can change without code changes.
type Schema struct {
	Name          string   `json:"name"`
	Required      []string `json:"required"`
	BusinessRules []Rule   `json:"businessRules"`
}

// knownOps is the fixed rule vocabulary. Unknown ops are a load-time error,
// never a silently passing rule.
var knownOps = map[string]bool{
	"sum_gt":       true,
	"nonzero":      true,
	"non_negative": true,
	"balanced":     true,
}

// validate checks schema well-formedness at load time.
func (s *Schema) validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema has no name")
	}
	for _, r := range s.BusinessRules {
		if !knownOps[r.Rule] {
			return fmt.Errorf("schema %q: unknown rule op %q", s.Name, r.Rule)
		}
		if len(r.Fields) == 0 {
			return fmt.Errorf("schema %q: rule %q has no fields", s.Name, r.Rule)
		}
		if r.Severity != "error" && r.Severity != "warning" {
			return fmt.Errorf("schema %q: rule %q has invalid severity %q", s.Name, r.Rule, r.Severity)
		}
	}
	return nil
}

// ParseSchema parses and checks one schema document.
func ParseSchema(raw []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return Schema{}, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// LoadDir reads every *.json schema document in dir.
func LoadDir(dir string) ([]Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	var schemas []Schema
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", entry.Name(), err)
		}
		schema, err := ParseSchema(raw)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", entry.Name(), err)
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}
