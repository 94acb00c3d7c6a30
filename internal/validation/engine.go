package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/domain"
)

// Report is the outcome of validating one bundle against one schema.
type Report struct {
	IsValid  bool                `json:"is_valid"`
	Errors   []domain.FieldError `json:"errors"`
	Warnings []domain.FieldError `json:"warnings"`
	Schema   string              `json:"schema"`
}

// Summary renders a one-line report used in history entries.
func (r Report) Summary() string {
	return fmt.Sprintf("schema=%s valid=%t errors=%d warnings=%d",
		r.Schema, r.IsValid, len(r.Errors), len(r.Warnings))
}

// Engine validates data bundles against registered schemas.
type Engine struct {
	schemas map[string]Schema
	log     zerolog.Logger
}

// NewEngine creates an engine with no schemas registered.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		schemas: make(map[string]Schema),
		log:     log.With().Str("component", "validation").Logger(),
	}
}

// Register adds a schema, replacing any previous schema of the same name.
func (e *Engine) Register(schema Schema) error {
	if err := schema.validate(); err != nil {
		return err
	}
	e.schemas[schema.Name] = schema
	return nil
}

// RegisterAll adds a set of schemas.
func (e *Engine) RegisterAll(schemas []Schema) error {
	for _, s := range schemas {
		if err := e.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks data against the named schema.
//
// Required paths are fail-fast: the first missing path closes the report as
// invalid without evaluating business rules. Rules with severity "error"
// also mark the report invalid; "warning" rules only accumulate. Presence
// and absence stay explicit throughout; nothing is coerced to zero.
func (e *Engine) Validate(data any, schemaName string) (Report, error) {
	schema, ok := e.schemas[schemaName]
	if !ok {
		return Report{}, fmt.Errorf("unknown validation schema %q", schemaName)
	}

	doc, err := toDocument(data)
	if err != nil {
		return Report{}, fmt.Errorf("failed to convert data for validation: %w", err)
	}

	report := Report{IsValid: true, Schema: schemaName}

	for _, path := range schema.Required {
		if msg, present := lookupAll(doc, path); !present {
			report.IsValid = false
			report.Errors = append(report.Errors, domain.FieldError{Path: path, Message: msg})
			e.log.Debug().Str("path", path).Str("schema", schemaName).Msg("required field missing")
			return report, nil
		}
	}

	for _, rule := range schema.BusinessRules {
		violation, err := evalRule(doc, rule)
		if err != nil {
			return Report{}, fmt.Errorf("rule %q: %w", rule.Rule, err)
		}
		if violation == nil {
			continue
		}
		if rule.Severity == "error" {
			report.IsValid = false
			report.Errors = append(report.Errors, *violation)
		} else {
			report.Warnings = append(report.Warnings, *violation)
		}
	}

	return report, nil
}

// toDocument converts the typed bundle into a generic JSON document for
// path resolution.
func toDocument(data any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// lookupAll resolves a dotted path, fanning "*" segments out over arrays.
// It returns (reason, false) when the path is missing anywhere it fans out.
// A JSON null counts as absent; a zero counts as present.
func lookupAll(doc any, path string) (string, bool) {
	values, missing := resolve(doc, strings.Split(path, "."))
	if missing != "" {
		return missing, false
	}
	if len(values) == 0 {
		return "path matched no elements", false
	}
	return "", true
}

// resolve walks the segments, returning the matched values or the first
// missing-reason encountered.
func resolve(node any, segments []string) ([]any, string) {
	if len(segments) == 0 {
		if node == nil {
			return nil, "value is null"
		}
		return []any{node}, ""
	}

	seg := segments[0]
	rest := segments[1:]

	switch n := node.(type) {
	case map[string]any:
		child, ok := n[seg]
		if !ok {
			return nil, "field is missing"
		}
		return resolve(child, rest)
	case []any:
		if seg == "*" {
			if len(n) == 0 {
				return nil, "array is empty"
			}
			var all []any
			for _, item := range n {
				vals, missing := resolve(item, rest)
				if missing != "" {
					return nil, missing
				}
				all = append(all, vals...)
			}
			return all, ""
		}
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(n) {
			return nil, fmt.Sprintf("index %q out of range", seg)
		}
		return resolve(n[idx], rest)
	default:
		return nil, fmt.Sprintf("cannot descend into %q", seg)
	}
}

// numbersAt resolves a path into float64 values.
func numbersAt(doc any, path string) ([]float64, error) {
	values, missing := resolve(doc, strings.Split(path, "."))
	if missing != "" {
		return nil, fmt.Errorf("%s: %s", path, missing)
	}
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%s: value is not numeric", path)
		}
		nums = append(nums, f)
	}
	return nums, nil
}

// evalRule evaluates one business rule, returning a FieldError when the rule
// is violated and nil when it holds. A rule whose operand paths are missing
// is itself a violation: rules never default absent data.
func evalRule(doc any, rule Rule) (*domain.FieldError, error) {
	violated := func(path string) *domain.FieldError {
		msg := rule.Message
		if msg == "" {
			msg = fmt.Sprintf("business rule %q violated", rule.Rule)
		}
		return &domain.FieldError{Path: path, Message: msg}
	}

	switch rule.Rule {
	case "sum_gt":
		total := 0.0
		for _, path := range rule.Fields {
			nums, err := numbersAt(doc, path)
			if err != nil {
				return violated(path), nil
			}
			for _, n := range nums {
				total += n
			}
		}
		if total > rule.Value {
			return nil, nil
		}
		return violated(rule.Fields[0]), nil

	case "nonzero":
		for _, path := range rule.Fields {
			nums, err := numbersAt(doc, path)
			if err != nil {
				return violated(path), nil
			}
			for _, n := range nums {
				if n == 0 {
					return violated(path), nil
				}
			}
		}
		return nil, nil

	case "non_negative":
		for _, path := range rule.Fields {
			nums, err := numbersAt(doc, path)
			if err != nil {
				return violated(path), nil
			}
			for _, n := range nums {
				if n < 0 {
					return violated(path), nil
				}
			}
		}
		return nil, nil

	case "balanced":
		// fields: [total, part1, part2, ...]; total must equal the sum of
		// the parts within the rule's tolerance value.
		if len(rule.Fields) < 2 {
			return nil, fmt.Errorf("balanced rule needs a total and at least one part")
		}
		totals, err := numbersAt(doc, rule.Fields[0])
		if err != nil {
			return violated(rule.Fields[0]), nil
		}
		partSums := make([]float64, len(totals))
		for _, path := range rule.Fields[1:] {
			nums, err := numbersAt(doc, path)
			if err != nil {
				return violated(path), nil
			}
			if len(nums) != len(totals) {
				return nil, fmt.Errorf("balanced rule fan-out mismatch between %q and %q", rule.Fields[0], path)
			}
			for i, n := range nums {
				partSums[i] += n
			}
		}
		for i, total := range totals {
			if math.Abs(total-partSums[i]) > rule.Value {
				return violated(rule.Fields[0]), nil
			}
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown rule op %q", rule.Rule)
	}
}
