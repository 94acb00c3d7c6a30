package scoring

import (
	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/policy"
)

// Delta severities, ordered from largest swing to smallest.
const (
	DeltaCritical = "critical"
	DeltaHigh     = "high"
	DeltaModerate = "moderate"
	DeltaNormal   = "normal"
)

// Delta directions.
const (
	DirectionImproved     = "improved"
	DirectionDeteriorated = "deteriorated"
	DirectionStable       = "stable"
)

// ScoreDelta describes how a recomputed score moved against the previous
// one. Severity depends only on the magnitude; direction carries the sign.
type ScoreDelta struct {
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	Delta     float64 `json:"delta"`
	Severity  string  `json:"severity"`
	Direction string  `json:"direction"`
}

// ClassifyDelta grades a score movement against the policy's magnitude
// cutoffs: swings at or beyond the critical cutoff are critical, then high,
// then moderate, anything smaller normal.
func ClassifyDelta(tiers policy.DeltaTiers, previous, current float64) ScoreDelta {
	delta := domain.Round2(current - previous)
	magnitude := delta
	if magnitude < 0 {
		magnitude = -magnitude
	}

	severity := DeltaNormal
	switch {
	case magnitude >= tiers.Critical:
		severity = DeltaCritical
	case magnitude >= tiers.High:
		severity = DeltaHigh
	case magnitude >= tiers.Moderate:
		severity = DeltaModerate
	}

	direction := DirectionStable
	switch {
	case delta > 0:
		direction = DirectionImproved
	case delta < 0:
		direction = DirectionDeteriorated
	}

	return ScoreDelta{
		Previous:  previous,
		Current:   current,
		Delta:     delta,
		Severity:  severity,
		Direction: direction,
	}
}
