// Package policy holds the externally supplied scoring policy: every numeric
// threshold, band edge, weight, and no-data default the calculators use.
// The engines reference this structure exclusively, so the credit policy can
// change without code changes.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
)

// Tier is one step of the five-tier criterion scale.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierAdequate  Tier = "adequate"
	TierLow       Tier = "low"
	TierCritical  Tier = "critical"
)

// TierFractions maps a tier to the fraction of a criterion's point
// allocation it earns.
type TierFractions map[Tier]float64

// Ladder is a four-edge threshold ladder classifying a value into the five
// tiers. Edges are ordered excellent, good, adequate, low; values beyond the
// last edge are critical. HigherIsBetter selects the comparison direction.
type Ladder struct {
	Edges          [4]float64 `json:"edges"`
	HigherIsBetter bool       `json:"higher_is_better"`
}

// Classify places a value on the ladder.
func (l Ladder) Classify(value float64) Tier {
	tiers := [4]Tier{TierExcellent, TierGood, TierAdequate, TierLow}
	if l.HigherIsBetter {
		for i, edge := range l.Edges {
			if value >= edge {
				return tiers[i]
			}
		}
		return TierCritical
	}
	for i, edge := range l.Edges {
		if value <= edge {
			return tiers[i]
		}
	}
	return TierCritical
}

// RatingBand is one step of the AAA-D rating scale. Bands are contiguous
// [Min,Max) intervals ordered best first; the top band includes its Max and
// the bottom band is the fallback for anything out of range.
type RatingBand struct {
	Rating    string  `json:"rating"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	RiskLabel string  `json:"risk_label"`
	Color     string  `json:"color"`
	Narrative string  `json:"narrative"`
}

// DeltaTiers are the score-movement magnitude cutoffs for dynamic
// rescoring, ordered largest swing first.
type DeltaTiers struct {
	Critical float64 `json:"critical"`
	High     float64 `json:"high"`
	Moderate float64 `json:"moderate"`
}

// ZScoreThresholds are the Altman zone boundaries.
type ZScoreThresholds struct {
	Safe     float64 `json:"safe"`     // Z above this is the safe zone
	Distress float64 `json:"distress"` // Z at or below this is the distress zone
}

// DebtThresholds are the four-edge band ladders for the debt metrics.
// Shares and delinquency are fractions (0.30 = 30%).
type DebtThresholds struct {
	Leverage         Ladder `json:"leverage"`
	DebtToEBITDA     Ladder `json:"debt_to_ebitda"`
	ShortTermShare   Ladder `json:"short_term_share"`
	AssetLeverage    Ladder `json:"asset_leverage"`
	InterestCoverage Ladder `json:"interest_coverage"`
	Delinquency      Ladder `json:"delinquency"`
}

// Thresholds gathers every band referenced by the calculators.
type Thresholds struct {
	ZScore   ZScoreThresholds  `json:"z_score"`
	Debt     DebtThresholds    `json:"debt"`
	Criteria map[string]Ladder `json:"criteria"`
	// BalanceTolerance is the absolute tolerance for the accounting
	// equation check.
	BalanceTolerance float64 `json:"balance_tolerance"`
}

// CategoryPoints is one scoring category's weight and its per-criterion
// point allocations. Allocations must sum to the weight.
type CategoryPoints struct {
	Weight   float64            `json:"weight"`
	Criteria map[string]float64 `json:"criteria"`
}

// Points is the 100-point category weighting.
type Points struct {
	Registration           CategoryPoints `json:"registration"`
	Financial              CategoryPoints `json:"financial"`
	PaymentCapacity        CategoryPoints `json:"payment_capacity"`
	Leverage               CategoryPoints `json:"leverage"`
	StructureConcentration CategoryPoints `json:"structure_concentration"`
	Tiers                  TierFractions  `json:"tiers"`
}

// Defaults configure documented fallbacks for missing optional data.
// NoDataTier names the tier a criterion earns when its optional inputs are
// absent; criteria not listed fall back to adequate.
type Defaults struct {
	NoDataTier map[string]Tier `json:"no_data_tier"`
}

// Config is the full external policy document.
type Config struct {
	Thresholds     Thresholds   `json:"thresholds"`
	Points         Points       `json:"points"`
	Classification []RatingBand `json:"classification"`
	Delta          DeltaTiers   `json:"delta"`
	Defaults       Defaults     `json:"defaults"`
}

// Classify places a total score on the rating scale. Lower edges are
// inclusive; anything below the bottom band's floor lands in the bottom
// band.
func (c *Config) Classify(score float64) RatingBand {
	for _, band := range c.Classification {
		if score >= band.Min {
			return band
		}
	}
	return c.Classification[len(c.Classification)-1]
}

// NoDataTier returns the documented fallback tier for a criterion.
func (c *Config) NoDataTier(criterion string) Tier {
	if tier, ok := c.Defaults.NoDataTier[criterion]; ok {
		return tier
	}
	return TierAdequate
}

// TierFraction returns the score fraction for a tier.
func (c *Config) TierFraction(tier Tier) float64 {
	if f, ok := c.Points.Tiers[tier]; ok {
		return f
	}
	return 0
}

// CriterionLadder returns the ladder for a named criterion.
func (c *Config) CriterionLadder(name string) (Ladder, error) {
	ladder, ok := c.Thresholds.Criteria[name]
	if !ok {
		return Ladder{}, fmt.Errorf("policy has no threshold ladder for criterion %q", name)
	}
	return ladder, nil
}

// Validate checks structural soundness of a loaded policy.
func (c *Config) Validate() error {
	categories := map[string]CategoryPoints{
		"registration":            c.Points.Registration,
		"financial":               c.Points.Financial,
		"payment_capacity":        c.Points.PaymentCapacity,
		"leverage":                c.Points.Leverage,
		"structure_concentration": c.Points.StructureConcentration,
	}

	total := 0.0
	for name, cat := range categories {
		if cat.Weight <= 0 {
			return fmt.Errorf("category %s has non-positive weight", name)
		}
		allocated := 0.0
		for _, pts := range cat.Criteria {
			allocated += pts
		}
		if diff := allocated - cat.Weight; diff > 0.001 || diff < -0.001 {
			return fmt.Errorf("category %s allocates %.2f points against a weight of %.2f", name, allocated, cat.Weight)
		}
		total += cat.Weight
	}
	if diff := total - 100.0; diff > 0.001 || diff < -0.001 {
		return fmt.Errorf("category weights sum to %.2f, want 100", total)
	}

	for _, tier := range []Tier{TierExcellent, TierGood, TierAdequate, TierLow, TierCritical} {
		if _, ok := c.Points.Tiers[tier]; !ok {
			return fmt.Errorf("tier fraction missing for %q", tier)
		}
	}

	if c.Thresholds.ZScore.Safe <= c.Thresholds.ZScore.Distress {
		return fmt.Errorf("z-score safe boundary must exceed the distress boundary")
	}

	if len(c.Classification) < 2 {
		return fmt.Errorf("classification needs at least two rating bands")
	}
	for i, band := range c.Classification {
		if band.Rating == "" {
			return fmt.Errorf("classification band %d has no rating", i)
		}
		if band.Min >= band.Max {
			return fmt.Errorf("rating %s has an empty band [%.1f, %.1f]", band.Rating, band.Min, band.Max)
		}
		if i > 0 {
			prev := c.Classification[i-1]
			if diff := band.Max - prev.Min; diff > 0.001 || diff < -0.001 {
				return fmt.Errorf("rating bands %s and %s are not contiguous", prev.Rating, band.Rating)
			}
		}
	}
	top := c.Classification[0]
	bottom := c.Classification[len(c.Classification)-1]
	if top.Max != 100 || bottom.Min != 0 {
		return fmt.Errorf("rating bands must span [0, 100], got [%.1f, %.1f]", bottom.Min, top.Max)
	}

	if !(c.Delta.Critical > c.Delta.High && c.Delta.High > c.Delta.Moderate && c.Delta.Moderate > 0) {
		return fmt.Errorf("delta tiers must satisfy critical > high > moderate > 0")
	}

	return nil
}

// Load reads a policy document from a JSON file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return &cfg, nil
}
