package scoring

import "github.com/rmaragno/crivo/internal/policy"

// Classification describes where a total score landed on the rating scale:
// the AAA-D rating, the band it occupies, and the risk framing the policy
// attaches to that band.
type Classification struct {
	Rating    string  `json:"rating"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	RiskLabel string  `json:"risk_label"`
	Color     string  `json:"color"`
	Narrative string  `json:"narrative"`
}

// Classify maps a 0-100 score onto the policy's rating scale. Lower band
// edges are inclusive; out-of-range scores land in the bottom band.
func Classify(cfg *policy.Config, score float64) Classification {
	band := cfg.Classify(score)
	return Classification{
		Rating:    band.Rating,
		Min:       band.Min,
		Max:       band.Max,
		RiskLabel: band.RiskLabel,
		Color:     band.Color,
		Narrative: band.Narrative,
	}
}
