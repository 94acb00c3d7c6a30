package indices

import "github.com/rmaragno/crivo/internal/domain"

// Altman Z-Score zones.
const (
	ZoneSafe     = "safe"
	ZoneGrey     = "grey"
	ZoneDistress = "distress"
	ZoneUnknown  = "unknown"
)

// ZScore is the Altman Z-Score with its five components. X4 uses the book
// value of equity, so the score is nil when total liabilities are zero.
type ZScore struct {
	Z        *float64 `json:"z"`
	X1       float64  `json:"x1"` // working capital / total assets
	X2       float64  `json:"x2"` // retained earnings / total assets
	X3       float64  `json:"x3"` // ebit / total assets
	X4       *float64 `json:"x4"` // equity / total liabilities
	X5       float64  `json:"x5"` // net revenue / total assets
	Zone     string   `json:"zone"`
	Degraded bool     `json:"degraded"` // X3 used the net-income fallback
}

// zScore assumes the caller already guarded TotalAssets > 0.
func (c *Calculator) zScore(p domain.Period) ZScore {
	ta := p.Balance.TotalAssets
	ebit, degraded := p.Income.EBIT()

	score := ZScore{
		X1:       domain.Round4(p.Balance.WorkingCapital() / ta),
		X2:       domain.Round4(p.Balance.RetainedEarnings / ta),
		X3:       domain.Round4(ebit / ta),
		X5:       domain.Round4(p.Income.NetRevenue / ta),
		Zone:     ZoneUnknown,
		Degraded: degraded,
	}

	x4 := domain.Ratio(p.Balance.Equity, p.Balance.TotalLiabilities)
	if x4 == nil {
		return score
	}
	score.X4 = domain.Float(domain.Round4(*x4))

	z := 1.2*score.X1 + 1.4*score.X2 + 3.3*score.X3 + 0.6**score.X4 + 1.0*score.X5
	score.Z = domain.Float(domain.Round4(z))
	score.Zone = c.zone(z)
	return score
}

func (c *Calculator) zone(z float64) string {
	switch {
	case z > c.policy.Thresholds.ZScore.Safe:
		return ZoneSafe
	case z <= c.policy.Thresholds.ZScore.Distress:
		return ZoneDistress
	default:
		return ZoneGrey
	}
}
