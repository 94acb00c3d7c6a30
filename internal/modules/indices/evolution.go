package indices

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rmaragno/crivo/internal/domain"
)

// Evolution holds the multi-period trajectory metrics. All values are nil
// when the series is too short: CAGR and trend need two periods, growth
// volatility needs three.
type Evolution struct {
	RevenueCAGR      *float64 `json:"revenue_cagr"`
	NetIncomeCAGR    *float64 `json:"net_income_cagr"`
	RevenueTrend     *float64 `json:"revenue_trend"`     // regression slope relative to mean revenue
	GrowthVolatility *float64 `json:"growth_volatility"` // stddev of year-over-year revenue growth
}

func (c *Calculator) evolution(periods []domain.Period) Evolution {
	if len(periods) < 2 {
		return Evolution{}
	}

	years := make([]float64, len(periods))
	revenues := make([]float64, len(periods))
	for i, p := range periods {
		years[i] = float64(p.Year)
		revenues[i] = p.Income.NetRevenue
	}

	ev := Evolution{
		RevenueCAGR:   cagr(periods[0].Income.NetRevenue, periods[len(periods)-1].Income.NetRevenue, len(periods)-1),
		NetIncomeCAGR: cagr(periods[0].Income.NetIncome, periods[len(periods)-1].Income.NetIncome, len(periods)-1),
	}

	if mean := stat.Mean(revenues, nil); mean != 0 {
		_, slope := stat.LinearRegression(years, revenues, nil, false)
		ev.RevenueTrend = domain.Float(domain.Round4(slope / mean))
	}

	if len(periods) >= 3 {
		growths := make([]float64, 0, len(periods)-1)
		for i := 1; i < len(periods); i++ {
			if prev := periods[i-1].Income.NetRevenue; prev != 0 {
				growths = append(growths, periods[i].Income.NetRevenue/prev-1)
			}
		}
		if len(growths) >= 2 {
			ev.GrowthVolatility = domain.Float(domain.Round4(stat.StdDev(growths, nil)))
		}
	}

	return ev
}

// cagr returns the compound annual growth rate over n year steps, nil when
// the starting value is non-positive or the sign flips.
func cagr(first, last float64, n int) *float64 {
	if n <= 0 || first <= 0 || last <= 0 {
		return nil
	}
	return domain.Float(domain.Round4(math.Pow(last/first, 1/float64(n)) - 1))
}
