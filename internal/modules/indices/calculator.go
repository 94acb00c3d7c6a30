// Package indices computes the financial ratio families from the statement
// periods: liquidity, profitability, capital structure, activity cycles, the
// Altman Z-Score and the multi-period evolution metrics. Every ratio follows
// the "null, not zero" convention: a zero denominator yields a nil value.
package indices

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/policy"
)

// Key identifies this calculator in orchestrator results.
const Key = "indices"

// Liquidity holds the short-horizon solvency ratios.
type Liquidity struct {
	Current   domain.Metric `json:"current"`
	Quick     domain.Metric `json:"quick"`
	Immediate domain.Metric `json:"immediate"`
	General   domain.Metric `json:"general"`
}

// Profitability holds the margin and return ratios.
type Profitability struct {
	GrossMargin  domain.Metric `json:"gross_margin"`
	EBITDAMargin domain.Metric `json:"ebitda_margin"`
	NetMargin    domain.Metric `json:"net_margin"`
	ROE          domain.Metric `json:"roe"`
	ROA          domain.Metric `json:"roa"`
}

// Structure holds the capital structure ratios.
type Structure struct {
	DebtToEquity       domain.Metric `json:"debt_to_equity"`
	FixedToEquity      domain.Metric `json:"fixed_to_equity"`
	FixedToLongCapital domain.Metric `json:"fixed_to_long_capital"`
}

// Activity holds the operating cycle metrics, on a 360-day commercial year.
type Activity struct {
	DaysReceivable    domain.Metric `json:"days_receivable"`
	DaysInventory     domain.Metric `json:"days_inventory"`
	DaysPayable       domain.Metric `json:"days_payable"`
	InventoryTurnover domain.Metric `json:"inventory_turnover"`
	OperatingCycle    domain.Metric `json:"operating_cycle"`
	CashCycle         domain.Metric `json:"cash_cycle"`
}

// Result is the full indices output for one calculation run.
type Result struct {
	Year          int           `json:"year"`
	Liquidity     Liquidity     `json:"liquidity"`
	Profitability Profitability `json:"profitability"`
	Structure     Structure     `json:"structure"`
	Activity      Activity      `json:"activity"`
	ZScore        ZScore        `json:"z_score"`
	Evolution     Evolution     `json:"evolution"`
	// DegradedEBIT is set when operating income was absent and the
	// EBIT/EBITDA figures came from the documented net-income fallback.
	DegradedEBIT bool `json:"degraded_ebit"`
}

// Calculator computes the indices result from an analysis bundle.
type Calculator struct {
	policy *policy.Config
	log    zerolog.Logger
}

// New builds an indices calculator.
func New(cfg *policy.Config, log zerolog.Logger) *Calculator {
	return &Calculator{
		policy: cfg,
		log:    log.With().Str("component", "indices").Logger(),
	}
}

// Key implements the orchestrator calculator contract.
func (c *Calculator) Key() string { return Key }

// Dependencies implements the orchestrator calculator contract. Indices run
// first and depend on nothing.
func (c *Calculator) Dependencies() []string { return nil }

// Calculate implements the orchestrator calculator contract.
func (c *Calculator) Calculate(ctx context.Context, bundle domain.AnalysisBundle, _ map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Compute(bundle)
}

// Compute runs every ratio family against the newest period and the
// evolution metrics against the full series.
func (c *Calculator) Compute(bundle domain.AnalysisBundle) (*Result, error) {
	period, ok := bundle.Latest()
	if !ok {
		return nil, &domain.ComputationError{
			Calculator: Key,
			Field:      "periods",
			Message:    "no statement periods available",
		}
	}
	if period.Balance.TotalAssets <= 0 {
		return nil, &domain.ComputationError{
			Calculator: Key,
			Field:      "balance_sheet.total_assets",
			Message:    "total assets must be positive",
		}
	}

	_, degraded := period.Income.EBIT()

	result := &Result{
		Year:          period.Year,
		Liquidity:     c.liquidity(period.Balance),
		Profitability: c.profitability(period),
		Structure:     c.structure(period.Balance),
		Activity:      c.activity(period),
		ZScore:        c.zScore(period),
		Evolution:     c.evolution(bundle.Periods),
		DegradedEBIT:  degraded,
	}

	if degraded {
		c.log.Warn().
			Str("company_id", bundle.CompanyID).
			Int("year", period.Year).
			Msg("operating income absent, EBIT figures use net income fallback")
	}
	c.log.Debug().
		Str("company_id", bundle.CompanyID).
		Int("year", period.Year).
		Msg("computed financial indices")

	return result, nil
}

func (c *Calculator) liquidity(b domain.BalanceSheet) Liquidity {
	return Liquidity{
		Current: metric("current_liquidity", "current assets / current liabilities",
			"ability to cover short-term obligations",
			domain.Ratio(b.CurrentAssets, b.CurrentLiabilities)),
		Quick: metric("quick_liquidity", "(current assets - inventory) / current liabilities",
			"short-term coverage excluding inventory",
			domain.Ratio(b.CurrentAssets-b.InventoryOrZero(), b.CurrentLiabilities)),
		Immediate: metric("immediate_liquidity", "cash / current liabilities",
			"coverage from cash alone",
			domain.Ratio(b.Cash, b.CurrentLiabilities)),
		General: metric("general_liquidity", "(current assets + long-term receivables) / total liabilities",
			"total realizable assets against total debt",
			domain.Ratio(b.CurrentAssets+b.LongTermReceivables, b.CurrentLiabilities+b.LongTermLiabilities)),
	}
}

func (c *Calculator) profitability(p domain.Period) Profitability {
	ebitda, _ := p.Income.EBITDA()
	return Profitability{
		GrossMargin: metric("gross_margin", "gross profit / net revenue",
			"share of revenue left after direct costs",
			domain.Ratio(p.Income.GrossProfit(), p.Income.NetRevenue)),
		EBITDAMargin: metric("ebitda_margin", "ebitda / net revenue",
			"operating cash generation per revenue unit",
			domain.Ratio(ebitda, p.Income.NetRevenue)),
		NetMargin: metric("net_margin", "net income / net revenue",
			"bottom-line profitability",
			domain.Ratio(p.Income.NetIncome, p.Income.NetRevenue)),
		ROE: metric("roe", "net income / equity",
			"return on shareholders' capital",
			domain.Ratio(p.Income.NetIncome, p.Balance.Equity)),
		ROA: metric("roa", "net income / total assets",
			"return on the full asset base",
			domain.Ratio(p.Income.NetIncome, p.Balance.TotalAssets)),
	}
}

func (c *Calculator) structure(b domain.BalanceSheet) Structure {
	return Structure{
		DebtToEquity: metric("debt_to_equity", "total liabilities / equity",
			"third-party capital per unit of own capital",
			domain.Ratio(b.TotalLiabilities, b.Equity)),
		FixedToEquity: metric("fixed_to_equity", "fixed assets / equity",
			"equity immobilized in fixed assets",
			domain.Ratio(b.FixedAssets, b.Equity)),
		FixedToLongCapital: metric("fixed_to_long_capital", "fixed assets / (equity + long-term liabilities)",
			"fixed assets against permanent capital",
			domain.Ratio(b.FixedAssets, b.Equity+b.LongTermLiabilities)),
	}
}

// activity uses a 360-day commercial year and treats cost of goods sold as
// the purchases proxy for days payable.
func (c *Calculator) activity(p domain.Period) Activity {
	daysReceivable := scale(domain.Ratio(p.Balance.Receivables, p.Income.NetRevenue), 360)
	daysInventory := scale(domain.Ratio(p.Balance.InventoryOrZero(), p.Income.COGS), 360)
	daysPayable := scale(domain.Ratio(p.Balance.Suppliers, p.Income.COGS), 360)

	operating := sum(daysReceivable, daysInventory)
	cash := sub(operating, daysPayable)

	return Activity{
		DaysReceivable: metric("days_receivable", "receivables / net revenue * 360",
			"average collection period in days", daysReceivable),
		DaysInventory: metric("days_inventory", "inventory / cogs * 360",
			"average days of stock on hand", daysInventory),
		DaysPayable: metric("days_payable", "suppliers / cogs * 360",
			"average payment period in days", daysPayable),
		InventoryTurnover: metric("inventory_turnover", "cogs / inventory",
			"stock rotations per year",
			domain.Ratio(p.Income.COGS, p.Balance.InventoryOrZero())),
		OperatingCycle: metric("operating_cycle", "days receivable + days inventory",
			"days from stock purchase to cash collection", operating),
		CashCycle: metric("cash_cycle", "operating cycle - days payable",
			"days of operation financed by own cash", cash),
	}
}

func metric(name, formula, interpretation string, v *float64) domain.Metric {
	if v != nil {
		v = domain.Float(domain.Round4(*v))
	}
	return domain.Metric{
		Value:          v,
		Name:           name,
		Formula:        formula,
		Interpretation: interpretation,
	}
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	return domain.Float(*v * factor)
}

func sum(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return domain.Float(*a + *b)
}

func sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return domain.Float(*a - *b)
}
