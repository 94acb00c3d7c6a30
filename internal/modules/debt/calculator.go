// Package debt computes the indebtedness profile: financial leverage,
// debt composition, interest coverage and delinquency shares, each banded
// against the policy ladders.
package debt

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/policy"
)

// Key identifies this calculator in orchestrator results.
const Key = "debt"

// Alert is one structured warning for a metric in the critical band.
type Alert struct {
	Metric         string `json:"metric"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// Result is the banded debt profile for one calculation run.
type Result struct {
	// FinancialLeverage is total liabilities over equity.
	FinancialLeverage domain.BandedMetric `json:"financial_leverage"`
	// DebtToEBITDA is outstanding loan balance over EBITDA.
	DebtToEBITDA domain.BandedMetric `json:"debt_to_ebitda"`
	// ShortTermShare is the current slice of total liabilities.
	ShortTermShare domain.BandedMetric `json:"short_term_share"`
	// AssetLeverage is total liabilities over total assets.
	AssetLeverage domain.BandedMetric `json:"asset_leverage"`
	// InterestCoverage is EBITDA over financial expenses.
	InterestCoverage domain.BandedMetric `json:"interest_coverage"`
	// PayablesDelinquency is the 90-day overdue share of payables.
	PayablesDelinquency domain.BandedMetric `json:"payables_delinquency"`
	// ReceivablesDelinquency is the 90-day overdue share of receivables.
	ReceivablesDelinquency domain.BandedMetric `json:"receivables_delinquency"`
	// Alerts carries one structured entry per metric in the critical band.
	Alerts []Alert `json:"alerts"`
}

// Calculator computes the debt result from an analysis bundle.
type Calculator struct {
	policy *policy.Config
	log    zerolog.Logger
}

// New builds a debt calculator.
func New(cfg *policy.Config, log zerolog.Logger) *Calculator {
	return &Calculator{
		policy: cfg,
		log:    log.With().Str("component", "debt").Logger(),
	}
}

// Key implements the orchestrator calculator contract.
func (c *Calculator) Key() string { return Key }

// Dependencies implements the orchestrator calculator contract.
func (c *Calculator) Dependencies() []string { return nil }

// Calculate implements the orchestrator calculator contract.
func (c *Calculator) Calculate(ctx context.Context, bundle domain.AnalysisBundle, _ map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Compute(bundle)
}

// Compute bands every debt metric against the policy ladders. Metrics whose
// denominator is zero stay nil and band as adequate, the neutral tier.
func (c *Calculator) Compute(bundle domain.AnalysisBundle) (*Result, error) {
	period, ok := bundle.Latest()
	if !ok {
		return nil, &domain.ComputationError{
			Calculator: Key,
			Field:      "periods",
			Message:    "no statement periods available",
		}
	}

	ebitda, _ := period.Income.EBITDA()
	thresholds := c.policy.Thresholds.Debt

	result := &Result{
		FinancialLeverage: c.banded(thresholds.Leverage, domain.Metric{
			Value:          domain.Ratio(period.Balance.TotalLiabilities, period.Balance.Equity),
			Name:           "financial_leverage",
			Formula:        "total liabilities / equity",
			Interpretation: "units of third-party capital per unit of own capital",
		}),
		DebtToEBITDA: c.banded(thresholds.DebtToEBITDA, domain.Metric{
			Value:          domain.Ratio(bundle.Debts.TotalLoanBalance(), ebitda),
			Name:           "debt_to_ebitda",
			Formula:        "loan balance / ebitda",
			Interpretation: "years of operating cash needed to retire financial debt",
		}),
		ShortTermShare: c.banded(thresholds.ShortTermShare, domain.Metric{
			Value:          domain.Ratio(period.Balance.CurrentLiabilities, period.Balance.TotalLiabilities),
			Name:           "short_term_share",
			Formula:        "current liabilities / total liabilities",
			Interpretation: "share of debt maturing within one year",
		}),
		AssetLeverage: c.banded(thresholds.AssetLeverage, domain.Metric{
			Value:          domain.Ratio(period.Balance.TotalLiabilities, period.Balance.TotalAssets),
			Name:           "asset_leverage",
			Formula:        "total liabilities / total assets",
			Interpretation: "share of the asset base financed by third parties",
		}),
		InterestCoverage: c.banded(thresholds.InterestCoverage, domain.Metric{
			Value:          domain.Ratio(ebitda, period.Income.FinancialExpenses),
			Name:           "interest_coverage",
			Formula:        "ebitda / financial expenses",
			Interpretation: "operating cash per unit of interest due",
		}),
		PayablesDelinquency: c.banded(thresholds.Delinquency, domain.Metric{
			Value:          domain.Ratio(bundle.Debts.PayablesOverdue90, bundle.Debts.PayablesTotal),
			Name:           "payables_delinquency",
			Formula:        "payables overdue >90d / payables total",
			Interpretation: "share of supplier debt seriously overdue",
		}),
		ReceivablesDelinquency: c.banded(thresholds.Delinquency, domain.Metric{
			Value:          domain.Ratio(bundle.Debts.ReceivablesOverdue90, bundle.Debts.ReceivablesTotal),
			Name:           "receivables_delinquency",
			Formula:        "receivables overdue >90d / receivables total",
			Interpretation: "share of customer credit seriously overdue",
		}),
	}

	result.Alerts = generateAlerts(
		result.FinancialLeverage,
		result.DebtToEBITDA,
		result.ShortTermShare,
		result.AssetLeverage,
		result.InterestCoverage,
		result.PayablesDelinquency,
		result.ReceivablesDelinquency,
	)

	if len(result.Alerts) > 0 {
		names := make([]string, len(result.Alerts))
		for i, a := range result.Alerts {
			names[i] = a.Metric
		}
		c.log.Warn().
			Str("company_id", bundle.CompanyID).
			Strs("alerts", names).
			Msg("debt metrics in critical band")
	}

	return result, nil
}

// generateAlerts builds one structured alert per critical-band metric.
func generateAlerts(metrics ...domain.BandedMetric) []Alert {
	var alerts []Alert
	for _, m := range metrics {
		if m.Band != domain.BandCritical {
			continue
		}
		alert := Alert{
			Metric:   m.Name,
			Severity: string(domain.BandCritical),
			Message:  fmt.Sprintf("%s in critical band: %s", m.Name, m.Interpretation),
		}
		if m.Value != nil {
			alert.Message = fmt.Sprintf("%s in critical band (%.4f): %s", m.Name, *m.Value, m.Interpretation)
		}
		alert.Recommendation = metricAdvice[m.Name]
		alerts = append(alerts, alert)
	}
	return alerts
}

// metricAdvice pairs each debt metric with its critical-band remediation.
var metricAdvice = map[string]string{
	"financial_leverage":      "require capital reinforcement before extending the line",
	"debt_to_ebitda":          "amortize financial debt; operating cash cannot retire it in time",
	"short_term_share":        "renegotiate maturities to lengthen the debt profile",
	"asset_leverage":          "limit further debt; third parties already finance most assets",
	"interest_coverage":       "restructure debt service before taking on new obligations",
	"payables_delinquency":    "regularize overdue supplier payments",
	"receivables_delinquency": "tighten collection of overdue receivables",
}

func (c *Calculator) banded(ladder policy.Ladder, m domain.Metric) domain.BandedMetric {
	band := domain.BandAdequate
	if m.Value != nil {
		m.Value = domain.Float(domain.Round4(*m.Value))
		band = tierBand(ladder.Classify(*m.Value))
	}
	return domain.BandedMetric{
		Metric: m,
		Band:   band,
		Color:  domain.BandColors[band],
	}
}

// tierBand maps the policy tier scale onto the metric band scale. The two
// share names on purpose; this keeps the conversion explicit.
func tierBand(t policy.Tier) domain.Band {
	switch t {
	case policy.TierExcellent:
		return domain.BandExcellent
	case policy.TierGood:
		return domain.BandGood
	case policy.TierAdequate:
		return domain.BandAdequate
	case policy.TierLow:
		return domain.BandLow
	default:
		return domain.BandCritical
	}
}
