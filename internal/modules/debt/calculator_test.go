package debt

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/policy"
	crivotest "github.com/rmaragno/crivo/internal/testing"
)

func newCalculator(t *testing.T) *Calculator {
	t.Helper()
	return New(policy.Default(), zerolog.Nop())
}

func TestComputeBandsFixtureMetrics(t *testing.T) {
	result, err := newCalculator(t).Compute(crivotest.NewBundleFixture())
	require.NoError(t, err)

	assert.InDelta(t, 1.6664, *result.FinancialLeverage.Value, 0.0001)
	assert.Equal(t, domain.BandAdequate, result.FinancialLeverage.Band)

	assert.InDelta(t, 1.3004, *result.DebtToEBITDA.Value, 0.0001)
	assert.Equal(t, domain.BandExcellent, result.DebtToEBITDA.Band)

	assert.InDelta(t, 0.4799, *result.ShortTermShare.Value, 0.0001)
	assert.Equal(t, domain.BandGood, result.ShortTermShare.Band)

	assert.InDelta(t, 0.625, *result.AssetLeverage.Value, 0.0001)
	assert.Equal(t, domain.BandAdequate, result.AssetLeverage.Band)

	assert.InDelta(t, 3.9821, *result.InterestCoverage.Value, 0.0001)
	assert.Equal(t, domain.BandGood, result.InterestCoverage.Band)

	assert.InDelta(t, 0.01, *result.PayablesDelinquency.Value, 0.0001)
	assert.Equal(t, domain.BandExcellent, result.PayablesDelinquency.Band)

	assert.InDelta(t, 0.0149, *result.ReceivablesDelinquency.Value, 0.0001)
	assert.Equal(t, domain.BandExcellent, result.ReceivablesDelinquency.Band)

	assert.Empty(t, result.Alerts)
}

func TestBandColorsFollowBand(t *testing.T) {
	result, err := newCalculator(t).Compute(crivotest.NewBundleFixture())
	require.NoError(t, err)

	assert.Equal(t, domain.BandColors[result.ShortTermShare.Band], result.ShortTermShare.Color)
	assert.Equal(t, "green", result.PayablesDelinquency.Color)
}

func TestCriticalMetricsRaiseAlerts(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	bundle.Debts.ReceivablesOverdue90 = 600_000 // 7.45% of receivables

	result, err := newCalculator(t).Compute(bundle)
	require.NoError(t, err)

	assert.Equal(t, domain.BandCritical, result.ReceivablesDelinquency.Band)
	require.Len(t, result.Alerts, 1)

	alert := result.Alerts[0]
	assert.Equal(t, "receivables_delinquency", alert.Metric)
	assert.Equal(t, string(domain.BandCritical), alert.Severity)
	assert.Contains(t, alert.Message, "receivables_delinquency in critical band (0.0745)")
	assert.Equal(t, "tighten collection of overdue receivables", alert.Recommendation)
}

func TestLeverageAndDebtToEBITDAAreDistinctMetrics(t *testing.T) {
	result, err := newCalculator(t).Compute(crivotest.NewBundleFixture())
	require.NoError(t, err)

	assert.Equal(t, "total liabilities / equity", result.FinancialLeverage.Formula)
	assert.Equal(t, "loan balance / ebitda", result.DebtToEBITDA.Formula)
	assert.NotEqual(t, *result.FinancialLeverage.Value, *result.DebtToEBITDA.Value)
}

func TestNonComputableMetricBandsNeutral(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	bundle.Debts.PayablesTotal = 0
	bundle.Debts.PayablesOverdue90 = 0

	result, err := newCalculator(t).Compute(bundle)
	require.NoError(t, err)

	assert.False(t, result.PayablesDelinquency.Computable())
	assert.Equal(t, domain.BandAdequate, result.PayablesDelinquency.Band)
	assert.Empty(t, result.Alerts)
}

func TestInterestCoverageUsesDegradedEBITDAFallback(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	latest := &bundle.Periods[len(bundle.Periods)-1]
	latest.Income.OperatingIncome = nil

	result, err := newCalculator(t).Compute(bundle)
	require.NoError(t, err)

	// (net income + financial expenses + depreciation) / financial expenses
	expected := (1_790_000.0 + 1_120_000.0 + 940_000.0) / 1_120_000.0
	assert.InDelta(t, expected, *result.InterestCoverage.Value, 0.0001)
}

func TestComputeRejectsEmptyPeriods(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	bundle.Periods = nil

	_, err := newCalculator(t).Compute(bundle)
	require.Error(t, err)

	var compErr *domain.ComputationError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, Key, compErr.Calculator)
}
