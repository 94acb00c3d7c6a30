package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/modules/debt"
	"github.com/rmaragno/crivo/internal/modules/indices"
	"github.com/rmaragno/crivo/internal/policy"
	crivotest "github.com/rmaragno/crivo/internal/testing"
)

func newCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc := New(policy.Default(), zerolog.Nop())
	calc.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}
	return calc
}

func computeUpstream(t *testing.T, bundle domain.AnalysisBundle) (*indices.Result, *debt.Result) {
	t.Helper()
	idx, err := indices.New(policy.Default(), zerolog.Nop()).Compute(bundle)
	require.NoError(t, err)
	dbt, err := debt.New(policy.Default(), zerolog.Nop()).Compute(bundle)
	require.NoError(t, err)
	return idx, dbt
}

func findCriterion(t *testing.T, cat CategoryScore, name string) CriterionScore {
	t.Helper()
	for _, cs := range cat.Criteria {
		if cs.Name == name {
			return cs
		}
	}
	t.Fatalf("criterion %q not found in category %q", name, cat.Name)
	return CriterionScore{}
}

func TestComputeFixtureScore(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	idx, dbt := computeUpstream(t, bundle)

	result, err := newCalculator(t).Compute(bundle, idx, dbt)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, result.Registration.Points, 0.01)
	assert.InDelta(t, 15.0, result.Financial.Points, 0.01)
	assert.InDelta(t, 18.4, result.PaymentCapacity.Points, 0.01)
	assert.InDelta(t, 14.6, result.Leverage.Points, 0.01)
	assert.InDelta(t, 10.4, result.StructureConcentration.Points, 0.01)

	assert.InDelta(t, 78.4, result.Total, 0.01)
	assert.Equal(t, "A", result.Classification.Rating)
}

func TestResultCarriesClassificationAndTimestamp(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	idx, dbt := computeUpstream(t, bundle)

	result, err := newCalculator(t).Compute(bundle, idx, dbt)
	require.NoError(t, err)

	assert.Equal(t, "A", result.Classification.Rating)
	assert.Equal(t, 70.0, result.Classification.Min)
	assert.Equal(t, 80.0, result.Classification.Max)
	assert.NotEmpty(t, result.Classification.RiskLabel)
	assert.NotEmpty(t, result.Classification.Color)
	assert.NotEmpty(t, result.Classification.Narrative)
	assert.Equal(t, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), result.Timestamp)

	// a healthy fixture has nothing in the critical tier
	assert.Empty(t, result.Alerts)
	assert.Empty(t, result.Recommendations)
}

func TestCriticalTierRaisesAlertsAndRecommendations(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	bundle.Compliance.Restrictions = 6
	idx, dbt := computeUpstream(t, bundle)

	result, err := newCalculator(t).Compute(bundle, idx, dbt)
	require.NoError(t, err)

	require.NotEmpty(t, result.Alerts)
	assert.Contains(t, result.Alerts[0], "compliance_restrictions")
	require.Len(t, result.Recommendations, len(result.Alerts))
	for _, rec := range result.Recommendations {
		assert.NotEmpty(t, rec)
	}
}

func TestCategoryPointsNeverExceedWeight(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	idx, dbt := computeUpstream(t, bundle)

	result, err := newCalculator(t).Compute(bundle, idx, dbt)
	require.NoError(t, err)

	total := 0.0
	for _, cat := range result.Categories() {
		assert.LessOrEqual(t, cat.Points, cat.Weight, "category %s", cat.Name)

		allocated := 0.0
		for _, cs := range cat.Criteria {
			assert.LessOrEqual(t, cs.Points, cs.MaxPoints, "criterion %s", cs.Name)
			allocated += cs.MaxPoints
		}
		assert.InDelta(t, cat.Weight, allocated, 0.001, "category %s allocation", cat.Name)
		total += cat.Points
	}
	assert.GreaterOrEqual(t, result.Total, 0.0)
	assert.LessOrEqual(t, result.Total, 100.0)
	assert.InDelta(t, total, result.Total, 0.01)
}

func TestMissingConstitutionDateIsHardError(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	idx, dbt := computeUpstream(t, bundle)
	bundle.Registration.ConstitutionDate = nil

	_, err := newCalculator(t).Compute(bundle, idx, dbt)
	require.Error(t, err)

	var compErr *domain.ComputationError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, "registration.constitution_date", compErr.Field)
}

func TestNoDataCriteriaUseDocumentedTier(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	bundle.RequestedLine = 0
	bundle.Relationship.SinceDate = nil
	idx, dbt := computeUpstream(t, bundle)

	result, err := newCalculator(t).Compute(bundle, idx, dbt)
	require.NoError(t, err)

	collateral := findCriterion(t, result.StructureConcentration, "collateral_coverage")
	assert.True(t, collateral.NoData)
	assert.Equal(t, policy.TierAdequate, collateral.Tier)
	assert.InDelta(t, 2.4, collateral.Points, 0.001)

	relationship := findCriterion(t, result.Registration, "relationship_length")
	assert.True(t, relationship.NoData)
	assert.InDelta(t, 1.8, relationship.Points, 0.001)
}

func TestObservedCycleFiguresFillComputedGap(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	latest := &bundle.Periods[len(bundle.Periods)-1]
	latest.Income.COGS = 0 // inventory cycle not computable
	bundle.Cycles = domain.Cycles{
		ReceivableDays: domain.Float(50),
		InventoryDays:  domain.Float(30),
		PayableDays:    domain.Float(20),
	}
	idx, dbt := computeUpstream(t, bundle)
	require.False(t, idx.Activity.CashCycle.Computable())

	result, err := newCalculator(t).Compute(bundle, idx, dbt)
	require.NoError(t, err)

	cash := findCriterion(t, result.PaymentCapacity, "cash_cycle")
	assert.False(t, cash.NoData)
	require.NotNil(t, cash.Value)
	assert.Equal(t, 60.0, *cash.Value)
	assert.Equal(t, policy.TierGood, cash.Tier)
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score  float64
		rating string
	}{
		{100, "AAA"},
		{90, "AAA"},
		{89.99, "AA"},
		{80, "AA"},
		{79.99, "A"},
		{70, "A"},
		{60, "BBB"},
		{50, "BB"},
		{40, "B"},
		{30, "C"},
		{29.99, "D"},
		{0, "D"},
		{-5, "D"},
		{104, "AAA"},
	}
	cfg := policy.Default()
	for _, tc := range cases {
		assert.Equal(t, tc.rating, Classify(cfg, tc.score).Rating, "score %.2f", tc.score)
	}
}

func TestClassifyDelta(t *testing.T) {
	tiers := policy.Default().Delta

	drop := ClassifyDelta(tiers, 72, 56)
	assert.Equal(t, DeltaCritical, drop.Severity)
	assert.Equal(t, DirectionDeteriorated, drop.Direction)
	assert.Equal(t, -16.0, drop.Delta)

	rise := ClassifyDelta(tiers, 60, 75)
	assert.Equal(t, DeltaCritical, rise.Severity)
	assert.Equal(t, DirectionImproved, rise.Direction)

	assert.Equal(t, DeltaHigh, ClassifyDelta(tiers, 60, 50).Severity)
	assert.Equal(t, DeltaModerate, ClassifyDelta(tiers, 60, 65).Severity)
	assert.Equal(t, DeltaNormal, ClassifyDelta(tiers, 60, 64.99).Severity)

	flat := ClassifyDelta(tiers, 60, 60)
	assert.Equal(t, DeltaNormal, flat.Severity)
	assert.Equal(t, DirectionStable, flat.Direction)
}

func TestClassifyDeltaHonoursConfiguredTiers(t *testing.T) {
	tight := policy.DeltaTiers{Critical: 6, High: 4, Moderate: 2}

	assert.Equal(t, DeltaCritical, ClassifyDelta(tight, 60, 53).Severity)
	assert.Equal(t, DeltaHigh, ClassifyDelta(tight, 60, 55).Severity)
	assert.Equal(t, DeltaModerate, ClassifyDelta(tight, 60, 57).Severity)
	assert.Equal(t, DeltaNormal, ClassifyDelta(tight, 60, 59).Severity)
}

func TestAgeCriteriaStableWithinOneDay(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	idx, dbt := computeUpstream(t, bundle)

	morning := New(policy.Default(), zerolog.Nop())
	morning.now = func() time.Time {
		return time.Date(2026, 8, 29, 0, 0, 1, 0, time.UTC)
	}
	evening := New(policy.Default(), zerolog.Nop())
	evening.now = func() time.Time {
		return time.Date(2026, 8, 29, 23, 59, 59, 0, time.UTC)
	}

	first, err := morning.Compute(bundle, idx, dbt)
	require.NoError(t, err)
	second, err := evening.Compute(bundle, idx, dbt)
	require.NoError(t, err)

	age1 := findCriterion(t, first.Registration, "time_in_business")
	age2 := findCriterion(t, second.Registration, "time_in_business")
	require.NotNil(t, age1.Value)
	require.NotNil(t, age2.Value)
	assert.Equal(t, *age1.Value, *age2.Value)

	rel1 := findCriterion(t, first.Registration, "relationship_length")
	rel2 := findCriterion(t, second.Registration, "relationship_length")
	require.NotNil(t, rel1.Value)
	require.NotNil(t, rel2.Value)
	assert.Equal(t, *rel1.Value, *rel2.Value)

	assert.Equal(t, first.Total, second.Total)
}

func TestCalculateRequiresUpstreamResults(t *testing.T) {
	bundle := crivotest.NewBundleFixture()
	idx, _ := computeUpstream(t, bundle)

	_, err := newCalculator(t).Calculate(context.Background(), bundle, map[string]any{
		indices.Key: idx,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), debt.Key)
}
