package policy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestDefaultWeightsSumTo100(t *testing.T) {
	cfg := Default()
	total := cfg.Points.Registration.Weight +
		cfg.Points.Financial.Weight +
		cfg.Points.PaymentCapacity.Weight +
		cfg.Points.Leverage.Weight +
		cfg.Points.StructureConcentration.Weight
	assert.InDelta(t, 100.0, total, 0.001)
}

func TestLadderClassifyHigherIsBetter(t *testing.T) {
	ladder := Ladder{Edges: [4]float64{5, 3, 2, 1}, HigherIsBetter: true}

	assert.Equal(t, TierExcellent, ladder.Classify(7.2))
	assert.Equal(t, TierExcellent, ladder.Classify(5.0))
	assert.Equal(t, TierGood, ladder.Classify(3.4))
	assert.Equal(t, TierAdequate, ladder.Classify(2.0))
	assert.Equal(t, TierLow, ladder.Classify(1.0))
	assert.Equal(t, TierCritical, ladder.Classify(0.4))
}

func TestLadderClassifyLowerIsBetter(t *testing.T) {
	ladder := Ladder{Edges: [4]float64{0.5, 1.0, 2.0, 3.0}}

	assert.Equal(t, TierExcellent, ladder.Classify(0.2))
	assert.Equal(t, TierExcellent, ladder.Classify(0.5))
	assert.Equal(t, TierGood, ladder.Classify(0.8))
	assert.Equal(t, TierAdequate, ladder.Classify(1.7))
	assert.Equal(t, TierLow, ladder.Classify(3.0))
	assert.Equal(t, TierCritical, ladder.Classify(4.1))
}

func TestTierFractionsAreMonotonic(t *testing.T) {
	cfg := Default()
	order := []Tier{TierExcellent, TierGood, TierAdequate, TierLow, TierCritical}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, cfg.TierFraction(order[i-1]), cfg.TierFraction(order[i]),
			"fraction for %s should exceed %s", order[i-1], order[i])
	}
	assert.Equal(t, 1.0, cfg.TierFraction(TierExcellent))
}

func TestNoDataTierFallsBackToAdequate(t *testing.T) {
	cfg := Default()
	assert.Equal(t, TierAdequate, cfg.NoDataTier("revenue_growth"))
	assert.Equal(t, TierAdequate, cfg.NoDataTier("some_unlisted_criterion"))
}

func TestCriterionLadderUnknownName(t *testing.T) {
	cfg := Default()
	_, err := cfg.CriterionLadder("does_not_exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does_not_exist")
}

func TestValidateRejectsMisallocatedCategory(t *testing.T) {
	cfg := Default()
	cfg.Points.Financial.Criteria = map[string]float64{"net_margin": 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "financial")
}

func TestValidateRejectsInvertedZScoreZones(t *testing.T) {
	cfg := Default()
	cfg.Thresholds.ZScore.Safe = 1.0
	cfg.Thresholds.ZScore.Distress = 2.0
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingTierFraction(t *testing.T) {
	cfg := Default()
	delete(cfg.Points.Tiers, TierLow)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low")
}

func TestClassifyBandLookup(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "AAA", cfg.Classify(100).Rating)
	assert.Equal(t, "AAA", cfg.Classify(90).Rating)
	assert.Equal(t, "AA", cfg.Classify(89.99).Rating)
	assert.Equal(t, "A", cfg.Classify(70).Rating)
	assert.Equal(t, "D", cfg.Classify(0).Rating)
	assert.Equal(t, "D", cfg.Classify(-3).Rating)

	band := cfg.Classify(75)
	assert.Equal(t, 70.0, band.Min)
	assert.Equal(t, 80.0, band.Max)
	assert.NotEmpty(t, band.RiskLabel)
	assert.NotEmpty(t, band.Narrative)
}

func TestValidateRejectsNonContiguousBands(t *testing.T) {
	cfg := Default()
	cfg.Classification[2].Min = 72 // leaves a 70-72 gap to the band below
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contiguous")
}

func TestValidateRejectsBandsNotSpanningScale(t *testing.T) {
	cfg := Default()
	cfg.Classification = cfg.Classification[:len(cfg.Classification)-1]
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "span")
}

func TestValidateRejectsUnorderedDeltaTiers(t *testing.T) {
	cfg := Default()
	cfg.Delta.High = cfg.Delta.Critical + 1
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Delta.Moderate = 0
	require.Error(t, cfg.Validate())
}

func TestLoadRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Default())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.99, cfg.Thresholds.ZScore.Safe)
	assert.Equal(t, 23.0, cfg.Points.PaymentCapacity.Weight)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"points":{}}`), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
