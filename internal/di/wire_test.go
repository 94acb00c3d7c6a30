package di

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaragno/crivo/internal/config"
	"github.com/rmaragno/crivo/internal/scheduler"
	crivotest "github.com/rmaragno/crivo/internal/testing"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:    t.TempDir(),
		LogLevel:   "disabled",
		Port:       8001,
		RecalcCron: "*/15 * * * *",
		Backup:     &config.BackupConfig{},
	}
}

func TestWireBuildsWorkingContainer(t *testing.T) {
	c, err := Wire(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.HistoryDB)
	require.NotNil(t, c.Orchestrator)
	require.NotNil(t, c.Validation)
	require.NotNil(t, c.Policy)
	require.NotNil(t, c.Bus)
	assert.Nil(t, c.Backup, "backup service must stay nil when backups are disabled")

	// The wired pipeline runs end to end against the migrated database.
	run, err := c.Orchestrator.PerformAllCalculations(context.Background(), crivotest.NewBundleFixture())
	require.NoError(t, err)
	assert.Greater(t, run.Score, 0.0)
	assert.NotEmpty(t, run.Classification)

	entries, err := c.Orchestrator.History(run.CompanyID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWireLoadsExternalPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.PolicyPath = "/nonexistent/policy.json"

	_, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring policy")
}

func TestRegisterJobs(t *testing.T) {
	cfg := testConfig(t)
	c, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	sched := scheduler.New(zerolog.Nop())
	require.NoError(t, RegisterJobs(sched, c, cfg, zerolog.Nop()))
}

func TestRegisterJobsRejectsBadCron(t *testing.T) {
	cfg := testConfig(t)
	cfg.RecalcCron = "not a cron spec"

	c, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	sched := scheduler.New(zerolog.Nop())
	assert.Error(t, RegisterJobs(sched, c, cfg, zerolog.Nop()))
}
