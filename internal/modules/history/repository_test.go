package history

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema creates the history tables needed for testing
const testSchema = `
CREATE TABLE calculation_entries (
    id TEXT PRIMARY KEY,
    company_id TEXT NOT NULL,
    input_hash TEXT NOT NULL,
    results BLOB NOT NULL,
    score REAL NOT NULL,
    classification TEXT NOT NULL,
    validation_summary TEXT NOT NULL DEFAULT '',
    degraded INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE INDEX idx_entries_company_created ON calculation_entries(company_id, created_at);

CREATE TABLE score_history (
    id TEXT PRIMARY KEY,
    company_id TEXT NOT NULL,
    score REAL NOT NULL,
    classification TEXT NOT NULL,
    delta REAL NOT NULL,
    severity TEXT NOT NULL,
    direction TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX idx_scores_company_created ON score_history(company_id, created_at);
`

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func testEntry(company string, seq int) Entry {
	return Entry{
		CompanyID:         company,
		InputHash:         fmt.Sprintf("hash-%03d", seq),
		Results:           map[string]any{"scoring": map[string]any{"total": 70.0 + float64(seq)}},
		Score:             70 + float64(seq),
		Classification:    "A",
		ValidationSummary: fmt.Sprintf("validation passed: 31 checks, 0 errors, %d warnings", seq),
		CreatedAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Hour),
	}
}

func TestAppendAndReadEntries(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.AppendEntry(testEntry("BR-1", 1)))
	require.NoError(t, repo.AppendEntry(testEntry("BR-1", 2)))

	entries, err := repo.Entries("BR-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, "hash-002", entries[0].InputHash)
	assert.Equal(t, "hash-001", entries[1].InputHash)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, 72.0, entries[0].Score)
	assert.Equal(t, "validation passed: 31 checks, 0 errors, 2 warnings", entries[0].ValidationSummary)
}

func TestResultsBlobRoundTrip(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	entry := testEntry("BR-1", 1)
	entry.Results = map[string]any{
		"indices": map[string]any{"current_liquidity": 1.6667, "zone": "grey"},
		"scoring": map[string]any{"total": 78.4, "classification": "A"},
	}
	require.NoError(t, repo.AppendEntry(entry))

	got, err := repo.LatestEntry("BR-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	scoring, ok := got.Results["scoring"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 78.4, scoring["total"])
	assert.Equal(t, "A", scoring["classification"])
}

func TestEntriesEvictBeyondCap(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	for i := 1; i <= MaxEntries+1; i++ {
		require.NoError(t, repo.AppendEntry(testEntry("BR-1", i)))
	}

	entries, err := repo.Entries("BR-1")
	require.NoError(t, err)
	require.Len(t, entries, MaxEntries)

	// the oldest run was evicted, the newest retained
	assert.Equal(t, "hash-011", entries[0].InputHash)
	assert.Equal(t, "hash-002", entries[len(entries)-1].InputHash)
}

func TestEntriesAreScopedByCompany(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.AppendEntry(testEntry("BR-1", 1)))
	require.NoError(t, repo.AppendEntry(testEntry("BR-2", 2)))

	entries, err := repo.Entries("BR-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "BR-1", entries[0].CompanyID)
}

func TestLatestEntryEmpty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	entry, err := repo.LatestEntry("BR-1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestScoreHistoryCapAndLatest(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= MaxScores+5; i++ {
		require.NoError(t, repo.AppendScore(ScoreRecord{
			CompanyID:      "BR-1",
			Score:          float64(i),
			Classification: "B",
			Severity:       "normal",
			Direction:      "improved",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := repo.Scores("BR-1")
	require.NoError(t, err)
	require.Len(t, records, MaxScores)
	assert.Equal(t, float64(MaxScores+5), records[0].Score)
	assert.Equal(t, 6.0, records[len(records)-1].Score)

	latest, err := repo.LatestScore("BR-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, float64(MaxScores+5), latest.Score)
}

func TestLatestScoreEmpty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	latest, err := repo.LatestScore("BR-1")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
