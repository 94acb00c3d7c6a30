// Package history persists the bounded calculation trail: the last runs
// with their full results, and the longer score movement window used for
// dynamic rescoring. Results are stored as msgpack blobs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rmaragno/crivo/internal/database"
)

// Retention caps. Appends beyond these evict the oldest rows per company.
const (
	MaxEntries = 10
	MaxScores  = 50
)

// Entry is one completed calculation run.
type Entry struct {
	ID                string         `json:"id"`
	CompanyID         string         `json:"company_id"`
	InputHash         string         `json:"input_hash"`
	Results           map[string]any `json:"results"`
	Score             float64        `json:"score"`
	Classification    string         `json:"classification"`
	ValidationSummary string         `json:"validation_summary"`
	Degraded          bool           `json:"degraded"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ScoreRecord is one score movement observation.
type ScoreRecord struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	Score          float64   `json:"score"`
	Classification string    `json:"classification"`
	Delta          float64   `json:"delta"`
	Severity       string    `json:"severity"`
	Direction      string    `json:"direction"`
	CreatedAt      time.Time `json:"created_at"`
}

// Repository provides history persistence operations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new history repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// AppendEntry stores a calculation run and evicts the oldest runs beyond
// the retention cap for that company.
func (r *Repository) AppendEntry(entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	blob, err := msgpack.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	// Insert and eviction commit together so a crash between them can
	// never leave the company over its retention cap.
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO calculation_entries
			   (id, company_id, input_hash, results, score, classification, validation_summary, degraded, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.CompanyID, entry.InputHash, blob,
			entry.Score, entry.Classification, entry.ValidationSummary, entry.Degraded,
			entry.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert calculation entry: %w", err)
		}
		return trim(tx, "calculation_entries", entry.CompanyID, MaxEntries)
	})
}

// Entries returns the retained runs for a company, newest first.
func (r *Repository) Entries(companyID string) ([]Entry, error) {
	rows, err := r.db.Query(
		`SELECT id, company_id, input_hash, results, score, classification, validation_summary, degraded, created_at
		   FROM calculation_entries
		  WHERE company_id = ?
		  ORDER BY created_at DESC, rowid DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculation entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			blob    []byte
			created string
		)
		if err := rows.Scan(&entry.ID, &entry.CompanyID, &entry.InputHash, &blob,
			&entry.Score, &entry.Classification, &entry.ValidationSummary, &entry.Degraded, &created); err != nil {
			return nil, fmt.Errorf("failed to scan calculation entry: %w", err)
		}
		if err := msgpack.Unmarshal(blob, &entry.Results); err != nil {
			return nil, fmt.Errorf("failed to decode results for entry %s: %w", entry.ID, err)
		}
		if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for entry %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LatestEntry returns the newest run for a company, or nil when none exist.
func (r *Repository) LatestEntry(companyID string) (*Entry, error) {
	entries, err := r.Entries(companyID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// AppendScore stores a score observation and evicts beyond the cap.
func (r *Repository) AppendScore(record ScoreRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO score_history
			   (id, company_id, score, classification, delta, severity, direction, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID, record.CompanyID, record.Score, record.Classification,
			record.Delta, record.Severity, record.Direction,
			record.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert score record: %w", err)
		}
		return trim(tx, "score_history", record.CompanyID, MaxScores)
	})
}

// Scores returns the retained score observations, newest first.
func (r *Repository) Scores(companyID string) ([]ScoreRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, company_id, score, classification, delta, severity, direction, created_at
		   FROM score_history
		  WHERE company_id = ?
		  ORDER BY created_at DESC, rowid DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	var records []ScoreRecord
	for rows.Next() {
		var (
			record  ScoreRecord
			created string
		)
		if err := rows.Scan(&record.ID, &record.CompanyID, &record.Score, &record.Classification,
			&record.Delta, &record.Severity, &record.Direction, &created); err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		if record.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for score %s: %w", record.ID, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// LatestScore returns the newest score observation, or nil when none exist.
func (r *Repository) LatestScore(companyID string) (*ScoreRecord, error) {
	records, err := r.Scores(companyID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// trim deletes a company's rows beyond the newest keep rows. The table name
// is always one of the two fixed history tables, never caller input.
func trim(tx *sql.Tx, table, companyID string, keep int) error {
	query := fmt.Sprintf(
		`DELETE FROM %s
		  WHERE company_id = ?
		    AND id NOT IN (
		        SELECT id FROM %s
		         WHERE company_id = ?
		         ORDER BY created_at DESC, rowid DESC
		         LIMIT ?)`,
		table, table,
	)
	if _, err := tx.Exec(query, companyID, companyID, keep); err != nil {
		return fmt.Errorf("failed to trim %s: %w", table, err)
	}
	return nil
}
