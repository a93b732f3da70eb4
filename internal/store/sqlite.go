package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"cppi/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ SummaryStore = (*SQLiteStore)(nil)

// migrations are applied in order when the store is opened.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS summaries (
		id         TEXT PRIMARY KEY,
		strategy   TEXT NOT NULL,
		path       TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_summaries_strategy ON summaries (strategy, created_at)`,
	`CREATE TABLE IF NOT EXISTS summary_rows (
		summary_id TEXT NOT NULL REFERENCES summaries (id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		ts         INTEGER NOT NULL,
		cppi       REAL,
		protection REAL,
		underlying REAL,
		PRIMARY KEY (summary_id, seq)
	)`,
}

// SQLiteStore implements SummaryStore backed by a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migration %d: %w", i, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSummary inserts or replaces a summary and its rows in one transaction.
func (s *SQLiteStore) SaveSummary(ctx context.Context, summary domain.Summary) error {
	if summary.RealizationID == "" {
		return fmt.Errorf("summary has no realization id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM summary_rows WHERE summary_id = ?`, summary.RealizationID); err != nil {
		return fmt.Errorf("clearing summary %s: %w", summary.RealizationID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO summaries (id, strategy, path, created_at) VALUES (?, ?, ?, ?)`,
		summary.RealizationID, summary.Strategy, summary.Path, s.now().UnixNano(),
	); err != nil {
		return fmt.Errorf("inserting summary %s: %w", summary.RealizationID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO summary_rows (summary_id, seq, ts, cppi, protection, underlying) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, row := range summary.Rows {
		if _, err := stmt.ExecContext(ctx,
			summary.RealizationID, i, row.Time.UnixNano(),
			nullFloat(row.CPPI), nullFloat(row.Protection), nullFloat(row.Underlying),
		); err != nil {
			return fmt.Errorf("inserting summary %s row %d: %w", summary.RealizationID, i, err)
		}
	}
	return tx.Commit()
}

// LoadSummary retrieves a summary and its rows by realization ID.
func (s *SQLiteStore) LoadSummary(ctx context.Context, id string) (domain.Summary, error) {
	summary := domain.Summary{RealizationID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT strategy, path FROM summaries WHERE id = ?`, id,
	).Scan(&summary.Strategy, &summary.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Summary{}, fmt.Errorf("summary %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Summary{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, cppi, protection, underlying FROM summary_rows WHERE summary_id = ? ORDER BY seq`, id)
	if err != nil {
		return domain.Summary{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts int64
		var cppi, prot, under sql.NullFloat64
		if err := rows.Scan(&ts, &cppi, &prot, &under); err != nil {
			return domain.Summary{}, err
		}
		summary.Rows = append(summary.Rows, domain.SummaryRow{
			Time:       time.Unix(0, ts).UTC(),
			CPPI:       floatOrNaN(cppi),
			Protection: floatOrNaN(prot),
			Underlying: floatOrNaN(under),
		})
	}
	return summary, rows.Err()
}

// ListSummaries returns realization IDs for strategy in insertion order.
func (s *SQLiteStore) ListSummaries(ctx context.Context, strategy string) ([]string, error) {
	query := `SELECT id FROM summaries ORDER BY created_at, rowid`
	args := []any{}
	if strategy != "" {
		query = `SELECT id FROM summaries WHERE strategy = ? ORDER BY created_at, rowid`
		args = append(args, strategy)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// nullFloat stores NaN, which SQLite cannot represent, as NULL.
func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
