package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/twm/internal/pipeline"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based history store.
// Use ":memory:" for in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseOpenFailed, err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrInitializeSchemaFailed, err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		outcome TEXT NOT NULL,
		started INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		copied INTEGER NOT NULL,
		written INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started);
	CREATE INDEX IF NOT EXISTS idx_cycles_outcome ON cycles(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record implements Store and engine.CycleSink.
func (s *SQLiteStore) Record(ctx context.Context, sum pipeline.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("%w: marshal summary: %w", ErrRecordFailed, err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO cycles (id, kind, outcome, started, duration_ns, copied, written, payload) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		sum.ID, string(sum.Kind), sum.Outcome, sum.Started.UnixNano(), int64(sum.Duration), sum.Copied, sum.Written, payload,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRecordFailed, err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (pipeline.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM cycles WHERE id = ?", id).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return pipeline.Summary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	var sum pipeline.Summary
	if err := json.Unmarshal(payload, &sum); err != nil {
		return pipeline.Summary{}, fmt.Errorf("%w: unmarshal summary: %w", ErrQueryFailed, err)
	}
	return sum, nil
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]pipeline.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM cycles ORDER BY seq DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []pipeline.Summary
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: scan row: %w", ErrQueryFailed, err)
		}
		var sum pipeline.Summary
		if err := json.Unmarshal(payload, &sum); err != nil {
			return nil, fmt.Errorf("%w: unmarshal summary: %w", ErrQueryFailed, err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %w", ErrQueryFailed, err)
	}
	return out, nil
}

// Totals implements Store.
func (s *SQLiteStore) Totals(ctx context.Context) (Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(kind = ?), 0),
			COALESCE(SUM(outcome = ?), 0),
			COALESCE(SUM(outcome = ?), 0),
			COALESCE(SUM(copied), 0),
			COALESCE(SUM(written), 0)
		FROM cycles`,
		string(pipeline.CycleFull), pipeline.OutcomePartial, pipeline.OutcomeFailed,
	).Scan(&t.Cycles, &t.Full, &t.Partial, &t.Failed, &t.Copied, &t.Written)
	if err != nil {
		return Totals{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return t, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
