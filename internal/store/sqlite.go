package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given DSN.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	// SQLite allows one writer at a time; keep the pool small.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS optimization_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			mode TEXT NOT NULL,
			address_count INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL DEFAULT '',
			latency_ms INTEGER NOT NULL DEFAULT 0,
			request_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_optimization_logs_timestamp ON optimization_logs(timestamp)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) LogOptimization(ctx context.Context, entry OptimizationLog) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO optimization_logs (timestamp, mode, address_count, outcome, latency_ms, request_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ts, entry.Mode, entry.AddressCount, entry.Outcome, entry.LatencyMs, entry.RequestID)
	if err != nil {
		return fmt.Errorf("log optimization: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListOptimizations(ctx context.Context, limit, offset int) ([]OptimizationLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, mode, address_count, outcome, latency_ms, request_id
		 FROM optimization_logs ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list optimizations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []OptimizationLog
	for rows.Next() {
		var e OptimizationLog
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Mode, &e.AddressCount, &e.Outcome, &e.LatencyMs, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan optimization log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
