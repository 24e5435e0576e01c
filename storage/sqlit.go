package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLite is the diagnostics-history backend: a single append-only table
// of (timestamp, counter name, value) rows written once per tick.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLite opens (or creates) the SQLite file at dbPath and runs the
// migration that creates the counter_history table if it does not exist.
// The caller must call Close() when the program shuts down.
func NewSQLite(dbPath string, log *zap.Logger) (*SQLite, error) {
	// The modernc.org driver is pure Go and works without CGO.
	dsn := fmt.Sprintf("file:%s?_fk=1", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &SQLite{db: db, log: log}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migration: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	const stmt = `
CREATE TABLE IF NOT EXISTS counter_history (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    ts        DATETIME NOT NULL,
    name      TEXT NOT NULL,
    value     REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_counter_history_name_ts ON counter_history(name, ts);
`
	_, err := s.db.Exec(stmt)
	if err != nil {
		return fmt.Errorf("create counter_history table: %w", err)
	}
	s.log.Info("SQLite migration applied")
	return nil
}

// Save stores a tick's counters in a single transaction.
func (s *SQLite) Save(ctx context.Context, snap *CounterSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO counter_history (ts, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := snap.CollectedAt.UTC()
	for name, value := range snap.Counters {
		if _, err := stmt.ExecContext(ctx, ts, name, value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec insert for %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	s.log.Debug("counter snapshot persisted", zap.Time("ts", ts), zap.Int("counters", len(snap.Counters)))
	return nil
}

// Query returns counter records for a given name between the time range,
// sorted by timestamp ascending. An empty name matches every counter.
func (s *SQLite) Query(ctx context.Context, name string, from, to time.Time) ([]CounterRecord, error) {
	const base = `SELECT id, ts, name, value FROM counter_history WHERE ts >= ? AND ts <= ?`
	query := base + ` ORDER BY ts ASC`
	args := []interface{}{from.UTC(), to.UTC()}
	if name != "" {
		query = base + ` AND name = ? ORDER BY ts ASC`
		args = []interface{}{from.UTC(), to.UTC(), name}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counter_history: %w", err)
	}
	defer rows.Close()

	var out []CounterRecord
	for rows.Next() {
		var r CounterRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Name, &r.Value); err != nil {
			return nil, fmt.Errorf("scan counter_history row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close shuts down the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
