package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite keeps each collection as one JSON document row.
type SQLite struct {
	DBPath string
	db     *sql.DB
}

// OpenSQLite opens or creates the planner database at path.
func OpenSQLite(path string) (*SQLite, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve planner db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure planner db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open planner db: %w", err)
	}
	// A single connection keeps writes serialised.
	db.SetMaxOpenConns(1)

	s := &SQLite{DBPath: absPath, db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	payload_json TEXT NOT NULL,
	item_count INTEGER NOT NULL,
	saved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS planner_kv (
	key TEXT PRIMARY KEY,
	value TEXT
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create planner schema: %w", err)
	}
	return nil
}

// Load decodes the stored collection into dst. A collection that was never
// saved leaves dst untouched.
func (s *SQLite) Load(ctx context.Context, collection string, dst any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload_json FROM collections WHERE name = ?", collection,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", collection, err)
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

// SaveAll replaces the stored collection in one transaction.
func (s *SQLite) SaveAll(ctx context.Context, collection string, items any) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}
	count, err := countItems(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	savedAt := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO collections (name, payload_json, item_count, saved_at)
		VALUES (?, ?, ?, ?)
	`, collection, string(payload), count, savedAt)
	if err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO planner_kv (key, value)
		VALUES ('last_saved_at', ?)
	`, savedAt)
	if err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Counts returns the number of items stored per collection.
func (s *SQLite) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, item_count FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return counts, nil
}

// LastSavedAt reports when any collection was last written. The zero time
// means nothing was saved yet.
func (s *SQLite) LastSavedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM planner_kv WHERE key = 'last_saved_at'").Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get last_saved_at: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last_saved_at: %w", err)
	}
	return ts, nil
}

func countItems(payload []byte) (int, error) {
	if string(payload) == "null" {
		return 0, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return 0, fmt.Errorf("collection is not a list: %w", err)
	}
	return len(items), nil
}
