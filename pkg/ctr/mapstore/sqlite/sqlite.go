package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/mapstore"
)

// sqliteStore implements mapstore.Store on SQLite. Inserts write
// through, so Flush is a no-op.
type sqliteStore struct {
	db *sql.DB
}

// Open opens (and if needed creates) a SQLite-backed mapping store
// with WAL mode enabled.
func Open(ctx context.Context, path string) (mapstore.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
CREATE TABLE IF NOT EXISTS mappings (
	key TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM mappings WHERE key=?`, key).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (s *sqliteStore) Insert(ctx context.Context, key, name string) (mapstore.Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapstore.OutcomeUnchanged, err
	}
	defer tx.Rollback()

	var prev string
	outcome := mapstore.OutcomeCreated
	err = tx.QueryRowContext(ctx, `SELECT name FROM mappings WHERE key=?`, key).Scan(&prev)
	switch {
	case err == sql.ErrNoRows:
		// fresh insert
	case err != nil:
		return mapstore.OutcomeUnchanged, err
	case prev == name:
		return mapstore.OutcomeUnchanged, nil
	default:
		outcome = mapstore.OutcomeUpdated
	}

	const stmt = `
INSERT INTO mappings (key, name, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET name=excluded.name, updated_at=excluded.updated_at;
`
	if _, err := tx.ExecContext(ctx, stmt, key, name, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return mapstore.OutcomeUnchanged, err
	}
	if err := tx.Commit(); err != nil {
		return mapstore.OutcomeUnchanged, err
	}
	return outcome, nil
}

func (s *sqliteStore) All(ctx context.Context) ([]mapstore.Mapping, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, name FROM mappings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []mapstore.Mapping
	for rows.Next() {
		var m mapstore.Mapping
		if err := rows.Scan(&m.Key, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mappings`).Scan(&n)
	return n, err
}

func (s *sqliteStore) Flush(ctx context.Context) error { return nil }
