package engine

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// sqliteEngine maps the ordered byte keyspace onto a single SQLite table.
// SQLite compares BLOBs with memcmp, so ORDER BY key is exactly the
// unsigned byte order the core requires.
type sqliteEngine struct {
	db     *sql.DB
	closed bool
}

// OpenSQLite opens (or creates) a SQLite-backed engine.
// Use ":memory:" for an in-memory database.
func OpenSQLite(path string) (Engine, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// Enable WAL mode for cheaper commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key   BLOB PRIMARY KEY,
		value BLOB NOT NULL
	) WITHOUT ROWID;`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &sqliteEngine{db: db}, nil
}

func (s *sqliteEngine) Get(key []byte) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	var value []byte
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	return value, nil
}

func (s *sqliteEngine) Write(b *Batch) error {
	if s.closed {
		return ErrClosed
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	for _, op := range b.ops {
		if op.delete {
			_, err = tx.Exec("DELETE FROM kv WHERE key = ?", op.key)
		} else {
			_, err = tx.Exec(
				`INSERT INTO kv (key, value) VALUES (?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
				op.key, op.value,
			)
		}
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite write: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

func (s *sqliteEngine) Scan(start, limit []byte) (Iterator, error) {
	if s.closed {
		return nil, ErrClosed
	}
	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case start == nil && limit == nil:
		rows, err = s.db.Query("SELECT key, value FROM kv ORDER BY key")
	case limit == nil:
		rows, err = s.db.Query("SELECT key, value FROM kv WHERE key >= ? ORDER BY key", start)
	case start == nil:
		rows, err = s.db.Query("SELECT key, value FROM kv WHERE key < ? ORDER BY key", limit)
	default:
		rows, err = s.db.Query(
			"SELECT key, value FROM kv WHERE key >= ? AND key < ? ORDER BY key", start, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite scan: %w", err)
	}
	return &sqliteIterator{rows: rows}, nil
}

func (s *sqliteEngine) Sync() error {
	if s.closed {
		return ErrClosed
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(FULL)"); err != nil {
		return fmt.Errorf("sqlite checkpoint: %w", err)
	}
	return nil
}

func (s *sqliteEngine) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sqlite close: %w", err)
	}
	return nil
}

type sqliteIterator struct {
	rows       *sql.Rows
	key, value []byte
	err        error
}

func (i *sqliteIterator) Next() bool {
	if i.err != nil {
		return false
	}
	if !i.rows.Next() {
		i.err = i.rows.Err()
		return false
	}
	if err := i.rows.Scan(&i.key, &i.value); err != nil {
		i.err = fmt.Errorf("sqlite scan row: %w", err)
		return false
	}
	return true
}

func (i *sqliteIterator) Key() []byte   { return i.key }
func (i *sqliteIterator) Value() []byte { return i.value }
func (i *sqliteIterator) Err() error    { return i.err }

func (i *sqliteIterator) Close() error {
	return i.rows.Close()
}
