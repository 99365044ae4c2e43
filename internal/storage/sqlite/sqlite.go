package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/FranksOps/simpleflickr/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

// created_at holds unix nanoseconds so ordering never depends on text formats.
const schema = `
CREATE TABLE IF NOT EXISTS search_history (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS search_history_title_created ON search_history (title, created_at);
`

// Rows shadowed by a newer row with the same title are excluded. rowid breaks
// ties between entries saved within the same nanosecond.
const newestPerTitle = `
SELECT h.id, h.title, h.created_at FROM search_history h
WHERE NOT EXISTS (
	SELECT 1 FROM search_history n
	WHERE n.title = h.title
	AND (n.created_at > h.created_at OR (n.created_at = h.created_at AND n.rowid > h.rowid))
)`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, entry *storage.SearchEntry) error {
	query := `INSERT INTO search_history (id, title, created_at) VALUES (?, ?, ?)`

	_, err := b.db.ExecContext(ctx, query, entry.ID, entry.Title, entry.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite: save entry: %w", err)
	}

	return nil
}

func (b *sqliteBackend) List(ctx context.Context, filter storage.Filter) ([]*storage.SearchEntry, error) {
	query := newestPerTitle
	args := []any{}

	if filter.Since != nil {
		query += ` AND h.created_at >= ?`
		args = append(args, filter.Since.UnixNano())
	}

	query += ` ORDER BY h.created_at DESC, h.rowid DESC`

	// SQLite requires a LIMIT clause before OFFSET; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list entries: %w", err)
	}
	defer rows.Close()

	results := []*storage.SearchEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list entries: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) MostRecent(ctx context.Context) (*storage.SearchEntry, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM search_history ORDER BY created_at DESC, rowid DESC LIMIT 1`)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if e.Title == "" {
		return nil, nil
	}
	return e, nil
}

func (b *sqliteBackend) Clear(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM search_history`); err != nil {
		return fmt.Errorf("sqlite: clear history: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*storage.SearchEntry, error) {
	var e storage.SearchEntry
	var createdAt int64
	if err := s.Scan(&e.ID, &e.Title, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scan entry: %w", err)
	}
	e.CreatedAt = time.Unix(0, createdAt).UTC()
	return &e, nil
}
