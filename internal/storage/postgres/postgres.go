package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/FranksOps/simpleflickr/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS search_history (
		seq BIGSERIAL UNIQUE,
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS search_history_title_created ON search_history (title, created_at DESC, seq DESC)`,
}

// DISTINCT ON keeps the newest row per title; seq orders same-instant saves.
const newestPerTitle = `
SELECT id, title, created_at, seq FROM (
	SELECT DISTINCT ON (title) id, title, created_at, seq
	FROM search_history
	ORDER BY title, created_at DESC, seq DESC
) latest`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres: create schema: %w", err)
		}
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, entry *storage.SearchEntry) error {
	query := `INSERT INTO search_history (id, title, created_at) VALUES ($1, $2, $3)`

	if _, err := b.pool.Exec(ctx, query, entry.ID, entry.Title, entry.CreatedAt); err != nil {
		return fmt.Errorf("postgres: save entry: %w", err)
	}

	return nil
}

func (b *postgresBackend) List(ctx context.Context, filter storage.Filter) ([]*storage.SearchEntry, error) {
	query := newestPerTitle + ` WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC, seq DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list entries: %w", err)
	}
	defer rows.Close()

	results := []*storage.SearchEntry{}
	for rows.Next() {
		var e storage.SearchEntry
		var seq int64
		if err := rows.Scan(&e.ID, &e.Title, &e.CreatedAt, &seq); err != nil {
			return nil, fmt.Errorf("postgres: scan entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		results = append(results, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list entries: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) MostRecent(ctx context.Context) (*storage.SearchEntry, error) {
	var e storage.SearchEntry
	err := b.pool.QueryRow(ctx,
		`SELECT id, title, created_at FROM search_history ORDER BY created_at DESC, seq DESC LIMIT 1`,
	).Scan(&e.ID, &e.Title, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: most recent entry: %w", err)
	}
	if e.Title == "" {
		return nil, nil
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func (b *postgresBackend) Clear(ctx context.Context) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM search_history`); err != nil {
		return fmt.Errorf("postgres: clear history: %w", err)
	}
	return nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
