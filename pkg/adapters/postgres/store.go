// Package postgres stores sheets in a PostgreSQL table through database/sql
// and the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/introspection"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/aretw0/sticky/pkg/core"
)

// DefaultTable holds one row per sheet.
const DefaultTable = "sticky_sheets"

// Store implements core.Store on a single table.
type Store struct {
	db    *sql.DB
	table string
}

// Open connects to databaseURL, verifies the connection and creates the
// table if needed.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := NewStoreWithDB(db, DefaultTable)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStoreWithDB wraps an existing handle. The table name is trusted.
func NewStoreWithDB(db *sql.DB, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{db: db, table: table}
}

// Migrate creates the sheets table.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table))
	if err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	return nil
}

// Get returns the sheet stored under id.
func (s *Store) Get(ctx context.Context, id string) (core.Record, bool, error) {
	if err := core.ValidateID(id); err != nil {
		return core.Record{}, false, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data::text FROM %s WHERE id = $1`, s.table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, false, nil
	}
	if err != nil {
		return core.Record{}, false, fmt.Errorf("get sheet %s: %w", id, err)
	}
	return core.Record{ID: id, Data: data}, true, nil
}

// Put upserts the record.
func (s *Store) Put(ctx context.Context, rec core.Record) error {
	if err := core.ValidateID(rec.ID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`, s.table),
		rec.ID, string(rec.Data),
	)
	if err != nil {
		return fmt.Errorf("put sheet %s: %w", rec.ID, err)
	}
	return nil
}

// Clear deletes every row.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return fmt.Errorf("clear sheets: %w", err)
	}
	return nil
}

// Keys lists sheet ids in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan sheet id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	return ids, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Table     string `json:"table"`
	OpenConns int    `json:"open_conns"`
	InUse     int    `json:"in_use"`
	WaitCount int64  `json:"wait_count"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	stats := s.db.Stats()
	return StoreState{
		Table:     s.table,
		OpenConns: stats.OpenConnections,
		InUse:     stats.InUse,
		WaitCount: stats.WaitCount,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "postgres-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ core.Lister                  = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
