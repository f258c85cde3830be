// Package postgres provides a PostgreSQL implementation of storage.RecordStore.
// It uses pgx/v5 for connection pooling and a single JSONB-backed records
// table shared by all record kinds. Writes go straight to the database, so
// Load and Save are no-ops.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/warden/pkg/storage"
)

// DB owns the connection pool shared by all record stores.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a connection pool with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*DB, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &DB{pool: pool}

	if cfg.MigrateOnStart {
		if err := db.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return db, nil
}

// Records returns the record store for one kind.
func (db *DB) Records(kind string) *Store {
	return &Store{db: db, kind: kind, now: time.Now}
}

// HealthCheck verifies the database connection.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close releases the connection pool.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

// Store is a PostgreSQL-backed RecordStore for a single kind.
type Store struct {
	db   *DB
	kind string
	now  func() time.Time
}

// Ensure Store implements storage.RecordStore at compile time.
var _ storage.RecordStore = (*Store)(nil)

// Kind returns the record kind.
func (s *Store) Kind() string { return s.kind }

// Load is a no-op: every read queries the database.
func (s *Store) Load(_ context.Context) error { return nil }

// Save is a no-op: every write is committed immediately.
func (s *Store) Save(_ context.Context) error { return nil }

// Search returns matching records using JSONB containment, oldest first.
func (s *Store) Search(ctx context.Context, filter storage.Filter) ([]storage.Record, error) {
	fields := maps.Clone(filter)
	if fields == nil {
		fields = storage.Filter{}
	}
	id, byID := fields["id"]
	delete(fields, "id")

	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshaling filter: %w", err)
	}

	query := `
		SELECT id, fields, created_at, updated_at
		FROM records
		WHERE kind = $1 AND fields @> $2::jsonb
	`
	args := []any{s.kind, fieldsJSON}
	if byID {
		query += " AND id = $3"
		args = append(args, id)
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (storage.Record, error) {
	row := s.db.pool.QueryRow(ctx, `
		SELECT id, fields, created_at, updated_at
		FROM records
		WHERE kind = $1 AND id = $2
	`, s.kind, id)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Record{}, err
	}
	return rec, nil
}

// Put upserts a record. An existing record keeps its created_at.
func (s *Store) Put(ctx context.Context, rec storage.Record) error {
	if rec.ID == "" {
		return storage.ErrInvalidRecord
	}
	storage.Stamp(&rec, s.now())

	fields := rec.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}

	_, err = s.db.pool.Exec(ctx, `
		INSERT INTO records (kind, id, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (kind, id) DO UPDATE
		SET fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at
	`, s.kind, rec.ID, fieldsJSON, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	return nil
}

// Remove deletes a record.
func (s *Store) Remove(ctx context.Context, id string) error {
	result, err := s.db.pool.Exec(ctx,
		"DELETE FROM records WHERE kind = $1 AND id = $2", s.kind, id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Count returns the number of records of this kind.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.pool.QueryRow(ctx,
		"SELECT count(*) FROM records WHERE kind = $1", s.kind,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Close is a no-op; the pool belongs to DB.
func (s *Store) Close() error {
	return nil
}

func scanRecord(row pgx.Row) (storage.Record, error) {
	var rec storage.Record
	var fieldsJSON []byte

	if err := row.Scan(&rec.ID, &fieldsJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scanning record: %w", err)
	}
	if err := json.Unmarshal(fieldsJSON, &rec.Fields); err != nil {
		return rec, fmt.Errorf("unmarshaling fields: %w", err)
	}
	return rec, nil
}
