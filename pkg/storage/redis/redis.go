// Package redis provides a Redis implementation of storage.RecordStore.
//
// Each record is a JSON value under "<prefix>:<kind>:<id>"; the set
// "<prefix>:<kind>:ids" indexes the IDs of a kind. Writes go straight to
// Redis, so Load and Save are no-ops.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rhuss/warden/pkg/storage"
)

// ErrUnavailable wraps transport-level Redis failures.
var ErrUnavailable = errors.New("redis unavailable")

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces all keys (default: "warden").
	Prefix string
}

// Client owns the Redis connection shared by all record stores.
type Client struct {
	rdb    goredis.UniversalClient
	prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return NewFromClient(rdb, cfg.Prefix), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(rdb goredis.UniversalClient, prefix string) *Client {
	if prefix == "" {
		prefix = "warden"
	}
	return &Client{rdb: rdb, prefix: prefix}
}

// Records returns the record store for one kind.
func (c *Client) Records(kind string) *Store {
	return &Store{client: c, kind: kind, now: time.Now}
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close closes the underlying client.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Store is a Redis-backed RecordStore for a single kind.
type Store struct {
	client *Client
	kind   string
	now    func() time.Time
}

// Ensure Store implements storage.RecordStore at compile time.
var _ storage.RecordStore = (*Store)(nil)

func (s *Store) key(id string) string {
	return s.client.prefix + ":" + s.kind + ":" + id
}

func (s *Store) indexKey() string {
	return s.client.prefix + ":" + s.kind + ":ids"
}

// Kind returns the record kind.
func (s *Store) Kind() string { return s.kind }

// Load is a no-op: every read goes to Redis.
func (s *Store) Load(_ context.Context) error { return nil }

// Save is a no-op: every write is applied immediately.
func (s *Store) Save(_ context.Context) error { return nil }

// Search fetches every indexed record and filters client-side.
func (s *Store) Search(ctx context.Context, filter storage.Filter) ([]storage.Record, error) {
	if id, ok := filter["id"]; ok {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !filter.Matches(rec) {
			return nil, nil
		}
		return []storage.Record{rec}, nil
	}

	ids, err := s.client.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.rdb.Pipeline()
	cmds := make([]*goredis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var out []storage.Record
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, goredis.Nil) {
			// Index entry outlived its record.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		rec, err := decode(data)
		if err != nil {
			return nil, err
		}
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	storage.SortByCreated(out)
	return out, nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (storage.Record, error) {
	data, err := s.client.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return storage.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decode(data)
}

// Put inserts or replaces a record and indexes its ID.
func (s *Store) Put(ctx context.Context, rec storage.Record) error {
	if rec.ID == "" {
		return storage.ErrInvalidRecord
	}

	if rec.CreatedAt.IsZero() {
		prev, err := s.Get(ctx, rec.ID)
		switch {
		case err == nil:
			rec.CreatedAt = prev.CreatedAt
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
	}
	storage.Stamp(&rec, s.now())

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	_, err = s.client.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.key(rec.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), rec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remove deletes a record and its index entry.
func (s *Store) Remove(ctx context.Context, id string) error {
	var del *goredis.IntCmd
	_, err := s.client.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if del.Val() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Count returns the number of indexed records.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.client.rdb.SCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

// Close is a no-op; the connection belongs to Client.
func (s *Store) Close() error {
	return nil
}

func decode(data []byte) (storage.Record, error) {
	var rec storage.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return storage.Record{}, fmt.Errorf("decoding record: %w", err)
	}
	return rec, nil
}
