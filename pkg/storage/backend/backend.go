// Package backend opens the record-store backing selected by configuration
// and hands out one storage.RecordStore per record kind.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rhuss/warden/pkg/config"
	"github.com/rhuss/warden/pkg/storage"
	"github.com/rhuss/warden/pkg/storage/file"
	"github.com/rhuss/warden/pkg/storage/memory"
	"github.com/rhuss/warden/pkg/storage/postgres"
	"github.com/rhuss/warden/pkg/storage/redis"
)

// Backend is an opened record-store backing.
type Backend struct {
	cfg config.StorageConfig

	pg  *postgres.DB
	rdb *redis.Client

	mu     sync.Mutex
	stores map[string]storage.RecordStore
}

// Open connects to the configured backing. File and memory backings open
// lazily per kind; postgres and redis connect here.
func Open(ctx context.Context, cfg config.StorageConfig) (*Backend, error) {
	b := &Backend{cfg: cfg, stores: make(map[string]storage.RecordStore)}

	switch cfg.Type {
	case "file", "memory":
	case "postgres":
		db, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		b.pg = db
	case "redis":
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("opening redis: %w", err)
		}
		b.rdb = rdb
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	slog.Info("storage ready", "type", cfg.Type)
	return b, nil
}

// Type returns the backing type.
func (b *Backend) Type() string { return b.cfg.Type }

// Records returns the store for kind, creating it on first use.
func (b *Backend) Records(ctx context.Context, kind string) (storage.RecordStore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.stores[kind]; ok {
		return s, nil
	}

	var (
		s   storage.RecordStore
		err error
	)
	switch {
	case b.pg != nil:
		s = b.pg.Records(kind)
	case b.rdb != nil:
		s = b.rdb.Records(kind)
	case b.cfg.Type == "file":
		s, err = file.New(ctx, b.cfg.Dir, kind)
	default:
		s = memory.New(kind)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s records: %w", kind, err)
	}

	b.stores[kind] = s
	return s, nil
}

// HealthCheck pings networked backings. File and memory are always healthy.
func (b *Backend) HealthCheck(ctx context.Context) error {
	switch {
	case b.pg != nil:
		return b.pg.HealthCheck(ctx)
	case b.rdb != nil:
		return b.rdb.HealthCheck(ctx)
	default:
		return nil
	}
}

// Close releases every store and the underlying connection.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.stores {
		s.Close()
	}
	b.stores = nil

	switch {
	case b.pg != nil:
		return b.pg.Close()
	case b.rdb != nil:
		return b.rdb.Close()
	}
	return nil
}
