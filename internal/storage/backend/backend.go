// Package backend opens the storage.KV selected in the config.
package backend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/PackageTracker/config"
	"github.com/BearBump/PackageTracker/internal/cache/rediscache"
	"github.com/BearBump/PackageTracker/internal/storage"
	"github.com/BearBump/PackageTracker/internal/storage/filekv"
	"github.com/BearBump/PackageTracker/internal/storage/memkv"
	"github.com/BearBump/PackageTracker/internal/storage/pgkv"
	"github.com/pkg/errors"
)

const (
	File     = "file"
	Memory   = "memory"
	Redis    = "redis"
	Postgres = "postgres"

	DefaultFileDir = "./data"
)

// PostgresWait bounds how long Open waits for the database to accept connections.
var PostgresWait = 60 * time.Second

// Open returns the configured KV and a func releasing its resources.
// An empty backend means "file".
func Open(ctx context.Context, cfg *config.Config) (storage.KV, func(), error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	switch backend {
	case "", File:
		dir := cfg.Storage.FileDir
		if dir == "" {
			dir = DefaultFileDir
		}
		st, err := filekv.New(dir)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	case Memory:
		return memkv.New(), func() {}, nil
	case Redis:
		st := rediscache.New(cfg.Redis.Addr(), cfg.Redis.KeyPrefix)
		if err := st.Ping(ctx); err != nil {
			_ = st.Close()
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case Postgres:
		st, err := openPostgresWithRetry(ctx, cfg.Database.ConnString(), PostgresWait)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func openPostgresWithRetry(ctx context.Context, connString string, wait time.Duration) (*pgkv.Storage, error) {
	deadline := time.Now().Add(wait)
	var lastErr error
	for {
		st, err := pgkv.New(ctx, connString)
		if err == nil {
			return st, nil
		}
		lastErr = err
		if !time.Now().Before(deadline) {
			break
		}
		slog.Warn("postgres is not ready, retrying", "error", err.Error())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil, errors.Wrapf(lastErr, "postgres is not ready after %s", wait)
}
