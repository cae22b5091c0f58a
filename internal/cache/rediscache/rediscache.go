package rediscache

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Store is a storage.KV on top of Redis strings. Slots never expire.
type Store struct {
	c      *redis.Client
	prefix string
}

func New(addr, prefix string) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr: addr,
	}), prefix)
}

func NewWithClient(c *redis.Client, prefix string) *Store {
	return &Store{c: c, prefix: prefix}
}

func (r *Store) Client() *redis.Client { return r.c }

func (r *Store) key(k string) string {
	return r.prefix + k
}

func (r *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.c.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

func (r *Store) Write(ctx context.Context, key string, value []byte) error {
	if err := r.c.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (r *Store) Delete(ctx context.Context, key string) error {
	if err := r.c.Del(ctx, r.key(key)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func (r *Store) Ping(ctx context.Context) error {
	return errors.Wrap(r.c.Ping(ctx).Err(), "redis ping")
}

func (r *Store) Close() error {
	return r.c.Close()
}
