// Package redis backs the item pool with a Redis server. Lifetimes map to
// per-key TTLs; Flush issues FLUSHDB, so the configured database should be
// dedicated to this cache.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	st "github.com/unkn0wn-root/bqcache/store"
)

var ErrNilClient = errors.New("redis store: nil client")

type Store struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ st.Store = (*Store)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Store{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte, lifetime time.Duration) (bool, error) {
	if lifetime <= 0 {
		lifetime = 0 // non-positive lifetimes mean "no expiry" per the store contract
	}
	if err := s.rdb.Set(ctx, key, value, lifetime).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Forever(ctx context.Context, key string, value []byte) (bool, error) {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Forget(ctx context.Context, key string) (bool, error) {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Flush(ctx context.Context) error {
	return s.rdb.FlushDB(ctx).Err()
}

func (s *Store) Unit() st.Unit { return st.Seconds }

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
