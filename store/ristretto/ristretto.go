// Package ristretto backs the item pool with an in-process Ristretto cache.
// Writes may be rejected under admission pressure; Put reports that through
// its ok result.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	st "github.com/unkn0wn-root/bqcache/store"
)

type Store struct {
	c *rc.Cache
}

var _ st.Store = (*Store)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto store: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte, lifetime time.Duration) (bool, error) {
	if lifetime <= 0 {
		lifetime = 0
	}
	ok := s.c.SetWithTTL(key, value, int64(len(value)), lifetime)
	if ok {
		// make the write visible to immediate readers
		s.c.Wait()
	}
	return ok, nil
}

func (s *Store) Forever(ctx context.Context, key string, value []byte) (bool, error) {
	return s.Put(ctx, key, value, 0)
}

func (s *Store) Forget(_ context.Context, key string) (bool, error) {
	s.c.Del(key)
	return true, nil
}

func (s *Store) Flush(_ context.Context) error {
	s.c.Clear()
	return nil
}

func (s *Store) Unit() st.Unit { return st.Seconds }

func (s *Store) Close(_ context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes the underlying cache metrics (not part of store.Store).
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }
