package store

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	v   []byte
	exp time.Time // zero => no expiry
}

// Local keeps entries in-process behind a mutex, with lazy expiry on read
// and an optional sweep loop pruning expired entries in the background.
// Suitable for single-process use and as the default auth-token store.
type Local struct {
	mu sync.RWMutex
	m  map[string]localEntry

	unit Unit

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ Store = (*Local)(nil)

type LocalOptions struct {
	// SweepInterval enables the background prune loop when > 0.
	SweepInterval time.Duration
	// Unit declares the lifetime convention this store advertises. Defaults
	// to Seconds; Minutes exists for exercising legacy-store behavior.
	Unit Unit
}

func NewLocal(opts LocalOptions) *Local {
	s := &Local{
		m:    make(map[string]localEntry),
		unit: opts.Unit,
	}
	if opts.SweepInterval > 0 {
		s.ticker = time.NewTicker(opts.SweepInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.sweep()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Local) Has(_ context.Context, key string) (bool, error) {
	_, ok := s.live(key)
	return ok, nil
}

func (s *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.live(key)
	if !ok {
		return nil, false, nil
	}
	return e.v, true, nil
}

func (s *Local) Put(_ context.Context, key string, value []byte, lifetime time.Duration) (bool, error) {
	var exp time.Time
	if lifetime > 0 {
		exp = time.Now().Add(lifetime)
	}
	s.mu.Lock()
	s.m[key] = localEntry{v: value, exp: exp}
	s.mu.Unlock()
	return true, nil
}

func (s *Local) Forever(ctx context.Context, key string, value []byte) (bool, error) {
	return s.Put(ctx, key, value, 0)
}

func (s *Local) Forget(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return true, nil
}

func (s *Local) Flush(_ context.Context) error {
	s.mu.Lock()
	s.m = make(map[string]localEntry)
	s.mu.Unlock()
	return nil
}

func (s *Local) Unit() Unit { return s.unit }

func (s *Local) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.wg.Wait()
			s.ticker.Stop()
		}
	})
	return nil
}

// live fetches key and lazily drops it when expired.
func (s *Local) live(key string) (localEntry, bool) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return localEntry{}, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		s.mu.Lock()
		// recheck under the write lock; another goroutine may have replaced it
		if cur, still := s.m[key]; still && cur.exp.Equal(e.exp) {
			delete(s.m, key)
		}
		s.mu.Unlock()
		return localEntry{}, false
	}
	return e, true
}

func (s *Local) sweep() {
	now := time.Now()
	s.mu.Lock()
	for k, e := range s.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(s.m, k)
		}
	}
	s.mu.Unlock()
}
