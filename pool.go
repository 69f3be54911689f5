package bqcache

import (
	"context"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/bqcache/codec"
	st "github.com/unkn0wn-root/bqcache/store"
)

type pool[V any] struct {
	store st.Store
	codec c.Codec[V]
	log   Logger

	// deferred holds entries buffered by SaveDeferred until Commit or Close.
	// Last write for a key wins. Reads prefer this buffer over the store.
	deferred map[string]*Item[V]
}

func newPool[V any](opts Options[V]) (*pool[V], error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("bqcache: store is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("bqcache: codec is required")
	}

	p := &pool[V]{
		store:    opts.Store,
		codec:    opts.Codec,
		deferred: make(map[string]*Item[V]),
	}
	p.log = coalesce[Logger](opts.Logger, NopLogger{})
	return p, nil
}

func (p *pool[V]) GetItem(ctx context.Context, key string) (*Item[V], error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if it, ok := p.deferred[key]; ok {
		return it.clone(), nil
	}
	ok, err := p.store.Has(ctx, key)
	if err != nil || !ok {
		if err != nil {
			p.log.Warn("store existence check failed; treating as miss", Fields{"key": key, "err": err})
		}
		return missItem[V](key), nil
	}
	raw, ok, err := p.store.Get(ctx, key)
	if err != nil || !ok {
		if err != nil {
			p.log.Warn("store read failed; treating as miss", Fields{"key": key, "err": err})
		}
		return missItem[V](key), nil
	}
	v, err := p.codec.Decode(raw)
	if err != nil {
		// self-heal undecodable payloads
		_, _ = p.store.Forget(ctx, key)
		p.log.Warn("dropped undecodable entry", Fields{"key": key, "err": err})
		return missItem[V](key), nil
	}
	return hitItem(key, v), nil
}

func (p *pool[V]) GetItems(ctx context.Context, keys []string) (map[string]*Item[V], error) {
	// validate the whole batch before the first read
	for _, k := range keys {
		if err := validateKey(k); err != nil {
			return nil, err
		}
	}
	out := make(map[string]*Item[V], len(keys))
	for _, k := range keys {
		it, err := p.GetItem(ctx, k)
		if err != nil {
			return nil, err
		}
		out[k] = it
	}
	return out, nil
}

func (p *pool[V]) HasItem(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if it, ok := p.deferred[key]; ok {
		return !it.expiredAt(time.Now()), nil
	}
	ok, err := p.store.Has(ctx, key)
	if err != nil {
		p.log.Warn("store existence check failed", Fields{"key": key, "err": err})
		return false, nil
	}
	return ok, nil
}

// Clear drops all deferred entries and flushes the whole backing store, not
// only keys this pool wrote.
func (p *pool[V]) Clear(ctx context.Context) bool {
	p.deferred = make(map[string]*Item[V])
	if err := p.store.Flush(ctx); err != nil {
		p.log.Warn("store flush failed", Fields{"err": err})
		return false
	}
	return true
}

func (p *pool[V]) DeleteItem(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	delete(p.deferred, key)
	present, err := p.HasItem(ctx, key)
	if err != nil {
		return false, err
	}
	if !present {
		return true, nil
	}
	ok, err := p.store.Forget(ctx, key)
	if err != nil {
		p.log.Warn("store forget failed", Fields{"key": key, "err": err})
		return false, nil
	}
	return ok, nil
}

func (p *pool[V]) DeleteItems(ctx context.Context, keys []string) (bool, error) {
	// validate everything before mutating anything
	for _, k := range keys {
		if err := validateKey(k); err != nil {
			return false, err
		}
	}
	all := true
	for _, k := range keys {
		ok, err := p.DeleteItem(ctx, k)
		if err != nil {
			return false, err
		}
		if !ok {
			all = false
		}
	}
	return all, nil
}

func (p *pool[V]) Save(ctx context.Context, it *Item[V]) bool {
	exp, hasExp := it.Expiration()

	var lifetime time.Duration
	if hasExp {
		lifetime = Lifetime(exp, time.Now(), p.store.Unit())
		if lifetime <= 0 {
			// already expired: make sure no stale value survives
			_, _ = p.store.Forget(ctx, it.Key())
			return false
		}
	}

	raw, err := p.codec.Encode(it.Value())
	if err != nil {
		p.log.Warn("encode failed", Fields{"key": it.Key(), "err": err})
		return false
	}

	if !hasExp {
		ok, err := p.store.Forever(ctx, it.Key(), raw)
		if err != nil {
			p.log.Warn("store forever write failed", Fields{"key": it.Key(), "err": err})
			return false
		}
		return ok
	}

	ok, err := p.store.Put(ctx, it.Key(), raw, lifetime)
	if err != nil {
		p.log.Warn("store timed write failed", Fields{"key": it.Key(), "err": err})
		return false
	}
	return ok
}

func (p *pool[V]) SaveDeferred(it *Item[V]) bool {
	if it.expiredAt(time.Now()) {
		return false
	}
	cp := it.clone()
	cp.hit = true
	p.deferred[it.Key()] = cp
	return true
}

func (p *pool[V]) Commit(ctx context.Context) bool {
	all := true
	for _, it := range p.deferred {
		if !p.Save(ctx, it) {
			p.log.Debug("deferred save failed", Fields{"key": it.Key()})
			all = false
		}
	}
	// cleared even when some saves failed
	p.deferred = make(map[string]*Item[V])
	return all
}

// Close flushes outstanding deferred writes and swallows any resulting
// failures, then releases the backing store. Owners must call it; there is
// no finalizer.
func (p *pool[V]) Close(ctx context.Context) error {
	if len(p.deferred) > 0 {
		_ = p.Commit(ctx)
	}
	return p.store.Close(ctx)
}
