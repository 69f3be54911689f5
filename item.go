package bqcache

import "time"

// Item is one cache entry: an immutable key, a mutable value, a hit flag set
// only by pool reads, and an optional absolute expiration. Mutators return
// the receiver so calls chain.
type Item[V any] struct {
	key     string
	value   V
	hit     bool
	expires *time.Time
}

// NewItem builds a fresh (non-hit) item for key. The key is validated
// against the reserved character set.
func NewItem[V any](key string, value V) (*Item[V], error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return &Item[V]{key: key, value: value}, nil
}

func missItem[V any](key string) *Item[V] {
	return &Item[V]{key: key}
}

func hitItem[V any](key string, value V) *Item[V] {
	return &Item[V]{key: key, value: value, hit: true}
}

func (it *Item[V]) Key() string { return it.key }

func (it *Item[V]) Value() V { return it.value }

// IsHit reports whether the item came from a successful lookup (backing
// store or deferred buffer). Items built by NewItem or returned for unknown
// keys are not hits.
func (it *Item[V]) IsHit() bool { return it.hit }

func (it *Item[V]) Set(v V) *Item[V] {
	it.value = v
	return it
}

// ExpiresAt pins the expiration to an absolute time. The zero time clears
// the expiration, making the item non-expiring.
func (it *Item[V]) ExpiresAt(t time.Time) *Item[V] {
	if t.IsZero() {
		it.expires = nil
		return it
	}
	tt := t
	it.expires = &tt
	return it
}

// ExpiresAfter sets the expiration d from now.
func (it *Item[V]) ExpiresAfter(d time.Duration) *Item[V] {
	return it.ExpiresAt(time.Now().Add(d))
}

// Expiration returns the absolute expiration and whether one is set.
func (it *Item[V]) Expiration() (time.Time, bool) {
	if it.expires == nil {
		return time.Time{}, false
	}
	return *it.expires, true
}

func (it *Item[V]) expiredAt(now time.Time) bool {
	return it.expires != nil && it.expires.Before(now)
}

// clone copies the item so buffered entries cannot be mutated through
// handed-out references.
func (it *Item[V]) clone() *Item[V] {
	cp := *it
	if it.expires != nil {
		t := *it.expires
		cp.expires = &t
	}
	return &cp
}
