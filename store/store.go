// Package store defines the backing key-value abstraction the item pool
// writes through, plus a local in-process implementation.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte previously passed to Put or Forever for a key (no
// prepended/appended metadata, no re-encoding, no mutation).
//
// Lifetimes are relative durations. Each store declares the unit its write
// primitive natively understands via Unit(): historically some store
// generations took minutes where newer ones take seconds. The pool quantizes
// lifetimes to whole minutes for Minutes-unit stores before calling Put, so
// implementations never need to convert units themselves.
package store

import (
	"context"
	"time"
)

// Unit is the lifetime convention a store's timed write expects.
type Unit int

const (
	// Seconds is the current convention: Put lifetimes carry full precision.
	Seconds Unit = iota
	// Minutes is the legacy convention: Put lifetimes arrive as whole
	// minutes, floored toward negative infinity.
	Minutes
)

func (u Unit) String() string {
	if u == Minutes {
		return "minutes"
	}
	return "seconds"
}

// Store is a minimal byte store with relative lifetimes. Must be safe for
// concurrent use.
type Store interface {
	// Has reports whether key holds a live (non-expired) value.
	Has(ctx context.Context, key string) (bool, error)

	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value for the given lifetime. Returns ok=false when the
	// store rejected the write under pressure. Non-positive lifetimes are
	// treated as "no expiry"; the pool filters expired writes before Put.
	Put(ctx context.Context, key string, value []byte, lifetime time.Duration) (bool, error)

	// Forever stores value without expiry.
	Forever(ctx context.Context, key string, value []byte) (bool, error)

	// Forget removes a key, reporting whether the removal took effect.
	Forget(ctx context.Context, key string) (bool, error)

	// Flush removes every key in the store.
	Flush(ctx context.Context) error

	// Unit declares the lifetime convention of this store's Put.
	Unit() Unit

	// Close releases resources.
	Close(ctx context.Context) error
}
