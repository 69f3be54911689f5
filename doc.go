// Package bqcache bridges two cache worlds for a warehouse client: an
// item-pool abstraction keyed by string with expiration-timestamp semantics
// and deferred writes, and a simpler backing key-value store with
// relative-lifetime semantics. Its main consumer is the OAuth token cache
// inside a cloud data-warehouse client; the warehouse subpackage wraps the
// client's query and load operations with bounded retry and backoff polling.
//
// Components:
//   - store.Store: byte store with relative lifetimes (Local, Redis,
//     Ristretto, BigCache). Each store declares its lifetime unit.
//   - codec.Codec[V]: (de)serializes V <-> []byte.
//   - Pool[V]: the item pool. Reads prefer the in-memory deferred buffer;
//     Commit drains it; Close drains it best-effort.
//
// Write pattern:
//
//	it, _ := pool.GetItem(ctx, "token")
//	if !it.IsHit() {
//	    it.Set(tok).ExpiresAt(tok.Expiry)
//	    pool.SaveDeferred(it)
//	}
//	pool.Commit(ctx)
//
// A Pool instance is not safe for concurrent use; callers that share one
// across goroutines must synchronize externally. Stores are safe for
// concurrent use on their own.
package bqcache
