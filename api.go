package bqcache

import (
	"context"

	c "github.com/unkn0wn-root/bqcache/codec"
	st "github.com/unkn0wn-root/bqcache/store"
)

// Pool is the item-pool cache API. Items carry an optional absolute
// expiration; the pool converts it to the relative lifetime the backing
// store expects on save.
//
// Storage-layer failures on the boolean-returning operations (Clear, Save,
// Commit, the delete family) are absorbed into a false result rather than
// surfaced as errors. The only errors a Pool returns are invalid-key errors,
// raised before the backing store is touched.
type Pool[V any] interface {
	// GetItem returns the item for key: a copy of the deferred entry when one
	// is buffered, a hit read from the backing store otherwise, or a miss
	// item (IsHit false, zero value) when the key is unknown.
	GetItem(ctx context.Context, key string) (*Item[V], error)

	// GetItems maps each requested key to its GetItem result. All keys are
	// validated; the first invalid key aborts the whole call.
	GetItems(ctx context.Context, keys []string) (map[string]*Item[V], error)

	// HasItem reports whether key resolves to a live entry. A buffered
	// deferred entry answers without consulting the store.
	HasItem(ctx context.Context, key string) (bool, error)

	// Clear drops the deferred buffer and flushes the entire backing store.
	Clear(ctx context.Context) bool

	// DeleteItem removes key from the deferred buffer and the store.
	DeleteItem(ctx context.Context, key string) (bool, error)

	// DeleteItems validates every key before deleting any, then deletes each
	// in turn. The result is the logical AND of the individual deletions.
	DeleteItems(ctx context.Context, keys []string) (bool, error)

	// Save writes the item to the backing store immediately. An item whose
	// expiration is already in the past is forgotten instead, and Save
	// returns false.
	Save(ctx context.Context, it *Item[V]) bool

	// SaveDeferred buffers a copy of the item for a later Commit. Returns
	// false without buffering when the item is already expired.
	SaveDeferred(it *Item[V]) bool

	// Commit saves every buffered entry and clears the buffer
	// unconditionally, even when some saves fail.
	Commit(ctx context.Context) bool

	// Close commits outstanding deferred entries best-effort (failures are
	// swallowed) and releases the backing store.
	Close(ctx context.Context) error
}

// Options tune the pool. Store and Codec are required.
type Options[V any] struct {
	Store st.Store
	Codec c.Codec[V]

	Logger Logger // if nil, NopLogger is used
}

func New[V any](opts Options[V]) (Pool[V], error) {
	return newPool[V](opts)
}
