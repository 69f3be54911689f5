package warehouse

import (
	"context"
	"time"

	"github.com/unkn0wn-root/bqcache"
)

// Token is the OAuth material the client's auth layer persists between runs.
type Token struct {
	AccessToken  string    `json:"access_token" msgpack:"access_token"`
	TokenType    string    `json:"token_type" msgpack:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty" msgpack:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry" msgpack:"expiry"`
}

// TokenCache persists auth tokens through the item pool so restarts and
// sibling clients reuse a still-valid token instead of re-authenticating.
// Tokens expire from the cache exactly when the token itself expires.
type TokenCache struct {
	pool bqcache.Pool[Token]
	key  string
}

func NewTokenCache(pool bqcache.Pool[Token], key string) (*TokenCache, error) {
	// surface bad keys at construction, not on first use
	if _, err := bqcache.NewItem(key, Token{}); err != nil {
		return nil, err
	}
	return &TokenCache{pool: pool, key: key}, nil
}

// Lookup returns the cached token, if a live one exists.
func (c *TokenCache) Lookup(ctx context.Context) (Token, bool) {
	it, err := c.pool.GetItem(ctx, c.key)
	if err != nil || !it.IsHit() {
		return Token{}, false
	}
	return it.Value(), true
}

// Store caches tok until its expiry; tokens without an expiry are kept
// forever. Returns false when the write did not take effect.
func (c *TokenCache) Store(ctx context.Context, tok Token) bool {
	it, err := bqcache.NewItem(c.key, tok)
	if err != nil {
		return false
	}
	it.ExpiresAt(tok.Expiry)
	return c.pool.Save(ctx, it)
}

// Forget drops the cached token.
func (c *TokenCache) Forget(ctx context.Context) bool {
	ok, err := c.pool.DeleteItem(ctx, c.key)
	return err == nil && ok
}
