package bqcache

import (
	"math"
	"time"

	st "github.com/unkn0wn-root/bqcache/store"
)

// Lifetime converts an absolute expiration into the relative lifetime a
// backing store expects, expressed in that store's declared unit.
//
// Seconds-unit stores get the exact remaining duration. Minutes-unit stores
// (the legacy convention) get whole minutes, floored toward negative
// infinity, so 90s becomes 1m and -30s becomes -1m.
//
// Negative results are returned unclamped; callers treat non-positive
// lifetimes as already expired.
func Lifetime(expiresAt, now time.Time, u st.Unit) time.Duration {
	d := expiresAt.Sub(now)
	if u == st.Minutes {
		mins := math.Floor(d.Seconds() / 60)
		return time.Duration(mins) * time.Minute
	}
	return d
}
