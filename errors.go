package bqcache

import "fmt"

// reservedKeyChars are rejected in keys by every key-accepting operation.
const reservedKeyChars = `{}()/\@:`

// InvalidKeyError reports a key containing one of the reserved characters.
type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("bqcache: invalid key %q: must not contain any of %q", e.Key, reservedKeyChars)
}
