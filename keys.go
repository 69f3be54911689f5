package bqcache

import "strings"

// validateKey rejects empty keys and keys containing reserved characters.
// Runs before any backing-store access.
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, reservedKeyChars) {
		return &InvalidKeyError{Key: key}
	}
	return nil
}
