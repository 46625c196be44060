// Package cache memoizes per-sentence verdicts for the checking service so
// a sentence answered once is never sent back to the model. Keys are
// derived from normalized sentence text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for verdict caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// SentenceKey generates a cache key from a sentence. The sentence is
// normalized (trimmed, lowercased) first so hits follow the same
// case-insensitive join rule the session cache uses.
func SentenceKey(sentence string) string {
	normalized := strings.ToLower(strings.TrimSpace(sentence))
	hash := sha256.Sum256([]byte(normalized))
	return "veracity:v1:" + hex.EncodeToString(hash[:])
}
