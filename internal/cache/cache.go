package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching embedding vectors.
// Sliding-window claims overlap heavily, so the same text gets embedded
// repeatedly during one run; the cache turns repeats into lookups.
type Cache interface {
	Get(key string) ([]float32, bool)
	Set(key string, value []float32, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from arbitrary text
func Key(text string) string {
	hash := sha256.Sum256([]byte(text))
	return "veridraft:v1:" + hex.EncodeToString(hash[:])
}
