// Package cache maps versioned content fingerprints to previously computed
// analysis payloads. It is strictly an optimization layer: every operation
// is fail-open, and the pipeline must stay correct with the cache disabled.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"newssum/config"
)

// Store is the result-cache contract. Implementations own their concurrency
// safety; callers never take locks. Errors are absorbed by implementations
// and surface only as misses.
type Store interface {
	// Get returns the cached payload. An entry past its expiry is a miss
	// even if the backend has not pruned it yet.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set upserts the payload with the given TTL, last-write-wins.
	// Oversized payloads are silently not cached.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)

	// Delete evicts an entry, used when a cached payload turns out to be
	// unparseable at read time.
	Delete(ctx context.Context, key string)

	// Prune best-effort deletes up to limit expired entries. It must never
	// block concurrent Get/Set calls for unrelated keys.
	Prune(ctx context.Context, limit int) int
}

// Key derives the cache key from the schema version, the content identity
// seed (fingerprint or normalized URL), the language, and every model
// version involved. Changing any model version silently invalidates old
// entries; no purge is ever needed.
func Key(seed, lang, sumVersion, sentVersion, transVersion string) string {
	blob := strings.Join([]string{
		config.SchemaVersion, seed, lang, sumVersion, sentVersion, transVersion,
	}, "|")
	sum := sha256.Sum256([]byte(blob))
	return "an:" + hex.EncodeToString(sum[:])
}

func tooLarge(payload []byte) bool {
	return len(payload) > config.MaxCachePayloadBytes
}
