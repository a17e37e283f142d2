// Package playercache caches downloaded player JS bodies keyed by player
// URL. Player bundles are large and change rarely, so both an in-process
// TTL cache and an optional file-backed cache are provided.
package playercache

import "time"

// Entry is one cached player JS body.
type Entry struct {
	Body      string    `json:"body"`
	FetchedAt time.Time `json:"fetchedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Cache stores player JS bodies keyed by player URL.
type Cache interface {
	Get(key string) (Entry, bool)
	Set(key string, value Entry)
}

// DefaultTTL is how long a cached player body stays valid.
const DefaultTTL = 10 * time.Minute

// WithTTL stamps an entry with FetchedAt now and the given lifetime.
func WithTTL(body string, ttl time.Duration) Entry {
	now := time.Now()
	return Entry{Body: body, FetchedAt: now, ExpiresAt: now.Add(ttl)}
}
