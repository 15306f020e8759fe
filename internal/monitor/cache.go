// Package monitor watches the live message field, classifies risky drafts,
// and runs the single-flight intervention that erases them.
package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DebounceCache remembers when each draft was last classified so identical
// content is not re-judged every tick. Keys are full-content hashes, so two
// different drafts never share an entry. LRU-bounded for long sessions.
type DebounceCache struct {
	inner *lru.Cache[string, time.Time]
	now   func() time.Time
}

func NewDebounceCache(size int) (*DebounceCache, error) {
	inner, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, err
	}
	return &DebounceCache{inner: inner, now: time.Now}, nil
}

// Key derives the cache key for a draft.
func (c *DebounceCache) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ShouldSkip reports whether key was checked within the debounce window.
// Entries extended into the future (cooldown) also suppress re-checks.
func (c *DebounceCache) ShouldSkip(key string, window time.Duration) bool {
	checkedAt, ok := c.inner.Get(key)
	if !ok {
		return false
	}
	return c.now().Sub(checkedAt) < window
}

// Record marks key as checked now.
func (c *DebounceCache) Record(key string) {
	c.inner.Add(key, c.now())
}

// Extend pushes key's timestamp into the future so matching content stays
// suppressed well past the normal window.
func (c *DebounceCache) Extend(key string, d time.Duration) {
	c.inner.Add(key, c.now().Add(d))
}
