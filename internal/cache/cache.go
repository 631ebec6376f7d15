package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type item struct {
	body      string
	expiresAt time.Time
}

// DigestCache remembers model-generated digests by content hash, so identical
// articles (the same story syndicated through several feeds) cost one model
// request instead of many.
type DigestCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]item
}

func New(ttl time.Duration) *DigestCache {
	return &DigestCache{
		ttl:   ttl,
		items: make(map[string]item),
	}
}

// Key derives a stable cache key from an article's title and content.
func Key(title, content string) string {
	h := sha256.New()
	h.Write([]byte(title + "|" + content))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *DigestCache) Get(key string) (string, bool) {
	c.mu.RLock()
	it, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return "", false
	}

	if time.Now().After(it.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return "", false
	}

	return it.body, true
}

func (c *DigestCache) Set(key, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{
		body:      body,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *DigestCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
