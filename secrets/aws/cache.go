package aws

import (
	"sync"
	"time"

	"github.com/tdambrin/sf-push/secrets"
)

// cacheEntry holds a resolved secret until expiration.
type cacheEntry struct {
	secret     secrets.Secret
	expiration time.Time
}

// secretCache is a TTL cache of resolved secrets keyed by path and version.
// Stored values are copies; callers may Clear what they get back.
type secretCache struct {
	entries map[string]*cacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	mu sync.Mutex
}

func newSecretCache(ttl time.Duration, maxSize int) *secretCache {
	return &secretCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

func cacheKey(ref secrets.SecretRef) string {
	return ref.Path + "@" + ref.Version
}

func (c *secretCache) get(ref secrets.SecretRef) (*secrets.Secret, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(ref)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiration) {
		delete(c.entries, key)
		return nil, false
	}
	return copySecret(&entry.secret), true
}

// set stores a copy of secret. At capacity the entry closest to expiring is evicted.
func (c *secretCache) set(ref secrets.SecretRef, secret *secrets.Secret) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(ref)
	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.expiration.Before(oldest) {
				oldestKey, oldest = k, e.expiration
			}
		}
		c.evict(oldestKey)
	}

	c.entries[key] = &cacheEntry{
		secret:     *copySecret(secret),
		expiration: c.now().Add(c.ttl),
	}
}

// clear zeroes and drops every entry.
func (c *secretCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		c.evict(k)
	}
}

func (c *secretCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evict must be called with mu held.
func (c *secretCache) evict(key string) {
	if e, ok := c.entries[key]; ok {
		e.secret.Clear()
		delete(c.entries, key)
	}
}

func copySecret(s *secrets.Secret) *secrets.Secret {
	out := *s
	out.Value = append([]byte(nil), s.Value...)
	return &out
}
