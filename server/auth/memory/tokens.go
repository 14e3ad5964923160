package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meonghae/profile-service/server/auth"
)

type tokenEntry struct {
	email   string
	expires time.Time
}

// TokenCache is an in-process auth.TokenCache.
type TokenCache struct {
	mu      sync.Mutex
	entries map[string]tokenEntry
	now     func() time.Time
}

var _ auth.TokenCache = (*TokenCache)(nil)

// NewTokenCache creates an empty token cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{
		entries: make(map[string]tokenEntry),
		now:     time.Now,
	}
}

// Get implements auth.TokenCache. Expired entries are dropped on access.
func (c *TokenCache) Get(_ context.Context, token string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[token]
	if !ok {
		return "", false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, token)
		return "", false, nil
	}
	return e.email, true, nil
}

// Set implements auth.TokenCache. Expired entries of other tokens are swept
// on every call.
func (c *TokenCache) Set(_ context.Context, token, email string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[token] = tokenEntry{email: email, expires: now.Add(ttl)}
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
