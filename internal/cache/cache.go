package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process TTL cache of token key -> user id bindings. It is
// used when no redis address is configured.
type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	userID string
	exp    time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Memory) GetUserID(ctx context.Context, key string) (string, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return "", false, nil
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return "", false, nil
	}

	return e.userID, true, nil
}

func (c *Memory) SetUserID(ctx context.Context, key, userID string) error {
	c.mu.Lock()
	c.m[key] = entry{userID: userID, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *Memory) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}
