package llm

import (
	"strings"
	"sync"
)

// Credential holds the API key shared by every completion call. The
// presentation layer may replace it at any time; calls read it when issued.
type Credential struct {
	mu  sync.RWMutex
	key string
}

// NewCredential returns a holder seeded with key (may be empty).
func NewCredential(key string) *Credential {
	c := &Credential{}
	c.Set(key)
	return c
}

// Set replaces the key.
func (c *Credential) Set(key string) {
	c.mu.Lock()
	c.key = strings.TrimSpace(key)
	c.mu.Unlock()
}

// Get returns the current key.
func (c *Credential) Get() string {
	if c == nil {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key
}

// Present reports whether a key is configured.
func (c *Credential) Present() bool {
	return c.Get() != ""
}
