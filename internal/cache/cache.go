package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Manager keeps upstream response bodies in two tiers: a short-lived
// fresh tier consulted before hitting the provider, and a long-lived
// stale tier served when the provider is erroring.
type Manager struct {
	cache    *cache.Cache
	freshTTL time.Duration
	staleTTL time.Duration
	mu       sync.RWMutex
}

func NewManager(freshTTL, staleTTL time.Duration) *Manager {
	return &Manager{
		cache:    cache.New(freshTTL, 10*time.Minute),
		freshTTL: freshTTL,
		staleTTL: staleTTL,
	}
}

// Key derives the cache key for an upstream request from its method,
// URL and body.
func Key(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'|'})
	h.Write([]byte(url))
	h.Write([]byte{'|'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (m *Manager) GetFresh(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, found := m.cache.Get("fresh:" + key); found {
		if body, ok := val.([]byte); ok {
			return body, true
		}
	}
	return nil, false
}

func (m *Manager) GetStale(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, found := m.cache.Get("stale:" + key); found {
		if body, ok := val.([]byte); ok {
			return body, true
		}
	}
	return nil, false
}

// Store records a successful response body in both tiers.
func (m *Manager) Store(key string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Set("fresh:"+key, body, m.freshTTL)
	m.cache.Set("stale:"+key, body, m.staleTTL)
}

func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Flush()
}
