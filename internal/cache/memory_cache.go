package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// memoryCache is a process-local CacheService for development and tests.
// Values are stored JSON encoded so callers observe the same copy semantics as Redis.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() CacheService {
	return NewMemoryCacheWithClock(time.Now)
}

// NewMemoryCacheWithClock builds a memory cache whose expiry follows the given clock
func NewMemoryCacheWithClock(now func() time.Time) CacheService {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return ErrCacheMiss
	}
	if entry.expired(m.now()) {
		m.mu.Lock()
		if current, ok := m.entries[key]; ok && current.expired(m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		return fmt.Errorf("failed to decode cache value: %w", err)
	}
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if !ok || entry.expired(now) {
		delete(m.entries, key)
		return ErrCacheMiss
	}

	entry.expiresAt = time.Time{}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

// DeletePattern supports the * and ? wildcards of Redis SCAN MATCH
func (m *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if globMatch(pattern, key) {
			delete(m.entries, key)
		}
	}
	return nil
}

// globMatch treats every byte other than * and ? literally. Unlike path.Match, * also spans '/'.
func globMatch(pattern, key string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if pattern == "" {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if globMatch(pattern, key[i:]) {
					return true
				}
			}
			return false
		case '?':
			if key == "" {
				return false
			}
			pattern, key = pattern[1:], key[1:]
		default:
			if key == "" || key[0] != pattern[0] {
				return false
			}
			pattern, key = pattern[1:], key[1:]
		}
	}
	return key == ""
}
