package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/bizaudit/internal/model"
)

// Backend stores entries by key. Get returns (nil, nil) for a missing key.
// Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	Put(ctx context.Context, entry *model.CacheEntry) error
	Close() error
}

// Pruner is implemented by backends that can drop old entries.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewBackend builds the backend named by cfg.Backend. "none" returns a nil
// Backend, which ResultCache treats as always missing.
func NewBackend(cfg Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemoryBackend(), nil
	case BackendSQLite:
		b, err := OpenSQLiteBackend(cfg.Path)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}

// MemoryBackend keeps entries in a map for the life of the process.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]model.CacheEntry)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (*model.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MemoryBackend) Put(_ context.Context, entry *model.CacheEntry) error {
	if entry == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = *entry
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Prune deletes entries captured before cutoff.
func (m *MemoryBackend) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, e := range m.entries {
		if e.CapturedAt.Before(cutoff) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryBackend) Close() error { return nil }
