// Package cache remembers recent audit outcomes so an identical request
// inside the freshness window skips the scheduler entirely.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
)

// Stats counts lookups since start.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// ResultCache applies the freshness rule on top of a Backend. Backend
// failures are logged and degrade to a miss (Lookup) or a no-op (Store);
// they never reach the caller.
type ResultCache struct {
	ttl        time.Duration
	retention  time.Duration
	pruneEvery uint64
	backend    Backend
	clock      clockwork.Clock
	logger     logging.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
	stores atomic.Uint64
}

// New wraps backend. A nil backend makes every lookup a miss.
func New(cfg Config, backend Backend, clock clockwork.Clock, logger logging.Logger) *ResultCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	l := logger.With(logging.Component("cache"))
	if backend == nil {
		l.Warn("no cache backend configured, every lookup will miss")
	}
	pruneEvery := uint64(100)
	if cfg.PruneEvery > 0 {
		pruneEvery = uint64(cfg.PruneEvery)
	}
	return &ResultCache{
		ttl:        cfg.TTL,
		retention:  cfg.Retention,
		pruneEvery: pruneEvery,
		backend:    backend,
		clock:      clock,
		logger:     l,
	}
}

// Lookup returns the entry for key when it is still fresh, that is when
// now - CapturedAt < TTL.
func (c *ResultCache) Lookup(ctx context.Context, key string) (*model.CacheEntry, bool) {
	entry := c.get(ctx, key)
	if entry == nil || !c.fresh(entry) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", logging.F("key", key), logging.F("captured_at", entry.CapturedAt))
	return entry, true
}

// Previous returns whatever entry is stored for key, fresh or not. It does
// not count as a lookup.
func (c *ResultCache) Previous(ctx context.Context, key string) (*model.CacheEntry, bool) {
	entry := c.get(ctx, key)
	return entry, entry != nil
}

// Store records breakdown and facts under key, stamped with the current
// time. Later stores overwrite earlier ones.
func (c *ResultCache) Store(ctx context.Context, key string, breakdown model.ScoreBreakdown, facts model.RawFacts) {
	if c.backend == nil || key == "" {
		return
	}
	entry := &model.CacheEntry{
		Key:        key,
		Breakdown:  breakdown,
		Facts:      facts,
		CapturedAt: c.clock.Now(),
	}
	if err := c.backend.Put(ctx, entry); err != nil {
		c.logger.Warn("cache store failed", logging.F("key", key), logging.Err(err))
		return
	}
	if c.stores.Add(1)%c.pruneEvery == 0 {
		c.Prune(ctx)
	}
}

// Prune drops entries older than TTL + Retention, which are past any use
// for change detection. It is a no-op without a retention window or on a
// backend that cannot prune.
func (c *ResultCache) Prune(ctx context.Context) int64 {
	p, ok := c.backend.(Pruner)
	if !ok || c.retention <= 0 {
		return 0
	}
	cutoff := c.clock.Now().Add(-(c.ttl + c.retention))
	n, err := p.Prune(ctx, cutoff)
	if err != nil {
		c.logger.Warn("cache prune failed", logging.Err(err))
		return 0
	}
	if n > 0 {
		c.logger.Debug("cache pruned", logging.F("removed", n), logging.F("cutoff", cutoff))
	}
	return n
}

// Stats returns hit and miss counters.
func (c *ResultCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// TTL is the configured freshness window.
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

// Close releases the backend.
func (c *ResultCache) Close() error {
	if c.backend == nil {
		return nil
	}
	return c.backend.Close()
}

func (c *ResultCache) fresh(e *model.CacheEntry) bool {
	return c.clock.Since(e.CapturedAt) < c.ttl
}

func (c *ResultCache) get(ctx context.Context, key string) *model.CacheEntry {
	if c.backend == nil || key == "" {
		return nil
	}
	entry, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed, treating as miss", logging.F("key", key), logging.Err(err))
		return nil
	}
	return entry
}
