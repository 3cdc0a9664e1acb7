package cache

import "time"

// Backend names accepted by NewBackend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config selects the store and freshness window.
type Config struct {
	// TTL is how long an entry stays fresh after it is captured.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// Backend is one of memory, sqlite or none.
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the SQLite database file for the sqlite backend.
	Path string `mapstructure:"path" yaml:"path"`

	// Retention is how long an entry is kept for change detection after it
	// goes stale. Older entries are pruned. Zero keeps everything.
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`

	// PruneEvery is how many stores pass between prunes.
	PruneEvery int `mapstructure:"prune_every" yaml:"prune_every"`
}

// DefaultConfig keeps results fresh for 24 hours in memory and drops them
// after 30 days.
func DefaultConfig() Config {
	return Config{
		TTL:        24 * time.Hour,
		Backend:    BackendMemory,
		Path:       "bizaudit-cache.db",
		Retention:  30 * 24 * time.Hour,
		PruneEvery: 100,
	}
}
