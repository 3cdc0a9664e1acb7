package app

import (
	"errors"
	"fmt"

	"github.com/raysh454/bizaudit/internal/cache"
	"github.com/raysh454/bizaudit/internal/extractor"
	"github.com/raysh454/bizaudit/internal/retry"
	"github.com/raysh454/bizaudit/internal/scheduler"
	"github.com/raysh454/bizaudit/internal/webclient"
)

// Config aggregates the settings of every component the audit pipeline wires.
type Config struct {
	Scheduler scheduler.Config `mapstructure:"scheduler" yaml:"scheduler"`
	Retry     retry.Config     `mapstructure:"retry" yaml:"retry"`
	Cache     cache.Config     `mapstructure:"cache" yaml:"cache"`
	WebClient webclient.Config `mapstructure:"webclient" yaml:"webclient"`
	Extractor extractor.Config `mapstructure:"extractor" yaml:"extractor"`
}

// DefaultConfig returns the production defaults of every component.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: scheduler.DefaultConfig(),
		Retry:     retry.DefaultConfig(),
		Cache:     cache.DefaultConfig(),
		WebClient: webclient.DefaultConfig(),
		Extractor: extractor.DefaultConfig(),
	}
}

// Validate reports every setting that would make the pipeline unusable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if err := c.Scheduler.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be positive, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.BackoffBase < 0 {
		errs = append(errs, fmt.Errorf("retry.backoff_base must not be negative, got %s", c.Retry.BackoffBase))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
	}
	switch c.Cache.Backend {
	case cache.BackendMemory, cache.BackendNone:
	case cache.BackendSQLite:
		if c.Cache.Path == "" {
			errs = append(errs, errors.New("cache.path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of memory, sqlite, none", c.Cache.Backend))
	}
	return errors.Join(errs...)
}
