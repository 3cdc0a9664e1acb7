package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/bizaudit/internal/auditerr"
)

// Config controls admission and pacing.
type Config struct {
	// MaxDepth bounds queued plus in-flight tasks. A submit is rejected when
	// the current total already exceeds it.
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`

	// MinInterval is the minimum gap between the starts of two dispatches.
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`

	// TaskTimeout bounds one dispatch, retries included.
	TaskTimeout time.Duration `mapstructure:"task_timeout" yaml:"task_timeout"`

	// RetryAfter is the hint attached to QUEUE_FULL rejections.
	RetryAfter time.Duration `mapstructure:"retry_after" yaml:"retry_after"`
}

// DefaultConfig returns the production pacing: one dispatch every 12s at
// most, 45s per task, 20 tasks deep.
func DefaultConfig() Config {
	return Config{
		MaxDepth:    20,
		MinInterval: 12 * time.Second,
		TaskTimeout: 45 * time.Second,
		RetryAfter:  auditerr.DefaultRetryAfter,
	}
}

// Validate reports every setting the scheduler cannot run with. Pacing is
// mandatory: MinInterval must be positive.
func (c Config) Validate() error {
	var errs []error
	if c.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.max_depth must be positive, got %d", c.MaxDepth))
	}
	if c.MinInterval <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.min_interval must be positive, got %s", c.MinInterval))
	}
	if c.TaskTimeout <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.task_timeout must be positive, got %s", c.TaskTimeout))
	}
	if c.RetryAfter < 0 {
		errs = append(errs, fmt.Errorf("scheduler.retry_after must not be negative, got %s", c.RetryAfter))
	}
	return errors.Join(errs...)
}
