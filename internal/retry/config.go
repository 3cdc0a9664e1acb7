package retry

import "time"

// Config controls the retry loop.
type Config struct {
	// MaxAttempts is the total number of extraction attempts, including the first.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`

	// BackoffBase is multiplied by the attempt number to get the pause
	// before the next attempt (2s, 4s, ...).
	BackoffBase time.Duration `mapstructure:"backoff_base" yaml:"backoff_base"`
}

// DefaultConfig returns the production retry settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BackoffBase: 2 * time.Second,
	}
}
