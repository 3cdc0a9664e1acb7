package batch

// Config bounds a batch run.
type Config struct {
	// MaxConcurrency is how many audits may wait on the scheduler at once.
	// Keep it at or below scheduler.max_depth to avoid QUEUE_FULL.
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`

	// FlushSize is how many outcomes are handed to the sink per write.
	FlushSize int `mapstructure:"flush_size" yaml:"flush_size"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		FlushSize:      10,
	}
}
