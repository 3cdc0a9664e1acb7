package server

import "time"

// Config holds the HTTP listener settings.
type Config struct {
	// ListenAddr is the address the API server binds, e.g. ":8080".
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`

	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout must cover a full audit including queue wait. Zero
	// disables it.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// StatusInterval is how often /ws/queue-status pushes a snapshot.
	StatusInterval time.Duration `mapstructure:"status_interval" yaml:"status_interval"`

	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string `mapstructure:"allowed_origin" yaml:"allowed_origin"`
}

// DefaultConfig listens on :8080 with permissive CORS.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   0,
		StatusInterval: 2 * time.Second,
		AllowedOrigin:  "*",
	}
}
