package demoserver

// Config holds configuration for the demo listing server.
type Config struct {
	// Addr is the listen address, ":9999" by default.
	Addr string

	// InitialVersion is the starting version for all listings (default: 1).
	InitialVersion int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":9999",
		InitialVersion: 1,
	}
}
