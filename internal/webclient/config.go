package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config selects and tunes a backend.
type Config struct {
	Client Client `mapstructure:"client" yaml:"client"`

	// Timeout bounds a whole fetch, including rendering for chromedp.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`

	// MaxBodyBytes caps how much of a response body is read. Zero means no cap.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`

	// chromedp only
	Headless  bool          `mapstructure:"headless" yaml:"headless"`
	IdleAfter time.Duration `mapstructure:"idle_after" yaml:"idle_after"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Client:       ClientNetHTTP,
		Timeout:      30 * time.Second,
		UserAgent:    "bizaudit/1.0 (+listing audit)",
		MaxBodyBytes: 8 << 20,
		Headless:     true,
		IdleAfter:    2 * time.Second,
	}
}
