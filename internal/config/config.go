// Package config loads bizaudit settings from defaults, an optional YAML
// file and BIZAUDIT_* environment variables, in increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/bizaudit/internal/app"
	"github.com/raysh454/bizaudit/internal/batch"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/server"
)

const (
	EnvPrefix       = "BIZAUDIT"
	configName      = "bizaudit"
	configType      = "yaml"
	keySeparator    = "."
	envKeySeparator = "_"
)

// LoggingConfig selects the zap level and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is the root configuration. Pipeline settings sit at the top level
// next to logging and server.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Server  server.Config `mapstructure:"server" yaml:"server"`
	Batch   batch.Config  `mapstructure:"batch" yaml:"batch"`
	App     app.Config    `mapstructure:",squash" yaml:",inline"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: logging.LevelInfo, Format: logging.FormatJSON},
		Server:  server.DefaultConfig(),
		Batch:   batch.DefaultConfig(),
		App:     *app.DefaultConfig(),
	}
}

// Validate checks logging and server settings and then the pipeline.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Logging.Level) {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatJSON, logging.FormatConsole, "structured":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of json, console", c.Logging.Format))
	}
	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if c.Batch.MaxConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("batch.max_concurrency must be positive, got %d", c.Batch.MaxConcurrency))
	}
	if c.Batch.MaxConcurrency > c.App.Scheduler.MaxDepth {
		errs = append(errs, fmt.Errorf("batch.max_concurrency %d exceeds scheduler.max_depth %d", c.Batch.MaxConcurrency, c.App.Scheduler.MaxDepth))
	}
	if c.Batch.FlushSize <= 0 {
		errs = append(errs, fmt.Errorf("batch.flush_size must be positive, got %d", c.Batch.FlushSize))
	}
	if err := c.App.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// Loader wraps viper. The zero value is not usable; use NewLoader.
type Loader struct {
	envPrefix   string
	searchPaths []string
}

// NewLoader searches the working directory and $HOME/.config/bizaudit for
// bizaudit.yaml when no explicit path is given.
func NewLoader(searchPaths ...string) *Loader {
	if len(searchPaths) == 0 {
		searchPaths = []string{".", "$HOME/.config/bizaudit"}
	}
	return &Loader{envPrefix: EnvPrefix, searchPaths: append([]string(nil), searchPaths...)}
}

// Loaded reports which file, if any, contributed to the configuration.
type Loaded struct {
	ConfigFileUsed string
}

// Load resolves the configuration. An explicit path that cannot be read is
// an error; a missing file in the search paths is not.
func (l *Loader) Load(path string) (*Config, Loaded, error) {
	defaults, err := Marshal(Default())
	if err != nil {
		return nil, Loaded{}, err
	}

	v := viper.New()
	v.SetConfigType(configType)
	if err := v.MergeConfig(bytes.NewReader(defaults)); err != nil {
		return nil, Loaded{}, fmt.Errorf("failed to merge default configuration: %w", err)
	}

	v.SetConfigName(configName)
	for _, p := range l.searchPaths {
		v.AddConfigPath(p)
	}
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, Loaded{}, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keySeparator, envKeySeparator))
	v.AutomaticEnv()

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, Loaded{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, Loaded{ConfigFileUsed: v.ConfigFileUsed()}, nil
}

// Load is NewLoader().Load(path).
func Load(path string) (*Config, Loaded, error) {
	return NewLoader().Load(path)
}

// ApplyLogOverrides replaces the logging settings with non-empty flag values.
func (c *Config) ApplyLogOverrides(level, format string) {
	if strings.TrimSpace(level) != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(level))
	}
	if strings.TrimSpace(format) != "" {
		c.Logging.Format = strings.ToLower(strings.TrimSpace(format))
	}
}
