package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/raysh454/bizaudit/internal/cache"
	"github.com/raysh454/bizaudit/internal/extractor"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/retry"
	"github.com/raysh454/bizaudit/internal/scheduler"
	"github.com/raysh454/bizaudit/internal/webclient"
)

// Application is the runtime state container. It owns every long-lived
// component of the pipeline and releases them in Shutdown.
type Application struct {
	Config  *Config
	Logger  logging.Logger
	Auditor *Auditor

	scheduler *scheduler.Scheduler
	cache     *cache.ResultCache
	webClient webclient.WebClient
}

type buildOptions struct {
	extractor    extractor.Extractor
	webClient    webclient.WebClient
	clock        clockwork.Clock
	retryOptions []retry.Option
}

// Option customises NewApplication.
type Option func(*buildOptions)

// WithExtractor replaces the reference extractor. No webclient is built.
func WithExtractor(ex extractor.Extractor) Option {
	return func(o *buildOptions) { o.extractor = ex }
}

// WithWebClient makes the reference extractor fetch through wc instead of
// the configured backend. The Application does not close wc.
func WithWebClient(wc webclient.WebClient) Option {
	return func(o *buildOptions) { o.webClient = wc }
}

// WithClock sets the time source of the scheduler, cache and auditor.
func WithClock(c clockwork.Clock) Option {
	return func(o *buildOptions) { o.clock = c }
}

// WithRetryOptions forwards options to the retry orchestrator.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(o *buildOptions) { o.retryOptions = append(o.retryOptions, opts...) }
}

// NewApplication validates cfg and wires the pipeline:
// extractor -> retry -> scheduler, with the cache in front.
func NewApplication(cfg *Config, logger logging.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	bo := buildOptions{}
	for _, opt := range opts {
		opt(&bo)
	}
	if bo.clock == nil {
		bo.clock = clockwork.NewRealClock()
	}

	a := &Application{Config: cfg, Logger: logger}

	ex := bo.extractor
	if ex == nil {
		wc := bo.webClient
		if wc == nil {
			var err error
			wc, err = webclient.NewWebClient(cfg.WebClient, logger)
			if err != nil {
				return nil, fmt.Errorf("creating webclient: %w", err)
			}
			a.webClient = wc
		}
		var err error
		ex, err = extractor.New(cfg.Extractor, wc, logger)
		if err != nil {
			a.closeWebClient()
			return nil, fmt.Errorf("creating extractor: %w", err)
		}
	}

	retryOpts := append([]retry.Option{retry.WithClock(bo.clock)}, bo.retryOptions...)
	runner, err := retry.New(cfg.Retry, ex, logger, retryOpts...)
	if err != nil {
		a.closeWebClient()
		return nil, fmt.Errorf("creating retry orchestrator: %w", err)
	}

	backend, err := cache.NewBackend(cfg.Cache)
	if err != nil {
		logger.Warn("cache backend unavailable, every lookup will miss",
			logging.F("backend", cfg.Cache.Backend),
			logging.Err(err))
		backend = nil
	}
	a.cache = cache.New(cfg.Cache, backend, bo.clock, logger)
	a.cache.Prune(context.Background())

	a.scheduler, err = scheduler.New(cfg.Scheduler, runner, logger, scheduler.WithClock(bo.clock))
	if err != nil {
		_ = a.cache.Close()
		a.closeWebClient()
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	a.Auditor, err = NewAuditor(a.scheduler, a.cache, cfg.Scheduler.RetryAfter, bo.clock, logger)
	if err != nil {
		_ = a.Shutdown(context.Background())
		return nil, err
	}

	logger.Info("application ready",
		logging.F("cache_backend", cfg.Cache.Backend),
		logging.F("webclient", string(cfg.WebClient.Client)),
		logging.F("max_depth", cfg.Scheduler.MaxDepth))
	return a, nil
}

// Shutdown stops the scheduler, failing every queued audit, then closes the
// cache and the webclient it built.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var errs []error
	if a.scheduler != nil {
		if err := a.scheduler.Close(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("closing scheduler: %w", err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache: %w", err))
		}
	}
	if err := a.closeWebClient(); err != nil {
		errs = append(errs, fmt.Errorf("closing webclient: %w", err))
	}
	return errors.Join(errs...)
}

func (a *Application) closeWebClient() error {
	if a.webClient == nil {
		return nil
	}
	err := a.webClient.Close()
	a.webClient = nil
	return err
}
