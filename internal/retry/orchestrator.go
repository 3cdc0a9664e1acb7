// Package retry wraps an extractor with bounded retries and linear backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/extractor"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Orchestrator runs extraction attempts for one request at a time.
type Orchestrator struct {
	cfg       Config
	extractor extractor.Extractor
	logger    logging.Logger
	sleep     Sleeper
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper replaces the context-aware sleep used between attempts.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// WithClock times the backoff between attempts on clock.
func WithClock(clock clockwork.Clock) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.sleep = ClockSleeper(clock)
		}
	}
}

// New creates an Orchestrator around ex.
func New(cfg Config, ex extractor.Extractor, logger logging.Logger, opts ...Option) (*Orchestrator, error) {
	if ex == nil {
		return nil, errors.New("retry: nil extractor")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("retry: max attempts must be positive, got %d", cfg.MaxAttempts)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	o := &Orchestrator{
		cfg:       cfg,
		extractor: ex,
		logger:    logger.With(logging.Component("retry")),
		sleep:     ClockSleeper(clockwork.NewRealClock()),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// state is the loop state carried between attempts.
type state struct {
	attempt int
	lastErr error
}

// Run attempts extraction up to MaxAttempts times. SUBJECT_NOT_FOUND stops
// the loop at once. Exhaustion yields EXTRACTION_FAILED wrapping the last
// error, with Attempts set.
func (o *Orchestrator) Run(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error) {
	var st state

	for st.attempt < o.cfg.MaxAttempts {
		if st.attempt > 0 {
			delay := time.Duration(st.attempt) * o.cfg.BackoffBase
			o.logger.Info("retrying extraction",
				logging.F("subject", req.Label()),
				logging.F("attempt", st.attempt+1),
				logging.F("backoff", delay.String()),
			)
			if err := o.sleep(ctx, delay); err != nil {
				return nil, o.abandoned(st, err)
			}
		}
		st.attempt++

		facts, err := o.extractor.Extract(ctx, req)
		if err == nil {
			if facts == nil {
				facts = &model.RawFacts{}
			}
			return facts, nil
		}
		st.lastErr = err

		if auditerr.IsTerminal(err) {
			o.logger.Info("extraction failed terminally",
				logging.F("subject", req.Label()),
				logging.F("attempt", st.attempt),
				logging.Err(err),
			)
			return nil, tagAttempts(err, st.attempt)
		}

		o.logger.Warn("extraction attempt failed",
			logging.F("subject", req.Label()),
			logging.F("attempt", st.attempt),
			logging.F("code", string(auditerr.CodeOf(err))),
			logging.Err(err),
		)

		if ctx.Err() != nil {
			return nil, o.abandoned(st, ctx.Err())
		}
	}

	e := auditerr.Wrap(st.lastErr, auditerr.CodeExtractionFailed, "extraction failed after %d attempts", st.attempt)
	e.Attempts = st.attempt
	e.RetryAfter = auditerr.DefaultRetryAfter
	return nil, e
}

// abandoned reports a loop cut short by ctx.
func (o *Orchestrator) abandoned(st state, cause error) error {
	o.logger.Warn("extraction abandoned",
		logging.F("attempts", st.attempt),
		logging.Err(cause),
	)
	e := auditerr.Wrap(cause, auditerr.CodeExtractionTimeout, "extraction abandoned after %d attempts", st.attempt)
	e.Attempts = st.attempt
	return e
}

// tagAttempts returns a copy of a coded error with Attempts set.
func tagAttempts(err error, attempts int) error {
	e, ok := auditerr.As(err)
	if !ok {
		return err
	}
	c := *e
	c.Attempts = attempts
	return &c
}

// ClockSleeper returns a Sleeper that waits on clock.
func ClockSleeper(clock clockwork.Clock) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return ctx.Err()
		}
		t := clock.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.Chan():
			return nil
		}
	}
}
