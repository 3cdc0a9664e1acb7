// Package scheduler serialises audit extractions behind a bounded FIFO
// queue: one task at a time, a minimum gap between dispatch starts, a hard
// per-task timeout and synchronous admission control.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
)

// Runner does the work of one dispatched task.
type Runner interface {
	Run(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error)

func (f RunnerFunc) Run(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error) {
	return f(ctx, req)
}

// Stats is a point-in-time snapshot computed under the scheduler lock.
type Stats struct {
	QueueDepth       int        `json:"queueDepth"`
	InFlight         int        `json:"inFlight"`
	TotalProcessed   uint64     `json:"totalProcessed"`
	TotalFailed      uint64     `json:"totalFailed"`
	LastDispatchTime *time.Time `json:"lastDispatchTime,omitempty"`
	Paused           bool       `json:"paused"`
	MaxDepth         int        `json:"maxDepth"`
}

type task struct {
	id         string
	req        model.AuditRequest
	future     *Future
	enqueuedAt time.Time
}

type result struct {
	facts *model.RawFacts
	err   error
}

// Scheduler owns the queue. All state is guarded by mu and mutated either by
// callers (Submit, Pause, Resume, Clear, Close) or by the single dispatcher
// goroutine.
type Scheduler struct {
	cfg    Config
	runner Runner
	clock  clockwork.Clock
	logger logging.Logger

	mu             sync.Mutex
	queue          []*task
	inFlight       *task
	paused         bool
	closed         bool
	totalProcessed uint64
	totalFailed    uint64
	lastDispatch   time.Time

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	baseCtx  context.Context
	cancelFn context.CancelFunc
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source used for pacing and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// New validates cfg and starts the dispatcher goroutine.
func New(cfg Config, runner Runner, logger logging.Logger, opts ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("scheduler: nil runner")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:      cfg,
		runner:   runner,
		clock:    clockwork.NewRealClock(),
		logger:   logger.With(logging.Component("scheduler")),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		baseCtx:  ctx,
		cancelFn: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.loop()
	return s, nil
}

// Submit enqueues req. It fails synchronously with QUEUE_FULL when queued
// plus in-flight tasks already exceed MaxDepth, and never partially admits.
func (s *Scheduler) Submit(req model.AuditRequest) (*Future, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, auditerr.New(auditerr.CodeSchedulerClosed, "scheduler is closed")
	}
	if depth := s.depthLocked(); depth > s.cfg.MaxDepth {
		s.logger.Warn("queue full, rejecting task",
			logging.F("subject", req.Label()),
			logging.F("depth", depth),
			logging.F("max_depth", s.cfg.MaxDepth),
		)
		e := auditerr.New(auditerr.CodeQueueFull, "queue depth %d exceeds %d", depth, s.cfg.MaxDepth)
		e.RetryAfter = s.cfg.RetryAfter
		return nil, e
	}

	t := &task{
		id:         uuid.NewString(),
		req:        req,
		enqueuedAt: s.clock.Now(),
	}
	t.future = newFuture(t.id)
	s.queue = append(s.queue, t)

	s.logger.Debug("task enqueued",
		logging.F("task_id", t.id),
		logging.F("subject", req.Label()),
		logging.F("queue_depth", len(s.queue)),
	)
	s.signal()
	return t.future, nil
}

func (s *Scheduler) depthLocked() int {
	n := len(s.queue)
	if s.inFlight != nil {
		n++
	}
	return n
}

// signal wakes the dispatcher without blocking.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stats returns a snapshot of the queue counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		QueueDepth:     len(s.queue),
		TotalProcessed: s.totalProcessed,
		TotalFailed:    s.totalFailed,
		Paused:         s.paused,
		MaxDepth:       s.cfg.MaxDepth,
	}
	if s.inFlight != nil {
		st.InFlight = 1
	}
	if !s.lastDispatch.IsZero() {
		t := s.lastDispatch
		st.LastDispatchTime = &t
	}
	return st
}

// Pause stops new dispatches. The in-flight task, if any, runs to completion.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.logger.Info("scheduler paused", logging.F("queue_depth", len(s.queue)))
}

// Resume re-enables dispatching.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.logger.Info("scheduler resumed", logging.F("queue_depth", len(s.queue)))
	s.signal()
}

// Clear drops every queued task, resolving each with QUEUE_CLEARED, and
// returns how many were dropped. The in-flight task is unaffected.
func (s *Scheduler) Clear() int {
	s.mu.Lock()
	dropped := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, t := range dropped {
		t.future.resolve(nil, auditerr.New(auditerr.CodeQueueCleared, "queue cleared before dispatch"))
	}
	s.logger.Info("queue cleared", logging.F("dropped", len(dropped)))
	return len(dropped)
}

// Close rejects further submits, resolves queued tasks with
// SCHEDULER_CLOSED, cancels the in-flight task and waits for the dispatcher
// to exit or ctx to end.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	dropped := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, t := range dropped {
		t.future.resolve(nil, auditerr.New(auditerr.CodeSchedulerClosed, "scheduler closed before dispatch"))
	}
	close(s.stop)
	s.cancelFn()

	select {
	case <-s.done:
		s.logger.Info("scheduler closed", logging.F("dropped", len(dropped)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop() {
	defer close(s.done)
	for {
		t, ok := s.next()
		if !ok {
			return
		}
		s.dispatch(t)
	}
}

// next blocks until a task may be dispatched and marks it in flight.
// It returns false once the scheduler is closed.
func (s *Scheduler) next() (*task, bool) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, false
		}
		if s.paused || len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return nil, false
			}
		}

		now := s.clock.Now()
		if !s.lastDispatch.IsZero() {
			if wait := s.lastDispatch.Add(s.cfg.MinInterval).Sub(now); wait > 0 {
				s.mu.Unlock()
				// A submit cannot shorten the gap, so only stop interrupts it.
				select {
				case <-s.clock.After(wait):
				case <-s.stop:
					return nil, false
				}
				continue
			}
		}

		t := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.inFlight = t
		s.lastDispatch = now
		s.mu.Unlock()
		return t, true
	}
}

// dispatch runs t under TaskTimeout. The future resolves when the runner
// returns or the timeout fires, whichever comes first; a runner still
// running after the timeout has its ctx cancelled and its result dropped.
func (s *Scheduler) dispatch(t *task) {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.TaskTimeout)
	defer cancel()

	s.logger.Info("dispatching task",
		logging.F("task_id", t.id),
		logging.F("subject", t.req.Label()),
		logging.F("waited", s.clock.Since(t.enqueuedAt).String()),
	)

	resCh := make(chan result, 1)
	go func() {
		facts, err := s.runner.Run(ctx, t.req)
		resCh <- result{facts: facts, err: err}
	}()

	var res result
	select {
	case res = <-resCh:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res = result{err: s.timeoutErr(res.err)}
		}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res = result{err: s.timeoutErr(nil)}
		} else {
			res = result{err: auditerr.New(auditerr.CodeSchedulerClosed, "scheduler closed during dispatch")}
		}
	}
	if res.err == nil && res.facts == nil {
		res.facts = &model.RawFacts{}
	}

	s.mu.Lock()
	s.inFlight = nil
	s.totalProcessed++
	if res.err != nil {
		s.totalFailed++
	}
	s.mu.Unlock()

	t.future.resolve(res.facts, res.err)

	if res.err != nil {
		s.logger.Warn("task failed",
			logging.F("task_id", t.id),
			logging.F("code", string(auditerr.CodeOf(res.err))),
			logging.Err(res.err),
		)
	} else {
		s.logger.Info("task completed", logging.F("task_id", t.id))
	}
}

func (s *Scheduler) timeoutErr(cause error) error {
	return auditerr.Wrap(cause, auditerr.CodeTaskTimeout, "task exceeded %s", s.cfg.TaskTimeout)
}
