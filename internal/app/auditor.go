package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/cache"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/scheduler"
	"github.com/raysh454/bizaudit/internal/scoring"
	"github.com/raysh454/bizaudit/internal/utils"
)

// Auditor runs the audit flow: cache, then scheduler, then scoring.
type Auditor struct {
	scheduler  *scheduler.Scheduler
	cache      *cache.ResultCache
	clock      clockwork.Clock
	logger     logging.Logger
	retryAfter time.Duration
	newID      func() string
}

// NewAuditor ties a scheduler and a cache together. A nil clock means the
// real clock.
func NewAuditor(s *scheduler.Scheduler, c *cache.ResultCache, retryAfter time.Duration, clock clockwork.Clock, logger logging.Logger) (*Auditor, error) {
	if s == nil {
		return nil, errors.New("auditor: nil scheduler")
	}
	if c == nil {
		return nil, errors.New("auditor: nil cache")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if retryAfter <= 0 {
		retryAfter = auditerr.DefaultRetryAfter
	}
	return &Auditor{
		scheduler:  s,
		cache:      c,
		clock:      clock,
		logger:     logger.With(logging.Component("auditor")),
		retryAfter: retryAfter,
		newID:      func() string { return uuid.New().String() },
	}, nil
}

// RunAudit audits req. A fresh cached result is returned without touching
// the scheduler. Returned errors are always *auditerr.Error carrying a
// caller-facing message.
func (a *Auditor) RunAudit(ctx context.Context, req model.AuditRequest) (*AuditResult, error) {
	start := a.clock.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := req.Key()
	log := a.logger.With(logging.F("key", key))

	if entry, ok := a.cache.Lookup(ctx, key); ok {
		log.Info("serving cached audit", logging.F("captured_at", entry.CapturedAt))
		return a.result(req, entry.Breakdown, entry.Facts, entry.CapturedAt, true, nil, start), nil
	}
	prev, hadPrev := a.cache.Previous(ctx, key)

	fut, err := a.scheduler.Submit(req)
	if err != nil {
		log.Warn("audit not admitted", logging.Err(err))
		return nil, a.surface(req, err)
	}
	facts, err := fut.Wait(ctx)
	if err != nil {
		log.Warn("audit failed", logging.F("task", fut.ID()), logging.Err(err))
		return nil, a.surface(req, err)
	}
	if facts == nil {
		facts = &model.RawFacts{}
	}

	breakdown := scoring.Score(*facts)
	var changes *scoring.Delta
	if hadPrev {
		d := scoring.Compare(prev.Breakdown, breakdown)
		changes = &d
	}
	a.cache.Store(ctx, key, breakdown, *facts)

	captured := facts.CapturedAt
	if captured.IsZero() {
		captured = a.clock.Now().UTC()
	}
	res := a.result(req, breakdown, *facts, captured, false, changes, start)
	log.Info("audit complete",
		logging.F("audit_id", res.AuditID),
		logging.F("score", breakdown.TotalScore),
		logging.F("tier", breakdown.StatusTier))
	return res, nil
}

func (a *Auditor) result(req model.AuditRequest, b model.ScoreBreakdown, f model.RawFacts, captured time.Time, cached bool, changes *scoring.Delta, start time.Time) *AuditResult {
	return &AuditResult{
		AuditID:          a.newID(),
		Cached:           cached,
		SubjectName:      utils.FirstNonEmpty(req.SubjectName, f.Name.OrElse("")),
		Area:             req.Area,
		ResourceRef:      req.ResourceRef,
		CapturedAt:       captured,
		ScoreBreakdown:   b,
		Facts:            f,
		ProcessingTimeMs: a.clock.Since(start).Milliseconds(),
		Changes:          changes,
	}
}

// surface maps pipeline failures onto the codes callers see. Admission and
// exhausted transient failures share the generic high-load message.
func (a *Auditor) surface(req model.AuditRequest, err error) error {
	var attempts int
	if e, ok := auditerr.As(err); ok {
		attempts = e.Attempts
	}
	switch auditerr.CodeOf(err) {
	case auditerr.CodeMissingFields:
		return err
	case auditerr.CodeQueueFull:
		retryAfter := auditerr.RetryAfterOf(err)
		if retryAfter <= 0 {
			retryAfter = a.retryAfter
		}
		return &auditerr.Error{Code: auditerr.CodeQueueFull, Message: HighLoadMessage(retryAfter), RetryAfter: retryAfter, Err: err}
	case auditerr.CodeSubjectNotFound:
		return &auditerr.Error{Code: auditerr.CodeSubjectNotFound, Message: NotFoundMessage(req), Attempts: attempts, Err: err}
	case auditerr.CodeTaskTimeout, auditerr.CodeExtractionTimeout, auditerr.CodeExtractionFailed,
		auditerr.CodeQueueCleared, auditerr.CodeSchedulerClosed:
		return a.highLoad(err, attempts)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return a.highLoad(err, attempts)
	}
	return &auditerr.Error{Code: auditerr.CodeInternal, Message: "An unexpected error occurred. Please try again.", Err: err}
}

func (a *Auditor) highLoad(err error, attempts int) error {
	return &auditerr.Error{
		Code:       auditerr.CodeExtractionFailed,
		Message:    HighLoadMessage(a.retryAfter),
		Attempts:   attempts,
		RetryAfter: a.retryAfter,
		Err:        err,
	}
}

// HighLoadMessage is the generic message for retryable failures.
func HighLoadMessage(retryAfter time.Duration) string {
	return fmt.Sprintf("High load, please retry in %d seconds", int(retryAfter.Seconds()))
}

// NotFoundMessage names the subject that could not be located.
func NotFoundMessage(req model.AuditRequest) string {
	if req.HasIdentity() {
		return fmt.Sprintf("Could not find %q in %s", utils.CollapseSpace(req.SubjectName), utils.CollapseSpace(req.Area))
	}
	return fmt.Sprintf("Could not find a listing at %s", req.ResourceRef)
}

// QueueStatus returns the scheduler snapshot.
func (a *Auditor) QueueStatus() scheduler.Stats {
	return a.scheduler.Stats()
}

// CacheStats returns the cache hit and miss counters.
func (a *Auditor) CacheStats() cache.Stats {
	return a.cache.Stats()
}

func (a *Auditor) Pause() {
	a.scheduler.Pause()
	a.logger.Info("queue paused")
}

func (a *Auditor) Resume() {
	a.scheduler.Resume()
	a.logger.Info("queue resumed")
}

// Clear drops every queued task and returns how many were dropped.
func (a *Auditor) Clear() int {
	n := a.scheduler.Clear()
	a.logger.Info("queue cleared", logging.F("dropped", n))
	return n
}
