// Package batch audits many businesses through one pipeline, keeping a
// bounded number of requests outstanding and streaming outcomes to a sink
// as they complete.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/raysh454/bizaudit/internal/app"
	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
)

// Auditor is the part of app.Auditor a batch needs.
type Auditor interface {
	RunAudit(ctx context.Context, req model.AuditRequest) (*app.AuditResult, error)
}

// Outcome is the result of one request. Exactly one of Result and Error is set.
type Outcome struct {
	Index   int                `json:"index"`
	Request model.AuditRequest `json:"request"`
	Result  *app.AuditResult   `json:"result,omitempty"`
	Error   *Failure           `json:"error,omitempty"`
}

// Failure is the coded form of a failed audit.
type Failure struct {
	Code       auditerr.Code `json:"code"`
	Message    string        `json:"message"`
	RetryAfter int           `json:"retryAfter,omitempty"`
}

// Summary counts the outcomes of a run.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cached    int `json:"cached"`
}

// Sink receives outcomes in completion order, FlushSize at a time.
type Sink interface {
	Write(ctx context.Context, outcomes []Outcome) error
}

// Runner fans requests out to an Auditor.
type Runner struct {
	cfg     Config
	auditor Auditor
	sink    Sink
	logger  logging.Logger
}

// New creates a Runner. Non-positive settings fall back to DefaultConfig.
func New(cfg Config, auditor Auditor, sink Sink, logger logging.Logger) (*Runner, error) {
	if auditor == nil {
		return nil, errors.New("batch: auditor is nil")
	}
	if sink == nil {
		return nil, errors.New("batch: sink is nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	def := DefaultConfig()
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	if cfg.FlushSize <= 0 {
		cfg.FlushSize = def.FlushSize
	}
	return &Runner{
		cfg:     cfg,
		auditor: auditor,
		sink:    sink,
		logger:  logger.With(logging.Component("batch")),
	}, nil
}

// Run audits every request and returns once all launched audits finished
// and the sink was flushed. Cancelling ctx stops launching new audits.
// The returned error is the first sink failure, if any.
func (r *Runner) Run(ctx context.Context, reqs []model.AuditRequest) (Summary, error) {
	var (
		wg      sync.WaitGroup
		sem     = make(chan struct{}, r.cfg.MaxConcurrency)
		outCh   = make(chan Outcome)
		done    = make(chan struct{})
		summary Summary
		sinkErr error
	)

	// Collect outcomes and flush them in FlushSize batches.
	go func() {
		defer close(done)
		batch := make([]Outcome, 0, r.cfg.FlushSize)
		flush := func() {
			if len(batch) == 0 {
				return
			}
			if err := r.sink.Write(context.WithoutCancel(ctx), batch); err != nil && sinkErr == nil {
				sinkErr = fmt.Errorf("batch: writing outcomes: %w", err)
				r.logger.Error("error while writing outcomes", logging.Err(err))
			}
			batch = batch[:0]
		}
		for o := range outCh {
			summary.Total++
			switch {
			case o.Error != nil:
				summary.Failed++
			case o.Result.Cached:
				summary.Cached++
				summary.Succeeded++
			default:
				summary.Succeeded++
			}
			batch = append(batch, o)
			if len(batch) == r.cfg.FlushSize {
				flush()
			}
		}
		flush()
	}()

launch:
	for i, req := range reqs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break launch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, req model.AuditRequest) {
			defer wg.Done()
			defer func() { <-sem }()
			outCh <- r.audit(ctx, i, req)
		}(i, req)
	}

	wg.Wait()
	close(outCh)
	<-done

	r.logger.Info("batch finished",
		logging.F("total", summary.Total),
		logging.F("succeeded", summary.Succeeded),
		logging.F("failed", summary.Failed),
		logging.F("skipped", len(reqs)-summary.Total))
	return summary, sinkErr
}

func (r *Runner) audit(ctx context.Context, i int, req model.AuditRequest) Outcome {
	o := Outcome{Index: i, Request: req}
	res, err := r.auditor.RunAudit(ctx, req)
	if err != nil {
		f := &Failure{Code: auditerr.CodeOf(err), Message: err.Error()}
		if e, ok := auditerr.As(err); ok {
			f.Message = e.Message
			f.RetryAfter = int(e.RetryAfter.Seconds())
		}
		r.logger.Warn("audit failed",
			logging.F("index", i),
			logging.F("subject", req.Label()),
			logging.F("code", string(f.Code)))
		o.Error = f
		return o
	}
	o.Result = res
	return o
}

// JSONLinesSink writes one JSON document per outcome.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink writes to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

func (s *JSONLinesSink) Write(_ context.Context, outcomes []Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range outcomes {
		if err := s.enc.Encode(o); err != nil {
			return err
		}
	}
	return nil
}

// ReadRequests decodes a JSON Lines stream of audit requests using the
// HTTP field names (businessName, area, placeUrl).
func ReadRequests(r io.Reader) ([]model.AuditRequest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var out []model.AuditRequest
	for n := 1; ; n++ {
		var req model.AuditRequest
		err := dec.Decode(&req)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("batch: request %d: %w", n, err)
		}
		out = append(out, req)
	}
}
