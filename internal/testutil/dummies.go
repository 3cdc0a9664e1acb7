// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns the number of warnings recorded so far.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── Extractor ─────────────────────────────────────────────────────────

// ExtractResult is one scripted outcome for StubExtractor.
type ExtractResult struct {
	Facts *model.RawFacts
	Err   error
}

// StubExtractor implements extractor.Extractor. It replays Script in order
// and repeats the last entry once the script runs out. With an empty script
// it returns empty facts. Block, when set, holds every call until it is
// closed or ctx ends.
type StubExtractor struct {
	Script []ExtractResult
	Delay  time.Duration
	Block  chan struct{}

	mu       sync.Mutex
	Calls    []model.AuditRequest
	Started  []time.Time
	canceled int
}

func (s *StubExtractor) Extract(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error) {
	s.mu.Lock()
	n := len(s.Calls)
	s.Calls = append(s.Calls, req)
	s.Started = append(s.Started, time.Now())
	s.mu.Unlock()

	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			s.markCanceled()
			return nil, ctx.Err()
		}
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			s.markCanceled()
			return nil, ctx.Err()
		}
	}

	if len(s.Script) == 0 {
		return &model.RawFacts{Name: model.Some(req.SubjectName)}, nil
	}
	r := s.Script[min(n, len(s.Script)-1)]
	return r.Facts, r.Err
}

func (s *StubExtractor) markCanceled() {
	s.mu.Lock()
	s.canceled++
	s.mu.Unlock()
}

// CallCount returns how many times Extract was invoked.
func (s *StubExtractor) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// StartTimes returns a copy of the recorded call start times.
func (s *StubExtractor) StartTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.Started...)
}

// Subjects returns the SubjectName of every call in order.
func (s *StubExtractor) Subjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Calls))
	for i, c := range s.Calls {
		out[i] = c.SubjectName
	}
	return out
}

// Canceled returns how many calls ended because ctx was done.
func (s *StubExtractor) Canceled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// Pages maps a URL to the body served for it with status 200. Unknown URLs
// get a 404. Set FailURLs[url] = true to force a transport error.
type DummyWebClient struct {
	Pages         map[string]string
	Status        map[string]int
	FailURLs      map[string]bool
	ResponseDelay time.Duration

	mu       sync.Mutex
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs[req.URL] {
		return nil, fmt.Errorf("dummy fetch fail for %s", req.URL)
	}

	body, ok := d.Pages[req.URL]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	if s, ok := d.Status[req.URL]; ok {
		status = s
	}

	return &webclient.Response{
		Request:    req,
		Body:       []byte(body),
		StatusCode: status,
		FinalURL:   req.URL,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestedURLs returns every URL fetched so far.
func (d *DummyWebClient) RequestedURLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.Requests))
	for i, r := range d.Requests {
		out[i] = r.URL
	}
	return out
}
