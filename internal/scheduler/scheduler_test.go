package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/testutil"
)

func testConfig() Config {
	return Config{
		MaxDepth:    20,
		MinInterval: time.Microsecond,
		TaskTimeout: time.Second,
		RetryAfter:  auditerr.DefaultRetryAfter,
	}
}

func newScheduler(t *testing.T, cfg Config, r Runner, opts ...Option) *Scheduler {
	t.Helper()
	s, err := New(cfg, r, &testutil.DummyLogger{}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

func stubRunner(ex *testutil.StubExtractor) Runner {
	return RunnerFunc(ex.Extract)
}

func subject(name string) model.AuditRequest {
	return model.AuditRequest{SubjectName: name, Area: "Pune"}
}

func wait(t *testing.T, f *Future) (*model.RawFacts, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	facts, err := f.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("future did not resolve in time")
	}
	return facts, err
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSubmit_RunsFIFOWithSpacing(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MinInterval = 80 * time.Millisecond
	ex := &testutil.StubExtractor{}
	s := newScheduler(t, cfg, stubRunner(ex))

	var futures []*Future
	for _, name := range []string{"a", "b", "c"} {
		f, err := s.Submit(subject(name))
		if err != nil {
			t.Fatalf("Submit(%s): %v", name, err)
		}
		futures = append(futures, f)
	}
	for _, f := range futures {
		if _, err := wait(t, f); err != nil {
			t.Fatalf("task failed: %v", err)
		}
	}

	got := ex.Subjects()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("dispatch order = %v, want [a b c]", got)
	}
	starts := ex.StartTimes()
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < cfg.MinInterval-10*time.Millisecond {
			t.Errorf("gap %d = %s, want >= %s", i, gap, cfg.MinInterval)
		}
	}
	if st := s.Stats(); st.TotalProcessed != 3 || st.TotalFailed != 0 || st.QueueDepth != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestSubmit_DefaultIntervalWithFakeClock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	cfg := DefaultConfig()
	ex := &testutil.StubExtractor{}
	s := newScheduler(t, cfg, stubRunner(ex), WithClock(clock))

	first, _ := s.Submit(subject("first"))
	if _, err := wait(t, first); err != nil {
		t.Fatal(err)
	}
	second, err := s.Submit(subject("second"))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("dispatcher never started waiting: %v", err)
	}

	clock.Advance(11 * time.Second)
	time.Sleep(30 * time.Millisecond)
	if n := ex.CallCount(); n != 1 {
		t.Fatalf("second task dispatched after 11s, calls = %d", n)
	}

	clock.Advance(time.Second)
	if _, err := wait(t, second); err != nil {
		t.Fatal(err)
	}
	if n := ex.CallCount(); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func TestSubmit_RejectsWhenFull(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxDepth = 2
	ex := &testutil.StubExtractor{Block: make(chan struct{})}
	s := newScheduler(t, cfg, stubRunner(ex))

	running, err := s.Submit(subject("running"))
	if err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool { return s.Stats().InFlight == 1 })

	var queued []*Future
	for _, name := range []string{"q1", "q2"} {
		f, err := s.Submit(subject(name))
		if err != nil {
			t.Fatalf("Submit(%s): %v", name, err)
		}
		queued = append(queued, f)
	}

	_, err = s.Submit(subject("overflow"))
	e, ok := auditerr.As(err)
	if !ok || e.Code != auditerr.CodeQueueFull {
		t.Fatalf("got %v, want QUEUE_FULL", err)
	}
	if e.RetryAfter != auditerr.DefaultRetryAfter {
		t.Fatalf("RetryAfter = %v", e.RetryAfter)
	}
	if st := s.Stats(); st.QueueDepth != 2 || st.InFlight != 1 {
		t.Fatalf("rejected submit changed state: %+v", st)
	}

	close(ex.Block)
	for _, f := range append([]*Future{running}, queued...) {
		if _, err := wait(t, f); err != nil {
			t.Fatalf("task failed: %v", err)
		}
	}
	if n := ex.CallCount(); n != 3 {
		t.Fatalf("calls = %d, want 3 (overflow must never run)", n)
	}
}

func TestDispatch_TimeoutFreesSlot(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.TaskTimeout = 50 * time.Millisecond

	var calls atomic.Int32
	var sawCancel atomic.Bool
	runner := RunnerFunc(func(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			sawCancel.Store(true)
			return nil, ctx.Err()
		}
		return &model.RawFacts{Name: model.Some(req.SubjectName)}, nil
	})
	s := newScheduler(t, cfg, runner)

	slow, _ := s.Submit(subject("slow"))
	fast, _ := s.Submit(subject("fast"))

	_, err := wait(t, slow)
	if auditerr.CodeOf(err) != auditerr.CodeTaskTimeout {
		t.Fatalf("got %v, want TASK_TIMEOUT", err)
	}
	facts, err := wait(t, fast)
	if err != nil {
		t.Fatalf("follow-up task failed: %v", err)
	}
	if facts.Name.OrElse("") != "fast" {
		t.Fatalf("unexpected facts %+v", facts)
	}
	eventually(t, sawCancel.Load)
	if st := s.Stats(); st.TotalProcessed != 2 || st.TotalFailed != 1 || st.InFlight != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestDispatch_TimeoutWhenRunnerIgnoresContext(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.TaskTimeout = 40 * time.Millisecond
	release := make(chan struct{})
	defer close(release)
	runner := RunnerFunc(func(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error) {
		<-release
		return &model.RawFacts{}, nil
	})
	s := newScheduler(t, cfg, runner)

	f, _ := s.Submit(subject("stuck"))
	start := time.Now()
	_, err := wait(t, f)
	if auditerr.CodeOf(err) != auditerr.CodeTaskTimeout {
		t.Fatalf("got %v, want TASK_TIMEOUT", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout took %s", elapsed)
	}
	eventually(t, func() bool { return s.Stats().InFlight == 0 })
}

func TestDispatch_CountsFailures(t *testing.T) {
	t.Parallel()

	ex := &testutil.StubExtractor{Script: []testutil.ExtractResult{
		{Err: auditerr.New(auditerr.CodeSubjectNotFound, "nope")},
		{Facts: &model.RawFacts{}},
	}}
	s := newScheduler(t, testConfig(), stubRunner(ex))

	a, _ := s.Submit(subject("a"))
	b, _ := s.Submit(subject("b"))
	if _, err := wait(t, a); auditerr.CodeOf(err) != auditerr.CodeSubjectNotFound {
		t.Fatalf("got %v", err)
	}
	if _, err := wait(t, b); err != nil {
		t.Fatal(err)
	}
	st := s.Stats()
	if st.TotalProcessed != 2 || st.TotalFailed != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.LastDispatchTime == nil {
		t.Fatal("LastDispatchTime not set")
	}
}

func TestSubmit_ValidatesRequest(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, testConfig(), stubRunner(&testutil.StubExtractor{}))
	_, err := s.Submit(model.AuditRequest{SubjectName: "only name"})
	if auditerr.CodeOf(err) != auditerr.CodeMissingFields {
		t.Fatalf("got %v, want MISSING_FIELDS", err)
	}
	if st := s.Stats(); st.QueueDepth != 0 {
		t.Fatalf("invalid request was queued: %+v", st)
	}
}

func TestPauseResume(t *testing.T) {
	t.Parallel()

	ex := &testutil.StubExtractor{}
	s := newScheduler(t, testConfig(), stubRunner(ex))

	s.Pause()
	f, err := s.Submit(subject("held"))
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(40 * time.Millisecond)
	if ex.CallCount() != 0 {
		t.Fatal("task dispatched while paused")
	}
	if st := s.Stats(); !st.Paused || st.QueueDepth != 1 {
		t.Fatalf("stats = %+v", st)
	}

	s.Resume()
	if _, err := wait(t, f); err != nil {
		t.Fatal(err)
	}
	if s.Stats().Paused {
		t.Fatal("still paused after Resume")
	}
}

func TestClear_ResolvesQueued(t *testing.T) {
	t.Parallel()

	ex := &testutil.StubExtractor{}
	s := newScheduler(t, testConfig(), stubRunner(ex))

	s.Pause()
	a, _ := s.Submit(subject("a"))
	b, _ := s.Submit(subject("b"))

	if n := s.Clear(); n != 2 {
		t.Fatalf("Clear dropped %d, want 2", n)
	}
	for _, f := range []*Future{a, b} {
		if _, err := wait(t, f); auditerr.CodeOf(err) != auditerr.CodeQueueCleared {
			t.Fatalf("got %v, want QUEUE_CLEARED", err)
		}
	}
	s.Resume()
	time.Sleep(20 * time.Millisecond)
	if ex.CallCount() != 0 {
		t.Fatal("cleared task was dispatched")
	}
}

func TestClose_ResolvesPendingAndRejectsSubmits(t *testing.T) {
	t.Parallel()

	s, err := New(testConfig(), stubRunner(&testutil.StubExtractor{}), nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Pause()
	f, _ := s.Submit(subject("pending"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := wait(t, f); auditerr.CodeOf(err) != auditerr.CodeSchedulerClosed {
		t.Fatalf("got %v, want SCHEDULER_CLOSED", err)
	}
	if _, err := s.Submit(subject("late")); auditerr.CodeOf(err) != auditerr.CodeSchedulerClosed {
		t.Fatalf("got %v, want SCHEDULER_CLOSED", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestWait_CallerGivingUpDoesNotCancelTask(t *testing.T) {
	t.Parallel()

	ex := &testutil.StubExtractor{Block: make(chan struct{})}
	s := newScheduler(t, testConfig(), stubRunner(ex))

	f, _ := s.Submit(subject("patient"))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
	if st := s.Stats(); st.InFlight != 1 {
		t.Fatalf("task should still be running: %+v", st)
	}

	close(ex.Block)
	if _, err := wait(t, f); err != nil {
		t.Fatalf("task failed after caller left: %v", err)
	}
	if ex.Canceled() != 0 {
		t.Fatal("task ctx was cancelled by the caller")
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	r := stubRunner(&testutil.StubExtractor{})
	bad := []Config{
		{MaxDepth: 0, TaskTimeout: time.Second},
		{MaxDepth: 1, TaskTimeout: 0},
		{MaxDepth: 1, TaskTimeout: time.Second, MinInterval: -time.Second},
		{MaxDepth: 1, TaskTimeout: time.Second, MinInterval: 0},
	}
	for _, cfg := range bad {
		if _, err := New(cfg, r, nil); err == nil {
			t.Errorf("New(%+v) succeeded", cfg)
		}
	}
}
