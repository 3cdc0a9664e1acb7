package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/testutil"
)

func sampleBreakdown(total int) model.ScoreBreakdown {
	return model.ScoreBreakdown{
		TotalScore: total,
		StatusTier: model.TierWarning,
		Categories: []model.Category{{
			Name: "Website", Earned: 10, Max: 10,
			Lines: []model.Line{{Tier: model.TierSuccess, Text: "Website link present (+10)"}},
		}},
	}
}

func TestResultCache_FreshnessWindow(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c := New(DefaultConfig(), NewMemoryBackend(), clock, &testutil.DummyLogger{})
	ctx := context.Background()

	c.Store(ctx, "cafe|pune", sampleBreakdown(60), model.RawFacts{Rating: model.Some(3.9)})

	clock.Advance(23*time.Hour + 59*time.Minute)
	e, ok := c.Lookup(ctx, "cafe|pune")
	if !ok {
		t.Fatal("expected hit inside the window")
	}
	if e.Breakdown.TotalScore != 60 || e.Facts.Rating.OrElse(0) != 3.9 {
		t.Fatalf("unexpected entry %+v", e)
	}

	clock.Advance(time.Minute)
	if _, ok := c.Lookup(ctx, "cafe|pune"); ok {
		t.Fatal("entry exactly TTL old must be stale")
	}

	if st := c.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestResultCache_PreviousIgnoresFreshness(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c := New(DefaultConfig(), NewMemoryBackend(), clock, nil)
	ctx := context.Background()

	c.Store(ctx, "k", sampleBreakdown(40), model.RawFacts{})
	clock.Advance(48 * time.Hour)

	if _, ok := c.Lookup(ctx, "k"); ok {
		t.Fatal("expected stale miss")
	}
	prev, ok := c.Previous(ctx, "k")
	if !ok || prev.Breakdown.TotalScore != 40 {
		t.Fatalf("Previous = %+v, %v", prev, ok)
	}
	if _, ok := c.Previous(ctx, "missing"); ok {
		t.Fatal("Previous found a missing key")
	}
}

func TestResultCache_LastWriteWins(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c := New(DefaultConfig(), NewMemoryBackend(), clock, nil)
	ctx := context.Background()

	c.Store(ctx, "k", sampleBreakdown(10), model.RawFacts{})
	clock.Advance(time.Hour)
	c.Store(ctx, "k", sampleBreakdown(90), model.RawFacts{})

	e, ok := c.Lookup(ctx, "k")
	if !ok || e.Breakdown.TotalScore != 90 {
		t.Fatalf("got %+v, want the later store", e)
	}
	if !e.CapturedAt.Equal(clock.Now()) {
		t.Fatalf("CapturedAt = %v, want %v", e.CapturedAt, clock.Now())
	}
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) (*model.CacheEntry, error) {
	return nil, errors.New("disk on fire")
}

func (failingBackend) Put(context.Context, *model.CacheEntry) error {
	return errors.New("disk on fire")
}

func (failingBackend) Close() error { return nil }

func TestResultCache_BackendFailuresDegradeToMiss(t *testing.T) {
	t.Parallel()

	logger := &testutil.DummyLogger{}
	c := New(DefaultConfig(), failingBackend{}, nil, logger)
	ctx := context.Background()

	c.Store(ctx, "k", sampleBreakdown(50), model.RawFacts{})
	if _, ok := c.Lookup(ctx, "k"); ok {
		t.Fatal("expected miss")
	}
	if logger.WarnCount() < 2 {
		t.Fatalf("expected store and lookup failures to be logged, got %d warnings", logger.WarnCount())
	}
}

func TestResultCache_NilBackendAlwaysMisses(t *testing.T) {
	t.Parallel()

	c := New(DefaultConfig(), nil, nil, nil)
	ctx := context.Background()
	c.Store(ctx, "k", sampleBreakdown(50), model.RawFacts{})
	if _, ok := c.Lookup(ctx, "k"); ok {
		t.Fatal("expected miss")
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache", "audit.db")
	b, err := OpenSQLiteBackend(path)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	captured := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := &model.CacheEntry{
		Key:       "cafe|pune",
		Breakdown: sampleBreakdown(70),
		Facts: model.RawFacts{
			IsClaimed: model.Some(false),
			Website:   model.Some("https://cafe.example.com"),
		},
		CapturedAt: captured,
	}
	if err := b.Put(ctx, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	out, err := b.Get(ctx, "cafe|pune")
	if err != nil || out == nil {
		t.Fatalf("Get = %v, %v", out, err)
	}
	if !out.CapturedAt.Equal(captured) {
		t.Errorf("CapturedAt = %v, want %v", out.CapturedAt, captured)
	}
	if out.Breakdown.TotalScore != 70 || len(out.Breakdown.Categories) != 1 {
		t.Errorf("breakdown = %+v", out.Breakdown)
	}
	if v, ok := out.Facts.IsClaimed.Get(); !ok || v {
		t.Errorf("IsClaimed = (%v, %v), want present false", v, ok)
	}
	if out.Facts.Rating.Present() {
		t.Error("absent Rating came back present")
	}

	missing, err := b.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing key: %v, %v", missing, err)
	}
}

func TestSQLiteBackend_UpsertAndPrune(t *testing.T) {
	t.Parallel()

	b, err := OpenSQLiteBackend(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	ctx := context.Background()

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := old.Add(72 * time.Hour)
	_ = b.Put(ctx, &model.CacheEntry{Key: "a", Breakdown: sampleBreakdown(1), CapturedAt: old})
	_ = b.Put(ctx, &model.CacheEntry{Key: "a", Breakdown: sampleBreakdown(2), CapturedAt: fresh})
	_ = b.Put(ctx, &model.CacheEntry{Key: "b", Breakdown: sampleBreakdown(3), CapturedAt: old})

	a, _ := b.Get(ctx, "a")
	if a.Breakdown.TotalScore != 2 {
		t.Fatalf("upsert kept old value: %+v", a.Breakdown)
	}

	n, err := b.Prune(ctx, old.Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v; want 1", n, err)
	}
	if gone, _ := b.Get(ctx, "b"); gone != nil {
		t.Fatal("pruned entry still present")
	}
}

func TestResultCache_WithSQLiteBackend(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "c.db")})
	if err != nil {
		t.Fatal(err)
	}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 5, 12, 0, 0, 0, time.UTC))
	c := New(DefaultConfig(), b, clock, nil)
	defer c.Close()
	ctx := context.Background()

	c.Store(ctx, "k", sampleBreakdown(80), model.RawFacts{})
	if _, ok := c.Lookup(ctx, "k"); !ok {
		t.Fatal("expected hit")
	}
	clock.Advance(25 * time.Hour)
	if _, ok := c.Lookup(ctx, "k"); ok {
		t.Fatal("expected stale miss")
	}
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if b, err := NewBackend(Config{}); err != nil || b == nil {
		t.Fatalf("default backend = %v, %v", b, err)
	}
	if b, err := NewBackend(Config{Backend: "none"}); err != nil || b != nil {
		t.Fatalf("none backend = %v, %v", b, err)
	}
	if _, err := NewBackend(Config{Backend: "redis"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestResultCache_PruneKeepsStaleEntriesInsideRetention(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.Retention = 48 * time.Hour
	backend := NewMemoryBackend()
	c := New(cfg, backend, clock, nil)
	ctx := context.Background()

	c.Store(ctx, "old", sampleBreakdown(40), model.RawFacts{})
	clock.Advance(48 * time.Hour)
	c.Store(ctx, "recent", sampleBreakdown(70), model.RawFacts{})

	// old is stale but still inside TTL + retention.
	if n := c.Prune(ctx); n != 0 {
		t.Fatalf("Prune removed %d entries, want 0", n)
	}
	if _, ok := c.Previous(ctx, "old"); !ok {
		t.Fatal("stale entry inside retention must stay for change detection")
	}

	clock.Advance(24*time.Hour + time.Second)
	if n := c.Prune(ctx); n != 1 {
		t.Fatalf("Prune removed %d entries, want 1", n)
	}
	if _, ok := c.Previous(ctx, "old"); ok {
		t.Fatal("entry past retention survived")
	}
	if backend.Len() != 1 {
		t.Fatalf("backend holds %d entries, want 1", backend.Len())
	}
}

func TestResultCache_StorePrunesPeriodically(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.Retention = time.Hour
	cfg.PruneEvery = 2
	b, err := NewBackend(Config{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "c.db")})
	if err != nil {
		t.Fatal(err)
	}
	c := New(cfg, b, clock, nil)
	defer c.Close()
	ctx := context.Background()

	c.Store(ctx, "a", sampleBreakdown(10), model.RawFacts{})
	clock.Advance(26 * time.Hour)
	c.Store(ctx, "b", sampleBreakdown(20), model.RawFacts{})

	if _, ok := c.Previous(ctx, "a"); ok {
		t.Fatal("second store should have pruned the expired entry")
	}
	if _, ok := c.Previous(ctx, "b"); !ok {
		t.Fatal("fresh entry was pruned")
	}
}

func TestResultCache_PruneWithoutRetentionIsNoop(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	cfg := DefaultConfig()
	cfg.Retention = 0
	c := New(cfg, NewMemoryBackend(), clock, nil)
	ctx := context.Background()

	c.Store(ctx, "a", sampleBreakdown(10), model.RawFacts{})
	clock.Advance(365 * 24 * time.Hour)
	if n := c.Prune(ctx); n != 0 {
		t.Fatalf("Prune removed %d entries with retention disabled", n)
	}
}
