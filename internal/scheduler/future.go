package scheduler

import (
	"context"
	"sync"

	"github.com/raysh454/bizaudit/internal/model"
)

// Future is the pending outcome of a submitted task. It resolves exactly once.
type Future struct {
	id   string
	done chan struct{}
	once sync.Once

	facts *model.RawFacts
	err   error
}

func newFuture(id string) *Future {
	return &Future{id: id, done: make(chan struct{})}
}

// ID is the task identifier assigned at submit time.
func (f *Future) ID() string { return f.id }

// Done is closed once the future resolves.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the task resolves or ctx ends. Giving up on ctx does
// not cancel the task; it keeps its slot until it finishes or times out.
func (f *Future) Wait(ctx context.Context) (*model.RawFacts, error) {
	select {
	case <-f.done:
		return f.facts, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve reports whether this call was the one that resolved f.
func (f *Future) resolve(facts *model.RawFacts, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.facts, f.err = facts, err
		close(f.done)
		resolved = true
	})
	return resolved
}
