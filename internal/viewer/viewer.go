// Package viewer implements sequential navigation over a fixed ordered
// sequence: story pages for a reader, questions for a quiz taker.
package viewer

import (
	"context"
	"errors"
	"fmt"
)

// Progress is what the backend wants to know after every step.
type Progress struct {
	ContextID string
	Position  int
	Completed bool
}

// ProgressSink receives a report for every arrival at an index. A sink
// must never block navigation: implementations swallow transport
// failures (falling back to local storage if they care).
type ProgressSink interface {
	Report(ctx context.Context, p Progress)
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(ctx context.Context, p Progress)

func (f SinkFunc) Report(ctx context.Context, p Progress) { f(ctx, p) }

// LoadFunc is invoked for the item at every newly current index: the
// host swaps displayed media and text, and stops any narration still
// playing from the previous item, before the new one loads.
type LoadFunc func(index int)

// Viewer tracks a cursor over N items. The cursor is always within
// 1..N; advancing past N triggers completion instead.
type Viewer struct {
	contextID string
	total     int
	current   int
	completed bool

	load       LoadFunc
	sink       ProgressSink
	onComplete func()
}

type Option func(*Viewer)

func WithLoad(fn LoadFunc) Option        { return func(v *Viewer) { v.load = fn } }
func WithProgress(s ProgressSink) Option { return func(v *Viewer) { v.sink = s } }
func OnComplete(fn func()) Option        { return func(v *Viewer) { v.onComplete = fn } }

// New builds a viewer over total items starting at startAt (clamped
// into range). total must be at least 1.
func New(contextID string, total, startAt int, opts ...Option) (*Viewer, error) {
	if total < 1 {
		return nil, errors.New("viewer needs at least one item")
	}
	if startAt < 1 {
		startAt = 1
	}
	if startAt > total {
		startAt = total
	}
	v := &Viewer{contextID: contextID, total: total, current: startAt}
	for _, o := range opts {
		o(v)
	}
	return v, nil
}

func (v *Viewer) Current() int    { return v.current }
func (v *Viewer) Total() int      { return v.total }
func (v *Viewer) Completed() bool { return v.completed }

// AtLast reports whether the next advance would complete the session.
func (v *Viewer) AtLast() bool { return v.current == v.total }

// Percent is the progress fraction for display, 0..100.
func (v *Viewer) Percent() float64 {
	return float64(v.current) / float64(v.total) * 100
}

// Open loads the starting item and reports initial progress. Call once
// after construction.
func (v *Viewer) Open(ctx context.Context) { v.arrive(ctx) }

// Prev steps back one item. At the first item it is a no-op, not an
// error; reports whether the cursor moved.
func (v *Viewer) Prev(ctx context.Context) bool {
	if v.current <= 1 {
		return false
	}
	v.current--
	v.arrive(ctx)
	return true
}

// Next advances one item. At the last item it triggers completion
// instead of moving; reports whether the cursor moved.
func (v *Viewer) Next(ctx context.Context) bool {
	if v.current >= v.total {
		v.complete(ctx)
		return false
	}
	v.current++
	v.arrive(ctx)
	return true
}

// JumpTo moves the cursor to k, 1 <= k <= N.
func (v *Viewer) JumpTo(ctx context.Context, k int) error {
	if k < 1 || k > v.total {
		return fmt.Errorf("page %d out of range 1..%d", k, v.total)
	}
	v.current = k
	v.arrive(ctx)
	return nil
}

func (v *Viewer) arrive(ctx context.Context) {
	if v.load != nil {
		v.load(v.current)
	}
	v.report(ctx)
}

func (v *Viewer) report(ctx context.Context) {
	if v.sink == nil {
		return
	}
	v.sink.Report(ctx, Progress{
		ContextID: v.contextID,
		Position:  v.current,
		Completed: v.current == v.total,
	})
}

// complete is the terminal transition from position N forward. The
// completion callback runs once; the host owns any acknowledgment
// surface and follow-on hand-off.
func (v *Viewer) complete(ctx context.Context) {
	if v.completed {
		return
	}
	v.completed = true
	v.report(ctx)
	if v.onComplete != nil {
		v.onComplete()
	}
}
