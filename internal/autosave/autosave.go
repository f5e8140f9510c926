// Package autosave drives the Clean -> Dirty -> Clean cycle of a
// draft: a fixed-interval tick flushes dirty state to the backend and
// a best-effort flush runs when the author navigates away.
package autosave

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/brightleaf/storyline/internal/notify"
)

// SaveFunc serializes the current draft and sends it to the backend.
// Implementations come from the owning editor.
type SaveFunc func(ctx context.Context) error

// Runner tracks the dirty flag for one draft. Every edit bumps a
// generation counter; a save completion is applied only when no edit
// has happened since its snapshot was taken, so a stale response never
// clears newer unsaved work.
type Runner struct {
	mu    sync.Mutex
	dirty bool
	gen   uint64

	save     SaveFunc
	interval time.Duration
	notifier notify.Notifier

	stop     chan struct{}
	stopOnce sync.Once
}

func New(save SaveFunc, interval time.Duration, notifier notify.Notifier) *Runner {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Runner{save: save, interval: interval, notifier: notifier}
}

// MarkDirty records an unsaved edit. The host reads Unsaved for its
// title decoration.
func (r *Runner) MarkDirty() {
	r.mu.Lock()
	r.dirty = true
	r.gen++
	r.mu.Unlock()
}

func (r *Runner) Unsaved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// Tick is one autosave interval: a no-op when clean; on dirty it
// flushes and, on success, clears the flag and tells the author. A
// failed save is logged and left dirty for the next tick, it never
// propagates.
func (r *Runner) Tick(ctx context.Context) {
	r.mu.Lock()
	if !r.dirty {
		r.mu.Unlock()
		return
	}
	gen := r.gen
	r.mu.Unlock()

	if err := r.save(ctx); err != nil {
		log.Printf("autosave failed (will retry): %v", err)
		return
	}

	r.mu.Lock()
	applied := gen == r.gen
	if applied {
		r.dirty = false
	}
	r.mu.Unlock()

	if applied && r.notifier != nil {
		r.notifier.Show("Auto-saved successfully", notify.KindSuccess)
	}
}

// MarkSaved clears the flag after a save the runner did not perform
// itself, an explicit save from the editor toolbar.
func (r *Runner) MarkSaved() {
	r.mu.Lock()
	r.dirty = false
	r.mu.Unlock()
}

// Flush saves regardless of interval, with the same generation rules.
func (r *Runner) Flush(ctx context.Context) {
	r.mu.Lock()
	dirty := r.dirty
	r.mu.Unlock()
	if dirty {
		r.Tick(ctx)
	}
}

// FlushOnExit runs one best-effort save and reports whether unsaved
// work remains, in which case the host should ask the user to confirm
// leaving. Hosts that cannot veto navigation just skip the prompt.
func (r *Runner) FlushOnExit(ctx context.Context) (promptBeforeLeaving bool) {
	r.Flush(ctx)
	return r.Unsaved()
}

// Start runs the autosave loop until Stop or ctx cancellation.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.stop != nil {
		r.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	r.stop = stop
	r.mu.Unlock()

	go func() {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-t.C:
				r.Tick(ctx)
			}
		}
	}()
}

func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		if r.stop != nil {
			close(r.stop)
		}
		r.mu.Unlock()
	})
}
