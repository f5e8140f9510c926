// Package session implements the countdown attached to a timed quiz
// attempt: warning thresholds, pause/resume, and a forced terminal
// action at expiry.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	Running
	Paused
	Expired // terminal, no resume
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// DefaultWarnings are the remaining-seconds thresholds that trigger a
// warning, highest first.
var DefaultWarnings = []int{300, 60, 30}

// Session is a tick-counted countdown. It decrements once per
// delivered tick rather than deriving remaining time from a deadline,
// so a suspended host simply stops the clock. See the package tests
// for the threshold semantics.
type Session struct {
	mu sync.Mutex

	total     int
	remaining int
	state     State

	warnings []int // descending
	fired    map[int]bool

	onWarn   func(secondsLeft int)
	onExpire func() // terminal callback, invoked exactly once

	stop chan struct{}
}

type Option func(*Session)

// WithWarnings replaces the default warning thresholds.
func WithWarnings(thresholds []int) Option {
	return func(s *Session) {
		s.warnings = append([]int(nil), thresholds...)
		sort.Sort(sort.Reverse(sort.IntSlice(s.warnings)))
	}
}

// OnWarning registers the threshold callback. Each threshold fires at
// most once per session.
func OnWarning(fn func(secondsLeft int)) Option {
	return func(s *Session) { s.onWarn = fn }
}

// OnExpire registers the terminal callback. The session guarantees a
// single invocation, but callers should make the action idempotent
// anyway; re-entry from a stalled tick source is possible upstream.
func OnExpire(fn func()) Option {
	return func(s *Session) { s.onExpire = fn }
}

func New(totalSeconds int, opts ...Option) *Session {
	s := &Session{
		total:     totalSeconds,
		remaining: totalSeconds,
		warnings:  append([]int(nil), DefaultWarnings...),
		fired:     map[int]bool{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Elapsed reports seconds consumed so far, for "time taken" reporting.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total - s.remaining
}

// Display renders the remaining time as MM:SS.
func (s *Session) Display() string {
	r := s.Remaining()
	return fmt.Sprintf("%02d:%02d", r/60, r%60)
}

// Start moves Idle or Paused to Running and begins consuming ticks at
// one-second granularity. A no-op if already running or expired.
func (s *Session) Start() {
	s.mu.Lock()
	if s.state == Running || s.state == Expired {
		s.mu.Unlock()
		return
	}
	s.state = Running
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if !s.Tick() {
					return
				}
			}
		}
	}()
}

// Pause cancels the tick source: Running -> Paused. No-op otherwise.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return
	}
	s.state = Paused
	s.cancelLocked()
}

// Stop terminates the tick source without expiring. Used on teardown.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		s.state = Paused
	}
	s.cancelLocked()
}

func (s *Session) cancelLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// Resume sets the remaining counter directly, e.g. from a persisted
// value after a reload. No reconciliation against wall-clock elapsed
// time is attempted. No-op once expired.
func (s *Session) Resume(remainingSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Expired {
		return
	}
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	if remainingSeconds > s.total {
		remainingSeconds = s.total
	}
	s.remaining = remainingSeconds
}

// Tick advances the countdown by one second. Exported so tests and
// external tick sources can drive the session synthetically. Returns
// false once the session has expired; stray ticks after expiry are
// ignored.
func (s *Session) Tick() bool {
	s.mu.Lock()
	if s.state == Expired {
		s.mu.Unlock()
		return false
	}
	s.remaining--
	if s.remaining < 0 {
		s.remaining = 0
	}

	var warnAt []int
	for _, th := range s.warnings {
		if s.remaining <= th && !s.fired[th] {
			s.fired[th] = true
			warnAt = append(warnAt, th)
		}
	}

	expired := s.remaining == 0
	if expired {
		s.state = Expired
		s.cancelLocked()
	}
	onWarn, onExpire := s.onWarn, s.onExpire
	s.mu.Unlock()

	if onWarn != nil && !expired {
		for _, th := range warnAt {
			onWarn(th)
		}
	}
	if expired {
		if onExpire != nil {
			onExpire()
		}
		return false
	}
	return true
}
