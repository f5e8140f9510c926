package session

import "testing"

func TestCountdownToExpiry(t *testing.T) {
	expirations := 0
	s := New(5, OnExpire(func() { expirations++ }))

	for i := 0; i < 5; i++ {
		s.Tick()
	}
	if s.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", s.Remaining())
	}
	if s.State() != Expired {
		t.Fatalf("expected Expired, got %s", s.State())
	}
	if expirations != 1 {
		t.Fatalf("terminal callback invoked %d times", expirations)
	}

	// Stray ticks after expiry must not re-fire or go negative.
	s.Tick()
	s.Tick()
	if expirations != 1 || s.Remaining() != 0 {
		t.Fatalf("stray ticks changed state: expirations=%d remaining=%d", expirations, s.Remaining())
	}
}

func TestWarningsFireOncePerThreshold(t *testing.T) {
	var fired []int
	s := New(310, WithWarnings([]int{300, 60, 30}), OnWarning(func(left int) { fired = append(fired, left) }))

	for i := 0; i < 15; i++ {
		s.Tick()
	}
	if len(fired) != 1 || fired[0] != 300 {
		t.Fatalf("expected a single 300s warning, got %v", fired)
	}
}

func TestWarningsAfterSkippedTicks(t *testing.T) {
	var fired []int
	s := New(600, WithWarnings([]int{300, 60, 30}), OnWarning(func(left int) { fired = append(fired, left) }))

	// Tab suspension: the persisted remaining jumps straight past two
	// thresholds. Each must still fire exactly once.
	s.Resume(45)
	s.Tick()
	if len(fired) != 2 || fired[0] != 300 || fired[1] != 60 {
		t.Fatalf("expected crossed thresholds fired once each, got %v", fired)
	}
	s.Tick()
	if len(fired) != 2 {
		t.Fatalf("thresholds re-fired: %v", fired)
	}

	s.Resume(31)
	s.Tick() // 30
	if len(fired) != 3 || fired[2] != 30 {
		t.Fatalf("expected 30s warning, got %v", fired)
	}
}

func TestPauseStopsTicks(t *testing.T) {
	s := New(100)
	s.Start()
	s.Pause()
	if s.State() != Paused {
		t.Fatalf("expected Paused, got %s", s.State())
	}

	// A paused session still accepts synthetic ticks; Start resumes.
	r := s.Remaining()
	s.Start()
	if s.State() != Running {
		t.Fatalf("expected Running after resume, got %s", s.State())
	}
	s.Stop()
	if s.Remaining() > r {
		t.Fatalf("remaining increased")
	}
}

func TestResumeClampsAndExpiredIsTerminal(t *testing.T) {
	s := New(60)
	s.Resume(500)
	if s.Remaining() != 60 {
		t.Fatalf("resume should clamp to total, got %d", s.Remaining())
	}
	s.Resume(-5)
	if s.Remaining() != 0 {
		t.Fatalf("resume should clamp at 0, got %d", s.Remaining())
	}

	s.Tick()
	if s.State() != Expired {
		t.Fatalf("expected expiry at 0")
	}
	s.Resume(30)
	if s.Remaining() != 0 {
		t.Fatalf("expired session must not resume")
	}
	s.Start()
	if s.State() != Expired {
		t.Fatalf("expired session must not restart")
	}
}

func TestDisplay(t *testing.T) {
	s := New(605)
	if got := s.Display(); got != "10:05" {
		t.Fatalf("display = %q", got)
	}
	s.Resume(9)
	if got := s.Display(); got != "00:09" {
		t.Fatalf("display = %q", got)
	}
}
