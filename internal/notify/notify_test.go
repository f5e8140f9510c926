package notify

import (
	"testing"
	"time"
)

func TestShowStacksNotices(t *testing.T) {
	ch := NewChannel()
	ch.Show("saved", KindSuccess)
	ch.Show("slow network", KindWarning)
	ch.Show("save failed", KindError)

	got := ch.Active()
	if len(got) != 3 {
		t.Fatalf("expected 3 active notices, got %d", len(got))
	}
	if got[0].Message != "saved" || got[2].Kind != KindError {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestExpiryPolicy(t *testing.T) {
	now := time.Unix(1000, 0)
	ch := NewChannel(WithClock(func() time.Time { return now }))

	ch.Show("info notice", KindInfo)
	ch.Show("error notice", KindError)

	// Past the default TTL but inside the error TTL.
	now = now.Add(6 * time.Second)
	got := ch.Active()
	if len(got) != 1 {
		t.Fatalf("expected only the error to survive, got %d notices", len(got))
	}
	if got[0].Kind != KindError {
		t.Fatalf("expected error notice, got %s", got[0].Kind)
	}

	now = now.Add(3 * time.Second)
	if got := ch.Active(); len(got) != 0 {
		t.Fatalf("expected all notices expired, got %d", len(got))
	}
}

func TestDismiss(t *testing.T) {
	ch := NewChannel()
	ch.Show("one", KindInfo)
	ch.Show("two", KindInfo)

	first := ch.Active()[0]
	ch.Dismiss(first.ID)
	ch.Dismiss(9999) // unknown: ignored

	got := ch.Active()
	if len(got) != 1 || got[0].Message != "two" {
		t.Fatalf("expected only %q to remain, got %+v", "two", got)
	}
}

func TestListener(t *testing.T) {
	var seen []Notice
	ch := NewChannel(WithListener(func(n Notice) { seen = append(seen, n) }))
	ch.Show("hello", KindInfo)
	if len(seen) != 1 || seen[0].Message != "hello" {
		t.Fatalf("listener not invoked: %+v", seen)
	}
}
