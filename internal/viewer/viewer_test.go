package viewer

import (
	"context"
	"testing"
)

type recordingSink struct{ reports []Progress }

func (r *recordingSink) Report(_ context.Context, p Progress) { r.reports = append(r.reports, p) }

func TestNextAtLastTriggersCompletion(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	completions := 0
	v, err := New("story-1", 3, 3, WithProgress(sink), OnComplete(func() { completions++ }))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if moved := v.Next(ctx); moved {
		t.Fatalf("cursor advanced past N")
	}
	if v.Current() != 3 {
		t.Fatalf("cursor out of range: %d", v.Current())
	}
	if completions != 1 {
		t.Fatalf("expected one completion, got %d", completions)
	}
	last := sink.reports[len(sink.reports)-1]
	if !last.Completed || last.Position != 3 {
		t.Fatalf("completion not reported: %+v", last)
	}

	// Repeated Next at the end stays terminal and fires once.
	v.Next(ctx)
	if completions != 1 {
		t.Fatalf("completion re-fired")
	}
}

func TestPrevAtFirstIsNoop(t *testing.T) {
	ctx := context.Background()
	v, _ := New("story-1", 3, 1)
	if v.Prev(ctx) {
		t.Fatalf("Prev at 1 should be a no-op")
	}
	if v.Current() != 1 {
		t.Fatalf("cursor moved: %d", v.Current())
	}
}

func TestJumpBounds(t *testing.T) {
	ctx := context.Background()
	v, _ := New("story-1", 5, 1)
	if err := v.JumpTo(ctx, 0); err == nil {
		t.Fatalf("expected out-of-range error for 0")
	}
	if err := v.JumpTo(ctx, 6); err == nil {
		t.Fatalf("expected out-of-range error for 6")
	}
	if err := v.JumpTo(ctx, 4); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if v.Current() != 4 {
		t.Fatalf("cursor = %d", v.Current())
	}
}

func TestLoadAndProgressPerStep(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	var loaded []int
	v, _ := New("story-9", 3, 1,
		WithLoad(func(i int) { loaded = append(loaded, i) }),
		WithProgress(sink))

	v.Open(ctx)
	v.Next(ctx)
	v.Next(ctx)

	wantLoaded := []int{1, 2, 3}
	if len(loaded) != len(wantLoaded) {
		t.Fatalf("loads = %v", loaded)
	}
	for i := range wantLoaded {
		if loaded[i] != wantLoaded[i] {
			t.Fatalf("loads = %v", loaded)
		}
	}
	for i, rep := range sink.reports {
		if rep.ContextID != "story-9" || rep.Position != i+1 {
			t.Fatalf("report %d = %+v", i, rep)
		}
	}
	if !sink.reports[2].Completed {
		t.Fatalf("arrival at N should report completed")
	}
}

func TestInputNormalization(t *testing.T) {
	cases := map[string]Op{
		"ArrowLeft": OpPrev, "PageUp": OpPrev,
		"ArrowRight": OpNext, "PageDown": OpNext, " ": OpNext,
		"Home": OpFirst, "End": OpLast,
		"x": OpNone,
	}
	for key, want := range cases {
		if got := KeyOp(key); got != want {
			t.Fatalf("KeyOp(%q) = %v, want %v", key, got, want)
		}
	}

	if SwipeOp(200, 100) != OpNext {
		t.Fatalf("left swipe should advance")
	}
	if SwipeOp(100, 200) != OpPrev {
		t.Fatalf("right swipe should go back")
	}
	if SwipeOp(100, 130) != OpNone {
		t.Fatalf("short travel should be ignored")
	}

	ctx := context.Background()
	v, _ := New("s", 3, 1)
	v.Apply(ctx, OpLast)
	if v.Current() != 3 {
		t.Fatalf("OpLast: cursor = %d", v.Current())
	}
	v.Apply(ctx, OpPrev)
	if v.Current() != 2 {
		t.Fatalf("OpPrev: cursor = %d", v.Current())
	}
}
