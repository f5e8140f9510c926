package viewer

import "context"

// Op is a normalized navigation operation. Keyboard and swipe input
// both map onto these; there is no separate code path per device.
type Op int

const (
	OpNone Op = iota
	OpPrev
	OpNext
	OpFirst
	OpLast
)

// KeyOp translates a keyboard key name into a navigation op.
func KeyOp(key string) Op {
	switch key {
	case "ArrowLeft", "PageUp":
		return OpPrev
	case "ArrowRight", "PageDown", " ":
		return OpNext
	case "Home":
		return OpFirst
	case "End":
		return OpLast
	}
	return OpNone
}

// SwipeThreshold is the minimum horizontal travel that counts as a
// swipe rather than a tap.
const SwipeThreshold = 50

// SwipeOp translates a horizontal touch gesture into a navigation op.
// Swiping left advances; swiping right goes back.
func SwipeOp(startX, endX float64) Op {
	diff := startX - endX
	if diff > SwipeThreshold {
		return OpNext
	}
	if diff < -SwipeThreshold {
		return OpPrev
	}
	return OpNone
}

// Apply executes a normalized op against the viewer.
func (v *Viewer) Apply(ctx context.Context, op Op) {
	switch op {
	case OpPrev:
		v.Prev(ctx)
	case OpNext:
		v.Next(ctx)
	case OpFirst:
		_ = v.JumpTo(ctx, 1)
	case OpLast:
		_ = v.JumpTo(ctx, v.total)
	}
}
