package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Expiry policy: errors linger longer than everything else.
const (
	errorTTL   = 8 * time.Second
	defaultTTL = 5 * time.Second
)

type Notice struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Kind      Kind   `json:"kind"`
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Notifier is the sink the rest of the engine reports user-facing
// messages to. Implementations must not block or fail.
type Notifier interface {
	Show(message string, kind Kind)
}

type Clock func() time.Time

// Channel is an in-memory queue of transient notices. Expired notices
// are pruned lazily on read, so no background timer is needed.
type Channel struct {
	mu       sync.Mutex
	seq      int64
	active   []Notice
	now      Clock
	listener func(Notice)
}

type Option func(*Channel)

// WithClock overrides time.Now, for tests.
func WithClock(c Clock) Option { return func(ch *Channel) { ch.now = c } }

// WithListener registers a callback invoked for every notice shown.
// The hosting surface typically renders from here.
func WithListener(fn func(Notice)) Option { return func(ch *Channel) { ch.listener = fn } }

func NewChannel(opts ...Option) *Channel {
	ch := &Channel{now: time.Now}
	for _, o := range opts {
		o(ch)
	}
	return ch
}

func (c *Channel) Show(message string, kind Kind) {
	ttl := defaultTTL
	if kind == KindError {
		ttl = errorTTL
	}
	c.mu.Lock()
	c.seq++
	now := c.now()
	n := Notice{
		ID:        c.seq,
		Message:   message,
		Kind:      kind,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	c.prune(now)
	c.active = append(c.active, n)
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener(n)
	}
}

// Dismiss removes a notice before its expiry. Unknown IDs are ignored.
func (c *Channel) Dismiss(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			return
		}
	}
}

// Active returns the notices that have not expired or been dismissed,
// oldest first.
func (c *Channel) Active() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(c.now())
	out := make([]Notice, len(c.active))
	copy(out, c.active)
	return out
}

func (c *Channel) prune(now time.Time) {
	kept := c.active[:0]
	for _, n := range c.active {
		if n.ExpiresAt.After(now) {
			kept = append(kept, n)
		}
	}
	c.active = kept
}
