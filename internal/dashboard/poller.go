// Package dashboard keeps the teacher dashboard fresh: it polls the
// backend for new stat, activity and notification records and hands
// them to the host for rendering.
package dashboard

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/brightleaf/storyline/internal/api"
)

// Listener receives each new batch, oldest first. It runs on the
// poller goroutine; hosts that render elsewhere hand the batch off.
type Listener func(batch []api.Update)

// Poller tracks the highest update ID seen and asks only for newer
// records. Poll failures are logged and retried next interval.
type Poller struct {
	client   *api.Client
	interval time.Duration
	listener Listener

	mu     sync.Mutex
	lastID int64

	stop     chan struct{}
	stopOnce sync.Once
}

func NewPoller(client *api.Client, interval time.Duration, fn Listener) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{client: client, interval: interval, listener: fn}
}

// Poll fetches once. Exported so tests and hosts can drive refreshes
// synchronously (a manual refresh button).
func (p *Poller) Poll(ctx context.Context) error {
	p.mu.Lock()
	since := p.lastID
	p.mu.Unlock()

	batch, err := p.client.Updates(ctx, since)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	p.mu.Lock()
	for _, u := range batch {
		if u.ID > p.lastID {
			p.lastID = u.ID
		}
	}
	p.mu.Unlock()

	if p.listener != nil {
		p.listener(batch)
	}
	return nil
}

// Start runs the poll loop until Stop or ctx cancellation. The first
// poll happens after one interval.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()

	go func() {
		t := time.NewTicker(p.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-t.C:
				if err := p.Poll(ctx); err != nil {
					log.Printf("dashboard poll: %v", err)
				}
			}
		}
	}()
}

// Stop halts the loop. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		if p.stop != nil {
			close(p.stop)
		}
		p.mu.Unlock()
	})
}

// MarkRead acknowledges one notification.
func (p *Poller) MarkRead(ctx context.Context, id int64) error {
	return p.client.MarkRead(ctx, id)
}

// MarkAllRead acknowledges everything outstanding.
func (p *Poller) MarkAllRead(ctx context.Context) error {
	return p.client.MarkAllRead(ctx)
}

// ExportTo streams a dashboard export into w and returns the byte
// count.
func (p *Poller) ExportTo(ctx context.Context, what string, w io.Writer) (int64, error) {
	return p.client.Export(ctx, what, w)
}
