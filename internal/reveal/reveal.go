package reveal

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultStep     = 12
	DefaultInterval = 40 * time.Millisecond
)

// Revealer shows text progressively: a growing prefix every interval, then
// the full text. At most one reveal runs at a time. Starting a new one or
// calling Stop cancels the current reveal, which then jumps to its full text
// so the superseded message is never left half-shown.
type Revealer struct {
	step     int
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(step int, interval time.Duration) *Revealer {
	if step <= 0 {
		step = DefaultStep
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Revealer{step: step, interval: interval}
}

// Start begins revealing text through update, which is called from a
// separate goroutine. The returned channel is closed once update has
// received the full text.
func (r *Revealer) Start(ctx context.Context, text string, update func(string)) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go r.run(ctx, text, update, done)
	return done
}

// Stop cancels the in-flight reveal, if any, and waits for it to flush.
func (r *Revealer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Revealer) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}

func (r *Revealer) run(ctx context.Context, text string, update func(string), done chan struct{}) {
	defer close(done)
	runes := []rune(text)
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for i := 1; i <= len(runes); i += r.step {
		update(string(runes[:i]))
		timer.Reset(r.interval)
		select {
		case <-ctx.Done():
			update(text)
			return
		case <-timer.C:
		}
	}
	update(text)
}
