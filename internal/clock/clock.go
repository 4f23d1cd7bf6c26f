// Package clock is the countdown shown while a session is open for attendance.
package clock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultDuration is how long a session stays open once a student opens it.
const DefaultDuration = 7200 * time.Second

// Clock counts down whole seconds and closes Ended exactly once at zero.
// There is no pause, resume or extension.
type Clock struct {
	mu        sync.Mutex
	remaining int
	ended     chan struct{}
	interval  time.Duration
}

// New starts a clock at d, truncated to whole seconds. A non-positive d uses
// DefaultDuration.
func New(d time.Duration) *Clock {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Clock{
		remaining: int(d / time.Second),
		ended:     make(chan struct{}),
		interval:  time.Second,
	}
}

// Tick removes one second. It reports whether this tick ended the clock.
func (c *Clock) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining <= 0 {
		return false
	}
	c.remaining--
	if c.remaining == 0 {
		close(c.ended)
		return true
	}
	return false
}

// Run ticks once per second until the clock ends or ctx is cancelled.
func (c *Clock) Run(ctx context.Context) {
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ended:
			return
		case <-t.C:
			if c.Tick() {
				return
			}
		}
	}
}

// Remaining is the time left.
func (c *Clock) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.remaining) * time.Second
}

// Ended is closed when the countdown reaches zero.
func (c *Clock) Ended() <-chan struct{} { return c.ended }

func (c *Clock) IsEnded() bool {
	select {
	case <-c.ended:
		return true
	default:
		return false
	}
}

func (c *Clock) String() string { return Format(c.Remaining()) }

// Format renders d as H:MM:SS. Hours are not padded.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total%3600/60, total%60)
}
