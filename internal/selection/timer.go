package selection

import (
	"sync"
	"time"
)

// Token identifies one arming of a Timer.
type Token uint64

// Timer is a single logical deferred action. Each Schedule call returns a new
// token and invalidates every earlier one, so a callback that was already
// running when it got superseded or cancelled can detect that with Claim.
type Timer struct {
	sched Scheduler
	delay time.Duration

	mu      sync.Mutex
	last    Token
	current Token
	pending bool
	handle  Handle
}

// NewTimer creates a timer that fires delay after each Schedule.
func NewTimer(sched Scheduler, delay time.Duration) *Timer {
	if sched == nil {
		sched = WallClock
	}
	return &Timer{sched: sched, delay: delay}
}

// Schedule arms the timer. fire receives the token it was armed with.
func (t *Timer) Schedule(fire func(Token)) Token {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle != nil {
		t.handle.Stop()
	}
	t.last++
	tok := t.last
	t.current = tok
	t.pending = true
	t.handle = t.sched.AfterFunc(t.delay, func() { fire(tok) })
	return tok
}

// Cancel disarms the timer. It reports whether a schedule was pending.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasPending := t.pending
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
	t.pending = false
	t.current = 0
	return wasPending
}

// Claim consumes tok if it is still the live arming. A fired callback must
// Claim before acting; false means it was cancelled or superseded.
func (t *Timer) Claim(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.pending || tok != t.current {
		return false
	}
	t.pending = false
	t.handle = nil
	return true
}

// Pending reports whether the timer is armed.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Delay returns the configured delay.
func (t *Timer) Delay() time.Duration {
	return t.delay
}
