package selection

import (
	"sync"
	"time"
)

// Handle stops a scheduled callback. Stop reports whether the call prevented it from running.
type Handle interface {
	Stop() bool
}

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Handle
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Handle {
	return time.AfterFunc(d, f)
}

// WallClock schedules on real time.
var WallClock Scheduler = wallClock{}

// ManualScheduler is a Scheduler driven by Advance. Callbacks run on the
// goroutine calling Advance, in due-time order.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	owner *ManualScheduler
	at    time.Duration
	seq   uint64
	f     func()
}

// NewManualScheduler returns a scheduler at elapsed time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, at: m.now + d, seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	m := t.owner
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves the clock forward by d, running every callback that falls due.
// Callbacks scheduled by callbacks run too if they fall due within d.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		idx := -1
		for i, t := range m.timers {
			if t.at > target {
				continue
			}
			if idx < 0 || t.at < m.timers[idx].at || (t.at == m.timers[idx].at && t.seq < m.timers[idx].seq) {
				idx = i
			}
		}
		if idx < 0 {
			m.now = target
			m.mu.Unlock()
			return
		}
		due := m.timers[idx]
		m.timers = append(m.timers[:idx], m.timers[idx+1:]...)
		m.now = due.at
		m.mu.Unlock()

		due.f()
	}
}

// Elapsed returns the simulated time since creation.
func (m *ManualScheduler) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of callbacks not yet run or stopped.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
