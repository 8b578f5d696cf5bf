package selection

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// HistorySize is how many transitions a Machine remembers.
const HistorySize = 64

// Transition records one accepted event that changed the state.
type Transition struct {
	Seq   uint64 `json:"seq"`
	Event Event  `json:"event"`
	From  State  `json:"from"`
	To    State  `json:"to"`
}

// Config tunes the machine's timing.
type Config struct {
	// FrameInterval coalesces hover updates; zero applies them immediately.
	FrameInterval time.Duration
	// LeaveDelay defers the hover clear after a pointer leave; zero clears immediately.
	LeaveDelay time.Duration
	Scheduler  Scheduler
}

// Machine serializes selection events and owns the frame and leave timers.
type Machine struct {
	mu    sync.Mutex
	state State
	ctx   Context

	frame        *Timer
	leave        *Timer
	pendingHover string

	seq       uint64
	history   []Transition
	listeners []func(Transition)
}

// NewMachine creates an idle machine with an empty context.
func NewMachine(cfg Config) *Machine {
	sched := cfg.Scheduler
	if sched == nil {
		sched = WallClock
	}
	return &Machine{
		frame:   NewTimer(sched, cfg.FrameInterval),
		leave:   NewTimer(sched, cfg.LeaveDelay),
		history: make([]Transition, 0, HistorySize),
	}
}

// OnTransition registers fn to run after every state change, outside the machine lock.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// PointerEnter hovers code, cancelling any pending deferred clear. Hover
// updates are coalesced to one per frame.
func (m *Machine) PointerEnter(code string) {
	m.mu.Lock()
	m.leave.Cancel()

	if m.frame.Delay() <= 0 {
		tr, ok, _ := m.applyLocked(Event{Kind: EventHover, Code: code})
		m.unlockAndNotify(tr, ok)
		return
	}

	m.pendingHover = code
	if !m.frame.Pending() {
		m.frame.Schedule(m.flushFrame)
	}
	m.mu.Unlock()
}

func (m *Machine) flushFrame(tok Token) {
	m.mu.Lock()
	if !m.frame.Claim(tok) {
		m.mu.Unlock()
		return
	}
	code := m.pendingHover
	m.pendingHover = ""
	tr, ok, _ := m.applyLocked(Event{Kind: EventHover, Code: code})
	m.unlockAndNotify(tr, ok)
}

// PointerLeave schedules a deferred hover clear. Any PointerEnter before the
// delay elapses cancels it.
func (m *Machine) PointerLeave(code string) {
	m.mu.Lock()
	log.Debug().Str("code", code).Msg("Pointer left jurisdiction")

	if m.leave.Delay() <= 0 {
		m.frame.Cancel()
		m.pendingHover = ""
		tr, ok, _ := m.applyLocked(Event{Kind: EventHoverClear})
		m.unlockAndNotify(tr, ok)
		return
	}

	m.leave.Schedule(m.flushLeave)
	m.mu.Unlock()
}

func (m *Machine) flushLeave(tok Token) {
	m.mu.Lock()
	if !m.leave.Claim(tok) {
		m.mu.Unlock()
		return
	}
	m.frame.Cancel()
	m.pendingHover = ""
	tr, ok, _ := m.applyLocked(Event{Kind: EventHoverClear})
	m.unlockAndNotify(tr, ok)
}

// Click selects code. While a year filter is active only codes scheduled in
// that year are accepted; the result reports whether the click was accepted.
func (m *Machine) Click(code string) bool {
	return m.dispatch(Event{Kind: EventClick, Code: code})
}

// SelectYear toggles the year filter and clears hover and selection. Years
// outside the active timeline are rejected.
func (m *Machine) SelectYear(year int) bool {
	return m.dispatch(Event{Kind: EventSelectYear, Year: year})
}

// Deselect clears the selection only.
func (m *Machine) Deselect() {
	m.dispatch(Event{Kind: EventDeselect})
}

// ClearAll returns to Idle and cancels every pending timer.
func (m *Machine) ClearAll() {
	m.dispatch(Event{Kind: EventClearAll})
}

// SetContext installs new read-only context. A change of line of business clears everything.
func (m *Machine) SetContext(ctx Context) {
	m.mu.Lock()
	lobChanged := m.ctx.LOB != ctx.LOB
	m.ctx = ctx
	if !lobChanged {
		m.mu.Unlock()
		return
	}
	log.Debug().Str("lob", string(ctx.LOB)).Msg("Line of business changed, clearing selection")
	m.cancelTimersLocked()
	tr, ok, _ := m.applyLocked(Event{Kind: EventClearAll})
	m.unlockAndNotify(tr, ok)
}

// Reset installs ctx and unconditionally clears the state. Called after each upload.
func (m *Machine) Reset(ctx Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.cancelTimersLocked()
	tr, ok, _ := m.applyLocked(Event{Kind: EventClearAll})
	m.unlockAndNotify(tr, ok)
}

func (m *Machine) dispatch(e Event) bool {
	m.mu.Lock()
	tr, changed, accepted := m.applyLocked(e)
	if accepted && (e.Kind == EventSelectYear || e.Kind == EventClearAll) {
		m.cancelTimersLocked()
	}
	m.unlockAndNotify(tr, changed)
	return accepted
}

func (m *Machine) cancelTimersLocked() {
	m.frame.Cancel()
	m.leave.Cancel()
	m.pendingHover = ""
}

// applyLocked runs the reducer and records a transition when the state changed.
func (m *Machine) applyLocked(e Event) (tr Transition, changed, accepted bool) {
	next, ok := Reduce(m.state, e, m.ctx)
	if !ok {
		log.Debug().Str("event", string(e.Kind)).Str("code", e.Code).Int("year", e.Year).Msg("Selection event rejected")
		return Transition{}, false, false
	}
	if next == m.state {
		return Transition{}, false, true
	}

	m.seq++
	tr = Transition{Seq: m.seq, Event: e, From: m.state, To: next}
	m.state = next

	if len(m.history) == HistorySize {
		copy(m.history, m.history[1:])
		m.history = m.history[:HistorySize-1]
	}
	m.history = append(m.history, tr)
	return tr, true, true
}

func (m *Machine) unlockAndNotify(tr Transition, changed bool) {
	var listeners []func(Transition)
	if changed {
		listeners = append(listeners, m.listeners...)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(tr)
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Context returns the installed context.
func (m *Machine) Context() Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

// DimSet returns the codes to de-emphasise for the current state.
func (m *Machine) DimSet() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DimSet(m.state, m.ctx)
}

// ActiveCode returns the hovered code, else the selected one.
func (m *Machine) ActiveCode() string {
	return m.State().ActiveCode()
}

// History returns the most recent transitions, oldest first.
func (m *Machine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}
