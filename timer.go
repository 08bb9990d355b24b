package bramble

import (
	"slices"
	"time"
)

// TimerConfig describes a timer. RepeatTimes of zero means unset and is
// treated as infinite, as is any negative value.
type TimerConfig struct {
	Name        string
	Callback    func(count int)
	RepeatTimes int
	Interval    time.Duration
	// AtOnce fires on the first tick after the timer starts instead of
	// waiting for the first interval.
	AtOnce bool
}

// Timer invokes a callback at a fixed interval, a limited number of times or
// forever. Timers bound to a node only run while the node is in the active
// scene; global timers always run. Neither runs while the engine is paused.
type Timer struct {
	name      string
	nameHash  uint64
	node      *Node
	engine    *Engine
	fn        func(count int)
	remaining int // -1 is infinite
	interval  time.Duration
	atOnce    bool

	count     int
	lastFired time.Time
	fired     bool
	running   bool
	removed   bool
}

func (t *Timer) Name() string            { return t.name }
func (t *Timer) Node() *Node             { return t.node }
func (t *Timer) Count() int              { return t.count }
func (t *Timer) Interval() time.Duration { return t.interval }
func (t *Timer) IsRunning() bool         { return t.running && !t.removed }

// Remaining returns the number of fires left, or -1 for infinite timers.
func (t *Timer) Remaining() int { return t.remaining }

// SetInterval changes the interval; it applies from the next check.
func (t *Timer) SetInterval(d time.Duration) {
	t.interval = max(d, 0)
}

// Start resumes the timer, measuring the next interval from now.
func (t *Timer) Start() {
	if t.removed {
		return
	}
	t.running = true
	t.lastFired = t.engine.clock.Now()
}

// Stop suspends the timer. It keeps its fire count and remaining budget.
func (t *Timer) Stop() { t.running = false }

// Remove unregisters the timer.
func (t *Timer) Remove() {
	if t.removed {
		return
	}
	t.running = false
	t.engine.timers.remove(t)
}

// due reports whether t should fire at now.
func (t *Timer) due(now time.Time) bool {
	if t.atOnce && !t.fired {
		return true
	}
	return now.Sub(t.lastFired) >= t.interval
}

func (t *Timer) fire(now time.Time) {
	t.lastFired = now
	t.fired = true
	count := t.count
	t.count++
	if t.remaining > 0 {
		t.remaining--
		if t.remaining == 0 {
			t.running = false
			t.engine.timers.remove(t)
		}
	}
	if t.fn != nil {
		t.fn(count)
	}
}

// --- Creation ---

// AddTimer creates and starts a global timer.
func (e *Engine) AddTimer(cfg TimerConfig) *Timer {
	return e.addTimer(cfg, nil)
}

// AddTimer creates and starts a timer bound to n.
func (n *Node) AddTimer(cfg TimerConfig) *Timer {
	if !assertf(!n.disposed && n.engine != nil, "AddTimer on disposed or detached-engine node %q", n.name) {
		return nil
	}
	return n.engine.addTimer(cfg, n)
}

func (e *Engine) addTimer(cfg TimerConfig, node *Node) *Timer {
	remaining := cfg.RepeatTimes
	if remaining <= 0 {
		remaining = -1
	}
	t := &Timer{
		name:      cfg.Name,
		nameHash:  hashName(cfg.Name),
		node:      node,
		engine:    e,
		fn:        cfg.Callback,
		remaining: remaining,
		interval:  max(cfg.Interval, 0),
		atOnce:    cfg.AtOnce,
	}
	e.timers.add(t)
	t.Start()
	return t
}

// --- Bulk control ---

// StartTimers starts every timer with the given name.
func (e *Engine) StartTimers(name string) { e.timers.eachNamed(name, (*Timer).Start) }

// StopTimers stops every timer with the given name.
func (e *Engine) StopTimers(name string) { e.timers.eachNamed(name, (*Timer).Stop) }

// RemoveTimers unregisters every timer with the given name.
func (e *Engine) RemoveTimers(name string) { e.timers.eachNamed(name, (*Timer).Remove) }

// StartTimersUnder starts every timer bound to node or a descendant.
func (e *Engine) StartTimersUnder(node *Node) { e.timers.eachUnder(node, (*Timer).Start) }

// StopTimersUnder stops every timer bound to node or a descendant.
func (e *Engine) StopTimersUnder(node *Node) { e.timers.eachUnder(node, (*Timer).Stop) }

// RemoveTimersUnder unregisters every timer bound to node or a descendant.
func (e *Engine) RemoveTimersUnder(node *Node) { e.timers.eachUnder(node, (*Timer).Remove) }

// Timers returns the live timers with the given name.
func (e *Engine) Timers(name string) []*Timer {
	var out []*Timer
	e.timers.eachNamed(name, func(t *Timer) { out = append(out, t) })
	return out
}

// NumTimers returns the number of registered timers.
func (e *Engine) NumTimers() int {
	n := 0
	for _, t := range e.timers.timers {
		if !t.removed {
			n++
		}
	}
	return n
}

// --- Registry ---

type timerRegistry struct {
	timers    []*Timer
	iterating bool
}

func (r *timerRegistry) add(t *Timer) {
	r.timers = append(r.timers, t)
}

func (r *timerRegistry) remove(t *Timer) {
	t.removed = true
	if !r.iterating {
		r.compact()
	}
}

func (r *timerRegistry) compact() {
	r.timers = slices.DeleteFunc(r.timers, func(t *Timer) bool { return t.removed })
}

func (r *timerRegistry) removeNode(n *Node) {
	for _, t := range r.timers {
		if t.node == n {
			t.running = false
			t.removed = true
		}
	}
	if !r.iterating {
		r.compact()
	}
}

// shift discounts the pause that ran from pausedAt to resumedAt. Each timer
// only skips the part of the pause it lived through, so a timer added or
// started while paused measures its interval from the resume.
func (r *timerRegistry) shift(pausedAt, resumedAt time.Time) {
	for _, t := range r.timers {
		from := t.lastFired
		if from.Before(pausedAt) {
			from = pausedAt
		}
		if d := resumedAt.Sub(from); d > 0 {
			t.lastFired = t.lastFired.Add(d)
		}
	}
}

// run fires every due timer. Timers added during the pass first run on the
// next tick. Returns how many timers fired.
func (r *timerRegistry) run(e *Engine, now time.Time) int {
	fired := 0
	r.iterating = true
	n := len(r.timers)
	for i := 0; i < n; i++ {
		t := r.timers[i]
		if t.removed || !t.running {
			continue
		}
		if t.node != nil && !e.InActiveScene(t.node) {
			continue
		}
		if t.due(now) {
			fired++
			t.fire(now)
		}
	}
	r.iterating = false
	r.compact()
	return fired
}

func (r *timerRegistry) eachNamed(name string, fn func(*Timer)) {
	if name == "" {
		warnf("timer lookup with empty name")
		return
	}
	h := hashName(name)
	for _, t := range slices.Clone(r.timers) {
		if !t.removed && t.nameHash == h && t.name == name {
			fn(t)
		}
	}
}

func (r *timerRegistry) eachUnder(node *Node, fn func(*Timer)) {
	if node == nil {
		return
	}
	for _, t := range slices.Clone(r.timers) {
		if !t.removed && t.node != nil && (t.node == node || t.node.IsDescendantOf(node)) {
			fn(t)
		}
	}
}
