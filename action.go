package bramble

import (
	"slices"
	"time"
)

// ActionState is the lifecycle state of an Action.
type ActionState uint8

const (
	ActionIdle    ActionState = iota // created or reset, not yet run
	ActionRunning                    // advanced every tick
	ActionPaused                     // kept but not advanced
	ActionDone                       // completed normally
	ActionStopped                    // stopped by the caller; terminal
)

var actionStateNames = [...]string{"idle", "running", "paused", "done", "stopped"}

func (s ActionState) String() string {
	if int(s) < len(actionStateNames) {
		return actionStateNames[s]
	}
	return "invalid"
}

// Action is a time-driven behavior that mutates exactly one target node.
// The set of kinds is closed: instantaneous (CallFunc, Show, Hide,
// ToggleVisible, RemoveSelf, Script), gradual (MoveBy, MoveTo, ScaleBy,
// ScaleTo, RotateBy, RotateTo, OpacityBy, OpacityTo, Fade, Delay) and
// composite (Sequence, Spawn, Repeat).
type Action interface {
	Name() string
	SetName(name string)
	Target() *Node
	State() ActionState
	IsRunning() bool
	Elapsed() time.Duration

	Pause()
	Resume()
	Stop()
	// Reset returns the action to its initial state. A running or paused
	// action keeps its state; a done or stopped one goes back to idle.
	Reset()
	// Clone returns an independent, unbound copy.
	Clone() Action

	base() *actionBase
	bind(target *Node)
	// init captures start values from the target before the first step.
	init()
	// step advances by dt. It reports completion and the part of dt left
	// over after completing.
	step(dt time.Duration) (done bool, rest time.Duration)
}

// Reversible is implemented by actions with a time-symmetric inverse.
type Reversible interface {
	Action
	// Reverse returns a new unbound action producing the inverse effect over
	// the same duration, or nil if some part has no inverse.
	Reverse() Action
}

// actionBase holds the state shared by every action kind.
type actionBase struct {
	name       string
	nameHash   uint64
	target     *Node
	state      ActionState
	elapsed    time.Duration
	inited     bool
	registered bool
	removed    bool
}

func (b *actionBase) base() *actionBase { return b }

func (b *actionBase) Name() string { return b.name }

func (b *actionBase) SetName(name string) {
	b.name = name
	b.nameHash = hashName(name)
}

func (b *actionBase) Target() *Node          { return b.target }
func (b *actionBase) State() ActionState     { return b.state }
func (b *actionBase) IsRunning() bool        { return b.state == ActionRunning }
func (b *actionBase) Elapsed() time.Duration { return b.elapsed }

func (b *actionBase) Pause() {
	if b.state == ActionRunning {
		b.state = ActionPaused
	}
}

func (b *actionBase) Resume() {
	if b.state == ActionPaused {
		b.state = ActionRunning
	}
}

func (b *actionBase) Stop() {
	if b.state != ActionDone {
		b.state = ActionStopped
	}
}

func (b *actionBase) bind(target *Node) { b.target = target }

// resetBase clears timing state shared by every kind.
func (b *actionBase) resetBase() {
	b.elapsed = 0
	b.inited = false
	if b.state == ActionDone || b.state == ActionStopped {
		b.state = ActionIdle
	}
}

// copyMeta copies the name onto a clone.
func (b *actionBase) copyMeta(dst *actionBase) {
	dst.name = b.name
	dst.nameHash = b.nameHash
}

func (b *actionBase) matches(h uint64, name string) bool {
	return b.nameHash == h && b.name == name
}

// advance inits a on its first step and steps it, moving it to done when it
// completes. Used by the manager and by composites for their children.
func advance(a Action, dt time.Duration) (done bool, rest time.Duration) {
	b := a.base()
	if !b.inited {
		b.inited = true
		a.init()
	}
	done, rest = a.step(dt)
	if done && b.state != ActionStopped {
		b.state = ActionDone
	}
	return done, rest
}

// --- Manager ---

// actionManager is the engine's registry of running actions. Removals during
// a pass are marked and compacted afterwards; actions added during a pass
// first run on the next tick.
type actionManager struct {
	actions []Action
}

func (m *actionManager) add(a Action) {
	b := a.base()
	b.removed = false
	if b.registered {
		return
	}
	b.registered = true
	m.actions = append(m.actions, a)
}

// run advances every running action whose target is in the active scene.
// Returns how many were advanced.
func (m *actionManager) run(e *Engine, dt time.Duration) int {
	count := 0
	n := len(m.actions)
	for i := 0; i < n; i++ {
		a := m.actions[i]
		b := a.base()
		if b.removed || b.state != ActionRunning || !e.InActiveScene(b.target) {
			continue
		}
		count++
		advance(a, dt)
	}
	m.compact()
	return count
}

func (m *actionManager) compact() {
	m.actions = slices.DeleteFunc(m.actions, func(a Action) bool {
		b := a.base()
		if b.removed || b.state == ActionDone || b.state == ActionStopped {
			b.registered = false
			b.removed = false
			return true
		}
		return false
	})
}

// removeTarget drops every action bound to n.
func (m *actionManager) removeTarget(n *Node) {
	for _, a := range m.actions {
		if b := a.base(); b.target == n {
			b.removed = true
			b.state = ActionStopped
		}
	}
}

// each calls fn for every live registered action, optionally filtered by
// target and name. An empty name matches every action.
func (m *actionManager) each(target *Node, name string, fn func(Action)) {
	h := hashName(name)
	for _, a := range m.actions {
		b := a.base()
		if b.removed {
			continue
		}
		if target != nil && b.target != target {
			continue
		}
		if name != "" && !b.matches(h, name) {
			continue
		}
		fn(a)
	}
}

// --- Node API ---

// RunAction binds a to this node and starts it. An action already bound to a
// different node is rejected; re-running an action on its own target resets it.
func (n *Node) RunAction(a Action) {
	if !assertf(a != nil, "RunAction: nil action") {
		return
	}
	if !assertf(!n.disposed && n.engine != nil, "RunAction on disposed or detached-engine node %q", n.name) {
		return
	}
	b := a.base()
	if !assertf(b.target == nil || b.target == n,
		"action %q is already bound to node %q", b.name, targetName(b.target)) {
		return
	}
	if b.target == n {
		a.Reset()
	} else {
		a.bind(n)
	}
	b.state = ActionRunning
	n.engine.actions.add(a)
}

func targetName(n *Node) string {
	if n == nil {
		return ""
	}
	return n.name
}

// Action returns the first live action on this node with the given name, or nil.
func (n *Node) Action(name string) Action {
	var found Action
	if n.engine == nil {
		return nil
	}
	n.engine.actions.each(n, name, func(a Action) {
		if found == nil {
			found = a
		}
	})
	return found
}

// Actions returns every live action on this node with the given name.
func (n *Node) Actions(name string) []Action {
	var out []Action
	if n.engine == nil {
		return nil
	}
	n.engine.actions.each(n, name, func(a Action) { out = append(out, a) })
	return out
}

// PauseAction pauses this node's actions with the given name.
func (n *Node) PauseAction(name string) { n.eachAction(name, Action.Pause) }

// ResumeAction resumes this node's actions with the given name.
func (n *Node) ResumeAction(name string) { n.eachAction(name, Action.Resume) }

// StopAction stops this node's actions with the given name.
func (n *Node) StopAction(name string) { n.eachAction(name, Action.Stop) }

// PauseAllActions pauses every action bound to this node.
func (n *Node) PauseAllActions() { n.eachAction("", Action.Pause) }

// ResumeAllActions resumes every action bound to this node.
func (n *Node) ResumeAllActions() { n.eachAction("", Action.Resume) }

// StopAllActions stops every action bound to this node.
func (n *Node) StopAllActions() { n.eachAction("", Action.Stop) }

func (n *Node) eachAction(name string, fn func(Action)) {
	if n.engine == nil {
		return
	}
	n.engine.actions.each(n, name, fn)
}

// --- Engine API ---

// PauseActions pauses every action with the given name, on any node.
func (e *Engine) PauseActions(name string) { e.eachNamedAction(name, Action.Pause) }

// ResumeActions resumes every action with the given name, on any node.
func (e *Engine) ResumeActions(name string) { e.eachNamedAction(name, Action.Resume) }

// StopActions stops every action with the given name, on any node.
func (e *Engine) StopActions(name string) { e.eachNamedAction(name, Action.Stop) }

// ActionsNamed returns every live action with the given name.
func (e *Engine) ActionsNamed(name string) []Action {
	var out []Action
	e.eachNamedAction(name, func(a Action) { out = append(out, a) })
	return out
}

// NumActions returns the number of registered actions, including paused ones.
func (e *Engine) NumActions() int {
	count := 0
	e.actions.each(nil, "", func(Action) { count++ })
	return count
}

func (e *Engine) eachNamedAction(name string, fn func(Action)) {
	if name == "" {
		warnf("action lookup with empty name")
		return
	}
	e.actions.each(nil, name, fn)
}
