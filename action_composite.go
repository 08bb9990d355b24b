package bramble

import "time"

// composite is the base of actions built from child actions. Children are
// owned by the composite: they are bound to its target and never registered
// with the engine on their own.
type composite struct {
	actionBase
	children []Action
}

func (c *composite) bind(target *Node) {
	c.actionBase.bind(target)
	for _, child := range c.children {
		child.bind(target)
	}
}

func (c *composite) init() {}

func (c *composite) Reset() {
	c.resetBase()
	for _, child := range c.children {
		child.Reset()
		child.base().state = ActionIdle
	}
}

// Actions returns the child actions. The returned slice MUST NOT be mutated.
func (c *composite) Actions() []Action { return c.children }

func (c *composite) cloneChildren() []Action {
	out := make([]Action, len(c.children))
	for i, child := range c.children {
		out[i] = child.Clone()
	}
	return out
}

// reverseChildren reverses every child, or returns nil if any child has no
// inverse.
func (c *composite) reverseChildren() []Action {
	out := make([]Action, len(c.children))
	for i, child := range c.children {
		r, ok := child.(Reversible)
		if !ok {
			warnf("reverse: action %T has no inverse", child)
			return nil
		}
		rc := r.Reverse()
		if rc == nil {
			return nil
		}
		out[i] = rc
	}
	return out
}

// adopt validates children for a new composite.
func adopt(kind string, actions []Action) []Action {
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		if !assertf(a != nil, "%s: nil child action", kind) {
			continue
		}
		if !assertf(a.Target() == nil, "%s: child action %q is already bound", kind, a.Name()) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// --- Sequence ---

// Sequence runs its children one after another. Time left over when a child
// finishes flows into the next child within the same tick.
type Sequence struct {
	composite
	index int
}

// NewSequence returns an action running actions in order.
func NewSequence(actions ...Action) *Sequence {
	return &Sequence{composite: composite{children: adopt("sequence", actions)}}
}

func (s *Sequence) Reset() {
	s.composite.Reset()
	s.index = 0
}

func (s *Sequence) step(dt time.Duration) (bool, time.Duration) {
	s.elapsed += dt
	for s.index < len(s.children) {
		done, rest := advance(s.children[s.index], dt)
		if !done {
			return false, 0
		}
		s.index++
		dt = rest
	}
	return true, dt
}

func (s *Sequence) Clone() Action {
	c := NewSequence(s.cloneChildren()...)
	s.copyMeta(&c.actionBase)
	return c
}

// Reverse runs the reversed children in reverse order. Returns nil if any
// child has no inverse.
func (s *Sequence) Reverse() Action {
	rev := s.reverseChildren()
	if rev == nil {
		return nil
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	c := NewSequence(rev...)
	s.copyMeta(&c.actionBase)
	return c
}

// --- Spawn ---

// Spawn runs its children in parallel and completes when the last one does.
type Spawn struct {
	composite
	done []bool
}

// NewSpawn returns an action running actions simultaneously.
func NewSpawn(actions ...Action) *Spawn {
	children := adopt("spawn", actions)
	return &Spawn{composite: composite{children: children}, done: make([]bool, len(children))}
}

func (s *Spawn) Reset() {
	s.composite.Reset()
	clear(s.done)
}

func (s *Spawn) step(dt time.Duration) (bool, time.Duration) {
	s.elapsed += dt
	all := true
	rest := dt
	for i, child := range s.children {
		if s.done[i] {
			continue
		}
		done, r := advance(child, dt)
		if !done {
			all = false
			continue
		}
		s.done[i] = true
		rest = min(rest, r)
	}
	if !all {
		return false, 0
	}
	return true, rest
}

func (s *Spawn) Clone() Action {
	c := NewSpawn(s.cloneChildren()...)
	s.copyMeta(&c.actionBase)
	return c
}

// Reverse runs every child's inverse in parallel. Returns nil if any child
// has no inverse.
func (s *Spawn) Reverse() Action {
	rev := s.reverseChildren()
	if rev == nil {
		return nil
	}
	c := NewSpawn(rev...)
	s.copyMeta(&c.actionBase)
	return c
}

// --- Repeat ---

// Repeat runs its child a number of times, or forever when times <= 0.
type Repeat struct {
	composite
	times int
	count int
}

// NewRepeat returns an action running a times times, forever when times <= 0.
func NewRepeat(a Action, times int) *Repeat {
	return &Repeat{composite: composite{children: adopt("repeat", []Action{a})}, times: times}
}

// NewRepeatForever returns an action running a until stopped.
func NewRepeatForever(a Action) *Repeat { return NewRepeat(a, 0) }

// Count returns how many iterations have completed.
func (r *Repeat) Count() int { return r.count }

func (r *Repeat) Reset() {
	r.composite.Reset()
	r.count = 0
}

func (r *Repeat) step(dt time.Duration) (bool, time.Duration) {
	r.elapsed += dt
	if len(r.children) == 0 {
		return true, dt
	}
	child := r.children[0]
	for {
		before := dt
		done, rest := advance(child, dt)
		if !done {
			return false, 0
		}
		r.count++
		if r.times > 0 && r.count >= r.times {
			return true, rest
		}
		child.Reset()
		child.base().state = ActionIdle
		dt = rest
		// A child that completes without consuming time runs once per tick
		// when repeating forever.
		if r.times <= 0 && rest == before {
			return false, 0
		}
	}
}

func (r *Repeat) Clone() Action {
	c := &Repeat{composite: composite{children: r.cloneChildren()}, times: r.times}
	r.copyMeta(&c.actionBase)
	return c
}

// Reverse repeats the child's inverse the same number of times. Returns nil
// if the child has no inverse.
func (r *Repeat) Reverse() Action {
	rev := r.reverseChildren()
	if rev == nil {
		return nil
	}
	c := &Repeat{composite: composite{children: rev}, times: r.times}
	r.copyMeta(&c.actionBase)
	return c
}
