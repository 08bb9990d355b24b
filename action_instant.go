package bramble

import "time"

// instant is the base of actions that complete on their first step without
// consuming time.
type instant struct {
	actionBase
}

func (a *instant) init() {}

func (a *instant) Reset() { a.resetBase() }

// fire runs fn once and completes, handing the whole dt to whatever follows.
func (a *instant) fire(dt time.Duration, fn func(*Node)) (bool, time.Duration) {
	if a.target != nil {
		fn(a.target)
	}
	return true, dt
}

// --- CallFunc ---

// CallFunc invokes a function once.
type CallFunc struct {
	instant
	fn func()
}

// NewCallFunc returns an action that calls fn once.
func NewCallFunc(fn func()) *CallFunc {
	return &CallFunc{fn: fn}
}

func (a *CallFunc) step(dt time.Duration) (bool, time.Duration) {
	if a.fn != nil {
		a.fn()
	}
	return true, dt
}

func (a *CallFunc) Clone() Action {
	c := NewCallFunc(a.fn)
	a.copyMeta(&c.actionBase)
	return c
}

// --- Visibility ---

// Show makes the target visible.
type Show struct{ instant }

// NewShow returns an action that makes its target visible.
func NewShow() *Show { return &Show{} }

func (a *Show) step(dt time.Duration) (bool, time.Duration) {
	return a.fire(dt, func(n *Node) { n.SetVisible(true) })
}

func (a *Show) Clone() Action {
	c := NewShow()
	a.copyMeta(&c.actionBase)
	return c
}

func (a *Show) Reverse() Action { return NewHide() }

// Hide makes the target invisible.
type Hide struct{ instant }

// NewHide returns an action that hides its target.
func NewHide() *Hide { return &Hide{} }

func (a *Hide) step(dt time.Duration) (bool, time.Duration) {
	return a.fire(dt, func(n *Node) { n.SetVisible(false) })
}

func (a *Hide) Clone() Action {
	c := NewHide()
	a.copyMeta(&c.actionBase)
	return c
}

func (a *Hide) Reverse() Action { return NewShow() }

// ToggleVisible flips the target's visibility.
type ToggleVisible struct{ instant }

// NewToggleVisible returns an action that flips its target's visibility.
func NewToggleVisible() *ToggleVisible { return &ToggleVisible{} }

func (a *ToggleVisible) step(dt time.Duration) (bool, time.Duration) {
	return a.fire(dt, func(n *Node) { n.SetVisible(!n.visible) })
}

func (a *ToggleVisible) Clone() Action {
	c := NewToggleVisible()
	a.copyMeta(&c.actionBase)
	return c
}

func (a *ToggleVisible) Reverse() Action { return NewToggleVisible() }

// --- RemoveSelf ---

// RemoveSelf detaches the target from its parent. With dispose set the
// target is disposed as well, which also stops every action bound to it.
type RemoveSelf struct {
	instant
	dispose bool
}

// NewRemoveSelf returns an action that detaches its target, disposing it
// when dispose is true.
func NewRemoveSelf(dispose bool) *RemoveSelf {
	return &RemoveSelf{dispose: dispose}
}

func (a *RemoveSelf) step(dt time.Duration) (bool, time.Duration) {
	return a.fire(dt, func(n *Node) {
		if a.dispose {
			n.Dispose()
			return
		}
		n.RemoveFromParent()
	})
}

func (a *RemoveSelf) Clone() Action {
	c := NewRemoveSelf(a.dispose)
	a.copyMeta(&c.actionBase)
	return c
}
