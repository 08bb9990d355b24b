package bramble

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// gradual is the base of actions that interpolate over a fixed duration.
// Progress runs from 0 to 1 through a gween tween shaped by the ease
// function; the final step always lands on exactly 1.
type gradual struct {
	actionBase
	duration time.Duration
	easeFn   ease.TweenFunc
	tween    *gween.Tween
}

func newGradual(d time.Duration) gradual {
	if d < 0 {
		d = 0
	}
	return gradual{duration: d}
}

// Duration returns the total run time.
func (g *gradual) Duration() time.Duration { return g.duration }

// Ease returns the ease function, nil meaning linear.
func (g *gradual) Ease() ease.TweenFunc { return g.easeFn }

// SetEase shapes the progress curve. nil selects ease.Linear.
func (g *gradual) SetEase(fn ease.TweenFunc) {
	g.easeFn = fn
	g.tween = nil
}

// Progress returns the current normalized progress in [0, 1].
func (g *gradual) Progress() float64 {
	if g.duration <= 0 {
		if g.inited {
			return 1
		}
		return 0
	}
	p := float64(g.elapsed) / float64(g.duration)
	if p > 1 {
		return 1
	}
	return p
}

func (g *gradual) Reset() {
	g.resetBase()
	if g.tween != nil {
		g.tween.Reset()
	}
}

// advanceDelta accumulates dt and returns the eased progress.
func (g *gradual) advanceDelta(dt time.Duration) (delta float64, done bool, rest time.Duration) {
	g.elapsed += dt
	if g.elapsed >= g.duration {
		return 1, true, g.elapsed - g.duration
	}
	if g.tween == nil {
		fn := g.easeFn
		if fn == nil {
			fn = ease.Linear
		}
		g.tween = gween.New(0, 1, float32(g.duration.Seconds()), fn)
	}
	v, _ := g.tween.Set(float32(g.elapsed.Seconds()))
	return float64(v), false, 0
}

// copyGradual copies configuration, not timing state.
func (g *gradual) copyGradual(dst *gradual) {
	g.copyMeta(&dst.actionBase)
	dst.duration = g.duration
	dst.easeFn = g.easeFn
}

// --- Delay ---

// Delay does nothing for its duration. Used inside sequences.
type Delay struct{ gradual }

// NewDelay returns an action that waits for d.
func NewDelay(d time.Duration) *Delay {
	return &Delay{gradual: newGradual(d)}
}

func (a *Delay) init() {}

func (a *Delay) step(dt time.Duration) (bool, time.Duration) {
	_, done, rest := a.advanceDelta(dt)
	return done, rest
}

func (a *Delay) Clone() Action {
	c := NewDelay(a.duration)
	a.copyGradual(&c.gradual)
	return c
}

func (a *Delay) Reverse() Action { return a.Clone() }

// --- Move ---

// move is the shared core of MoveBy and MoveTo.
type move struct {
	gradual
	dx, dy         float64
	startX, startY float64
}

func (a *move) init() {
	if a.target != nil {
		a.startX, a.startY = a.target.x, a.target.y
	}
}

func (a *move) step(dt time.Duration) (bool, time.Duration) {
	delta, done, rest := a.advanceDelta(dt)
	if a.target != nil {
		a.target.SetPosition(a.startX+a.dx*delta, a.startY+a.dy*delta)
	}
	return done, rest
}

// MoveBy displaces the target by a vector over its duration.
type MoveBy struct{ move }

// NewMoveBy returns an action moving its target by (dx, dy) over d.
func NewMoveBy(d time.Duration, dx, dy float64) *MoveBy {
	return &MoveBy{move{gradual: newGradual(d), dx: dx, dy: dy}}
}

func (a *MoveBy) Clone() Action {
	c := NewMoveBy(a.duration, a.dx, a.dy)
	a.copyGradual(&c.gradual)
	return c
}

func (a *MoveBy) Reverse() Action {
	c := NewMoveBy(a.duration, -a.dx, -a.dy)
	a.copyGradual(&c.gradual)
	return c
}

// MoveTo moves the target to an absolute position over its duration.
type MoveTo struct {
	move
	toX, toY float64
}

// NewMoveTo returns an action moving its target to (x, y) over d.
func NewMoveTo(d time.Duration, x, y float64) *MoveTo {
	return &MoveTo{move: move{gradual: newGradual(d)}, toX: x, toY: y}
}

func (a *MoveTo) init() {
	a.move.init()
	a.dx, a.dy = a.toX-a.startX, a.toY-a.startY
}

func (a *MoveTo) Clone() Action {
	c := NewMoveTo(a.duration, a.toX, a.toY)
	a.copyGradual(&c.gradual)
	return c
}

// --- Scale ---

// scale is the shared core of ScaleBy and ScaleTo.
type scale struct {
	gradual
	dsx, dsy         float64
	startSX, startSY float64
}

func (a *scale) init() {
	if a.target != nil {
		a.startSX, a.startSY = a.target.scaleX, a.target.scaleY
	}
}

func (a *scale) step(dt time.Duration) (bool, time.Duration) {
	delta, done, rest := a.advanceDelta(dt)
	if a.target != nil {
		a.target.SetScale(a.startSX+a.dsx*delta, a.startSY+a.dsy*delta)
	}
	return done, rest
}

// ScaleBy adds to the target's scale factors over its duration.
type ScaleBy struct{ scale }

// NewScaleBy returns an action adding (dsx, dsy) to its target's scale over d.
func NewScaleBy(d time.Duration, dsx, dsy float64) *ScaleBy {
	return &ScaleBy{scale{gradual: newGradual(d), dsx: dsx, dsy: dsy}}
}

func (a *ScaleBy) Clone() Action {
	c := NewScaleBy(a.duration, a.dsx, a.dsy)
	a.copyGradual(&c.gradual)
	return c
}

func (a *ScaleBy) Reverse() Action {
	c := NewScaleBy(a.duration, -a.dsx, -a.dsy)
	a.copyGradual(&c.gradual)
	return c
}

// ScaleTo scales the target to absolute factors over its duration.
type ScaleTo struct {
	scale
	toSX, toSY float64
}

// NewScaleTo returns an action scaling its target to (sx, sy) over d.
func NewScaleTo(d time.Duration, sx, sy float64) *ScaleTo {
	return &ScaleTo{scale: scale{gradual: newGradual(d)}, toSX: sx, toSY: sy}
}

func (a *ScaleTo) init() {
	a.scale.init()
	a.dsx, a.dsy = a.toSX-a.startSX, a.toSY-a.startSY
}

func (a *ScaleTo) Clone() Action {
	c := NewScaleTo(a.duration, a.toSX, a.toSY)
	a.copyGradual(&c.gradual)
	return c
}

// --- Rotate ---

// rotate is the shared core of RotateBy and RotateTo.
type rotate struct {
	gradual
	dr    float64
	start float64
}

func (a *rotate) init() {
	if a.target != nil {
		a.start = a.target.rotation
	}
}

func (a *rotate) step(dt time.Duration) (bool, time.Duration) {
	delta, done, rest := a.advanceDelta(dt)
	if a.target != nil {
		a.target.SetRotation(a.start + a.dr*delta)
	}
	return done, rest
}

// RotateBy adds to the target's rotation (radians) over its duration.
type RotateBy struct{ rotate }

// NewRotateBy returns an action rotating its target by dr radians over d.
func NewRotateBy(d time.Duration, dr float64) *RotateBy {
	return &RotateBy{rotate{gradual: newGradual(d), dr: dr}}
}

func (a *RotateBy) Clone() Action {
	c := NewRotateBy(a.duration, a.dr)
	a.copyGradual(&c.gradual)
	return c
}

func (a *RotateBy) Reverse() Action {
	c := NewRotateBy(a.duration, -a.dr)
	a.copyGradual(&c.gradual)
	return c
}

// RotateTo rotates the target to an absolute angle over its duration.
type RotateTo struct {
	rotate
	to float64
}

// NewRotateTo returns an action rotating its target to r radians over d.
func NewRotateTo(d time.Duration, r float64) *RotateTo {
	return &RotateTo{rotate: rotate{gradual: newGradual(d)}, to: r}
}

func (a *RotateTo) init() {
	a.rotate.init()
	a.dr = a.to - a.start
}

func (a *RotateTo) Clone() Action {
	c := NewRotateTo(a.duration, a.to)
	a.copyGradual(&c.gradual)
	return c
}

// --- Opacity ---

// fade is the shared core of the opacity actions. The node clamps the
// result to [0, 1].
type fade struct {
	gradual
	do    float64
	start float64
}

func (a *fade) init() {
	if a.target != nil {
		a.start = a.target.realOpacity
	}
}

func (a *fade) step(dt time.Duration) (bool, time.Duration) {
	delta, done, rest := a.advanceDelta(dt)
	if a.target != nil {
		a.target.SetOpacity(a.start + a.do*delta)
	}
	return done, rest
}

// OpacityBy adds to the target's opacity over its duration.
type OpacityBy struct{ fade }

// NewOpacityBy returns an action adding do to its target's opacity over d.
func NewOpacityBy(d time.Duration, do float64) *OpacityBy {
	return &OpacityBy{fade{gradual: newGradual(d), do: do}}
}

func (a *OpacityBy) Clone() Action {
	c := NewOpacityBy(a.duration, a.do)
	a.copyGradual(&c.gradual)
	return c
}

func (a *OpacityBy) Reverse() Action {
	c := NewOpacityBy(a.duration, -a.do)
	a.copyGradual(&c.gradual)
	return c
}

// OpacityTo fades the target to an absolute opacity over its duration.
type OpacityTo struct {
	fade
	to float64
}

// NewOpacityTo returns an action fading its target to o over d.
func NewOpacityTo(d time.Duration, o float64) *OpacityTo {
	return &OpacityTo{fade: fade{gradual: newGradual(d)}, to: clamp01(o)}
}

func (a *OpacityTo) init() {
	a.fade.init()
	a.do = a.to - a.start
}

func (a *OpacityTo) Clone() Action {
	c := NewOpacityTo(a.duration, a.to)
	a.copyGradual(&c.gradual)
	return c
}

// Fade fades the target fully in or fully out.
type Fade struct {
	OpacityTo
}

// NewFadeIn returns an action fading its target to opacity 1 over d.
func NewFadeIn(d time.Duration) *Fade {
	return &Fade{OpacityTo: *NewOpacityTo(d, 1)}
}

// NewFadeOut returns an action fading its target to opacity 0 over d.
func NewFadeOut(d time.Duration) *Fade {
	return &Fade{OpacityTo: *NewOpacityTo(d, 0)}
}

func (a *Fade) Clone() Action {
	c := &Fade{OpacityTo: *NewOpacityTo(a.duration, a.to)}
	a.copyGradual(&c.gradual)
	return c
}

// Reverse turns a fade-in into a fade-out and vice versa.
func (a *Fade) Reverse() Action {
	c := &Fade{OpacityTo: *NewOpacityTo(a.duration, 1-a.to)}
	a.copyGradual(&c.gradual)
	return c
}
