package bramble

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

var (
	// ErrNoActiveScene is returned by Tick when no scene has been entered.
	ErrNoActiveScene = errors.New("bramble: no active scene")
	// ErrClosed is returned by Tick after Close.
	ErrClosed = errors.New("bramble: engine closed")
)

// Engine is the scheduler context. It owns the action, collider, listener and
// timer registries, the active scene and scene stack, the clock and the pause
// state. Everything runs on the goroutine that calls Tick.
type Engine struct {
	cfg   Config
	clock Clock

	scene *Scene
	stack []*Scene

	actions   actionManager
	colliders colliderRegistry
	listeners listenerRegistry
	timers    timerRegistry

	started   bool
	lastTick  time.Time // game time reference, shifted on resume
	lastFrame time.Time // wall reference for fixed updates
	paused    bool
	pausedAt  time.Time
	closed    bool
	frame     uint64

	watcher *ConfigWatcher
	canvas  *Canvas
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithClock replaces the default SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// NewEngine creates an engine with the given config. Invalid config values
// are replaced by their defaults with a warning.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg.normalized(),
		clock: SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	globalDebug = e.cfg.Debug
	return e
}

// Config returns the current configuration.
func (e *Engine) Config() Config { return e.cfg }

// Clock returns the engine clock.
func (e *Engine) Clock() Clock { return e.clock }

// Now returns the engine clock's current instant.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// Frame returns the number of completed ticks.
func (e *Engine) Frame() uint64 { return e.frame }

// SetDebugMode enables or disables debug mode. When enabled, contract
// violations panic and per-tick timing stats are logged.
func (e *Engine) SetDebugMode(enabled bool) {
	e.cfg.Debug = enabled
	globalDebug = enabled
}

// SetShowColliders toggles collider outline drawing.
func (e *Engine) SetShowColliders(show bool) {
	e.cfg.ShowColliders = show
}

// applyConfig swaps in a reloaded config. Geometry is rebuilt on the next
// flush in case the flatten tolerance changed.
func (e *Engine) applyConfig(cfg Config) {
	cfg = cfg.normalized()
	tolChanged := cfg.FlattenTolerance != e.cfg.FlattenTolerance
	e.cfg = cfg
	globalDebug = cfg.Debug
	if tolChanged && e.scene != nil {
		markSubtreeDirty(e.scene.root)
	}
}

// Close stops the config watcher and makes further ticks fail with ErrClosed.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			return fmt.Errorf("close config watcher: %w", err)
		}
		e.watcher = nil
	}
	return nil
}

// --- Scenes ---

// ActiveScene returns the active scene, or nil.
func (e *Engine) ActiveScene() *Scene { return e.scene }

// InActiveScene reports whether node belongs to the active scene.
func (e *Engine) InActiveScene(node *Node) bool {
	return node != nil && e.scene != nil && node.scene == e.scene
}

// EnterScene makes s the active scene. When saveCurrent is true the previous
// scene is pushed onto the scene stack for BackScene.
func (e *Engine) EnterScene(s *Scene, saveCurrent bool) {
	if !assertf(s != nil, "EnterScene: nil scene") {
		return
	}
	if !assertf(s.engine == e, "EnterScene: scene %q belongs to a different engine", s.name) {
		return
	}
	if s == e.scene {
		return
	}
	prev := e.scene
	if prev != nil {
		if prev.OnExit != nil {
			prev.OnExit()
		}
		if saveCurrent {
			e.stack = append(e.stack, prev)
		}
	}
	e.switchTo(s)
}

// BackScene returns to the most recently saved scene. Warns and does nothing
// when the stack is empty.
func (e *Engine) BackScene() {
	if len(e.stack) == 0 {
		warnf("BackScene: scene stack is empty")
		return
	}
	s := e.stack[len(e.stack)-1]
	e.stack[len(e.stack)-1] = nil
	e.stack = e.stack[:len(e.stack)-1]
	if e.scene != nil && e.scene.OnExit != nil {
		e.scene.OnExit()
	}
	e.switchTo(s)
}

// ClearSceneStack drops every saved scene.
func (e *Engine) ClearSceneStack() {
	clear(e.stack)
	e.stack = e.stack[:0]
}

// SceneStackDepth returns the number of saved scenes.
func (e *Engine) SceneStackDepth() int { return len(e.stack) }

func (e *Engine) switchTo(s *Scene) {
	e.scene = s
	// Every collider of the entering scene gets re-tested.
	markSubtreeDirty(s.root)
	if s.OnEnter != nil {
		s.OnEnter()
	}
}

func (e *Engine) dropFromStack(s *Scene) {
	for i, saved := range e.stack {
		if saved == s {
			e.stack = append(e.stack[:i], e.stack[i+1:]...)
			return
		}
	}
}

// --- Pause ---

// Pause freezes game time: node OnUpdate callbacks, actions, timers and
// physics stop advancing. Rendering and OnFixedUpdate continue.
func (e *Engine) Pause() {
	if e.paused {
		return
	}
	e.paused = true
	e.pausedAt = e.clock.Now()
}

// Resume unfreezes game time. The paused span is discounted entirely from
// timer intervals and the next tick's delta.
func (e *Engine) Resume() {
	if !e.paused {
		return
	}
	now := e.clock.Now()
	span := now.Sub(e.pausedAt)
	if span < 0 {
		span = 0
	}
	e.paused = false
	if e.started {
		e.lastTick = e.lastTick.Add(span)
	}
	e.timers.shift(e.pausedAt, now)
}

// IsPaused reports whether the engine is paused.
func (e *Engine) IsPaused() bool { return e.paused }

// --- Tick ---

// Tick runs one update step: timers, actions, the update traversal, a
// transform flush and collision dispatch, in that order.
func (e *Engine) Tick() error {
	if e.closed {
		return ErrClosed
	}
	e.drainReloads()

	now := e.clock.Now()
	if !e.started {
		e.started = true
		e.lastTick = now
		e.lastFrame = now
	}
	fixedDT := now.Sub(e.lastFrame)
	e.lastFrame = now
	var dt time.Duration
	if !e.paused {
		dt = now.Sub(e.lastTick)
		e.lastTick = now
	}
	if dt < 0 {
		dt = 0
	}
	if fixedDT < 0 {
		fixedDT = 0
	}

	if e.scene == nil {
		return ErrNoActiveScene
	}

	var stats tickStats
	var t0 time.Time
	debug := e.cfg.Debug
	if debug {
		t0 = time.Now()
	}

	if !e.paused {
		stats.timers = e.timers.run(e, now)
	}
	if debug {
		stats.timerTime = time.Since(t0)
		t0 = time.Now()
	}

	if !e.paused {
		stats.actions = e.actions.run(e, dt)
	}
	if debug {
		stats.actionTime = time.Since(t0)
		t0 = time.Now()
	}

	e.updateNode(e.scene.root, dt.Seconds(), fixedDT.Seconds())
	flushTransforms(e.scene.root)
	if cam := e.scene.camera; cam != nil && !e.paused {
		cam.update(dt.Seconds())
	}
	if debug {
		stats.updateTime = time.Since(t0)
		t0 = time.Now()
	}

	if !e.paused {
		stats.colliders, stats.dispatches = e.physicsProc()
	}
	if debug {
		stats.physicsTime = time.Since(t0)
		e.debugLog(stats)
	}

	e.frame++
	return nil
}

// updateNode runs the update traversal for n's subtree. The child list is
// snapshotted so callbacks may attach or detach nodes; detached children are
// skipped and newly attached ones are first visited next tick.
func (e *Engine) updateNode(n *Node, dt, fixedDT float64) {
	if n.transformDirty {
		updateTransform(n)
	}
	n.sortChildren()

	snap := append(n.iterBuf[:0], n.children...)
	n.iterBuf = nil

	i := 0
	for ; i < len(snap) && snap[i].order < 0; i++ {
		if c := snap[i]; c.parent == n {
			e.updateNode(c, dt, fixedDT)
		}
	}
	if n.autoUpdate && !n.disposed {
		if !e.paused && n.OnUpdate != nil {
			n.OnUpdate(dt)
		}
		if n.OnFixedUpdate != nil {
			n.OnFixedUpdate(fixedDT)
		}
	}
	for ; i < len(snap); i++ {
		if c := snap[i]; c.parent == n {
			e.updateNode(c, dt, fixedDT)
		}
	}

	clear(snap)
	if !n.disposed {
		n.iterBuf = snap[:0]
	}
}

// releaseNode unregisters everything bound to a node being disposed.
func (e *Engine) releaseNode(n *Node) {
	n.RemoveCollider()
	e.actions.removeTarget(n)
	e.listeners.removeNode(n)
	e.timers.removeNode(n)
}

// --- ebiten.Game ---

// Update implements ebiten.Game. A missing scene is not fatal; Close ends the
// game loop.
func (e *Engine) Update() error {
	err := e.Tick()
	switch {
	case err == nil, errors.Is(err, ErrNoActiveScene):
		return nil
	case errors.Is(err, ErrClosed):
		return ebiten.Termination
	default:
		return err
	}
}

// Draw implements ebiten.Game.
func (e *Engine) Draw(screen *ebiten.Image) {
	if e.canvas == nil || e.canvas.Target() != screen {
		e.canvas = NewCanvas(screen)
	}
	e.Render(e.canvas)
}

// Layout implements ebiten.Game using the configured logical size.
func (e *Engine) Layout(outsideWidth, outsideHeight int) (int, int) {
	return e.cfg.Width, e.cfg.Height
}
