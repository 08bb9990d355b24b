package bramble

import "slices"

// PhysicsContext describes one collision dispatch. Relation is stated from
// the active collider's point of view.
type PhysicsContext struct {
	Active   *Collider
	Passive  *Collider
	Relation Relation

	// Captured when the dispatch starts. A listener may dispose either node,
	// which detaches its collider for the listeners after it.
	activeNode  *Node
	passiveNode *Node
}

// ActiveNode returns the node of the collider that moved. It stays valid for
// the whole dispatch even if an earlier listener disposed the node.
func (c PhysicsContext) ActiveNode() *Node { return c.activeNode }

// PassiveNode returns the node of the collider it was tested against.
func (c PhysicsContext) PassiveNode() *Node { return c.passiveNode }

// Listener is a physics callback bound to a node. It fires for every
// collision dispatched while it is running and its node is in the active
// scene.
type Listener struct {
	name     string
	nameHash uint64
	node     *Node
	engine   *Engine
	fn       func(PhysicsContext)
	running  bool
	removed  bool
}

// NewListener creates an unbound listener.
func NewListener(name string, fn func(PhysicsContext)) *Listener {
	return &Listener{name: name, nameHash: hashName(name), fn: fn}
}

func (l *Listener) Name() string    { return l.name }
func (l *Listener) Node() *Node     { return l.node }
func (l *Listener) IsRunning() bool { return l.running && !l.removed }

// SetName renames the listener.
func (l *Listener) SetName(name string) {
	l.name = name
	l.nameHash = hashName(name)
}

// Start resumes dispatching to the listener.
func (l *Listener) Start() {
	if !l.removed {
		l.running = true
	}
}

// Stop suspends dispatching. The listener stays registered.
func (l *Listener) Stop() { l.running = false }

// Remove unregisters the listener.
func (l *Listener) Remove() {
	if l.engine == nil || l.removed {
		return
	}
	l.running = false
	l.engine.listeners.remove(l)
}

// --- Binding ---

// BindListener binds l to node and starts it. A listener can be bound once.
func (e *Engine) BindListener(l *Listener, node *Node) {
	if !assertf(l != nil, "BindListener: nil listener") {
		return
	}
	if !assertf(node != nil && !node.disposed, "BindListener: listener %q on nil or disposed node", l.name) {
		return
	}
	if !assertf(l.node == nil, "listener %q is already bound", l.name) {
		return
	}
	if !assertf(node.engine == e, "BindListener: node %q belongs to a different engine", node.name) {
		return
	}
	l.node = node
	l.engine = e
	l.running = true
	e.listeners.add(l)
}

// AddListener creates a listener bound to n and starts it.
func (n *Node) AddListener(name string, fn func(PhysicsContext)) *Listener {
	if n.engine == nil {
		return nil
	}
	l := NewListener(name, fn)
	n.engine.BindListener(l, n)
	return l
}

// --- Bulk control ---

// StartListeners starts every listener with the given name.
func (e *Engine) StartListeners(name string) { e.listeners.eachNamed(name, (*Listener).Start) }

// StopListeners stops every listener with the given name.
func (e *Engine) StopListeners(name string) { e.listeners.eachNamed(name, (*Listener).Stop) }

// RemoveListeners unregisters every listener with the given name.
func (e *Engine) RemoveListeners(name string) { e.listeners.eachNamed(name, (*Listener).Remove) }

// StartListenersUnder starts every listener bound to node or a descendant.
func (e *Engine) StartListenersUnder(node *Node) { e.listeners.eachUnder(node, (*Listener).Start) }

// StopListenersUnder stops every listener bound to node or a descendant.
func (e *Engine) StopListenersUnder(node *Node) { e.listeners.eachUnder(node, (*Listener).Stop) }

// RemoveListenersUnder unregisters every listener bound to node or a descendant.
func (e *Engine) RemoveListenersUnder(node *Node) { e.listeners.eachUnder(node, (*Listener).Remove) }

// StartAllListeners starts every listener of the active scene.
func (e *Engine) StartAllListeners() {
	if e.scene != nil {
		e.StartListenersUnder(e.scene.root)
	}
}

// StopAllListeners stops every listener of the active scene.
func (e *Engine) StopAllListeners() {
	if e.scene != nil {
		e.StopListenersUnder(e.scene.root)
	}
}

// Listeners returns the live listeners with the given name.
func (e *Engine) Listeners(name string) []*Listener {
	var out []*Listener
	e.listeners.eachNamed(name, func(l *Listener) { out = append(out, l) })
	return out
}

// NumListeners returns the number of registered listeners.
func (e *Engine) NumListeners() int {
	n := 0
	for _, l := range e.listeners.listeners {
		if !l.removed {
			n++
		}
	}
	return n
}

// --- Registry ---

type listenerRegistry struct {
	listeners []*Listener
	iterating bool
}

func (r *listenerRegistry) add(l *Listener) {
	l.removed = false
	r.listeners = append(r.listeners, l)
}

func (r *listenerRegistry) remove(l *Listener) {
	l.removed = true
	if !r.iterating {
		r.compact()
	}
}

func (r *listenerRegistry) compact() {
	r.listeners = slices.DeleteFunc(r.listeners, func(l *Listener) bool { return l.removed })
}

func (r *listenerRegistry) removeNode(n *Node) {
	for _, l := range r.listeners {
		if l.node == n {
			l.running = false
			l.removed = true
		}
	}
	if !r.iterating {
		r.compact()
	}
}

func (r *listenerRegistry) anyRunning() bool {
	for _, l := range r.listeners {
		if l.running && !l.removed {
			return true
		}
	}
	return false
}

// eachNamed runs fn over a snapshot so fn may remove listeners.
func (r *listenerRegistry) eachNamed(name string, fn func(*Listener)) {
	if name == "" {
		warnf("listener lookup with empty name")
		return
	}
	h := hashName(name)
	for _, l := range slices.Clone(r.listeners) {
		if !l.removed && l.nameHash == h && l.name == name {
			fn(l)
		}
	}
}

// eachUnder runs fn for listeners bound to node or one of its descendants.
func (r *listenerRegistry) eachUnder(node *Node, fn func(*Listener)) {
	if node == nil {
		return
	}
	for _, l := range slices.Clone(r.listeners) {
		if !l.removed && (l.node == node || l.node.IsDescendantOf(node)) {
			fn(l)
		}
	}
}

// dispatchCollision invokes every running listener of the active scene, in
// registration order, then forwards the pair to the scene's entity store.
func (e *Engine) dispatchCollision(active, passive *Collider, rel Relation) {
	ctx := PhysicsContext{
		Active:      active,
		Passive:     passive,
		Relation:    rel,
		activeNode:  active.node,
		passiveNode: passive.node,
	}
	var ev CollisionEvent
	scene := e.scene
	if scene != nil && scene.store != nil {
		ev = CollisionEvent{
			ActiveID:    active.node.ID,
			PassiveID:   passive.node.ID,
			ActiveName:  active.node.name,
			PassiveName: passive.node.name,
			Relation:    rel,
		}
	}

	r := &e.listeners
	nested := r.iterating
	r.iterating = true
	n := len(r.listeners)
	for i := 0; i < n; i++ {
		l := r.listeners[i]
		if l.removed || !l.running || !e.InActiveScene(l.node) {
			continue
		}
		if l.fn != nil {
			l.fn(ctx)
		}
	}
	if !nested {
		r.iterating = false
		r.compact()
	}

	if scene != nil && scene.store != nil {
		scene.store.EmitCollision(ev)
	}
}
