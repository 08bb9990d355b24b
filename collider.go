package bramble

import (
	"slices"

	"github.com/jakecoffman/cp"
)

// ShapePart is one piece of a collider in the node's content space. Circle
// parts are inscribed in their rectangle; ellipse parts fill it.
type ShapePart struct {
	Kind                ShapeKind
	X, Y, Width, Height float64
}

// Collider is a collision shape bound to a node. Its world geometry follows
// the node's final transform and is rebuilt on every transform update.
//
// Masks use a cp.ShapeFilter: Categories is what the collider is, Mask is
// what it reacts to and colliders sharing a non-zero Group never interact.
type Collider struct {
	id     uint32
	node   *Node
	kind   ShapeKind
	parts  []ShapePart // nil for node-sized shapes
	filter cp.ShapeFilter
	geom   worldGeometry

	transformed bool
	visible     bool
	removed     bool
}

// Node returns the node the collider is bound to, or nil after removal.
func (c *Collider) Node() *Node { return c.node }

// Kind returns the collider's shape kind.
func (c *Collider) Kind() ShapeKind { return c.kind }

// Parts returns the local parts of a composite collider.
func (c *Collider) Parts() []ShapePart { return c.parts }

// Filter returns the category, mask and group settings.
func (c *Collider) Filter() cp.ShapeFilter { return c.filter }

// SetFilter replaces the category, mask and group settings. The collider is
// re-tested on the next tick.
func (c *Collider) SetFilter(f cp.ShapeFilter) {
	c.filter = f
	c.transformed = true
}

func (c *Collider) Categories() uint { return c.filter.Categories }
func (c *Collider) Mask() uint       { return c.filter.Mask }
func (c *Collider) Group() uint      { return c.filter.Group }

// SetCategories sets the category bitmask (what this collider is).
func (c *Collider) SetCategories(bits uint) {
	c.filter.Categories = bits
	c.transformed = true
}

// SetMask sets the collision bitmask (what this collider reacts to).
func (c *Collider) SetMask(bits uint) {
	c.filter.Mask = bits
	c.transformed = true
}

// SetGroup sets the group. Colliders sharing a non-zero group never interact.
func (c *Collider) SetGroup(g uint) {
	c.filter.Group = g
	c.transformed = true
}

// Visible reports whether the collider outline is drawn in debug mode.
func (c *Collider) Visible() bool { return c.visible }

// SetVisible toggles the collider outline when colliders are shown.
func (c *Collider) SetVisible(v bool) { c.visible = v }

// Transformed reports whether the collider moved since it was last tested.
func (c *Collider) Transformed() bool { return c.transformed }

// Bounds returns the world-space bounding box.
func (c *Collider) Bounds() Rect {
	if len(c.geom.parts) == 0 {
		return Rect{}
	}
	bb := c.geom.bb
	return Rect{X: bb.L, Y: bb.B, Width: bb.R - bb.L, Height: bb.T - bb.B}
}

// ContainsPoint reports whether the world point (x, y) lies inside the
// collider. Points on the outline count as inside.
func (c *Collider) ContainsPoint(x, y float64) bool {
	return c.geom.containsPoint(cp.Vector{X: x, Y: y})
}

// Relation classifies c against other from c's point of view.
func (c *Collider) Relation(other *Collider) Relation {
	if other == nil {
		return RelationUnknown
	}
	return c.geom.relate(&other.geom)
}

// interestedIn applies the one-directional interest rule: c's mask must
// select other's categories, the two must not share a non-zero group and
// other's node must pass c's node name filter.
func (c *Collider) interestedIn(other *Collider) bool {
	if c.filter.Mask&other.filter.Categories == 0 {
		return false
	}
	if c.filter.Group != cp.NO_GROUP && c.filter.Group == other.filter.Group {
		return false
	}
	return c.node.CanCollideWith(other.node)
}

// localParts returns the parts in content space, sizing simple kinds to the
// node.
func (c *Collider) localParts(buf []ShapePart) []ShapePart {
	if c.kind == ShapeComposite {
		return c.parts
	}
	return append(buf[:0], ShapePart{Kind: c.kind, Width: c.node.width, Height: c.node.height})
}

// transform rebuilds world geometry from the node's final matrix and flags
// the collider for testing.
func (c *Collider) transform() {
	if c.node == nil {
		return
	}
	tol := DefaultFlattenTolerance
	if c.node.engine != nil {
		tol = c.node.engine.cfg.FlattenTolerance
	}
	var one [1]ShapePart
	c.geom.build(c.localParts(one[:]), c.node.finalTransform, tol)
	c.transformed = true
}

// --- Node API ---

// Collider returns the node's collider, or nil.
func (n *Node) Collider() *Collider { return n.collider }

// SetCollider binds a node-sized collider of the given kind, replacing any
// existing one. ShapeNone removes the collider. Composite colliders are
// created with SetColliderShape.
func (n *Node) SetCollider(kind ShapeKind) *Collider {
	switch kind {
	case ShapeNone:
		n.RemoveCollider()
		return nil
	case ShapeComposite:
		warnf("SetCollider: use SetColliderShape for composite colliders")
		return nil
	}
	return n.bindCollider(kind, nil)
}

// SetColliderShape binds a composite collider made of parts in content
// space, replacing any existing one.
func (n *Node) SetColliderShape(parts ...ShapePart) *Collider {
	if len(parts) == 0 {
		warnf("SetColliderShape: no parts")
		return nil
	}
	for _, p := range parts {
		if !assertf(p.Kind == ShapeRect || p.Kind == ShapeCircle || p.Kind == ShapeEllipse,
			"SetColliderShape: invalid part kind %v", p.Kind) {
			return nil
		}
	}
	return n.bindCollider(ShapeComposite, slices.Clone(parts))
}

func (n *Node) bindCollider(kind ShapeKind, parts []ShapePart) *Collider {
	if !assertf(!n.disposed && n.engine != nil, "collider on disposed or detached-engine node %q", n.name) {
		return nil
	}
	var filter = cp.SHAPE_FILTER_ALL
	visible := true
	if old := n.collider; old != nil {
		filter = old.filter
		visible = old.visible
		n.RemoveCollider()
	}
	c := &Collider{
		node:    n,
		kind:    kind,
		parts:   parts,
		filter:  filter,
		visible: visible,
	}
	n.collider = c
	n.engine.colliders.add(c)
	c.transform()
	return c
}

// RemoveCollider unbinds and unregisters the node's collider.
func (n *Node) RemoveCollider() {
	c := n.collider
	if c == nil {
		return
	}
	if n.engine != nil {
		n.engine.colliders.remove(c)
	}
	c.node = nil
	n.collider = nil
}

// IsPointIn reports whether the world point (x, y) hits the node: its
// collider when bound, otherwise its transformed size rectangle. Uses the
// transforms computed by the last flush.
func (n *Node) IsPointIn(x, y float64) bool {
	if n.collider != nil {
		return n.collider.ContainsPoint(x, y)
	}
	lx, ly := n.WorldToLocal(x, y)
	return lx >= 0 && ly >= 0 && lx <= n.width && ly <= n.height
}

// IsIntersectWith reports whether both nodes have colliders whose relation
// is one that would trigger listeners.
func (n *Node) IsIntersectWith(other *Node) bool {
	if other == nil || n.collider == nil || other.collider == nil {
		return false
	}
	return n.collider.Relation(other.collider).Colliding()
}

// --- Registry ---

// colliderRegistry holds every live collider. Removals during the physics
// pass are marked and compacted afterwards.
type colliderRegistry struct {
	colliders []*Collider
	pairs     map[uint64]struct{}
	nextID    uint32
	iterating bool
}

func (r *colliderRegistry) add(c *Collider) {
	r.nextID++
	c.id = r.nextID
	r.colliders = append(r.colliders, c)
}

func (r *colliderRegistry) remove(c *Collider) {
	c.removed = true
	if !r.iterating {
		r.compact()
	}
}

func (r *colliderRegistry) compact() {
	r.colliders = slices.DeleteFunc(r.colliders, func(c *Collider) bool { return c.removed })
}

// len returns the number of live colliders.
func (r *colliderRegistry) len() int {
	n := 0
	for _, c := range r.colliders {
		if !c.removed {
			n++
		}
	}
	return n
}

// pairKey identifies an unordered collider pair.
func pairKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// NumColliders returns the number of registered colliders.
func (e *Engine) NumColliders() int { return e.colliders.len() }

// physicsProc tests every collider that moved since the last pass against
// the other colliders of the active scene it is interested in. Each
// unordered pair is tested at most once per pass. Returns the number of
// active colliders processed and the number of dispatches.
func (e *Engine) physicsProc() (active, dispatches int) {
	r := &e.colliders
	if r.pairs == nil {
		r.pairs = make(map[uint64]struct{})
	}
	clear(r.pairs)

	// Nobody is listening: just consume the flags.
	if !e.listeners.anyRunning() && (e.scene == nil || e.scene.store == nil) {
		for _, c := range r.colliders {
			if e.InActiveScene(c.node) {
				c.transformed = false
			}
		}
		return 0, 0
	}

	r.iterating = true
	n := len(r.colliders)
	for i := 0; i < n; i++ {
		a := r.colliders[i]
		if a.removed || !a.transformed || !e.InActiveScene(a.node) {
			continue
		}
		active++
		for j := 0; j < n && !a.removed; j++ {
			p := r.colliders[j]
			if p == a || p.removed || !e.InActiveScene(p.node) || !a.interestedIn(p) {
				continue
			}
			key := pairKey(a.id, p.id)
			if _, seen := r.pairs[key]; seen {
				continue
			}
			r.pairs[key] = struct{}{}
			rel := a.Relation(p)
			if !rel.Colliding() {
				continue
			}
			dispatches++
			e.dispatchCollision(a, p, rel)
		}
		a.transformed = false
	}
	r.iterating = false
	r.compact()
	return active, dispatches
}
