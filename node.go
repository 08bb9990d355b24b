package bramble

import (
	"cmp"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic, bramble is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// hashName is the lookup precheck used for node, action, listener and timer
// names. Equal hashes are always confirmed with a string comparison.
func hashName(name string) uint64 {
	if name == "" {
		return 0
	}
	return xxhash.Sum64String(name)
}

// --- Node ---

// Node is the fundamental scene graph element. A parent exclusively owns its
// children; parent and scene pointers are non-owning back-references.
type Node struct {
	// Identity
	ID       uint32
	name     string
	nameHash uint64

	// Hierarchy
	engine     *Engine
	scene      *Scene
	parent     *Node
	children   []*Node
	iterBuf    []*Node // reused snapshot of children for safe traversal
	sortNeeded bool

	// Pose (local)
	x, y           float64
	scaleX, scaleY float64
	rotation       float64
	skewX, skewY   float64
	pivotX, pivotY float64
	width, height  float64
	positionFixed  bool

	// Computed, refreshed by updateTransform
	initialTransform [6]float64
	finalTransform   [6]float64
	transformDirty   bool

	// Visual state
	visible        bool
	realOpacity    float64
	displayOpacity float64
	order          int
	autoUpdate     bool

	// Collision
	collider   *Collider
	collidable map[uint64]string

	// Metadata
	UserData any

	// Per-node callbacks (nil by default). OnUpdate is suppressed while the
	// engine is paused; OnFixedUpdate always runs. dt is in seconds.
	OnUpdate      func(dt float64)
	OnFixedUpdate func(dt float64)
	OnDraw        func(ctx DrawContext)

	disposed bool
}

func newNode(e *Engine, name string) *Node {
	n := &Node{
		ID:               nextNodeID(),
		name:             name,
		nameHash:         hashName(name),
		engine:           e,
		scaleX:           1,
		scaleY:           1,
		visible:          true,
		realOpacity:      1,
		displayOpacity:   1,
		autoUpdate:       true,
		transformDirty:   true,
		initialTransform: identityTransform,
		finalTransform:   identityTransform,
	}
	if e != nil {
		n.pivotX = clamp01(e.cfg.DefaultPivotX)
		n.pivotY = clamp01(e.cfg.DefaultPivotY)
		if kind, _ := ParseShapeKind(e.cfg.DefaultCollider); kind != ShapeNone && kind != ShapeComposite {
			n.SetCollider(kind)
		}
	}
	return n
}

// NewNode creates a detached node owned by this engine.
func (e *Engine) NewNode(name string) *Node {
	return newNode(e, name)
}

// NewSizedNode creates a detached node with the given position and size.
func (e *Engine) NewSizedNode(name string, x, y, w, h float64) *Node {
	n := newNode(e, name)
	n.SetPosition(x, y)
	n.SetSize(w, h)
	return n
}

// --- Identity ---

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// HashName returns the precomputed hash of the node's name.
func (n *Node) HashName() uint64 { return n.nameHash }

// SetName renames the node. Empty names are rejected with a warning.
func (n *Node) SetName(name string) {
	if name == "" {
		warnf("SetName: empty node name ignored")
		return
	}
	if n.name == name {
		return
	}
	n.name = name
	n.nameHash = hashName(name)
}

// --- Getters ---

// X returns the local x position.
func (n *Node) X() float64 {
	return n.x
}

// Y returns the local y position.
func (n *Node) Y() float64 {
	return n.y
}

// Position returns the local position.
func (n *Node) Position() Vec2 {
	return Vec2{n.x, n.y}
}

// ScaleX returns the horizontal scale factor.
func (n *Node) ScaleX() float64 {
	return n.scaleX
}

// ScaleY returns the vertical scale factor.
func (n *Node) ScaleY() float64 {
	return n.scaleY
}

// Rotation returns the rotation in radians, clockwise.
func (n *Node) Rotation() float64 {
	return n.rotation
}

// SkewX returns the horizontal skew angle in radians.
func (n *Node) SkewX() float64 {
	return n.skewX
}

// SkewY returns the vertical skew angle in radians.
func (n *Node) SkewY() float64 {
	return n.skewY
}

// PivotX returns the pivot x as a fraction of the unscaled width.
func (n *Node) PivotX() float64 {
	return n.pivotX
}

// PivotY returns the pivot y as a fraction of the unscaled height.
func (n *Node) PivotY() float64 {
	return n.pivotY
}

// RealWidth returns the unscaled width.
func (n *Node) RealWidth() float64 {
	return n.width
}

// RealHeight returns the unscaled height.
func (n *Node) RealHeight() float64 {
	return n.height
}

// Width returns the width after local scaling.
func (n *Node) Width() float64 {
	return n.width * n.scaleX
}

// Height returns the height after local scaling.
func (n *Node) Height() float64 {
	return n.height * n.scaleY
}

// PositionFixed reports whether the node ignores its parent's transform.
func (n *Node) PositionFixed() bool {
	return n.positionFixed
}

func (n *Node) Visible() bool {
	return n.visible
}

// Opacity returns the node's own opacity, before the parent's is applied.
func (n *Node) Opacity() float64 {
	return n.realOpacity
}

// DisplayOpacity returns the opacity after multiplying in every ancestor.
func (n *Node) DisplayOpacity() float64 {
	return n.displayOpacity
}

// Order returns the draw and update order among siblings.
func (n *Node) Order() int {
	return n.order
}

// Parent returns the parent node, or nil if detached.
func (n *Node) Parent() *Node {
	return n.parent
}

// Scene returns the scene the node is attached to, or nil.
func (n *Node) Scene() *Scene {
	return n.scene
}

func (n *Node) Engine() *Engine {
	return n.engine
}

// IsDisposed returns true if the node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

func (n *Node) AutoUpdate() bool {
	return n.autoUpdate
}

// WorldTransform returns the final world matrix, pivot included. It is
// current as of the last flush.
func (n *Node) WorldTransform() [6]float64 {
	return n.finalTransform
}

// InitialTransform returns the world matrix children compose against.
func (n *Node) InitialTransform() [6]float64 {
	return n.initialTransform
}

// TransformDirty reports whether the node's matrices await a flush.
func (n *Node) TransformDirty() bool {
	return n.transformDirty
}

func (n *Node) pivotPixels() (float64, float64) {
	return n.width * n.pivotX, n.height * n.pivotY
}

// SetVisible shows or hides the node and its subtree at render time.
func (n *Node) SetVisible(v bool) { n.visible = v }

// SetAutoUpdate enables or disables both update callbacks for this node.
// Children are still traversed.
func (n *Node) SetAutoUpdate(v bool) { n.autoUpdate = v }

// --- Opacity ---

// SetOpacity sets the node's own opacity, clamped to [0, 1], and refreshes
// the display opacity of the whole subtree.
func (n *Node) SetOpacity(o float64) {
	o = clamp01(o)
	if n.realOpacity == o {
		return
	}
	n.realOpacity = o
	n.updateOpacity()
}

// updateOpacity recomputes display opacity top-down from this node.
func (n *Node) updateOpacity() {
	if n.parent != nil {
		n.displayOpacity = n.realOpacity * n.parent.displayOpacity
	} else {
		n.displayOpacity = n.realOpacity
	}
	for _, child := range n.children {
		child.updateOpacity()
	}
}

// --- Ordering ---

// SetOrder sets the draw/update order among siblings. Negative orders are
// processed before the parent's own callbacks, non-negative orders after.
func (n *Node) SetOrder(order int) {
	if n.order == order {
		return
	}
	n.order = order
	if n.parent != nil {
		n.parent.sortNeeded = true
	}
}

// sortChildren stable-sorts children by order if a re-sort was requested.
func (n *Node) sortChildren() {
	if !n.sortNeeded {
		return
	}
	slices.SortStableFunc(n.children, func(a, b *Node) int {
		return cmp.Compare(a.order, b.order)
	})
	n.sortNeeded = false
}

// --- Tree manipulation ---

// AddChild attaches child to this node. The child must not already have a
// parent and must not be an ancestor of this node; violations are contract
// errors and leave the tree unchanged.
func (n *Node) AddChild(child *Node) {
	if !assertf(child != nil, "cannot add nil child") {
		return
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if !assertf(child.parent == nil, "node %q already has a parent", child.name) {
		return
	}
	if !assertf(!isAncestor(child, n), "adding %q to %q would create a cycle", child.name, n.name) {
		return
	}
	if !assertf(child.engine == n.engine, "node %q belongs to a different engine", child.name) {
		return
	}
	child.parent = n
	n.children = append(n.children, child)
	n.sortNeeded = true
	child.setScene(n.scene)
	child.updateOpacity()
	markSubtreeDirty(child)
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// AddChildren attaches several children in order.
func (n *Node) AddChildren(children ...*Node) {
	for _, c := range children {
		n.AddChild(c)
	}
}

// RemoveChild detaches child from this node. Returns false if child is not a
// child of this node.
func (n *Node) RemoveChild(child *Node) bool {
	if child == nil {
		warnf("RemoveChild: nil child")
		return false
	}
	if globalDebug {
		debugCheckDisposed(n, "RemoveChild (parent)")
	}
	if child.parent != n || !n.removeChildByPtr(child) {
		return false
	}
	n.detach(child)
	return true
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.parent == nil {
		return
	}
	n.parent.RemoveChild(n)
}

// RemoveChildren detaches every direct child with the given name and returns
// how many were removed.
func (n *Node) RemoveChildren(name string) int {
	if name == "" {
		warnf("RemoveChildren: empty name")
		return 0
	}
	gone := n.Children(name)
	if len(gone) == 0 {
		return 0
	}
	h := hashName(name)
	n.children = slices.DeleteFunc(n.children, func(c *Node) bool {
		return c.nameHash == h && c.name == name
	})
	for _, c := range gone {
		n.detach(c)
	}
	return len(gone)
}

// RemoveAllChildren detaches every child.
func (n *Node) RemoveAllChildren() {
	old := n.children
	n.children = nil
	n.sortNeeded = false
	for _, c := range old {
		n.detach(c)
	}
}

// detach clears the child's back-references after it left n.children.
func (n *Node) detach(child *Node) {
	child.parent = nil
	child.setScene(nil)
	child.updateOpacity()
	markSubtreeDirty(child)
}

// Children returns every direct child with the given name.
func (n *Node) Children(name string) []*Node {
	h := hashName(name)
	var out []*Node
	for _, c := range n.children {
		if c.nameHash == h && c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	h := hashName(name)
	for _, c := range n.children {
		if c.nameHash == h && c.name == name {
			return c
		}
	}
	return nil
}

// AllChildren returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) AllChildren() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index in the current order.
// Returns nil when index is out of range.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return n.children[index]
}

// Walk calls fn for n and every descendant, depth first. Returning false from
// fn skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// IsDescendantOf reports whether n lies strictly below ancestor.
func (n *Node) IsDescendantOf(ancestor *Node) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// --- Collidable names ---

// AddCollidableName restricts this node's collider interest to nodes with the
// given names. A node with no collidable names is interested in every node
// its collision mask allows.
func (n *Node) AddCollidableName(names ...string) {
	if n.collidable == nil {
		n.collidable = make(map[uint64]string, len(names))
	}
	for _, name := range names {
		n.collidable[hashName(name)] = name
	}
}

// RemoveCollidableName removes a name added with AddCollidableName.
func (n *Node) RemoveCollidableName(name string) {
	delete(n.collidable, hashName(name))
}

// CanCollideWith reports whether other passes this node's collidable-name filter.
func (n *Node) CanCollideWith(other *Node) bool {
	if len(n.collidable) == 0 {
		return true
	}
	name, ok := n.collidable[other.nameHash]
	return ok && name == other.name
}

// --- Property snapshot ---

// NodeProperty is a snapshot of a node's pose and visual state.
type NodeProperty struct {
	Visible        bool
	X, Y           float64
	Width, Height  float64
	Opacity        float64
	PivotX, PivotY float64
	ScaleX, ScaleY float64
	Rotation       float64
	SkewX, SkewY   float64
}

// Property returns a snapshot of the node's pose and visual state.
func (n *Node) Property() NodeProperty {
	return NodeProperty{
		Visible: n.visible,
		X:       n.x, Y: n.y,
		Width: n.width, Height: n.height,
		Opacity: n.realOpacity,
		PivotX:  n.pivotX, PivotY: n.pivotY,
		ScaleX: n.scaleX, ScaleY: n.scaleY,
		Rotation: n.rotation,
		SkewX:    n.skewX, SkewY: n.skewY,
	}
}

// SetProperty applies a snapshot through the regular setters.
func (n *Node) SetProperty(p NodeProperty) {
	n.SetVisible(p.Visible)
	n.SetPosition(p.X, p.Y)
	n.SetSize(p.Width, p.Height)
	n.SetOpacity(p.Opacity)
	n.SetPivot(p.PivotX, p.PivotY)
	n.SetScale(p.ScaleX, p.ScaleY)
	n.SetRotation(p.Rotation)
	n.SetSkew(p.SkewX, p.SkewY)
}

// --- Disposal ---

// Dispose removes this node from its parent, recursively disposes all
// descendants, and unregisters the collider, actions, listeners and timers
// bound to any of them.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	for _, child := range n.children {
		child.parent = nil
		child.dispose()
	}
	if n.engine != nil {
		n.engine.releaseNode(n)
	}
	n.disposed = true
	n.children = nil
	n.iterBuf = nil
	n.parent = nil
	n.scene = nil
	n.collidable = nil
	n.UserData = nil
	n.OnUpdate = nil
	n.OnFixedUpdate = nil
	n.OnDraw = nil
}

// --- Helpers ---

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return true
		}
	}
	return false
}

// setScene propagates the owning scene through the subtree.
func (n *Node) setScene(s *Scene) {
	n.scene = s
	for _, child := range n.children {
		child.setScene(s)
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}
