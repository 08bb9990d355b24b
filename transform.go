package bramble

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// Matrix layout used throughout the package: [a, b, c, d, tx, ty]
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |

func translateMatrix(x, y float64) [6]float64 {
	return [6]float64{1, 0, 0, 1, x, y}
}

// scaleAbout scales by (sx, sy) keeping (px, py) fixed.
func scaleAbout(sx, sy, px, py float64) [6]float64 {
	return [6]float64{sx, 0, 0, sy, px - sx*px, py - sy*py}
}

// skewAbout shears by the angles kx (along x) and ky (along y) keeping (px, py) fixed.
func skewAbout(kx, ky, px, py float64) [6]float64 {
	var tanX, tanY float64
	if kx != 0 {
		tanX = math.Tan(kx)
	}
	if ky != 0 {
		tanY = math.Tan(ky)
	}
	return [6]float64{1, tanY, tanX, 1, -py * tanX, -px * tanY}
}

// rotateAbout rotates by r radians (clockwise on a y-down screen) around (px, py).
func rotateAbout(r, px, py float64) [6]float64 {
	if r == 0 {
		return identityTransform
	}
	sin, cos := math.Sincos(r)
	return [6]float64{
		cos, sin, -sin, cos,
		px - cos*px + sin*py,
		py - sin*px - cos*py,
	}
}

// computeLocalTransform computes the node's own matrix, excluding the
// pivot-undo translation and the parent. Composition order:
//
//	Scale(pivot) -> Skew(pivot) -> Rotate(pivot) -> Translate(X, Y)
func computeLocalTransform(n *Node) [6]float64 {
	px, py := n.pivotPixels()
	m := scaleAbout(n.scaleX, n.scaleY, px, py)
	if n.skewX != 0 || n.skewY != 0 {
		m = multiplyAffine(skewAbout(n.skewX, n.skewY, px, py), m)
	}
	if n.rotation != 0 {
		m = multiplyAffine(rotateAbout(n.rotation, px, py), m)
	}
	return multiplyAffine(translateMatrix(n.x, n.y), m)
}

// computeTransforms returns the node's initial matrix (what children compose
// against) and its final matrix (what its own content is drawn and collided
// with). The final matrix places the pivot point at the node position.
func computeTransforms(n *Node) (initial, final [6]float64) {
	initial = computeLocalTransform(n)
	px, py := n.pivotPixels()
	final = multiplyAffine(translateMatrix(-px, -py), initial)
	if !n.positionFixed && n.parent != nil {
		initial = multiplyAffine(n.parent.initialTransform, initial)
		final = multiplyAffine(n.parent.initialTransform, final)
	}
	return initial, final
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child,
// i.e. child is applied first.
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ~ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// updateTransform recomputes n and every descendant, clearing dirty flags and
// refreshing bound colliders. Descendants are recomputed unconditionally since
// they always depend on the parent's initial matrix.
func updateTransform(n *Node) {
	n.initialTransform, n.finalTransform = computeTransforms(n)
	n.transformDirty = false
	if n.collider != nil {
		n.collider.transform()
	}
	for _, child := range n.children {
		updateTransform(child)
	}
}

// flushTransforms recomputes every dirty subtree below n without touching
// clean branches.
func flushTransforms(n *Node) {
	if n.transformDirty {
		updateTransform(n)
		return
	}
	for _, child := range n.children {
		flushTransforms(child)
	}
}

// --- Transform property setters ---

// SetPosition sets the node's position (where its pivot lands in the parent's
// space). No-op when unchanged.
func (n *Node) SetPosition(x, y float64) {
	if n.x == x && n.y == y {
		return
	}
	n.x, n.y = x, y
	n.transformDirty = true
}

// SetX sets the x coordinate only.
func (n *Node) SetX(x float64) { n.SetPosition(x, n.y) }

// SetY sets the y coordinate only.
func (n *Node) SetY(y float64) { n.SetPosition(n.x, y) }

// Move offsets the position by (dx, dy).
func (n *Node) Move(dx, dy float64) { n.SetPosition(n.x+dx, n.y+dy) }

// SetScale sets the node's scale factors.
func (n *Node) SetScale(sx, sy float64) {
	if n.scaleX == sx && n.scaleY == sy {
		return
	}
	n.scaleX, n.scaleY = sx, sy
	n.transformDirty = true
}

// SetRotation sets the node's rotation in radians.
func (n *Node) SetRotation(r float64) {
	if n.rotation == r {
		return
	}
	n.rotation = r
	n.transformDirty = true
}

// SetSkew sets the node's skew angles in radians.
func (n *Node) SetSkew(sx, sy float64) {
	if n.skewX == sx && n.skewY == sy {
		return
	}
	n.skewX, n.skewY = sx, sy
	n.transformDirty = true
}

// SetPivot sets the pivot as a fraction of the node size. Values are clamped
// to [0, 1].
func (n *Node) SetPivot(px, py float64) {
	px, py = clamp01(px), clamp01(py)
	if n.pivotX == px && n.pivotY == py {
		return
	}
	n.pivotX, n.pivotY = px, py
	n.transformDirty = true
}

// SetSize sets the node's unscaled width and height.
func (n *Node) SetSize(w, h float64) {
	if n.width == w && n.height == h {
		return
	}
	n.width, n.height = w, h
	n.transformDirty = true
}

// SetPositionFixed anchors the node in screen space: its matrices are not
// composed with the parent's.
func (n *Node) SetPositionFixed(fixed bool) {
	if n.positionFixed == fixed {
		return
	}
	n.positionFixed = fixed
	n.transformDirty = true
}

// MarkDirty marks the node's transform as dirty, forcing recomputation
// on the next tick.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this node's content space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	inv := invertAffine(n.finalTransform)
	return transformPoint(inv, wx, wy)
}

// LocalToWorld converts a content-space point to world-space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return transformPoint(n.finalTransform, lx, ly)
}
