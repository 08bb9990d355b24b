package bramble

import (
	"math"
	"slices"

	"github.com/jakecoffman/cp"
)

const (
	geomEpsilon = 1e-9

	minFlattenSegments = 16
	maxFlattenSegments = 256
)

// worldShape is one convex piece of a collider in world space: a polygon
// (verts set), an exact circle, or an ellipse. Ellipses keep a flattened
// outline in verts plus the matrix mapping world space onto their unit
// circle, which makes polygon tests against them exact.
type worldShape struct {
	verts      []cp.Vector // counter-clockwise in a y-up frame
	center     cp.Vector
	radius     float64
	circle     bool
	ellipse    bool
	toUnit     [6]float64
	degenerate bool
	bb         cp.BB
}

// worldGeometry is a collider's world-space shape, rebuilt whenever the node
// transform changes.
type worldGeometry struct {
	parts      []worldShape
	bb         cp.BB
	degenerate bool
}

// build recomputes g from local parts under matrix m. tol is the maximum
// chord deviation, in pixels, used when curves have to be flattened.
func (g *worldGeometry) build(parts []ShapePart, m [6]float64, tol float64) {
	g.parts = g.parts[:0]
	g.degenerate = true
	for _, p := range parts {
		var s worldShape
		switch p.Kind {
		case ShapeRect:
			s = rectShape(p, m)
		case ShapeCircle:
			s = circleShape(p, m, tol)
		case ShapeEllipse:
			s = ellipseShape(p.X+p.Width/2, p.Y+p.Height/2, p.Width/2, p.Height/2, m, tol)
		default:
			continue
		}
		if !s.degenerate {
			g.degenerate = false
		}
		if len(g.parts) == 0 {
			g.bb = s.bb
		} else {
			g.bb = g.bb.Merge(s.bb)
		}
		g.parts = append(g.parts, s)
	}
}

func vec(m [6]float64, x, y float64) cp.Vector {
	wx, wy := transformPoint(m, x, y)
	return cp.Vector{X: wx, Y: wy}
}

func rectShape(p ShapePart, m [6]float64) worldShape {
	verts := []cp.Vector{
		vec(m, p.X, p.Y),
		vec(m, p.X+p.Width, p.Y),
		vec(m, p.X+p.Width, p.Y+p.Height),
		vec(m, p.X, p.Y+p.Height),
	}
	return polygonShape(verts)
}

// conformal reports whether m is a rotation plus uniform scale, possibly
// mirrored, so circles stay circles.
func conformal(m [6]float64) bool {
	const eps = 1e-9
	near := func(a, b float64) bool { return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) }
	return (near(m[0], m[3]) && near(m[1], -m[2])) || (near(m[0], -m[3]) && near(m[1], m[2]))
}

func circleShape(p ShapePart, m [6]float64, tol float64) worldShape {
	r := math.Min(p.Width, p.Height) / 2
	cx, cy := p.X+p.Width/2, p.Y+p.Height/2
	if !conformal(m) {
		return ellipseShape(cx, cy, r, r, m, tol)
	}
	c := vec(m, cx, cy)
	wr := r * math.Hypot(m[0], m[1])
	return worldShape{
		center:     c,
		radius:     wr,
		circle:     true,
		degenerate: wr <= geomEpsilon,
		bb:         cp.NewBBForCircle(c, wr),
	}
}

// flattenSegments returns the number of segments needed to approximate a
// circle of radius r within tol.
func flattenSegments(r, tol float64) int {
	if tol <= 0 {
		tol = DefaultFlattenTolerance
	}
	if r <= tol {
		return minFlattenSegments
	}
	n := int(math.Ceil(math.Pi / math.Acos(1-tol/r)))
	return min(max(n, minFlattenSegments), maxFlattenSegments)
}

func ellipseShape(cx, cy, rx, ry float64, m [6]float64, tol float64) worldShape {
	// Largest axis stretch of m bounds the world radius.
	stretch := math.Max(math.Hypot(m[0], m[1]), math.Hypot(m[2], m[3]))
	n := flattenSegments(math.Max(rx, ry)*stretch, tol)
	verts := make([]cp.Vector, n)
	for i := range verts {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		verts[i] = vec(m, cx+rx*cos, cy+ry*sin)
	}
	s := polygonShape(verts)
	if s.degenerate {
		return s
	}
	// unit maps the unit circle onto the world ellipse.
	unit := multiplyAffine(m, multiplyAffine(translateMatrix(cx, cy), scaleAbout(rx, ry, 0, 0)))
	hx, hy := math.Hypot(unit[0], unit[2]), math.Hypot(unit[1], unit[3])
	s.ellipse = true
	s.toUnit = invertAffine(unit)
	s.center = cp.Vector{X: unit[4], Y: unit[5]}
	s.bb = cp.BB{L: unit[4] - hx, B: unit[5] - hy, R: unit[4] + hx, T: unit[5] + hy}
	return s
}

func polygonShape(verts []cp.Vector) worldShape {
	area := signedArea(verts)
	if area < 0 {
		for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
			verts[i], verts[j] = verts[j], verts[i]
		}
		area = -area
	}
	bb := cp.BB{L: verts[0].X, B: verts[0].Y, R: verts[0].X, T: verts[0].Y}
	for _, v := range verts[1:] {
		bb = bb.Expand(v)
	}
	return worldShape{verts: verts, bb: bb, degenerate: area <= geomEpsilon}
}

func signedArea(verts []cp.Vector) float64 {
	var a float64
	for i, v := range verts {
		a += v.Cross(verts[(i+1)%len(verts)])
	}
	return a / 2
}

// --- Point queries ---

func (s *worldShape) containsPoint(p cp.Vector) bool {
	if s.degenerate || !s.bb.ContainsVect(p) {
		return false
	}
	if s.circle {
		return p.DistanceSq(s.center) <= s.radius*s.radius
	}
	if s.ellipse {
		ux, uy := transformPoint(s.toUnit, p.X, p.Y)
		return ux*ux+uy*uy <= 1
	}
	return polygonContains(s.verts, p)
}

// polygonContains reports whether p lies inside or on the boundary of a
// counter-clockwise convex polygon.
func polygonContains(verts []cp.Vector, p cp.Vector) bool {
	for i, a := range verts {
		b := verts[(i+1)%len(verts)]
		if b.Sub(a).Cross(p.Sub(a)) < -geomEpsilon {
			return false
		}
	}
	return true
}

// edgeDistance returns the distance from p to the polygon outline.
func edgeDistance(verts []cp.Vector, p cp.Vector) float64 {
	best := math.Inf(1)
	for i, a := range verts {
		b := verts[(i+1)%len(verts)]
		d := p.Distance(p.ClosestPointOnSegment(a, b))
		best = math.Min(best, d)
	}
	return best
}

func (g *worldGeometry) containsPoint(p cp.Vector) bool {
	if g.degenerate || !g.bb.ContainsVect(p) {
		return false
	}
	for i := range g.parts {
		if g.parts[i].containsPoint(p) {
			return true
		}
	}
	return false
}

// --- Relations ---

// relate classifies g against other, from g's point of view.
func (g *worldGeometry) relate(other *worldGeometry) Relation {
	a, b := g, other
	if a.degenerate || b.degenerate {
		return RelationUnknown
	}
	if !a.bb.Intersects(b.bb) {
		return RelationDisjoint
	}
	if len(a.parts) == 1 && len(b.parts) == 1 {
		return relateShapes(&a.parts[0], &b.parts[0])
	}

	// Containment is approximated part-wise: a contains b when every part of
	// b lies inside some single part of a.
	aCovered := make([]bool, len(a.parts))
	bCovered := make([]bool, len(b.parts))
	overlap := false
	for i := range a.parts {
		if a.parts[i].degenerate {
			aCovered[i] = true
			continue
		}
		for j := range b.parts {
			if b.parts[j].degenerate {
				bCovered[j] = true
				continue
			}
			switch relateShapes(&a.parts[i], &b.parts[j]) {
			case RelationContains:
				overlap = true
				bCovered[j] = true
			case RelationContained:
				overlap = true
				aCovered[i] = true
			case RelationIntersect:
				overlap = true
			}
		}
	}
	switch {
	case !overlap:
		return RelationDisjoint
	case allTrue(bCovered):
		return RelationContains
	case allTrue(aCovered):
		return RelationContained
	default:
		return RelationIntersect
	}
}

func allTrue(v []bool) bool {
	for _, b := range v {
		if !b {
			return false
		}
	}
	return true
}

func relateShapes(a, b *worldShape) Relation {
	if a.degenerate || b.degenerate {
		return RelationUnknown
	}
	if !a.bb.Intersects(b.bb) {
		return RelationDisjoint
	}
	switch {
	case a.circle && b.circle:
		return relateCircles(a.center, a.radius, b.center, b.radius)
	case a.ellipse && isPolygon(b):
		return relateEllipsePolygon(a, b.verts)
	case b.ellipse && isPolygon(a):
		return relateEllipsePolygon(b, a.verts).Flip()
	case a.circle:
		return relateCirclePolygon(a.center, a.radius, b.verts)
	case b.circle:
		return relateCirclePolygon(b.center, b.radius, a.verts).Flip()
	default:
		return relatePolygons(a.verts, b.verts)
	}
}

func isPolygon(s *worldShape) bool { return !s.circle && !s.ellipse }

// relateEllipsePolygon classifies an ellipse against a convex polygon by
// mapping the polygon into the ellipse's unit circle space. Affine maps keep
// overlap and containment, so the result is exact.
func relateEllipsePolygon(e *worldShape, verts []cp.Vector) Relation {
	unit := make([]cp.Vector, len(verts))
	for i, v := range verts {
		x, y := transformPoint(e.toUnit, v.X, v.Y)
		unit[i] = cp.Vector{X: x, Y: y}
	}
	// A mirroring matrix flips the winding.
	if signedArea(unit) < 0 {
		slices.Reverse(unit)
	}
	return relateCirclePolygon(cp.Vector{}, 1, unit)
}

func relateCircles(c1 cp.Vector, r1 float64, c2 cp.Vector, r2 float64) Relation {
	d := c1.Distance(c2)
	switch {
	case d >= r1+r2-geomEpsilon:
		return RelationDisjoint
	case d+r2 <= r1+geomEpsilon:
		return RelationContains
	case d+r1 <= r2+geomEpsilon:
		return RelationContained
	default:
		return RelationIntersect
	}
}

// relateCirclePolygon classifies a circle against a convex polygon.
func relateCirclePolygon(c cp.Vector, r float64, verts []cp.Vector) Relation {
	inside := polygonContains(verts, c)
	d := edgeDistance(verts, c)
	if !inside && d >= r-geomEpsilon {
		return RelationDisjoint
	}
	all := true
	for _, v := range verts {
		if v.Distance(c) > r+geomEpsilon {
			all = false
			break
		}
	}
	if all {
		return RelationContains
	}
	if inside && d >= r-geomEpsilon {
		return RelationContained
	}
	return RelationIntersect
}

// relatePolygons classifies two convex polygons with a separating axis test.
// Boundary-only contact is disjoint.
func relatePolygons(a, b []cp.Vector) Relation {
	if separated(a, b) || separated(b, a) {
		return RelationDisjoint
	}
	if allInside(b, a) {
		return RelationContains
	}
	if allInside(a, b) {
		return RelationContained
	}
	return RelationIntersect
}

// separated reports whether one of a's edge normals separates a from b.
func separated(a, b []cp.Vector) bool {
	for i, p := range a {
		axis := a[(i+1)%len(a)].Sub(p).Perp()
		minA, maxA := project(a, axis)
		minB, maxB := project(b, axis)
		scale := geomEpsilon * math.Max(1, axis.Length())
		if maxA <= minB+scale || maxB <= minA+scale {
			return true
		}
	}
	return false
}

func project(verts []cp.Vector, axis cp.Vector) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range verts {
		d := v.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// allInside reports whether every vertex of inner lies in outer.
func allInside(inner, outer []cp.Vector) bool {
	for _, v := range inner {
		if !polygonContains(outer, v) {
			return false
		}
	}
	return true
}
