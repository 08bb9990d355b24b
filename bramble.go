package bramble

import "github.com/hajimehoshi/ebiten/v2"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// Vec2 is a 2D vector used for positions, offsets, sizes, and directions
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Neg returns -v.
func (v Vec2) Neg() Vec2 { return Vec2{-v.X, -v.Y} }

// WhitePixel is a 1x1 white image used by Canvas for solid color fills.
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(ColorWhite.toRGBA())
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// BlendMode selects a compositing operation. Each maps to a specific ebiten.Blend value.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                     // additive / lighter
	BlendErase                   // destination-out (punch transparent holes)
	BlendBelow                   // destination-over (draw behind existing content)
	BlendNone                    // opaque copy (skip blending)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendAdd:
		return ebiten.BlendLighter
	case BlendErase:
		return ebiten.BlendDestinationOut
	case BlendBelow:
		return ebiten.BlendDestinationOver
	case BlendNone:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}

// Relation classifies how one collision shape relates to another. It is always
// stated from the point of view of the first (active) shape.
//
// Rects, circles and ellipses are classified exactly against polygons, and
// circles exactly against circles. An ellipse (or a circle under a
// non-uniform scale or skew) tested against another curved shape uses its
// outline flattened to within Config.FlattenTolerance, so overlaps thinner
// than the tolerance may report RelationDisjoint.
type Relation uint8

const (
	RelationUnknown   Relation = iota // degenerate or unclassifiable geometry
	RelationDisjoint                  // no overlap; boundary-only contact counts as disjoint
	RelationIntersect                 // interiors overlap, neither contains the other
	RelationContains                  // the active shape fully contains the passive shape
	RelationContained                 // the active shape lies fully inside the passive shape
)

var relationNames = [...]string{"unknown", "disjoint", "intersect", "contains", "contained"}

func (r Relation) String() string {
	if int(r) < len(relationNames) {
		return relationNames[r]
	}
	return "invalid"
}

// Flip returns the same relation seen from the other shape.
func (r Relation) Flip() Relation {
	switch r {
	case RelationContains:
		return RelationContained
	case RelationContained:
		return RelationContains
	default:
		return r
	}
}

// Colliding reports whether the relation is one that triggers listener dispatch.
func (r Relation) Colliding() bool {
	return r != RelationUnknown && r != RelationDisjoint
}

// ShapeKind identifies the geometry of a collider.
type ShapeKind uint8

const (
	ShapeNone      ShapeKind = iota // no collider
	ShapeRect                       // node size rectangle
	ShapeCircle                     // circle inscribed in the node size rectangle
	ShapeEllipse                    // ellipse inscribed in the node size rectangle
	ShapeComposite                  // union of explicit local-space parts
)

var shapeKindNames = [...]string{"none", "rect", "circle", "ellipse", "composite"}

func (k ShapeKind) String() string {
	if int(k) < len(shapeKindNames) {
		return shapeKindNames[k]
	}
	return "invalid"
}

// ParseShapeKind maps a config string to a ShapeKind. Unknown names map to
// ShapeNone and ok=false.
func ParseShapeKind(name string) (kind ShapeKind, ok bool) {
	for i, n := range shapeKindNames {
		if n == name {
			return ShapeKind(i), true
		}
	}
	if name == "" {
		return ShapeNone, true
	}
	return ShapeNone, false
}
