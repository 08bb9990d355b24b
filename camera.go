package bramble

import (
	"math"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is a view into a scene's world: position, zoom, rotation and the
// screen viewport it maps onto. It only affects drawing. Colliders, hit tests
// and node transforms stay in world space.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians.
	Rotation float64
	// Viewport is the screen-space rectangle the camera renders into.
	Viewport Rect

	// CullEnabled skips OnDraw for sized nodes whose world bounds fall
	// outside the visible area. Children are still visited.
	CullEnabled bool

	followTarget  *Node
	followOffsetX float64
	followOffsetY float64
	followLerp    float64

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	Bounds        Rect

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	lastX, lastY  float64
	lastZoom      float64
	lastRot       float64
	lastViewport  Rect
	computed      bool

	scroll *scrollAnim
}

// NewCamera creates a camera centred on the viewport's middle.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		X:           viewport.X + viewport.Width/2,
		Y:           viewport.Y + viewport.Height/2,
		Zoom:        1,
		Viewport:    viewport,
		CullEnabled: true,
	}
}

// Follow makes the camera track target's pivot point. A lerp of 1 snaps
// immediately; lower values follow smoothly.
func (c *Camera) Follow(target *Node, offsetX, offsetY, lerp float64) {
	c.followTarget = target
	c.followOffsetX = offsetX
	c.followOffsetY = offsetY
	c.followLerp = clamp01(lerp)
}

// Unfollow stops tracking the current target.
func (c *Camera) Unfollow() { c.followTarget = nil }

// ScrollTo animates the camera to the given world position. Any follow
// target keeps pulling the camera while the scroll runs.
func (c *Camera) ScrollTo(x, y float64, d time.Duration, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	secs := float32(d.Seconds())
	c.scroll = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), secs, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), secs, easeFn),
	}
}

// IsScrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) IsScrolling() bool { return c.scroll != nil }

// SetBounds enables bounds clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables bounds clamping.
func (c *Camera) ClearBounds() { c.BoundsEnabled = false }

// update advances follow, scroll and bounds clamping by dt seconds.
func (c *Camera) update(dt float64) {
	if t := c.followTarget; t != nil {
		if t.IsDisposed() {
			c.followTarget = nil
		} else {
			px, py := t.pivotPixels()
			tx, ty := transformPoint(t.finalTransform, px, py)
			c.X += (tx + c.followOffsetX - c.X) * c.followLerp
			c.Y += (ty + c.followOffsetY - c.Y) * c.followLerp
		}
	}

	if s := c.scroll; s != nil {
		if !s.doneX {
			v, done := s.tweenX.Update(float32(dt))
			c.X, s.doneX = float64(v), done
		}
		if !s.doneY {
			v, done := s.tweenY.Update(float32(dt))
			c.Y, s.doneY = float64(v), done
		}
		if s.doneX && s.doneY {
			c.scroll = nil
		}
	}

	if c.BoundsEnabled {
		c.clampToBounds()
	}
}

// clampToBounds restricts the position so the visible area stays within
// Bounds. Bounds smaller than the view centre the camera.
func (c *Camera) clampToBounds() {
	z := c.zoom()
	halfW := c.Viewport.Width / (2 * z)
	halfH := c.Viewport.Height / (2 * z)

	minX, maxX := c.Bounds.X+halfW, c.Bounds.X+c.Bounds.Width-halfW
	minY, maxY := c.Bounds.Y+halfH, c.Bounds.Y+c.Bounds.Height-halfH
	if minX > maxX {
		c.X = c.Bounds.X + c.Bounds.Width/2
	} else {
		c.X = math.Max(minX, math.Min(c.X, maxX))
	}
	if minY > maxY {
		c.Y = c.Bounds.Y + c.Bounds.Height/2
	} else {
		c.Y = math.Max(minY, math.Min(c.Y, maxY))
	}
}

func (c *Camera) zoom() float64 {
	if c.Zoom > 0 {
		return c.Zoom
	}
	return 1
}

// ViewMatrix returns the world-to-screen matrix:
//
//	Translate(viewport centre) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
func (c *Camera) ViewMatrix() [6]float64 {
	if c.computed && c.X == c.lastX && c.Y == c.lastY && c.Zoom == c.lastZoom &&
		c.Rotation == c.lastRot && c.Viewport == c.lastViewport {
		return c.viewMatrix
	}
	c.lastX, c.lastY, c.lastZoom, c.lastRot, c.lastViewport = c.X, c.Y, c.Zoom, c.Rotation, c.Viewport
	c.computed = true

	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	m := translateMatrix(-c.X, -c.Y)
	m = multiplyAffine(rotateAbout(-c.Rotation, 0, 0), m)
	m = multiplyAffine(scaleAbout(c.zoom(), c.zoom(), 0, 0), m)
	m = multiplyAffine(translateMatrix(cx, cy), m)
	c.viewMatrix = m
	c.invViewMatrix = invertAffine(m)
	return m
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return transformPoint(c.ViewMatrix(), wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.ViewMatrix()
	return transformPoint(c.invViewMatrix, sx, sy)
}

// VisibleBounds returns the world-space bounding box of the viewport.
func (c *Camera) VisibleBounds() Rect {
	c.ViewMatrix()
	v := c.Viewport
	return boundsOf(c.invViewMatrix, v.X, v.Y, v.Width, v.Height)
}

// boundsOf returns the axis-aligned bounds of the rectangle (x, y, w, h)
// mapped through m.
func boundsOf(m [6]float64, x, y, w, h float64) Rect {
	x0, y0 := transformPoint(m, x, y)
	x1, y1 := transformPoint(m, x+w, y)
	x2, y2 := transformPoint(m, x+w, y+h)
	x3, y3 := transformPoint(m, x, y+h)
	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// culled reports whether n's content lies wholly outside visible. Unsized
// nodes are never culled.
func culled(n *Node, visible Rect) bool {
	if n.width <= 0 && n.height <= 0 {
		return false
	}
	return !boundsOf(n.finalTransform, 0, 0, n.width, n.height).Intersects(visible)
}
