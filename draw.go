package bramble

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// DrawContext is the rendering surface handed to OnDraw callbacks. The
// engine sets the node's final world matrix immediately before each call.
type DrawContext interface {
	SetTransform(m [6]float64)
	Transform() [6]float64
}

// ColliderColor is the outline color used when colliders are shown.
var ColliderColor = Color{0.2, 1, 0.4, 0.9}

// Canvas is a DrawContext over an ebiten image. Drawing calls take content
// space coordinates and are mapped through the current transform.
type Canvas struct {
	target *ebiten.Image
	m      [6]float64
	op     ebiten.DrawImageOptions

	// Blend is applied to DrawImage and FillRect.
	Blend BlendMode
}

// NewCanvas wraps target.
func NewCanvas(target *ebiten.Image) *Canvas {
	return &Canvas{target: target, m: identityTransform}
}

// Target returns the wrapped image.
func (c *Canvas) Target() *ebiten.Image { return c.target }

func (c *Canvas) SetTransform(m [6]float64) { c.m = m }
func (c *Canvas) Transform() [6]float64     { return c.m }

// GeoM returns the current transform as an ebiten.GeoM.
func (c *Canvas) GeoM() ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, c.m[0])
	g.SetElement(1, 0, c.m[1])
	g.SetElement(0, 1, c.m[2])
	g.SetElement(1, 1, c.m[3])
	g.SetElement(0, 2, c.m[4])
	g.SetElement(1, 2, c.m[5])
	return g
}

// DrawImage draws img at the content origin with the given opacity.
func (c *Canvas) DrawImage(img *ebiten.Image, opacity float64) {
	if img == nil || opacity <= 0 {
		return
	}
	op := &c.op
	op.GeoM = c.GeoM()
	op.ColorScale.Reset()
	op.ColorScale.ScaleAlpha(float32(clamp01(opacity)))
	op.Blend = c.Blend.EbitenBlend()
	c.target.DrawImage(img, op)
}

// FillRect fills a w by h rectangle at the content origin.
func (c *Canvas) FillRect(w, h float64, clr Color, opacity float64) {
	a := float32(clamp01(clr.A * opacity))
	if a <= 0 || w <= 0 || h <= 0 {
		return
	}
	op := &c.op
	op.GeoM.Reset()
	op.GeoM.Scale(w, h)
	op.GeoM.Concat(c.GeoM())
	op.ColorScale.Reset()
	op.ColorScale.Scale(float32(clr.R)*a, float32(clr.G)*a, float32(clr.B)*a, a)
	op.Blend = c.Blend.EbitenBlend()
	c.target.DrawImage(WhitePixel, op)
}

// StrokePolygon outlines a closed polygon given in world coordinates.
func (c *Canvas) StrokePolygon(pts []Vec2, width float32, clr Color) {
	if len(pts) < 2 {
		return
	}
	rgba := clr.toRGBA()
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		vector.StrokeLine(c.target, float32(p.X), float32(p.Y), float32(q.X), float32(q.Y), width, rgba, true)
	}
}

// StrokeCircle outlines a circle given in world coordinates.
func (c *Canvas) StrokeCircle(cx, cy, r float64, width float32, clr Color) {
	vector.StrokeCircle(c.target, float32(cx), float32(cy), float32(r), width, clr.toRGBA(), true)
}

// --- Render traversal ---

// Render draws the active scene into ctx. Transforms are flushed first so
// mutations made after the last tick are visible. With a scene camera every
// node except position-fixed ones is drawn through the camera's view matrix.
// With ShowColliders set and a *Canvas context, collider outlines are drawn
// on top.
func (e *Engine) Render(ctx DrawContext) {
	if e.scene == nil || ctx == nil {
		return
	}
	flushTransforms(e.scene.root)
	p := renderPass{ctx: ctx, view: identityTransform}
	if cam := e.scene.camera; cam != nil {
		p.view = cam.ViewMatrix()
		p.hasView = true
		if cam.CullEnabled {
			p.cull = true
			p.visible = cam.VisibleBounds()
		}
	}
	p.draw(e.scene.root)
	if e.cfg.ShowColliders {
		if c, ok := ctx.(*Canvas); ok {
			e.drawColliders(c, p.view)
		}
	}
}

type renderPass struct {
	ctx     DrawContext
	view    [6]float64
	hasView bool
	cull    bool
	visible Rect
}

// draw mirrors the update split: negative-order children first, then the
// node itself, then the rest. Invisible nodes skip their whole subtree.
func (p *renderPass) draw(n *Node) {
	if !n.visible {
		return
	}
	n.sortChildren()
	snap := append(n.iterBuf[:0], n.children...)
	n.iterBuf = nil

	i := 0
	for ; i < len(snap) && snap[i].order < 0; i++ {
		if c := snap[i]; c.parent == n {
			p.draw(c)
		}
	}
	if n.OnDraw != nil && !n.disposed {
		p.drawSelf(n)
	}
	for ; i < len(snap); i++ {
		if c := snap[i]; c.parent == n {
			p.draw(c)
		}
	}

	clear(snap)
	if !n.disposed {
		n.iterBuf = snap[:0]
	}
}

func (p *renderPass) drawSelf(n *Node) {
	m := n.finalTransform
	if p.hasView && !n.positionFixed {
		if p.cull && culled(n, p.visible) {
			return
		}
		m = multiplyAffine(p.view, m)
	}
	p.ctx.SetTransform(m)
	n.OnDraw(p.ctx)
}

func (e *Engine) drawColliders(c *Canvas, view [6]float64) {
	var pts []Vec2
	for _, col := range e.colliders.colliders {
		if col.removed || !col.visible || !e.InActiveScene(col.node) || !col.node.visible {
			continue
		}
		for i := range col.geom.parts {
			s := &col.geom.parts[i]
			if s.circle {
				cx, cy := transformPoint(view, s.center.X, s.center.Y)
				c.StrokeCircle(cx, cy, s.radius*math.Sqrt(math.Abs(view[0]*view[3]-view[1]*view[2])), 1, ColliderColor)
				continue
			}
			pts = pts[:0]
			for _, v := range s.verts {
				x, y := transformPoint(view, v.X, v.Y)
				pts = append(pts, Vec2{x, y})
			}
			c.StrokePolygon(pts, 1, ColliderColor)
		}
	}
}

// --- Color helpers ---

// toRGBA converts a Color to a premultiplied color.RGBA.
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
