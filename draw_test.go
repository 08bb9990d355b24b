package bramble

import (
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

type recordingContext struct {
	m     [6]float64
	calls []string
	mats  map[string][6]float64
}

func (r *recordingContext) SetTransform(m [6]float64) { r.m = m }
func (r *recordingContext) Transform() [6]float64     { return r.m }

func (r *recordingContext) record(n *Node) {
	n.OnDraw = func(ctx DrawContext) {
		r.calls = append(r.calls, n.Name())
		if r.mats == nil {
			r.mats = make(map[string][6]float64)
		}
		r.mats[n.Name()] = ctx.Transform()
	}
}

func TestRenderOrderAndTransforms(t *testing.T) {
	e, _, s := newTestEngine(t)
	rec := &recordingContext{}
	parent := e.NewSizedNode("parent", 100, 50, 10, 10)
	back := e.NewNode("back")
	back.SetOrder(-1)
	front := e.NewNode("front")
	front.SetPosition(5, 5)
	s.Add(parent)
	parent.AddChild(front)
	parent.AddChild(back)
	for _, n := range []*Node{parent, back, front} {
		rec.record(n)
	}

	e.Render(rec)
	if got := strings.Join(rec.calls, ","); got != "back,parent,front" {
		t.Errorf("draw order = %s", got)
	}
	assertMatrix(t, "parent", rec.mats["parent"], [6]float64{1, 0, 0, 1, 100, 50})
	assertMatrix(t, "front", rec.mats["front"], [6]float64{1, 0, 0, 1, 105, 55})
}

func TestRenderFlushesPendingMutations(t *testing.T) {
	e, _, s := newTestEngine(t)
	rec := &recordingContext{}
	n := e.NewNode("n")
	s.Add(n)
	rec.record(n)
	n.SetPosition(7, 9)
	e.Render(rec)
	assertMatrix(t, "n", rec.mats["n"], [6]float64{1, 0, 0, 1, 7, 9})
}

func TestRenderSkipsInvisibleSubtree(t *testing.T) {
	e, _, s := newTestEngine(t)
	rec := &recordingContext{}
	hidden := e.NewNode("hidden")
	child := e.NewNode("child")
	shown := e.NewNode("shown")
	s.Add(hidden, shown)
	hidden.AddChild(child)
	for _, n := range []*Node{hidden, child, shown} {
		rec.record(n)
	}
	hidden.SetVisible(false)
	e.Render(rec)
	if got := strings.Join(rec.calls, ","); got != "shown" {
		t.Errorf("drawn = %s, want shown", got)
	}
}

func TestRenderWithoutSceneOrContext(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.Render(&recordingContext{})
	e2, _, s := newTestEngine(t)
	n := e2.NewNode("n")
	s.Add(n)
	n.OnDraw = func(DrawContext) { t.Error("drawn without a context") }
	e2.Render(nil)
}

func TestRenderDisposeDuringDraw(t *testing.T) {
	e, _, s := newTestEngine(t)
	rec := &recordingContext{}
	a := e.NewNode("a")
	b := e.NewNode("b")
	c := e.NewNode("c")
	s.Add(a, b, c)
	rec.record(b)
	rec.record(c)
	a.OnDraw = func(DrawContext) {
		rec.calls = append(rec.calls, "a")
		b.Dispose()
	}
	e.Render(rec)
	if got := strings.Join(rec.calls, ","); got != "a,c" {
		t.Errorf("drawn = %s, want a,c", got)
	}
}

func TestCanvasGeoM(t *testing.T) {
	c := NewCanvas(ebiten.NewImage(4, 4))
	c.SetTransform([6]float64{2, 0, 0, 3, 10, 20})
	g := c.GeoM()
	x, y := g.Apply(1, 1)
	assertNear(t, "x", x, 12)
	assertNear(t, "y", y, 23)

	m := multiplyAffine(translateMatrix(5, 0), rotateAbout(0.5, 0, 0))
	c.SetTransform(m)
	g = c.GeoM()
	x, y = g.Apply(3, 4)
	wx, wy := transformPoint(m, 3, 4)
	assertNear(t, "rotated x", x, wx)
	assertNear(t, "rotated y", y, wy)
}
