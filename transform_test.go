package bramble

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// --- computeLocalTransform ---

func TestLocalTransformIdentity(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewNode("test")
	assertMatrix(t, "identity", computeLocalTransform(n), identityTransform)
}

func TestLocalTransformTranslation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewNode("test")
	n.SetPosition(10, 20)
	assertMatrix(t, "translation", computeLocalTransform(n), [6]float64{1, 0, 0, 1, 10, 20})
}

func TestLocalTransformScale(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewNode("test")
	n.SetScale(2, 3)
	assertMatrix(t, "scale", computeLocalTransform(n), [6]float64{2, 0, 0, 3, 0, 0})
}

func TestLocalTransformRotation90(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewNode("test")
	n.SetRotation(math.Pi / 2)
	// cos(90)=0, sin(90)=1 → a=0, b=1, c=-1, d=0
	assertMatrix(t, "rot90", computeLocalTransform(n), [6]float64{0, 1, -1, 0, 0, 0})
}

func TestLocalTransformSkew(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewNode("test")
	n.SetSkew(math.Pi/4, 0)
	assertMatrix(t, "skewX", computeLocalTransform(n), [6]float64{1, 0, 1, 1, 0, 0})
}

func TestLocalTransformScaleAboutPivot(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewSizedNode("test", 200, 100, 100, 50)
	n.SetPivot(0.5, 0.5)
	n.SetScale(2, 2)
	m := computeLocalTransform(n)
	// The pivot is the fixed point of scaling, so it ends up at pivot + position.
	x, y := transformPoint(m, 50, 25)
	assertNear(t, "pivot x", x, 250)
	assertNear(t, "pivot y", y, 125)
}

// --- computeTransforms ---

func TestFinalTransformPlacesPivotAtPosition(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewSizedNode("test", 200, 100, 100, 50)
	n.SetPivot(0.5, 0.5)
	n.SetScale(2, 2)
	_, final := computeTransforms(n)
	assertMatrix(t, "final", final, [6]float64{2, 0, 0, 2, 100, 50})
	x, y := transformPoint(final, 50, 25)
	assertNear(t, "pivot x", x, 200)
	assertNear(t, "pivot y", y, 100)
}

func TestFinalTransformRotatesAroundPivot(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewSizedNode("test", 300, 300, 40, 20)
	n.SetPivot(0.5, 0.5)
	n.SetRotation(math.Pi / 3)
	_, final := computeTransforms(n)
	x, y := transformPoint(final, 20, 10)
	assertNear(t, "pivot x", x, 300)
	assertNear(t, "pivot y", y, 300)
}

func TestWorldTransformParentChild(t *testing.T) {
	e, _, s := newTestEngine(t)
	parent := e.NewNode("parent")
	parent.SetPosition(100, 50)
	child := e.NewNode("child")
	child.SetPosition(10, 5)
	parent.AddChild(child)
	s.Add(parent)

	flushTransforms(s.Root())
	assertMatrix(t, "child world", child.WorldTransform(), [6]float64{1, 0, 0, 1, 110, 55})
}

func TestWorldTransformComposesParentInitial(t *testing.T) {
	e, _, s := newTestEngine(t)
	parent := e.NewSizedNode("parent", 100, 100, 20, 20)
	parent.SetPivot(0.5, 0.5)
	child := e.NewNode("child")
	parent.AddChild(child)
	s.Add(parent)

	flushTransforms(s.Root())
	// Children compose against the parent's matrix before the pivot undo.
	want := multiplyAffine(parent.InitialTransform(), identityTransform)
	assertMatrix(t, "child world", child.WorldTransform(), want)
	assertMatrix(t, "parent initial", parent.InitialTransform(), [6]float64{1, 0, 0, 1, 100, 100})
	assertMatrix(t, "parent final", parent.WorldTransform(), [6]float64{1, 0, 0, 1, 90, 90})
}

func TestPositionFixedIgnoresParent(t *testing.T) {
	e, _, s := newTestEngine(t)
	parent := e.NewNode("parent")
	parent.SetPosition(100, 50)
	parent.SetScale(3, 3)
	hud := e.NewNode("hud")
	hud.SetPosition(5, 5)
	hud.SetPositionFixed(true)
	parent.AddChild(hud)
	s.Add(parent)

	flushTransforms(s.Root())
	assertMatrix(t, "hud world", hud.WorldTransform(), [6]float64{1, 0, 0, 1, 5, 5})
}

// --- affine helpers ---

func TestMultiplyAffineIdentity(t *testing.T) {
	m := [6]float64{2, 1, -1, 3, 7, 9}
	assertMatrix(t, "I*m", multiplyAffine(identityTransform, m), m)
	assertMatrix(t, "m*I", multiplyAffine(m, identityTransform), m)
}

func TestMultiplyAffineTranslations(t *testing.T) {
	got := multiplyAffine(translateMatrix(10, 20), translateMatrix(1, 2))
	assertMatrix(t, "t*t", got, [6]float64{1, 0, 0, 1, 11, 22})
}

func TestInvertAffine(t *testing.T) {
	m := [6]float64{2, 0.5, -0.25, 3, 40, -7}
	got := multiplyAffine(m, invertAffine(m))
	assertMatrix(t, "m*inv(m)", got, identityTransform)
}

func TestInvertAffineSingularReturnsIdentity(t *testing.T) {
	assertMatrix(t, "singular", invertAffine([6]float64{0, 0, 0, 0, 5, 5}), identityTransform)
}

// --- dirty flags ---

func TestSettersDirty(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewNode("test")
	setters := []struct {
		name string
		fn   func()
	}{
		{"SetPosition", func() { n.SetPosition(1, 2) }},
		{"SetX", func() { n.SetX(3) }},
		{"SetY", func() { n.SetY(4) }},
		{"Move", func() { n.Move(1, 1) }},
		{"SetScale", func() { n.SetScale(2, 2) }},
		{"SetRotation", func() { n.SetRotation(1) }},
		{"SetSkew", func() { n.SetSkew(0.1, 0.2) }},
		{"SetPivot", func() { n.SetPivot(0.5, 0.5) }},
		{"SetSize", func() { n.SetSize(10, 10) }},
		{"SetPositionFixed", func() { n.SetPositionFixed(true) }},
	}
	for _, s := range setters {
		n.transformDirty = false
		s.fn()
		if !n.TransformDirty() {
			t.Errorf("%s did not mark dirty", s.name)
		}
	}
}

func TestSettersSameValueNoOp(t *testing.T) {
	e, _, _ := newTestEngine(t)
	n := e.NewNode("test")
	n.SetPosition(1, 2)
	n.SetScale(2, 2)
	n.SetRotation(0.5)
	n.transformDirty = false

	n.SetPosition(1, 2)
	n.SetScale(2, 2)
	n.SetRotation(0.5)
	n.SetPivot(0, 0)
	if n.TransformDirty() {
		t.Error("unchanged values should not mark dirty")
	}
}

func TestFlushClearsDirtyAndIsIdempotent(t *testing.T) {
	e, _, s := newTestEngine(t)
	a := e.NewSizedNode("a", 10, 20, 30, 40)
	a.SetRotation(0.3)
	a.SetScale(1.5, 0.5)
	b := e.NewNode("b")
	b.SetPosition(5, 5)
	a.AddChild(b)
	s.Add(a)

	flushTransforms(s.Root())
	if a.TransformDirty() || b.TransformDirty() {
		t.Fatal("flush left dirty nodes")
	}
	first := b.WorldTransform()
	a.MarkDirty()
	flushTransforms(s.Root())
	assertMatrix(t, "recomputed", b.WorldTransform(), first)
}

func TestFlushSkipsCleanBranches(t *testing.T) {
	e, _, s := newTestEngine(t)
	a := e.NewNode("a")
	b := e.NewNode("b")
	s.Add(a, b)
	flushTransforms(s.Root())

	// Poison b's cached matrix: a clean branch must not be recomputed.
	poison := [6]float64{9, 9, 9, 9, 9, 9}
	b.finalTransform = poison
	a.SetPosition(50, 0)
	flushTransforms(s.Root())

	assertMatrix(t, "a", a.WorldTransform(), [6]float64{1, 0, 0, 1, 50, 0})
	assertMatrix(t, "b untouched", b.WorldTransform(), poison)
}

func TestParentChangePropagates(t *testing.T) {
	e, _, s := newTestEngine(t)
	parent := e.NewNode("parent")
	child := e.NewNode("child")
	grandchild := e.NewNode("grandchild")
	child.AddChild(grandchild)
	parent.AddChild(child)
	s.Add(parent)
	flushTransforms(s.Root())

	parent.SetPosition(7, 3)
	flushTransforms(s.Root())
	assertMatrix(t, "grandchild", grandchild.WorldTransform(), [6]float64{1, 0, 0, 1, 7, 3})
}

// --- coordinate conversion ---

func TestWorldToLocalRoundtrip(t *testing.T) {
	e, _, s := newTestEngine(t)
	n := e.NewSizedNode("n", 120, 80, 50, 30)
	n.SetPivot(0.5, 0.5)
	n.SetRotation(0.7)
	n.SetScale(2, 1.5)
	s.Add(n)
	flushTransforms(s.Root())

	wx, wy := n.LocalToWorld(12, 7)
	lx, ly := n.WorldToLocal(wx, wy)
	assertNear(t, "lx", lx, 12)
	assertNear(t, "ly", ly, 7)
}

// --- benchmarks ---

func BenchmarkComputeLocalTransform(b *testing.B) {
	e := NewEngine(DefaultConfig())
	n := e.NewSizedNode("n", 10, 20, 30, 40)
	n.SetPivot(0.5, 0.5)
	n.SetRotation(0.5)
	n.SetSkew(0.1, 0.1)
	b.ResetTimer()
	for b.Loop() {
		computeLocalTransform(n)
	}
}

func BenchmarkFlushTransforms10k(b *testing.B) {
	e := NewEngine(DefaultConfig())
	s := e.NewScene("bench")
	for i := range 100 {
		group := e.NewNode("group")
		group.SetPosition(float64(i), 0)
		for j := range 100 {
			leaf := e.NewNode("leaf")
			leaf.SetPosition(float64(j), float64(i))
			group.AddChild(leaf)
		}
		s.Add(group)
	}
	b.ResetTimer()
	for b.Loop() {
		s.Root().MarkDirty()
		flushTransforms(s.Root())
	}
}
