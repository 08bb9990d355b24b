package bramble

import (
	"math"
	"strings"
	"testing"
)

func TestScriptWritesPose(t *testing.T) {
	e, clock, n := actionNode(t)
	n.SetPosition(5, 0)
	s := NewScript(`
math := import("math")
x = x + 10
y = 20
rotation = math.pi / 2
scale_x = 2
opacity = 0.5
visible = false
`)
	if s.Err() != nil {
		t.Fatalf("compile: %v", s.Err())
	}
	n.RunAction(s)
	tickAfter(t, e, clock, 0)
	assertNear(t, "x", n.X(), 15)
	assertNear(t, "y", n.Y(), 20)
	assertNear(t, "rotation", n.Rotation(), math.Pi/2)
	assertNear(t, "scale x", n.ScaleX(), 2)
	assertNear(t, "scale y", n.ScaleY(), 1)
	assertNear(t, "opacity", n.Opacity(), 0.5)
	if n.Visible() {
		t.Error("visible should be false")
	}
	if s.State() != ActionDone {
		t.Errorf("state = %v, want done", s.State())
	}
}

func TestScriptSeesName(t *testing.T) {
	e, clock, n := actionNode(t)
	n.RunAction(NewScript(`if name == "target" { x = 99 }`))
	tickAfter(t, e, clock, 0)
	assertNear(t, "x", n.X(), 99)
}

func TestScriptCompileErrorWarns(t *testing.T) {
	e, clock, n := actionNode(t)
	buf := captureLog(t)
	s := NewScript(`x = = 1`)
	if s.Err() == nil {
		t.Fatal("expected a compile error")
	}
	s.SetName("broken")
	n.RunAction(s)
	tickAfter(t, e, clock, 0)
	if s.State() != ActionDone {
		t.Error("broken script should still complete")
	}
	if !strings.Contains(buf.String(), "broken") {
		t.Errorf("log = %q", buf.String())
	}
	assertNear(t, "x untouched", n.X(), 0)
}

func TestScriptRuntimeErrorLeavesNode(t *testing.T) {
	e, clock, n := actionNode(t)
	buf := captureLog(t)
	n.RunAction(NewScript(`
zero := 0
x = 1 / zero
`))
	tickAfter(t, e, clock, 0)
	if buf.Len() == 0 {
		t.Error("runtime error not logged")
	}
	assertNear(t, "x untouched", n.X(), 0)
}

func TestScriptInSequence(t *testing.T) {
	e, clock, n := actionNode(t)
	n.RunAction(NewSequence(
		NewScript(`x = 10`),
		NewScript(`x = x * 3`),
	))
	tickAfter(t, e, clock, 0)
	assertNear(t, "x", n.X(), 30)
}

func TestScriptCloneIndependent(t *testing.T) {
	e, clock, a := actionNode(t)
	b := e.NewNode("other")
	a.Scene().Add(b)
	b.SetPosition(100, 0)

	s := NewScript(`x = x + 1`)
	s.SetName("bump")
	c, ok := s.Clone().(*Script)
	if !ok || c.Name() != "bump" || c.Source() != s.Source() {
		t.Fatal("clone lost metadata")
	}
	a.RunAction(s)
	b.RunAction(c)
	tickAfter(t, e, clock, 0)
	assertNear(t, "a.x", a.X(), 1)
	assertNear(t, "b.x", b.X(), 101)
}
