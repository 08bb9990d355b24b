package bramble

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// ---- Debug mode tests ------------------------------------------------------

func TestDebugMode_DisposedNodePanics(t *testing.T) {
	e, _, s := newTestEngine(t)
	e.SetDebugMode(true)

	parent := e.NewNode("parent")
	s.Add(parent)
	child := e.NewNode("child")
	child.Dispose()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on AddChild with disposed node, got none")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "disposed") {
			t.Errorf("panic message should mention 'disposed', got: %s", msg)
		}
	}()
	parent.AddChild(child)
}

func TestDebugMode_AssertPanics(t *testing.T) {
	e, _, s := newTestEngine(t)
	e.SetDebugMode(true)
	n := e.NewNode("n")
	s.Add(n)

	defer func() {
		if r := recover(); r == nil || !strings.Contains(fmt.Sprint(r), "already has a parent") {
			t.Errorf("recover() = %v", r)
		}
	}()
	s.Root().AddChild(n)
}

func TestReleaseMode_AssertLogs(t *testing.T) {
	e, _, s := newTestEngine(t)
	buf := captureLog(t)
	n := e.NewNode("n")
	s.Add(n)
	s.Root().AddChild(n)
	if !strings.Contains(buf.String(), "assertion failed") {
		t.Errorf("log = %q", buf.String())
	}
	if s.Root().NumChildren() != 1 {
		t.Error("rejected AddChild must leave the tree unchanged")
	}
}

func TestDebugMode_TreeDepthWarning(t *testing.T) {
	e, _, s := newTestEngine(t)
	buf := captureLog(t)
	e.SetDebugMode(true)

	cur := s.Root()
	for range debugMaxTreeDepth + 2 {
		next := e.NewNode("deep")
		cur.AddChild(next)
		cur = next
	}
	if !strings.Contains(buf.String(), "tree depth") {
		t.Error("expected a tree depth warning")
	}
}

func TestDebugMode_ChildCountWarning(t *testing.T) {
	e, _, s := newTestEngine(t)
	buf := captureLog(t)
	e.SetDebugMode(true)

	parent := e.NewNode("crowd")
	s.Add(parent)
	for range debugMaxChildCount + 1 {
		parent.AddChild(e.NewNode("c"))
	}
	if !strings.Contains(buf.String(), "children (threshold") {
		t.Error("expected a child count warning")
	}
}

func TestDebugStatsLogged(t *testing.T) {
	e, clock, s := newTestEngine(t)
	buf := captureLog(t)
	e.SetDebugMode(true)
	a := e.NewSizedNode("a", 0, 0, 10, 10)
	b := e.NewSizedNode("b", 5, 5, 10, 10)
	s.Add(a, b)
	a.SetCollider(ShapeRect)
	b.SetCollider(ShapeRect)
	a.AddListener("l", func(PhysicsContext) {})
	a.RunAction(NewMoveBy(time.Second, 10, 0))
	e.AddTimer(TimerConfig{Name: "t", Interval: time.Hour})

	tickAfter(t, e, clock, 0)
	out := buf.String()
	for _, want := range []string{"timers:", "physics:", "running actions: 1", "colliders: 2", "dispatches: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("debug log missing %q:\n%s", want, out)
		}
	}
}

func TestReleaseModeNoStats(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	buf := captureLog(t)
	tickAfter(t, e, clock, 0)
	if buf.Len() != 0 {
		t.Errorf("release tick logged: %q", buf.String())
	}
}
