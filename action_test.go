package bramble

import (
	"math"
	"testing"
	"time"

	"github.com/tanema/gween/ease"
)

// actionNode returns a node attached to the active scene, ticked once so the
// engine time reference is established.
func actionNode(t *testing.T) (*Engine, *ManualClock, *Node) {
	t.Helper()
	e, clock, s := newTestEngine(t)
	n := e.NewSizedNode("target", 0, 0, 10, 10)
	s.Add(n)
	tickAfter(t, e, clock, 0)
	return e, clock, n
}

func TestMoveByProgress(t *testing.T) {
	e, clock, n := actionNode(t)
	a := NewMoveBy(time.Second, 100, 50)
	n.RunAction(a)
	if a.State() != ActionRunning || a.Target() != n {
		t.Fatal("RunAction should bind and start")
	}

	tickAfter(t, e, clock, 250*time.Millisecond)
	assertNear(t, "x at 25%", n.X(), 25)
	assertNear(t, "y at 25%", n.Y(), 12.5)
	assertNear(t, "progress", a.Progress(), 0.25)

	tickAfter(t, e, clock, time.Second)
	assertNear(t, "x at end", n.X(), 100)
	assertNear(t, "y at end", n.Y(), 50)
	if a.State() != ActionDone {
		t.Errorf("state = %v, want done", a.State())
	}
	if e.NumActions() != 0 {
		t.Error("done action should leave the registry")
	}
}

func TestMoveToFromCurrentPosition(t *testing.T) {
	e, clock, n := actionNode(t)
	n.SetPosition(10, 10)
	n.RunAction(NewMoveTo(time.Second, 110, 10))
	tickAfter(t, e, clock, 500*time.Millisecond)
	assertNear(t, "x half", n.X(), 60)
	tickAfter(t, e, clock, 500*time.Millisecond)
	assertNear(t, "x end", n.X(), 110)
}

func TestMoveByReverseRoundTrip(t *testing.T) {
	e, clock, n := actionNode(t)
	n.SetPosition(5, 5)
	fwd := NewMoveBy(300*time.Millisecond, 40, -20)
	n.RunAction(NewSequence(fwd, fwd.Reverse()))
	for range 10 {
		tickAfter(t, e, clock, 100*time.Millisecond)
	}
	assertNear(t, "x", n.X(), 5)
	assertNear(t, "y", n.Y(), 5)
}

func TestScaleRotateOpacity(t *testing.T) {
	e, clock, n := actionNode(t)
	n.RunAction(NewSpawn(
		NewScaleTo(time.Second, 3, 5),
		NewRotateBy(time.Second, math.Pi),
		NewOpacityTo(time.Second, 0.2),
	))
	tickAfter(t, e, clock, 500*time.Millisecond)
	assertNear(t, "scaleX half", n.ScaleX(), 2)
	assertNear(t, "scaleY half", n.ScaleY(), 3)
	assertNear(t, "rotation half", n.Rotation(), math.Pi/2)
	assertNear(t, "opacity half", n.Opacity(), 0.6)

	tickAfter(t, e, clock, 500*time.Millisecond)
	assertNear(t, "scaleX", n.ScaleX(), 3)
	assertNear(t, "rotation", n.Rotation(), math.Pi)
	assertNear(t, "opacity", n.Opacity(), 0.2)
}

func TestScaleByAndRotateTo(t *testing.T) {
	e, clock, n := actionNode(t)
	n.SetRotation(1)
	n.RunAction(NewSpawn(NewScaleBy(time.Second, 1, -0.5), NewRotateTo(time.Second, 0)))
	tickAfter(t, e, clock, time.Second)
	assertNear(t, "scaleX", n.ScaleX(), 2)
	assertNear(t, "scaleY", n.ScaleY(), 0.5)
	assertNear(t, "rotation", n.Rotation(), 0)
}

func TestFadeReverse(t *testing.T) {
	e, clock, n := actionNode(t)
	out := NewFadeOut(100 * time.Millisecond)
	n.RunAction(NewSequence(out, out.Reverse()))
	tickAfter(t, e, clock, 100*time.Millisecond)
	assertNear(t, "faded out", n.Opacity(), 0)
	tickAfter(t, e, clock, 100*time.Millisecond)
	assertNear(t, "faded in", n.Opacity(), 1)
}

func TestOpacityByClampsOnNode(t *testing.T) {
	e, clock, n := actionNode(t)
	n.RunAction(NewOpacityBy(time.Second, 0.5))
	tickAfter(t, e, clock, time.Second)
	assertNear(t, "opacity", n.Opacity(), 1)
}

func TestEaseShapesProgress(t *testing.T) {
	e, clock, n := actionNode(t)
	a := NewMoveBy(time.Second, 100, 0)
	a.SetEase(ease.InQuad)
	n.RunAction(a)
	tickAfter(t, e, clock, 500*time.Millisecond)
	if math.Abs(n.X()-25) > 1e-3 {
		t.Errorf("x = %v, want 25 with InQuad", n.X())
	}
	tickAfter(t, e, clock, 500*time.Millisecond)
	assertNear(t, "x end is exact", n.X(), 100)
}

func TestZeroDurationCompletesImmediately(t *testing.T) {
	e, clock, n := actionNode(t)
	n.RunAction(NewMoveBy(0, 7, 0))
	tickAfter(t, e, clock, 0)
	assertNear(t, "x", n.X(), 7)
	if e.NumActions() != 0 {
		t.Error("zero-length action should be done after one tick")
	}
}

// --- instant actions ---

func TestInstantActions(t *testing.T) {
	e, clock, n := actionNode(t)
	calls := 0
	n.RunAction(NewSequence(
		NewHide(),
		NewCallFunc(func() {
			calls++
			if n.Visible() {
				t.Error("Hide should run before CallFunc")
			}
		}),
		NewToggleVisible(),
	))
	tickAfter(t, e, clock, time.Millisecond)
	if calls != 1 || !n.Visible() {
		t.Errorf("calls=%d visible=%v", calls, n.Visible())
	}
}

func TestShowHideReverse(t *testing.T) {
	if _, ok := NewShow().Reverse().(*Hide); !ok {
		t.Error("Show.Reverse should be Hide")
	}
	if _, ok := NewHide().Reverse().(*Show); !ok {
		t.Error("Hide.Reverse should be Show")
	}
}

func TestRemoveSelf(t *testing.T) {
	e, clock, n := actionNode(t)
	s := n.Scene()
	n.RunAction(NewSequence(NewDelay(100*time.Millisecond), NewRemoveSelf(false)))
	tickAfter(t, e, clock, 100*time.Millisecond)
	if n.Parent() != nil || s.Root().NumChildren() != 0 {
		t.Error("RemoveSelf should detach")
	}
	if n.IsDisposed() {
		t.Error("RemoveSelf(false) must not dispose")
	}
}

func TestRemoveSelfDispose(t *testing.T) {
	e, clock, n := actionNode(t)
	other := NewMoveBy(time.Hour, 1, 0)
	n.RunAction(other)
	n.RunAction(NewRemoveSelf(true))
	tickAfter(t, e, clock, time.Millisecond)
	if !n.IsDisposed() {
		t.Fatal("node not disposed")
	}
	if other.State() != ActionStopped || e.NumActions() != 0 {
		t.Error("disposing the target should stop its actions")
	}
}

// --- state machine ---

func TestPauseResumeStop(t *testing.T) {
	e, clock, n := actionNode(t)
	a := NewMoveBy(time.Second, 100, 0)
	a.SetName("walk")
	n.RunAction(a)

	n.PauseAction("walk")
	tickAfter(t, e, clock, 500*time.Millisecond)
	if a.State() != ActionPaused || n.X() != 0 {
		t.Error("paused action advanced")
	}
	n.ResumeAction("walk")
	tickAfter(t, e, clock, 500*time.Millisecond)
	assertNear(t, "x after resume", n.X(), 50)

	n.StopAction("walk")
	if a.State() != ActionStopped {
		t.Errorf("state = %v", a.State())
	}
	tickAfter(t, e, clock, time.Second)
	assertNear(t, "x after stop", n.X(), 50)
	if n.Action("walk") != nil {
		t.Error("stopped action still listed")
	}
	a.Resume()
	if a.State() != ActionStopped {
		t.Error("stop is terminal")
	}
}

func TestStopOnDoneIsNoOp(t *testing.T) {
	e, clock, n := actionNode(t)
	a := NewDelay(0)
	n.RunAction(a)
	tickAfter(t, e, clock, 0)
	a.Stop()
	if a.State() != ActionDone {
		t.Errorf("state = %v, want done", a.State())
	}
}

func TestRunActionOnOtherTargetRejected(t *testing.T) {
	e, _, n := actionNode(t)
	captureLog(t)
	other := e.NewNode("other")
	n.Scene().Add(other)
	a := NewMoveBy(time.Second, 1, 1)
	n.RunAction(a)
	other.RunAction(a)
	if a.Target() != n {
		t.Error("action was rebound")
	}
	if len(other.Actions("")) != 0 {
		t.Error("other node got the action")
	}
}

func TestRunActionAgainResets(t *testing.T) {
	e, clock, n := actionNode(t)
	a := NewMoveBy(time.Second, 100, 0)
	n.RunAction(a)
	tickAfter(t, e, clock, time.Second)
	if a.State() != ActionDone {
		t.Fatal("expected done")
	}
	n.RunAction(a)
	if a.State() != ActionRunning || a.Elapsed() != 0 {
		t.Errorf("rerun state=%v elapsed=%v", a.State(), a.Elapsed())
	}
	tickAfter(t, e, clock, time.Second)
	assertNear(t, "x after rerun", n.X(), 200)
}

func TestEngineBulkActionControl(t *testing.T) {
	e, clock, n := actionNode(t)
	other := e.NewNode("other")
	n.Scene().Add(other)
	a := NewMoveBy(time.Second, 10, 0)
	a.SetName("spin")
	b := NewMoveBy(time.Second, 10, 0)
	b.SetName("spin")
	n.RunAction(a)
	other.RunAction(b)

	if got := e.ActionsNamed("spin"); len(got) != 2 {
		t.Fatalf("ActionsNamed = %d, want 2", len(got))
	}
	e.PauseActions("spin")
	if a.State() != ActionPaused || b.State() != ActionPaused {
		t.Error("PauseActions missed one")
	}
	e.ResumeActions("spin")
	e.StopActions("spin")
	tickAfter(t, e, clock, time.Millisecond)
	if e.NumActions() != 0 {
		t.Error("stopped actions should be dropped")
	}
}

func TestActionsOnlyRunInActiveScene(t *testing.T) {
	e, clock, n := actionNode(t)
	n.RunAction(NewMoveBy(time.Second, 100, 0))
	e.EnterScene(e.NewScene("other"), true)
	tickAfter(t, e, clock, 500*time.Millisecond)
	assertNear(t, "x in inactive scene", n.X(), 0)
	e.BackScene()
	tickAfter(t, e, clock, 500*time.Millisecond)
	assertNear(t, "x after return", n.X(), 50)
}

// --- composites ---

func TestSequenceCarriesLeftover(t *testing.T) {
	e, clock, n := actionNode(t)
	n.RunAction(NewSequence(
		NewMoveBy(100*time.Millisecond, 10, 0),
		NewMoveBy(100*time.Millisecond, 0, 10),
	))
	tickAfter(t, e, clock, 150*time.Millisecond)
	assertNear(t, "x", n.X(), 10)
	assertNear(t, "y", n.Y(), 5)
}

func TestSpawnCompletesWithLongest(t *testing.T) {
	e, clock, n := actionNode(t)
	sp := NewSpawn(NewMoveBy(100*time.Millisecond, 10, 0), NewMoveBy(300*time.Millisecond, 0, 30))
	n.RunAction(sp)
	tickAfter(t, e, clock, 200*time.Millisecond)
	if sp.State() != ActionRunning {
		t.Error("spawn finished early")
	}
	assertNear(t, "x", n.X(), 10)
	tickAfter(t, e, clock, 100*time.Millisecond)
	if sp.State() != ActionDone {
		t.Errorf("state = %v", sp.State())
	}
	assertNear(t, "y", n.Y(), 30)
}

func TestRepeatCount(t *testing.T) {
	e, clock, n := actionNode(t)
	r := NewRepeat(NewMoveBy(100*time.Millisecond, 10, 0), 3)
	n.RunAction(r)
	tickAfter(t, e, clock, 250*time.Millisecond)
	if r.Count() != 2 {
		t.Errorf("count = %d, want 2", r.Count())
	}
	assertNear(t, "x mid", n.X(), 25)
	tickAfter(t, e, clock, time.Second)
	if r.State() != ActionDone || r.Count() != 3 {
		t.Errorf("state=%v count=%d", r.State(), r.Count())
	}
	assertNear(t, "x end", n.X(), 30)
}

func TestRepeatForeverInstantOncePerTick(t *testing.T) {
	e, clock, n := actionNode(t)
	calls := 0
	r := NewRepeatForever(NewCallFunc(func() { calls++ }))
	n.RunAction(r)
	for range 5 {
		tickAfter(t, e, clock, 10*time.Millisecond)
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
	if r.State() != ActionRunning {
		t.Error("forever repeat should keep running")
	}
}

func TestReverseNotReversibleChild(t *testing.T) {
	captureLog(t)
	seq := NewSequence(NewMoveBy(time.Second, 1, 0), NewMoveTo(time.Second, 5, 5))
	if seq.Reverse() != nil {
		t.Error("sequence with MoveTo has no inverse")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	e, clock, n := actionNode(t)
	orig := NewSequence(NewMoveBy(100*time.Millisecond, 10, 0), NewDelay(time.Second))
	orig.SetName("seq")
	n.RunAction(orig)
	tickAfter(t, e, clock, 150*time.Millisecond)

	clone := orig.Clone()
	if clone.Target() != nil || clone.State() != ActionIdle || clone.Elapsed() != 0 {
		t.Errorf("clone carries state: target=%v state=%v elapsed=%v", clone.Target(), clone.State(), clone.Elapsed())
	}
	if clone.Name() != "seq" {
		t.Error("clone should keep the name")
	}

	other := e.NewNode("other")
	n.Scene().Add(other)
	other.RunAction(clone)
	tickAfter(t, e, clock, 50*time.Millisecond)
	assertNear(t, "clone target x", other.X(), 5)
	assertNear(t, "original target x", n.X(), 10)
}

func TestCompositeRejectsBoundChild(t *testing.T) {
	_, _, n := actionNode(t)
	captureLog(t)
	bound := NewMoveBy(time.Second, 1, 0)
	n.RunAction(bound)
	seq := NewSequence(bound, NewDelay(time.Second))
	if len(seq.Actions()) != 1 {
		t.Errorf("children = %d, want 1", len(seq.Actions()))
	}
}

func TestActionStateString(t *testing.T) {
	if ActionPaused.String() != "paused" || ActionState(99).String() != "invalid" {
		t.Error("unexpected state names")
	}
}
