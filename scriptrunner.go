package bramble

import (
	"encoding/json"
	"fmt"
	"time"
)

// runnerStep is a single step of a replay script.
//
//	advance: move the clock by ms milliseconds without ticking
//	tick:    run count ticks (default 1) without moving the clock
//	pause:   pause the engine
//	resume:  resume the engine
//	wait:    advance the clock by ms and tick once, count times (default 1)
type runnerStep struct {
	Action string `json:"action"`
	Label  string `json:"label,omitempty"`
	Ms     int64  `json:"ms,omitempty"`
	Count  int    `json:"count,omitempty"`
}

type runnerScript struct {
	Steps []runnerStep `json:"steps"`
}

// ScriptRunner replays a JSON step list against an engine driven by a
// ManualClock, so timing-dependent behavior can be reproduced exactly.
type ScriptRunner struct {
	steps  []runnerStep
	cursor int
	done   bool

	// OnStep, when set, is called after each step with its index and label.
	OnStep func(index int, label string)
}

// LoadRunnerScript parses a JSON replay script.
func LoadRunnerScript(jsonData []byte) (*ScriptRunner, error) {
	var script runnerScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse runner script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse runner script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "advance", "tick", "pause", "resume", "wait":
		default:
			return nil, fmt.Errorf("parse runner script: step %d: unknown action %q", i, st.Action)
		}
		if st.Ms < 0 || st.Count < 0 {
			return nil, fmt.Errorf("parse runner script: step %d: negative value", i)
		}
		if st.Action == "tick" && st.Ms != 0 {
			return nil, fmt.Errorf("parse runner script: step %d: tick does not move the clock, use wait", i)
		}
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

// Done reports whether every step has been executed.
func (r *ScriptRunner) Done() bool { return r.done }

// Step executes the next step. Returns false once the script is finished.
func (r *ScriptRunner) Step(e *Engine, clock *ManualClock) (bool, error) {
	if r.done {
		return false, nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return false, nil
	}
	i := r.cursor
	st := r.steps[i]
	r.cursor++

	d := time.Duration(st.Ms) * time.Millisecond
	count := max(st.Count, 1)
	switch st.Action {
	case "advance":
		clock.Advance(d)
	case "pause":
		e.Pause()
	case "resume":
		e.Resume()
	case "tick", "wait":
		for range count {
			if st.Action == "wait" {
				clock.Advance(d)
			}
			if err := e.Tick(); err != nil {
				return false, fmt.Errorf("step %d (%s): %w", i, st.Action, err)
			}
		}
	}
	if r.OnStep != nil {
		r.OnStep(i, st.Label)
	}
	if r.cursor >= len(r.steps) {
		r.done = true
	}
	return !r.done, nil
}

// Run executes every remaining step.
func (r *ScriptRunner) Run(e *Engine, clock *ManualClock) error {
	for {
		more, err := r.Step(e, clock)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
