package bramble

import (
	"fmt"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// scriptModules are the tengo stdlib modules scripts may import.
var scriptModules = []string{"math", "text", "fmt", "rand"}

// scriptMaxAllocs bounds the objects one script run may allocate.
const scriptMaxAllocs = 1 << 16

// Script is an instantaneous action that runs a tengo script against its
// target. The globals x, y, rotation, scale_x, scale_y, opacity and visible
// hold the target's pose; values the script changes are written back through
// the node setters. name is the target's name.
type Script struct {
	instant
	src      string
	compiled *tengo.Compiled
	err      error
}

// NewScript compiles src. A compile error is kept and reported as a warning
// when the action runs; the action then completes without effect.
func NewScript(src string) *Script {
	s := &Script{src: src}
	s.compiled, s.err = compileScript(src)
	return s
}

func compileScript(src string) (*tengo.Compiled, error) {
	script := tengo.NewScript([]byte(src))
	script.SetImports(stdlib.GetModuleMap(scriptModules...))
	script.SetMaxAllocs(scriptMaxAllocs)
	for _, name := range []string{"x", "y", "rotation", "scale_x", "scale_y", "opacity"} {
		_ = script.Add(name, 0.0)
	}
	_ = script.Add("visible", true)
	_ = script.Add("name", "")
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	return compiled, nil
}

// Source returns the script text.
func (s *Script) Source() string { return s.src }

// Err returns the compile error, if any.
func (s *Script) Err() error { return s.err }

func (s *Script) step(dt time.Duration) (bool, time.Duration) {
	if s.target == nil {
		return true, dt
	}
	if s.err != nil {
		warnf("script action %q: %v", s.name, s.err)
		return true, dt
	}
	if err := s.run(s.target); err != nil {
		warnf("script action %q: %v", s.name, err)
	}
	return true, dt
}

func (s *Script) run(n *Node) error {
	c := s.compiled
	in := map[string]any{
		"x":        n.x,
		"y":        n.y,
		"rotation": n.rotation,
		"scale_x":  n.scaleX,
		"scale_y":  n.scaleY,
		"opacity":  n.realOpacity,
		"visible":  n.visible,
		"name":     n.name,
	}
	for k, v := range in {
		if err := c.Set(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	if err := c.Run(); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	n.SetPosition(c.Get("x").Float(), c.Get("y").Float())
	n.SetRotation(c.Get("rotation").Float())
	n.SetScale(c.Get("scale_x").Float(), c.Get("scale_y").Float())
	n.SetOpacity(c.Get("opacity").Float())
	n.SetVisible(c.Get("visible").Bool())
	return nil
}

func (s *Script) Clone() Action {
	c := &Script{src: s.src, err: s.err}
	if s.compiled != nil {
		c.compiled = s.compiled.Clone()
	}
	s.copyMeta(&c.actionBase)
	return c
}
