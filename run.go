package bramble

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Run opens a window sized from the engine config and drives e until the
// window closes or e is closed. With Debug set, an FPS and stats overlay is
// drawn in the top-left corner.
func Run(e *Engine) error {
	cfg := e.Config()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetTPS(cfg.TPS)
	if err := ebiten.RunGame(&runShell{engine: e}); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// runShell adds the debug overlay on top of the engine's own Game methods.
type runShell struct {
	engine  *Engine
	overlay *ebiten.Image
	text    string
	since   float64
}

func (g *runShell) Update() error {
	if err := g.engine.Update(); err != nil {
		return err
	}
	if !g.engine.cfg.Debug {
		return nil
	}
	g.since += 1 / float64(max(g.engine.cfg.TPS, 1))
	if g.since >= 0.5 || g.text == "" {
		g.since = 0
		g.text = fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nactions: %d\ncolliders: %d\ntimers: %d",
			ebiten.ActualFPS(), ebiten.ActualTPS(),
			g.engine.NumActions(), g.engine.NumColliders(), g.engine.NumTimers())
	}
	return nil
}

func (g *runShell) Draw(screen *ebiten.Image) {
	g.engine.Draw(screen)
	if !g.engine.cfg.Debug || g.text == "" {
		return
	}
	if g.overlay == nil {
		// 5 lines of debug font
		g.overlay = ebiten.NewImage(140, 80)
	}
	g.overlay.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(g.overlay, g.text)
	screen.DrawImage(g.overlay, nil)
}

func (g *runShell) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.engine.Layout(outsideWidth, outsideHeight)
}
