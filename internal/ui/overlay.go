//go:build ebiten

package ui

import (
	"fmt"
	"image/color"

	"lifegraph/internal/core"
	"lifegraph/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type flipProvider interface {
	Flips() []uint8
}

type generationProvider interface {
	Generation() int
}

// Overlay draws optional debugging visuals on top of the base simulation.
// Key 1 tints the cells that changed in the last step, key 2 toggles the
// status line.
type Overlay struct {
	sim       core.Sim
	scale     int
	showFlips bool
	showInfo  bool
	painter   *render.GridPainter
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	size := sim.Size()
	return &Overlay{
		sim:      sim,
		scale:    scale,
		showInfo: true,
		painter:  render.NewGridPainter(size.W, size.H),
	}
}

// Update allows the overlay to update internal state.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showFlips = !o.showFlips
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showInfo = !o.showInfo
	}
}

// Draw renders the overlay onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if o.showFlips {
		if provider, ok := o.sim.(flipProvider); ok {
			o.painter.BlitMask(screen, provider.Flips(), color.RGBA{R: 255, G: 120, B: 40, A: 160}, o.scale)
		}
	}
	if o.showInfo {
		status := o.sim.Name()
		if provider, ok := o.sim.(generationProvider); ok {
			status = fmt.Sprintf("%s  gen %d", status, provider.Generation())
		}
		ebitenutil.DebugPrint(screen, status)
	}
}
