//go:build ebiten

package ui

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"lifegraph/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type parameterProvider interface {
	Parameters() core.ParameterSnapshot
}

var (
	panelColor  = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	headerColor = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	labelColor  = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	valueColor  = color.RGBA{R: 220, G: 220, B: 230, A: 255}
)

// HUD is the panel to the right of the board. Adjustable controls (rule
// index, seed density) get -/+ buttons; every other snapshot value, the
// live metrics included, is listed read-only under its group name.
type HUD struct {
	sim      core.Sim
	params   parameterProvider
	ints     core.IntParameterSetter
	floats   core.FloatParameterSetter
	width    int
	offsetX  int
	panel    *ebiten.Image
	pixel    *ebiten.Image
	snapshot core.ParameterSnapshot
	controls []control
}

type control struct {
	core.ParameterControl
	value float64
	known bool
	top   int
	minus image.Rectangle
	plus  image.Rectangle
}

// NewHUD returns a panel of the given width; width 0 disables it.
func NewHUD(sim core.Sim, width int) *HUD {
	if width <= 0 {
		return nil
	}
	h := &HUD{sim: sim, width: width, pixel: ebiten.NewImage(1, 1)}
	h.pixel.Fill(color.White)
	h.params, _ = sim.(parameterProvider)
	h.ints, _ = sim.(core.IntParameterSetter)
	h.floats, _ = sim.(core.FloatParameterSetter)
	if p, ok := sim.(core.ParameterControlsProvider); ok {
		for i, c := range p.ParameterControls() {
			top := controlsTop + i*lineHeight
			y := top + (lineHeight-buttonSize)/2
			plus := image.Rect(width-panelPadding-buttonSize, y, width-panelPadding, y+buttonSize)
			minus := plus.Sub(image.Pt(buttonSize+buttonGap, 0))
			h.controls = append(h.controls, control{ParameterControl: c, top: top, minus: minus, plus: plus})
		}
	}
	return h
}

// Update refreshes the snapshot and applies button clicks. offsetX is the
// screen x of the panel's left edge.
func (h *HUD) Update(offsetX int) {
	if h == nil {
		return
	}
	h.offsetX = offsetX
	if h.params != nil {
		h.snapshot = h.params.Parameters()
	}
	values := make(map[string]string)
	for _, g := range h.snapshot.Groups {
		for _, p := range g.Params {
			values[p.Key] = p.Value
		}
	}
	for i := range h.controls {
		c := &h.controls[i]
		v, err := strconv.ParseFloat(values[c.Key], 64)
		c.value, c.known = v, err == nil
	}

	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	pt := image.Pt(mx-h.offsetX, my)
	for i := range h.controls {
		c := &h.controls[i]
		switch {
		case pt.In(c.minus):
			h.adjust(c, -1)
		case pt.In(c.plus):
			h.adjust(c, 1)
		}
	}
}

// next returns the value one step in direction, or false at a bound or
// when the sim cannot take it.
func (h *HUD) next(c *control, direction int) (float64, bool) {
	if !c.known {
		return 0, false
	}
	step := c.Step
	switch c.Type {
	case core.ParamTypeInt:
		if h.ints == nil {
			return 0, false
		}
		step = math.Max(math.Round(step), 1)
	case core.ParamTypeFloat:
		if h.floats == nil {
			return 0, false
		}
		if step <= 0 {
			step = 0.05
		}
	default:
		return 0, false
	}
	v := c.value + float64(direction)*step
	if c.HasMin && v < c.Min-1e-9 || c.HasMax && v > c.Max+1e-9 {
		return 0, false
	}
	return v, true
}

func (h *HUD) adjust(c *control, direction int) {
	v, ok := h.next(c, direction)
	if !ok {
		return
	}
	if c.Type == core.ParamTypeInt {
		ok = h.ints.SetIntParameter(c.Key, int(v))
	} else {
		ok = h.floats.SetFloatParameter(c.Key, v)
	}
	if ok {
		c.value = v
	}
}

// Draw paints the panel at offsetX, as tall as the scaled board.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelColor)

	face := basicfont.Face7x13
	text.Draw(h.panel, h.sim.Name(), face, panelPadding, panelPadding+headerBaseline, headerColor)
	controlled := make(map[string]bool, len(h.controls))
	for i := range h.controls {
		c := &h.controls[i]
		controlled[c.Key] = true
		y := c.top + labelBaseline
		text.Draw(h.panel, c.Label, face, panelPadding, y, valueColor)
		s := "--"
		if c.known {
			s = formatValue(c.ParameterControl, c.value)
		}
		text.Draw(h.panel, s, face, c.minus.Min.X-buttonGap-text.BoundString(face, s).Dx(), y, valueColor)
		_, down := h.next(c, -1)
		_, up := h.next(c, 1)
		h.drawButton(c.minus, "-", down)
		h.drawButton(c.plus, "+", up)
	}

	y := controlsTop + len(h.controls)*lineHeight + readoutSpacing
	for _, g := range h.snapshot.Groups {
		header := false
		for _, p := range g.Params {
			if controlled[p.Key] {
				continue
			}
			if !header {
				text.Draw(h.panel, g.Name, face, panelPadding, y, headerColor)
				y += readoutSpacing
				header = true
			}
			text.Draw(h.panel, p.Label, face, panelPadding, y, labelColor)
			text.Draw(h.panel, p.Value, face, h.width-panelPadding-text.BoundString(face, p.Value).Dx(), y, valueColor)
			y += readoutSpacing
		}
		if header {
			y += readoutSpacing / 2
		}
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) drawButton(r image.Rectangle, label string, enabled bool) {
	bg := color.RGBA{R: 54, G: 56, B: 64, A: 255}
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg = color.RGBA{R: 32, G: 34, B: 40, A: 255}
		fg = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx()), float64(r.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	text.Draw(h.panel, label, face, r.Min.X+(r.Dx()-b.Dx())/2, r.Min.Y+(r.Dy()+b.Dy())/2, fg)
}

const (
	panelPadding   = 12
	lineHeight     = 36
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
	readoutSpacing = 18
	controlsTop    = panelPadding + headerBaseline + 14
)
