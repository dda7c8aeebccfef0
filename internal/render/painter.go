//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter uploads cell buffers into an offscreen image and draws it
// scaled onto the screen.
type GridPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewGridPainter allocates a painter for a w x h grid.
func NewGridPainter(w, h int) *GridPainter {
	return &GridPainter{
		w:   w,
		h:   h,
		img: ebiten.NewImage(w, h),
		buf: make([]byte, 4*w*h),
	}
}

// Blit draws binary cells with the on and off colors.
func (p *GridPainter) Blit(screen *ebiten.Image, cells []uint8, on, off color.Color, scale int) {
	if len(cells) != p.w*p.h {
		return
	}
	fillBinaryRGBA(p.buf, cells, on, off)
	p.draw(screen, scale)
}

// BlitMask tints the marked cells with col and leaves the rest transparent,
// for drawing on top of a previous Blit.
func (p *GridPainter) BlitMask(screen *ebiten.Image, mask []uint8, col color.RGBA, scale int) {
	if len(mask) != p.w*p.h {
		return
	}
	fillPaletteRGBA(p.buf, mask, []color.RGBA{{}, col})
	p.draw(screen, scale)
}

func (p *GridPainter) draw(screen *ebiten.Image, scale int) {
	if scale <= 0 {
		scale = 1
	}
	p.img.WritePixels(p.buf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(p.img, op)
}
