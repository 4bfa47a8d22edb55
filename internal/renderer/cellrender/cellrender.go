// Package cellrender paints a single grid cell into the pixel canvas.
//
// A cell occupies the pixel rectangle [col*w, col*w+w) x [row*h, row*h+h).
// Colors are resolved in a fixed order:
//
//  1. Resolve foreground and background. REVERSED swaps the roles used for
//     resolution (the foreground color is resolved as a background and
//     vice versa); the colors themselves stay in their slots.
//  2. HIDDEN sets the ink to the resolved background.
//  3. DIM darkens both colors.
//  4. A blink modifier whose phase is on sets the ink to the background.
//
// The background fill always covers the whole cell. Glyph coverage is then
// blended over it; coverage outside the canvas is dropped.
package cellrender

import (
	"image"

	"github.com/dshills/softterm/internal/renderer/core"
	"github.com/dshills/softterm/internal/renderer/glyph"
	"github.com/dshills/softterm/internal/renderer/palette"
	"github.com/dshills/softterm/internal/renderer/pixmap"
)

// Blink is the current blink phase. A true field means text with that
// blink modifier is hidden for this frame.
type Blink struct {
	Slow bool
	Fast bool
}

// Painter paints cells with a fixed rasterizer and cell size.
type Painter struct {
	ras  glyph.Rasterizer
	cell image.Point
}

// NewPainter creates a painter for cells of the given pixel size.
func NewPainter(ras glyph.Rasterizer, cell image.Point) *Painter {
	return &Painter{ras: ras, cell: cell}
}

// CellSize returns the cell size in pixels.
func (p *Painter) CellSize() image.Point {
	return p.cell
}

// CellRect returns the pixel rectangle of the cell at (col, row).
func (p *Painter) CellRect(col, row uint16) image.Rectangle {
	origin := image.Pt(int(col)*p.cell.X, int(row)*p.cell.Y)
	return image.Rectangle{Min: origin, Max: origin.Add(p.cell)}
}

// Colors returns the ink and fill colors for c under the given blink phase.
func Colors(c core.Cell, blink Blink) (fg, bg core.RGB) {
	mod := c.Modifier

	if mod.Has(core.ModReversed) {
		fg = palette.Resolve(c.Fg, palette.Background)
		bg = palette.Resolve(c.Bg, palette.Foreground)
	} else {
		fg = palette.Resolve(c.Fg, palette.Foreground)
		bg = palette.Resolve(c.Bg, palette.Background)
	}

	if mod.Has(core.ModHidden) {
		fg = bg
	}

	if mod.Has(core.ModDim) {
		fg, bg = palette.Dim(fg), palette.Dim(bg)
	}

	if (mod.Has(core.ModSlowBlink) && blink.Slow) || (mod.Has(core.ModRapidBlink) && blink.Fast) {
		fg = bg
	}
	return fg, bg
}

// Paint draws c at (col, row). It reports whether the cell animates and
// must be repainted on every frame.
func (p *Painter) Paint(pm *pixmap.Pixmap, c core.Cell, col, row uint16, blink Blink) (animated bool) {
	fg, bg := Colors(c, blink)
	rect := p.CellRect(col, row)
	pm.FillRect(rect, bg)

	animated = c.Modifier.Blinks()

	text := c.Symbol
	if c.Modifier.Has(core.ModCrossedOut) {
		text = glyph.Strike(text)
	}
	if c.Modifier.Has(core.ModUnderlined) {
		text = glyph.Underline(text)
	}
	if text == "" || text == " " || fg == bg {
		return animated
	}

	mask, ok := p.ras.Rasterize(text, glyph.Style{
		Bold:   c.Modifier.Has(core.ModBold),
		Italic: c.Modifier.Has(core.ModItalic),
	}, p.cell)
	if !ok {
		return animated
	}
	Composite(pm, mask, rect.Min, fg, bg)
	return animated
}

// Composite blends fg over bg with the coverage of mask, whose Rect is
// relative to origin. Zero coverage leaves the canvas untouched.
func Composite(pm *pixmap.Pixmap, mask *image.Alpha, origin image.Point, fg, bg core.RGB) {
	area := mask.Rect.Add(origin).Intersect(pm.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			c := mask.AlphaAt(x-origin.X, y-origin.Y).A
			if c == 0 {
				continue
			}
			pm.PutPixel(x, y, Blend(fg, bg, c))
		}
	}
}

// Blend returns round(fg*c/255 + bg*(255-c)/255) per channel.
func Blend(fg, bg core.RGB, c uint8) core.RGB {
	return core.RGB{
		R: blend(fg.R, bg.R, c),
		G: blend(fg.G, bg.G, c),
		B: blend(fg.B, bg.B, c),
	}
}

func blend(f, b, c uint8) uint8 {
	return uint8((uint32(f)*uint32(c) + uint32(b)*uint32(255-c) + 127) / 255)
}
