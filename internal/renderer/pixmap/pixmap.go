// Package pixmap provides the flat RGB pixel canvas the renderer paints into.
//
// Pixels are stored row-major, three bytes per pixel, with no padding:
// the byte offset of (x, y) is 3*(y*width+x). A Pixmap also satisfies
// draw.Image so it can be handed to image/png and image/draw directly.
package pixmap

import (
	"fmt"
	"image"
	"image/color"

	"github.com/dshills/softterm/internal/renderer/core"
)

// Pixmap is a width x height RGB canvas.
type Pixmap struct {
	width, height int
	pix           []uint8
}

// New creates a zero-filled (black) canvas.
func New(width, height int) *Pixmap {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("pixmap: negative size %dx%d", width, height))
	}
	return &Pixmap{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*3),
	}
}

// Width returns the canvas width in pixels.
func (p *Pixmap) Width() int { return p.width }

// Height returns the canvas height in pixels.
func (p *Pixmap) Height() int { return p.height }

// Data returns the underlying RGB bytes. The slice is live: later paints
// are visible through it until the canvas is replaced.
func (p *Pixmap) Data() []uint8 { return p.pix }

func (p *Pixmap) offset(x, y int) int {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		panic(fmt.Sprintf("pixmap: pixel (%d,%d) outside %dx%d canvas", x, y, p.width, p.height))
	}
	return 3 * (y*p.width + x)
}

// PutPixel sets the pixel at (x, y). It panics if the pixel is outside
// the canvas.
func (p *Pixmap) PutPixel(x, y int, c core.RGB) {
	i := p.offset(x, y)
	p.pix[i] = c.R
	p.pix[i+1] = c.G
	p.pix[i+2] = c.B
}

// Pixel returns the pixel at (x, y). It panics if the pixel is outside
// the canvas.
func (p *Pixmap) Pixel(x, y int) core.RGB {
	i := p.offset(x, y)
	return core.RGB{R: p.pix[i], G: p.pix[i+1], B: p.pix[i+2]}
}

// Fill sets every pixel to c.
func (p *Pixmap) Fill(c core.RGB) {
	if len(p.pix) == 0 {
		return
	}
	p.pix[0], p.pix[1], p.pix[2] = c.R, c.G, c.B
	for filled := 3; filled < len(p.pix); filled *= 2 {
		copy(p.pix[filled:], p.pix[:filled])
	}
}

// FillRect sets every pixel of r to c. The rectangle is clipped to the
// canvas.
func (p *Pixmap) FillRect(r image.Rectangle, c core.RGB) {
	r = r.Intersect(p.Bounds())
	if r.Empty() {
		return
	}
	row := p.pix[3*(r.Min.Y*p.width+r.Min.X) : 3*(r.Min.Y*p.width+r.Max.X)]
	row[0], row[1], row[2] = c.R, c.G, c.B
	for filled := 3; filled < len(row); filled *= 2 {
		copy(row[filled:], row[:filled])
	}
	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		start := 3 * (y*p.width + r.Min.X)
		copy(p.pix[start:start+len(row)], row)
	}
}

// RGBA returns a new 4-channel copy of the canvas with alpha 255.
func (p *Pixmap) RGBA() []uint8 {
	out := make([]uint8, p.width*p.height*4)
	for i, j := 0, 0; i < len(p.pix); i, j = i+3, j+4 {
		out[j] = p.pix[i]
		out[j+1] = p.pix[i+1]
		out[j+2] = p.pix[i+2]
		out[j+3] = 0xff
	}
	return out
}

// ToRGBA returns the canvas as an *image.RGBA.
func (p *Pixmap) ToRGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    p.RGBA(),
		Stride: p.width * 4,
		Rect:   p.Bounds(),
	}
}

// Bounds implements image.Image.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements image.Image.
func (p *Pixmap) ColorModel() color.Model {
	return color.ModelFunc(rgbModel)
}

// At implements image.Image. Points outside the canvas are transparent
// black, as image.Image requires.
func (p *Pixmap) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Bounds())) {
		return color.RGBA{}
	}
	return p.Pixel(x, y)
}

// Set implements draw.Image. Points outside the canvas are ignored.
func (p *Pixmap) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Bounds())) {
		return
	}
	p.PutPixel(x, y, rgbModel(c).(core.RGB))
}

func rgbModel(c color.Color) color.Color {
	if native, ok := c.(core.RGB); ok {
		return native
	}
	r, g, b, _ := c.RGBA()
	return core.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}
