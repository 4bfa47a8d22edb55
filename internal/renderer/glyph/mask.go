package glyph

import (
	"image"
	"image/color"
)

// fillRow sets full coverage for rows [y, y+thickness) and columns [x0, x1).
func fillRow(dst *image.Alpha, x0, x1, y, thickness int) {
	r := image.Rect(x0, y, x1, y+thickness).Intersect(dst.Rect)
	for yy := r.Min.Y; yy < r.Max.Y; yy++ {
		for xx := r.Min.X; xx < r.Max.X; xx++ {
			dst.SetAlpha(xx, yy, color.Alpha{A: 0xff})
		}
	}
}

// shear slants coverage to the right above baseline and to the left below
// it, one pixel per four rows.
func shear(src *image.Alpha, baseline int) *image.Alpha {
	b := src.Rect
	dst := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		shift := (baseline - y) / 4
		for x := b.Min.X; x < b.Max.X; x++ {
			a := src.AlphaAt(x, y).A
			if a == 0 {
				continue
			}
			nx := x + shift
			if nx < b.Min.X || nx >= b.Max.X {
				continue
			}
			dst.SetAlpha(nx, y, color.Alpha{A: a})
		}
	}
	return dst
}

// trim returns the sub-image holding all non-zero coverage, or false if
// there is none.
func trim(m *image.Alpha) (*image.Alpha, bool) {
	b := m.Rect
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := m.Pix[(y-b.Min.Y)*m.Stride : (y-b.Min.Y)*m.Stride+b.Dx()]
		for i, a := range row {
			if a == 0 {
				continue
			}
			x := b.Min.X + i
			minX, maxX = min(minX, x), max(maxX, x+1)
			minY, maxY = min(minY, y), max(maxY, y+1)
		}
	}
	if minX >= maxX || minY >= maxY {
		return nil, false
	}
	return m.SubImage(image.Rect(minX, minY, maxX, maxY)).(*image.Alpha), true
}
