package glyph

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// FaceSet holds the variants of one font family. Regular is required;
// a missing variant is synthesized from the closest available face.
type FaceSet struct {
	Regular    font.Face
	Bold       font.Face
	Italic     font.Face
	BoldItalic font.Face
}

// FaceRasterizer adapts golang.org/x/image font faces to Rasterizer.
//
// Graphemes are NFC-normalized first so precomposed glyphs win over
// base+mark pairs. U+0332 and U+0336 are not looked up in the face: they
// always become a line across the pen span, placed below the baseline or
// through the x-height, so decorations line up from cell to cell.
type FaceRasterizer struct {
	faces FaceSet

	cell    image.Point // canonical cell size
	origin  image.Point // dot position relative to the cell's top-left pixel
	xHeight int
}

// NewFaceRasterizer measures the regular face and returns a rasterizer.
// The cell size comes from the bounds of the full block glyph, or from
// the face metrics if the face has no such glyph.
func NewFaceRasterizer(faces FaceSet) (*FaceRasterizer, error) {
	if faces.Regular == nil {
		return nil, ErrNoFace
	}
	fr := &FaceRasterizer{faces: faces}
	fr.measure()
	if fr.cell.X <= 0 || fr.cell.Y <= 0 {
		return nil, fmt.Errorf("%w: measured %dx%d", ErrInvalidCellSize, fr.cell.X, fr.cell.Y)
	}
	return fr, nil
}

func (fr *FaceRasterizer) measure() {
	face := fr.faces.Regular
	m := face.Metrics()

	if dr, _, _, _, ok := face.Glyph(fixed.Point26_6{}, ReferenceGlyph); ok && !dr.Empty() {
		fr.cell = dr.Size()
		fr.origin = image.Point{X: -dr.Min.X, Y: -dr.Min.Y}
	} else {
		adv, ok := face.GlyphAdvance('M')
		if !ok {
			adv = m.Height / 2
		}
		fr.cell = image.Point{X: adv.Ceil(), Y: (m.Ascent + m.Descent).Ceil()}
		fr.origin = image.Point{Y: m.Ascent.Ceil()}
	}

	fr.xHeight = m.XHeight.Round()
	if fr.xHeight <= 0 {
		fr.xHeight = fr.origin.Y / 2
	}
}

// CellSize implements Sizer.
func (fr *FaceRasterizer) CellSize() image.Point {
	return fr.cell
}

// Close releases every distinct face in the set.
func (fr *FaceRasterizer) Close() error {
	seen := make(map[font.Face]bool)
	var first error
	for _, f := range []font.Face{fr.faces.Regular, fr.faces.Bold, fr.faces.Italic, fr.faces.BoldItalic} {
		if f == nil || seen[f] {
			continue
		}
		seen[f] = true
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Rasterize implements Rasterizer.
func (fr *FaceRasterizer) Rasterize(grapheme string, style Style, cell image.Point) (*image.Alpha, bool) {
	if grapheme == "" || cell.X <= 0 || cell.Y <= 0 {
		return nil, false
	}
	face, fakeBold, fakeItalic := fr.pick(style)

	// Glyphs may overshoot the cell; keep one cell of slack on every side.
	dst := image.NewAlpha(image.Rect(-cell.X, -cell.Y, 2*cell.X, 2*cell.Y))
	origin := fr.origin.Add(image.Pt(0, (cell.Y-fr.cell.Y)/2))
	dot := fixed.P(origin.X, origin.Y)

	var underline, strike bool
	for _, r := range norm.NFC.String(grapheme) {
		switch {
		case isInvisible(r):
		case r == CombiningLowLine:
			underline = true
		case r == CombiningLongStroke:
			strike = true
		case isMark(r):
			if adv, ok := fr.draw(dst, face, dot, r, fakeBold); ok {
				dot.X += adv
			}
		default:
			adv, ok := fr.draw(dst, face, dot, r, fakeBold)
			if !ok {
				adv = fixed.I(fr.cell.X)
			}
			dot.X += adv
		}
	}

	span := max(cell.X, dot.X.Ceil())
	thickness := max(1, cell.Y/16)
	if underline {
		y := min(origin.Y+1, cell.Y-thickness)
		fillRow(dst, 0, span, y, thickness)
	}
	if strike {
		fillRow(dst, 0, span, origin.Y-fr.xHeight/2, thickness)
	}

	if fakeItalic {
		dst = shear(dst, origin.Y)
	}
	return trim(dst)
}

// pick selects the face for style and reports which variants must be
// synthesized.
func (fr *FaceRasterizer) pick(s Style) (face font.Face, fakeBold, fakeItalic bool) {
	f := fr.faces
	switch {
	case s.Bold && s.Italic:
		if f.BoldItalic != nil {
			return f.BoldItalic, false, false
		}
		if f.Bold != nil {
			return f.Bold, false, true
		}
		if f.Italic != nil {
			return f.Italic, true, false
		}
		return f.Regular, true, true
	case s.Bold:
		if f.Bold != nil {
			return f.Bold, false, false
		}
		return f.Regular, true, false
	case s.Italic:
		if f.Italic != nil {
			return f.Italic, false, false
		}
		return f.Regular, false, true
	}
	return f.Regular, false, false
}

// draw composites the glyph for r at dot, falling back to the regular
// face when the variant lacks it.
func (fr *FaceRasterizer) draw(dst *image.Alpha, face font.Face, dot fixed.Point26_6, r rune, bold bool) (fixed.Int26_6, bool) {
	for _, f := range []font.Face{face, fr.faces.Regular} {
		dr, mask, maskp, adv, ok := f.Glyph(dot, r)
		if !ok {
			continue
		}
		if mask != nil && !dr.Empty() {
			draw.DrawMask(dst, dr, image.Opaque, image.Point{}, mask, maskp, draw.Over)
			if bold {
				draw.DrawMask(dst, dr.Add(image.Pt(1, 0)), image.Opaque, image.Point{}, mask, maskp, draw.Over)
			}
		}
		return adv, true
	}
	return 0, false
}
