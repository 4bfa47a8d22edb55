// Package glyph defines the rasterizer capability the cell renderer draws
// through, together with the font backends that implement it.
//
// A Rasterizer turns one grapheme cluster into an 8-bit coverage mask.
// The mask's Rect is expressed relative to the top-left pixel of the cell
// the grapheme is drawn in; it may extend past the cell on any side and the
// caller clips it. Backends that know their natural cell size also
// implement Sizer.
//
// Rasterizers are not safe for concurrent use.
package glyph

import (
	"image"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Style selects the font variant for a grapheme.
type Style struct {
	Bold   bool
	Italic bool
}

// Rasterizer renders graphemes to coverage masks.
type Rasterizer interface {
	// Rasterize returns the coverage mask for grapheme drawn in a cell of
	// the given pixel size. It returns false when no glyph is available,
	// in which case the cell shows only its background.
	Rasterize(grapheme string, style Style, cell image.Point) (*image.Alpha, bool)
}

// Sizer is implemented by rasterizers that determine their own cell size.
type Sizer interface {
	// CellSize returns the canonical cell width and height in pixels.
	CellSize() image.Point
}

// Combining marks used to decorate text.
const (
	CombiningLowLine    = '\u0332'
	CombiningLongStroke = '\u0336'
)

// ReferenceGlyph is rasterized to measure the cell size.
const ReferenceGlyph = '\u2588'

// Underline inserts U+0332 after every rune of s.
func Underline(s string) string {
	return interleave(s, CombiningLowLine)
}

// Strike inserts U+0336 after every rune of s.
func Strike(s string) string {
	return interleave(s, CombiningLongStroke)
}

func interleave(s string, mark rune) string {
	var b strings.Builder
	b.Grow(len(s) + utf8.RuneCountInString(s)*utf8.RuneLen(mark))
	for _, r := range s {
		b.WriteRune(r)
		b.WriteRune(mark)
	}
	return b.String()
}

// isMark reports whether r is a combining mark drawn over the preceding
// base rune without advancing.
func isMark(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Me)
}

// isInvisible reports whether r is a format or control rune that never
// produces ink (zero-width joiner, variation selectors, controls).
func isInvisible(r rune) bool {
	return unicode.In(r, unicode.Cf, unicode.Cc) ||
		(r >= 0xFE00 && r <= 0xFE0F)
}
