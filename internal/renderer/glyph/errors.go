package glyph

import (
	"errors"
	"fmt"
)

// Sentinel errors for font loading.
var (
	// ErrNoFace is returned when a rasterizer is built without a regular face.
	ErrNoFace = errors.New("no regular font face")

	// ErrInvalidCellSize is returned for non-positive cell dimensions.
	ErrInvalidCellSize = errors.New("invalid cell size")

	// ErrInvalidFontSize is returned for non-positive font sizes.
	ErrInvalidFontSize = errors.New("invalid font size")

	// ErrNoGlyphs is returned when a bitmap font contains no glyphs.
	ErrNoGlyphs = errors.New("font contains no glyphs")
)

// FontError wraps a failure to load font data for a backend.
type FontError struct {
	Backend string
	Line    int // 1-based line for text formats, 0 otherwise
	Err     error
}

func (e *FontError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s font: line %d: %v", e.Backend, e.Line, e.Err)
	}
	return fmt.Sprintf("%s font: %v", e.Backend, e.Err)
}

func (e *FontError) Unwrap() error {
	return e.Err
}
