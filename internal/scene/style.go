package scene

import (
	"fmt"
	"strings"

	"github.com/dshills/softterm/internal/renderer/core"
	"github.com/dshills/softterm/internal/renderer/palette"
)

// Style is the appearance applied to written cells.
type Style struct {
	Fg, Bg   core.Color
	Modifier core.Modifier
}

// DefaultStyle uses the terminal default colors with no modifiers.
var DefaultStyle = Style{}

// cell returns symbol painted in s.
func (s Style) cell(symbol string) core.Cell {
	return core.NewCell(symbol).WithColors(s.Fg, s.Bg).WithModifier(s.Modifier)
}

// colorFromIndex validates an indexed color given as a number.
func colorFromIndex(n float64) (core.Color, error) {
	if n < 0 || n > 255 || n != float64(int(n)) {
		return core.Color{}, fmt.Errorf("%w: index %v must be an integer 0-255", palette.ErrInvalidColor, n)
	}
	return core.ColorFromIndex(uint8(n)), nil
}

// parseModifiers parses names separated by '|', ',' or whitespace.
func parseModifiers(s string) (core.Modifier, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' ' || r == '\t'
	})
	var mod core.Modifier
	for _, f := range fields {
		m, err := core.ParseModifier(f)
		if err != nil {
			return core.ModNone, err
		}
		mod = mod.With(m)
	}
	return mod, nil
}
