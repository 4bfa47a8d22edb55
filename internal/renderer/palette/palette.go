// Package palette maps logical cell colors to concrete RGB values.
//
// Resolution depends on the role a color plays: the Reset color is a light
// lavender when used for ink and a deep navy when used for the cell
// background. Every other color resolves the same way in both roles.
package palette

import (
	"github.com/dshills/softterm/internal/renderer/core"
)

// Role is the part of a cell a color is painted on.
type Role uint8

const (
	// Foreground is the glyph ink.
	Foreground Role = iota

	// Background is the cell fill.
	Background
)

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	default:
		return "unknown"
	}
}

// Default colors used for Reset.
var (
	DefaultForeground = core.RGB{R: 204, G: 204, B: 255}
	DefaultBackground = core.RGB{R: 15, G: 15, B: 112}
)

var named = [...]core.RGB{
	core.KindBlack:        {R: 0, G: 0, B: 0},
	core.KindRed:          {R: 139, G: 0, B: 0},
	core.KindGreen:        {R: 0, G: 100, B: 0},
	core.KindYellow:       {R: 255, G: 215, B: 0},
	core.KindBlue:         {R: 0, G: 0, B: 139},
	core.KindMagenta:      {R: 99, G: 9, B: 99},
	core.KindCyan:         {R: 0, G: 0, B: 255},
	core.KindGray:         {R: 128, G: 128, B: 128},
	core.KindDarkGray:     {R: 64, G: 64, B: 64},
	core.KindLightRed:     {R: 255, G: 0, B: 0},
	core.KindLightGreen:   {R: 0, G: 255, B: 0},
	core.KindLightYellow:  {R: 255, G: 255, B: 224},
	core.KindLightBlue:    {R: 173, G: 216, B: 230},
	core.KindLightMagenta: {R: 139, G: 0, B: 139},
	core.KindLightCyan:    {R: 224, G: 255, B: 255},
	core.KindWhite:        {R: 255, G: 255, B: 255},
}

// Resolve returns the RGB value of c when painted in the given role.
// It is total: every Color value maps to some RGB.
func Resolve(c core.Color, role Role) core.RGB {
	switch {
	case c.Kind == core.KindReset:
		if role == Background {
			return DefaultBackground
		}
		return DefaultForeground
	case c.Kind.Named():
		return named[c.Kind]
	case c.Kind == core.KindIndexed:
		return Indexed(c.Index)
	case c.Kind == core.KindRGB:
		return core.RGB{R: c.R, G: c.G, B: c.B}
	}
	// Unknown kinds behave like Reset.
	return Resolve(core.ColorReset, role)
}

// Indexed maps a palette index to RGB with the fixed formula
// (i*i, i+i, i), each channel wrapping at 256. This is not the xterm
// 256-color table.
func Indexed(i uint8) core.RGB {
	return core.RGB{R: i * i, G: i + i, B: i}
}

// Dim scales every channel by 77/255, rounding to nearest.
func Dim(c core.RGB) core.RGB {
	return core.RGB{R: dimChannel(c.R), G: dimChannel(c.G), B: dimChannel(c.B)}
}

func dimChannel(v uint8) uint8 {
	return uint8((uint32(v)*77 + 127) / 255)
}
