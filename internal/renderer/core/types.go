// Package core provides shared types for the renderer subsystem.
// This package breaks import cycles between renderer, cellrender and backend.
package core

import (
	"fmt"
	"strings"
)

// Modifier represents cell style flags (bold, italic, etc.).
type Modifier uint16

// Cell modifier flags.
const (
	ModNone       Modifier = 0
	ModBold       Modifier = 1 << (iota - 1)
	ModDim                 // Faint text, both colors scaled down
	ModItalic              // Italic glyph variant
	ModUnderlined          // Combining low line appended per rune
	ModSlowBlink           // Slow blink phase
	ModRapidBlink          // Fast blink phase
	ModReversed            // Swap foreground and background roles
	ModHidden              // Ink painted in the background color
	ModCrossedOut          // Combining long stroke appended per rune
)

var modifierNames = []struct {
	mod  Modifier
	name string
}{
	{ModBold, "bold"},
	{ModDim, "dim"},
	{ModItalic, "italic"},
	{ModUnderlined, "underlined"},
	{ModSlowBlink, "slow_blink"},
	{ModRapidBlink, "rapid_blink"},
	{ModReversed, "reversed"},
	{ModHidden, "hidden"},
	{ModCrossedOut, "crossed_out"},
}

// Has returns true if the modifier set contains all bits of mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod == mod && mod != 0
}

// With returns a new modifier set with the given modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new modifier set with the given modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// Blinks reports whether either blink modifier is set.
func (m Modifier) Blinks() bool {
	return m&(ModSlowBlink|ModRapidBlink) != 0
}

// String returns the modifier names joined by '|', or "none".
func (m Modifier) String() string {
	if m == ModNone {
		return "none"
	}
	var parts []string
	for _, mn := range modifierNames {
		if m.Has(mn.mod) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseModifier parses a single modifier name such as "bold" or "crossed_out".
// Dashes and spaces are accepted in place of underscores.
func ParseModifier(name string) (Modifier, error) {
	key := strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(name)))
	switch key {
	case "underline":
		return ModUnderlined, nil
	case "strikethrough", "strike":
		return ModCrossedOut, nil
	case "blink":
		return ModSlowBlink, nil
	case "reverse":
		return ModReversed, nil
	}
	for _, mn := range modifierNames {
		if mn.name == key {
			return mn.mod, nil
		}
	}
	return ModNone, fmt.Errorf("unknown modifier: %q", name)
}

// ColorKind identifies the variant held by a Color.
type ColorKind uint8

// Color kinds. The zero value is KindReset.
const (
	KindReset ColorKind = iota
	KindBlack
	KindRed
	KindGreen
	KindYellow
	KindBlue
	KindMagenta
	KindCyan
	KindGray
	KindDarkGray
	KindLightRed
	KindLightGreen
	KindLightYellow
	KindLightBlue
	KindLightMagenta
	KindLightCyan
	KindWhite
	KindIndexed
	KindRGB
)

var kindNames = [...]string{
	KindReset:        "reset",
	KindBlack:        "black",
	KindRed:          "red",
	KindGreen:        "green",
	KindYellow:       "yellow",
	KindBlue:         "blue",
	KindMagenta:      "magenta",
	KindCyan:         "cyan",
	KindGray:         "gray",
	KindDarkGray:     "darkgray",
	KindLightRed:     "lightred",
	KindLightGreen:   "lightgreen",
	KindLightYellow:  "lightyellow",
	KindLightBlue:    "lightblue",
	KindLightMagenta: "lightmagenta",
	KindLightCyan:    "lightcyan",
	KindWhite:        "white",
	KindIndexed:      "indexed",
	KindRGB:          "rgb",
}

// String returns the lower-case kind name.
func (k ColorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Named reports whether k is one of the 16 named colors.
func (k ColorKind) Named() bool {
	return k >= KindBlack && k <= KindWhite
}

// Color is an immutable tagged color value.
// Index is meaningful only for KindIndexed; R, G and B only for KindRGB.
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// Named colors.
var (
	ColorReset        = Color{Kind: KindReset}
	ColorBlack        = Color{Kind: KindBlack}
	ColorRed          = Color{Kind: KindRed}
	ColorGreen        = Color{Kind: KindGreen}
	ColorYellow       = Color{Kind: KindYellow}
	ColorBlue         = Color{Kind: KindBlue}
	ColorMagenta      = Color{Kind: KindMagenta}
	ColorCyan         = Color{Kind: KindCyan}
	ColorGray         = Color{Kind: KindGray}
	ColorDarkGray     = Color{Kind: KindDarkGray}
	ColorLightRed     = Color{Kind: KindLightRed}
	ColorLightGreen   = Color{Kind: KindLightGreen}
	ColorLightYellow  = Color{Kind: KindLightYellow}
	ColorLightBlue    = Color{Kind: KindLightBlue}
	ColorLightMagenta = Color{Kind: KindLightMagenta}
	ColorLightCyan    = Color{Kind: KindLightCyan}
	ColorWhite        = Color{Kind: KindWhite}
)

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{Kind: KindRGB, R: r, G: g, B: b}
}

// ColorFromIndex creates an indexed palette color.
func ColorFromIndex(index uint8) Color {
	return Color{Kind: KindIndexed, Index: index}
}

// IsReset returns true if this is the role-dependent default color.
func (c Color) IsReset() bool {
	return c.Kind == KindReset
}

// Equals returns true if two colors are equal. Fields that the kind does
// not use are ignored.
func (c Color) Equals(other Color) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case KindIndexed:
		return c.Index == other.Index
	case KindRGB:
		return c.R == other.R && c.G == other.G && c.B == other.B
	}
	return true
}

// String returns a string representation of the color.
func (c Color) String() string {
	switch c.Kind {
	case KindIndexed:
		return fmt.Sprintf("idx:%d", c.Index)
	case KindRGB:
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return c.Kind.String()
}

// RGB is a resolved 24-bit color.
type RGB struct {
	R, G, B uint8
}

// String returns the hex representation.
func (c RGB) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RGBA implements color.Color. The color is always opaque.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = 0xffff
	return
}

// Cell represents a single grid cell.
type Cell struct {
	// Symbol is one grapheme cluster, usually a single rune. An empty
	// symbol marks the trailing half of a wide grapheme.
	Symbol string

	Fg       Color
	Bg       Color
	Modifier Modifier
}

// EmptyCell returns a blank cell with reset colors.
func EmptyCell() Cell {
	return Cell{Symbol: " "}
}

// NewCell creates a cell with the given symbol and reset colors.
func NewCell(symbol string) Cell {
	return Cell{Symbol: symbol}
}

// WithColors returns a copy of the cell with the given colors.
func (c Cell) WithColors(fg, bg Color) Cell {
	c.Fg = fg
	c.Bg = bg
	return c
}

// WithModifier returns a copy of the cell with mod added.
func (c Cell) WithModifier(mod Modifier) Cell {
	c.Modifier = c.Modifier.With(mod)
	return c
}

// IsBlank returns true if the cell has no visible ink of its own.
func (c Cell) IsBlank() bool {
	return c.Symbol == "" || c.Symbol == " "
}

// Equals returns true if two cells are identical.
func (c Cell) Equals(other Cell) bool {
	return c.Symbol == other.Symbol &&
		c.Modifier == other.Modifier &&
		c.Fg.Equals(other.Fg) &&
		c.Bg.Equals(other.Bg)
}

// Position is a cell coordinate.
type Position struct {
	Col, Row uint16
}

// Size is a grid size in cells.
type Size struct {
	Cols, Rows uint16
}

// Area returns the number of cells.
func (s Size) Area() int {
	return int(s.Cols) * int(s.Rows)
}

// Contains reports whether p lies inside the grid.
func (s Size) Contains(p Position) bool {
	return p.Col < s.Cols && p.Row < s.Rows
}

// WindowSize reports the grid size together with its pixel size.
type WindowSize struct {
	Cols, Rows  uint16
	PixelWidth  int
	PixelHeight int
}

// Change is one element of a changed-cells sequence.
type Change struct {
	Col, Row uint16
	Cell     Cell
}

// Position returns the change coordinate.
func (c Change) Position() Position {
	return Position{Col: c.Col, Row: c.Row}
}
