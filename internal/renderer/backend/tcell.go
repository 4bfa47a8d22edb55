package backend

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/softterm/internal/renderer/core"
)

// TcellBridge exposes a tcell.Screen as a Surface. Anything that already
// draws with tcell (for example a tcell.SimulationScreen driven by a TUI
// library) can be rendered by capturing its cells.
//
// tcell has no hidden attribute, so ModHidden does not survive a round
// trip, and both blink speeds come back as ModSlowBlink.
type TcellBridge struct {
	screen tcell.Screen
	prev   *core.Buffer
}

// NewTcellBridge wraps an initialized screen.
func NewTcellBridge(screen tcell.Screen) *TcellBridge {
	return &TcellBridge{screen: screen}
}

// NewSimulationBridge creates a bridge over a fresh simulation screen of
// the given size.
func NewSimulationBridge(cols, rows int) (*TcellBridge, error) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.SetSize(cols, rows)
	return NewTcellBridge(screen), nil
}

// Screen returns the wrapped screen.
func (b *TcellBridge) Screen() tcell.Screen {
	return b.screen
}

// Close finalizes the wrapped screen.
func (b *TcellBridge) Close() {
	b.screen.Fini()
}

// Size returns the screen dimensions.
func (b *TcellBridge) Size() core.Size {
	w, h := b.screen.Size()
	return core.Size{Cols: clampDim(w), Rows: clampDim(h)}
}

// Resize resizes a simulation screen. Other screens follow the terminal
// and ignore the request.
func (b *TcellBridge) Resize(cols, rows int) {
	if sim, ok := b.screen.(tcell.SimulationScreen); ok {
		sim.SetSize(cols, rows)
	}
	b.prev = nil
}

// SetCell writes a cell to the screen. Continuation cells of wide
// graphemes are skipped; tcell tracks width itself.
func (b *TcellBridge) SetCell(col, row int, cell core.Cell) {
	if !inGrid(b.Size(), col, row) || cell.Symbol == "" {
		return
	}
	runes := []rune(cell.Symbol)
	b.screen.SetContent(col, row, runes[0], runes[1:], StyleFor(cell))
}

// GetCell reads a cell back from the screen.
func (b *TcellBridge) GetCell(col, row int) core.Cell {
	if !inGrid(b.Size(), col, row) {
		return core.EmptyCell()
	}
	cell, _ := b.read(col, row)
	return cell
}

func (b *TcellBridge) read(col, row int) (core.Cell, int) {
	mainc, combc, style, width := b.screen.GetContent(col, row) //nolint:staticcheck // GetContent is the correct API
	if mainc == 0 {
		mainc = ' '
	}
	cell := CellFromStyle(string(append([]rune{mainc}, combc...)), style)
	return cell, width
}

// SetString writes s one grapheme per cell and returns the column after
// the last cell written.
func (b *TcellBridge) SetString(col, row int, s string, fg, bg core.Color, mod core.Modifier) int {
	size := b.Size()
	if !inGrid(size, col, row) {
		return col
	}
	style := StyleFor(core.Cell{Fg: fg, Bg: bg, Modifier: mod})
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		width := g.Width()
		if width <= 0 {
			continue
		}
		if col+width > int(size.Cols) {
			break
		}
		runes := g.Runes()
		b.screen.SetContent(col, row, runes[0], runes[1:], style)
		col += width
	}
	return col
}

// Clear clears the screen.
func (b *TcellBridge) Clear() {
	b.screen.Clear()
}

// Capture reads the whole screen into a grid. The cell after a wide
// grapheme becomes a continuation cell with an empty symbol.
func (b *TcellBridge) Capture() *core.Buffer {
	size := b.Size()
	buf := core.NewBuffer(size.Cols, size.Rows)
	for row := 0; row < int(size.Rows); row++ {
		for col := 0; col < int(size.Cols); col++ {
			cell, width := b.read(col, row)
			buf.SetCell(uint16(col), uint16(row), cell)
			if width == 2 && col+1 < int(size.Cols) {
				col++
				cell.Symbol = ""
				buf.SetCell(uint16(col), uint16(row), cell)
			}
		}
	}
	return buf
}

// Changes captures the screen and returns the cells that differ from the
// previous capture.
func (b *TcellBridge) Changes() []core.Change {
	cur := b.Capture()
	changes := cur.Diff(b.prev)
	b.prev = cur
	return changes
}

// StyleFor converts a cell's colors and modifiers to a tcell style.
func StyleFor(cell core.Cell) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(TcellColor(cell.Fg)).
		Background(TcellColor(cell.Bg))

	mod := cell.Modifier
	if mod.Has(core.ModBold) {
		style = style.Bold(true)
	}
	if mod.Has(core.ModDim) {
		style = style.Dim(true)
	}
	if mod.Has(core.ModItalic) {
		style = style.Italic(true)
	}
	if mod.Has(core.ModUnderlined) {
		style = style.Underline(true)
	}
	if mod.Blinks() {
		style = style.Blink(true)
	}
	if mod.Has(core.ModReversed) {
		style = style.Reverse(true)
	}
	if mod.Has(core.ModCrossedOut) {
		style = style.StrikeThrough(true)
	}
	return style
}

// CellFromStyle builds a cell from a symbol and a tcell style.
func CellFromStyle(symbol string, style tcell.Style) core.Cell {
	fg, bg, attrs := style.Decompose()

	var mod core.Modifier
	if attrs&tcell.AttrBold != 0 {
		mod |= core.ModBold
	}
	if attrs&tcell.AttrDim != 0 {
		mod |= core.ModDim
	}
	if attrs&tcell.AttrItalic != 0 {
		mod |= core.ModItalic
	}
	if attrs&tcell.AttrUnderline != 0 {
		mod |= core.ModUnderlined
	}
	if attrs&tcell.AttrBlink != 0 {
		mod |= core.ModSlowBlink
	}
	if attrs&tcell.AttrReverse != 0 {
		mod |= core.ModReversed
	}
	if attrs&tcell.AttrStrikeThrough != 0 {
		mod |= core.ModCrossedOut
	}

	return core.Cell{
		Symbol:   symbol,
		Fg:       ColorFromTcell(fg),
		Bg:       ColorFromTcell(bg),
		Modifier: mod,
	}
}

// TcellColor converts a color to tcell. Named colors map to the first 16
// palette entries in ANSI order.
func TcellColor(c core.Color) tcell.Color {
	switch {
	case c.Kind.Named():
		return tcell.PaletteColor(int(c.Kind - core.KindBlack))
	case c.Kind == core.KindIndexed:
		return tcell.PaletteColor(int(c.Index))
	case c.Kind == core.KindRGB:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}
	return tcell.ColorDefault
}

// ColorFromTcell converts a tcell color. Palette entries below 16 become
// named colors; anything that is not a valid color becomes Reset.
func ColorFromTcell(tc tcell.Color) core.Color {
	switch {
	case tc&tcell.ColorIsRGB != 0:
		r, g, b := tc.RGB()
		return core.ColorFromRGB(uint8(r), uint8(g), uint8(b))
	case tc&tcell.ColorValid != 0 && tc&tcell.ColorSpecial == 0:
		idx := int(tc - tcell.ColorValid)
		if idx < 16 {
			return core.Color{Kind: core.KindBlack + core.ColorKind(idx)}
		}
		return core.ColorFromIndex(uint8(idx))
	}
	return core.ColorReset
}
