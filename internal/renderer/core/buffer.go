package core

import (
	"fmt"

	"github.com/rivo/uniseg"
)

// Buffer is a row-major grid of cells.
// Cell and SetCell panic on out-of-range coordinates; callers that take
// coordinates from outside the process validate them first.
type Buffer struct {
	size  Size
	cells []Cell
}

// NewBuffer creates a buffer filled with empty cells.
func NewBuffer(cols, rows uint16) *Buffer {
	b := &Buffer{size: Size{Cols: cols, Rows: rows}}
	b.cells = make([]Cell, b.size.Area())
	b.Reset()
	return b
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() Size {
	return b.size
}

func (b *Buffer) index(col, row uint16) int {
	if col >= b.size.Cols || row >= b.size.Rows {
		panic(fmt.Sprintf("core: cell (%d,%d) outside %dx%d grid", col, row, b.size.Cols, b.size.Rows))
	}
	return int(row)*int(b.size.Cols) + int(col)
}

// Cell returns the cell at the given position.
func (b *Buffer) Cell(col, row uint16) Cell {
	return b.cells[b.index(col, row)]
}

// SetCell replaces the cell at the given position.
func (b *Buffer) SetCell(col, row uint16, cell Cell) {
	b.cells[b.index(col, row)] = cell
}

// Reset fills the buffer with empty cells.
func (b *Buffer) Reset() {
	empty := EmptyCell()
	for i := range b.cells {
		b.cells[i] = empty
	}
}

// Resize changes the dimensions, preserving the overlapping region.
func (b *Buffer) Resize(cols, rows uint16) {
	if cols == b.size.Cols && rows == b.size.Rows {
		return
	}
	old := b.cells
	oldSize := b.size

	b.size = Size{Cols: cols, Rows: rows}
	b.cells = make([]Cell, b.size.Area())
	b.Reset()

	copyRows := min(oldSize.Rows, rows)
	copyCols := int(min(oldSize.Cols, cols))
	for row := uint16(0); row < copyRows; row++ {
		src := int(row) * int(oldSize.Cols)
		dst := int(row) * int(cols)
		copy(b.cells[dst:dst+copyCols], old[src:src+copyCols])
	}
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{size: b.size, cells: make([]Cell, len(b.cells))}
	copy(c.cells, b.cells)
	return c
}

// SetString writes s starting at (col, row), one grapheme cluster per cell.
// Wide clusters take two cells; the trailing cell gets an empty symbol.
// Writing stops at the end of the row. It returns the column after the
// last written cell.
func (b *Buffer) SetString(col, row uint16, s string, fg, bg Color, mod Modifier) uint16 {
	if row >= b.size.Rows {
		return col
	}
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		width := g.Width()
		if width <= 0 {
			// Zero-width clusters (control characters) occupy no cell.
			continue
		}
		if int(col)+width > int(b.size.Cols) {
			break
		}
		b.SetCell(col, row, Cell{Symbol: g.Str(), Fg: fg, Bg: bg, Modifier: mod})
		col++
		for i := 1; i < width; i++ {
			b.SetCell(col, row, Cell{Symbol: "", Fg: fg, Bg: bg, Modifier: mod})
			col++
		}
	}
	return col
}

// Diff returns the cells of b that differ from prev, in row-major order.
// If prev is nil or has a different size, every cell is returned.
func (b *Buffer) Diff(prev *Buffer) []Change {
	full := prev == nil || prev.size != b.size
	var changes []Change
	for i, cell := range b.cells {
		if !full && cell.Equals(prev.cells[i]) {
			continue
		}
		changes = append(changes, Change{
			Col:  uint16(i % int(b.size.Cols)),
			Row:  uint16(i / int(b.size.Cols)),
			Cell: cell,
		})
	}
	return changes
}

// Changes returns every cell as a change, in row-major order.
func (b *Buffer) Changes() []Change {
	return b.Diff(nil)
}
