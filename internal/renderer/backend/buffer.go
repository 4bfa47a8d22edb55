package backend

import (
	"image"

	"github.com/dshills/softterm/internal/renderer/core"
)

// ScreenBuffer provides double-buffered drawing with change tracking.
// It maintains two grids: front (last frame handed to the engine) and
// back (drawing). ComputeDiff reports dirty cells that differ from the
// front grid.
type ScreenBuffer struct {
	front      *core.Buffer
	back       *core.Buffer
	dirty      []bool
	fullRedraw bool
}

// NewScreenBuffer creates a screen buffer with the given dimensions.
func NewScreenBuffer(cols, rows int) *ScreenBuffer {
	c, r := clampDim(cols), clampDim(rows)
	return &ScreenBuffer{
		front:      core.NewBuffer(c, r),
		back:       core.NewBuffer(c, r),
		dirty:      make([]bool, int(c)*int(r)),
		fullRedraw: true,
	}
}

// Resize resizes the buffer, preserving content where possible.
func (sb *ScreenBuffer) Resize(cols, rows int) {
	c, r := clampDim(cols), clampDim(rows)
	size := sb.back.Size()
	if c == size.Cols && r == size.Rows {
		return
	}
	sb.back.Resize(c, r)
	sb.front = core.NewBuffer(c, r)
	sb.dirty = make([]bool, int(c)*int(r))
	sb.fullRedraw = true
}

// Size returns the buffer dimensions.
func (sb *ScreenBuffer) Size() core.Size {
	return sb.back.Size()
}

func (sb *ScreenBuffer) mark(col, row int) {
	sb.dirty[row*int(sb.back.Size().Cols)+col] = true
}

// SetCell sets a cell in the back buffer.
func (sb *ScreenBuffer) SetCell(col, row int, cell core.Cell) {
	if !inGrid(sb.back.Size(), col, row) {
		return
	}
	sb.back.SetCell(uint16(col), uint16(row), cell)
	sb.mark(col, row)
}

// GetCell returns a cell from the back buffer.
func (sb *ScreenBuffer) GetCell(col, row int) core.Cell {
	if !inGrid(sb.back.Size(), col, row) {
		return core.EmptyCell()
	}
	return sb.back.Cell(uint16(col), uint16(row))
}

// GetFrontCell returns a cell from the front buffer.
func (sb *ScreenBuffer) GetFrontCell(col, row int) core.Cell {
	if !inGrid(sb.front.Size(), col, row) {
		return core.EmptyCell()
	}
	return sb.front.Cell(uint16(col), uint16(row))
}

// Fill fills a rectangle of cells with the given cell.
func (sb *ScreenBuffer) Fill(rect image.Rectangle, cell core.Cell) {
	size := sb.back.Size()
	rect = rect.Intersect(image.Rect(0, 0, int(size.Cols), int(size.Rows)))
	for row := rect.Min.Y; row < rect.Max.Y; row++ {
		for col := rect.Min.X; col < rect.Max.X; col++ {
			sb.back.SetCell(uint16(col), uint16(row), cell)
			sb.mark(col, row)
		}
	}
}

// Clear clears the back buffer with empty cells.
func (sb *ScreenBuffer) Clear() {
	sb.back.Reset()
	for i := range sb.dirty {
		sb.dirty[i] = true
	}
}

// ClearRegion clears a rectangular region.
func (sb *ScreenBuffer) ClearRegion(rect image.Rectangle) {
	sb.Fill(rect, core.EmptyCell())
}

// SetString writes a styled string starting at the position. Wide
// graphemes take two cells.
func (sb *ScreenBuffer) SetString(col, row int, s string, fg, bg core.Color, mod core.Modifier) int {
	if !inGrid(sb.back.Size(), col, row) {
		return col
	}
	end := int(sb.back.SetString(uint16(col), uint16(row), s, fg, bg, mod))
	for x := col; x < end; x++ {
		sb.mark(x, row)
	}
	return end
}

// ComputeDiff returns the changes needed to bring the front grid up to
// date with the back grid. Returns nil if no changes are needed.
func (sb *ScreenBuffer) ComputeDiff() []core.Change {
	if sb.fullRedraw {
		return sb.back.Changes()
	}

	var changes []core.Change
	cols := int(sb.back.Size().Cols)
	for i, d := range sb.dirty {
		if !d {
			continue
		}
		col, row := uint16(i%cols), uint16(i/cols)
		cell := sb.back.Cell(col, row)
		if !cell.Equals(sb.front.Cell(col, row)) {
			changes = append(changes, core.Change{Col: col, Row: row, Cell: cell})
		}
	}
	return changes
}

// Sync copies the back buffer to the front buffer and clears dirty flags.
// Call this after handing the diff to the engine.
func (sb *ScreenBuffer) Sync() {
	sb.front = sb.back.Clone()
	clear(sb.dirty)
	sb.fullRedraw = false
}

// Changes computes the diff and syncs.
func (sb *ScreenBuffer) Changes() []core.Change {
	changes := sb.ComputeDiff()
	sb.Sync()
	return changes
}

// MarkDirty marks a cell as needing redraw.
func (sb *ScreenBuffer) MarkDirty(col, row int) {
	if inGrid(sb.back.Size(), col, row) {
		sb.mark(col, row)
	}
}

// MarkFullRedraw forces every cell into the next diff.
func (sb *ScreenBuffer) MarkFullRedraw() {
	sb.fullRedraw = true
}

// IsDirty returns true if there are pending changes.
func (sb *ScreenBuffer) IsDirty() bool {
	if sb.fullRedraw {
		return true
	}
	for _, d := range sb.dirty {
		if d {
			return true
		}
	}
	return false
}

// DirtyCount returns the number of dirty cells.
func (sb *ScreenBuffer) DirtyCount() int {
	if sb.fullRedraw {
		return sb.back.Size().Area()
	}
	count := 0
	for _, d := range sb.dirty {
		if d {
			count++
		}
	}
	return count
}

// Back returns the drawing grid.
func (sb *ScreenBuffer) Back() *core.Buffer {
	return sb.back
}
