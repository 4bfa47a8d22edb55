// Package backend provides writable cell surfaces that feed the render
// engine. A host draws into a Surface and hands Changes() to
// renderer.Engine.Draw once per frame.
package backend

import "github.com/dshills/softterm/internal/renderer/core"

// Surface is a cell grid that tracks what changed since the last frame.
// Writes outside the grid are silently ignored.
type Surface interface {
	// Size returns the grid dimensions.
	Size() core.Size

	// Resize changes the grid dimensions, preserving the overlap.
	// The next Changes call reports every cell.
	Resize(cols, rows int)

	// SetCell sets a single cell.
	SetCell(col, row int, cell core.Cell)

	// GetCell returns the cell at the given position.
	// Returns an empty cell for positions outside the grid.
	GetCell(col, row int) core.Cell

	// SetString writes s starting at (col, row), one grapheme per cell,
	// and returns the column after the last cell written.
	SetString(col, row int, s string, fg, bg core.Color, mod core.Modifier) int

	// Clear resets every cell to empty.
	Clear()

	// Changes returns the cells that differ from the previous frame and
	// starts a new frame.
	Changes() []core.Change
}

var (
	_ Surface = (*ScreenBuffer)(nil)
	_ Surface = (*TcellBridge)(nil)
)

func inGrid(size core.Size, col, row int) bool {
	return col >= 0 && row >= 0 && col < int(size.Cols) && row < int(size.Rows)
}

func clampDim(n int) uint16 {
	if n < 0 {
		return 0
	}
	if n > 0xffff {
		return 0xffff
	}
	return uint16(n)
}
