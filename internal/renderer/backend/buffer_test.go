package backend

import (
	"image"
	"testing"

	"github.com/dshills/softterm/internal/renderer/core"
)

func TestNewScreenBuffer(t *testing.T) {
	sb := NewScreenBuffer(80, 24)

	size := sb.Size()
	if size.Cols != 80 || size.Rows != 24 {
		t.Errorf("expected size (80, 24), got (%d, %d)", size.Cols, size.Rows)
	}
	if !sb.IsDirty() {
		t.Error("new buffer should need a full redraw")
	}
	if sb.DirtyCount() != 80*24 {
		t.Errorf("expected %d dirty cells, got %d", 80*24, sb.DirtyCount())
	}
}

func TestScreenBufferSetGetCell(t *testing.T) {
	sb := NewScreenBuffer(80, 24)

	cell := core.NewCell("A").WithColors(core.ColorBlue, core.ColorReset)
	sb.SetCell(10, 5, cell)

	got := sb.GetCell(10, 5)
	if !got.Equals(cell) {
		t.Errorf("cell mismatch: expected %+v, got %+v", cell, got)
	}

	// Out of bounds
	sb.SetCell(-1, 0, cell) // Should not panic
	sb.SetCell(100, 0, cell)

	empty := sb.GetCell(-1, 0)
	if !empty.Equals(core.EmptyCell()) {
		t.Error("out of bounds should return empty cell")
	}
}

func TestScreenBufferFill(t *testing.T) {
	sb := NewScreenBuffer(80, 24)

	cell := core.NewCell("#")
	sb.Fill(image.Rect(10, 5, 30, 15), cell)

	if !sb.GetCell(20, 10).Equals(cell) {
		t.Error("cell inside rect should be filled")
	}
	if sb.GetCell(0, 0).Equals(cell) {
		t.Error("cell outside rect should not be filled")
	}

	// Clipped, must not panic
	sb.Fill(image.Rect(-5, -5, 200, 200), cell)
	if !sb.GetCell(79, 23).Equals(cell) {
		t.Error("clipped fill should reach the last cell")
	}
}

func TestScreenBufferClearRegion(t *testing.T) {
	sb := NewScreenBuffer(80, 24)
	sb.Fill(image.Rect(0, 0, 80, 24), core.NewCell("X"))
	sb.ClearRegion(image.Rect(10, 5, 30, 15))

	if !sb.GetCell(20, 10).Equals(core.EmptyCell()) {
		t.Error("cell inside cleared region should be empty")
	}
	if sb.GetCell(5, 5).Symbol != "X" {
		t.Error("cell outside cleared region should be unchanged")
	}
}

func TestScreenBufferDiffAndSync(t *testing.T) {
	sb := NewScreenBuffer(4, 2)

	if got := len(sb.ComputeDiff()); got != 8 {
		t.Fatalf("first diff should report every cell, got %d", got)
	}
	sb.Sync()

	if sb.IsDirty() {
		t.Error("buffer should be clean after sync")
	}
	if changes := sb.ComputeDiff(); changes != nil {
		t.Errorf("expected no changes, got %v", changes)
	}

	sb.SetCell(1, 1, core.NewCell("z"))
	sb.SetCell(2, 0, core.EmptyCell()) // dirty but unchanged
	changes := sb.ComputeDiff()
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Col != 1 || changes[0].Row != 1 || changes[0].Cell.Symbol != "z" {
		t.Errorf("unexpected change %+v", changes[0])
	}
	if sb.GetFrontCell(1, 1).Symbol == "z" {
		t.Error("front buffer should not change before sync")
	}

	sb.Sync()
	if sb.GetFrontCell(1, 1).Symbol != "z" {
		t.Error("front buffer should hold the synced cell")
	}
}

func TestScreenBufferChanges(t *testing.T) {
	sb := NewScreenBuffer(3, 1)
	_ = sb.Changes()

	sb.SetString(0, 0, "ab", core.ColorRed, core.ColorReset, core.ModBold)
	changes := sb.Changes()
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[1].Cell.Symbol != "b" || changes[1].Cell.Modifier != core.ModBold {
		t.Errorf("unexpected change %+v", changes[1])
	}
	if len(sb.Changes()) != 0 {
		t.Error("Changes should start a new frame")
	}
}

func TestScreenBufferSetStringWide(t *testing.T) {
	sb := NewScreenBuffer(5, 1)

	end := sb.SetString(0, 0, "日本語", core.ColorReset, core.ColorReset, core.ModNone)
	if end != 4 {
		t.Errorf("expected end column 4, got %d", end)
	}
	if sb.GetCell(0, 0).Symbol != "日" || sb.GetCell(1, 0).Symbol != "" {
		t.Error("wide grapheme should occupy two cells")
	}
	if sb.GetCell(4, 0).Symbol != " " {
		t.Error("third wide grapheme should not fit")
	}
	if got := sb.SetString(9, 0, "x", core.ColorReset, core.ColorReset, core.ModNone); got != 9 {
		t.Errorf("out of range write should return the start column, got %d", got)
	}
}

func TestScreenBufferResize(t *testing.T) {
	sb := NewScreenBuffer(4, 4)
	sb.SetCell(1, 1, core.NewCell("k"))
	sb.SetCell(3, 3, core.NewCell("m"))
	sb.Sync()

	sb.Resize(2, 2)
	size := sb.Size()
	if size.Cols != 2 || size.Rows != 2 {
		t.Errorf("expected 2x2, got %dx%d", size.Cols, size.Rows)
	}
	if sb.GetCell(1, 1).Symbol != "k" {
		t.Error("overlap should be preserved")
	}
	if len(sb.ComputeDiff()) != 4 {
		t.Error("resize should force a full redraw")
	}

	// Same size is a no-op
	sb.Sync()
	sb.Resize(2, 2)
	if sb.IsDirty() {
		t.Error("resizing to the same size should not dirty the buffer")
	}
}

func TestScreenBufferMarkDirty(t *testing.T) {
	sb := NewScreenBuffer(3, 3)
	sb.Sync()

	sb.MarkDirty(1, 1)
	sb.MarkDirty(-1, 7) // ignored
	if sb.DirtyCount() != 1 {
		t.Errorf("expected 1 dirty cell, got %d", sb.DirtyCount())
	}

	sb.MarkFullRedraw()
	if sb.DirtyCount() != 9 {
		t.Errorf("full redraw should count every cell, got %d", sb.DirtyCount())
	}
}

func TestScreenBufferClear(t *testing.T) {
	sb := NewScreenBuffer(3, 1)
	sb.SetCell(0, 0, core.NewCell("X"))
	sb.Sync()

	sb.Clear()
	changes := sb.Changes()
	if len(changes) != 1 || !changes[0].Cell.Equals(core.EmptyCell()) {
		t.Errorf("clear should report the one cell that changed, got %v", changes)
	}
}
