package renderer

import (
	"errors"
	"fmt"
	"image"
	"iter"
	"maps"
	"slices"

	"github.com/dshills/softterm/internal/renderer/cellrender"
	"github.com/dshills/softterm/internal/renderer/core"
	"github.com/dshills/softterm/internal/renderer/glyph"
	"github.com/dshills/softterm/internal/renderer/palette"
	"github.com/dshills/softterm/internal/renderer/pixmap"
)

// Engine renders a cell grid into an RGB canvas.
//
// The canvas is always CellSize().X*cols by CellSize().Y*rows pixels. The
// cell size is fixed by the rasterizer and survives Resize; only
// SetRasterizer changes it.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	grid    *core.Buffer
	canvas  *pixmap.Pixmap
	ras     glyph.Rasterizer
	painter *cellrender.Painter

	cell         image.Point
	cellOverride image.Point

	blinkCounter int
	blink        cellrender.Blink

	// animated holds the cells repainted on every Draw.
	animated map[core.Position]struct{}

	cursorVisible bool
	cursorPos     core.Position

	generation uint64
	log        Logger
}

// New creates an engine using the bundled Go Mono font at its default size.
func New(cols, rows uint16, opts ...Option) (*Engine, error) {
	ras, err := glyph.NewGoMono(glyph.DefaultFaceOptions())
	if err != nil {
		return nil, fmt.Errorf("load default font: %w", err)
	}
	return NewWithRasterizer(cols, rows, ras, opts...)
}

// NewWithRasterizer creates an engine drawing glyphs through ras.
// The canvas starts cleared to the default background.
func NewWithRasterizer(cols, rows uint16, ras glyph.Rasterizer, opts ...Option) (*Engine, error) {
	e := &Engine{
		grid:     core.NewBuffer(cols, rows),
		animated: make(map[core.Position]struct{}),
		log:      nopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}

	cell, err := e.cellSizeFor(ras, e.cellOverride)
	if err != nil {
		return nil, err
	}
	e.install(ras, cell)
	e.allocate()
	e.log.Debug("engine created: %dx%d cells of %dx%d px", cols, rows, cell.X, cell.Y)

	if err := e.Clear(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) cellSizeFor(ras glyph.Rasterizer, override image.Point) (image.Point, error) {
	if ras == nil {
		return image.Point{}, ErrNilRasterizer
	}
	cell := override
	if cell == (image.Point{}) {
		sizer, ok := ras.(glyph.Sizer)
		if !ok {
			return image.Point{}, ErrNoCellSize
		}
		cell = sizer.CellSize()
	}
	if cell.X <= 0 || cell.Y <= 0 {
		return image.Point{}, fmt.Errorf("%w: %dx%d", ErrInvalidCellSize, cell.X, cell.Y)
	}
	return cell, nil
}

func (e *Engine) install(ras glyph.Rasterizer, cell image.Point) {
	e.ras = ras
	e.cell = cell
	e.painter = cellrender.NewPainter(ras, cell)
}

// allocate replaces the canvas to match the grid and cell size.
func (e *Engine) allocate() {
	size := e.grid.Size()
	e.canvas = pixmap.New(e.cell.X*int(size.Cols), e.cell.Y*int(size.Rows))
	e.generation++
}

// Draw applies changes to the grid and paints them, then repaints every
// animated cell. Changes outside the grid are skipped and reported as
// ErrOutOfBounds; the rest are still drawn.
func (e *Engine) Draw(changes []core.Change) error {
	return e.DrawSeq(slices.Values(changes))
}

// DrawSeq is Draw for an iterator of changes.
func (e *Engine) DrawSeq(changes iter.Seq[core.Change]) error {
	e.tick()

	size := e.grid.Size()
	var errs []error
	for ch := range changes {
		pos := ch.Position()
		if !size.Contains(pos) {
			errs = append(errs, fmt.Errorf("%w: (%d,%d) in %dx%d grid", ErrOutOfBounds, ch.Col, ch.Row, size.Cols, size.Rows))
			continue
		}
		e.grid.SetCell(ch.Col, ch.Row, ch.Cell)
		e.paint(pos)
	}

	for pos := range e.animated {
		e.paint(pos)
	}
	return errors.Join(errs...)
}

func (e *Engine) paint(pos core.Position) {
	cell := e.grid.Cell(pos.Col, pos.Row)
	if e.painter.Paint(e.canvas, cell, pos.Col, pos.Row, e.blink) {
		e.animated[pos] = struct{}{}
	} else {
		delete(e.animated, pos)
	}
}

// Clear resets every cell to empty and fills the canvas with the default
// background.
func (e *Engine) Clear() error {
	e.grid.Reset()
	e.canvas.Fill(palette.Resolve(core.ColorReset, palette.Background))
	clear(e.animated)
	return nil
}

// Reset clears the engine and rewinds the blink cycle to its initial
// phase, so the next Draw sequence paints exactly as on a new engine.
func (e *Engine) Reset() error {
	e.blinkCounter = 0
	e.blink = cellrender.Blink{}
	return e.Clear()
}

// Resize changes the grid size. The overlapping region of the grid is
// kept, the canvas is reallocated and everything is repainted. Slices
// previously returned by PixmapData refer to the old canvas.
func (e *Engine) Resize(cols, rows uint16) {
	e.grid.Resize(cols, rows)
	e.allocate()
	e.log.Debug("resized to %dx%d cells (%dx%d px)", cols, rows, e.canvas.Width(), e.canvas.Height())
	e.Redraw()
}

// Redraw repaints every cell.
func (e *Engine) Redraw() {
	clear(e.animated)
	size := e.grid.Size()
	for row := uint16(0); row < size.Rows; row++ {
		for col := uint16(0); col < size.Cols; col++ {
			e.paint(core.Position{Col: col, Row: row})
		}
	}
}

// SetRasterizer replaces the font. A zero cell asks the rasterizer for
// its size. The canvas is reallocated and repainted.
func (e *Engine) SetRasterizer(ras glyph.Rasterizer, cell image.Point) error {
	size, err := e.cellSizeFor(ras, cell)
	if err != nil {
		return err
	}
	e.install(ras, size)
	e.cellOverride = cell
	e.allocate()
	e.log.Debug("rasterizer replaced: cell %dx%d px", size.X, size.Y)
	e.Redraw()
	return nil
}

// Rasterizer returns the active rasterizer.
func (e *Engine) Rasterizer() glyph.Rasterizer {
	return e.ras
}

// Size returns the grid size in cells.
func (e *Engine) Size() core.Size {
	return e.grid.Size()
}

// CellSize returns the size of one cell in pixels.
func (e *Engine) CellSize() image.Point {
	return e.cell
}

// WindowSize returns the grid size together with the canvas size.
func (e *Engine) WindowSize() core.WindowSize {
	size := e.grid.Size()
	return core.WindowSize{
		Cols:        size.Cols,
		Rows:        size.Rows,
		PixelWidth:  e.canvas.Width(),
		PixelHeight: e.canvas.Height(),
	}
}

// Buffer returns the grid snapshot. Callers must not modify it; use Draw.
func (e *Engine) Buffer() *core.Buffer {
	return e.grid
}

// Pixmap returns the canvas.
func (e *Engine) Pixmap() *pixmap.Pixmap {
	return e.canvas
}

// Image returns the canvas as an image.Image.
func (e *Engine) Image() image.Image {
	return e.canvas
}

// PixmapData returns the live RGB bytes of the canvas.
func (e *Engine) PixmapData() []byte {
	return e.canvas.Data()
}

// PixmapRGBA returns a 4-channel copy of the canvas.
func (e *Engine) PixmapRGBA() []byte {
	return e.canvas.RGBA()
}

// PixmapWidth returns the canvas width in pixels.
func (e *Engine) PixmapWidth() int {
	return e.canvas.Width()
}

// PixmapHeight returns the canvas height in pixels.
func (e *Engine) PixmapHeight() int {
	return e.canvas.Height()
}

// Generation increases every time the canvas is reallocated.
func (e *Engine) Generation() uint64 {
	return e.generation
}

// BlinkCounter returns the current position in the blink cycle.
func (e *Engine) BlinkCounter() int {
	return e.blinkCounter
}

// AnimatedCells returns the cells repainted on every Draw, in row-major order.
func (e *Engine) AnimatedCells() []core.Position {
	return slices.SortedFunc(maps.Keys(e.animated), func(a, b core.Position) int {
		if a.Row != b.Row {
			return int(a.Row) - int(b.Row)
		}
		return int(a.Col) - int(b.Col)
	})
}

// ShowCursor marks the cursor visible. The cursor is not drawn.
func (e *Engine) ShowCursor() {
	e.cursorVisible = true
}

// HideCursor marks the cursor hidden.
func (e *Engine) HideCursor() {
	e.cursorVisible = false
}

// CursorVisible reports the cursor visibility flag.
func (e *Engine) CursorVisible() bool {
	return e.cursorVisible
}

// SetCursorPosition records the cursor position.
func (e *Engine) SetCursorPosition(pos core.Position) {
	e.cursorPos = pos
}

// CursorPosition returns the recorded cursor position.
func (e *Engine) CursorPosition() core.Position {
	return e.cursorPos
}

// Flush is a no-op; the canvas is always up to date after Draw.
func (e *Engine) Flush() error {
	return nil
}
