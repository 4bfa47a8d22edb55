// Package renderer turns a grid of styled terminal cells into an RGB pixel
// canvas.
//
// The engine keeps a snapshot of the grid and a canvas sized to it. Each
// Draw applies a batch of cell changes, repaints the changed cells and
// then repaints every cell whose appearance depends on the blink phase.
//
// Layout:
//
//	┌──────────────────────────────────────────┐
//	│            Engine (facade)               │
//	├──────────────────────────────────────────┤
//	│  core      │ cellrender │ blink counter  │
//	│  grid/diff │ cell paint │ animated set   │
//	├──────────────────────────────────────────┤
//	│  palette   │ glyph      │ pixmap         │
//	│  colors    │ rasterizer │ RGB canvas     │
//	└──────────────────────────────────────────┘
//
// Usage:
//
//	e, err := renderer.New(80, 24)
//	if err != nil {
//		return err
//	}
//	if err := e.Draw([]core.Change{{Col: 0, Row: 0, Cell: core.NewCell("A")}}); err != nil {
//		return err
//	}
//	img := e.Image()
package renderer
