// Package scene provides grid content for the renderer.
//
// A Scene draws into a backend.Surface once in Setup and may update it
// before every frame. Two formats are supported:
//
//   - Lua scripts, run in a sandboxed gopher-lua state with a "grid"
//     module for writing cells. An optional global frame(n) function is
//     called once per frame.
//   - JSON documents listing text runs, filled rectangles and code
//     blocks. Items carrying a "frame" number are drawn only on that
//     frame.
//
// Coordinates are zero-based columns and rows. Writes outside the grid
// are ignored.
//
// # Lua
//
//	grid.print(0, 0, "hello", { fg = "light-green", mods = "bold" })
//	grid.code(0, 2, "package main", { lang = "go" })
//
//	function frame(n)
//	    grid.set(79, 0, ({ "|", "/", "-", "\\" })[n % 4 + 1])
//	end
//
// # JSON
//
//	{
//	  "items": [
//	    { "type": "text", "col": 0, "row": 0, "text": "hello", "fg": "red" },
//	    { "type": "fill", "col": 0, "row": 1, "width": 10, "height": 2, "bg": "#202020" },
//	    { "type": "code", "col": 0, "row": 4, "lang": "go", "source": "package main" }
//	  ]
//	}
//
// Code blocks are highlighted with chroma. When no language is given it
// is detected from the file name and content with go-enry.
package scene
