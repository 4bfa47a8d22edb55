package scene

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/softterm/internal/renderer/backend"
	"github.com/dshills/softterm/internal/renderer/core"
)

func setupLua(t *testing.T, cols, rows int, src string, opts ...LuaOption) (*LuaScene, *backend.ScreenBuffer) {
	t.Helper()
	sc, err := LoadLua("test.lua", []byte(src), opts...)
	if err != nil {
		t.Fatalf("LoadLua: %v", err)
	}
	t.Cleanup(func() { _ = sc.Close() })

	surface := backend.NewScreenBuffer(cols, rows)
	if err := sc.Setup(context.Background(), surface); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return sc, surface
}

func TestLuaSceneGrid(t *testing.T) {
	_, sb := setupLua(t, 10, 3, `
local cols, rows = grid.size()
assert(cols == 10 and rows == 3)

grid.set(0, 0, "A", { fg = "red", bg = 17, mods = "bold|italic" })
local next = grid.print(2, 1, "hi", { fg = "#ff8000", underlined = true })
grid.set(next, 1, "!")
grid.fill(0, 2, 3, 1, "#", { bg = "blue", mods = { "dim", "reverse" } })
grid.set(50, 50, "x")
`)

	want := core.NewCell("A").
		WithColors(core.ColorRed, core.ColorFromIndex(17)).
		WithModifier(core.ModBold | core.ModItalic)
	if got := sb.GetCell(0, 0); !got.Equals(want) {
		t.Errorf("cell(0,0) = %+v, want %+v", got, want)
	}

	hi := sb.GetCell(3, 1)
	if hi.Symbol != "i" || !hi.Fg.Equals(core.ColorFromRGB(255, 128, 0)) || hi.Modifier != core.ModUnderlined {
		t.Errorf("cell(3,1) = %+v", hi)
	}
	if got := sb.GetCell(4, 1).Symbol; got != "!" {
		t.Errorf("grid.print should return the next column, got %q at 4", got)
	}

	for x := 0; x < 3; x++ {
		c := sb.GetCell(x, 2)
		if c.Symbol != "#" || !c.Bg.Equals(core.ColorBlue) || c.Modifier != core.ModDim|core.ModReversed {
			t.Errorf("fill cell %d = %+v", x, c)
		}
	}
	if got := sb.GetCell(3, 2); !got.Equals(core.EmptyCell()) {
		t.Errorf("fill overflowed: %+v", got)
	}
}

func TestLuaSceneClear(t *testing.T) {
	_, sb := setupLua(t, 4, 1, `grid.print(0, 0, "abcd") grid.clear() grid.set(1, 0, "z")`)

	if got := sb.GetCell(0, 0); !got.Equals(core.EmptyCell()) {
		t.Errorf("expected cleared cell, got %+v", got)
	}
	if got := sb.GetCell(1, 0).Symbol; got != "z" {
		t.Errorf("expected z, got %q", got)
	}
}

func TestLuaSceneFrame(t *testing.T) {
	sc, sb := setupLua(t, 4, 1, `
local marks = { "a", "b", "c" }
function frame(n)
  grid.set(0, 0, marks[n % 3 + 1])
end
`)

	if !sc.Animated() {
		t.Fatal("scene with frame() should be animated")
	}
	for n, want := range []string{"a", "b", "c", "a"} {
		if err := sc.Frame(context.Background(), sb, n); err != nil {
			t.Fatalf("Frame(%d): %v", n, err)
		}
		if got := sb.GetCell(0, 0).Symbol; got != want {
			t.Errorf("frame %d: got %q, want %q", n, got, want)
		}
	}
}

func TestLuaSceneStatic(t *testing.T) {
	sc, sb := setupLua(t, 2, 1, `grid.set(0, 0, "s")`)

	if sc.Animated() {
		t.Error("scene without frame() should not be animated")
	}
	if err := sc.Frame(context.Background(), sb, 0); err != nil {
		t.Errorf("Frame without frame() = %v", err)
	}
}

func TestLuaSceneErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		message string
	}{
		{"runtime", "local x = 1\n\nerror(\"boom\")\n", 3, "boom"},
		{"bad color", "grid.print(0, 0, \"x\", { fg = \"nope\" })", 1, "fg"},
		{"bad modifier", "grid.set(0, 0, \"x\", { mods = \"sparkly\" })", 1, "sparkly"},
		{"bad index", "grid.set(0, 0, \"x\", { bg = 300 })", 1, "0-255"},
		{"missing arg", "grid.set(0)", 1, "bad argument"},
		{"rgb range", "grid.rgb(0, 256, 0)", 1, "0-255"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := LoadLua("err.lua", []byte(tt.src))
			if err != nil {
				t.Fatalf("LoadLua: %v", err)
			}
			defer sc.Close()

			err = sc.Setup(context.Background(), backend.NewScreenBuffer(4, 1))
			var se *ScriptError
			if !errors.As(err, &se) {
				t.Fatalf("expected *ScriptError, got %v", err)
			}
			if se.Path != "err.lua" {
				t.Errorf("Path = %q", se.Path)
			}
			if se.Line != tt.line {
				t.Errorf("Line = %d, want %d (%v)", se.Line, tt.line, err)
			}
			if !strings.Contains(se.Message, tt.message) {
				t.Errorf("Message %q should contain %q", se.Message, tt.message)
			}
		})
	}
}

func TestLuaSceneSyntaxError(t *testing.T) {
	_, err := LoadLua("syntax.lua", []byte("grid.set(0, 0, \"x\"\nlocal = 2\n"))
	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ScriptError, got %v", err)
	}
	if se.Line == 0 {
		t.Errorf("syntax error should carry a line: %v", err)
	}
}

func TestLuaSceneSandbox(t *testing.T) {
	setupLua(t, 1, 1, `
assert(io == nil, "io")
assert(os == nil, "os")
assert(debug == nil, "debug")
assert(require == nil, "require")
assert(load == nil and loadstring == nil, "load")
assert(dofile == nil and loadfile == nil, "dofile")
assert(string.upper("x") == "X")
assert(math.floor(1.5) == 1)
assert(table.concat({ "a", "b" }) == "ab")
`)
}

func TestLuaScenePrint(t *testing.T) {
	var lines []string
	setupLua(t, 1, 1, `print("a", 1, true)`, WithPrint(func(s string) {
		lines = append(lines, s)
	}))

	if len(lines) != 1 || lines[0] != "a\t1\ttrue" {
		t.Errorf("print output = %q", lines)
	}
}

func TestLuaSceneTimeout(t *testing.T) {
	sc, err := LoadLua("loop.lua", []byte("while true do end"), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	err = sc.Setup(context.Background(), backend.NewScreenBuffer(1, 1))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestLuaSceneCanceled(t *testing.T) {
	sc, err := LoadLua("loop.lua", []byte("while true do end"), WithTimeout(0))
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = sc.Setup(ctx, backend.NewScreenBuffer(1, 1))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the caller's deadline, got %v", err)
	}
}

func TestLuaSceneClosed(t *testing.T) {
	sc, err := LoadLua("x.lua", []byte(""))
	if err != nil {
		t.Fatal(err)
	}
	if err := sc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sc.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := sc.Setup(context.Background(), backend.NewScreenBuffer(1, 1)); !errors.Is(err, ErrSceneClosed) {
		t.Errorf("expected ErrSceneClosed, got %v", err)
	}
	if sc.Animated() {
		t.Error("closed scene reports animated")
	}
}

const jsonScene = `{
  "name": "sample",
  "items": [
    { "col": 0, "row": 0, "text": "hey", "fg": "green", "mods": ["bold"] },
    { "type": "cell", "col": 4, "row": 0, "symbol": "*", "bg": "#010203" },
    { "type": "fill", "col": 0, "row": 1, "width": 2, "height": 2, "symbol": ".", "bg": 8 },
    { "col": 5, "row": 2, "text": "1", "frame": 1 },
    { "col": 5, "row": 2, "text": "2", "frame": 2, "mods": "slow_blink" }
  ]
}`

func TestJSONScene(t *testing.T) {
	sc, err := LoadJSON("sample.json", []byte(jsonScene))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if sc.Name() != "sample" {
		t.Errorf("Name() = %q", sc.Name())
	}
	if !sc.Animated() {
		t.Error("scene with frame items should be animated")
	}

	sb := backend.NewScreenBuffer(6, 3)
	ctx := context.Background()
	if err := sc.Setup(ctx, sb); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	hey := sb.GetCell(1, 0)
	if hey.Symbol != "e" || !hey.Fg.Equals(core.ColorGreen) || hey.Modifier != core.ModBold {
		t.Errorf("text cell = %+v", hey)
	}
	if got := sb.GetCell(4, 0); got.Symbol != "*" || !got.Bg.Equals(core.ColorFromRGB(1, 2, 3)) {
		t.Errorf("cell item = %+v", got)
	}
	if got := sb.GetCell(1, 2); got.Symbol != "." || !got.Bg.Equals(core.ColorFromIndex(8)) {
		t.Errorf("fill item = %+v", got)
	}
	if got := sb.GetCell(5, 2); !got.Equals(core.EmptyCell()) {
		t.Errorf("frame items should not draw during Setup: %+v", got)
	}

	if err := sc.Frame(ctx, sb, 1); err != nil {
		t.Fatal(err)
	}
	if got := sb.GetCell(5, 2).Symbol; got != "1" {
		t.Errorf("frame 1 = %q", got)
	}
	if err := sc.Frame(ctx, sb, 2); err != nil {
		t.Fatal(err)
	}
	if got := sb.GetCell(5, 2); got.Symbol != "2" || got.Modifier != core.ModSlowBlink {
		t.Errorf("frame 2 = %+v", got)
	}
	if err := sc.Frame(ctx, sb, 7); err != nil {
		t.Errorf("frame without items = %v", err)
	}
}

func TestJSONSceneBareArray(t *testing.T) {
	sc, err := LoadJSON("bare.json", []byte(`[{"text": "ok"}]`))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if sc.Name() != "bare.json" {
		t.Errorf("Name() = %q", sc.Name())
	}
	sb := backend.NewScreenBuffer(2, 1)
	if err := sc.Setup(context.Background(), sb); err != nil {
		t.Fatal(err)
	}
	if sb.GetCell(1, 0).Symbol != "k" {
		t.Errorf("expected text at origin")
	}
}

func TestJSONSceneErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		message string
	}{
		{"invalid", `{"items": [`, "invalid JSON"},
		{"no items", `{"name": "x"}`, "missing"},
		{"items not array", `{"items": 3}`, "must be an array"},
		{"not object", `{"items": [1]}`, "items[0]: expected an object"},
		{"unknown type", `{"items": [{"type": "sprite"}]}`, "unknown item type"},
		{"bad fg", `{"items": [{}, {"text": "x", "fg": "mauve-ish"}]}`, "items[1]: fg"},
		{"bad index", `{"items": [{"bg": 256}]}`, "bg"},
		{"bad color type", `{"items": [{"fg": true}]}`, "fg"},
		{"bad mods", `{"items": [{"mods": ["bold", "wiggly"]}]}`, "wiggly"},
		{"negative frame", `{"items": [{"frame": -1}]}`, "frame"},
		{"negative fill", `{"items": [{"type": "fill", "width": -1}]}`, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON("bad.json", []byte(tt.data))
			var se *ScriptError
			if !errors.As(err, &se) {
				t.Fatalf("expected *ScriptError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q should contain %q", err, tt.message)
			}
		})
	}
}

func TestParse(t *testing.T) {
	sc, err := Parse("a/b/scene.JSON", []byte(`{"items": []}`))
	if err != nil {
		t.Fatalf("Parse json: %v", err)
	}
	if _, ok := sc.(*JSONScene); !ok {
		t.Errorf("expected *JSONScene, got %T", sc)
	}

	sc, err = Parse("scene.lua", []byte(`grid.clear()`))
	if err != nil {
		t.Fatalf("Parse lua: %v", err)
	}
	defer sc.Close()
	if _, ok := sc.(*LuaScene); !ok {
		t.Errorf("expected *LuaScene, got %T", sc)
	}

	if _, err := Parse("scene.txt", nil); !errors.Is(err, ErrUnsupportedScene) {
		t.Errorf("expected ErrUnsupportedScene, got %v", err)
	}
	if _, err := Load("/nonexistent/scene.lua"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDemoScene(t *testing.T) {
	sc, err := Demo()
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	defer sc.Close()

	sb := backend.NewScreenBuffer(80, 24)
	ctx := context.Background()
	if err := sc.Setup(ctx, sb); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	title := sb.GetCell(1, 0)
	if title.Symbol != "s" || !title.Bg.Equals(core.ColorBlue) || !title.Modifier.Has(core.ModBold) {
		t.Errorf("title cell = %+v", title)
	}
	if !sc.Animated() {
		t.Fatal("demo should be animated")
	}

	var blinking int
	for row := 0; row < 24; row++ {
		for col := 0; col < 80; col++ {
			if sb.GetCell(col, row).Modifier.Blinks() {
				blinking++
			}
		}
	}
	if blinking == 0 {
		t.Error("demo should contain blinking cells")
	}

	if err := sc.Frame(ctx, sb, 1); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if got := sb.GetCell(78, 0).Symbol; got != "/" {
		t.Errorf("spinner = %q, want /", got)
	}
}

func TestDemoSceneSmallGrid(t *testing.T) {
	sc, err := Demo()
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	sb := backend.NewScreenBuffer(5, 2)
	if err := sc.Setup(context.Background(), sb); err != nil {
		t.Fatalf("demo should tolerate small grids: %v", err)
	}
}
