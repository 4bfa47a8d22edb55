package scene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/softterm/internal/renderer/backend"
	"github.com/dshills/softterm/internal/renderer/core"
	"github.com/dshills/softterm/internal/renderer/palette"
)

// DefaultTimeout bounds a single Setup or Frame call.
const DefaultTimeout = 5 * time.Second

// frameFunc is the optional global called before every frame.
const frameFunc = "frame"

// LuaScene runs a scene script in a sandboxed Lua state.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes calls
// from Go; the script itself always runs on the calling goroutine.
type LuaScene struct {
	name string
	src  []byte

	mu      sync.Mutex
	L       *lua.LState
	surface backend.Surface
	timeout time.Duration
	print   func(string)
	loaded  bool
	closed  bool
}

// LuaOption configures a LuaScene.
type LuaOption func(*LuaScene)

// WithTimeout sets the limit for a single Setup or Frame call.
// Zero disables the limit.
func WithTimeout(d time.Duration) LuaOption {
	return func(s *LuaScene) {
		s.timeout = d
	}
}

// WithPrint routes the script's print output to fn.
func WithPrint(fn func(string)) LuaOption {
	return func(s *LuaScene) {
		s.print = fn
	}
}

// LoadLua compiles a Lua scene. name is used in error messages.
// The script body runs on Setup.
func LoadLua(name string, src []byte, opts ...LuaOption) (*LuaScene, error) {
	s := &LuaScene{
		name:    name,
		src:     src,
		timeout: DefaultTimeout,
		print:   func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	s.installSandbox()
	s.installGrid()

	// Compile now so syntax errors surface at load time.
	if _, err := s.L.Load(bytes.NewReader(src), name); err != nil {
		s.L.Close()
		return nil, s.scriptError(err)
	}
	return s, nil
}

// openSafeLibraries opens only the side-effect free standard libraries.
// io, os, debug and package are never opened.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		L.Push(L.NewFunction(lib))
		L.Call(0, 0)
	}
}

// installSandbox removes loaders and replaces print.
func (s *LuaScene) installSandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		s.print(strings.Join(parts, "\t"))
		return 0
	}))
}

// Name returns the scene name.
func (s *LuaScene) Name() string {
	return s.name
}

// Setup runs the script body against surface.
func (s *LuaScene) Setup(ctx context.Context, surface backend.Surface) error {
	return s.run(ctx, surface, func(L *lua.LState) error {
		fn, err := L.Load(bytes.NewReader(s.src), s.name)
		if err != nil {
			return err
		}
		s.loaded = true
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	})
}

// Frame calls the script's frame(n) function, if it defines one.
func (s *LuaScene) Frame(ctx context.Context, surface backend.Surface, n int) error {
	return s.run(ctx, surface, func(L *lua.LState) error {
		fn, ok := L.GetGlobal(frameFunc).(*lua.LFunction)
		if !ok {
			return nil
		}
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(n))
	})
}

// Animated reports whether the script defines a frame function.
// It is only meaningful after Setup.
func (s *LuaScene) Animated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.loaded {
		return false
	}
	_, ok := s.L.GetGlobal(frameFunc).(*lua.LFunction)
	return ok
}

// Close releases the Lua state.
func (s *LuaScene) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

func (s *LuaScene) run(ctx context.Context, surface backend.Surface, fn func(*lua.LState) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSceneClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	s.surface = surface
	defer func() {
		s.L.RemoveContext()
		s.surface = nil
		if r := recover(); r != nil {
			err = &ScriptError{Path: s.name, Message: fmt.Sprintf("lua panic: %v", r)}
		}
	}()

	if err := fn(s.L); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return &ScriptError{Path: s.name, Message: "execution timed out", Err: errors.Join(ErrTimeout, ctxErr)}
			}
			return &ScriptError{Path: s.name, Message: ctxErr.Error(), Err: ctxErr}
		}
		return s.scriptError(err)
	}
	return nil
}

var (
	runtimeLine = regexp.MustCompile(`^[^:\s]*:(\d+):\s*(.*)$`)
	syntaxLine  = regexp.MustCompile(`line:(\d+)`)
)

// scriptError converts a gopher-lua error into a ScriptError.
func (s *LuaScene) scriptError(err error) *ScriptError {
	msg := err.Error()
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		msg = apiErr.Object.String()
	}
	msg = strings.TrimSpace(msg)

	se := &ScriptError{Path: s.name, Message: msg, Err: err}
	first, _, _ := strings.Cut(msg, "\n")
	if m := runtimeLine.FindStringSubmatch(first); m != nil {
		se.Line, _ = strconv.Atoi(m[1])
		se.Message = m[2]
	} else if m := syntaxLine.FindStringSubmatch(first); m != nil {
		se.Line, _ = strconv.Atoi(m[1])
	}
	return se
}

// installGrid registers the grid module.
func (s *LuaScene) installGrid() {
	mod := s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"size":  s.luaSize,
		"set":   s.luaSet,
		"print": s.luaPrint,
		"fill":  s.luaFill,
		"clear": s.luaClear,
		"code":  s.luaCode,
		"rgb":   luaRGB,
	})
	s.L.SetGlobal("grid", mod)
}

func (s *LuaScene) target(L *lua.LState) backend.Surface {
	if s.surface == nil {
		L.RaiseError("grid is only available while the scene is running")
	}
	return s.surface
}

// grid.size() -> cols, rows
func (s *LuaScene) luaSize(L *lua.LState) int {
	size := s.target(L).Size()
	L.Push(lua.LNumber(size.Cols))
	L.Push(lua.LNumber(size.Rows))
	return 2
}

// grid.set(col, row, symbol [, style])
func (s *LuaScene) luaSet(L *lua.LState) int {
	surface := s.target(L)
	col, row := L.CheckInt(1), L.CheckInt(2)
	symbol := L.CheckString(3)
	st := checkStyle(L, 4)
	surface.SetCell(col, row, st.cell(symbol))
	return 0
}

// grid.print(col, row, text [, style]) -> next column
func (s *LuaScene) luaPrint(L *lua.LState) int {
	surface := s.target(L)
	col, row := L.CheckInt(1), L.CheckInt(2)
	text := L.CheckString(3)
	st := checkStyle(L, 4)
	end := surface.SetString(col, row, text, st.Fg, st.Bg, st.Modifier)
	L.Push(lua.LNumber(end))
	return 1
}

// grid.fill(col, row, width, height [, symbol [, style]])
func (s *LuaScene) luaFill(L *lua.LState) int {
	surface := s.target(L)
	col, row := L.CheckInt(1), L.CheckInt(2)
	w, h := L.CheckInt(3), L.CheckInt(4)
	symbol := L.OptString(5, " ")
	cell := checkStyle(L, 6).cell(symbol)
	for y := row; y < row+h; y++ {
		for x := col; x < col+w; x++ {
			surface.SetCell(x, y, cell)
		}
	}
	return 0
}

// grid.clear()
func (s *LuaScene) luaClear(L *lua.LState) int {
	s.target(L).Clear()
	return 0
}

// grid.code(col, row, source [, { lang, file, style, width }]) -> rows
func (s *LuaScene) luaCode(L *lua.LState) int {
	surface := s.target(L)
	col, row := L.CheckInt(1), L.CheckInt(2)
	source := L.CheckString(3)

	var opts CodeOptions
	if tbl := L.OptTable(4, nil); tbl != nil {
		opts.Lang = lua.LVAsString(tbl.RawGetString("lang"))
		opts.Filename = lua.LVAsString(tbl.RawGetString("file"))
		opts.Style = lua.LVAsString(tbl.RawGetString("style"))
		opts.Width = int(lua.LVAsNumber(tbl.RawGetString("width")))
	}
	L.Push(lua.LNumber(DrawCode(surface, col, row, source, opts)))
	return 1
}

// grid.rgb(r, g, b) -> "#rrggbb"
func luaRGB(L *lua.LState) int {
	ch := func(n int) int {
		v := L.CheckInt(n)
		if v < 0 || v > 255 {
			L.ArgError(n, "channel must be 0-255")
		}
		return v
	}
	L.Push(lua.LString(fmt.Sprintf("#%02x%02x%02x", ch(1), ch(2), ch(3))))
	return 1
}

// checkStyle reads an optional style table:
//
//	{ fg = "red", bg = 236, mods = "bold|italic", underline = true }
//
// Colors are palette names, "#rrggbb" strings or indexes. Modifiers may be
// a string, a list of strings, or boolean fields named after the modifier.
func checkStyle(L *lua.LState, n int) Style {
	tbl := L.OptTable(n, nil)
	if tbl == nil {
		return DefaultStyle
	}

	st := DefaultStyle
	var err error
	if st.Fg, err = luaColor(tbl.RawGetString("fg")); err != nil {
		L.ArgError(n, "fg: "+err.Error())
	}
	if st.Bg, err = luaColor(tbl.RawGetString("bg")); err != nil {
		L.ArgError(n, "bg: "+err.Error())
	}

	switch mods := tbl.RawGetString("mods").(type) {
	case lua.LString:
		if st.Modifier, err = parseModifiers(string(mods)); err != nil {
			L.ArgError(n, err.Error())
		}
	case *lua.LTable:
		mods.ForEach(func(_, v lua.LValue) {
			m, err := core.ParseModifier(lua.LVAsString(v))
			if err != nil {
				L.ArgError(n, err.Error())
			}
			st.Modifier = st.Modifier.With(m)
		})
	}

	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok || v != lua.LTrue {
			return
		}
		if m, err := core.ParseModifier(string(key)); err == nil {
			st.Modifier = st.Modifier.With(m)
		}
	})
	return st
}

func luaColor(v lua.LValue) (core.Color, error) {
	switch c := v.(type) {
	case lua.LString:
		return palette.ParseColor(string(c))
	case lua.LNumber:
		return colorFromIndex(float64(c))
	case *lua.LNilType:
		return core.ColorReset, nil
	default:
		return core.Color{}, fmt.Errorf("%w: unexpected %s", palette.ErrInvalidColor, v.Type())
	}
}
