package scene

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/softterm/internal/renderer/backend"
	"github.com/dshills/softterm/internal/renderer/core"
	"github.com/dshills/softterm/internal/renderer/palette"
)

// Item types in a JSON scene.
const (
	ItemText = "text"
	ItemCell = "cell"
	ItemFill = "fill"
	ItemCode = "code"
)

// item is one compiled drawing instruction.
type item struct {
	kind     string
	col, row int
	width    int
	height   int
	text     string
	style    Style
	code     CodeOptions
	frame    int // -1 draws during Setup
}

// JSONScene is a static scene description with optional per-frame items.
type JSONScene struct {
	name  string
	items []item
}

// LoadJSON parses a JSON scene. All items are validated up front.
func LoadJSON(name string, data []byte) (*JSONScene, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ScriptError{Path: name, Message: "invalid JSON"}
	}
	doc := gjson.ParseBytes(data)

	items := doc.Get("items")
	if !items.Exists() {
		// A bare array is accepted as the item list.
		if !doc.IsArray() {
			return nil, &ScriptError{Path: name, Message: `missing "items" array`}
		}
		items = doc
	}
	if !items.IsArray() {
		return nil, &ScriptError{Path: name, Message: `"items" must be an array`}
	}

	sc := &JSONScene{name: name}
	if n := doc.Get("name"); n.Type == gjson.String {
		sc.name = n.String()
	}

	for i, value := range items.Array() {
		it, err := parseItem(value)
		if err != nil {
			return nil, &ScriptError{
				Path:    name,
				Message: fmt.Sprintf("items[%d]: %v", i, err),
				Err:     err,
			}
		}
		sc.items = append(sc.items, it)
	}
	return sc, nil
}

func parseItem(v gjson.Result) (item, error) {
	if !v.IsObject() {
		return item{}, errors.New("expected an object")
	}

	it := item{
		kind:   v.Get("type").String(),
		col:    int(v.Get("col").Int()),
		row:    int(v.Get("row").Int()),
		width:  int(v.Get("width").Int()),
		height: int(v.Get("height").Int()),
		frame:  -1,
	}
	if f := v.Get("frame"); f.Exists() {
		if f.Type != gjson.Number || f.Int() < 0 {
			return item{}, errors.New("frame must be a non-negative number")
		}
		it.frame = int(f.Int())
	}

	if it.kind == "" {
		switch {
		case v.Get("source").Exists():
			it.kind = ItemCode
		case v.Get("width").Exists():
			it.kind = ItemFill
		default:
			it.kind = ItemText
		}
	}

	style, err := parseStyle(v)
	if err != nil {
		return item{}, err
	}
	it.style = style

	switch it.kind {
	case ItemText:
		it.text = v.Get("text").String()
	case ItemCell:
		it.text = v.Get("symbol").String()
		if it.text == "" {
			it.text = " "
		}
	case ItemFill:
		it.text = v.Get("symbol").String()
		if it.text == "" {
			it.text = " "
		}
		if it.width < 0 || it.height < 0 {
			return item{}, errors.New("fill size must not be negative")
		}
		if !v.Get("height").Exists() {
			it.height = 1
		}
	case ItemCode:
		it.text = v.Get("source").String()
		it.code = CodeOptions{
			Lang:     v.Get("lang").String(),
			Filename: v.Get("file").String(),
			Style:    v.Get("style").String(),
			Width:    it.width,
		}
	default:
		return item{}, fmt.Errorf("unknown item type %q", it.kind)
	}
	return it, nil
}

// parseStyle reads fg, bg and mods. mods is a string or an array of strings.
func parseStyle(v gjson.Result) (Style, error) {
	var st Style
	var err error
	if st.Fg, err = jsonColor(v.Get("fg")); err != nil {
		return Style{}, fmt.Errorf("fg: %w", err)
	}
	if st.Bg, err = jsonColor(v.Get("bg")); err != nil {
		return Style{}, fmt.Errorf("bg: %w", err)
	}

	mods := v.Get("mods")
	switch {
	case !mods.Exists():
	case mods.IsArray():
		for _, m := range mods.Array() {
			mod, err := core.ParseModifier(m.String())
			if err != nil {
				return Style{}, err
			}
			st.Modifier = st.Modifier.With(mod)
		}
	default:
		if st.Modifier, err = parseModifiers(mods.String()); err != nil {
			return Style{}, err
		}
	}
	return st, nil
}

func jsonColor(v gjson.Result) (core.Color, error) {
	switch v.Type {
	case gjson.Null:
		return core.ColorReset, nil
	case gjson.Number:
		return colorFromIndex(v.Float())
	case gjson.String:
		return palette.ParseColor(v.String())
	default:
		return core.Color{}, fmt.Errorf("%w: %s", palette.ErrInvalidColor, v.Raw)
	}
}

// Name returns the scene name.
func (s *JSONScene) Name() string {
	return s.name
}

// Setup draws every item without a frame number.
func (s *JSONScene) Setup(ctx context.Context, surface backend.Surface) error {
	return s.draw(ctx, surface, -1)
}

// Frame draws the items assigned to frame n.
func (s *JSONScene) Frame(ctx context.Context, surface backend.Surface, n int) error {
	return s.draw(ctx, surface, n)
}

// Animated reports whether any item is assigned to a frame.
func (s *JSONScene) Animated() bool {
	for _, it := range s.items {
		if it.frame >= 0 {
			return true
		}
	}
	return false
}

// Close is a no-op.
func (s *JSONScene) Close() error {
	return nil
}

func (s *JSONScene) draw(ctx context.Context, surface backend.Surface, frame int) error {
	for _, it := range s.items {
		if it.frame != frame {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		switch it.kind {
		case ItemText:
			surface.SetString(it.col, it.row, it.text, it.style.Fg, it.style.Bg, it.style.Modifier)
		case ItemCell:
			surface.SetCell(it.col, it.row, it.style.cell(it.text))
		case ItemFill:
			cell := it.style.cell(it.text)
			for y := it.row; y < it.row+it.height; y++ {
				for x := it.col; x < it.col+it.width; x++ {
					surface.SetCell(x, y, cell)
				}
			}
		case ItemCode:
			DrawCode(surface, it.col, it.row, it.text, it.code)
		}
	}
	return nil
}
