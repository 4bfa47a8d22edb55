package scene

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/softterm/internal/renderer/backend"
)

// Scene draws grid content into a surface.
type Scene interface {
	// Name identifies the scene in logs and errors.
	Name() string

	// Setup draws the initial content.
	Setup(ctx context.Context, surface backend.Surface) error

	// Frame updates the surface before frame n is drawn. n starts at 0.
	Frame(ctx context.Context, surface backend.Surface, n int) error

	// Animated reports whether Frame may change the surface.
	Animated() bool

	// Close releases resources held by the scene.
	Close() error
}

var (
	_ Scene = (*LuaScene)(nil)
	_ Scene = (*JSONScene)(nil)
)

//go:embed demo.lua
var demoSource []byte

// DemoName is the name of the built-in scene.
const DemoName = "demo.lua"

// Demo returns the built-in demo scene.
func Demo(opts ...LuaOption) (Scene, error) {
	return LoadLua(DemoName, demoSource, opts...)
}

// Load reads a scene file, choosing the format by extension.
func Load(path string, opts ...LuaOption) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	return Parse(path, data, opts...)
}

// Parse decodes scene data named path. The extension selects the format.
func Parse(path string, data []byte, opts ...LuaOption) (Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return LoadLua(path, data, opts...)
	case ".json":
		return LoadJSON(path, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScene, path)
	}
}
