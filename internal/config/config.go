package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"unicode"

	"github.com/dshills/softterm/internal/config/loader"
	"github.com/dshills/softterm/internal/renderer/palette"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "SOFTTERM_"

// maxIncludeDepth limits nested @include directives.
const maxIncludeDepth = 8

// Font backends.
const (
	BackendGoMono   = "gomono"
	BackendOpenType = "opentype"
	BackendTrueType = "truetype"
	BackendBasic    = "basic"
	BackendPlan9    = "plan9"
	BackendBDF      = "bdf"
)

// Backends lists the valid font backends.
var Backends = []string{BackendGoMono, BackendOpenType, BackendTrueType, BackendBasic, BackendPlan9, BackendBDF}

// Render targets.
const (
	TargetBuffer = "buffer"
	TargetTcell  = "tcell"
)

// Config is the complete softterm configuration.
type Config struct {
	Font   FontConfig   `json:"font"`
	Grid   GridConfig   `json:"grid"`
	Render RenderConfig `json:"render"`
	Output OutputConfig `json:"output"`
	Log    LogConfig    `json:"log"`
}

// FontConfig selects and sizes the font.
type FontConfig struct {
	// Backend is one of Backends.
	Backend string `json:"backend"`

	// Path is the font file. Scalable backends also accept separate
	// bold and italic files; missing variants are synthesized.
	Path           string `json:"path"`
	BoldPath       string `json:"bold_path"`
	ItalicPath     string `json:"italic_path"`
	BoldItalicPath string `json:"bold_italic_path"`

	// Size is in points, DPI converts it to pixels.
	Size float64 `json:"size"`
	DPI  float64 `json:"dpi"`

	// Hinting is "none", "vertical" or "full".
	Hinting string `json:"hinting"`

	// CellWidth and CellHeight override the measured cell size when
	// both are positive.
	CellWidth  int `json:"cell_width"`
	CellHeight int `json:"cell_height"`

	// FirstRune is the code point of the first glyph when a plan9 Path
	// names a single subfont instead of a font file.
	FirstRune int `json:"first_rune"`
}

// GridConfig sets the grid dimensions in cells.
type GridConfig struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// RenderConfig controls the frame loop.
type RenderConfig struct {
	// Frames is the number of Draw calls made per render. Blink phases
	// advance once per frame.
	Frames int `json:"frames"`

	// Target is the surface scenes draw into: "buffer" or "tcell".
	Target string `json:"target"`

	// Background is painted behind the grid when the output image is
	// padded. Any color accepted by palette.ParseColor.
	Background string `json:"background"`

	// Padding adds pixels around the canvas in the output image.
	Padding int `json:"padding"`
}

// OutputConfig names the output files. "-" writes the PNG to stdout.
type OutputConfig struct {
	Path     string `json:"path"`
	MetaPath string `json:"meta_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `json:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Font: FontConfig{
			Backend: BackendGoMono,
			Size:    16,
			DPI:     72,
			Hinting: "full",
		},
		Grid: GridConfig{
			Cols: 80,
			Rows: 24,
		},
		Render: RenderConfig{
			Frames:     1,
			Target:     TargetBuffer,
			Background: "reset",
		},
		Output: OutputConfig{
			Path: "softterm.png",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path (if not empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	return LoadFS(loader.DefaultFS(), path, loader.NewEnvLoader(EnvPrefix))
}

// LoadFS is Load with an explicit file system and environment source.
// env may be nil.
func LoadFS(fsys loader.FileSystem, path string, env *loader.EnvLoader) (*Config, error) {
	layers := make(map[string]any)

	if path != "" {
		l, err := loader.ForPath(fsys, path)
		if err != nil {
			return nil, err
		}
		file, err := l.LoadWithIncludes(path, maxIncludeDepth)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
			}
			return nil, err
		}
		layers = loader.DeepMerge(layers, file)
	}

	if env != nil {
		vars, err := env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		layers = loader.DeepMerge(layers, vars)
	}

	cfg := Default()
	if err := cfg.Apply(layers); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply overlays a nested settings map onto c. Numbers convert between
// integer and float fields; unknown keys are rejected.
func (c *Config) Apply(settings map[string]any) error {
	if len(settings) == 0 {
		return nil
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, strings.TrimPrefix(err.Error(), "json: unknown field "))
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{
				Path:    typeErr.Field,
				Message: fmt.Sprintf("expected %s", typeErr.Type),
				Value:   typeErr.Value,
			}
		}
		return fmt.Errorf("decoding settings: %w", err)
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	f := c.Font
	if !slices.Contains(Backends, f.Backend) {
		fail("font.backend", "must be one of "+strings.Join(Backends, ", "), f.Backend)
	}
	switch f.Backend {
	case BackendOpenType, BackendTrueType, BackendPlan9, BackendBDF:
		if f.Path == "" {
			fail("font.path", "required for the "+f.Backend+" backend", f.Path)
		}
	}
	if f.Size <= 0 {
		fail("font.size", "must be positive", f.Size)
	}
	if f.DPI <= 0 {
		fail("font.dpi", "must be positive", f.DPI)
	}
	if !slices.Contains([]string{"none", "vertical", "full"}, f.Hinting) {
		fail("font.hinting", "must be none, vertical or full", f.Hinting)
	}
	if f.CellWidth < 0 || f.CellHeight < 0 || (f.CellWidth > 0) != (f.CellHeight > 0) {
		fail("font.cell_width", "cell_width and cell_height must both be positive or both zero",
			fmt.Sprintf("%dx%d", f.CellWidth, f.CellHeight))
	}
	if f.FirstRune < 0 || f.FirstRune > unicode.MaxRune {
		fail("font.first_rune", "must be a Unicode code point", f.FirstRune)
	}

	if c.Grid.Cols < 1 || c.Grid.Cols > 0xffff {
		fail("grid.cols", "must be between 1 and 65535", c.Grid.Cols)
	}
	if c.Grid.Rows < 1 || c.Grid.Rows > 0xffff {
		fail("grid.rows", "must be between 1 and 65535", c.Grid.Rows)
	}

	if c.Render.Frames < 1 {
		fail("render.frames", "must be at least 1", c.Render.Frames)
	}
	if c.Render.Target != TargetBuffer && c.Render.Target != TargetTcell {
		fail("render.target", "must be buffer or tcell", c.Render.Target)
	}
	if _, err := palette.ParseColor(c.Render.Background); err != nil {
		fail("render.background", err.Error(), c.Render.Background)
	}
	if c.Render.Padding < 0 {
		fail("render.padding", "must not be negative", c.Render.Padding)
	}

	if c.Output.Path == "" {
		fail("output.path", "must not be empty", c.Output.Path)
	}

	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.Log.Level)) {
		fail("log.level", "must be debug, info, warn or error", c.Log.Level)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(errs...))
}
