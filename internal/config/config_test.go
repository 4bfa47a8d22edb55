package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/softterm/internal/config/loader"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Font.Backend != BackendGoMono || cfg.Font.Size != 16 || cfg.Font.DPI != 72 {
		t.Errorf("unexpected font defaults: %+v", cfg.Font)
	}
	if cfg.Grid.Cols != 80 || cfg.Grid.Rows != 24 {
		t.Errorf("unexpected grid defaults: %+v", cfg.Grid)
	}
}

func TestLoadNoFile(t *testing.T) {
	cfg, err := LoadFS(loader.DefaultFS(), "", nil)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if cfg.Output.Path != "softterm.png" {
		t.Errorf("Output.Path = %q", cfg.Output.Path)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "softterm.toml", `
[font]
backend = "bdf"
path = "/fonts/term.bdf"

[grid]
cols = 132
rows = 43

[render]
frames = 30
target = "tcell"

[log]
level = "debug"
`)

	cfg, err := LoadFS(loader.DefaultFS(), path, nil)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	if cfg.Font.Backend != BackendBDF || cfg.Font.Path != "/fonts/term.bdf" {
		t.Errorf("font = %+v", cfg.Font)
	}
	if cfg.Font.Size != 16 {
		t.Errorf("unset keys should keep defaults, font.size = %v", cfg.Font.Size)
	}
	if cfg.Grid.Cols != 132 || cfg.Grid.Rows != 43 {
		t.Errorf("grid = %+v", cfg.Grid)
	}
	if cfg.Render.Frames != 30 || cfg.Render.Target != TargetTcell {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
}

func TestLoadYAMLWithInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.toml", `
[font]
size = 20
dpi = 96
`)
	path := writeFile(t, dir, "softterm.yaml", `
"@include": base.toml
font:
  size: 12.5
output:
  path: out.png
  meta_path: out.json
`)

	cfg, err := LoadFS(loader.DefaultFS(), path, nil)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if cfg.Font.Size != 12.5 {
		t.Errorf("font.size = %v, want 12.5", cfg.Font.Size)
	}
	if cfg.Font.DPI != 96 {
		t.Errorf("font.dpi = %v, want 96 from include", cfg.Font.DPI)
	}
	if cfg.Output.MetaPath != "out.json" {
		t.Errorf("output.meta_path = %q", cfg.Output.MetaPath)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "softterm.toml", "[grid]\ncols = 100\n")

	env := loader.NewEnvLoaderFrom(EnvPrefix, []string{
		"SOFTTERM_GRID_COLS=40",
		"SOFTTERM_FONT_SIZE=9",
		"SOFTTERM_FONT_CELL_WIDTH=6",
		"SOFTTERM_FONT_CELL_HEIGHT=12",
		"SOFTTERM_OUTPUT_PATH=-",
	})

	cfg, err := LoadFS(loader.DefaultFS(), path, env)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if cfg.Grid.Cols != 40 {
		t.Errorf("env should override file, grid.cols = %d", cfg.Grid.Cols)
	}
	if cfg.Font.Size != 9 {
		t.Errorf("integer env should fill a float field, font.size = %v", cfg.Font.Size)
	}
	if cfg.Font.CellWidth != 6 || cfg.Font.CellHeight != 12 {
		t.Errorf("cell = %dx%d", cfg.Font.CellWidth, cfg.Font.CellHeight)
	}
	if cfg.Output.Path != "-" {
		t.Errorf("output.path = %q", cfg.Output.Path)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFS(loader.DefaultFS(), filepath.Join(dir, "none.toml"), nil)
		if !errors.Is(err, ErrFileNotFound) || !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected ErrFileNotFound, got %v", err)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		path := writeFile(t, dir, "softterm.ini", "x=1")
		_, err := LoadFS(loader.DefaultFS(), path, nil)
		if !errors.Is(err, loader.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("parse error", func(t *testing.T) {
		path := writeFile(t, dir, "broken.toml", "[grid\ncols = 1\n")
		_, err := LoadFS(loader.DefaultFS(), path, nil)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if parseErr.Line != 1 {
			t.Errorf("Line = %d, want 1", parseErr.Line)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		path := writeFile(t, dir, "unknown.toml", "[grid]\ncolumns = 10\n")
		_, err := LoadFS(loader.DefaultFS(), path, nil)
		if !errors.Is(err, ErrUnknownSetting) {
			t.Errorf("expected ErrUnknownSetting, got %v", err)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		path := writeFile(t, dir, "type.toml", "[grid]\ncols = \"wide\"\n")
		_, err := LoadFS(loader.DefaultFS(), path, nil)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Path != "grid.cols" {
			t.Errorf("expected validation error for grid.cols, got %v", err)
		}
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("type errors should match ErrValidationFailed: %v", err)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		path := writeFile(t, dir, "invalid.toml", "[grid]\nrows = 0\n")
		_, err := LoadFS(loader.DefaultFS(), path, nil)
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("expected ErrValidationFailed, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"backend", func(c *Config) { c.Font.Backend = "freetype" }, "font.backend"},
		{"path required", func(c *Config) { c.Font.Backend = BackendBDF }, "font.path"},
		{"size", func(c *Config) { c.Font.Size = 0 }, "font.size"},
		{"dpi", func(c *Config) { c.Font.DPI = -1 }, "font.dpi"},
		{"hinting", func(c *Config) { c.Font.Hinting = "light" }, "font.hinting"},
		{"half cell", func(c *Config) { c.Font.CellWidth = 8 }, "font.cell_width"},
		{"first rune", func(c *Config) { c.Font.FirstRune = 0x110000 }, "font.first_rune"},
		{"cols", func(c *Config) { c.Grid.Cols = 70000 }, "grid.cols"},
		{"rows", func(c *Config) { c.Grid.Rows = 0 }, "grid.rows"},
		{"frames", func(c *Config) { c.Render.Frames = 0 }, "render.frames"},
		{"target", func(c *Config) { c.Render.Target = "window" }, "render.target"},
		{"background", func(c *Config) { c.Render.Background = "#12" }, "render.background"},
		{"padding", func(c *Config) { c.Render.Padding = -2 }, "render.padding"},
		{"output", func(c *Config) { c.Output.Path = "" }, "output.path"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("expected ErrValidationFailed, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Errorf("expected first failure at %s, got %v", tt.path, err)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Grid.Cols = 0
	cfg.Grid.Rows = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	for _, want := range []string{"grid.cols", "grid.rows", "log.level"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestApply(t *testing.T) {
	cfg := Default()
	err := cfg.Apply(map[string]any{
		"grid": map[string]any{"rows": int64(10)},
		"font": map[string]any{"size": 11},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Grid.Rows != 10 || cfg.Grid.Cols != 80 {
		t.Errorf("grid = %+v", cfg.Grid)
	}
	if cfg.Font.Size != 11 {
		t.Errorf("font.size = %v", cfg.Font.Size)
	}

	if err := cfg.Apply(nil); err != nil {
		t.Errorf("Apply(nil) = %v", err)
	}
	if err := cfg.Apply(map[string]any{"bogus": 1}); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting, got %v", err)
	}
}
