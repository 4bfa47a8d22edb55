package app

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/font"

	"github.com/dshills/softterm/internal/config"
	"github.com/dshills/softterm/internal/renderer/glyph"
)

// hinting maps config hinting names onto x/image/font values.
var hinting = map[string]font.Hinting{
	"none":     font.HintingNone,
	"vertical": font.HintingVertical,
	"full":     font.HintingFull,
}

// ReadFileFunc reads a font file.
type ReadFileFunc func(path string) ([]byte, error)

// NewRasterizer builds the glyph rasterizer selected by cfg.
func NewRasterizer(cfg config.FontConfig, readFile ReadFileFunc) (*glyph.FaceRasterizer, error) {
	if readFile == nil {
		readFile = os.ReadFile
	}
	opts := glyph.FaceOptions{
		Size:    cfg.Size,
		DPI:     cfg.DPI,
		Hinting: hinting[cfg.Hinting],
	}

	switch cfg.Backend {
	case config.BackendGoMono, "":
		return glyph.NewGoMono(opts)

	case config.BackendOpenType, config.BackendTrueType:
		files, err := readFamily(cfg, readFile)
		if err != nil {
			return nil, err
		}
		if cfg.Backend == config.BackendTrueType {
			return glyph.NewTrueType(files, opts)
		}
		return glyph.NewOpenType(files, opts)

	case config.BackendBasic:
		return glyph.NewBasic()

	case config.BackendPlan9:
		data, err := readFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("reading plan9 font: %w", err)
		}
		if glyph.IsPlan9Subfont(data) {
			return glyph.NewPlan9Subfont(data, rune(cfg.FirstRune))
		}
		// Subfont names are relative to the font file.
		dir := filepath.Dir(cfg.Path)
		return glyph.NewPlan9(data, func(name string) ([]byte, error) {
			if !filepath.IsAbs(name) {
				name = filepath.Join(dir, name)
			}
			return readFile(name)
		})

	case config.BackendBDF:
		data, err := readFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("reading bdf font: %w", err)
		}
		return glyph.NewBDF(data)

	default:
		return nil, fmt.Errorf("unknown font backend %q", cfg.Backend)
	}
}

// readFamily loads the regular face and whichever style variants are set.
func readFamily(cfg config.FontConfig, readFile ReadFileFunc) (glyph.FontFiles, error) {
	var files glyph.FontFiles
	variants := []struct {
		path string
		dst  *[]byte
	}{
		{cfg.Path, &files.Regular},
		{cfg.BoldPath, &files.Bold},
		{cfg.ItalicPath, &files.Italic},
		{cfg.BoldItalicPath, &files.BoldItalic},
	}
	for _, v := range variants {
		if v.path == "" {
			continue
		}
		data, err := readFile(v.path)
		if err != nil {
			return files, fmt.Errorf("reading font: %w", err)
		}
		*v.dst = data
	}
	return files, nil
}

// fontLabel describes the configured font for logs and metadata.
func fontLabel(cfg config.FontConfig) string {
	switch cfg.Backend {
	case config.BackendBasic:
		return "basic 7x13"
	case config.BackendGoMono, "":
		return fmt.Sprintf("gomono %gpt@%gdpi", cfg.Size, cfg.DPI)
	case config.BackendBDF, config.BackendPlan9:
		return fmt.Sprintf("%s %s", cfg.Backend, filepath.Base(cfg.Path))
	default:
		return fmt.Sprintf("%s %s %gpt@%gdpi", cfg.Backend, filepath.Base(cfg.Path), cfg.Size, cfg.DPI)
	}
}
