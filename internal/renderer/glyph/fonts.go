package glyph

import (
	"bytes"
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/plan9font"
)

// FaceOptions configures outline font faces.
type FaceOptions struct {
	// Size is the font size in points. At 72 DPI one point is one pixel.
	Size float64

	// DPI is the output resolution. Zero means 72.
	DPI float64

	// Hinting selects outline hinting.
	Hinting font.Hinting
}

// DefaultFaceOptions returns a 16 pixel, fully hinted configuration.
func DefaultFaceOptions() FaceOptions {
	return FaceOptions{
		Size:    16,
		DPI:     72,
		Hinting: font.HintingFull,
	}
}

func (o FaceOptions) normalized() (FaceOptions, error) {
	if o.Size <= 0 {
		return o, fmt.Errorf("%w: %v", ErrInvalidFontSize, o.Size)
	}
	if o.DPI <= 0 {
		o.DPI = 72
	}
	return o, nil
}

// FontFiles holds the raw font data of one family. Only Regular is required.
type FontFiles struct {
	Regular    []byte
	Bold       []byte
	Italic     []byte
	BoldItalic []byte
}

// GoMonoFiles returns the bundled Go Mono family.
func GoMonoFiles() FontFiles {
	return FontFiles{
		Regular:    gomono.TTF,
		Bold:       gomonobold.TTF,
		Italic:     gomonoitalic.TTF,
		BoldItalic: gomonobolditalic.TTF,
	}
}

// NewGoMono returns a rasterizer over the bundled Go Mono family.
func NewGoMono(opts FaceOptions) (*FaceRasterizer, error) {
	return NewOpenType(GoMonoFiles(), opts)
}

// NewOpenType parses an OpenType or TrueType family with x/image/font/opentype.
func NewOpenType(files FontFiles, opts FaceOptions) (*FaceRasterizer, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	faces, err := buildFaces(files, func(data []byte) (font.Face, error) {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, err
		}
		return opentype.NewFace(f, &opentype.FaceOptions{
			Size:    opts.Size,
			DPI:     opts.DPI,
			Hinting: opts.Hinting,
		})
	})
	if err != nil {
		return nil, &FontError{Backend: "opentype", Err: err}
	}
	return NewFaceRasterizer(faces)
}

// NewTrueType parses a TrueType family with the freetype rasterizer.
func NewTrueType(files FontFiles, opts FaceOptions) (*FaceRasterizer, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	faces, err := buildFaces(files, func(data []byte) (font.Face, error) {
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, err
		}
		return truetype.NewFace(f, &truetype.Options{
			Size:    opts.Size,
			DPI:     opts.DPI,
			Hinting: opts.Hinting,
		}), nil
	})
	if err != nil {
		return nil, &FontError{Backend: "truetype", Err: err}
	}
	return NewFaceRasterizer(faces)
}

// NewBasic returns a rasterizer over the fixed 7x13 bitmap face.
func NewBasic() (*FaceRasterizer, error) {
	return NewFaceRasterizer(FaceSet{Regular: basicfont.Face7x13})
}

// NewPlan9 loads a Plan 9 font file. readFile resolves the subfont names
// the font file refers to.
func NewPlan9(data []byte, readFile func(name string) ([]byte, error)) (*FaceRasterizer, error) {
	face, err := plan9font.ParseFont(data, readFile)
	if err != nil {
		return nil, &FontError{Backend: "plan9", Err: err}
	}
	return NewFaceRasterizer(FaceSet{Regular: face})
}

// plan9ImageMagic starts every subfont; font files are plain text.
var plan9ImageMagic = []byte("compressed\n")

// IsPlan9Subfont reports whether data looks like a Plan 9 subfont rather
// than a font file.
func IsPlan9Subfont(data []byte) bool {
	return bytes.HasPrefix(data, plan9ImageMagic)
}

// NewPlan9Subfont loads a single Plan 9 subfont whose first glyph is firstRune.
func NewPlan9Subfont(data []byte, firstRune rune) (*FaceRasterizer, error) {
	face, err := plan9font.ParseSubfont(data, firstRune)
	if err != nil {
		return nil, &FontError{Backend: "plan9", Err: err}
	}
	return NewFaceRasterizer(FaceSet{Regular: face})
}

func buildFaces(files FontFiles, parse func([]byte) (font.Face, error)) (FaceSet, error) {
	var set FaceSet
	if len(files.Regular) == 0 {
		return set, ErrNoFace
	}
	slots := []struct {
		data []byte
		dst  *font.Face
		name string
	}{
		{files.Regular, &set.Regular, "regular"},
		{files.Bold, &set.Bold, "bold"},
		{files.Italic, &set.Italic, "italic"},
		{files.BoldItalic, &set.BoldItalic, "bold italic"},
	}
	for _, s := range slots {
		if len(s.data) == 0 {
			continue
		}
		face, err := parse(s.data)
		if err != nil {
			return FaceSet{}, fmt.Errorf("%s: %w", s.name, err)
		}
		*s.dst = face
	}
	return set, nil
}
