package glyph

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// NewBDF parses a BDF bitmap font and returns a rasterizer over it.
func NewBDF(data []byte) (*FaceRasterizer, error) {
	face, err := ParseBDF(data)
	if err != nil {
		return nil, err
	}
	return NewFaceRasterizer(FaceSet{Regular: face})
}

type bdfGlyph struct {
	mask    *image.Alpha // Rect is relative to the dot
	advance int
}

// BDFFace is a font.Face over a parsed BDF font.
type BDFFace struct {
	glyphs  map[rune]bdfGlyph
	bbox    image.Rectangle // font bounding box relative to the dot
	ascent  int
	descent int
	xHeight int
	capH    int
}

var _ font.Face = (*BDFFace)(nil)

// ParseBDF parses BDF 2.1 font data. Glyphs with a negative encoding are
// skipped.
func ParseBDF(data []byte) (*BDFFace, error) {
	p := &bdfParser{
		sc:   bufio.NewScanner(bytes.NewReader(data)),
		face: &BDFFace{glyphs: make(map[rune]bdfGlyph), ascent: -1, descent: -1},
	}
	if err := p.parse(); err != nil {
		return nil, &FontError{Backend: "bdf", Line: p.line, Err: err}
	}
	f := p.face
	if len(f.glyphs) == 0 {
		return nil, &FontError{Backend: "bdf", Err: ErrNoGlyphs}
	}
	if f.ascent < 0 {
		f.ascent = -f.bbox.Min.Y
	}
	if f.descent < 0 {
		f.descent = f.bbox.Max.Y
	}
	return f, nil
}

type bdfParser struct {
	sc   *bufio.Scanner
	line int
	face *BDFFace
}

var errUnexpectedEOF = errors.New("unexpected end of data")

func (p *bdfParser) next() (keyword string, args []string, ok bool) {
	for p.sc.Scan() {
		p.line++
		fields := strings.Fields(p.sc.Text())
		if len(fields) == 0 || fields[0] == "COMMENT" {
			continue
		}
		return fields[0], fields[1:], true
	}
	return "", nil, false
}

func (p *bdfParser) parse() error {
	keyword, _, ok := p.next()
	if !ok || keyword != "STARTFONT" {
		return errors.New("missing STARTFONT")
	}
	for {
		keyword, args, ok := p.next()
		if !ok {
			return errUnexpectedEOF
		}
		switch keyword {
		case "FONTBOUNDINGBOX":
			r, err := bbx(args)
			if err != nil {
				return err
			}
			p.face.bbox = r
		case "FONT_ASCENT":
			n, err := ints(args, 1)
			if err != nil {
				return err
			}
			p.face.ascent = n[0]
		case "FONT_DESCENT":
			n, err := ints(args, 1)
			if err != nil {
				return err
			}
			p.face.descent = n[0]
		case "X_HEIGHT":
			n, err := ints(args, 1)
			if err != nil {
				return err
			}
			p.face.xHeight = n[0]
		case "CAP_HEIGHT":
			n, err := ints(args, 1)
			if err != nil {
				return err
			}
			p.face.capH = n[0]
		case "STARTCHAR":
			if err := p.parseChar(); err != nil {
				return err
			}
		case "ENDFONT":
			return nil
		}
	}
}

func (p *bdfParser) parseChar() error {
	encoding := -1
	advance := p.face.bbox.Dx()
	rect := p.face.bbox
	for {
		keyword, args, ok := p.next()
		if !ok {
			return errUnexpectedEOF
		}
		switch keyword {
		case "ENCODING":
			n, err := ints(args, 1)
			if err != nil {
				return err
			}
			encoding = n[0]
		case "DWIDTH":
			n, err := ints(args, 1)
			if err != nil {
				return err
			}
			advance = n[0]
		case "BBX":
			r, err := bbx(args)
			if err != nil {
				return err
			}
			rect = r
		case "BITMAP":
			mask, err := p.parseBitmap(rect)
			if err != nil {
				return err
			}
			if encoding >= 0 {
				p.face.glyphs[rune(encoding)] = bdfGlyph{mask: mask, advance: advance}
			}
		case "ENDCHAR":
			return nil
		}
	}
}

func (p *bdfParser) parseBitmap(rect image.Rectangle) (*image.Alpha, error) {
	mask := image.NewAlpha(rect)
	w := rect.Dx()
	for row := 0; row < rect.Dy(); row++ {
		if !p.sc.Scan() {
			return nil, errUnexpectedEOF
		}
		p.line++
		bits, err := hex.DecodeString(strings.TrimSpace(p.sc.Text()))
		if err != nil {
			return nil, fmt.Errorf("bitmap row: %w", err)
		}
		if len(bits)*8 < w {
			return nil, fmt.Errorf("bitmap row has %d bits, need %d", len(bits)*8, w)
		}
		for x := 0; x < w; x++ {
			if bits[x/8]&(0x80>>(x%8)) != 0 {
				mask.Pix[row*mask.Stride+x] = 0xff
			}
		}
	}
	return mask, nil
}

// maxGlyphDim bounds BBX and FONTBOUNDINGBOX sizes so a corrupt header
// cannot force a huge bitmap allocation.
const maxGlyphDim = 1024

// bbx converts "w h xoff yoff" into a rectangle relative to the dot,
// with y growing downwards.
func bbx(args []string) (image.Rectangle, error) {
	n, err := ints(args, 4)
	if err != nil {
		return image.Rectangle{}, err
	}
	w, h, xoff, yoff := n[0], n[1], n[2], n[3]
	if w < 0 || h < 0 {
		return image.Rectangle{}, fmt.Errorf("negative bounding box %dx%d", w, h)
	}
	if w > maxGlyphDim || h > maxGlyphDim {
		return image.Rectangle{}, fmt.Errorf("bounding box %dx%d exceeds %dx%d", w, h, maxGlyphDim, maxGlyphDim)
	}
	return image.Rect(xoff, -(yoff + h), xoff+w, -yoff), nil
}

func ints(args []string, want int) ([]int, error) {
	if len(args) < want {
		return nil, fmt.Errorf("expected %d values, got %d", want, len(args))
	}
	out := make([]int, want)
	for i := 0; i < want; i++ {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Len returns the number of encoded glyphs.
func (f *BDFFace) Len() int {
	return len(f.glyphs)
}

// Close implements font.Face.
func (f *BDFFace) Close() error { return nil }

// Glyph implements font.Face.
func (f *BDFFace) Glyph(dot fixed.Point26_6, r rune) (
	dr image.Rectangle, mask image.Image, maskp image.Point, advance fixed.Int26_6, ok bool) {

	g, ok := f.glyphs[r]
	if !ok {
		return image.Rectangle{}, nil, image.Point{}, 0, false
	}
	dr = g.mask.Rect.Add(image.Pt(dot.X.Floor(), dot.Y.Floor()))
	return dr, g.mask, g.mask.Rect.Min, fixed.I(g.advance), true
}

// GlyphBounds implements font.Face.
func (f *BDFFace) GlyphBounds(r rune) (bounds fixed.Rectangle26_6, advance fixed.Int26_6, ok bool) {
	g, ok := f.glyphs[r]
	if !ok {
		return fixed.Rectangle26_6{}, 0, false
	}
	b := g.mask.Rect
	return fixed.R(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y), fixed.I(g.advance), true
}

// GlyphAdvance implements font.Face.
func (f *BDFFace) GlyphAdvance(r rune) (advance fixed.Int26_6, ok bool) {
	g, ok := f.glyphs[r]
	if !ok {
		return 0, false
	}
	return fixed.I(g.advance), true
}

// Kern implements font.Face. Bitmap fonts carry no kerning.
func (f *BDFFace) Kern(r0, r1 rune) fixed.Int26_6 { return 0 }

// Metrics implements font.Face.
func (f *BDFFace) Metrics() font.Metrics {
	return font.Metrics{
		Height:     fixed.I(f.ascent + f.descent),
		Ascent:     fixed.I(f.ascent),
		Descent:    fixed.I(f.descent),
		XHeight:    fixed.I(f.xHeight),
		CapHeight:  fixed.I(f.capH),
		CaretSlope: image.Point{X: 0, Y: 1},
	}
}
