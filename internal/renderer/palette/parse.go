package palette

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/softterm/internal/renderer/core"
)

// ErrInvalidColor is returned when a color string cannot be parsed.
var ErrInvalidColor = errors.New("invalid color")

var namedKinds = map[string]core.ColorKind{
	"reset":        core.KindReset,
	"default":      core.KindReset,
	"black":        core.KindBlack,
	"red":          core.KindRed,
	"green":        core.KindGreen,
	"yellow":       core.KindYellow,
	"blue":         core.KindBlue,
	"magenta":      core.KindMagenta,
	"cyan":         core.KindCyan,
	"gray":         core.KindGray,
	"grey":         core.KindGray,
	"darkgray":     core.KindDarkGray,
	"darkgrey":     core.KindDarkGray,
	"lightred":     core.KindLightRed,
	"lightgreen":   core.KindLightGreen,
	"lightyellow":  core.KindLightYellow,
	"lightblue":    core.KindLightBlue,
	"lightmagenta": core.KindLightMagenta,
	"lightcyan":    core.KindLightCyan,
	"white":        core.KindWhite,
}

// ParseColor parses a color description.
//
// Accepted forms:
//   - "reset" or "default"
//   - a named color, case-insensitive, with optional '-', '_' or ' '
//     separators ("light-blue", "Dark Gray")
//   - "#rgb" or "#rrggbb"
//   - "idx:N" or a bare integer 0-255 for an indexed color
func ParseColor(s string) (core.Color, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return core.Color{}, fmt.Errorf("%w: empty string", ErrInvalidColor)
	}

	if strings.HasPrefix(in, "#") {
		c, err := colorful.Hex(in)
		if err != nil {
			return core.Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
		}
		r, g, b := c.RGB255()
		return core.ColorFromRGB(r, g, b), nil
	}

	lower := strings.ToLower(in)
	if idx, ok := strings.CutPrefix(lower, "idx:"); ok {
		return parseIndex(s, idx)
	}
	if lower[0] >= '0' && lower[0] <= '9' {
		return parseIndex(s, lower)
	}

	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(lower)
	if kind, ok := namedKinds[key]; ok {
		return core.Color{Kind: kind}, nil
	}
	return core.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

func parseIndex(orig, digits string) (core.Color, error) {
	n, err := strconv.ParseUint(digits, 10, 8)
	if err != nil {
		return core.Color{}, fmt.Errorf("%w: %q: index must be 0-255", ErrInvalidColor, orig)
	}
	return core.ColorFromIndex(uint8(n)), nil
}

// MustParseColor is like ParseColor but panics on error.
// It is intended for package-level defaults.
func MustParseColor(s string) core.Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
