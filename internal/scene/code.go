package scene

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-enry/go-enry/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/softterm/internal/renderer/backend"
	"github.com/dshills/softterm/internal/renderer/core"
)

// DefaultCodeStyle is the chroma style used for code blocks.
const DefaultCodeStyle = "monokai"

const tabWidth = 4

// detectCandidates limits content classification to common languages.
var detectCandidates = []string{
	"Go", "Python", "JavaScript", "TypeScript", "Rust", "C", "C++", "Java",
	"Shell", "Ruby", "Lua", "JSON", "YAML", "TOML", "SQL", "HTML", "CSS", "Markdown",
}

// CodeOptions controls how a code block is drawn.
type CodeOptions struct {
	// Lang is a chroma lexer name or alias. Empty means detect.
	Lang string

	// Filename helps language detection when Lang is empty.
	Filename string

	// Style is a chroma style name. Empty means DefaultCodeStyle.
	Style string

	// Width is the block width in cells. Zero extends to the grid edge.
	// Text beyond the width is clipped.
	Width int
}

// DetectLanguage returns the language name for source, or "" when unknown.
// The file name wins over the shebang line, which wins over content
// classification.
func DetectLanguage(filename, source string) string {
	content := []byte(source)
	if filename != "" {
		if lang, _ := enry.GetLanguageByExtension(filename); lang != "" {
			return lang
		}
		if lang, _ := enry.GetLanguageByFilename(filename); lang != "" {
			return lang
		}
	}
	if lang, _ := enry.GetLanguageByShebang(content); lang != "" {
		return lang
	}
	if strings.TrimSpace(source) == "" {
		return ""
	}
	lang, _ := enry.GetLanguageByClassifier(content, detectCandidates)
	return lang
}

// lexerFor resolves a lexer from an explicit name, detection, chroma's
// own analysis, then the plain text fallback.
func lexerFor(opts CodeOptions, source string) chroma.Lexer {
	if opts.Lang != "" {
		if l := lexers.Get(opts.Lang); l != nil {
			return l
		}
	}
	if lang := DetectLanguage(opts.Filename, source); lang != "" {
		if l := lexers.Get(lang); l != nil {
			return l
		}
	}
	if l := lexers.Analyse(source); l != nil {
		return l
	}
	return lexers.Fallback
}

// chromaColor converts a chroma colour, falling back when unset.
func chromaColor(c chroma.Colour, fallback core.Color) core.Color {
	if !c.IsSet() {
		return fallback
	}
	return core.ColorFromRGB(c.Red(), c.Green(), c.Blue())
}

// tokenStyle maps a chroma style entry onto cell colors and modifiers.
func tokenStyle(entry chroma.StyleEntry, base Style) Style {
	st := Style{
		Fg: chromaColor(entry.Colour, base.Fg),
		Bg: chromaColor(entry.Background, base.Bg),
	}
	if entry.Bold == chroma.Yes {
		st.Modifier = st.Modifier.With(core.ModBold)
	}
	if entry.Italic == chroma.Yes {
		st.Modifier = st.Modifier.With(core.ModItalic)
	}
	if entry.Underline == chroma.Yes {
		st.Modifier = st.Modifier.With(core.ModUnderlined)
	}
	return st
}

// DrawCode draws syntax highlighted source at (col, row) and returns
// the number of rows the block occupies.
func DrawCode(s backend.Surface, col, row int, source string, opts CodeOptions) int {
	source = strings.ReplaceAll(strings.TrimRight(source, "\n"), "\t", strings.Repeat(" ", tabWidth))
	if source == "" {
		return 0
	}

	styleName := opts.Style
	if styleName == "" {
		styleName = DefaultCodeStyle
	}
	style := styles.Get(styleName)
	bgEntry := style.Get(chroma.Background)
	base := Style{
		Fg: chromaColor(bgEntry.Colour, core.ColorReset),
		Bg: chromaColor(bgEntry.Background, core.ColorReset),
	}

	width := opts.Width
	if width <= 0 {
		width = int(s.Size().Cols) - col
	}
	right := col + width
	lines := strings.Count(source, "\n") + 1

	blank := base.cell(" ")
	for y := row; y < row+lines; y++ {
		for x := col; x < right; x++ {
			s.SetCell(x, y, blank)
		}
	}

	lexer := chroma.Coalesce(lexerFor(opts, source))
	tokens, err := chroma.Tokenise(lexer, nil, source)
	if err != nil {
		// Draw unhighlighted rather than nothing.
		tokens = []chroma.Token{{Type: chroma.Text, Value: source}}
	}

	x, y := col, row
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		st := tokenStyle(style.Get(tok.Type), base)
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				x, y = col, y+1
			}
			x = drawClipped(s, x, y, right, part, st)
		}
	}
	return lines
}

// drawClipped writes text one grapheme at a time, stopping before right.
func drawClipped(s backend.Surface, x, y, right int, text string, st Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		if x+g.Width() > right {
			return right
		}
		x = s.SetString(x, y, g.Str(), st.Fg, st.Bg, st.Modifier)
	}
	return x
}
