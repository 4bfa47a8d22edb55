package renderer

import "image"

// Logger receives engine diagnostics. *app.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Option configures an Engine.
type Option func(*Engine)

// WithCellSize fixes the cell size in pixels instead of asking the
// rasterizer. It is required for rasterizers that are not a glyph.Sizer.
func WithCellSize(width, height int) Option {
	return func(e *Engine) {
		e.cellOverride = image.Pt(width, height)
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
