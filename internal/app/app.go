// Package app wires configuration, fonts, scenes, the render engine and
// image export into the softterm render pipeline.
package app

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/softterm/internal/config"
	"github.com/dshills/softterm/internal/renderer"
	"github.com/dshills/softterm/internal/renderer/backend"
	"github.com/dshills/softterm/internal/renderer/glyph"
)

// DefaultDebounce is the watch-mode debounce interval.
const DefaultDebounce = 100 * time.Millisecond

// Application is the central coordinator for a render run.
type Application struct {
	mu sync.Mutex

	cfg     *config.Config
	opts    Options
	log     *Logger
	metrics *Metrics

	ras    *glyph.FaceRasterizer
	engine *renderer.Engine

	// State
	watching atomic.Bool
}

// Options configures the application.
type Options struct {
	// ScenePath is the scene file. Empty renders the built-in demo.
	ScenePath string

	// ConfigPath is the configuration file, watched in watch mode.
	ConfigPath string

	// Reload re-reads the configuration after ConfigPath changes.
	// When nil, config changes are ignored.
	Reload func() (*config.Config, error)

	// Stdout receives the PNG when the output path is "-".
	Stdout io.Writer

	// Logger defaults to a logger at the configured level on stderr.
	Logger *Logger

	// ReadFile loads font files. Defaults to os.ReadFile.
	ReadFile ReadFileFunc

	// Debounce coalesces rapid file changes in watch mode.
	Debounce time.Duration

	// OnRender is called after every render in watch mode.
	OnRender func(Result, error)
}

// New creates an Application for cfg. The configuration must already be
// validated.
func New(cfg *config.Config, opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		lc := DefaultLoggerConfig()
		lc.Level = ParseLogLevel(cfg.Log.Level)
		log = NewLogger(lc)
	}

	app := &Application{
		opts:    opts,
		log:     log,
		metrics: NewMetrics(),
	}
	if err := app.bootstrap(cfg); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap builds the rasterizer and engine for cfg, replacing any
// previous ones.
func (app *Application) bootstrap(cfg *config.Config) error {
	ras, err := NewRasterizer(cfg.Font, app.opts.ReadFile)
	if err != nil {
		return NewComponentError("font", "load "+cfg.Font.Backend, err)
	}

	engineOpts := []renderer.Option{
		renderer.WithLogger(app.log.WithComponent("engine")),
	}
	if cfg.Font.CellWidth > 0 && cfg.Font.CellHeight > 0 {
		engineOpts = append(engineOpts, renderer.WithCellSize(cfg.Font.CellWidth, cfg.Font.CellHeight))
	}

	engine, err := renderer.NewWithRasterizer(uint16(cfg.Grid.Cols), uint16(cfg.Grid.Rows), ras, engineOpts...)
	if err != nil {
		_ = ras.Close()
		return NewComponentError("engine", "create", err)
	}

	if app.ras != nil {
		_ = app.ras.Close()
	}
	app.cfg = cfg
	app.ras = ras
	app.engine = engine

	cell := engine.CellSize()
	app.log.Debug("font %s: cell %dx%d px", fontLabel(cfg.Font), cell.X, cell.Y)
	return nil
}

// Reconfigure swaps in a new configuration. On error the previous
// configuration stays active.
func (app *Application) Reconfigure(cfg *config.Config) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.bootstrap(cfg)
}

// newSurface creates the cell surface scenes draw into.
func (app *Application) newSurface() (backend.Surface, func(), error) {
	cols, rows := app.cfg.Grid.Cols, app.cfg.Grid.Rows
	if app.cfg.Render.Target == config.TargetTcell {
		bridge, err := backend.NewSimulationBridge(cols, rows)
		if err != nil {
			return nil, nil, NewComponentError("surface", "init tcell", err)
		}
		return bridge, bridge.Close, nil
	}
	return backend.NewScreenBuffer(cols, rows), func() {}, nil
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg
}

// Engine returns the render engine.
func (app *Application) Engine() *renderer.Engine {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.engine
}

// Logger returns the application's logger.
func (app *Application) Logger() *Logger {
	return app.log
}

// Metrics returns the render metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Close releases the rasterizer.
func (app *Application) Close() error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.ras == nil {
		return nil
	}
	err := app.ras.Close()
	app.ras = nil
	return err
}
