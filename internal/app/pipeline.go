package app

import (
	"context"
	"errors"
	"image"
	"runtime/debug"
	"time"

	"golang.org/x/image/draw"

	"github.com/dshills/softterm/internal/config"
	"github.com/dshills/softterm/internal/renderer"
	"github.com/dshills/softterm/internal/renderer/core"
	"github.com/dshills/softterm/internal/renderer/export"
	"github.com/dshills/softterm/internal/renderer/palette"
	"github.com/dshills/softterm/internal/scene"
)

// StdoutPath selects standard output as the PNG destination.
const StdoutPath = "-"

// Result summarizes one render.
type Result struct {
	Scene    string
	Output   string
	MetaPath string
	Frames   int
	Grid     core.WindowSize
	Bounds   image.Rectangle
	Elapsed  time.Duration
}

// Render runs the configured scene through the engine and writes the
// final frame. Each render starts from a reset engine (empty grid, blink
// counter at zero) and a fresh surface. A panic inside the pipeline is returned as a
// RecoveredPanicError.
func (app *Application) Render(ctx context.Context) (_ Result, err error) {
	app.mu.Lock()
	defer app.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	timer := StartTimer()
	cfg := app.cfg

	sc, err := app.loadScene()
	if err != nil {
		return Result{}, NewComponentError("scene", "load", err)
	}
	defer sc.Close()

	surface, closeSurface, err := app.newSurface()
	if err != nil {
		return Result{}, err
	}
	defer closeSurface()

	if err := app.engine.Reset(); err != nil {
		return Result{}, NewComponentError("engine", "reset", err)
	}

	setupTimer := StartTimer()
	if err := sc.Setup(ctx, surface); err != nil {
		return Result{}, NewComponentError("scene", "setup", err)
	}
	app.metrics.RecordScene(setupTimer.Stop())

	frames := max(cfg.Render.Frames, 1)
	for n := range frames {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		sceneTimer := StartTimer()
		if err := sc.Frame(ctx, surface, n); err != nil {
			return Result{}, NewComponentError("scene", "frame", err)
		}
		app.metrics.RecordScene(sceneTimer.Stop())

		drawTimer := StartTimer()
		changes := surface.Changes()
		if err := app.engine.Draw(changes); err != nil {
			if !errors.Is(err, renderer.ErrOutOfBounds) {
				return Result{}, NewComponentError("engine", "draw", err)
			}
			app.log.Warn("frame %d: %v", n, err)
			app.metrics.RecordSkipped(countJoined(err))
		}
		app.metrics.RecordFrame(drawTimer.Stop(), len(changes))
	}

	img, err := compose(app.engine.Image(), cfg.Render)
	if err != nil {
		return Result{}, NewComponentError("export", "compose", err)
	}

	out := cfg.Output.Path
	if out == StdoutPath {
		err = export.WritePNG(app.opts.Stdout, img)
	} else {
		err = export.SavePNG(out, img)
	}
	if err != nil {
		return Result{}, NewComponentError("export", "write png", err)
	}

	if cfg.Output.MetaPath != "" {
		if err := app.metadata(frames - 1).Save(cfg.Output.MetaPath); err != nil {
			return Result{}, NewComponentError("export", "write metadata", err)
		}
	}

	res := Result{
		Scene:    sc.Name(),
		Output:   out,
		MetaPath: cfg.Output.MetaPath,
		Frames:   frames,
		Grid:     app.engine.WindowSize(),
		Bounds:   img.Bounds(),
		Elapsed:  timer.Stop(),
	}
	app.metrics.RecordRender(res.Elapsed)
	app.log.Info("rendered %s: %d frame(s) %dx%d px in %v", res.Scene, frames, res.Bounds.Dx(), res.Bounds.Dy(), res.Elapsed)
	return res, nil
}

func (app *Application) loadScene() (scene.Scene, error) {
	sceneLog := app.log.WithComponent("scene")
	opts := []scene.LuaOption{
		scene.WithPrint(func(s string) { sceneLog.Info("%s", s) }),
	}
	if app.opts.ScenePath == "" {
		return scene.Demo(opts...)
	}
	return scene.Load(app.opts.ScenePath, opts...)
}

func (app *Application) metadata(frame int) export.Metadata {
	cell := app.engine.CellSize()
	meta := export.NewMetadata(frame)
	meta.Font = fontLabel(app.cfg.Font)
	meta.Grid = app.engine.WindowSize()
	meta.CellWidth = cell.X
	meta.CellHeight = cell.Y
	meta.Generation = app.engine.Generation()
	meta.BlinkCounter = app.engine.BlinkCounter()
	meta.Animated = app.engine.AnimatedCells()
	return meta
}

// compose surrounds the rendered grid with the configured padding.
func compose(src image.Image, cfg config.RenderConfig) (image.Image, error) {
	if cfg.Padding <= 0 {
		return src, nil
	}
	bg, err := palette.ParseColor(cfg.Background)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	pad := cfg.Padding
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()+2*pad, b.Dy()+2*pad))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(palette.Resolve(bg, palette.Background)), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(pad, pad, pad+b.Dx(), pad+b.Dy()), src, b.Min, draw.Src)
	return dst, nil
}

// countJoined returns how many errors err joins.
func countJoined(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}
