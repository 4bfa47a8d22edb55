package app

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/dshills/softterm/internal/config/watcher"
)

// Watch renders once, then re-renders whenever the scene or config file
// changes, until ctx is canceled. Renders run on the calling goroutine.
// Render errors are logged and do not stop the loop.
func (app *Application) Watch(ctx context.Context) error {
	paths := app.watchPaths()
	if len(paths) == 0 {
		return ErrNothingToWatch
	}
	if !app.watching.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.watching.Store(false)

	w, err := watcher.New(watcher.WithDebounce(app.opts.Debounce))
	if err != nil {
		return NewComponentError("watcher", "create", err)
	}
	defer w.Stop()

	for _, p := range paths {
		if err := w.Watch(p); err != nil {
			return NewComponentError("watcher", "watch "+p, err)
		}
	}

	log := app.log.WithComponent("watch")
	pending := newPendingChanges()
	w.OnChange(pending.add)
	w.OnError(func(err error) {
		log.Warn("%v", err)
	})
	w.Start()

	log.Info("watching %d file(s)", len(paths))
	app.renderOnce(ctx, log)

	configPath := absPath(app.opts.ConfigPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending.wake:
			changed, reload := false, false
			for path, op := range pending.take() {
				if op == watcher.OpRemove || op == watcher.OpRename {
					log.Debug("%s %s", op, path)
					continue
				}
				log.Info("%s changed", path)
				changed = true
				if configPath != "" && path == configPath {
					reload = true
				}
			}
			if !changed {
				continue
			}
			if reload {
				app.reload(log)
			}
			app.renderOnce(ctx, log)
		}
	}
}

// pendingChanges collects file events between renders. Events are never
// dropped; wake only signals that the set is non-empty.
type pendingChanges struct {
	mu    sync.Mutex
	paths map[string]watcher.Operation
	wake  chan struct{}
}

func newPendingChanges() *pendingChanges {
	return &pendingChanges{
		paths: make(map[string]watcher.Operation),
		wake:  make(chan struct{}, 1),
	}
}

func (p *pendingChanges) add(ev watcher.Event) {
	p.mu.Lock()
	p.paths[ev.Path] = ev.Op
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// take returns the pending events and empties the set.
func (p *pendingChanges) take() map[string]watcher.Operation {
	p.mu.Lock()
	defer p.mu.Unlock()
	paths := p.paths
	p.paths = make(map[string]watcher.Operation)
	return paths
}

func (app *Application) watchPaths() []string {
	var paths []string
	if app.opts.ScenePath != "" {
		paths = append(paths, app.opts.ScenePath)
	}
	if app.opts.ConfigPath != "" {
		paths = append(paths, app.opts.ConfigPath)
	}
	return paths
}

func (app *Application) reload(log *Logger) {
	if app.opts.Reload == nil {
		return
	}
	cfg, err := app.opts.Reload()
	if err != nil {
		log.Error("reload config: %v", err)
		return
	}
	if err := app.Reconfigure(cfg); err != nil {
		log.Error("apply config: %v", err)
	}
}

func (app *Application) renderOnce(ctx context.Context, log *Logger) {
	res, err := app.Render(ctx)
	if err != nil && ctx.Err() == nil {
		log.Error("%v", err)
	}
	if app.opts.OnRender != nil {
		app.opts.OnRender(res, err)
	}
}

func absPath(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
