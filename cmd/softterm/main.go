// Package main is the entry point for the softterm renderer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/softterm/internal/app"
	"github.com/dshills/softterm/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	fl := parseFlags()

	load := func() (*config.Config, error) {
		cfg, err := config.Load(fl.configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(fl.overrides); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}

	cfg, err := load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.Output.Path == app.StdoutPath && term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintf(os.Stderr, "Error: %v (use -out FILE or redirect stdout)\n", app.ErrTerminalOutput)
		return 1
	}

	logCfg := app.DefaultLoggerConfig()
	logCfg.Level = app.ParseLogLevel(cfg.Log.Level)
	log := app.NewLogger(logCfg)

	application, err := app.New(cfg, app.Options{
		ScenePath:  fl.scenePath,
		ConfigPath: fl.configPath,
		Reload:     load,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if fl.watch {
		if err := application.Watch(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if _, err := application.Render(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	log.Debug("%s", application.Metrics().Snapshot())
	return 0
}

type flags struct {
	configPath string
	scenePath  string
	watch      bool
	overrides  map[string]any
}

func parseFlags() flags {
	var fl flags
	var (
		out, meta, font, fontBackend, logLevel string
		cols, rows, frames                     int
		fontSize                               float64
		showVersion, showHelp                  bool
	)

	flag.StringVar(&fl.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&fl.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&out, "out", "", "Output PNG path, - for stdout")
	flag.StringVar(&out, "o", "", "Output PNG path (shorthand)")
	flag.StringVar(&meta, "meta", "", "Write frame metadata JSON to this path")
	flag.IntVar(&cols, "cols", 0, "Grid columns")
	flag.IntVar(&rows, "rows", 0, "Grid rows")
	flag.StringVar(&font, "font", "", "Font file path")
	flag.Float64Var(&fontSize, "font-size", 0, "Font size in points")
	flag.StringVar(&fontBackend, "backend", "", "Font backend (gomono, opentype, truetype, basic, plan9, bdf)")
	flag.IntVar(&frames, "frames", 0, "Number of frames to render")
	flag.BoolVar(&fl.watch, "watch", false, "Re-render when the scene or config changes")
	flag.BoolVar(&fl.watch, "w", false, "Re-render on change (shorthand)")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "softterm - render a terminal cell grid to PNG\n\n")
		fmt.Fprintf(os.Stderr, "Usage: softterm [options] [scene.lua|scene.json]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  softterm                          Render the built-in demo\n")
		fmt.Fprintf(os.Stderr, "  softterm -o shot.png scene.lua    Render a Lua scene\n")
		fmt.Fprintf(os.Stderr, "  softterm -o - scene.json | feh -  Write PNG to stdout\n")
		fmt.Fprintf(os.Stderr, "  softterm -w -c st.toml s.lua      Re-render on save\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("softterm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch flag.NArg() {
	case 0:
	case 1:
		fl.scenePath = flag.Arg(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: expected at most one scene file, got %d\n", flag.NArg())
		os.Exit(2)
	}

	// Only flags given on the command line override the config file.
	fl.overrides = make(map[string]any)
	set := func(section, key string, value any) {
		m, ok := fl.overrides[section].(map[string]any)
		if !ok {
			m = make(map[string]any)
			fl.overrides[section] = m
		}
		m[key] = value
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out", "o":
			set("output", "path", out)
		case "meta":
			set("output", "meta_path", meta)
		case "cols":
			set("grid", "cols", cols)
		case "rows":
			set("grid", "rows", rows)
		case "font":
			set("font", "path", font)
		case "font-size":
			set("font", "size", fontSize)
		case "backend":
			set("font", "backend", fontBackend)
		case "frames":
			set("render", "frames", frames)
		case "log-level":
			set("log", "level", logLevel)
		}
	})

	return fl
}
