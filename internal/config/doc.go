// Package config provides the configuration system for softterm.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (applied by the caller)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← SOFTTERM_<SECTION>_<KEY>
//	├─────────────────────────────┤
//	│  2. Config File             │  ← TOML or YAML, with @include
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Sub-packages
//
//   - loader: file and environment loading into nested maps
//   - watcher: fsnotify based file watching for live reload
//
// # Basic Usage
//
//	cfg, err := config.Load("softterm.toml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Grid.Cols, cfg.Font.Backend)
package config
