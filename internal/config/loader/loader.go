// Package loader reads softterm configuration files into nested maps.
//
// Files are decoded by format (TOML or YAML, chosen by extension) and
// may pull in other files with an "@include" key. Environment variables
// are loaded into the same map shape so every source can be merged with
// DeepMerge before decoding into the typed configuration.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Errors returned by loaders.
var (
	// ErrUnsupportedFormat indicates a file extension with no known format.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrIncludeDepthExceeded indicates too many nested @include directives.
	ErrIncludeDepthExceeded = errors.New("include depth exceeded")
)

// IncludeKey names the key listing files merged beneath the current one.
const IncludeKey = "@include"

// Format decodes one configuration file syntax.
type Format struct {
	Name       string
	Extensions []string
	Unmarshal  func(data []byte, v any) error
}

// Supported formats.
var (
	TOML = Format{Name: "toml", Extensions: []string{".toml"}, Unmarshal: toml.Unmarshal}
	YAML = Format{Name: "yaml", Extensions: []string{".yaml", ".yml"}, Unmarshal: yaml.Unmarshal}
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range []Format{TOML, YAML} {
		for _, e := range f.Extensions {
			if e == ext {
				return f, nil
			}
		}
	}
	return Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// FileLoader loads configuration files of one format.
type FileLoader struct {
	fs     FileSystem
	format Format
}

// New creates a loader for the given format on the OS file system.
func New(format Format) *FileLoader {
	return NewWithFS(DefaultFS(), format)
}

// NewWithFS creates a loader with a custom file system.
func NewWithFS(fs FileSystem, format Format) *FileLoader {
	return &FileLoader{fs: fs, format: format}
}

// ForPath creates a loader for the format implied by path.
func ForPath(fs FileSystem, path string) (*FileLoader, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	return NewWithFS(fs, format), nil
}

// Format returns the loader's format.
func (l *FileLoader) Format() Format {
	return l.format
}

// LoadFrom reads configuration from path. The returned error wraps
// fs.ErrNotExist when the file is missing.
func (l *FileLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return l.parse(path, data)
}

// LoadFromReader reads configuration from an io.Reader.
func (l *FileLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return l.parse("<reader>", data)
}

func (l *FileLoader) parse(source string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := l.format.Unmarshal(data, &config); err != nil {
		return nil, newParseError(source, err)
	}
	if config == nil {
		config = make(map[string]any)
	}
	return config, nil
}

// LoadWithIncludes loads path and merges the files named by its
// @include key beneath it. Relative includes resolve against the
// including file's directory and may use either format. maxDepth limits
// nesting.
func (l *FileLoader) LoadWithIncludes(path string, maxDepth int) (map[string]any, error) {
	if maxDepth <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncludeDepthExceeded, path)
	}

	config, err := l.LoadFrom(path)
	if err != nil {
		return nil, err
	}

	includes, ok := config[IncludeKey]
	if !ok {
		return config, nil
	}
	delete(config, IncludeKey)

	var list []string
	switch v := includes.(type) {
	case string:
		list = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: %s must be string or array of strings", path, IncludeKey)
			}
			list = append(list, s)
		}
	default:
		return nil, fmt.Errorf("%s: %s must be string or array of strings, got %T", path, IncludeKey, includes)
	}

	base := filepath.Dir(path)
	merged := make(map[string]any)
	for _, inc := range list {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(base, inc)
		}
		sub, err := ForPath(l.fs, inc)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", inc, err)
		}
		incConfig, err := sub.LoadWithIncludes(inc, maxDepth-1)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", inc, err)
		}
		merged = DeepMerge(merged, incConfig)
	}

	// The including file wins over everything it includes.
	return DeepMerge(merged, config), nil
}
