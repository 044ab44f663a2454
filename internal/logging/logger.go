package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"songbook/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level string
	// FileLevel applies to file outputs. Empty means Level.
	FileLevel   string
	Format      string
	OutputPaths []string
	// Color enables ANSI level colours on stdout/stderr outputs that are
	// terminals. File outputs are never coloured.
	Color       bool
	Development bool
}

// New constructs a slog logger using the provided options. Each output path
// ("stdout", "stderr", or a file) gets its own handler and level so
// colouring, formatting, and verbosity can differ per destination.
func New(opts Options) (*slog.Logger, error) {
	consoleLevel, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	fileLevel := consoleLevel
	if strings.TrimSpace(opts.FileLevel) != "" {
		if fileLevel, err = ParseLevel(opts.FileLevel); err != nil {
			return nil, fmt.Errorf("file %w", err)
		}
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	paths := opts.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}

	seen := make(map[string]struct{}, len(paths))
	handlers := make([]slog.Handler, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}

		writer, terminal, err := openWriter(path)
		if err != nil {
			return nil, err
		}
		level := new(slog.LevelVar)
		level.Set(consoleLevel)
		if !isConsole(path) {
			level.Set(fileLevel)
		}
		addSource := opts.Development || level.Level() <= slog.LevelDebug
		switch format {
		case "json":
			handlers = append(handlers, newJSONHandler(writer, level, addSource))
		default:
			handlers = append(handlers, newPrettyHandler(writer, level, addSource, opts.Color && terminal))
		}
	}
	return slog.New(newTee(handlers)), nil
}

// NewFromConfig creates a logger writing to stderr at logging.level and to
// the state directory log file at logging.file_level. Stdout is left to
// command output.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", OutputPaths: []string{"stderr"}, Color: true})
	}

	outputPaths := []string{"stderr"}
	if cfg.Paths.StateDir != "" {
		outputPaths = append(outputPaths, cfg.LogPath())
	}

	return New(Options{
		Level:       cfg.Logging.Level,
		FileLevel:   cfg.Logging.FileLevel,
		Format:      cfg.Logging.Format,
		OutputPaths: outputPaths,
		Color:       true,
	})
}

func isConsole(path string) bool {
	return path == "stdout" || path == "stderr"
}

// ParseLevel maps a level name to its slog level. An empty name is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log level: unsupported value %q", level)
	}
}

func openWriter(path string) (io.Writer, bool, error) {
	switch path {
	case "stdout":
		return os.Stdout, isTerminal(os.Stdout), nil
	case "stderr":
		return os.Stderr, isTerminal(os.Stderr), nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, false, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, false, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
