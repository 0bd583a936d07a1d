// Package logging builds the zerolog logger shared by the CLI, the engine
// and the MCP server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// StateDir is the per-project directory acan keeps its own files in.
const StateDir = ".acan"

// Options configures New.
type Options struct {
	// Level is a zerolog level name. Empty means info.
	Level string

	// Console receives human-readable output. Nil disables it.
	Console io.Writer

	// NoColor disables ANSI colors on the console.
	NoColor bool

	// ProjectDir, when set, adds a JSON log at .acan/logs/acan.log under it.
	ProjectDir string
}

// Logger is a zerolog logger that may own a log file.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New creates the logger described by opts.
func New(opts Options) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level = l
	}

	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			NoColor:    opts.NoColor,
			TimeFormat: time.Kitchen,
		})
	}

	var f *os.File
	if opts.ProjectDir != "" {
		var err error
		if f, err = openFile(opts.ProjectDir); err != nil {
			return nil, err
		}
		writers = append(writers, f)
	}

	var w io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		w = writers[0]
	default:
		w = zerolog.MultiLevelWriter(writers...)
	}

	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &Logger{Logger: zl, file: f}, nil
}

// Path returns the log file location for a project.
func Path(projectDir string) string {
	return filepath.Join(projectDir, StateDir, "logs", "acan.log")
}

func openFile(projectDir string) (*os.File, error) {
	path := Path(projectDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return f, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
