// Package logging configures the zerolog logger. The TUI owns the
// terminal, so logs always go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLogPath returns the default log file location,
// ~/.local/state/perch/perch.log.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "perch.log")
	}
	return filepath.Join(home, ".local", "state", "perch", "perch.log")
}

// Open creates a file-backed logger at the given level. When the log
// file cannot be opened the logger discards everything rather than
// writing into the TUI's terminal.
func Open(path, level string) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.New(io.Discard), fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.New(io.Discard), fmt.Errorf("opening log file %s: %w", path, err)
	}

	return zerolog.New(f).Level(lvl).With().Timestamp().Logger(), nil
}
