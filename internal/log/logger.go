package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// AppName names the per-user state directory.
const AppName = "imgupload"

// Options configures New.
type Options struct {
	// Verbose lowers the level from Info to Debug.
	Verbose bool

	// JSON selects JSON output instead of text.
	JSON bool

	// Output is the terminal destination. Default: os.Stderr
	Output io.Writer

	// File is an explicit log file path. It takes precedence over Dir.
	File string

	// Dir receives a timestamped log file when File is empty.
	Dir string

	// NoFile disables file logging.
	NoFile bool

	// Now is used for the file name. Default: time.Now
	Now func() time.Time
}

// DefaultDir returns the per-user directory for run logs.
func DefaultDir() string {
	return filepath.Join(xdg.StateHome, AppName, "logs")
}

// FileName returns the run log file name for t.
func FileName(t time.Time) string {
	return "upload_" + t.Format("20060102_150405") + ".log"
}

// Logger is a run logger that may also write to a log file.
type Logger struct {
	*slog.Logger

	path string
	file *os.File
}

// Path returns the log file path, or "" when file logging is off.
func (l *Logger) Path() string {
	return l.path
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// New creates the run logger.
func New(opts Options) (*Logger, error) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	l := &Logger{path: opts.path()}
	out := opts.Output

	if l.path != "" {
		if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		out = io.MultiWriter(opts.Output, f)
	}

	l.Logger = newLogger(out, opts.Verbose, opts.JSON)
	return l, nil
}

// path resolves the log file path, or "" when file logging is off.
func (o Options) path() string {
	switch {
	case o.NoFile:
		return ""
	case o.File != "":
		return o.File
	case o.Dir != "":
		return filepath.Join(o.Dir, FileName(o.now()))
	default:
		return ""
	}
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// NewSecureLogger creates a text logger with secure handling and no file.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return newLogger(w, verbose, false)
}

func newLogger(w io.Writer, verbose, json bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewSecureHandler(h))
}
