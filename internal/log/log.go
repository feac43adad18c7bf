package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the log file inside the log directory.
const FileName = "metamerge.log"

// Options configures New.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Unknown values mean info.
	Level string
	// Console receives human readable output. Nil means os.Stderr.
	Console io.Writer
	// FileEnabled adds a rotating JSON log file under Dir.
	FileEnabled bool
	// Dir defaults to ~/.metamerge/logs.
	Dir string
	// RetentionDays is how long rotated files are kept.
	RetentionDays int
	// MaxSizeMB rotates the file once it grows past this size.
	MaxSizeMB int
}

// Logger is a zerolog logger that owns its log file.
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
}

// Dir returns the default log directory.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".metamerge", "logs"), nil
}

// New builds the process logger from opts.
func New(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	var output io.Writer = zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
	}

	var rotator *lumberjack.Logger
	if opts.FileEnabled {
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = Dir(); err != nil {
				return nil, err
			}
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxAge := opts.RetentionDays
		if maxAge <= 0 {
			maxAge = 30
		}

		rotator = &lumberjack.Logger{
			Filename:  filepath.Join(dir, FileName),
			MaxSize:   maxSize,
			MaxAge:    maxAge,
			LocalTime: true,
		}
		output = io.MultiWriter(output, rotator)
	}

	logger := zerolog.New(output).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger, rotator: rotator}, nil
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.Logger.With().Str("component", name).Logger()
}

// ParseLevel converts a level name to a zerolog.Level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
