package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telc-go/internal/config"
)

// newLogger creates a zerolog logger that writes to both logDir/telcd.log and
// stderr. Every line carries the service name and opID.
// It returns the logger, the open log file (for cleanup), and any error.
func newLogger(cfg config.LogConfig, logDir string, opID string) (zerolog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "telcd.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
	}

	var stderr io.Writer = os.Stderr
	if cfg.Pretty {
		stderr = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	logger, err := buildLogger(cfg.Level, io.MultiWriter(f, stderr), opID)
	if err != nil {
		f.Close()
		return zerolog.Nop(), nil, err
	}
	return logger, f, nil
}

// buildLogger configures a logger on w at the named level.
func buildLogger(level string, w io.Writer, opID string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "telcd").
		Str("op", opID).
		Logger(), nil
}

// zerologAdapter wraps zerolog.Logger to satisfy the translation.Logger
// interface. args are alternating key/value pairs.
type zerologAdapter struct {
	l zerolog.Logger
}

func (a *zerologAdapter) Debug(msg string, args ...any) { a.l.Debug().Fields(args).Msg(msg) }
func (a *zerologAdapter) Info(msg string, args ...any)  { a.l.Info().Fields(args).Msg(msg) }
func (a *zerologAdapter) Warn(msg string, args ...any)  { a.l.Warn().Fields(args).Msg(msg) }
func (a *zerologAdapter) Error(msg string, args ...any) { a.l.Error().Fields(args).Msg(msg) }
