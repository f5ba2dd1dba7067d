// Package log provides structured logging for the builder and the GTIL
// engine, backed by zerolog. The library is silent by default (level
// disabled); hosts that want visibility into commit and predict calls enable
// it with Setup.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(io.Discard)
)

// Setup configures the package-level logger to write JSON events to w at the
// given level. Unknown level strings fall back to "info". Passing a nil
// writer logs to stderr.
func Setup(w io.Writer, level string) {
	if w == nil {
		w = os.Stderr
	}
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(w).Level(toLevel(level)).With().Timestamp().Logger()
}

// SetLogger replaces the package-level logger wholesale. Useful for tests
// and for hosts that already carry a configured zerolog.Logger.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Logger returns the current package-level logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug starts a debug-level event on the current logger.
func Debug() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return logger.Debug()
}

// Warn starts a warn-level event on the current logger.
func Warn() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return logger.Warn()
}

func toLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
