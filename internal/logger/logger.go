package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu    sync.Mutex
	base  zerolog.Logger
	ready bool
)

// Init configures the global logger.
//
// level is one of debug|info|warn|error (anything else means info). When
// pretty is set the output is a human-readable console format instead of
// JSON. A nil w writes to stderr so report output on stdout stays clean.
func Init(level string, pretty bool, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	initLocked(level, pretty, w)
}

func initLocked(level string, pretty bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	base = zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
	ready = true
}

// L returns the global logger, initialising it at warn level on stderr if
// Init was never called.
func L() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		initLocked("warn", false, nil)
	}
	return &base
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
