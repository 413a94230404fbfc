// Package obslog is this module's structured logging surface: a thin,
// package-level wrapper around github.com/rs/zerolog, mirroring the
// level and field conventions of original_source's tracing::event! call
// sites (TRACE for the accept-loop hot path, DEBUG/INFO for
// startup/shutdown, WARN for per-connection/per-operation failures,
// ERROR for fatal completion-port failures) — grounded on the pack's
// logiface-zerolog wiring of rs/zerolog as the concrete backend, used
// directly here since this module's log surface is too small to need a
// facade layer on top.
package obslog

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetOutput replaces the package-level logger, for tests that want to
// assert on emitted log lines and for embedders that want JSON output
// instead of the default human-readable console format.
func SetOutput(l zerolog.Logger) {
	logger = l
}

func fields(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}

// Trace logs the accept-loop and per-operation hot path.
func Trace(msg string, kv ...any) { fields(logger.Trace(), kv).Msg(msg) }

// Debug logs dispatcher lifecycle transitions.
func Debug(msg string, kv ...any) { fields(logger.Debug(), kv).Msg(msg) }

// Info logs one-shot startup/shutdown milestones.
func Info(msg string, kv ...any) { fields(logger.Info(), kv).Msg(msg) }

// Warn logs a per-connection or per-operation failure that does not
// affect the health of the worker or dispatcher as a whole.
func Warn(msg string, kv ...any) { fields(logger.Warn(), kv).Msg(msg) }

// Error logs a fatal completion-port or dispatcher-startup failure.
func Error(msg string, kv ...any) { fields(logger.Error(), kv).Msg(msg) }
