package framepump

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/framepump/internal/worker"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for framepump and its render workers.
// By default, framepump produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore silence.
// Workers started after the call use the new logger.
//
// Log levels used by framepump:
//   - [slog.LevelDebug]: per-frame detail (presented frames, dropped events)
//   - [slog.LevelInfo]: session lifecycle (surface attached, worker stopped)
//   - [slog.LevelWarn]: dropped frames and surface configuration failures
//   - [slog.LevelError]: contract breaches, logged just before the process aborts
//
// Example:
//
//	framepump.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	worker.SetLogger(l)
}

// Logger returns the current logger used by framepump.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
