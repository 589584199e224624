package knife

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }

func newNopLogger() *slog.Logger {
	return slog.New(nopHandler{})
}

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger used by the knife package. By default
// nothing is logged. Passing nil restores the silent default.
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// sessionLogger tags every record of one knife interaction with an id
func sessionLogger() (*slog.Logger, string) {
	id := uuid.NewString()
	return Logger().With(slog.String("session", id)), id
}
