package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger shared by every package in this module.
// By default nothing is logged. Passing nil restores the silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: buffer sizes, dispatch sizes, pipeline registration
//   - [slog.LevelInfo]: backend and adapter selection, profiler stats
//   - [slog.LevelWarn]: dropped dispatches and writes
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current shared logger. Safe for concurrent use; never nil.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
