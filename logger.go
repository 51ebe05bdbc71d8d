package pls

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/pls/internal/raster"
)

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

// gpuSetLogger forwards the logger to the GPU layer. Nil when built
// without it.
var gpuSetLogger func(*slog.Logger)

func init() {
	loggerPtr.Store(newNopLogger())
}

func slogger() *slog.Logger { return loggerPtr.Load() }

// SetLogger configures the logger for pls and its internal packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels:
//   - [slog.LevelDebug]: variant creation, per-flush fragment counts
//   - [slog.LevelInfo]: mode selection
//   - [slog.LevelWarn]: capability downgrades
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	raster.SetLogger(l)
	if gpuSetLogger != nil {
		gpuSetLogger(l)
	}
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
