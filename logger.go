package pipec

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/pipec/cache"
	"github.com/gogpu/pipec/internal/slab"
	"github.com/gogpu/pipec/internal/stages"
)

// nopHandler drops every record. Enabled reports false, so disabled
// calls never build their attributes.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// active may be swapped while pipelines are being built.
var active atomic.Pointer[slog.Logger]

func init() {
	active.Store(newNopLogger())
}

// SetLogger routes the records of pipec, its cache and its internal
// stages to l. pipec is silent until SetLogger is called; nil makes it
// silent again.
//
// Log levels used by pipec:
//   - [slog.LevelDebug]: per-phase diagnostics (NGG decision, budgets,
//     register counts, slab sizes, cache waits)
//   - [slog.LevelInfo]: pipeline created and destroyed
//   - [slog.LevelWarn]: failed batch slots, device closed with live pipelines
//
// Example:
//
//	pipec.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	active.Store(l)

	stages.SetLogger(l)
	slab.SetLogger(l)
	cache.SetLogger(l)
}

// Logger returns the logger set by SetLogger.
func Logger() *slog.Logger {
	return active.Load()
}
