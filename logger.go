package framegraph

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/framegraph/device"
)

// silentHandler drops every record and reports every level as disabled.
type silentHandler struct{}

func (silentHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (silentHandler) Handle(context.Context, slog.Record) error { return nil }
func (h silentHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h silentHandler) WithGroup(string) slog.Handler           { return h }

var activeLogger atomic.Pointer[slog.Logger]

func init() {
	activeLogger.Store(slog.New(silentHandler{}))
}

// SetLogger sends framegraph and device log output to l. Nil restores the
// silent default.
//
// What is logged, by level:
//   - [slog.LevelDebug]: handle reuse and cache drops in Resolve, texture
//     and buffer create/destroy, debug group begin/end, submissions,
//     shader compiles, graph builds
//   - [slog.LevelInfo]: headless device opened, scene and overlay
//     pipelines created
//   - [slog.LevelWarn]: resources declared but never used, device create
//     failures, missing pipelines or node targets, devices destroyed with
//     live resources
//
// Example:
//
//	framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(silentHandler{})
	}
	activeLogger.Store(l)
	device.SetLogger(l)
}

// Logger returns the logger set by SetLogger. Safe for concurrent use.
func Logger() *slog.Logger {
	return activeLogger.Load()
}
