package logger

import (
	"io"
	"os"

	charm "github.com/charmbracelet/log"
)

// CharmLogger forwards to a charmbracelet/log logger.
type CharmLogger struct {
	base *charm.Logger
}

var _ Logger = (*CharmLogger)(nil)

// NewCharm builds a logger writing to w at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func NewCharm(w io.Writer, level string) *CharmLogger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := charm.ParseLevel(level)
	if err != nil {
		lvl = charm.InfoLevel
	}
	base := charm.NewWithOptions(w, charm.Options{
		ReportTimestamp: true,
		Prefix:          "rtm",
		Level:           lvl,
	})
	return &CharmLogger{base: base}
}

// Wrap adapts an existing charmbracelet logger.
func Wrap(base *charm.Logger) *CharmLogger {
	if base == nil {
		base = charm.Default()
	}
	return &CharmLogger{base: base}
}

func (l *CharmLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &CharmLogger{base: l.base.With(keyvals(fields)...)}
}

func (l *CharmLogger) Debug(msg string, fields ...Field) { l.base.Debug(msg, keyvals(fields)...) }
func (l *CharmLogger) Info(msg string, fields ...Field)  { l.base.Info(msg, keyvals(fields)...) }
func (l *CharmLogger) Warn(msg string, fields ...Field)  { l.base.Warn(msg, keyvals(fields)...) }
func (l *CharmLogger) Error(msg string, fields ...Field) { l.base.Error(msg, keyvals(fields)...) }

func keyvals(fields []Field) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}
