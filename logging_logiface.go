package coroio

import (
	"github.com/joeycumines/logiface"
)

// LogifaceAdapter implements Logger by forwarding every entry to a
// github.com/joeycumines/logiface Logger[E]. This wires the teacher's own
// (test-only, but real) logging dependency into the ambient stack as a
// pluggable structured-logging backend: embedders who already run a
// logiface-based pipeline (backed by stumpy, zerolog, logrus, or any other
// Event implementation) can route this runtime's diagnostics through it
// instead of using the built-in [DefaultLogger].
type LogifaceAdapter[E logiface.Event] struct {
	logger *logiface.Logger[E]
}

// NewLogifaceAdapter wraps an already-configured logiface logger.
func NewLogifaceAdapter[E logiface.Event](l *logiface.Logger[E]) *LogifaceAdapter[E] {
	return &LogifaceAdapter[E]{logger: l}
}

func (a *LogifaceAdapter[E]) IsEnabled(level LogLevel) bool {
	return a.logger.Level().Enabled() && a.logger.Level() >= toLogifaceLevel(level)
}

func (a *LogifaceAdapter[E]) Log(entry LogEntry) {
	b := a.logger.Build(toLogifaceLevel(entry.Level))
	if !b.Enabled() {
		return
	}
	b = b.Str("category", entry.Category)
	if entry.TaskID != 0 {
		b = b.Int("task", int(entry.TaskID))
	}
	if entry.TimerID != 0 {
		b = b.Int("timer", int(entry.TimerID))
	}
	if entry.FD != 0 {
		b = b.Int("fd", entry.FD)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	b.Log(entry.Message)
}

func toLogifaceLevel(level LogLevel) logiface.Level {
	switch level {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}
