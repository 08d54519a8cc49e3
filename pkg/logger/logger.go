package logger

import (
	"log"
	"log/slog"
)

// New returns a stdlib *log.Logger that forwards into slog at error level,
// tagged with the component name. Used where APIs still want *log.Logger.
func New(base *slog.Logger, component string) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	return slog.NewLogLogger(base.With("component", component).Handler(), slog.LevelError)
}
