package pgv2

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the narrow interface the core logs through. Driver-wide log
// registration/configuration machinery is an external collaborator per
// SPEC_FULL.md §1 ("driver-wide logging and registration machinery") — this
// package only defines the interface it calls and ships one default
// implementation, the way gregb-pq gates its own wire tracing behind a
// single TrafficLogging bool rather than a pluggable log manager.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// nopLogger discards everything; it is the zero-value default so a
// Connection built without an explicit logger never nil-derefs.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// defaultLogger backs NewLogger: leveled, structured output via
// charmbracelet/log, in the shape of riftdata-rift/pkg/logger.
type defaultLogger struct {
	l *charmlog.Logger
}

// LogLevelName translates the 0-7 driver-wide loglevel window (DSN
// "loglevel" key or the config defaults file's loglevel, SPEC_FULL.md §6)
// into the name NewLogger accepts. This Logger only distinguishes two
// levels, so 0-3 stay at warn and 4-7 drop to debug.
func LogLevelName(n int) string {
	if n >= 4 {
		return "debug"
	}
	return "warn"
}

// NewLogger returns the default Logger, logging to stderr at the given
// level ("debug", "warn", or anything else for silence below warn).
func NewLogger(level string) Logger {
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "pgv2",
	})
	switch level {
	case "debug":
		l.SetLevel(charmlog.DebugLevel)
	case "warn":
		l.SetLevel(charmlog.WarnLevel)
	default:
		l.SetLevel(charmlog.WarnLevel)
	}
	return &defaultLogger{l: l}
}

func (d *defaultLogger) Debugf(format string, args ...interface{}) {
	d.l.Debugf(format, args...)
}

func (d *defaultLogger) Warnf(format string, args ...interface{}) {
	d.l.Warnf(format, args...)
}
