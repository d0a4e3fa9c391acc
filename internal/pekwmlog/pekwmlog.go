// Package pekwmlog provides the reactor's leveled logger and a thin
// adapter over kardianos/service's lifecycle logger, mirroring the
// teacher's cmdsLogger/serviceLogger split (cmd/service/logger.go):
// one logger for day-to-day diagnostics, one for install/start/stop
// events reported through the OS service manager.
package pekwmlog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity, ordered from most to least verbose.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Trace:
		return "trace"
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a case-insensitive level name, as accepted by
// -l/--log-level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return Trace, nil
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Info, fmt.Errorf("pekwmlog: unrecognised log level %q", name)
	}
}

// Logger is the reactor logger: leveled lines written to an
// io.Writer (a -f/--log-file handle, or stderr when none is given).
type Logger struct {
	mu  sync.Mutex
	out io.Writer
	min Level
	now func() time.Time
}

// New builds a Logger writing to out, suppressing lines below min.
// A nil out defaults to os.Stderr.
func New(out io.Writer, min Level) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{out: out, min: min, now: time.Now}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.min {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s [%s] %s\n", l.now().Format(time.RFC3339), level, fmt.Sprintf(format, args...))
}

func (l *Logger) Tracef(format string, args ...interface{}) { l.log(Trace, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(Info, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(Warn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(Error, format, args...) }
