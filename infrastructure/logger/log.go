package logger

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// logEntry is a single formatted log line together with the level it was
// written at, queued for the backend goroutine.
type logEntry struct {
	log   []byte
	level Level
}

// Logger is a subsystem logger. Log messages are tagged with the subsystem
// and filtered by the logger's level before being handed to the backend.
type Logger struct {
	levelValue uint32 // accessed atomically, holds a Level
	tag        string
	b          *Backend
	writeChan  chan<- logEntry
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.levelValue))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(logLevel Level) {
	atomic.StoreUint32(&l.levelValue, uint32(logLevel))
}

// defaultCallSiteSkipDepth is the default number of stack frames between the
// caller of a print method and the callsite that should be logged.
const defaultCallSiteSkipDepth = 3

// print outputs a log message to the backend writers at the given level.
func (l *Logger) print(logLevel Level, args ...interface{}) {
	l.write(logLevel, fmt.Sprint(args...))
}

// printf outputs a formatted log message to the backend writers at the given
// level.
func (l *Logger) printf(logLevel Level, format string, args ...interface{}) {
	l.write(logLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) write(logLevel Level, msg string) {
	if !l.b.IsRunning() {
		// Logging before the backend runs (or after it closed) would
		// block forever on the unbuffered write channel.
		fmt.Fprintf(os.Stderr, "%s [%s] %s: %s\n",
			formatTime(time.Now()), logLevel, l.tag, msg)
		return
	}

	var buf bytes.Buffer
	buf.WriteString(formatTime(time.Now()))
	buf.WriteString(" [")
	buf.WriteString(logLevel.String())
	buf.WriteString("] ")
	buf.WriteString(l.tag)
	if file, line, ok := l.callSite(); ok {
		fmt.Fprintf(&buf, " %s:%d", file, line)
	}
	buf.WriteString(": ")
	buf.WriteString(msg)
	if !strings.HasSuffix(msg, "\n") {
		buf.WriteByte('\n')
	}

	l.writeChan <- logEntry{log: buf.Bytes(), level: logLevel}
}

// callSite returns the file and line of the logging callsite when the
// backend's flags request it.
func (l *Logger) callSite() (file string, line int, ok bool) {
	if l.b.flag&(LogFlagShortFile|LogFlagLongFile) == 0 {
		return "", 0, false
	}
	_, file, line, ok = runtime.Caller(defaultCallSiteSkipDepth)
	if !ok {
		return "", 0, false
	}
	if l.b.flag&LogFlagShortFile != 0 {
		if i := strings.LastIndexByte(file, '/'); i >= 0 {
			file = file[i+1:]
		}
	}
	return file, line, true
}

// formatTime formats t in the fixed layout used for all log lines.
func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}

// Trace formats a message using the default formats for its operands, and
// writes it at LevelTrace.
func (l *Logger) Trace(args ...interface{}) {
	if l.Level() <= LevelTrace {
		l.print(LevelTrace, args...)
	}
}

// Tracef formats a message according to a format specifier and writes it at
// LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	if l.Level() <= LevelTrace {
		l.printf(LevelTrace, format, args...)
	}
}

// Debug formats a message using the default formats for its operands, and
// writes it at LevelDebug.
func (l *Logger) Debug(args ...interface{}) {
	if l.Level() <= LevelDebug {
		l.print(LevelDebug, args...)
	}
}

// Debugf formats a message according to a format specifier and writes it at
// LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.Level() <= LevelDebug {
		l.printf(LevelDebug, format, args...)
	}
}

// Info formats a message using the default formats for its operands, and
// writes it at LevelInfo.
func (l *Logger) Info(args ...interface{}) {
	if l.Level() <= LevelInfo {
		l.print(LevelInfo, args...)
	}
}

// Infof formats a message according to a format specifier and writes it at
// LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.Level() <= LevelInfo {
		l.printf(LevelInfo, format, args...)
	}
}

// Warn formats a message using the default formats for its operands, and
// writes it at LevelWarn.
func (l *Logger) Warn(args ...interface{}) {
	if l.Level() <= LevelWarn {
		l.print(LevelWarn, args...)
	}
}

// Warnf formats a message according to a format specifier and writes it at
// LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.Level() <= LevelWarn {
		l.printf(LevelWarn, format, args...)
	}
}

// Error formats a message using the default formats for its operands, and
// writes it at LevelError.
func (l *Logger) Error(args ...interface{}) {
	if l.Level() <= LevelError {
		l.print(LevelError, args...)
	}
}

// Errorf formats a message according to a format specifier and writes it at
// LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.Level() <= LevelError {
		l.printf(LevelError, format, args...)
	}
}

// Critical formats a message using the default formats for its operands, and
// writes it at LevelCritical.
func (l *Logger) Critical(args ...interface{}) {
	if l.Level() <= LevelCritical {
		l.print(LevelCritical, args...)
	}
}

// Criticalf formats a message according to a format specifier and writes it
// at LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	if l.Level() <= LevelCritical {
		l.printf(LevelCritical, format, args...)
	}
}
