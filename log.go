package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type logLevel int

const (
	logDebug logLevel = iota
	logInfo
	logWarn
	logError
)

var levelNames = []string{"debug", "info", "warn", "error"}

//
// All emulator chatter goes through one of these.  The writer belongs
// to the Context, so a test can point it at a buffer
//

type logger struct {
	w     io.Writer
	level logLevel
	color bool
}

func newLogger(w io.Writer, level logLevel) *logger {

	l := &logger{w: w, level: level}

	if f, ok := w.(*os.File); ok {
		l.color = term.IsTerminal(int(f.Fd()))
	}

	return l
}

func parseLogLevel(s string) (logLevel, bool) {

	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return logLevel(i), true
		}
	}

	return logWarn, false
}

func (l *logger) enabled(level logLevel) bool {

	return level >= l.level
}

func (l *logger) output(level logLevel, format string, args ...any) {

	if !l.enabled(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)

	switch {
	case l.color && level == logError:
		fmt.Fprintf(l.w, "%s%s: %s: %s%s\n", colorRedSeq, progName,
			levelNames[level], msg, colorResetSeq)
	case l.color && level == logWarn:
		fmt.Fprintf(l.w, "%s%s: %s: %s%s\n", colorYellowSeq, progName,
			levelNames[level], msg, colorResetSeq)
	default:
		fmt.Fprintf(l.w, "%s: %s: %s\n", progName, levelNames[level], msg)
	}
}

func (l *logger) debugf(format string, args ...any) {

	l.output(logDebug, format, args...)
}

func (l *logger) infof(format string, args ...any) {

	l.output(logInfo, format, args...)
}

func (l *logger) warnf(format string, args ...any) {

	l.output(logWarn, format, args...)
}

func (l *logger) errorf(format string, args ...any) {

	l.output(logError, format, args...)
}

//
// Trace lines bypass the level filter.  The user asked for them
//

func (l *logger) tracef(format string, args ...any) {

	fmt.Fprintf(l.w, format, args...)
}
