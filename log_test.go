package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {

	var buf bytes.Buffer
	l := newLogger(&buf, logWarn)

	l.debugf("hidden %d", 1)
	l.infof("hidden %d", 2)
	l.warnf("shown %d", 3)
	l.errorf("shown %d", 4)
	l.tracef("trace %d\n", 5)

	assert.Equal(t, "macroemu: warn: shown 3\n"+
		"macroemu: error: shown 4\n"+
		"trace 5\n", buf.String())
}

func TestParseLogLevel(t *testing.T) {

	for i, name := range []string{"debug", "INFO", "Warn", "error"} {
		level, ok := parseLogLevel(name)
		assert.True(t, ok, name)
		assert.Equal(t, logLevel(i), level)
	}

	level, ok := parseLogLevel("loud")
	assert.False(t, ok)
	assert.Equal(t, logWarn, level)
}

func TestReportActionIsLogged(t *testing.T) {

	ctx, buf := newTestContext(t)

	ctx.reportAction(actRunCommand, "calc.exe", "ShellExecuteA")

	assert.Contains(t, buf.String(), "ACTION: Run Command")
	assert.Contains(t, buf.String(), "calc.exe")
}
