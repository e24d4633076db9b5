package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionsDefaults(t *testing.T) {

	o, err := parseOptions([]string{progName})
	require.NoError(t, err)

	assert.Equal(t, defaultConfig(), o.cfg)
	assert.Equal(t, defaultLoopUpperBound, o.cfg.LoopUpperBound)
	assert.Equal(t, "warn", o.cfg.LogLevel)
	assert.False(t, o.interactive)
	assert.Empty(t, o.progFile)
}

func TestParseOptionsFlags(t *testing.T) {

	o, err := parseOptions([]string{progName, "-b", "100", "-t", "-T", "-d",
		"-s", "-i", "-e", "AutoOpen", "-e", "Main", "-v", "-v", "macro.yaml"})
	require.NoError(t, err)

	assert.Equal(t, 100, o.cfg.LoopUpperBound)
	assert.True(t, o.cfg.TraceExec)
	assert.True(t, o.cfg.TraceVars)
	assert.True(t, o.cfg.TraceDump)
	assert.True(t, o.cfg.Stats)
	assert.True(t, o.interactive)
	assert.Equal(t, []string{"AutoOpen", "Main"}, o.cfg.EntryPoints)
	assert.Equal(t, "debug", o.cfg.LogLevel)
	assert.Equal(t, "macro.yaml", o.progFile)
}

func TestParseOptionsSingleVerbose(t *testing.T) {

	o, err := parseOptions([]string{progName, "-v"})
	require.NoError(t, err)

	assert.Equal(t, "info", o.cfg.LogLevel)
}

func TestParseOptionsErrors(t *testing.T) {

	cases := [][]string{
		{progName, "-x"},
		{progName, "-b", "lots"},
		{progName, "a.yaml", "b.yaml"},
		{progName, "-c", filepath.Join(t.TempDir(), "missing.yaml")},
	}

	for _, args := range cases {
		_, err := parseOptions(args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestConfigFileUnderFlags(t *testing.T) {

	file := filepath.Join(t.TempDir(), "macroemu.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`loop_upper_bound: 7
log_level: info
entry_points: [Document_Open]
trace_exec: true
`), 0o644))

	o, err := parseOptions([]string{progName, "-c", file})
	require.NoError(t, err)

	assert.Equal(t, 7, o.cfg.LoopUpperBound)
	assert.Equal(t, "info", o.cfg.LogLevel)
	assert.Equal(t, []string{"Document_Open"}, o.cfg.EntryPoints)
	assert.True(t, o.cfg.TraceExec)

	o, err = parseOptions([]string{progName, "-b", "9", "-e", "Other",
		"-c", file})
	require.NoError(t, err)

	assert.Equal(t, 9, o.cfg.LoopUpperBound)
	assert.Equal(t, []string{"Other"}, o.cfg.EntryPoints)
}

func TestConfigFileBadLogLevel(t *testing.T) {

	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log_level: chatty\n"), 0o644))

	cfg := defaultConfig()
	err := loadConfigFile(file, &cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chatty")
}
