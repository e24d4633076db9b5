package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// Point the shell's globals at a buffer for the length of one test
//

func withShell(t *testing.T) *bytes.Buffer {

	t.Helper()

	saved := g
	t.Cleanup(func() {
		g = saved
	})

	var buf bytes.Buffer

	g.out = &buf
	g.cfg = defaultConfig()
	g.cfg.LogLevel = "error"
	g.prog = nil
	g.ctx = nil
	g.exiting = false
	g.tracedVars = make(map[string]bool)

	return &buf
}

func TestShellNeedsAProgram(t *testing.T) {

	out := withShell(t)

	executeCommand("run")
	executeCommand("files")
	executeCommand("frobnicate")

	assert.Contains(t, out.String(), errNoProgram.Error())
	assert.Contains(t, out.String(), "Nothing has been run yet")
	assert.Contains(t, out.String(), `Unknown command "frobnicate"`)
}

func TestShellSettings(t *testing.T) {

	out := withShell(t)

	executeCommand("bound 42")
	assert.Equal(t, 42, g.cfg.LoopUpperBound)

	executeCommand("bound")
	assert.Contains(t, out.String(), "Loop upper bound is 42")

	executeCommand("bound many")
	assert.Contains(t, out.String(), `Bad bound "many"`)
	assert.Equal(t, 42, g.cfg.LoopUpperBound)

	executeCommand("stats")
	assert.True(t, g.cfg.Stats)
	assert.Contains(t, out.String(), "Stats ON")

	executeCommand("TRACE exec")
	assert.True(t, g.cfg.TraceExec)

	executeCommand("trace Payload")
	assert.True(t, g.tracedVars["payload"])
	executeCommand("trace payload")
	assert.False(t, g.tracedVars["payload"])

	executeCommand("bye")
	assert.True(t, g.exiting)
}

func TestShellRunAndInspect(t *testing.T) {

	out := withShell(t)

	g.prog = mustLoad(t, `procedures:
  - name: First
    body:
      - call: {name: MsgBox, args: ["one"]}
  - name: Second
    body:
      - global: {vars: [{name: url, type: String}]}
      - let: {name: url, value: "http://evil.example"}
      - call: {name: MsgBox, args: ["two"]}
`)

	executeCommand("run Second")
	require.NotNil(t, g.ctx)
	require.Len(t, g.ctx.actions, 1)
	assert.Contains(t, out.String(), "Recorded Actions (1):")

	out.Reset()
	executeCommand("vars")
	assert.Equal(t, "url As String = \"http://evil.example\"\n", out.String())

	out.Reset()
	executeCommand("run")
	assert.Len(t, g.ctx.actions, 2)

	out.Reset()
	executeCommand("dump nothing")
	assert.Contains(t, out.String(), `"nothing" not found`)
}

func TestShellHelp(t *testing.T) {

	out := withShell(t)

	executeCommand("help")
	for _, c := range shellCommands {
		assert.Contains(t, out.String(), c.name)
	}

	out.Reset()
	executeCommand("help trace")
	assert.Contains(t, out.String(), "trace exec")

	out.Reset()
	executeCommand("help nope")
	assert.Contains(t, out.String(), `No help for "nope"`)
}
