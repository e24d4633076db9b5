package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) (*Context, *bytes.Buffer) {

	t.Helper()

	var buf bytes.Buffer

	cfg := defaultConfig()
	cfg.LogLevel = "debug"

	return newContext(cfg, &buf), &buf
}

//
// A callable that remembers every argument list it was given
//

type recorder struct {
	calls [][]any
}

func (r *recorder) invoke(ctx *Context, args []any) any {

	r.calls = append(r.calls, args)

	return nil
}

func (r *recorder) firstArgs() []any {

	out := make([]any, len(r.calls))

	for i, c := range r.calls {
		out[i] = argAt(c, 0)
	}

	return out
}

func installRecorder(ctx *Context, name string) *recorder {

	r := &recorder{}
	ctx.declare(name, r, "", true)

	return r
}

func lit(v any) expression {

	return &literalExpr{value: v}
}

func ref(name string) expression {

	return &varExpr{name: name}
}

func op(o string, l, r expression) expression {

	return &binaryExpr{op: o, left: l, right: r}
}

func callTo(name string, args ...expression) statement {

	return &callStmt{name: name, args: args}
}

func assign(name string, value expression) statement {

	return &letStmt{name: name, value: value}
}

func assignAt(name string, index, value expression) statement {

	return &letStmt{name: name, index: index, value: value}
}

func mustGet(t *testing.T, ctx *Context, name string) any {

	t.Helper()

	v, ok := ctx.get(name)
	require.True(t, ok, "variable %s not set", name)

	return v
}

func mustLoad(t *testing.T, src string) *program {

	t.Helper()

	var buf bytes.Buffer

	prog, err := loadProgram([]byte(src), newLogger(&buf, logDebug))
	require.NoError(t, err)

	return prog
}
