package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const dropperProgram = `module: Module1
declarations:
  - dim: {vars: [{name: counter, type: Long}]}
procedures:
  - name: Helper
    kind: function
    params: [a, b]
    body:
      - let: {name: Helper, value: {op: "&", args: [{var: a}, {var: b}]}}
  - name: AutoOpen
    body:
      - let: {name: s, value: {call: Helper, args: ["cmd", ".exe"]}}
      - for:
          var: i
          start: 1
          end: 3
          body:
            - let: {name: counter, value: {op: "+", args: [{var: counter}, {var: i}]}}
      - if:
          - cond: {op: ">", args: [{var: counter}, 5]}
            body:
              - call: {name: Shell, args: [{var: s}]}
          - else:
              - call: {name: MsgBox, args: ["small"]}
`

func TestLoadAndEmulate(t *testing.T) {

	prog := mustLoad(t, dropperProgram)

	assert.Equal(t, "Module1", prog.module)
	require.Len(t, prog.declarations, 1)
	require.Len(t, prog.procedures, 2)
	assert.True(t, prog.procedures[0].isFunction)
	assert.Equal(t, []string{"a", "b"}, prog.procedures[0].params)

	ctx, _ := newTestContext(t)

	assert.Equal(t, 1, emulate(ctx, prog, nil))
	assert.Equal(t, 6, mustGet(t, ctx, "counter"))
	require.Len(t, ctx.actions, 1)
	assert.Equal(t, action{category: actExecuteCommand, description: "cmd.exe",
		source: "Shell"}, ctx.actions[0])
	assert.Zero(t, ctx.stats.numErrors)
}

func TestStatementSpans(t *testing.T) {

	prog := mustLoad(t, `procedures:
  - name: Main
    body:
      - let: {name: x, value: 1}
      - call: Foo
`)

	body := prog.procedures[0].body
	require.Len(t, body, 2)
	assert.Equal(t, srcSpan{line: 4, column: 9}, body[0].span())
	assert.Equal(t, srcSpan{line: 5, column: 9}, body[1].span())
	assert.Equal(t, srcSpan{line: 2, column: 5}, prog.procedures[0].loc)
}

func TestEmulateRunsEverythingWithoutEntryPoint(t *testing.T) {

	prog := mustLoad(t, `procedures:
  - name: First
    body:
      - call: {name: MsgBox, args: ["one"]}
  - name: Second
    body:
      - call: {name: MsgBox, args: ["two"]}
`)

	ctx, _ := newTestContext(t)

	assert.Equal(t, 2, emulate(ctx, prog, nil))
	require.Len(t, ctx.actions, 2)
	assert.Equal(t, `"one"`, ctx.actions[0].description)
	assert.Equal(t, `"two"`, ctx.actions[1].description)
}

func TestEmulateNamedEntryPoint(t *testing.T) {

	prog := mustLoad(t, `procedures:
  - name: First
    body:
      - call: {name: MsgBox, args: ["one"]}
  - name: Second
    body:
      - call: {name: MsgBox, args: ["two"]}
`)

	ctx, _ := newTestContext(t)

	assert.Equal(t, 1, emulate(ctx, prog, []string{"second"}))
	require.Len(t, ctx.actions, 1)
	assert.Equal(t, `"two"`, ctx.actions[0].description)
}

func TestMalformedStatementsLoadAsUnknown(t *testing.T) {

	var buf bytes.Buffer

	prog, err := loadProgram([]byte(`procedures:
  - name: Main
    body:
      - let: {value: 1}
      - bogus: {x: 1}
      - {dim: {vars: [x]}, let: {name: y, value: 2}}
      - Application.Quit
      - let: {name: ok, value: 1}
`), newLogger(&buf, logDebug))
	require.NoError(t, err)

	body := prog.procedures[0].body
	require.Len(t, body, 5)

	for _, s := range body[:4] {
		assert.Equal(t, kindUnknown, s.kind(), "statement %s", s)
	}

	assert.Equal(t, "Application.Quit", body[3].(*unknownStmt).text)
	assert.Contains(t, body[0].(*unknownStmt).text, "let")
	assert.Equal(t, kindLet, body[4].kind())
	assert.Contains(t, buf.String(), "Cannot load statement")
	assert.Contains(t, buf.String(), `unknown statement kind "bogus"`)
}

func TestBadIfPieceIsSkipped(t *testing.T) {

	var buf bytes.Buffer

	prog, err := loadProgram([]byte(`procedures:
  - name: Main
    body:
      - if:
          - cond: true
            body: [{call: A}]
          - {then: 1}
          - 42
          - else: [{call: B}]
`), newLogger(&buf, logDebug))
	require.NoError(t, err)

	s, ok := prog.procedures[0].body[0].(*ifStmt)
	require.True(t, ok)
	require.Len(t, s.pieces, 2)
	assert.NotNil(t, s.pieces[0].guard)
	assert.Nil(t, s.pieces[1].guard)
	assert.Contains(t, buf.String(), "If part has wrong shape")
}

func TestEveryStatementKindLoads(t *testing.T) {

	prog := mustLoad(t, `procedures:
  - name: Main
    body:
      - attribute: {name: VB_Name, value: Module1}
      - option: Explicit
      - dim: {vars: [a, {name: b, type: Byte, array: true}], init: 0}
      - global: {vars: [g]}
      - set: {name: o, value: {call: CreateObject, args: [WScript.Shell]}}
      - prop: {name: Visible, value: false}
      - foreach: {var: x, in: {var: list}, body: [{exit: for}]}
      - while: {cond: true, body: [{exit: do}]}
      - do: {cond: false, until: true}
      - select:
          value: {var: a}
          cases:
            - {values: [1, 2], body: [{call: A}]}
            - {range: [3, 9]}
            - {else: true}
      - ifmacro: [{cond: {var: Win64}, body: []}]
      - redim: {target: {var: arr}, preserve: true}
      - with: {object: ActiveDocument, body: [{let: {name: .Saved, value: true}}]}
      - open: {file: "c:\\x.exe", mode: Binary, access: Write, handle: 1}
      - print: {handle: 1, value: MZ}
      - declare: {name: URLDownloadToFileA, lib: urlmon, params: [a, b]}
      - goto: done
      - label: done
      - onerror: Resume Next
      - exit: sub
`)

	want := []stmtKind{kindAttribute, kindOption, kindDim, kindGlobalVar,
		kindLet, kindPropertyAssign, kindForEach, kindWhile, kindDo,
		kindSelect, kindIfMacro, kindRedim, kindWith, kindFileOpen, kindPrint,
		kindExternalFunction, kindGoto, kindLabel, kindOnError,
		kindExitFunction}

	body := prog.procedures[0].body
	require.Len(t, body, len(want))

	for i, s := range body {
		assert.Equal(t, want[i], s.kind(), "statement %d: %s", i, s)
	}

	dim := body[2].(*dimStmt)
	assert.Equal(t, varDecl{name: "b", declType: "Byte", isArray: true},
		dim.vars[1])
	assert.NotNil(t, dim.init)

	assert.True(t, body[4].(*letStmt).isSet)
	assert.True(t, body[8].(*doStmt).until)

	sel := body[9].(*selectStmt)
	require.Len(t, sel.cases, 3)
	assert.Equal(t, caseSet, sel.cases[0].kind)
	assert.Equal(t, caseRange, sel.cases[1].kind)
	assert.Equal(t, caseElse, sel.cases[2].kind)

	open := body[13].(*fileOpenStmt)
	assert.Equal(t, `c:\x.exe`, open.nameText)

	assert.Equal(t, "Exit Sub", body[19].(*exitFunctionStmt).keyword)
}

func TestProgramErrors(t *testing.T) {

	cases := map[string]string{
		"not yaml":        "procedures: [unclosed",
		"not a mapping":   "- a\n- b\n",
		"no proc name":    "procedures:\n  - body: []\n",
		"procs not list":  "procedures: Main\n",
		"bad kind":        "procedures:\n  - {name: M, kind: macro}\n",
		"params not list": "procedures:\n  - {name: M, params: a}\n",
		"empty":           "",
	}

	for name, src := range cases {
		var buf bytes.Buffer

		_, err := loadProgram([]byte(src), newLogger(&buf, logDebug))
		assert.Error(t, err, name)
	}
}

func TestLoadErrorCarriesPosition(t *testing.T) {

	var buf bytes.Buffer

	_, err := loadProgram([]byte("procedures:\n  - body: []\n"),
		newLogger(&buf, logDebug))

	var le *loadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 2, le.line)
	assert.Contains(t, err.Error(), "procedure has no name")
}

func TestSelfReferencingAliasIsALoadError(t *testing.T) {

	cases := map[string]string{
		"statement": "procedures:\n  - name: Loop\n" +
			"    body: &b [ {while: {cond: true, body: *b}} ]\n",
		"expression": "procedures:\n  - name: M\n    body:\n" +
			"      - let: {name: x, value: &e {not: *e}}\n",
	}

	for name, src := range cases {
		var buf bytes.Buffer

		_, err := loadProgram([]byte(src), newLogger(&buf, logError))

		var le *loadError
		require.ErrorAs(t, err, &le, name)
		assert.Contains(t, err.Error(), "nested more than", name)
	}
}

func TestAliasExpansionIsBounded(t *testing.T) {

	var sb strings.Builder

	sb.WriteString("declarations:\n  - &a0 {unknown: x}\n")

	for i := 1; i < 8; i++ {
		ref := fmt.Sprintf("*a%d", i-1)
		refs := strings.TrimSuffix(strings.Repeat(ref+", ", 8), ", ")
		fmt.Fprintf(&sb, "  - &a%d {while: {cond: true, body: [%s]}}\n", i,
			refs)
	}

	var buf bytes.Buffer

	_, err := loadProgram([]byte(sb.String()), newLogger(&buf, logError))

	var le *loadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), "statements and expressions")
}

func TestLoadProgramFile(t *testing.T) {

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")

	require.NoError(t, os.WriteFile(good, []byte(dropperProgram), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("procedures: 7\n"), 0o644))

	var buf bytes.Buffer
	log := newLogger(&buf, logDebug)

	prog, err := loadProgramFile(good, log)
	require.NoError(t, err)
	assert.Len(t, prog.procedures, 2)

	_, err = loadProgramFile(bad, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")

	_, err = loadProgramFile(filepath.Join(dir, "missing.yaml"), log)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func evalYAML(t *testing.T, ctx *Context, src string) any {

	t.Helper()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))

	var buf bytes.Buffer
	ld := &loader{log: newLogger(&buf, logDebug)}

	e, err := ld.expr(doc.Content[0])
	require.NoError(t, err)

	return evalArg(ctx, e)
}

func TestExpressionForms(t *testing.T) {

	ctx, _ := newTestContext(t)
	ctx.set("arr", []any{"x", "y"})
	ctx.set("n", 4)

	assert.Equal(t, 7, evalYAML(t, ctx, "7"))
	assert.Equal(t, 2.5, evalYAML(t, ctx, "2.5"))
	assert.Equal(t, "hi", evalYAML(t, ctx, "hi"))
	assert.Equal(t, "42", evalYAML(t, ctx, "{lit: '42'}"))
	assert.Nil(t, evalYAML(t, ctx, "null"))
	assert.Equal(t, 4, evalYAML(t, ctx, "{var: N}"))
	assert.Equal(t, "y", evalYAML(t, ctx, "{index: arr, args: [1]}"))
	assert.Equal(t, []any{1, "b"}, evalYAML(t, ctx, "[1, b]"))
	assert.Equal(t, []any{1, 2}, evalYAML(t, ctx, "{array: [1, 2]}"))
	assert.Equal(t, false, evalYAML(t, ctx, "{not: true}"))
	assert.Equal(t, -3, evalYAML(t, ctx, "{neg: 3}"))
	assert.Equal(t, -4, evalYAML(t, ctx, "{op: '-', args: [{var: n}]}"))
	assert.Equal(t, 5, evalYAML(t, ctx, "{op: '-', args: [10, 3, 2]}"))
	assert.Equal(t, "AB", evalYAML(t, ctx,
		"{op: '&', args: [{call: Chr$, args: [65]}, B]}"))
}
