package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/goforj/godump"
)

//
// Run one statement.  This is the fail-soft boundary: whatever goes
// wrong while the statement runs, be it a runtime error raised on
// purpose or a Go runtime fault on hostile input, is logged against
// the statement and the statement becomes a no-op.  Loops and With
// blocks restore their own state with defers on the way out
//

func executeStmt(ctx *Context, stmt statement) {

	defer func() {
		if e := recover(); e != nil {
			ctx.recoverFault(stmt, e)
		}
	}()

	ctx.stats.numStatements++

	if ctx.cfg.TraceExec {
		ctx.traceStmt(stmt)
	}

	switch s := stmt.(type) {
	default:
		runtimeError(EENGINEFAULT, fmt.Sprintf("unexpected statement %T", stmt))

	case *unknownStmt:
		ctx.log.debugf("Unknown statement %q not emulated", s.text)

	case *attributeStmt, *optionStmt:
		ctx.log.debugf("%s ignored", s)

	case *dimStmt:
		declareVars(ctx, s.vars, s.init, false)

	case *globalVarStmt:
		declareVars(ctx, s.vars, s.init, true)

	case *letStmt:
		executeLet(ctx, s)

	case *propAssignStmt:
		executePropAssign(ctx, s)

	case *forStmt:
		executeFor(ctx, s)

	case *forEachStmt:
		executeForEach(ctx, s)

	case *whileStmt:
		executeWhile(ctx, s)

	case *doStmt:
		executeDo(ctx, s)

	case *selectStmt:
		executeSelect(ctx, s)

	case *ifStmt:
		executeIf(ctx, s)

	case *ifMacroStmt:
		executeIfMacro(ctx, s)

	case *callStmt:
		executeCall(ctx, s)

	case *exitForStmt:
		executeExitLoop(ctx, "Exit For")

	case *exitWhileStmt:
		executeExitLoop(ctx, "Exit Do")

	case *exitFunctionStmt:
		ctx.exitFunc = true

	case *redimStmt, *gotoStmt, *labelStmt, *onErrorStmt:
		ctx.log.debugf("%s not emulated", s)

	case *withStmt:
		executeWith(ctx, s)

	case *fileOpenStmt:
		executeOpen(ctx, s)

	case *printStmt:
		executePrint(ctx, s)

	case *externalFuncStmt:
		executeDeclare(ctx, s)
	}
}

//
// Run a list of statements.  A pending Exit (loop or procedure) skips
// the rest of the list; the loop or procedure that owns the exit
// takes it from there
//

func executeBlock(ctx *Context, body []statement) {

	for _, stmt := range body {
		if ctx.exitPending() {
			return
		}

		executeStmt(ctx, stmt)
	}
}

//
// Log a fault caught at a statement boundary.  stmt is nil when the
// fault escaped a whole entry point
//

func (ctx *Context) recoverFault(stmt statement, e any) {

	var msg string
	var code int16

	switch e := e.(type) {
	case *runtimeErrorInfo:
		msg = e.msg
		code = e.code

	default:
		msg = fmt.Sprintf(EENGINEFAULT, e)
		code = getErrorNo(EENGINEFAULT)

		if ctx.log.enabled(logDebug) {
			ctx.log.debugf("%s", debug.Stack())
		}
	}

	ctx.stats.numErrors++
	ctx.stats.errorsByCode[code]++

	if stmt == nil {
		ctx.log.errorf("error %d: %s", code, msg)
		return
	}

	ctx.log.errorf("%s: error %d: %s (%s)", stmt.span(), code, msg,
		truncate(stmt.String(), maxLogArgLen))
}

func (ctx *Context) traceStmt(stmt statement) {

	ctx.log.tracef("[%d:%d] %s\n", stmt.span().line, stmt.span().column,
		stmt)

	if ctx.cfg.TraceDump {
		godump.Dump(stmt)
	}
}

//
// Dim, Global, Public, Private.  Every variable starts from the shared
// initializer (Empty string when there is none), the zero value of its
// declared type replaces that, and its own initializer replaces both.
// Arrays start empty and get the type "<T> Array"
//

func declareVars(ctx *Context, vars []varDecl, sharedInit expression,
	global bool) {

	var initVal any = ""

	if sharedInit != nil {
		v, err := tryEvalArg(ctx, sharedInit)
		if err != nil {
			ctx.log.warnf("Dim initializer %s: %v", exprString(sharedInit), err)
		} else {
			initVal = v
		}
	}

	for _, v := range vars {
		value := initVal
		vType := v.declType

		if z, ok := zeroValue(vType); ok {
			value = z
		}

		if v.isArray {
			if vType != "" {
				vType += arraySuffix
			}

			value = []any{}
		}

		if v.init != nil {
			value = evalArg(ctx, v.init)
		}

		ctx.declare(v.name, value, vType, global)
	}
}

func zeroValue(vType string) (any, bool) {

	for _, t := range zeroTypes {
		if strings.EqualFold(vType, t) {
			return 0, true
		}
	}

	switch {
	case strings.EqualFold(vType, typeString):
		return "", true

	case strings.EqualFold(vType, "Boolean"):
		return false, true
	}

	return nil, false
}

//
// With obj ... End With.  Names with a leading dot inside the block
// resolve against obj
//

func executeWith(ctx *Context, s *withStmt) {

	saved := ctx.enterWith(s.env)
	defer ctx.leaveWith(saved)

	executeBlock(ctx, s.body)
}

//
// Open name For mode As #n.  A file name that will not evaluate is
// recorded as written
//

func executeOpen(ctx *Context, s *fileOpenStmt) {

	name := s.nameText

	if v, err := tryEvalArg(ctx, s.name); err == nil {
		name = formatValue(v)
	} else {
		ctx.log.debugf("Open file name %s: %v", s.nameText, err)
	}

	handle := fileHandle(evalArg(ctx, s.handle))

	ctx.openFile(handle, name, s.mode, s.access)

	ctx.log.infof("Opened file %q as #%d for %s", name, handle, s.mode)
}

//
// Print #n, data.  Strings append one byte value per character, arrays
// are appended as they are
//

func executePrint(ctx *Context, s *printStmt) {

	handle := fileHandle(evalArg(ctx, s.handle))
	data := evalArg(ctx, s.value)

	of := ctx.lookupFile(handle)
	runtimeCheck(of != nil, EFILENOTOPEN, handle)

	switch data := data.(type) {
	case string:
		for _, r := range data {
			of.contents = append(of.contents, int(r))
		}

	case []any:
		of.contents = append(of.contents, data...)

	default:
		ctx.log.errorf(EUNHANDLEDPRINT, data)
	}
}

//
// Declare Function ... Lib.  Evaluating the declaration makes the
// function callable by name
//

func executeDeclare(ctx *Context, s *externalFuncStmt) {

	ext := &externalFunction{
		name:   s.name,
		lib:    normalizeLibName(s.lib),
		alias:  stripQuotes(s.alias),
		params: s.params,
	}

	ctx.declare(s.name, ext, "", true)

	ctx.log.debugf("Declared %s", ext)
}
