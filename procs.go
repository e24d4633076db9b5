package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

//
// Anything a Call statement or a call expression can invoke
//

type callable interface {
	invoke(ctx *Context, args []any) any
}

//
// A user Sub or Function
//

type procedure struct {
	loc        srcSpan
	name       string
	isFunction bool
	params     []string
	body       []statement
}

//
// A Declare'd DLL function.  lib is normalized when the declaration is
// evaluated: quotes gone, lower case, .dll added when there is no
// extension
//

type externalFunction struct {
	name   string
	lib    string
	alias  string
	params []string
}

func (p *procedure) String() string {

	kind := "Sub"
	if p.isFunction {
		kind = "Function"
	}

	return fmt.Sprintf("%s %s(%s)", kind, p.name, strings.Join(p.params, ", "))
}

func (f *externalFunction) String() string {

	return fmt.Sprintf("External Function %s from %s", f.name, f.lib)
}

//
// Run a procedure body in its own frame.  Parameters bind by position;
// missing ones are Empty.  A Function's value is whatever was last
// assigned to its own name
//

func (p *procedure) invoke(ctx *Context, args []any) any {

	ctx.pushFrame()
	defer ctx.popFrame()

	for i, param := range p.params {
		var v any

		if i < len(args) {
			v = args[i]
		}

		ctx.declare(param, v, "", false)
	}

	if p.isFunction {
		ctx.declare(p.name, nil, "", false)
	}

	executeBlock(ctx, p.body)

	ctx.exitFunc = false

	if !p.isFunction {
		return nil
	}

	if sym := ctx.currentFrame()[symKey(p.name)]; sym != nil {
		return sym.value
	}

	return nil
}

func argAt(args []any, i int) any {

	if i < len(args) {
		return args[i]
	}

	return nil
}

//
// The two DLL entry points droppers reach for.  Anything else is only
// logged
//

func (f *externalFunction) invoke(ctx *Context, params []any) any {

	fname := f.name
	if f.alias != "" {
		fname = f.alias
	}

	fname = strings.ToLower(fname)
	source := fmt.Sprintf("External Function: %s / %s", f.lib, f.aliasOrName())

	if f.lib == "urlmon.dll" && strings.HasPrefix(fname, "urldownloadtofile") {
		ctx.reportAction(actDownloadURL, formatValue(argAt(params, 1)), source)
		ctx.reportAction(actWriteFile, formatValue(argAt(params, 2)), source)

		return 0
	}

	if strings.HasPrefix(fname, "shellexecute") {
		cmd := formatValue(argAt(params, 2)) + formatValue(argAt(params, 3))

		ctx.reportAction(actRunCommand, cmd, f.name)

		return 0
	}

	ctx.log.errorf(EUNKNOWNEXTERN, f.name, f.lib)

	return nil
}

func (f *externalFunction) aliasOrName() string {

	if f.alias != "" {
		return f.alias
	}

	return f.name
}

func normalizeLibName(lib string) string {

	lib = strings.ToLower(stripQuotes(lib))

	if filepath.Ext(lib) == "" {
		lib += ".dll"
	}

	return lib
}

func stripQuotes(s string) string {

	return strings.NewReplacer(`"`, "", "'", "").Replace(strings.TrimSpace(s))
}

//
// Every invocation goes through here so the call depth is bounded.
// Hitting the bound raises one error and then unwinds the whole call
// chain: until the depth is back to 0 no further call is made and
// every block stops early, the same as a pending Exit
//

func invokeCallable(ctx *Context, name string, fn callable, args []any) any {

	if ctx.unwinding {
		return nil
	}

	if ctx.callDepth >= callDepthMax {
		ctx.unwinding = true
		runtimeError(ECALLDEPTH, name)
	}

	ctx.callDepth++
	defer func() {
		ctx.callDepth--

		if ctx.callDepth == 0 {
			ctx.unwinding = false
		}
	}()

	return fn.invoke(ctx, args)
}

//
// Find something invocable by name: a procedure or declared function
// in the Context first, then the built in library.  A variable of the
// same name does not count, which matters inside a Function, where the
// function's own name is also its result variable
//

func (ctx *Context) lookupCallable(name string) (callable, bool) {

	key := symKey(ctx.resolveName(name))

	for _, scope := range []frame{ctx.currentFrame(), ctx.globals} {
		if sym := scope[key]; sym != nil {
			if fn, ok := sym.value.(callable); ok {
				return fn, true
			}
		}
	}

	return lookupBuiltin(name)
}

//
// Run a program: module declarations first, then the entry points.
// With no entry point present, every procedure runs once in
// declaration order.  Returns the number of procedures run
//

func emulate(ctx *Context, prog *program, entries []string) int {

	for _, p := range prog.procedures {
		ctx.declare(p.name, p, "", true)
	}

	executeBlock(ctx, prog.declarations)

	if len(entries) == 0 {
		entries = autoExecNames
	}

	var toRun []*procedure

	for _, name := range entries {
		if p := prog.findProcedure(name); p != nil {
			toRun = append(toRun, p)
		}
	}

	if len(toRun) == 0 {
		ctx.log.infof("No entry point found, running all %d procedures",
			len(prog.procedures))
		toRun = prog.procedures
	}

	for _, p := range toRun {
		ctx.log.infof("Emulating %s", p)
		runEntryPoint(ctx, p)
	}

	return len(toRun)
}

//
// An entry point gets the same protection a statement does: whatever
// goes wrong inside it is logged and the run moves on
//

func runEntryPoint(ctx *Context, p *procedure) {

	defer func() {
		if e := recover(); e != nil {
			ctx.recoverFault(nil, e)
		}
	}()

	ctx.loopStack = nil
	ctx.withPrefix = ""
	ctx.exitFunc = false
	ctx.unwinding = false

	invokeCallable(ctx, p.name, p, nil)
}

func (prog *program) findProcedure(name string) *procedure {

	for _, p := range prog.procedures {
		if strings.EqualFold(p.name, name) {
			return p
		}
	}

	return nil
}
