package main

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// VBA names are case insensitive, so every map here is keyed by the
// lower cased name.  Each symbol also remembers the name as it was
// first written, which is what traces and the REPL print.
//
// There is one global frame, plus a stack of local frames, one per
// procedure activation.  Lookups try the innermost local frame, then
// the globals.  Declared types live in the symbol itself
//

//
// Create a pristine context
//

func newContext(cfg config, w io.Writer) *Context {

	level, ok := parseLogLevel(cfg.LogLevel)
	if !ok {
		level = logWarn
	}

	ctx := &Context{
		globals:    make(frame),
		tracedVars: make(map[string]bool),
		cfg:        cfg,
		log:        newLogger(w, level),
	}

	ctx.initFileTable()

	ctx.stats.elapsed = time.Now()
	ctx.stats.errorsByCode = make(map[int16]int64)

	return ctx
}

func symKey(name string) string {

	return strings.ToLower(name)
}

//
// A name with a leading dot is a member of the object named by the
// enclosing With blocks
//

func (ctx *Context) resolveName(name string) string {

	if !strings.HasPrefix(name, ".") {
		return name
	}

	if ctx.withPrefix == "" {
		return name[1:]
	}

	return ctx.withPrefix + name
}

func (ctx *Context) currentFrame() frame {

	if len(ctx.frames) == 0 {
		return nil
	}

	return ctx.frames[len(ctx.frames)-1]
}

func (ctx *Context) lookupSymbol(name string) *symtabNode {

	key := symKey(ctx.resolveName(name))

	if local := ctx.currentFrame(); local != nil {
		if sym, ok := local[key]; ok {
			return sym
		}
	}

	return ctx.globals[key]
}

//
// Fetch a variable.  The bool is false when nothing by that name exists
//

func (ctx *Context) get(name string) (any, bool) {

	sym := ctx.lookupSymbol(name)
	if sym == nil {
		return nil, false
	}

	return sym.value, true
}

//
// The declared type of a variable, or "" if it has none
//

func (ctx *Context) getType(name string) string {

	sym := ctx.lookupSymbol(name)
	if sym == nil {
		return ""
	}

	return sym.vType
}

//
// Upsert a variable.  An existing variable is updated wherever it
// lives; a new one goes in the innermost scope.  The optional type
// hint replaces the declared type
//

func (ctx *Context) set(name string, value any, typeHint ...string) {

	sym := ctx.lookupSymbol(name)

	if sym == nil {
		scope := ctx.currentFrame()
		if scope == nil {
			scope = ctx.globals
		}

		resolved := ctx.resolveName(name)
		sym = &symtabNode{name: resolved}
		scope[symKey(resolved)] = sym
	}

	if len(typeHint) > 0 {
		sym.vType = typeHint[0]
	}

	ctx.traceVar(sym.name, sym.value, value)

	sym.value = value
}

//
// Dim and friends always create the variable in the requested scope,
// shadowing anything of the same name further out
//

func (ctx *Context) declare(name string, value any, vType string, global bool) {

	scope := ctx.currentFrame()
	if global || scope == nil {
		scope = ctx.globals
	}

	key := symKey(name)

	sym, ok := scope[key]
	if !ok {
		sym = &symtabNode{name: name}
		scope[key] = sym
	}

	sym.vType = vType

	ctx.traceVar(sym.name, sym.value, value)

	sym.value = value
}

func (ctx *Context) pushFrame() {

	ctx.frames = append(ctx.frames, make(frame))
}

func (ctx *Context) popFrame() {

	if len(ctx.frames) > 0 {
		ctx.frames = ctx.frames[:len(ctx.frames)-1]
	}
}

//
// Return the symbols visible at top level, in no particular order.
// The REPL sorts them
//

func (ctx *Context) globalSymbols() []*symtabNode {

	syms := make([]*symtabNode, 0, len(ctx.globals))

	for _, sym := range ctx.globals {
		syms = append(syms, sym)
	}

	return syms
}

//
// The loop-exit stack.  Each active loop owns one entry, true while it
// should keep going.  Exit For / Exit Do flip the top entry
//

func (ctx *Context) pushLoop() {

	ctx.loopStack = append(ctx.loopStack, true)
}

func (ctx *Context) popLoop() {

	if len(ctx.loopStack) > 0 {
		ctx.loopStack = ctx.loopStack[:len(ctx.loopStack)-1]
	}
}

func (ctx *Context) loopRunning() bool {

	return len(ctx.loopStack) > 0 && ctx.loopStack[len(ctx.loopStack)-1]
}

//
// True when a pending Exit For / Exit Do or Exit Function, or a call
// chain unwinding from the depth limit, means the rest of the current
// block must be skipped
//

func (ctx *Context) exitPending() bool {

	if ctx.exitFunc || ctx.unwinding {
		return true
	}

	return len(ctx.loopStack) > 0 && !ctx.loopStack[len(ctx.loopStack)-1]
}

//
// With blocks.  The prefix is the dotted path of the objects named by
// the enclosing With statements; enterWith returns what leaveWith
// needs to put it back
//

func (ctx *Context) enterWith(env string) string {

	saved := ctx.withPrefix

	env = strings.TrimPrefix(env, ".")

	if ctx.withPrefix == "" {
		ctx.withPrefix = env
	} else {
		ctx.withPrefix += "." + env
	}

	return saved
}

func (ctx *Context) leaveWith(saved string) {

	ctx.withPrefix = saved
}

//
// Record something the macro would have done to the outside world
//

func (ctx *Context) reportAction(category, description, source string) {

	ctx.actions = append(ctx.actions, action{category: category,
		description: description, source: source})

	ctx.log.infof("ACTION: %s - params %s - %s", category,
		truncate(description, maxLogArgLen), source)
}

func (ctx *Context) traceVar(name string, oval, nval any) {

	if ctx.cfg.TraceVars || ctx.tracedVars[symKey(name)] {
		ctx.log.tracef("Variable %s changed from %s to %s\n", name,
			reprValue(oval), reprValue(nval))
	}
}

func (ctx *Context) setTraceVar(name string, on bool) {

	if on {
		ctx.tracedVars[symKey(name)] = true
	} else {
		delete(ctx.tracedVars, symKey(name))
	}
}

func (sym *symtabNode) String() string {

	if sym.vType == "" {
		return fmt.Sprintf("%s = %s", sym.name, reprValue(sym.value))
	}

	return fmt.Sprintf("%s As %s = %s", sym.name, sym.vType,
		reprValue(sym.value))
}
