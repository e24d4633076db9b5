package main

import (
	"strings"
)

//
// Call statements.  Resolution runs through a fixed chain: MsgBox is
// intercepted, dotted names are recorded as object method calls, then
// the name is looked up as written, then normalized, then Run /
// Application.Run get a chance to call indirectly.  A name that
// survives all of that is logged and the call does nothing
//

func executeCall(ctx *Context, s *callStmt) {

	args := evalArgs(ctx, s.args)

	ctx.log.infof("Calling Procedure: %s(%s)", s.name,
		truncate(reprArgs(args), maxLogArgLen))

	if _, ok := callProcedure(ctx, s.name, args); !ok {
		ctx.log.errorf(EPROCNOTFOUND, s.name)
	}
}

//
// The bool is false when nothing could be found to call.  The caller
// decides whether that is worth a runtime error
//

func callProcedure(ctx *Context, name string, args []any) (any, bool) {

	recordMethodCall(ctx, name, args)

	return resolveCall(ctx, name, args)
}

//
// A dotted name is a method of some object, which we do not model, so
// the call is recorded whether or not anything answers to it
//

func recordMethodCall(ctx *Context, name string, args []any) {

	if !strings.Contains(name, ".") {
		return
	}

	recorded := args

	if hasSuffixFold(name, ".Write") {
		recorded = stripNulArgs(args)
	}

	ctx.reportAction(actMethodCall, reprArgs(recorded), name)
}

func resolveCall(ctx *Context, name string, args []any) (any, bool) {

	if strings.EqualFold(name, "MsgBox") {
		ctx.reportAction(actDisplayMessage, reprValue(argAt(args, 0)), "MsgBox")

		return msgBoxOK, true
	}

	if fn, ok := ctx.lookupCallable(name); ok {
		return invokeCallable(ctx, name, fn, args), true
	}

	if norm := normalizeProcName(name); norm != name {
		if fn, ok := ctx.lookupCallable(norm); ok {
			return invokeCallable(ctx, norm, fn, args), true
		}
	}

	if strings.EqualFold(name, "Application.Run") ||
		strings.EqualFold(name, "Run") {
		if target, ok := argAt(args, 0).(string); ok {
			ctx.log.infof("Run(%q) indirect call", target)

			if fn, ok := ctx.lookupCallable(target); ok {
				return invokeCallable(ctx, target, fn, args[1:]), true
			}
		}
	}

	return nil, false
}

//
// Strip the decorations obfuscators hang on procedure names: type
// suffix '$', the VBA. and Math. qualifiers, brackets and quotes.
// Whatever follows the last remaining dot is the name
//

var procNameReplacer = strings.NewReplacer("$", "", "VBA.", "", "Math.", "",
	"[", "", "]", "", "'", "", `"`, "")

func normalizeProcName(name string) string {

	name = procNameReplacer.Replace(name)

	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	return name
}

func hasSuffixFold(s, suffix string) bool {

	return len(s) >= len(suffix) &&
		strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

//
// Stream writes carry NUL padding from wide strings.  The logged copy
// drops it; the arguments passed on are untouched
//

func stripNulArgs(args []any) []any {

	out := make([]any, len(args))

	for i, a := range args {
		if s, ok := a.(string); ok {
			a = strings.ReplaceAll(s, "\x00", "")
		}

		out[i] = a
	}

	return out
}

func reprArgs(args []any) string {

	return reprValue(args)
}
