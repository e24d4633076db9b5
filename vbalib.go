package main

import (
	"math"
	"strings"
	"unicode/utf8"
)

//
// The VBA library functions obfuscated macros lean on to build their
// strings.  Names are matched after normalization, so Chr, Chr$,
// VBA.Chr and [Chr] are all the same function
//

type builtinFunc func(ctx *Context, args []any) any

func (f builtinFunc) invoke(ctx *Context, args []any) any {

	return f(ctx, args)
}

var builtins map[string]builtinFunc

func init() {

	builtins = map[string]builtinFunc{
		"chr":          bifChr,
		"chrw":         bifChr,
		"chrb":         bifChr,
		"asc":          bifAsc,
		"ascw":         bifAsc,
		"ascb":         bifAsc,
		"len":          bifLen,
		"mid":          bifMid,
		"left":         bifLeft,
		"right":        bifRight,
		"ucase":        bifUCase,
		"lcase":        bifLCase,
		"trim":         bifTrim,
		"strreverse":   bifStrReverse,
		"replace":      bifReplace,
		"split":        bifSplit,
		"join":         bifJoin,
		"cstr":         bifCStr,
		"cint":         bifCInt,
		"clng":         bifCInt,
		"array":        bifArray,
		"shell":        bifShell,
		"createobject": bifCreateObject,
	}
}

func lookupBuiltin(name string) (callable, bool) {

	fn, ok := builtins[strings.ToLower(normalizeProcName(name))]
	if !ok {
		return nil, false
	}

	return fn, true
}

func checkArgs(name string, args []any, min, max int) {

	runtimeCheck(len(args) >= min && len(args) <= max, EBADARGCOUNT, name)
}

func intArg(name string, v any) int {

	n, ok := truncInteger(v)
	runtimeCheck(ok, ETYPEMISMATCH, name+" argument "+reprValue(v))

	return n
}

func bifChr(ctx *Context, args []any) any {

	checkArgs("Chr", args, 1, 1)

	n := intArg("Chr", args[0])
	runtimeCheck(n >= 0 && utf8.ValidRune(rune(n)) && n == int(rune(n)),
		EBADCHAR, n)

	return string(rune(n))
}

func bifAsc(ctx *Context, args []any) any {

	checkArgs("Asc", args, 1, 1)

	s := formatValue(args[0])
	runtimeCheck(s != "", ETYPEMISMATCH, "Asc of empty string")

	r, _ := utf8.DecodeRuneInString(s)

	return int(r)
}

func bifLen(ctx *Context, args []any) any {

	checkArgs("Len", args, 1, 1)

	if seq, ok := args[0].([]any); ok {
		return len(seq)
	}

	return utf8.RuneCountInString(formatValue(args[0]))
}

//
// Mid(s, start[, length]).  start counts from 1
//

func bifMid(ctx *Context, args []any) any {

	checkArgs("Mid", args, 2, 3)

	runes := []rune(formatValue(args[0]))

	start := intArg("Mid", args[1])
	runtimeCheck(start >= 1, EBADINDEX, start, "Mid")

	if start > len(runes) {
		return ""
	}

	end := len(runes)

	if len(args) == 3 {
		n := intArg("Mid", args[2])
		runtimeCheck(n >= 0, EBADINDEX, n, "Mid")

		if start-1+n < end {
			end = start - 1 + n
		}
	}

	return string(runes[start-1 : end])
}

func bifLeft(ctx *Context, args []any) any {

	checkArgs("Left", args, 2, 2)

	runes := []rune(formatValue(args[0]))
	n := intArg("Left", args[1])
	runtimeCheck(n >= 0, EBADINDEX, n, "Left")

	if n > len(runes) {
		n = len(runes)
	}

	return string(runes[:n])
}

func bifRight(ctx *Context, args []any) any {

	checkArgs("Right", args, 2, 2)

	runes := []rune(formatValue(args[0]))
	n := intArg("Right", args[1])
	runtimeCheck(n >= 0, EBADINDEX, n, "Right")

	if n > len(runes) {
		n = len(runes)
	}

	return string(runes[len(runes)-n:])
}

func bifUCase(ctx *Context, args []any) any {

	checkArgs("UCase", args, 1, 1)

	return strings.ToUpper(formatValue(args[0]))
}

func bifLCase(ctx *Context, args []any) any {

	checkArgs("LCase", args, 1, 1)

	return strings.ToLower(formatValue(args[0]))
}

func bifTrim(ctx *Context, args []any) any {

	checkArgs("Trim", args, 1, 1)

	return strings.Trim(formatValue(args[0]), " ")
}

func bifStrReverse(ctx *Context, args []any) any {

	checkArgs("StrReverse", args, 1, 1)

	runes := []rune(formatValue(args[0]))

	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}

	return string(runes)
}

func bifReplace(ctx *Context, args []any) any {

	checkArgs("Replace", args, 3, 3)

	find := formatValue(args[1])
	if find == "" {
		return formatValue(args[0])
	}

	return strings.ReplaceAll(formatValue(args[0]), find,
		formatValue(args[2]))
}

func bifSplit(ctx *Context, args []any) any {

	checkArgs("Split", args, 1, 2)

	sep := " "
	if len(args) == 2 {
		sep = formatValue(args[1])
	}

	var parts []string

	if sep == "" {
		parts = []string{formatValue(args[0])}
	} else {
		parts = strings.Split(formatValue(args[0]), sep)
	}

	out := make([]any, len(parts))

	for i, p := range parts {
		out[i] = p
	}

	return out
}

func bifJoin(ctx *Context, args []any) any {

	checkArgs("Join", args, 1, 2)

	seq, ok := args[0].([]any)
	runtimeCheck(ok, ETYPEMISMATCH, "Join of "+reprValue(args[0]))

	sep := " "
	if len(args) == 2 {
		sep = formatValue(args[1])
	}

	parts := make([]string, len(seq))

	for i, item := range seq {
		parts[i] = formatValue(item)
	}

	return strings.Join(parts, sep)
}

func bifCStr(ctx *Context, args []any) any {

	checkArgs("CStr", args, 1, 1)

	return formatValue(args[0])
}

func bifCInt(ctx *Context, args []any) any {

	checkArgs("CInt", args, 1, 1)

	n, ok := toNumber(args[0])
	runtimeCheck(ok, ETYPEMISMATCH, "CInt of "+reprValue(args[0]))

	if i, isInt := n.(int); isInt {
		return i
	}

	// VBA rounds halves to even here

	return intArg("CInt", math.RoundToEven(n.(float64)))
}

func bifArray(ctx *Context, args []any) any {

	out := make([]any, len(args))
	copy(out, args)

	return out
}

//
// Shell and CreateObject touch the outside world, so they only report
//

func bifShell(ctx *Context, args []any) any {

	checkArgs("Shell", args, 1, 2)

	ctx.reportAction(actExecuteCommand, formatValue(args[0]), "Shell")

	return 0
}

func bifCreateObject(ctx *Context, args []any) any {

	checkArgs("CreateObject", args, 1, 2)

	ctx.reportAction(actCreateObject, formatValue(args[0]), "CreateObject")

	return formatValue(args[0])
}
