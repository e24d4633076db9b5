package main

import (
	"fmt"
	"math"
	"strings"
)

//
// Expression nodes.  The loader builds these; the statement code only
// ever calls evalArg / tryEvalArg on them.  A failed evaluation is a
// runtime error, which unwinds to the statement boundary unless the
// caller used tryEvalArg
//

type expression interface {
	eval(ctx *Context) any
	String() string
}

type literalExpr struct {
	value any
}

type varExpr struct {
	name string
}

type unaryExpr struct {
	op  string
	arg expression
}

type binaryExpr struct {
	op    string
	left  expression
	right expression
}

//
// Name(args).  VBA uses the same syntax to call a function and to
// index an array, so the two share a node.  index only records which
// spelling the loader saw
//

type applyExpr struct {
	name  string
	args  []expression
	index bool
}

type arrayExpr struct {
	elems []expression
}

func evalArg(ctx *Context, e expression) any {

	if e == nil {
		return nil
	}

	return e.eval(ctx)
}

func tryEvalArg(ctx *Context, e expression) (v any, err error) {

	err = catchRuntimeError(func() {
		v = evalArg(ctx, e)
	})

	return v, err
}

func evalArgs(ctx *Context, list []expression) []any {

	vals := make([]any, len(list))

	for i, e := range list {
		vals[i] = evalArg(ctx, e)
	}

	return vals
}

func (e *literalExpr) eval(ctx *Context) any {

	return e.value
}

func (e *literalExpr) String() string {

	return reprValue(e.value)
}

//
// Reading a name that was never assigned gives Empty, as it does in VBA
// without Option Explicit.  A procedure named without parentheses is
// called with no arguments
//

func (e *varExpr) eval(ctx *Context) any {

	v, ok := ctx.get(e.name)
	if ok {
		if fn, isFn := v.(callable); isFn {
			return invokeCallable(ctx, e.name, fn, nil)
		}

		return v
	}

	if fn, ok := lookupBuiltin(e.name); ok {
		return invokeCallable(ctx, e.name, fn, nil)
	}

	ctx.log.debugf("Variable %q not set, using Empty", e.name)

	return nil
}

func (e *varExpr) String() string {

	return e.name
}

func (e *unaryExpr) eval(ctx *Context) any {

	v := evalArg(ctx, e.arg)

	switch strings.ToLower(e.op) {
	case "not":
		if n, ok := v.(int); ok {
			return ^n
		}

		return !isTruthy(v)

	case "-":
		n, ok := toNumber(v)
		runtimeCheck(ok, ETYPEMISMATCH, "cannot negate "+reprValue(v))

		if i, isInt := n.(int); isInt {
			return -i
		}

		return -n.(float64)
	}

	runtimeError(EBADOPERATOR, e.op)

	return nil
}

func (e *unaryExpr) String() string {

	if strings.EqualFold(e.op, "not") {
		return "Not " + exprString(e.arg)
	}

	return e.op + exprString(e.arg)
}

func (e *binaryExpr) eval(ctx *Context) any {

	lhs := evalArg(ctx, e.left)
	rhs := evalArg(ctx, e.right)

	return binaryOp(e.op, lhs, rhs)
}

func (e *binaryExpr) String() string {

	return fmt.Sprintf("(%s %s %s)", exprString(e.left), e.op,
		exprString(e.right))
}

func (e *arrayExpr) eval(ctx *Context) any {

	return evalArgs(ctx, e.elems)
}

func (e *arrayExpr) String() string {

	return "Array(" + exprListString(e.elems) + ")"
}

func (e *applyExpr) eval(ctx *Context) any {

	args := evalArgs(ctx, e.args)

	v, _ := ctx.get(e.name)

	switch v := v.(type) {
	case []any:
		return indexSeq(e.name, v, args)

	case string:
		return indexString(e.name, v, args)
	}

	recordMethodCall(ctx, e.name, args)

	if fn, ok := v.(callable); ok {
		return invokeCallable(ctx, e.name, fn, args)
	}

	if fn, ok := lookupBuiltin(e.name); ok {
		return invokeCallable(ctx, e.name, fn, args)
	}

	ret, ok := resolveCall(ctx, e.name, args)
	runtimeCheck(ok, EPROCNOTFOUND, e.name)

	return ret
}

func (e *applyExpr) String() string {

	return fmt.Sprintf("%s(%s)", e.name, exprListString(e.args))
}

func indexSeq(name string, seq []any, args []any) any {

	runtimeCheck(len(args) == 1, EBADARGCOUNT, name)

	i, ok := toInteger(args[0])
	runtimeCheck(ok && i >= 0 && i < len(seq), EBADINDEX, args[0], name)

	return seq[i]
}

func indexString(name string, s string, args []any) any {

	runes := []rune(s)

	runtimeCheck(len(args) == 1, EBADARGCOUNT, name)

	i, ok := toInteger(args[0])
	runtimeCheck(ok && i >= 0 && i < len(runes), EBADINDEX, args[0], name)

	return string(runes[i])
}

//
// The binary operators.  Numbers keep to int as long as both sides are
// int and the operator does not need fractions
//

func binaryOp(op string, lhs, rhs any) any {

	switch strings.ToLower(op) {
	case "&":
		return formatValue(lhs) + formatValue(rhs)

	case "+":
		ls, lok := lhs.(string)
		rs, rok := rhs.(string)

		if lok && rok {
			return ls + rs
		}

		return arith(op, lhs, rhs)

	case "-", "*", "/", "\\", "mod", "^":
		return arith(op, lhs, rhs)

	case "=":
		return valuesEqual(lhs, rhs)

	case "<>":
		return !valuesEqual(lhs, rhs)

	case "<":
		return compareValues(lhs, rhs) < 0

	case "<=":
		return compareValues(lhs, rhs) <= 0

	case ">":
		return compareValues(lhs, rhs) > 0

	case ">=":
		return compareValues(lhs, rhs) >= 0

	case "and", "or", "xor":
		return logical(op, lhs, rhs)
	}

	runtimeError(EBADOPERATOR, op)

	return nil
}

func arith(op string, lhs, rhs any) any {

	ln, lok := toNumber(lhs)
	rn, rok := toNumber(rhs)

	runtimeCheck(lok && rok, ETYPEMISMATCH,
		fmt.Sprintf("%s %s %s", reprValue(lhs), op, reprValue(rhs)))

	li, lint := ln.(int)
	ri, rint := rn.(int)

	if lint && rint {
		switch strings.ToLower(op) {
		case "+":
			return li + ri
		case "-":
			return li - ri
		case "*":
			return li * ri
		case "\\":
			runtimeCheck(ri != 0, EDIVISIONBYZERO)
			return li / ri
		case "mod":
			runtimeCheck(ri != 0, EDIVISIONBYZERO)
			return li % ri
		}
	}

	lf := numberToFloat(ln)
	rf := numberToFloat(rn)

	switch strings.ToLower(op) {
	case "+":
		return lf + rf
	case "-":
		return lf - rf
	case "*":
		return lf * rf
	case "/":
		runtimeCheck(rf != 0, EDIVISIONBYZERO)
		return lf / rf
	case "\\":
		runtimeCheck(int(rf) != 0, EDIVISIONBYZERO)
		return int(lf) / int(rf)
	case "mod":
		runtimeCheck(int(rf) != 0, EDIVISIONBYZERO)
		return int(lf) % int(rf)
	case "^":
		return math.Pow(lf, rf)
	}

	runtimeError(EBADOPERATOR, op)

	return nil
}

//
// And/Or/Xor are bitwise on integers and logical on everything else
//

func logical(op string, lhs, rhs any) any {

	li, lint := lhs.(int)
	ri, rint := rhs.(int)

	if lint && rint {
		switch strings.ToLower(op) {
		case "and":
			return li & ri
		case "or":
			return li | ri
		default:
			return li ^ ri
		}
	}

	lb := isTruthy(lhs)
	rb := isTruthy(rhs)

	switch strings.ToLower(op) {
	case "and":
		return lb && rb
	case "or":
		return lb || rb
	default:
		return lb != rb
	}
}
