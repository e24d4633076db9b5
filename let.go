package main

import (
	"strings"
	"unicode/utf8"
)

//
// Let and Set.  A plain assignment passes the value through the
// declared-type coercions first.  An indexed assignment splices the
// value into an array or string, growing it as needed
//

func executeLet(ctx *Context, s *letStmt) {

	value := evalArg(ctx, s.value)

	if s.index == nil {
		ctx.set(s.name, coerceForAssign(ctx, s.name, value))
		return
	}

	iv := evalArg(ctx, s.index)

	idx, ok := truncInteger(iv)
	runtimeCheck(ok && idx >= 0 && idx < maxArrayLen, EBADINDEX,
		reprValue(iv), s.name)

	cur, found := ctx.get(s.name)
	if !found {
		ctx.log.warnf(EARRAYNOTFOUND, s.name)
	}

	switch cur := cur.(type) {
	case []any:
		ctx.set(s.name, spliceSeq(cur, idx, value))

	case string:
		str, ok := spliceString(cur, idx, value)
		if !ok {
			ctx.log.errorf(EUNHANDLEDVALUE, value, s.name)
			return
		}

		ctx.set(s.name, str)

	default:
		ctx.set(s.name, spliceSeq(nil, idx, value))
	}
}

//
// Property assignment inside a With block.  Objects are not modelled
//

func executePropAssign(ctx *Context, s *propAssignStmt) {

	ctx.log.debugf("Property assignment %s ignored", s)
}

//
// Conversions applied when a value is stored in a typed variable
//

func coerceForAssign(ctx *Context, name string, value any) any {

	vType := ctx.getType(name)

	switch {
	case strings.EqualFold(vType, typeByteArray):
		if s, ok := value.(string); ok {
			return stringToByteArray(s)
		}

	case strings.EqualFold(vType, typeString):
		if seq, ok := value.([]any); ok {
			if s, ok := byteArrayToString(seq); ok {
				return s
			}
		}
	}

	return value
}

//
// Each character becomes its low byte followed by a zero byte, the
// layout of a UTF-16LE string with only Latin-1 in it
//

func stringToByteArray(s string) []any {

	out := make([]any, 0, 2*len(s))

	for _, r := range s {
		out = append(out, int(r&0xff), 0)
	}

	return out
}

//
// The inverse, tried two ways.  An array of integers is read as
// character codes at the even positions.  Failing that, an array of
// single characters (Empty allowed) is concatenated.  Anything else
// is not a string
//

func byteArrayToString(seq []any) (string, bool) {

	if s, ok := decodeWideBytes(seq); ok {
		return s, true
	}

	var sb strings.Builder

	for _, item := range seq {
		switch item := item.(type) {
		case nil:
			// skipped

		case string:
			if utf8.RuneCountInString(item) != 1 {
				return "", false
			}

			sb.WriteString(item)

		default:
			return "", false
		}
	}

	return sb.String(), true
}

func decodeWideBytes(seq []any) (string, bool) {

	for _, item := range seq {
		if _, ok := item.(int); !ok {
			return "", false
		}
	}

	var sb strings.Builder

	for i := 0; i < len(seq); i += 2 {
		v := seq[i].(int)
		r := rune(v)
		if v != int(r) || !utf8.ValidRune(r) {
			return "", false
		}

		sb.WriteRune(r)
	}

	return sb.String(), true
}

//
// Return a copy of seq with value at idx, zero filling any gap.  The
// original is not modified, since another variable may share it
//

func spliceSeq(seq []any, idx int, value any) []any {

	n := len(seq)
	if idx >= n {
		n = idx + 1
	}

	out := make([]any, n)
	copy(out, seq)

	for i := len(seq); i < n; i++ {
		out[i] = 0
	}

	out[idx] = value

	return out
}

//
// Strings are indexed by character.  A short string is padded with
// NULs.  A string value replaces the one character with all of
// itself; an integer value is taken as a character code
//

func spliceString(s string, idx int, value any) (string, bool) {

	var rep string

	switch v := value.(type) {
	case string:
		rep = v

	case int:
		if !utf8.ValidRune(rune(v)) || v != int(rune(v)) {
			return "", false
		}

		rep = string(rune(v))

	default:
		return "", false
	}

	runes := []rune(s)

	for len(runes) <= idx {
		runes = append(runes, 0)
	}

	return string(runes[:idx]) + rep + string(runes[idx+1:]), true
}
