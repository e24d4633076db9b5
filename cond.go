package main

//
// If / ElseIf / Else.  Guards are tried in order and the first true
// one wins; the Else piece has no guard and always matches.  Nothing
// runs if no piece matches
//

func executeIf(ctx *Context, s *ifStmt) {

	for _, piece := range s.pieces {
		if piece.guard != nil && !isTruthy(evalArg(ctx, piece.guard)) {
			continue
		}

		executeBlock(ctx, piece.body)

		return
	}
}

//
// #If.  Conditional compilation constants are never known, so the
// first branch is always the one taken
//

func executeIfMacro(ctx *Context, s *ifMacroStmt) {

	if len(s.pieces) == 0 {
		return
	}

	executeBlock(ctx, s.pieces[0].body)
}

//
// Select Case.  The selector is evaluated once; the first clause that
// matches runs and the rest are skipped
//

func executeSelect(ctx *Context, s *selectStmt) {

	v := evalArg(ctx, s.value)

	for _, c := range s.cases {
		if caseMatches(ctx, c, v) {
			executeBlock(ctx, c.body)
			return
		}
	}
}

func caseMatches(ctx *Context, c *caseClause, v any) bool {

	switch c.kind {
	case caseElse:
		return true

	case caseRange:
		return rangeMatches(ctx, c, v)

	case caseSet:
		return setMatches(ctx, c, v)

	default:
		return valuesEqual(v, evalArg(ctx, c.values[0]))
	}
}

//
// Case lo To hi.  Both bounds are truncated to integers; a bound that
// fails to evaluate or convert means no match
//

func rangeMatches(ctx *Context, c *caseClause, v any) bool {

	var bounds [2]int

	for i := range bounds {
		b, err := tryEvalArg(ctx, c.values[i])
		if err != nil {
			ctx.log.debugf("Case range bound %s: %v", exprString(c.values[i]),
				err)
			return false
		}

		n, ok := truncInteger(b)
		if !ok {
			return false
		}

		bounds[i] = n
	}

	n, ok := toNumber(v)
	if !ok {
		return false
	}

	f := numberToFloat(n)

	return float64(bounds[0]) <= f && f <= float64(bounds[1])
}

//
// Case a, b, c.  Every member is evaluated, and one that fails spoils
// the whole clause even if another member matched
//

func setMatches(ctx *Context, c *caseClause, v any) bool {

	matched := false
	failed := false

	for _, e := range c.values {
		member, err := tryEvalArg(ctx, e)
		if err != nil {
			ctx.log.debugf("Case member %s: %v", exprString(e), err)
			failed = true
			continue
		}

		if valuesEqual(v, member) {
			matched = true
		}
	}

	return matched && !failed
}
