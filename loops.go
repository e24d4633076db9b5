package main

//
// Loops.  Each loop owns one entry on the loop-exit stack for as long
// as it runs, pushed on entry and popped by a defer so an error in the
// body cannot leave the stack unbalanced.  After every statement of
// the body we look at our entry: Exit For / Exit Do flip it to false
//

//
// Run one pass of a loop body.  Returns false when the loop must stop
//

func runLoopBody(ctx *Context, body []statement) bool {

	for _, stmt := range body {
		executeStmt(ctx, stmt)

		if !ctx.loopRunning() || ctx.exitPending() {
			return false
		}
	}

	return true
}

//
// For name = start To end [Step step].  end is evaluated once and
// capped at the configured upper bound; step is evaluated once.  The
// test is always index <= end, step sign notwithstanding
//

func executeFor(ctx *Context, s *forStmt) {

	start := evalArg(ctx, s.start)
	_, ok := toNumber(start)
	runtimeCheck(ok, ETYPEMISMATCH, "For start value "+reprValue(start))

	end := forEndValue(ctx, s)

	var step any = 1

	if s.step != nil {
		step = evalArg(ctx, s.step)
		_, ok = toNumber(step)
		runtimeCheck(ok, ETYPEMISMATCH, "For step value "+reprValue(step))
	}

	bound := ctx.cfg.LoopUpperBound

	if bound > 0 && end > bound {
		ctx.log.infof("For loop end %d capped to %d", end, bound)
		end = bound
	}

	ctx.pushLoop()
	defer ctx.popLoop()

	ctx.set(s.name, start)

	for iterations := 0; ; iterations++ {
		cur, _ := ctx.get(s.name)

		n, ok := toNumber(cur)
		if !ok {
			ctx.log.warnf(ETYPEMISMATCH, "For index "+s.name+" is "+
				reprValue(cur))
			break
		}

		if numberToFloat(n) > float64(end) {
			break
		}

		if bound > 0 && iterations >= bound {
			ctx.log.warnf("For loop on %s stopped after %d iterations",
				s.name, iterations)
			break
		}

		if !runLoopBody(ctx, s.body) {
			break
		}

		cur, _ = ctx.get(s.name)
		ctx.set(s.name, arith("+", cur, step))
	}
}

//
// A loop end that is not an integer counts as 0.  Only int and whole
// float64 values qualify; a numeric string does not
//

func forEndValue(ctx *Context, s *forStmt) int {

	v, err := tryEvalArg(ctx, s.end)
	if err != nil {
		ctx.log.warnf("For loop end %s: %v, using 0", exprString(s.end), err)
		return 0
	}

	end, ok := 0, false

	if _, isStr := v.(string); !isStr {
		end, ok = toInteger(v)
	}

	if !ok {
		ctx.log.warnf("For loop end %s is not an integer, using 0",
			reprValue(v))
		return 0
	}

	return end
}

//
// For Each item In container.  The entry is pushed before the
// container is evaluated; a container that cannot be evaluated or is
// not an array gives zero iterations.  The items are a snapshot, so
// the body growing the array does not extend the loop
//

func executeForEach(ctx *Context, s *forEachStmt) {

	ctx.pushLoop()
	defer ctx.popLoop()

	container, err := tryEvalArg(ctx, s.container)
	if err != nil {
		ctx.log.infof("For Each container %s: %v", exprString(s.container), err)
		return
	}

	items, ok := container.([]any)
	if !ok {
		ctx.log.infof("For Each container %s is not iterable",
			reprValue(container))
		return
	}

	for _, item := range items {
		ctx.set(s.item, item)

		if !runLoopBody(ctx, s.body) {
			break
		}
	}
}

func guardHolds(ctx *Context, until bool, guard expression) bool {

	v := evalArg(ctx, guard)

	if until {
		return !isTruthy(v)
	}

	return isTruthy(v)
}

//
// Do While / Do Until: the guard is tested before every pass
//

func executeWhile(ctx *Context, s *whileStmt) {

	ctx.pushLoop()
	defer ctx.popLoop()

	for guardHolds(ctx, s.until, s.guard) {
		if !runLoopBody(ctx, s.body) {
			break
		}
	}
}

//
// Do ... Loop While / Loop Until: the body always runs once
//

func executeDo(ctx *Context, s *doStmt) {

	ctx.pushLoop()
	defer ctx.popLoop()

	for {
		if !runLoopBody(ctx, s.body) {
			break
		}

		if !guardHolds(ctx, s.until, s.guard) {
			break
		}
	}
}

//
// Exit For and Exit Do both stop the innermost loop, whatever kind it is
//

func executeExitLoop(ctx *Context, what string) {

	runtimeCheck(len(ctx.loopStack) > 0, EEXITNOLOOP, what)

	ctx.loopStack[len(ctx.loopStack)-1] = false
}
