package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func selectFixture(ctx *Context) *selectStmt {

	mark := func(tag string) []statement {
		return []statement{callTo("Record", lit(tag))}
	}

	return &selectStmt{value: ref("x"), cases: []*caseClause{
		newCaseClause(srcSpan{}, true, []expression{lit(1), lit(5)}, mark("range")),
		newCaseClause(srcSpan{}, false, []expression{lit(7), lit(8), lit(9)},
			mark("set")),
		newCaseClause(srcSpan{}, false, nil, mark("else")),
	}}
}

func TestSelectPicksSetCase(t *testing.T) {

	ctx, _ := newTestContext(t)
	rec := installRecorder(ctx, "Record")
	ctx.set("x", 8)

	executeStmt(ctx, selectFixture(ctx))

	assert.Equal(t, []any{"set"}, rec.firstArgs())
}

func TestSelectRangeAndElse(t *testing.T) {

	ctx, _ := newTestContext(t)
	rec := installRecorder(ctx, "Record")
	s := selectFixture(ctx)

	for _, x := range []any{1, 5, 3.5, 0, 6, "nope"} {
		ctx.set("x", x)
		executeStmt(ctx, s)
	}

	assert.Equal(t, []any{"range", "range", "range", "else", "else", "else"},
		rec.firstArgs())
}

func TestSelectFirstMatchWins(t *testing.T) {

	ctx, _ := newTestContext(t)
	rec := installRecorder(ctx, "Record")
	ctx.set("x", 3)

	executeStmt(ctx, &selectStmt{value: ref("x"), cases: []*caseClause{
		newCaseClause(srcSpan{}, true, []expression{lit(1), lit(10)},
			[]statement{callTo("Record", lit("first"))}),
		newCaseClause(srcSpan{}, false, []expression{lit(3)},
			[]statement{callTo("Record", lit("second"))}),
	}})

	assert.Equal(t, []any{"first"}, rec.firstArgs())
}

func TestSelectRangeBoundsTruncate(t *testing.T) {

	ctx, _ := newTestContext(t)
	rec := installRecorder(ctx, "Record")
	ctx.set("x", 4)

	executeStmt(ctx, &selectStmt{value: ref("x"), cases: []*caseClause{
		newCaseClause(srcSpan{}, true, []expression{lit(1.9), lit(4.7)},
			[]statement{callTo("Record", lit("hit"))}),
	}})

	assert.Equal(t, []any{"hit"}, rec.firstArgs())
}

func TestSelectFailingBoundOrMemberNeverMatches(t *testing.T) {

	ctx, _ := newTestContext(t)
	rec := installRecorder(ctx, "Record")
	ctx.set("x", 2)

	broken := op("/", lit(1), lit(0))

	executeStmt(ctx, &selectStmt{value: ref("x"), cases: []*caseClause{
		newCaseClause(srcSpan{}, true, []expression{broken, lit(10)},
			[]statement{callTo("Record", lit("range"))}),
		newCaseClause(srcSpan{}, false, []expression{lit(2), broken},
			[]statement{callTo("Record", lit("set"))}),
		newCaseClause(srcSpan{}, false, nil,
			[]statement{callTo("Record", lit("else"))}),
	}})

	assert.Equal(t, []any{"else"}, rec.firstArgs())
	assert.Zero(t, ctx.stats.numErrors)
}

func TestCaseClauseShapes(t *testing.T) {

	assert.Equal(t, caseElse, newCaseClause(srcSpan{}, false, nil, nil).kind)
	assert.Equal(t, caseSingle,
		newCaseClause(srcSpan{}, false, []expression{lit(1)}, nil).kind)
	assert.Equal(t, caseSet,
		newCaseClause(srcSpan{}, false, []expression{lit(1), lit(2)}, nil).kind)
	assert.Equal(t, caseRange,
		newCaseClause(srcSpan{}, true, []expression{lit(1), lit(2)}, nil).kind)
}

func TestIfElseIfElse(t *testing.T) {

	ctx, _ := newTestContext(t)
	rec := installRecorder(ctx, "Record")

	s := &ifStmt{pieces: []ifPiece{
		{guard: op("<", ref("x"), lit(0)),
			body: []statement{callTo("Record", lit("neg"))}},
		{guard: op("=", ref("x"), lit(0)),
			body: []statement{callTo("Record", lit("zero"))}},
		{body: []statement{callTo("Record", lit("pos"))}},
	}}

	for _, x := range []int{-3, 0, 9} {
		ctx.set("x", x)
		executeStmt(ctx, s)
	}

	assert.Equal(t, []any{"neg", "zero", "pos"}, rec.firstArgs())
}

func TestIfWithoutElseCanDoNothing(t *testing.T) {

	ctx, _ := newTestContext(t)
	rec := installRecorder(ctx, "Record")

	executeStmt(ctx, &ifStmt{pieces: []ifPiece{
		{guard: lit(false), body: []statement{callTo("Record", lit("no"))}},
	}})

	assert.Empty(t, rec.calls)
}

func TestIfMacroAlwaysTakesFirstBranch(t *testing.T) {

	ctx, _ := newTestContext(t)
	rec := installRecorder(ctx, "Record")

	executeStmt(ctx, &ifMacroStmt{pieces: []ifPiece{
		{guard: lit(false), body: []statement{callTo("Record", lit("first"))}},
		{body: []statement{callTo("Record", lit("second"))}},
	}})

	assert.Equal(t, []any{"first"}, rec.firstArgs())
}
