package main

import (
	"fmt"
	"strings"
)

//
// Statement nodes.  Every node is built once by the loader (or a
// test) and never modified afterwards.  executeStmt in execute.go
// dispatches on the concrete type
//

type statement interface {
	span() srcSpan
	kind() stmtKind
	String() string
}

type stmtBase struct {
	loc srcSpan
}

func (b *stmtBase) span() srcSpan {

	return b.loc
}

func (k stmtKind) String() string {

	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("stmtKind(%d)", int(k))
	}

	return kindNames[k]
}

func (s srcSpan) String() string {

	return fmt.Sprintf("line %d column %d", s.line, s.column)
}

type unknownStmt struct {
	stmtBase
	text string
}

type attributeStmt struct {
	stmtBase
	name  string
	value expression
}

type optionStmt struct {
	stmtBase
	option string
}

type varDecl struct {
	name     string
	isArray  bool
	declType string
	init     expression
}

type dimStmt struct {
	stmtBase
	vars []varDecl
	init expression
}

//
// Global, Public and Private module variables
//

type globalVarStmt struct {
	stmtBase
	vars []varDecl
	init expression
}

type letStmt struct {
	stmtBase
	name  string
	index expression
	value expression
	isSet bool
}

type propAssignStmt struct {
	stmtBase
	prop  string
	param string
	value expression
}

type forStmt struct {
	stmtBase
	name  string
	start expression
	end   expression
	step  expression
	body  []statement
}

type forEachStmt struct {
	stmtBase
	item      string
	container expression
	body      []statement
}

type whileStmt struct {
	stmtBase
	until bool
	guard expression
	body  []statement
}

type doStmt struct {
	stmtBase
	until bool
	guard expression
	body  []statement
}

type caseClause struct {
	loc    srcSpan
	kind   caseKind
	values []expression
	body   []statement
}

type selectStmt struct {
	stmtBase
	value expression
	cases []*caseClause
}

//
// A nil guard marks the Else piece
//

type ifPiece struct {
	guard expression
	body  []statement
}

type ifStmt struct {
	stmtBase
	pieces []ifPiece
}

type ifMacroStmt struct {
	stmtBase
	pieces []ifPiece
}

type callStmt struct {
	stmtBase
	name string
	args []expression
}

type exitForStmt struct {
	stmtBase
}

type exitWhileStmt struct {
	stmtBase
}

//
// Exit Function, Exit Sub and Return
//

type exitFunctionStmt struct {
	stmtBase
	keyword string
}

type redimStmt struct {
	stmtBase
	preserve bool
	target   expression
}

type withStmt struct {
	stmtBase
	env  string
	body []statement
}

type gotoStmt struct {
	stmtBase
	label string
}

type labelStmt struct {
	stmtBase
	label string
}

type onErrorStmt struct {
	stmtBase
	action string
}

type fileOpenStmt struct {
	stmtBase
	name     expression
	nameText string
	mode     string
	access   string
	handle   expression
}

type printStmt struct {
	stmtBase
	handle expression
	value  expression
}

type externalFuncStmt struct {
	stmtBase
	name       string
	lib        string
	alias      string
	params     []string
	returnType string
}

func (*unknownStmt) kind() stmtKind      { return kindUnknown }
func (*attributeStmt) kind() stmtKind    { return kindAttribute }
func (*optionStmt) kind() stmtKind       { return kindOption }
func (*dimStmt) kind() stmtKind          { return kindDim }
func (*globalVarStmt) kind() stmtKind    { return kindGlobalVar }
func (*letStmt) kind() stmtKind          { return kindLet }
func (*propAssignStmt) kind() stmtKind   { return kindPropertyAssign }
func (*forStmt) kind() stmtKind          { return kindFor }
func (*forEachStmt) kind() stmtKind      { return kindForEach }
func (*whileStmt) kind() stmtKind        { return kindWhile }
func (*doStmt) kind() stmtKind           { return kindDo }
func (*selectStmt) kind() stmtKind       { return kindSelect }
func (*ifStmt) kind() stmtKind           { return kindIf }
func (*ifMacroStmt) kind() stmtKind      { return kindIfMacro }
func (*callStmt) kind() stmtKind         { return kindCall }
func (*exitForStmt) kind() stmtKind      { return kindExitFor }
func (*exitWhileStmt) kind() stmtKind    { return kindExitWhile }
func (*exitFunctionStmt) kind() stmtKind { return kindExitFunction }
func (*redimStmt) kind() stmtKind        { return kindRedim }
func (*withStmt) kind() stmtKind         { return kindWith }
func (*gotoStmt) kind() stmtKind         { return kindGoto }
func (*labelStmt) kind() stmtKind        { return kindLabel }
func (*onErrorStmt) kind() stmtKind      { return kindOnError }
func (*fileOpenStmt) kind() stmtKind     { return kindFileOpen }
func (*printStmt) kind() stmtKind        { return kindPrint }
func (*externalFuncStmt) kind() stmtKind { return kindExternalFunction }

//
// Build the case shape from the clause's values.  Two values form a
// range when the loader marked the clause as such, more than one
// value is a set, none is Case Else
//

func newCaseClause(loc srcSpan, isRange bool, values []expression,
	body []statement) *caseClause {

	c := &caseClause{loc: loc, values: values, body: body}

	switch {
	case len(values) == 0:
		c.kind = caseElse
	case isRange && len(values) == 2:
		c.kind = caseRange
	case len(values) > 1:
		c.kind = caseSet
	default:
		c.kind = caseSingle
	}

	return c
}

//
// String forms, used by the execution trace and the REPL.  They look
// roughly like the VBA the statement came from
//

func exprString(e expression) string {

	if e == nil {
		return ""
	}

	return e.String()
}

func exprListString(list []expression) string {

	parts := make([]string, len(list))

	for i, e := range list {
		parts[i] = exprString(e)
	}

	return strings.Join(parts, ", ")
}

func (s *unknownStmt) String() string {

	return fmt.Sprintf("Unknown(%q)", s.text)
}

func (s *attributeStmt) String() string {

	return fmt.Sprintf("Attribute %s = %s", s.name, exprString(s.value))
}

func (s *optionStmt) String() string {

	return "Option " + s.option
}

func (v varDecl) String() string {

	str := v.name

	if v.isArray {
		str += "()"
	}

	if v.declType != "" {
		str += " As " + v.declType
	}

	if v.init != nil {
		str += " = " + v.init.String()
	}

	return str
}

func declListString(keyword string, vars []varDecl, init expression) string {

	parts := make([]string, len(vars))

	for i, v := range vars {
		parts[i] = v.String()
	}

	str := keyword + " " + strings.Join(parts, ", ")

	if init != nil {
		str += " = " + init.String()
	}

	return str
}

func (s *dimStmt) String() string {

	return declListString("Dim", s.vars, s.init)
}

func (s *globalVarStmt) String() string {

	return declListString("Global", s.vars, s.init)
}

func (s *letStmt) String() string {

	lhs := s.name

	if s.index != nil {
		lhs += "(" + s.index.String() + ")"
	}

	if s.isSet {
		return fmt.Sprintf("Set %s = %s", lhs, exprString(s.value))
	}

	return fmt.Sprintf("Let %s = %s", lhs, exprString(s.value))
}

func (s *propAssignStmt) String() string {

	return fmt.Sprintf("%s %s:=%s", s.prop, s.param, exprString(s.value))
}

func (s *forStmt) String() string {

	str := fmt.Sprintf("For %s = %s To %s", s.name, exprString(s.start),
		exprString(s.end))

	if s.step != nil {
		str += " Step " + s.step.String()
	}

	return str
}

func (s *forEachStmt) String() string {

	return fmt.Sprintf("For Each %s In %s", s.item, exprString(s.container))
}

func loopGuardString(keyword string, until bool, guard expression) string {

	if until {
		return fmt.Sprintf("%s Until %s", keyword, exprString(guard))
	}

	return fmt.Sprintf("%s While %s", keyword, exprString(guard))
}

func (s *whileStmt) String() string {

	return loopGuardString("Do", s.until, s.guard)
}

func (s *doStmt) String() string {

	return loopGuardString("Loop", s.until, s.guard)
}

func (c *caseClause) String() string {

	switch c.kind {
	case caseElse:
		return "Case Else"
	case caseRange:
		return fmt.Sprintf("Case %s To %s", exprString(c.values[0]),
			exprString(c.values[1]))
	default:
		return "Case " + exprListString(c.values)
	}
}

func (s *selectStmt) String() string {

	return "Select Case " + exprString(s.value)
}

func (s *ifStmt) String() string {

	if len(s.pieces) == 0 {
		return "If"
	}

	return fmt.Sprintf("If %s Then (%d parts)", exprString(s.pieces[0].guard),
		len(s.pieces))
}

func (s *ifMacroStmt) String() string {

	if len(s.pieces) == 0 {
		return "#If"
	}

	return fmt.Sprintf("#If %s Then", exprString(s.pieces[0].guard))
}

func (s *callStmt) String() string {

	return fmt.Sprintf("Call %s(%s)", s.name, exprListString(s.args))
}

func (s *exitForStmt) String() string {

	return "Exit For"
}

func (s *exitWhileStmt) String() string {

	return "Exit Do"
}

func (s *exitFunctionStmt) String() string {

	if s.keyword == "" {
		return "Exit Function"
	}

	return s.keyword
}

func (s *redimStmt) String() string {

	if s.preserve {
		return "ReDim Preserve " + exprString(s.target)
	}

	return "ReDim " + exprString(s.target)
}

func (s *withStmt) String() string {

	return "With " + s.env
}

func (s *gotoStmt) String() string {

	return "GoTo " + s.label
}

func (s *labelStmt) String() string {

	return s.label + ":"
}

func (s *onErrorStmt) String() string {

	return "On Error " + s.action
}

func (s *fileOpenStmt) String() string {

	str := fmt.Sprintf("Open %s For %s", exprString(s.name), s.mode)

	if s.access != "" {
		str += " Access " + s.access
	}

	return str + " As #" + exprString(s.handle)
}

func (s *printStmt) String() string {

	return fmt.Sprintf("Print #%s, %s", exprString(s.handle),
		exprString(s.value))
}

func (s *externalFuncStmt) String() string {

	str := fmt.Sprintf("Declare Function %s Lib %q", s.name, s.lib)

	if s.alias != "" {
		str += fmt.Sprintf(" Alias %q", s.alias)
	}

	str += " (" + strings.Join(s.params, ", ") + ")"

	if s.returnType != "" {
		str += " As " + s.returnType
	}

	return str
}
