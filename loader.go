package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//
// Program loader.  The statement tree arrives as YAML, one mapping per
// statement keyed by the statement kind.  We walk yaml.Node rather
// than decoding into structs so every node keeps its line and column.
//
// A malformed program (not YAML, no procedures list, a procedure with
// no name) is an error.  A malformed statement is not: it loads as an
// Unknown statement carrying its text, and the run carries on without
// it
//

type loader struct {
	log   *logger
	depth int
	nodes int
	err   *loadError
}

func loadProgramFile(filename string, log *logger) (*program, error) {

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	prog, err := loadProgram(data, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return prog, nil
}

func loadProgram(data []byte, log *logger) (*program, error) {

	var doc yaml.Node

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &loadError{msg: "empty program"}
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, nodeError(root, "program must be a mapping")
	}

	ld := &loader{log: log}
	prog := &program{}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val := resolveAlias(root.Content[i+1])

		switch strings.ToLower(key) {
		default:
			log.warnf("%s: unknown program key %q ignored", nodeSpan(val), key)

		case "module":
			prog.module = val.Value

		case "declarations":
			prog.declarations = ld.statements(val)

		case "procedures":
			if val.Kind != yaml.SequenceNode {
				return nil, nodeError(val, "procedures must be a list")
			}

			for _, pn := range val.Content {
				p, err := ld.procedure(resolveAlias(pn))
				if err != nil {
					return nil, err
				}

				prog.procedures = append(prog.procedures, p)
			}
		}
	}

	if ld.err != nil {
		return nil, ld.err
	}

	return prog, nil
}

//
// Count one more level of statement or expression nesting.  Once a
// limit is hit every later node fails too, so the walk unwinds fast
// and loadProgram reports the first failure
//

func (ld *loader) enter(n *yaml.Node) bool {

	ld.depth++
	ld.nodes++

	if ld.err != nil {
		return false
	}

	if ld.depth > maxLoadDepth {
		ld.err = nodeError(n, "nested more than %d levels deep", maxLoadDepth)
	} else if ld.nodes > maxLoadNodes {
		ld.err = nodeError(n, "more than %d statements and expressions",
			maxLoadNodes)
	}

	return ld.err == nil
}

func (ld *loader) leave() {

	ld.depth--
}

func resolveAlias(n *yaml.Node) *yaml.Node {

	for i := 0; n != nil && n.Kind == yaml.AliasNode && i < 8; i++ {
		n = n.Alias
	}

	return n
}

func nodeSpan(n *yaml.Node) srcSpan {

	return srcSpan{line: n.Line, column: n.Column}
}

func nodeError(n *yaml.Node, format string, args ...any) *loadError {

	return &loadError{line: n.Line, column: n.Column,
		msg: fmt.Sprintf(format, args...)}
}

//
// The fields of a mapping node, by lower cased key
//

func mappingFields(n *yaml.Node) (map[string]*yaml.Node, error) {

	if n.Kind != yaml.MappingNode {
		return nil, nodeError(n, "expected a mapping")
	}

	fields := make(map[string]*yaml.Node, len(n.Content)/2)

	for i := 0; i+1 < len(n.Content); i += 2 {
		fields[strings.ToLower(n.Content[i].Value)] = resolveAlias(n.Content[i+1])
	}

	return fields, nil
}

func (ld *loader) procedure(n *yaml.Node) (*procedure, error) {

	fields, err := mappingFields(n)
	if err != nil {
		return nil, err
	}

	nameNode, ok := fields["name"]
	if !ok || nameNode.Value == "" {
		return nil, nodeError(n, "procedure has no name")
	}

	p := &procedure{loc: nodeSpan(n), name: nameNode.Value}

	if kn, ok := fields["kind"]; ok {
		switch strings.ToLower(kn.Value) {
		case "function", "property":
			p.isFunction = true
		case "sub":
		default:
			return nil, nodeError(kn, "unknown procedure kind %q", kn.Value)
		}
	}

	if pn, ok := fields["params"]; ok {
		if p.params, err = stringList(pn); err != nil {
			return nil, err
		}
	}

	if bn, ok := fields["body"]; ok {
		p.body = ld.statements(bn)
	}

	return p, nil
}

func stringList(n *yaml.Node) ([]string, error) {

	if n.Kind != yaml.SequenceNode {
		return nil, nodeError(n, "expected a list of names")
	}

	list := make([]string, 0, len(n.Content))

	for _, item := range n.Content {
		item = resolveAlias(item)
		if item.Kind != yaml.ScalarNode {
			return nil, nodeError(item, "expected a name")
		}

		list = append(list, item.Value)
	}

	return list, nil
}

func (ld *loader) statements(n *yaml.Node) []statement {

	if n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null") {
		return nil
	}

	if n.Kind != yaml.SequenceNode {
		return []statement{ld.statement(n)}
	}

	body := make([]statement, 0, len(n.Content))

	for _, sn := range n.Content {
		body = append(body, ld.statement(resolveAlias(sn)))
	}

	return body
}

//
// Build one statement.  Anything that goes wrong turns the statement
// into an Unknown one
//

func (ld *loader) statement(n *yaml.Node) statement {

	defer ld.leave()

	if !ld.enter(n) {
		return &unknownStmt{stmtBase: stmtBase{loc: nodeSpan(n)}}
	}

	stmt, err := ld.buildStatement(n)
	if err != nil && ld.err != nil {
		return &unknownStmt{stmtBase: stmtBase{loc: nodeSpan(n)}}
	}

	if err != nil {
		ld.log.warnf(EBADSTMT, err)

		return &unknownStmt{stmtBase: stmtBase{loc: nodeSpan(n)},
			text: nodeText(n)}
	}

	return stmt
}

//
// Text of a node for an Unknown statement: the YAML it came from
//

func nodeText(n *yaml.Node) string {

	if n.Kind == yaml.ScalarNode {
		return n.Value
	}

	out, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(out))
}

func (ld *loader) buildStatement(n *yaml.Node) (statement, error) {

	if n.Kind == yaml.ScalarNode {
		return &unknownStmt{stmtBase: stmtBase{loc: nodeSpan(n)},
			text: n.Value}, nil
	}

	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return nil, nodeError(n, "statement must be a one-key mapping")
	}

	kind := strings.ToLower(n.Content[0].Value)
	val := resolveAlias(n.Content[1])
	base := stmtBase{loc: nodeSpan(n)}

	switch kind {
	case "unknown":
		return &unknownStmt{stmtBase: base, text: val.Value}, nil

	case "option":
		return &optionStmt{stmtBase: base, option: val.Value}, nil

	case "goto":
		return &gotoStmt{stmtBase: base, label: val.Value}, nil

	case "label":
		return &labelStmt{stmtBase: base, label: val.Value}, nil

	case "onerror":
		return &onErrorStmt{stmtBase: base, action: val.Value}, nil

	case "exit":
		return ld.exitStatement(base, val)

	case "if":
		pieces, err := ld.ifPieces(val)
		return &ifStmt{stmtBase: base, pieces: pieces}, err

	case "ifmacro":
		pieces, err := ld.ifPieces(val)
		return &ifMacroStmt{stmtBase: base, pieces: pieces}, err

	case "call":
		return ld.callStatement(base, val)
	}

	fields, err := mappingFields(val)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "attribute":
		s := &attributeStmt{stmtBase: base, name: fieldString(fields, "name")}
		s.value, err = ld.optExpr(fields, "value")
		return s, err

	case "dim", "global":
		vars, init, err := ld.declList(fields)
		if kind == "global" {
			return &globalVarStmt{stmtBase: base, vars: vars, init: init}, err
		}

		return &dimStmt{stmtBase: base, vars: vars, init: init}, err

	case "let", "set":
		s := &letStmt{stmtBase: base, name: fieldString(fields, "name"),
			isSet: kind == "set"}
		if s.name == "" {
			return nil, nodeError(val, "%s without a name", kind)
		}

		if s.index, err = ld.optExpr(fields, "index"); err != nil {
			return nil, err
		}

		s.value, err = ld.reqExpr(val, fields, "value")
		return s, err

	case "prop":
		s := &propAssignStmt{stmtBase: base, prop: fieldString(fields, "name"),
			param: fieldString(fields, "param")}
		s.value, err = ld.optExpr(fields, "value")
		return s, err

	case "for":
		return ld.forStatement(base, val, fields)

	case "foreach":
		s := &forEachStmt{stmtBase: base, item: fieldString(fields, "var"),
			body: ld.statements(fields["body"])}
		if s.item == "" {
			return nil, nodeError(val, "foreach without a loop variable")
		}

		s.container, err = ld.reqExpr(val, fields, "in")
		return s, err

	case "while", "do":
		until := fieldBool(fields, "until")
		guard, err := ld.reqExpr(val, fields, "cond")
		body := ld.statements(fields["body"])

		if kind == "while" {
			return &whileStmt{stmtBase: base, until: until, guard: guard,
				body: body}, err
		}

		return &doStmt{stmtBase: base, until: until, guard: guard,
			body: body}, err

	case "select":
		return ld.selectStatement(base, val, fields)

	case "redim":
		s := &redimStmt{stmtBase: base, preserve: fieldBool(fields, "preserve")}
		s.target, err = ld.optExpr(fields, "target")
		return s, err

	case "with":
		s := &withStmt{stmtBase: base, env: fieldString(fields, "object"),
			body: ld.statements(fields["body"])}
		if s.env == "" {
			return nil, nodeError(val, "with without an object")
		}

		return s, nil

	case "open":
		s := &fileOpenStmt{stmtBase: base, mode: fieldString(fields, "mode"),
			access: fieldString(fields, "access")}
		if s.name, err = ld.reqExpr(val, fields, "file"); err != nil {
			return nil, err
		}

		s.nameText = nodeText(fields["file"])
		s.handle, err = ld.reqExpr(val, fields, "handle")
		return s, err

	case "print":
		s := &printStmt{stmtBase: base}
		if s.handle, err = ld.reqExpr(val, fields, "handle"); err != nil {
			return nil, err
		}

		s.value, err = ld.reqExpr(val, fields, "value")
		return s, err

	case "declare":
		s := &externalFuncStmt{stmtBase: base, name: fieldString(fields, "name"),
			lib: fieldString(fields, "lib"), alias: fieldString(fields, "alias"),
			returnType: fieldString(fields, "returns")}
		if s.name == "" || s.lib == "" {
			return nil, nodeError(val, "declare needs a name and a lib")
		}

		if pn, ok := fields["params"]; ok {
			s.params, err = stringList(pn)
		}

		return s, err
	}

	return nil, nodeError(n, "unknown statement kind %q", kind)
}

func fieldString(fields map[string]*yaml.Node, key string) string {

	if n, ok := fields[key]; ok && n.Kind == yaml.ScalarNode {
		return n.Value
	}

	return ""
}

func fieldBool(fields map[string]*yaml.Node, key string) bool {

	n, ok := fields[key]
	if !ok {
		return false
	}

	var b bool
	if err := n.Decode(&b); err != nil {
		return false
	}

	return b
}

func (ld *loader) exitStatement(base stmtBase, val *yaml.Node) (statement, error) {

	switch strings.ToLower(val.Value) {
	case "for":
		return &exitForStmt{stmtBase: base}, nil

	case "do", "while":
		return &exitWhileStmt{stmtBase: base}, nil

	case "function":
		return &exitFunctionStmt{stmtBase: base, keyword: "Exit Function"}, nil

	case "sub":
		return &exitFunctionStmt{stmtBase: base, keyword: "Exit Sub"}, nil

	case "property":
		return &exitFunctionStmt{stmtBase: base, keyword: "Exit Property"}, nil

	case "return":
		return &exitFunctionStmt{stmtBase: base, keyword: "Return"}, nil
	}

	return nil, nodeError(val, "unknown exit %q", val.Value)
}

//
// call: Name, or call: {name: Name, args: [...]}
//

func (ld *loader) callStatement(base stmtBase, val *yaml.Node) (statement, error) {

	if val.Kind == yaml.ScalarNode {
		return &callStmt{stmtBase: base, name: val.Value}, nil
	}

	fields, err := mappingFields(val)
	if err != nil {
		return nil, err
	}

	s := &callStmt{stmtBase: base, name: fieldString(fields, "name")}
	if s.name == "" {
		return nil, nodeError(val, "call without a name")
	}

	if an, ok := fields["args"]; ok {
		s.args, err = ld.exprList(an)
	}

	return s, err
}

func (ld *loader) declList(fields map[string]*yaml.Node) ([]varDecl, expression, error) {

	vn, ok := fields["vars"]
	if !ok || vn.Kind != yaml.SequenceNode || len(vn.Content) == 0 {
		return nil, nil, &loadError{msg: "declaration without variables"}
	}

	vars := make([]varDecl, 0, len(vn.Content))

	for _, item := range vn.Content {
		item = resolveAlias(item)

		if item.Kind == yaml.ScalarNode {
			vars = append(vars, varDecl{name: item.Value})
			continue
		}

		vf, err := mappingFields(item)
		if err != nil {
			return nil, nil, err
		}

		v := varDecl{name: fieldString(vf, "name"),
			declType: fieldString(vf, "type"), isArray: fieldBool(vf, "array")}
		if v.name == "" {
			return nil, nil, nodeError(item, "variable without a name")
		}

		if v.init, err = ld.optExpr(vf, "init"); err != nil {
			return nil, nil, err
		}

		vars = append(vars, v)
	}

	init, err := ld.optExpr(fields, "init")

	return vars, init, err
}

func (ld *loader) forStatement(base stmtBase, val *yaml.Node,
	fields map[string]*yaml.Node) (statement, error) {

	var err error

	s := &forStmt{stmtBase: base, name: fieldString(fields, "var"),
		body: ld.statements(fields["body"])}
	if s.name == "" {
		return nil, nodeError(val, "for without a loop variable")
	}

	if s.start, err = ld.reqExpr(val, fields, "start"); err != nil {
		return nil, err
	}

	if s.end, err = ld.reqExpr(val, fields, "end"); err != nil {
		return nil, err
	}

	s.step, err = ld.optExpr(fields, "step")

	return s, err
}

//
// If pieces: {cond: e, body: [...]} or {else: [...]}.  A piece of any
// other shape is logged and dropped; the rest of the If still loads
//

func (ld *loader) ifPieces(val *yaml.Node) ([]ifPiece, error) {

	if val.Kind != yaml.SequenceNode {
		return nil, nodeError(val, "if needs a list of parts")
	}

	var pieces []ifPiece

	for _, pn := range val.Content {
		pn = resolveAlias(pn)

		fields, err := mappingFields(pn)
		if err != nil {
			ld.log.errorf(EBADIFPIECE, nodeSpan(pn))
			continue
		}

		if body, ok := fields["else"]; ok && len(fields) == 1 {
			pieces = append(pieces, ifPiece{body: ld.statements(body)})
			continue
		}

		cn, ok := fields["cond"]
		if !ok {
			ld.log.errorf(EBADIFPIECE, nodeSpan(pn))
			continue
		}

		guard, err := ld.expr(cn)
		if err != nil {
			return nil, err
		}

		pieces = append(pieces, ifPiece{guard: guard,
			body: ld.statements(fields["body"])})
	}

	return pieces, nil
}

//
// Case clauses: {values: [...]}, {range: [lo, hi]} or {else: true},
// each with a body
//

func (ld *loader) selectStatement(base stmtBase, val *yaml.Node,
	fields map[string]*yaml.Node) (statement, error) {

	var err error

	s := &selectStmt{stmtBase: base}

	if s.value, err = ld.reqExpr(val, fields, "value"); err != nil {
		return nil, err
	}

	cn, ok := fields["cases"]
	if !ok {
		return s, nil
	}

	if cn.Kind != yaml.SequenceNode {
		return nil, nodeError(cn, "cases must be a list")
	}

	for _, item := range cn.Content {
		item = resolveAlias(item)

		cf, err := mappingFields(item)
		if err != nil {
			return nil, err
		}

		body := ld.statements(cf["body"])

		switch {
		case fieldBool(cf, "else"):
			s.cases = append(s.cases, newCaseClause(nodeSpan(item), false,
				nil, body))

		case cf["range"] != nil:
			bounds, err := ld.exprList(cf["range"])
			if err != nil {
				return nil, err
			}

			if len(bounds) != 2 {
				return nil, nodeError(item, "case range needs two bounds")
			}

			s.cases = append(s.cases, newCaseClause(nodeSpan(item), true,
				bounds, body))

		case cf["values"] != nil:
			values, err := ld.exprList(cf["values"])
			if err != nil {
				return nil, err
			}

			if len(values) == 0 {
				return nil, nodeError(item, "case without values")
			}

			s.cases = append(s.cases, newCaseClause(nodeSpan(item), false,
				values, body))

		default:
			return nil, nodeError(item, "case needs values, range or else")
		}
	}

	return s, nil
}

//
// Expressions
//

func (ld *loader) optExpr(fields map[string]*yaml.Node, key string) (expression, error) {

	n, ok := fields[key]
	if !ok {
		return nil, nil
	}

	return ld.expr(n)
}

func (ld *loader) reqExpr(parent *yaml.Node, fields map[string]*yaml.Node,
	key string) (expression, error) {

	n, ok := fields[key]
	if !ok {
		return nil, nodeError(parent, "missing %q", key)
	}

	return ld.expr(n)
}

func (ld *loader) exprList(n *yaml.Node) ([]expression, error) {

	if n.Kind != yaml.SequenceNode {
		e, err := ld.expr(n)
		if err != nil {
			return nil, err
		}

		return []expression{e}, nil
	}

	list := make([]expression, 0, len(n.Content))

	for _, item := range n.Content {
		e, err := ld.expr(resolveAlias(item))
		if err != nil {
			return nil, err
		}

		list = append(list, e)
	}

	return list, nil
}

func (ld *loader) expr(n *yaml.Node) (expression, error) {

	n = resolveAlias(n)

	defer ld.leave()

	if !ld.enter(n) {
		return nil, ld.err
	}

	switch n.Kind {
	case yaml.ScalarNode:
		v, err := scalarValue(n)
		if err != nil {
			return nil, err
		}

		return &literalExpr{value: v}, nil

	case yaml.SequenceNode:
		elems, err := ld.exprList(n)
		return &arrayExpr{elems: elems}, err

	case yaml.MappingNode:
		return ld.mappingExpr(n)
	}

	return nil, nodeError(n, EBADEXPR, "unexpected node")
}

//
// Plain YAML scalars: int, float, bool, string, null (Empty)
//

func scalarValue(n *yaml.Node) (any, error) {

	var v any

	if err := n.Decode(&v); err != nil {
		return nil, nodeError(n, EBADEXPR, err)
	}

	switch x := v.(type) {
	case int64:
		return int(x), nil

	case uint64:
		return float64(x), nil
	}

	return v, nil
}

func (ld *loader) mappingExpr(n *yaml.Node) (expression, error) {

	fields, err := mappingFields(n)
	if err != nil {
		return nil, err
	}

	var args []expression

	if an, ok := fields["args"]; ok {
		if args, err = ld.exprList(an); err != nil {
			return nil, err
		}
	}

	switch {
	case fields["lit"] != nil:
		v, err := scalarValue(fields["lit"])
		return &literalExpr{value: v}, err

	case fields["var"] != nil:
		return &varExpr{name: fields["var"].Value}, nil

	case fields["call"] != nil:
		return &applyExpr{name: fields["call"].Value, args: args}, nil

	case fields["index"] != nil:
		return &applyExpr{name: fields["index"].Value, args: args,
			index: true}, nil

	case fields["array"] != nil:
		elems, err := ld.exprList(fields["array"])
		return &arrayExpr{elems: elems}, err

	case fields["not"] != nil:
		arg, err := ld.expr(fields["not"])
		return &unaryExpr{op: "Not", arg: arg}, err

	case fields["neg"] != nil:
		arg, err := ld.expr(fields["neg"])
		return &unaryExpr{op: "-", arg: arg}, err

	case fields["op"] != nil:
		return buildOpExpr(n, fields["op"].Value, args)
	}

	return nil, nodeError(n, EBADEXPR, "unknown expression form")
}

//
// {op: "+", args: [a, b, c]} is ((a + b) + c).  A single argument
// makes the unary form of - and Not
//

func buildOpExpr(n *yaml.Node, op string, args []expression) (expression, error) {

	switch len(args) {
	case 0:
		return nil, nodeError(n, EBADEXPR, "operator "+op+" without arguments")

	case 1:
		if op == "-" || strings.EqualFold(op, "not") {
			return &unaryExpr{op: op, arg: args[0]}, nil
		}

		return nil, nodeError(n, EBADEXPR, "operator "+op+" needs two arguments")
	}

	e := args[0]

	for _, arg := range args[1:] {
		e = &binaryExpr{op: op, left: e, right: arg}
	}

	return e, nil
}
