// Package tsadapter bridges a real tree-sitter parse of PHP source into
// the ast.Node tree the analysis core consumes. It exists only so the
// module's test suites can exercise the core against actual PHP text
// instead of hand-built ast.Literal fixtures; no non-test package in this
// module imports it, keeping the core's "the AST-producing parser is an
// external collaborator" boundary intact outside of tests.
//
// Coverage is intentionally a practical subset of the PHP grammar: the
// declaration and statement/expression shapes internal/parsepass and
// internal/analysis already know how to walk. A tree-sitter node this
// package doesn't recognize converts to ast.KindInvalid, which every
// visitor already treats as an ordinary Unanalyzable node rather than a
// fatal error — unrecognized syntax degrades the converted tree, it never
// panics.
package tsadapter

import (
	"context"
	"fmt"
	"strings"

	phpforest "github.com/alexaandru/go-sitter-forest/php"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/shinyvision/ward/internal/ast"
)

// Parse parses source with the real PHP tree-sitter grammar and converts
// the result into an ast.Node tree rooted at ast.KindProgram.
func Parse(ctx context.Context, source []byte) (*ast.Literal, error) {
	parser := sitter.NewParser()
	lang := sitter.NewLanguage(phpforest.GetLanguage())
	if ok := parser.SetLanguage(lang); !ok {
		return nil, fmt.Errorf("tsadapter: setting language failed")
	}
	tree, err := parser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("tsadapter: parsing: %w", err)
	}
	defer tree.Close()
	return convert(tree.RootNode(), source), nil
}

func line(n sitter.Node) int { return int(n.StartPoint().Row) + 1 }

func text(n sitter.Node, src []byte) string {
	if n.IsNull() {
		return ""
	}
	return n.Content(src)
}

// namedChildren returns every named child of n, skipping the anonymous
// punctuation/keyword tokens tree-sitter also attaches as children.
func namedChildren(n sitter.Node) []sitter.Node {
	out := make([]sitter.Node, 0, n.NamedChildCount())
	for i := uint32(0); i < n.NamedChildCount(); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func hasChildOfType(n sitter.Node, typ string) bool {
	for _, c := range namedChildren(n) {
		if c.Type() == typ {
			return true
		}
	}
	return false
}

func childOfType(n sitter.Node, typ string) sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() == typ {
			return c
		}
	}
	return sitter.Node{}
}

func convert(n sitter.Node, src []byte) *ast.Literal {
	if n.IsNull() {
		return nil
	}
	switch n.Type() {
	case "program":
		return convertChildrenAs(ast.KindProgram, n, src)
	case "namespace_definition":
		return convertNamespace(n, src)
	case "namespace_use_declaration":
		return convertUseDecl(n, src)
	case "class_declaration":
		return convertClassLike(ast.KindClassDecl, n, src)
	case "interface_declaration":
		return convertClassLike(ast.KindInterfaceDecl, n, src)
	case "trait_declaration":
		return convertClassLike(ast.KindTraitDecl, n, src)
	case "declaration_list":
		return convertChildrenAs(ast.KindClassBody, n, src)
	case "method_declaration":
		return convertMethodOrFunction(ast.KindMethodDecl, n, src)
	case "function_definition":
		return convertMethodOrFunction(ast.KindFunctionDecl, n, src)
	case "anonymous_function_creation_expression", "arrow_function":
		return convertMethodOrFunction(ast.KindClosureDecl, n, src)
	case "property_declaration":
		return convertPropertyDecl(n, src)
	case "const_declaration":
		return convertConstDecl(ast.KindClassConstDecl, ast.KindClassConstElement, n, src)
	case "compound_statement":
		return convertChildrenAs(ast.KindBlock, n, src)
	case "expression_statement":
		return exprStmtLiteral(convertFirstNamed(n, src), line(n))
	case "return_statement":
		value := convertFirstNamed(n, src)
		return &ast.Literal{KindValue: ast.KindReturnStmt, LineValue: line(n), FieldsValue: field("value", value), ChildrenValue: nonNil(value)}
	case "echo_statement":
		return &ast.Literal{KindValue: ast.KindEchoStmt, LineValue: line(n), ChildrenValue: convertChildren(n, src)}
	case "if_statement":
		return convertIf(n, src)
	case "while_statement":
		cond := convertField(n, "condition", src)
		body := convertField(n, "body", src)
		return &ast.Literal{KindValue: ast.KindWhileStmt, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"cond": cond,
			"body": body,
		}, ChildrenValue: nonNil(cond, body)}
	case "for_statement":
		return convertFor(n, src)
	case "foreach_statement":
		return convertForeach(n, src)
	case "try_statement":
		return convertTry(n, src)
	case "assignment_expression":
		return convertAssignment(n, src)
	case "binary_expression":
		return convertBinaryOp(n, src)
	case "unary_op_expression":
		operand := convertFirstNamed(n, src)
		return &ast.Literal{KindValue: ast.KindUnaryOp, LineValue: line(n), TextValue: operatorText(n, src), FieldsValue: field("operand", operand), ChildrenValue: nonNil(operand)}
	case "conditional_expression":
		cond := convertField(n, "condition", src)
		then := convertFieldAny(n, src, "consequence", "body")
		els := convertField(n, "alternative", src)
		return &ast.Literal{KindValue: ast.KindTernary, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"cond": cond,
			"then": then,
			"else": els,
		}, ChildrenValue: nonNil(cond, then, els)}
	case "variable_name":
		return &ast.Literal{KindValue: ast.KindVariable, LineValue: line(n), TextValue: strings.TrimPrefix(text(n, src), "$")}
	case "member_access_expression", "nullsafe_member_access_expression":
		obj := convertField(n, "object", src)
		prop := convertField(n, "name", src)
		return &ast.Literal{KindValue: ast.KindPropertyAccess, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"object":   obj,
			"property": prop,
		}, ChildrenValue: nonNil(obj, prop)}
	case "scoped_property_access_expression":
		cls := convertField(n, "scope", src)
		prop := convertField(n, "name", src)
		return &ast.Literal{KindValue: ast.KindStaticPropertyAccess, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"class":    cls,
			"property": prop,
		}, ChildrenValue: nonNil(cls, prop)}
	case "member_call_expression", "nullsafe_member_call_expression":
		obj := convertField(n, "object", src)
		meth := convertField(n, "name", src)
		args := convertField(n, "arguments", src)
		return &ast.Literal{KindValue: ast.KindMethodCall, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"object": obj,
			"method": meth,
			"args":   args,
		}, ChildrenValue: nonNil(obj, meth, args)}
	case "scoped_call_expression":
		cls := convertField(n, "scope", src)
		meth := convertField(n, "name", src)
		args := convertField(n, "arguments", src)
		return &ast.Literal{KindValue: ast.KindStaticCall, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"class":  cls,
			"method": meth,
			"args":   args,
		}, ChildrenValue: nonNil(cls, meth, args)}
	case "function_call_expression":
		callee := convertField(n, "function", src)
		args := convertField(n, "arguments", src)
		return &ast.Literal{KindValue: ast.KindFunctionCall, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"callee": callee,
			"args":   args,
		}, ChildrenValue: nonNil(callee, args)}
	case "arguments":
		return convertChildrenAs(ast.KindBlock, n, src)
	case "formal_parameters":
		return convertChildrenAs(ast.KindBlock, n, src)
	case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		return convertParam(n, src)
	case "object_creation_expression":
		cls := convertField(n, "class", src)
		args := convertField(n, "arguments", src)
		return &ast.Literal{KindValue: ast.KindNew, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"class": cls,
			"args":  args,
		}, ChildrenValue: nonNil(cls, args)}
	case "instanceof_expression", "binary_expression_instanceof":
		expr := convertField(n, "left", src)
		cls := convertField(n, "right", src)
		return &ast.Literal{KindValue: ast.KindInstanceof, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"expr":  expr,
			"class": cls,
		}, ChildrenValue: nonNil(expr, cls)}
	case "clone_expression":
		expr := convertFirstNamed(n, src)
		return &ast.Literal{KindValue: ast.KindClone, LineValue: line(n), FieldsValue: field("expr", expr), ChildrenValue: nonNil(expr)}
	case "cast_expression":
		expr := convertField(n, "value", src)
		return &ast.Literal{KindValue: ast.KindCast, LineValue: line(n), TextValue: text(childOfType(n, "cast_type"), src), FieldsValue: field("expr", expr), ChildrenValue: nonNil(expr)}
	case "array_creation_expression":
		return convertChildrenAs(ast.KindArrayLiteral, n, src)
	case "array_element_initializer":
		return &ast.Literal{KindValue: ast.KindArrayElement, LineValue: line(n), ChildrenValue: convertChildren(n, src)}
	case "subscript_expression":
		arr := convertField(n, "array", src)
		idx := convertField(n, "index", src)
		return &ast.Literal{KindValue: ast.KindArrayDim, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"array": arr,
			"index": idx,
		}, ChildrenValue: nonNil(arr, idx)}
	case "integer":
		return &ast.Literal{KindValue: ast.KindIntLiteral, LineValue: line(n), TextValue: text(n, src)}
	case "float":
		return &ast.Literal{KindValue: ast.KindFloatLiteral, LineValue: line(n), TextValue: text(n, src)}
	case "string":
		return &ast.Literal{KindValue: ast.KindStringLiteral, LineValue: line(n), TextValue: stringContent(n, src)}
	case "boolean":
		return &ast.Literal{KindValue: ast.KindBoolLiteral, LineValue: line(n), TextValue: text(n, src)}
	case "null":
		return &ast.Literal{KindValue: ast.KindNullLiteral, LineValue: line(n)}
	case "name":
		return &ast.Literal{KindValue: ast.KindName, LineValue: line(n), TextValue: text(n, src)}
	case "qualified_name", "namespace_name":
		return &ast.Literal{KindValue: ast.KindQualifiedName, LineValue: line(n), TextValue: text(n, src)}
	default:
		return &ast.Literal{KindValue: ast.KindInvalid, LineValue: line(n)}
	}
}

func field(name string, n ast.Node) map[string]ast.Node {
	if n == nil {
		return nil
	}
	return map[string]ast.Node{name: n}
}

func convertField(n sitter.Node, name string, src []byte) ast.Node {
	c := n.ChildByFieldName(name)
	if c.IsNull() {
		return nil
	}
	return wrap(convert(c, src))
}

func convertFieldAny(n sitter.Node, src []byte, names ...string) ast.Node {
	for _, name := range names {
		if r := convertField(n, name, src); r != nil {
			return r
		}
	}
	return nil
}

// wrap turns a possibly-nil *ast.Literal into a possibly-nil ast.Node,
// avoiding the classic "non-nil interface wrapping a nil pointer" trap
// when converted is passed around as the ast.Node interface.
func wrap(l *ast.Literal) ast.Node {
	if l == nil {
		return nil
	}
	return l
}

// nonNil collects the non-nil nodes among ns, in order. Statement and
// expression literals set both a Field and the same node's place in
// Children, since some walkers (containsYield) only ever look at
// Children.
func nonNil(ns ...ast.Node) []ast.Node {
	out := make([]ast.Node, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func exprStmtLiteral(expr ast.Node, ln int) *ast.Literal {
	return &ast.Literal{KindValue: ast.KindExpressionStmt, LineValue: ln, FieldsValue: field("expr", expr), ChildrenValue: nonNil(expr)}
}

func convertFirstNamed(n sitter.Node, src []byte) ast.Node {
	if n.NamedChildCount() == 0 {
		return nil
	}
	return wrap(convert(n.NamedChild(0), src))
}

func convertChildren(n sitter.Node, src []byte) []ast.Node {
	children := namedChildren(n)
	out := make([]ast.Node, 0, len(children))
	for _, c := range children {
		if conv := wrap(convert(c, src)); conv != nil {
			out = append(out, conv)
		}
	}
	return out
}

func convertChildrenAs(kind ast.Kind, n sitter.Node, src []byte) *ast.Literal {
	return &ast.Literal{KindValue: kind, LineValue: line(n), ChildrenValue: convertChildren(n, src)}
}

func stringContent(n sitter.Node, src []byte) string {
	raw := text(n, src)
	return strings.Trim(raw, "'\"")
}

func operatorText(n sitter.Node, src []byte) string {
	left := n.ChildByFieldName("left")
	if left.IsNull() {
		left = n.ChildByFieldName("operand")
	}
	right := n.ChildByFieldName("right")
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.IsNull() || c.IsNamed() {
			continue
		}
		if !left.IsNull() && c.StartByte() < left.EndByte() {
			continue
		}
		if !right.IsNull() && c.StartByte() >= right.StartByte() {
			continue
		}
		return text(c, src)
	}
	return ""
}

func convertNamespace(n sitter.Node, src []byte) *ast.Literal {
	fields := map[string]ast.Node{"name": convertField(n, "name", src)}
	if body := n.ChildByFieldName("body"); !body.IsNull() {
		fields["body"] = wrap(convert(body, src))
	}
	return &ast.Literal{KindValue: ast.KindNamespaceDecl, LineValue: line(n), FieldsValue: fields}
}

func convertUseDecl(n sitter.Node, src []byte) *ast.Literal {
	var clauses []ast.Node
	for _, c := range namedChildren(n) {
		if c.Type() != "namespace_use_clause" && c.Type() != "namespace_aliasing_clause" {
			continue
		}
		fields := map[string]ast.Node{"name": convertField(c, "name", src)}
		if alias := c.ChildByFieldName("alias"); !alias.IsNull() {
			fields["alias"] = wrap(convert(alias, src))
		}
		clauses = append(clauses, &ast.Literal{KindValue: ast.KindUseClause, LineValue: line(c), FieldsValue: fields})
	}
	return &ast.Literal{KindValue: ast.KindUseDecl, LineValue: line(n), ChildrenValue: clauses}
}

func convertClassLike(kind ast.Kind, n sitter.Node, src []byte) *ast.Literal {
	fields := map[string]ast.Node{"name": convertField(n, "name", src)}
	var flags ast.Flag
	if hasChildOfType(n, "abstract_modifier") {
		flags |= ast.FlagAbstract
	}
	if hasChildOfType(n, "final_modifier") {
		flags |= ast.FlagFinal
	}
	if base := childOfType(n, "base_clause"); !base.IsNull() {
		fields["extends"] = wrap(convertChildrenAs(ast.KindBlock, base, src))
	}
	if impl := childOfType(n, "class_interface_clause"); !impl.IsNull() {
		fields["implements"] = wrap(convertChildrenAs(ast.KindBlock, impl, src))
	}
	if body := n.ChildByFieldName("body"); !body.IsNull() {
		fields["body"] = wrap(convert(body, src))
	}
	return &ast.Literal{KindValue: kind, LineValue: line(n), FlagsValue: flags, FieldsValue: fields}
}

func convertMethodOrFunction(kind ast.Kind, n sitter.Node, src []byte) *ast.Literal {
	flags := convertModifiersWithSource(n, src)
	if hasChildOfType(n, "reference_modifier") {
		flags |= ast.FlagReturnsRef
	}
	if containsYield(n) {
		flags |= ast.FlagYields
	}
	fields := map[string]ast.Node{
		"name":   convertField(n, "name", src),
		"params": convertField(n, "parameters", src),
		"body":   convertField(n, "body", src),
	}
	if rt := n.ChildByFieldName("return_type"); !rt.IsNull() {
		fields["returnType"] = wrap(&ast.Literal{KindValue: ast.KindTypeExpr, LineValue: line(rt), TextValue: text(rt, src)})
	}
	return &ast.Literal{KindValue: kind, LineValue: line(n), FlagsValue: flags, DocValue: docCommentBefore(n, src), FieldsValue: fields}
}

func convertModifiersWithSource(n sitter.Node, src []byte) ast.Flag {
	var flags ast.Flag
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "static_modifier":
			flags |= ast.FlagStatic
		case "abstract_modifier":
			flags |= ast.FlagAbstract
		case "final_modifier":
			flags |= ast.FlagFinal
		case "readonly_modifier":
			flags |= ast.FlagReadonly
		case "visibility_modifier":
			v := text(c, src)
			switch {
			case strings.Contains(v, "private"):
				flags |= ast.FlagPrivate
			case strings.Contains(v, "protected"):
				flags |= ast.FlagProtected
			default:
				flags |= ast.FlagPublic
			}
		}
	}
	return flags
}

func containsYield(n sitter.Node) bool {
	if n.Type() == "yield_expression" {
		return true
	}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "method_declaration", "function_definition", "anonymous_function_creation_expression", "arrow_function":
			continue
		}
		if containsYield(c) {
			return true
		}
	}
	return false
}

// docCommentBefore returns the comment immediately preceding n, the
// shape internal/types.ParseDocComment expects. tree-sitter attaches
// comments as independent siblings, not as a field, so this walks n's
// previous siblings.
func docCommentBefore(n sitter.Node, src []byte) string {
	prev := n.PrevSibling()
	for !prev.IsNull() {
		switch prev.Type() {
		case "comment":
			return text(prev, src)
		case "visibility_modifier", "static_modifier", "abstract_modifier", "final_modifier", "readonly_modifier", "attribute_list":
			prev = prev.PrevSibling()
			continue
		default:
			return ""
		}
	}
	return ""
}

func convertPropertyDecl(n sitter.Node, src []byte) *ast.Literal {
	flags := convertModifiersWithSource(n, src)
	var typeNode ast.Node
	if tn := childOfType(n, "primitive_type"); !tn.IsNull() {
		typeNode = wrap(&ast.Literal{KindValue: ast.KindTypeExpr, LineValue: line(tn), TextValue: text(tn, src)})
	} else if tn := childOfType(n, "named_type"); !tn.IsNull() {
		typeNode = wrap(&ast.Literal{KindValue: ast.KindTypeExpr, LineValue: line(tn), TextValue: text(tn, src)})
	}

	var elements []ast.Node
	for _, c := range namedChildren(n) {
		if c.Type() != "property_element" {
			continue
		}
		fields := map[string]ast.Node{"name": convertField(c, "name", src)}
		if d := c.ChildByFieldName("default_value"); !d.IsNull() {
			fields["default"] = wrap(convert(d, src))
		}
		elements = append(elements, &ast.Literal{KindValue: ast.KindPropertyElement, LineValue: line(c), FieldsValue: fields})
	}

	fields := map[string]ast.Node{}
	if typeNode != nil {
		fields["type"] = typeNode
	}
	return &ast.Literal{KindValue: ast.KindPropertyDecl, LineValue: line(n), FlagsValue: flags, DocValue: docCommentBefore(n, src), FieldsValue: fields, ChildrenValue: elements}
}

func convertConstDecl(declKind, elementKind ast.Kind, n sitter.Node, src []byte) *ast.Literal {
	var elements []ast.Node
	for _, c := range namedChildren(n) {
		if c.Type() != "const_element" {
			continue
		}
		elements = append(elements, &ast.Literal{KindValue: elementKind, LineValue: line(c), FieldsValue: map[string]ast.Node{
			"name":  convertField(c, "name", src),
			"value": convertField(c, "value", src),
		}})
	}
	return &ast.Literal{KindValue: declKind, LineValue: line(n), ChildrenValue: elements}
}

func convertIf(n sitter.Node, src []byte) *ast.Literal {
	cond := convertField(n, "condition", src)
	then := convertField(n, "body", src)
	fields := map[string]ast.Node{
		"cond": cond,
		"then": then,
	}
	children := nonNil(cond, then)
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "else_if_clause":
			eiCond := convertField(c, "condition", src)
			eiThen := convertField(c, "body", src)
			children = append(children, &ast.Literal{KindValue: ast.KindElseIfClause, LineValue: line(c), FieldsValue: map[string]ast.Node{
				"cond": eiCond,
				"then": eiThen,
			}, ChildrenValue: nonNil(eiCond, eiThen)})
		case "else_clause":
			body := convertField(c, "body", src)
			children = append(children, &ast.Literal{KindValue: ast.KindElseClause, LineValue: line(c), FieldsValue: field("body", body), ChildrenValue: nonNil(body)})
		}
	}
	return &ast.Literal{KindValue: ast.KindIfStmt, LineValue: line(n), FieldsValue: fields, ChildrenValue: children}
}

// convertFor converts a for_statement into a KindForStmt whose init/cond/
// update fields are each a KindBlock container of the comma-separated
// expression list tree-sitter-php attaches under that field name, the
// shape internal/analysis.analyzeForStmt reads via its childrenOfField
// helper.
func convertFor(n sitter.Node, src []byte) *ast.Literal {
	init := convertFieldGroup(n, "initialize", src)
	cond := convertFieldGroup(n, "condition", src)
	update := convertFieldGroup(n, "update", src)
	body := convertField(n, "body", src)
	return &ast.Literal{KindValue: ast.KindForStmt, LineValue: line(n), FieldsValue: map[string]ast.Node{
		"init":   init,
		"cond":   cond,
		"update": update,
		"body":   body,
	}, ChildrenValue: nonNil(init, cond, update, body)}
}

// convertFieldGroup wraps the node tree-sitter attaches under a
// for_statement's initialize/condition/update field in a KindBlock
// container, the shape internal/analysis.analyzeForStmt's childrenOfField
// helper expects regardless of whether the clause holds one expression
// or a comma-separated sequence_expression of several.
func convertFieldGroup(n sitter.Node, name string, src []byte) ast.Node {
	c := n.ChildByFieldName(name)
	if c.IsNull() {
		return nil
	}
	if c.Type() == "sequence_expression" {
		return wrap(convertChildrenAs(ast.KindBlock, c, src))
	}
	return wrap(&ast.Literal{KindValue: ast.KindBlock, LineValue: line(c), ChildrenValue: nonNil(wrap(convert(c, src)))})
}

func convertForeach(n sitter.Node, src []byte) *ast.Literal {
	collection := convertField(n, "array", src)
	value := convertField(n, "value", src)
	key := convertField(n, "key", src)
	body := convertField(n, "body", src)
	return &ast.Literal{KindValue: ast.KindForeachStmt, LineValue: line(n), FieldsValue: map[string]ast.Node{
		"collection": collection,
		"key":        key,
		"value":      value,
		"body":       body,
	}, ChildrenValue: nonNil(collection, key, value, body)}
}

func convertTry(n sitter.Node, src []byte) *ast.Literal {
	body := convertField(n, "body", src)
	fields := map[string]ast.Node{"body": body}
	children := nonNil(body)
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "catch_clause":
			children = append(children, convertCatchClause(c, src))
		case "finally_clause":
			fb := convertField(c, "body", src)
			fields["finally"] = fb
			children = append(children, nonNil(fb)...)
		}
	}
	return &ast.Literal{KindValue: ast.KindTryStmt, LineValue: line(n), FieldsValue: fields, ChildrenValue: children}
}

func convertCatchClause(n sitter.Node, src []byte) *ast.Literal {
	variable := convertField(n, "name", src)
	body := convertField(n, "body", src)
	var types []ast.Node
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "named_type", "qualified_name", "name":
			types = append(types, wrap(convert(c, src)))
		case "union_type":
			types = append(types, convertChildren(c, src)...)
		}
	}
	typesNode := wrap(&ast.Literal{KindValue: ast.KindBlock, LineValue: line(n), ChildrenValue: types})
	return &ast.Literal{KindValue: ast.KindCatchClause, LineValue: line(n), FieldsValue: map[string]ast.Node{
		"variable": variable,
		"types":    typesNode,
		"body":     body,
	}, ChildrenValue: nonNil(variable, typesNode, body)}
}

// convertParam converts a simple/variadic/promoted parameter node into a
// KindParam literal whose "name"/"type"/"default" fields match the shape
// internal/parsepass.parseParams reads directly via Field, and whose Flags
// carry FlagVariadic, FlagByRef, and (for a constructor-promoted parameter)
// the visibility/readonly modifiers parsepass uses to detect promotion.
func convertParam(n sitter.Node, src []byte) *ast.Literal {
	flags := convertModifiersWithSource(n, src)
	if n.Type() == "variadic_parameter" {
		flags |= ast.FlagVariadic
	}
	if hasChildOfType(n, "reference_modifier") {
		flags |= ast.FlagByRef
	}

	fields := map[string]ast.Node{"name": convertField(n, "name", src)}
	if tn := n.ChildByFieldName("type"); !tn.IsNull() {
		fields["type"] = wrap(&ast.Literal{KindValue: ast.KindTypeExpr, LineValue: line(tn), TextValue: text(tn, src)})
	}
	if def := n.ChildByFieldName("default_value"); !def.IsNull() {
		fields["default"] = wrap(convert(def, src))
	}
	return &ast.Literal{KindValue: ast.KindParam, LineValue: line(n), FlagsValue: flags, FieldsValue: fields}
}

func convertAssignment(n sitter.Node, src []byte) *ast.Literal {
	target := convertField(n, "left", src)
	right := n.ChildByFieldName("right")
	if !right.IsNull() && right.Type() == "by_ref" {
		operand := right
		if right.NamedChildCount() > 0 {
			operand = right.NamedChild(0)
		}
		value := wrap(convert(operand, src))
		return &ast.Literal{KindValue: ast.KindAssignRef, LineValue: line(n), FieldsValue: map[string]ast.Node{
			"target": target,
			"value":  value,
		}, ChildrenValue: nonNil(target, value)}
	}
	value := convertField(n, "right", src)
	return &ast.Literal{KindValue: ast.KindAssign, LineValue: line(n), FieldsValue: map[string]ast.Node{
		"target": target,
		"value":  value,
	}, ChildrenValue: nonNil(target, value)}
}

func convertBinaryOp(n sitter.Node, src []byte) *ast.Literal {
	left := convertField(n, "left", src)
	right := convertField(n, "right", src)
	return &ast.Literal{KindValue: ast.KindBinaryOp, LineValue: line(n), TextValue: operatorText(n, src), FieldsValue: map[string]ast.Node{
		"left":  left,
		"right": right,
	}, ChildrenValue: nonNil(left, right)}
}
