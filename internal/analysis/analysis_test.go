package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/parsepass"
)

func lit(kind ast.Kind, text string, fields map[string]ast.Node) *ast.Literal {
	return &ast.Literal{KindValue: kind, TextValue: text, FieldsValue: fields}
}

func block(stmts ...ast.Node) *ast.Literal {
	return &ast.Literal{KindValue: ast.KindBlock, ChildrenValue: stmts}
}

func variable(name string) *ast.Literal {
	return lit(ast.KindVariable, "$"+name, nil)
}

func exprStmt(expr ast.Node) *ast.Literal {
	return &ast.Literal{KindValue: ast.KindExpressionStmt, FieldsValue: map[string]ast.Node{"expr": expr}}
}

func assign(target, value ast.Node) *ast.Literal {
	return &ast.Literal{KindValue: ast.KindAssign, FieldsValue: map[string]ast.Node{"target": target, "value": value}}
}

func intLit(n string) *ast.Literal {
	return lit(ast.KindIntLiteral, n, nil)
}

func params(ps ...ast.Node) *ast.Literal {
	return &ast.Literal{KindValue: ast.KindParam, ChildrenValue: ps}
}

func param(name string, flags ast.Flag) *ast.Literal {
	return &ast.Literal{
		KindValue:  ast.KindParam,
		FlagsValue: flags,
		FieldsValue: map[string]ast.Node{
			"name": lit(ast.KindName, "$"+name, nil),
		},
	}
}

func fnDecl(name string, ps *ast.Literal, body *ast.Literal) *ast.Literal {
	return &ast.Literal{
		KindValue: ast.KindFunctionDecl,
		FieldsValue: map[string]ast.Node{
			"name":   lit(ast.KindName, name, nil),
			"params": ps,
			"body":   body,
		},
	}
}

func program(stmts ...ast.Node) *ast.Literal {
	return &ast.Literal{KindValue: ast.KindProgram, ChildrenValue: stmts}
}

// runAnalysis parses root to populate cb (the ParseVisitor pass must
// complete before AnalyzeFile), then runs AnalyzeFile
// over the same tree and returns every buffered issue, unfiltered.
func runAnalysis(t *testing.T, cb *codebase.CodeBase, root ast.Node) []issue.Instance {
	t.Helper()
	parsepass.ParseFile(cb, "t.php", root)
	collector := issue.NewCollector()
	AnalyzeFile(cb, collector, "t.php", root)
	return collector.Flush()
}

func issuesOfType(instances []issue.Instance, want *issue.Issue) []issue.Instance {
	var out []issue.Instance
	for _, ii := range instances {
		if ii.Issue == want {
			out = append(out, ii)
		}
	}
	return out
}

func TestAnalyzeFileRaisesUndeclaredVariableInStrictFunction(t *testing.T) {
	root := program(
		&ast.Literal{KindValue: ast.KindDeclareStrictTypes},
		fnDecl("foo", params(), block(
			exprStmt(variable("x")),
		)),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Len(t, issuesOfType(out, issue.UndeclaredVariable), 1)
}

func TestAnalyzeFileNoUndeclaredVariableAfterAssignment(t *testing.T) {
	root := program(
		&ast.Literal{KindValue: ast.KindDeclareStrictTypes},
		fnDecl("foo", params(), block(
			exprStmt(assign(variable("x"), intLit("1"))),
			exprStmt(variable("x")),
		)),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Empty(t, issuesOfType(out, issue.UndeclaredVariable))
}

func TestAnalyzeFileRaisesUndeclaredVariableForUnrelatedIfBranch(t *testing.T) {
	cond := lit(ast.KindBoolLiteral, "true", nil)
	ifStmt := &ast.Literal{
		KindValue: ast.KindIfStmt,
		FieldsValue: map[string]ast.Node{
			"cond": cond,
			"then": block(exprStmt(assign(variable("x"), intLit("1")))),
		},
	}
	root := program(
		&ast.Literal{KindValue: ast.KindDeclareStrictTypes},
		fnDecl("foo", params(), block(
			ifStmt,
			exprStmt(variable("x")), // only bound on one branch, no else
		)),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Len(t, issuesOfType(out, issue.UndeclaredVariable), 1)
}

func TestAnalyzeFileNoUndeclaredVariableWhenBothBranchesBind(t *testing.T) {
	cond := lit(ast.KindBoolLiteral, "true", nil)
	elseClause := &ast.Literal{
		KindValue:   ast.KindElseClause,
		FieldsValue: map[string]ast.Node{"body": block(exprStmt(assign(variable("x"), intLit("2"))))},
	}
	ifStmt := &ast.Literal{
		KindValue: ast.KindIfStmt,
		FieldsValue: map[string]ast.Node{
			"cond": cond,
			"then": block(exprStmt(assign(variable("x"), intLit("1")))),
		},
		ChildrenValue: []ast.Node{elseClause},
	}
	root := program(
		&ast.Literal{KindValue: ast.KindDeclareStrictTypes},
		fnDecl("foo", params(), block(
			ifStmt,
			exprStmt(variable("x")),
		)),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Empty(t, issuesOfType(out, issue.UndeclaredVariable))
}

func classDecl(name string, body *ast.Literal) *ast.Literal {
	return &ast.Literal{
		KindValue:   ast.KindClassDecl,
		FieldsValue: map[string]ast.Node{"name": lit(ast.KindName, name, nil), "body": body},
	}
}

func newExpr(class string) *ast.Literal {
	return &ast.Literal{KindValue: ast.KindNew, FieldsValue: map[string]ast.Node{"class": lit(ast.KindName, class, nil)}}
}

func propertyAccess(object ast.Node, property string) *ast.Literal {
	return &ast.Literal{
		KindValue: ast.KindPropertyAccess,
		FieldsValue: map[string]ast.Node{
			"object":   object,
			"property": lit(ast.KindName, property, nil),
		},
	}
}

func TestAnalyzeFileRaisesUndeclaredPropertyAccess(t *testing.T) {
	root := program(
		classDecl("Foo", &ast.Literal{KindValue: ast.KindClassBody}),
		exprStmt(assign(variable("f"), newExpr("Foo"))),
		exprStmt(propertyAccess(variable("f"), "bar")),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Len(t, issuesOfType(out, issue.UndeclaredProperty), 1)
}

func propertyDecl(name string) *ast.Literal {
	return &ast.Literal{
		KindValue: ast.KindPropertyDecl,
		ChildrenValue: []ast.Node{
			&ast.Literal{KindValue: ast.KindPropertyElement, FieldsValue: map[string]ast.Node{"name": lit(ast.KindName, "$"+name, nil)}},
		},
	}
}

func TestAnalyzeFileNoUndeclaredPropertyWhenDeclared(t *testing.T) {
	root := program(
		classDecl("Foo", &ast.Literal{KindValue: ast.KindClassBody, ChildrenValue: []ast.Node{propertyDecl("bar")}}),
		exprStmt(assign(variable("f"), newExpr("Foo"))),
		exprStmt(propertyAccess(variable("f"), "bar")),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Empty(t, issuesOfType(out, issue.UndeclaredProperty))
}

func methodDecl(name string, ps *ast.Literal, body *ast.Literal) *ast.Literal {
	return &ast.Literal{
		KindValue: ast.KindMethodDecl,
		FieldsValue: map[string]ast.Node{
			"name":   lit(ast.KindName, name, nil),
			"params": ps,
			"body":   body,
		},
	}
}

func methodCall(object ast.Node, method string, args ...ast.Node) *ast.Literal {
	return &ast.Literal{
		KindValue: ast.KindMethodCall,
		FieldsValue: map[string]ast.Node{
			"object": object,
			"method": lit(ast.KindName, method, nil),
			"args":   &ast.Literal{ChildrenValue: args},
		},
	}
}

func TestAnalyzeFileRaisesParamTooManyOnMethodCall(t *testing.T) {
	root := program(
		classDecl("Foo", &ast.Literal{KindValue: ast.KindClassBody, ChildrenValue: []ast.Node{
			methodDecl("greet", params(), block()),
		}}),
		exprStmt(assign(variable("f"), newExpr("Foo"))),
		exprStmt(methodCall(variable("f"), "greet", intLit("1"))),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Len(t, issuesOfType(out, issue.ParamTooMany), 1)
}

func instanceofExpr(expr ast.Node, class string) *ast.Literal {
	return &ast.Literal{
		KindValue: ast.KindInstanceof,
		FieldsValue: map[string]ast.Node{
			"expr":  expr,
			"class": lit(ast.KindName, class, nil),
		},
	}
}

func TestAnalyzeFileInstanceofNarrowsForMethodCall(t *testing.T) {
	root := program(
		classDecl("Foo", &ast.Literal{KindValue: ast.KindClassBody, ChildrenValue: []ast.Node{
			methodDecl("greet", params(), block()),
		}}),
		fnDecl("useIt", params(param("x", 0)), block(
			&ast.Literal{
				KindValue: ast.KindIfStmt,
				FieldsValue: map[string]ast.Node{
					"cond": instanceofExpr(variable("x"), "Foo"),
					"then": block(exprStmt(methodCall(variable("x"), "greet"))),
				},
			},
		)),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Empty(t, issuesOfType(out, issue.UndeclaredClassMethod))
}

func staticCall(class string, method string, args ...ast.Node) *ast.Literal {
	return &ast.Literal{
		KindValue: ast.KindStaticCall,
		FieldsValue: map[string]ast.Node{
			"class":  lit(ast.KindName, class, nil),
			"method": lit(ast.KindName, method, nil),
			"args":   &ast.Literal{ChildrenValue: args},
		},
	}
}

func TestAnalyzeFileParentConstructorMustBeCalled(t *testing.T) {
	root := program(
		classDecl("Base", &ast.Literal{KindValue: ast.KindClassBody, ChildrenValue: []ast.Node{
			methodDecl("__construct", params(), block()),
		}}),
		&ast.Literal{
			KindValue: ast.KindClassDecl,
			FieldsValue: map[string]ast.Node{
				"name":    lit(ast.KindName, "Child", nil),
				"extends": lit(ast.KindQualifiedName, "Base", nil),
				"body": &ast.Literal{KindValue: ast.KindClassBody, ChildrenValue: []ast.Node{
					methodDecl("__construct", params(), block()),
				}},
			},
		},
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Len(t, issuesOfType(out, issue.TypeParentConstructorCalled), 1)
}

func TestAnalyzeFileParentConstructorCallSatisfiesCheck(t *testing.T) {
	root := program(
		classDecl("Base", &ast.Literal{KindValue: ast.KindClassBody, ChildrenValue: []ast.Node{
			methodDecl("__construct", params(), block()),
		}}),
		&ast.Literal{
			KindValue: ast.KindClassDecl,
			FieldsValue: map[string]ast.Node{
				"name":    lit(ast.KindName, "Child", nil),
				"extends": lit(ast.KindQualifiedName, "Base", nil),
				"body": &ast.Literal{KindValue: ast.KindClassBody, ChildrenValue: []ast.Node{
					methodDecl("__construct", params(), block(
						exprStmt(staticCall("parent", "__construct")),
					)),
				}},
			},
		},
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Empty(t, issuesOfType(out, issue.TypeParentConstructorCalled))
}

func TestAnalyzeFileUnreferencedClassIsFlagged(t *testing.T) {
	root := program(
		classDecl("Orphan", &ast.Literal{KindValue: ast.KindClassBody}),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Len(t, issuesOfType(out, issue.UnreferencedClass), 1)
}

func TestAnalyzeFileReferencedClassIsNotFlagged(t *testing.T) {
	root := program(
		classDecl("Used", &ast.Literal{KindValue: ast.KindClassBody}),
		exprStmt(newExpr("Used")),
	)

	out := runAnalysis(t, codebase.New(), root)

	require.Empty(t, issuesOfType(out, issue.UnreferencedClass))
}
