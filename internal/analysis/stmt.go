package analysis

import (
	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

// analyzeStmt dispatches one statement node, threading ctx forward the
// way PreOrderVisitor/PostOrderVisitor together do in:
// scopes are opened before descending into a nested declaration and
// variable bindings flow out of a statement into whatever follows it in
// the same block.
func (a *Analyzer) analyzeStmt(ctx scope.Context, node ast.Node) scope.Context {
	if ast.IsNil(node) {
		return ctx
	}
	ctx = ctx.WithLine(node.Line())

	switch node.Kind() {
	case ast.KindBlock:
		for _, c := range node.Children() {
			ctx = a.analyzeStmt(ctx, c)
		}
	case ast.KindExpressionStmt:
		a.inferExpr(ctx, firstChildOrField(node))
	case ast.KindEchoStmt:
		for _, c := range node.Children() {
			a.inferExpr(ctx, c)
		}
	case ast.KindReturnStmt:
		if v := node.Field("value"); !ast.IsNil(v) {
			a.inferExpr(ctx, v)
		} else if len(node.Children()) > 0 {
			a.inferExpr(ctx, node.Children()[0])
		}
	case ast.KindIfStmt:
		ctx = a.analyzeIfStmt(ctx, node)
	case ast.KindTryStmt:
		ctx = a.analyzeTryStmt(ctx, node)
	case ast.KindForeachStmt:
		ctx = a.analyzeForeachStmt(ctx, node)
	case ast.KindForStmt:
		ctx = a.analyzeForStmt(ctx, node)
	case ast.KindWhileStmt:
		ctx = a.analyzeWhileStmt(ctx, node)
	case ast.KindClassDecl, ast.KindInterfaceDecl, ast.KindTraitDecl:
		a.analyzeClassLike(ctx, node)
	case ast.KindFunctionDecl:
		a.analyzeFunction(ctx, node)
	case ast.KindClosureDecl:
		a.inferExpr(ctx, node)
	default:
		a.inferExpr(ctx, node)
	}
	return ctx
}

func firstChildOrField(node ast.Node) ast.Node {
	if v := node.Field("expr"); !ast.IsNil(v) {
		return v
	}
	if children := node.Children(); len(children) > 0 {
		return children[0]
	}
	return nil
}

func (a *Analyzer) analyzeIfStmt(ctx scope.Context, node ast.Node) scope.Context {
	cond := node.Field("cond")
	truthy, falsy := a.narrowCondition(ctx, cond)

	var branchScopes []*scope.Scope

	thenCtx := ctx.WithScope(truthy)
	if then := node.Field("then"); !ast.IsNil(then) {
		thenCtx = a.analyzeStmt(thenCtx, then)
	}
	branchScopes = append(branchScopes, thenCtx.Scope())

	elseCtx := ctx.WithScope(falsy)
	hadElse := false
	for _, c := range node.Children() {
		switch c.Kind() {
		case ast.KindElseIfClause:
			elseIfCond := c.Field("cond")
			elseIfTruthy, elseIfFalsy := a.narrowCondition(elseCtx, elseIfCond)
			innerCtx := elseCtx.WithScope(elseIfTruthy)
			if body := c.Field("then"); !ast.IsNil(body) {
				innerCtx = a.analyzeStmt(innerCtx, body)
			}
			branchScopes = append(branchScopes, innerCtx.Scope())
			elseCtx = elseCtx.WithScope(elseIfFalsy)
		case ast.KindElseClause:
			hadElse = true
			innerCtx := elseCtx
			if body := c.Field("body"); !ast.IsNil(body) {
				innerCtx = a.analyzeStmt(innerCtx, body)
			}
			branchScopes = append(branchScopes, innerCtx.Scope())
		}
	}
	if !hadElse {
		branchScopes = append(branchScopes, elseCtx.Scope())
	}

	return ctx.WithScope(mergeScopes(ctx.StrictTypes(), branchScopes...))
}

func (a *Analyzer) analyzeTryStmt(ctx scope.Context, node ast.Node) scope.Context {
	var branchScopes []*scope.Scope

	tryCtx := ctx.WithScope(ctx.Scope().Clone())
	if body := node.Field("body"); !ast.IsNil(body) {
		tryCtx = a.analyzeStmt(tryCtx, body)
	}
	branchScopes = append(branchScopes, tryCtx.Scope())

	for _, c := range node.Children() {
		if c.Kind() != ast.KindCatchClause {
			continue
		}
		catchCtx := ctx.WithScope(ctx.Scope().Clone())
		if v := c.Field("variable"); !ast.IsNil(v) {
			a.bindTarget(catchCtx, v, a.exceptionTypeFor(catchCtx, c))
		}
		if body := c.Field("body"); !ast.IsNil(body) {
			catchCtx = a.analyzeStmt(catchCtx, body)
		}
		branchScopes = append(branchScopes, catchCtx.Scope())
	}

	merged := ctx.WithScope(mergeScopes(ctx.StrictTypes(), branchScopes...))
	if fin := node.Field("finally"); !ast.IsNil(fin) {
		merged = a.analyzeStmt(merged, fin)
	}
	return merged
}

// exceptionTypeFor resolves a catch clause's `types` field — one or more
// bare exception class names, PHP's `catch (FooException|BarException
// $e)` form — to the union of their class types.
func (a *Analyzer) exceptionTypeFor(ctx scope.Context, catchClause ast.Node) types.UnionType {
	typesNode := catchClause.Field("types")
	if ast.IsNil(typesNode) {
		return types.Empty()
	}
	var out types.UnionType
	for _, c := range typesNode.Children() {
		class := a.resolveClassNode(ctx, c)
		if class.IsZero() {
			continue
		}
		out = out.AddType(types.ClassType(class))
	}
	return out
}

func (a *Analyzer) analyzeForeachStmt(ctx scope.Context, node ast.Node) scope.Context {
	collection := a.inferExpr(ctx, node.Field("collection"))
	loopCtx := ctx.WithScope(ctx.Scope().Clone())

	elemType := collection.GenericArrayElementTypes()
	if key := node.Field("key"); !ast.IsNil(key) {
		a.bindTarget(loopCtx, key, elemType)
	}
	if val := node.Field("value"); !ast.IsNil(val) {
		a.bindTarget(loopCtx, val, elemType)
	}
	if body := node.Field("body"); !ast.IsNil(body) {
		loopCtx = a.analyzeStmt(loopCtx, body)
	}
	return ctx.WithScope(mergeScopes(ctx.StrictTypes(), ctx.Scope(), loopCtx.Scope()))
}

func (a *Analyzer) analyzeForStmt(ctx scope.Context, node ast.Node) scope.Context {
	for _, init := range childrenOfField(node, "init") {
		a.inferExpr(ctx, init)
	}
	loopCtx := ctx.WithScope(ctx.Scope().Clone())
	for _, cond := range childrenOfField(node, "cond") {
		a.inferExpr(loopCtx, cond)
	}
	if body := node.Field("body"); !ast.IsNil(body) {
		loopCtx = a.analyzeStmt(loopCtx, body)
	}
	for _, upd := range childrenOfField(node, "update") {
		a.inferExpr(loopCtx, upd)
	}
	return ctx.WithScope(mergeScopes(ctx.StrictTypes(), ctx.Scope(), loopCtx.Scope()))
}

func (a *Analyzer) analyzeWhileStmt(ctx scope.Context, node ast.Node) scope.Context {
	cond := node.Field("cond")
	truthy, _ := a.narrowCondition(ctx, cond)
	loopCtx := ctx.WithScope(truthy)
	if body := node.Field("body"); !ast.IsNil(body) {
		loopCtx = a.analyzeStmt(loopCtx, body)
	}
	return ctx.WithScope(mergeScopes(ctx.StrictTypes(), ctx.Scope(), loopCtx.Scope()))
}

func childrenOfField(node ast.Node, field string) []ast.Node {
	f := node.Field(field)
	if ast.IsNil(f) {
		return nil
	}
	return f.Children()
}
