package analysis

import (
	"strings"

	"github.com/shinyvision/ward/internal/argcheck"
	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

// resolveClassNode resolves a class-name-shaped expression node (the
// "class" field of New/Instanceof/StaticPropertyAccess/StaticCall) to an
// FQSEN through ctx's namespace-use map. Returns the zero FQSEN if node
// is dynamic (not a bare name) — callers treat that as unanalyzable for
// reference-tracking purposes but do not hard-fail.
func (a *Analyzer) resolveClassNode(ctx scope.Context, node ast.Node) fqsen.FQSEN {
	if ast.IsNil(node) {
		return fqsen.FQSEN{}
	}
	switch node.Kind() {
	case ast.KindName, ast.KindQualifiedName:
		name := node.Text()
		if strings.EqualFold(name, "self") || strings.EqualFold(name, "static") {
			return ctx.EnclosingClass()
		}
		if strings.EqualFold(name, "parent") {
			if cls, err := a.cb.GetClassByFQSEN(ctx.EnclosingClass()); err == nil {
				return cls.ParentFQSEN
			}
			return fqsen.FQSEN{}
		}
		ns, short := ctx.ResolveClassName(name)
		return fqsen.New(fqsen.KindClass, ns, short)
	default:
		return fqsen.FQSEN{}
	}
}

// classesOf returns every class-typed member of u, expanded with
// ancestors — the "look up the property/method on every class in the
// expression's class list" contract.
func (a *Analyzer) classesOf(u types.UnionType) []fqsen.FQSEN {
	expanded := u.AsExpandedTypes(a.cb)
	var out []fqsen.FQSEN
	for _, t := range expanded.Types() {
		if t.IsClass() {
			out = append(out, t.Class())
		}
	}
	return out
}

func propertyName(node ast.Node) (string, bool) {
	if n := node.Field("property"); !ast.IsNil(n) {
		if n.Kind() == ast.KindName {
			return n.Text(), true
		}
		return "", false // dynamic property access ($obj->{$expr}): unanalyzable by name
	}
	return "", false
}

func (a *Analyzer) inferPropertyAccess(ctx scope.Context, node ast.Node) types.UnionType {
	objType := a.inferExpr(ctx, node.Field("object"))
	name, ok := propertyName(node)
	if !ok {
		a.nodeShapeErr(ctx, node, "property")
		return types.Empty()
	}

	var out types.UnionType
	found := false
	for _, class := range a.classesOf(objType) {
		if p, ok := a.cb.LookupProperty(class, name); ok {
			p.AddReference(refLoc(ctx, node))
			t := p.Type
			if ctx.EnclosingClass() != class {
				t = t.RemoveType(types.NativeType(types.NativeStatic))
			}
			out = out.AddUnion(t)
			found = true
			continue
		}
		if m, ok := a.cb.LookupMethod(class, "__get"); ok {
			m.AddReference(refLoc(ctx, node))
			out = out.AddUnion(m.ReturnType)
			found = true
		}
	}
	if !found {
		a.raiseSuppressible(ctx, issue.UndeclaredProperty, ctx.File(), node.Line(), name)
	}
	return out
}

func (a *Analyzer) inferStaticPropertyAccess(ctx scope.Context, node ast.Node) types.UnionType {
	class := a.resolveClassNode(ctx, node.Field("class"))
	name, ok := propertyName(node)
	if !ok {
		a.nodeShapeErr(ctx, node, "property")
		return types.Empty()
	}
	if class.IsZero() {
		return types.Empty()
	}
	if p, ok := a.cb.LookupStaticProperty(class, name); ok {
		p.AddReference(refLoc(ctx, node))
		return p.Type
	}
	a.raiseSuppressible(ctx, issue.UndeclaredProperty, ctx.File(), node.Line(), name)
	return types.Empty()
}

func methodName(node ast.Node) (string, bool) {
	if n := node.Field("method"); !ast.IsNil(n) {
		if n.Kind() == ast.KindName {
			return n.Text(), true
		}
		return "", false
	}
	return "", false
}

func (a *Analyzer) checkCallAndInfer(ctx scope.Context, node ast.Node, callee argcheck.Callee, strict bool) types.UnionType {
	argNodes := []ast.Node{}
	if argsNode := node.Field("args"); !ast.IsNil(argsNode) {
		argNodes = argsNode.Children()
	}
	actuals := make([]argcheck.Actual, len(argNodes))
	for i, an := range argNodes {
		actuals[i] = argcheck.Actual{
			Type:     a.inferExpr(ctx, an),
			Text:     argDisplayText(an),
			IsVar:    an.Kind() == ast.KindVariable || an.Kind() == ast.KindArrayDim || an.Kind() == ast.KindPropertyAccess,
			Variadic: an.Flags().Has(ast.FlagVariadic),
		}
	}
	a.callIssues = argcheck.CheckCall(a.cb, a.callIssues, ctx.File(), node.Line(), callee, actuals, strict)
	return types.Empty()
}

// argDisplayText renders a short source-like form of an argument node for
// diagnostic messages ("Argument 1 ($x) is ..."). Only the common,
// unambiguous shapes get a real rendering; anything else falls back to
// the empty string, which argcheck renders as "<expr>".
func argDisplayText(n ast.Node) string {
	if ast.IsNil(n) {
		return ""
	}
	switch n.Kind() {
	case ast.KindVariable:
		return "$" + strings.TrimPrefix(n.Text(), "$")
	case ast.KindName, ast.KindQualifiedName:
		return n.Text()
	case ast.KindIntLiteral, ast.KindFloatLiteral, ast.KindBoolLiteral:
		return n.Text()
	case ast.KindStringLiteral:
		return "'" + n.Text() + "'"
	case ast.KindPropertyAccess:
		obj := argDisplayText(n.Field("object"))
		name, ok := propertyName(n)
		if obj == "" || !ok {
			return ""
		}
		return obj + "->" + name
	case ast.KindArrayDim:
		base := argDisplayText(n.Field("array"))
		if base == "" {
			return ""
		}
		return base + "[...]"
	default:
		return ""
	}
}

func (a *Analyzer) inferMethodCall(ctx scope.Context, node ast.Node) types.UnionType {
	objType := a.inferExpr(ctx, node.Field("object"))
	name, ok := methodName(node)
	if !ok {
		a.nodeShapeErr(ctx, node, "method")
		return types.Empty()
	}

	var out types.UnionType
	found := false
	for _, class := range a.classesOf(objType) {
		if m, ok := a.cb.LookupMethod(class, name); ok {
			m.AddReference(refLoc(ctx, node))
			out = out.AddUnion(a.checkCallAndInfer(ctx, node, methodCallee(m), ctx.StrictTypes()))
			out = out.AddUnion(m.ReturnType)
			found = true
			continue
		}
		if magic, ok := a.cb.LookupMethod(class, "__call"); ok {
			magic.AddReference(refLoc(ctx, node))
			out = out.AddUnion(magic.ReturnType)
			found = true
		}
	}
	if !found {
		a.raiseSuppressible(ctx, issue.UndeclaredClassMethod, ctx.File(), node.Line(), name)
	}
	return out
}

func (a *Analyzer) inferStaticCall(ctx scope.Context, node ast.Node) types.UnionType {
	class := a.resolveClassNode(ctx, node.Field("class"))
	name, ok := methodName(node)
	if !ok {
		a.nodeShapeErr(ctx, node, "method")
		return types.Empty()
	}
	if class.IsZero() {
		return types.Empty()
	}
	if m, ok := a.cb.LookupMethod(class, name); ok {
		m.AddReference(refLoc(ctx, node))
		a.checkCallAndInfer(ctx, node, methodCallee(m), ctx.StrictTypes())
		return m.ReturnType
	}
	if magic, ok := a.cb.LookupMethod(class, "__callstatic"); ok {
		magic.AddReference(refLoc(ctx, node))
		return magic.ReturnType
	}
	a.raiseSuppressible(ctx, issue.UndeclaredClassMethod, ctx.File(), node.Line(), name)
	return types.Empty()
}

func methodCallee(m *codebase.Method) argcheck.Callee {
	return argcheck.Callee{Name: m.FQSEN.String(), Params: m.Params}
}

func (a *Analyzer) inferFunctionCall(ctx scope.Context, node ast.Node) types.UnionType {
	callee := node.Field("callee")
	if ast.IsNil(callee) || (callee.Kind() != ast.KindName && callee.Kind() != ast.KindQualifiedName) {
		return types.Empty() // dynamic call target, e.g. $fn(); unanalyzable by name
	}
	name := callee.Text()
	ns, short := ctx.ResolveClassName(name)
	fnFQSEN := fqsen.New(fqsen.KindFunction, ns, short)

	if fn, err := a.cb.GetFunctionByFQSEN(fnFQSEN); err == nil {
		fn.AddReference(refLoc(ctx, node))
		if strings.Contains(fn.Doc, "@deprecated") {
			a.raiseSuppressible(ctx, issue.DeprecatedFunction, ctx.File(), node.Line(), name)
		}
		a.checkCallAndInfer(ctx, node, argcheck.Callee{Name: name, Params: fn.Params}, ctx.StrictTypes())
		if !fn.ReturnType.IsEmpty() {
			return fn.ReturnType
		}
	}

	if sig, ok := a.cb.BuiltinSignature(short); ok {
		callee := argcheck.FromBuiltinSignature(short, sig, ctx)
		a.checkCallAndInfer(ctx, node, callee, ctx.StrictTypes())
		return types.FromStringInContext(sig.Return, ctx)
	}
	return types.Empty()
}
