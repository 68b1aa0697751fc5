package analysis

import (
	"strings"

	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

// narrowCondition implements ConditionVisitor: evaluates
// a branch condition for its side effects (argument checks, reference
// tracking) and returns the scope narrowing that holds when the
// condition is true, and separately when it is false. Both returned
// Scopes are independent clones of ctx.Scope(); callers must not mutate
// ctx's own scope afterward and expect the narrowing to still apply.
func (a *Analyzer) narrowCondition(ctx scope.Context, cond ast.Node) (truthy, falsy *scope.Scope) {
	truthy, falsy = ctx.Scope().Clone(), ctx.Scope().Clone()
	if ast.IsNil(cond) {
		return truthy, falsy
	}

	switch cond.Kind() {
	case ast.KindInstanceof:
		a.narrowInstanceof(ctx, cond, truthy, falsy)
	case ast.KindUnaryOp:
		if cond.Text() == "!" {
			innerCtx := ctx
			t2, f2 := a.narrowCondition(innerCtx, cond.Field("operand"))
			return f2, t2
		}
		a.inferExpr(ctx, cond)
	case ast.KindBinaryOp:
		switch cond.Text() {
		case "&&", "and":
			lt, _ := a.narrowCondition(ctx, cond.Field("left"))
			rt, _ := a.narrowCondition(ctx.WithScope(lt), cond.Field("right"))
			return rt, falsy
		case "||", "or":
			_, lf := a.narrowCondition(ctx, cond.Field("left"))
			_, rf := a.narrowCondition(ctx.WithScope(lf), cond.Field("right"))
			return truthy, rf
		default:
			a.inferExpr(ctx, cond)
		}
	case ast.KindFunctionCall:
		if callee := cond.Field("callee"); !ast.IsNil(callee) {
			switch strings.ToLower(callee.Text()) {
			case "empty", "isset":
				a.narrowEmpty(ctx, cond)
			default:
				a.narrowIsFunction(ctx, cond, truthy, falsy)
			}
		}
	default:
		a.inferExpr(ctx, cond)
	}
	return truthy, falsy
}

// narrowInstanceof implements `$x instanceof Foo`: the truthy branch
// narrows $x's declared union to (the intersection with) Foo; the falsy
// branch is left unnarrowed since PHP has no native "not this type" union
// member to add.
func (a *Analyzer) narrowInstanceof(ctx scope.Context, cond ast.Node, truthy, falsy *scope.Scope) {
	expr := cond.Field("expr")
	classNode := cond.Field("class")
	a.inferExpr(ctx, expr)
	if expr.Kind() != ast.KindVariable {
		return
	}
	name := strings.TrimPrefix(expr.Text(), "$")
	class := a.resolveClassNode(ctx, classNode)
	if name == "" || class.IsZero() {
		return
	}
	truthy.Set(scope.Variable{Name: name, Type: types.FromTypes(types.ClassType(class))})
}

// narrowIsFunction implements the is_array/is_string/is_int/... family:
// same shape as instanceof but keyed by a native type name rather than a
// class.
func (a *Analyzer) narrowIsFunction(ctx scope.Context, cond ast.Node, truthy, falsy *scope.Scope) {
	callee := cond.Field("callee")
	if ast.IsNil(callee) {
		a.inferExpr(ctx, cond)
		return
	}
	native, ok := isFunctionNative(callee.Text())
	if !ok {
		a.inferExpr(ctx, cond)
		return
	}
	argsNode := cond.Field("args")
	if ast.IsNil(argsNode) || len(argsNode.Children()) != 1 {
		a.inferExpr(ctx, cond)
		return
	}
	arg := argsNode.Children()[0]
	a.inferExpr(ctx, arg)
	if arg.Kind() != ast.KindVariable {
		return
	}
	name := strings.TrimPrefix(arg.Text(), "$")
	if name == "" {
		return
	}

	// is_array on a variable already declared as a generic array (T[])
	// widens rather than overwrites: the narrowed type keeps the element
	// type information instead of collapsing it to the bare array native.
	if native == types.NativeArray {
		if existing, ok := ctx.Scope().Get(name); ok && hasGenericArrayMember(existing.Type) {
			truthy.Set(scope.Variable{Name: name, Type: existing.Type.AddType(types.NativeType(native)), Flags: existing.Flags})
			return
		}
	}

	truthy.Set(scope.Variable{Name: name, Type: types.FromTypes(types.NativeType(native))})
}

func hasGenericArrayMember(u types.UnionType) bool {
	for _, t := range u.Types() {
		if t.IsGenericArray() {
			return true
		}
	}
	return false
}

func isFunctionNative(name string) (types.Native, bool) {
	switch strings.ToLower(name) {
	case "is_array":
		return types.NativeArray, true
	case "is_string":
		return types.NativeString, true
	case "is_int", "is_integer", "is_long":
		return types.NativeInt, true
	case "is_float", "is_double":
		return types.NativeFloat, true
	case "is_bool":
		return types.NativeBool, true
	case "is_object":
		return types.NativeObject, true
	case "is_callable":
		return types.NativeCallable, true
	default:
		return "", false
	}
}

// narrowEmpty handles `empty($x)` / `isset($x)` conditions: neither
// actually narrows $x's declared type (PHP gives no way to express "set
// and non-empty" as a union member), but the argument is still walked so
// nested property/array-dim accesses inside it get their reference
// tracking and undeclared-access checks.
func (a *Analyzer) narrowEmpty(ctx scope.Context, cond ast.Node) {
	if ast.IsNil(cond) || cond.Kind() != ast.KindFunctionCall {
		return
	}
	callee := cond.Field("callee")
	if ast.IsNil(callee) {
		return
	}
	switch strings.ToLower(callee.Text()) {
	case "empty", "isset":
		if args := cond.Field("args"); !ast.IsNil(args) {
			for _, arg := range args.Children() {
				a.inferExpr(ctx, arg)
			}
		}
	}
}
