package analysis

import (
	"strings"

	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

// evalAssign implements AssignmentVisitor: evaluates the
// right-hand side, binds it to whatever shape the left-hand side has
// (plain variable, list-destructure, array-dim, property write), and
// returns the value of the assignment expression itself (the right-hand
// side's type, PHP's own assignment-expression semantics).
func (a *Analyzer) evalAssign(ctx scope.Context, node ast.Node) types.UnionType {
	target := node.Field("target")
	value := node.Field("value")
	rhs := a.inferExpr(ctx, value)

	a.bindTarget(ctx, target, rhs)
	return rhs
}

func (a *Analyzer) bindTarget(ctx scope.Context, target ast.Node, rhs types.UnionType) {
	if ast.IsNil(target) {
		return
	}
	switch target.Kind() {
	case ast.KindVariable:
		a.bindVariable(ctx, target, rhs)
	case ast.KindListDestructure:
		a.bindListDestructure(ctx, target, rhs)
	case ast.KindArrayDim:
		a.bindArrayDim(ctx, target, rhs)
	case ast.KindPropertyAccess:
		a.bindProperty(ctx, target, rhs)
	case ast.KindStaticPropertyAccess:
		a.bindStaticProperty(ctx, target, rhs)
	default:
		a.inferExpr(ctx, target) // evaluate for side effects/diagnostics; nothing to bind
	}
}

// bindVariable implements the plain-variable case: clone the variable
// (preserving VarFlagByRef so a by-reference parameter keeps propagating
// its aliasing) and replace its type with rhs.
func (a *Analyzer) bindVariable(ctx scope.Context, target ast.Node, rhs types.UnionType) {
	name := strings.TrimPrefix(target.Text(), "$")
	if name == "" {
		return
	}
	existing, ok := ctx.Scope().Get(name)
	flags := scope.VarFlag(0)
	if ok {
		flags = existing.Flags
	}
	ctx.Scope().Set(scope.Variable{Name: name, Type: rhs, Flags: flags})
}

// bindListDestructure implements `[$a, $b] = $expr` / `list($a, $b) =
// $expr`: each element variable is bound to the unwrapped element type of
// rhs ("array destructure binds each target to the
// array's element union").
func (a *Analyzer) bindListDestructure(ctx scope.Context, target ast.Node, rhs types.UnionType) {
	elementType := rhs.GenericArrayElementTypes()
	if elementType.IsEmpty() {
		elementType = types.FromTypes(types.NativeType(types.NativeMixed))
	}
	for _, el := range target.Children() {
		if el.Kind() != ast.KindListElement {
			continue
		}
		if v := el.Field("value"); !ast.IsNil(v) {
			a.bindTarget(ctx, v, elementType)
		}
	}
}

// bindArrayDim implements `$arr[$k] = $expr` and the special-cased
// `$GLOBALS['name'] = $expr` form. A plain local variable's declared
// union is widened (not replaced) with a generic array wrapping rhs,
// mirroring AddUnionType's is-dim contract in internal/scope.
func (a *Analyzer) bindArrayDim(ctx scope.Context, target ast.Node, rhs types.UnionType) {
	base := target.Field("array")
	if ast.IsNil(base) {
		return
	}
	if base.Kind() == ast.KindVariable && strings.TrimPrefix(base.Text(), "$") == "GLOBALS" {
		return // writing through the superglobal; no local binding to update
	}
	if base.Kind() != ast.KindVariable {
		a.inferExpr(ctx, base)
		return
	}
	name := strings.TrimPrefix(base.Text(), "$")
	if name == "" {
		return
	}
	wrapped := rhs.AsGenericArrayTypes()
	ctx.Scope().AddUnionType(name, wrapped)
}

func (a *Analyzer) bindProperty(ctx scope.Context, target ast.Node, rhs types.UnionType) {
	objType := a.inferExpr(ctx, target.Field("object"))
	name, ok := propertyName(target)
	if !ok {
		a.nodeShapeErr(ctx, target, "property")
		return
	}
	for _, class := range a.classesOf(objType) {
		if p, ok := a.cb.LookupProperty(class, name); ok {
			p.AddReference(refLoc(ctx, target))
			if !p.Type.IsEmpty() && !rhs.CanCastToUnion(p.Type, a.cb) {
				a.raiseSuppressible(ctx, issue.TypeMismatchProperty, ctx.File(), target.Line(), rhs.String(), p.FQSEN.String(), p.Type.String())
			}
			continue
		}
		if _, ok := a.cb.LookupMethod(class, "__set"); ok {
			continue
		}
		a.raiseSuppressible(ctx, issue.UndeclaredProperty, ctx.File(), target.Line(), name)
	}
}

// bindStaticProperty is a no-op: a static-property write binds nothing
// and never consults the class scope. LookupStaticProperty and its type
// check only ever run on the read side (inferStaticPropertyAccess).
func (a *Analyzer) bindStaticProperty(ctx scope.Context, target ast.Node, rhs types.UnionType) {
}
