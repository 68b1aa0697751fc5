package analysis

import (
	"strings"

	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

// inferExpr implements the UnionTypeVisitor: pure type
// inference, one case per node kind. It never mutates ctx — any
// narrowing a caller wants from evaluating an expression (e.g. a
// condition) goes through condition.go instead.
func (a *Analyzer) inferExpr(ctx scope.Context, node ast.Node) types.UnionType {
	if ast.IsNil(node) {
		return types.Empty()
	}
	switch node.Kind() {
	case ast.KindVariable:
		return a.inferVariable(ctx, node)
	case ast.KindIntLiteral:
		return types.FromTypes(types.NativeType(types.NativeInt))
	case ast.KindFloatLiteral:
		return types.FromTypes(types.NativeType(types.NativeFloat))
	case ast.KindStringLiteral:
		return types.FromTypes(types.NativeType(types.NativeString))
	case ast.KindBoolLiteral:
		return types.FromTypes(types.NativeType(types.NativeBool))
	case ast.KindNullLiteral:
		return types.FromTypes(types.NativeType(types.NativeNull))
	case ast.KindArrayLiteral:
		return a.inferArrayLiteral(ctx, node)
	case ast.KindBinaryOp:
		return a.inferBinaryOp(ctx, node)
	case ast.KindUnaryOp:
		return a.inferExpr(ctx, node.Field("operand"))
	case ast.KindIncDec:
		return a.inferExpr(ctx, node.Field("operand"))
	case ast.KindTernary:
		return a.inferTernary(ctx, node)
	case ast.KindCoalesce:
		return a.inferExpr(ctx, node.Field("left")).AddUnion(a.inferExpr(ctx, node.Field("right")))
	case ast.KindCast:
		return a.inferCast(node)
	case ast.KindNew:
		return a.inferNew(ctx, node)
	case ast.KindInstanceof:
		return types.FromTypes(types.NativeType(types.NativeBool))
	case ast.KindClone:
		return a.inferExpr(ctx, node.Field("expr"))
	case ast.KindPropertyAccess:
		return a.inferPropertyAccess(ctx, node)
	case ast.KindStaticPropertyAccess:
		return a.inferStaticPropertyAccess(ctx, node)
	case ast.KindMethodCall:
		return a.inferMethodCall(ctx, node)
	case ast.KindStaticCall:
		return a.inferStaticCall(ctx, node)
	case ast.KindFunctionCall:
		return a.inferFunctionCall(ctx, node)
	case ast.KindArrayDim:
		return a.inferArrayDim(ctx, node)
	case ast.KindAssign:
		return a.evalAssign(ctx, node)
	case ast.KindAssignRef:
		// Open Question #4: assigning through a reference yields an empty
		// union rather than attempting to track the aliasing relationship.
		return types.Empty()
	case ast.KindClosureDecl:
		return a.inferClosure(ctx, node)
	case ast.KindName, ast.KindQualifiedName:
		return types.FromTypes(types.NativeType(types.NativeMixed))
	default:
		a.unanalyzable(ctx, node)
		return types.Empty()
	}
}

func (a *Analyzer) inferVariable(ctx scope.Context, node ast.Node) types.UnionType {
	name := strings.TrimPrefix(node.Text(), "$")
	if v, ok := ctx.Scope().Get(name); ok {
		return v.Type
	}
	if u, ok := scope.Superglobals()[name]; ok {
		return u
	}
	if ctx.IsInFunctionLikeScope() && ctx.StrictTypes() {
		a.raiseSuppressible(ctx, issue.UndeclaredVariable, ctx.File(), node.Line(), name)
	}
	return types.Empty()
}

func (a *Analyzer) inferArrayLiteral(ctx scope.Context, node ast.Node) types.UnionType {
	elements := node.Children()
	const sampleSize = 5
	var sampled types.UnionType
	n := len(elements)
	if n > sampleSize {
		n = sampleSize
	}
	homogeneous := true
	var common types.Type
	hasCommon := false
	for i := 0; i < n; i++ {
		el := elements[i]
		val := el.Field("value")
		if ast.IsNil(val) {
			val = el
		}
		t := a.inferExpr(ctx, val)
		sampled = sampled.AddUnion(t)
		for _, ty := range t.Types() {
			if !hasCommon {
				common, hasCommon = ty, true
			} else if !common.Equal(ty) {
				homogeneous = false
			}
		}
	}
	if homogeneous && hasCommon && len(sampled.Types()) == 1 {
		return types.FromTypes(types.GenericArrayType(common))
	}
	return types.FromTypes(types.NativeType(types.NativeArray))
}

func (a *Analyzer) inferBinaryOp(ctx scope.Context, node ast.Node) types.UnionType {
	left := a.inferExpr(ctx, node.Field("left"))
	right := a.inferExpr(ctx, node.Field("right"))
	op := node.Text()

	if op == "." && (isArrayOperand(left) || isArrayOperand(right)) {
		a.raiseSuppressible(ctx, issue.TypeArrayOperator, ctx.File(), node.Line(), op)
	} else if isComparisonOp(op) && (isArrayOperand(left) != isArrayOperand(right)) {
		a.raiseSuppressible(ctx, issue.TypeComparisonFromArray, ctx.File(), node.Line(), op)
	}
	return types.FromTypes(types.NativeType(binaryResult(op, left, right)))
}

func (a *Analyzer) inferTernary(ctx scope.Context, node ast.Node) types.UnionType {
	var thenType types.UnionType
	if then := node.Field("then"); !ast.IsNil(then) {
		thenType = a.inferExpr(ctx, then)
	} else {
		thenType = a.inferExpr(ctx, node.Field("cond")) // Elvis `$a ?: $b`
	}
	elseType := a.inferExpr(ctx, node.Field("else"))

	out := thenType.AddUnion(elseType)
	if thenType.IsEmpty() != elseType.IsEmpty() {
		out = out.AddType(types.NativeType(types.NativeMixed))
	}
	return out
}

func (a *Analyzer) inferCast(node ast.Node) types.UnionType {
	switch strings.ToLower(node.Text()) {
	case "int", "integer":
		return types.FromTypes(types.NativeType(types.NativeInt))
	case "float", "double":
		return types.FromTypes(types.NativeType(types.NativeFloat))
	case "string":
		return types.FromTypes(types.NativeType(types.NativeString))
	case "bool", "boolean":
		return types.FromTypes(types.NativeType(types.NativeBool))
	case "array":
		return types.FromTypes(types.NativeType(types.NativeArray))
	case "object":
		return types.FromTypes(types.NativeType(types.NativeObject))
	default:
		return types.FromTypes(types.NativeType(types.NativeMixed))
	}
}

func (a *Analyzer) inferNew(ctx scope.Context, node ast.Node) types.UnionType {
	classFQSEN := a.resolveClassNode(ctx, node.Field("class"))
	if classFQSEN.IsZero() {
		return types.Empty()
	}
	if cls, err := a.cb.GetClassByFQSEN(classFQSEN); err == nil {
		cls.AddReference(refLoc(ctx, node))
	}
	if len(a.templateNamesOf(classFQSEN)) == 0 {
		return types.FromTypes(types.ClassType(classFQSEN))
	}
	args := a.argTypes(ctx, node.Field("args"))
	unions := make([]types.UnionType, len(args))
	for i, t := range args {
		unions[i] = t
	}
	return types.FromTypes(types.ClassType(classFQSEN, unions...))
}

func (a *Analyzer) templateNamesOf(class fqsen.FQSEN) []string {
	cls, err := a.cb.GetClassByFQSEN(class)
	if err != nil {
		return nil
	}
	return cls.TemplateTypeNames
}

func (a *Analyzer) argTypes(ctx scope.Context, argsNode ast.Node) []types.UnionType {
	if ast.IsNil(argsNode) {
		return nil
	}
	children := argsNode.Children()
	out := make([]types.UnionType, len(children))
	for i, c := range children {
		out[i] = a.inferExpr(ctx, c)
	}
	return out
}

func (a *Analyzer) inferArrayDim(ctx scope.Context, node ast.Node) types.UnionType {
	base := a.inferExpr(ctx, node.Field("array"))
	elems := base.GenericArrayElementTypes()
	if !elems.IsEmpty() {
		return elems
	}
	return types.FromTypes(types.NativeType(types.NativeMixed))
}

func refLoc(ctx scope.Context, node ast.Node) codebase.Location {
	return codebase.Location{File: ctx.File(), Line: node.Line()}
}
