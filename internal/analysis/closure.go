package analysis

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

// inferClosure analyzes an anonymous function/closure literal: its `use`
// clause captures bindings from the enclosing scope (by value, unless
// flagged by-ref) into a fresh function-like scope the body is then
// walked in, same as analyzeMethod/analyzeFunction do for a named
// declaration. The closure literal's own type is a callable carrying the
// closure FQSEN that closureFQSEN synthesizes; its parameter and return
// types are not part of that type.
func (a *Analyzer) inferClosure(ctx scope.Context, node ast.Node) types.UnionType {
	seed := map[string]scope.Variable{}
	if this, ok := ctx.Scope().Get("this"); ok {
		seed["this"] = this
	}
	if useNode := node.Field("use"); !ast.IsNil(useNode) {
		for _, u := range useNode.Children() {
			name := strings.TrimPrefix(fieldTextOr(u, "name", u.Text()), "$")
			if name == "" {
				continue
			}
			captured, ok := ctx.Scope().Get(name)
			flags := scope.VarFlag(0)
			if u.Flags().Has(ast.FlagByRef) {
				flags |= scope.VarFlagByRef
				if ok {
					seed[name] = scope.Variable{Name: name, Type: captured.Type, Flags: flags}
					continue
				}
			}
			if ok {
				seed[name] = scope.Variable{Name: name, Type: captured.Type, Flags: flags}
			} else {
				seed[name] = scope.Variable{Name: name, Type: types.Empty(), Flags: flags}
			}
		}
	}

	params := closureParamVars(ctx, node)
	for name, v := range params {
		seed[name] = v
	}

	closureCtx := ctx.WithScope(scope.NewFunctionLike(seed))
	if body := node.Field("body"); !ast.IsNil(body) {
		a.analyzeStmt(closureCtx, body)
	}
	return types.FromTypes(types.CallableType(closureFQSEN(ctx, node)))
}

// closureFQSEN synthesizes a stable identity for an anonymous function
// literal from its declaring file and line, since a closure has no
// declared name of its own to intern one from. The digest only needs to
// be stable and short, not cryptographically strong.
func closureFQSEN(ctx scope.Context, node ast.Node) fqsen.FQSEN {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", ctx.File(), node.Line())
	name := fmt.Sprintf("{closure:%08x}", h.Sum32())
	return fqsen.New(fqsen.KindClosure, ctx.Namespace(), name)
}

func closureParamVars(ctx scope.Context, node ast.Node) map[string]scope.Variable {
	out := map[string]scope.Variable{}
	paramsNode := node.Field("params")
	if ast.IsNil(paramsNode) {
		return out
	}
	for _, p := range paramsNode.Children() {
		name := strings.TrimPrefix(fieldTextOr(p, "name", ""), "$")
		if name == "" {
			continue
		}
		var declared types.UnionType
		if tn := p.Field("type"); !ast.IsNil(tn) {
			declared = types.FromStringInContext(tn.Text(), ctx)
		}
		flags := scope.VarFlag(0)
		if p.Flags().Has(ast.FlagByRef) {
			flags |= scope.VarFlagByRef
		}
		out[name] = scope.Variable{Name: name, Type: declared, Flags: flags}
	}
	return out
}

func fieldTextOr(node ast.Node, field, fallback string) string {
	f := node.Field(field)
	if ast.IsNil(f) {
		return fallback
	}
	return f.Text()
}
