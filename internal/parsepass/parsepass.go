// Package parsepass implements ParseVisitor: the first of
// the two whole-program walks, populating CodeBase from declarations
// without resolving any expression types.
package parsepass

import (
	"strings"

	"github.com/tliron/commonlog"

	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

var log = commonlog.GetLoggerf("ward.parsepass")

// ParseFile walks root (expected ast.KindProgram) and registers every
// declaration it finds into cb. It returns the Context as it stood at the
// end of the file — namespace and use-map included — which callers rarely
// need beyond tests asserting on ParseVisitor's bookkeeping.
func ParseFile(cb *codebase.CodeBase, file string, root ast.Node) scope.Context {
	ctx := scope.NewGlobalContext(file)
	if ast.IsNil(root) {
		return ctx
	}
	for _, stmt := range root.Children() {
		ctx = visitTopLevelStmt(cb, ctx, stmt)
	}
	return ctx
}

func visitTopLevelStmt(cb *codebase.CodeBase, ctx scope.Context, node ast.Node) scope.Context {
	if ast.IsNil(node) {
		return ctx
	}
	ctx = ctx.WithLine(node.Line())

	switch node.Kind() {
	case ast.KindNamespaceDecl:
		return visitNamespace(cb, ctx, node)
	case ast.KindUseDecl:
		return visitUseDecl(ctx, node)
	case ast.KindDeclareStrictTypes:
		return ctx.WithStrictTypes(true)
	case ast.KindClassDecl:
		visitClassLike(cb, ctx, node, false, false)
	case ast.KindInterfaceDecl:
		visitClassLike(cb, ctx, node, true, false)
	case ast.KindTraitDecl:
		visitClassLike(cb, ctx, node, false, true)
	case ast.KindFunctionDecl:
		visitFunction(cb, ctx, node)
	case ast.KindGlobalConstDecl:
		visitGlobalConst(cb, ctx, node)
	}
	return ctx
}

func visitNamespace(cb *codebase.CodeBase, ctx scope.Context, node ast.Node) scope.Context {
	name := node.Text()
	if n := node.Field("name"); !ast.IsNil(n) {
		name = n.Text()
	}
	newCtx := ctx.WithNamespace(name)

	if body := node.Field("body"); !ast.IsNil(body) {
		// Brace-form: `namespace N { ... }` scopes only to its body; the
		// namespace reverts for whatever follows at the caller's level.
		inner := newCtx
		for _, stmt := range body.Children() {
			inner = visitTopLevelStmt(cb, inner, stmt)
		}
		return ctx
	}
	// Non-brace form: `namespace N;` applies to the rest of the file.
	return newCtx
}

func visitUseDecl(ctx scope.Context, node ast.Node) scope.Context {
	for _, clause := range node.Children() {
		if clause.Kind() != ast.KindUseClause {
			continue
		}
		kind := scope.UseClass
		if clause.Flags().Has(ast.FlagStatic) { // reuses FlagStatic to mark `use function`
			kind = scope.UseFunction
		}
		name := clause.Text()
		if n := clause.Field("name"); !ast.IsNil(n) {
			name = n.Text()
		}
		alias := shortName(name)
		if a := clause.Field("alias"); !ast.IsNil(a) {
			alias = a.Text()
		}
		ctx = ctx.WithUse(kind, alias, normalizeFQN(name))
	}
	return ctx
}

func shortName(fqn string) string {
	fqn = strings.TrimRight(fqn, "\\")
	if i := strings.LastIndexByte(fqn, '\\'); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}

func normalizeFQN(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), "\\")
}

func visitClassLike(cb *codebase.CodeBase, ctx scope.Context, node ast.Node, isInterface, isTrait bool) {
	name := fieldText(node, "name")
	if name == "" {
		log.Warningf("%s:%d: class-like declaration without a name, skipping", ctx.File(), node.Line())
		return
	}
	kind := fqsen.KindClass
	if isInterface {
		kind = fqsen.KindInterface
	} else if isTrait {
		kind = fqsen.KindTrait
	}
	classFQSEN := fqsen.New(kind, ctx.Namespace(), name)

	tags := types.ParseDocComment(node.Doc())
	var templateNames []string
	var inheritsRaw []string
	for _, tag := range tags {
		switch tag.Kind {
		case types.DocTemplate:
			if tag.Name != "" {
				templateNames = append(templateNames, tag.Name)
			}
		case types.DocInherits:
			if tag.Type != "" {
				inheritsRaw = append(inheritsRaw, tag.Type)
			}
		}
	}

	c := &codebase.Clazz{
		Element:           codebase.Element{FQSEN: classFQSEN, Flags: node.Flags(), File: ctx.File(), Line: node.Line(), Doc: node.Doc()},
		IsInterface:       isInterface,
		IsTrait:           isTrait,
		TemplateTypeNames: templateNames,
	}
	if len(inheritsRaw) > 0 {
		c.InheritsTypes = types.FromStringInContext(strings.Join(inheritsRaw, "|"), ctx)
	}

	if ext := node.Field("extends"); !ast.IsNil(ext) {
		names := classNamesFrom(ext)
		if isInterface {
			c.InterfaceFQSENs = append(c.InterfaceFQSENs, resolveAll(ctx, names)...)
		} else if len(names) > 0 {
			c.ParentFQSEN = resolveOne(ctx, names[0])
		}
	}
	if impl := node.Field("implements"); !ast.IsNil(impl) {
		c.InterfaceFQSENs = append(c.InterfaceFQSENs, resolveAll(ctx, classNamesFrom(impl))...)
	}

	assigned := cb.AddClass(c)

	classCtx := ctx.WithEnclosingClass(assigned, codebase.NewClassScope(assigned, templateNames))
	c.Scope = classCtx.Scope()

	if body := node.Field("body"); !ast.IsNil(body) {
		for _, member := range body.Children() {
			visitClassMember(cb, classCtx, member, c)
		}
	}
}

func classNamesFrom(node ast.Node) []string {
	if ast.IsNil(node) {
		return nil
	}
	var out []string
	for _, c := range node.Children() {
		if t := c.Text(); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 && node.Text() != "" {
		out = append(out, node.Text())
	}
	return out
}

func resolveOne(ctx scope.Context, name string) fqsen.FQSEN {
	ns, short := ctx.ResolveClassName(name)
	return fqsen.New(fqsen.KindClass, ns, short)
}

func resolveAll(ctx scope.Context, names []string) []fqsen.FQSEN {
	out := make([]fqsen.FQSEN, 0, len(names))
	for _, n := range names {
		out = append(out, resolveOne(ctx, n))
	}
	return out
}

func fieldText(node ast.Node, field string) string {
	f := node.Field(field)
	if ast.IsNil(f) {
		return ""
	}
	return f.Text()
}

func visitClassMember(cb *codebase.CodeBase, ctx scope.Context, node ast.Node, owner *codebase.Clazz) {
	if ast.IsNil(node) {
		return
	}
	switch node.Kind() {
	case ast.KindUseDecl: // trait use inside a class body
		for _, name := range classNamesFrom(node) {
			owner.TraitFQSENs = append(owner.TraitFQSENs, resolveOne(ctx, name))
		}
	case ast.KindMethodDecl:
		visitMethod(cb, ctx, node, owner)
	case ast.KindPropertyDecl:
		visitProperty(cb, ctx, node, owner)
	case ast.KindClassConstDecl:
		visitClassConst(cb, ctx, node, owner)
	}
}

func visitFunction(cb *codebase.CodeBase, ctx scope.Context, node ast.Node) {
	name := fieldText(node, "name")
	if name == "" {
		return
	}
	fnFQSEN := fqsen.New(fqsen.KindFunction, ctx.Namespace(), name)
	params := parseParams(ctx, node)
	ret := returnType(ctx, node)

	fn := &codebase.Func{
		Element:    codebase.Element{FQSEN: fnFQSEN, Flags: node.Flags(), File: ctx.File(), Line: node.Line(), Doc: node.Doc()},
		Params:     params,
		ReturnType: ret,
		Yields:     scanForYield(node),
	}
	if fn.Yields {
		coerced := &codebase.Method{ReturnType: fn.ReturnType, Element: fn.Element}
		coerced.Flags |= ast.FlagYields
		codebase.CoerceGeneratorReturnType(coerced)
		fn.ReturnType = coerced.ReturnType
	}
	cb.AddFunction(fn)
}

func visitMethod(cb *codebase.CodeBase, ctx scope.Context, node ast.Node, owner *codebase.Clazz) {
	name := fieldText(node, "name")
	if name == "" {
		return
	}
	methodFQSEN := fqsen.NewMember(fqsen.KindMethod, owner.FQSEN, name)
	params := parseParams(ctx, node)
	ret := returnType(ctx, node)

	m := &codebase.Method{
		Element:       codebase.Element{FQSEN: methodFQSEN, Flags: node.Flags(), File: ctx.File(), Line: node.Line(), Doc: node.Doc()},
		Owner:         owner.FQSEN,
		DefiningFQSEN: owner.FQSEN,
		Params:        params,
		ReturnType:    ret,
		IsConstructor: strings.EqualFold(name, "__construct"),
	}
	if scanForYield(node) {
		m.Flags |= ast.FlagYields
		codebase.CoerceGeneratorReturnType(m)
	}
	cb.AddMethod(m)

	// Constructor-promoted properties ("public int $x" in the parameter
	// list) declare a property as a side effect of the parameter.
	if m.IsConstructor {
		for i, p := range paramNodes(node) {
			if p.Flags()&(ast.FlagPublic|ast.FlagProtected|ast.FlagPrivate|ast.FlagReadonly) == 0 {
				continue
			}
			propFQSEN := fqsen.NewMember(fqsen.KindProperty, owner.FQSEN, params[i].Name)
			prop := &codebase.Property{
				Element: codebase.Element{FQSEN: propFQSEN, Flags: p.Flags(), File: ctx.File(), Line: p.Line(), Type: params[i].Type},
				Owner:   owner.FQSEN,
			}
			cb.AddProperty(prop)
		}
	}
}

func paramNodes(methodOrFn ast.Node) []ast.Node {
	params := methodOrFn.Field("params")
	if ast.IsNil(params) {
		return nil
	}
	return params.Children()
}

func parseParams(ctx scope.Context, methodOrFn ast.Node) []codebase.Param {
	var out []codebase.Param
	for _, p := range paramNodes(methodOrFn) {
		name := fieldText(p, "name")
		name = strings.TrimPrefix(name, "$")

		var declared types.UnionType
		if tn := p.Field("type"); !ast.IsNil(tn) {
			declared = types.FromStringInContext(tn.Text(), ctx)
		}
		// Merge in @param doc-comment type, if present on the enclosing
		// declaration.
		for _, tag := range types.ParseDocComment(methodOrFn.Doc()) {
			if tag.Kind == types.DocParam && tag.Name == name {
				declared = declared.AddUnion(types.FromStringInContext(tag.Type, ctx))
			}
		}

		hasDefault := false
		var defaultType types.UnionType
		if def := p.Field("default"); !ast.IsNil(def) {
			hasDefault = true
			defaultType = inferLiteralType(def)
		}

		out = append(out, codebase.Param{
			Name:        name,
			Type:        declared,
			HasDefault:  hasDefault,
			DefaultType: defaultType,
			Variadic:    p.Flags().Has(ast.FlagVariadic),
			ByRef:       p.Flags().Has(ast.FlagByRef),
		})
	}
	return out
}

// inferLiteralType gives a best-effort native type for a default-value
// expression node, used only to widen a parameter's declared union when no
// explicit type annotation is present. It does not attempt full expression
// inference — that is internal/analysis's job during the second pass.
func inferLiteralType(n ast.Node) types.UnionType {
	switch n.Kind() {
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
		return types.FromTypes(types.NativeType(types.NativeArray))
	default:
		return types.Empty()
	}
}

func returnType(ctx scope.Context, methodOrFn ast.Node) types.UnionType {
	var out types.UnionType
	if tn := methodOrFn.Field("returnType"); !ast.IsNil(tn) {
		out = types.FromStringInContext(tn.Text(), ctx)
	}
	for _, tag := range types.ParseDocComment(methodOrFn.Doc()) {
		if tag.Kind == types.DocReturn {
			out = out.AddUnion(types.FromStringInContext(tag.Type, ctx))
		}
	}
	return out
}

func scanForYield(node ast.Node) bool {
	body := node.Field("body")
	if ast.IsNil(body) {
		return false
	}
	return containsYield(body)
}

func containsYield(n ast.Node) bool {
	if ast.IsNil(n) {
		return false
	}
	if n.Flags().Has(ast.FlagYields) {
		return true
	}
	for _, c := range n.Children() {
		// Do not descend into a nested closure/function: its own yield
		// belongs to that closure, not the enclosing declaration.
		if c.Kind() == ast.KindClosureDecl || c.Kind() == ast.KindFunctionDecl {
			continue
		}
		if containsYield(c) {
			return true
		}
	}
	return false
}

func visitProperty(cb *codebase.CodeBase, ctx scope.Context, node ast.Node, owner *codebase.Clazz) {
	var declared types.UnionType
	if tn := node.Field("type"); !ast.IsNil(tn) {
		declared = types.FromStringInContext(tn.Text(), ctx)
	}
	for _, tag := range types.ParseDocComment(node.Doc()) {
		if tag.Kind == types.DocVar {
			declared = declared.AddUnion(types.FromStringInContext(tag.Type, ctx))
		}
	}

	for _, el := range node.Children() {
		if el.Kind() != ast.KindPropertyElement {
			continue
		}
		name := strings.TrimPrefix(fieldText(el, "name"), "$")
		if name == "" {
			continue
		}
		t := declared
		if def := el.Field("default"); !ast.IsNil(def) {
			t = t.AddUnion(inferLiteralType(def))
		}
		propFQSEN := fqsen.NewMember(fqsen.KindProperty, owner.FQSEN, name)
		prop := &codebase.Property{
			Element: codebase.Element{FQSEN: propFQSEN, Flags: node.Flags(), File: ctx.File(), Line: el.Line(), Type: t, Doc: node.Doc()},
			Owner:   owner.FQSEN,
		}
		if node.Flags().Has(ast.FlagStatic) {
			cb.AddStaticProperty(prop)
		} else {
			cb.AddProperty(prop)
		}
	}
}

func visitClassConst(cb *codebase.CodeBase, ctx scope.Context, node ast.Node, owner *codebase.Clazz) {
	for _, el := range node.Children() {
		if el.Kind() != ast.KindClassConstElement {
			continue
		}
		name := fieldText(el, "name")
		if name == "" {
			continue
		}
		t := types.Empty()
		if val := el.Field("value"); !ast.IsNil(val) {
			t = inferLiteralType(val)
		}
		constFQSEN := fqsen.NewMember(fqsen.KindClassConst, owner.FQSEN, name)
		cc := &codebase.ClassConstant{
			Element: codebase.Element{FQSEN: constFQSEN, Flags: node.Flags(), File: ctx.File(), Line: el.Line(), Type: t},
			Owner:   owner.FQSEN,
		}
		cb.AddClassConstant(cc)
	}
}

func visitGlobalConst(cb *codebase.CodeBase, ctx scope.Context, node ast.Node) {
	for _, el := range node.Children() {
		name := fieldText(el, "name")
		if name == "" {
			name = fieldText(node, "name")
		}
		if name == "" {
			continue
		}
		t := types.Empty()
		if val := el.Field("value"); !ast.IsNil(val) {
			t = inferLiteralType(val)
		} else if val := node.Field("value"); !ast.IsNil(val) {
			t = inferLiteralType(val)
		}
		constFQSEN := fqsen.New(fqsen.KindGlobalConst, ctx.Namespace(), name)
		gc := &codebase.GlobalConstant{Element: codebase.Element{FQSEN: constFQSEN, File: ctx.File(), Line: node.Line(), Type: t}}
		cb.AddGlobalConstant(gc)
	}
}
