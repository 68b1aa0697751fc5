// Package analysis implements the second whole-program pass: the
// AnalysisVisitor family that infers expression types, narrows them
// along control flow, and raises diagnostics against an already-hydrated
// CodeBase. ParseVisitor (internal/parsepass) must have completed over
// every file before AnalyzeFile runs on any of them.
package analysis

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/shinyvision/ward/internal/argcheck"
	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/classcheck"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/config"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

var log = commonlog.GetLoggerf("ward.analysis")

// Analyzer carries the state threaded through one file's walk: the
// CodeBase it reads/annotates, the Collector diagnostics flow into, the
// configuration gating classcheck's parent-ctor and dead-code rules, and a
// running count of nodes it declined to reason about (// "count how much of a file went unanalyzed").
type Analyzer struct {
	cb         *codebase.CodeBase
	collector  *issue.Collector
	cfg        config.Config
	unanalyzed int

	callIssues []issue.Instance
	deferred   []func()
}

// AnalyzeFile walks root (expected ast.KindProgram) under the zero Config —
// the permissive default every pre-existing caller relies on (no
// parent-constructor allowlist, dead-code detection left to the caller's
// own judgment). Equivalent to AnalyzeFileWithConfig(cb, collector, file,
// root, config.Config{}).
func AnalyzeFile(cb *codebase.CodeBase, collector *issue.Collector, file string, root ast.Node) {
	AnalyzeFileWithConfig(cb, collector, file, root, config.Config{})
}

// AnalyzeFileWithConfig is AnalyzeFile threaded with an explicit Config, the
// Go translation of running every AnalysisVisitor stage over one file's
// tree with Inputs in hand (parent-constructor-required list,
// dead-code detection).
func AnalyzeFileWithConfig(cb *codebase.CodeBase, collector *issue.Collector, file string, root ast.Node, cfg config.Config) {
	a := &Analyzer{cb: cb, collector: collector, cfg: cfg}
	ctx := scope.NewGlobalContext(file)
	if ast.IsNil(root) {
		return
	}
	for _, stmt := range root.Children() {
		ctx = a.analyzeTopLevelStmt(ctx, stmt)
	}
	for _, f := range a.deferred {
		f()
	}
	a.flushCallIssues()
}

func (a *Analyzer) flushCallIssues() {
	for _, ii := range a.callIssues {
		a.collector.Add(ii)
	}
	a.callIssues = nil
}

// raise appends a diagnostic unconditionally. Call sites that have a
// Context and want @suppress to apply should use raiseSuppressible
// instead; raise itself is for checks with no per-scope suppression
// concept (composition errors, unreferenced-symbol sweeps) that run
// after a class or function body has already been walked.
func (a *Analyzer) raise(i *issue.Issue, file string, line int, args ...any) {
	a.collector.Add(issue.New(i, file, line, args...))
}

// raiseSuppressible appends a diagnostic unless ctx has it suppressed via
// an enclosing @suppress doc-tag.
func (a *Analyzer) raiseSuppressible(ctx scope.Context, i *issue.Issue, file string, line int, args ...any) {
	if ctx.IsSuppressed(i.Type) {
		return
	}
	a.raise(i, file, line, args...)
}

// nodeShapeErr logs that node was missing an expected field (e.g. a
// dynamic `$obj->{$expr}` access has no plain-name "property" field) and
// folds the node into the same unanalyzed-count/diagnostic path as any
// other construct the walker declines to reason about.
func (a *Analyzer) nodeShapeErr(ctx scope.Context, node ast.Node, field string) {
	err := &NodeShapeError{Kind: node.Kind(), Field: field, File: ctx.File(), Line: node.Line()}
	log.Debugf("%s", err)
	a.unanalyzable(ctx, node)
}

// unanalyzable records a node the walker recognized but declined to
// reason about further, "catchall... always yields an
// empty union type and a single Unanalyzable low-severity diagnostic."
func (a *Analyzer) unanalyzable(ctx scope.Context, node ast.Node) {
	a.unanalyzed++
	if ast.IsNil(node) {
		return
	}
	err := &UnanalyzableError{Kind: node.Kind(), File: ctx.File(), Line: node.Line()}
	log.Debugf("%s", err)
	a.raiseSuppressible(ctx, issue.Unanalyzable, ctx.File(), node.Line(), fmt.Sprintf("node of kind %d", node.Kind()))
}

// --- top level -------------------------------------------------------------

func (a *Analyzer) analyzeTopLevelStmt(ctx scope.Context, node ast.Node) scope.Context {
	if ast.IsNil(node) {
		return ctx
	}
	ctx = ctx.WithLine(node.Line())

	switch node.Kind() {
	case ast.KindNamespaceDecl:
		return a.analyzeNamespace(ctx, node)
	case ast.KindUseDecl:
		return a.analyzeUseDecl(ctx, node)
	case ast.KindDeclareStrictTypes:
		return ctx.WithStrictTypes(true)
	case ast.KindClassDecl, ast.KindInterfaceDecl, ast.KindTraitDecl:
		a.analyzeClassLike(ctx, node)
	case ast.KindFunctionDecl:
		a.analyzeFunction(ctx, node)
	case ast.KindGlobalConstDecl:
		a.analyzeGlobalConst(ctx, node)
	default:
		a.analyzeStmt(ctx, node)
	}
	return ctx
}

func (a *Analyzer) analyzeNamespace(ctx scope.Context, node ast.Node) scope.Context {
	name := node.Text()
	if n := node.Field("name"); !ast.IsNil(n) {
		name = n.Text()
	}
	newCtx := ctx.WithNamespace(name)
	if body := node.Field("body"); !ast.IsNil(body) {
		inner := newCtx
		for _, stmt := range body.Children() {
			inner = a.analyzeTopLevelStmt(inner, stmt)
		}
		return ctx
	}
	return newCtx
}

func (a *Analyzer) analyzeUseDecl(ctx scope.Context, node ast.Node) scope.Context {
	for _, clause := range node.Children() {
		if clause.Kind() != ast.KindUseClause {
			continue
		}
		kind := scope.UseClass
		if clause.Flags().Has(ast.FlagStatic) {
			kind = scope.UseFunction
		}
		name := clause.Text()
		if n := clause.Field("name"); !ast.IsNil(n) {
			name = n.Text()
		}
		alias := name
		if i := strings.LastIndexByte(name, '\\'); i >= 0 {
			alias = name[i+1:]
		}
		if al := clause.Field("alias"); !ast.IsNil(al) {
			alias = al.Text()
		}
		ctx = ctx.WithUse(kind, alias, strings.TrimLeft(name, "\\"))
	}
	return ctx
}

func (a *Analyzer) analyzeGlobalConst(ctx scope.Context, node ast.Node) {
	for _, el := range node.Children() {
		if val := el.Field("value"); !ast.IsNil(val) {
			a.inferExpr(ctx, val)
		}
	}
}

// --- classes and functions -------------------------------------------------

func (a *Analyzer) analyzeClassLike(ctx scope.Context, node ast.Node) {
	name := fieldText(node, "name")
	if name == "" {
		return
	}
	kind := fqsen.KindClass
	switch node.Kind() {
	case ast.KindInterfaceDecl:
		kind = fqsen.KindInterface
	case ast.KindTraitDecl:
		kind = fqsen.KindTrait
	}
	classFQSEN := fqsen.New(kind, ctx.Namespace(), name)
	cls, err := a.cb.GetClassByFQSEN(classFQSEN)
	if err != nil {
		return
	}

	for _, ii := range classcheck.CheckExtendsImplements(a.cb, cls) {
		a.collector.Add(ii)
	}
	for _, f := range cls.Properties {
		if p, err := a.cb.GetPropertyByFQSEN(f); err == nil && p.DefiningFQSEN == cls.FQSEN {
			for _, ii := range classcheck.CheckPropertyTypeValidity(a.cb, p) {
				a.collector.Add(ii)
			}
		}
	}

	classCtx := ctx.WithEnclosingClass(classFQSEN, cls.Scope)
	body := node.Field("body")
	if ast.IsNil(body) {
		return
	}
	for _, member := range body.Children() {
		if member.Kind() == ast.KindMethodDecl {
			a.analyzeMethod(classCtx, member, cls)
		}
	}

	for _, ii := range classcheck.CheckComposition(a.cb, cls) {
		a.collector.Add(ii)
	}
	a.deferred = append(a.deferred, func() {
		for _, ii := range classcheck.CheckUnreferenced(a.cb, cls) {
			a.collector.Add(ii)
		}
	})
}

func containsParentConstructCall(n ast.Node) bool {
	if ast.IsNil(n) {
		return false
	}
	if n.Kind() == ast.KindStaticCall {
		if cn := n.Field("class"); !ast.IsNil(cn) && strings.EqualFold(cn.Text(), "parent") {
			if mn := n.Field("method"); !ast.IsNil(mn) && strings.EqualFold(mn.Text(), "__construct") {
				return true
			}
		}
	}
	for _, c := range n.Children() {
		if c.Kind() == ast.KindClosureDecl || c.Kind() == ast.KindFunctionDecl {
			continue
		}
		if containsParentConstructCall(c) {
			return true
		}
	}
	for _, f := range []string{"expr", "cond", "then", "else", "body", "value"} {
		c := n.Field(f)
		if ast.IsNil(c) || c.Kind() == ast.KindClosureDecl || c.Kind() == ast.KindFunctionDecl {
			continue
		}
		if containsParentConstructCall(c) {
			return true
		}
	}
	return false
}

func (a *Analyzer) analyzeMethod(classCtx scope.Context, node ast.Node, owner *codebase.Clazz) {
	name := fieldText(node, "name")
	if name == "" {
		return
	}
	methodFQSEN := fqsen.NewMember(fqsen.KindMethod, owner.FQSEN, name)
	m, err := a.cb.GetMethodByFQSEN(methodFQSEN)
	if err != nil {
		return
	}
	for _, ii := range classcheck.CheckParameterTypeValidity(a.cb, m.Params, m.ReturnType, m.File, m.Line) {
		a.collector.Add(ii)
	}
	if node.Flags().Has(ast.FlagAbstract) {
		return
	}

	fnCtx := classCtx.WithEnclosingFunc(methodFQSEN, bodyScope(owner.FQSEN, m.Params))
	a.checkOverrides(m, owner)
	a.analyzeBody(fnCtx, node)

	if m.IsConstructor {
		m.CallsParentConstructor = containsParentConstructCall(node.Field("body"))
		for _, ii := range classcheck.CheckParentConstructorCalled(a.cb, owner, m, a.cfg) {
			a.collector.Add(ii)
		}
	}
}

func (a *Analyzer) checkOverrides(m *codebase.Method, owner *codebase.Clazz) {
	if !m.IsOverride || m.IsConstructor {
		return
	}
	for _, anc := range a.cb.DirectAncestors(owner.FQSEN) {
		if ancClass, err := a.cb.GetClassByFQSEN(anc); err != nil || ancClass.IsTrait {
			continue
		}
		if ancestorMethod, ok := a.cb.LookupMethod(anc, m.FQSEN.Name()); ok && ancestorMethod.FQSEN != m.FQSEN {
			for _, ii := range argcheck.CheckOverride(a.cb, m, ancestorMethod) {
				a.collector.Add(ii)
			}
		}
	}
}

func (a *Analyzer) analyzeFunction(ctx scope.Context, node ast.Node) {
	name := fieldText(node, "name")
	if name == "" {
		return
	}
	fnFQSEN := fqsen.New(fqsen.KindFunction, ctx.Namespace(), name)
	fn, err := a.cb.GetFunctionByFQSEN(fnFQSEN)
	if err != nil {
		return
	}
	for _, ii := range classcheck.CheckParameterTypeValidity(a.cb, fn.Params, fn.ReturnType, fn.File, fn.Line) {
		a.collector.Add(ii)
	}
	fnCtx := ctx.WithEnclosingFunc(fnFQSEN, bodyScope(fqsen.FQSEN{}, fn.Params))
	a.analyzeBody(fnCtx, node)
	a.deferred = append(a.deferred, func() {
		if fn.ReferenceCount() == 0 {
			a.raise(issue.UnreferencedFunction, fn.File, fn.Line, fn.FQSEN.String())
		}
	})
}

// bodyScope builds the closed function-like scope a method or function
// body analyzes in, seeded with its formal parameters and, for a method,
// the "this" binding (: function-like scopes do not inherit
// from any outer scope, so $this has to be injected here rather than
// relied on from the class scope hydration already set up).
func bodyScope(class fqsen.FQSEN, params []codebase.Param) *scope.Scope {
	seed := make(map[string]scope.Variable, len(params)+1)
	for _, p := range params {
		flag := scope.VarFlag(0)
		if p.ByRef {
			flag |= scope.VarFlagByRef
		}
		t := p.Type
		if p.HasDefault {
			t = t.AddUnion(p.DefaultType)
		}
		seed[p.Name] = scope.Variable{Name: p.Name, Type: t, Flags: flag}
	}
	if !class.IsZero() {
		seed["this"] = scope.Variable{Name: "this", Type: types.FromTypes(types.ClassType(class))}
	}
	return scope.NewFunctionLike(seed)
}

func (a *Analyzer) analyzeBody(ctx scope.Context, declNode ast.Node) {
	body := declNode.Field("body")
	if ast.IsNil(body) {
		return
	}
	for _, stmt := range body.Children() {
		ctx = a.analyzeStmt(ctx, stmt)
	}
}

func fieldText(node ast.Node, field string) string {
	f := node.Field(field)
	if ast.IsNil(f) {
		return ""
	}
	return f.Text()
}
