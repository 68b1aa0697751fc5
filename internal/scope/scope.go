// Package scope implements Scope and Context: the per-analysis-point
// record of variable bindings and the immutable bundle (file, line,
// namespace, use-map, scope, strict-types flag, suppression set) threaded
// through every visitor in internal/analysis.
package scope

import (
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/types"
)

// VarFlag is a bitfield of modifiers on a bound variable.
type VarFlag uint8

const (
	VarFlagByRef     VarFlag = 1 << iota // bound as a pass-by-reference parameter
	VarFlagSuperglobal // one of the hard-coded superglobals
)

// Variable is a name bound to a union type inside a Scope.
type Variable struct {
	Name  string
	Type  types.UnionType
	Flags VarFlag
}

// Kind discriminates the four Scope variants names.
type Kind uint8

const (
	KindGlobal Kind = iota
	KindClass
	KindFunctionLike
	KindBlock
)

// Scope holds the variable bindings visible at a point in the analysis.
// Function-like scopes are closed: they do not inherit bindings from an
// enclosing scope — does not inherit
// variables from outer"). Block scopes are created by cloning their
// parent's bindings (copy-on-branch,) so that later mutation of
// one branch never affects a sibling.
type Scope struct {
	kind          Kind
	class         fqsen.FQSEN // set for KindClass
	templateTypes map[string]types.UnionType
	vars          map[string]Variable
}

// NewGlobal creates the root scope, seeded with the hard-coded superglobal
// bindings.
func NewGlobal() *Scope {
	s := &Scope{kind: KindGlobal, vars: make(map[string]Variable)}
	for name, u := range Superglobals() {
		s.vars[name] = Variable{Name: name, Type: u, Flags: VarFlagSuperglobal}
	}
	return s
}

// NewClass creates a class scope carrying the class's own FQSEN and its
// template-parameter-to-union map (from @template doc tags), used to
// resolve Template(id) types appearing in members declared in this class's
// body.
func NewClass(class fqsen.FQSEN, templateTypes map[string]types.UnionType) *Scope {
	return &Scope{kind: KindClass, class: class, templateTypes: templateTypes, vars: make(map[string]Variable)}
}

// NewFunctionLike creates a fresh, empty, closed scope for a function,
// method, or closure body. use captures pre-seeded bindings (closure `use`
// variables captured from the outer scope, or a hydrated `this` variable);
// pass nil for none.
func NewFunctionLike(use map[string]Variable) *Scope {
	s := &Scope{kind: KindFunctionLike, vars: make(map[string]Variable, len(use))}
	for k, v := range use {
		s.vars[k] = v
	}
	return s
}

// Clone returns a deep-enough copy for copy-on-branch semantics: the
// variable map is copied so mutating the clone never affects s. Used by
// control-flow constructs before analyzing an alternative branch, and by
// ContextMergeVisitor to build scratch scopes for per-branch exploration.
func (s *Scope) Clone() *Scope {
	out := &Scope{kind: KindBlock, class: s.class, templateTypes: s.templateTypes, vars: make(map[string]Variable, len(s.vars))}
	for k, v := range s.vars {
		out.vars[k] = v
	}
	return out
}

func (s *Scope) Kind() Kind                 { return s.kind }
func (s *Scope) Class() fqsen.FQSEN         { return s.class }
func (s *Scope) IsClass() bool              { return s.kind == KindClass }

// TemplateTypes returns the class scope's @template substitution map, or
// nil if s is not (transitively, through Clone) rooted at a class scope.
func (s *Scope) TemplateTypes() map[string]types.UnionType { return s.templateTypes }

// Get returns the binding for name and whether it exists.
func (s *Scope) Get(name string) (Variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Has reports whether name is bound.
func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Set binds name, replacing any existing binding. Per // AssignmentVisitor, a plain-variable assignment "clones the variable
// (unless pass-by-reference parameter) and replaces its type" — callers
// that must preserve VarFlagByRef do so by reading the existing Variable
// first and carrying its Flags forward into the replacement.
func (s *Scope) Set(v Variable) {
	s.vars[v.Name] = v
}

// AddUnionType widens an existing binding's type with u, or creates a new
// binding of exactly u if name was unbound (used by is-dim plain-variable
// assignment,).
func (s *Scope) AddUnionType(name string, u types.UnionType) {
	if existing, ok := s.vars[name]; ok {
		existing.Type = existing.Type.AddUnion(u)
		s.vars[name] = existing
		return
	}
	s.vars[name] = Variable{Name: name, Type: u}
}

// Delete removes a binding, used when a merged branch determines a
// variable is no longer provably defined in strict mode.
func (s *Scope) Delete(name string) { delete(s.vars, name) }

// Names returns every currently bound variable name, in no particular
// order; callers needing determinism sort it themselves.
func (s *Scope) Names() []string {
	out := make([]string, 0, len(s.vars))
	for k := range s.vars {
		out = append(out, k)
	}
	return out
}

// Superglobals returns the hard-coded union types mandates for
// superglobal variables, independent of any CodeBase or config — these are
// always defined regardless of whether the analyzed program declares them.
func Superglobals() map[string]types.UnionType {
	str := types.FromTypes(types.NativeType(types.NativeString))
	strArr := str.AsGenericArrayTypes()
	intArr := types.FromTypes(types.NativeType(types.NativeInt)).AsGenericArrayTypes()
	arr := types.FromTypes(types.NativeType(types.NativeArray))

	return map[string]types.UnionType{
		"argv":                  strArr,
		"argc":                  types.FromTypes(types.NativeType(types.NativeInt)),
		"_GET":                  strArr.AddUnion(strArr.AsGenericArrayTypes()),
		"_POST":                 strArr.AddUnion(strArr.AsGenericArrayTypes()),
		"_COOKIE":               strArr.AddUnion(strArr.AsGenericArrayTypes()),
		"_REQUEST":              strArr.AddUnion(strArr.AsGenericArrayTypes()),
		"_SERVER":               arr,
		"_SESSION":              arr,
		"GLOBALS":               arr,
		"_ENV":                  strArr,
		"_FILES":                intArr.AsGenericArrayTypes().AddUnion(strArr.AsGenericArrayTypes()).AddUnion(intArr.AsGenericArrayTypes().AsGenericArrayTypes()).AddUnion(strArr.AsGenericArrayTypes().AsGenericArrayTypes()),
		"http_response_header": strArr.AddUnion(types.FromTypes(types.NativeType(types.NativeNull))),
	}
}
