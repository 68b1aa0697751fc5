package codebase

import (
	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

// Location is a source position, the unit internal/issue.Instance and
// reference-counting both key on.
type Location struct {
	File string
	Line int
}

// Visibility mirrors ast.Flag's visibility bits in a form easier to
// compare (public < protected < private), used by override checks.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
)

func visibilityFromFlags(f ast.Flag) Visibility {
	switch {
	case f.Has(ast.FlagPrivate):
		return VisibilityPrivate
	case f.Has(ast.FlagProtected):
		return VisibilityProtected
	default:
		return VisibilityPublic
	}
}

// Element holds the fields every declared symbol shares in common: name,
// FQSEN, flags, declaration context, union type, references,
// suppressed-issue list. Every concrete kind below embeds Element by
// value rather than through a deep class hierarchy;
// cross-element references elsewhere in the CodeBase are by FQSEN, never
// by pointer, so hydration never creates ownership cycles.
type Element struct {
	FQSEN      fqsen.FQSEN
	Flags      ast.Flag
	File       string
	Line       int
	Doc        string
	Type       types.UnionType
	References []Location
	Suppressed map[string]bool // per-declaration @suppress set
}

// AddReference records a use site, feeding the reference-counting
// dead-code check.
func (e *Element) AddReference(loc Location) { e.References = append(e.References, loc) }

// ReferenceCount returns len(References); exists mainly so call sites read
// as "e.ReferenceCount() == 0" rather than poking the slice directly.
func (e *Element) ReferenceCount() int { return len(e.References) }

func (e *Element) Visibility() Visibility { return visibilityFromFlags(e.Flags) }

// Param describes one formal parameter of a Method or Func.
type Param struct {
	Name        string
	Type        types.UnionType
	HasDefault  bool
	DefaultType types.UnionType
	Variadic    bool
	ByRef       bool
}

// RequiredCount returns how many leading parameters have no default and
// are not variadic.
func RequiredCount(params []Param) int {
	n := 0
	for _, p := range params {
		if p.HasDefault || p.Variadic {
			break
		}
		n++
	}
	return n
}

// Clazz is a class, interface, or trait declaration.
type Clazz struct {
	Element

	ParentFQSEN     fqsen.FQSEN
	InterfaceFQSENs []fqsen.FQSEN
	TraitFQSENs     []fqsen.FQSEN

	IsInterface bool
	IsTrait     bool

	TemplateTypeNames []string // from @template

	// InheritsTypes holds the resolved @inherits doc-tag union: one or
	// more class types, each optionally carrying template arguments (e.g.
	// "@inherits Container<int>" binds Container's template parameter to
	// {int}). Hydrate consults this, matching by ancestor FQSEN, to build
	// the template-parameter-type map WithTemplateParameterTypeMap needs
	// when rewriting an imported member's union type.
	InheritsTypes types.UnionType

	Methods        map[string]fqsen.FQSEN // local name (lowercased) -> method FQSEN
	Properties     map[string]fqsen.FQSEN
	StaticProperties map[string]fqsen.FQSEN
	Constants      map[string]fqsen.FQSEN

	Hydrated bool

	// Scope is the class scope (scope.KindClass) carrying this class's
	// @template map; hydration injects the "this" variable into it.
	Scope *scope.Scope

	AlternateID int // 0 for the first declaration, 1.. for later colliding ones
}

// Method is a class member function.
type Method struct {
	Element

	Owner         fqsen.FQSEN // the Clazz FQSEN this member currently belongs to
	DefiningFQSEN fqsen.FQSEN // the FQSEN of the class that originally declared it (preserved across import)

	Params     []Param
	ReturnType types.UnionType

	IsOverride    bool
	IsConstructor bool

	// CallsParentConstructor records whether a constructor's body contains
	// a parent::__construct() call, set by internal/analysis while it
	// walks the body (the only stage with the AST in hand). classcheck's
	// parent-ctor-called sweep reads it back after the whole program has
	// been analyzed.
	CallsParentConstructor bool
}

// Property is a class instance property.
type Property struct {
	Element

	Owner         fqsen.FQSEN
	DefiningFQSEN fqsen.FQSEN
}

// ClassConstant is a class constant.
type ClassConstant struct {
	Element

	Owner         fqsen.FQSEN
	DefiningFQSEN fqsen.FQSEN
}

// Func is a free (global) function.
type Func struct {
	Element

	Params     []Param
	ReturnType types.UnionType
	Yields     bool
}

// GlobalConstant is a top-level `const` or `define()`.
type GlobalConstant struct {
	Element
}

// generatorClassFQSEN names the built-in class whose type methods bearing
// ast.FlagYields are coerced to (applied here at declaration time as well, not only on
// import, since a yielding method generates this type regardless of
// whether it is ever inherited).
var generatorClassFQSEN = fqsen.New(fqsen.KindClass, "", "Generator")

// CoerceGeneratorReturnType widens m.ReturnType to include \Generator if m
// yields and its declared return type is not already some supertype of it
// (approximated here, absent a CodeBase-aware expansion, by checking for
// an exact \Generator or a mixed member; any other declared type, including
// an undeclared one, gets \Generator added).
func CoerceGeneratorReturnType(m *Method) {
	if m.Flags&ast.FlagYields == 0 {
		return
	}
	gen := types.ClassType(generatorClassFQSEN)
	if m.ReturnType.HasType(gen) || m.ReturnType.HasType(types.NativeType(types.NativeMixed)) {
		return
	}
	m.ReturnType = m.ReturnType.AddType(gen)
}
