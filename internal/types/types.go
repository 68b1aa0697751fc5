// Package types implements the Type / UnionType lattice: atomic types
// (native, class, generic-array, callable, template) and unordered sets of
// them, plus the can-cast-to relation and doc-comment driven parsing.
package types

import (
	"sort"
	"strings"

	"github.com/shinyvision/ward/internal/fqsen"
)

// Native enumerates the built-in scalar/structural type names.
type Native string

const (
	NativeArray    Native = "array"
	NativeBool     Native = "bool"
	NativeCallable Native = "callable"
	NativeFloat    Native = "float"
	NativeInt      Native = "int"
	NativeNull     Native = "null"
	NativeObject   Native = "object"
	NativeString   Native = "string"
	NativeMixed    Native = "mixed"
	NativeVoid     Native = "void"
	NativeResource Native = "resource"
	NativeStatic   Native = "static"
)

// shape discriminates which variant of Type is populated.
type shape uint8

const (
	shapeNative shape = iota
	shapeClass
	shapeGenericArray
	shapeCallable
	shapeTemplate
)

// Type is a tagged variant: exactly one of the shapes below is meaningful
// for a given value, determined by kind. Values are small and copied by
// value throughout the engine; there is no shared mutable state inside a
// Type.
type Type struct {
	kind shape

	native Native // shapeNative

	class      fqsen.FQSEN // shapeClass
	templArgs  []UnionType // shapeClass, optional template-parameter list

	element *Type // shapeGenericArray: element type (boxed to keep Type small and comparable by value where possible)

	closure fqsen.FQSEN // shapeCallable: synthesized FQSEN of the closure, zero if a bare "callable"

	templateName string // shapeTemplate
}

// NativeType constructs a native atomic type.
func NativeType(n Native) Type { return Type{kind: shapeNative, native: n} }

// ClassType constructs a class-typed atom, optionally parameterized by
// template arguments (for a generic class instantiated with concrete
// union types, e.g. Container<int>).
func ClassType(class fqsen.FQSEN, templArgs ...UnionType) Type {
	return Type{kind: shapeClass, class: class, templArgs: templArgs}
}

// GenericArrayType constructs T[] from an element type.
func GenericArrayType(elem Type) Type {
	e := elem
	return Type{kind: shapeGenericArray, element: &e}
}

// CallableType constructs a callable type, optionally bound to a closure's
// synthesized FQSEN (the zero FQSEN denotes a bare "callable").
func CallableType(closure fqsen.FQSEN) Type {
	return Type{kind: shapeCallable, closure: closure}
}

// TemplateType constructs a named template-parameter placeholder.
func TemplateType(name string) Type {
	return Type{kind: shapeTemplate, templateName: name}
}

func (t Type) IsNative() bool       { return t.kind == shapeNative }
func (t Type) IsClass() bool        { return t.kind == shapeClass }
func (t Type) IsGenericArray() bool { return t.kind == shapeGenericArray }
func (t Type) IsCallable() bool     { return t.kind == shapeCallable }
func (t Type) IsTemplate() bool     { return t.kind == shapeTemplate }

func (t Type) Native() Native { return t.native }
func (t Type) Class() fqsen.FQSEN { return t.class }
func (t Type) TemplateArgs() []UnionType { return t.templArgs }
func (t Type) ElementType() Type {
	if t.element == nil {
		return NativeType(NativeMixed)
	}
	return *t.element
}
func (t Type) Closure() fqsen.FQSEN  { return t.closure }
func (t Type) TemplateName() string  { return t.templateName }

// Equal reports structural deep equality: two types compare equal when
// every part of their structure matches.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case shapeNative:
		return t.native == o.native
	case shapeClass:
		if t.class != o.class || len(t.templArgs) != len(o.templArgs) {
			return false
		}
		for i := range t.templArgs {
			if !t.templArgs[i].Equal(o.templArgs[i]) {
				return false
			}
		}
		return true
	case shapeGenericArray:
		return t.ElementType().Equal(o.ElementType())
	case shapeCallable:
		return t.closure == o.closure
	case shapeTemplate:
		return t.templateName == o.templateName
	}
	return false
}

// String renders the canonical textual form used in diagnostics and the
// signature dump: native names as-is, class types as their FQSEN string,
// T[] for generic arrays, "callable" (optionally with a closure suffix) and
// bare template identifiers.
func (t Type) String() string {
	switch t.kind {
	case shapeNative:
		return string(t.native)
	case shapeClass:
		s := t.class.String()
		if len(t.templArgs) > 0 {
			parts := make([]string, len(t.templArgs))
			for i, a := range t.templArgs {
				parts[i] = a.String()
			}
			s += "<" + strings.Join(parts, ",") + ">"
		}
		return s
	case shapeGenericArray:
		return t.ElementType().String() + "[]"
	case shapeCallable:
		if t.closure.IsZero() {
			return "callable"
		}
		return "callable(" + t.closure.String() + ")"
	case shapeTemplate:
		return t.templateName
	}
	return "mixed"
}

// FromLiteralKind lifts a literal's native classification to a Type, the
// Go translation of Type::from_object(v) for the constant kinds the AST
// contract can observe directly (ast.KindIntLiteral and friends); callers
// that already know the native name can call NativeType directly.
func FromLiteralKind(n Native) Type { return NativeType(n) }

// --- UnionType ---------------------------------------------------------

// UnionType is an unordered set of Types. The zero value is the empty
// union. Equality of members is structural (Type.Equal); duplicates are
// never stored.
type UnionType struct {
	items []Type
}

// Empty returns the empty union.
func Empty() UnionType { return UnionType{} }

// FromTypes builds a union from the given types, deduplicating.
func FromTypes(ts ...Type) UnionType {
	var u UnionType
	for _, t := range ts {
		u = u.AddType(t)
	}
	return u
}

// IsEmpty reports whether the union has no member types.
func (u UnionType) IsEmpty() bool { return len(u.items) == 0 }

// Types returns the member types in a stable (insertion) order.
func (u UnionType) Types() []Type { return u.items }

// HasType reports whether t is a member, by structural equality.
func (u UnionType) HasType(t Type) bool {
	for _, x := range u.items {
		if x.Equal(t) {
			return true
		}
	}
	return false
}

// HasTemplateType reports whether any member is a template placeholder.
func (u UnionType) HasTemplateType() bool {
	for _, x := range u.items {
		if x.IsTemplate() {
			return true
		}
	}
	return false
}

// HasStaticType reports whether any member is the native "static" type.
func (u UnionType) HasStaticType() bool {
	for _, x := range u.items {
		if x.IsNative() && x.Native() == NativeStatic {
			return true
		}
	}
	return false
}

// AddType returns a new union with t added (a no-op clone if already
// present). UnionType is treated as a value everywhere: callers that need
// to "widen" a stored union must assign the result back.
func (u UnionType) AddType(t Type) UnionType {
	if u.HasType(t) {
		out := make([]Type, len(u.items))
		copy(out, u.items)
		return UnionType{items: out}
	}
	out := make([]Type, len(u.items), len(u.items)+1)
	copy(out, u.items)
	out = append(out, t)
	return UnionType{items: out}
}

// AddUnion returns the set union of u and o.
func (u UnionType) AddUnion(o UnionType) UnionType {
	out := u
	for _, t := range o.items {
		out = out.AddType(t)
	}
	return out
}

// RemoveType returns u with any member equal to t removed.
func (u UnionType) RemoveType(t Type) UnionType {
	out := make([]Type, 0, len(u.items))
	for _, x := range u.items {
		if !x.Equal(t) {
			out = append(out, x)
		}
	}
	return UnionType{items: out}
}

// AsGenericArrayTypes wraps every member as the element type of a generic
// array, e.g. {int,string} -> {int[],string[]}.
func (u UnionType) AsGenericArrayTypes() UnionType {
	var out UnionType
	for _, t := range u.items {
		out = out.AddType(GenericArrayType(t))
	}
	return out
}

// GenericArrayElementTypes unwraps every generic-array member to its
// element type; non-array members are dropped (mirrors the source's
// "unwrap, ignore non-arrays" behavior used when iterating foreach values).
func (u UnionType) GenericArrayElementTypes() UnionType {
	var out UnionType
	for _, t := range u.items {
		if t.IsGenericArray() {
			out = out.AddType(t.ElementType())
		}
	}
	return out
}

// AncestorLister supplies the ancestor-walking needed by AsExpandedTypes;
// internal/codebase.CodeBase implements it. Kept as a narrow interface here
// so internal/types never imports internal/codebase (L1 must not depend on
// L2).
type AncestorLister interface {
	DirectAncestors(class fqsen.FQSEN) []fqsen.FQSEN
}

// AsExpandedTypes walks every class-typed member's ancestor chain
// transitively (interfaces, traits, parent, in whatever order the lister
// returns them), adding each ancestor as its own Type. Cycle-safe: a
// visited set keyed by FQSEN prevents infinite recursion through malformed
// or mutually-referential hierarchies.
func (u UnionType) AsExpandedTypes(cb AncestorLister) UnionType {
	out := u
	for _, t := range u.items {
		if !t.IsClass() {
			continue
		}
		visited := map[fqsen.FQSEN]bool{t.Class(): true}
		queue := []fqsen.FQSEN{t.Class()}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, anc := range cb.DirectAncestors(cur) {
				if visited[anc] {
					continue
				}
				visited[anc] = true
				out = out.AddType(ClassType(anc))
				queue = append(queue, anc)
			}
		}
	}
	return out
}

// nativeCoercions encodes the built-in scalar coercion table consulted by
// CanCastToUnion: pairs (from, to) where a bare assignment/argument pass is
// considered type-safe even though the natives differ.
var nativeCoercions = map[Native]map[Native]bool{
	NativeNull: { // null -> anything is always fine
		NativeArray: true, NativeBool: true, NativeCallable: true, NativeFloat: true,
		NativeInt: true, NativeObject: true, NativeString: true, NativeMixed: true,
		NativeResource: true, NativeStatic: true,
	},
	NativeInt:    {NativeFloat: true, NativeString: true, NativeBool: true},
	NativeFloat:  {NativeInt: true, NativeString: true, NativeBool: true},
	NativeBool:   {NativeString: true, NativeInt: true, NativeFloat: true},
	NativeString: {NativeBool: true},
}

// CanCastTo reports whether the single type t can cast to some member of
// r, per the native-coercion and ancestor-expansion cast lattice below.
func (t Type) CanCastTo(r UnionType, cb AncestorLister) bool {
	if r.IsEmpty() {
		return false
	}
	if t.IsNative() && t.Native() == NativeMixed {
		return true
	}
	for _, rt := range r.items {
		if rt.Equal(t) {
			return true
		}
		if rt.IsNative() && rt.Native() == NativeMixed {
			return true
		}
	}
	if t.IsNative() {
		coercions := nativeCoercions[t.Native()]
		for _, rt := range r.items {
			if rt.IsNative() && coercions[rt.Native()] {
				return true
			}
		}
	}
	if t.IsGenericArray() {
		for _, rt := range r.items {
			if rt.IsGenericArray() && t.ElementType().CanCastTo(FromTypes(rt.ElementType()), cb) {
				return true
			}
			if rt.IsNative() && rt.Native() == NativeArray {
				return true
			}
		}
	}
	if t.IsClass() && cb != nil {
		expanded := FromTypes(t).AsExpandedTypes(cb)
		for _, anc := range expanded.items {
			for _, rt := range r.items {
				if rt.Equal(anc) {
					return true
				}
			}
		}
	}
	return false
}

// CanCastToUnion reports whether every member of u can cast to some member
// of r. An empty u trivially casts to anything (vacuous truth over no
// members). An empty r accepts nothing: every member of a non-empty u
// fails against it, so callers that treat an undeclared type as no
// constraint check r.IsEmpty() themselves.
func (u UnionType) CanCastToUnion(r UnionType, cb AncestorLister) bool {
	if u.IsEmpty() {
		return true
	}
	for _, t := range u.items {
		if !t.CanCastTo(r, cb) {
			return false
		}
	}
	return true
}

// WithTemplateParameterTypeMap substitutes every Template(id) member (and
// recursively, every template id appearing inside a class type's template
// argument list) using m; identifiers absent from m are kept unchanged.
// Substitution is shallow-deep: one pass, since m's values may not
// themselves contain nested template types.
func (u UnionType) WithTemplateParameterTypeMap(m map[string]UnionType) UnionType {
	var out UnionType
	for _, t := range u.items {
		switch {
		case t.IsTemplate():
			if sub, ok := m[t.TemplateName()]; ok {
				out = out.AddUnion(sub)
				continue
			}
			out = out.AddType(t)
		case t.IsClass() && len(t.templArgs) > 0:
			rewritten := make([]UnionType, len(t.templArgs))
			for i, arg := range t.templArgs {
				rewritten[i] = arg.WithTemplateParameterTypeMap(m)
			}
			out = out.AddType(ClassType(t.class, rewritten...))
		case t.IsGenericArray():
			elem := FromTypes(t.ElementType()).WithTemplateParameterTypeMap(m)
			for _, e := range elem.items {
				out = out.AddType(GenericArrayType(e))
			}
		default:
			out = out.AddType(t)
		}
	}
	return out
}

// Equal reports whether u and o contain the same set of types, order
// independent.
func (u UnionType) Equal(o UnionType) bool {
	if len(u.items) != len(o.items) {
		return false
	}
	for _, t := range u.items {
		if !o.HasType(t) {
			return false
		}
	}
	return true
}

// String renders the canonical "|"-joined textual form, sorted for
// determinism (diagnostics and the signature dump must not flicker between
// runs over the same input).
func (u UnionType) String() string {
	if u.IsEmpty() {
		return ""
	}
	parts := make([]string, len(u.items))
	for i, t := range u.items {
		parts[i] = t.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
