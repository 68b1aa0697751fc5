package classcheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/config"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/types"
)

func classFQSEN(name string) fqsen.FQSEN { return fqsen.New(fqsen.KindClass, "", name) }

func newClass(cb *codebase.CodeBase, name string, parent fqsen.FQSEN) *codebase.Clazz {
	f := classFQSEN(name)
	cls := &codebase.Clazz{
		Element:     codebase.Element{FQSEN: f, File: "x.php", Line: 1},
		ParentFQSEN: parent,
	}
	cb.AddClass(cls)
	return cls
}

func TestCheckExtendsImplementsUndeclaredParent(t *testing.T) {
	cb := codebase.New()
	cls := newClass(cb, "Child", classFQSEN("Missing"))

	out := CheckExtendsImplements(cb, cls)
	require.Len(t, out, 1)
	require.Equal(t, issue.UndeclaredExtendedClass, out[0].Issue)
}

func TestCheckExtendsImplementsUndeclaredInterfaceAndTrait(t *testing.T) {
	cb := codebase.New()
	cls := newClass(cb, "Child", fqsen.FQSEN{})
	cls.InterfaceFQSENs = []fqsen.FQSEN{classFQSEN("Iface")}
	cls.TraitFQSENs = []fqsen.FQSEN{classFQSEN("Tr")}

	out := CheckExtendsImplements(cb, cls)
	require.Len(t, out, 2)
}

func TestCheckExtendsImplementsDeclaredParentIsClean(t *testing.T) {
	cb := codebase.New()
	parent := newClass(cb, "Parent", fqsen.FQSEN{})
	cls := newClass(cb, "Child", parent.FQSEN)

	require.Empty(t, CheckExtendsImplements(cb, cls))
}

func addConstructor(cb *codebase.CodeBase, owner *codebase.Clazz, calls bool) *codebase.Method {
	m := &codebase.Method{
		Element:       codebase.Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, owner.FQSEN, "__construct"), File: owner.File, Line: 2},
		Owner:         owner.FQSEN,
		DefiningFQSEN: owner.FQSEN,
		IsConstructor: true,
		CallsParentConstructor: calls,
	}
	cb.AddMethod(m)
	if owner.Methods == nil {
		owner.Methods = map[string]fqsen.FQSEN{}
	}
	owner.Methods["__construct"] = m.FQSEN
	return m
}

func TestCheckParentConstructorCalledMissingCallRaises(t *testing.T) {
	cb := codebase.New()
	parent := newClass(cb, "Parent", fqsen.FQSEN{})
	addConstructor(cb, parent, false)
	child := newClass(cb, "Child", parent.FQSEN)
	ctor := addConstructor(cb, child, false)

	out := CheckParentConstructorCalled(cb, child, ctor, config.Config{})
	require.Len(t, out, 1)
	require.Equal(t, issue.TypeParentConstructorCalled, out[0].Issue)
}

func TestCheckParentConstructorCalledSatisfiedCall(t *testing.T) {
	cb := codebase.New()
	parent := newClass(cb, "Parent", fqsen.FQSEN{})
	addConstructor(cb, parent, false)
	child := newClass(cb, "Child", parent.FQSEN)
	ctor := addConstructor(cb, child, true)

	require.Empty(t, CheckParentConstructorCalled(cb, child, ctor, config.Config{}))
}

func TestCheckParentConstructorCalledNoParentCtor(t *testing.T) {
	cb := codebase.New()
	parent := newClass(cb, "Parent", fqsen.FQSEN{})
	child := newClass(cb, "Child", parent.FQSEN)
	ctor := addConstructor(cb, child, false)

	require.Empty(t, CheckParentConstructorCalled(cb, child, ctor, config.Config{}))
}

func TestCheckParentConstructorCalledAllowlistExcludesOtherParents(t *testing.T) {
	cb := codebase.New()
	parent := newClass(cb, "Parent", fqsen.FQSEN{})
	addConstructor(cb, parent, false)
	child := newClass(cb, "Child", parent.FQSEN)
	ctor := addConstructor(cb, child, false)

	cfg := config.Config{ParentConstructorRequired: []string{"OtherParent"}}
	require.Empty(t, CheckParentConstructorCalled(cb, child, ctor, cfg))
}

func TestCheckParentConstructorCalledAllowlistMatchesParent(t *testing.T) {
	cb := codebase.New()
	parent := newClass(cb, "Parent", fqsen.FQSEN{})
	addConstructor(cb, parent, false)
	child := newClass(cb, "Child", parent.FQSEN)
	ctor := addConstructor(cb, child, false)

	cfg := config.Config{ParentConstructorRequired: []string{"Parent"}}
	out := CheckParentConstructorCalled(cb, child, ctor, cfg)
	require.Len(t, out, 1)
}

func TestCheckPropertyTypeValidityUndeclaredClass(t *testing.T) {
	cb := codebase.New()
	p := &codebase.Property{
		Element: codebase.Element{
			FQSEN: fqsen.NewMember(fqsen.KindProperty, classFQSEN("Owner"), "prop"),
			File:  "x.php",
			Line:  5,
			Type:  types.FromTypes(types.ClassType(classFQSEN("Missing"))),
		},
	}

	out := CheckPropertyTypeValidity(cb, p)
	require.Len(t, out, 1)
	require.Equal(t, issue.UndeclaredTypeParameter, out[0].Issue)
}

func TestCheckPropertyTypeValidityDeclaredClassIsClean(t *testing.T) {
	cb := codebase.New()
	owner := newClass(cb, "Owner", fqsen.FQSEN{})
	p := &codebase.Property{
		Element: codebase.Element{
			FQSEN: fqsen.NewMember(fqsen.KindProperty, owner.FQSEN, "prop"),
			File:  "x.php",
			Line:  5,
			Type:  types.FromTypes(types.ClassType(owner.FQSEN)),
		},
	}

	require.Empty(t, CheckPropertyTypeValidity(cb, p))
}

func TestCheckParameterTypeValidityUndeclaredParamAndReturn(t *testing.T) {
	cb := codebase.New()
	params := []codebase.Param{
		{Name: "a", Type: types.FromTypes(types.ClassType(classFQSEN("Missing")))},
	}
	ret := types.FromTypes(types.ClassType(classFQSEN("AlsoMissing")))

	out := CheckParameterTypeValidity(cb, params, ret, "x.php", 3)
	require.Len(t, out, 2)
}

func TestCheckParameterTypeValidityNativeTypesAreClean(t *testing.T) {
	cb := codebase.New()
	params := []codebase.Param{
		{Name: "a", Type: types.FromTypes(types.NativeType(types.NativeInt))},
	}
	require.Empty(t, CheckParameterTypeValidity(cb, params, types.UnionType{}, "x.php", 3))
}

func TestCheckCompositionDelegatesToCodeBase(t *testing.T) {
	cb := codebase.New()
	cls := newClass(cb, "Solo", fqsen.FQSEN{})

	require.Equal(t, cb.CheckComposition(cls.FQSEN), CheckComposition(cb, cls))
}

func TestCheckUnreferencedClassAndMembers(t *testing.T) {
	cb := codebase.New()
	cls := newClass(cb, "Lonely", fqsen.FQSEN{})

	prop := &codebase.Property{
		Element:       codebase.Element{FQSEN: fqsen.NewMember(fqsen.KindProperty, cls.FQSEN, "p"), File: "x.php", Line: 4},
		Owner:         cls.FQSEN,
		DefiningFQSEN: cls.FQSEN,
	}
	cb.AddProperty(prop)
	cls.Properties = map[string]fqsen.FQSEN{"p": prop.FQSEN}

	method := &codebase.Method{
		Element:       codebase.Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, cls.FQSEN, "doStuff"), File: "x.php", Line: 6},
		Owner:         cls.FQSEN,
		DefiningFQSEN: cls.FQSEN,
	}
	cb.AddMethod(method)
	cls.Methods = map[string]fqsen.FQSEN{"dostuff": method.FQSEN}

	out := CheckUnreferenced(cb, cls)
	require.Len(t, out, 3)
}

func TestCheckUnreferencedSkipsMagicAndConstructor(t *testing.T) {
	cb := codebase.New()
	cls := newClass(cb, "HasMagic", fqsen.FQSEN{})
	cls.AddReference(codebase.Location{File: "x.php", Line: 10})

	magic := &codebase.Method{
		Element:       codebase.Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, cls.FQSEN, "__toString"), File: "x.php", Line: 7},
		Owner:         cls.FQSEN,
		DefiningFQSEN: cls.FQSEN,
	}
	cb.AddMethod(magic)
	ctor := addConstructor(cb, cls, false)
	cls.Methods = map[string]fqsen.FQSEN{"__tostring": magic.FQSEN, "__construct": ctor.FQSEN}

	require.Empty(t, CheckUnreferenced(cb, cls))
}

func TestCheckUnreferencedSkipsInheritedMembers(t *testing.T) {
	cb := codebase.New()
	parent := newClass(cb, "Base", fqsen.FQSEN{})
	child := newClass(cb, "Derived", parent.FQSEN)
	child.AddReference(codebase.Location{File: "x.php", Line: 1})

	inherited := &codebase.Method{
		Element:       codebase.Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, parent.FQSEN, "shared"), File: "x.php", Line: 2},
		Owner:         child.FQSEN,
		DefiningFQSEN: parent.FQSEN,
	}
	cb.AddMethod(inherited)
	child.Methods = map[string]fqsen.FQSEN{"shared": inherited.FQSEN}

	require.Empty(t, CheckUnreferenced(cb, child))
}
