package codebase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/types"
)

func newTestClass(cb *CodeBase, ns, name string) *Clazz {
	f := fqsen.New(fqsen.KindClass, ns, name)
	c := &Clazz{Element: Element{FQSEN: f, File: "t.php", Line: 1}}
	cb.AddClass(c)
	return c
}

func TestAddClassTotalPredicate(t *testing.T) {
	cb := New()
	c := newTestClass(cb, "App", "User")

	require.True(t, cb.HasClassWithFQSEN(c.FQSEN))
	got, err := cb.GetClassByFQSEN(c.FQSEN)
	require.NoError(t, err)
	require.Same(t, c, got)
}

func TestGetClassByFQSENMissing(t *testing.T) {
	cb := New()
	f := fqsen.New(fqsen.KindClass, "App", "Ghost")
	_, err := cb.GetClassByFQSEN(f)
	require.Error(t, err)
	var mse *MissingSymbolError
	require.ErrorAs(t, err, &mse)
}

func TestAddClassAlternateID(t *testing.T) {
	cb := New()
	f := fqsen.New(fqsen.KindClass, "App", "Dup")
	c1 := &Clazz{Element: Element{FQSEN: f, File: "a.php", Line: 1}}
	c2 := &Clazz{Element: Element{FQSEN: f, File: "b.php", Line: 5}}

	got1 := cb.AddClass(c1)
	got2 := cb.AddClass(c2)

	require.NotEqual(t, got1, got2)
	require.Equal(t, 0, c1.AlternateID)
	require.Equal(t, 1, c2.AlternateID)
	require.True(t, cb.HasClassWithFQSEN(got1))
	require.True(t, cb.HasClassWithFQSEN(got2))
}

func TestHydrateIsIdempotent(t *testing.T) {
	cb := New()
	parent := newTestClass(cb, "App", "Base")
	parentProp := &Property{Element: Element{FQSEN: fqsen.NewMember(fqsen.KindProperty, parent.FQSEN, "x"), Type: types.FromTypes(types.NativeType(types.NativeInt))}, Owner: parent.FQSEN}
	cb.AddProperty(parentProp)

	child := newTestClass(cb, "App", "Child")
	child.ParentFQSEN = parent.FQSEN

	cb.Hydrate(child.FQSEN)
	cb.Hydrate(child.FQSEN)
	cb.Hydrate(child.FQSEN)

	_, hasX := cb.LookupProperty(child.FQSEN, "x")
	require.True(t, hasX)
	require.Len(t, child.Properties, 1)
}

func TestHydrateInjectsClassConstantAndThis(t *testing.T) {
	cb := New()
	c := newTestClass(cb, "App", "Widget")
	cb.Hydrate(c.FQSEN)

	_, ok := cb.LookupClassConstant(c.FQSEN, "class")
	require.True(t, ok)

	require.NotNil(t, c.Scope)
	this, ok := c.Scope.Get("this")
	require.True(t, ok)
	require.True(t, this.Type.HasType(types.ClassType(c.FQSEN)))
}

func TestHydrateOverrideWins(t *testing.T) {
	cb := New()
	parent := newTestClass(cb, "App", "Base")
	parentMethod := &Method{Element: Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, parent.FQSEN, "greet"), Type: types.Empty()}, Owner: parent.FQSEN, ReturnType: types.FromTypes(types.NativeType(types.NativeString))}
	cb.AddMethod(parentMethod)

	child := newTestClass(cb, "App", "Child")
	child.ParentFQSEN = parent.FQSEN
	childMethod := &Method{Element: Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, child.FQSEN, "greet"), Type: types.Empty()}, Owner: child.FQSEN, ReturnType: types.FromTypes(types.NativeType(types.NativeInt))}
	cb.AddMethod(childMethod)

	cb.Hydrate(child.FQSEN)

	got, ok := cb.LookupMethod(child.FQSEN, "greet")
	require.True(t, ok)
	require.True(t, got.ReturnType.HasType(types.NativeType(types.NativeInt)), "child's own method must win over the parent's")
	require.True(t, got.IsOverride)
}

func TestHydrateSiblingsImportIndependentCopies(t *testing.T) {
	cb := New()
	parent := newTestClass(cb, "App", "Base")
	parentMethod := &Method{Element: Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, parent.FQSEN, "greet"), Type: types.Empty()}, Owner: parent.FQSEN, ReturnType: types.Empty()}
	cb.AddMethod(parentMethod)

	childA := newTestClass(cb, "App", "ChildA")
	childA.ParentFQSEN = parent.FQSEN
	childB := newTestClass(cb, "App", "ChildB")
	childB.ParentFQSEN = parent.FQSEN

	cb.Hydrate(childA.FQSEN)
	cb.Hydrate(childB.FQSEN)

	gotA, ok := cb.LookupMethod(childA.FQSEN, "greet")
	require.True(t, ok)
	gotB, ok := cb.LookupMethod(childB.FQSEN, "greet")
	require.True(t, ok)

	require.NotSame(t, gotA, gotB, "siblings must get independent copies of an imported member")
	require.Equal(t, childA.FQSEN, gotA.Owner)
	require.Equal(t, childB.FQSEN, gotB.Owner)
	require.Equal(t, parent.FQSEN, gotA.DefiningFQSEN)
	require.Equal(t, parent.FQSEN, gotB.DefiningFQSEN)
	require.NotEqual(t, gotA.FQSEN, gotB.FQSEN)
	require.NotEqual(t, gotA.FQSEN, parent.FQSEN)

	parentOwn, ok := cb.LookupMethod(parent.FQSEN, "greet")
	require.True(t, ok)
	require.Equal(t, parent.FQSEN, parentOwn.Owner, "the ancestor's own member must keep its own identity regardless of import order")
}

func TestDirectAncestorsOrder(t *testing.T) {
	cb := New()
	iface := newTestClass(cb, "App", "I")
	parent := newTestClass(cb, "App", "P")
	child := newTestClass(cb, "App", "C")
	child.ParentFQSEN = parent.FQSEN
	child.InterfaceFQSENs = []fqsen.FQSEN{iface.FQSEN}

	anc := cb.DirectAncestors(child.FQSEN)
	require.Equal(t, []fqsen.FQSEN{iface.FQSEN, parent.FQSEN}, anc)
}
