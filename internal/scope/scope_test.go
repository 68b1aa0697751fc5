package scope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/types"
)

func TestGlobalScopeHasSuperglobals(t *testing.T) {
	g := NewGlobal()
	v, ok := g.Get("_SERVER")
	require.True(t, ok)
	require.True(t, v.Flags&VarFlagSuperglobal != 0)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewFunctionLike(nil)
	s.Set(Variable{Name: "x", Type: types.FromTypes(types.NativeType(types.NativeInt))})

	clone := s.Clone()
	clone.Set(Variable{Name: "x", Type: types.FromTypes(types.NativeType(types.NativeString))})

	orig, _ := s.Get("x")
	cloned, _ := clone.Get("x")
	require.True(t, orig.Type.HasType(types.NativeType(types.NativeInt)))
	require.True(t, cloned.Type.HasType(types.NativeType(types.NativeString)))
}

func TestAddUnionTypeWidensExisting(t *testing.T) {
	s := NewFunctionLike(nil)
	s.Set(Variable{Name: "x", Type: types.FromTypes(types.NativeType(types.NativeInt))})
	s.AddUnionType("x", types.FromTypes(types.NativeType(types.NativeString)))

	v, _ := s.Get("x")
	require.True(t, v.Type.HasType(types.NativeType(types.NativeInt)))
	require.True(t, v.Type.HasType(types.NativeType(types.NativeString)))
}

func TestContextImmutability(t *testing.T) {
	c1 := NewGlobalContext("a.php")
	c2 := c1.WithLine(42)

	require.Equal(t, 1, c1.Line())
	require.Equal(t, 42, c2.Line())
}

func TestContextResolveClassNameViaUse(t *testing.T) {
	c := NewGlobalContext("a.php").WithNamespace("App").WithUse(UseClass, "X", `OtherNs\X`)
	ns, short := c.ResolveClassName("X")
	require.Equal(t, "OtherNs", ns)
	require.Equal(t, "X", short)
}

func TestContextResolveClassNameFallsBackToActiveNamespace(t *testing.T) {
	c := NewGlobalContext("a.php").WithNamespace("App")
	ns, short := c.ResolveClassName("User")
	require.Equal(t, "App", ns)
	require.Equal(t, "User", short)
}
