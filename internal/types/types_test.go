package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/fqsen"
)

func TestUnionTypeAddDedup(t *testing.T) {
	u := FromTypes(NativeType(NativeInt), NativeType(NativeInt), NativeType(NativeString))
	require.Len(t, u.Types(), 2)
	require.True(t, u.HasType(NativeType(NativeInt)))
	require.True(t, u.HasType(NativeType(NativeString)))
}

func TestCanCastToUnionReflexive(t *testing.T) {
	u := FromTypes(NativeType(NativeInt))
	require.True(t, u.CanCastToUnion(u, nil))
}

type fakeAncestors map[fqsen.FQSEN][]fqsen.FQSEN

func (f fakeAncestors) DirectAncestors(c fqsen.FQSEN) []fqsen.FQSEN { return f[c] }

func TestCanCastToUnionClassAncestorTransitive(t *testing.T) {
	a := fqsen.New(fqsen.KindClass, "App", "A")
	b := fqsen.New(fqsen.KindClass, "App", "B")
	c := fqsen.New(fqsen.KindClass, "App", "C")

	anc := fakeAncestors{b: {a}, c: {b}}

	cUnion := FromTypes(ClassType(c))
	aUnion := FromTypes(ClassType(a))
	require.True(t, cUnion.CanCastToUnion(aUnion, anc), "C <- B <- A transitive cast must hold")
}

func TestNullCoercesToAnything(t *testing.T) {
	null := FromTypes(NativeType(NativeNull))
	str := FromTypes(NativeType(NativeString))
	require.True(t, null.CanCastToUnion(str, nil))
}

func TestEmptyUnionVacuouslyCasts(t *testing.T) {
	require.True(t, Empty().CanCastToUnion(FromTypes(NativeType(NativeInt)), nil))
}

func TestFromStringInContextSplitsPipesAndArrays(t *testing.T) {
	u := FromStringInContext("int|string[]", nil)
	require.True(t, u.HasType(NativeType(NativeInt)))
	require.True(t, u.HasType(GenericArrayType(NativeType(NativeString))))
}

func TestFromStringInContextNullable(t *testing.T) {
	u := FromStringInContext("?int", nil)
	require.True(t, u.HasType(NativeType(NativeInt)))
	require.True(t, u.HasType(NativeType(NativeNull)))
}

func TestWithTemplateParameterTypeMap(t *testing.T) {
	u := FromTypes(TemplateType("T"))
	m := map[string]UnionType{"T": FromTypes(NativeType(NativeInt))}
	out := u.WithTemplateParameterTypeMap(m)
	require.True(t, out.HasType(NativeType(NativeInt)))
	require.False(t, out.HasTemplateType())
}

func TestParseDocCommentParam(t *testing.T) {
	tags := ParseDocComment("/**\n * @param int $x\n * @return string\n */")
	require.Len(t, tags, 2)
	require.Equal(t, DocParam, tags[0].Kind)
	require.Equal(t, "int", tags[0].Type)
	require.Equal(t, "x", tags[0].Name)
	require.Equal(t, DocReturn, tags[1].Kind)
	require.Equal(t, "string", tags[1].Type)
}

func TestGenericArrayWrapUnwrap(t *testing.T) {
	u := FromTypes(NativeType(NativeInt), NativeType(NativeString))
	wrapped := u.AsGenericArrayTypes()
	require.True(t, wrapped.HasType(GenericArrayType(NativeType(NativeInt))))
	unwrapped := wrapped.GenericArrayElementTypes()
	require.True(t, unwrapped.Equal(u))
}
