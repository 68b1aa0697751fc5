package fqsen

import "testing"

import "github.com/stretchr/testify/require"

func TestNewInternsStably(t *testing.T) {
	a := New(KindClass, `App\Model`, "User")
	b := New(KindClass, `app\model`, "user")
	require.Equal(t, a, b, "class FQSENs must intern case-insensitively")
	require.Equal(t, "User", a.Name(), "declared casing is preserved for display")
}

func TestNewMemberIsOwnerScoped(t *testing.T) {
	cls := New(KindClass, `App`, "User")
	otherCls := New(KindClass, `App`, "Admin")

	m1 := NewMember(KindMethod, cls, "save")
	m2 := NewMember(KindMethod, otherCls, "save")

	require.NotEqual(t, m1, m2, "same method name under different owners must be distinct FQSENs")
	require.Equal(t, cls, m1.Owner())
	require.Equal(t, otherCls, m2.Owner())
}

func TestStringRendering(t *testing.T) {
	cls := New(KindClass, `App\Model`, "User")
	method := NewMember(KindMethod, cls, "save")

	require.Equal(t, `\app\model\User`, cls.String())
	require.Equal(t, `\app\model\User::save`, method.String())
}

func TestZeroValue(t *testing.T) {
	var z FQSEN
	require.True(t, z.IsZero())
	require.Equal(t, "<zero-fqsen>", z.String())
}

func TestEqualNameFold(t *testing.T) {
	a := New(KindFunction, `App`, "doThing")
	b := New(KindFunction, `APP`, "DOTHING")
	require.True(t, EqualNameFold(a, b))

	c := New(KindFunction, `App`, "doOtherThing")
	require.False(t, EqualNameFold(a, c))
}
