package argcheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/types"
)

func TestCheckCallTooFewArguments(t *testing.T) {
	cb := codebase.New()
	callee := Callee{Name: "greet", Params: []codebase.Param{{Name: "name", Type: types.FromTypes(types.NativeType(types.NativeString))}}}

	out := CheckCall(cb, nil, "t.php", 1, callee, nil, true)

	require.Len(t, out, 1)
	require.Same(t, issue.ParamTooFew, out[0].Issue)
}

func TestCheckCallTooManyArguments(t *testing.T) {
	cb := codebase.New()
	callee := Callee{Name: "greet", Params: []codebase.Param{{Name: "name", Type: types.FromTypes(types.NativeType(types.NativeString))}}}
	actuals := []Actual{
		{Type: types.FromTypes(types.NativeType(types.NativeString)), IsVar: true},
		{Type: types.FromTypes(types.NativeType(types.NativeString)), IsVar: true},
	}

	out := CheckCall(cb, nil, "t.php", 1, callee, actuals, true)

	require.Len(t, out, 1)
	require.Same(t, issue.ParamTooMany, out[0].Issue)
}

func TestCheckCallTypeMismatch(t *testing.T) {
	cb := codebase.New()
	callee := Callee{Name: "greet", Params: []codebase.Param{{Name: "name", Type: types.FromTypes(types.NativeType(types.NativeString))}}}
	actuals := []Actual{{Type: types.FromTypes(types.NativeType(types.NativeArray)), IsVar: true}}

	out := CheckCall(cb, nil, "t.php", 1, callee, actuals, true)

	require.Len(t, out, 1)
	require.Same(t, issue.TypeMismatchArgument, out[0].Issue)
}

func TestCheckCallTypeMismatchMessageUsesArgumentText(t *testing.T) {
	cb := codebase.New()
	callee := Callee{Name: "greet", Params: []codebase.Param{{Name: "name", Type: types.FromTypes(types.NativeType(types.NativeString))}}}
	actuals := []Actual{{Type: types.FromTypes(types.NativeType(types.NativeArray)), Text: "$x", IsVar: true}}

	out := CheckCall(cb, nil, "t.php", 1, callee, actuals, true)

	require.Len(t, out, 1)
	msg := out[0].Message()
	require.Contains(t, msg, "($x)")
	require.NotContains(t, msg, "(array)")
}

func TestCheckCallByRefRequiresVariable(t *testing.T) {
	cb := codebase.New()
	callee := Callee{Name: "sortInPlace", Params: []codebase.Param{{Name: "arr", Type: types.Empty(), ByRef: true}}}
	actuals := []Actual{{Type: types.Empty(), IsVar: false}}

	out := CheckCall(cb, nil, "t.php", 1, callee, actuals, true)

	require.Len(t, out, 1)
	require.Same(t, issue.TypeNonVarPassByRef, out[0].Issue)
}

func TestCheckCallVariadicSkipsCountCheck(t *testing.T) {
	cb := codebase.New()
	callee := Callee{Name: "sum", Params: []codebase.Param{{Name: "nums", Type: types.Empty(), Variadic: true}}}

	out := CheckCall(cb, nil, "t.php", 1, callee, nil, true)

	require.Empty(t, out)
}

func TestCheckOverrideDetectsNarrowedVisibility(t *testing.T) {
	cb := codebase.New()
	owner := fqsen.New(fqsen.KindClass, "App", "Child")
	ancestor := &codebase.Method{Element: codebase.Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, owner, "greet"), Flags: ast.FlagPublic}}
	override := &codebase.Method{Element: codebase.Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, owner, "greet"), Flags: ast.FlagPrivate}}

	out := CheckOverride(cb, override, ancestor)

	require.NotEmpty(t, out)
	found := false
	for _, ii := range out {
		if ii.Issue == issue.AccessSignatureMismatch {
			found = true
		}
	}
	require.True(t, found)
}

func TestCheckOverrideAllowsCompatibleSignature(t *testing.T) {
	cb := codebase.New()
	owner := fqsen.New(fqsen.KindClass, "App", "Child")
	ancestor := &codebase.Method{
		Element:    codebase.Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, owner, "greet"), Flags: ast.FlagPublic},
		Params:     []codebase.Param{{Name: "name", Type: types.Empty()}},
		ReturnType: types.Empty(),
	}
	override := &codebase.Method{
		Element:    codebase.Element{FQSEN: fqsen.NewMember(fqsen.KindMethod, owner, "greet"), Flags: ast.FlagPublic},
		Params:     []codebase.Param{{Name: "name", Type: types.FromTypes(types.NativeType(types.NativeString))}},
		ReturnType: types.FromTypes(types.NativeType(types.NativeString)),
	}

	out := CheckOverride(cb, override, ancestor)

	require.Empty(t, out)
}
