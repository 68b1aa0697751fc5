package parsepass

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/types"
)

func param(name string, flags ast.Flag) *ast.Literal {
	return &ast.Literal{
		KindValue:  ast.KindParam,
		FlagsValue: flags,
		FieldsValue: map[string]ast.Node{
			"name": &ast.Literal{KindValue: ast.KindName, TextValue: "$" + name},
		},
	}
}

func TestParseFileRegistersFunction(t *testing.T) {
	cb := codebase.New()
	fn := &ast.Literal{
		KindValue: ast.KindFunctionDecl,
		FieldsValue: map[string]ast.Node{
			"name": &ast.Literal{KindValue: ast.KindName, TextValue: "double"},
			"params": &ast.Literal{KindValue: ast.KindParam, ChildrenValue: []ast.Node{
				param("x", 0),
			}},
			"returnType": &ast.Literal{KindValue: ast.KindTypeExpr, TextValue: "int"},
		},
	}
	root := &ast.Literal{KindValue: ast.KindProgram, ChildrenValue: []ast.Node{fn}}

	ParseFile(cb, "a.php", root)

	f := fqsen.New(fqsen.KindFunction, "", "double")
	require.True(t, cb.HasFunctionWithFQSEN(f))
	got, err := cb.GetFunctionByFQSEN(f)
	require.NoError(t, err)
	require.Len(t, got.Params, 1)
	require.Equal(t, "x", got.Params[0].Name)
	require.True(t, got.ReturnType.HasType(types.NativeType(types.NativeInt)))
}

func TestParseFileRegistersNamespacedClassWithParent(t *testing.T) {
	cb := codebase.New()
	root := &ast.Literal{
		KindValue: ast.KindProgram,
		ChildrenValue: []ast.Node{
			&ast.Literal{
				KindValue: ast.KindNamespaceDecl,
				TextValue: "App",
			},
			&ast.Literal{
				KindValue: ast.KindClassDecl,
				FieldsValue: map[string]ast.Node{
					"name":    &ast.Literal{KindValue: ast.KindName, TextValue: "Child"},
					"extends": &ast.Literal{KindValue: ast.KindQualifiedName, TextValue: "Base"},
				},
			},
		},
	}

	ParseFile(cb, "a.php", root)

	f := fqsen.New(fqsen.KindClass, "App", "Child")
	require.True(t, cb.HasClassWithFQSEN(f))
	c, err := cb.GetClassByFQSEN(f)
	require.NoError(t, err)
	require.Equal(t, fqsen.New(fqsen.KindClass, "App", "Base"), c.ParentFQSEN)
}

func TestParseFileRegistersMethodAndPromotedProperty(t *testing.T) {
	cb := codebase.New()
	ctor := &ast.Literal{
		KindValue: ast.KindMethodDecl,
		FieldsValue: map[string]ast.Node{
			"name": &ast.Literal{KindValue: ast.KindName, TextValue: "__construct"},
			"params": &ast.Literal{KindValue: ast.KindParam, ChildrenValue: []ast.Node{
				param("name", ast.FlagPublic),
			}},
		},
	}
	cls := &ast.Literal{
		KindValue: ast.KindClassDecl,
		FieldsValue: map[string]ast.Node{
			"name": &ast.Literal{KindValue: ast.KindName, TextValue: "Widget"},
			"body": &ast.Literal{KindValue: ast.KindClassBody, ChildrenValue: []ast.Node{ctor}},
		},
	}
	root := &ast.Literal{KindValue: ast.KindProgram, ChildrenValue: []ast.Node{cls}}

	ParseFile(cb, "a.php", root)

	classFQSEN := fqsen.New(fqsen.KindClass, "", "Widget")
	_, ok := cb.LookupMethod(classFQSEN, "__construct")
	require.True(t, ok)
	_, ok = cb.LookupProperty(classFQSEN, "name")
	require.True(t, ok, "constructor-promoted parameter must declare a property")
}

func TestParseFileParsesTemplateAndInheritsDocTags(t *testing.T) {
	cb := codebase.New()
	container := &ast.Literal{
		KindValue: ast.KindClassDecl,
		DocValue:  "/**\n * @template T\n */",
		FieldsValue: map[string]ast.Node{
			"name": &ast.Literal{KindValue: ast.KindName, TextValue: "Container"},
		},
	}
	concrete := &ast.Literal{
		KindValue: ast.KindClassDecl,
		DocValue:  "/**\n * @inherits Container<int>\n */",
		FieldsValue: map[string]ast.Node{
			"name": &ast.Literal{KindValue: ast.KindName, TextValue: "IntContainer"},
		},
	}
	root := &ast.Literal{KindValue: ast.KindProgram, ChildrenValue: []ast.Node{container, concrete}}

	ParseFile(cb, "a.php", root)

	cf := fqsen.New(fqsen.KindClass, "", "Container")
	c, err := cb.GetClassByFQSEN(cf)
	require.NoError(t, err)
	require.Equal(t, []string{"T"}, c.TemplateTypeNames)

	icf := fqsen.New(fqsen.KindClass, "", "IntContainer")
	ic, err := cb.GetClassByFQSEN(icf)
	require.NoError(t, err)
	require.False(t, ic.InheritsTypes.IsEmpty())
}

func TestParseFileRegistersGlobalConst(t *testing.T) {
	cb := codebase.New()
	constDecl := &ast.Literal{
		KindValue: ast.KindGlobalConstDecl,
		ChildrenValue: []ast.Node{
			&ast.Literal{
				KindValue: ast.KindClassConstElement,
				FieldsValue: map[string]ast.Node{
					"name":  &ast.Literal{KindValue: ast.KindName, TextValue: "MAX"},
					"value": &ast.Literal{KindValue: ast.KindIntLiteral, TextValue: "10"},
				},
			},
		},
	}
	root := &ast.Literal{KindValue: ast.KindProgram, ChildrenValue: []ast.Node{constDecl}}

	ParseFile(cb, "a.php", root)

	f := fqsen.New(fqsen.KindGlobalConst, "", "MAX")
	gc, err := cb.GetGlobalConstantByFQSEN(f)
	require.NoError(t, err)
	require.True(t, gc.Type.HasType(types.NativeType(types.NativeInt)))
}
