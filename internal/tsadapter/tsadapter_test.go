package tsadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/analysis"
	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/config"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/parsepass"
)

func parse(t *testing.T, src string) *ast.Literal {
	t.Helper()
	root, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Equal(t, ast.KindProgram, root.Kind())
	return root
}

func TestParseClassWithExtendsAndMethod(t *testing.T) {
	root := parse(t, `<?php
class Dog extends Animal {
    public function bark(): string {
        return "woof";
    }
}
`)
	cb := codebase.New()
	parsepass.ParseFile(cb, "dog.php", root)

	classes := cb.AllClasses()
	require.Len(t, classes, 1)
	require.Equal(t, "Dog", classes[0].FQSEN.Name())
	require.Equal(t, "Animal", classes[0].ParentFQSEN.Name())

	method, err := cb.GetMethodByFQSEN(classes[0].Methods["bark"])
	require.NoError(t, err)
	require.Equal(t, "bark", method.FQSEN.Name())
}

func TestParseFunctionWithParamsAndDefault(t *testing.T) {
	root := parse(t, `<?php
function greet(string $name, int $times = 1) {
    echo $name;
}
`)
	cb := codebase.New()
	parsepass.ParseFile(cb, "greet.php", root)

	fns := cb.AllFunctions()
	require.Len(t, fns, 1)
	require.Equal(t, "greet", fns[0].FQSEN.Name())
	require.Len(t, fns[0].Params, 2)
	require.Equal(t, "name", fns[0].Params[0].Name)
	require.Equal(t, "times", fns[0].Params[1].Name)
	require.True(t, fns[0].Params[1].HasDefault)
}

func TestParseUndeclaredParentIsFlaggedByAnalysis(t *testing.T) {
	root := parse(t, `<?php
class Cat extends Mammal {
}
`)
	cb := codebase.New()
	parsepass.ParseFile(cb, "cat.php", root)
	for _, cls := range cb.AllClasses() {
		cb.Hydrate(cls.FQSEN)
	}

	collector := issue.NewCollector()
	analysis.AnalyzeFileWithConfig(cb, collector, "cat.php", root, config.Config{})
	out := collector.Flush()

	var found bool
	for _, ii := range out {
		if ii.Issue == issue.UndeclaredExtendedClass {
			found = true
		}
	}
	require.True(t, found)
}

func TestParseClassConstAndProperty(t *testing.T) {
	root := parse(t, `<?php
class Config {
    const VERSION = 1;
    public ?string $name = null;
}
`)
	cb := codebase.New()
	parsepass.ParseFile(cb, "config.php", root)

	classes := cb.AllClasses()
	require.Len(t, classes, 1)
	require.Contains(t, classes[0].Constants, "VERSION")
	require.Contains(t, classes[0].Properties, "name")
}
