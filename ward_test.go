package ward

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/config"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/tsadapter"
)

func mustParse(t *testing.T, src string) File {
	t.Helper()
	root, err := tsadapter.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	return NewFile("src.php", root)
}

func TestAnalyzeClassExtendingUndeclaredParent(t *testing.T) {
	f := mustParse(t, `<?php
class A {}
class B extends C {}
`)
	out, err := Analyze(config.Config{}, []File{f})
	require.NoError(t, err)

	var found bool
	for _, ii := range out.Flush() {
		if ii.Issue == issue.UndeclaredExtendedClass {
			found = true
		}
	}
	require.True(t, found)
}

func TestAnalyzeForeachOverArrayLiteralHasNoIssues(t *testing.T) {
	f := mustParse(t, `<?php
$x = [1, 2, 3];
foreach ($x as $k => $v) {
    echo $v + 1;
}
`)
	out, err := Analyze(config.Config{}, []File{f})
	require.NoError(t, err)
	require.Empty(t, out.Flush())
}

func TestAnalyzeMissingParentConstructorCallIsFlagged(t *testing.T) {
	f := mustParse(t, `<?php
class A { function __construct() {} }
class B extends A { function __construct() {} }
`)
	cfg := config.Config{ParentConstructorRequired: []string{"A"}}
	out, err := Analyze(cfg, []File{f})
	require.NoError(t, err)

	var found bool
	for _, ii := range out.Flush() {
		if ii.Issue == issue.TypeParentConstructorCalled {
			found = true
		}
	}
	require.True(t, found)
}

func TestAnalyzeContextReturnsPopulatedCodeBase(t *testing.T) {
	f := mustParse(t, `<?php
class Widget {}
`)
	run, err := AnalyzeContext(context.Background(), config.Config{}, []File{f})
	require.NoError(t, err)
	require.Len(t, run.CodeBase.AllClasses(), 1)
}
