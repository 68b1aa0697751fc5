package builtins

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDecodesKnownFunctions(t *testing.T) {
	sigs, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, sigs)

	strlen, ok := Lookup(sigs, "STRLEN")
	require.True(t, ok, "lookup must be case-insensitive")
	require.Equal(t, "int", strlen.Return)
	require.Len(t, strlen.Params, 1)
}

func TestLoadMarksSpecialCasedFunctions(t *testing.T) {
	sigs, err := Load()
	require.NoError(t, err)

	implode, ok := Lookup(sigs, "implode")
	require.True(t, ok)
	require.Equal(t, 1, implode.Special)

	min, ok := Lookup(sigs, "min")
	require.True(t, ok)
	require.Equal(t, 3, min.Special)
}
