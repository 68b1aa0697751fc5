package statefile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/fqsen"
)

func codebaseWithOneFunction(name string) *codebase.CodeBase {
	cb := codebase.New()
	cb.AddFunction(&codebase.Func{
		Element: codebase.Element{FQSEN: fqsen.New(fqsen.KindFunction, "", name), File: "x.php", Line: 1},
	})
	return cb
}

func TestSaveThenLoadRoundTripsSignatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.sqlite")
	cb := codebaseWithOneFunction("doStuff")

	runID, err := Save(context.Background(), path, cb)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	snap, err := Load(context.Background(), path, "")
	require.NoError(t, err)
	require.Equal(t, runID, snap.RunID)
	require.Len(t, snap.Entries, 1)
	require.Equal(t, "\\doStuff", snap.Entries[0].FQSEN)
}

func TestLoadWithNoRunsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.sqlite")

	_, err := Load(context.Background(), path, "")
	require.Error(t, err)
}

func TestLoadSpecificRunIDAfterMultipleSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.sqlite")

	firstID, err := Save(context.Background(), path, codebaseWithOneFunction("first"))
	require.NoError(t, err)
	_, err = Save(context.Background(), path, codebaseWithOneFunction("second"))
	require.NoError(t, err)

	snap, err := Load(context.Background(), path, firstID)
	require.NoError(t, err)
	require.Equal(t, firstID, snap.RunID)
	require.Equal(t, "\\first", snap.Entries[0].FQSEN)
}

func TestLoadUnknownRunIDErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.sqlite")
	_, err := Save(context.Background(), path, codebaseWithOneFunction("f"))
	require.NoError(t, err)

	_, err = Load(context.Background(), path, "not-a-real-run-id")
	require.Error(t, err)
}

func TestLoadWithNoArgumentReturnsMostRecentRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.sqlite")
	_, err := Save(context.Background(), path, codebaseWithOneFunction("older"))
	require.NoError(t, err)
	latestID, err := Save(context.Background(), path, codebaseWithOneFunction("newer"))
	require.NoError(t, err)

	snap, err := Load(context.Background(), path, "")
	require.NoError(t, err)
	require.Equal(t, latestID, snap.RunID)
	require.Equal(t, "\\newer", snap.Entries[0].FQSEN)
}

func TestPruneKeepsOnlyMostRecentRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.sqlite")
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := Save(context.Background(), path, codebaseWithOneFunction("f"))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, Prune(context.Background(), path, 2))

	_, err := Load(context.Background(), path, ids[0])
	require.Error(t, err)

	snap, err := Load(context.Background(), path, ids[len(ids)-1])
	require.NoError(t, err)
	require.Equal(t, ids[len(ids)-1], snap.RunID)
}
