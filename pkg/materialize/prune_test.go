package materialize

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/filesystem"
	"github.com/arthur-debert/deplink/pkg/testutil"
	"github.com/arthur-debert/deplink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializePrune(t *testing.T) {
	testutil.SkipOnWindows(t)

	deps := installStore(t,
		testutil.Package{Name: "lodash", Main: "lodash.js", Files: map[string]string{"lodash.js": "l"}},
		testutil.Package{Name: "@babel/core", Main: "index.js", Files: map[string]string{"index.js": "c"}},
	)
	outside := testutil.CreateFile(t, t.TempDir(), "precious/data.txt", "keep")

	dest := filepath.Join(t.TempDir(), "out")
	testutil.CreateFile(t, dest, "old-dep/index.js", "stale")
	testutil.CreateFile(t, dest, "notes.txt", "stale")
	testutil.CreateFile(t, dest, "@babel/traverse/index.js", "stale")
	testutil.CreateFile(t, dest, "@types/node/index.d.ts", "stale")
	testutil.CreateSymlink(t, filepath.Dir(outside), filepath.Join(dest, "linked"))

	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, dest,
		Options{Mode: types.ModeCopy, Prune: true})
	require.NoError(t, err)
	require.True(t, result.OK(), "unexpected failures: %v", result.Err())

	assert.Equal(t, []string{"@babel/traverse", "@types/node", "linked", "notes.txt", "old-dep"}, result.Pruned)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"@babel", "lodash"}, names)
	testutil.AssertNoFile(t, filepath.Join(dest, "@babel", "traverse"))
	testutil.AssertFileContent(t, filepath.Join(dest, "@babel", "core", "index.js"), "c")

	// pruning a link removes the link only
	testutil.AssertFileContent(t, outside, "keep")
}

func TestMaterializePruneDisabledKeepsStrangers(t *testing.T) {
	deps := installStore(t,
		testutil.Package{Name: "lodash", Main: "lodash.js", Files: map[string]string{"lodash.js": "l"}},
	)
	dest := filepath.Join(t.TempDir(), "out")
	testutil.CreateFile(t, dest, "old-dep/index.js", "stale")

	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, dest, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Pruned)
	testutil.AssertFileContent(t, filepath.Join(dest, "old-dep", "index.js"), "stale")
}

func TestMaterializePruneFailure(t *testing.T) {
	deps := installStore(t,
		testutil.Package{Name: "lodash", Main: "lodash.js", Files: map[string]string{"lodash.js": "l"}},
	)
	dest := filepath.Join(t.TempDir(), "out")
	testutil.CreateFile(t, dest, "locked/index.js", "stale")
	testutil.CreateFile(t, dest, "gone/index.js", "stale")

	fsys := testutil.NewFaultyFS(filesystem.NewOS())
	fsys.RemoveAllFunc = func(path string) error {
		if filepath.Base(path) == "locked" {
			return os.ErrPermission
		}
		return nil
	}

	result, err := newTestEngine(fsys).Materialize(context.Background(), deps, dest, Options{Prune: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"gone"}, result.Pruned)
	require.Contains(t, result.PruneErrors, "locked")
	assert.True(t, errors.IsErrorCode(result.PruneErrors["locked"], errors.ErrRemovalFailed))
	assert.Empty(t, result.Failed(), "prune failures do not fail entries")
	assert.False(t, result.OK())
	testutil.AssertFileContent(t, filepath.Join(dest, "lodash", "lodash.js"), "l")
}

func TestMaterializePruneKeepsNamedEntries(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	testutil.CreateFile(t, dest, "left-pad/index.js", "previous run")
	testutil.CreateFile(t, dest, "old-dep/index.js", "stale")

	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), nil, dest,
		Options{Prune: true, Keep: []string{"left-pad"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"old-dep"}, result.Pruned)
	testutil.AssertFileContent(t, filepath.Join(dest, "left-pad", "index.js"), "previous run")
}
