package materialize

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/filesystem"
	"github.com/arthur-debert/deplink/pkg/testutil"
	"github.com/arthur-debert/deplink/pkg/types"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(fsys types.FS) *Engine {
	logger := zerolog.Nop()
	return New(Config{FS: fsys, Logger: &logger})
}

// installStore creates installed packages under <tmp>/store and returns
// dependencies pointing at them, in the given order
func installStore(t *testing.T, pkgs ...testutil.Package) []types.Dependency {
	t.Helper()
	store := filepath.Join(t.TempDir(), "store")

	deps := make([]types.Dependency, 0, len(pkgs))
	for _, pkg := range pkgs {
		dir := testutil.CreatePackage(t, store, pkg)
		src := types.Source{Path: dir}
		if pkg.Main != "" {
			src.Main = filepath.Join(dir, filepath.FromSlash(pkg.Main))
		}
		deps = append(deps, types.Dependency{Name: pkg.Name, Source: src})
	}
	return deps
}

func lodashAndLeftPad(t *testing.T) []types.Dependency {
	return installStore(t,
		testutil.Package{
			Name:    "lodash",
			Version: "4.17.21",
			Main:    "lodash.js",
			Files: map[string]string{
				"lodash.js": "module.exports = {}",
				"fp/map.js": "module.exports = map",
			},
		},
		testutil.Package{
			Name:  "left-pad",
			Main:  "index.js",
			Files: map[string]string{"index.js": "module.exports = pad"},
		},
	)
}

func TestMaterializeCopyPrimaryFile(t *testing.T) {
	deps := lodashAndLeftPad(t)
	dest := filepath.Join(t.TempDir(), "out")

	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, dest, Options{Mode: types.ModeCopy})
	require.NoError(t, err)
	require.True(t, result.OK(), "unexpected failures: %v", result.Err())

	assert.Equal(t, dest, result.Destination)
	assert.Equal(t, types.ModeCopy, result.Mode)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "left-pad", result.Entries[0].Name)
	assert.Equal(t, "lodash", result.Entries[1].Name)

	testutil.AssertFileContent(t, filepath.Join(dest, "lodash", "lodash.js"), "module.exports = {}")
	testutil.AssertFileContent(t, filepath.Join(dest, "left-pad", "index.js"), "module.exports = pad")
	testutil.AssertNoFile(t, filepath.Join(dest, "lodash", "fp"))

	lodash, ok := result.Outcome("lodash")
	require.True(t, ok)
	assert.Equal(t, KindCopy, lodash.Kind)
	assert.Equal(t, filepath.Join(dest, "lodash"), lodash.Path)
	assert.False(t, lodash.Replaced)
}

func TestMaterializeCopyWholeTree(t *testing.T) {
	deps := lodashAndLeftPad(t)
	dest := filepath.Join(t.TempDir(), "out")

	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, dest,
		Options{Mode: types.ModeCopy, WholeTree: true})
	require.NoError(t, err)
	require.True(t, result.OK(), "unexpected failures: %v", result.Err())

	for _, dep := range deps {
		want := testutil.SnapshotTree(t, dep.Source.Path)
		got := testutil.SnapshotTree(t, filepath.Join(dest, dep.Name))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("copy of %s differs from source (-want +got):\n%s", dep.Name, diff)
		}
	}
}

func TestMaterializeCopyDoesNotMutateSource(t *testing.T) {
	deps := lodashAndLeftPad(t)
	before := testutil.SnapshotTree(t, filepath.Dir(deps[0].Source.Path))
	dest := filepath.Join(t.TempDir(), "out")
	engine := newTestEngine(filesystem.NewOS())

	for _, wholeTree := range []bool{false, true, true} {
		result, err := engine.Materialize(context.Background(), deps, dest,
			Options{Mode: types.ModeCopy, WholeTree: wholeTree})
		require.NoError(t, err)
		require.True(t, result.OK())
	}

	// writing into the copies must not reach the sources either
	testutil.CreateFile(t, dest, "lodash/lodash.js", "patched")

	after := testutil.SnapshotTree(t, filepath.Dir(deps[0].Source.Path))
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("source tree changed (-before +after):\n%s", diff)
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	for _, opts := range []Options{
		{Mode: types.ModeCopy},
		{Mode: types.ModeCopy, WholeTree: true},
		{Mode: types.ModeLink},
	} {
		name := string(opts.Mode)
		if opts.WholeTree {
			name += "-whole-tree"
		}
		t.Run(name, func(t *testing.T) {
			if opts.Mode == types.ModeLink {
				testutil.SkipOnWindows(t)
			}
			deps := lodashAndLeftPad(t)
			dest := filepath.Join(t.TempDir(), "out")
			engine := newTestEngine(filesystem.NewOS())

			first, err := engine.Materialize(context.Background(), deps, dest, opts)
			require.NoError(t, err)
			require.True(t, first.OK())
			once := testutil.SnapshotTree(t, dest)

			second, err := engine.Materialize(context.Background(), deps, dest, opts)
			require.NoError(t, err)
			require.True(t, second.OK())
			twice := testutil.SnapshotTree(t, dest)

			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("second run changed the destination (-once +twice):\n%s", diff)
			}
			for _, o := range second.Entries {
				assert.True(t, o.Replaced, "%s should replace the previous entry", o.Name)
			}
		})
	}
}

func TestMaterializeLinkScenario(t *testing.T) {
	testutil.SkipOnWindows(t)

	store := t.TempDir()
	a := testutil.CreateDir(t, store, "a@1.2.0")
	b := testutil.CreateDir(t, store, "b@2.0.1")
	testutil.CreateFile(t, a, "index.js", "a")
	testutil.CreateFile(t, b, "index.js", "b")
	deps := []types.Dependency{
		{Name: "a", Source: types.Source{Path: a}},
		{Name: "b", Source: types.Source{Path: b}},
	}
	dest := filepath.Join(t.TempDir(), "out")

	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, dest, Options{Mode: types.ModeLink})
	require.NoError(t, err)
	require.Len(t, result.Succeeded(), 2)
	assert.Empty(t, result.Failed())

	for _, dep := range deps {
		link := filepath.Join(dest, dep.Name)
		testutil.AssertSymlink(t, link, dep.Source.Path)

		resolved, err := filepath.EvalSymlinks(link)
		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(dep.Source.Path)
		require.NoError(t, err)
		assert.Equal(t, want, resolved)

		outcome, _ := result.Outcome(dep.Name)
		assert.Equal(t, KindSymlink, outcome.Kind)
	}

	// the link and the source are one entity
	testutil.CreateFile(t, a, "added.js", "new")
	testutil.AssertFileContent(t, filepath.Join(dest, "a", "added.js"), "new")
}

func TestMaterializeRelativeSourceLinksAbsolutely(t *testing.T) {
	testutil.SkipOnWindows(t)

	root := t.TempDir()
	testutil.CreateFile(t, root, "store/pkg/index.js", "x")
	chdir(t, root)

	deps := []types.Dependency{{Name: "pkg", Source: types.Source{Path: "store/pkg"}}}
	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, "out", Options{Mode: types.ModeLink})
	require.NoError(t, err)
	require.True(t, result.OK(), "unexpected failures: %v", result.Err())

	target := testutil.ReadSymlink(t, filepath.Join(root, "out", "pkg"))
	assert.True(t, filepath.IsAbs(target), "link target %s should be absolute", target)
}

func TestMaterializeEmptySet(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "out")

	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), nil, dest, Options{})
	require.NoError(t, err)

	assert.True(t, testutil.DirExists(t, dest))
	assert.Empty(t, result.Entries)
	assert.True(t, result.OK())
	assert.NoError(t, result.Err())
	assert.Empty(t, testutil.SnapshotTree(t, dest))
}

func TestMaterializeRejectsInvalidInput(t *testing.T) {
	deps := lodashAndLeftPad(t)

	tests := []struct {
		name string
		deps []types.Dependency
		dest string
		opts Options
		code errors.ErrorCode
	}{
		{
			name: "empty destination",
			deps: deps,
			dest: "",
			code: errors.ErrInvalidDestination,
		},
		{
			name: "unknown mode",
			deps: deps,
			dest: "out",
			opts: Options{Mode: "hardlink"},
			code: errors.ErrInvalidInput,
		},
		{
			name: "negative concurrency",
			deps: deps,
			dest: "out",
			opts: Options{Concurrency: -1},
			code: errors.ErrInvalidInput,
		},
		{
			name: "duplicate names",
			deps: append([]types.Dependency{deps[0]}, deps...),
			dest: "out",
			code: errors.ErrInvalidInput,
		},
		{
			name: "escaping name",
			deps: []types.Dependency{{Name: "../evil", Source: deps[0].Source}},
			dest: "out",
			code: errors.ErrInvalidInput,
		},
		{
			name: "empty name",
			deps: []types.Dependency{{Name: "", Source: deps[0].Source}},
			dest: "out",
			code: errors.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := testutil.NewFaultyFS(filesystem.NewOS())
			dest := tt.dest
			if dest != "" {
				dest = filepath.Join(t.TempDir(), dest)
			}

			result, err := newTestEngine(fsys).Materialize(context.Background(), tt.deps, dest, tt.opts)
			assert.Nil(t, result)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
			assert.Zero(t, fsys.Calls("MkdirAll"), "nothing may be touched before validation passes")
			if dest != "" {
				testutil.AssertNoFile(t, dest)
			}
		})
	}
}

func TestMaterializeDestinationUnwritable(t *testing.T) {
	deps := lodashAndLeftPad(t)

	t.Run("destination is a file", func(t *testing.T) {
		dest := testutil.CreateFile(t, t.TempDir(), "out", "not a directory")

		result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, dest, Options{})
		assert.Nil(t, result)
		assert.True(t, errors.IsErrorCode(err, errors.ErrDestinationUnwritable), "got %v", err)
	})

	t.Run("destination cannot be created", func(t *testing.T) {
		fsys := testutil.NewFaultyFS(filesystem.NewOS())
		fsys.MkdirAllFunc = func(string) error { return os.ErrPermission }

		result, err := newTestEngine(fsys).Materialize(context.Background(), deps, filepath.Join(t.TempDir(), "out"), Options{})
		assert.Nil(t, result)
		assert.True(t, errors.IsErrorCode(err, errors.ErrDestinationUnwritable), "got %v", err)
	})

	t.Run("entry cannot be written", func(t *testing.T) {
		fsys := testutil.NewFaultyFS(filesystem.NewOS())
		fsys.WriteFileFunc = func(name string) error {
			if strings.Contains(name, "left-pad") {
				return os.ErrPermission
			}
			return nil
		}
		dest := filepath.Join(t.TempDir(), "out")

		result, err := newTestEngine(fsys).Materialize(context.Background(), deps, dest, Options{})
		require.NoError(t, err)

		failed, _ := result.Outcome("left-pad")
		assert.True(t, errors.IsErrorCode(failed.Err, errors.ErrDestinationUnwritable), "got %v", failed.Err)
		ok, _ := result.Outcome("lodash")
		assert.NoError(t, ok.Err)
	})
}

func TestMaterializeSourceUnavailable(t *testing.T) {
	deps := lodashAndLeftPad(t)
	require.NoError(t, os.RemoveAll(deps[1].Source.Path))
	deps = append(deps, types.Dependency{Name: "no-source"})
	dest := filepath.Join(t.TempDir(), "out")

	for _, opts := range []Options{{Mode: types.ModeCopy}, {Mode: types.ModeCopy, WholeTree: true}, {Mode: types.ModeLink}} {
		result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, dest, opts)
		require.NoError(t, err)

		for _, name := range []string{"left-pad", "no-source"} {
			o, _ := result.Outcome(name)
			assert.True(t, errors.IsErrorCode(o.Err, errors.ErrSourceUnavailable), "%s %s: got %v", opts.Mode, name, o.Err)
			assert.Equal(t, name, errors.GetErrorDetails(o.Err)["name"])
			assert.Empty(t, o.Kind)
		}
		lodash, _ := result.Outcome("lodash")
		assert.NoError(t, lodash.Err)
		assert.False(t, result.OK())
	}
}

func TestMaterializeRemovalFailed(t *testing.T) {
	deps := lodashAndLeftPad(t)
	dest := filepath.Join(t.TempDir(), "out")
	testutil.CreateFile(t, dest, "lodash/stale.js", "old")
	testutil.CreateFile(t, dest, "left-pad", "old file")

	fsys := testutil.NewFaultyFS(filesystem.NewOS())
	fsys.RemoveAllFunc = func(path string) error {
		if filepath.Base(path) == "lodash" {
			return os.ErrPermission
		}
		return nil
	}

	result, err := newTestEngine(fsys).Materialize(context.Background(), deps, dest, Options{})
	require.NoError(t, err)

	lodash, _ := result.Outcome("lodash")
	assert.True(t, errors.IsErrorCode(lodash.Err, errors.ErrRemovalFailed), "got %v", lodash.Err)
	assert.False(t, lodash.Replaced)
	testutil.AssertFileContent(t, filepath.Join(dest, "lodash", "stale.js"), "old")

	leftPad, _ := result.Outcome("left-pad")
	require.NoError(t, leftPad.Err)
	assert.True(t, leftPad.Replaced)
	testutil.AssertFileContent(t, filepath.Join(dest, "left-pad", "index.js"), "module.exports = pad")
}

func TestMaterializeClearNeverFollowsLinks(t *testing.T) {
	testutil.SkipOnWindows(t)

	deps := lodashAndLeftPad(t)
	dest := filepath.Join(t.TempDir(), "out")
	engine := newTestEngine(filesystem.NewOS())

	linked, err := engine.Materialize(context.Background(), deps, dest, Options{Mode: types.ModeLink})
	require.NoError(t, err)
	require.True(t, linked.OK())
	before := testutil.SnapshotTree(t, deps[0].Source.Path)

	copied, err := engine.Materialize(context.Background(), deps, dest, Options{Mode: types.ModeCopy, WholeTree: true})
	require.NoError(t, err)
	require.True(t, copied.OK(), "unexpected failures: %v", copied.Err())

	assert.False(t, testutil.SymlinkExists(t, filepath.Join(dest, "lodash")))
	assert.True(t, testutil.DirExists(t, filepath.Join(dest, "lodash")))
	if diff := cmp.Diff(before, testutil.SnapshotTree(t, deps[0].Source.Path)); diff != "" {
		t.Errorf("clearing a link touched its target (-before +after):\n%s", diff)
	}

	relinked, err := engine.Materialize(context.Background(), deps, dest, Options{Mode: types.ModeLink})
	require.NoError(t, err)
	require.True(t, relinked.OK())
	testutil.AssertSymlink(t, filepath.Join(dest, "lodash"), deps[0].Source.Path)
}

func TestMaterializeLinkUnsupported(t *testing.T) {
	if filesystem.SupportsJunctions() {
		t.Skip("junctions are supported on this platform")
	}
	deps := lodashAndLeftPad(t)
	dest := filepath.Join(t.TempDir(), "out")

	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, dest,
		Options{Mode: types.ModeLink, LinkKind: types.LinkJunction})
	require.NoError(t, err)

	require.Len(t, result.Failed(), 2)
	for _, o := range result.Failed() {
		assert.True(t, errors.IsErrorCode(o.Err, errors.ErrLinkUnsupported), "%s: got %v", o.Name, o.Err)
	}
	testutil.AssertNoFile(t, filepath.Join(dest, "lodash"))
}

func TestMaterializeLinkUnsupportedByFilesystem(t *testing.T) {
	testutil.SkipOnWindows(t)

	deps := lodashAndLeftPad(t)
	fsys := testutil.NewFaultyFS(filesystem.NewOS())
	fsys.SymlinkFunc = func(_, newname string) error {
		if filepath.Base(newname) == "lodash" {
			return &os.LinkError{Op: "symlink", New: newname, Err: syscall.EPERM}
		}
		return nil
	}

	result, err := newTestEngine(fsys).Materialize(context.Background(), deps, filepath.Join(t.TempDir(), "out"),
		Options{Mode: types.ModeLink})
	require.NoError(t, err)

	lodash, _ := result.Outcome("lodash")
	assert.True(t, errors.IsErrorCode(lodash.Err, errors.ErrLinkUnsupported), "got %v", lodash.Err)
	leftPad, _ := result.Outcome("left-pad")
	assert.NoError(t, leftPad.Err)
}

func TestMaterializeScopedNames(t *testing.T) {
	deps := installStore(t,
		testutil.Package{Name: "@babel/core", Main: "lib/index.js", Files: map[string]string{"lib/index.js": "core"}},
		testutil.Package{Name: "@babel/parser", Main: "lib/index.js", Files: map[string]string{"lib/index.js": "parser"}},
	)
	dest := filepath.Join(t.TempDir(), "out")

	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps, dest, Options{})
	require.NoError(t, err)
	require.True(t, result.OK(), "unexpected failures: %v", result.Err())

	testutil.AssertFileContent(t, filepath.Join(dest, "@babel", "core", "index.js"), "core")
	testutil.AssertFileContent(t, filepath.Join(dest, "@babel", "parser", "index.js"), "parser")
}

func TestMaterializeBoundedConcurrency(t *testing.T) {
	var pkgs []testutil.Package
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		pkgs = append(pkgs, testutil.Package{Name: name, Main: "index.js", Files: map[string]string{"index.js": name}})
	}
	deps := installStore(t, pkgs...)

	var inFlight, peak atomic.Int32
	fsys := testutil.NewFaultyFS(filesystem.NewOS())
	fsys.WriteFileFunc = func(string) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}

	result, err := newTestEngine(fsys).Materialize(context.Background(), deps, filepath.Join(t.TempDir(), "out"),
		Options{Concurrency: 2})
	require.NoError(t, err)
	assert.Len(t, result.Succeeded(), len(deps))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestMaterializeTimeout(t *testing.T) {
	deps := installStore(t,
		testutil.Package{Name: "fast", Main: "index.js", Files: map[string]string{"index.js": "fast"}},
		testutil.Package{Name: "slow", Main: "index.js", Files: map[string]string{"index.js": "slow"}},
	)

	run := func(t *testing.T, ctx context.Context, opts Options) {
		release := make(chan struct{})
		fsys := testutil.NewFaultyFS(filesystem.NewOS())
		fsys.WriteFileFunc = func(name string) error {
			if strings.Contains(name, "slow") {
				<-release
			}
			return nil
		}
		dest := filepath.Join(t.TempDir(), "out")
		engine := newTestEngine(fsys)

		result, err := engine.Materialize(ctx, deps, dest, opts)
		assert.True(t, errors.IsErrorCode(err, errors.ErrTimeout), "got %v", err)
		require.NotNil(t, result)

		fast, _ := result.Outcome("fast")
		assert.NoError(t, fast.Err)
		slow, _ := result.Outcome("slow")
		assert.True(t, errors.IsErrorCode(slow.Err, errors.ErrTimeout), "got %v", slow.Err)

		// the pipeline is left running, not stopped
		close(release)
		assert.Eventually(t, func() bool {
			_, err := os.Stat(filepath.Join(dest, "slow", "index.js"))
			return err == nil
		}, 2*time.Second, 10*time.Millisecond)

		// the returned result does not change afterwards
		slow, _ = result.Outcome("slow")
		assert.True(t, errors.IsErrorCode(slow.Err, errors.ErrTimeout))
	}

	t.Run("timeout option", func(t *testing.T) {
		run(t, context.Background(), Options{Timeout: 200 * time.Millisecond})
	})

	t.Run("context deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		run(t, ctx, Options{})
	})
}

func TestMaterializeTimeoutKeepsFinishedEntries(t *testing.T) {
	deps := installStore(t,
		testutil.Package{Name: "fast", Main: "index.js", Files: map[string]string{"index.js": "fast"}},
	)
	result, err := newTestEngine(filesystem.NewOS()).Materialize(context.Background(), deps,
		filepath.Join(t.TempDir(), "out"), Options{Timeout: time.Minute})
	require.NoError(t, err)
	assert.True(t, result.OK())
}

func TestMaterializeModeSwitch(t *testing.T) {
	testutil.SkipOnWindows(t)

	deps := lodashAndLeftPad(t)
	dest := filepath.Join(t.TempDir(), "out")
	engine := newTestEngine(filesystem.NewOS())

	var seen []string
	for _, opts := range []Options{
		{Mode: types.ModeCopy},
		{Mode: types.ModeLink},
		{Mode: types.ModeCopy, WholeTree: true},
		{Mode: types.ModeCopy},
	} {
		result, err := engine.Materialize(context.Background(), deps, dest, opts)
		require.NoError(t, err)
		require.True(t, result.OK(), "unexpected failures: %v", result.Err())

		entries, err := os.ReadDir(dest)
		require.NoError(t, err)
		seen = seen[:0]
		for _, e := range entries {
			seen = append(seen, e.Name())
		}
		sort.Strings(seen)
		assert.Equal(t, []string{"left-pad", "lodash"}, seen)
	}

	testutil.AssertFileContent(t, filepath.Join(dest, "lodash", "lodash.js"), "module.exports = {}")
	testutil.AssertNoFile(t, filepath.Join(dest, "lodash", "package.json"))
}

// chdir is the go1.21 equivalent of t.Chdir: it changes the working
// directory for the duration of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
