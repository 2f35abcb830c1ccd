package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/manifest"
	"github.com/arthur-debert/deplink/pkg/paths"
	"github.com/arthur-debert/deplink/pkg/types"
)

// EnvNodePath lists extra directories searched after node_modules
const EnvNodePath = "NODE_PATH"

const (
	nodeModulesDir = "node_modules"
	defaultMain    = "index.js"
)

// NodeResolver finds installed packages in node_modules directories
type NodeResolver struct {
	fs          types.FS
	baseDir     string
	searchPaths []string
}

// NewNodeResolver creates a resolver searching from baseDir upwards, then
// the NODE_PATH entries
func NewNodeResolver(fsys types.FS, baseDir string) *NodeResolver {
	var searchPaths []string
	for _, p := range filepath.SplitList(os.Getenv(EnvNodePath)) {
		if p != "" {
			searchPaths = append(searchPaths, p)
		}
	}
	return &NodeResolver{fs: fsys, baseDir: baseDir, searchPaths: searchPaths}
}

// WithSearchPaths replaces the NODE_PATH entries
func (r *NodeResolver) WithSearchPaths(searchPaths ...string) *NodeResolver {
	r.searchPaths = searchPaths
	return r
}

// Resolve locates name. Path is the package directory and Main its entry
// file; Main stays empty when the package declares no existing entry file.
func (r *NodeResolver) Resolve(name string) (types.Source, error) {
	if err := paths.ValidateName(name); err != nil {
		return types.Source{}, errors.Wrapf(err, errors.ErrDependencyUnresolved,
			"cannot resolve %q", name).WithDetail("name", name)
	}

	dirs, err := r.lookupDirs()
	if err != nil {
		return types.Source{}, errors.Wrapf(err, errors.ErrDependencyUnresolved,
			"cannot resolve %q", name).WithDetail("name", name)
	}

	for _, dir := range dirs {
		candidate := paths.EntryPath(dir, name)
		if info, err := r.fs.Stat(candidate); err == nil && info.IsDir() {
			return types.Source{Path: candidate, Main: r.mainFile(candidate)}, nil
		}
		if file := candidate + ".js"; r.isFile(file) {
			return types.Source{Path: file, Main: file}, nil
		}
	}

	return types.Source{}, errors.Newf(errors.ErrDependencyUnresolved,
		"cannot find module %q from %s", name, r.baseDir).
		WithDetail("name", name).
		WithDetail("searched", dirs)
}

// lookupDirs lists the directories a name is looked up in, nearest first
func (r *NodeResolver) lookupDirs() ([]string, error) {
	base, err := filepath.Abs(r.baseDir)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for dir := base; ; {
		if filepath.Base(dir) != nodeModulesDir {
			dirs = append(dirs, filepath.Join(dir, nodeModulesDir))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for _, p := range r.searchPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, abs)
	}
	return dirs, nil
}

// mainFile finds the package entry point the way require() does for a
// directory: the manifest's main (as a file, with .js/.json, or as a
// directory index), falling back to index.js
func (r *NodeResolver) mainFile(pkgDir string) string {
	main := defaultMain
	if m, err := manifest.Read(r.fs, pkgDir, manifest.DefaultFile); err == nil && m.Main != "" {
		main = m.Main
	}

	base := filepath.Join(pkgDir, filepath.FromSlash(main))
	candidates := []string{base}
	if !strings.HasSuffix(base, ".js") {
		candidates = append(candidates, base+".js", base+".json")
	}
	candidates = append(candidates, filepath.Join(base, defaultMain))
	if main != defaultMain {
		candidates = append(candidates, filepath.Join(pkgDir, defaultMain))
	}

	for _, candidate := range candidates {
		if r.isFile(candidate) {
			return candidate
		}
	}
	return ""
}

func (r *NodeResolver) isFile(path string) bool {
	info, err := r.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
