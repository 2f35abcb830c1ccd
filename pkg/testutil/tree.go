package testutil

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// SnapshotTree walks root without following links and returns one line per
// entry keyed by slash-separated relative path: "dir", "file:<content>" or
// "link:<target>". Two equal snapshots describe identical trees.
func SnapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()

	snapshot := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		key := filepath.ToSlash(rel)

		info, err := os.Lstat(path)
		if err != nil {
			return err
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			snapshot[key] = "link:" + target
		case info.IsDir():
			snapshot[key] = "dir"
		default:
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			snapshot[key] = "file:" + string(content)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to snapshot %s: %v", root, err)
	}
	return snapshot
}

// Package describes a fake installed package for CreatePackage.
type Package struct {
	Name    string
	Version string
	Main    string
	Files   map[string]string
}

// CreatePackage writes an installed package under dir/<name> with a
// package.json and the given files, and returns the package directory.
func CreatePackage(t *testing.T, dir string, pkg Package) string {
	t.Helper()

	pkgDir := CreateDir(t, dir, pkg.Name)

	descriptor := map[string]string{"name": pkg.Name}
	if pkg.Version != "" {
		descriptor["version"] = pkg.Version
	}
	if pkg.Main != "" {
		descriptor["main"] = pkg.Main
	}
	data, err := json.Marshal(descriptor)
	if err != nil {
		t.Fatalf("Failed to encode package.json for %s: %v", pkg.Name, err)
	}
	CreateFile(t, pkgDir, "package.json", string(data))

	for name, content := range pkg.Files {
		CreateFile(t, pkgDir, name, content)
	}
	return pkgDir
}

// CreateManifest writes a package.json declaring the given dependencies in
// dir and returns its path.
func CreateManifest(t *testing.T, dir string, dependencies map[string]string) string {
	t.Helper()

	data, err := json.MarshalIndent(map[string]interface{}{
		"name":         "fixture",
		"version":      "1.0.0",
		"dependencies": dependencies,
	}, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode manifest: %v", err)
	}
	return CreateFile(t, dir, "package.json", string(data))
}
