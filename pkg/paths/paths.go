package paths

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/types"
)

// ScopePrefix marks a scoped dependency name such as @babel/core
const ScopePrefix = "@"

// ValidateName ensures a dependency name is safe to use as a path below the
// destination root. Names must:
// - Not be empty
// - Contain a separator only as the single @scope/name separator
// - Not contain '.' or '..' elements
// - Not contain control or reserved characters
func ValidateName(name string) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "dependency name cannot be empty")
	}

	if strings.Contains(name, "\\") {
		return errors.Newf(errors.ErrInvalidInput, "dependency name %q contains a backslash", name)
	}

	segments := strings.Split(name, "/")
	switch {
	case len(segments) == 1:
	case len(segments) == 2 && strings.HasPrefix(name, ScopePrefix) && len(segments[0]) > 1:
	default:
		return errors.Newf(errors.ErrInvalidInput,
			"dependency name %q may only contain '/' as @scope/name", name)
	}

	for _, segment := range segments {
		if segment == "" || segment == "." || segment == ".." {
			return errors.Newf(errors.ErrInvalidInput, "dependency name %q has an invalid element", name)
		}
	}

	if strings.ContainsAny(name, ":*?\"<>|") {
		return errors.Newf(errors.ErrInvalidInput, "dependency name %q contains reserved characters", name)
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return errors.Newf(errors.ErrInvalidInput, "dependency name %q contains control characters", name)
		}
	}

	return nil
}

// EntryPath returns where a dependency is materialized: root/<name>.
// The name must have passed ValidateName.
func EntryPath(root, name string) string {
	return filepath.Join(root, filepath.FromSlash(name))
}

// Scope returns the @scope element of a scoped name, or "" for plain names.
func Scope(name string) string {
	if !strings.HasPrefix(name, ScopePrefix) {
		return ""
	}
	scope, _, found := strings.Cut(name, "/")
	if !found {
		return ""
	}
	return scope
}

// PrimaryFile returns the file copied in primary-file copy mode: the
// source's Main when set, otherwise the source path itself.
func PrimaryFile(src types.Source) string {
	if src.Main != "" {
		return src.Main
	}
	return src.Path
}

// CopyTarget returns the path a copy is written to. A whole-tree copy fills
// the entry path itself; a primary-file copy keeps the file's base name
// (and therefore its extension) inside the entry directory.
func CopyTarget(entryPath string, src types.Source, wholeTree bool) string {
	if wholeTree {
		return entryPath
	}
	return filepath.Join(entryPath, filepath.Base(PrimaryFile(src)))
}
