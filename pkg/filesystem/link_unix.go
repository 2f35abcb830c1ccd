//go:build !windows

package filesystem

import (
	stderrors "errors"

	"github.com/arthur-debert/deplink/pkg/types"
	"golang.org/x/sys/unix"
)

const supportsJunctions = false

// createLink only sees default and symlink kinds here
func createLink(fsys types.FS, target, path string, _ types.LinkKind) (types.LinkKind, error) {
	if err := fsys.Symlink(target, path); err != nil {
		return "", symlinkError(err, target, path)
	}
	return types.LinkSymlink, nil
}

// isLinkUnsupported recognizes the errno values symlink(2) returns on
// filesystems without link support (FAT, some network mounts).
func isLinkUnsupported(err error) bool {
	return stderrors.Is(err, unix.ENOTSUP) ||
		stderrors.Is(err, unix.EOPNOTSUPP) ||
		stderrors.Is(err, unix.EPERM)
}
