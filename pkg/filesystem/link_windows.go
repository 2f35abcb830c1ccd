//go:build windows

package filesystem

import (
	stderrors "errors"
	"os/exec"
	"strings"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/types"
	"golang.org/x/sys/windows"
)

const supportsJunctions = true

func createLink(fsys types.FS, target, path string, kind types.LinkKind) (types.LinkKind, error) {
	info, err := fsys.Stat(target)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnavailable, "cannot stat link target %s", target).
			WithDetail("target", target)
	}

	if kind == types.LinkSymlink || (kind == types.LinkDefault && !info.IsDir()) {
		if err := fsys.Symlink(target, path); err != nil {
			return "", symlinkError(err, target, path)
		}
		return types.LinkSymlink, nil
	}

	if !info.IsDir() {
		return "", errors.Newf(errors.ErrLinkUnsupported,
			"junctions can only point to directories, %s is a file", target).
			WithDetail("path", path).
			WithDetail("target", target)
	}

	// mklink /J needs no privileges, unlike symbolic links
	out, err := exec.Command("cmd", "/c", "mklink", "/J", path, target).CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrLinkUnsupported,
			"cannot create junction %s: %s", path, strings.TrimSpace(string(out))).
			WithDetail("path", path).
			WithDetail("target", target)
	}
	return types.LinkJunction, nil
}

func isLinkUnsupported(err error) bool {
	return stderrors.Is(err, windows.ERROR_PRIVILEGE_NOT_HELD) ||
		stderrors.Is(err, windows.ERROR_NOT_SUPPORTED)
}
