package filesystem

import (
	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/types"
)

// CreateLink creates a link at path pointing to target and returns the kind
// of link actually created. The requested kind is resolved per platform:
// LinkDefault becomes a junction for directory targets on Windows and a
// symbolic link everywhere else. A kind the platform cannot honor fails with
// ErrLinkUnsupported.
func CreateLink(fsys types.FS, target, path string, kind types.LinkKind) (types.LinkKind, error) {
	switch kind {
	case types.LinkDefault, types.LinkSymlink, types.LinkJunction:
	default:
		return "", errors.Newf(errors.ErrLinkUnsupported, "unknown link kind %q", string(kind)).
			WithDetail("path", path)
	}
	if kind == types.LinkJunction && !SupportsJunctions() {
		return "", errors.New(errors.ErrLinkUnsupported,
			"directory junctions are only available on windows").
			WithDetail("path", path).
			WithDetail("target", target)
	}
	return createLink(fsys, target, path, kind)
}

// SupportsJunctions reports whether the current platform distinguishes
// directory junctions from symbolic links.
func SupportsJunctions() bool {
	return supportsJunctions
}

func symlinkError(err error, target, path string) error {
	if isLinkUnsupported(err) {
		return errors.Wrapf(err, errors.ErrLinkUnsupported,
			"symbolic links are not supported at %s", path).
			WithDetail("path", path).
			WithDetail("target", target)
	}
	return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot create link %s", path).
		WithDetail("path", path).
		WithDetail("target", target)
}
