package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/types"
)

// Directories are always created owner-writable so a later run can clear them.
const ownerDirBits fs.FileMode = 0700

// CopyFile copies a single regular file from src to dst, overwriting dst.
// Links are followed on the source side. Read failures are reported as
// ErrSourceUnavailable and write failures as ErrDestinationUnwritable.
func CopyFile(fsys types.FS, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrSourceUnavailable, "cannot stat source %s", src).
			WithDetail("path", src)
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrSourceUnavailable, "source %s is a directory", src).
			WithDetail("path", src)
	}
	return copyRegular(fsys, src, dst, info.Mode().Perm())
}

// CopyTree recursively copies src to dst. The root of src is followed if it is
// a link; links found inside the tree are recreated as links rather than
// followed. Existing files at the destination are overwritten and existing
// directories are reused, so two writers racing on the same dst end with the
// last writer's content.
func CopyTree(fsys types.FS, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrSourceUnavailable, "cannot stat source %s", src).
			WithDetail("path", src)
	}
	if !info.IsDir() {
		return copyRegular(fsys, src, dst, info.Mode().Perm())
	}
	if within(dst, src) {
		return errors.Newf(errors.ErrDestinationUnwritable,
			"destination %s is inside source %s", dst, src)
	}
	return copyDir(fsys, src, dst, info.Mode().Perm())
}

func copyDir(fsys types.FS, src, dst string, perm fs.FileMode) error {
	if err := fsys.MkdirAll(dst, perm|ownerDirBits); err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot create directory %s", dst).
			WithDetail("path", dst)
	}

	entries, err := fsys.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrSourceUnavailable, "cannot read directory %s", src).
			WithDetail("path", src)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := fsys.Lstat(srcPath)
		if err != nil {
			return errors.Wrapf(err, errors.ErrSourceUnavailable, "cannot stat %s", srcPath).
				WithDetail("path", srcPath)
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			err = copyLink(fsys, srcPath, dstPath)
		case info.IsDir():
			err = copyDir(fsys, srcPath, dstPath, info.Mode().Perm())
		case info.Mode().IsRegular():
			err = copyRegular(fsys, srcPath, dstPath, info.Mode().Perm())
		case info.Mode()&fs.ModeIrregular != 0:
			// windows reports junctions as irregular files
			err = copyReparsePoint(fsys, srcPath, dstPath)
		default:
			err = errors.Newf(errors.ErrSourceUnavailable,
				"cannot copy %s: unsupported file type %s", srcPath, info.Mode().Type()).
				WithDetail("path", srcPath)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func copyRegular(fsys types.FS, src, dst string, perm fs.FileMode) error {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrSourceUnavailable, "cannot read %s", src).
			WithDetail("path", src)
	}

	if err := clearNonRegular(fsys, dst); err != nil {
		return err
	}

	if err := fsys.WriteFile(dst, data, perm); err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot write %s", dst).
			WithDetail("path", dst)
	}
	// WriteFile keeps the mode of a file that already existed
	if err := fsys.Chmod(dst, perm); err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot chmod %s", dst).
			WithDetail("path", dst)
	}
	return nil
}

func copyLink(fsys types.FS, src, dst string) error {
	target, err := fsys.Readlink(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrSourceUnavailable, "cannot read link %s", src).
			WithDetail("path", src)
	}
	if err := fsys.RemoveAll(dst); err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot replace %s", dst).
			WithDetail("path", dst)
	}
	if err := fsys.Symlink(target, dst); err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot recreate link %s", dst).
			WithDetail("path", dst)
	}
	return nil
}

// copyReparsePoint recreates a junction as a link of the default kind.
// An irregular file that is not a link cannot be copied.
func copyReparsePoint(fsys types.FS, src, dst string) error {
	target, err := fsys.Readlink(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrSourceUnavailable, "cannot copy irregular file %s", src).
			WithDetail("path", src)
	}
	if err := fsys.RemoveAll(dst); err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot replace %s", dst).
			WithDetail("path", dst)
	}
	_, err = CreateLink(fsys, target, dst, types.LinkDefault)
	return err
}

// clearNonRegular removes whatever sits at path unless it is a regular file,
// so that writing through a stale link never touches the link's target.
func clearNonRegular(fsys types.FS, path string) error {
	info, err := fsys.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot stat %s", path).
			WithDetail("path", path)
	}
	if info.Mode().IsRegular() {
		return nil
	}
	if err := fsys.RemoveAll(path); err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot replace %s", path).
			WithDetail("path", path)
	}
	return nil
}

// within reports whether path is parent or lies below it.
func within(path, parent string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absParent, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
