package materialize

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/filesystem"
	"github.com/arthur-debert/deplink/pkg/paths"
	"github.com/arthur-debert/deplink/pkg/types"
)

// materializeEntry runs Probe, Clear and Create for one dependency
func (e *Engine) materializeEntry(dep types.Dependency, destRoot string, opts Options) EntryOutcome {
	outcome := EntryOutcome{
		Name:   dep.Name,
		Source: dep.Source,
		Path:   paths.EntryPath(destRoot, dep.Name),
	}
	logger := e.logger.With().Str("name", dep.Name).Str("path", outcome.Path).Logger()

	existing, err := e.probe(outcome.Path)
	if err != nil {
		outcome.Err = withName(err, dep.Name)
		return outcome
	}

	if existing != nil {
		logger.Debug().Str("mode", existing.Mode().String()).Msg("Clearing existing entry")
		if err := e.clear(outcome.Path, existing); err != nil {
			outcome.Err = withName(err, dep.Name)
			return outcome
		}
		outcome.Replaced = true
	}

	kind, err := e.create(dep, outcome.Path, opts)
	if err != nil {
		logger.Debug().Err(err).Msg("Entry failed")
		outcome.Err = withName(err, dep.Name)
		return outcome
	}
	outcome.Kind = kind

	logger.Debug().
		Str("kind", string(kind)).
		Bool("replaced", outcome.Replaced).
		Msg("Entry materialized")
	return outcome
}

// probe returns what occupies path, or nil when nothing does. Links are
// reported as links, never as their targets.
func (e *Engine) probe(path string) (fs.FileInfo, error) {
	info, err := e.fs.Lstat(path)
	if err == nil {
		return info, nil
	}
	if os.IsNotExist(err) {
		return nil, nil
	}
	return nil, errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot inspect %s", path).
		WithDetail("path", path)
}

// clear removes the entry at path. Only a real directory is removed
// recursively: links and junctions are unlinked so their targets survive.
func (e *Engine) clear(path string, existing fs.FileInfo) error {
	var err error
	if existing.IsDir() {
		err = e.fs.RemoveAll(path)
	} else {
		err = e.fs.Remove(path)
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrRemovalFailed, "cannot remove existing entry %s", path).
			WithDetail("path", path)
	}
	return nil
}

func (e *Engine) create(dep types.Dependency, entryPath string, opts Options) (EntryKind, error) {
	if err := e.ensureParent(entryPath); err != nil {
		return "", err
	}
	if err := e.checkSource(dep.Source.Path); err != nil {
		return "", err
	}

	if opts.Mode == types.ModeLink {
		target, err := filepath.Abs(dep.Source.Path)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrSourceUnavailable, "cannot make %s absolute", dep.Source.Path).
				WithDetail("path", dep.Source.Path)
		}
		kind, err := filesystem.CreateLink(e.fs, target, entryPath, opts.LinkKind)
		if err != nil {
			return "", err
		}
		return kindForLink(kind), nil
	}

	if opts.WholeTree {
		if err := filesystem.CopyTree(e.fs, dep.Source.Path, entryPath); err != nil {
			return "", err
		}
		return KindCopy, nil
	}

	primary := paths.PrimaryFile(dep.Source)
	if err := e.checkSource(primary); err != nil {
		return "", err
	}
	if err := e.fs.MkdirAll(entryPath, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot create %s", entryPath).
			WithDetail("path", entryPath)
	}
	if err := filesystem.CopyFile(e.fs, primary, paths.CopyTarget(entryPath, dep.Source, false)); err != nil {
		return "", err
	}
	return KindCopy, nil
}

// ensureParent creates the directory holding entryPath, which differs from
// the destination root only for @scope/name entries
func (e *Engine) ensureParent(entryPath string) error {
	parent := filepath.Dir(entryPath)
	if err := e.fs.MkdirAll(parent, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDestinationUnwritable, "cannot create %s", parent).
			WithDetail("path", parent)
	}
	return nil
}

func (e *Engine) checkSource(path string) error {
	if path == "" {
		return errors.New(errors.ErrSourceUnavailable, "dependency has no source path")
	}
	if _, err := e.fs.Stat(path); err != nil {
		return errors.Wrapf(err, errors.ErrSourceUnavailable, "source %s is not available", path).
			WithDetail("path", path)
	}
	return nil
}
