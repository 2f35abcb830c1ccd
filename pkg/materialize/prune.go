package materialize

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/paths"
)

// prune removes entries under destRoot whose names are not wanted. @scope
// directories are searched one level deeper and removed once empty. Links
// are unlinked, never followed. Failures are returned per entry name.
func (e *Engine) prune(destRoot string, wanted map[string]struct{}) ([]string, map[string]error) {
	var pruned []string
	failures := make(map[string]error)

	wantedScopes := make(map[string]struct{})
	for name := range wanted {
		if scope := paths.Scope(name); scope != "" {
			wantedScopes[scope] = struct{}{}
		}
	}

	entries, err := e.fs.ReadDir(destRoot)
	if err != nil {
		failures["."] = errors.Wrapf(err, errors.ErrRemovalFailed, "cannot list %s", destRoot).
			WithDetail("path", destRoot)
		return nil, failures
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(destRoot, name)

		info, err := e.fs.Lstat(full)
		if err != nil {
			failures[name] = errors.Wrapf(err, errors.ErrRemovalFailed, "cannot inspect %s", full).
				WithDetail("path", full)
			continue
		}

		if strings.HasPrefix(name, paths.ScopePrefix) && info.IsDir() {
			removed, errs := e.pruneScope(destRoot, name, wanted)
			pruned = append(pruned, removed...)
			for k, v := range errs {
				failures[k] = v
			}
			if _, keep := wantedScopes[name]; keep || len(errs) > 0 {
				continue
			}
			if err := e.fs.Remove(full); err != nil {
				failures[name] = errors.Wrapf(err, errors.ErrRemovalFailed, "cannot remove scope %s", full).
					WithDetail("path", full)
			}
			continue
		}

		if _, keep := wanted[name]; keep {
			continue
		}
		if err := e.clear(full, info); err != nil {
			failures[name] = err
			continue
		}
		pruned = append(pruned, name)
	}

	sort.Strings(pruned)
	if len(pruned) > 0 || len(failures) > 0 {
		e.logger.Debug().
			Str("destination", destRoot).
			Strs("pruned", pruned).
			Int("failures", len(failures)).
			Msg("Pruned stale entries")
	}
	return pruned, failures
}

func (e *Engine) pruneScope(destRoot, scope string, wanted map[string]struct{}) ([]string, map[string]error) {
	var pruned []string
	failures := make(map[string]error)

	scopeDir := filepath.Join(destRoot, scope)
	entries, err := e.fs.ReadDir(scopeDir)
	if err != nil {
		failures[scope] = errors.Wrapf(err, errors.ErrRemovalFailed, "cannot list %s", scopeDir).
			WithDetail("path", scopeDir)
		return nil, failures
	}

	for _, entry := range entries {
		name := path.Join(scope, entry.Name())
		if _, keep := wanted[name]; keep {
			continue
		}
		full := filepath.Join(scopeDir, entry.Name())
		info, err := e.fs.Lstat(full)
		if err != nil {
			failures[name] = errors.Wrapf(err, errors.ErrRemovalFailed, "cannot inspect %s", full).
				WithDetail("path", full)
			continue
		}
		if err := e.clear(full, info); err != nil {
			failures[name] = err
			continue
		}
		pruned = append(pruned, name)
	}
	return pruned, failures
}
