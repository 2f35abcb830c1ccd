package resolver

import (
	"path/filepath"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/types"
)

// Resolver maps a dependency name to its installed location
type Resolver interface {
	// Resolve fails with ErrDependencyUnresolved when name cannot be found
	Resolve(name string) (types.Source, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(name string) (types.Source, error)

// Resolve calls f(name)
func (f ResolverFunc) Resolve(name string) (types.Source, error) {
	return f(name)
}

// MapResolver resolves names from a fixed table
type MapResolver map[string]types.Source

// NewMapResolver builds a MapResolver from name to path pairs
func NewMapResolver(pathsByName map[string]string) MapResolver {
	m := make(MapResolver, len(pathsByName))
	for name, path := range pathsByName {
		m[name] = types.Source{Path: path}
	}
	return m
}

// Resolve returns the table entry for name with an absolute path
func (m MapResolver) Resolve(name string) (types.Source, error) {
	src, ok := m[name]
	if !ok || src.Path == "" {
		return types.Source{}, errors.Newf(errors.ErrDependencyUnresolved,
			"cannot find module %q", name).WithDetail("name", name)
	}

	abs, err := filepath.Abs(src.Path)
	if err != nil {
		return types.Source{}, errors.Wrapf(err, errors.ErrDependencyUnresolved,
			"cannot make %s absolute", src.Path).WithDetail("name", name)
	}
	src.Path = abs
	if src.Main != "" && !filepath.IsAbs(src.Main) {
		src.Main = filepath.Join(abs, src.Main)
	}
	return src, nil
}

// ResolveAll resolves every name. Failures do not stop the others: they are
// returned per name, always carrying ErrDependencyUnresolved.
func ResolveAll(r Resolver, names []string) ([]types.Dependency, map[string]error) {
	deps := make([]types.Dependency, 0, len(names))
	failures := make(map[string]error)

	for _, name := range names {
		src, err := r.Resolve(name)
		if err != nil {
			if !errors.IsErrorCode(err, errors.ErrDependencyUnresolved) {
				err = errors.Wrapf(err, errors.ErrDependencyUnresolved,
					"cannot resolve %q", name).WithDetail("name", name)
			}
			failures[name] = err
			continue
		}
		deps = append(deps, types.Dependency{Name: name, Source: src})
	}
	return deps, failures
}
