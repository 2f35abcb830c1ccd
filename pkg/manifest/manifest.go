// Package manifest reads the project manifest (package.json) that declares
// the dependencies deplink materializes.
package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/paths"
	"github.com/arthur-debert/deplink/pkg/types"
	"github.com/samber/lo"
	"github.com/tidwall/jsonc"
)

// DefaultFile is the manifest file name looked up in a project root
const DefaultFile = "package.json"

// Manifest is the subset of a package.json that deplink reads
type Manifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Main                 string            `json:"main"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`

	// Path is the file the manifest was read from
	Path string `json:"-"`
}

// Selection picks which dependency sets are listed
type Selection struct {
	IncludeDev      bool
	IncludeOptional bool
}

// Read loads root/file (file defaults to package.json). A missing file is
// ErrManifestNotFound; anything that is not a JSON object is
// ErrManifestInvalid. Comments and trailing commas are tolerated.
func Read(fsys types.FS, root, file string) (*Manifest, error) {
	if file == "" {
		file = DefaultFile
	}
	path := filepath.Join(root, file)

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrManifestNotFound,
				"no manifest found using path %s", path).WithDetail("path", path)
		}
		if info, statErr := fsys.Stat(path); statErr == nil && info.IsDir() {
			return nil, errors.Newf(errors.ErrManifestNotFound,
				"manifest path %s is a directory", path).WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrManifestInvalid,
			"cannot read manifest %s", path).WithDetail("path", path)
	}

	return Parse(data, path)
}

// Parse decodes manifest content; path is only used in messages
func Parse(data []byte, path string) (*Manifest, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) == 0 || bytes.Equal(stripped, []byte("null")) {
		return nil, errors.Newf(errors.ErrManifestInvalid, "manifest %s is empty", path).
			WithDetail("path", path)
	}

	var m Manifest
	if err := json.Unmarshal(stripped, &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "cannot parse manifest %s", path).
			WithDetail("path", path)
	}
	m.Path = path
	return &m, nil
}

// DependencyNames returns the sorted, de-duplicated names of the selected
// dependency sets. An invalid name makes the whole manifest invalid.
func (m *Manifest) DependencyNames(sel Selection) ([]string, error) {
	names := lo.Keys(m.Dependencies)
	if sel.IncludeDev {
		names = append(names, lo.Keys(m.DevDependencies)...)
	}
	if sel.IncludeOptional {
		names = append(names, lo.Keys(m.OptionalDependencies)...)
	}
	names = lo.Uniq(names)
	sort.Strings(names)

	for _, name := range names {
		if err := paths.ValidateName(name); err != nil {
			return nil, errors.Wrapf(err, errors.ErrManifestInvalid,
				"manifest %s declares an invalid dependency name", m.Path).
				WithDetail("name", name)
		}
	}
	return names, nil
}

// VersionSpec returns the declared version constraint of name, searching
// dependencies, then devDependencies, then optionalDependencies.
func (m *Manifest) VersionSpec(name string) (string, bool) {
	for _, set := range []map[string]string{m.Dependencies, m.DevDependencies, m.OptionalDependencies} {
		if spec, ok := set[name]; ok {
			return spec, true
		}
	}
	return "", false
}

// ListDependencies reads the manifest at root and returns its dependency names
func ListDependencies(fsys types.FS, root, file string, sel Selection) ([]string, error) {
	m, err := Read(fsys, root, file)
	if err != nil {
		return nil, err
	}
	return m.DependencyNames(sel)
}
