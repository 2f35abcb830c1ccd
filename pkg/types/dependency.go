package types

// Source is the installed location of a dependency as reported by a resolver.
type Source struct {
	// Path is the absolute installed location. It is usually the package
	// directory, but a resolver may map a name straight to a single file.
	Path string `json:"path" yaml:"path"`

	// Main is the package's primary file, when known.
	Main string `json:"main,omitempty" yaml:"main,omitempty"`
}

// Dependency pairs a manifest dependency name with its resolved source.
type Dependency struct {
	Name   string `json:"name" yaml:"name"`
	Source Source `json:"source" yaml:"source"`
}
