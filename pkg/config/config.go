package config

import (
	"strings"
	"time"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/types"
)

// Config is deplink's effective configuration
type Config struct {
	Manifest    ManifestConfig    `koanf:"manifest" toml:"manifest" yaml:"manifest"`
	Materialize MaterializeConfig `koanf:"materialize" toml:"materialize" yaml:"materialize"`
	Output      OutputConfig      `koanf:"output" toml:"output" yaml:"output"`
}

// ManifestConfig locates the manifest and selects dependency sets
type ManifestConfig struct {
	Root            string `koanf:"root" toml:"root" yaml:"root"`
	File            string `koanf:"file" toml:"file" yaml:"file"`
	IncludeDev      bool   `koanf:"include_dev" toml:"include_dev" yaml:"include_dev"`
	IncludeOptional bool   `koanf:"include_optional" toml:"include_optional" yaml:"include_optional"`
}

// MaterializeConfig controls how dependencies are materialized
type MaterializeConfig struct {
	Destination string        `koanf:"destination" toml:"destination" yaml:"destination"`
	Mode        string        `koanf:"mode" toml:"mode" yaml:"mode"`
	WholeTree   bool          `koanf:"whole_tree" toml:"whole_tree" yaml:"whole_tree"`
	LinkKind    string        `koanf:"link_kind" toml:"link_kind" yaml:"link_kind"`
	Concurrency int           `koanf:"concurrency" toml:"concurrency" yaml:"concurrency"`
	Timeout     time.Duration `koanf:"timeout" toml:"timeout" yaml:"timeout"`
	Prune       bool          `koanf:"prune" toml:"prune" yaml:"prune"`
}

// OutputConfig controls result rendering
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format"`
}

var validFormats = []string{"auto", "term", "terminal", "text", "plain", "json", "yaml"}

// Validate checks enumerated and numeric settings
func (c Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput, "invalid materialize.mode")
	}
	if _, err := c.LinkKind(); err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput, "invalid materialize.link_kind")
	}
	if c.Materialize.Concurrency < 0 {
		return errors.Newf(errors.ErrInvalidInput,
			"materialize.concurrency must not be negative, got %d", c.Materialize.Concurrency)
	}
	if c.Materialize.Timeout < 0 {
		return errors.Newf(errors.ErrInvalidInput,
			"materialize.timeout must not be negative, got %s", c.Materialize.Timeout)
	}
	if c.Manifest.File == "" {
		return errors.New(errors.ErrInvalidInput, "manifest.file must not be empty")
	}

	format := strings.ToLower(c.Output.Format)
	for _, f := range validFormats {
		if format == f || format == "" {
			return nil
		}
	}
	return errors.Newf(errors.ErrInvalidInput, "invalid output.format %q", c.Output.Format)
}

// Mode returns the parsed materialization mode
func (c Config) Mode() (types.Mode, error) {
	return types.ParseMode(c.Materialize.Mode)
}

// LinkKind returns the parsed link kind
func (c Config) LinkKind() (types.LinkKind, error) {
	return types.ParseLinkKind(c.Materialize.LinkKind)
}
