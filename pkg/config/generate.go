package config

import (
	"strings"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/pelletier/go-toml/v2"
)

// GenerateConfigContent returns the defaults with every value commented out,
// ready to be saved as a project config file
func GenerateConfigContent() string {
	return commentOutConfigValues(GetDefaultsContent())
}

// commentOutConfigValues takes the TOML content and comments out all non-comment, non-blank lines
// that contain configuration values (assignments)
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Keep blank lines, comments and section headers as-is
		if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
			(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
			result = append(result, line)
			continue
		}

		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}

// effective mirrors Config with durations spelled the way the files take them
type effective struct {
	Manifest    ManifestConfig `toml:"manifest"`
	Materialize struct {
		Destination string `toml:"destination"`
		Mode        string `toml:"mode"`
		WholeTree   bool   `toml:"whole_tree"`
		LinkKind    string `toml:"link_kind"`
		Concurrency int    `toml:"concurrency"`
		Timeout     string `toml:"timeout"`
		Prune       bool   `toml:"prune"`
	} `toml:"materialize"`
	Output OutputConfig `toml:"output"`
}

// Dump renders cfg as TOML that Load accepts back
func Dump(cfg Config) (string, error) {
	var out effective
	out.Manifest = cfg.Manifest
	out.Materialize.Destination = cfg.Materialize.Destination
	out.Materialize.Mode = cfg.Materialize.Mode
	out.Materialize.WholeTree = cfg.Materialize.WholeTree
	out.Materialize.LinkKind = cfg.Materialize.LinkKind
	out.Materialize.Concurrency = cfg.Materialize.Concurrency
	out.Materialize.Timeout = cfg.Materialize.Timeout.String()
	out.Materialize.Prune = cfg.Materialize.Prune
	out.Output = cfg.Output

	data, err := toml.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to encode configuration")
	}
	return string(data), nil
}
