package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g.
// DEPLINK_MATERIALIZE_MODE=link sets materialize.mode
const EnvPrefix = "DEPLINK_"

// ProjectConfigFiles are searched in the manifest root, first match wins
var ProjectConfigFiles = []string{".deplink.toml", "deplink.toml", ".deplink.yaml", "deplink.yaml"}

// LoadOptions selects the layers to load
type LoadOptions struct {
	// Root is the manifest root searched for a project config file.
	// Empty means the manifest.root value from lower layers.
	Root string

	// ConfigFile is an explicit project config file; it must exist.
	ConfigFile string

	// Overrides are applied last, keyed by dotted path (materialize.mode).
	Overrides map[string]interface{}

	// SkipUserConfig ignores the per-user file in the XDG config directory.
	SkipUserConfig bool

	// SkipProjectConfig ignores project config files, ConfigFile included.
	SkipProjectConfig bool

	// SkipEnv ignores DEPLINK_* environment variables.
	SkipEnv bool
}

// Load builds the effective configuration
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Load user config if it exists
	if !opts.SkipUserConfig {
		if err := loadIfExists(k, paths.UserConfigPath()); err != nil {
			return nil, err
		}
	}

	// 3. Load project config
	switch {
	case opts.SkipProjectConfig:
	case opts.ConfigFile != "":
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s", opts.ConfigFile)
		}
		if err := loadFile(k, opts.ConfigFile); err != nil {
			return nil, err
		}
	default:
		root := opts.Root
		if root == "" {
			if override, ok := opts.Overrides["manifest.root"].(string); ok && override != "" {
				root = override
			} else {
				root = k.String("manifest.root")
			}
		}
		for _, name := range ProjectConfigFiles {
			path := filepath.Join(root, name)
			if _, err := os.Stat(path); err == nil {
				if err := loadFile(k, path); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	// 4. Load env vars
	if !opts.SkipEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
		}
	}

	// 5. Apply explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}
	if opts.Root != "" {
		if err := k.Set("manifest.root", opts.Root); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to set manifest root")
		}
	}

	// 6. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the embedded defaults alone, untouched by config files
// or the environment
func Default() (*Config, error) {
	return Load(LoadOptions{
		Root:              ".",
		SkipUserConfig:    true,
		SkipProjectConfig: true,
		SkipEnv:           true,
	})
}

// envKey maps DEPLINK_MATERIALIZE_WHOLE_TREE to materialize.whole_tree.
// Sections are single words, so only the first underscore splits.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func loadIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return loadFile(k, path)
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		parser = toml.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
			WithDetail("path", path)
	}
	return nil
}
