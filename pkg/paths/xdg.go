package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvDeplinkConfigDir overrides the XDG config directory for deplink
	EnvDeplinkConfigDir = "DEPLINK_CONFIG_DIR"

	// EnvDeplinkStateDir overrides the XDG state directory for deplink
	EnvDeplinkStateDir = "DEPLINK_STATE_DIR"
)

const (
	// DeplinkDirName is the directory name for deplink-specific files
	DeplinkDirName = "deplink"

	// LogFileName is the name of the log file
	LogFileName = "deplink.log"

	// UserConfigFile is the name of the per-user configuration file
	UserConfigFile = "config.toml"
)

// ConfigDir returns deplink's configuration directory
func ConfigDir() string {
	if dir := os.Getenv(EnvDeplinkConfigDir); dir != "" {
		return expandHome(dir)
	}
	return filepath.Join(xdg.ConfigHome, DeplinkDirName)
}

// StateDir returns deplink's state directory, home of the log file
func StateDir() string {
	if dir := os.Getenv(EnvDeplinkStateDir); dir != "" {
		return expandHome(dir)
	}
	// xdg caches StateHome at init; honor a later XDG_STATE_HOME change
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, DeplinkDirName)
	}
	return filepath.Join(xdg.StateHome, DeplinkDirName)
}

// LogFilePath returns the path of deplink's log file
func LogFilePath() string {
	return filepath.Join(StateDir(), LogFileName)
}

// UserConfigPath returns the path of the per-user configuration file
func UserConfigPath() string {
	return filepath.Join(ConfigDir(), UserConfigFile)
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
