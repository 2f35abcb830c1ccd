package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/deplink/pkg/errors"
	"github.com/arthur-debert/deplink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"lodash", false},
		{"left-pad", false},
		{"@babel/core", false},
		{"lodash.merge", false},
		{"", true},
		{".", true},
		{"..", true},
		{"a/b", true},
		{"@scope", false},
		{"@/core", true},
		{"@scope/", true},
		{"@scope/..", true},
		{"@a/b/c", true},
		{"a\\b", true},
		{"con:", true},
		{"bad\x00name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if tt.wantErr {
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEntryPath(t *testing.T) {
	root := filepath.Join("out", "deps")
	assert.Equal(t, filepath.Join(root, "lodash"), EntryPath(root, "lodash"))
	assert.Equal(t, filepath.Join(root, "@babel", "core"), EntryPath(root, "@babel/core"))
}

func TestScope(t *testing.T) {
	assert.Equal(t, "@babel", Scope("@babel/core"))
	assert.Equal(t, "", Scope("lodash"))
	assert.Equal(t, "", Scope("@scope"))
}

func TestCopyTarget(t *testing.T) {
	entry := filepath.Join("out", "lodash")
	src := types.Source{
		Path: filepath.Join("store", "lodash"),
		Main: filepath.Join("store", "lodash", "lodash.js"),
	}

	assert.Equal(t, entry, CopyTarget(entry, src, true))
	assert.Equal(t, filepath.Join(entry, "lodash.js"), CopyTarget(entry, src, false))

	fileOnly := types.Source{Path: filepath.Join("store", "left-pad.mjs")}
	assert.Equal(t, filepath.Join(entry, "left-pad.mjs"), CopyTarget(entry, fileOnly, false))
}

func TestXDGDirs(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		t.Setenv(EnvDeplinkConfigDir, "/custom/config")
		t.Setenv(EnvDeplinkStateDir, "/custom/state")

		assert.Equal(t, "/custom/config", ConfigDir())
		assert.Equal(t, filepath.Join("/custom/state", LogFileName), LogFilePath())
		assert.Equal(t, filepath.Join("/custom/config", UserConfigFile), UserConfigPath())
	})

	t.Run("xdg state home", func(t *testing.T) {
		t.Setenv(EnvDeplinkStateDir, "")
		t.Setenv("XDG_STATE_HOME", "/xdg/state")

		assert.Equal(t, filepath.Join("/xdg/state", DeplinkDirName), StateDir())
	})

	t.Run("home expansion", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)
		t.Setenv(EnvDeplinkConfigDir, "~/deplink-config")

		assert.Equal(t, filepath.Join(home, "deplink-config"), ConfigDir())
	})
}
