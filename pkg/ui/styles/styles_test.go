package styles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleRegistry(t *testing.T) {
	expectedStyles := []string{
		"Header", "Success", "Error", "Warning", "Muted", "MutedItalic",
		"Bold", "Name", "Kind", "FilePath", "Code",
		"SuccessBadge", "ErrorBadge", "Summary",
	}

	for _, styleName := range expectedStyles {
		t.Run(styleName, func(t *testing.T) {
			_, exists := StyleRegistry[styleName]
			assert.True(t, exists, "Style %s should exist in registry", styleName)
		})
	}
}

func TestGetStyle(t *testing.T) {
	assert.True(t, GetStyle("Bold").GetBold())
	assert.False(t, GetStyle("NonExistentStyle").GetBold())
	assert.Equal(t, 24, GetStyle("Name").GetWidth())
}

func TestRender(t *testing.T) {
	assert.Contains(t, Render("Kind", "copy"), "copy")
	assert.Equal(t, "plain", Render("NonExistentStyle", "plain"))
}

func TestLoadStylesFromFile(t *testing.T) {
	t.Cleanup(func() {
		require.NoError(t, LoadStyles(defaultStyles))
	})

	path := filepath.Join(t.TempDir(), "styles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
colors:
  accent:
    light: "#000000"
    dark: "#FFFFFF"
styles:
  Custom:
    bold: true
    foreground: accent
`), 0644))

	require.NoError(t, LoadStylesFromFile(path))
	assert.True(t, GetStyle("Custom").GetBold())
	_, exists := StyleRegistry["Success"]
	assert.False(t, exists)

	assert.Error(t, LoadStylesFromFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, LoadStyles([]byte("styles: [not a map")))
}
