package web

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-waterfront/internal/templates"
)

func TestLoad_Embedded(t *testing.T) {
	assets, err := Load("")
	require.NoError(t, err)

	_, err = fs.Stat(assets.Static, "map.js")
	require.NoError(t, err)
	_, err = fs.Stat(assets.Static, "map.css")
	require.NoError(t, err)

	r, err := templates.New(assets.Templates)
	require.NoError(t, err)
	for _, name := range []string{"map-page", "style-switcher", "popup-primary", "popup-secondary", "map-error"} {
		assert.True(t, r.Has(name), name)
	}

	out, err := r.Render("popup-primary", map[string]string{
		"Name":    "Vancouver Convention Centre",
		"Address": "1055 Canada Pl, Vancouver, BC",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>Vancouver Convention Centre</strong>")
}

func TestLoad_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "templates"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "static", "map.js"), []byte("//"), 0644))

	assets, err := Load(dir)
	require.NoError(t, err)
	b, err := fs.ReadFile(assets.Static, "map.js")
	require.NoError(t, err)
	assert.Equal(t, "//", string(b))

	_, err = Load(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
