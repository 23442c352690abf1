package templates

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	fsys := fstest.MapFS{
		"popup.html":  {Data: []byte(`{{define "popup"}}<strong>{{.Name}}</strong>{{end}}`)},
		"nested.html": {Data: []byte(`{{define "pair"}}{{template "popup" .}}|{{.B}}{{end}}`)},
		"script.html": {Data: []byte(`{{define "script"}}<script>const cfg = {{js .}};</script>{{end}}`)},
	}
	r, err := New(fsys)
	require.NoError(t, err)

	out, err := r.Render("popup", map[string]string{"Name": "A & B"})
	require.NoError(t, err)
	assert.Equal(t, "<strong>A &amp; B</strong>", out)

	out, err = r.Render("pair", map[string]string{"Name": "x", "B": "y"})
	require.NoError(t, err)
	assert.Equal(t, "<strong>x</strong>|y", out)

	out, err = r.Render("script", map[string]any{"zoom": 16})
	require.NoError(t, err)
	assert.Contains(t, out, `{"zoom":16}`)

	assert.True(t, r.Has("popup"))
	assert.False(t, r.Has("missing"))

	_, err = r.Render("missing", nil)
	assert.Error(t, err)
}

func TestRenderer_Reload(t *testing.T) {
	fsys := fstest.MapFS{
		"a.html": {Data: []byte(`{{define "a"}}one{{end}}`)},
	}
	r, err := New(fsys)
	require.NoError(t, err)

	fsys["a.html"] = &fstest.MapFile{Data: []byte(`{{define "a"}}two{{end}}`)}
	require.NoError(t, r.Reload())
	out, err := r.Render("a", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", out)

	fsys["a.html"] = &fstest.MapFile{Data: []byte(`{{define "a"}}{{.Broken{{end}}`)}
	assert.Error(t, r.Reload())
	out, err = r.Render("a", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", out, "old set kept")
}

func TestNew_NoMatches(t *testing.T) {
	_, err := New(fstest.MapFS{})
	assert.Error(t, err)
}
