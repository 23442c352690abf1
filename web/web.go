// Package web bundles the map page templates and static assets.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed templates/*.html static/*
var content embed.FS

// Assets holds the template and static file systems.
type Assets struct {
	Templates fs.FS
	Static    fs.FS
}

// Load returns the embedded assets, or the ones under dir when dir is set
// (so templates and scripts can be edited without rebuilding).
func Load(dir string) (Assets, error) {
	var root fs.FS = content
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return Assets{}, fmt.Errorf("web dir: %w", err)
		}
		root = os.DirFS(dir)
	}

	templates, err := fs.Sub(root, "templates")
	if err != nil {
		return Assets{}, err
	}
	static, err := fs.Sub(root, "static")
	if err != nil {
		return Assets{}, err
	}
	return Assets{Templates: templates, Static: static}, nil
}
