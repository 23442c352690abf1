// Package templates renders the map page and the HTML fragments sent over
// Datastar SSE.
package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sync"
)

// DefaultPatterns are the globs parsed when New gets none.
var DefaultPatterns = []string{"*.html"}

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// js marshals a value for use inside a <script> block.
	"js": func(v any) (template.JS, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(b), nil
	},
}

// Renderer manages the page and fragment templates.
type Renderer struct {
	fsys      fs.FS
	patterns  []string
	templates *template.Template
	mu        sync.RWMutex
}

// New parses the templates in fsys matching patterns.
func New(fsys fs.FS, patterns ...string) (*Renderer, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	tmpl, err := parse(fsys, patterns)
	if err != nil {
		return nil, err
	}
	return &Renderer{fsys: fsys, patterns: patterns, templates: tmpl}, nil
}

func parse(fsys fs.FS, patterns []string) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Execute renders a named template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(w, name, data)
}

// Has reports whether a template with the given name is defined.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.Lookup(name) != nil
}

// Reload re-parses the templates. The old set stays in place on error.
func (r *Renderer) Reload() error {
	tmpl, err := parse(r.fsys, r.patterns)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
