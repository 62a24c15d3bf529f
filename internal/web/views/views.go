package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
)

//go:embed *.html
var templatesFS embed.FS

const layoutName = "layout.html"

// Engine holds one template set per page, each parsed over the shared layout
type Engine struct {
	templates map[string]*template.Template
}

func New() (*Engine, error) {
	e := &Engine{
		templates: make(map[string]*template.Template),
	}

	layoutTmpl, err := template.ParseFS(templatesFS, layoutName)
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(templatesFS, ".")
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == layoutName {
			continue
		}

		name := entry.Name()
		baseName := name[:len(name)-len(filepath.Ext(name))]

		// Clone layout and parse page template
		tmpl, err := layoutTmpl.Clone()
		if err != nil {
			return nil, err
		}

		if _, err := tmpl.ParseFS(templatesFS, name); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		e.templates[baseName] = tmpl
	}

	return e, nil
}

// Render executes page name into w. Nothing is written if execution fails.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	tmpl, ok := e.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
