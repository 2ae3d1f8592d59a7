// Package render provides server-side HTML rendering for the site.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data every template receives.
type Page struct {
	Title         string
	Username      string
	Authenticated bool
	IsAdmin       bool
	Error         string
	CSRFField     template.HTML
	Data          any
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses all embedded templates. Each page template is paired with
// the layout at parse time.
func New() (*Renderer, error) {
	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, e := range entries {
		name := e.Name()
		if name == "layout.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{pages: pages}, nil
}

// Render writes the page to the response. Render failures after the
// header is sent can only be logged.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *Page) {
	t, ok := r.pages[page]
	if !ok {
		log.Printf("render error: unknown template %s", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = &Page{}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		log.Printf("render error: execute %s: %v", page, err)
	}
}

// StaticFS serves the embedded static assets.
func StaticFS() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Unrecoverable init error
		panic(fmt.Sprintf("static FS: %v", err))
	}
	return http.FileServer(http.FS(sub))
}
