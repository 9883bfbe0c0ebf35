package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/imgsqueeze/controller"
	"github.com/imgsqueeze/web/dataurl"
)

//go:embed templates/*.html
var templates embed.FS

// Renderer renders compressor views from explicit view props.
type Renderer struct {
	tmpl *template.Template
}

// New parses embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("ui").Funcs(template.FuncMap{
		"imageURL": imageURL,
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page renders the whole page.
func (r *Renderer) Page(w io.Writer, v controller.View) error {
	return r.tmpl.ExecuteTemplate(w, "index", v)
}

// Fragment renders only the content area: upload, error and results views.
func (r *Renderer) Fragment(w io.Writer, v controller.View) error {
	return r.tmpl.ExecuteTemplate(w, "content", v)
}

// imageURL marks well-formed image data URLs safe for src attributes.
func imageURL(s string) template.URL {
	mime, _, err := dataurl.Parse(s)
	if err != nil || !dataurl.IsImage(mime) {
		return ""
	}
	return template.URL(s)
}
