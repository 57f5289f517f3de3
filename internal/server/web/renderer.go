package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer implements echo.Renderer on top of the embedded templates.
// Rendering happens after all store operations for a request have
// completed; no database lock is held here.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() *Renderer {
	return &Renderer{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Render writes the named template with the given data.
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
