package display

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/page.html
var pageFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageFS, "templates/page.html"))

// Page is the data for the HTML form page.
type Page struct {
	// Concept pre-fills the form.
	Concept string
	View    *View
	// Error is a page-level message such as a validation failure.
	Error   string
	History []HistoryLink
}

type HistoryLink struct {
	ID      string
	Concept string
}

func Render(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, p)
}

func (p Page) NeedsMermaidJS() bool {
	return p.View.NeedsMermaidJS()
}
