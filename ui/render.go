package ui

import (
	"embed"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"toggleAction": func(r Row) string { return "/flags/" + string(r.Name) + "/toggle" },
	"lower":        strings.ToLower,
}).ParseFS(templateFS, "templates/*.html"))

// RenderHTML writes p as an HTML document.
func RenderHTML(w io.Writer, p Page) error {
	return pageTemplate.ExecuteTemplate(w, "page.html", p)
}
