// Package web embeds the HTML form page.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// IndexTemplate is the name of the form page template.
const IndexTemplate = "index.html"

// Templates parses the embedded templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}
