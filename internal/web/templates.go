package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates for the gin renderer.
// Pages ship inside the binary so a kiosk deployment stays a single
// artifact next to its database file.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"orDash": orDash,
	}).ParseFS(templateFS, "templates/*.html"))
}

// orDash renders open time-out cells as a placeholder.
func orDash(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}
