// Package web embeds the server-rendered dashboard templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses the embedded dashboard templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.tmpl")
}

// Static returns the embedded static assets rooted at "static".
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}

// Funcs are the helpers available to the dashboard templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(ts *time.Time) string {
			if ts == nil || ts.IsZero() {
				return "Never"
			}
			return ts.Local().Format("Jan 2, 2006 15:04")
		},
		"ptr": func(ts time.Time) *time.Time {
			return &ts
		},
		"isSelected": func(selected *int64, id int64) bool {
			return selected != nil && *selected == id
		},
	}
}
