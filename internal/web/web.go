// Package web holds the server-rendered views of the watch form. Templates
// are embedded in the binary and parsed once into a single set that gin
// renders by file name ("index.tmpl", "reactivate.tmpl", "error.tmpl").
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/serverwatch/availability-watch/internal/domain"
)

//go:embed templates/*.tmpl
var files embed.FS

// Funcs are the helpers available to every view.
var Funcs = template.FuncMap{
	"price": func(p float64) string { return fmt.Sprintf("%.2f", p) },
	"zoneLabel": func(z string) string {
		switch domain.Zone(z) {
		case domain.ZoneEurope:
			return "Europe"
		case domain.ZoneCanada:
			return "Canada"
		case domain.ZoneAll:
			return "All zones"
		}
		return z
	},
	"zones": func() []domain.Zone { return domain.Zones },
	"same":  strings.EqualFold,
}

// Templates parses the embedded view set.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(files, "templates/*.tmpl")
}

// MustTemplates is Templates for process startup; the set is embedded, so a
// failure is a build defect.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}
