// Package web holds the HTML templates rendered by the router.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var files embed.FS

var funcMap = template.FuncMap{
	"formatDate":   formatDate,
	"formatAmount": formatAmount,
	"coord":        coord,
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("2006-01-02")
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func coord(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.6f", *v)
}

// Templates parses every page. Each page is addressed by its file name, e.g. "index.html".
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}
	return tmpl, nil
}
