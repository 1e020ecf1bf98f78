package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"peek/internal/report"

	"github.com/rs/zerolog/log"
)

// BodyTemplate is the template file rendered for the report body.
const BodyTemplate = "body.html"

//go:embed templates/*.html
var embedded embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format(time.DateOnly) },
	"join": func(s []string) string { return strings.Join(s, ", ") },
	"seconds": func(f float64) string {
		return fmt.Sprintf("%.1f", f)
	},
}

// Load parses the body template from dir, or the built-in one when dir is
// empty or has no body template.
func Load(dir string) (*template.Template, error) {
	fsys, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	if dir != "" {
		if _, statErr := os.Stat(filepath.Join(dir, BodyTemplate)); statErr == nil {
			fsys = os.DirFS(dir)
			log.Debug().Str("dir", dir).Msg("Using custom templates")
		} else {
			log.Warn().Str("dir", dir).Msg("No body template found, using the built-in one")
		}
	}

	tmpl, err := template.New(BodyTemplate).Funcs(funcs).ParseFS(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// HTML renders the report with the templates found in dir.
func HTML(rep *report.Report, dir string) (string, error) {
	tmpl, err := Load(dir)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, BodyTemplate, rep); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}
