// Package html renders order deliverables as standalone HTML documents.
package html

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// Renderer writes one HTML document per deliverable into its output
// directory. Writes go through a temp file and a rename so a crashed
// render never leaves a partial document behind.
type Renderer struct {
	dir string
	tpl *template.Template
	now func() time.Time
}

// NewRenderer creates a renderer writing into dir. The clock parameter
// is optional; when nil, time.Now is used.
func NewRenderer(dir string, clock func() time.Time) (*Renderer, error) {
	if clock == nil {
		clock = time.Now
	}
	tpl, err := template.New("deliverable").Funcs(template.FuncMap{
		"percent": func(p float64) string { return fmt.Sprintf("%.0f%%", p*100) },
	}).Parse(documentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing deliverable template: %w", err)
	}
	return &Renderer{dir: dir, tpl: tpl, now: clock}, nil
}

// Render writes the document and returns its file path.
func (r *Renderer) Render(ctx context.Context, deliverable domain.Deliverable) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("render cancelled: %w: %v", domain.ErrRender, err)
	}
	if deliverable.OrderID == "" {
		return "", fmt.Errorf("deliverable without order ID: %w", domain.ErrRender)
	}

	var buf bytes.Buffer
	data := struct {
		domain.Deliverable
		GeneratedAt string
	}{
		Deliverable: deliverable,
		GeneratedAt: r.now().UTC().Format("2006-01-02 15:04"),
	}
	if err := r.tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w: %v", domain.ErrRender, err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w: %v", domain.ErrRender, err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("%s_%s.html", sanitize(deliverable.Title), deliverable.OrderID))
	tmp, err := os.CreateTemp(r.dir, ".render-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w: %v", domain.ErrRender, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing document: %w: %v", domain.ErrRender, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing document: %w: %v", domain.ErrRender, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("publishing document: %w: %v", domain.ErrRender, err)
	}

	return path, nil
}

// sanitize makes a title safe for use in a file name.
func sanitize(title string) string {
	if title == "" {
		return "deliverable"
	}
	title = strings.ToLower(title)
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "deliverable"
	}
	return b.String()
}

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 760px; margin: 2rem auto; color: #222; }
h1 { border-bottom: 3px solid #b33; padding-bottom: .3rem; }
table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
th, td { border: 1px solid #ccc; padding: .4rem .6rem; text-align: left; }
th { background: #f4f4f4; }
.footer { margin-top: 2rem; font-size: .85rem; color: #777; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Prepared for <strong>{{.CustomerName}}</strong> (order {{.OrderID}}, {{printf "%.2f" .Price}} EUR).</p>
<table>
<tr><th>Symptom</th><th>Probable cause</th><th>Probability</th><th>Remedy</th></tr>
{{range .Rows}}<tr><td>{{.Symptom}}</td><td>{{.Cause}}</td><td>{{percent .Probability}}</td><td>{{.Remedy}}</td></tr>
{{end}}</table>
<p class="footer">Generated {{.GeneratedAt}} UTC.</p>
</body>
</html>
`
