// Package printing renders business documents from HTML templates.
package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/santabrisa/backend/internal/application/pipeline"
	"github.com/shopspring/decimal"
)

// HTMLRenderer implements pipeline.Renderer using Go's html/template. The
// rendered HTML is archived as-is; PDF conversion happens downstream in the
// warehouse printing station, outside this service.
type HTMLRenderer struct {
	templates map[pipeline.DocumentKind]*template.Template
}

// NewHTMLRenderer creates a renderer with the built-in document templates
func NewHTMLRenderer() (*HTMLRenderer, error) {
	funcs := template.FuncMap{
		"formatMoney": formatMoney,
		"formatDate":  formatDate,
		"upper":       strings.ToUpper,
	}

	templates := make(map[pipeline.DocumentKind]*template.Template)
	for kind, src := range defaultTemplates {
		tmpl, err := template.New(string(kind)).Funcs(funcs).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		templates[kind] = tmpl
	}

	return &HTMLRenderer{templates: templates}, nil
}

// Render produces the document bytes and their content type
func (r *HTMLRenderer) Render(ctx context.Context, req *pipeline.RenderRequest) ([]byte, string, error) {
	tmpl, ok := r.templates[req.Kind]
	if !ok {
		return nil, "", fmt.Errorf("no template for document kind %q", req.Kind)
	}

	data := map[string]any{
		"Number":     req.Number,
		"RenderedAt": time.Now(),
	}
	for k, v := range req.Data {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, "", fmt.Errorf("render %s %s: %w", req.Kind, req.Number, err)
	}

	return buf.Bytes(), "text/html; charset=utf-8", nil
}

// formatMoney renders a decimal amount with two places and a currency code
func formatMoney(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + currency
}

// formatDate renders a time as a date
func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// Ensure HTMLRenderer implements Renderer
var _ pipeline.Renderer = (*HTMLRenderer)(nil)
