package pipeline

import "context"

// DocumentKind selects the template a document is rendered with
type DocumentKind string

const (
	DocumentKindDeliveryNote DocumentKind = "delivery_note"
	DocumentKindInvoice      DocumentKind = "invoice"
)

// RenderRequest contains the data a document is rendered from
type RenderRequest struct {
	Kind   DocumentKind
	Number string
	Data   map[string]any
}

// Renderer renders business documents for archival
type Renderer interface {
	// Render produces the document bytes and their content type.
	Render(ctx context.Context, req *RenderRequest) ([]byte, string, error)
}

// DocumentStore archives rendered documents and hands back a stable URL
type DocumentStore interface {
	// Store writes the document under the given key and returns its URL.
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
