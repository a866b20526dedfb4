package integration

import "context"

// HoldedPageSize is the page size of the invoicing platform's list
// endpoints. A response shorter than this is the last page.
const HoldedPageSize = 50

// HoldedContact is a contact on the invoicing platform
type HoldedContact struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// HoldedDocument is a purchase/expense document on the invoicing platform
type HoldedDocument struct {
	ID       string
	DocType  string
	Contact  string
	Date     int64 // unix seconds
	Total    float64
	Currency string
}

// HoldedProduct is a product on the invoicing platform
type HoldedProduct struct {
	ID    string
	Name  string
	SKU   string
	Price float64
	Stock float64
}

// HoldedInvoiceSpec describes an invoice to create on the invoicing platform.
type HoldedInvoiceSpec struct {
	ContactID string
	Number    string
	Currency  string
	Items     []HoldedInvoiceItem
}

// HoldedInvoiceItem is one line of an invoice to create
type HoldedInvoiceItem struct {
	Name     string
	SKU      string
	Units    float64
	Subtotal float64
}

// HoldedCreatedInvoice is the platform's record of a created invoice
type HoldedCreatedInvoice struct {
	ID          string
	DocumentURL string
}

// HoldedClient is the port to the invoicing/accounting platform.
type HoldedClient interface {
	// FetchContacts returns one page of contacts, 1-based.
	FetchContacts(ctx context.Context, page int) ([]HoldedContact, error)
	// FetchPurchases returns one page of purchase documents, 1-based.
	FetchPurchases(ctx context.Context, page int) ([]HoldedDocument, error)
	// FetchProducts returns one page of products, 1-based.
	FetchProducts(ctx context.Context, page int) ([]HoldedProduct, error)
	// CreateInvoice creates a sales invoice on the platform.
	CreateInvoice(ctx context.Context, spec HoldedInvoiceSpec) (HoldedCreatedInvoice, error)
}
