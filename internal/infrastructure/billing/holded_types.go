package billing

// holdedContact is the wire representation of a contact
type holdedContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// holdedDocument is the wire representation of a purchase document
type holdedDocument struct {
	ID       string  `json:"id"`
	DocType  string  `json:"docType"`
	Contact  string  `json:"contact"`
	Date     int64   `json:"date"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// holdedProduct is the wire representation of a product
type holdedProduct struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	SKU   string  `json:"sku"`
	Price float64 `json:"price"`
	Stock float64 `json:"stock"`
}

// holdedCreateInvoiceRequest is the payload for creating a sales invoice
type holdedCreateInvoiceRequest struct {
	ContactID string              `json:"contactId"`
	DocNumber string              `json:"docNumber,omitempty"`
	Currency  string              `json:"currency,omitempty"`
	Items     []holdedInvoiceItem `json:"items"`
}

// holdedInvoiceItem is one line of an invoice payload
type holdedInvoiceItem struct {
	Name     string  `json:"name"`
	SKU      string  `json:"sku,omitempty"`
	Units    float64 `json:"units"`
	Subtotal float64 `json:"subtotal"`
}

// holdedCreateInvoiceResponse is the platform's reply to invoice creation
type holdedCreateInvoiceResponse struct {
	Status      int    `json:"status"`
	ID          string `json:"id"`
	Info        string `json:"info"`
	DocumentURL string `json:"url"`
}
