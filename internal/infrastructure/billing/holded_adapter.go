package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/santabrisa/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the Holded API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// HoldedAdapter implements integration.HoldedClient against the Holded
// invoicing API. List endpoints are paginated; a page shorter than
// integration.HoldedPageSize is the last one.
type HoldedAdapter struct {
	config     *HoldedConfig
	httpClient *http.Client
	baseURL    string
}

// HoldedAdapterOption is a functional option for configuring the adapter
type HoldedAdapterOption func(*HoldedAdapter)

// WithHoldedBaseURL overrides the API base URL. Used in tests.
func WithHoldedBaseURL(baseURL string) HoldedAdapterOption {
	return func(a *HoldedAdapter) {
		a.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewHoldedAdapter creates a new Holded adapter with the given configuration
func NewHoldedAdapter(config *HoldedConfig, opts ...HoldedAdapterOption) (*HoldedAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &HoldedAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// FetchContacts returns one page of contacts, 1-based
func (a *HoldedAdapter) FetchContacts(ctx context.Context, page int) ([]integration.HoldedContact, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/invoicing/v1/contacts?page="+strconv.Itoa(page), nil)
	if err != nil {
		return nil, err
	}

	var wire []holdedContact
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, malformedResponse("contacts", err)
	}

	contacts := make([]integration.HoldedContact, 0, len(wire))
	for _, c := range wire {
		contacts = append(contacts, integration.HoldedContact{
			ID:    c.ID,
			Name:  c.Name,
			Email: c.Email,
			Phone: c.Phone,
		})
	}
	return contacts, nil
}

// FetchPurchases returns one page of purchase documents, 1-based
func (a *HoldedAdapter) FetchPurchases(ctx context.Context, page int) ([]integration.HoldedDocument, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/invoicing/v1/documents/purchase?page="+strconv.Itoa(page), nil)
	if err != nil {
		return nil, err
	}

	var wire []holdedDocument
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, malformedResponse("purchases", err)
	}

	docs := make([]integration.HoldedDocument, 0, len(wire))
	for _, d := range wire {
		docs = append(docs, integration.HoldedDocument{
			ID:       d.ID,
			DocType:  d.DocType,
			Contact:  d.Contact,
			Date:     d.Date,
			Total:    d.Total,
			Currency: d.Currency,
		})
	}
	return docs, nil
}

// FetchProducts returns one page of products, 1-based
func (a *HoldedAdapter) FetchProducts(ctx context.Context, page int) ([]integration.HoldedProduct, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/invoicing/v1/products?page="+strconv.Itoa(page), nil)
	if err != nil {
		return nil, err
	}

	var wire []holdedProduct
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, malformedResponse("products", err)
	}

	products := make([]integration.HoldedProduct, 0, len(wire))
	for _, p := range wire {
		products = append(products, integration.HoldedProduct{
			ID:    p.ID,
			Name:  p.Name,
			SKU:   p.SKU,
			Price: p.Price,
			Stock: p.Stock,
		})
	}
	return products, nil
}

// CreateInvoice creates a sales invoice on the platform
func (a *HoldedAdapter) CreateInvoice(ctx context.Context, spec integration.HoldedInvoiceSpec) (integration.HoldedCreatedInvoice, error) {
	payload := holdedCreateInvoiceRequest{
		ContactID: spec.ContactID,
		DocNumber: spec.Number,
		Currency:  spec.Currency,
		Items:     make([]holdedInvoiceItem, 0, len(spec.Items)),
	}
	for _, item := range spec.Items {
		payload.Items = append(payload.Items, holdedInvoiceItem{
			Name:     item.Name,
			SKU:      item.SKU,
			Units:    item.Units,
			Subtotal: item.Subtotal,
		})
	}

	body, err := a.doRequest(ctx, http.MethodPost, "/invoicing/v1/documents/invoice", payload)
	if err != nil {
		return integration.HoldedCreatedInvoice{}, err
	}

	var resp holdedCreateInvoiceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return integration.HoldedCreatedInvoice{}, malformedResponse("invoice", err)
	}
	if resp.ID == "" {
		return integration.HoldedCreatedInvoice{}, &integration.APIError{
			Platform: "holded",
			Status:   0,
			Body:     fmt.Sprintf("invoice creation returned no document id: %s", resp.Info),
		}
	}

	return integration.HoldedCreatedInvoice{
		ID:          resp.ID,
		DocumentURL: resp.DocumentURL,
	}, nil
}

func (a *HoldedAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("holded: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("holded: failed to create request: %w", err)
	}
	req.Header.Set("key", a.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &integration.APIError{Platform: "holded", Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &integration.APIError{Platform: "holded", Status: 0, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &integration.APIError{
			Platform: "holded",
			Status:   resp.StatusCode,
			Body:     string(body),
		}
	}
	return body, nil
}

func malformedResponse(endpoint string, err error) error {
	return &integration.APIError{
		Platform: "holded",
		Status:   0,
		Body:     fmt.Sprintf("malformed %s response: %v", endpoint, err),
	}
}

// Ensure HoldedAdapter implements HoldedClient
var _ integration.HoldedClient = (*HoldedAdapter)(nil)
