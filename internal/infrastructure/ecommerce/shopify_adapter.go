package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/santabrisa/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the Admin API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ShopifyAdapter implements integration.ShopifyClient against the Admin REST
// API. Webhooks are the primary order intake; this adapter backfills orders
// missed while webhook delivery was failing.
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client
	baseURL    string
}

// ShopifyAdapterOption is a functional option for configuring the adapter
type ShopifyAdapterOption func(*ShopifyAdapter)

// WithShopifyBaseURL overrides the API base URL. Used in tests.
func WithShopifyBaseURL(baseURL string) ShopifyAdapterOption {
	return func(a *ShopifyAdapter) {
		a.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewShopifyAdapter creates a new Shopify adapter with the given configuration
func NewShopifyAdapter(config *ShopifyConfig, opts ...ShopifyAdapterOption) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		baseURL: fmt.Sprintf("https://%s/admin/api/%s", config.ShopDomain, config.APIVersion),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// FetchOrders returns orders updated since the given time, up to the API's
// maximum page size.
func (a *ShopifyAdapter) FetchOrders(ctx context.Context, updatedSince time.Time) ([]integration.ShopifyOrder, error) {
	params := url.Values{}
	params.Set("status", "any")
	params.Set("limit", "250")
	params.Set("updated_at_min", updatedSince.UTC().Format(time.RFC3339))

	body, err := a.doRequest(ctx, "/orders.json?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp shopifyOrdersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &integration.APIError{
			Platform: "shopify",
			Status:   0,
			Body:     fmt.Sprintf("malformed orders response: %v", err),
		}
	}

	orders := make([]integration.ShopifyOrder, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		orders = append(orders, convertShopifyOrder(o))
	}
	return orders, nil
}

func (a *ShopifyAdapter) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &integration.APIError{Platform: "shopify", Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &integration.APIError{Platform: "shopify", Status: 0, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &integration.APIError{
			Platform: "shopify",
			Status:   resp.StatusCode,
			Body:     string(body),
		}
	}
	return body, nil
}

// convertShopifyOrder maps the wire order onto the pipeline's view of it
func convertShopifyOrder(o shopifyOrder) integration.ShopifyOrder {
	order := integration.ShopifyOrder{
		ID:            strconv.FormatInt(o.ID, 10),
		OrderNumber:   o.Name,
		Email:         o.Email,
		Currency:      o.Currency,
		TotalPrice:    o.TotalPrice,
		FinancialStat: o.FinancialStatus,
		CreatedAt:     o.CreatedAt,
	}
	if o.Customer != nil {
		order.CustomerID = strconv.FormatInt(o.Customer.ID, 10)
		order.CustomerName = strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
	}
	for _, li := range o.LineItems {
		order.LineItems = append(order.LineItems, integration.ShopifyLineItem{
			SKU:      li.SKU,
			Title:    li.Title,
			Quantity: li.Quantity,
			Price:    li.Price,
		})
	}
	return order
}

// Ensure ShopifyAdapter implements ShopifyClient
var _ integration.ShopifyClient = (*ShopifyAdapter)(nil)
