package ecommerce

import "time"

// shopifyOrdersResponse is the Admin API envelope for the orders listing
type shopifyOrdersResponse struct {
	Orders []shopifyOrder `json:"orders"`
}

// shopifyOrder is the wire representation of an order
type shopifyOrder struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Currency        string            `json:"currency"`
	TotalPrice      string            `json:"total_price"`
	FinancialStatus string            `json:"financial_status"`
	CreatedAt       time.Time         `json:"created_at"`
	Customer        *shopifyCustomer  `json:"customer"`
	LineItems       []shopifyLineItem `json:"line_items"`
}

// shopifyCustomer is the wire representation of the order's customer
type shopifyCustomer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// shopifyLineItem is the wire representation of an order line
type shopifyLineItem struct {
	SKU      string `json:"sku"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}
