package integration

import (
	"context"
	"time"
)

// ShopifyOrder is the subset of an e-commerce order the pipeline consumes.
type ShopifyOrder struct {
	ID            string
	OrderNumber   string
	Email         string
	CustomerID    string
	CustomerName  string
	Currency      string
	TotalPrice    string
	FinancialStat string
	CreatedAt     time.Time
	LineItems     []ShopifyLineItem
}

// ShopifyLineItem is one line of an e-commerce order
type ShopifyLineItem struct {
	SKU      string
	Title    string
	Quantity int
	Price    string
}

// ShopifyClient is the port to the e-commerce platform. The webhook path is
// the primary intake; FetchOrders backfills orders missed while webhooks
// were failing.
type ShopifyClient interface {
	// FetchOrders returns orders updated since the given time.
	FetchOrders(ctx context.Context, updatedSince time.Time) ([]ShopifyOrder, error)
}
