// Package store defines the collaborator interfaces this core reads orders
// and products through. The durable order/product records live in the
// storefront's own persistence; this core only reads them and writes back
// shipping fields.
package store

import (
	"context"
)

// Order is the slice of the storefront order record the fulfillment core
// touches.
type Order struct {
	ID            string
	CustomerName  string
	CustomerPhone string
	Address       string
	City          string
	PostalCode    string
}

// LineItem is one order line referencing a product.
type LineItem struct {
	ProductID       string
	Name            string
	Quantity        int
	ValueMinorUnits int64
}

// Product carries the physical attributes needed to build a booking payload.
type Product struct {
	ID          string
	WeightGrams int
	LengthCm    float64
	WidthCm     float64
	HeightCm    float64
}

// ShippingUpdate is a partial, last-writer-wins update of an order's
// shipping fields. Nil pointers leave the field untouched.
type ShippingUpdate struct {
	CarrierCode     *string
	CarrierName     *string
	ServiceCode     *string
	ServiceName     *string
	TrackingNumber  *string
	ProviderOrderID *string
	TotalWeightKg   *float64
	ShippingNote    *string
}

// OrderStore reads order records and accepts partial shipping updates.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetLineItems(ctx context.Context, orderID string) ([]LineItem, error)
	UpdateShipping(ctx context.Context, orderID string, update ShippingUpdate) error
}

// ProductStore looks up product weight and dimensions by id.
type ProductStore interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

// String returns a pointer to s, for building partial updates.
func String(s string) *string { return &s }

// Float64 returns a pointer to f, for building partial updates.
func Float64(f float64) *float64 { return &f }
