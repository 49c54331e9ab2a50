// Package courier provides an abstraction layer for shipping providers.
package courier

import (
	"context"
)

// Provider defines the interface a shipping provider integration must implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "biteship").
	Name() string

	// Configured reports whether the provider has a usable credential.
	// Quoting degrades to static fallback options when it returns false;
	// booking fails hard.
	Configured() bool

	// ResolveArea resolves a free-text city (and optional postal code) into
	// a provider-specific geocoded area id. Returns ErrAreaNotFound when no
	// candidate matches; callers treat that as non-fatal.
	ResolveArea(ctx context.Context, city, postalCode string) (AreaID, error)

	// GetRates returns live shipping options for a rate query, sorted by
	// price ascending.
	GetRates(ctx context.Context, query *RateQuery) ([]ShippingOption, error)

	// CreateOrder books a shipment with the provider.
	CreateOrder(ctx context.Context, req *BookingRequest) (*BookingConfirmation, error)
}
