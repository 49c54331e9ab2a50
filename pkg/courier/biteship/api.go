package biteship

import (
	"context"
	"fmt"
)

// APIClient defines the interface for Biteship API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetAreas searches the geocoded area directory by free-text input.
	GetAreas(ctx context.Context, input string) (*AreasResponse, error)

	// GetRates fetches courier rates for an origin/destination pair.
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)

	// CreateOrder books a shipment.
	CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
}

// ============================================================================
// API Request/Response Types (match Biteship REST API v1 structure)
// ============================================================================

// Area is a single geocoded area candidate.
// GET /v1/maps/areas endpoint
type Area struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryName string `json:"country_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	PostalCode  int    `json:"postal_code,omitempty"`
}

// AreasResponse is the area directory search response.
type AreasResponse struct {
	Success bool   `json:"success"`
	Areas   []Area `json:"areas"`
}

// Item is an order line in rate and order requests. Weight is in grams,
// value in whole rupiah.
type Item struct {
	Name     string  `json:"name"`
	Value    int64   `json:"value"`
	Weight   int     `json:"weight"`
	Quantity int     `json:"quantity"`
	Length   float64 `json:"length,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
}

// RatesRequest represents a courier rate request.
// POST /v1/rates/couriers endpoint
type RatesRequest struct {
	OriginAreaID          string `json:"origin_area_id,omitempty"`
	OriginPostalCode      string `json:"origin_postal_code,omitempty"`
	DestinationAreaID     string `json:"destination_area_id,omitempty"`
	DestinationPostalCode string `json:"destination_postal_code,omitempty"`
	Couriers              string `json:"couriers"` // comma-separated, priority order
	Items                 []Item `json:"items"`
}

// Pricing is a single courier service rate.
type Pricing struct {
	CourierCode           string `json:"courier_code"`
	CourierName           string `json:"courier_name"`
	CourierServiceCode    string `json:"courier_service_code"`
	CourierServiceName    string `json:"courier_service_name"`
	Description           string `json:"description,omitempty"`
	ServiceType           string `json:"service_type,omitempty"`
	ShipmentDurationRange string `json:"shipment_duration_range,omitempty"` // e.g. "2 - 4"
	ShipmentDurationUnit  string `json:"shipment_duration_unit,omitempty"`  // e.g. "days"
	Price                 int64  `json:"price"`
}

// RatesResponse represents the courier rate response.
type RatesResponse struct {
	Success bool      `json:"success"`
	Origin  *Area     `json:"origin,omitempty"`
	Dest    *Area     `json:"destination,omitempty"`
	Pricing []Pricing `json:"pricing"`
}

// OrderRequest represents a shipment creation request.
// POST /v1/orders endpoint
type OrderRequest struct {
	ReferenceID string `json:"reference_id,omitempty"` // idempotency hint, max 128 chars

	OriginContactName  string `json:"origin_contact_name"`
	OriginContactPhone string `json:"origin_contact_phone"`
	OriginAddress      string `json:"origin_address"`
	OriginPostalCode   string `json:"origin_postal_code,omitempty"`
	OriginAreaID       string `json:"origin_area_id,omitempty"`
	OriginNote         string `json:"origin_note,omitempty"`

	DestinationContactName  string `json:"destination_contact_name"`
	DestinationContactPhone string `json:"destination_contact_phone"`
	DestinationAddress      string `json:"destination_address"`
	DestinationPostalCode   string `json:"destination_postal_code,omitempty"`
	DestinationAreaID       string `json:"destination_area_id,omitempty"`
	DestinationNote         string `json:"destination_note,omitempty"`

	CourierCompany string `json:"courier_company"`
	CourierType    string `json:"courier_type"`
	DeliveryType   string `json:"delivery_type"` // "now", "scheduled", "later"
	DeliveryDate   string `json:"delivery_date,omitempty"`
	DeliveryTime   string `json:"delivery_time,omitempty"`

	Items []Item `json:"items"`
}

// OrderCourier is the courier block of an order response.
type OrderCourier struct {
	TrackingID string `json:"tracking_id,omitempty"`
	WaybillID  string `json:"waybill_id,omitempty"`
	Company    string `json:"company"`
	Type       string `json:"type"`
	Link       string `json:"link,omitempty"`
}

// OrderResponse represents the shipment creation response.
type OrderResponse struct {
	Success bool         `json:"success"`
	ID      string       `json:"id"`
	Status  string       `json:"status"`
	Price   int64        `json:"price,omitempty"`
	Courier OrderCourier `json:"courier"`
}

// Error code families returned by the Biteship API. The 40011x family means
// the courier cannot take the shipment for this origin/route; the caller
// degrades to manual booking instead of failing.
const (
	CodeCourierNotAvailable = 40011001 // courier not available at origin
	CodeRouteNotServiceable = 40011002 // courier does not serve the route
	CodeDropOffNotSupported = 40011003 // no drop-off point near origin
	CodeRatesNotFound       = 40012001
	CodeAreaNotFound        = 40013001
)

// APIError represents an error payload from the Biteship API.
type APIError struct {
	Code       int    `json:"code"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("biteship %d: %s", e.Code, e.Message)
}

// CourierUnavailable reports whether the error code is in the family meaning
// the chosen courier cannot service the origin or route.
func (e *APIError) CourierUnavailable() bool {
	switch e.Code {
	case CodeCourierNotAvailable, CodeRouteNotServiceable, CodeDropOffNotSupported:
		return true
	}
	return false
}
