package courier

import (
	"time"
)

// AreaID is a provider-specific geocoded identifier for a destination.
// An empty AreaID means the destination could not be resolved.
type AreaID string

// DeliveryType selects how the courier takes possession of a shipment.
type DeliveryType string

const (
	// DeliveryDropOff is the default booking mode: the package is dropped
	// off at the courier. Many destination areas lack pickup support, so
	// this is attempted first.
	DeliveryDropOff DeliveryType = "now"

	// DeliveryScheduled is the alternate mode used for the single retry
	// after a drop-off booking is rejected.
	DeliveryScheduled DeliveryType = "scheduled"
)

// LocalCarrierCode is the reserved synthetic carrier code for flat-rate
// local delivery. Provider integrations must never emit it.
const LocalCarrierCode = "local"

// ShippingItem is a single order line used to compute aggregate weight and
// declared value. It is request-scoped and never persisted on its own.
type ShippingItem struct {
	Name            string
	ValueMinorUnits int64
	WeightGrams     int
	Quantity        int
}

// QuoteRequest asks for shipping options between two cities.
type QuoteRequest struct {
	OriginCity            string
	DestinationCity       string
	DestinationPostalCode string
	Items                 []ShippingItem

	// TotalWeightKgOverride, when > 0, replaces the weight computed from
	// Items.
	TotalWeightKgOverride float64
}

// ShippingOption is a single quoted shipping choice presented at checkout.
type ShippingOption struct {
	CarrierCode     string
	CarrierName     string
	ServiceCode     string
	ServiceName     string
	PriceMinorUnits int64
	MinDays         int
	MaxDays         int
	Description     string
	IsLocal         bool
}

// QuoteResult is the unified answer of the rate aggregator.
type QuoteResult struct {
	IsLocal       bool
	Options       []ShippingOption
	TotalWeightKg float64
	Cached        bool
	FallbackUsed  bool
	Warning       string
}

// CachedRate is one remembered provider quote. Rows are trusted only while
// now < ExpiresAt; expired rows are filtered on read, not actively evicted.
type CachedRate struct {
	OriginCity        string
	DestinationCity   string
	DestinationAreaID AreaID
	CarrierCode       string
	CarrierName       string
	ServiceCode       string
	ServiceName       string
	WeightGrams       int
	PriceMinorUnits   int64
	MinDays           int
	MaxDays           int
	Description       string
	ExpiresAt         time.Time
}

// Option converts a cached row back into a presentable shipping option.
func (r CachedRate) Option() ShippingOption {
	return ShippingOption{
		CarrierCode:     r.CarrierCode,
		CarrierName:     r.CarrierName,
		ServiceCode:     r.ServiceCode,
		ServiceName:     r.ServiceName,
		PriceMinorUnits: r.PriceMinorUnits,
		MinDays:         r.MinDays,
		MaxDays:         r.MaxDays,
		Description:     r.Description,
	}
}

// RateQuery is the provider-level rate request. Weights are in grams.
type RateQuery struct {
	OriginAreaID          AreaID
	OriginPostalCode      string
	DestinationAreaID     AreaID
	DestinationPostalCode string
	Couriers              []string // priority-ordered allowlist
	Items                 []ShippingItem
}

// Waypoint is one end of a booking.
type Waypoint struct {
	ContactName  string
	ContactPhone string
	Address      string
	PostalCode   string
	AreaID       AreaID
	Note         string
}

// BookingItem is a physical package line in a booking payload.
type BookingItem struct {
	Name            string
	ValueMinorUnits int64
	WeightGrams     int
	Quantity        int
	LengthCm        float64
	WidthCm         float64
	HeightCm        float64
}

// BookingRequest is the provider-level shipment creation request.
type BookingRequest struct {
	ReferenceID  string
	CourierCode  string
	ServiceCode  string
	DeliveryType DeliveryType
	Origin       Waypoint
	Destination  Waypoint
	Items        []BookingItem
}

// BookingConfirmation is the provider's answer to a successful booking.
type BookingConfirmation struct {
	ProviderOrderID string
	TrackingNumber  string
	Status          string
}

// ShipmentRequest drives the shipment orchestrator for one order.
type ShipmentRequest struct {
	OrderID         string
	CarrierCode     string
	ServiceCode     string
	CarrierName     string
	ServiceName     string
	IsLocalDelivery bool
}

// OutcomeStatus is the terminal state of a shipment attempt.
type OutcomeStatus string

const (
	OutcomeBooked         OutcomeStatus = "booked"
	OutcomeLocalManual    OutcomeStatus = "local_manual"
	OutcomeManualRequired OutcomeStatus = "requires_manual_shipment"
	OutcomeFailed         OutcomeStatus = "failed"
)

// ShipmentOutcome is the tagged result of a shipment attempt. Every status is
// terminal; a re-invocation is a fresh, independent attempt.
type ShipmentOutcome struct {
	Status          OutcomeStatus
	TrackingNumber  string
	ProviderOrderID string
	TotalWeightKg   float64
	Reason          string
	Err             error
}

// Booked builds the successful outcome.
func Booked(trackingNumber, providerOrderID string, totalWeightKg float64) ShipmentOutcome {
	return ShipmentOutcome{
		Status:          OutcomeBooked,
		TrackingNumber:  trackingNumber,
		ProviderOrderID: providerOrderID,
		TotalWeightKg:   totalWeightKg,
	}
}

// LocalManual builds the outcome for flat-rate local delivery, where the
// tracking number is assigned by hand.
func LocalManual() ShipmentOutcome {
	return ShipmentOutcome{Status: OutcomeLocalManual}
}

// RequiresManual builds the degraded outcome used when the chosen courier
// cannot service the route and booking is demoted to an operational task.
func RequiresManual(reason string) ShipmentOutcome {
	return ShipmentOutcome{Status: OutcomeManualRequired, Reason: reason}
}

// Failed builds the hard-failure outcome.
func Failed(err error) ShipmentOutcome {
	return ShipmentOutcome{Status: OutcomeFailed, Err: err}
}
