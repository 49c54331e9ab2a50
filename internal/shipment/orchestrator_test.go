package shipment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mitrakirim/fulfillment/internal/shipment"
	"github.com/mitrakirim/fulfillment/internal/store"
	"github.com/mitrakirim/fulfillment/internal/telemetry"
	"github.com/mitrakirim/fulfillment/pkg/courier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// fakeProvider is a scriptable courier.Provider for orchestrator tests.
type fakeProvider struct {
	configured bool

	createOrderFn func(ctx context.Context, req *courier.BookingRequest) (*courier.BookingConfirmation, error)

	bookings []courier.BookingRequest
}

func (f *fakeProvider) Name() string     { return "fake" }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) ResolveArea(ctx context.Context, city, postalCode string) (courier.AreaID, error) {
	return "area-dest", nil
}

func (f *fakeProvider) GetRates(ctx context.Context, query *courier.RateQuery) ([]courier.ShippingOption, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) CreateOrder(ctx context.Context, req *courier.BookingRequest) (*courier.BookingConfirmation, error) {
	f.bookings = append(f.bookings, *req)
	if f.createOrderFn != nil {
		return f.createOrderFn(ctx, req)
	}
	return &courier.BookingConfirmation{
		ProviderOrderID: "bshp-1",
		TrackingNumber:  "JNE000000000001",
		Status:          "confirmed",
	}, nil
}

func seededStore() *store.MemoryStore {
	s := store.NewMemoryStore()
	s.PutOrder(store.Order{
		ID:            "order-1",
		CustomerName:  "Budi Santoso",
		CustomerPhone: "+62811111111",
		Address:       "Jl. Mawar No. 2",
		City:          "Jakarta",
		PostalCode:    "10110",
	}, []store.LineItem{
		{ProductID: "prod-1", Name: "Kaos Polos", Quantity: 2, ValueMinorUnits: 90000},
		{ProductID: "prod-missing", Name: "Stiker", Quantity: 1, ValueMinorUnits: 10000},
	})
	s.PutProduct(store.Product{ID: "prod-1", WeightGrams: 250})
	return s
}

func newOrchestrator(t *testing.T, provider courier.Provider, s *store.MemoryStore) *shipment.Orchestrator {
	t.Helper()
	logger := otelzap.New(zap.NewNop())
	metrics := telemetry.NewMetricsWith(prometheus.NewRegistry())
	cfg := shipment.Config{Origin: courier.Waypoint{
		ContactName: "Gudang Mitra",
		Address:     "Jl. Pahlawan 1",
		PostalCode:  "97712",
	}}
	return shipment.New(cfg, provider, s, s, logger, metrics)
}

func bookingReq() *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		OrderID:     "order-1",
		CarrierCode: "jne",
		ServiceCode: "reg",
		CarrierName: "JNE",
		ServiceName: "Reguler",
	}
}

func TestCreateShipment_Booked(t *testing.T) {
	provider := &fakeProvider{configured: true}
	s := seededStore()
	orch := newOrchestrator(t, provider, s)

	outcome := orch.CreateShipment(context.Background(), bookingReq())

	assert.Equal(t, courier.OutcomeBooked, outcome.Status)
	assert.Equal(t, "JNE000000000001", outcome.TrackingNumber)
	assert.Equal(t, "bshp-1", outcome.ProviderOrderID)

	// prod-1 weighs 250g x2, the unknown product falls back to 1000g.
	assert.Equal(t, 1.5, outcome.TotalWeightKg)

	shipping := s.Shipping("order-1")
	require.NotNil(t, shipping.TrackingNumber)
	assert.Equal(t, "JNE000000000001", *shipping.TrackingNumber)
	require.NotNil(t, shipping.ProviderOrderID)
	assert.Equal(t, "bshp-1", *shipping.ProviderOrderID)
	require.NotNil(t, shipping.TotalWeightKg)
	assert.Equal(t, 1.5, *shipping.TotalWeightKg)
	require.NotNil(t, shipping.CarrierCode)
	assert.Equal(t, "jne", *shipping.CarrierCode)
}

func TestCreateShipment_FirstAttemptIsDropOff(t *testing.T) {
	provider := &fakeProvider{configured: true}
	orch := newOrchestrator(t, provider, seededStore())

	orch.CreateShipment(context.Background(), bookingReq())

	require.Len(t, provider.bookings, 1)
	assert.Equal(t, courier.DeliveryDropOff, provider.bookings[0].DeliveryType)
	assert.Equal(t, "order-1", provider.bookings[0].ReferenceID)
}

func TestCreateShipment_RetriesOnceWithScheduled(t *testing.T) {
	provider := &fakeProvider{configured: true}
	provider.createOrderFn = func(ctx context.Context, req *courier.BookingRequest) (*courier.BookingConfirmation, error) {
		if req.DeliveryType == courier.DeliveryDropOff {
			return nil, courier.NewProviderError("fake", courier.KindProviderUnavailable, "500", "internal error")
		}
		return &courier.BookingConfirmation{ProviderOrderID: "bshp-2", TrackingNumber: "TRK-2"}, nil
	}
	orch := newOrchestrator(t, provider, seededStore())

	outcome := orch.CreateShipment(context.Background(), bookingReq())

	assert.Equal(t, courier.OutcomeBooked, outcome.Status)
	require.Len(t, provider.bookings, 2)
	assert.Equal(t, courier.DeliveryDropOff, provider.bookings[0].DeliveryType)
	assert.Equal(t, courier.DeliveryScheduled, provider.bookings[1].DeliveryType)
}

func TestCreateShipment_RetryFailureIsFailed(t *testing.T) {
	provider := &fakeProvider{configured: true}
	provider.createOrderFn = func(ctx context.Context, req *courier.BookingRequest) (*courier.BookingConfirmation, error) {
		return nil, courier.NewProviderError("fake", courier.KindProviderUnavailable, "500", "internal error")
	}
	orch := newOrchestrator(t, provider, seededStore())

	outcome := orch.CreateShipment(context.Background(), bookingReq())

	assert.Equal(t, courier.OutcomeFailed, outcome.Status)
	assert.Error(t, outcome.Err)
	assert.Len(t, provider.bookings, 2, "exactly one retry")
}

func TestCreateShipment_CourierUnavailableRequiresManual(t *testing.T) {
	provider := &fakeProvider{configured: true}
	provider.createOrderFn = func(ctx context.Context, req *courier.BookingRequest) (*courier.BookingConfirmation, error) {
		return nil, courier.NewProviderError("fake", courier.KindCourierUnavailable, "40011002", "courier does not serve this route")
	}
	s := seededStore()
	orch := newOrchestrator(t, provider, s)

	outcome := orch.CreateShipment(context.Background(), bookingReq())

	assert.Equal(t, courier.OutcomeManualRequired, outcome.Status)
	assert.NotEmpty(t, outcome.Reason)
	assert.Len(t, provider.bookings, 1, "another delivery mode cannot fix an unserved route")

	// The chosen labels stay on the order for the manual booking.
	shipping := s.Shipping("order-1")
	require.NotNil(t, shipping.CarrierCode)
	assert.Equal(t, "jne", *shipping.CarrierCode)
	require.NotNil(t, shipping.ShippingNote)
	assert.Contains(t, *shipping.ShippingNote, "manual booking")
}

func TestCreateShipment_LocalDelivery(t *testing.T) {
	provider := &fakeProvider{configured: true}
	s := seededStore()
	orch := newOrchestrator(t, provider, s)

	req := bookingReq()
	req.IsLocalDelivery = true
	req.CarrierCode = courier.LocalCarrierCode

	outcome := orch.CreateShipment(context.Background(), req)

	assert.Equal(t, courier.OutcomeLocalManual, outcome.Status)
	assert.Empty(t, provider.bookings, "local delivery never books with the provider")

	shipping := s.Shipping("order-1")
	require.NotNil(t, shipping.ShippingNote)
	assert.Contains(t, *shipping.ShippingNote, "manually")
	require.NotNil(t, shipping.CarrierCode)
	assert.Equal(t, courier.LocalCarrierCode, *shipping.CarrierCode)
}

func TestCreateShipment_NotConfiguredFails(t *testing.T) {
	provider := &fakeProvider{configured: false}
	orch := newOrchestrator(t, provider, seededStore())

	outcome := orch.CreateShipment(context.Background(), bookingReq())

	assert.Equal(t, courier.OutcomeFailed, outcome.Status)
	assert.Equal(t, courier.KindConfigurationMissing, courier.KindOf(outcome.Err))
	assert.Empty(t, provider.bookings)
}

func TestCreateShipment_UnknownOrderFails(t *testing.T) {
	orch := newOrchestrator(t, &fakeProvider{configured: true}, store.NewMemoryStore())

	outcome := orch.CreateShipment(context.Background(), bookingReq())

	assert.Equal(t, courier.OutcomeFailed, outcome.Status)
	assert.Error(t, outcome.Err)
}

func TestCreateShipment_PersistFailureFails(t *testing.T) {
	provider := &fakeProvider{configured: true}
	s := seededStore()
	orch := newOrchestrator(t, provider, s)

	s.UpdateErr = errors.New("database unavailable")

	outcome := orch.CreateShipment(context.Background(), bookingReq())

	assert.Equal(t, courier.OutcomeFailed, outcome.Status)
	assert.ErrorContains(t, outcome.Err, "carrier labels")
}

func TestCreateShipment_MissingProductUsesDefaultWeight(t *testing.T) {
	provider := &fakeProvider{configured: true}
	s := store.NewMemoryStore()
	s.PutOrder(store.Order{ID: "order-1", City: "Jakarta", PostalCode: "10110"}, []store.LineItem{
		{ProductID: "prod-missing", Name: "Stiker", Quantity: 1, ValueMinorUnits: 10000},
	})
	orch := newOrchestrator(t, provider, s)

	outcome := orch.CreateShipment(context.Background(), bookingReq())

	assert.Equal(t, courier.OutcomeBooked, outcome.Status)
	assert.Equal(t, 1.0, outcome.TotalWeightKg)
	require.Len(t, provider.bookings, 1)
	require.Len(t, provider.bookings[0].Items, 1)
	assert.Equal(t, courier.DefaultWeightGrams, provider.bookings[0].Items[0].WeightGrams)
}
