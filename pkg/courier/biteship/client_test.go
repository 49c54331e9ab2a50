package biteship_test

import (
	"context"
	"testing"

	"github.com/mitrakirim/fulfillment/pkg/courier"
	"github.com/mitrakirim/fulfillment/pkg/courier/biteship"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *biteship.MockAPIClient) *biteship.Client {
	logger := otelzap.New(zap.NewNop())
	return biteship.NewWithAPIClient(
		biteship.Config{APIKey: "test-key"},
		mockClient,
		logger,
		nil,
	)
}

func TestClient_ResolveArea_SubstringMatch(t *testing.T) {
	mockAPI := biteship.NewMockAPIClient()
	mockAPI.OnGetAreas = func(ctx context.Context, input string) (*biteship.AreasResponse, error) {
		return &biteship.AreasResponse{
			Success: true,
			Areas: []biteship.Area{
				{ID: "area-1", Name: "Kota Surabaya, Jawa Timur. 60111", PostalCode: 60111},
				{ID: "area-2", Name: "Kab. Sidoarjo, Jawa Timur. 61200", PostalCode: 61200},
			},
		}, nil
	}
	client := newTestClient(mockAPI)

	areaID, err := client.ResolveArea(context.Background(), "Surabaya", "")

	require.NoError(t, err)
	assert.Equal(t, courier.AreaID("area-1"), areaID)
}

func TestClient_ResolveArea_PostalCodeWins(t *testing.T) {
	mockAPI := biteship.NewMockAPIClient()
	mockAPI.OnGetAreas = func(ctx context.Context, input string) (*biteship.AreasResponse, error) {
		return &biteship.AreasResponse{
			Success: true,
			Areas: []biteship.Area{
				{ID: "area-1", Name: "Kota Bandung, Jawa Barat. 40111", PostalCode: 40111},
				{ID: "area-2", Name: "Kota Bandung, Jawa Barat. 40115", PostalCode: 40115},
			},
		}, nil
	}
	client := newTestClient(mockAPI)

	areaID, err := client.ResolveArea(context.Background(), "Bandung", "40115")

	require.NoError(t, err)
	assert.Equal(t, courier.AreaID("area-2"), areaID)
}

func TestClient_ResolveArea_NoMatch(t *testing.T) {
	mockAPI := biteship.NewMockAPIClient()
	mockAPI.OnGetAreas = func(ctx context.Context, input string) (*biteship.AreasResponse, error) {
		return &biteship.AreasResponse{Success: true}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.ResolveArea(context.Background(), "Atlantis", "")

	assert.ErrorIs(t, err, courier.ErrAreaNotFound)
}

func TestClient_ResolveArea_APIErrorIsNotFound(t *testing.T) {
	mockAPI := biteship.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	// Remote failure is best-effort: reported as not-found, never fatal.
	_, err := client.ResolveArea(context.Background(), "Surabaya", "")

	assert.ErrorIs(t, err, courier.ErrAreaNotFound)
}

func TestClient_GetRates_SortedByPrice(t *testing.T) {
	mockAPI := biteship.NewMockAPIClient()
	client := newTestClient(mockAPI)

	options, err := client.GetRates(context.Background(), &courier.RateQuery{
		DestinationAreaID: "area-1",
		Couriers:          []string{"jne", "sicepat", "anteraja"},
		Items:             []courier.ShippingItem{{Name: "X", WeightGrams: 500, Quantity: 2}},
	})

	require.NoError(t, err)
	require.Len(t, options, 3)
	for i := 1; i < len(options); i++ {
		assert.LessOrEqual(t, options[i-1].PriceMinorUnits, options[i].PriceMinorUnits)
	}
	assert.Equal(t, "anteraja", options[0].CarrierCode)
	assert.Equal(t, 3, options[0].MinDays)
	assert.Equal(t, 5, options[0].MaxDays)
	assert.False(t, options[0].IsLocal)
}

func TestClient_GetRates_NotConfigured(t *testing.T) {
	logger := otelzap.New(zap.NewNop())
	client := biteship.NewWithAPIClient(biteship.Config{}, biteship.NewMockAPIClient(), logger, nil)

	_, err := client.GetRates(context.Background(), &courier.RateQuery{})

	assert.ErrorIs(t, err, courier.ErrNotConfigured)
}

func TestClient_GetRates_ClassifiesAPIError(t *testing.T) {
	mockAPI := biteship.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	_, err := client.GetRates(context.Background(), &courier.RateQuery{})

	assert.Error(t, err)
	assert.Equal(t, courier.KindProviderUnavailable, courier.KindOf(err))
}

func TestClient_CreateOrder_Success(t *testing.T) {
	mockAPI := biteship.NewMockAPIClient()
	client := newTestClient(mockAPI)

	confirmation, err := client.CreateOrder(context.Background(), &courier.BookingRequest{
		ReferenceID:  "order-123",
		CourierCode:  "jne",
		ServiceCode:  "reg",
		DeliveryType: courier.DeliveryDropOff,
		Origin:       courier.Waypoint{ContactName: "Warehouse", Address: "Jl. Raya 1"},
		Destination:  courier.Waypoint{ContactName: "Budi", Address: "Jl. Mawar 2"},
		Items:        []courier.BookingItem{{Name: "X", WeightGrams: 1000, Quantity: 1}},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, confirmation.ProviderOrderID)
	assert.NotEmpty(t, confirmation.TrackingNumber)
}

func TestClient_CreateOrder_CourierUnavailableKind(t *testing.T) {
	mockAPI := biteship.NewMockAPIClient()
	mockAPI.OnCreateOrder = func(ctx context.Context, req *biteship.OrderRequest) (*biteship.OrderResponse, error) {
		return nil, &biteship.APIError{
			Code:    biteship.CodeRouteNotServiceable,
			Message: "courier does not serve this route",
		}
	}
	client := newTestClient(mockAPI)

	_, err := client.CreateOrder(context.Background(), &courier.BookingRequest{
		CourierCode: "jne",
		ServiceCode: "reg",
	})

	assert.True(t, courier.IsCourierUnavailable(err))
}

func TestClient_CreateOrder_UsesDeliveryType(t *testing.T) {
	var gotDeliveryType string
	mockAPI := biteship.NewMockAPIClient()
	mockAPI.OnCreateOrder = func(ctx context.Context, req *biteship.OrderRequest) (*biteship.OrderResponse, error) {
		gotDeliveryType = req.DeliveryType
		return &biteship.OrderResponse{
			Success: true,
			ID:      "bshp-1",
			Status:  "confirmed",
			Courier: biteship.OrderCourier{WaybillID: "JNE000000000001"},
		}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.CreateOrder(context.Background(), &courier.BookingRequest{
		CourierCode:  "jne",
		ServiceCode:  "reg",
		DeliveryType: courier.DeliveryScheduled,
	})

	require.NoError(t, err)
	assert.Equal(t, "scheduled", gotDeliveryType)
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(biteship.NewMockAPIClient())
	assert.Equal(t, "biteship", client.Name())
}
