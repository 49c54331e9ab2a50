package biteship

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetAreas    func(ctx context.Context, input string) (*AreasResponse, error)
	OnGetRates    func(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
	OnCreateOrder func(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GetAreas returns mock area candidates derived from the query input.
func (m *MockAPIClient) GetAreas(ctx context.Context, input string) (*AreasResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: CodeAreaNotFound, Message: "simulated API error"}
	}

	if m.OnGetAreas != nil {
		return m.OnGetAreas(ctx, input)
	}

	name := strings.TrimSpace(input)
	if name == "" {
		return &AreasResponse{Success: true}, nil
	}

	return &AreasResponse{
		Success: true,
		Areas: []Area{
			{
				ID:          "IDNP6IDNC148IDND836ID" + uuid.New().String()[:5],
				Name:        fmt.Sprintf("Kota %s, DKI Jakarta. 10110", name),
				CountryName: "Indonesia",
				CountryCode: "ID",
				PostalCode:  10110,
			},
		},
	}, nil
}

// GetRates returns mock courier rates.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: CodeRatesNotFound, Message: "simulated API error"}
	}

	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return &RatesResponse{
		Success: true,
		Pricing: []Pricing{
			{
				CourierCode:           "jne",
				CourierName:           "JNE",
				CourierServiceCode:    "reg",
				CourierServiceName:    "Reguler",
				Description:           "Layanan reguler",
				ShipmentDurationRange: "2 - 4",
				ShipmentDurationUnit:  "days",
				Price:                 70000,
			},
			{
				CourierCode:           "sicepat",
				CourierName:           "SiCepat",
				CourierServiceCode:    "reg",
				CourierServiceName:    "Reguler",
				Description:           "Layanan reguler",
				ShipmentDurationRange: "2 - 3",
				ShipmentDurationUnit:  "days",
				Price:                 64000,
			},
			{
				CourierCode:           "anteraja",
				CourierName:           "AnterAja",
				CourierServiceCode:    "reg",
				CourierServiceName:    "Reguler",
				Description:           "Layanan reguler",
				ShipmentDurationRange: "3 - 5",
				ShipmentDurationUnit:  "days",
				Price:                 59000,
			},
		},
	}, nil
}

// CreateOrder books a mock shipment.
func (m *MockAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: CodeCourierNotAvailable, Message: "simulated API error"}
	}

	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, req)
	}

	orderID := "bshp-" + uuid.New().String()[:8]
	waybill := fmt.Sprintf("%s%012d", strings.ToUpper(req.CourierCompany), time.Now().UnixNano()%1000000000000)

	return &OrderResponse{
		Success: true,
		ID:      orderID,
		Status:  "confirmed",
		Courier: OrderCourier{
			WaybillID: waybill,
			Company:   req.CourierCompany,
			Type:      req.CourierType,
			Link:      fmt.Sprintf("https://track.biteship.com/%s", waybill),
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
