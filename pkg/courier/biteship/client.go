// Package biteship provides integration with the Biteship courier aggregator API.
package biteship

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitrakirim/fulfillment/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const providerName = "biteship"

// Config holds Biteship configuration.
type Config struct {
	APIKey  string
	BaseURL string
	UseMock bool // When true, uses mock API client
}

// Client is the Biteship provider client.
// It implements the courier.Provider interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Biteship client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: 15 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a new Biteship client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

// ResolveArea resolves a city name (and optional postal code) to a Biteship
// area id. Candidates match by case-insensitive substring on the area name,
// or by exact postal-code equality when one is supplied. Remote failures are
// logged and reported as not-found: resolution is best-effort.
func (c *Client) ResolveArea(ctx context.Context, city, postalCode string) (courier.AreaID, error) {
	ctx, span := c.startSpan(ctx, "biteship.resolve_area")
	defer span.End()

	query := city
	if postalCode != "" {
		query = city + " " + postalCode
	}

	resp, err := c.apiClient.GetAreas(ctx, query)
	if err != nil {
		c.logger.Ctx(ctx).Warn("Biteship area lookup failed",
			zap.String("city", city),
			zap.Error(err),
		)
		return "", courier.ErrAreaNotFound
	}

	needle := strings.ToLower(strings.TrimSpace(city))
	for _, area := range resp.Areas {
		if postalCode != "" && strconv.Itoa(area.PostalCode) == postalCode {
			return courier.AreaID(area.ID), nil
		}
		if needle != "" && strings.Contains(strings.ToLower(area.Name), needle) {
			return courier.AreaID(area.ID), nil
		}
	}

	return "", courier.ErrAreaNotFound
}

// GetRates returns live shipping options, sorted by price ascending.
func (c *Client) GetRates(ctx context.Context, query *courier.RateQuery) ([]courier.ShippingOption, error) {
	ctx, span := c.startSpan(ctx, "biteship.rates")
	defer span.End()

	if !c.Configured() {
		return nil, courier.ErrNotConfigured
	}

	c.logger.Ctx(ctx).Info("Getting Biteship rates",
		zap.String("destination_area_id", string(query.DestinationAreaID)),
		zap.Int("item_count", len(query.Items)),
	)

	apiReq := &RatesRequest{
		OriginAreaID:          string(query.OriginAreaID),
		OriginPostalCode:      query.OriginPostalCode,
		DestinationAreaID:     string(query.DestinationAreaID),
		DestinationPostalCode: query.DestinationPostalCode,
		Couriers:              strings.Join(query.Couriers, ","),
		Items:                 itemsToAPI(query.Items),
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("Biteship rates API error", zap.Error(err))
		return nil, c.classify(err)
	}

	options := make([]courier.ShippingOption, 0, len(apiResp.Pricing))
	for _, p := range apiResp.Pricing {
		options = append(options, pricingToOption(p))
	}
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].PriceMinorUnits < options[j].PriceMinorUnits
	})

	return options, nil
}

// CreateOrder books a shipment.
func (c *Client) CreateOrder(ctx context.Context, req *courier.BookingRequest) (*courier.BookingConfirmation, error) {
	ctx, span := c.startSpan(ctx, "biteship.create_order")
	defer span.End()

	if !c.Configured() {
		return nil, courier.ErrNotConfigured
	}

	// Reference id keeps a repeated booking attempt from creating duplicates.
	referenceID := req.ReferenceID
	if referenceID == "" {
		referenceID = uuid.New().String()
	}

	c.logger.Ctx(ctx).Info("Creating Biteship order",
		zap.String("courier", req.CourierCode),
		zap.String("service", req.ServiceCode),
		zap.String("delivery_type", string(req.DeliveryType)),
		zap.String("reference_id", referenceID),
	)

	apiReq := &OrderRequest{
		ReferenceID: referenceID,

		OriginContactName:  req.Origin.ContactName,
		OriginContactPhone: req.Origin.ContactPhone,
		OriginAddress:      req.Origin.Address,
		OriginPostalCode:   req.Origin.PostalCode,
		OriginAreaID:       string(req.Origin.AreaID),
		OriginNote:         req.Origin.Note,

		DestinationContactName:  req.Destination.ContactName,
		DestinationContactPhone: req.Destination.ContactPhone,
		DestinationAddress:      req.Destination.Address,
		DestinationPostalCode:   req.Destination.PostalCode,
		DestinationAreaID:       string(req.Destination.AreaID),
		DestinationNote:         req.Destination.Note,

		CourierCompany: req.CourierCode,
		CourierType:    req.ServiceCode,
		DeliveryType:   string(req.DeliveryType),

		Items: bookingItemsToAPI(req.Items),
	}

	apiResp, err := c.apiClient.CreateOrder(ctx, apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("Biteship order API error", zap.Error(err))
		return nil, c.classify(err)
	}

	tracking := apiResp.Courier.WaybillID
	if tracking == "" {
		tracking = apiResp.Courier.TrackingID
	}

	return &courier.BookingConfirmation{
		ProviderOrderID: apiResp.ID,
		TrackingNumber:  tracking,
		Status:          apiResp.Status,
	}, nil
}

// classify maps raw API errors to the closed courier.ErrorKind set. Core
// logic branches on kinds only, never on provider message text.
func (c *Client) classify(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		kind := courier.KindProviderUnavailable
		switch {
		case apiErr.CourierUnavailable():
			kind = courier.KindCourierUnavailable
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			kind = courier.KindConfigurationMissing
		}
		return courier.NewProviderError(providerName, kind, strconv.Itoa(apiErr.Code), apiErr.Message).
			WithStatusCode(apiErr.StatusCode).
			WithCause(err)
	}

	// Transport errors, timeouts and malformed payloads all land here.
	return courier.NewProviderError(providerName, courier.KindProviderUnavailable, "", err.Error()).
		WithCause(err)
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if c.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return c.tracer.Start(ctx, name)
}

// ============================================================================
// Conversion helpers
// ============================================================================

func itemsToAPI(items []courier.ShippingItem) []Item {
	result := make([]Item, len(items))
	for i, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		result[i] = Item{
			Name:     item.Name,
			Value:    item.ValueMinorUnits,
			Weight:   item.WeightGrams,
			Quantity: qty,
		}
	}
	return result
}

func bookingItemsToAPI(items []courier.BookingItem) []Item {
	result := make([]Item, len(items))
	for i, item := range items {
		result[i] = Item{
			Name:     item.Name,
			Value:    item.ValueMinorUnits,
			Weight:   item.WeightGrams,
			Quantity: item.Quantity,
			Length:   item.LengthCm,
			Width:    item.WidthCm,
			Height:   item.HeightCm,
		}
	}
	return result
}

func pricingToOption(p Pricing) courier.ShippingOption {
	minDays, maxDays := parseDurationRange(p.ShipmentDurationRange)
	return courier.ShippingOption{
		CarrierCode:     p.CourierCode,
		CarrierName:     p.CourierName,
		ServiceCode:     p.CourierServiceCode,
		ServiceName:     p.CourierServiceName,
		PriceMinorUnits: p.Price,
		MinDays:         minDays,
		MaxDays:         maxDays,
		Description:     p.Description,
	}
}

// parseDurationRange parses values like "2 - 4", "3", or "1-2" into a
// min/max day pair. Unparseable input yields (0, 0).
func parseDurationRange(s string) (int, int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0
	}

	parts := strings.SplitN(s, "-", 2)
	minDays, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0
	}
	if len(parts) == 1 {
		return minDays, minDays
	}
	maxDays, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return minDays, minDays
	}
	return minDays, maxDays
}

var _ courier.Provider = (*Client)(nil)
