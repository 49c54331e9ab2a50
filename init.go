package main

import (
	"context"

	"github.com/mitrakirim/fulfillment/internal/config"
	"github.com/mitrakirim/fulfillment/internal/quote"
	"github.com/mitrakirim/fulfillment/internal/ratecache"
	"github.com/mitrakirim/fulfillment/internal/shipment"
	"github.com/mitrakirim/fulfillment/internal/store"
	"github.com/mitrakirim/fulfillment/internal/telemetry"
	"github.com/mitrakirim/fulfillment/pkg/courier"
	"github.com/mitrakirim/fulfillment/pkg/courier/biteship"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

// components bundles the wired service graph handed to the server.
type components struct {
	aggregator   *quote.Aggregator
	orchestrator *shipment.Orchestrator
	metrics      *telemetry.Metrics
}

func initComponents(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) components {
	metrics := telemetry.NewMetrics()

	provider := biteship.New(biteship.Config{
		APIKey:  cfg.BiteshipAPIKey,
		BaseURL: cfg.BiteshipBaseURL,
		UseMock: cfg.BiteshipUseMock,
	}, logger, tracer)

	cache := ratecache.New(cfg.CacheTTL)

	aggregator := quote.New(quote.Config{
		OriginCity:            cfg.OriginCity,
		OriginAreaID:          courier.AreaID(cfg.OriginAreaID),
		OriginPostalCode:      cfg.OriginPostalCode,
		LocalKeywords:         cfg.LocalKeywords,
		LocalFlatRate:         cfg.LocalFlatRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		Couriers:              cfg.Couriers,
	}, provider, cache, logger, metrics)

	// The order/product stores are external collaborators of this core. The
	// in-memory implementation stands in until the storefront wires its own.
	orders := store.NewMemoryStore()

	orchestrator := shipment.New(shipment.Config{
		Origin: courier.Waypoint{
			ContactName:  cfg.OriginContactName,
			ContactPhone: cfg.OriginContactPhone,
			Address:      cfg.OriginAddress,
			PostalCode:   cfg.OriginPostalCode,
			AreaID:       courier.AreaID(cfg.OriginAreaID),
		},
	}, provider, orders, orders, logger, metrics)

	return components{
		aggregator:   aggregator,
		orchestrator: orchestrator,
		metrics:      metrics,
	}
}
