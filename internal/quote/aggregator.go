// Package quote aggregates shipping options for checkout: flat-rate local
// delivery, cached provider quotes, live provider quotes, and static
// fallbacks when live quoting is unavailable.
package quote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mitrakirim/fulfillment/internal/telemetry"
	"github.com/mitrakirim/fulfillment/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// cacheHitThreshold is the minimum number of fresh cached rows needed to
// skip the live provider call. Fewer rows fall through to a fresh fetch
// rather than returning a partial set.
const cacheHitThreshold = 3

// RateCache is the quote-memory collaborator.
type RateCache interface {
	Lookup(origin, destination string, weightGrams int) []courier.CachedRate
	Store(rate courier.CachedRate)
}

// Config holds aggregator policy knobs, injected at construction time.
type Config struct {
	OriginCity       string
	OriginAreaID     courier.AreaID
	OriginPostalCode string

	// LocalKeywords classify a destination city as local delivery by
	// case-insensitive substring match.
	LocalKeywords []string

	// LocalFlatRate is the flat local-delivery price; it drops to zero once
	// the order's declared value reaches FreeShippingThreshold.
	LocalFlatRate         int64
	FreeShippingThreshold int64

	// Couriers is the priority-ordered allowlist passed to the provider.
	Couriers []string

	// FallbackOptions is the static option set returned when live quoting is
	// unavailable. Empty means DefaultFallbackOptions.
	FallbackOptions []courier.ShippingOption
}

// Aggregator produces the unified shipping option list for a quote request.
type Aggregator struct {
	cfg      Config
	provider courier.Provider
	cache    RateCache
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// New creates an aggregator.
func New(cfg Config, provider courier.Provider, cache RateCache, logger *otelzap.Logger, metrics *telemetry.Metrics) *Aggregator {
	if len(cfg.FallbackOptions) == 0 {
		cfg.FallbackOptions = DefaultFallbackOptions()
	}
	return &Aggregator{
		cfg:      cfg,
		provider: provider,
		cache:    cache,
		logger:   logger,
		metrics:  metrics,
	}
}

// GetOptions resolves the option list for a quote request.
//
// Once the destination is classified and locatable, quoting must degrade
// rather than fail: provider errors and missing configuration both produce
// the static fallback set with a warning, never an error. The only error
// returned is an unresolvable destination with no postal code.
func (a *Aggregator) GetOptions(ctx context.Context, req *courier.QuoteRequest) (*courier.QuoteResult, error) {
	start := time.Now()

	weightGrams := courier.EffectiveWeightGrams(req.Items, req.TotalWeightKgOverride)
	weightKg := courier.WeightKg(weightGrams)
	declaredValue := courier.TotalDeclaredValue(req.Items)

	// Local delivery short-circuits everything else: flat rate, one option,
	// no external calls.
	if a.isLocal(req.DestinationCity) {
		price := a.cfg.LocalFlatRate
		if declaredValue >= a.cfg.FreeShippingThreshold {
			price = 0
		}
		a.observe("local", start)
		return &courier.QuoteResult{
			IsLocal:       true,
			TotalWeightKg: weightKg,
			Options:       []courier.ShippingOption{localOption(price)},
		}, nil
	}

	// Missing credential must never block checkout; quote from the static
	// fallback set instead.
	if !a.provider.Configured() {
		a.logger.Ctx(ctx).Warn("Rate provider not configured, using fallback options",
			zap.String("destination_city", req.DestinationCity),
		)
		a.observe("fallback_config", start)
		return &courier.QuoteResult{
			TotalWeightKg: weightKg,
			Options:       a.fallbackOptions(),
			FallbackUsed:  true,
			Warning:       "Live shipping rates are not configured; showing estimated rates to be confirmed by the seller.",
		}, nil
	}

	if rows := a.cache.Lookup(req.OriginCity, req.DestinationCity, weightGrams); len(rows) >= cacheHitThreshold {
		options := make([]courier.ShippingOption, len(rows))
		for i, row := range rows {
			options[i] = row.Option()
		}
		a.observe("cache", start)
		return &courier.QuoteResult{
			TotalWeightKg: weightKg,
			Options:       options,
			Cached:        true,
		}, nil
	}

	areaID, err := a.provider.ResolveArea(ctx, req.DestinationCity, req.DestinationPostalCode)
	if err != nil && req.DestinationPostalCode == "" {
		// Without an area id or a postal code there is nothing to quote
		// against. This is the one fatal outcome of quoting.
		a.observe("location_not_found", start)
		return nil, fmt.Errorf("%w: %q", courier.ErrLocationNotFound, req.DestinationCity)
	}

	query := &courier.RateQuery{
		OriginAreaID:          a.cfg.OriginAreaID,
		OriginPostalCode:      a.cfg.OriginPostalCode,
		DestinationAreaID:     areaID,
		DestinationPostalCode: req.DestinationPostalCode,
		Couriers:              a.cfg.Couriers,
		Items:                 req.Items,
	}

	options, err := a.provider.GetRates(ctx, query)
	if err != nil {
		a.logger.Ctx(ctx).Warn("Live rate fetch failed, using fallback options",
			zap.String("destination_city", req.DestinationCity),
			zap.Error(err),
		)
		a.metrics.RecordProviderError(a.provider.Name(), string(courier.KindOf(err)))
		a.observe("fallback_provider", start)
		return &courier.QuoteResult{
			TotalWeightKg: weightKg,
			Options:       a.fallbackOptions(),
			FallbackUsed:  true,
			Warning:       "Live shipping rates are temporarily unavailable; showing estimated rates to be confirmed by the seller.",
		}, nil
	}

	// Remember fresh quotes. The cache is non-critical: a write problem must
	// never fail a quote that already succeeded.
	for _, option := range options {
		a.cache.Store(courier.CachedRate{
			OriginCity:        req.OriginCity,
			DestinationCity:   req.DestinationCity,
			DestinationAreaID: areaID,
			CarrierCode:       option.CarrierCode,
			CarrierName:       option.CarrierName,
			ServiceCode:       option.ServiceCode,
			ServiceName:       option.ServiceName,
			WeightGrams:       weightGrams,
			PriceMinorUnits:   option.PriceMinorUnits,
			MinDays:           option.MinDays,
			MaxDays:           option.MaxDays,
			Description:       option.Description,
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].PriceMinorUnits < options[j].PriceMinorUnits
	})

	a.observe("live", start)
	return &courier.QuoteResult{
		TotalWeightKg: weightKg,
		Options:       options,
	}, nil
}

// IsLocationNotFound reports whether a GetOptions error is the unresolvable
// destination case, which maps to a client error at the HTTP surface.
func IsLocationNotFound(err error) bool {
	return errors.Is(err, courier.ErrLocationNotFound)
}

func (a *Aggregator) isLocal(destinationCity string) bool {
	city := strings.ToLower(destinationCity)
	for _, keyword := range a.cfg.LocalKeywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(city, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func (a *Aggregator) observe(path string, start time.Time) {
	a.metrics.RecordQuote(path, time.Since(start).Seconds())
}

func localOption(price int64) courier.ShippingOption {
	return courier.ShippingOption{
		CarrierCode:     courier.LocalCarrierCode,
		CarrierName:     "Kurir Toko",
		ServiceCode:     "flat",
		ServiceName:     "Local Delivery",
		PriceMinorUnits: price,
		MinDays:         0,
		MaxDays:         1,
		Description:     "Flat-rate delivery within the store's city",
		IsLocal:         true,
	}
}

// fallbackOptions copies the configured static set so a caller cannot mutate
// the shared configuration through the result.
func (a *Aggregator) fallbackOptions() []courier.ShippingOption {
	options := make([]courier.ShippingOption, len(a.cfg.FallbackOptions))
	copy(options, a.cfg.FallbackOptions)
	return options
}

// DefaultFallbackOptions is the static, price-sorted option set used whenever
// live quoting is unavailable and no override is configured. Both degraded
// paths (missing credential, provider failure) share one set so the customer
// UI stays stable.
func DefaultFallbackOptions() []courier.ShippingOption {
	return []courier.ShippingOption{
		{
			CarrierCode:     "sicepat",
			CarrierName:     "SiCepat",
			ServiceCode:     "reg",
			ServiceName:     "Reguler",
			PriceMinorUnits: 65000,
			MinDays:         2,
			MaxDays:         5,
			Description:     "Estimated rate, to be confirmed",
		},
		{
			CarrierCode:     "jne",
			CarrierName:     "JNE",
			ServiceCode:     "reg",
			ServiceName:     "Reguler",
			PriceMinorUnits: 68000,
			MinDays:         2,
			MaxDays:         4,
			Description:     "Estimated rate, to be confirmed",
		},
	}
}
