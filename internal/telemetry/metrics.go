package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	QuoteRequests   *prometheus.CounterVec
	QuoteDuration   *prometheus.HistogramVec
	BookingOutcomes *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates metrics registered on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates metrics registered on the given registerer. Tests
// use a fresh registry per case to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QuoteRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fulfillment_quote_requests_total",
				Help: "Total quote requests by resolution path (local, cache, live, fallback_config, fallback_provider, location_not_found)",
			},
			[]string{"path"},
		),
		QuoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fulfillment_quote_duration_seconds",
				Help:    "Quote resolution duration in seconds by path",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		BookingOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fulfillment_booking_outcomes_total",
				Help: "Terminal shipment outcomes by status",
			},
			[]string{"status"},
		),
		ProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fulfillment_provider_errors_total",
				Help: "Provider API errors by provider and error kind",
			},
			[]string{"provider", "kind"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fulfillment_request_duration_seconds",
				Help:    "HTTP request duration in seconds by operation and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
	}
}

// RecordQuote records one quote resolution.
func (m *Metrics) RecordQuote(path string, duration float64) {
	m.QuoteRequests.WithLabelValues(path).Inc()
	m.QuoteDuration.WithLabelValues(path).Observe(duration)
}

// RecordBooking records a terminal shipment outcome.
func (m *Metrics) RecordBooking(status string) {
	m.BookingOutcomes.WithLabelValues(status).Inc()
}

// RecordProviderError records a provider API error.
func (m *Metrics) RecordProviderError(provider, kind string) {
	m.ProviderErrors.WithLabelValues(provider, kind).Inc()
}

// RecordRequest records an HTTP request.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestDuration.WithLabelValues(operation, status).Observe(duration)
}
