package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service. Everything business logic
// needs is injected from here at construction time; no component reads the
// environment on its own.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Biteship
	BiteshipAPIKey  string `envconfig:"BITESHIP_API_KEY"`
	BiteshipBaseURL string `envconfig:"BITESHIP_BASE_URL" default:"https://api.biteship.com/v1"`
	BiteshipUseMock bool   `envconfig:"BITESHIP_USE_MOCK" default:"false"`

	// Origin warehouse
	OriginCity         string `envconfig:"ORIGIN_CITY" default:"Ternate"`
	OriginPostalCode   string `envconfig:"ORIGIN_POSTAL_CODE" default:"97712"`
	OriginAreaID       string `envconfig:"ORIGIN_AREA_ID"`
	OriginContactName  string `envconfig:"ORIGIN_CONTACT_NAME" default:"Mitra Kirim Warehouse"`
	OriginContactPhone string `envconfig:"ORIGIN_CONTACT_PHONE"`
	OriginAddress      string `envconfig:"ORIGIN_ADDRESS"`

	// Local delivery
	LocalKeywords         []string `envconfig:"LOCAL_KEYWORDS" default:"ternate"`
	LocalFlatRate         int64    `envconfig:"LOCAL_FLAT_RATE" default:"15000"`
	FreeShippingThreshold int64    `envconfig:"FREE_SHIPPING_THRESHOLD" default:"250000"`

	// Inter-city quoting
	Couriers []string      `envconfig:"COURIERS" default:"jne,sicepat,anteraja,jnt"`
	CacheTTL time.Duration `envconfig:"RATE_CACHE_TTL" default:"24h"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.observability.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"mitrakirim-fulfillment"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("origin.city", c.OriginCity),
		attribute.Bool("biteship.configured", c.BiteshipAPIKey != ""),
	}
}
