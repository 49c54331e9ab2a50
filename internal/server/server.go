// Package server exposes the quote and shipment-creation operations over
// HTTP JSON for the checkout flow and the admin fulfillment UI.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mitrakirim/fulfillment/internal/quote"
	"github.com/mitrakirim/fulfillment/internal/shipment"
	"github.com/mitrakirim/fulfillment/internal/telemetry"
	"github.com/mitrakirim/fulfillment/pkg/courier"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the fulfillment service.
type Server struct {
	port         int
	aggregator   *quote.Aggregator
	orchestrator *shipment.Orchestrator
	logger       *otelzap.Logger
	metrics      *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, aggregator *quote.Aggregator, orchestrator *shipment.Orchestrator, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	return &Server{
		port:         cfg.Port,
		aggregator:   aggregator,
		orchestrator: orchestrator,
		logger:       logger,
		metrics:      metrics,
	}
}

// Handler returns the HTTP handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/shipping/rates", s.handleRates)
	mux.HandleFunc("/v1/shipping/orders", s.handleOrders)
	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Request/response types for the two JSON operations.

type itemPayload struct {
	Name        string `json:"name"`
	Value       int64  `json:"value"`
	WeightGrams int    `json:"weight_grams"`
	Quantity    int    `json:"quantity"`
}

type ratesRequest struct {
	OriginCity            string        `json:"origin_city"`
	DestinationCity       string        `json:"destination_city"`
	DestinationPostalCode string        `json:"destination_postal_code,omitempty"`
	Items                 []itemPayload `json:"items"`
	TotalWeightKg         float64       `json:"total_weight_kg,omitempty"`
}

type optionPayload struct {
	CarrierCode string `json:"courier_code"`
	CarrierName string `json:"courier_name"`
	ServiceCode string `json:"service_code"`
	ServiceName string `json:"service_name"`
	Price       int64  `json:"price"`
	MinDays     int    `json:"min_days"`
	MaxDays     int    `json:"max_days"`
	Description string `json:"description,omitempty"`
	IsLocal     bool   `json:"is_local"`
}

type ratesResponse struct {
	Success       bool            `json:"success"`
	IsLocal       bool            `json:"is_local"`
	Options       []optionPayload `json:"options"`
	TotalWeightKg float64         `json:"total_weight_kg"`
	Cached        bool            `json:"cached,omitempty"`
	Fallback      bool            `json:"fallback,omitempty"`
	Warning       string          `json:"warning,omitempty"`
}

type orderRequest struct {
	OrderID         string `json:"order_id"`
	CourierCode     string `json:"courier_code"`
	ServiceCode     string `json:"service_code"`
	CourierName     string `json:"courier_name"`
	ServiceName     string `json:"service_name"`
	IsLocalDelivery bool   `json:"is_local_delivery"`
}

type orderResponse struct {
	Success                bool    `json:"success"`
	IsLocal                bool    `json:"is_local,omitempty"`
	TrackingNumber         string  `json:"tracking_number,omitempty"`
	ProviderOrderID        string  `json:"provider_order_id,omitempty"`
	TotalWeightKg          float64 `json:"total_weight_kg,omitempty"`
	RequiresManualShipment bool    `json:"requires_manual_shipment,omitempty"`
	Reason                 string  `json:"reason,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req ratesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.DestinationCity == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "destination_city is required")
		return
	}

	items := make([]courier.ShippingItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = courier.ShippingItem{
			Name:            item.Name,
			ValueMinorUnits: item.Value,
			WeightGrams:     item.WeightGrams,
			Quantity:        item.Quantity,
		}
	}

	result, err := s.aggregator.GetOptions(r.Context(), &courier.QuoteRequest{
		OriginCity:            req.OriginCity,
		DestinationCity:       req.DestinationCity,
		DestinationPostalCode: req.DestinationPostalCode,
		Items:                 items,
		TotalWeightKgOverride: req.TotalWeightKg,
	})
	if err != nil {
		if quote.IsLocationNotFound(err) {
			s.metrics.RecordRequest("rates", "client_error", time.Since(start).Seconds())
			s.writeError(w, http.StatusBadRequest, "location_not_found", err.Error())
			return
		}
		s.logger.Ctx(r.Context()).Error("Quote failed", zap.Error(err))
		s.metrics.RecordRequest("rates", "error", time.Since(start).Seconds())
		s.writeError(w, http.StatusInternalServerError, "quote_failed", err.Error())
		return
	}

	options := make([]optionPayload, len(result.Options))
	for i, option := range result.Options {
		options[i] = optionPayload{
			CarrierCode: option.CarrierCode,
			CarrierName: option.CarrierName,
			ServiceCode: option.ServiceCode,
			ServiceName: option.ServiceName,
			Price:       option.PriceMinorUnits,
			MinDays:     option.MinDays,
			MaxDays:     option.MaxDays,
			Description: option.Description,
			IsLocal:     option.IsLocal,
		}
	}

	s.metrics.RecordRequest("rates", "ok", time.Since(start).Seconds())
	json.NewEncoder(w).Encode(ratesResponse{
		Success:       true,
		IsLocal:       result.IsLocal,
		Options:       options,
		TotalWeightKg: result.TotalWeightKg,
		Cached:        result.Cached,
		Fallback:      result.FallbackUsed,
		Warning:       result.Warning,
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.OrderID == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "order_id is required")
		return
	}

	outcome := s.orchestrator.CreateShipment(r.Context(), &courier.ShipmentRequest{
		OrderID:         req.OrderID,
		CarrierCode:     req.CourierCode,
		ServiceCode:     req.ServiceCode,
		CarrierName:     req.CourierName,
		ServiceName:     req.ServiceName,
		IsLocalDelivery: req.IsLocalDelivery,
	})

	switch outcome.Status {
	case courier.OutcomeLocalManual:
		s.metrics.RecordRequest("orders", "ok", time.Since(start).Seconds())
		json.NewEncoder(w).Encode(orderResponse{Success: true, IsLocal: true})

	case courier.OutcomeBooked:
		s.metrics.RecordRequest("orders", "ok", time.Since(start).Seconds())
		json.NewEncoder(w).Encode(orderResponse{
			Success:         true,
			TrackingNumber:  outcome.TrackingNumber,
			ProviderOrderID: outcome.ProviderOrderID,
			TotalWeightKg:   outcome.TotalWeightKg,
		})

	case courier.OutcomeManualRequired:
		// Degraded but successful from the caller's perspective: the order
		// is flagged for manual booking, checkout is not blocked.
		s.metrics.RecordRequest("orders", "manual", time.Since(start).Seconds())
		json.NewEncoder(w).Encode(orderResponse{
			Success:                true,
			RequiresManualShipment: true,
			Reason:                 outcome.Reason,
		})

	default:
		s.logger.Ctx(r.Context()).Error("Shipment creation failed",
			zap.String("order_id", req.OrderID),
			zap.Error(outcome.Err),
		)
		s.metrics.RecordRequest("orders", "error", time.Since(start).Seconds())
		message := "shipment creation failed"
		if outcome.Err != nil {
			message = outcome.Err.Error()
		}
		s.writeError(w, http.StatusInternalServerError, "shipment_failed", message)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: code, Message: message})
}
