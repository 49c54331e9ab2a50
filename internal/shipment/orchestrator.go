// Package shipment books provider shipments for paid orders, retrying with
// an alternate delivery mode and degrading to manual handling instead of
// blocking fulfillment.
package shipment

import (
	"context"
	"fmt"
	"sync"

	"github.com/mitrakirim/fulfillment/internal/store"
	"github.com/mitrakirim/fulfillment/internal/telemetry"
	"github.com/mitrakirim/fulfillment/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	localManualNote   = "Local delivery: tracking number will be assigned manually."
	manualBookingNote = "Automatic booking unavailable for this courier/route; manual booking required."
)

// Config holds the origin side of every booking, injected at construction.
type Config struct {
	Origin courier.Waypoint
}

// Orchestrator drives shipment creation for one order at a time. Each call
// is an independent, stateless attempt ending in a terminal outcome.
type Orchestrator struct {
	cfg      Config
	provider courier.Provider
	orders   store.OrderStore
	products store.ProductStore
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// New creates an orchestrator.
func New(cfg Config, provider courier.Provider, orders store.OrderStore, products store.ProductStore, logger *otelzap.Logger, metrics *telemetry.Metrics) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		provider: provider,
		orders:   orders,
		products: products,
		logger:   logger,
		metrics:  metrics,
	}
}

// CreateShipment books the chosen carrier/service for the order and writes
// the resulting tracking data back onto the order record.
func (o *Orchestrator) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) courier.ShipmentOutcome {
	outcome := o.createShipment(ctx, req)
	o.metrics.RecordBooking(string(outcome.Status))
	return outcome
}

func (o *Orchestrator) createShipment(ctx context.Context, req *courier.ShipmentRequest) courier.ShipmentOutcome {
	order, err := o.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return courier.Failed(fmt.Errorf("loading order: %w", err))
	}

	// Local delivery never books with the provider. The order is labeled and
	// flagged for a manually assigned tracking number; the only thing that
	// can fail here is the annotation write itself.
	if req.IsLocalDelivery {
		update := labelUpdate(req)
		update.ShippingNote = store.String(localManualNote)
		if err := o.orders.UpdateShipping(ctx, req.OrderID, update); err != nil {
			return courier.Failed(fmt.Errorf("annotating order for local delivery: %w", err))
		}
		o.logger.Ctx(ctx).Info("Order marked for local delivery",
			zap.String("order_id", req.OrderID),
		)
		return courier.LocalManual()
	}

	// Booking must not silently degrade to a fake tracking number: unlike
	// quoting, a missing credential is a hard failure.
	if !o.provider.Configured() {
		return courier.Failed(courier.NewProviderError(o.provider.Name(),
			courier.KindConfigurationMissing, "", "carrier API credential is not configured"))
	}

	lineItems, err := o.orders.GetLineItems(ctx, req.OrderID)
	if err != nil {
		return courier.Failed(fmt.Errorf("loading line items: %w", err))
	}

	bookingItems, totalGrams, err := o.resolveBookingItems(ctx, lineItems)
	if err != nil {
		return courier.Failed(fmt.Errorf("resolving booking items: %w", err))
	}
	totalWeightKg := courier.WeightKg(totalGrams)

	// Persist the chosen labels before booking so the admin always sees the
	// attempted courier, whatever happens next.
	if err := o.orders.UpdateShipping(ctx, req.OrderID, labelUpdate(req)); err != nil {
		return courier.Failed(fmt.Errorf("persisting carrier labels: %w", err))
	}

	// Destination area resolution is an accuracy optimization; a miss is
	// tolerated because the postal code still identifies the address.
	areaID, err := o.provider.ResolveArea(ctx, order.City, order.PostalCode)
	if err != nil {
		o.logger.Ctx(ctx).Warn("Destination area unresolved, booking with postal code only",
			zap.String("order_id", req.OrderID),
			zap.String("city", order.City),
		)
	}

	booking := &courier.BookingRequest{
		ReferenceID:  req.OrderID,
		CourierCode:  req.CarrierCode,
		ServiceCode:  req.ServiceCode,
		DeliveryType: courier.DeliveryDropOff,
		Origin:       o.cfg.Origin,
		Destination: courier.Waypoint{
			ContactName:  order.CustomerName,
			ContactPhone: order.CustomerPhone,
			Address:      order.Address,
			PostalCode:   order.PostalCode,
			AreaID:       areaID,
		},
		Items: bookingItems,
	}

	confirmation, err := o.bookWithRetry(ctx, booking)
	if err != nil {
		o.metrics.RecordProviderError(o.provider.Name(), string(courier.KindOf(err)))
		if courier.IsCourierUnavailable(err) {
			// Courier unavailability is an operational task, not a failure:
			// the labels stay on the order and a human books the shipment.
			note := store.ShippingUpdate{ShippingNote: store.String(manualBookingNote)}
			if updateErr := o.orders.UpdateShipping(ctx, req.OrderID, note); updateErr != nil {
				return courier.Failed(fmt.Errorf("annotating order for manual booking: %w", updateErr))
			}
			o.logger.Ctx(ctx).Warn("Courier unavailable for route, shipment requires manual booking",
				zap.String("order_id", req.OrderID),
				zap.String("courier", req.CarrierCode),
				zap.Error(err),
			)
			return courier.RequiresManual(err.Error())
		}
		return courier.Failed(err)
	}

	update := store.ShippingUpdate{
		TrackingNumber:  store.String(confirmation.TrackingNumber),
		ProviderOrderID: store.String(confirmation.ProviderOrderID),
		TotalWeightKg:   store.Float64(totalWeightKg),
	}
	if err := o.orders.UpdateShipping(ctx, req.OrderID, update); err != nil {
		// Losing the tracking number is unacceptable; surface this even
		// though the provider booking itself succeeded.
		return courier.Failed(fmt.Errorf("persisting tracking data: %w", err))
	}

	o.logger.Ctx(ctx).Info("Shipment booked",
		zap.String("order_id", req.OrderID),
		zap.String("tracking_number", confirmation.TrackingNumber),
		zap.String("provider_order_id", confirmation.ProviderOrderID),
		zap.Float64("total_weight_kg", totalWeightKg),
	)
	return courier.Booked(confirmation.TrackingNumber, confirmation.ProviderOrderID, totalWeightKg)
}

// bookWithRetry attempts a drop-off booking, then exactly one retry with the
// scheduled delivery mode when the rejection is worth retrying. A courier
// unavailable rejection is returned immediately: another delivery mode
// cannot fix a route the courier does not serve.
func (o *Orchestrator) bookWithRetry(ctx context.Context, booking *courier.BookingRequest) (*courier.BookingConfirmation, error) {
	confirmation, err := o.provider.CreateOrder(ctx, booking)
	if err == nil {
		return confirmation, nil
	}
	if !courier.IsRetryableBooking(err) {
		return nil, err
	}

	o.logger.Ctx(ctx).Warn("Booking rejected, retrying with scheduled delivery",
		zap.String("reference_id", booking.ReferenceID),
		zap.Error(err),
	)

	retry := *booking
	retry.DeliveryType = courier.DeliveryScheduled
	return o.provider.CreateOrder(ctx, &retry)
}

// resolveBookingItems looks up each line item's product in parallel and
// falls back to the default weight when a product has no record.
func (o *Orchestrator) resolveBookingItems(ctx context.Context, lineItems []store.LineItem) ([]courier.BookingItem, int, error) {
	items := make([]courier.BookingItem, len(lineItems))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, line := range lineItems {
		i, line := i, line
		g.Go(func() error {
			item := courier.BookingItem{
				Name:            line.Name,
				ValueMinorUnits: line.ValueMinorUnits,
				Quantity:        line.Quantity,
				WeightGrams:     courier.DefaultWeightGrams,
			}
			product, err := o.products.GetProduct(ctx, line.ProductID)
			if err == nil {
				if product.WeightGrams > 0 {
					item.WeightGrams = product.WeightGrams
				}
				item.LengthCm = product.LengthCm
				item.WidthCm = product.WidthCm
				item.HeightCm = product.HeightCm
			}
			mu.Lock()
			items[i] = item
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total := 0
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += item.WeightGrams * qty
	}
	if total <= 0 {
		total = courier.DefaultWeightGrams
	}
	return items, total, nil
}

func labelUpdate(req *courier.ShipmentRequest) store.ShippingUpdate {
	return store.ShippingUpdate{
		CarrierCode: store.String(req.CarrierCode),
		CarrierName: store.String(req.CarrierName),
		ServiceCode: store.String(req.ServiceCode),
		ServiceName: store.String(req.ServiceName),
	}
}
