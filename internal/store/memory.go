package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory OrderStore/ProductStore implementation used in
// tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	orders   map[string]Order
	items    map[string][]LineItem
	products map[string]Product
	updates  map[string]ShippingUpdate

	// UpdateErr, when set, is returned by UpdateShipping to exercise the
	// persistence-failure paths.
	UpdateErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]Order),
		items:    make(map[string][]LineItem),
		products: make(map[string]Product),
		updates:  make(map[string]ShippingUpdate),
	}
}

// PutOrder seeds an order and its line items.
func (s *MemoryStore) PutOrder(order Order, items []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	s.items[order.ID] = items
}

// PutProduct seeds a product.
func (s *MemoryStore) PutProduct(product Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
}

func (s *MemoryStore) GetOrder(ctx context.Context, orderID string) (Order, error) {
	select {
	case <-ctx.Done():
		return Order{}, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("order %s not found", orderID)
	}
	return order, nil
}

func (s *MemoryStore) GetLineItems(ctx context.Context, orderID string) ([]LineItem, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[orderID], nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, productID string) (Product, error) {
	select {
	case <-ctx.Done():
		return Product{}, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[productID]
	if !ok {
		return Product{}, fmt.Errorf("product %s not found", productID)
	}
	return product, nil
}

// UpdateShipping merges the partial update into the last one seen for the
// order. Updates are idempotent field writes, not a transaction.
func (s *MemoryStore) UpdateShipping(ctx context.Context, orderID string, update ShippingUpdate) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if _, ok := s.orders[orderID]; !ok {
		return fmt.Errorf("order %s not found", orderID)
	}
	merged := s.updates[orderID]
	if update.CarrierCode != nil {
		merged.CarrierCode = update.CarrierCode
	}
	if update.CarrierName != nil {
		merged.CarrierName = update.CarrierName
	}
	if update.ServiceCode != nil {
		merged.ServiceCode = update.ServiceCode
	}
	if update.ServiceName != nil {
		merged.ServiceName = update.ServiceName
	}
	if update.TrackingNumber != nil {
		merged.TrackingNumber = update.TrackingNumber
	}
	if update.ProviderOrderID != nil {
		merged.ProviderOrderID = update.ProviderOrderID
	}
	if update.TotalWeightKg != nil {
		merged.TotalWeightKg = update.TotalWeightKg
	}
	if update.ShippingNote != nil {
		merged.ShippingNote = update.ShippingNote
	}
	s.updates[orderID] = merged
	return nil
}

// Shipping returns the merged shipping fields written for an order.
func (s *MemoryStore) Shipping(orderID string) ShippingUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates[orderID]
}

var (
	_ OrderStore   = (*MemoryStore)(nil)
	_ ProductStore = (*MemoryStore)(nil)
)
