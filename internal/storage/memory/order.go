package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/food-ordering-api/internal/domain/order"
)

var _ order.Repository = (*Orders)(nil)

// Orders is a concurrency-safe in-memory order.Repository.
type Orders struct {
	mu     sync.RWMutex
	orders map[string]order.Order
	items  map[string][]order.LineItem
}

// NewOrders returns an empty Orders store.
func NewOrders() *Orders {
	return &Orders{
		orders: make(map[string]order.Order),
		items:  make(map[string][]order.LineItem),
	}
}

// Create stores the order and its line items under a single lock.
func (s *Orders) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return errors.Errorf("order %q already exists", o.ID)
	}

	// Copies keep callers from mutating stored state.
	stored := *o
	stored.Items = nil
	s.orders[o.ID] = stored
	s.items[o.ID] = append([]order.LineItem(nil), o.Items...)
	return nil
}

// GetByID returns order.ErrNotFound when the order does not exist.
func (s *Orders) GetByID(_ context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

// ListItems returns the line items of an order in submission order.
func (s *Orders) ListItems(_ context.Context, orderID string) ([]order.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]order.LineItem{}, s.items[orderID]...), nil
}
