package repositories

import (
	"fmt"
	"sync"
	"time"

	"canteen/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	return copyOrder(order), nil
}

// ListByUser returns all orders placed by a user.
func (r *MockOrderRepository) ListByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, *copyOrder(order))
		}
	}
	return orders, nil
}

// ListByShop returns all orders placed against a shop.
func (r *MockOrderRepository) ListByShop(shopID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.ShopID == shopID {
			orders = append(orders, *copyOrder(order))
		}
	}
	return orders, nil
}

// ListAll returns all orders.
func (r *MockOrderRepository) ListAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, *copyOrder(order))
	}
	return orders, nil
}

// Create adds a new order with its lines and payment.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	for i := range order.Lines {
		if order.Lines[i].ID == "" {
			order.Lines[i].ID = uuid.New().String()
		}
		order.Lines[i].OrderID = order.ID
	}
	if order.Payment != nil {
		if order.Payment.ID == "" {
			order.Payment.ID = uuid.New().String()
		}
		order.Payment.OrderID = order.ID
	}
	r.orders[order.ID] = *copyOrder(*order)
	return nil
}

// Update replaces the stored order and payment state. The from-status check
// and the write happen under one lock, so of two racing transitions only
// the first can land; the second fails with ErrStatusConflict.
func (r *MockOrderRepository) Update(order *models.Order, from models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %s for update: %w", order.ID, models.ErrNotFound)
	}
	if stored.Status != from {
		return fmt.Errorf("order %s is %s, not %s: %w", order.ID, stored.Status, from, models.ErrStatusConflict)
	}
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *copyOrder(*order)
	return nil
}

// copyOrder deep-copies an order so callers cannot mutate the stored state
// through shared slices or the payment pointer.
func copyOrder(order models.Order) *models.Order {
	out := order
	out.Lines = make([]models.OrderLine, len(order.Lines))
	copy(out.Lines, order.Lines)
	if order.Payment != nil {
		payment := *order.Payment
		out.Payment = &payment
	}
	return &out
}
