package repositories

import (
	"canteen/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// persisted and loaded together with their lines and payment record.
//
// Update persists the order's status, special instructions and payment,
// guarded by the status the caller loaded: the write only lands if the
// stored status still equals from, otherwise it fails with
// ErrStatusConflict and changes nothing. The guard is what keeps a
// transition's side effects from being applied twice when two callers race
// on the same order.
type OrderRepository interface {
	GetByID(id string) (*models.Order, error)
	ListByUser(userID string) ([]models.Order, error)
	ListByShop(shopID string) ([]models.Order, error)
	ListAll() ([]models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order, from models.OrderStatus) error
}
