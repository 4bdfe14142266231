package repositories

import (
	"errors"
	"fmt"
	"time"

	"canteen/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetByID retrieves an order with its lines and payment.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Lines").Preload("Payment").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &order, nil
}

// ListByUser retrieves all orders placed by a user.
func (r *GORMOrderRepository) ListByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Lines").Preload("Payment").Find(&orders, "user_id = ?", userID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// ListByShop retrieves all orders placed against a shop.
func (r *GORMOrderRepository) ListByShop(shopID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Lines").Preload("Payment").Find(&orders, "shop_id = ?", shopID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for shop %s: %w", shopID, err)
	}
	return orders, nil
}

// ListAll retrieves all orders.
func (r *GORMOrderRepository) ListAll() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Lines").Preload("Payment").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Create persists an order with its lines and payment in one transaction.
func (r *GORMOrderRepository) Create(order *models.Order) error {
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

	// gorm.Create writes the associated lines and payment in the same
	// transaction as the order row.
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update persists changes to an order and its payment record together. The
// status condition in the WHERE clause makes the write a compare-and-swap:
// a concurrent transition that committed first leaves zero rows affected
// here, surfaced as ErrStatusConflict.
func (r *GORMOrderRepository) Update(order *models.Order, from models.OrderStatus) error {
	order.UpdatedAt = time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", order.ID, from).Updates(map[string]interface{}{
			"status":               order.Status,
			"special_instructions": order.SpecialInstructions,
			"updated_at":           order.UpdatedAt,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update order %s: %w", order.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.Order
			if err := tx.First(&current, "id = ?", order.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("order %s for update: %w", order.ID, models.ErrNotFound)
				}
				return fmt.Errorf("failed to look up order %s: %w", order.ID, err)
			}
			return fmt.Errorf("order %s is %s, not %s: %w", order.ID, current.Status, from, models.ErrStatusConflict)
		}
		if order.Payment != nil {
			if err := tx.Save(order.Payment).Error; err != nil {
				return fmt.Errorf("failed to update payment for order %s: %w", order.ID, err)
			}
		}
		return nil
	})
}
