package repositories

import (
	"canteen/internal/models"
)

// ShopRepository defines the interface for shop data access.
type ShopRepository interface {
	GetAll() ([]models.Shop, error)
	GetByID(id string) (*models.Shop, error)
	Create(shop *models.Shop) error
	Update(shop *models.Shop) error
}
