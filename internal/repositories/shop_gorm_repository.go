package repositories

import (
	"errors"
	"fmt"

	"canteen/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMShopRepository is a GORM implementation of ShopRepository.
type GORMShopRepository struct {
	db *gorm.DB
}

// NewGORMShopRepository creates a new instance of GORMShopRepository.
func NewGORMShopRepository(db *gorm.DB) *GORMShopRepository {
	return &GORMShopRepository{
		db: db,
	}
}

// GetAll retrieves all shops.
func (r *GORMShopRepository) GetAll() ([]models.Shop, error) {
	var shops []models.Shop
	if err := r.db.Find(&shops).Error; err != nil {
		return nil, fmt.Errorf("failed to get all shops: %w", err)
	}
	return shops, nil
}

// GetByID retrieves a single shop by its ID.
func (r *GORMShopRepository) GetByID(id string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.First(&shop, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shop %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get shop %s: %w", id, err)
	}
	return &shop, nil
}

// Create creates a new shop.
func (r *GORMShopRepository) Create(shop *models.Shop) error {
	if shop.ID == "" {
		shop.ID = uuid.New().String()
	}
	if err := r.db.Create(shop).Error; err != nil {
		return fmt.Errorf("failed to create shop: %w", err)
	}
	return nil
}

// Update updates an existing shop.
func (r *GORMShopRepository) Update(shop *models.Shop) error {
	res := r.db.Save(shop)
	if res.Error != nil {
		return fmt.Errorf("failed to update shop: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("shop %s for update: %w", shop.ID, models.ErrNotFound)
	}
	return nil
}
