package repositories

import (
	"fmt"
	"sync"

	"canteen/internal/models"

	"github.com/google/uuid"
)

// MockShopRepository is an in-memory implementation of ShopRepository.
type MockShopRepository struct {
	shops map[string]models.Shop
	mu    sync.RWMutex
}

// NewMockShopRepository creates a new instance of MockShopRepository.
func NewMockShopRepository() *MockShopRepository {
	return &MockShopRepository{
		shops: make(map[string]models.Shop),
	}
}

// GetAll returns all shops.
func (r *MockShopRepository) GetAll() ([]models.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shops := make([]models.Shop, 0, len(r.shops))
	for _, shop := range r.shops {
		shops = append(shops, shop)
	}
	return shops, nil
}

// GetByID returns a shop by its ID.
func (r *MockShopRepository) GetByID(id string) (*models.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shop, ok := r.shops[id]
	if !ok {
		return nil, fmt.Errorf("shop %s: %w", id, models.ErrNotFound)
	}
	return &shop, nil
}

// Create adds a new shop.
func (r *MockShopRepository) Create(shop *models.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if shop.ID == "" {
		shop.ID = uuid.New().String()
	}
	r.shops[shop.ID] = *shop
	return nil
}

// Update modifies an existing shop.
func (r *MockShopRepository) Update(shop *models.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shops[shop.ID]; !ok {
		return fmt.Errorf("shop %s for update: %w", shop.ID, models.ErrNotFound)
	}
	r.shops[shop.ID] = *shop
	return nil
}
