package repositories

import (
	"fmt"
	"sync"

	"canteen/internal/models"

	"github.com/google/uuid"
)

// MockCatalogRepository is an in-memory implementation of CatalogRepository.
type MockCatalogRepository struct {
	items       map[string]models.FoodItem
	inventories map[string]models.Inventory // keyed by food item ID
	mu          sync.RWMutex
}

// NewMockCatalogRepository creates a new instance of MockCatalogRepository.
func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		items:       make(map[string]models.FoodItem),
		inventories: make(map[string]models.Inventory),
	}
}

// GetFoodItem returns a food item by its ID.
func (r *MockCatalogRepository) GetFoodItem(id string) (*models.FoodItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("food item %s: %w", id, models.ErrNotFound)
	}
	return &item, nil
}

// ListFoodItemsByShop returns all food items belonging to a shop.
func (r *MockCatalogRepository) ListFoodItemsByShop(shopID string) ([]models.FoodItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.FoodItem, 0)
	for _, item := range r.items {
		if item.ShopID == shopID {
			items = append(items, item)
		}
	}
	return items, nil
}

// CreateFoodItem adds a new food item.
func (r *MockCatalogRepository) CreateFoodItem(item *models.FoodItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	r.items[item.ID] = *item
	return nil
}

// UpdateFoodItem modifies an existing food item.
func (r *MockCatalogRepository) UpdateFoodItem(item *models.FoodItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("food item %s for update: %w", item.ID, models.ErrNotFound)
	}
	r.items[item.ID] = *item
	return nil
}

// DeleteFoodItem removes a food item from the menu. The inventory record is
// kept, matching the soft-delete semantics of the database implementation:
// pending orders referencing the item can still restore their stock.
func (r *MockCatalogRepository) DeleteFoodItem(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("food item %s for deletion: %w", id, models.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

// GetInventory returns the inventory record for a food item.
func (r *MockCatalogRepository) GetInventory(foodItemID string) (*models.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.inventories[foodItemID]
	if !ok {
		return nil, fmt.Errorf("inventory for food item %s: %w", foodItemID, models.ErrNotFound)
	}
	return &inv, nil
}

// UpsertInventory creates or replaces the inventory record for a food item,
// enforcing that the record's shop matches the food item's shop.
func (r *MockCatalogRepository) UpsertInventory(inv *models.Inventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[inv.FoodItemID]
	if !ok {
		return fmt.Errorf("food item %s: %w", inv.FoodItemID, models.ErrNotFound)
	}
	if inv.ShopID == "" {
		inv.ShopID = item.ShopID
	} else if inv.ShopID != item.ShopID {
		return &models.ShopMismatchError{FoodItemID: inv.FoodItemID, InventoryShopID: inv.ShopID, ItemShopID: item.ShopID}
	}
	if inv.ID == "" {
		if existing, ok := r.inventories[inv.FoodItemID]; ok {
			inv.ID = existing.ID
		} else {
			inv.ID = uuid.New().String()
		}
	}
	r.inventories[inv.FoodItemID] = *inv
	return nil
}

// AdjustInventory applies delta to a food item's quantity. The check and the
// write happen under one lock, so a deduction never overdraws the record.
func (r *MockCatalogRepository) AdjustInventory(foodItemID string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.inventories[foodItemID]
	if !ok {
		return 0, fmt.Errorf("inventory for food item %s: %w", foodItemID, models.ErrNotFound)
	}
	if inv.QuantityAvailable+delta < 0 {
		return inv.QuantityAvailable, &models.InsufficientStockError{
			FoodItemID: foodItemID,
			Requested:  -delta,
			Available:  inv.QuantityAvailable,
		}
	}
	inv.QuantityAvailable += delta
	r.inventories[foodItemID] = inv
	return inv.QuantityAvailable, nil
}
