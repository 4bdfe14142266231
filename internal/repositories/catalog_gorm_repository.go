package repositories

import (
	"errors"
	"fmt"

	"canteen/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCatalogRepository is a GORM implementation of CatalogRepository.
type GORMCatalogRepository struct {
	db *gorm.DB
}

// NewGORMCatalogRepository creates a new instance of GORMCatalogRepository.
func NewGORMCatalogRepository(db *gorm.DB) *GORMCatalogRepository {
	return &GORMCatalogRepository{
		db: db,
	}
}

// GetFoodItem retrieves a single food item by its ID.
func (r *GORMCatalogRepository) GetFoodItem(id string) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("food item %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get food item %s: %w", id, err)
	}
	return &item, nil
}

// ListFoodItemsByShop retrieves all food items belonging to a shop.
func (r *GORMCatalogRepository) ListFoodItemsByShop(shopID string) ([]models.FoodItem, error) {
	var items []models.FoodItem
	if err := r.db.Find(&items, "shop_id = ?", shopID).Error; err != nil {
		return nil, fmt.Errorf("failed to list food items for shop %s: %w", shopID, err)
	}
	return items, nil
}

// CreateFoodItem creates a new food item.
func (r *GORMCatalogRepository) CreateFoodItem(item *models.FoodItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create food item: %w", err)
	}
	return nil
}

// UpdateFoodItem updates an existing food item.
func (r *GORMCatalogRepository) UpdateFoodItem(item *models.FoodItem) error {
	res := r.db.Save(item)
	if res.Error != nil {
		return fmt.Errorf("failed to update food item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("food item %s for update: %w", item.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteFoodItem soft-deletes a food item. Old order lines keep referencing
// it; menu reads no longer see it.
func (r *GORMCatalogRepository) DeleteFoodItem(id string) error {
	res := r.db.Delete(&models.FoodItem{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete food item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("food item %s for deletion: %w", id, models.ErrNotFound)
	}
	return nil
}

// GetInventory retrieves the inventory record for a food item.
func (r *GORMCatalogRepository) GetInventory(foodItemID string) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.db.First(&inv, "food_item_id = ?", foodItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("inventory for food item %s: %w", foodItemID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get inventory for food item %s: %w", foodItemID, err)
	}
	return &inv, nil
}

// UpsertInventory creates or replaces the inventory record for a food item.
// The record's shop must match the food item's shop; the shop is auto-linked
// from the food item when left empty.
func (r *GORMCatalogRepository) UpsertInventory(inv *models.Inventory) error {
	item, err := r.GetFoodItem(inv.FoodItemID)
	if err != nil {
		return err
	}
	if inv.ShopID == "" {
		inv.ShopID = item.ShopID
	} else if inv.ShopID != item.ShopID {
		return &models.ShopMismatchError{FoodItemID: inv.FoodItemID, InventoryShopID: inv.ShopID, ItemShopID: item.ShopID}
	}

	var existing models.Inventory
	err = r.db.First(&existing, "food_item_id = ?", inv.FoodItemID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if inv.ID == "" {
			inv.ID = uuid.New().String()
		}
		if err := r.db.Create(inv).Error; err != nil {
			return fmt.Errorf("failed to create inventory: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up inventory: %w", err)
	default:
		inv.ID = existing.ID
		if err := r.db.Save(inv).Error; err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}
		return nil
	}
}

// AdjustInventory applies delta to a food item's quantity with an atomic
// conditional update: the deduction only lands when the remaining quantity
// covers it, so concurrent orders can never drive stock negative.
func (r *GORMCatalogRepository) AdjustInventory(foodItemID string, delta int) (int, error) {
	query := r.db.Model(&models.Inventory{}).Where("food_item_id = ?", foodItemID)
	if delta < 0 {
		query = query.Where("quantity_available >= ?", -delta)
	}
	res := query.Update("quantity_available", gorm.Expr("quantity_available + ?", delta))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to adjust inventory for food item %s: %w", foodItemID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the record is missing or the deduction would overdraw it.
		inv, err := r.GetInventory(foodItemID)
		if err != nil {
			return 0, err
		}
		return inv.QuantityAvailable, &models.InsufficientStockError{
			FoodItemID: foodItemID,
			Requested:  -delta,
			Available:  inv.QuantityAvailable,
		}
	}

	inv, err := r.GetInventory(foodItemID)
	if err != nil {
		return 0, err
	}
	return inv.QuantityAvailable, nil
}
