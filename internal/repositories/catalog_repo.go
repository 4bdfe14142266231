package repositories

import (
	"canteen/internal/models"
)

// CatalogRepository defines data access to the menu catalog: food items and
// their per-item inventory records.
//
// AdjustInventory changes a food item's available quantity by delta
// (negative to deduct, positive to restore) and returns the new quantity.
// Implementations must make the check-and-deduct atomic: a deduction that
// would drive the quantity negative fails with InsufficientStockError and
// leaves the record unchanged, and no two concurrent deductions can both
// succeed against stock that covers only one of them.
type CatalogRepository interface {
	GetFoodItem(id string) (*models.FoodItem, error)
	ListFoodItemsByShop(shopID string) ([]models.FoodItem, error)
	CreateFoodItem(item *models.FoodItem) error
	UpdateFoodItem(item *models.FoodItem) error
	DeleteFoodItem(id string) error

	GetInventory(foodItemID string) (*models.Inventory, error)
	UpsertInventory(inv *models.Inventory) error
	AdjustInventory(foodItemID string, delta int) (int, error)
}
