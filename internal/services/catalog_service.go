package services

import (
	"fmt"

	"canteen/internal/models"
	"canteen/internal/repositories"
)

// CatalogService handles vendor-facing menu and stock management.
type CatalogService struct {
	catalogRepo repositories.CatalogRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalogRepo repositories.CatalogRepository) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
	}
}

// GetFoodItem retrieves a single food item.
func (s *CatalogService) GetFoodItem(id string) (*models.FoodItem, error) {
	return s.catalogRepo.GetFoodItem(id)
}

// GetMenu retrieves all food items of a shop.
func (s *CatalogService) GetMenu(shopID string) ([]models.FoodItem, error) {
	return s.catalogRepo.ListFoodItemsByShop(shopID)
}

// CreateFoodItem adds a food item to a vendor's menu and initializes its
// inventory record with zero stock.
func (s *CatalogService) CreateFoodItem(item *models.FoodItem) error {
	if item.Price <= 0 {
		return fmt.Errorf("food item price must be greater than zero")
	}
	if err := s.catalogRepo.CreateFoodItem(item); err != nil {
		return err
	}
	return s.catalogRepo.UpsertInventory(&models.Inventory{
		ShopID:            item.ShopID,
		FoodItemID:        item.ID,
		QuantityAvailable: 0,
	})
}

// UpdateFoodItem updates a food item's details.
func (s *CatalogService) UpdateFoodItem(item *models.FoodItem) error {
	if item.Price <= 0 {
		return fmt.Errorf("food item price must be greater than zero")
	}
	return s.catalogRepo.UpdateFoodItem(item)
}

// SetAvailability toggles whether an item can be ordered without removing
// it from the menu.
func (s *CatalogService) SetAvailability(id string, available bool) (*models.FoodItem, error) {
	item, err := s.catalogRepo.GetFoodItem(id)
	if err != nil {
		return nil, err
	}
	item.Available = available
	if err := s.catalogRepo.UpdateFoodItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteFoodItem removes a food item from the menu (soft delete).
func (s *CatalogService) DeleteFoodItem(id string) error {
	return s.catalogRepo.DeleteFoodItem(id)
}

// GetStock returns the inventory record for a food item.
func (s *CatalogService) GetStock(foodItemID string) (*models.Inventory, error) {
	return s.catalogRepo.GetInventory(foodItemID)
}

// SetStock replaces the available quantity for a food item. The inventory
// record's shop is linked from the food item, which keeps the shop
// reference consistent on every write.
func (s *CatalogService) SetStock(foodItemID string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("stock quantity cannot be negative")
	}
	return s.catalogRepo.UpsertInventory(&models.Inventory{
		FoodItemID:        foodItemID,
		QuantityAvailable: quantity,
	})
}
