package services

import (
	"canteen/internal/models"
	"canteen/internal/repositories"
)

// ShopService handles shop listing and vendor shop management.
type ShopService struct {
	shopRepo repositories.ShopRepository
}

// NewShopService creates a new ShopService.
func NewShopService(shopRepo repositories.ShopRepository) *ShopService {
	return &ShopService{
		shopRepo: shopRepo,
	}
}

// GetAllShops retrieves all shops.
func (s *ShopService) GetAllShops() ([]models.Shop, error) {
	return s.shopRepo.GetAll()
}

// GetShopByID retrieves a single shop by its ID.
func (s *ShopService) GetShopByID(id string) (*models.Shop, error) {
	return s.shopRepo.GetByID(id)
}

// CreateShop creates a new shop.
func (s *ShopService) CreateShop(shop *models.Shop) error {
	return s.shopRepo.Create(shop)
}

// ToggleOpen flips the shop's open/closed flag and returns the updated shop.
func (s *ShopService) ToggleOpen(id string) (*models.Shop, error) {
	shop, err := s.shopRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	shop.IsOpen = !shop.IsOpen
	if err := s.shopRepo.Update(shop); err != nil {
		return nil, err
	}
	return shop, nil
}
