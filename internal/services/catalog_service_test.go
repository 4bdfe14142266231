package services_test

import (
	"testing"

	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogService() (*services.CatalogService, *repositories.MockCatalogRepository) {
	repo := repositories.NewMockCatalogRepository()
	return services.NewCatalogService(repo), repo
}

func TestCatalogService_CreateFoodItemInitializesStock(t *testing.T) {
	svc, _ := newCatalogService()

	item := &models.FoodItem{ShopID: shopID, Name: "Lumpia", Price: 35.0, Available: true}
	require.NoError(t, svc.CreateFoodItem(item))
	require.NotEmpty(t, item.ID)

	inv, err := svc.GetStock(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.QuantityAvailable)
	assert.Equal(t, shopID, inv.ShopID)
}

func TestCatalogService_RejectsNonPositivePrice(t *testing.T) {
	svc, _ := newCatalogService()

	err := svc.CreateFoodItem(&models.FoodItem{ShopID: shopID, Name: "Free Water", Price: 0})
	assert.Error(t, err)

	item := &models.FoodItem{ShopID: shopID, Name: "Lumpia", Price: 35.0}
	require.NoError(t, svc.CreateFoodItem(item))

	item.Price = -1
	assert.Error(t, svc.UpdateFoodItem(item))
}

func TestCatalogService_SetStock(t *testing.T) {
	svc, _ := newCatalogService()
	item := &models.FoodItem{ShopID: shopID, Name: "Lumpia", Price: 35.0}
	require.NoError(t, svc.CreateFoodItem(item))

	require.NoError(t, svc.SetStock(item.ID, 12))
	inv, err := svc.GetStock(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, inv.QuantityAvailable)

	assert.Error(t, svc.SetStock(item.ID, -1))
	assert.ErrorIs(t, svc.SetStock("no-such-item", 5), models.ErrNotFound)
}

func TestCatalogService_SetStockRejectsShopMismatch(t *testing.T) {
	_, repo := newCatalogService()
	item := &models.FoodItem{ID: itemAID, ShopID: shopID, Name: "Lumpia", Price: 35.0}
	require.NoError(t, repo.CreateFoodItem(item))

	err := repo.UpsertInventory(&models.Inventory{
		ShopID:            otherShopID,
		FoodItemID:        itemAID,
		QuantityAvailable: 5,
	})
	var mismatch *models.ShopMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, otherShopID, mismatch.InventoryShopID)
	assert.Equal(t, shopID, mismatch.ItemShopID)
}

func TestCatalogService_SetAvailability(t *testing.T) {
	svc, _ := newCatalogService()
	item := &models.FoodItem{ShopID: shopID, Name: "Lumpia", Price: 35.0, Available: true}
	require.NoError(t, svc.CreateFoodItem(item))

	updated, err := svc.SetAvailability(item.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Available)

	stored, err := svc.GetFoodItem(item.ID)
	require.NoError(t, err)
	assert.False(t, stored.Available)
}

func TestCatalogService_MenuListsOnlyOwnShop(t *testing.T) {
	svc, _ := newCatalogService()
	require.NoError(t, svc.CreateFoodItem(&models.FoodItem{ShopID: shopID, Name: "Lumpia", Price: 35.0}))
	require.NoError(t, svc.CreateFoodItem(&models.FoodItem{ShopID: shopID, Name: "Pancit", Price: 45.0}))
	require.NoError(t, svc.CreateFoodItem(&models.FoodItem{ShopID: otherShopID, Name: "Mango Shake", Price: 40.0}))

	menu, err := svc.GetMenu(shopID)
	require.NoError(t, err)
	assert.Len(t, menu, 2)
	for _, item := range menu {
		assert.Equal(t, shopID, item.ShopID)
	}
}

func TestCatalogService_DeleteFoodItem(t *testing.T) {
	svc, _ := newCatalogService()
	item := &models.FoodItem{ShopID: shopID, Name: "Lumpia", Price: 35.0}
	require.NoError(t, svc.CreateFoodItem(item))
	require.NoError(t, svc.SetStock(item.ID, 7))

	require.NoError(t, svc.DeleteFoodItem(item.ID))
	_, err := svc.GetFoodItem(item.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// The inventory record outlives the item so pending orders holding
	// reservations against it can still be rejected or cancelled.
	inv, err := svc.GetStock(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, inv.QuantityAvailable)
}
