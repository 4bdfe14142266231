package handlers

import (
	"errors"
	"fmt"
	"log"

	"canteen/internal/models"
	"canteen/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles HTTP requests for shops, menus and stock.
type CatalogHandler struct {
	catalogService *services.CatalogService
	shopService    *services.ShopService
	validate       *validator.Validate
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *services.CatalogService, shopService *services.ShopService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		shopService:    shopService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the public catalog browsing routes.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	shopRoutes := router.Group("/shops")
	shopRoutes.Get("/", h.HandleGetShops)
	shopRoutes.Get("/:id", h.HandleGetShopByID)
	shopRoutes.Get("/:id/menu", h.HandleGetMenu)
}

// RegisterVendorRoutes registers menu and stock management routes. The
// caller mounts them behind the vendor role gate.
func (h *CatalogHandler) RegisterVendorRoutes(router fiber.Router) {
	router.Get("/menu", h.HandleGetOwnMenu)
	router.Post("/menu", h.HandleCreateFoodItem)
	router.Put("/menu/:id", h.HandleUpdateFoodItem)
	router.Delete("/menu/:id", h.HandleDeleteFoodItem)
	router.Put("/menu/:id/availability", h.HandleSetAvailability)
	router.Put("/menu/:id/stock", h.HandleSetStock)
	router.Put("/shop/status", h.HandleToggleShop)
}

// HandleGetShops lists all shops.
func (h *CatalogHandler) HandleGetShops(c *fiber.Ctx) error {
	shops, err := h.shopService.GetAllShops()
	if err != nil {
		log.Printf("Error listing shops: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve shops",
			"error":   err.Error(),
		})
	}
	return c.JSON(shops)
}

// HandleGetShopByID retrieves a single shop.
func (h *CatalogHandler) HandleGetShopByID(c *fiber.Ctx) error {
	shop, err := h.shopService.GetShopByID(c.Params("id"))
	if err != nil {
		return catalogErrorResponse(c, err)
	}
	return c.JSON(shop)
}

// HandleGetMenu lists a shop's menu.
func (h *CatalogHandler) HandleGetMenu(c *fiber.Ctx) error {
	items, err := h.catalogService.GetMenu(c.Params("id"))
	if err != nil {
		log.Printf("Error listing menu for shop %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve menu",
			"error":   err.Error(),
		})
	}
	return c.JSON(items)
}

// HandleGetOwnMenu lists the authenticated vendor's menu.
func (h *CatalogHandler) HandleGetOwnMenu(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)
	if shopID == "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Vendor account has no assigned shop",
		})
	}
	items, err := h.catalogService.GetMenu(shopID)
	if err != nil {
		return catalogErrorResponse(c, err)
	}
	return c.JSON(items)
}

// HandleCreateFoodItem adds a food item to the vendor's own menu.
func (h *CatalogHandler) HandleCreateFoodItem(c *fiber.Ctx) error {
	var item models.FoodItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	// The item always lands on the vendor's own shop.
	shopID, _ := c.Locals("shop_id").(string)
	item.ShopID = shopID
	item.Available = true

	if err := h.validate.Struct(item); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	if err := h.catalogService.CreateFoodItem(&item); err != nil {
		log.Printf("Error creating food item: %v", err)
		return catalogErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleUpdateFoodItem updates a food item on the vendor's own menu.
func (h *CatalogHandler) HandleUpdateFoodItem(c *fiber.Ctx) error {
	existing, err := h.ownItem(c)
	if err != nil {
		return catalogErrorResponse(c, err)
	}

	var item models.FoodItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	item.ID = existing.ID
	item.ShopID = existing.ShopID
	item.Model = existing.Model

	if err := h.catalogService.UpdateFoodItem(&item); err != nil {
		log.Printf("Error updating food item %s: %v", item.ID, err)
		return catalogErrorResponse(c, err)
	}
	return c.JSON(item)
}

// HandleDeleteFoodItem removes a food item from the vendor's own menu.
func (h *CatalogHandler) HandleDeleteFoodItem(c *fiber.Ctx) error {
	item, err := h.ownItem(c)
	if err != nil {
		return catalogErrorResponse(c, err)
	}
	if err := h.catalogService.DeleteFoodItem(item.ID); err != nil {
		return catalogErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Food item deleted",
	})
}

// AvailabilityRequest represents the request body for toggling availability.
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// HandleSetAvailability toggles whether an item can be ordered.
func (h *CatalogHandler) HandleSetAvailability(c *fiber.Ctx) error {
	item, err := h.ownItem(c)
	if err != nil {
		return catalogErrorResponse(c, err)
	}
	var req AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	updated, err := h.catalogService.SetAvailability(item.ID, req.Available)
	if err != nil {
		return catalogErrorResponse(c, err)
	}
	return c.JSON(updated)
}

// StockRequest represents the request body for setting stock.
type StockRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// HandleSetStock replaces the available quantity for a food item.
func (h *CatalogHandler) HandleSetStock(c *fiber.Ctx) error {
	item, err := h.ownItem(c)
	if err != nil {
		return catalogErrorResponse(c, err)
	}
	var req StockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Quantity cannot be negative",
		})
	}
	if err := h.catalogService.SetStock(item.ID, req.Quantity); err != nil {
		log.Printf("Error setting stock for food item %s: %v", item.ID, err)
		return catalogErrorResponse(c, err)
	}
	inv, err := h.catalogService.GetStock(item.ID)
	if err != nil {
		return catalogErrorResponse(c, err)
	}
	return c.JSON(inv)
}

// HandleToggleShop flips the vendor's shop open/closed flag.
func (h *CatalogHandler) HandleToggleShop(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)
	if shopID == "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Vendor account has no assigned shop",
		})
	}
	shop, err := h.shopService.ToggleOpen(shopID)
	if err != nil {
		return catalogErrorResponse(c, err)
	}
	return c.JSON(shop)
}

// ownItem resolves the :id route parameter to a food item and verifies it
// belongs to the authenticated vendor's shop.
func (h *CatalogHandler) ownItem(c *fiber.Ctx) (*models.FoodItem, error) {
	item, err := h.catalogService.GetFoodItem(c.Params("id"))
	if err != nil {
		return nil, err
	}
	shopID, _ := c.Locals("shop_id").(string)
	if item.ShopID != shopID {
		return nil, fmt.Errorf("food item %s: %w", item.ID, models.ErrNotFound)
	}
	return item, nil
}

// catalogErrorResponse maps catalog errors to HTTP responses.
func catalogErrorResponse(c *fiber.Ctx, err error) error {
	var mismatchErr *models.ShopMismatchError
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
			"error":   err.Error(),
		})
	case errors.As(err, &mismatchErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Inventory shop mismatch",
			"error":   err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process request",
			"error":   err.Error(),
		})
	}
}
