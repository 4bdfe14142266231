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

// OrderHandler handles HTTP requests for the order lifecycle: customers
// placing and cancelling orders, vendors driving them through the status
// state machine, admins listing everything.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the customer-facing order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Patch("/:id/instructions", h.HandleUpdateInstructions)
}

// RegisterVendorRoutes registers the vendor order routes. The caller mounts
// them behind the vendor role gate.
func (h *OrderHandler) RegisterVendorRoutes(router fiber.Router) {
	router.Get("/orders", h.HandleGetShopOrders)
	router.Put("/orders/:id/accept", h.vendorAction(models.ActionAccept))
	router.Put("/orders/:id/reject", h.vendorAction(models.ActionReject))
	router.Put("/orders/:id/ready", h.vendorAction(models.ActionReady))
	router.Put("/orders/:id/complete", h.vendorAction(models.ActionComplete))
}

// RegisterAdminRoutes registers the admin order routes. The caller mounts
// them behind the admin role gate.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/orders", h.HandleGetAllOrders)
}

// HandleCreateOrder creates a new order for the authenticated customer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create order request: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
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

	// The customer is always the authenticated user, never a client-supplied id.
	customerID, _ := c.Locals("user_id").(string)

	order, err := h.service.CreateOrder(customerID, req)
	if err != nil {
		log.Printf("Error creating order for user %s: %v", customerID, err)
		return orderErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetMyOrders lists the authenticated customer's own orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	orders, err := h.service.GetOrdersByUser(userID)
	if err != nil {
		log.Printf("Error listing orders for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order. Customers can only see their
// own orders; admins can see any.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	userID, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	if order.UserID != userID && role != string(models.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You can only view your own orders",
		})
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels the authenticated customer's own pending order.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	userID, _ := c.Locals("user_id").(string)
	if order.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You can only cancel your own orders",
		})
	}

	updated, err := h.service.TransitionOrder(orderID, models.ActionCancel)
	if err != nil {
		log.Printf("Error cancelling order %s: %v", orderID, err)
		return orderErrorResponse(c, err)
	}
	return c.JSON(updated)
}

// InstructionsRequest represents the request body for updating special instructions.
type InstructionsRequest struct {
	SpecialInstructions string `json:"special_instructions" validate:"max=500"`
}

// HandleUpdateInstructions updates the special instructions on the
// authenticated customer's own pending order.
func (h *OrderHandler) HandleUpdateInstructions(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req InstructionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		return orderErrorResponse(c, err)
	}
	userID, _ := c.Locals("user_id").(string)
	if order.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You can only update your own orders",
		})
	}

	updated, err := h.service.UpdateSpecialInstructions(orderID, req.SpecialInstructions)
	if err != nil {
		log.Printf("Error updating instructions on order %s: %v", orderID, err)
		return orderErrorResponse(c, err)
	}
	return c.JSON(updated)
}

// HandleGetShopOrders lists all orders for the authenticated vendor's shop.
func (h *OrderHandler) HandleGetShopOrders(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)
	if shopID == "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Vendor account has no assigned shop",
		})
	}
	orders, err := h.service.GetOrdersByShop(shopID)
	if err != nil {
		log.Printf("Error listing orders for shop %s: %v", shopID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// vendorAction builds a handler applying one state machine action to an
// order, after checking the order belongs to the vendor's shop.
func (h *OrderHandler) vendorAction(action models.OrderAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID := c.Params("id")
		order, err := h.service.GetOrderByID(orderID)
		if err != nil {
			return orderErrorResponse(c, err)
		}

		shopID, _ := c.Locals("shop_id").(string)
		if order.ShopID != shopID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Order belongs to a different shop",
			})
		}

		updated, err := h.service.TransitionOrder(orderID, action)
		if err != nil {
			log.Printf("Error applying %s to order %s: %v", action, orderID, err)
			return orderErrorResponse(c, err)
		}
		return c.JSON(updated)
	}
}

// HandleGetAllOrders lists every order (admin view).
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error listing all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// orderErrorResponse maps domain errors to HTTP responses: missing entities
// to 404, state machine and stock conflicts to 409, bad carts to 400.
func orderErrorResponse(c *fiber.Ctx, err error) error {
	var (
		stockErr      *models.InsufficientStockError
		transitionErr *models.InvalidTransitionError
		crossShopErr  *models.CrossShopViolationError
	)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
			"error":   err.Error(),
		})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":   "Insufficient stock",
			"error":     stockErr.Error(),
			"item":      stockErr.ItemName,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &transitionErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Invalid order transition",
			"error":   transitionErr.Error(),
			"status":  transitionErr.From,
			"action":  transitionErr.Action,
		})
	case errors.As(err, &crossShopErr),
		errors.Is(err, models.ErrShopClosed),
		errors.Is(err, models.ErrItemUnavailable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Order rejected",
			"error":   err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process order",
			"error":   err.Error(),
		})
	}
}
