package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/pkg/rabbitmq"
)

// OrderLineRequest is one cart entry submitted by a customer. Only the item
// and quantity are accepted; the price is always resolved from the catalog.
type OrderLineRequest struct {
	FoodItemID string `json:"food_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gte=1"`
}

// CreateOrderRequest is the input to CreateOrder. The customer ID is not
// part of it; the boundary layer resolves the actor from the session and
// passes it explicitly.
type CreateOrderRequest struct {
	ShopID              string               `json:"shop_id" validate:"required"`
	Lines               []OrderLineRequest   `json:"lines" validate:"required,min=1,dive"`
	SpecialInstructions string               `json:"special_instructions" validate:"omitempty,max=500"`
	PaymentMethod       models.PaymentMethod `json:"payment_method" validate:"required,oneof=CASH CARD DIGITAL_WALLET"`
	TransactionRef      string               `json:"transaction_reference" validate:"omitempty,max=100"`
}

// OrderService handles the order lifecycle: the creation transaction with
// its stock reservation, and the status state machine with its payment and
// inventory side effects.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	catalogRepo repositories.CatalogRepository
	userRepo    repositories.UserRepository
	shopRepo    repositories.ShopRepository
	tx          repositories.Transactor
	mqClient    *rabbitmq.Client
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, catalogRepo repositories.CatalogRepository,
	userRepo repositories.UserRepository, shopRepo repositories.ShopRepository,
	tx repositories.Transactor, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
		shopRepo:    shopRepo,
		tx:          tx,
		mqClient:    mqClient,
	}
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrdersByUser retrieves all orders placed by a user.
func (s *OrderService) GetOrdersByUser(userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(userID)
}

// GetOrdersByShop retrieves all orders placed against a shop.
func (s *OrderService) GetOrdersByShop(shopID string) ([]models.Order, error) {
	return s.orderRepo.ListByShop(shopID)
}

// GetAllOrders retrieves all orders (admin view).
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.ListAll()
}

// CreateOrder validates the cart against the catalog, reserves stock for
// every line, prices the order from authoritative catalog data and persists
// the order with its payment record. Any failure leaves no trace: no stock
// stays deducted, no order or payment is persisted.
func (s *OrderService) CreateOrder(customerID string, req CreateOrderRequest) (*models.Order, error) {
	if _, err := s.userRepo.GetByID(customerID); err != nil {
		return nil, err
	}
	shop, err := s.shopRepo.GetByID(req.ShopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsOpen {
		return nil, fmt.Errorf("shop %s: %w", shop.ID, models.ErrShopClosed)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("order must contain at least one line")
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("invalid payment method: %s", req.PaymentMethod)
	}

	// Resolve every item and snapshot its current price before touching any
	// inventory, so validation failures never require compensation.
	items := make(map[string]*models.FoodItem, len(req.Lines))
	lines := make([]models.OrderLine, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		if lineReq.Quantity < 1 {
			return nil, fmt.Errorf("quantity for food item %s must be at least 1", lineReq.FoodItemID)
		}
		item, ok := items[lineReq.FoodItemID]
		if !ok {
			item, err = s.catalogRepo.GetFoodItem(lineReq.FoodItemID)
			if err != nil {
				return nil, err
			}
			items[item.ID] = item
		}
		if item.ShopID != req.ShopID {
			return nil, &models.CrossShopViolationError{FoodItemID: item.ID, ItemShopID: item.ShopID, OrderShopID: req.ShopID}
		}
		if !item.Available {
			return nil, fmt.Errorf("food item %s (%s): %w", item.Name, item.ID, models.ErrItemUnavailable)
		}
		lines = append(lines, models.OrderLine{
			FoodItemID:   item.ID,
			Quantity:     lineReq.Quantity,
			PriceAtOrder: item.Price,
		})
	}

	order := &models.Order{
		UserID:              customerID,
		ShopID:              req.ShopID,
		Lines:               lines,
		Status:              models.OrderPending,
		SpecialInstructions: req.SpecialInstructions,
	}

	// Reservation, pricing and persistence run as one unit. On the
	// database drivers an error rolls every write back; the in-memory
	// stores have no rollback, so the release calls undo the reservations
	// there (inside a rolled-back transaction they are simply discarded).
	err = s.tx.WithinTransaction(func(repos repositories.Repositories) error {
		if err := s.reserveStock(repos.Catalog, lines, items); err != nil {
			return err
		}
		order.TotalAmount = order.ComputeTotal()
		if err := order.CheckTotal(); err != nil {
			s.releaseStock(repos.Catalog, lines)
			return err
		}
		order.Payment = &models.Payment{
			Amount: order.TotalAmount,
			Method: req.PaymentMethod,
			// Cash orders carry no external reference; digital wallets do.
			TransactionRef: req.TransactionRef,
			Status:         models.PaymentPending,
		}
		if err := repos.Orders.Create(order); err != nil {
			s.releaseStock(repos.Catalog, lines)
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent("order.created", order)
	return order, nil
}

// reserveStock deducts the quantity of every line from inventory. Lines
// are processed in ascending food-item-id order so carts sharing items
// contend in a stable order. If any deduction fails, the ones already
// applied are rolled back and the error is returned with the item's name
// attached.
func (s *OrderService) reserveStock(catalog repositories.CatalogRepository, lines []models.OrderLine, items map[string]*models.FoodItem) error {
	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return lines[order[a]].FoodItemID < lines[order[b]].FoodItemID
	})

	reserved := make([]models.OrderLine, 0, len(lines))
	for _, idx := range order {
		line := lines[idx]
		if _, err := catalog.AdjustInventory(line.FoodItemID, -line.Quantity); err != nil {
			s.releaseStock(catalog, reserved)
			var stockErr *models.InsufficientStockError
			if errors.As(err, &stockErr) {
				if item, ok := items[line.FoodItemID]; ok {
					stockErr.ItemName = item.Name
				}
			}
			return err
		}
		reserved = append(reserved, line)
	}
	return nil
}

// releaseStock returns the quantity of every line to inventory.
func (s *OrderService) releaseStock(catalog repositories.CatalogRepository, lines []models.OrderLine) {
	for _, line := range lines {
		if _, err := catalog.AdjustInventory(line.FoodItemID, line.Quantity); err != nil {
			// Restoration of a just-deducted quantity only fails if the
			// inventory record itself disappeared; log and keep going so we
			// return as much stock as possible.
			log.Printf("failed to release %d of food item %s: %v", line.Quantity, line.FoodItemID, err)
		}
	}
}

// TransitionOrder applies a state machine action (accept, reject, ready,
// complete, cancel) to an order. The payment record is synchronized with
// the new status and, for reject/cancel, the reserved stock of every line
// is returned to inventory. The allowed-from gate is enforced twice: once
// on the loaded copy by the state machine, and again at write time by the
// status-guarded Update, so the refund and restoration side effects happen
// exactly once per order even when two callers race on it.
func (s *OrderService) TransitionOrder(orderID string, action models.OrderAction) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithinTransaction(func(repos repositories.Repositories) error {
		loaded, err := repos.Orders.GetByID(orderID)
		if err != nil {
			return err
		}
		from := loaded.Status

		restoreStock, err := loaded.Transition(action)
		if err != nil {
			return err
		}

		if err := repos.Orders.Update(loaded, from); err != nil {
			if errors.Is(err, models.ErrStatusConflict) {
				// A concurrent transition won the race. Report the move as
				// invalid from the status that actually stuck.
				current, readErr := repos.Orders.GetByID(orderID)
				if readErr != nil {
					return readErr
				}
				return &models.InvalidTransitionError{From: current.Status, Action: action}
			}
			return fmt.Errorf("failed to update order %s: %w", orderID, err)
		}

		if restoreStock {
			for _, line := range loaded.Lines {
				if _, err := repos.Catalog.AdjustInventory(line.FoodItemID, line.Quantity); err != nil {
					return fmt.Errorf("failed to restore stock for food item %s: %w", line.FoodItemID, err)
				}
			}
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent("order.status_changed", order)
	return order, nil
}

// UpdateSpecialInstructions replaces the special instructions of an order
// that is still PENDING. It shares the PENDING-only gate of the cancel
// action but changes no status.
func (s *OrderService) UpdateSpecialInstructions(orderID, instructions string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, &models.InvalidTransitionError{From: order.Status, Action: models.ActionEditInstructions}
	}

	order.SpecialInstructions = instructions
	// The PENDING guard on the write closes the window between the check
	// above and the update: an edit racing a vendor accept loses cleanly.
	if err := s.orderRepo.Update(order, models.OrderPending); err != nil {
		if errors.Is(err, models.ErrStatusConflict) {
			current, readErr := s.orderRepo.GetByID(orderID)
			if readErr != nil {
				return nil, readErr
			}
			return nil, &models.InvalidTransitionError{From: current.Status, Action: models.ActionEditInstructions}
		}
		return nil, fmt.Errorf("failed to update order %s: %w", orderID, err)
	}
	return order, nil
}

// publishEvent publishes an order lifecycle event to the message broker.
// Publishing is best effort; a broker outage never fails an order.
func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.mqClient == nil {
		return
	}

	event := map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"shop_id":  order.ShopID,
		"status":   order.Status,
		"total":    order.TotalAmount,
	}
	if order.Payment != nil {
		event["payment_status"] = order.Payment.Status
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal order event: %v", err)
		return
	}
	if err := s.mqClient.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}
