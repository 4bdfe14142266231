package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced entity (user, shop, food item,
// inventory record, order) does not exist. Callers wrap it with context via
// fmt.Errorf and check it with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrStatusConflict is returned when a guarded order update loses a race:
// the order's stored status no longer matches the status the caller loaded,
// meaning a concurrent transition committed first.
var ErrStatusConflict = errors.New("order status changed concurrently")

// ErrShopClosed is returned when an order targets a shop that is not
// currently accepting orders.
var ErrShopClosed = errors.New("shop is closed")

// ErrItemUnavailable is returned when a cart line references a food item
// the vendor has taken off the menu.
var ErrItemUnavailable = errors.New("food item is unavailable")

// InsufficientStockError is returned when a requested quantity exceeds the
// available inventory of a food item.
type InsufficientStockError struct {
	FoodItemID string
	ItemName   string
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (requested: %d, available: %d)", e.ItemName, e.Requested, e.Available)
}

// CrossShopViolationError is returned when a cart line references a food
// item that does not belong to the shop the order targets.
type CrossShopViolationError struct {
	FoodItemID  string
	ItemShopID  string
	OrderShopID string
}

func (e *CrossShopViolationError) Error() string {
	return fmt.Sprintf("food item %s belongs to shop %s, not shop %s", e.FoodItemID, e.ItemShopID, e.OrderShopID)
}

// InvalidTransitionError is returned when an order action is not permitted
// from the order's current status.
type InvalidTransitionError struct {
	From   OrderStatus
	Action OrderAction
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an order in status %s", e.Action, e.From)
}

// InconsistentTotalError is returned when an order's stored total does not
// equal the sum of its lines.
type InconsistentTotalError struct {
	Computed float64
	Declared float64
}

func (e *InconsistentTotalError) Error() string {
	return fmt.Sprintf("order total %.2f does not match line sum %.2f", e.Declared, e.Computed)
}

// ShopMismatchError is returned when an inventory write would link a shop
// to a food item owned by a different shop.
type ShopMismatchError struct {
	FoodItemID      string
	InventoryShopID string
	ItemShopID      string
}

func (e *ShopMismatchError) Error() string {
	return fmt.Sprintf("inventory shop %s does not match food item %s's shop %s", e.InventoryShopID, e.FoodItemID, e.ItemShopID)
}
