package models

import (
	"math"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"   // Created and paid for (bookkeeping only), waiting for the vendor
	OrderPreparing OrderStatus = "PREPARING" // Vendor accepted, food is being prepared
	OrderReady     OrderStatus = "READY"     // Ready for pickup
	OrderCompleted OrderStatus = "COMPLETED" // Customer picked up
	OrderCancelled OrderStatus = "CANCELLED" // Customer cancelled while still pending
	OrderRejected  OrderStatus = "REJECTED"  // Vendor rejected while still pending
)

// IsTerminal reports whether no further transition is permitted from s.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderCompleted, OrderCancelled, OrderRejected:
		return true
	}
	return false
}

// PaymentMethod is how the customer declared they will pay.
type PaymentMethod string

const (
	PaymentCash          PaymentMethod = "CASH"
	PaymentCard          PaymentMethod = "CARD"
	PaymentDigitalWallet PaymentMethod = "DIGITAL_WALLET"
)

// ValidPaymentMethod reports whether m is one of the supported methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDigitalWallet:
		return true
	}
	return false
}

// PaymentStatus is the bookkeeping state of an order's payment record.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// OrderLine is a single item within an order. Quantity and PriceAtOrder are
// fixed at creation time; the price snapshot decouples historical orders
// from later menu price changes.
type OrderLine struct {
	ID           string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string  `json:"order_id" gorm:"index;type:varchar(36)"`
	FoodItemID   string  `json:"food_item_id" gorm:"type:varchar(36)" validate:"required"`
	Quantity     int     `json:"quantity" validate:"required,gte=1"`
	PriceAtOrder float64 `json:"price_at_order"`
}

// Payment is the bookkeeping record for an order. It is created together
// with its order and its status is derived from the order's status; it is
// never mutated independently during normal flow.
type Payment struct {
	ID             string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID        string        `json:"order_id" gorm:"uniqueIndex;type:varchar(36)"`
	Amount         float64       `json:"amount"`
	Method         PaymentMethod `json:"payment_method" gorm:"type:varchar(20)"`
	TransactionRef string        `json:"transaction_reference,omitempty" gorm:"type:varchar(100)"` // External reference, e.g. a wallet receipt number
	Status         PaymentStatus `json:"status" gorm:"type:varchar(20)"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"` // Set when status becomes COMPLETED
}

// Order represents a customer order placed against one shop.
type Order struct {
	ID                  string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID              string      `json:"user_id" gorm:"index;type:varchar(36)"`
	ShopID              string      `json:"shop_id" gorm:"index;type:varchar(36)"`
	Lines               []OrderLine `json:"lines" gorm:"foreignKey:OrderID"`
	Payment             *Payment    `json:"payment,omitempty" gorm:"foreignKey:OrderID"`
	TotalAmount         float64     `json:"total_amount"`
	Status              OrderStatus `json:"status" gorm:"type:varchar(30)"`
	SpecialInstructions string      `json:"special_instructions,omitempty" gorm:"type:text"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// ComputeTotal returns the sum of quantity * price-at-order across all lines.
func (o *Order) ComputeTotal() float64 {
	var total float64
	for _, line := range o.Lines {
		total += float64(line.Quantity) * line.PriceAtOrder
	}
	return total
}

// CheckTotal verifies that the stored total matches the sum of the lines.
// A mismatch should never occur when orders are built through the order
// service; it is checked rather than assumed.
func (o *Order) CheckTotal() error {
	computed := o.ComputeTotal()
	if math.Abs(computed-o.TotalAmount) > 1e-9 {
		return &InconsistentTotalError{Computed: computed, Declared: o.TotalAmount}
	}
	return nil
}

// OrderAction is a requested move through the order state machine.
type OrderAction string

const (
	ActionAccept   OrderAction = "accept"   // Vendor accepts a pending order
	ActionReject   OrderAction = "reject"   // Vendor rejects a pending order
	ActionReady    OrderAction = "ready"    // Vendor marks the food ready for pickup
	ActionComplete OrderAction = "complete" // Vendor hands the order over
	ActionCancel   OrderAction = "cancel"   // Customer cancels a pending order

	// ActionEditInstructions is not a status transition; it names the
	// special-instructions edit in InvalidTransitionError diagnostics,
	// since the edit shares the PENDING-only gate.
	ActionEditInstructions OrderAction = "edit_instructions"
)

// transition describes one row of the order state machine: the states an
// action may be applied from, the resulting state, the payment status the
// order's payment must take (empty = unchanged), and whether the reserved
// stock has to be returned to inventory.
type transition struct {
	from          []OrderStatus
	to            OrderStatus
	paymentStatus PaymentStatus
	restoresStock bool
}

// transitions is the single authoritative table for order status changes.
// Payment status is derived from it and nowhere else. COMPLETE is tolerated
// straight from PREPARING so a vendor who skips the READY step does not get
// stuck.
var transitions = map[OrderAction]transition{
	ActionAccept:   {from: []OrderStatus{OrderPending}, to: OrderPreparing},
	ActionReject:   {from: []OrderStatus{OrderPending}, to: OrderRejected, paymentStatus: PaymentRefunded, restoresStock: true},
	ActionReady:    {from: []OrderStatus{OrderPreparing}, to: OrderReady},
	ActionComplete: {from: []OrderStatus{OrderReady, OrderPreparing}, to: OrderCompleted, paymentStatus: PaymentCompleted},
	ActionCancel:   {from: []OrderStatus{OrderPending}, to: OrderCancelled, paymentStatus: PaymentRefunded, restoresStock: true},
}

// Transition applies action to the order, updating its status and syncing
// the payment record per the state machine table. It reports whether the
// reserved stock must be restored by the caller. An action not allowed from
// the current status fails with InvalidTransitionError and leaves the order
// untouched.
func (o *Order) Transition(action OrderAction) (restoreStock bool, err error) {
	t, ok := transitions[action]
	if !ok {
		return false, &InvalidTransitionError{From: o.Status, Action: action}
	}

	allowed := false
	for _, from := range t.from {
		if o.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, &InvalidTransitionError{From: o.Status, Action: action}
	}

	o.Status = t.to
	if o.Payment != nil && t.paymentStatus != "" {
		o.Payment.Status = t.paymentStatus
		if t.paymentStatus == PaymentCompleted && o.Payment.PaidAt == nil {
			now := time.Now()
			o.Payment.PaidAt = &now
		}
	}
	return t.restoresStock, nil
}
