package services_test

import (
	"fmt"
	"sync"
	"testing"

	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderFixture wires an OrderService against the in-memory repositories
// with one customer, one open shop and a small stocked menu.
type orderFixture struct {
	users   *repositories.MockUserRepository
	shops   *repositories.MockShopRepository
	catalog *repositories.MockCatalogRepository
	orders  *repositories.MockOrderRepository
	svc     *services.OrderService
}

const (
	customerID  = "cust-1"
	shopID      = "shop-1"
	otherShopID = "shop-2"
	itemAID     = "item-a"
	itemBID     = "item-b"
	foreignID   = "item-foreign"
)

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	f := &orderFixture{
		users:   repositories.NewMockUserRepository(),
		shops:   repositories.NewMockShopRepository(),
		catalog: repositories.NewMockCatalogRepository(),
		orders:  repositories.NewMockOrderRepository(),
	}
	f.svc = f.service(f.orders)

	require.NoError(t, f.users.Create(&models.User{ID: customerID, Username: "alice", Email: "alice@campus.edu", Password: "x", Role: models.RoleCustomer}))
	require.NoError(t, f.shops.Create(&models.Shop{ID: shopID, Name: "Mama's Kitchen", IsOpen: true}))
	require.NoError(t, f.shops.Create(&models.Shop{ID: otherShopID, Name: "Juice Bar", IsOpen: true}))

	seed := []struct {
		item  models.FoodItem
		stock int
	}{
		{models.FoodItem{ID: itemAID, ShopID: shopID, Name: "Chicken Adobo", Price: 50.0, Available: true}, 10},
		{models.FoodItem{ID: itemBID, ShopID: shopID, Name: "Iced Tea", Price: 25.0, Available: true}, 5},
		{models.FoodItem{ID: foreignID, ShopID: otherShopID, Name: "Mango Shake", Price: 40.0, Available: true}, 10},
	}
	for i := range seed {
		require.NoError(t, f.catalog.CreateFoodItem(&seed[i].item))
		require.NoError(t, f.catalog.UpsertInventory(&models.Inventory{
			FoodItemID:        seed[i].item.ID,
			QuantityAvailable: seed[i].stock,
		}))
	}
	return f
}

// service builds an OrderService over the fixture's stores with orders as
// the order repository, so tests can swap in wrapped implementations.
func (f *orderFixture) service(orders repositories.OrderRepository) *services.OrderService {
	return services.NewOrderService(orders, f.catalog, f.users, f.shops,
		repositories.NewMockTransactor(f.catalog, orders), nil)
}

func (f *orderFixture) stock(t *testing.T, foodItemID string) int {
	t.Helper()
	inv, err := f.catalog.GetInventory(foodItemID)
	require.NoError(t, err)
	return inv.QuantityAvailable
}

func cartRequest(lines ...services.OrderLineRequest) services.CreateOrderRequest {
	return services.CreateOrderRequest{
		ShopID:        shopID,
		Lines:         lines,
		PaymentMethod: models.PaymentCash,
	}
}

func TestCreateOrder_Success(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 100.0, order.TotalAmount)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 50.0, order.Lines[0].PriceAtOrder)
	require.NotNil(t, order.Payment)
	assert.Equal(t, models.PaymentPending, order.Payment.Status)
	assert.Equal(t, order.TotalAmount, order.Payment.Amount)
	assert.Equal(t, 8, f.stock(t, itemAID))

	// The persisted copy matches what was returned.
	stored, err := f.svc.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount, stored.TotalAmount)
	assert.NoError(t, stored.CheckTotal())
}

func TestCreateOrder_MultiLineTotal(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 2},
		services.OrderLineRequest{FoodItemID: itemBID, Quantity: 3},
	))
	require.NoError(t, err)

	assert.Equal(t, 2*50.0+3*25.0, order.TotalAmount)
	assert.NoError(t, order.CheckTotal())
	assert.Equal(t, 8, f.stock(t, itemAID))
	assert.Equal(t, 2, f.stock(t, itemBID))
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 11},
	))
	require.Error(t, err)

	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Chicken Adobo", stockErr.ItemName)
	assert.Equal(t, 11, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)

	// No deduction, no order, no payment.
	assert.Equal(t, 10, f.stock(t, itemAID))
	orders, err := f.orders.ListAll()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_MultiLineAtomicity(t *testing.T) {
	f := newOrderFixture(t)

	// Second line fails; the first line's reservation must be rolled back.
	_, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 2},
		services.OrderLineRequest{FoodItemID: itemBID, Quantity: 6},
	))
	require.Error(t, err)

	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Iced Tea", stockErr.ItemName)

	assert.Equal(t, 10, f.stock(t, itemAID))
	assert.Equal(t, 5, f.stock(t, itemBID))
	orders, err := f.orders.ListAll()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_CrossShopViolation(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: foreignID, Quantity: 1},
	))
	require.Error(t, err)

	var crossErr *models.CrossShopViolationError
	require.ErrorAs(t, err, &crossErr)
	assert.Equal(t, foreignID, crossErr.FoodItemID)
	assert.Equal(t, otherShopID, crossErr.ItemShopID)
	assert.Equal(t, shopID, crossErr.OrderShopID)
	assert.Equal(t, 10, f.stock(t, foreignID))
}

func TestCreateOrder_UnknownReferences(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder("nobody", cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 1},
	))
	assert.ErrorIs(t, err, models.ErrNotFound)

	req := cartRequest(services.OrderLineRequest{FoodItemID: itemAID, Quantity: 1})
	req.ShopID = "no-such-shop"
	_, err = f.svc.CreateOrder(customerID, req)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: "no-such-item", Quantity: 1},
	))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateOrder_ClosedShop(t *testing.T) {
	f := newOrderFixture(t)

	shop, err := f.shops.GetByID(shopID)
	require.NoError(t, err)
	shop.IsOpen = false
	require.NoError(t, f.shops.Update(shop))

	_, err = f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 1},
	))
	assert.ErrorIs(t, err, models.ErrShopClosed)
	assert.Equal(t, 10, f.stock(t, itemAID))
}

func TestCreateOrder_UnavailableItem(t *testing.T) {
	f := newOrderFixture(t)

	item, err := f.catalog.GetFoodItem(itemAID)
	require.NoError(t, err)
	item.Available = false
	require.NoError(t, f.catalog.UpdateFoodItem(item))

	_, err = f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 1},
	))
	assert.ErrorIs(t, err, models.ErrItemUnavailable)
	assert.Equal(t, 10, f.stock(t, itemAID))
}

func TestCreateOrder_PriceSnapshot(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 2},
	))
	require.NoError(t, err)

	// A later price change must not touch the recorded order.
	item, err := f.catalog.GetFoodItem(itemAID)
	require.NoError(t, err)
	item.Price = 75.0
	require.NoError(t, f.catalog.UpdateFoodItem(item))

	stored, err := f.svc.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stored.Lines[0].PriceAtOrder)
	assert.Equal(t, 100.0, stored.TotalAmount)
}

func TestTransitionOrder_AcceptThenComplete(t *testing.T) {
	f := newOrderFixture(t)
	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 2},
	))
	require.NoError(t, err)

	accepted, err := f.svc.TransitionOrder(order.ID, models.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, accepted.Status)
	assert.Equal(t, models.PaymentPending, accepted.Payment.Status)

	ready, err := f.svc.TransitionOrder(order.ID, models.ActionReady)
	require.NoError(t, err)
	assert.Equal(t, models.OrderReady, ready.Status)

	completed, err := f.svc.TransitionOrder(order.ID, models.ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, completed.Status)
	assert.Equal(t, models.PaymentCompleted, completed.Payment.Status)
	assert.NotNil(t, completed.Payment.PaidAt)

	// No restoration on the happy path.
	assert.Equal(t, 8, f.stock(t, itemAID))
}

func TestTransitionOrder_RejectCompensates(t *testing.T) {
	f := newOrderFixture(t)
	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 2},
		services.OrderLineRequest{FoodItemID: itemBID, Quantity: 3},
	))
	require.NoError(t, err)
	assert.Equal(t, 8, f.stock(t, itemAID))
	assert.Equal(t, 2, f.stock(t, itemBID))

	rejected, err := f.svc.TransitionOrder(order.ID, models.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRejected, rejected.Status)
	assert.Equal(t, models.PaymentRefunded, rejected.Payment.Status)

	// Deduct-then-restore nets to the original quantities.
	assert.Equal(t, 10, f.stock(t, itemAID))
	assert.Equal(t, 5, f.stock(t, itemBID))
}

func TestTransitionOrder_CancelCompensatesOnce(t *testing.T) {
	f := newOrderFixture(t)
	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 4},
	))
	require.NoError(t, err)
	assert.Equal(t, 6, f.stock(t, itemAID))

	cancelled, err := f.svc.TransitionOrder(order.ID, models.ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentRefunded, cancelled.Payment.Status)
	assert.Equal(t, 10, f.stock(t, itemAID))

	// A second cancel finds the order no longer PENDING; stock and payment
	// stay exactly as they are.
	_, err = f.svc.TransitionOrder(order.ID, models.ActionCancel)
	var transitionErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.OrderCancelled, transitionErr.From)
	assert.Equal(t, 10, f.stock(t, itemAID))

	stored, err := f.svc.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, stored.Payment.Status)
}

func TestTransitionOrder_TerminalStatesRefuseEverything(t *testing.T) {
	f := newOrderFixture(t)
	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 1},
	))
	require.NoError(t, err)
	_, err = f.svc.TransitionOrder(order.ID, models.ActionAccept)
	require.NoError(t, err)
	_, err = f.svc.TransitionOrder(order.ID, models.ActionComplete)
	require.NoError(t, err)

	for _, action := range []models.OrderAction{
		models.ActionAccept, models.ActionReject, models.ActionReady,
		models.ActionComplete, models.ActionCancel,
	} {
		_, err := f.svc.TransitionOrder(order.ID, action)
		var transitionErr *models.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr, "action %s must be refused on a completed order", action)
	}
	assert.Equal(t, 9, f.stock(t, itemAID))
}

func TestTransitionOrder_UnknownOrder(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.TransitionOrder("no-such-order", models.ActionAccept)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateSpecialInstructions(t *testing.T) {
	f := newOrderFixture(t)
	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 1},
	))
	require.NoError(t, err)

	updated, err := f.svc.UpdateSpecialInstructions(order.ID, "no onions please")
	require.NoError(t, err)
	assert.Equal(t, "no onions please", updated.SpecialInstructions)
	assert.Equal(t, models.OrderPending, updated.Status)

	// Once the vendor accepts, the edit window is closed.
	_, err = f.svc.TransitionOrder(order.ID, models.ActionAccept)
	require.NoError(t, err)

	_, err = f.svc.UpdateSpecialInstructions(order.ID, "extra rice")
	var transitionErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.OrderPreparing, transitionErr.From)

	stored, err := f.svc.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, "no onions please", stored.SpecialInstructions)
}

func TestCreateOrder_ConcurrentContention(t *testing.T) {
	f := newOrderFixture(t)

	// Two carts of 6 against a stock of 10: exactly one may win.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateOrder(customerID, cartRequest(
				services.OrderLineRequest{FoodItemID: itemAID, Quantity: 6},
			))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, stockFailures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var stockErr *models.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		stockFailures++
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, stockFailures)
	assert.Equal(t, 4, f.stock(t, itemAID))
}

// staleOrderRepo wraps the order repository and can serve one stale
// snapshot, standing in for a reader that loaded an order before a
// concurrent writer committed its transition.
type staleOrderRepo struct {
	repositories.OrderRepository
	mu    sync.Mutex
	stale *models.Order
}

func (r *staleOrderRepo) GetByID(id string) (*models.Order, error) {
	r.mu.Lock()
	if r.stale != nil && r.stale.ID == id {
		snapshot := r.stale
		r.stale = nil
		r.mu.Unlock()
		return snapshot, nil
	}
	r.mu.Unlock()
	return r.OrderRepository.GetByID(id)
}

func TestTransitionOrder_StaleReadCannotDoubleRestore(t *testing.T) {
	f := newOrderFixture(t)
	stale := &staleOrderRepo{OrderRepository: f.orders}
	svc := f.service(stale)

	order, err := svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 4},
	))
	require.NoError(t, err)
	assert.Equal(t, 6, f.stock(t, itemAID))

	snapshot, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)

	_, err = svc.TransitionOrder(order.ID, models.ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t, itemAID))

	// A reject that loaded the order while it was still PENDING passes the
	// in-memory gate but must lose at write time.
	stale.stale = snapshot
	_, err = svc.TransitionOrder(order.ID, models.ActionReject)

	var transitionErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.OrderCancelled, transitionErr.From)
	assert.Equal(t, models.ActionReject, transitionErr.Action)

	// Restoration happened exactly once.
	assert.Equal(t, 10, f.stock(t, itemAID))
	stored, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, stored.Status)
	assert.Equal(t, models.PaymentRefunded, stored.Payment.Status)
}

func TestTransitionOrder_ConcurrentTerminalActions(t *testing.T) {
	f := newOrderFixture(t)
	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 4},
	))
	require.NoError(t, err)
	assert.Equal(t, 6, f.stock(t, itemAID))

	// Customer cancel races vendor reject. Exactly one may win; the stock
	// must come back exactly once.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, action := range []models.OrderAction{models.ActionCancel, models.ActionReject} {
		wg.Add(1)
		go func(a models.OrderAction) {
			defer wg.Done()
			_, err := f.svc.TransitionOrder(order.ID, a)
			results <- err
		}(action)
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var transitionErr *models.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 10, f.stock(t, itemAID))

	stored, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.IsTerminal())
	assert.Equal(t, models.PaymentRefunded, stored.Payment.Status)
}

func TestTransitionOrder_RejectAfterItemRemoved(t *testing.T) {
	f := newOrderFixture(t)
	order, err := f.svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, 8, f.stock(t, itemAID))

	// The vendor takes the item off the menu while the order is pending.
	// The inventory record outlives the item, so the reject can still
	// return the reserved quantity.
	require.NoError(t, f.catalog.DeleteFoodItem(itemAID))

	rejected, err := f.svc.TransitionOrder(order.ID, models.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRejected, rejected.Status)
	assert.Equal(t, models.PaymentRefunded, rejected.Payment.Status)
	assert.Equal(t, 10, f.stock(t, itemAID))
}

// failingOrderRepo wraps the order repository and refuses every insert.
type failingOrderRepo struct {
	repositories.OrderRepository
}

func (r *failingOrderRepo) Create(order *models.Order) error {
	return fmt.Errorf("storage offline")
}

func TestCreateOrder_PersistFailureReleasesStock(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.service(&failingOrderRepo{OrderRepository: f.orders})

	_, err := svc.CreateOrder(customerID, cartRequest(
		services.OrderLineRequest{FoodItemID: itemAID, Quantity: 2},
		services.OrderLineRequest{FoodItemID: itemBID, Quantity: 1},
	))
	require.Error(t, err)

	// The reservations made before the failed insert are released.
	assert.Equal(t, 10, f.stock(t, itemAID))
	assert.Equal(t, 5, f.stock(t, itemBID))
	orders, err := f.orders.ListAll()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_ConcurrentNeverNegative(t *testing.T) {
	f := newOrderFixture(t)

	// 20 carts of 1 against a stock of 10: exactly 10 succeed and the
	// remaining stock is zero, never negative.
	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateOrder(customerID, cartRequest(
				services.OrderLineRequest{FoodItemID: itemAID, Quantity: 1},
			))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		}
	}

	assert.Equal(t, 10, successes)
	assert.Equal(t, 0, f.stock(t, itemAID))

	orders, err := f.orders.ListAll()
	require.NoError(t, err)
	assert.Len(t, orders, 10)
}
