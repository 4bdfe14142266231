package repositories

// MockTransactor is an in-memory implementation of Transactor. The mutex
// maps have no transaction to roll back, so fn runs against the shared
// stores directly and relies on their per-operation atomicity plus the
// caller's compensation logic.
type MockTransactor struct {
	catalog CatalogRepository
	orders  OrderRepository
}

// NewMockTransactor creates a new instance of MockTransactor.
func NewMockTransactor(catalog CatalogRepository, orders OrderRepository) *MockTransactor {
	return &MockTransactor{
		catalog: catalog,
		orders:  orders,
	}
}

// WithinTransaction invokes fn with the wrapped stores.
func (t *MockTransactor) WithinTransaction(fn func(repos Repositories) error) error {
	return fn(Repositories{
		Catalog: t.catalog,
		Orders:  t.orders,
	})
}
