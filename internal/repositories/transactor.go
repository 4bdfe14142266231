package repositories

// Repositories bundles the stores one atomic order operation may touch.
type Repositories struct {
	Catalog CatalogRepository
	Orders  OrderRepository
}

// Transactor runs a function against the catalog and order stores as one
// unit. The database implementation wraps fn in a single transaction, so a
// returned error rolls back every write fn made. The in-memory
// implementation cannot roll back; its individual store operations are
// atomic and callers compensate explicitly on failure (the compensating
// writes are harmless on the database path, where the rollback discards
// them along with everything else).
type Transactor interface {
	WithinTransaction(fn func(repos Repositories) error) error
}
