package repositories

import (
	"gorm.io/gorm"
)

// GORMTransactor is a GORM implementation of Transactor.
type GORMTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a new instance of GORMTransactor.
func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{
		db: db,
	}
}

// WithinTransaction runs fn inside one database transaction, handing it
// catalog and order repositories bound to that transaction. Stock
// deductions and the order insert commit or roll back together.
func (t *GORMTransactor) WithinTransaction(fn func(repos Repositories) error) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		return fn(Repositories{
			Catalog: NewGORMCatalogRepository(tx),
			Orders:  NewGORMOrderRepository(tx),
		})
	})
}
