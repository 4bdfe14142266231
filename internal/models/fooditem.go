package models

import "gorm.io/gorm"

// FoodItem represents a menu item offered by a shop. Its price is the
// authoritative unit price used when orders are created; clients never
// submit prices.
type FoodItem struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ShopID      string  `json:"shop_id" gorm:"index;type:varchar(36)" validate:"required"`
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Available   bool    `json:"available" gorm:"default:true"` // Vendor can take an item off the menu without deleting it
	gorm.Model          // DeletedAt gives soft deletes; removed items stay referenced by old order lines
}
