package models

import "gorm.io/gorm"

// Inventory tracks the available stock for one food item. Exactly one
// record exists per food item. ShopID is denormalized from the food item
// for efficient per-shop stock queries; every write must keep the two in
// agreement (see ShopMismatchError).
type Inventory struct {
	ID                string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ShopID            string `json:"shop_id" gorm:"index;type:varchar(36)" validate:"required"`
	FoodItemID        string `json:"food_item_id" gorm:"uniqueIndex;type:varchar(36)" validate:"required"`
	QuantityAvailable int    `json:"quantity_available" validate:"gte=0"`
	gorm.Model
}
