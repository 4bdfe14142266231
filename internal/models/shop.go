package models

import "gorm.io/gorm"

// Shop represents a canteen stall run by a vendor.
type Shop struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string `json:"name" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Location    string `json:"location" validate:"omitempty,max=200"`
	IsOpen      bool   `json:"is_open" gorm:"default:true"` // Closed shops accept no new orders
	gorm.Model
}
