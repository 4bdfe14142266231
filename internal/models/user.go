package models

import "gorm.io/gorm"

// Role determines what a user is allowed to do on the platform.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleVendor   Role = "VENDOR"
	RoleAdmin    Role = "ADMIN"
)

// User represents a user of the canteen platform: a customer placing orders,
// a vendor running a shop, or an admin.
type User struct {
	ID         string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username   string  `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string  `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string  `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role       Role    `json:"role" gorm:"type:varchar(20);default:CUSTOMER" validate:"omitempty,oneof=CUSTOMER VENDOR ADMIN"`
	ShopID     *string `json:"shop_id,omitempty" gorm:"type:varchar(36)"` // Set only for vendors
	gorm.Model         // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
