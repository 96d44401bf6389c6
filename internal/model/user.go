package model

import "time"

// UserStatus is the availability ledger entry for a driver or admin.
// It is mutated only by trip lifecycle transitions.
type UserStatus string

const (
	UserAvailable   UserStatus = "Available"
	UserOnTrip      UserStatus = "On Trip"
	UserUnavailable UserStatus = "Unavailable"
	UserDisabled    UserStatus = "Disabled"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleDriver = "driver"
)

// User represents a driver or an administrator.
type User struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:128;not null" json:"name"`
	Email     string     `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Phone     string     `gorm:"size:32" json:"phone"`
	Role      string     `gorm:"size:16;not null" json:"role"`
	PhotoURL  string     `gorm:"size:512" json:"photoUrl"`
	Status    UserStatus `gorm:"size:32;not null;default:Available" json:"status"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"not null" json:"updatedAt"`
}
