package model

import "time"

// EquipmentStatus is the availability ledger entry for trucks and boxes.
type EquipmentStatus string

const (
	EquipmentAvailable        EquipmentStatus = "Available"
	EquipmentOnTrip           EquipmentStatus = "On Trip"
	EquipmentUnderMaintenance EquipmentStatus = "Under Maintenance"
	EquipmentInactive         EquipmentStatus = "Inactive"
)

// Truck represents a refrigerated tractor unit.
type Truck struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	Plate     string          `gorm:"uniqueIndex;size:32;not null" json:"plate"`
	Brand     string          `gorm:"size:64" json:"brand"`
	Model     string          `gorm:"size:64" json:"model"`
	Year      int             `json:"year"`
	PhotoURL  string          `gorm:"size:512" json:"photoUrl"`
	Status    EquipmentStatus `gorm:"size:32;not null;default:Available" json:"status"`
	CreatedAt time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"not null" json:"updatedAt"`
}
