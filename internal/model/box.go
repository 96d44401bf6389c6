package model

import "time"

// Box represents a refrigerated cargo box that sensors get mounted into.
type Box struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Capacity  float64         `json:"capacity"`
	PhotoURL  string          `gorm:"size:512" json:"photoUrl"`
	Status    EquipmentStatus `gorm:"size:32;not null;default:Available" json:"status"`
	CreatedAt time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"not null" json:"updatedAt"`
}
