package model

import "time"

// Route is a fixed origin/destination pair with the cargo operating bounds
// that apply while driving it. Routes are immutable after creation.
type Route struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	OriginLat      float64   `gorm:"not null" json:"originLat"`
	OriginLng      float64   `gorm:"not null" json:"originLng"`
	DestinationLat float64   `gorm:"not null" json:"destinationLat"`
	DestinationLng float64   `gorm:"not null" json:"destinationLng"`
	MinTemp        float64   `json:"minTemp"`
	MaxTemp        float64   `json:"maxTemp"`
	MinHum         float64   `json:"minHum"`
	MaxHum         float64   `json:"maxHum"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"not null" json:"updatedAt"`
}
