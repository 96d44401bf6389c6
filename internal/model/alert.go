package model

import "time"

// Alert catalog names. The catalog is seeded at startup and referenced by
// id from trip alert occurrences.
const (
	AlertCancellation    = "Cancellation"
	AlertRouteStarted    = "Route Started"
	AlertRouteEnded      = "Route Ended"
	AlertHighTemperature = "High Temperature"
	AlertLowTemperature  = "Low Temperature"
)

// AlertType is a catalog entry describing one kind of alert.
type AlertType struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string `gorm:"size:256" json:"description"`
}

// TripAlert is one alert occurrence on a trip. Occurrences live in their own
// append-only table keyed by trip rather than embedded in the trip record,
// so the log can grow and be indexed independently.
type TripAlert struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	TripID      int64     `gorm:"index;not null" json:"tripId"`
	AlertTypeID int64     `gorm:"index;not null" json:"alertTypeId"`
	Description string    `gorm:"size:256" json:"description"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	OccurredAt  time.Time `gorm:"index;not null" json:"occurredAt"`

	AlertType AlertType `json:"-"`
}
