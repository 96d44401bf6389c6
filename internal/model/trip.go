package model

import "time"

// TripStatus is the lifecycle state of a trip.
// Scheduled -> In Transit -> Completed, with Canceled reachable from any
// non-terminal state. Completed and Canceled are absorbing.
type TripStatus string

const (
	TripScheduled TripStatus = "Scheduled"
	TripInTransit TripStatus = "In Transit"
	TripCompleted TripStatus = "Completed"
	TripCanceled  TripStatus = "Canceled"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted || s == TripCanceled
}

// Trip is a scheduled haul binding a driver, truck, box and route for a
// time window. Scheduled dates define the booking window; actual dates are
// filled in by the start/complete transitions.
type Trip struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	ScheduledDeparture time.Time  `gorm:"index;not null" json:"scheduledDeparture"`
	ScheduledArrival   time.Time  `gorm:"index;not null" json:"scheduledArrival"`
	ActualDeparture    *time.Time `json:"actualDeparture"`
	ActualArrival      *time.Time `json:"actualArrival"`
	EstimatedDistance  float64    `json:"estimatedDistance"` // meters
	Status             TripStatus `gorm:"size:32;index;not null;default:Scheduled" json:"status"`

	DriverID    int64 `gorm:"index;not null" json:"driverId"`
	AdminID     int64 `gorm:"not null" json:"adminId"`
	TruckID     int64 `gorm:"index;not null" json:"truckId"`
	BoxID       int64 `gorm:"index;not null" json:"boxId"`
	RouteID     int64 `gorm:"index;not null" json:"routeId"`
	CargoTypeID int64 `gorm:"not null" json:"cargoTypeId"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations for the resolved-reference endpoints.
	Driver    *User      `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Admin     *User      `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Truck     *Truck     `json:"truck,omitempty"`
	Box       *Box       `json:"box,omitempty"`
	Route     *Route     `json:"route,omitempty"`
	CargoType *CargoType `json:"cargoType,omitempty"`

	Alerts []TripAlert `gorm:"foreignKey:TripID" json:"alerts,omitempty"`
}

// TrackingPoint is a GPS breadcrumb recorded while a trip is in transit.
type TrackingPoint struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	TripID     int64     `gorm:"index;not null" json:"tripId"`
	Lat        float64   `gorm:"not null" json:"lat"`
	Lng        float64   `gorm:"not null" json:"lng"`
	RecordedAt time.Time `gorm:"index;not null" json:"recordedAt"`
}
