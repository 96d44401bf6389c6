package store

import "coldfleet-backend/internal/model"

// ResourceKind names an entity type that a trip claims exclusively for its
// scheduled window.
type ResourceKind string

const (
	KindDriver ResourceKind = "driver"
	KindTruck  ResourceKind = "truck"
	KindBox    ResourceKind = "box"
	KindRoute  ResourceKind = "route"
)

// ResourceKinds lists every kind a candidate trip must be checked against.
var ResourceKinds = []ResourceKind{KindDriver, KindTruck, KindBox, KindRoute}

// TripColumn returns the trips column holding the reference for this kind.
func (k ResourceKind) TripColumn() (string, bool) {
	switch k {
	case KindDriver:
		return "driver_id", true
	case KindTruck:
		return "truck_id", true
	case KindBox:
		return "box_id", true
	case KindRoute:
		return "route_id", true
	default:
		return "", false
	}
}

// ResourceID extracts the referenced resource id for this kind from a trip.
func (k ResourceKind) ResourceID(trip *model.Trip) int64 {
	switch k {
	case KindDriver:
		return trip.DriverID
	case KindTruck:
		return trip.TruckID
	case KindBox:
		return trip.BoxID
	case KindRoute:
		return trip.RouteID
	default:
		return 0
	}
}
