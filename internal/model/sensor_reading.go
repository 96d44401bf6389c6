package model

import "time"

// SensorReading is a single telemetry sample. Created once, never updated.
type SensorReading struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	SensorID    int64     `gorm:"index;not null" json:"sensorId"`
	TripID      *int64    `gorm:"index" json:"tripId"`
	Temperature float64   `gorm:"not null" json:"temperature"`
	Humidity    float64   `gorm:"not null" json:"humidity"`
	RecordedAt  time.Time `gorm:"index;not null" json:"recordedAt"`
}
