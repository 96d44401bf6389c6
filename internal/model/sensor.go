package model

import "time"

// SensorType tells which measurements a sensor produces.
type SensorType string

const (
	SensorTemperature SensorType = "Temperature"
	SensorHumidity    SensorType = "Humidity"
	SensorTempHum     SensorType = "Temp&Hum"
)

// SensorStatus is the service state of a sensor.
type SensorStatus string

const (
	SensorActive       SensorStatus = "Active"
	SensorOutOfService SensorStatus = "Out of Service"
)

// Sensor is an IoT device mounted into cargo boxes.
type Sensor struct {
	ID        int64        `gorm:"primaryKey" json:"id"`
	Code      string       `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Type      SensorType   `gorm:"size:32;not null" json:"type"`
	Status    SensorStatus `gorm:"size:32;not null;default:Active" json:"status"`
	CreatedAt time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"not null" json:"updatedAt"`
}

// SensorAssignment links a sensor to a box for an open-ended interval.
// A null DateEnd marks the currently active assignment; the assignment
// workflow closes the open interval before creating a new one, so at most
// one open assignment exists per box.
type SensorAssignment struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	SensorID  int64      `gorm:"index;not null" json:"sensorId"`
	BoxID     int64      `gorm:"index;not null" json:"boxId"`
	DateStart time.Time  `gorm:"not null" json:"dateStart"`
	DateEnd   *time.Time `json:"dateEnd"`

	Sensor Sensor `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Box    Box    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
