package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricPrefix = "coldfleet_"

var (
	// TripsCreated counts successfully persisted trips.
	TripsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "trips_created_total",
		Help: "Trips created",
	})

	// TripConflicts counts create/reschedule rejections by contested resource kind.
	TripConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "trip_conflicts_total",
		Help: "Trip operations rejected by a resource conflict",
	}, []string{"resource"})

	// TripTransitions counts lifecycle transitions (start, complete, cancel).
	TripTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "trip_transitions_total",
		Help: "Trip lifecycle transitions",
	}, []string{"transition"})

	// SensorReadings counts ingested telemetry samples.
	SensorReadings = promauto.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "sensor_readings_total",
		Help: "Sensor readings ingested",
	})

	// TripAlerts counts alert occurrences appended to trips by alert type.
	TripAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "trip_alerts_total",
		Help: "Alert occurrences appended to trips",
	}, []string{"type"})
)
