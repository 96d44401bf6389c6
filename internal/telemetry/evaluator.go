package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"coldfleet-backend/config"
	"coldfleet-backend/internal/metrics"
	"coldfleet-backend/internal/model"
	"coldfleet-backend/internal/store"
)

// Notifier receives the id of a freshly appended trip alert. The push
// worker pool implements it.
type Notifier interface {
	Dispatch(alertID int64)
}

// Evaluator ingests sensor readings and appends temperature-breach alerts
// to the owning trip. Thresholds are fixed sentinels from configuration;
// the route's own min/max bounds are stored but not consulted here.
type Evaluator struct {
	store    store.Store
	highTemp float64
	lowTemp  float64
	notifier Notifier
	now      func() time.Time
}

// NewEvaluator creates an evaluator. notifier may be nil when push
// notifications are not configured.
func NewEvaluator(s store.Store, cfg *config.AlertsConfig, notifier Notifier) *Evaluator {
	return &Evaluator{
		store:    s,
		highTemp: cfg.HighTempThreshold,
		lowTemp:  cfg.LowTempThreshold,
		notifier: notifier,
		now:      time.Now,
	}
}

// ReadingInput is a single telemetry sample to ingest.
type ReadingInput struct {
	SensorID    int64
	TripID      *int64
	Temperature float64
	Humidity    float64
}

// RecordReading persists the reading unconditionally, then evaluates the
// threshold rules when the reading belongs to a trip. Every breaching
// reading appends its own occurrence; there is no de-duplication.
func (e *Evaluator) RecordReading(ctx context.Context, in ReadingInput) (*model.SensorReading, error) {
	var sensor model.Sensor
	if err := e.store.DB().WithContext(ctx).First(&sensor, in.SensorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &store.NotFoundError{Entity: "sensor", ID: in.SensorID}
		}
		return nil, fmt.Errorf("failed to load sensor %d: %w", in.SensorID, err)
	}

	reading := &model.SensorReading{
		SensorID:    in.SensorID,
		TripID:      in.TripID,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		RecordedAt:  e.now().UTC(),
	}
	if err := e.store.DB().WithContext(ctx).Create(reading).Error; err != nil {
		return nil, fmt.Errorf("failed to persist reading: %w", err)
	}
	metrics.SensorReadings.Inc()

	if in.TripID != nil {
		e.evaluate(ctx, reading)
	}
	return reading, nil
}

// evaluate applies the threshold rules and appends an alert occurrence to
// the trip. The reading is already persisted; evaluation failures are
// logged, never surfaced to the ingesting caller.
func (e *Evaluator) evaluate(ctx context.Context, reading *model.SensorReading) {
	var typeName string
	switch {
	case reading.Temperature > e.highTemp:
		typeName = model.AlertHighTemperature
	case reading.Temperature < e.lowTemp:
		typeName = model.AlertLowTemperature
	default:
		return
	}

	tripID := *reading.TripID
	if _, err := e.store.GetTrip(ctx, tripID); err != nil {
		log.Printf("Warning: reading %d references trip %d which could not be loaded: %v", reading.ID, tripID, err)
		return
	}

	alertType, err := e.store.GetAlertType(ctx, typeName)
	if err != nil {
		log.Printf("Warning: could not resolve alert type %q: %v", typeName, err)
		return
	}

	alert := &model.TripAlert{
		TripID:      tripID,
		AlertTypeID: alertType.ID,
		Description: alertType.Description,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		OccurredAt:  e.now().UTC(),
	}
	if err := e.store.AppendTripAlert(ctx, alert); err != nil {
		log.Printf("Warning: could not append %q alert to trip %d: %v", typeName, tripID, err)
		return
	}
	metrics.TripAlerts.WithLabelValues(typeName).Inc()

	if e.notifier != nil {
		e.notifier.Dispatch(alert.ID)
	}
}

// HourlyAverage is the mean temperature and humidity for one hour of a day.
type HourlyAverage struct {
	Hour        int     `json:"hour"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// HourlyAverages buckets all readings of a UTC calendar day by hour of day.
// All 24 entries are always present; hours without readings report zero.
func (e *Evaluator) HourlyAverages(ctx context.Context, day time.Time) ([]HourlyAverage, error) {
	dayStart := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var readings []model.SensorReading
	if err := e.store.DB().WithContext(ctx).
		Where("recorded_at >= ? AND recorded_at < ?", dayStart, dayEnd).
		Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to load readings for %s: %w", dayStart.Format("2006-01-02"), err)
	}

	var tempSum, humSum [24]float64
	var counts [24]int64
	for _, r := range readings {
		hour := r.RecordedAt.UTC().Hour()
		tempSum[hour] += r.Temperature
		humSum[hour] += r.Humidity
		counts[hour]++
	}

	averages := make([]HourlyAverage, 24)
	for hour := 0; hour < 24; hour++ {
		averages[hour] = HourlyAverage{Hour: hour}
		if counts[hour] > 0 {
			averages[hour].Temperature = tempSum[hour] / float64(counts[hour])
			averages[hour].Humidity = humSum[hour] / float64(counts[hour])
		}
	}
	return averages, nil
}
