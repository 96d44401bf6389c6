package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"coldfleet-backend/internal/model"
)

// Store defines the database operations the lifecycle and telemetry
// services depend on. Pass-through CRUD goes straight to DB().
type Store interface {
	DB() *gorm.DB

	GetTrip(ctx context.Context, id int64) (*model.Trip, error)
	GetRoute(ctx context.Context, id int64) (*model.Route, error)

	// HasConflict reports whether any non-terminal trip referencing the
	// resource overlaps [start, end). excludeTripID, when non-zero, leaves
	// that trip out of the scan (rescheduling against itself).
	HasConflict(ctx context.Context, kind ResourceKind, resourceID int64, start, end time.Time, excludeTripID int64) (bool, error)

	// CreateTripGuarded checks all four resource kinds and inserts the trip
	// in one serializable transaction. Returns *ConflictError on a contested
	// resource.
	CreateTripGuarded(ctx context.Context, trip *model.Trip) error

	// RescheduleTripGuarded re-checks all four resource kinds against the new
	// window, excluding the trip itself, and commits the date change in one
	// serializable transaction.
	RescheduleTripGuarded(ctx context.Context, trip *model.Trip, newStart, newEnd time.Time) error

	SaveTrip(ctx context.Context, trip *model.Trip) error
	SetResourceStatus(ctx context.Context, kind ResourceKind, resourceID int64, status string) error

	GetAlertType(ctx context.Context, name string) (*model.AlertType, error)
	AppendTripAlert(ctx context.Context, alert *model.TripAlert) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetTrip(ctx context.Context, id int64) (*model.Trip, error) {
	var trip model.Trip
	if err := s.db.WithContext(ctx).First(&trip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "trip", ID: id}
		}
		return nil, fmt.Errorf("failed to load trip %d: %w", id, err)
	}
	return &trip, nil
}

func (s *gormStore) GetRoute(ctx context.Context, id int64) (*model.Route, error) {
	var route model.Route
	if err := s.db.WithContext(ctx).First(&route, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "route", ID: id}
		}
		return nil, fmt.Errorf("failed to load route %d: %w", id, err)
	}
	return &route, nil
}

func (s *gormStore) HasConflict(ctx context.Context, kind ResourceKind, resourceID int64, start, end time.Time, excludeTripID int64) (bool, error) {
	return scanForConflict(s.db.WithContext(ctx), kind, resourceID, start, end, excludeTripID)
}

// scanForConflict is the single overlap query every resource kind shares.
// Strict inequalities make zero-length and abutting windows non-conflicting.
func scanForConflict(tx *gorm.DB, kind ResourceKind, resourceID int64, start, end time.Time, excludeTripID int64) (bool, error) {
	column, ok := kind.TripColumn()
	if !ok {
		return false, fmt.Errorf("unknown resource kind %q", kind)
	}

	// A zero-length window covers nothing and cannot overlap.
	if !end.After(start) {
		return false, nil
	}

	query := tx.Model(&model.Trip{}).
		Where(column+" = ?", resourceID).
		Where("status IN ?", []model.TripStatus{model.TripScheduled, model.TripInTransit}).
		Where("scheduled_departure < ? AND scheduled_arrival > ?", end, start)
	if excludeTripID != 0 {
		query = query.Where("id <> ?", excludeTripID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("conflict scan for %s %d failed: %w", kind, resourceID, err)
	}
	return count > 0, nil
}

// guardAllKinds runs the conflict scan for every resource kind bound to the
// trip. A conflict on any kind rejects the whole operation.
func guardAllKinds(tx *gorm.DB, trip *model.Trip, start, end time.Time, excludeTripID int64) error {
	for _, kind := range ResourceKinds {
		resourceID := kind.ResourceID(trip)
		conflict, err := scanForConflict(tx, kind, resourceID, start, end, excludeTripID)
		if err != nil {
			return err
		}
		if conflict {
			return &ConflictError{Kind: kind, ResourceID: resourceID, WindowStart: start, WindowEnd: end}
		}
	}
	return nil
}

// serializeAttempts bounds retries when a serializable transaction is
// aborted with a serialization failure.
const serializeAttempts = 3

var serializableOpts = &sql.TxOptions{Isolation: sql.LevelSerializable}

// serialized runs fn in a SERIALIZABLE transaction. Under the default READ
// COMMITTED isolation two racing guards could each scan before either insert
// becomes visible and both commit; serializable isolation makes Postgres
// abort one of them with SQLSTATE 40001, which is retried here.
func (s *gormStore) serialized(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < serializeAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn, serializableOpts)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func (s *gormStore) CreateTripGuarded(ctx context.Context, trip *model.Trip) error {
	return s.serialized(ctx, func(tx *gorm.DB) error {
		if err := guardAllKinds(tx, trip, trip.ScheduledDeparture, trip.ScheduledArrival, 0); err != nil {
			return err
		}
		return tx.Create(trip).Error
	})
}

func (s *gormStore) RescheduleTripGuarded(ctx context.Context, trip *model.Trip, newStart, newEnd time.Time) error {
	return s.serialized(ctx, func(tx *gorm.DB) error {
		if err := guardAllKinds(tx, trip, newStart, newEnd, trip.ID); err != nil {
			return err
		}
		trip.ScheduledDeparture = newStart
		trip.ScheduledArrival = newEnd
		return tx.Model(trip).
			Updates(map[string]any{
				"scheduled_departure": newStart,
				"scheduled_arrival":   newEnd,
			}).Error
	})
}

func (s *gormStore) SaveTrip(ctx context.Context, trip *model.Trip) error {
	return s.db.WithContext(ctx).Save(trip).Error
}

func (s *gormStore) SetResourceStatus(ctx context.Context, kind ResourceKind, resourceID int64, status string) error {
	var target *gorm.DB
	switch kind {
	case KindDriver:
		target = s.db.WithContext(ctx).Model(&model.User{})
	case KindTruck:
		target = s.db.WithContext(ctx).Model(&model.Truck{})
	case KindBox:
		target = s.db.WithContext(ctx).Model(&model.Box{})
	default:
		return fmt.Errorf("resource kind %q carries no availability status", kind)
	}

	result := target.Where("id = ?", resourceID).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to set %s %d status to %q: %w", kind, resourceID, status, result.Error)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Entity: string(kind), ID: resourceID}
	}
	return nil
}

func (s *gormStore) GetAlertType(ctx context.Context, name string) (*model.AlertType, error) {
	var alertType model.AlertType
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&alertType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("alert type %q is missing from the catalog", name)
		}
		return nil, fmt.Errorf("failed to load alert type %q: %w", name, err)
	}
	return &alertType, nil
}

func (s *gormStore) AppendTripAlert(ctx context.Context, alert *model.TripAlert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}
