package trips

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"coldfleet-backend/internal/db"
	"coldfleet-backend/internal/distance"
	"coldfleet-backend/internal/model"
	"coldfleet-backend/internal/store"
)

// newTestDB opens a uniquely named in-memory database so tests don't share
// state, pinned to a single connection to keep sqlite writes serialized.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.SeedAlertCatalog(gdb))
	return gdb
}

// fakeEstimator satisfies distance.Estimator without any network call.
type fakeEstimator struct {
	meters float64
	err    error
	calls  int
}

func (f *fakeEstimator) Estimate(ctx context.Context, origin, destination distance.Point) (float64, error) {
	f.calls++
	return f.meters, f.err
}

type fleet struct {
	driver, secondDriver, admin model.User
	truck                       model.Truck
	box                         model.Box
	route                       model.Route
	cargo                       model.CargoType
}

func seedFleet(t *testing.T, gdb *gorm.DB) fleet {
	t.Helper()
	f := fleet{
		driver:       model.User{Name: "Driver One", Email: "driver1@fleet.test", Role: model.RoleDriver, Status: model.UserAvailable},
		secondDriver: model.User{Name: "Driver Two", Email: "driver2@fleet.test", Role: model.RoleDriver, Status: model.UserAvailable},
		admin:        model.User{Name: "Dispatcher", Email: "admin@fleet.test", Role: model.RoleAdmin, Status: model.UserAvailable},
		truck:        model.Truck{Plate: "B-1234-XY", Status: model.EquipmentAvailable},
		box:          model.Box{Code: "BOX-01", Capacity: 12.5, Status: model.EquipmentAvailable},
		route: model.Route{
			Name:      "Jakarta - Bandung",
			OriginLat: -6.2, OriginLng: 106.8,
			DestinationLat: -6.9, DestinationLng: 107.6,
			MinTemp: -5, MaxTemp: 8, MinHum: 30, MaxHum: 80,
		},
		cargo: model.CargoType{Name: "Frozen Meat"},
	}
	require.NoError(t, gdb.Create(&f.driver).Error)
	require.NoError(t, gdb.Create(&f.secondDriver).Error)
	require.NoError(t, gdb.Create(&f.admin).Error)
	require.NoError(t, gdb.Create(&f.truck).Error)
	require.NoError(t, gdb.Create(&f.box).Error)
	require.NoError(t, gdb.Create(&f.route).Error)
	require.NoError(t, gdb.Create(&f.cargo).Error)
	return f
}

func (f fleet) createInput(departure, arrival time.Time) CreateInput {
	return CreateInput{
		ScheduledDeparture: departure,
		ScheduledArrival:   arrival,
		DriverID:           f.driver.ID,
		AdminID:            f.admin.ID,
		TruckID:            f.truck.ID,
		BoxID:              f.box.ID,
		RouteID:            f.route.ID,
		CargoTypeID:        f.cargo.ID,
	}
}

func at(hour int) time.Time {
	return time.Date(2025, 1, 1, hour, 0, 0, 0, time.UTC)
}

func TestCreateTrip(t *testing.T) {
	gdb := newTestDB(t)
	f := seedFleet(t, gdb)
	svc := NewService(store.NewGormStore(gdb), &fakeEstimator{meters: 150000})
	ctx := context.Background()

	t.Run("persists a scheduled trip with the estimated distance", func(t *testing.T) {
		trip, err := svc.Create(ctx, f.createInput(at(8), at(12)))
		require.NoError(t, err)
		assert.Equal(t, model.TripScheduled, trip.Status)
		assert.Equal(t, float64(150000), trip.EstimatedDistance)
		assert.Nil(t, trip.ActualDeparture)
	})

	t.Run("rejects an overlapping window on the driver", func(t *testing.T) {
		_, err := svc.Create(ctx, f.createInput(at(11), at(13)))
		var conflict *store.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, store.KindDriver, conflict.Kind)
		assert.Equal(t, f.driver.ID, conflict.ResourceID)
	})

	t.Run("rejects a shared truck even with a different driver", func(t *testing.T) {
		in := f.createInput(at(11), at(13))
		in.DriverID = f.secondDriver.ID
		_, err := svc.Create(ctx, in)
		var conflict *store.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, store.KindTruck, conflict.Kind)
	})

	t.Run("allows an abutting window", func(t *testing.T) {
		in := f.createInput(at(12), at(14))
		in.DriverID = f.secondDriver.ID
		_, err := svc.Create(ctx, in)
		// Truck, box and route abut the first trip exactly; arrival == departure
		// is not an overlap under strict inequality semantics.
		require.NoError(t, err)
	})

	t.Run("rejects arrival before departure", func(t *testing.T) {
		_, err := svc.Create(ctx, f.createInput(at(12), at(8)))
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("rejects a missing route", func(t *testing.T) {
		in := f.createInput(at(20), at(22))
		in.RouteID = 9999
		_, err := svc.Create(ctx, in)
		var notFound *store.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "route", notFound.Entity)
	})

	t.Run("a zero-length window never conflicts", func(t *testing.T) {
		s := store.NewGormStore(gdb)
		conflict, err := s.HasConflict(ctx, store.KindDriver, f.driver.ID, at(10), at(10), 0)
		require.NoError(t, err)
		assert.False(t, conflict, "an empty window inside a booking must not overlap")
	})

	t.Run("a conflicting request never reaches the distance provider", func(t *testing.T) {
		estimator := &fakeEstimator{meters: 1}
		conflicting := NewService(store.NewGormStore(gdb), estimator)

		_, err := conflicting.Create(ctx, f.createInput(at(9), at(11)))
		var conflict *store.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Zero(t, estimator.calls)
	})

	t.Run("does not persist a trip when distance lookup fails", func(t *testing.T) {
		lookupErr := &distance.LookupError{Primary: fmt.Errorf("provider down")}
		failing := NewService(store.NewGormStore(gdb), &fakeEstimator{err: lookupErr})

		in := f.createInput(at(20), at(22))
		in.DriverID = f.secondDriver.ID
		_, err := failing.Create(ctx, in)
		var lookup *distance.LookupError
		require.ErrorAs(t, err, &lookup)

		var count int64
		gdb.Model(&model.Trip{}).Where("scheduled_departure = ?", at(20)).Count(&count)
		assert.Equal(t, int64(0), count, "no trip should be persisted on lookup failure")
	})
}

func TestRescheduleTrip(t *testing.T) {
	gdb := newTestDB(t)
	f := seedFleet(t, gdb)
	svc := NewService(store.NewGormStore(gdb), &fakeEstimator{meters: 1000})
	ctx := context.Background()

	first, err := svc.Create(ctx, f.createInput(at(8), at(10)))
	require.NoError(t, err)
	second, err := svc.Create(ctx, f.createInput(at(12), at(14)))
	require.NoError(t, err)

	t.Run("moves a scheduled trip to a free window", func(t *testing.T) {
		newDep, newArr := at(10), at(12)
		updated, err := svc.Reschedule(ctx, second.ID, RescheduleInput{NewDeparture: &newDep, NewArrival: &newArr})
		require.NoError(t, err)
		assert.Equal(t, newDep, updated.ScheduledDeparture.UTC())
		assert.Equal(t, newArr, updated.ScheduledArrival.UTC())
	})

	t.Run("does not conflict against its own current window", func(t *testing.T) {
		newDep, newArr := at(10), at(13)
		_, err := svc.Reschedule(ctx, second.ID, RescheduleInput{NewDeparture: &newDep, NewArrival: &newArr})
		require.NoError(t, err)
	})

	t.Run("rejects a window overlapping another trip", func(t *testing.T) {
		newDep := at(9)
		_, err := svc.Reschedule(ctx, second.ID, RescheduleInput{NewDeparture: &newDep})
		var conflict *store.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("cancels via the reschedule surface", func(t *testing.T) {
		updated, err := svc.Reschedule(ctx, second.ID, RescheduleInput{Cancel: true})
		require.NoError(t, err)
		assert.Equal(t, model.TripCanceled, updated.Status)
	})

	t.Run("refuses any change to a terminal trip", func(t *testing.T) {
		newDep := at(15)
		_, err := svc.Reschedule(ctx, second.ID, RescheduleInput{NewDeparture: &newDep})
		var immutable *ImmutableTripError
		require.ErrorAs(t, err, &immutable)
	})

	t.Run("refuses rescheduling an in-transit trip", func(t *testing.T) {
		_, err := svc.Start(ctx, first.ID)
		require.NoError(t, err)

		newDep := at(15)
		_, err = svc.Reschedule(ctx, first.ID, RescheduleInput{NewDeparture: &newDep})
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestTripLifecycle(t *testing.T) {
	gdb := newTestDB(t)
	f := seedFleet(t, gdb)
	svc := NewService(store.NewGormStore(gdb), &fakeEstimator{meters: 1000})

	transitionTime := time.Date(2025, 1, 1, 8, 5, 0, 0, time.UTC)
	svc.now = func() time.Time { return transitionTime }
	ctx := context.Background()

	trip, err := svc.Create(ctx, f.createInput(at(8), at(12)))
	require.NoError(t, err)

	resourceStatuses := func() (model.UserStatus, model.EquipmentStatus, model.EquipmentStatus) {
		var driver model.User
		var truck model.Truck
		var box model.Box
		require.NoError(t, gdb.First(&driver, f.driver.ID).Error)
		require.NoError(t, gdb.First(&truck, f.truck.ID).Error)
		require.NoError(t, gdb.First(&box, f.box.ID).Error)
		return driver.Status, truck.Status, box.Status
	}

	alertNames := func() []string {
		var alerts []model.TripAlert
		require.NoError(t, gdb.Preload("AlertType").Where("trip_id = ?", trip.ID).Order("occurred_at").Find(&alerts).Error)
		names := make([]string, len(alerts))
		for i, a := range alerts {
			names[i] = a.AlertType.Name
		}
		return names
	}

	t.Run("complete before start is rejected", func(t *testing.T) {
		_, err := svc.Complete(ctx, trip.ID)
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, model.TripScheduled, invalid.From)
	})

	t.Run("start claims the resources", func(t *testing.T) {
		started, err := svc.Start(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TripInTransit, started.Status)
		require.NotNil(t, started.ActualDeparture)
		assert.Equal(t, transitionTime, started.ActualDeparture.UTC())

		driverStatus, truckStatus, boxStatus := resourceStatuses()
		assert.Equal(t, model.UserOnTrip, driverStatus)
		assert.Equal(t, model.EquipmentOnTrip, truckStatus)
		assert.Equal(t, model.EquipmentOnTrip, boxStatus)

		assert.Equal(t, []string{model.AlertRouteStarted}, alertNames())
	})

	t.Run("starting twice is rejected", func(t *testing.T) {
		_, err := svc.Start(ctx, trip.ID)
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("complete releases the resources", func(t *testing.T) {
		completed, err := svc.Complete(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TripCompleted, completed.Status)
		require.NotNil(t, completed.ActualArrival)

		driverStatus, truckStatus, boxStatus := resourceStatuses()
		assert.Equal(t, model.UserAvailable, driverStatus)
		assert.Equal(t, model.EquipmentAvailable, truckStatus)
		assert.Equal(t, model.EquipmentAvailable, boxStatus)

		assert.Equal(t, []string{model.AlertRouteStarted, model.AlertRouteEnded}, alertNames())
	})

	t.Run("terminal trips accept no further transitions", func(t *testing.T) {
		_, err := svc.Start(ctx, trip.ID)
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)

		_, err = svc.Cancel(ctx, trip.ID)
		require.ErrorAs(t, err, &invalid)
	})
}

func TestCancelTrip(t *testing.T) {
	gdb := newTestDB(t)
	f := seedFleet(t, gdb)
	svc := NewService(store.NewGormStore(gdb), &fakeEstimator{meters: 1000})
	ctx := context.Background()

	t.Run("cancel from scheduled", func(t *testing.T) {
		trip, err := svc.Create(ctx, f.createInput(at(8), at(10)))
		require.NoError(t, err)

		canceled, err := svc.Cancel(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TripCanceled, canceled.Status)
	})

	t.Run("cancel from in transit releases the resources", func(t *testing.T) {
		trip, err := svc.Create(ctx, f.createInput(at(10), at(12)))
		require.NoError(t, err)
		_, err = svc.Start(ctx, trip.ID)
		require.NoError(t, err)

		canceled, err := svc.Cancel(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TripCanceled, canceled.Status)

		var driver model.User
		require.NoError(t, gdb.First(&driver, f.driver.ID).Error)
		assert.Equal(t, model.UserAvailable, driver.Status)
	})

	t.Run("a canceled window can be rebooked", func(t *testing.T) {
		_, err := svc.Create(ctx, f.createInput(at(8), at(10)))
		require.NoError(t, err, "terminal trips never conflict")
	})
}

func TestPartialSideEffects(t *testing.T) {
	gdb := newTestDB(t)
	f := seedFleet(t, gdb)
	svc := NewService(store.NewGormStore(gdb), &fakeEstimator{meters: 1000})
	ctx := context.Background()

	trip, err := svc.Create(ctx, f.createInput(at(8), at(10)))
	require.NoError(t, err)

	// The driver disappears between scheduling and departure; the ledger
	// write for it must fail while the transition itself stands.
	require.NoError(t, gdb.Delete(&model.User{}, f.driver.ID).Error)

	started, err := svc.Start(ctx, trip.ID)
	var partial *PartialSideEffectError
	require.ErrorAs(t, err, &partial)
	assert.Len(t, partial.Failures, 1)
	assert.Equal(t, model.TripInTransit, started.Status, "the trip transition is authoritative")

	var truck model.Truck
	require.NoError(t, gdb.First(&truck, f.truck.ID).Error)
	assert.Equal(t, model.EquipmentOnTrip, truck.Status, "remaining ledger writes are still attempted")
}
