package trips

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"coldfleet-backend/internal/distance"
	"coldfleet-backend/internal/metrics"
	"coldfleet-backend/internal/model"
	"coldfleet-backend/internal/store"
)

// Service drives trips through their lifecycle. It owns the availability
// ledger on users, trucks and boxes: those status fields change only in
// response to trip transitions, never through ordinary update endpoints.
type Service struct {
	store     store.Store
	estimator distance.Estimator
	now       func() time.Time
}

// NewService creates a lifecycle service.
func NewService(s store.Store, estimator distance.Estimator) *Service {
	return &Service{
		store:     s,
		estimator: estimator,
		now:       time.Now,
	}
}

// CreateInput is a candidate trip.
type CreateInput struct {
	ScheduledDeparture time.Time
	ScheduledArrival   time.Time
	DriverID           int64
	AdminID            int64
	TruckID            int64
	BoxID              int64
	RouteID            int64
	CargoTypeID        int64
}

func (in *CreateInput) validate() error {
	if !in.ScheduledArrival.After(in.ScheduledDeparture) {
		return &ValidationError{Field: "scheduledArrival", Reason: "must be after scheduledDeparture"}
	}
	required := map[string]int64{
		"driverId":    in.DriverID,
		"adminId":     in.AdminID,
		"truckId":     in.TruckID,
		"boxId":       in.BoxID,
		"routeId":     in.RouteID,
		"cargoTypeId": in.CargoTypeID,
	}
	for field, id := range required {
		if id <= 0 {
			return &ValidationError{Field: field, Reason: "required reference is missing"}
		}
	}
	return nil
}

// Create validates the candidate, checks every resource kind for an
// overlapping booking, resolves the route distance through the external
// estimator and persists the trip as Scheduled. The conflict check runs
// twice: a cheap pre-check before the provider round-trip, and the
// authoritative one inside the serializable insert transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Trip, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	trip := &model.Trip{
		ScheduledDeparture: in.ScheduledDeparture,
		ScheduledArrival:   in.ScheduledArrival,
		Status:             model.TripScheduled,
		DriverID:           in.DriverID,
		AdminID:            in.AdminID,
		TruckID:            in.TruckID,
		BoxID:              in.BoxID,
		RouteID:            in.RouteID,
		CargoTypeID:        in.CargoTypeID,
	}

	if err := s.precheckConflicts(ctx, trip); err != nil {
		return nil, noteConflict(err)
	}

	route, err := s.store.GetRoute(ctx, in.RouteID)
	if err != nil {
		return nil, err
	}

	meters, err := s.estimator.Estimate(ctx,
		distance.Point{Lat: route.OriginLat, Lng: route.OriginLng},
		distance.Point{Lat: route.DestinationLat, Lng: route.DestinationLng})
	if err != nil {
		return nil, err
	}
	trip.EstimatedDistance = meters

	if err := s.store.CreateTripGuarded(ctx, trip); err != nil {
		return nil, noteConflict(err)
	}

	metrics.TripsCreated.Inc()
	return trip, nil
}

// precheckConflicts scans every resource kind for the candidate's window.
// Rejecting here spares the routing provider a round-trip for requests
// that are doomed anyway.
func (s *Service) precheckConflicts(ctx context.Context, trip *model.Trip) error {
	for _, kind := range store.ResourceKinds {
		resourceID := kind.ResourceID(trip)
		conflict, err := s.store.HasConflict(ctx, kind, resourceID,
			trip.ScheduledDeparture, trip.ScheduledArrival, 0)
		if err != nil {
			return err
		}
		if conflict {
			return &store.ConflictError{
				Kind:        kind,
				ResourceID:  resourceID,
				WindowStart: trip.ScheduledDeparture,
				WindowEnd:   trip.ScheduledArrival,
			}
		}
	}
	return nil
}

// noteConflict counts conflict rejections before handing the error back.
func noteConflict(err error) error {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		metrics.TripConflicts.WithLabelValues(string(conflict.Kind)).Inc()
	}
	return err
}

// RescheduleInput carries a date change and/or a cancellation request.
type RescheduleInput struct {
	NewDeparture *time.Time
	NewArrival   *time.Time
	Cancel       bool
}

// Reschedule moves a Scheduled trip to a new window after re-checking all
// four resources against it, or cancels the trip when requested. Canceling
// needs no conflict re-check: freeing a resource cannot create new overlaps.
func (s *Service) Reschedule(ctx context.Context, tripID int64, in RescheduleInput) (*model.Trip, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status.Terminal() {
		return nil, &ImmutableTripError{TripID: trip.ID, Status: trip.Status}
	}

	if in.Cancel {
		return s.cancel(ctx, trip)
	}

	if trip.Status != model.TripScheduled {
		return nil, &InvalidTransitionError{TripID: trip.ID, From: trip.Status, Op: "reschedule"}
	}

	newStart := trip.ScheduledDeparture
	if in.NewDeparture != nil {
		newStart = *in.NewDeparture
	}
	newEnd := trip.ScheduledArrival
	if in.NewArrival != nil {
		newEnd = *in.NewArrival
	}
	if !newEnd.After(newStart) {
		return nil, &ValidationError{Field: "scheduledArrival", Reason: "must be after scheduledDeparture"}
	}

	if err := s.store.RescheduleTripGuarded(ctx, trip, newStart, newEnd); err != nil {
		return nil, noteConflict(err)
	}
	return trip, nil
}

// Start transitions a Scheduled trip to In Transit, stamps the actual
// departure and claims the driver, truck and box in the availability ledger.
// A returned *PartialSideEffectError means the transition itself committed.
func (s *Service) Start(ctx context.Context, tripID int64) (*model.Trip, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != model.TripScheduled {
		return nil, &InvalidTransitionError{TripID: trip.ID, From: trip.Status, Op: "start"}
	}

	now := s.now()
	trip.Status = model.TripInTransit
	trip.ActualDeparture = &now
	if err := s.store.SaveTrip(ctx, trip); err != nil {
		return nil, err
	}
	metrics.TripTransitions.WithLabelValues("start").Inc()

	s.appendLifecycleAlert(ctx, trip.ID, model.AlertRouteStarted)
	return trip, s.setAvailability(ctx, trip, model.UserOnTrip, model.EquipmentOnTrip)
}

// Complete transitions an In Transit trip to Completed, stamps the actual
// arrival and releases its resources back to Available.
func (s *Service) Complete(ctx context.Context, tripID int64) (*model.Trip, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != model.TripInTransit {
		return nil, &InvalidTransitionError{TripID: trip.ID, From: trip.Status, Op: "complete"}
	}

	now := s.now()
	trip.Status = model.TripCompleted
	trip.ActualArrival = &now
	if err := s.store.SaveTrip(ctx, trip); err != nil {
		return nil, err
	}
	metrics.TripTransitions.WithLabelValues("complete").Inc()

	s.appendLifecycleAlert(ctx, trip.ID, model.AlertRouteEnded)
	return trip, s.setAvailability(ctx, trip, model.UserAvailable, model.EquipmentAvailable)
}

// Cancel transitions a non-terminal trip to Canceled and releases its
// resources back to Available.
func (s *Service) Cancel(ctx context.Context, tripID int64) (*model.Trip, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status.Terminal() {
		return nil, &InvalidTransitionError{TripID: trip.ID, From: trip.Status, Op: "cancel"}
	}
	return s.cancel(ctx, trip)
}

func (s *Service) cancel(ctx context.Context, trip *model.Trip) (*model.Trip, error) {
	trip.Status = model.TripCanceled
	if err := s.store.SaveTrip(ctx, trip); err != nil {
		return nil, err
	}
	metrics.TripTransitions.WithLabelValues("cancel").Inc()

	s.appendLifecycleAlert(ctx, trip.ID, model.AlertCancellation)
	return trip, s.setAvailability(ctx, trip, model.UserAvailable, model.EquipmentAvailable)
}

// setAvailability dispatches the three ledger writes concurrently. The
// writes share no transaction with the trip's own status change; failures
// are collected and reported, never rolled back.
func (s *Service) setAvailability(ctx context.Context, trip *model.Trip, driverStatus model.UserStatus, equipmentStatus model.EquipmentStatus) error {
	writes := []struct {
		kind       store.ResourceKind
		resourceID int64
		status     string
	}{
		{store.KindDriver, trip.DriverID, string(driverStatus)},
		{store.KindTruck, trip.TruckID, string(equipmentStatus)},
		{store.KindBox, trip.BoxID, string(equipmentStatus)},
	}

	errs := make([]error, len(writes))
	var wg sync.WaitGroup
	for i, w := range writes {
		i, w := i, w
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.store.SetResourceStatus(ctx, w.kind, w.resourceID, w.status)
		}()
	}
	wg.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return &PartialSideEffectError{TripID: trip.ID, Failures: failures}
	}
	return nil
}

// appendLifecycleAlert records a catalog alert (Route Started, Route Ended,
// Cancellation) on the trip's alert log. Lifecycle alerts are informational;
// a failed append is logged, not surfaced.
func (s *Service) appendLifecycleAlert(ctx context.Context, tripID int64, typeName string) {
	alertType, err := s.store.GetAlertType(ctx, typeName)
	if err != nil {
		log.Printf("Warning: could not resolve alert type %q for trip %d: %v", typeName, tripID, err)
		return
	}

	alert := &model.TripAlert{
		TripID:      tripID,
		AlertTypeID: alertType.ID,
		Description: alertType.Description,
		OccurredAt:  s.now(),
	}
	if err := s.store.AppendTripAlert(ctx, alert); err != nil {
		log.Printf("Warning: could not append %q alert to trip %d: %v", typeName, tripID, err)
		return
	}
	metrics.TripAlerts.WithLabelValues(typeName).Inc()
}
