package trips

import (
	"fmt"
	"strings"

	"coldfleet-backend/internal/model"
)

// ValidationError reports malformed or missing input on a trip operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a lifecycle operation attempted from a
// state that disallows it.
type InvalidTransitionError struct {
	TripID int64
	From   model.TripStatus
	Op     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s trip %d while it is %s", e.Op, e.TripID, e.From)
}

// ImmutableTripError reports a mutation attempted on a completed or
// canceled trip.
type ImmutableTripError struct {
	TripID int64
	Status model.TripStatus
}

func (e *ImmutableTripError) Error() string {
	return fmt.Sprintf("trip %d is %s and can no longer be modified", e.TripID, e.Status)
}

// PartialSideEffectError reports that the trip's own status change committed
// but one or more availability-ledger writes failed. The transition stands;
// the ledger drift is reported for out-of-band reconciliation.
type PartialSideEffectError struct {
	TripID   int64
	Failures []error
}

func (e *PartialSideEffectError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("trip %d transitioned but %d availability update(s) failed: %s",
		e.TripID, len(e.Failures), strings.Join(msgs, "; "))
}
