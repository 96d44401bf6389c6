package store

import (
	"fmt"
	"time"
)

// ConflictError reports that a resource is already claimed by another
// non-terminal trip whose window overlaps the requested one.
type ConflictError struct {
	Kind        ResourceKind
	ResourceID  int64
	WindowStart time.Time
	WindowEnd   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d is already booked by an overlapping trip in [%s, %s)",
		e.Kind, e.ResourceID,
		e.WindowStart.Format(time.RFC3339), e.WindowEnd.Format(time.RFC3339))
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}
