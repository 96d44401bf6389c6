package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coldfleet-backend/internal/distance"
	"coldfleet-backend/internal/store"
	"coldfleet-backend/internal/trips"
)

// writeError maps the domain error taxonomy onto HTTP statuses. Anything
// unrecognized is reported as a generic internal error.
func writeError(c *gin.Context, err error) {
	var validation *trips.ValidationError
	var notFound *store.NotFoundError
	var conflict *store.ConflictError
	var invalidTransition *trips.InvalidTransitionError
	var immutable *trips.ImmutableTripError
	var lookup *distance.LookupError

	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"resource":   string(conflict.Kind),
			"resourceId": conflict.ResourceID,
		})
	case errors.As(err, &invalidTransition), errors.As(err, &immutable):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &lookup):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
