package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coldfleet-backend/internal/model"
	"coldfleet-backend/internal/trips"
)

func tripParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID"})
		return 0, false
	}
	return id, true
}

// ListTrips handles GET /api/trips: every trip, references unresolved.
func (h *Handler) ListTrips(c *gin.Context) {
	var list []model.Trip
	if err := h.store.DB().Order("scheduled_departure").Find(&list).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve trips"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func resolvedTripQuery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Driver").
		Preload("Admin").
		Preload("Truck").
		Preload("Box").
		Preload("Route").
		Preload("CargoType")
}

// ListTripsResolved handles GET /api/trips/specific.
func (h *Handler) ListTripsResolved(c *gin.Context) {
	var list []model.Trip
	if err := resolvedTripQuery(h.store.DB()).Order("scheduled_departure").Find(&list).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve trips"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetTripResolved handles GET /api/trips/specific/:id.
func (h *Handler) GetTripResolved(c *gin.Context) {
	id, ok := tripParam(c)
	if !ok {
		return
	}

	var trip model.Trip
	if err := resolvedTripQuery(h.store.DB()).First(&trip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve trip"})
		}
		return
	}
	c.JSON(http.StatusOK, trip)
}

type createTripRequest struct {
	ScheduledDeparture time.Time `json:"scheduledDeparture" binding:"required"`
	ScheduledArrival   time.Time `json:"scheduledArrival" binding:"required"`
	DriverID           int64     `json:"driverId" binding:"required"`
	AdminID            int64     `json:"adminId" binding:"required"`
	TruckID            int64     `json:"truckId" binding:"required"`
	BoxID              int64     `json:"boxId" binding:"required"`
	RouteID            int64     `json:"routeId" binding:"required"`
	CargoTypeID        int64     `json:"cargoTypeId" binding:"required"`
}

// CreateTrip handles POST /api/trips.
func (h *Handler) CreateTrip(c *gin.Context) {
	var req createTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.trips.Create(c.Request.Context(), trips.CreateInput{
		ScheduledDeparture: req.ScheduledDeparture,
		ScheduledArrival:   req.ScheduledArrival,
		DriverID:           req.DriverID,
		AdminID:            req.AdminID,
		TruckID:            req.TruckID,
		BoxID:              req.BoxID,
		RouteID:            req.RouteID,
		CargoTypeID:        req.CargoTypeID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

type updateTripRequest struct {
	ScheduledDeparture *time.Time `json:"scheduledDeparture"`
	ScheduledArrival   *time.Time `json:"scheduledArrival"`
	Cancel             bool       `json:"cancel"`
}

// UpdateTrip handles PUT /api/trips/:id: reschedule or request cancellation.
func (h *Handler) UpdateTrip(c *gin.Context) {
	id, ok := tripParam(c)
	if !ok {
		return
	}

	var req updateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.trips.Reschedule(c.Request.Context(), id, trips.RescheduleInput{
		NewDeparture: req.ScheduledDeparture,
		NewArrival:   req.ScheduledArrival,
		Cancel:       req.Cancel,
	})
	h.writeTransitionResult(c, trip, err)
}

// StartTrip handles POST /api/trips/:id/start.
func (h *Handler) StartTrip(c *gin.Context) {
	id, ok := tripParam(c)
	if !ok {
		return
	}
	trip, err := h.trips.Start(c.Request.Context(), id)
	h.writeTransitionResult(c, trip, err)
}

// CompleteTrip handles POST /api/trips/:id/complete.
func (h *Handler) CompleteTrip(c *gin.Context) {
	id, ok := tripParam(c)
	if !ok {
		return
	}
	trip, err := h.trips.Complete(c.Request.Context(), id)
	h.writeTransitionResult(c, trip, err)
}

// CancelTrip handles POST /api/trips/:id/cancel.
func (h *Handler) CancelTrip(c *gin.Context) {
	id, ok := tripParam(c)
	if !ok {
		return
	}
	trip, err := h.trips.Cancel(c.Request.Context(), id)
	h.writeTransitionResult(c, trip, err)
}

// writeTransitionResult renders a lifecycle result. A partial side-effect
// failure means the transition itself committed: the trip is returned with a
// warning instead of an error status.
func (h *Handler) writeTransitionResult(c *gin.Context, trip *model.Trip, err error) {
	if err != nil {
		var partial *trips.PartialSideEffectError
		if errors.As(err, &partial) {
			c.JSON(http.StatusOK, gin.H{"trip": trip, "warning": partial.Error()})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// GetTripAlerts handles GET /api/trips/:id/alerts.
func (h *Handler) GetTripAlerts(c *gin.Context) {
	id, ok := tripParam(c)
	if !ok {
		return
	}
	if _, err := h.store.GetTrip(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	var alerts []model.TripAlert
	if err := h.store.DB().
		Preload("AlertType").
		Where("trip_id = ?", id).
		Order("occurred_at").
		Find(&alerts).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// GetTripAlertsToday handles GET /api/trips/alerts/today.
func (h *Handler) GetTripAlertsToday(c *gin.Context) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var alerts []model.TripAlert
	if err := h.store.DB().
		Preload("AlertType").
		Where("occurred_at >= ? AND occurred_at < ?", dayStart, dayStart.Add(24*time.Hour)).
		Order("occurred_at").
		Find(&alerts).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// CountTripAlertsByType handles GET /api/trips/alerts/count/by-type.
func (h *Handler) CountTripAlertsByType(c *gin.Context) {
	type countRow struct {
		Name  string `json:"name"`
		Count int64  `json:"count"`
	}
	var rows []countRow
	if err := h.store.DB().
		Model(&model.TripAlert{}).
		Select("alert_types.name as name, COUNT(*) as count").
		Joins("JOIN alert_types ON alert_types.id = trip_alerts.alert_type_id").
		Group("alert_types.name").
		Scan(&rows).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate alerts"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// CountTripsByStatus handles GET /api/trips/count/by-status.
func (h *Handler) CountTripsByStatus(c *gin.Context) {
	type countRow struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var rows []countRow
	if err := h.store.DB().
		Model(&model.Trip{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate trips"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Pointers so that zero coordinates still satisfy the required binding.
type trackingPointRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// CreateTrackingPoint handles POST /api/trips/:id/tracking.
func (h *Handler) CreateTrackingPoint(c *gin.Context) {
	id, ok := tripParam(c)
	if !ok {
		return
	}

	var req trackingPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.store.GetTrip(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	point := model.TrackingPoint{
		TripID:     id,
		Lat:        *req.Lat,
		Lng:        *req.Lng,
		RecordedAt: time.Now().UTC(),
	}
	if err := h.store.DB().Create(&point).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to record tracking point"})
		return
	}
	c.JSON(http.StatusCreated, point)
}

// ListTrackingPoints handles GET /api/trips/:id/tracking.
func (h *Handler) ListTrackingPoints(c *gin.Context) {
	id, ok := tripParam(c)
	if !ok {
		return
	}
	if _, err := h.store.GetTrip(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	var points []model.TrackingPoint
	if err := h.store.DB().
		Where("trip_id = ?", id).
		Order("recorded_at").
		Find(&points).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tracking points"})
		return
	}
	c.JSON(http.StatusOK, points)
}
