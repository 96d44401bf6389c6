package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coldfleet-backend/internal/model"
	"coldfleet-backend/internal/telemetry"
)

// Pointers so that zero-degree/zero-humidity samples still bind.
type createReadingRequest struct {
	SensorID    int64    `json:"sensorId" binding:"required"`
	TripID      *int64   `json:"tripId"`
	Temperature *float64 `json:"temperature" binding:"required"`
	Humidity    *float64 `json:"humidity" binding:"required"`
}

// CreateReading handles POST /api/sensor_readings. A breaching reading
// bound to a trip cascades into an alert append on that trip.
func (h *Handler) CreateReading(c *gin.Context) {
	var req createReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reading, err := h.telemetry.RecordReading(c.Request.Context(), telemetry.ReadingInput{
		SensorID:    req.SensorID,
		TripID:      req.TripID,
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reading)
}

// ListReadings handles GET /api/sensor_readings, optionally filtered by
// sensor_id or trip_id query parameters.
func (h *Handler) ListReadings(c *gin.Context) {
	query := h.store.DB().Model(&model.SensorReading{}).Order("recorded_at")
	if sensorID := c.Query("sensor_id"); sensorID != "" {
		query = query.Where("sensor_id = ?", sensorID)
	}
	if tripID := c.Query("trip_id"); tripID != "" {
		query = query.Where("trip_id = ?", tripID)
	}

	var readings []model.SensorReading
	if err := query.Find(&readings).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve readings"})
		return
	}
	c.JSON(http.StatusOK, readings)
}

// GetHourlyAveragesToday handles GET /api/sensor_readings/averages/today.
func (h *Handler) GetHourlyAveragesToday(c *gin.Context) {
	averages, err := h.telemetry.HourlyAverages(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate readings"})
		return
	}
	c.JSON(http.StatusOK, averages)
}
