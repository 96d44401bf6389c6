package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coldfleet-backend/internal/model"
)

// ListResource returns every record of the entity, unfiltered.
func ListResource[T any](db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var items []T
		if err := db.Find(&items).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve records"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GetResource returns one record by numeric id.
func GetResource[T any](db *gorm.DB, entity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + entity + " ID"})
			return
		}

		var item T
		if err := db.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve " + entity})
			}
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func bindAndCreate[T any](c *gin.Context, db *gorm.DB, item *T) {
	if err := c.ShouldBindJSON(item); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := db.Create(item).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create record"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(c *gin.Context) {
	var user model.User
	bindAndCreate(c, h.store.DB(), &user)
}

// CreateTruck handles POST /api/trucks.
func (h *Handler) CreateTruck(c *gin.Context) {
	var truck model.Truck
	bindAndCreate(c, h.store.DB(), &truck)
}

// CreateBox handles POST /api/boxes.
func (h *Handler) CreateBox(c *gin.Context) {
	var box model.Box
	bindAndCreate(c, h.store.DB(), &box)
}

// CreateRoute handles POST /api/routes. Routes are immutable afterwards.
func (h *Handler) CreateRoute(c *gin.Context) {
	var route model.Route
	bindAndCreate(c, h.store.DB(), &route)
}

// CreateCargoType handles POST /api/cargo_types.
func (h *Handler) CreateCargoType(c *gin.Context) {
	var cargoType model.CargoType
	bindAndCreate(c, h.store.DB(), &cargoType)
}

// CreateSensor handles POST /api/sensors.
func (h *Handler) CreateSensor(c *gin.Context) {
	var sensor model.Sensor
	bindAndCreate(c, h.store.DB(), &sensor)
}

// updateResource applies a partial update. The availability ledger belongs
// to the trip lifecycle: administrative edits may park or re-enable a
// resource but may never claim it for a trip.
func updateResource(c *gin.Context, db *gorm.DB, table any, entity string, updates map[string]any) {
	if len(updates) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + entity + " ID"})
		return
	}

	if status, ok := updates["status"]; ok {
		if status == string(model.UserOnTrip) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "status 'On Trip' is set by trip transitions only"})
			return
		}
	}

	result := db.Model(table).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update " + entity})
		return
	}
	if result.RowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	PhotoURL *string `json:"photoUrl"`
	Status   *string `json:"status"`
}

// UpdateUser handles PUT /api/users/:id.
func (h *Handler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	setIf(updates, "name", req.Name)
	setIf(updates, "email", req.Email)
	setIf(updates, "phone", req.Phone)
	setIf(updates, "role", req.Role)
	setIf(updates, "photo_url", req.PhotoURL)
	setIf(updates, "status", req.Status)
	updateResource(c, h.store.DB(), &model.User{}, "user", updates)
}

type updateTruckRequest struct {
	Plate    *string `json:"plate"`
	Brand    *string `json:"brand"`
	Model    *string `json:"model"`
	Year     *int    `json:"year"`
	PhotoURL *string `json:"photoUrl"`
	Status   *string `json:"status"`
}

// UpdateTruck handles PUT /api/trucks/:id.
func (h *Handler) UpdateTruck(c *gin.Context) {
	var req updateTruckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	setIf(updates, "plate", req.Plate)
	setIf(updates, "brand", req.Brand)
	setIf(updates, "model", req.Model)
	setIf(updates, "year", req.Year)
	setIf(updates, "photo_url", req.PhotoURL)
	setIf(updates, "status", req.Status)
	updateResource(c, h.store.DB(), &model.Truck{}, "truck", updates)
}

type updateBoxRequest struct {
	Code     *string  `json:"code"`
	Capacity *float64 `json:"capacity"`
	PhotoURL *string  `json:"photoUrl"`
	Status   *string  `json:"status"`
}

// UpdateBox handles PUT /api/boxes/:id.
func (h *Handler) UpdateBox(c *gin.Context) {
	var req updateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	setIf(updates, "code", req.Code)
	setIf(updates, "capacity", req.Capacity)
	setIf(updates, "photo_url", req.PhotoURL)
	setIf(updates, "status", req.Status)
	updateResource(c, h.store.DB(), &model.Box{}, "box", updates)
}

type updateSensorRequest struct {
	Code   *string `json:"code"`
	Type   *string `json:"type"`
	Status *string `json:"status"`
}

// UpdateSensor handles PUT /api/sensors/:id.
func (h *Handler) UpdateSensor(c *gin.Context) {
	var req updateSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	setIf(updates, "code", req.Code)
	setIf(updates, "type", req.Type)
	setIf(updates, "status", req.Status)
	updateResource(c, h.store.DB(), &model.Sensor{}, "sensor", updates)
}

func setIf[T any](updates map[string]any, column string, value *T) {
	if value != nil {
		updates[column] = *value
	}
}

type assignSensorRequest struct {
	SensorID int64 `json:"sensorId" binding:"required"`
}

// AssignSensor handles POST /api/boxes/:id/sensor. Any open assignment on
// the box is closed first, so a box never carries two active sensors.
func (h *Handler) AssignSensor(c *gin.Context) {
	boxID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid box ID"})
		return
	}

	var req assignSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	assignment := model.SensorAssignment{
		SensorID:  req.SensorID,
		BoxID:     boxID,
		DateStart: now,
	}

	err = h.store.DB().Transaction(func(tx *gorm.DB) error {
		var box model.Box
		if err := tx.First(&box, boxID).Error; err != nil {
			return err
		}
		var sensor model.Sensor
		if err := tx.First(&sensor, req.SensorID).Error; err != nil {
			return err
		}

		// Close the currently active assignment, if any.
		if err := tx.Model(&model.SensorAssignment{}).
			Where("box_id = ? AND date_end IS NULL", boxID).
			Update("date_end", now).Error; err != nil {
			return err
		}
		return tx.Create(&assignment).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "box or sensor not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign sensor"})
		}
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// GetActiveSensor handles GET /api/boxes/:id/sensor.
func (h *Handler) GetActiveSensor(c *gin.Context) {
	boxID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid box ID"})
		return
	}

	var assignment model.SensorAssignment
	if err := h.store.DB().
		Preload("Sensor").
		Where("box_id = ? AND date_end IS NULL", boxID).
		First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no active sensor assignment"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assignment"})
		}
		return
	}
	c.JSON(http.StatusOK, assignment)
}
