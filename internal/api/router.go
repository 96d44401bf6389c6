package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"coldfleet-backend/config"
	"coldfleet-backend/internal/model"
	"coldfleet-backend/internal/mw"
	"coldfleet-backend/internal/store"
	"coldfleet-backend/internal/telemetry"
	"coldfleet-backend/internal/trips"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, tripSvc *trips.Service, evaluator *telemetry.Evaluator, webpushOptions *webpush.Options, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(s, tripSvc, evaluator, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Trips and lifecycle
		api.GET("/trips", handler.ListTrips)
		api.GET("/trips/specific", handler.ListTripsResolved)
		api.GET("/trips/specific/:id", handler.GetTripResolved)
		api.POST("/trips", handler.CreateTrip)
		api.PUT("/trips/:id", handler.UpdateTrip)
		api.POST("/trips/:id/start", handler.StartTrip)
		api.POST("/trips/:id/complete", handler.CompleteTrip)
		api.POST("/trips/:id/cancel", handler.CancelTrip)

		// Trip alerts and aggregates
		api.GET("/trips/:id/alerts", handler.GetTripAlerts)
		api.GET("/trips/alerts/today", handler.GetTripAlertsToday)
		api.GET("/trips/alerts/count/by-type", handler.CountTripAlertsByType)
		api.GET("/trips/count/by-status", handler.CountTripsByStatus)

		// Tracking breadcrumbs
		api.POST("/trips/:id/tracking", handler.CreateTrackingPoint)
		api.GET("/trips/:id/tracking", handler.ListTrackingPoints)

		// Telemetry
		api.POST("/sensor_readings", handler.CreateReading)
		api.GET("/sensor_readings", handler.ListReadings)
		api.GET("/sensor_readings/averages/today", handler.GetHourlyAveragesToday)

		// Resource CRUD
		api.GET("/users", caching, ListResource[model.User](db))
		api.GET("/users/:id", GetResource[model.User](db, "user"))
		api.POST("/users", handler.CreateUser)
		api.PUT("/users/:id", handler.UpdateUser)

		api.GET("/trucks", caching, ListResource[model.Truck](db))
		api.GET("/trucks/:id", GetResource[model.Truck](db, "truck"))
		api.POST("/trucks", handler.CreateTruck)
		api.PUT("/trucks/:id", handler.UpdateTruck)

		api.GET("/boxes", caching, ListResource[model.Box](db))
		api.GET("/boxes/:id", GetResource[model.Box](db, "box"))
		api.POST("/boxes", handler.CreateBox)
		api.PUT("/boxes/:id", handler.UpdateBox)
		api.POST("/boxes/:id/sensor", handler.AssignSensor)
		api.GET("/boxes/:id/sensor", handler.GetActiveSensor)

		api.GET("/routes", caching, ListResource[model.Route](db))
		api.GET("/routes/:id", GetResource[model.Route](db, "route"))
		api.POST("/routes", handler.CreateRoute)

		api.GET("/cargo_types", caching, ListResource[model.CargoType](db))
		api.POST("/cargo_types", handler.CreateCargoType)

		api.GET("/sensors", caching, ListResource[model.Sensor](db))
		api.GET("/sensors/:id", GetResource[model.Sensor](db, "sensor"))
		api.POST("/sensors", handler.CreateSensor)
		api.PUT("/sensors/:id", handler.UpdateSensor)

		// Push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
