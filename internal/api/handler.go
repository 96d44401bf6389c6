package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"coldfleet-backend/internal/store"
	"coldfleet-backend/internal/telemetry"
	"coldfleet-backend/internal/trips"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	trips     *trips.Service
	telemetry *telemetry.Evaluator
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, tripSvc *trips.Service, evaluator *telemetry.Evaluator, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:     s,
		trips:     tripSvc,
		telemetry: evaluator,
		webpush:   webpushOptions,
	}
}
