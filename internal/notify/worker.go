package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"coldfleet-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans trip-alert notifications out to subscribed operators.
// Jobs carry trip-alert ids appended by the telemetry evaluator.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notify worker %d started", id)
	for {
		select {
		case alertID := <-wp.jobs:
			wp.sendNotificationsForAlert(ctx, alertID)
		case <-ctx.Done():
			log.Printf("Notify worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a trip-alert id for notification.
func (wp *WorkerPool) Dispatch(alertID int64) {
	wp.jobs <- alertID
}

// sendNotificationsForAlert loads the alert occurrence and pushes it to
// every subscription watching the owning trip.
func (wp *WorkerPool) sendNotificationsForAlert(ctx context.Context, alertID int64) {
	var alert model.TripAlert
	if err := wp.db.WithContext(ctx).
		Preload("AlertType").
		First(&alert, alertID).Error; err != nil {
		log.Printf("Error loading trip alert %d: %v", alertID, err)
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_trip_mapping stm ON stm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("stm.trip_id = ?", alert.TripID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for trip %d: %v", alert.TripID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	label := alert.Description
	if alert.AlertType.Name != "" {
		label = alert.AlertType.Name
	}
	message := fmt.Sprintf("Trip %d: %s (%.1f°C, %.1f%% RH)",
		alert.TripID, label, alert.Temperature, alert.Humidity)

	log.Printf("Sending %d notifications for trip %d alert %d", len(subscriptions), alert.TripID, alertID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
