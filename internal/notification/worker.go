package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-ledger-backend/internal/model"
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

// BookingConfirmation is the push payload delivered to a student's browsers.
type BookingConfirmation struct {
	Type            string `json:"type"`
	BookingID       string `json:"bookingId"`
	RoomID          string `json:"roomId"`
	RoomName        string `json:"roomName"`
	PaidFee         int64  `json:"paidFee"`
	SemesterPayment int64  `json:"semesterPayment"`
}

// WorkerPool delivers booking confirmations in the background.
type WorkerPool struct {
	size    int
	jobs    chan model.BookingRecord
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	logger  *zap.Logger
}

// NewWorkerPool creates a new worker pool with a queue of queueSize jobs.
func NewWorkerPool(size, queueSize int, db *gorm.DB, webpushOptions *webpush.Options, logger *zap.Logger) *WorkerPool {
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.BookingRecord, queueSize),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger.Named("notification"),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.logger.With(zap.Int("worker", id))
	log.Debug("worker started")
	for {
		select {
		case rec := <-wp.jobs:
			log.Debug("processing booking", zap.String("booking_id", rec.ID))
			wp.notifyBooking(ctx, rec)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// Dispatch queues a confirmation for a committed booking. It never blocks;
// when the queue is full the confirmation is dropped and false is returned.
func (wp *WorkerPool) Dispatch(rec model.BookingRecord) bool {
	select {
	case wp.jobs <- rec:
		return true
	default:
		wp.logger.Warn("notification queue full, dropping booking confirmation",
			zap.String("booking_id", rec.ID))
		return false
	}
}

// notifyBooking sends the confirmation to every subscription of the student.
func (wp *WorkerPool) notifyBooking(ctx context.Context, rec model.BookingRecord) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).
		Where("student_id = ?", rec.StudentID).
		Find(&subscriptions).Error; err != nil {
		wp.logger.Error("failed to fetch subscriptions",
			zap.String("student_id", rec.StudentID), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	roomName := rec.RoomID
	var room model.Room
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&room, "id = ?", rec.RoomID).Error; err != nil {
		wp.logger.Warn("failed to fetch room name", zap.String("room_id", rec.RoomID), zap.Error(err))
	} else if room.Name != "" {
		roomName = room.Name
	}

	payload, err := json.Marshal(BookingConfirmation{
		Type:            "booking_confirmed",
		BookingID:       rec.ID,
		RoomID:          rec.RoomID,
		RoomName:        roomName,
		PaidFee:         rec.PaidFee,
		SemesterPayment: rec.SemesterPayment,
	})
	if err != nil {
		wp.logger.Error("failed to encode payload", zap.Error(err))
		return
	}

	wp.logger.Info("sending booking confirmations",
		zap.String("booking_id", rec.ID), zap.Int("subscriptions", len(subscriptions)))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
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
		wp.logger.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.logger.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.logger.Error("failed to delete expired subscription",
				zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
