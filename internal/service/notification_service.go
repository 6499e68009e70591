package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/pkg/jobs"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// Recipient is the resolved address of a notification.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// Sender delivers a rendered message over a single channel.
type Sender interface {
	Send(ctx context.Context, to Recipient, subject, body string) error
}

// NotificationService queues workflow notifications and delivers them in
// the background. Enqueue failures are logged and never surface to callers.
type NotificationService struct {
	users   userDirectory
	senders map[models.NotificationChannel]Sender
	metrics *MetricsService
	logger  *zap.Logger
	queue   *jobs.Queue[models.Notification]
	enabled bool
}

// NewNotificationService wires the delivery queue. A disabled service drops
// every notification with a debug log.
func NewNotificationService(users userDirectory, email, sms Sender, metrics *MetricsService, logger *zap.Logger, cfg jobs.QueueConfig, enabled bool) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{
		users: users,
		senders: map[models.NotificationChannel]Sender{
			models.ChannelEmail: email,
			models.ChannelSMS:   sms,
		},
		metrics: metrics,
		logger:  logger,
		enabled: enabled,
	}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue[models.Notification]("notifications", svc.deliver, cfg)
	svc.queue.OnDrop(svc.dropped)
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop delivers what is already queued, giving up when ctx ends.
func (s *NotificationService) Stop(ctx context.Context) {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Stop(ctx)
}

// Notify enqueues messages without waiting for delivery.
func (s *NotificationService) Notify(notifications ...models.Notification) {
	if s == nil {
		return
	}
	for _, n := range notifications {
		if !s.enabled {
			s.logger.Debug("notification dropped", zap.String("kind", string(n.Kind)), zap.String("user_id", n.UserID))
			continue
		}
		if err := s.queue.Enqueue(n); err != nil {
			s.logger.Warn("enqueue notification", zap.String("kind", string(n.Kind)), zap.Error(err))
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job[models.Notification]) error {
	n := job.Payload
	sender := s.senders[n.Channel]
	if sender == nil {
		s.logger.Warn("no sender for channel", zap.String("channel", string(n.Channel)))
		return nil
	}

	user, err := s.users.FindByID(ctx, n.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return jobs.Permanent(fmt.Errorf("resolve recipient %s: %w", n.UserID, err))
	}
	if err != nil {
		return fmt.Errorf("resolve recipient %s: %w", n.UserID, err)
	}
	to := Recipient{Name: user.FullName, Email: user.Email}
	if user.Phone != nil {
		to.Phone = *user.Phone
	}
	if (n.Channel == models.ChannelSMS && to.Phone == "") || (n.Channel == models.ChannelEmail && to.Email == "") {
		s.logger.Debug("recipient has no address for channel", zap.String("user_id", n.UserID), zap.String("channel", string(n.Channel)))
		return nil
	}

	if err := sender.Send(ctx, to, n.Subject, n.Body); err != nil {
		return err
	}
	s.metrics.RecordNotification(n.Channel, true)
	s.logger.Info("notification delivered",
		zap.String("kind", string(n.Kind)),
		zap.String("channel", string(n.Channel)),
		zap.String("user_id", n.UserID),
		zap.Int("attempt", job.Attempt+1),
	)
	return nil
}

func (s *NotificationService) dropped(job jobs.Job[models.Notification], err error) {
	n := job.Payload
	s.metrics.RecordNotification(n.Channel, false)
	s.logger.Warn("notification undeliverable",
		zap.String("kind", string(n.Kind)),
		zap.String("channel", string(n.Channel)),
		zap.String("user_id", n.UserID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err),
	)
}
