package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osworks/servicedesk-api/internal/models"
	"github.com/osworks/servicedesk-api/pkg/jobs"
)

// StatusEmail is the payload for one client notification about an
// order reaching an email-triggering status.
type StatusEmail struct {
	OrderID     string
	OrderNumber string
	ClientName  string
	ClientEmail string
	StatusName  string
	Body        string
}

// Notifier delivers status emails. The concrete transport lives behind
// this port; the workflow only decides WHEN a notification is due.
type Notifier interface {
	SendStatusEmail(ctx context.Context, email StatusEmail) error
}

type settingsReader interface {
	GetEmailSettings(ctx context.Context) (*models.EmailSettings, error)
}

// LogNotifier writes notifications to the structured log instead of an
// SMTP connection. It stands in wherever outbound mail is not wired.
type LogNotifier struct {
	settings settingsReader
	logger   *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(settings settingsReader, logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{settings: settings, logger: logger}
}

// SendStatusEmail logs the rendered notification together with the
// configured sender, if any.
func (n *LogNotifier) SendStatusEmail(ctx context.Context, email StatusEmail) error {
	sender := ""
	if n.settings != nil {
		if cfg, err := n.settings.GetEmailSettings(ctx); err == nil && cfg.SenderEmail != nil {
			sender = *cfg.SenderEmail
		}
	}
	n.logger.Info("status email dispatched",
		zap.String("orderId", email.OrderID),
		zap.String("orderNumber", email.OrderNumber),
		zap.String("to", email.ClientEmail),
		zap.String("from", sender),
		zap.String("status", email.StatusName),
	)
	return nil
}

// NotificationService dispatches status emails through a background
// queue so transitions never block on delivery.
type NotificationService struct {
	queue    *jobs.Queue
	notifier Notifier
	logger   *zap.Logger
	enabled  bool
}

// NotificationConfig tunes the dispatch queue.
type NotificationConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NewNotificationService constructs the service and its queue.
func NewNotificationService(notifier Notifier, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{notifier: notifier, logger: logger, enabled: cfg.Enabled}
	s.queue = jobs.NewQueue("status-emails", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start begins queue consumption.
func (s *NotificationService) Start(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	if !s.enabled {
		return
	}
	s.queue.Stop()
}

// NotifyStatusReached renders and enqueues the notification for an
// order that just reached an email-triggering status. Orders without a
// client email are skipped.
func (s *NotificationService) NotifyStatusReached(order *models.ServiceOrder, target models.Status) {
	if !s.enabled {
		return
	}
	if order.ClientSnapshot.Email == nil || *order.ClientSnapshot.Email == "" {
		s.logger.Debug("skipping status email, client has no address", zap.String("orderId", order.ID))
		return
	}

	body := ""
	if target.EmailBody != nil {
		body = renderEmailBody(*target.EmailBody, order, target)
	}

	email := StatusEmail{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ClientName:  order.ClientSnapshot.Name,
		ClientEmail: *order.ClientSnapshot.Email,
		StatusName:  target.Name,
		Body:        body,
	}

	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "status-email", Payload: email}); err != nil {
		s.logger.Warn("failed to enqueue status email", zap.String("orderId", order.ID), zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	email, ok := job.Payload.(StatusEmail)
	if !ok {
		s.logger.Error("unexpected payload type on status-email queue", zap.String("jobId", job.ID))
		return nil
	}
	return s.notifier.SendStatusEmail(ctx, email)
}

// renderEmailBody substitutes the template placeholders the admin
// screen documents: {clientName}, {orderNumber} and {statusName}.
func renderEmailBody(template string, order *models.ServiceOrder, target models.Status) string {
	replacer := strings.NewReplacer(
		"{clientName}", order.ClientSnapshot.Name,
		"{orderNumber}", order.OrderNumber,
		"{statusName}", target.Name,
	)
	return replacer.Replace(template)
}
