package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// notificationQueueKey is the redis list the worker consumes.
const notificationQueueKey = "notifications:queue"

// NotificationService fans ticket events out to the notification queue.
// With no redis client configured it degrades to logging only.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      *redis.Client
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue *redis.Client, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every ticket event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketPriorityChanged,
		events.EventTicketAssigned,
		events.EventTicketCommentAdded,
		events.EventTicketFeedbackSubmitted,
	} {
		n.dispatcher.Subscribe(eventType, n.enqueue)
	}
}

func (n *NotificationService) enqueue(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID))

	if n.queue == nil {
		return nil
	}
	encoded, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("encode notification", zap.Error(err))
		return err
	}
	if err := n.queue.LPush(ctx, notificationQueueKey, encoded).Err(); err != nil {
		n.logger.Error("enqueue notification", zap.Error(err))
		return err
	}
	return nil
}

// Deliver sends one dequeued event through the configured channels. Both
// channels are stubs that log what a real sender would do.
func (n *NotificationService) Deliver(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) != "" {
		n.logger.Debug("email notification",
			zap.String("from", n.cfg.EmailFrom),
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)))
	}
	if strings.TrimSpace(n.cfg.WebhookURL) != "" {
		n.logger.Debug("webhook notification",
			zap.String("url", n.cfg.WebhookURL),
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)))
	}
}
