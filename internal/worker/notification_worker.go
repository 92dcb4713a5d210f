package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

const queueKey = "notifications:queue"

// NotificationWorker drains the redis notification queue and hands each
// event to the notification service for delivery.
type NotificationWorker struct {
	queue    *redis.Client
	notifier *service.NotificationService
	logger   *zap.Logger
}

// NewNotificationWorker creates a worker instance.
func NewNotificationWorker(queue *redis.Client, notifier *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{queue: queue, notifier: notifier, logger: logger}
}

// Start registers event handlers and, when a queue is configured, runs the
// consume loop until the context is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	if w.notifier == nil {
		return
	}
	w.notifier.RegisterHandlers()
	if w.queue == nil {
		return
	}
	go w.consume(ctx)
}

func (w *NotificationWorker) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := w.queue.BRPop(ctx, 5*time.Second, queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Warn("notification queue read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if len(result) != 2 {
			continue
		}

		var event events.Event
		if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
			w.logger.Warn("discarding malformed notification", zap.Error(err))
			continue
		}
		w.notifier.Deliver(ctx, event)
	}
}
