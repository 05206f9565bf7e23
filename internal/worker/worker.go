package worker

import (
	"context"

	"quota-service/internal/broker"
	"quota-service/internal/service"
	"quota-service/internal/util"
)

// NotificationWorker consumes domain events and drives the notification
// fan-out. It is the only writer of notification rows, so the request path
// never blocks on fan-out.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, notifier *service.Notifier) *NotificationWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnQuotaCancelled(notifier.HandleQuotaCancelled)
	eventHandler.OnParticipantRequested(notifier.HandleParticipantRequested)
	eventHandler.OnParticipantDecided(notifier.HandleParticipantDecided)
	eventHandler.OnBidSubmitted(notifier.HandleBidSubmitted)
	eventHandler.OnBidAccepted(notifier.HandleBidAccepted)
	eventHandler.OnChatMessageSent(notifier.HandleChatMessageSent)

	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	util.GetLogger().Info("Stopping notification worker")
	return w.consumer.Close()
}
