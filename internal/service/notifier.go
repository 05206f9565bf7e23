package service

import (
	"context"
	"encoding/json"
	"fmt"

	"quota-service/internal/models"
	"quota-service/internal/redisclient"
	"quota-service/internal/store"
	"quota-service/internal/util"

	"go.uber.org/zap"
)

// Notifier turns domain events into per-user notification rows and pushes
// them onto the realtime channels. Each event is applied at most once via
// the processed_events table.
type Notifier struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(store *store.Store, redis *redisclient.Client) *Notifier {
	return &Notifier{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// HandleQuotaCancelled tells every active participant their quota is gone
func (n *Notifier) HandleQuotaCancelled(ctx context.Context, event *models.QuotaCancelledEvent) error {
	ctx, span := util.StartSpan(ctx, "Notifier.HandleQuotaCancelled")
	defer span.End()

	return n.once(ctx, event.EventID, event.EventType, func() error {
		message := "The quota you joined was cancelled by its owner."
		if event.ProductName != "" {
			message = fmt.Sprintf("The %s quota you joined was cancelled by its owner.", event.ProductName)
		}
		for _, participantID := range event.ParticipantIDs {
			if participantID == event.ProducerID {
				continue
			}
			if err := n.notify(ctx, participantID, "Quota cancelled", message,
				"/quotas/"+event.QuotaID); err != nil {
				n.logger.Error("Failed to notify participant of cancellation",
					zap.String("user_id", participantID), zap.Error(err))
			}
		}
		return nil
	})
}

// HandleParticipantRequested notifies the quota owner of a new join request
func (n *Notifier) HandleParticipantRequested(ctx context.Context, event *models.ParticipantRequestedEvent) error {
	ctx, span := util.StartSpan(ctx, "Notifier.HandleParticipantRequested")
	defer span.End()

	return n.once(ctx, event.EventID, event.EventType, func() error {
		message := fmt.Sprintf("%s asked to join your quota with %.2f units", event.ProducerName, event.Quantity)
		if productName, err := n.store.GetQuotaProductName(ctx, event.QuotaID); err == nil {
			message = fmt.Sprintf("%s asked to join your %s quota with %.2f units",
				event.ProducerName, productName, event.Quantity)
		}
		return n.notify(ctx, event.OwnerID, "New join request", message, "/quotas/"+event.QuotaID)
	})
}

// HandleParticipantDecided notifies the requester of the owner's decision
func (n *Notifier) HandleParticipantDecided(ctx context.Context, event *models.ParticipantDecidedEvent) error {
	ctx, span := util.StartSpan(ctx, "Notifier.HandleParticipantDecided")
	defer span.End()

	return n.once(ctx, event.EventID, event.EventType, func() error {
		title := "Participation approved"
		message := "Your join request was approved. You now have access to the quota chat."
		if event.Decision == models.ParticipantStatusCancelled {
			title = "Participation rejected"
			message = "Your join request was rejected by the quota owner."
		}
		return n.notify(ctx, event.ProducerID, title, message, "/quotas/"+event.QuotaID)
	})
}

// HandleBidSubmitted notifies the quota owner of a new bid
func (n *Notifier) HandleBidSubmitted(ctx context.Context, event *models.BidSubmittedEvent) error {
	ctx, span := util.StartSpan(ctx, "Notifier.HandleBidSubmitted")
	defer span.End()

	return n.once(ctx, event.EventID, event.EventType, func() error {
		return n.notify(ctx, event.OwnerID, "New bid received",
			fmt.Sprintf("%s offered %.2f per unit (total %.2f)", event.SellerName, event.PricePerUnit, event.TotalPrice),
			"/quotas/"+event.QuotaID)
	})
}

// HandleBidAccepted fans out to the winner, the losing sellers and every
// active participant.
func (n *Notifier) HandleBidAccepted(ctx context.Context, event *models.BidAcceptedEvent) error {
	ctx, span := util.StartSpan(ctx, "Notifier.HandleBidAccepted")
	defer span.End()

	return n.once(ctx, event.EventID, event.EventType, func() error {
		link := "/quotas/" + event.QuotaID

		if err := n.notify(ctx, event.WinnerSellerID, "Bid accepted",
			fmt.Sprintf("Your bid was accepted for a total of %.2f. The quota is now closed.", event.TotalPrice),
			link); err != nil {
			return err
		}

		for _, sellerID := range event.LoserSellerIDs {
			if err := n.notify(ctx, sellerID, "Bid not selected",
				"The quota owner accepted another bid.", link); err != nil {
				n.logger.Error("Failed to notify losing bidder",
					zap.String("seller_id", sellerID), zap.Error(err))
			}
		}

		for _, participantID := range event.ParticipantIDs {
			if err := n.notify(ctx, participantID, "Quota closed",
				"A bid was accepted and your quota is now closed.", link); err != nil {
				n.logger.Error("Failed to notify participant",
					zap.String("user_id", participantID), zap.Error(err))
			}
		}
		return nil
	})
}

// HandleChatMessageSent relays a persisted message onto the quota's
// realtime channel. Receivers compare sender_id to suppress the echo of
// their own optimistic entry.
func (n *Notifier) HandleChatMessageSent(ctx context.Context, event *models.ChatMessageSentEvent) error {
	ctx, span := util.StartSpan(ctx, "Notifier.HandleChatMessageSent")
	defer span.End()

	return n.once(ctx, event.EventID, event.EventType, func() error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return n.redis.Publish(ctx, redisclient.ChatChannel(event.QuotaID), payload)
	})
}

// notify persists a notification and pushes it on the user's channel
func (n *Notifier) notify(ctx context.Context, userID, title, message, link string) error {
	notification := &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Link:    link,
	}
	if err := n.store.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	util.NotificationsCreatedTotal.Inc()

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	if err := n.redis.Publish(ctx, redisclient.NotifyChannel(userID), payload); err != nil {
		n.logger.Warn("Failed to push notification on realtime channel",
			zap.String("user_id", userID),
			zap.Error(err))
	}
	return nil
}

// once runs fn only if the event has not been processed yet
func (n *Notifier) once(ctx context.Context, eventID, eventType string, fn func() error) error {
	processed, err := n.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		n.logger.Info("Event already processed", zap.String("event_id", eventID))
		return nil
	}

	if err := fn(); err != nil {
		return err
	}

	if err := n.store.MarkEventProcessed(ctx, eventID, eventType); err != nil {
		n.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}
