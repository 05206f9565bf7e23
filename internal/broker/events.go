package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"quota-service/internal/models"
	"quota-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func quotaKey(quotaID string) string {
	return fmt.Sprintf("quota-%s", quotaID)
}

// PublishQuotaCreated publishes QuotaCreated event
func (ep *EventPublisher) PublishQuotaCreated(ctx context.Context, event *models.QuotaCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, quotaKey(event.QuotaID), event)
}

// PublishQuotaCancelled publishes QuotaCancelled event
func (ep *EventPublisher) PublishQuotaCancelled(ctx context.Context, event *models.QuotaCancelledEvent) error {
	return ep.producer.PublishEvent(ctx, quotaKey(event.QuotaID), event)
}

// PublishParticipantRequested publishes ParticipantRequested event
func (ep *EventPublisher) PublishParticipantRequested(ctx context.Context, event *models.ParticipantRequestedEvent) error {
	return ep.producer.PublishEvent(ctx, quotaKey(event.QuotaID), event)
}

// PublishParticipantDecided publishes ParticipantDecided event
func (ep *EventPublisher) PublishParticipantDecided(ctx context.Context, event *models.ParticipantDecidedEvent) error {
	return ep.producer.PublishEvent(ctx, quotaKey(event.QuotaID), event)
}

// PublishBidSubmitted publishes BidSubmitted event
func (ep *EventPublisher) PublishBidSubmitted(ctx context.Context, event *models.BidSubmittedEvent) error {
	return ep.producer.PublishEvent(ctx, quotaKey(event.QuotaID), event)
}

// PublishBidAccepted publishes BidAccepted event
func (ep *EventPublisher) PublishBidAccepted(ctx context.Context, event *models.BidAcceptedEvent) error {
	return ep.producer.PublishEvent(ctx, quotaKey(event.QuotaID), event)
}

// PublishChatMessageSent publishes ChatMessageSent event
func (ep *EventPublisher) PublishChatMessageSent(ctx context.Context, event *models.ChatMessageSentEvent) error {
	return ep.producer.PublishEvent(ctx, quotaKey(event.QuotaID), event)
}

// EventHandler routes incoming domain events to registered callbacks
type EventHandler struct {
	onQuotaCancelled       func(context.Context, *models.QuotaCancelledEvent) error
	onParticipantRequested func(context.Context, *models.ParticipantRequestedEvent) error
	onParticipantDecided   func(context.Context, *models.ParticipantDecidedEvent) error
	onBidSubmitted         func(context.Context, *models.BidSubmittedEvent) error
	onBidAccepted          func(context.Context, *models.BidAcceptedEvent) error
	onChatMessageSent      func(context.Context, *models.ChatMessageSentEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnQuotaCancelled registers a handler for QuotaCancelled events
func (eh *EventHandler) OnQuotaCancelled(handler func(context.Context, *models.QuotaCancelledEvent) error) {
	eh.onQuotaCancelled = handler
}

// OnParticipantRequested registers a handler for ParticipantRequested events
func (eh *EventHandler) OnParticipantRequested(handler func(context.Context, *models.ParticipantRequestedEvent) error) {
	eh.onParticipantRequested = handler
}

// OnParticipantDecided registers a handler for ParticipantDecided events
func (eh *EventHandler) OnParticipantDecided(handler func(context.Context, *models.ParticipantDecidedEvent) error) {
	eh.onParticipantDecided = handler
}

// OnBidSubmitted registers a handler for BidSubmitted events
func (eh *EventHandler) OnBidSubmitted(handler func(context.Context, *models.BidSubmittedEvent) error) {
	eh.onBidSubmitted = handler
}

// OnBidAccepted registers a handler for BidAccepted events
func (eh *EventHandler) OnBidAccepted(handler func(context.Context, *models.BidAcceptedEvent) error) {
	eh.onBidAccepted = handler
}

// OnChatMessageSent registers a handler for ChatMessageSent events
func (eh *EventHandler) OnChatMessageSent(handler func(context.Context, *models.ChatMessageSentEvent) error) {
	eh.onChatMessageSent = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeQuotaCancelled:
		if eh.onQuotaCancelled != nil {
			var event models.QuotaCancelledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal QuotaCancelled event: %w", err)
			}
			return eh.onQuotaCancelled(ctx, &event)
		}

	case models.EventTypeParticipantRequested:
		if eh.onParticipantRequested != nil {
			var event models.ParticipantRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ParticipantRequested event: %w", err)
			}
			return eh.onParticipantRequested(ctx, &event)
		}

	case models.EventTypeParticipantDecided:
		if eh.onParticipantDecided != nil {
			var event models.ParticipantDecidedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ParticipantDecided event: %w", err)
			}
			return eh.onParticipantDecided(ctx, &event)
		}

	case models.EventTypeBidSubmitted:
		if eh.onBidSubmitted != nil {
			var event models.BidSubmittedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal BidSubmitted event: %w", err)
			}
			return eh.onBidSubmitted(ctx, &event)
		}

	case models.EventTypeBidAccepted:
		if eh.onBidAccepted != nil {
			var event models.BidAcceptedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal BidAccepted event: %w", err)
			}
			return eh.onBidAccepted(ctx, &event)
		}

	case models.EventTypeChatMessageSent:
		if eh.onChatMessageSent != nil {
			var event models.ChatMessageSentEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ChatMessageSent event: %w", err)
			}
			return eh.onChatMessageSent(ctx, &event)
		}

	default:
		util.GetLogger().Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
