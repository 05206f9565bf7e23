package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"quota-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageFor(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestHandleMessageRoutesBidAccepted(t *testing.T) {
	handler := NewEventHandler()

	var got *models.BidAcceptedEvent
	handler.OnBidAccepted(func(_ context.Context, event *models.BidAcceptedEvent) error {
		got = event
		return nil
	})

	event := &models.BidAcceptedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "event-1",
			EventType: models.EventTypeBidAccepted,
			Timestamp: time.Now(),
		},
		BidID:          "bid-1",
		QuotaID:        "quota-1",
		WinnerSellerID: "seller-1",
		LoserSellerIDs: []string{"seller-2"},
		ParticipantIDs: []string{"producer-1", "producer-2"},
		TotalPrice:     9500,
	}

	err := handler.HandleMessage(context.Background(), messageFor(t, event))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bid-1", got.BidID)
	assert.Equal(t, "seller-1", got.WinnerSellerID)
	assert.Equal(t, []string{"seller-2"}, got.LoserSellerIDs)
}

func TestHandleMessageRoutesChatMessageSent(t *testing.T) {
	handler := NewEventHandler()

	var got *models.ChatMessageSentEvent
	handler.OnChatMessageSent(func(_ context.Context, event *models.ChatMessageSentEvent) error {
		got = event
		return nil
	})

	event := &models.ChatMessageSentEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "event-2",
			EventType: models.EventTypeChatMessageSent,
			Timestamp: time.Now(),
		},
		MessageID:  "msg-1",
		QuotaID:    "quota-1",
		SenderID:   "producer-1",
		SenderName: "Maria",
		Content:    "entrega na sexta?",
	}

	err := handler.HandleMessage(context.Background(), messageFor(t, event))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "msg-1", got.MessageID)
	assert.Equal(t, "entrega na sexta?", got.Content)
}

func TestHandleMessageIgnoresUnregisteredAndUnknownTypes(t *testing.T) {
	handler := NewEventHandler()

	// Registered for chat only; other event types must be skipped cleanly.
	called := false
	handler.OnChatMessageSent(func(context.Context, *models.ChatMessageSentEvent) error {
		called = true
		return nil
	})

	bidEvent := &models.BidSubmittedEvent{
		BaseEvent: models.BaseEvent{EventID: "event-3", EventType: models.EventTypeBidSubmitted},
	}
	assert.NoError(t, handler.HandleMessage(context.Background(), messageFor(t, bidEvent)))

	unknown := kafka.Message{Value: []byte(`{"event_id":"event-4","event_type":"SOMETHING_ELSE"}`)}
	assert.NoError(t, handler.HandleMessage(context.Background(), unknown))
	assert.False(t, called)
}

func TestHandleMessageRejectsMalformedPayload(t *testing.T) {
	handler := NewEventHandler()
	err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}
