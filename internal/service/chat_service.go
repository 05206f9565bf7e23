package service

import (
	"context"
	"strings"
	"time"

	"quota-service/internal/broker"
	"quota-service/internal/models"
	"quota-service/internal/store"
	"quota-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatService handles the per-quota chat stream and user notifications.
// Visibility of both directions is gated on quota participation.
type ChatService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	historyLimit   int
	logger         *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(store *store.Store, eventPublisher *broker.EventPublisher, historyLimit int) *ChatService {
	if historyLimit <= 0 {
		historyLimit = 200
	}
	return &ChatService{
		store:          store,
		eventPublisher: eventPublisher,
		historyLimit:   historyLimit,
		logger:         util.GetLogger(),
	}
}

// CanAccess reports whether a user may see a quota's chat
func (s *ChatService) CanAccess(ctx context.Context, quotaID, userID string) (bool, error) {
	return s.store.IsQuotaParticipant(ctx, quotaID, userID)
}

// History returns the chat history for a participant or the owner.
// Non-participants get FORBIDDEN and never see message content.
func (s *ChatService) History(ctx context.Context, quotaID, userID string) ([]models.ChatMessageDetail, error) {
	allowed, err := s.store.IsQuotaParticipant(ctx, quotaID, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.ErrNotParticipant
	}
	return s.store.ListChatMessages(ctx, quotaID, s.historyLimit)
}

// Send persists a message and publishes it for realtime fan-out. The
// response carries the server-assigned id so an optimistic client entry can
// be reconciled.
func (s *ChatService) Send(ctx context.Context, quotaID, senderID, content string) (*models.ChatMessage, error) {
	ctx, span := util.StartSpan(ctx, "ChatService.Send")
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewError(models.ErrCodeInvalid, "message content is empty")
	}

	allowed, err := s.store.IsQuotaParticipant(ctx, quotaID, senderID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.ErrNotParticipant
	}

	sender, err := s.store.GetProfileByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		QuotaID:  quotaID,
		SenderID: senderID,
		Content:  content,
	}
	if err := s.store.CreateChatMessage(ctx, msg); err != nil {
		return nil, err
	}

	util.ChatMessagesTotal.Inc()

	event := &models.ChatMessageSentEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeChatMessageSent,
			Timestamp: time.Now(),
		},
		MessageID:  msg.ID,
		QuotaID:    quotaID,
		SenderID:   senderID,
		SenderName: sender.FullName,
		Content:    content,
	}
	if err := s.eventPublisher.PublishChatMessageSent(ctx, event); err != nil {
		s.logger.Error("Failed to publish ChatMessageSent event", zap.Error(err))
	}

	return msg, nil
}

// NotificationsPage is a user's notification list plus the unread badge count
type NotificationsPage struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// Notifications returns a user's recent notifications with the unread count
func (s *ChatService) Notifications(ctx context.Context, userID string) (*NotificationsPage, error) {
	notifications, err := s.store.ListNotifications(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationsPage{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead flips is_read on a notification owned by the caller
func (s *ChatService) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.store.MarkNotificationRead(ctx, notificationID, userID)
}
