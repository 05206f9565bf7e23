package store

import (
	"context"
	"database/sql"

	"quota-service/internal/models"
)

// CreateChatMessage appends a message to a quota's chat
func (s *Store) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (quota_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		msg.QuotaID, msg.SenderID, msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt)
}

// ListChatMessages returns a quota's chat history with sender names,
// oldest first, capped at limit.
func (s *Store) ListChatMessages(ctx context.Context, quotaID string, limit int) ([]models.ChatMessageDetail, error) {
	var messages []models.ChatMessageDetail
	err := s.db.SelectContext(ctx, &messages, `
		SELECT cm.*, pr.full_name AS sender_name
		FROM chat_messages cm
		JOIN profiles pr ON pr.id = cm.sender_id
		WHERE cm.quota_id = $1
		ORDER BY cm.created_at
		LIMIT $2`, quotaID, limit)
	return messages, err
}

// CreateNotification inserts a notification for a user
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, link)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		n.UserID, n.Title, n.Message, n.Link,
	).Scan(&n.ID, &n.CreatedAt)
}

// ListNotifications returns a user's notifications, newest first
func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	return notifications, err
}

// CountUnreadNotifications returns the unread count for the bell badge
func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE", userID)
	return count, err
}

// MarkNotificationRead flips is_read for a notification owned by userID
func (s *Store) MarkNotificationRead(ctx context.Context, notificationID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2",
		notificationID, userID)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return models.NewError(models.ErrCodeNotFound, "notification not found")
	}
	return nil
}

// GetQuotaProductName returns the product name for a quota, for chat headers
// and notification copy.
func (s *Store) GetQuotaProductName(ctx context.Context, quotaID string) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, `
		SELECT p.name FROM quotas q
		JOIN products p ON p.id = q.product_id
		WHERE q.id = $1`, quotaID)
	if err == sql.ErrNoRows {
		return "", models.ErrQuotaNotFound
	}
	return name, err
}
