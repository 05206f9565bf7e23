package store

import (
	"context"
	"database/sql"
	"fmt"

	"quota-service/internal/models"
)

// QuotaFilter narrows ListOpenQuotas. Zero values mean "no predicate".
type QuotaFilter struct {
	Category   string
	SearchTerm string
	Location   string
}

// CreateQuotaWithParticipant atomically creates a quota together with its
// creator's own active participant row, so a quota is never observable
// with zero participants.
func (s *Store) CreateQuotaWithParticipant(ctx context.Context, quota *models.Quota, creatorQuantity float64) (*models.Participant, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	quotaQuery := `
		INSERT INTO quotas (id, producer_id, product_id, quantity, current_quantity, unit,
			target_price, delivery_date, delivery_location, status, participants_count, max_participants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11)
		RETURNING created_at, updated_at`

	err = tx.QueryRowxContext(ctx, quotaQuery,
		quota.ID, quota.ProducerID, quota.ProductID, quota.Quantity, creatorQuantity,
		quota.Unit, quota.TargetPrice, quota.DeliveryDate, quota.DeliveryLocation,
		models.QuotaStatusOpen, quota.MaxParticipants,
	).Scan(&quota.CreatedAt, &quota.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert quota: %w", err)
	}
	quota.Status = models.QuotaStatusOpen
	quota.CurrentQuantity = creatorQuantity
	quota.ParticipantsCount = 1

	participant := &models.Participant{
		QuotaID:    quota.ID,
		ProducerID: quota.ProducerID,
		Quantity:   creatorQuantity,
		Status:     models.ParticipantStatusActive,
	}

	participantQuery := `
		INSERT INTO quota_participants (quota_id, producer_id, quantity, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, participantQuery,
		participant.QuotaID, participant.ProducerID, participant.Quantity, participant.Status,
	).Scan(&participant.ID, &participant.CreatedAt, &participant.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert creator participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return participant, nil
}

// GetQuotaByID retrieves a quota by ID
func (s *Store) GetQuotaByID(ctx context.Context, id string) (*models.Quota, error) {
	var quota models.Quota
	err := s.db.GetContext(ctx, &quota, "SELECT * FROM quotas WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrQuotaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

// ListOpenQuotas returns open quotas matching the optional filters,
// newest first.
func (s *Store) ListOpenQuotas(ctx context.Context, filter QuotaFilter) ([]models.Quota, error) {
	query := `
		SELECT q.* FROM quotas q
		JOIN products p ON p.id = q.product_id
		WHERE q.status = $1`
	args := []interface{}{models.QuotaStatusOpen}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND p.category = $%d", len(args))
	}
	if filter.SearchTerm != "" {
		args = append(args, "%"+filter.SearchTerm+"%")
		query += fmt.Sprintf(" AND (p.name ILIKE $%d OR q.delivery_location ILIKE $%d)", len(args), len(args))
	}
	if filter.Location != "" {
		args = append(args, "%"+filter.Location+"%")
		query += fmt.Sprintf(" AND q.delivery_location ILIKE $%d", len(args))
	}
	query += " ORDER BY q.created_at DESC"

	var quotas []models.Quota
	err := s.db.SelectContext(ctx, &quotas, query, args...)
	return quotas, err
}

// ListQuotasByOwner returns all quotas created by a producer, newest first
func (s *Store) ListQuotasByOwner(ctx context.Context, producerID string) ([]models.Quota, error) {
	var quotas []models.Quota
	err := s.db.SelectContext(ctx, &quotas,
		"SELECT * FROM quotas WHERE producer_id = $1 ORDER BY created_at DESC", producerID)
	return quotas, err
}

// ListQuotasParticipating returns quotas a producer has joined (any status),
// excluding the ones they own.
func (s *Store) ListQuotasParticipating(ctx context.Context, producerID string) ([]models.Quota, error) {
	var quotas []models.Quota
	err := s.db.SelectContext(ctx, &quotas, `
		SELECT q.* FROM quotas q
		JOIN quota_participants qp ON qp.quota_id = q.id
		WHERE qp.producer_id = $1 AND q.producer_id <> $1
		ORDER BY q.created_at DESC`, producerID)
	return quotas, err
}

// UpdateQuotaStatus transitions a quota between statuses. The current status
// is part of the predicate, so a concurrent close or cancel wins cleanly and
// the loser gets a CONFLICT.
func (s *Store) UpdateQuotaStatus(ctx context.Context, quotaID, from, to string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE quotas SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, quotaID, from)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return models.ErrQuotaNotOpen
	}
	return nil
}
