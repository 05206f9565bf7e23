package store

import (
	"context"
	"database/sql"
	"fmt"

	"quota-service/internal/models"
)

// CreateParticipant inserts a pending join request. The unique index on
// (quota_id, producer_id) makes a repeated request a CONFLICT.
func (s *Store) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO quota_participants (quota_id, producer_id, quantity, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		participant.QuotaID, participant.ProducerID, participant.Quantity, participant.Status,
	).Scan(&participant.ID, &participant.CreatedAt, &participant.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return models.ErrDuplicateRequest
		}
		return err
	}
	return nil
}

// GetParticipantByID retrieves a participant row by ID
func (s *Store) GetParticipantByID(ctx context.Context, id string) (*models.Participant, error) {
	var participant models.Participant
	err := s.db.GetContext(ctx, &participant, "SELECT * FROM quota_participants WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// GetParticipation retrieves a producer's participation in a quota, nil if none
func (s *Store) GetParticipation(ctx context.Context, quotaID, producerID string) (*models.Participant, error) {
	var participant models.Participant
	err := s.db.GetContext(ctx, &participant,
		"SELECT * FROM quota_participants WHERE quota_id = $1 AND producer_id = $2",
		quotaID, producerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// ListParticipantsByQuota returns all participant rows for a quota with
// requester names, for the owner's approval view.
func (s *Store) ListParticipantsByQuota(ctx context.Context, quotaID string) ([]models.ParticipantDetail, error) {
	var participants []models.ParticipantDetail
	err := s.db.SelectContext(ctx, &participants, `
		SELECT qp.*, pr.full_name AS producer_name
		FROM quota_participants qp
		JOIN profiles pr ON pr.id = qp.producer_id
		WHERE qp.quota_id = $1
		ORDER BY qp.created_at`, quotaID)
	return participants, err
}

// ListActiveParticipantIDs returns the producer ids of active participants,
// owner included.
func (s *Store) ListActiveParticipantIDs(ctx context.Context, quotaID string) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT producer_id FROM quota_participants WHERE quota_id = $1 AND status = $2",
		quotaID, models.ParticipantStatusActive)
	return ids, err
}

// DecideParticipantTx applies the owner's decision on a pending request in a
// single transaction. Approval bumps the quota aggregates under a row lock so
// current_quantity never exceeds quantity and participants_count never
// exceeds max_participants. Re-applying the decision a row already carries is
// a no-op, making the call idempotent.
func (s *Store) DecideParticipantTx(ctx context.Context, participantID, decision string) (*models.Participant, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var participant models.Participant
	err = tx.GetContext(ctx, &participant,
		"SELECT * FROM quota_participants WHERE id = $1 FOR UPDATE", participantID)
	if err == sql.ErrNoRows {
		return nil, models.ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}

	if participant.Status == decision {
		return &participant, nil
	}
	if participant.Status != models.ParticipantStatusPending {
		return nil, models.NewError(models.ErrCodeConflict,
			fmt.Sprintf("participant already decided: %s", participant.Status))
	}

	if decision == models.ParticipantStatusActive {
		var quota models.Quota
		err = tx.GetContext(ctx, &quota,
			"SELECT * FROM quotas WHERE id = $1 FOR UPDATE", participant.QuotaID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock quota: %w", err)
		}

		if quota.Status != models.QuotaStatusOpen {
			return nil, models.ErrQuotaNotOpen
		}
		if quota.ParticipantsCount >= quota.MaxParticipants ||
			quota.CurrentQuantity+participant.Quantity > quota.Quantity {
			return nil, models.ErrQuotaFull
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE quotas
			SET current_quantity = current_quantity + $1,
				participants_count = participants_count + 1,
				updated_at = NOW()
			WHERE id = $2`,
			participant.Quantity, participant.QuotaID)
		if err != nil {
			return nil, fmt.Errorf("failed to update quota aggregates: %w", err)
		}
	}

	err = tx.QueryRowxContext(ctx,
		"UPDATE quota_participants SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at",
		decision, participantID,
	).Scan(&participant.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update participant status: %w", err)
	}
	participant.Status = decision

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &participant, nil
}

// IsQuotaParticipant reports whether a user may see a quota's chat:
// the owner or any active participant.
func (s *Store) IsQuotaParticipant(ctx context.Context, quotaID, userID string) (bool, error) {
	var allowed bool
	err := s.db.GetContext(ctx, &allowed, `
		SELECT EXISTS(
			SELECT 1 FROM quotas WHERE id = $1 AND producer_id = $2
			UNION
			SELECT 1 FROM quota_participants
			WHERE quota_id = $1 AND producer_id = $2 AND status = $3
		)`, quotaID, userID, models.ParticipantStatusActive)
	return allowed, err
}
