package service

import (
	"context"
	"time"

	"quota-service/internal/broker"
	"quota-service/internal/models"
	"quota-service/internal/store"
	"quota-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParticipationService mediates join requests and owner decisions
type ParticipationService struct {
	store          *store.Store
	capacity       *CapacityClient
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewParticipationService creates a new participation service
func NewParticipationService(
	store *store.Store,
	capacity *CapacityClient,
	eventPublisher *broker.EventPublisher,
) *ParticipationService {
	return &ParticipationService{
		store:          store,
		capacity:       capacity,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// JoinRequest is a producer's request to join another producer's quota
type JoinRequest struct {
	Quantity float64 `json:"quantity" binding:"required"`
}

// RequestToJoin inserts a pending participant row. A repeated request for
// the same (quota, producer) pair returns a CONFLICT, not constraint text.
func (s *ParticipationService) RequestToJoin(ctx context.Context, quotaID, producerID string, quantity float64) (*models.Participant, error) {
	ctx, span := util.StartSpan(ctx, "ParticipationService.RequestToJoin")
	defer span.End()

	if quantity <= 0 {
		util.ParticipationFailedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, models.NewError(models.ErrCodeInvalid, "quantity must be positive")
	}

	quota, err := s.store.GetQuotaByID(ctx, quotaID)
	if err != nil {
		return nil, err
	}
	if quota.Status != models.QuotaStatusOpen {
		util.ParticipationFailedTotal.WithLabelValues("quota_not_open").Inc()
		return nil, models.ErrQuotaNotOpen
	}
	if quota.ProducerID == producerID {
		return nil, models.NewError(models.ErrCodeConflict, "owner is already a participant")
	}
	if quantity > quota.QuantityRemaining() {
		util.ParticipationFailedTotal.WithLabelValues("exceeds_remaining").Inc()
		return nil, models.NewError(models.ErrCodeInvalid, "quantity exceeds what remains in the quota")
	}

	participant := &models.Participant{
		QuotaID:    quotaID,
		ProducerID: producerID,
		Quantity:   quantity,
		Status:     models.ParticipantStatusPending,
	}
	if err := s.store.CreateParticipant(ctx, participant); err != nil {
		if models.IsCode(err, models.ErrCodeConflict) {
			util.ParticipationFailedTotal.WithLabelValues("duplicate").Inc()
		} else {
			util.ParticipationFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.ParticipationRequestsTotal.Inc()
	s.logger.Info("Join requested",
		zap.String("quota_id", quotaID),
		zap.String("producer_id", producerID))

	requester, err := s.store.GetProfileByID(ctx, producerID)
	if err != nil {
		return nil, err
	}

	event := &models.ParticipantRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeParticipantRequested,
			Timestamp: time.Now(),
		},
		ParticipantID: participant.ID,
		QuotaID:       quotaID,
		OwnerID:       quota.ProducerID,
		ProducerID:    producerID,
		ProducerName:  requester.FullName,
		Quantity:      quantity,
	}
	if err := s.eventPublisher.PublishParticipantRequested(ctx, event); err != nil {
		s.logger.Error("Failed to publish ParticipantRequested event", zap.Error(err))
	}

	return participant, nil
}

// DecideParticipant applies the owner's approve/reject decision. Only the
// quota owner may call it; repeating a decision is a no-op.
func (s *ParticipationService) DecideParticipant(ctx context.Context, participantID, callerID, decision string) (*models.Participant, error) {
	ctx, span := util.StartSpan(ctx, "ParticipationService.DecideParticipant")
	defer span.End()

	if decision != models.ParticipantStatusActive && decision != models.ParticipantStatusCancelled {
		return nil, models.NewError(models.ErrCodeInvalid, "decision must be active or cancelled")
	}

	participant, err := s.store.GetParticipantByID(ctx, participantID)
	if err != nil {
		return nil, err
	}

	quota, err := s.store.GetQuotaByID(ctx, participant.QuotaID)
	if err != nil {
		return nil, err
	}
	if quota.ProducerID != callerID {
		return nil, models.ErrNotQuotaOwner
	}

	reserved := false
	if decision == models.ParticipantStatusActive && participant.Status == models.ParticipantStatusPending {
		ok, err := s.capacity.Reserve(ctx, quota.ID, participant.Quantity)
		if err == nil && !ok {
			util.ParticipationFailedTotal.WithLabelValues("capacity_exhausted").Inc()
			return nil, models.ErrQuotaFull
		}
		reserved = err == nil
	}

	decided, err := s.store.DecideParticipantTx(ctx, participantID, decision)
	if err != nil {
		if reserved {
			s.capacity.Release(ctx, quota.ID, participant.Quantity)
		}
		return nil, err
	}

	util.ParticipationDecisionsTotal.WithLabelValues(decision).Inc()
	s.logger.Info("Participant decided",
		zap.String("participant_id", participantID),
		zap.String("decision", decision))

	event := &models.ParticipantDecidedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeParticipantDecided,
			Timestamp: time.Now(),
		},
		ParticipantID: decided.ID,
		QuotaID:       decided.QuotaID,
		ProducerID:    decided.ProducerID,
		Decision:      decision,
	}
	if err := s.eventPublisher.PublishParticipantDecided(ctx, event); err != nil {
		s.logger.Error("Failed to publish ParticipantDecided event", zap.Error(err))
	}

	return decided, nil
}

// ListParticipants returns the owner's approval view: pending, active and
// cancelled requests with requester names in one read.
func (s *ParticipationService) ListParticipants(ctx context.Context, quotaID, callerID string) ([]models.ParticipantDetail, error) {
	quota, err := s.store.GetQuotaByID(ctx, quotaID)
	if err != nil {
		return nil, err
	}
	if quota.ProducerID != callerID {
		return nil, models.ErrNotQuotaOwner
	}
	return s.store.ListParticipantsByQuota(ctx, quotaID)
}
