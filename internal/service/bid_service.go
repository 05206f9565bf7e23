package service

import (
	"context"
	"time"

	"quota-service/internal/broker"
	"quota-service/internal/models"
	"quota-service/internal/redisclient"
	"quota-service/internal/store"
	"quota-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BidService lets sellers submit offers and the quota owner accept one
type BidService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewBidService creates a new bid service
func NewBidService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
) *BidService {
	return &BidService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// SubmitBidRequest carries a seller's offer. The total is never taken from
// the client; it is recomputed from the quota's quantity.
type SubmitBidRequest struct {
	PricePerUnit  float64 `json:"price_per_unit" binding:"required"`
	DeliveryTerms string  `json:"delivery_terms"`
}

// SubmitBid validates and inserts a pending bid on an open quota
func (s *BidService) SubmitBid(ctx context.Context, quotaID, sellerID string, req *SubmitBidRequest) (*models.Bid, error) {
	ctx, span := util.StartSpan(ctx, "BidService.SubmitBid")
	defer span.End()

	if req.PricePerUnit <= 0 {
		util.BidsFailedTotal.WithLabelValues("invalid_price").Inc()
		return nil, models.NewError(models.ErrCodeInvalid, "price_per_unit must be positive")
	}

	seller, err := s.store.GetProfileByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Type != models.ProfileTypeSeller {
		return nil, models.NewError(models.ErrCodeForbidden, "only sellers may submit bids")
	}

	quota, err := s.store.GetQuotaByID(ctx, quotaID)
	if err != nil {
		return nil, err
	}
	if quota.Status != models.QuotaStatusOpen {
		util.BidsFailedTotal.WithLabelValues("quota_not_open").Inc()
		return nil, models.ErrQuotaNotOpen
	}

	bid := &models.Bid{
		QuotaID:       quotaID,
		SellerID:      sellerID,
		PricePerUnit:  req.PricePerUnit,
		TotalPrice:    req.PricePerUnit * quota.Quantity,
		DeliveryTerms: req.DeliveryTerms,
	}
	if err := s.store.CreateBid(ctx, bid); err != nil {
		if models.IsCode(err, models.ErrCodeConflict) {
			util.BidsFailedTotal.WithLabelValues("quota_not_open").Inc()
		} else {
			util.BidsFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.BidsSubmittedTotal.Inc()
	s.logger.Info("Bid submitted",
		zap.String("bid_id", bid.ID),
		zap.String("quota_id", quotaID),
		zap.Float64("price_per_unit", bid.PricePerUnit))

	event := &models.BidSubmittedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeBidSubmitted,
			Timestamp: time.Now(),
		},
		BidID:        bid.ID,
		QuotaID:      quotaID,
		OwnerID:      quota.ProducerID,
		SellerID:     sellerID,
		SellerName:   seller.FullName,
		PricePerUnit: bid.PricePerUnit,
		TotalPrice:   bid.TotalPrice,
	}
	if err := s.eventPublisher.PublishBidSubmitted(ctx, event); err != nil {
		s.logger.Error("Failed to publish BidSubmitted event", zap.Error(err))
	}

	return bid, nil
}

// ListBids returns all bids for a quota with bidder names
func (s *BidService) ListBids(ctx context.Context, quotaID string) ([]models.BidDetail, error) {
	if _, err := s.store.GetQuotaByID(ctx, quotaID); err != nil {
		return nil, err
	}
	return s.store.ListBidsByQuota(ctx, quotaID)
}

// ListSellerBids returns a seller's own bids across quotas
func (s *BidService) ListSellerBids(ctx context.Context, sellerID string) ([]models.Bid, error) {
	return s.store.ListBidsBySeller(ctx, sellerID)
}

// AcceptBid atomically accepts the chosen bid, rejects its siblings and
// closes the quota. Only the quota owner may call it. Either every effect
// applies or none does.
func (s *BidService) AcceptBid(ctx context.Context, bidID, quotaID, callerID string) (*models.Bid, error) {
	ctx, span := util.StartSpan(ctx, "BidService.AcceptBid")
	defer span.End()

	start := time.Now()
	defer func() {
		util.BidAcceptLatency.Observe(time.Since(start).Seconds())
	}()

	quota, err := s.store.GetQuotaByID(ctx, quotaID)
	if err != nil {
		return nil, err
	}
	if quota.ProducerID != callerID {
		util.BidsFailedTotal.WithLabelValues("not_owner").Inc()
		return nil, models.ErrNotQuotaOwner
	}

	losers, err := s.store.AcceptBidTx(ctx, bidID, quotaID)
	if err != nil {
		util.BidsFailedTotal.WithLabelValues("accept_failed").Inc()
		return nil, err
	}

	util.BidsAcceptedTotal.Inc()
	util.QuotasClosedTotal.Inc()
	s.logger.Info("Bid accepted, quota closed",
		zap.String("bid_id", bidID),
		zap.String("quota_id", quotaID))

	if err := s.redis.DropCapacity(ctx, quotaID); err != nil {
		s.logger.Warn("Failed to drop capacity cache", zap.String("quota_id", quotaID), zap.Error(err))
	}

	bid, err := s.store.GetBidByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	participantIDs, err := s.store.ListActiveParticipantIDs(ctx, quotaID)
	if err != nil {
		s.logger.Error("Failed to list participants for fan-out", zap.Error(err))
	}

	event := &models.BidAcceptedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeBidAccepted,
			Timestamp: time.Now(),
		},
		BidID:          bid.ID,
		QuotaID:        quotaID,
		WinnerSellerID: bid.SellerID,
		LoserSellerIDs: losers,
		ParticipantIDs: participantIDs,
		TotalPrice:     bid.TotalPrice,
	}
	if err := s.eventPublisher.PublishBidAccepted(ctx, event); err != nil {
		s.logger.Error("Failed to publish BidAccepted event", zap.Error(err))
	}

	return bid, nil
}
