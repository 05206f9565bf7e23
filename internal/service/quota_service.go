package service

import (
	"context"
	"fmt"
	"time"

	"quota-service/internal/broker"
	"quota-service/internal/models"
	"quota-service/internal/redisclient"
	"quota-service/internal/store"
	"quota-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuotaService handles quota creation and listing
type QuotaService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewQuotaService creates a new quota service
func NewQuotaService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
) *QuotaService {
	return &QuotaService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateQuotaRequest represents a request to open a new quota
type CreateQuotaRequest struct {
	ProductID        string  `json:"product_id" binding:"required"`
	Quantity         float64 `json:"quantity" binding:"required"`
	MyQuantity       float64 `json:"my_quantity" binding:"required"`
	TargetPrice      float64 `json:"target_price" binding:"required"`
	DeliveryDate     string  `json:"delivery_date" binding:"required"`
	DeliveryLocation string  `json:"delivery_location" binding:"required"`
	MaxParticipants  int     `json:"max_participants"`
}

// QuotaResponse is a quota plus the derived display fields
type QuotaResponse struct {
	models.Quota
	SlotsRemaining    int     `json:"slots_remaining"`
	QuantityRemaining float64 `json:"quantity_remaining"`
}

func toQuotaResponse(q models.Quota) QuotaResponse {
	return QuotaResponse{
		Quota:             q,
		SlotsRemaining:    q.SlotsRemaining(),
		QuantityRemaining: q.QuantityRemaining(),
	}
}

// CreateQuota validates the request and atomically creates the quota with
// its creator's own active participant row.
func (s *QuotaService) CreateQuota(ctx context.Context, producerID string, req *CreateQuotaRequest, defaultMaxParticipants int) (*QuotaResponse, error) {
	ctx, span := util.StartSpan(ctx, "QuotaService.CreateQuota")
	defer span.End()

	if req.Quantity <= 0 || req.MyQuantity <= 0 || req.TargetPrice <= 0 {
		util.QuotasFailedTotal.WithLabelValues("invalid_numeric").Inc()
		return nil, models.NewError(models.ErrCodeInvalid, "quantity, my_quantity and target_price must be positive")
	}
	if req.MyQuantity > req.Quantity {
		util.QuotasFailedTotal.WithLabelValues("my_quantity_exceeds_total").Inc()
		return nil, models.NewError(models.ErrCodeInvalid, "my_quantity must not exceed quantity")
	}

	maxParticipants := req.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = defaultMaxParticipants
	}

	deliveryDate, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		util.QuotasFailedTotal.WithLabelValues("invalid_date").Inc()
		return nil, models.NewError(models.ErrCodeInvalid, "delivery_date must be YYYY-MM-DD")
	}

	producer, err := s.store.GetProfileByID(ctx, producerID)
	if err != nil {
		return nil, err
	}
	if producer.Type != models.ProfileTypeProducer {
		return nil, models.NewError(models.ErrCodeForbidden, "only producers may open quotas")
	}

	product, err := s.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		util.QuotasFailedTotal.WithLabelValues("product_not_found").Inc()
		return nil, err
	}

	quota := &models.Quota{
		ID:               uuid.NewString(),
		ProducerID:       producerID,
		ProductID:        product.ID,
		Quantity:         req.Quantity,
		Unit:             product.Unit,
		TargetPrice:      req.TargetPrice,
		DeliveryDate:     deliveryDate,
		DeliveryLocation: req.DeliveryLocation,
		MaxParticipants:  maxParticipants,
	}

	if _, err := s.store.CreateQuotaWithParticipant(ctx, quota, req.MyQuantity); err != nil {
		util.QuotasFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create quota: %w", err)
	}

	util.QuotasCreatedTotal.Inc()
	s.logger.Info("Quota created",
		zap.String("quota_id", quota.ID),
		zap.String("producer_id", producerID))

	if err := s.redis.InitCapacity(ctx, quota.ID, quota.QuantityRemaining(), quota.SlotsRemaining()); err != nil {
		s.logger.Warn("Failed to seed capacity cache", zap.String("quota_id", quota.ID), zap.Error(err))
	}

	event := &models.QuotaCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeQuotaCreated,
			Timestamp: time.Now(),
		},
		QuotaID:     quota.ID,
		ProducerID:  producerID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quota.Quantity,
		TargetPrice: quota.TargetPrice,
	}
	if err := s.eventPublisher.PublishQuotaCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish QuotaCreated event", zap.Error(err))
	}

	resp := toQuotaResponse(*quota)
	return &resp, nil
}

// CancelQuota withdraws an open quota. Only the owner may cancel, and a
// quota that already closed stays closed.
func (s *QuotaService) CancelQuota(ctx context.Context, quotaID, callerID string) (*QuotaResponse, error) {
	ctx, span := util.StartSpan(ctx, "QuotaService.CancelQuota")
	defer span.End()

	quota, err := s.store.GetQuotaByID(ctx, quotaID)
	if err != nil {
		return nil, err
	}
	if quota.ProducerID != callerID {
		return nil, models.ErrNotQuotaOwner
	}

	if err := s.store.UpdateQuotaStatus(ctx, quotaID,
		models.QuotaStatusOpen, models.QuotaStatusCancelled); err != nil {
		util.QuotasFailedTotal.WithLabelValues("cancel_conflict").Inc()
		return nil, err
	}
	quota.Status = models.QuotaStatusCancelled

	util.QuotasCancelledTotal.Inc()
	s.logger.Info("Quota cancelled", zap.String("quota_id", quotaID))

	if err := s.redis.DropCapacity(ctx, quotaID); err != nil {
		s.logger.Warn("Failed to drop capacity cache", zap.String("quota_id", quotaID), zap.Error(err))
	}

	participantIDs, err := s.store.ListActiveParticipantIDs(ctx, quotaID)
	if err != nil {
		s.logger.Error("Failed to list participants for fan-out", zap.Error(err))
	}
	productName, err := s.store.GetQuotaProductName(ctx, quotaID)
	if err != nil {
		productName = ""
	}

	event := &models.QuotaCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeQuotaCancelled,
			Timestamp: time.Now(),
		},
		QuotaID:        quotaID,
		ProducerID:     callerID,
		ProductName:    productName,
		ParticipantIDs: participantIDs,
	}
	if err := s.eventPublisher.PublishQuotaCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish QuotaCancelled event", zap.Error(err))
	}

	resp := toQuotaResponse(*quota)
	return &resp, nil
}

// ListOpenQuotas returns open quotas matching the optional filters
func (s *QuotaService) ListOpenQuotas(ctx context.Context, filter store.QuotaFilter) ([]QuotaResponse, error) {
	quotas, err := s.store.ListOpenQuotas(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toQuotaResponses(quotas), nil
}

// ListQuotasByOwner returns the quotas a producer created
func (s *QuotaService) ListQuotasByOwner(ctx context.Context, producerID string) ([]QuotaResponse, error) {
	quotas, err := s.store.ListQuotasByOwner(ctx, producerID)
	if err != nil {
		return nil, err
	}
	return toQuotaResponses(quotas), nil
}

// ListQuotasParticipating returns the quotas a producer joined
func (s *QuotaService) ListQuotasParticipating(ctx context.Context, producerID string) ([]QuotaResponse, error) {
	quotas, err := s.store.ListQuotasParticipating(ctx, producerID)
	if err != nil {
		return nil, err
	}
	return toQuotaResponses(quotas), nil
}

func toQuotaResponses(quotas []models.Quota) []QuotaResponse {
	out := make([]QuotaResponse, 0, len(quotas))
	for _, q := range quotas {
		out = append(out, toQuotaResponse(q))
	}
	return out
}

// QuotaDetail is the full quota page payload: quota, bids with bidder
// names, and the viewer's own participation if any.
type QuotaDetail struct {
	QuotaResponse
	ProductName   string              `json:"product_name"`
	Bids          []models.BidDetail  `json:"bids"`
	Participation *models.Participant `json:"participation,omitempty"`
}

// GetQuota returns the detail view for a quota
func (s *QuotaService) GetQuota(ctx context.Context, quotaID, viewerID string) (*QuotaDetail, error) {
	quota, err := s.store.GetQuotaByID(ctx, quotaID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, quota.ProductID)
	if err != nil {
		return nil, err
	}

	bids, err := s.store.ListBidsByQuota(ctx, quotaID)
	if err != nil {
		return nil, err
	}

	detail := &QuotaDetail{
		QuotaResponse: toQuotaResponse(*quota),
		ProductName:   product.Name,
		Bids:          bids,
	}

	if viewerID != "" && viewerID != quota.ProducerID {
		participation, err := s.store.GetParticipation(ctx, quotaID, viewerID)
		if err != nil {
			return nil, err
		}
		detail.Participation = participation
	}

	return detail, nil
}

// ListProducts returns the input catalog for the quota creation form
func (s *QuotaService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.GetProducts(ctx)
}
