package service

import (
	"context"

	"quota-service/internal/models"
	"quota-service/internal/redisclient"
	"quota-service/internal/store"
	"quota-service/internal/util"

	"go.uber.org/zap"
)

// CapacityClient is the fast-path check on a quota's remaining quantity and
// participant slots. Redis answers first; the database transaction remains
// the authority, so a cache miss or Redis outage only costs the short-cut.
type CapacityClient struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewCapacityClient creates a new capacity client
func NewCapacityClient(store *store.Store, redis *redisclient.Client) *CapacityClient {
	return &CapacityClient{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// Reserve attempts to reserve quantity and one slot. Returns false only
// when the cache positively reports exhaustion; on miss or error it seeds
// the cache from the database and optimistically allows the attempt.
func (cc *CapacityClient) Reserve(ctx context.Context, quotaID string, quantity float64) (bool, error) {
	ctx, span := util.StartSpan(ctx, "CapacityClient.Reserve")
	defer span.End()

	ok, cached, err := cc.redis.ReserveCapacity(ctx, quotaID, quantity)
	if err != nil {
		cc.logger.Warn("Redis capacity check failed, deferring to DB transaction",
			zap.String("quota_id", quotaID),
			zap.Error(err))
		return true, err
	}
	if cached {
		return ok, nil
	}

	if seedErr := cc.seedFromDB(ctx, quotaID); seedErr != nil {
		cc.logger.Warn("Failed to seed capacity cache",
			zap.String("quota_id", quotaID),
			zap.Error(seedErr))
		return true, nil
	}

	ok, cached, err = cc.redis.ReserveCapacity(ctx, quotaID, quantity)
	if err != nil || !cached {
		return true, err
	}
	return ok, nil
}

// Release gives a reservation back (compensation after a failed DB commit)
func (cc *CapacityClient) Release(ctx context.Context, quotaID string, quantity float64) {
	if err := cc.redis.ReleaseCapacity(ctx, quotaID, quantity); err != nil {
		cc.logger.Error("Failed to release capacity reservation",
			zap.String("quota_id", quotaID),
			zap.Error(err))
	}
}

func (cc *CapacityClient) seedFromDB(ctx context.Context, quotaID string) error {
	quota, err := cc.store.GetQuotaByID(ctx, quotaID)
	if err != nil {
		return err
	}
	if quota.Status != models.QuotaStatusOpen {
		return models.ErrQuotaNotOpen
	}
	return cc.redis.InitCapacity(ctx, quotaID, quota.QuantityRemaining(), quota.SlotsRemaining())
}
