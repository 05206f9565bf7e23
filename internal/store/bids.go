package store

import (
	"context"
	"database/sql"
	"fmt"

	"quota-service/internal/models"
)

// CreateBid inserts a pending bid against an open quota. The quota status is
// re-checked inside the insert so a bid can never land on a closed quota.
func (s *Store) CreateBid(ctx context.Context, bid *models.Bid) error {
	query := `
		INSERT INTO bids (quota_id, seller_id, price_per_unit, total_price, delivery_terms, status)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (SELECT 1 FROM quotas WHERE id = $1 AND status = $7)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		bid.QuotaID, bid.SellerID, bid.PricePerUnit, bid.TotalPrice, bid.DeliveryTerms,
		models.BidStatusPending, models.QuotaStatusOpen,
	).Scan(&bid.ID, &bid.CreatedAt, &bid.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.ErrQuotaNotOpen
	}
	if err != nil {
		return err
	}
	bid.Status = models.BidStatusPending
	return nil
}

// GetBidByID retrieves a bid by ID
func (s *Store) GetBidByID(ctx context.Context, id string) (*models.Bid, error) {
	var bid models.Bid
	err := s.db.GetContext(ctx, &bid, "SELECT * FROM bids WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrBidNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// ListBidsByQuota returns all bids for a quota with bidder names,
// best price first.
func (s *Store) ListBidsByQuota(ctx context.Context, quotaID string) ([]models.BidDetail, error) {
	var bids []models.BidDetail
	err := s.db.SelectContext(ctx, &bids, `
		SELECT b.*, pr.full_name AS seller_name
		FROM bids b
		JOIN profiles pr ON pr.id = b.seller_id
		WHERE b.quota_id = $1
		ORDER BY b.price_per_unit, b.created_at`, quotaID)
	return bids, err
}

// ListBidsBySeller returns a seller's bids across quotas, newest first
func (s *Store) ListBidsBySeller(ctx context.Context, sellerID string) ([]models.Bid, error) {
	var bids []models.Bid
	err := s.db.SelectContext(ctx, &bids,
		"SELECT * FROM bids WHERE seller_id = $1 ORDER BY created_at DESC", sellerID)
	return bids, err
}

// AcceptBidTx atomically marks the chosen bid accepted, every sibling bid
// rejected, and the quota closed. The quota row is locked first so two
// concurrent accepts cannot both succeed; the call either fully applies or
// leaves no partial effect.
func (s *Store) AcceptBidTx(ctx context.Context, bidID, quotaID string) (losers []string, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var quotaStatus string
	err = tx.GetContext(ctx, &quotaStatus,
		"SELECT status FROM quotas WHERE id = $1 FOR UPDATE", quotaID)
	if err == sql.ErrNoRows {
		return nil, models.ErrQuotaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock quota: %w", err)
	}
	if quotaStatus != models.QuotaStatusOpen {
		return nil, models.ErrQuotaNotOpen
	}

	var bid models.Bid
	err = tx.GetContext(ctx, &bid,
		"SELECT * FROM bids WHERE id = $1 AND quota_id = $2", bidID, quotaID)
	if err == sql.ErrNoRows {
		return nil, models.ErrBidNotFound
	}
	if err != nil {
		return nil, err
	}
	if bid.Status != models.BidStatusPending {
		return nil, models.NewError(models.ErrCodeConflict, "bid already decided")
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE bids SET status = $1, updated_at = NOW() WHERE id = $2",
		models.BidStatusAccepted, bidID)
	if err != nil {
		return nil, fmt.Errorf("failed to accept bid: %w", err)
	}

	err = tx.SelectContext(ctx, &losers, `
		UPDATE bids SET status = $1, updated_at = NOW()
		WHERE quota_id = $2 AND id <> $3 AND status = $4
		RETURNING seller_id`,
		models.BidStatusRejected, quotaID, bidID, models.BidStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to reject sibling bids: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE quotas SET status = $1, updated_at = NOW() WHERE id = $2",
		models.QuotaStatusClosed, quotaID)
	if err != nil {
		return nil, fmt.Errorf("failed to close quota: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return losers, nil
}
