package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"quota-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStoreWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

var (
	quotaColumns = []string{
		"id", "producer_id", "product_id", "quantity", "current_quantity", "unit",
		"target_price", "delivery_date", "delivery_location", "status",
		"participants_count", "max_participants", "created_at", "updated_at",
	}
	participantColumns = []string{
		"id", "quota_id", "producer_id", "quantity", "status", "created_at", "updated_at",
	}
	bidColumns = []string{
		"id", "quota_id", "seller_id", "price_per_unit", "total_price",
		"delivery_terms", "status", "created_at", "updated_at",
	}
)

func quotaRow(status string, current, total float64, count, max int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(quotaColumns).AddRow(
		"quota-1", "owner-1", "product-1", total, current, "kg",
		10.0, now, "Natal, RN", status, count, max, now, now)
}

func TestAcceptBidTx(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM quotas WHERE id = $1 FOR UPDATE")).
		WithArgs("quota-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.QuotaStatusOpen))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM bids WHERE id = $1 AND quota_id = $2")).
		WithArgs("bid-1", "quota-1").
		WillReturnRows(sqlmock.NewRows(bidColumns).AddRow(
			"bid-1", "quota-1", "seller-1", 9.5, 9500.0, "CIF", models.BidStatusPending, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bids SET status = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(models.BidStatusAccepted, "bid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE bids SET status = $1, updated_at = NOW()")).
		WithArgs(models.BidStatusRejected, "quota-1", "bid-1", models.BidStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"seller_id"}).AddRow("seller-2").AddRow("seller-3"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotas SET status = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(models.QuotaStatusClosed, "quota-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	losers, err := store.AcceptBidTx(ctx, "bid-1", "quota-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"seller-2", "seller-3"}, losers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptBidTxQuotaNotOpen(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM quotas WHERE id = $1 FOR UPDATE")).
		WithArgs("quota-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.QuotaStatusClosed))
	mock.ExpectRollback()

	_, err := store.AcceptBidTx(context.Background(), "bid-1", "quota-1")
	assert.ErrorIs(t, err, models.ErrQuotaNotOpen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptBidTxBidAlreadyDecided(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM quotas WHERE id = $1 FOR UPDATE")).
		WithArgs("quota-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.QuotaStatusOpen))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM bids WHERE id = $1 AND quota_id = $2")).
		WithArgs("bid-1", "quota-1").
		WillReturnRows(sqlmock.NewRows(bidColumns).AddRow(
			"bid-1", "quota-1", "seller-1", 9.5, 9500.0, "CIF", models.BidStatusRejected, now, now))
	mock.ExpectRollback()

	_, err := store.AcceptBidTx(context.Background(), "bid-1", "quota-1")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeConflict, models.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideParticipantTxApprove(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM quota_participants WHERE id = $1 FOR UPDATE")).
		WithArgs("participant-1").
		WillReturnRows(sqlmock.NewRows(participantColumns).AddRow(
			"participant-1", "quota-1", "producer-2", 200.0, models.ParticipantStatusPending, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM quotas WHERE id = $1 FOR UPDATE")).
		WithArgs("quota-1").
		WillReturnRows(quotaRow(models.QuotaStatusOpen, 50, 1000, 1, 10))
	mock.ExpectExec(regexp.QuoteMeta("current_quantity = current_quantity + $1")).
		WithArgs(200.0, "quota-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE quota_participants SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at")).
		WithArgs(models.ParticipantStatusActive, "participant-1").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectCommit()

	participant, err := store.DecideParticipantTx(context.Background(), "participant-1", models.ParticipantStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantStatusActive, participant.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideParticipantTxIdempotent(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	// A row already carrying the requested decision is returned unchanged,
	// with no aggregate update.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM quota_participants WHERE id = $1 FOR UPDATE")).
		WithArgs("participant-1").
		WillReturnRows(sqlmock.NewRows(participantColumns).AddRow(
			"participant-1", "quota-1", "producer-2", 200.0, models.ParticipantStatusActive, now, now))
	mock.ExpectRollback()

	participant, err := store.DecideParticipantTx(context.Background(), "participant-1", models.ParticipantStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantStatusActive, participant.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideParticipantTxCapacityExceeded(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM quota_participants WHERE id = $1 FOR UPDATE")).
		WithArgs("participant-1").
		WillReturnRows(sqlmock.NewRows(participantColumns).AddRow(
			"participant-1", "quota-1", "producer-2", 980.0, models.ParticipantStatusPending, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM quotas WHERE id = $1 FOR UPDATE")).
		WithArgs("quota-1").
		WillReturnRows(quotaRow(models.QuotaStatusOpen, 50, 1000, 1, 10))
	mock.ExpectRollback()

	_, err := store.DecideParticipantTx(context.Background(), "participant-1", models.ParticipantStatusActive)
	assert.ErrorIs(t, err, models.ErrQuotaFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateParticipantDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO quota_participants")).
		WithArgs("quota-1", "producer-2", 200.0, models.ParticipantStatusPending).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "quota_participants_quota_producer_key"})

	err := store.CreateParticipant(context.Background(), &models.Participant{
		QuotaID:    "quota-1",
		ProducerID: "producer-2",
		Quantity:   200,
		Status:     models.ParticipantStatusPending,
	})
	assert.ErrorIs(t, err, models.ErrDuplicateRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "profiles_email_key"})

	err := store.CreateProfile(context.Background(), &models.Profile{
		ID:    "user-1",
		Email: "joao@example.com",
	})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileDuplicateTaxID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "profiles_tax_id_key"})

	err := store.CreateProfile(context.Background(), &models.Profile{
		ID:    "user-1",
		Email: "joao@example.com",
		TaxID: "123.456.789-00",
	})
	assert.ErrorIs(t, err, models.ErrDuplicateTaxID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileWithoutTaxID(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	// The tax id is optional; uniqueness is enforced only for non-empty
	// values, so any number of profiles may leave it blank.
	for _, email := range []string{"first@example.com", "second@example.com"} {
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
			WithArgs(sqlmock.AnyArg(), email, sqlmock.AnyArg(), sqlmock.AnyArg(),
				models.ProfileTypeProducer, "", "", "", "", "").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	}

	for _, email := range []string{"first@example.com", "second@example.com"} {
		err := store.CreateProfile(context.Background(), &models.Profile{
			ID:    "user-" + email,
			Email: email,
			Type:  models.ProfileTypeProducer,
		})
		require.NoError(t, err)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsQuotaParticipant(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WithArgs("quota-1", "producer-2", models.ParticipantStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WithArgs("quota-1", "outsider-1", models.ParticipantStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	allowed, err := store.IsQuotaParticipant(context.Background(), "quota-1", "producer-2")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = store.IsQuotaParticipant(context.Background(), "quota-1", "outsider-1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateQuotaWithParticipant(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO quotas")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO quota_participants")).
		WithArgs("quota-1", "owner-1", 50.0, models.ParticipantStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("participant-1", now, now))
	mock.ExpectCommit()

	quota := &models.Quota{
		ID:              "quota-1",
		ProducerID:      "owner-1",
		ProductID:       "product-1",
		Quantity:        1000,
		Unit:            "kg",
		TargetPrice:     10,
		DeliveryDate:    now,
		MaxParticipants: 10,
	}
	participant, err := store.CreateQuotaWithParticipant(context.Background(), quota, 50)
	require.NoError(t, err)

	// The creator joins active at quota birth: never a zero-participant quota.
	assert.Equal(t, models.ParticipantStatusActive, participant.Status)
	assert.Equal(t, models.QuotaStatusOpen, quota.Status)
	assert.Equal(t, 50.0, quota.CurrentQuantity)
	assert.Equal(t, 1, quota.ParticipantsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBidQuotaNotOpen(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bids")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))

	err := store.CreateBid(context.Background(), &models.Bid{
		QuotaID:      "quota-1",
		SellerID:     "seller-1",
		PricePerUnit: 9.5,
		TotalPrice:   9500,
	})
	assert.ErrorIs(t, err, models.ErrQuotaNotOpen)
	assert.NoError(t, mock.ExpectationsWereMet())
}
