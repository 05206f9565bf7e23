package service

import (
	"context"
	"regexp"
	"testing"

	"quota-service/internal/models"
	"quota-service/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServiceWithMock(t *testing.T) (*ChatService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewChatService(store.NewStoreWithDB(sqlx.NewDb(db, "sqlmock")), nil, 200), mock
}

func expectParticipationCheck(mock sqlmock.Sqlmock, quotaID, userID string, allowed bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WithArgs(quotaID, userID, models.ParticipantStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(allowed))
}

func TestHistoryDeniedForNonParticipant(t *testing.T) {
	svc, mock := newChatServiceWithMock(t)

	expectParticipationCheck(mock, "quota-1", "outsider-1", false)

	// An outsider gets FORBIDDEN and the messages query never runs.
	_, err := svc.History(context.Background(), "quota-1", "outsider-1")
	assert.ErrorIs(t, err, models.ErrNotParticipant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendDeniedForNonParticipant(t *testing.T) {
	svc, mock := newChatServiceWithMock(t)

	expectParticipationCheck(mock, "quota-1", "outsider-1", false)

	_, err := svc.Send(context.Background(), "quota-1", "outsider-1", "let me in")
	assert.ErrorIs(t, err, models.ErrNotParticipant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendRejectsEmptyContent(t *testing.T) {
	svc := NewChatService(nil, nil, 200)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.Send(context.Background(), "quota-1", "producer-1", content)
		require.Error(t, err)
		assert.Equal(t, models.ErrCodeInvalid, models.CodeOf(err))
	}
}

func TestNewChatServiceDefaultsHistoryLimit(t *testing.T) {
	svc := NewChatService(nil, nil, 0)
	assert.Equal(t, 200, svc.historyLimit)
}
