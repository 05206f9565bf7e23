package service

import (
	"context"
	"testing"

	"quota-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestToJoinRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewParticipationService(nil, nil, nil)

	for _, quantity := range []float64{0, -5} {
		_, err := svc.RequestToJoin(context.Background(), "quota-1", "producer-2", quantity)
		require.Error(t, err)
		assert.Equal(t, models.ErrCodeInvalid, models.CodeOf(err))
	}
}

func TestDecideParticipantRejectsUnknownDecision(t *testing.T) {
	svc := NewParticipationService(nil, nil, nil)

	for _, decision := range []string{"approved", "pending", ""} {
		_, err := svc.DecideParticipant(context.Background(), "participant-1", "owner-1", decision)
		require.Error(t, err)
		assert.Equal(t, models.ErrCodeInvalid, models.CodeOf(err))
	}
}
