package service

import (
	"context"
	"testing"

	"quota-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitBidRejectsNonPositivePrice(t *testing.T) {
	svc := NewBidService(nil, nil, nil)

	for _, price := range []float64{0, -9.5} {
		_, err := svc.SubmitBid(context.Background(), "quota-1", "seller-1", &SubmitBidRequest{
			PricePerUnit: price,
		})
		require.Error(t, err)
		assert.Equal(t, models.ErrCodeInvalid, models.CodeOf(err))
	}
}
