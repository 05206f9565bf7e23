package service

import (
	"context"
	"testing"

	"quota-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuotaRejectsNonPositiveNumbers(t *testing.T) {
	svc := NewQuotaService(nil, nil, nil)

	cases := []struct {
		name string
		req  CreateQuotaRequest
	}{
		{"zero quantity", CreateQuotaRequest{Quantity: 0, MyQuantity: 10, TargetPrice: 5}},
		{"negative quantity", CreateQuotaRequest{Quantity: -100, MyQuantity: 10, TargetPrice: 5}},
		{"zero my_quantity", CreateQuotaRequest{Quantity: 100, MyQuantity: 0, TargetPrice: 5}},
		{"zero target_price", CreateQuotaRequest{Quantity: 100, MyQuantity: 10, TargetPrice: 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateQuota(context.Background(), "producer-1", &tc.req, 10)
			require.Error(t, err)
			assert.Equal(t, models.ErrCodeInvalid, models.CodeOf(err))
		})
	}
}

func TestCreateQuotaRejectsMyQuantityAboveTotal(t *testing.T) {
	svc := NewQuotaService(nil, nil, nil)

	_, err := svc.CreateQuota(context.Background(), "producer-1", &CreateQuotaRequest{
		Quantity:    100,
		MyQuantity:  150,
		TargetPrice: 5,
	}, 10)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalid, models.CodeOf(err))
}

func TestCreateQuotaRejectsBadDeliveryDate(t *testing.T) {
	svc := NewQuotaService(nil, nil, nil)

	_, err := svc.CreateQuota(context.Background(), "producer-1", &CreateQuotaRequest{
		Quantity:     100,
		MyQuantity:   10,
		TargetPrice:  5,
		DeliveryDate: "15/03/2026",
	}, 10)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalid, models.CodeOf(err))
}

func TestToQuotaResponseDerivedFields(t *testing.T) {
	resp := toQuotaResponse(models.Quota{
		Quantity:          1000,
		CurrentQuantity:   250,
		ParticipantsCount: 3,
		MaxParticipants:   10,
	})

	assert.Equal(t, 7, resp.SlotsRemaining)
	assert.Equal(t, 750.0, resp.QuantityRemaining)
}
