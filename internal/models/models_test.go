package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaRemaining(t *testing.T) {
	quota := Quota{
		Quantity:          1000,
		CurrentQuantity:   400,
		ParticipantsCount: 3,
		MaxParticipants:   10,
	}
	assert.Equal(t, 7, quota.SlotsRemaining())
	assert.Equal(t, 600.0, quota.QuantityRemaining())
}

func TestQuotaRemainingClampsAtZero(t *testing.T) {
	// Aggregates can be read stale relative to a concurrent approval;
	// the derived fields must never render negative.
	quota := Quota{
		Quantity:          1000,
		CurrentQuantity:   1100,
		ParticipantsCount: 12,
		MaxParticipants:   10,
	}
	assert.Equal(t, 0, quota.SlotsRemaining())
	assert.Equal(t, 0.0, quota.QuantityRemaining())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, CodeOf(ErrQuotaNotFound))
	assert.Equal(t, ErrCodeConflict, CodeOf(ErrDuplicateRequest))
	assert.Equal(t, ErrCodeForbidden, CodeOf(ErrNotQuotaOwner))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain error")))
	assert.Equal(t, ErrCodeInternal, CodeOf(nil))
}

func TestCodeOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("deciding participant: %w", ErrQuotaFull)
	assert.Equal(t, ErrCodeConflict, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeConflict))
	assert.True(t, errors.Is(wrapped, ErrQuotaFull))
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(ErrCodeInternal, "failed to reach broker", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to reach broker")
	assert.Contains(t, err.Error(), "connection refused")
}
