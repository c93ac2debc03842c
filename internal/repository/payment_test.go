package repository

import (
	"context"
	"testing"
	"time"

	"shaasam/internal/models"
	"shaasam/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRepository_SetStatusIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	p := &models.Payment{
		HumanID:    "h1",
		Amount:     5000,
		Currency:   "usd",
		ExternalID: "pi_123",
		Status:     models.PaymentStatusRequiresCapture,
	}
	require.NoError(t, repo.Create(ctx, p))

	first := time.Now().Add(-time.Minute).Truncate(time.Second)
	updated, changed, err := repo.SetStatus(ctx, p.ID, models.PaymentStatusSucceeded, first)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, updated.CapturedAt)
	assert.Nil(t, updated.CanceledAt)

	again, changed, err := repo.SetStatus(ctx, p.ID, models.PaymentStatusSucceeded, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, updated.CapturedAt.Equal(*again.CapturedAt))
	assert.True(t, updated.UpdatedAt.Equal(again.UpdatedAt))

	refunded, changed, err := repo.SetStatus(ctx, p.ID, models.PaymentStatusRefunded, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)
	assert.True(t, updated.CapturedAt.Equal(*refunded.CapturedAt), "captured_at is never overwritten")
}

func TestPaymentRepository_Lookup(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	p := &models.Payment{HumanID: "h1", Amount: 100, Currency: "usd", ExternalID: "pi_abc", Status: "requires_capture"}
	require.NoError(t, repo.Create(ctx, p))

	byExt, err := repo.GetByExternalID(ctx, "pi_abc")
	require.NoError(t, err)
	require.NotNil(t, byExt)
	assert.Equal(t, p.ID, byExt.ID)

	missing, err := repo.GetByExternalID(ctx, "pi_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, "nope")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	dup := &models.Payment{HumanID: "h1", Amount: 100, Currency: "usd", ExternalID: "pi_abc", Status: "requires_capture"}
	err = repo.Create(ctx, dup)
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestPaymentRepository_SetStatusKeepsFinalStates(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	p := &models.Payment{HumanID: "h1", Amount: 5000, Currency: "usd", ExternalID: "pi_final", Status: models.PaymentStatusRequiresCapture}
	require.NoError(t, repo.Create(ctx, p))

	_, changed, err := repo.SetStatus(ctx, p.ID, models.PaymentStatusSucceeded, time.Now())
	require.NoError(t, err)
	require.True(t, changed)

	late, changed, err := repo.SetStatus(ctx, p.ID, models.PaymentStatusRequiresCapture, time.Now())
	require.NoError(t, err)
	assert.False(t, changed, "a captured payment never returns to capturable")
	assert.Equal(t, models.PaymentStatusSucceeded, late.Status)

	_, changed, err = repo.SetStatus(ctx, p.ID, models.PaymentStatusRefunded, time.Now())
	require.NoError(t, err)
	require.True(t, changed)

	for _, status := range []string{models.PaymentStatusSucceeded, models.PaymentStatusCanceled, models.PaymentStatusRequiresCapture} {
		got, changed, err := repo.SetStatus(ctx, p.ID, status, time.Now())
		require.NoError(t, err)
		assert.False(t, changed, status)
		assert.Equal(t, models.PaymentStatusRefunded, got.Status)
		assert.Nil(t, got.CanceledAt)
	}
}
