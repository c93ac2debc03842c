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

func TestVerificationRepository_ReplaceKeepsOneChallenge(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewVerificationRepository(db)
	ctx := context.Background()
	phone := "+14155550123"

	first := &models.Verification{Phone: phone, Hash: "h1", ExpiresAt: time.Now().Add(10 * time.Minute)}
	require.NoError(t, repo.Replace(ctx, first))
	require.NoError(t, repo.IncrementAttempts(ctx, first.ID))

	second := &models.Verification{Phone: phone, Hash: "h2", ExpiresAt: time.Now().Add(10 * time.Minute)}
	require.NoError(t, repo.Replace(ctx, second))

	var count int64
	require.NoError(t, db.Model(&models.Verification{}).Where("phone = ?", phone).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	live, err := repo.GetByPhone(ctx, phone)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, "h2", live.Hash)
	assert.Equal(t, 0, live.Attempts)

	require.NoError(t, repo.IncrementAttempts(ctx, live.ID))
	live, err = repo.GetByPhone(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, 1, live.Attempts)

	require.NoError(t, repo.Delete(ctx, live.ID))
	gone, err := repo.GetByPhone(ctx, phone)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestAuditRepository_Record(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, &models.AuditLog{
		Action:      "request.accept",
		ActorType:   models.ActorHuman,
		ActorID:     "h1",
		SubjectType: models.SubjectRequest,
		SubjectID:   "r1",
	}))

	entries, err := repo.ListBySubject(ctx, models.SubjectRequest, "r1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "request.accept", entries[0].Action)
	assert.NotNil(t, entries[0].Meta)
}
