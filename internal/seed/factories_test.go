package seed

import (
	"context"
	"testing"

	"shaasam/internal/models"
	"shaasam/internal/repository"
	"shaasam/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Run(t *testing.T) {
	db := testutil.NewDB(t)
	f := NewFactory(db, Options{Humans: 6, Requests: 4, Seed: 42})

	require.NoError(t, f.Run())

	var humans []models.Human
	require.NoError(t, db.Find(&humans).Error)
	require.Len(t, humans, 6)
	for _, h := range humans {
		assert.True(t, h.Verified)
		assert.Equal(t, models.ReviewStatusApproved, h.ReviewStatus)
		assert.NotEmpty(t, h.Skills)
		assert.Len(t, h.SkillsNormalized, len(h.Skills))
		assert.NotEmpty(t, h.CategoriesNormalized)
		assert.True(t, models.ValidAvailability(h.Availability))
	}

	var requests []models.Request
	require.NoError(t, db.Find(&requests).Error)
	require.Len(t, requests, 4)
	for _, r := range requests {
		assert.Equal(t, models.RequestStatusOpen, r.Status)
		assert.LessOrEqual(t, len(r.Title), 120)
		require.NotNil(t, r.Budget)
	}

	// Every seeded human should see at least the requests sharing a skill.
	repo := repository.NewRequestRepository(db)
	h := humans[0]
	available, err := repo.ListAvailable(context.Background(), h.ID, h.SkillsNormalized, 50)
	require.NoError(t, err)
	for _, r := range available {
		shared := false
		for _, s := range h.SkillsNormalized {
			shared = shared || r.SkillsNormalized.Contains(s)
		}
		assert.True(t, shared)
	}

	require.NoError(t, Clear(db))
	var count int64
	require.NoError(t, db.Model(&models.Human{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFactory_DryRunAndPending(t *testing.T) {
	db := testutil.NewDB(t)
	f := NewFactory(db, Options{Humans: 5, DryRun: true, PendingRatio: 1, Seed: 7})

	humans, err := f.CreateHumans(5)
	require.NoError(t, err)
	require.Len(t, humans, 5)
	for _, h := range humans {
		assert.Equal(t, models.ReviewStatusPending, h.ReviewStatus)
	}

	var count int64
	require.NoError(t, db.Model(&models.Human{}).Count(&count).Error)
	assert.Zero(t, count)

	a := NewFactory(db, Options{Seed: 3}).BuildHuman()
	b := NewFactory(db, Options{Seed: 3}).BuildHuman()
	assert.Equal(t, a.DisplayName, b.DisplayName, "a fixed seed is reproducible")
	assert.Equal(t, a.Skills, b.Skills)
}
