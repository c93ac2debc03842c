package service

import (
	"context"
	"strings"
	"testing"

	"shaasam/internal/models"
	"shaasam/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestProfileUpdate(t *testing.T) {
	r := newRepos(t)
	svc := NewProfileService(r.humans, r.audit, nil)
	ctx := context.Background()
	h := testutil.CreateHuman(t, r.db, testutil.HumanOpts{})

	out, err := svc.Update(ctx, h.ID, ProfileUpdate{
		Alias:       strPtr("Ada Lovelace"),
		DisplayName: "  Ada  ",
		Bio:         strings.Repeat("b", 1500),
		Skills:      "debugging, devops, not-a-skill",
		HourlyRate:  120,
	})
	require.NoError(t, err)
	assert.Equal(t, "ada-lovelace", out.Alias)
	assert.Equal(t, "Ada", out.DisplayName)
	assert.Len(t, out.Bio, maxBio)
	assert.Equal(t, models.AvailabilityWeekdays, out.Availability)
	assert.Equal(t, models.StringList{"Debugging", "DevOps"}, out.Skills)
	assert.Equal(t, models.StringList{"Debugging", "Ops"}, out.Categories)
	require.NotNil(t, out.SuggestedRate)
	assert.Equal(t, 120.0, *out.SuggestedRate)

	stored, err := r.humans.GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TagList{"debugging", "ops"}, stored.CategoriesNormalized)
	require.NotNil(t, stored.AliasNormalized)

	out, err = svc.Update(ctx, h.ID, ProfileUpdate{DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada-lovelace", out.Alias, "a nil alias is left alone")

	out, err = svc.Update(ctx, h.ID, ProfileUpdate{Alias: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, out.Alias)
	assert.Nil(t, out.AliasNormalized)

	logs, err := r.audit.ListBySubject(ctx, models.SubjectUser, h.ID, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestProfileUpdate_Rejections(t *testing.T) {
	r := newRepos(t)
	svc := NewProfileService(r.humans, r.audit, nil)
	ctx := context.Background()
	holder := testutil.CreateHuman(t, r.db, testutil.HumanOpts{})
	h := testutil.CreateHuman(t, r.db, testutil.HumanOpts{})

	_, err := svc.Update(ctx, holder.ID, ProfileUpdate{Alias: strPtr("taken-name")})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   ProfileUpdate
		code string
		msg  string
	}{
		{"alias taken", ProfileUpdate{Alias: strPtr("Taken Name")}, models.CodeConflict, "Alias already taken."},
		{"alias reserved", ProfileUpdate{Alias: strPtr("admin")}, models.CodeValidation, "That alias is reserved."},
		{"alias short", ProfileUpdate{Alias: strPtr("ab")}, models.CodeValidation, "Alias must be at least 3 characters."},
		{"availability", ProfileUpdate{Availability: "always"}, models.CodeValidation, "Invalid availability."},
		{"negative rate", ProfileUpdate{HourlyRate: -1}, models.CodeValidation, "Hourly rate must be zero or more."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, h.ID, tt.in)
			code, msg := appCode(t, err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, msg)
		})
	}

	stored, err := r.humans.GetByID(ctx, holder.ID)
	require.NoError(t, err)
	assert.Equal(t, "taken-name", stored.Alias, "the holder keeps the alias")
}

func TestProfileCheckAlias(t *testing.T) {
	r := newRepos(t)
	svc := NewProfileService(r.humans, r.audit, nil)
	ctx := context.Background()
	holder := testutil.CreateHuman(t, r.db, testutil.HumanOpts{})
	_, err := svc.Update(ctx, holder.ID, ProfileUpdate{Alias: strPtr("night-owl")})
	require.NoError(t, err)

	res, err := svc.CheckAlias(ctx, "Night Owl", "")
	require.NoError(t, err)
	assert.Equal(t, &AliasAvailability{Available: false, Alias: "night-owl", Reason: "Alias already taken."}, res)

	res, err = svc.CheckAlias(ctx, "night-owl", holder.ID)
	require.NoError(t, err)
	assert.True(t, res.Available, "the holder's own alias is available to them")

	res, err = svc.CheckAlias(ctx, "!!", "")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, "Use letters and numbers only.", res.Reason)

	res, err = svc.CheckAlias(ctx, "early-bird", "")
	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestReview(t *testing.T) {
	r := newRepos(t)
	_, rdb := newRedis(t)
	matching := NewMatchingService(r.humans, rdb, true)
	svc := NewReviewService(r.humans, r.audit, matching)
	ctx := context.Background()

	pending := testutil.CreateHuman(t, r.db, testutil.HumanOpts{Review: models.ReviewStatusPending})
	testutil.CreateHuman(t, r.db, testutil.HumanOpts{})

	list, err := svc.List(ctx, "pending", "", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)
	assert.Empty(t, list[0].Phone)

	_, err = svc.List(ctx, "maybe", "", 0)
	code, _ := appCode(t, err)
	assert.Equal(t, models.CodeValidation, code)

	_, err = matching.GetEligible(ctx, pending.ID)
	require.Error(t, err)

	_, err = svc.Review(ctx, pending.ID, ReviewInput{})
	_, msg := appCode(t, err)
	assert.Equal(t, "Nothing to update.", msg)

	_, err = svc.Review(ctx, pending.ID, ReviewInput{Notes: strPtr(strings.Repeat("n", 801))})
	_, msg = appCode(t, err)
	assert.Equal(t, "Review notes are too long.", msg)

	_, err = svc.Review(ctx, pending.ID, ReviewInput{ReviewStatus: "approved-ish"})
	_, msg = appCode(t, err)
	assert.Equal(t, "Invalid review status.", msg)

	reviewed, err := svc.Review(ctx, pending.ID, ReviewInput{ReviewStatus: "Approved", Notes: strPtr("looks good")})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, reviewed.ReviewStatus)
	assert.Equal(t, "looks good", reviewed.ReviewNotes)
	assert.Empty(t, reviewed.Phone)

	pub, err := matching.GetEligible(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, pub.ID)

	_, err = svc.Review(ctx, "00000000-0000-0000-0000-000000000000", ReviewInput{Status: "suspended"})
	_, msg = appCode(t, err)
	assert.Equal(t, "User not found.", msg)

	logs, err := r.audit.ListBySubject(ctx, models.SubjectUser, pending.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "admin.user.review", logs[0].Action)
	assert.Equal(t, models.ActorAdmin, logs[0].ActorType)
}
