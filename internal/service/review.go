package service

import (
	"context"
	"strings"

	"shaasam/internal/models"
	"shaasam/internal/repository"
)

// Admin listing bounds.
const (
	DefaultReviewLimit = 25
	MaxReviewLimit     = 100
	maxReviewNotes     = 800
)

// ReviewInput carries the moderation changes an admin submits. Empty fields are left untouched.
type ReviewInput struct {
	ReviewStatus string
	Status       string
	Notes        *string
}

// ReviewService lets admins moderate human accounts.
type ReviewService struct {
	humans   repository.HumanRepository
	audit    auditor
	matching *MatchingService
}

// NewReviewService creates the admin review service.
func NewReviewService(humans repository.HumanRepository, audit repository.AuditRepository, matching *MatchingService) *ReviewService {
	return &ReviewService{humans: humans, audit: auditor{repo: audit}, matching: matching}
}

// List returns humans newest first, optionally filtered. Phone numbers are stripped.
func (s *ReviewService) List(ctx context.Context, reviewStatus, status string, limit int) ([]models.Human, error) {
	if reviewStatus != "" && !models.ReviewStatus(reviewStatus).Valid() {
		return nil, models.NewValidationError("Invalid review status.")
	}
	if status != "" && !models.AccountStatus(status).Valid() {
		return nil, models.NewValidationError("Invalid status.")
	}
	humans, err := s.humans.ListForAdmin(ctx, reviewStatus, status, clampLimit(limit, DefaultReviewLimit, MaxReviewLimit))
	if err != nil {
		return nil, err
	}
	for i := range humans {
		humans[i].Phone = ""
	}
	return humans, nil
}

// Review applies in to the human identified by id.
func (s *ReviewService) Review(ctx context.Context, id string, in ReviewInput) (*models.Human, error) {
	var review repository.HumanReview
	if in.ReviewStatus != "" {
		rs := models.ReviewStatus(strings.ToLower(strings.TrimSpace(in.ReviewStatus)))
		if !rs.Valid() {
			return nil, models.NewValidationError("Invalid review status.")
		}
		review.ReviewStatus = &rs
	}
	if in.Status != "" {
		st := models.AccountStatus(strings.ToLower(strings.TrimSpace(in.Status)))
		if !st.Valid() {
			return nil, models.NewValidationError("Invalid status.")
		}
		review.Status = &st
	}
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		if len([]rune(notes)) > maxReviewNotes {
			return nil, models.NewValidationError("Review notes are too long.")
		}
		review.ReviewNotes = &notes
	}
	if review.ReviewStatus == nil && review.Status == nil && review.ReviewNotes == nil {
		return nil, models.NewValidationError("Nothing to update.")
	}

	h, err := s.humans.Review(ctx, id, review)
	if err != nil {
		return nil, err
	}
	if s.matching != nil {
		s.matching.Invalidate(ctx, h.ID)
	}

	meta := models.JSONMap{}
	if review.ReviewStatus != nil {
		meta["reviewStatus"] = string(*review.ReviewStatus)
	}
	if review.Status != nil {
		meta["status"] = string(*review.Status)
	}
	s.audit.record(ctx, models.AuditLog{
		Action:      "admin.user.review",
		ActorType:   models.ActorAdmin,
		SubjectType: models.SubjectUser,
		SubjectID:   h.ID,
		Meta:        meta,
	})
	h.Phone = ""
	return h, nil
}
