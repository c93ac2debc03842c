package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"shaasam/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HumanSearch is a store-level directory query. Skills and Categories hold
// normalized values and are ANDed.
type HumanSearch struct {
	RequireReview bool
	Skills        []string
	Categories    []string
	Availability  string
	MinRate       float64
	MaxRate       float64
	Query         string
	Offset        int
	Limit         int
}

// HumanReview holds the moderation fields an admin may change. Nil fields are left untouched.
type HumanReview struct {
	ReviewStatus *models.ReviewStatus
	Status       *models.AccountStatus
	ReviewNotes  *string
}

// HumanRepository defines persistence operations for humans.
type HumanRepository interface {
	GetByID(ctx context.Context, id string) (*models.Human, error)
	GetByPhone(ctx context.Context, phone string) (*models.Human, error)
	UpsertVerified(ctx context.Context, phone string, now time.Time) (*models.Human, bool, error)
	UpdateProfile(ctx context.Context, human *models.Human) error
	AliasTaken(ctx context.Context, normalized, excludeID string) (bool, error)
	Search(ctx context.Context, q HumanSearch) ([]models.Human, error)
	ListForAdmin(ctx context.Context, reviewStatus, status string, limit int) ([]models.Human, error)
	Review(ctx context.Context, id string, review HumanReview) (*models.Human, error)
	SetStripeAccount(ctx context.Context, id, accountID string) error
}

type humanRepository struct {
	db *gorm.DB
}

// NewHumanRepository returns a gorm-backed HumanRepository.
func NewHumanRepository(db *gorm.DB) HumanRepository {
	return &humanRepository{db: db}
}

func (r *humanRepository) GetByID(ctx context.Context, id string) (*models.Human, error) {
	var human models.Human
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&human).Error; err != nil {
		return nil, notFoundOr(err, "Profile")
	}
	return &human, nil
}

// GetByPhone returns nil without error when no human holds phone.
func (r *humanRepository) GetByPhone(ctx context.Context, phone string) (*models.Human, error) {
	var human models.Human
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&human).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &human, nil
}

// UpsertVerified marks the human holding phone as verified, creating it as
// pending and active on first sight. The bool reports whether it was created.
func (r *humanRepository) UpsertVerified(ctx context.Context, phone string, now time.Time) (*models.Human, bool, error) {
	candidateID := uuid.NewString()
	candidate := &models.Human{
		ID:           candidateID,
		Phone:        phone,
		Verified:     true,
		VerifiedAt:   &now,
		ReviewStatus: models.ReviewStatusPending,
		Status:       models.AccountStatusActive,
		Availability: models.AvailabilityWeekdays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]any{
			"verified":    true,
			"verified_at": now,
			"updated_at":  now,
		}),
	}).Create(candidate).Error
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}

	human, err := r.GetByPhone(ctx, phone)
	if err != nil {
		return nil, false, err
	}
	if human == nil {
		return nil, false, models.NewInternalError(errors.New("upserted human missing"))
	}
	return human, human.ID == candidateID, nil
}

var profileColumns = []string{
	"alias", "alias_normalized", "email", "display_name", "headline", "bio",
	"skills", "skills_normalized", "categories", "categories_normalized",
	"hourly_rate", "location", "availability", "updated_at",
}

// UpdateProfile writes the self-service profile fields of human. A taken alias is a Conflict.
func (r *humanRepository) UpdateProfile(ctx context.Context, human *models.Human) error {
	human.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(human).Select(profileColumns).Updates(human)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("Alias already taken.")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", nil)
	}
	return nil
}

func (r *humanRepository) AliasTaken(ctx context.Context, normalized, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Human{}).Where("alias_normalized = ?", normalized)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *humanRepository) eligible(q *gorm.DB, requireReview bool) *gorm.DB {
	q = q.Where("verified = ? AND status = ?", true, models.AccountStatusActive)
	if requireReview {
		q = q.Where("review_status = ?", models.ReviewStatusApproved)
	}
	return q
}

// Search returns eligible humans matching s, most recently updated first.
func (r *humanRepository) Search(ctx context.Context, s HumanSearch) ([]models.Human, error) {
	q := r.eligible(r.db.WithContext(ctx).Model(&models.Human{}), s.RequireReview)

	for _, skill := range s.Skills {
		q = q.Where(`skills_normalized LIKE ? ESCAPE '\'`, models.TagPattern(skill))
	}
	for _, category := range s.Categories {
		q = q.Where(`categories_normalized LIKE ? ESCAPE '\'`, models.TagPattern(category))
	}
	if s.Availability != "" {
		q = q.Where("availability = ?", s.Availability)
	}
	q = q.Where("hourly_rate >= ? AND hourly_rate <= ?", s.MinRate, s.MaxRate)

	if s.Query != "" {
		p := "%" + models.EscapeLike(strings.ToLower(s.Query)) + "%"
		q = q.Where(`(LOWER(display_name) LIKE ? ESCAPE '\' OR LOWER(headline) LIKE ? ESCAPE '\' OR LOWER(bio) LIKE ? ESCAPE '\' OR LOWER(skills) LIKE ? ESCAPE '\' OR LOWER(categories) LIKE ? ESCAPE '\')`,
			p, p, p, p, p)
	}

	var humans []models.Human
	err := q.Order("updated_at DESC").Offset(s.Offset).Limit(s.Limit).Find(&humans).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return humans, nil
}

func (r *humanRepository) ListForAdmin(ctx context.Context, reviewStatus, status string, limit int) ([]models.Human, error) {
	q := r.db.WithContext(ctx).Model(&models.Human{})
	if reviewStatus != "" {
		q = q.Where("review_status = ?", reviewStatus)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var humans []models.Human
	if err := q.Order("created_at DESC").Limit(limit).Find(&humans).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return humans, nil
}

func (r *humanRepository) Review(ctx context.Context, id string, review HumanReview) (*models.Human, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if review.ReviewStatus != nil {
		updates["review_status"] = *review.ReviewStatus
	}
	if review.Status != nil {
		updates["status"] = *review.Status
	}
	if review.ReviewNotes != nil {
		updates["review_notes"] = *review.ReviewNotes
	}

	res := r.db.WithContext(ctx).Model(&models.Human{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("User", nil)
	}
	return r.GetByID(ctx, id)
}

func (r *humanRepository) SetStripeAccount(ctx context.Context, id, accountID string) error {
	res := r.db.WithContext(ctx).Model(&models.Human{}).Where("id = ?", id).
		Updates(map[string]any{"stripe_account_id": accountID, "updated_at": time.Now()})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", nil)
	}
	return nil
}
