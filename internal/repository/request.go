package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"shaasam/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const notDeclinedBy = "NOT EXISTS (SELECT 1 FROM request_declines WHERE request_declines.request_id = requests.id AND request_declines.human_id = ?)"

// RequestRepository defines persistence operations for requests. Every
// transition is a single conditional UPDATE; a transition whose precondition
// no longer holds returns ErrTransitionConflict.
type RequestRepository interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, status models.RequestStatus, limit int) ([]models.Request, error)
	ListAvailable(ctx context.Context, humanID string, skills []string, limit int) ([]models.Request, error)
	ListAccepted(ctx context.Context, humanID string, limit int) ([]models.Request, error)
	Accept(ctx context.Context, id, humanID string, now time.Time) (*models.Request, error)
	Start(ctx context.Context, id, humanID string, now time.Time) (*models.Request, error)
	Complete(ctx context.Context, id, humanID string, now time.Time) (*models.Request, error)
	Decline(ctx context.Context, id, humanID string, now time.Time) error
	HasDeclined(ctx context.Context, id, humanID string) (bool, error)
	MirrorPayment(ctx context.Context, id, paymentID, status string) error
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a gorm-backed RequestRepository.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *models.Request) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFoundOr(err, "Request")
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, status models.RequestStatus, limit int) ([]models.Request, error) {
	q := r.db.WithContext(ctx).Model(&models.Request{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Request
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// ListAvailable returns open requests humanID has not declined. When skills is
// non-empty only requests sharing one of them, or requiring none, are returned.
func (r *requestRepository) ListAvailable(ctx context.Context, humanID string, skills []string, limit int) ([]models.Request, error) {
	q := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("status = ?", models.RequestStatusOpen).
		Where(notDeclinedBy, humanID)

	if len(skills) > 0 {
		conds := []string{"skills_normalized IS NULL", "skills_normalized = ''"}
		args := make([]any, 0, len(skills))
		for _, skill := range skills {
			conds = append(conds, `skills_normalized LIKE ? ESCAPE '\'`)
			args = append(args, models.TagPattern(skill))
		}
		q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	var out []models.Request
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// ListAccepted returns the requests bound to humanID, most recently updated first.
func (r *requestRepository) ListAccepted(ctx context.Context, humanID string, limit int) ([]models.Request, error) {
	var out []models.Request
	err := r.db.WithContext(ctx).
		Where("accepted_by = ? AND status IN ?", humanID, []models.RequestStatus{
			models.RequestStatusAccepted, models.RequestStatusInProgress, models.RequestStatusCompleted,
		}).
		Order("updated_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// Accept claims an open request for humanID. A human who declined the request cannot claim it.
func (r *requestRepository) Accept(ctx context.Context, id, humanID string, now time.Time) (*models.Request, error) {
	res := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND status = ?", id, models.RequestStatusOpen).
		Where(notDeclinedBy, humanID).
		Updates(map[string]any{
			"status":      models.RequestStatusAccepted,
			"accepted_by": humanID,
			"accepted_at": now,
			"updated_at":  now,
		})
	return r.afterTransition(ctx, id, res)
}

func (r *requestRepository) Start(ctx context.Context, id, humanID string, now time.Time) (*models.Request, error) {
	res := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND accepted_by = ? AND status = ?", id, humanID, models.RequestStatusAccepted).
		Updates(map[string]any{
			"status":     models.RequestStatusInProgress,
			"started_at": now,
			"updated_at": now,
		})
	return r.afterTransition(ctx, id, res)
}

func (r *requestRepository) Complete(ctx context.Context, id, humanID string, now time.Time) (*models.Request, error) {
	res := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND accepted_by = ? AND status IN ?", id, humanID, models.SourcesFor(models.RequestStatusCompleted)).
		Updates(map[string]any{
			"status":       models.RequestStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		})
	return r.afterTransition(ctx, id, res)
}

func (r *requestRepository) afterTransition(ctx context.Context, id string, res *gorm.DB) (*models.Request, error) {
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrTransitionConflict
	}
	return r.GetByID(ctx, id)
}

// Decline adds humanID to the decline set of the request and touches its
// updated_at. Repeating it is a no-op.
func (r *requestRepository) Decline(ctx context.Context, id, humanID string, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RequestDecline{RequestID: id, HumanID: humanID, CreatedAt: now})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return tx.Model(&models.Request{}).Where("id = ?", id).UpdateColumn("updated_at", now).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) HasDeclined(ctx context.Context, id, humanID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RequestDecline{}).
		Where("request_id = ? AND human_id = ?", id, humanID).Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// MirrorPayment copies a payment's id and status onto its request.
func (r *requestRepository) MirrorPayment(ctx context.Context, id, paymentID, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Request{}).Where("id = ?", id).
		Updates(map[string]any{
			"payment_id":     paymentID,
			"payment_status": status,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Request", nil)
	}
	return nil
}

// IsTransitionConflict reports whether err came from a failed conditional transition.
func IsTransitionConflict(err error) bool {
	return errors.Is(err, ErrTransitionConflict)
}
