package repository

import (
	"context"

	"shaasam/internal/models"

	"gorm.io/gorm"
)

// AuditRepository appends audit entries.
type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditLog) error
	ListBySubject(ctx context.Context, subjectType, subjectID string, limit int) ([]models.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository returns a gorm-backed AuditRepository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	if entry.Meta == nil {
		entry.Meta = models.JSONMap{}
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *auditRepository) ListBySubject(ctx context.Context, subjectType, subjectID string, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
