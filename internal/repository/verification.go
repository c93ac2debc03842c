package repository

import (
	"context"
	"errors"

	"shaasam/internal/models"

	"gorm.io/gorm"
)

// VerificationRepository stores OTP challenges, at most one per phone.
type VerificationRepository interface {
	Replace(ctx context.Context, v *models.Verification) error
	GetByPhone(ctx context.Context, phone string) (*models.Verification, error)
	IncrementAttempts(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type verificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository returns a gorm-backed VerificationRepository.
func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// Replace deletes any challenge for v.Phone and inserts v in one transaction.
func (r *verificationRepository) Replace(ctx context.Context, v *models.Verification) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone = ?", v.Phone).Delete(&models.Verification{}).Error; err != nil {
			return err
		}
		return tx.Create(v).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByPhone returns nil without error when phone has no live challenge.
func (r *verificationRepository) GetByPhone(ctx context.Context, phone string) (*models.Verification, error) {
	var v models.Verification
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &v, nil
}

func (r *verificationRepository) IncrementAttempts(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.Verification{}).Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *verificationRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Verification{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
