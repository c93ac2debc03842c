package repository

import (
	"context"
	"errors"
	"time"

	"shaasam/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error)
	SetStatus(ctx context.Context, id, status string, now time.Time) (*models.Payment, bool, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository returns a gorm-backed PaymentRepository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Payment already recorded.")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, notFoundOr(err, "Payment")
	}
	return &payment, nil
}

// GetByExternalID returns nil without error when no payment carries externalID.
func (r *paymentRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &payment, nil
}

// SetStatus moves a payment to status when models.CanPaymentTransition allows
// it, so late or replayed events never leave a final state. captured_at and
// canceled_at are stamped on the matching status and never overwritten once
// set. The bool reports whether a row changed.
func (r *paymentRepository) SetStatus(ctx context.Context, id, status string, now time.Time) (*models.Payment, bool, error) {
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	switch status {
	case models.PaymentStatusSucceeded:
		updates["captured_at"] = gorm.Expr("COALESCE(captured_at, ?)", now)
	case models.PaymentStatusCanceled:
		updates["canceled_at"] = gorm.Expr("COALESCE(canceled_at, ?)", now)
	}

	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status NOT IN ?", id, models.PaymentStatusesBlocking(status)).
		Updates(updates)
	if res.Error != nil {
		return nil, false, models.NewInternalError(res.Error)
	}

	payment, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return payment, res.RowsAffected > 0, nil
}
