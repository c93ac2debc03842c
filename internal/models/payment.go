package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses mirrored from the processor vocabulary.
const (
	PaymentStatusRequiresCapture = "requires_capture"
	PaymentStatusProcessing      = "processing"
	PaymentStatusSucceeded       = "succeeded"
	PaymentStatusCanceled        = "canceled"
	PaymentStatusRefunded        = "refunded"
)

var paymentStatuses = []string{
	PaymentStatusRequiresCapture,
	PaymentStatusProcessing,
	PaymentStatusSucceeded,
	PaymentStatusCanceled,
	PaymentStatusRefunded,
}

// CanPaymentTransition reports whether a payment in from may move to to.
// canceled and refunded are final and succeeded may only be refunded.
// Other processor statuses are treated as pending.
func CanPaymentTransition(from, to string) bool {
	if from == to {
		return false
	}
	switch from {
	case PaymentStatusCanceled, PaymentStatusRefunded:
		return false
	case PaymentStatusSucceeded:
		return to == PaymentStatusRefunded
	}
	return true
}

// PaymentStatusesBlocking returns the known statuses a payment may not leave for to.
func PaymentStatusesBlocking(to string) []string {
	out := []string{to}
	for _, from := range paymentStatuses {
		if from != to && !CanPaymentTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// Payment is the local record of a processor authorization.
type Payment struct {
	ID                   string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	RequestID            *string    `gorm:"type:varchar(36);index" json:"requestId"`
	HumanID              string     `gorm:"type:varchar(36);not null;index" json:"humanId"`
	Amount               int64      `gorm:"not null" json:"amount"`
	Currency             string     `gorm:"size:3;not null" json:"currency"`
	ExternalID           string     `gorm:"size:255;not null;uniqueIndex" json:"stripePaymentIntentId"`
	Status               string     `gorm:"size:40;not null;index" json:"status"`
	ApplicationFeeAmount int64      `gorm:"not null;default:0" json:"applicationFeeAmount"`
	CapturedAt           *time.Time `json:"capturedAt"`
	CanceledAt           *time.Time `json:"canceledAt"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set.
func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
