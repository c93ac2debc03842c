package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verification is the single live OTP challenge for a phone number.
type Verification struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Phone     string    `gorm:"size:20;not null;uniqueIndex"`
	Hash      string    `gorm:"size:100;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Attempts  int       `gorm:"not null;default:0"`
	CreatedAt time.Time
}

// BeforeCreate assigns a UUID when none is set.
func (v *Verification) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the challenge is past its expiry at now.
func (v *Verification) Expired(now time.Time) bool {
	return v.ExpiresAt.Before(now)
}
