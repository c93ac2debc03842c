package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewStatus is the moderation state of a human profile.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Valid reports whether r is a known review status.
func (r ReviewStatus) Valid() bool {
	switch r {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// AccountStatus is the standing of a human account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

// Valid reports whether s is a known account status.
func (s AccountStatus) Valid() bool {
	return s == AccountStatusActive || s == AccountStatusSuspended
}

// Availability values accepted on a profile.
const (
	AvailabilityNow      = "now"
	AvailabilityWeekdays = "weekdays"
	AvailabilityWeekends = "weekends"
	AvailabilityNights   = "nights"
)

// ValidAvailability reports whether v is a known availability value.
func ValidAvailability(v string) bool {
	switch v {
	case AvailabilityNow, AvailabilityWeekdays, AvailabilityWeekends, AvailabilityNights:
		return true
	}
	return false
}

// Human is a verified worker profile keyed by phone number.
type Human struct {
	ID                   string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Phone                string        `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	Alias                string        `gorm:"size:24" json:"alias,omitempty"`
	AliasNormalized      *string       `gorm:"size:24;uniqueIndex" json:"-"`
	Email                string        `gorm:"size:160" json:"email"`
	DisplayName          string        `gorm:"size:80" json:"displayName"`
	Headline             string        `gorm:"size:120" json:"headline"`
	Bio                  string        `gorm:"type:text" json:"bio"`
	Skills               StringList    `gorm:"type:text" json:"skills"`
	SkillsNormalized     TagList       `gorm:"type:text" json:"-"`
	Categories           StringList    `gorm:"type:text" json:"categories"`
	CategoriesNormalized TagList       `gorm:"type:text" json:"-"`
	HourlyRate           float64       `gorm:"not null;default:0;index" json:"hourlyRate"`
	Location             string        `gorm:"size:120" json:"location"`
	Availability         string        `gorm:"size:32;index" json:"availability"`
	Verified             bool          `gorm:"not null;default:false" json:"verified"`
	VerifiedAt           *time.Time    `json:"verifiedAt,omitempty"`
	ReviewStatus         ReviewStatus  `gorm:"type:varchar(20);not null;default:'pending';index" json:"reviewStatus"`
	ReviewNotes          string        `gorm:"type:text" json:"reviewNotes,omitempty"`
	Status               AccountStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	StripeAccountID      string        `gorm:"size:64" json:"stripeAccountId,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `gorm:"index" json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set.
func (h *Human) BeforeCreate(_ *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// EligibleForWork reports whether the human may receive and act on requests.
func (h *Human) EligibleForWork(requireReview bool) bool {
	if !h.Verified || h.Status != AccountStatusActive {
		return false
	}
	return !requireReview || h.ReviewStatus == ReviewStatusApproved
}

// PublicHuman is the directory view of a human. It never carries the phone number.
type PublicHuman struct {
	ID           string    `json:"id"`
	Alias        string    `json:"alias,omitempty"`
	DisplayName  string    `json:"displayName"`
	Headline     string    `json:"headline"`
	Bio          string    `json:"bio"`
	Skills       []string  `json:"skills"`
	Categories   []string  `json:"categories"`
	HourlyRate   float64   `json:"hourlyRate"`
	Location     string    `json:"location"`
	Availability string    `json:"availability"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Score        *float64  `json:"score,omitempty"`
}

// Public returns the directory view of h.
func (h *Human) Public() PublicHuman {
	skills := []string(h.Skills)
	if skills == nil {
		skills = []string{}
	}
	categories := []string(h.Categories)
	if categories == nil {
		categories = []string{}
	}
	return PublicHuman{
		ID:           h.ID,
		Alias:        h.Alias,
		DisplayName:  h.DisplayName,
		Headline:     h.Headline,
		Bio:          h.Bio,
		Skills:       skills,
		Categories:   categories,
		HourlyRate:   h.HourlyRate,
		Location:     h.Location,
		Availability: h.Availability,
		UpdatedAt:    h.UpdatedAt,
	}
}
