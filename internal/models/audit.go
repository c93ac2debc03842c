package models

import "time"

// Actor types recorded on audit entries.
const (
	ActorSystem = "system"
	ActorHuman  = "human"
	ActorAgent  = "agent"
	ActorAdmin  = "admin"
)

// Subject types recorded on audit entries.
const (
	SubjectUser    = "user"
	SubjectRequest = "request"
	SubjectPayment = "payment"
)

// AuditLog is an append-only record of a state change.
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Action      string    `gorm:"size:80;not null;index" json:"action"`
	ActorID     string    `gorm:"size:64;index" json:"actorId,omitempty"`
	ActorType   string    `gorm:"size:16" json:"actorType"`
	SubjectID   string    `gorm:"size:255" json:"subjectId,omitempty"`
	SubjectType string    `gorm:"size:16" json:"subjectType"`
	IP          string    `gorm:"size:64" json:"ip,omitempty"`
	UserAgent   string    `gorm:"size:255" json:"userAgent,omitempty"`
	Meta        JSONMap   `gorm:"type:text" json:"meta,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&Human{},
		&Request{},
		&RequestDecline{},
		&Payment{},
		&Verification{},
		&AuditLog{},
	}
}
