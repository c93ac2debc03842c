package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus defines lifecycle states for work requests.
type RequestStatus string

const (
	// RequestStatusOpen is visible to eligible humans and claimable.
	RequestStatusOpen RequestStatus = "open"
	// RequestStatusAccepted is bound to exactly one human.
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusInProgress is being worked on by the accepting human.
	RequestStatusInProgress RequestStatus = "in_progress"
	// RequestStatusCompleted is terminal.
	RequestStatusCompleted RequestStatus = "completed"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

var requestTransitions = map[RequestStatus]map[RequestStatus]bool{
	RequestStatusOpen:       {RequestStatusAccepted: true},
	RequestStatusAccepted:   {RequestStatusInProgress: true, RequestStatusCompleted: true},
	RequestStatusInProgress: {RequestStatusCompleted: true},
	RequestStatusCompleted:  {},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to RequestStatus) bool {
	next, ok := requestTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// SourcesFor returns every state that may transition into to.
func SourcesFor(to RequestStatus) []RequestStatus {
	var out []RequestStatus
	for _, from := range []RequestStatus{RequestStatusOpen, RequestStatusAccepted, RequestStatusInProgress, RequestStatusCompleted} {
		if requestTransitions[from][to] {
			out = append(out, from)
		}
	}
	return out
}

// Request is a unit of work posted by an agent.
type Request struct {
	ID                   string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title                string        `gorm:"size:120;not null" json:"title"`
	Description          string        `gorm:"type:text" json:"description"`
	Skills               StringList    `gorm:"type:text" json:"skills"`
	SkillsNormalized     TagList       `gorm:"type:text" json:"-"`
	Categories           StringList    `gorm:"type:text" json:"categories"`
	CategoriesNormalized TagList       `gorm:"type:text" json:"-"`
	Budget               *float64      `json:"budget"`
	CallbackURL          string        `gorm:"size:400" json:"callbackUrl,omitempty"`
	Requester            Requester     `gorm:"embedded;embeddedPrefix:requester_" json:"requester"`
	Status               RequestStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	AcceptedBy           *string       `gorm:"type:varchar(36);index" json:"acceptedBy"`
	AcceptedAt           *time.Time    `json:"acceptedAt"`
	StartedAt            *time.Time    `json:"startedAt"`
	CompletedAt          *time.Time    `json:"completedAt"`
	PaymentID            *string       `gorm:"type:varchar(36)" json:"paymentId"`
	PaymentStatus        string        `gorm:"size:40" json:"paymentStatus,omitempty"`
	CreatedAt            time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// Requester is free-text metadata an agent supplies about itself. It is not trusted.
type Requester struct {
	Name  string `gorm:"size:120" json:"name,omitempty"`
	Org   string `gorm:"size:120" json:"org,omitempty"`
	Email string `gorm:"size:120" json:"email,omitempty"`
}

// BeforeCreate assigns a UUID when none is set.
func (r *Request) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RequestDecline records that a human opted out of a request. The pair is the decline set.
type RequestDecline struct {
	RequestID string    `gorm:"type:varchar(36);primaryKey" json:"requestId"`
	HumanID   string    `gorm:"type:varchar(36);primaryKey" json:"humanId"`
	CreatedAt time.Time `json:"createdAt"`
}

// RequestAction is a human-initiated lifecycle action.
type RequestAction string

const (
	ActionAccept   RequestAction = "accept"
	ActionDecline  RequestAction = "decline"
	ActionStart    RequestAction = "start"
	ActionComplete RequestAction = "complete"
)

// Target returns the status an action moves a request into. Decline has no target.
func (a RequestAction) Target() (RequestStatus, bool) {
	switch a {
	case ActionAccept:
		return RequestStatusAccepted, true
	case ActionStart:
		return RequestStatusInProgress, true
	case ActionComplete:
		return RequestStatusCompleted, true
	}
	return "", false
}

// Valid reports whether a is a known action.
func (a RequestAction) Valid() bool {
	switch a {
	case ActionAccept, ActionDecline, ActionStart, ActionComplete:
		return true
	}
	return false
}
