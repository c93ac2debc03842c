package service

import (
	"time"

	"shaasam/internal/middleware"
)

// SessionIssuer signs human session tokens.
type SessionIssuer struct {
	secret string
	now    func() time.Time
}

// NewSessionIssuer creates an issuer for the HS256 secret.
func NewSessionIssuer(secret string) *SessionIssuer {
	return &SessionIssuer{secret: secret, now: time.Now}
}

// Issue returns a signed token bound to humanID.
func (s *SessionIssuer) Issue(humanID string) (string, error) {
	return middleware.NewSessionToken(s.secret, humanID, s.now())
}

// Resolve returns the human id a token is bound to.
func (s *SessionIssuer) Resolve(token string) (string, error) {
	return middleware.ParseSessionToken(s.secret, token)
}
