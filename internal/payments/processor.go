// Package payments adapts the external payment processor used for escrow-style settlement.
package payments

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when a webhook payload fails signature verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrMalformedEvent is returned when a signed webhook carries an object that cannot be decoded.
var ErrMalformedEvent = errors.New("malformed webhook event")

// Event types the settlement bridge reacts to.
const (
	EventAmountCapturableUpdated = "payment_intent.amount_capturable_updated"
	EventProcessing              = "payment_intent.processing"
	EventSucceeded               = "payment_intent.succeeded"
	EventPaymentFailed           = "payment_intent.payment_failed"
	EventCanceled                = "payment_intent.canceled"
	EventChargeRefunded          = "charge.refunded"
)

// HandledEvent reports whether eventType changes local payment state.
func HandledEvent(eventType string) bool {
	switch eventType {
	case EventAmountCapturableUpdated, EventProcessing, EventSucceeded,
		EventPaymentFailed, EventCanceled, EventChargeRefunded:
		return true
	}
	return false
}

// AuthorizeParams describes a manual-capture authorization routed to a payee account.
type AuthorizeParams struct {
	Amount               int64
	Currency             string
	DestinationAccount   string
	ApplicationFeeAmount int64
	Metadata             map[string]string
}

// Intent is the processor's view of an authorization.
type Intent struct {
	ID           string
	Status       string
	ClientSecret string
}

// Event is a verified webhook notification reduced to what settlement needs.
type Event struct {
	ID         string
	Type       string
	ExternalID string
	Status     string
}

// OnboardingLinkParams configures the payee onboarding redirect.
type OnboardingLinkParams struct {
	AccountID  string
	ReturnURL  string
	RefreshURL string
}

// Processor is the contract settlement relies on.
type Processor interface {
	Authorize(ctx context.Context, p AuthorizeParams) (*Intent, error)
	// Capture settles an authorization; amount 0 captures the full authorized amount.
	Capture(ctx context.Context, externalID string, amount int64) (*Intent, error)
	Cancel(ctx context.Context, externalID string) (*Intent, error)
	CreatePayeeAccount(ctx context.Context, email string) (string, error)
	OnboardingLink(ctx context.Context, p OnboardingLinkParams) (string, error)
	// ParseEvent verifies signature against payload and decodes the event.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
