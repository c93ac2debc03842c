package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProcessor implements Processor on the Stripe API with Connect destination charges.
type StripeProcessor struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProcessor returns a processor authenticated with secretKey.
func NewStripeProcessor(secretKey, webhookSecret string) *StripeProcessor {
	return &StripeProcessor{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

// newStripeProcessorWithBackends lets tests point the client at a fake API.
func newStripeProcessorWithBackends(secretKey, webhookSecret string, backends *stripe.Backends) *StripeProcessor {
	return &StripeProcessor{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

// Authorize creates a manual-capture card PaymentIntent transferring to the payee account.
func (s *StripeProcessor) Authorize(ctx context.Context, p AuthorizeParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(p.Amount),
		Currency:           stripe.String(p.Currency),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(p.DestinationAccount),
		},
	}
	if p.ApplicationFeeAmount > 0 {
		params.ApplicationFeeAmount = stripe.Int64(p.ApplicationFeeAmount)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intentFrom(pi), nil
}

// Capture captures an authorized PaymentIntent.
func (s *StripeProcessor) Capture(ctx context.Context, externalID string, amount int64) (*Intent, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	if amount > 0 {
		params.AmountToCapture = stripe.Int64(amount)
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Capture(externalID, params)
	if err != nil {
		return nil, fmt.Errorf("capture payment intent: %w", err)
	}
	return intentFrom(pi), nil
}

// Cancel releases an uncaptured PaymentIntent.
func (s *StripeProcessor) Cancel(ctx context.Context, externalID string) (*Intent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Cancel(externalID, params)
	if err != nil {
		return nil, fmt.Errorf("cancel payment intent: %w", err)
	}
	return intentFrom(pi), nil
}

// CreatePayeeAccount creates an Express connected account able to receive transfers.
func (s *StripeProcessor) CreatePayeeAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type: stripe.String(string(stripe.AccountTypeExpress)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.Context = ctx

	acct, err := s.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("create connected account: %w", err)
	}
	return acct.ID, nil
}

// OnboardingLink returns a hosted onboarding URL for a connected account.
func (s *StripeProcessor) OnboardingLink(ctx context.Context, p OnboardingLinkParams) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(p.AccountID),
		RefreshURL: stripe.String(p.RefreshURL),
		ReturnURL:  stripe.String(p.ReturnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	params.Context = ctx

	link, err := s.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("create account link: %w", err)
	}
	return link.URL, nil
}

// ParseEvent verifies the Stripe-Signature header and extracts the PaymentIntent id and status.
// Refunds are keyed by the charge's PaymentIntent and carry the status "refunded".
func (s *StripeProcessor) ParseEvent(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil || !HandledEvent(out.Type) {
		return out, nil
	}

	if out.Type == EventChargeRefunded {
		var charge stripe.Charge
		if err := json.Unmarshal(evt.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("%w: decode charge: %v", ErrMalformedEvent, err)
		}
		if charge.PaymentIntent != nil {
			out.ExternalID = charge.PaymentIntent.ID
		}
		out.Status = "refunded"
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: decode payment intent: %v", ErrMalformedEvent, err)
	}
	out.ExternalID = pi.ID
	out.Status = string(pi.Status)
	return out, nil
}

func intentFrom(pi *stripe.PaymentIntent) *Intent {
	return &Intent{ID: pi.ID, Status: string(pi.Status), ClientSecret: pi.ClientSecret}
}
