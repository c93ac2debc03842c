package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shaasam/internal/models"
	"shaasam/internal/observability"
	"shaasam/internal/payments"
	"shaasam/internal/repository"
)

// MinPaymentAmount is the smallest authorization in minor units ($1.00).
const MinPaymentAmount = 100

var allowedCurrencies = map[string]bool{"usd": true}

// SettlementConfig carries fee and onboarding settings.
type SettlementConfig struct {
	PlatformFeeBPS    int
	ConnectReturnURL  string
	ConnectRefreshURL string
}

// AuthorizeInput is an agent's request to hold funds for a human.
type AuthorizeInput struct {
	HumanID   string
	RequestID string
	Amount    int64
	Currency  string
}

// AuthorizeResult is returned to the agent after a hold is created.
type AuthorizeResult struct {
	ID           string `json:"id"`
	ExternalID   string `json:"stripePaymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
}

// PaymentRef locates a payment by local id or processor id.
type PaymentRef struct {
	PaymentID  string
	ExternalID string
}

// StatusResult is the processor status after capture or cancel.
type StatusResult struct {
	ExternalID string `json:"stripePaymentIntentId"`
	Status     string `json:"status"`
}

// SettlementService reconciles local payments with the payment processor.
type SettlementService struct {
	payments  repository.PaymentRepository
	requests  repository.RequestRepository
	humans    repository.HumanRepository
	audit     auditor
	processor payments.Processor
	cfg       SettlementConfig
	now       func() time.Time
}

// NewSettlementService creates a settlement service. A nil processor makes every
// processor-backed operation return NotConfigured.
func NewSettlementService(
	paymentRepo repository.PaymentRepository,
	requests repository.RequestRepository,
	humans repository.HumanRepository,
	audit repository.AuditRepository,
	processor payments.Processor,
	cfg SettlementConfig,
) *SettlementService {
	return &SettlementService{
		payments:  paymentRepo,
		requests:  requests,
		humans:    humans,
		audit:     auditor{repo: audit},
		processor: processor,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Configured reports whether a processor is available.
func (s *SettlementService) Configured() bool {
	return s.processor != nil
}

func (s *SettlementService) requireProcessor() error {
	if s.processor == nil {
		return models.NewNotConfiguredError("Payment processor not configured.")
	}
	return nil
}

// PlatformFee is floor(amount × bps / 10000).
func PlatformFee(amount int64, bps int) int64 {
	if bps <= 0 || amount <= 0 {
		return 0
	}
	return amount * int64(bps) / 10000
}

// Authorize places a manual-capture hold payable to a human's linked account.
func (s *SettlementService) Authorize(ctx context.Context, in AuthorizeInput) (*AuthorizeResult, error) {
	if err := s.requireProcessor(); err != nil {
		return nil, err
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}
	if in.Amount < MinPaymentAmount {
		return nil, models.NewValidationError("Amount must be at least $1.00.")
	}
	if !allowedCurrencies[currency] {
		return nil, models.NewValidationError("Unsupported currency.")
	}

	human, err := s.humans.GetByID(ctx, in.HumanID)
	if err != nil || !human.Verified {
		if err == nil || models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundError("Human", nil)
		}
		return nil, err
	}
	if human.StripeAccountID == "" {
		return nil, models.NewConflictError("Human payout account not connected.")
	}

	var requestID *string
	if in.RequestID != "" {
		if _, err := s.requests.GetByID(ctx, in.RequestID); err != nil {
			return nil, err
		}
		requestID = &in.RequestID
	}

	fee := PlatformFee(in.Amount, s.cfg.PlatformFeeBPS)
	intent, err := s.processor.Authorize(ctx, payments.AuthorizeParams{
		Amount:               in.Amount,
		Currency:             currency,
		DestinationAccount:   human.StripeAccountID,
		ApplicationFeeAmount: fee,
		Metadata: map[string]string{
			"requestId": in.RequestID,
			"humanId":   human.ID,
		},
	})
	if err != nil {
		observability.PaymentActions.WithLabelValues("authorize", "error").Inc()
		return nil, models.NewInternalError(err)
	}

	payment := &models.Payment{
		RequestID:            requestID,
		HumanID:              human.ID,
		Amount:               in.Amount,
		Currency:             currency,
		ExternalID:           intent.ID,
		Status:               intent.Status,
		ApplicationFeeAmount: fee,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		observability.PaymentActions.WithLabelValues("authorize", "error").Inc()
		return nil, err
	}
	observability.PaymentActions.WithLabelValues("authorize", "ok").Inc()

	s.mirror(ctx, payment)
	s.audit.record(ctx, models.AuditLog{
		Action:      "payment.intent.create",
		ActorType:   models.ActorAgent,
		SubjectType: models.SubjectPayment,
		SubjectID:   payment.ID,
		Meta: models.JSONMap{
			"requestId": in.RequestID,
			"humanId":   human.ID,
			"amount":    in.Amount,
			"currency":  currency,
		},
	})

	return &AuthorizeResult{
		ID:           payment.ID,
		ExternalID:   intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       intent.Status,
	}, nil
}

// Capture settles a held payment, optionally for a partial amount.
func (s *SettlementService) Capture(ctx context.Context, ref PaymentRef, amount *int64) (*StatusResult, error) {
	if err := s.requireProcessor(); err != nil {
		return nil, err
	}
	if amount != nil && *amount <= 0 {
		return nil, models.NewValidationError("Invalid capture amount.")
	}
	payment, err := s.locate(ctx, ref)
	if err != nil {
		return nil, err
	}

	var capture int64
	if amount != nil {
		capture = *amount
	}
	intent, err := s.processor.Capture(ctx, payment.ExternalID, capture)
	if err != nil {
		observability.PaymentActions.WithLabelValues("capture", "error").Inc()
		return nil, models.NewInternalError(err)
	}
	return s.applyDirect(ctx, "capture", payment, intent)
}

// Cancel releases a held payment.
func (s *SettlementService) Cancel(ctx context.Context, ref PaymentRef) (*StatusResult, error) {
	if err := s.requireProcessor(); err != nil {
		return nil, err
	}
	payment, err := s.locate(ctx, ref)
	if err != nil {
		return nil, err
	}

	intent, err := s.processor.Cancel(ctx, payment.ExternalID)
	if err != nil {
		observability.PaymentActions.WithLabelValues("cancel", "error").Inc()
		return nil, models.NewInternalError(err)
	}
	return s.applyDirect(ctx, "cancel", payment, intent)
}

func (s *SettlementService) applyDirect(ctx context.Context, action string, payment *models.Payment, intent *payments.Intent) (*StatusResult, error) {
	updated, _, err := s.payments.SetStatus(ctx, payment.ID, intent.Status, s.now())
	if err != nil {
		observability.PaymentActions.WithLabelValues(action, "error").Inc()
		return nil, err
	}
	observability.PaymentActions.WithLabelValues(action, "ok").Inc()

	s.mirror(ctx, updated)
	s.audit.record(ctx, models.AuditLog{
		Action:      "payment." + action,
		ActorType:   models.ActorAgent,
		SubjectType: models.SubjectPayment,
		SubjectID:   payment.ID,
		Meta: models.JSONMap{
			"stripePaymentIntentId": intent.ID,
			"status":                intent.Status,
		},
	})
	return &StatusResult{ExternalID: intent.ID, Status: intent.Status}, nil
}

// Get returns a payment by local id.
func (s *SettlementService) Get(ctx context.Context, id string) (*models.Payment, error) {
	return s.payments.GetByID(ctx, id)
}

// ParseEvent verifies and decodes a processor webhook.
func (s *SettlementService) ParseEvent(payload []byte, signature string) (*payments.Event, error) {
	if err := s.requireProcessor(); err != nil {
		return nil, err
	}
	if signature == "" {
		return nil, models.NewValidationError("Missing signature.")
	}
	evt, err := s.processor.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			slog.Warn("webhook signature verification failed", slog.String("error", err.Error()))
			return nil, models.NewValidationError("Invalid signature.")
		}
		slog.Warn("webhook payload rejected", slog.String("error", err.Error()))
		return nil, models.NewValidationError("Invalid event payload.")
	}
	return evt, nil
}

// ApplyEvent applies a verified processor event. Unknown types and unknown
// payments are ignored; replaying an event leaves state unchanged.
func (s *SettlementService) ApplyEvent(ctx context.Context, evt payments.Event) error {
	if !payments.HandledEvent(evt.Type) {
		observability.PaymentEvents.WithLabelValues(evt.Type, "ignored").Inc()
		return nil
	}

	result := "unknown_payment"
	if evt.ExternalID != "" && evt.Status != "" {
		payment, err := s.payments.GetByExternalID(ctx, evt.ExternalID)
		if err != nil {
			observability.PaymentEvents.WithLabelValues(evt.Type, "error").Inc()
			return err
		}
		if payment != nil {
			updated, changed, err := s.payments.SetStatus(ctx, payment.ID, evt.Status, s.now())
			if err != nil {
				observability.PaymentEvents.WithLabelValues(evt.Type, "error").Inc()
				return err
			}
			result = "unchanged"
			if changed {
				result = "applied"
				s.mirror(ctx, updated)
			}
		}
	}
	observability.PaymentEvents.WithLabelValues(evt.Type, result).Inc()

	s.audit.record(ctx, models.AuditLog{
		Action:      "stripe." + evt.Type,
		ActorType:   models.ActorSystem,
		SubjectType: models.SubjectPayment,
		SubjectID:   evt.ExternalID,
		Meta:        models.JSONMap{"eventId": evt.ID, "result": result},
	})
	return nil
}

// Connect links a payout account to the human when missing and returns the onboarding URL.
func (s *SettlementService) Connect(ctx context.Context, humanID string) (string, error) {
	if err := s.requireProcessor(); err != nil {
		return "", err
	}
	human, err := s.humans.GetByID(ctx, humanID)
	if err != nil {
		return "", err
	}

	accountID := human.StripeAccountID
	if accountID == "" {
		accountID, err = s.processor.CreatePayeeAccount(ctx, human.Email)
		if err != nil {
			return "", models.NewInternalError(err)
		}
		if err := s.humans.SetStripeAccount(ctx, human.ID, accountID); err != nil {
			return "", err
		}
		s.audit.record(ctx, models.AuditLog{
			Action:      "payment.connect",
			ActorID:     human.ID,
			ActorType:   models.ActorHuman,
			SubjectType: models.SubjectUser,
			SubjectID:   human.ID,
		})
	}

	url, err := s.processor.OnboardingLink(ctx, payments.OnboardingLinkParams{
		AccountID:  accountID,
		ReturnURL:  s.cfg.ConnectReturnURL,
		RefreshURL: s.cfg.ConnectRefreshURL,
	})
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return url, nil
}

func (s *SettlementService) locate(ctx context.Context, ref PaymentRef) (*models.Payment, error) {
	if ref.PaymentID == "" && ref.ExternalID == "" {
		return nil, models.NewValidationError("paymentId or paymentIntentId required.")
	}
	if ref.PaymentID != "" {
		p, err := s.payments.GetByID(ctx, ref.PaymentID)
		if err == nil || ref.ExternalID == "" {
			return p, err
		}
	}
	p, err := s.payments.GetByExternalID(ctx, ref.ExternalID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, models.NewNotFoundError("Payment", nil)
	}
	return p, nil
}

// mirror copies payment state onto its request. Failures only log.
func (s *SettlementService) mirror(ctx context.Context, p *models.Payment) {
	if p == nil || p.RequestID == nil {
		return
	}
	if err := s.requests.MirrorPayment(ctx, *p.RequestID, p.ID, p.Status); err != nil {
		slog.WarnContext(ctx, "payment mirror failed",
			slog.String("payment_id", p.ID),
			slog.String("request_id", *p.RequestID),
			slog.Int64("amount", p.Amount),
			slog.String("error", err.Error()))
	}
}
