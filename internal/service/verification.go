package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"shaasam/internal/cache"
	"shaasam/internal/models"
	"shaasam/internal/observability"
	"shaasam/internal/repository"
	"shaasam/internal/sms"
	"shaasam/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Verification policy.
const (
	CodeLength     = 6
	CodeTTL        = 10 * time.Minute
	ResendWindow   = 60 * time.Second
	MaxOTPAttempts = 5
)

var errResendLocked = models.NewRateLimitedError("Please wait a moment before requesting another code.")

// StartResult is returned after a code is issued.
type StartResult struct {
	Message string `json:"message"`
	DevCode string `json:"devCode,omitempty"`
	// Simulated is true when the code was only logged.
	Simulated bool `json:"-"`
}

// VerifyResult carries the session for a verified human.
type VerifyResult struct {
	HumanID string
	Token   string
	Created bool
}

// VerificationService runs the phone one-time-code flow.
type VerificationService struct {
	verifications repository.VerificationRepository
	humans        repository.HumanRepository
	audit         auditor
	sender        sms.Sender
	sessions      *SessionIssuer
	rdb           *redis.Client
	production    bool
	hashCost      int
	now           func() time.Time
}

// NewVerificationService creates the OTP service. rdb may be nil.
func NewVerificationService(
	verifications repository.VerificationRepository,
	humans repository.HumanRepository,
	audit repository.AuditRepository,
	sender sms.Sender,
	sessions *SessionIssuer,
	rdb *redis.Client,
	production bool,
) *VerificationService {
	return &VerificationService{
		verifications: verifications,
		humans:        humans,
		audit:         auditor{repo: audit},
		sender:        sender,
		sessions:      sessions,
		rdb:           rdb,
		production:    production,
		hashCost:      bcrypt.DefaultCost,
		now:           time.Now,
	}
}

// Start issues a fresh code for rawPhone, superseding any earlier one.
func (s *VerificationService) Start(ctx context.Context, rawPhone string) (*StartResult, error) {
	phone, ok := validation.NormalizePhone(rawPhone)
	if !ok {
		observability.OTPOutcomes.WithLabelValues("start", "invalid").Inc()
		return nil, models.NewValidationError("Enter a valid phone number.")
	}
	if s.sender == nil {
		return nil, models.NewNotConfiguredError("SMS delivery not configured.")
	}

	if err := s.acquireResendLock(ctx, phone); err != nil {
		observability.OTPOutcomes.WithLabelValues("start", "throttled").Inc()
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	now := s.now()
	challenge := &models.Verification{
		Phone:     phone,
		Hash:      string(hash),
		ExpiresAt: now.Add(CodeTTL),
		Attempts:  0,
		CreatedAt: now,
	}
	if err := s.verifications.Replace(ctx, challenge); err != nil {
		return nil, err
	}

	if err := s.sender.Send(ctx, phone, sms.VerificationMessage(code)); err != nil {
		observability.OTPOutcomes.WithLabelValues("start", "send_failed").Inc()
		slog.ErrorContext(ctx, "otp delivery failed", slog.String("error", err.Error()))
		s.discard(ctx, challenge)
		s.releaseResendLock(ctx, phone)
		return nil, models.NewInternalError(fmt.Errorf("send code: %w", err))
	}
	simulated := s.sender.Simulated()
	observability.OTPOutcomes.WithLabelValues("start", "sent").Inc()

	s.audit.record(ctx, models.AuditLog{
		Action:      "auth.otp.start",
		ActorType:   models.ActorHuman,
		SubjectType: models.SubjectUser,
		SubjectID:   phone,
		Meta:        models.JSONMap{"simulated": simulated},
	})

	res := &StartResult{Message: "Verification code sent.", Simulated: simulated}
	if simulated {
		res.Message = "Dev mode: check server logs for the code."
		if !s.production {
			res.DevCode = code
		}
	}
	return res, nil
}

// acquireResendLock enforces the resend window. Redis holds the lock when
// available; otherwise the stored challenge's age decides.
func (s *VerificationService) acquireResendLock(ctx context.Context, phone string) error {
	if s.rdb != nil {
		ok, err := s.rdb.SetNX(ctx, cache.OTPResendKey(phone), "1", cache.OTPResendTTL).Result()
		if err == nil {
			if !ok {
				return errResendLocked
			}
			return nil
		}
		slog.WarnContext(ctx, "otp resend lock unavailable, using stored challenge",
			slog.String("error", err.Error()))
	}

	existing, err := s.verifications.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if existing != nil && s.now().Sub(existing.CreatedAt) < ResendWindow {
		return errResendLocked
	}
	return nil
}

// releaseResendLock lets the phone request again after a failed delivery.
func (s *VerificationService) releaseResendLock(ctx context.Context, phone string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cache.OTPResendKey(phone)).Err(); err != nil {
		slog.WarnContext(ctx, "otp resend lock release failed", slog.String("error", err.Error()))
	}
}

// Verify checks code for rawPhone and signs the human in.
func (s *VerificationService) Verify(ctx context.Context, rawPhone, rawCode string) (*VerifyResult, error) {
	phone, ok := validation.NormalizePhone(rawPhone)
	code := strings.TrimSpace(rawCode)
	if !ok || len(code) != CodeLength {
		observability.OTPOutcomes.WithLabelValues("verify", "invalid").Inc()
		return nil, models.NewValidationError("Invalid verification code.")
	}

	challenge, err := s.verifications.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		observability.OTPOutcomes.WithLabelValues("verify", "missing").Inc()
		return nil, models.NewValidationError("Verification expired. Request a new code.")
	}
	if challenge.Attempts >= MaxOTPAttempts {
		s.discard(ctx, challenge)
		observability.OTPOutcomes.WithLabelValues("verify", "locked").Inc()
		return nil, models.NewRateLimitedError("Too many attempts. Request a new code.")
	}
	if challenge.Expired(s.now()) {
		s.discard(ctx, challenge)
		observability.OTPOutcomes.WithLabelValues("verify", "expired").Inc()
		return nil, models.NewValidationError("Verification expired. Request a new code.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(challenge.Hash), []byte(code)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.NewInternalError(err)
		}
		if incErr := s.verifications.IncrementAttempts(ctx, challenge.ID); incErr != nil {
			return nil, incErr
		}
		observability.OTPOutcomes.WithLabelValues("verify", "mismatch").Inc()
		return nil, models.NewValidationError("Incorrect code.")
	}

	human, created, err := s.humans.UpsertVerified(ctx, phone, s.now())
	if err != nil {
		return nil, err
	}
	s.discard(ctx, challenge)

	token, err := s.sessions.Issue(human.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.OTPOutcomes.WithLabelValues("verify", "verified").Inc()

	s.audit.record(ctx, models.AuditLog{
		Action:      "auth.otp.verify",
		ActorID:     human.ID,
		ActorType:   models.ActorHuman,
		SubjectType: models.SubjectUser,
		SubjectID:   human.ID,
		Meta:        models.JSONMap{"verified": true, "created": created},
	})
	return &VerifyResult{HumanID: human.ID, Token: token, Created: created}, nil
}

func (s *VerificationService) discard(ctx context.Context, v *models.Verification) {
	if err := s.verifications.Delete(ctx, v.ID); err != nil {
		slog.WarnContext(ctx, "verification delete failed", slog.String("error", err.Error()))
	}
}

// generateCode returns a uniformly random six digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
