// Package sms delivers verification codes to phone numbers.
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNotConfigured is returned when real delivery is required but no provider is configured.
var ErrNotConfigured = errors.New("sms provider not configured")

// Sender delivers a text message.
type Sender interface {
	Send(ctx context.Context, to, body string) error
	// Simulated reports whether messages are only logged. Callers may then echo codes in dev mode.
	Simulated() bool
}

// Settings selects and configures the provider.
type Settings struct {
	AccountSID string
	AuthToken  string
	From       string
	Production bool
}

// Configured reports whether Twilio credentials are complete.
func (s Settings) Configured() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.From != ""
}

// NewSender returns a Twilio sender when configured, the simulated sender outside
// production, and ErrNotConfigured otherwise.
func NewSender(s Settings) (Sender, error) {
	if s.Configured() {
		return NewTwilioSender(s.AccountSID, s.AuthToken, s.From), nil
	}
	if s.Production {
		return nil, ErrNotConfigured
	}
	return SimulatedSender{}, nil
}

// TwilioSender sends messages through the Twilio Messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a sender authenticated with the account SID and auth token.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

// Send implements Sender.
func (t *TwilioSender) Send(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if resp.Sid != nil {
		slog.InfoContext(ctx, "sms sent", slog.String("sid", *resp.Sid))
	}
	return nil
}

// Simulated implements Sender.
func (t *TwilioSender) Simulated() bool { return false }

// SimulatedSender logs messages instead of sending them.
type SimulatedSender struct{}

// Send implements Sender.
func (SimulatedSender) Send(ctx context.Context, to, body string) error {
	slog.InfoContext(ctx, "sms simulated", slog.String("to", maskPhone(to)), slog.String("body", body))
	return nil
}

// Simulated implements Sender.
func (SimulatedSender) Simulated() bool { return true }

// VerificationMessage is the body of an OTP text.
func VerificationMessage(code string) string {
	return fmt.Sprintf("Your Shaasam verification code is %s", code)
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return "***" + phone[len(phone)-4:]
}
