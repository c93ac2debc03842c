package server

import (
	"strings"

	"shaasam/internal/middleware"
	"shaasam/internal/models"
	"shaasam/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type paymentRefBody struct {
	PaymentID             string `json:"paymentId"`
	StripePaymentIntentID string `json:"stripePaymentIntentId"`
	Amount                *int64 `json:"amount"`
}

func (b paymentRefBody) ref() service.PaymentRef {
	return service.PaymentRef{
		PaymentID:  strings.TrimSpace(b.PaymentID),
		ExternalID: strings.TrimSpace(b.StripePaymentIntentID),
	}
}

// validUUID reports whether raw is empty or a UUID.
func validUUID(raw string) bool {
	if raw == "" {
		return true
	}
	_, err := uuid.Parse(raw)
	return err == nil
}

// AuthorizePayment handles POST /api/payments/intent
// @Summary Authorize a payment
// @Description Places a manual-capture hold payable to the human's payout account
// @Tags payments
// @Accept json
// @Produce json
// @Param request body object{humanId=string,requestId=string,amount=int,currency=string} true "Authorization"
// @Success 200 {object} service.AuthorizeResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 501 {object} models.ErrorResponse
// @Router /payments/intent [post]
func (s *Server) AuthorizePayment(c *fiber.Ctx) error {
	var body struct {
		HumanID   string `json:"humanId"`
		RequestID string `json:"requestId"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	}
	if err := parseBody(c, &body); err != nil {
		return nil
	}

	humanID := strings.TrimSpace(body.HumanID)
	requestID := strings.TrimSpace(body.RequestID)
	if humanID == "" || !validUUID(humanID) {
		return respondError(c, models.NewValidationError("Invalid humanId."))
	}
	if !validUUID(requestID) {
		return respondError(c, models.NewValidationError("Invalid requestId."))
	}

	result, err := s.settlement.Authorize(requestContext(c), service.AuthorizeInput{
		HumanID:   humanID,
		RequestID: requestID,
		Amount:    body.Amount,
		Currency:  body.Currency,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// CapturePayment handles POST /api/payments/capture
// @Summary Capture a held payment
// @Tags payments
// @Accept json
// @Produce json
// @Param request body paymentRefBody true "Payment reference and optional partial amount"
// @Success 200 {object} service.StatusResult
// @Router /payments/capture [post]
func (s *Server) CapturePayment(c *fiber.Ctx) error {
	var body paymentRefBody
	if err := parseBody(c, &body); err != nil {
		return nil
	}
	if !validUUID(strings.TrimSpace(body.PaymentID)) {
		return respondError(c, models.NewValidationError("Invalid paymentId."))
	}

	result, err := s.settlement.Capture(requestContext(c), body.ref(), body.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// CancelPayment handles POST /api/payments/cancel
// @Summary Release a held payment
// @Tags payments
// @Accept json
// @Produce json
// @Param request body paymentRefBody true "Payment reference"
// @Success 200 {object} service.StatusResult
// @Router /payments/cancel [post]
func (s *Server) CancelPayment(c *fiber.Ctx) error {
	var body paymentRefBody
	if err := parseBody(c, &body); err != nil {
		return nil
	}
	if !validUUID(strings.TrimSpace(body.PaymentID)) {
		return respondError(c, models.NewValidationError("Invalid paymentId."))
	}

	result, err := s.settlement.Cancel(requestContext(c), body.ref())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetPayment handles GET /api/payments/:id
func (s *Server) GetPayment(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	payment, err := s.settlement.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}

// ConnectPayouts handles POST /api/payments/connect
// @Summary Start payout onboarding
// @Description Links a payout account to the signed-in human when missing and returns the onboarding URL
// @Tags payments
// @Produce json
// @Success 200 {object} object{url=string}
// @Failure 501 {object} models.ErrorResponse
// @Router /payments/connect [post]
func (s *Server) ConnectPayouts(c *fiber.Ctx) error {
	humanID := c.Locals(middleware.LocalHumanID).(string)

	url, err := s.settlement.Connect(requestContext(c), humanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// PaymentWebhook handles POST /api/webhooks/payment
// @Summary Payment processor webhook
// @Description Verified with the Stripe-Signature header. Replays are acknowledged and leave state unchanged.
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} object{received=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /webhooks/payment [post]
func (s *Server) PaymentWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)

	evt, err := s.settlement.ParseEvent(payload, c.Get("Stripe-Signature"))
	if err != nil {
		return respondError(c, err)
	}
	if err := s.settlement.ApplyEvent(requestContext(c), *evt); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"received": true})
}
