package server

import (
	"time"

	"shaasam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// StartVerification handles POST /api/auth/start
// @Summary Send a verification code
// @Description Texts a six digit code to the phone. Outside production with no SMS provider the code is echoed as devCode.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{phone=string} true "Phone number"
// @Success 200 {object} service.StartResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 501 {object} models.ErrorResponse
// @Router /auth/start [post]
func (s *Server) StartVerification(c *fiber.Ctx) error {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := parseBody(c, &body); err != nil {
		return nil
	}

	result, err := s.verification.Start(requestContext(c), body.Phone)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// Verify handles POST /api/auth/verify
// @Summary Verify a code and sign in
// @Description Creates the human on first verification and sets the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{phone=string,code=string} true "Phone and code"
// @Success 200 {object} object{ok=bool,humanId=string,token=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /auth/verify [post]
func (s *Server) Verify(c *fiber.Ctx) error {
	var body struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := parseBody(c, &body); err != nil {
		return nil
	}

	result, err := s.verification.Verify(requestContext(c), body.Phone, body.Code)
	if err != nil {
		return respondError(c, err)
	}

	c.Cookie(s.sessionCookie(result.Token, time.Now().Add(middleware.SessionTTL)))
	return c.JSON(fiber.Map{
		"ok":      true,
		"humanId": result.HumanID,
		"token":   result.Token,
		"created": result.Created,
	})
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(s.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) sessionCookie(value string, expires time.Time) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(middleware.SessionTTL.Seconds())
	}
	return cookie
}
