// Package middleware provides logging, tracing, rate limiting and access guards.
package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"shaasam/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie carries the human session token for browser clients.
	SessionCookie = "shaasam_session"
	// SessionTTL is the lifetime of a human session.
	SessionTTL = 30 * 24 * time.Hour

	tokenIssuer   = "shaasam-api"
	tokenAudience = "shaasam-client"
)

// HashKey returns the hex SHA-256 of a credential, for use in logs and counters.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func keysEqual(provided, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

// APIKeyRequired guards agent endpoints. With no configured key every caller is allowed.
func APIKeyRequired(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-API-Key")
		if provided == "" {
			provided = bearerToken(c)
		}
		if provided != "" {
			c.Locals(LocalAPIKey, provided)
		}
		if expected == "" {
			return c.Next()
		}
		if provided == "" || !keysEqual(provided, expected) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized"))
		}
		return c.Next()
	}
}

// AdminKeyRequired guards admin endpoints. With no configured key every caller is rejected.
func AdminKeyRequired(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-Admin-Key")
		if provided == "" {
			provided = bearerToken(c)
		}
		if expected == "" || provided == "" || !keysEqual(provided, expected) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized"))
		}
		return c.Next()
	}
}

// NewSessionToken signs a session token for humanID.
func NewSessionToken(secret, humanID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   humanID,
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken validates token and returns the human id it is bound to.
func ParseSessionToken(secret, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

// SessionRequired resolves the human session from a Bearer token or the session cookie.
func SessionRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			token = c.Cookies(SessionCookie)
		}
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized"))
		}

		humanID, err := ParseSessionToken(secret, token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired session"))
		}

		c.Locals(LocalHumanID, humanID)
		c.SetUserContext(WithHumanID(c.UserContext(), humanID))
		return c.Next()
	}
}

// OptionalSession resolves the session when present and never rejects.
func OptionalSession(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			token = c.Cookies(SessionCookie)
		}
		if token != "" {
			if humanID, err := ParseSessionToken(secret, token); err == nil {
				c.Locals(LocalHumanID, humanID)
				c.SetUserContext(WithHumanID(c.UserContext(), humanID))
			}
		}
		return c.Next()
	}
}
