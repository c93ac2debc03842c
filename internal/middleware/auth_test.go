package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters-long"

func TestAPIKeyRequired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		header   string
		value    string
		status   int
	}{
		{"open when unconfigured", "", "", "", http.StatusOK},
		{"header key", "agent-key", "X-API-Key", "agent-key", http.StatusOK},
		{"bearer key", "agent-key", "Authorization", "Bearer agent-key", http.StatusOK},
		{"wrong key", "agent-key", "X-API-Key", "nope", http.StatusUnauthorized},
		{"missing key", "agent-key", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := fiber.New()
			app.Get("/", APIKeyRequired(tt.expected), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAdminKeyRequired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		value    string
		status   int
	}{
		{"closed when unconfigured", "", "anything", http.StatusUnauthorized},
		{"matching key", "admin-key", "admin-key", http.StatusOK},
		{"wrong key", "admin-key", "agent-key", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := fiber.New()
			app.Get("/", AdminKeyRequired(tt.expected), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Admin-Key", tt.value)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestSessionToken_RoundTrip(t *testing.T) {
	t.Parallel()

	token, err := NewSessionToken(testSecret, "human-1", time.Now())
	require.NoError(t, err)

	humanID, err := ParseSessionToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "human-1", humanID)

	_, err = ParseSessionToken("another-secret-another-secret-xx", token)
	assert.Error(t, err)

	expired, err := NewSessionToken(testSecret, "human-1", time.Now().Add(-SessionTTL-time.Hour))
	require.NoError(t, err)
	_, err = ParseSessionToken(testSecret, expired)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "human-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := foreign.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseSessionToken(testSecret, signed)
	assert.Error(t, err, "tokens from other issuers are rejected")
}

func TestSessionRequired(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/me", SessionRequired(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalHumanID).(string))
	})

	token, err := NewSessionToken(testSecret, "human-42", time.Now())
	require.NoError(t, err)

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
