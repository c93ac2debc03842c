package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shaasam/internal/config"
	"shaasam/internal/middleware"
	"shaasam/internal/payments"
	"shaasam/internal/sms"
	"shaasam/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret   = "test-secret-at-least-32-characters-long"
	testAgentKey = "agent-key"
	testAdminKey = "admin-key"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		Env:               "test",
		AuthSecret:        testSecret,
		APIKey:            testAgentKey,
		AdminKey:          testAdminKey,
		CallbackTimeoutMS: 1000,
	}
}

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

// newTestEnv wires a server over sqlite and miniredis. OTP codes go through
// the simulated sender, so StartVerification echoes them.
func newTestEnv(t *testing.T, cfg *config.Config, processor payments.Processor) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	if cfg == nil {
		cfg = testConfig()
	}
	s := newServer(cfg, db, rdb, backends{processor: processor, sender: sms.SimulatedSender{}})
	return &testEnv{server: s, app: s.newApp(), db: db, mr: mr}
}

type call struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func agentCall(method, path string, body any) call {
	return call{method: method, path: path, body: body, headers: map[string]string{"X-API-Key": testAgentKey}}
}

func humanCall(method, path, token string, body any) call {
	return call{method: method, path: path, body: body, headers: map[string]string{"Authorization": "Bearer " + token}}
}

func (e *testEnv) do(t *testing.T, c call) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if c.body != nil {
		switch b := c.body.(type) {
		case []byte:
			reader = bytes.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(c.method, c.path, reader)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func sessionFor(t *testing.T, humanID string) string {
	t.Helper()
	token, err := middleware.NewSessionToken(testSecret, humanID, time.Now())
	require.NoError(t, err)
	return token
}

// MockProcessor is a mock of the payments.Processor interface
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Authorize(ctx context.Context, p payments.AuthorizeParams) (*payments.Intent, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *MockProcessor) Capture(ctx context.Context, externalID string, amount int64) (*payments.Intent, error) {
	args := m.Called(ctx, externalID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *MockProcessor) Cancel(ctx context.Context, externalID string) (*payments.Intent, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *MockProcessor) CreatePayeeAccount(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockProcessor) OnboardingLink(ctx context.Context, p payments.OnboardingLinkParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockProcessor) ParseEvent(payload []byte, signature string) (*payments.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Event), args.Error(1)
}
