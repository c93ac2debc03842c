package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"shaasam/internal/notifications"
	"shaasam/internal/payments"
	"shaasam/internal/repository"
	"shaasam/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-at-least-32-characters-long"

type repos struct {
	db            *gorm.DB
	humans        repository.HumanRepository
	requests      repository.RequestRepository
	payments      repository.PaymentRepository
	verifications repository.VerificationRepository
	audit         repository.AuditRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db := testutil.NewDB(t)
	return repos{
		db:            db,
		humans:        repository.NewHumanRepository(db),
		requests:      repository.NewRequestRepository(db),
		payments:      repository.NewPaymentRepository(db),
		verifications: repository.NewVerificationRepository(db),
		audit:         repository.NewAuditRepository(db),
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.RequestEvent
	err    error
}

func (p *recordingPublisher) PublishRequestEvent(_ context.Context, evt notifications.RequestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) snapshot() []notifications.RequestEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifications.RequestEvent(nil), p.events...)
}

type dispatched struct {
	url string
	evt notifications.RequestEvent
}

type recordingCallbacks struct {
	mu    sync.Mutex
	calls []dispatched
}

func (c *recordingCallbacks) Dispatch(_ context.Context, url string, evt notifications.RequestEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, dispatched{url: url, evt: evt})
}

func (c *recordingCallbacks) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type fakeProcessor struct {
	mu         sync.Mutex
	seq        int
	authorized []payments.AuthorizeParams
	captured   map[string]int64
	accounts   int
	event      *payments.Event
	failNext   bool
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{captured: map[string]int64{}}
}

func (f *fakeProcessor) Authorize(_ context.Context, p payments.AuthorizeParams) (*payments.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, errors.New("card declined")
	}
	f.seq++
	f.authorized = append(f.authorized, p)
	id := fmt.Sprintf("pi_%d", f.seq)
	return &payments.Intent{ID: id, Status: "requires_capture", ClientSecret: id + "_secret"}, nil
}

func (f *fakeProcessor) Capture(_ context.Context, externalID string, amount int64) (*payments.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured[externalID] = amount
	return &payments.Intent{ID: externalID, Status: "succeeded"}, nil
}

func (f *fakeProcessor) Cancel(_ context.Context, externalID string) (*payments.Intent, error) {
	return &payments.Intent{ID: externalID, Status: "canceled"}, nil
}

func (f *fakeProcessor) CreatePayeeAccount(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts++
	return fmt.Sprintf("acct_%d", f.accounts), nil
}

func (f *fakeProcessor) OnboardingLink(_ context.Context, p payments.OnboardingLinkParams) (string, error) {
	return "https://connect.example.com/setup/" + p.AccountID, nil
}

func (f *fakeProcessor) ParseEvent(_ []byte, signature string) (*payments.Event, error) {
	if signature == "valid-garbled" {
		return nil, fmt.Errorf("%w: decode payment intent: unexpected end of JSON input", payments.ErrMalformedEvent)
	}
	if signature != "valid" || f.event == nil {
		return nil, payments.ErrInvalidSignature
	}
	evt := *f.event
	return &evt, nil
}

type fakeSender struct {
	mu        sync.Mutex
	messages  []string
	simulated bool
	err       error
}

func (s *fakeSender) Send(_ context.Context, _ string, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, body)
	return nil
}

func (s *fakeSender) Simulated() bool { return s.simulated }
