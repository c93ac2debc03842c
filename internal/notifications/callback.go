package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shaasam/internal/observability"

	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultCallbackTimeout bounds a single callback POST.
	DefaultCallbackTimeout = 3 * time.Second
	callbackUserAgent      = "shaasam-callback/1.0"
)

// CallbackDispatcher POSTs request events to agent-supplied callback URLs.
// Delivery is fire-and-forget: one attempt, failures are logged and counted.
type CallbackDispatcher struct {
	timeout time.Duration
	// done is signalled after each delivery attempt when set. Tests use it to wait.
	done func(url string, err error)
}

// NewCallbackDispatcher creates a dispatcher with the given per-request timeout.
func NewCallbackDispatcher(timeout time.Duration) *CallbackDispatcher {
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}
	return &CallbackDispatcher{timeout: timeout}
}

// Dispatch delivers evt to url in the background.
func (d *CallbackDispatcher) Dispatch(ctx context.Context, url string, evt RequestEvent) {
	if d == nil || url == "" {
		return
	}
	logCtx := context.WithoutCancel(ctx)
	go func() {
		err := d.deliver(url, evt)
		if err != nil {
			observability.CallbackDeliveries.WithLabelValues("failed").Inc()
			slog.WarnContext(logCtx, "request callback failed",
				slog.String("request_id", evt.RequestID),
				slog.String("event", evt.Event),
				slog.String("error", err.Error()))
		} else {
			observability.CallbackDeliveries.WithLabelValues("delivered").Inc()
		}
		if d.done != nil {
			d.done(url, err)
		}
	}()
}

func (d *CallbackDispatcher) deliver(url string, evt RequestEvent) error {
	agent := fiber.Post(url).
		Timeout(d.timeout).
		UserAgent(callbackUserAgent).
		JSON(evt)

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("callback returned status %d", code)
	}
	return nil
}
