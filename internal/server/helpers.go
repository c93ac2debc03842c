package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"shaasam/internal/middleware"
	"shaasam/internal/models"
	"shaasam/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseUUID extracts a route parameter that must be a UUID.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseUUID(c *fiber.Ctx, param string) (string, error) {
	raw := strings.TrimSpace(c.Params(param))
	id, err := uuid.Parse(raw)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return "", errResponseWritten
	}
	return id.String(), nil
}

// parseBody decodes the JSON body into dest, writing a 400 on failure.
func parseBody(c *fiber.Ctx, dest any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// requestContext returns the user context stamped with the caller's address
// and user agent for audit entries.
func requestContext(c *fiber.Ctx) context.Context {
	return service.WithClientInfo(c.UserContext(), service.ClientInfo{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
}

// queryList reads a list parameter given either repeated (?skill=a&skill=b)
// or comma separated (?skills=a,b).
func queryList(c *fiber.Ctx, names ...string) []string {
	var out []string
	args := c.Context().QueryArgs()
	for _, name := range names {
		for _, raw := range args.PeekMulti(name) {
			for _, part := range strings.Split(string(raw), ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}

// queryFloat returns nil when the parameter is absent or not a number.
func queryFloat(c *fiber.Ctx, name string) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryBool(c *fiber.Ctx, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// respondError writes err with the status implied by its code.
func respondError(c *fiber.Ctx, err error) error {
	if models.StatusFor(err) >= fiber.StatusInternalServerError && !models.IsCode(err, models.CodeNotConfigured) {
		logHandlerError(c, err)
	}
	return models.RespondWithAppError(c, err)
}

func logHandlerError(c *fiber.Ctx, err error) {
	middleware.Logger.ErrorContext(c.UserContext(), "handler failed",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
}
