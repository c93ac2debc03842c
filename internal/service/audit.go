// Package service holds the marketplace business logic between HTTP handlers and repositories.
package service

import (
	"context"
	"log/slog"

	"shaasam/internal/models"
	"shaasam/internal/repository"
)

type clientInfoKey struct{}

// ClientInfo is the caller metadata stamped on audit entries.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo returns ctx carrying info for audit entries written during the call.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

func clientInfo(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

// auditor writes audit entries after the primary change has committed.
// A failed write is logged and never fails the caller.
type auditor struct {
	repo repository.AuditRepository
}

func (a auditor) record(ctx context.Context, entry models.AuditLog) {
	if a.repo == nil {
		return
	}
	info := clientInfo(ctx)
	if entry.IP == "" {
		entry.IP = info.IP
	}
	if entry.UserAgent == "" {
		entry.UserAgent = truncate(info.UserAgent, 255)
	}
	if err := a.repo.Record(ctx, &entry); err != nil {
		slog.WarnContext(ctx, "audit write failed",
			slog.String("action", entry.Action),
			slog.String("subject_id", entry.SubjectID),
			slog.String("error", err.Error()))
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
