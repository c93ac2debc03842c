package validation

import (
	"regexp"
	"strings"
)

const (
	MinAliasLength = 3
	MaxAliasLength = 24
)

var aliasSeparatorRegex = regexp.MustCompile(`[^a-z0-9]+`)

var reservedAliases = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"billing":   {},
	"contact":   {},
	"dashboard": {},
	"help":      {},
	"humans":    {},
	"join":      {},
	"login":     {},
	"profile":   {},
	"requests":  {},
	"root":      {},
	"settings":  {},
	"shaasam":   {},
	"support":   {},
	"system":    {},
}

// AliasResult is the outcome of ValidateAlias.
type AliasResult struct {
	Valid      bool
	Normalized string
	Reason     string
}

// NormalizeAlias lowercases raw and collapses every non-alphanumeric run to a
// single hyphen. An empty result means raw has no usable characters.
func NormalizeAlias(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = aliasSeparatorRegex.ReplaceAllString(normalized, "-")
	return strings.Trim(normalized, "-")
}

// ValidateAlias normalizes raw and checks length and reserved names, in that order.
func ValidateAlias(raw string) AliasResult {
	normalized := NormalizeAlias(raw)
	if normalized == "" {
		return AliasResult{Reason: "Use letters and numbers only."}
	}
	if len(normalized) < MinAliasLength {
		return AliasResult{Normalized: normalized, Reason: "Alias must be at least 3 characters."}
	}
	if len(normalized) > MaxAliasLength {
		return AliasResult{Normalized: normalized, Reason: "Alias must be 24 characters or fewer."}
	}
	if _, reserved := reservedAliases[normalized]; reserved {
		return AliasResult{Normalized: normalized, Reason: "That alias is reserved."}
	}
	return AliasResult{Valid: true, Normalized: normalized}
}
