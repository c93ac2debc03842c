// Package validation canonicalizes phone numbers and aliases.
package validation

import (
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`^\+\d{8,15}$`)

// NormalizePhone returns raw as "+<digits>", or false when it is not 8-15 digits.
func NormalizePhone(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if !strings.HasPrefix(trimmed, "+") {
		trimmed = "+" + trimmed
	}

	var b strings.Builder
	for _, r := range trimmed {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	phone := b.String()
	if !phoneRegex.MatchString(phone) {
		return "", false
	}
	return phone, true
}
