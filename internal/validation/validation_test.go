package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"e164", "+14155550123", "+14155550123", true},
		{"missing plus", "14155550123", "+14155550123", true},
		{"formatted", " +1 (415) 555-0123 ", "+14155550123", true},
		{"minimum length", "+12345678", "+12345678", true},
		{"too short", "+1234567", "", false},
		{"too long", "+1234567890123456", "", false},
		{"empty", "   ", "", false},
		{"letters only", "call me", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAlias(t *testing.T) {
	assert.Equal(t, "ada-lovelace", NormalizeAlias("  Ada   Lovelace "))
	assert.Equal(t, "a-b-c", NormalizeAlias("--a__b..c--"))
	assert.Equal(t, "", NormalizeAlias("!!!"))
	assert.Equal(t, "", NormalizeAlias(""))
}

func TestValidateAlias(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		valid      bool
		normalized string
		reason     string
	}{
		{"valid", "Grace Hopper", true, "grace-hopper", ""},
		{"invalid chars", "***", false, "", "Use letters and numbers only."},
		{"too short", "ab", false, "ab", "Alias must be at least 3 characters."},
		{"too long", strings.Repeat("x", 25), false, strings.Repeat("x", 25), "Alias must be 24 characters or fewer."},
		{"reserved", "Admin", false, "admin", "That alias is reserved."},
		{"reserved product name", "ShaaSam", false, "shaasam", "That alias is reserved."},
		{"max length", strings.Repeat("y", 24), true, strings.Repeat("y", 24), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateAlias(tt.input)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.normalized, got.Normalized)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}
