// Package email derives display names from email addresses. Mirrors the
// backend trigger's fallback when a sign-up carries no full name.
package email

import (
	"strings"
	"unicode"
)

// DeriveFullName builds a presentable name from the address's local part:
// "jean.dupont@example.com" → "Jean Dupont". Separator runs collapse; an
// unusable local part falls back to "User".
func DeriveFullName(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User"
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
