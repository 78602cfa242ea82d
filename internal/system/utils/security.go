package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html"
	"strings"
	"unicode"
)

// GenerateConfirmationToken returns a 64-character hex token used as a
// single-use deletion confirmation secret.
func GenerateConfirmationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate confirmation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// AnonymizedPlaceholder returns a randomized replacement value for a
// personally-identifying field, e.g. "anon-3f2a9c" or
// "anon-3f2a9c@anonymized.invalid" for email fields.
func AnonymizedPlaceholder(field string) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	suffix := hex.EncodeToString(buf)
	if strings.Contains(strings.ToLower(field), "email") {
		return fmt.Sprintf("anon-%s@anonymized.invalid", suffix)
	}
	return "anon-" + suffix
}

func SanitizeString(input string) string {
	trimmed := strings.TrimSpace(input)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, trimmed)
	return html.EscapeString(cleaned)
}
