package gateway

import (
	"strings"
)

// NormalizePhone reduces a phone number to its canonical wire form: digits
// only, prefixed with the configured country code when the prefix is missing.
// The operation is idempotent.
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if countryCode != "" && !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}
	return digits
}

// ValidatePhone ensures a phone number contains at least one digit before
// normalization. Callers get a ValidationError, never a remote round trip.
func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return &ValidationError{Field: "to", Reason: "phone number cannot be empty"}
	}
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			return nil
		}
	}
	return &ValidationError{Field: "to", Reason: "phone number must contain digits"}
}
