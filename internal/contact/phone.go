// Package contact normalizes and validates visitor contact details.
package contact

import (
	"regexp"
	"strings"
)

var (
	nonDigitRx = regexp.MustCompile(`[^\d]`)
	emailRx    = regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
)

// NormalizePhone converts free-form phone text into canonical
// +<countrycode><digits> form, or "" when the input cannot be a phone number.
// Ten-digit numbers are assumed Indian and prefixed +91; 12+ digit numbers
// starting with 91 keep their last ten digits.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	digits := nonDigitRx.ReplaceAllString(raw, "")

	switch {
	case len(digits) >= 12 && strings.HasPrefix(digits, "91"):
		return "+91" + digits[len(digits)-10:]
	case len(digits) == 10:
		return "+91" + digits
	case strings.HasPrefix(raw, "+") && len(digits) >= 10 && len(digits) <= 15:
		return "+" + digits
	case len(digits) >= 11 && len(digits) <= 15:
		return "+" + digits
	default:
		return ""
	}
}

// IsValidMobile reports whether the message reduces to exactly ten digits
// with a leading 6-9 (the Indian mobile numbering rule the lead-capture
// flow enforces). Extra digits anywhere in the message fail validation.
func IsValidMobile(message string) bool {
	digits := nonDigitRx.ReplaceAllString(message, "")
	if len(digits) != 10 {
		return false
	}
	return digits[0] >= '6' && digits[0] <= '9'
}

// ExtractEmail returns the first email address found in the message, or "".
func ExtractEmail(message string) string {
	return emailRx.FindString(message)
}
