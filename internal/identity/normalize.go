package identity

import (
	"regexp"
	"strings"
)

// nonDigitRe matches any non-digit character.
var nonDigitRe = regexp.MustCompile(`\D`)

// PhoneKeys holds the canonical comparison keys derived from a phone-like
// identifier. Digits is the digits-only form; Last10 is set only when the
// number has at least ten digits and tolerates country-code prefixing
// inconsistencies ("+15551234567" vs "5551234567").
type PhoneKeys struct {
	Digits string
	Last10 string
}

// Empty reports whether no usable key could be derived.
func (k PhoneKeys) Empty() bool {
	return k.Digits == ""
}

// NormalizePhone strips all non-digit characters (parentheses, dashes,
// spaces, leading "+") from raw and returns the candidate lookup keys.
// It never fails; an input with no digits yields an empty key set.
// No locale-aware validation is attempted.
func NormalizePhone(raw string) PhoneKeys {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	keys := PhoneKeys{Digits: digits}
	if len(digits) >= 10 {
		keys.Last10 = digits[len(digits)-10:]
	}
	return keys
}

// NormalizeEmail returns the canonical comparison key for an email-like
// identifier: the lower-cased, trimmed string.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
