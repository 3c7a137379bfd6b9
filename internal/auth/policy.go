package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// passwordSymbols is the accepted special-character set. It must not shrink
// across releases, or passwords that validated at signup stop validating.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// Every flow normalizes exactly once, at this boundary; the store treats
// emails as opaque strings.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is acceptable: a local part without a
// leading dot or consecutive dots, one domain label, and an alphabetic TLD.
func ValidEmail(email string) bool {
	if strings.HasPrefix(email, ".") || strings.Contains(email, "..") {
		return false
	}
	return emailRe.MatchString(email)
}

// CheckPasswordStrength returns one message per violated rule, empty when the
// password is acceptable: at least 8 characters, an uppercase letter, a
// digit, and a special character.
func CheckPasswordStrength(password string) []string {
	var violations []string

	if utf8.RuneCountInString(password) < 8 {
		violations = append(violations, "must be at least 8 characters long")
	}

	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "must contain a digit")
	}
	if !hasSymbol {
		violations = append(violations, "must contain a special character ("+passwordSymbols+")")
	}

	return violations
}
