package service

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted, in characters.
const MinPasswordLength = 8

// SpecialCharacters is the set a password must draw at least one character from.
const SpecialCharacters = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// ErrEmptyPassword is returned by ValidatePassword for an empty input. It is a
// caller error and never a *PasswordRuleError.
var ErrEmptyPassword = errors.New("password is empty")

// PasswordRule identifies one password strength rule.
type PasswordRule int

const (
	RuleLength PasswordRule = iota + 1
	RuleDigit
	RuleLower
	RuleUpper
	RuleSpecial
)

// PasswordRuleError reports the first strength rule a password violates.
type PasswordRuleError struct {
	Rule    PasswordRule
	Message string
}

func (e *PasswordRuleError) Error() string { return e.Message }

var passwordRules = []struct {
	rule    PasswordRule
	message string
	ok      func(string) bool
}{
	{RuleLength, "password must be at least 8 characters long", func(p string) bool {
		return utf8.RuneCountInString(p) >= MinPasswordLength
	}},
	{RuleDigit, "password must contain at least one digit", containsRange('0', '9')},
	{RuleLower, "password must contain at least one lowercase letter", containsRange('a', 'z')},
	{RuleUpper, "password must contain at least one uppercase letter", containsRange('A', 'Z')},
	{RuleSpecial, "password must contain at least one special character", func(p string) bool {
		return strings.ContainsAny(p, SpecialCharacters)
	}},
}

// ValidatePassword checks password against the strength rules in order and
// returns the first violation as a *PasswordRuleError, or nil when it passes.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	for _, r := range passwordRules {
		if !r.ok(password) {
			return &PasswordRuleError{Rule: r.rule, Message: r.message}
		}
	}
	return nil
}

func containsRange(lo, hi rune) func(string) bool {
	return func(s string) bool {
		return strings.ContainsFunc(s, func(r rune) bool { return r >= lo && r <= hi })
	}
}
