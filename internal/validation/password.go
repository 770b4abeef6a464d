package validation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"qwerty123":   {},
	"iloveyou":    {},
	"letmein1":    {},
	"welcome1":    {},
	"campus123":   {},
	"student123":  {},
	"admin123":    {},
}

// ValidatePassword applies the account password policy: 8 to 128
// characters, at least one letter and one digit, and not a well-known password.
// email is rejected as a password outright.
func ValidatePassword(password, email string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return errors.New("This password is too short. It must contain at least 8 characters.")
	}
	if n > maxPasswordLength {
		return errors.New("This password is too long. It must contain at most 128 characters.")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return errors.New("This password is entirely numeric.")
	}
	if !hasDigit {
		return errors.New("This password must contain at least one digit.")
	}

	lower := strings.ToLower(password)
	if _, common := commonPasswords[lower]; common {
		return errors.New("This password is too common.")
	}
	if email != "" {
		local, _, _ := strings.Cut(strings.ToLower(email), "@")
		if lower == strings.ToLower(email) || (len(local) >= 4 && strings.Contains(lower, local)) {
			return errors.New("The password is too similar to the email.")
		}
	}
	return nil
}
