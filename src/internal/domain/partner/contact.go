package partner

import (
	"net/mail"
	"regexp"
	"strings"
)

// ===========================
// PhoneNumber value object
// ===========================

// PhoneNumber is an E.164 number used for SMS notifications.
type PhoneNumber struct {
	value string
}

var e164Pattern = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// NewPhoneNumber strips spaces, dashes and parentheses, then requires E.164.
//
//	p, err := NewPhoneNumber("+1 (555) 010-0199") // "+15550100199"
func NewPhoneNumber(value string) (PhoneNumber, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, value)

	if !e164Pattern.MatchString(cleaned) {
		return PhoneNumber{}, ErrInvalidPhoneNumber.WithContext("phone", value)
	}
	return PhoneNumber{value: cleaned}, nil
}

func (p PhoneNumber) String() string {
	return p.value
}

func (p PhoneNumber) Equals(other PhoneNumber) bool {
	return p.value == other.value
}

// IsZero reports whether no number is set.
func (p PhoneNumber) IsZero() bool {
	return p.value == ""
}

// normalizeEmail lowercases and validates an address; empty is allowed.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidPartner.WithContext("email", email, "reason", "malformed email")
	}
	return email, nil
}
