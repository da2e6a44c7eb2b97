package utils

import (
	"errors"
	"strings"
)

// PINLength is the number of digits in a room PIN.
const PINLength = 6

var ErrInvalidPIN = errors.New("PIN must have exactly 6 digits")

// SanitizePIN keeps only ASCII digits and truncates to PINLength, the way the
// PIN input field filters keystrokes.
func SanitizePIN(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		if b.Len() == PINLength {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidatePIN accepts exactly six digits after trimming whitespace.
func ValidatePIN(pin string) error {
	pin = strings.TrimSpace(pin)
	if len(pin) != PINLength {
		return ErrInvalidPIN
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}

// NormalizePIN accepts display forms such as "123 456" and returns the bare
// digits when they form a valid PIN.
func NormalizePIN(raw string) (string, error) {
	pin := SanitizePIN(strings.ReplaceAll(raw, " ", ""))
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}
	return pin, nil
}

// FormatPIN groups a valid PIN as "XXX XXX"; anything else is returned unchanged.
func FormatPIN(pin string) string {
	if ValidatePIN(pin) != nil {
		return pin
	}
	return pin[:3] + " " + pin[3:]
}
