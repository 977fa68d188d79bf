package utils

import (
	"errors"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidEmail is returned for addresses without a usable local part and domain.
var ErrInvalidEmail = errors.New("invalid email address")

// NormalizeEmail trims and lowercases an address and converts its domain to ASCII (punycode).
func NormalizeEmail(raw string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(raw))
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return "", ErrInvalidEmail
	}
	local, domain := addr[:at], addr[at+1:]
	if strings.ContainsAny(local, " \t\r\n") {
		return "", ErrInvalidEmail
	}
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil || !strings.Contains(ascii, ".") {
		return "", ErrInvalidEmail
	}
	return local + "@" + ascii, nil
}

// SameEmail compares two addresses after normalisation.
func SameEmail(a, b string) bool {
	na, errA := NormalizeEmail(a)
	nb, errB := NormalizeEmail(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return na == nb
}
