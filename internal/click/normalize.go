package click

import (
	"regexp"
	"strings"
)

var (
	phone12Regex    = regexp.MustCompile(`^[0-9]{12}$`)
	phone9Regex     = regexp.MustCompile(`^[0-9]{9}$`)
	phone8Regex     = regexp.MustCompile(`^[0-9]{8}$`)
	card12Regex     = regexp.MustCompile(`^[0-9]{12}$`)
	cardDashedRegex = regexp.MustCompile(`^[0-9]{4}-[0-9]{4}-[0-9]{4}-[0-9]{4}$`)
)

// NormalizePhone returns the 12-digit Uzbek form of a phone number, or
// false when the input matches none of the accepted shapes.
func NormalizePhone(phone string) (string, bool) {
	n := strings.TrimLeft(phone, "+")

	switch {
	case phone12Regex.MatchString(n):
		return n, true
	case phone9Regex.MatchString(n):
		return "998" + n, true
	case phone8Regex.MatchString(n):
		return "9989" + n, true
	}
	return "", false
}

func NormalizeCard(card string) (string, bool) {
	if card12Regex.MatchString(card) {
		return card, true
	}
	if cardDashedRegex.MatchString(card) {
		return strings.ReplaceAll(card, "-", ""), true
	}
	return "", false
}
