package funnel

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	nonDigits    = regexp.MustCompile(`\D`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Digits strips everything that is not an ASCII digit.
func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// ValidatePhone accepts Brazilian numbers with area code: 10 or 11 digits
// once punctuation is removed.
func ValidatePhone(phone string) bool {
	n := len(Digits(phone))
	return n == 10 || n == 11
}

// FormatPhone renders the digits of value as "(DD) NNNN-NNNN" or
// "(DD) NNNNN-NNNN", progressively while the visitor is still typing.
// Digits past the eleventh are dropped.
func FormatPhone(value string) string {
	d := Digits(value)
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 6:
		return "(" + d[:2] + ") " + d[2:]
	case len(d) <= 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		if len(d) > 11 {
			d = d[:11]
		}
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

// ValidateEmail checks the basic local@domain.tld shape.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateName requires at least three characters once trimmed.
func ValidateName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= 3
}
