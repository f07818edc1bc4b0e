package driver

import (
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// EmailDomain is the placeholder domain of derived addresses.
const EmailDomain = "email.com"

// NewDriverExperience is the experience recorded for fresh registrations.
const NewDriverExperience = "New Driver"

const licenseAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DeriveEmail builds the placeholder address for a driver name:
// NFC-normalized, lower-cased, words joined with dots.
//
//	DeriveEmail("John Smith") // "john.smith@email.com"
func DeriveEmail(name string) string {
	n := norm.NFC.String(strings.TrimSpace(name))
	// Casers are stateful; one per call.
	n = cases.Lower(language.Und).String(n)
	return strings.Join(strings.Fields(n), ".") + "@" + EmailDomain
}

// RandomLicense returns a pseudo-random license number of the form
// DL-XXXXXXXXX (nine upper-case base-36 characters).
func RandomLicense() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = licenseAlphabet[rand.IntN(len(licenseAlphabet))]
	}
	return "DL-" + string(b)
}

// Initials returns the upper-cased first letter of every word in name.
func Initials(name string) string {
	var sb strings.Builder
	for _, w := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(w)
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}
