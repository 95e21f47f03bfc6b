package utils

import (
	"math/rand"
	"strings"
	"unicode"
)

var slugLetters = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

// RandSeq returns a random lowercase alphanumeric string of length n.
func RandSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = slugLetters[rand.Intn(len(slugLetters))]
	}
	return string(b)
}

// GenerateSlug builds a public identifier from a form name plus a random
// suffix so concurrent creators never collide on common names.
func GenerateSlug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		return RandSeq(10)
	}
	return slug + "-" + RandSeq(6)
}
