package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizePolicy = bluemonday.StrictPolicy()

// SanitizeValue strips all HTML from a submitted value and trims
// surrounding whitespace. Applied to every submission value before
// validation and storage.
func SanitizeValue(value string) string {
	return strings.TrimSpace(sanitizePolicy.Sanitize(value))
}

// SanitizeValues sanitizes every value of a submission payload.
func SanitizeValues(values map[string]string) map[string]string {
	clean := make(map[string]string, len(values))
	for key, value := range values {
		clean[key] = SanitizeValue(value)
	}
	return clean
}
