package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	slug := GenerateSlug("Customer Feedback 2024")
	assert.True(t, strings.HasPrefix(slug, "customer-feedback-2024-"), slug)

	assert.NotEqual(t, GenerateSlug("Contact"), GenerateSlug("Contact"))

	// Empty or all-symbol names still produce a usable slug.
	assert.NotEmpty(t, GenerateSlug(""))
	assert.NotEmpty(t, GenerateSlug("!!!"))
}

func TestSanitizeValue(t *testing.T) {
	assert.Equal(t, "hello", SanitizeValue("  hello  "))
	assert.Equal(t, "hello", SanitizeValue("<script>alert(1)</script>hello"))
	assert.Equal(t, "bold", SanitizeValue("<b>bold</b>"))
}
