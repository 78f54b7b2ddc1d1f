package util

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var descriptionPolicy = bluemonday.UGCPolicy()

// SanitizeDescription strips scripts and unsafe markup from free-text fields
// that the dashboard renders as HTML.
func SanitizeDescription(input string) string {
	return strings.TrimSpace(descriptionPolicy.Sanitize(input))
}

// StripTags removes all markup, for short single-line fields.
func StripTags(input string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(input))
}
