package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips markup from user-supplied free text (bio, notes, feedback).
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
