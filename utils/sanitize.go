package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips all markup from user supplied text. Captions are plain
// text; anything tag-shaped in them is noise at best.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
