package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans user generated HTML (task notes) to prevent XSS.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizeStrict strips all markup, used for plain-text fields such as
// usernames and task titles.
func SanitizeStrict(input string) string {
	return strictPolicy.Sanitize(input)
}
