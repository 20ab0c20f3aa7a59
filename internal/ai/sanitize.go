package ai

import (
	"regexp"
	"strings"
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Sanitize collapses runs of three or more newlines to two and trims the
// reply. ok is false when the reply is a raw JSON error payload that must
// never reach a student.
func Sanitize(content string) (clean string, ok bool) {
	clean = strings.TrimSpace(excessNewlines.ReplaceAllString(content, "\n\n"))
	if strings.HasPrefix(clean, "{") && strings.Contains(clean, `"error"`) {
		return "", false
	}
	return clean, true
}
