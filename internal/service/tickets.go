package service

import (
	"regexp"
	"strings"
)

// ticketPattern matches issue-tracker references like ABC-123: an
// uppercase project key followed by a hyphen and a numeric id.
var ticketPattern = regexp.MustCompile(`[A-Z][A-Z0-9]+-\d+`)

// extractTicketKey returns the first issue-tracker reference in a
// commit message, or "" when none is present.
func extractTicketKey(message string) string {
	return ticketPattern.FindString(message)
}

// ticketURL joins a tracker base URL with a ticket key in the
// conventional browse layout. Empty when either part is missing.
func ticketURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/browse/" + key
}

// messageTitle returns the first line of a commit message, trimmed.
func messageTitle(message string) string {
	title, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(title)
}
