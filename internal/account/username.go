package account

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// canonicalUsername is the stored form of candidate: trimmed and lowercased.
func canonicalUsername(candidate string) string {
	return strings.ToLower(strings.TrimSpace(candidate))
}

// NormalizeUsername canonicalizes candidate and checks the username rules.
// Lengths count characters, not bytes.
func NormalizeUsername(candidate string) (string, error) {
	name := canonicalUsername(candidate)
	length := utf8.RuneCountInString(name)

	switch {
	case length < MinUsernameLength:
		return "", &ValidationError{Field: "username", Message: "must be at least 3 characters"}
	case length > MaxUsernameLength:
		return "", &ValidationError{Field: "username", Message: "must be at most 30 characters"}
	case !usernamePattern.MatchString(name):
		return "", &ValidationError{Field: "username", Message: "lowercase letters, numbers, dashes, and underscores only"}
	}

	return name, nil
}
