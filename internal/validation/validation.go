package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxKeywordLength is the longest keyword accepted, in characters.
const MaxKeywordLength = 100

// ScreenNamePattern is the X handle format: 1 to 15 letters, digits or underscores.
var ScreenNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

// NormalizeKeyword trims surrounding whitespace.
func NormalizeKeyword(keyword string) string {
	return strings.TrimSpace(keyword)
}

// ValidateKeyword checks a normalized keyword. Keywords are sent to the search
// API as quoted phrases, so they cannot contain a double quote.
func ValidateKeyword(keyword string) (bool, string) {
	if keyword == "" {
		return false, "Keyword is required"
	}
	if utf8.RuneCountInString(keyword) > MaxKeywordLength {
		return false, "Keyword must be at most 100 characters"
	}
	if strings.Contains(keyword, `"`) {
		return false, "Keyword cannot contain double quotes"
	}
	if strings.ContainsAny(keyword, "\r\n\t") {
		return false, "Keyword cannot contain line breaks or tabs"
	}
	return true, ""
}

// NormalizeScreenName trims whitespace and a leading @.
func NormalizeScreenName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "@")
}

// ValidateScreenName checks a normalized X handle.
func ValidateScreenName(name string) (bool, string) {
	if name == "" {
		return false, "Screen name is required"
	}
	if !ScreenNamePattern.MatchString(name) {
		return false, "Screen name must be 1-15 letters, digits or underscores"
	}
	return true, ""
}

// ValidateUserID checks an X account id.
func ValidateUserID(id int64) (bool, string) {
	if id <= 0 {
		return false, "Twitter user id must be a positive number"
	}
	return true, ""
}
