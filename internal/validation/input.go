// Package validation checks user input before it is sent.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input length limits
const (
	MaxTitleLength = 255
	MaxTextLength  = 100000 // bytes, for descriptions and comments
)

// ValidateTitle checks an issue title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	length := utf8.RuneCountInString(title)
	if length > MaxTitleLength {
		return fmt.Errorf("title exceeds maximum length of %d characters (got %d)", MaxTitleLength, length)
	}
	return nil
}

// ValidateText checks free text such as a description or comment. Empty
// text is allowed; callers decide whether it is required.
func ValidateText(field, text string) error {
	if length := len(text); length > MaxTextLength {
		return fmt.Errorf("%s exceeds maximum size of %d bytes (got %d)", field, MaxTextLength, length)
	}
	return nil
}

// ParsePositiveInt parses an ID such as "42" or "#42".
func ParsePositiveInt(s string, fieldName string) (int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "#")
	id64, err := strconv.ParseInt(trimmed, 10, 32)
	if err != nil || id64 <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", fieldName, s)
	}
	return int(id64), nil
}
