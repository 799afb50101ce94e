package donedone

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// TransportError means no HTTP response was obtained (DNS, connect, TLS,
// timeout, cancelled context).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("API request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response. Body is the full response text; the
// service usually puts structured JSON error detail there.
type APIError struct {
	StatusCode int
	Body       string
	RequestID  string
}

func (e *APIError) Error() string {
	if summary := e.Summary(); summary != "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, summary)
	}
	return fmt.Sprintf("API error (status %d)", e.StatusCode)
}

// Summary extracts a one-line message from a JSON error body, falling back
// to the trimmed body text.
func (e *APIError) Summary() string {
	var errResp struct {
		Message      string `json:"Message"`
		MessageLower string `json:"message"`
		Error        string `json:"error"`
		Errors       any    `json:"errors"`
	}
	if err := json.Unmarshal([]byte(e.Body), &errResp); err != nil {
		body := strings.TrimSpace(e.Body)
		if runes := []rune(body); len(runes) > 200 {
			body = string(runes[:197]) + "..."
		}
		return body
	}

	var result string
	switch {
	case errResp.Message != "":
		result = errResp.Message
	case errResp.MessageLower != "":
		result = errResp.MessageLower
	case errResp.Error != "":
		result = errResp.Error
	}

	if validation := formatValidationErrors(errResp.Errors); validation != "" {
		if result != "" {
			return result + "; " + validation
		}
		return validation
	}
	return result
}

// formatValidationErrors flattens {"field": "msg"} or {"field": ["msg", ...]}.
func formatValidationErrors(v any) string {
	errMap, ok := v.(map[string]any)
	if !ok || len(errMap) == 0 {
		return ""
	}
	var lines []string
	for field, value := range errMap {
		switch msg := value.(type) {
		case string:
			lines = append(lines, fmt.Sprintf("%s: %s", field, msg))
		case []any:
			for _, m := range msg {
				if s, ok := m.(string); ok {
					lines = append(lines, fmt.Sprintf("%s: %s", field, s))
				}
			}
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "; ")
}

// LocalIOError means an attachment could not be opened or read. It is
// returned before any request is sent.
type LocalIOError struct {
	Path string
	Err  error
}

func (e *LocalIOError) Error() string {
	return fmt.Sprintf("cannot read attachment %s: %v", e.Path, e.Err)
}

func (e *LocalIOError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsAPIError reports whether err is or wraps an *APIError.
func IsAPIError(err error) bool {
	var e *APIError
	return errors.As(err, &e)
}

// IsLocalIOError reports whether err is or wraps a *LocalIOError.
func IsLocalIOError(err error) bool {
	var e *LocalIOError
	return errors.As(err, &e)
}

// IsNotFoundError reports whether err is an API 404.
func IsNotFoundError(err error) bool {
	return StatusCode(err) == 404
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
