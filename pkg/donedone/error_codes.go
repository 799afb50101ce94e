package donedone

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode is a machine-readable error class.
type ErrorCode string

const (
	// ErrBadRequest indicates a malformed request (HTTP 400).
	ErrBadRequest ErrorCode = "bad_request"
	// ErrUnauthorized indicates bad or missing credentials (HTTP 401).
	ErrUnauthorized ErrorCode = "unauthorized"
	// ErrForbidden indicates the user lacks permission (HTTP 403).
	ErrForbidden ErrorCode = "forbidden"
	// ErrNotFound indicates the project or issue does not exist (HTTP 404).
	ErrNotFound ErrorCode = "not_found"
	// ErrConflict indicates a conflict with current state (HTTP 409).
	ErrConflict ErrorCode = "conflict"
	// ErrValidation indicates the service rejected the field values (HTTP 422).
	ErrValidation ErrorCode = "validation_failed"
	// ErrRateLimited indicates too many requests (HTTP 429).
	ErrRateLimited ErrorCode = "rate_limited"
	// ErrServerError indicates an internal server error (HTTP 5xx).
	ErrServerError ErrorCode = "server_error"
	// ErrTimeout indicates the request timed out.
	ErrTimeout ErrorCode = "timeout"
	// ErrNetwork indicates no response was obtained.
	ErrNetwork ErrorCode = "network"
	// ErrFileAccess indicates an attachment could not be read.
	ErrFileAccess ErrorCode = "file_access"
	// ErrUnknown indicates an unclassified error.
	ErrUnknown ErrorCode = "unknown"
)

// Suggestion returns a short hint for resolving errors with this code.
func (c ErrorCode) Suggestion() string {
	switch c {
	case ErrUnauthorized:
		return "Run 'donedone auth login' or check your username and API token"
	case ErrForbidden:
		return "Check that the API is enabled for the project and you are a member"
	case ErrNotFound:
		return "Verify the project and issue IDs"
	case ErrValidation:
		return "Check the field values"
	case ErrBadRequest:
		return "Check the request parameters"
	case ErrRateLimited:
		return "Wait a moment before sending more requests"
	case ErrServerError:
		return "The service encountered an error; try again later"
	case ErrTimeout:
		return "The request timed out; check connectivity or raise --timeout"
	case ErrNetwork:
		return "Check your network connection and the subdomain"
	case ErrFileAccess:
		return "Check the attachment path and permissions"
	default:
		return ""
	}
}

// ErrorCodeFromStatus maps an HTTP status code to an ErrorCode.
func ErrorCodeFromStatus(statusCode int) ErrorCode {
	switch statusCode {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	case 422:
		return ErrValidation
	case 429:
		return ErrRateLimited
	default:
		if statusCode >= 500 && statusCode < 600 {
			return ErrServerError
		}
		return ErrUnknown
	}
}

// StructuredError is the JSON form of an error for scripted callers.
type StructuredError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewStructuredError creates a StructuredError with the code's suggestion.
func NewStructuredError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:       code,
		Message:    message,
		Suggestion: code.Suggestion(),
	}
}

// StructuredErrorFromError classifies any error.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		se := NewStructuredError(ErrorCodeFromStatus(apiErr.StatusCode), apiErr.Summary())
		se.Context = map[string]any{"status_code": apiErr.StatusCode, "body": apiErr.Body}
		if apiErr.RequestID != "" {
			se.Context["request_id"] = apiErr.RequestID
		}
		return se
	}

	var ioErr *LocalIOError
	if errors.As(err, &ioErr) {
		se := NewStructuredError(ErrFileAccess, ioErr.Error())
		se.Context = map[string]any{"path": ioErr.Path}
		return se
	}

	var tErr *TransportError
	if errors.As(err, &tErr) {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return NewStructuredError(ErrTimeout, tErr.Error())
		}
		return NewStructuredError(ErrNetwork, tErr.Error())
	}

	return &StructuredError{Code: ErrUnknown, Message: err.Error()}
}
