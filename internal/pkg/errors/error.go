package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNoToken          = errors.New("login did not return a token")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired or invalid")
)

// APIError carries the HTTP status and decoded body of a failed API call.
type APIError struct {
	Status  int
	Body    map[string]interface{}
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError builds an APIError with the most specific message available:
// the body's message field, then its error field, then "Erro <status>".
func NewAPIError(status int, body map[string]interface{}) *APIError {
	msg := fmt.Sprintf("Erro %d", status)
	if body != nil {
		if m, ok := body["message"].(string); ok && m != "" {
			msg = m
		} else if m, ok := body["error"].(string); ok && m != "" {
			msg = m
		}
	}
	return &APIError{Status: status, Body: body, Message: msg}
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
